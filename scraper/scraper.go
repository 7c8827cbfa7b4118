// Package scraper collects companies from watchlist pages and extracts a
// financial record for each of them through a browser session.
package scraper

import (
	"context"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"
)

var (
	// ErrLoginFailed means the login form was submitted but the site kept us on the login page.
	ErrLoginFailed = eris.New("scraper: login failed")
	// ErrNoWatchlists means no watchlist has a URL configured.
	ErrNoWatchlists = eris.New("scraper: no watchlists configured")
	// ErrNoCompanies means every watchlist came back empty.
	ErrNoCompanies = eris.New("scraper: no companies found in watchlists")
	// ErrNoRecords means no company page could be extracted.
	ErrNoRecords = eris.New("scraper: no records extracted")
)

// Session is the subset of a browser session the scraper drives.
// *browser.Session satisfies it.
type Session interface {
	Navigate(ctx context.Context, url string) error
	WaitFor(ctx context.Context, selector string, timeout time.Duration) bool
	Document(ctx context.Context) (*goquery.Document, error)
	Fill(ctx context.Context, selector, value string) error
	Click(ctx context.Context, selector string) error
	Location(ctx context.Context) (string, error)
}

// Watchlist is a named listing page. An empty URL means the list is skipped.
type Watchlist struct {
	Name string
	URL  string
}

// sleep waits for d or until ctx is done.
func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
