package scraper

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"companydash/finance"
)

// DefaultListTimeout bounds the wait for a watchlist table.
const DefaultListTimeout = 10 * time.Second

// Collector gathers unique companies from watchlist pages.
type Collector struct {
	session Session
	timeout time.Duration
}

// NewCollector returns a collector that waits up to timeout for each list.
func NewCollector(s Session, timeout time.Duration) *Collector {
	if timeout <= 0 {
		timeout = DefaultListTimeout
	}
	return &Collector{session: s, timeout: timeout}
}

// Collect walks the watchlists in order and returns every company once,
// keeping the first occurrence of a name. A list that fails to load counts
// as empty.
func (c *Collector) Collect(ctx context.Context, lists []Watchlist) ([]finance.CompanyRef, error) {
	active := 0
	for _, wl := range lists {
		if wl.URL != "" {
			active++
		}
	}
	if active == 0 {
		return nil, ErrNoWatchlists
	}

	seen := make(map[string]struct{})
	var out []finance.CompanyRef

	for _, wl := range lists {
		if wl.URL == "" {
			zap.L().Debug("skipping watchlist without url", zap.String("watchlist", wl.Name))
			continue
		}
		if err := ctx.Err(); err != nil {
			return nil, eris.Wrap(err, "scraper: collect watchlists")
		}

		refs, err := c.collectList(ctx, wl)
		if err != nil {
			zap.L().Warn("watchlist skipped",
				zap.String("watchlist", wl.Name),
				zap.String("url", wl.URL),
				zap.Error(err),
			)
			continue
		}

		added := 0
		for _, ref := range refs {
			if _, dup := seen[ref.Name]; dup {
				continue
			}
			seen[ref.Name] = struct{}{}
			out = append(out, ref)
			added++
		}
		zap.L().Info("watchlist collected",
			zap.String("watchlist", wl.Name),
			zap.Int("found", len(refs)),
			zap.Int("new", added),
		)
	}

	zap.L().Info("total unique companies", zap.Int("count", len(out)))
	if len(out) == 0 {
		return nil, ErrNoCompanies
	}
	return out, nil
}

func (c *Collector) collectList(ctx context.Context, wl Watchlist) ([]finance.CompanyRef, error) {
	if err := c.session.Navigate(ctx, wl.URL); err != nil {
		return nil, err
	}
	if !c.session.WaitFor(ctx, finance.WatchlistTableSelector, c.timeout) {
		return nil, eris.Errorf("scraper: listing table not ready after %s", c.timeout)
	}
	doc, err := c.session.Document(ctx)
	if err != nil {
		return nil, err
	}

	// Links resolve against the page that loaded, which differs from wl.URL after a redirect.
	base := wl.URL
	if loc, err := c.session.Location(ctx); err == nil && loc != "" {
		base = loc
	} else if err != nil {
		zap.L().Debug("watchlist location unavailable", zap.String("watchlist", wl.Name), zap.Error(err))
	}
	return finance.ExtractWatchlist(doc, base), nil
}
