package main

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"companydash/config"
	"companydash/finance"
	"companydash/scraper"
)

// fakeSession serves canned pages keyed by URL.
type fakeSession struct {
	pages    map[string]string
	current  string
	location string
	visited  []string
}

func (f *fakeSession) Navigate(ctx context.Context, url string) error {
	f.visited = append(f.visited, url)
	if _, ok := f.pages[url]; !ok {
		return errors.New("net::ERR_NAME_NOT_RESOLVED")
	}
	f.current = url
	return nil
}

func (f *fakeSession) WaitFor(ctx context.Context, selector string, timeout time.Duration) bool {
	doc, err := f.Document(ctx)
	return err == nil && doc.Find(selector).Length() > 0
}

func (f *fakeSession) Document(ctx context.Context) (*goquery.Document, error) {
	return goquery.NewDocumentFromReader(strings.NewReader(f.pages[f.current]))
}

func (f *fakeSession) Fill(ctx context.Context, selector, value string) error { return nil }

func (f *fakeSession) Click(ctx context.Context, selector string) error { return nil }

func (f *fakeSession) Location(ctx context.Context) (string, error) { return f.location, nil }

const (
	loginURL = "https://www.screener.in/login/"
	listA    = "https://www.screener.in/watchlist/1/"
	listB    = "https://www.screener.in/watchlist/2/"
)

func site() *fakeSession {
	return &fakeSession{
		location: "https://www.screener.in/dash/",
		pages: map[string]string{
			loginURL: `<form><input name="username"><input name="password"><button type="submit">Login</button></form>`,
			listA: `<table><tbody>
				<tr><td><a href="/company/ACME/">Acme</a></td></tr>
				<tr><td><a href="/company/GLOBEX/">Globex</a></td></tr>
			</tbody></table>`,
			listB: `<table><tbody>
				<tr><td><a href="/company/GLOBEX/">Globex</a></td></tr>
			</tbody></table>`,
			"https://www.screener.in/company/ACME/": `<div id="top-ratios"><ul>
				<li><span class="number">512</span></li><li></li>
				<li><span class="number">9,800</span></li><li></li>
				<li><span class="number">18.2</span></li></ul></div>
				<div class="sub"><a>Chemicals</a></div>`,
		},
	}
}

func testConfig() *config.Config {
	return &config.Config{
		Screener: config.ScreenerConfig{Username: "u", Password: "p", LoginURL: loginURL},
		Scrape:   config.ScrapeConfig{ListTimeout: time.Second},
	}
}

func TestScrape(t *testing.T) {
	sess := site()
	lists := []scraper.Watchlist{{Name: "My Stonks", URL: listA}, {Name: "Core Watchlist", URL: listB}}

	res, found, err := scrape(context.Background(), sess, testConfig(), lists)
	require.NoError(t, err)

	assert.Equal(t, 2, found)
	assert.Equal(t, 1, res.Succeeded)
	assert.Equal(t, []string{"Globex"}, res.Failed)
	require.Len(t, res.Dataset.Records, 1)

	acme := res.Dataset.Records[0]
	assert.Equal(t, "512", acme.CurrentPrice.String())
	assert.Equal(t, "9,800", acme.MarketCap.String())
	assert.Equal(t, "18.2", acme.PERatio.String())
	assert.Equal(t, "Chemicals", acme.Sector.String())
}

func TestScrape_LoginRejected(t *testing.T) {
	sess := site()
	sess.location = "https://www.screener.in/login/?next=/"

	_, _, err := scrape(context.Background(), sess, testConfig(), []scraper.Watchlist{{Name: "A", URL: listA}})
	assert.ErrorIs(t, err, scraper.ErrLoginFailed)
	assert.Equal(t, []string{loginURL}, sess.visited)
}

func TestScrape_NoRecords(t *testing.T) {
	sess := site()
	delete(sess.pages, "https://www.screener.in/company/ACME/")

	_, found, err := scrape(context.Background(), sess, testConfig(), []scraper.Watchlist{{Name: "A", URL: listA}})
	assert.ErrorIs(t, err, scraper.ErrNoRecords)
	assert.Equal(t, 2, found)
}

func TestWatchlists(t *testing.T) {
	got := watchlists([]config.Watchlist{{Name: "My Stonks", URL: listA}})
	assert.Equal(t, []scraper.Watchlist{{Name: "My Stonks", URL: listA}}, got)
}

func TestApplyRunFlags(t *testing.T) {
	t.Cleanup(func() {
		runOutputDir, runNoSheets, runNoWorkbook = "", false, false
		runCmd.Flags().Lookup("output-dir").Changed = false
		runCmd.Flags().Lookup("no-sheets").Changed = false
	})
	require.NoError(t, runCmd.Flags().Set("output-dir", "/tmp/out"))
	require.NoError(t, runCmd.Flags().Set("no-sheets", "true"))

	c := &config.Config{
		Sheets: config.SheetsConfig{Enabled: true},
		Output: config.OutputConfig{Dir: ".", Workbook: true},
	}
	applyRunFlags(runCmd, c)

	assert.Equal(t, "/tmp/out", c.Output.Dir)
	assert.False(t, c.Sheets.Enabled)
	assert.True(t, c.Output.Workbook)
}

func TestPublish_WorkbookOnly(t *testing.T) {
	dir := t.TempDir()
	c := &config.Config{Output: config.OutputConfig{Dir: dir, Workbook: true}}

	rec := finance.NewRecord(finance.CompanyRef{Name: "Acme", DetailURL: "https://www.screener.in/company/ACME/"})
	out := publish(context.Background(), c, finance.Dataset{RunID: "run-1", Records: []finance.Record{rec}})

	assert.Empty(t, out.Snapshot)
	assert.Empty(t, out.SheetURL)
	require.NotEmpty(t, out.WorkbookPath)
	assert.Equal(t, dir, filepath.Dir(out.WorkbookPath))
	_, err := os.Stat(out.WorkbookPath)
	assert.NoError(t, err)
}

func TestPublish_FailuresDoNotBlockOthers(t *testing.T) {
	dir := t.TempDir()
	c := &config.Config{
		Sheets: config.SheetsConfig{Enabled: true, SpreadsheetID: "sheet", CredentialsBase64: "%%%not-base64"},
		Output: config.OutputConfig{Dir: dir, Workbook: true},
	}

	out := publish(context.Background(), c, finance.Dataset{RunID: "run-1"})
	assert.Empty(t, out.SheetURL)
	assert.NotEmpty(t, out.WorkbookPath)
}
