package main

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"companydash/browser"
	"companydash/cache"
	"companydash/config"
	"companydash/finance"
	"companydash/scraper"
	"companydash/sheets"
	"companydash/workbook"
)

var (
	runOutputDir  string
	runNoSheets   bool
	runNoWorkbook bool
)

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Scrape the watchlists once and publish the results",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()

		applyRunFlags(cmd, cfg)
		if err := cfg.Validate("run"); err != nil {
			return err
		}

		lists := watchlists(cfg.ActiveWatchlists())
		if len(lists) == 0 {
			return eris.Wrap(scraper.ErrNoWatchlists, "set MY_STONKS_WATCHLIST_URL or CORE_WATCHLIST_URL")
		}

		sess, err := browser.Open(ctx, browser.Options{
			UserAgent: cfg.Scrape.UserAgent,
			Debug:     cfg.Log.Level == "debug",
		})
		if err != nil {
			return err
		}
		defer sess.Close()

		res, found, err := scrape(ctx, sess, cfg, lists)
		if err != nil {
			return err
		}

		out := publish(ctx, cfg, res.Dataset)
		logSummary(res, found, out)
		return nil
	},
}

func init() {
	runCmd.Flags().StringVar(&runOutputDir, "output-dir", "", "directory for the xlsx dashboard (overrides OUTPUT_DIR)")
	runCmd.Flags().BoolVar(&runNoSheets, "no-sheets", false, "skip the Google Sheets sync")
	runCmd.Flags().BoolVar(&runNoWorkbook, "no-workbook", false, "skip the xlsx dashboard")
}

func applyRunFlags(cmd *cobra.Command, c *config.Config) {
	if cmd.Flags().Changed("output-dir") {
		c.Output.Dir = runOutputDir
	}
	if runNoSheets {
		c.Sheets.Enabled = false
	}
	if runNoWorkbook {
		c.Output.Workbook = false
	}
}

func watchlists(in []config.Watchlist) []scraper.Watchlist {
	out := make([]scraper.Watchlist, 0, len(in))
	for _, wl := range in {
		out = append(out, scraper.Watchlist{Name: wl.Name, URL: wl.URL})
	}
	return out
}

// scrape logs in, collects the watchlists and extracts every company.
// It returns the number of unique companies found alongside the result.
func scrape(ctx context.Context, sess scraper.Session, c *config.Config, lists []scraper.Watchlist) (*scraper.Result, int, error) {
	err := scraper.Login(ctx, sess, scraper.Credentials{
		Username: c.Screener.Username,
		Password: c.Screener.Password,
	}, scraper.LoginOptions{
		URL:     c.Screener.LoginURL,
		Timeout: c.Scrape.ListTimeout,
		Settle:  c.Scrape.LoginSettle,
	})
	if err != nil {
		return nil, 0, err
	}

	refs, err := scraper.NewCollector(sess, c.Scrape.ListTimeout).Collect(ctx, lists)
	if err != nil {
		return nil, 0, err
	}
	zap.L().Info("companies collected", zap.Int("count", len(refs)))

	extractor := scraper.NewExtractor(sess, c.Scrape.SettleDelay)
	res, err := scraper.NewBatch(extractor, c.Scrape.PaceDelay).Run(ctx, refs)
	if err != nil {
		return nil, len(refs), err
	}
	return res, len(refs), nil
}

// outputs records what each publisher produced; empty means skipped or failed.
type outputs struct {
	Snapshot     string
	SheetURL     string
	SheetRows    int
	WorkbookPath string
}

// publish runs every enabled publisher. Failures are logged and do not stop
// the others.
func publish(ctx context.Context, c *config.Config, ds finance.Dataset) outputs {
	var out outputs

	if c.Redis.Addr != "" {
		if err := saveSnapshot(ctx, c.Redis, ds); err != nil {
			zap.L().Error("snapshot failed", zap.Error(err))
		} else {
			out.Snapshot = ds.RunID
		}
	}

	if c.Sheets.Enabled {
		client, err := sheets.NewClient(ctx, c.Sheets.SpreadsheetID, c.Sheets.CredentialsBase64)
		if err == nil {
			out.SheetRows, err = sheets.Publish(ctx, client, c.Sheets.ClearRange, c.Sheets.WriteRange, ds)
		}
		if err != nil {
			zap.L().Error("google sheets update failed", zap.Error(err))
		} else {
			out.SheetURL = client.URL()
		}
	}

	if c.Output.Workbook {
		path, err := workbook.Render(ds, c.Output.Dir, time.Now())
		if err != nil {
			zap.L().Error("workbook failed", zap.Error(err))
		} else {
			out.WorkbookPath = path
		}
	}

	return out
}

func saveSnapshot(ctx context.Context, rc config.RedisConfig, ds finance.Dataset) error {
	rdb, err := cache.NewClient(ctx, rc.Addr, rc.Password, rc.DB)
	if err != nil {
		return err
	}
	defer rdb.Close()
	return cache.NewSnapshotStore(rdb, rc.TTL).Save(ctx, ds)
}

func logSummary(res *scraper.Result, found int, out outputs) {
	ds := res.Dataset
	zap.L().Info("run complete",
		zap.String("run_id", ds.RunID),
		zap.Int("companies_found", found),
		zap.Int("records", res.Succeeded),
		zap.Strings("failed", res.Failed),
		zap.String("workbook", out.WorkbookPath),
		zap.String("sheet_url", out.SheetURL),
		zap.Int("sheet_rows", out.SheetRows),
		zap.String("snapshot", out.Snapshot),
		zap.Time("started_at", ds.StartedAt),
		zap.Time("finished_at", ds.FinishedAt),
		zap.Duration("elapsed", ds.FinishedAt.Sub(ds.StartedAt)),
	)
}
