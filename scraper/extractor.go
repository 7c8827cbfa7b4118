package scraper

import (
	"context"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"companydash/finance"
)

// DefaultSettleDelay gives client-side rendering time to finish before the DOM is read.
const DefaultSettleDelay = 2 * time.Second

// Extractor reads one company page into a record.
type Extractor struct {
	session Session
	settle  time.Duration
	rules   []finance.Rule
}

// NewExtractor returns an extractor using the default classification rules.
func NewExtractor(s Session, settle time.Duration) *Extractor {
	return &Extractor{session: s, settle: settle, rules: finance.DefaultRules}
}

// Extract loads ref's page and extracts what it can. An error is returned
// only when the page itself could not be loaded; anything after that yields
// a record, possibly with every field absent.
func (e *Extractor) Extract(ctx context.Context, ref finance.CompanyRef) (*finance.Record, error) {
	log := zap.L().With(zap.String("company", ref.Name))

	if err := e.session.Navigate(ctx, ref.DetailURL); err != nil {
		return nil, eris.Wrapf(err, "scraper: load %s", ref.Name)
	}
	if err := sleep(ctx, e.settle); err != nil {
		return nil, eris.Wrap(err, "scraper: settle")
	}

	doc, err := e.session.Document(ctx)
	if err != nil {
		log.Warn("could not read page, keeping empty record", zap.Error(err))
		rec := finance.NewRecord(ref)
		return &rec, nil
	}

	rec, issues := finance.ExtractRecord(doc, ref, e.rules)
	for _, issue := range issues {
		log.Warn("partial extraction", zap.Error(issue))
	}
	log.Info("data extracted",
		zap.Int("revenue_rows", len(rec.Revenue)),
		zap.Int("profit_rows", len(rec.Profit)),
		zap.Int("margin_rows", len(rec.Margin)),
		zap.Int("quarters", len(rec.Quarters)),
	)
	return &rec, nil
}
