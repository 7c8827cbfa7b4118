package scraper

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"companydash/finance"
)

// DefaultPaceDelay is the pause between two company pages.
const DefaultPaceDelay = time.Second

// RecordExtractor extracts one company. *Extractor satisfies it.
type RecordExtractor interface {
	Extract(ctx context.Context, ref finance.CompanyRef) (*finance.Record, error)
}

// Result summarises a batch run.
type Result struct {
	Dataset   finance.Dataset
	Attempted int
	Succeeded int
	Failed    []string
}

// Batch extracts companies one after another.
type Batch struct {
	extractor RecordExtractor
	pace      time.Duration
	now       func() time.Time
}

// NewBatch returns a batch that waits pace between companies.
func NewBatch(e RecordExtractor, pace time.Duration) *Batch {
	return &Batch{extractor: e, pace: pace, now: time.Now}
}

// Run extracts every ref in order. A company that fails is logged and left
// out of the dataset. ErrNoRecords is returned, along with the result, when
// nothing succeeded.
func (b *Batch) Run(ctx context.Context, refs []finance.CompanyRef) (*Result, error) {
	res := &Result{
		Dataset: finance.Dataset{
			RunID:     uuid.NewString(),
			StartedAt: b.now(),
			Records:   make([]finance.Record, 0, len(refs)),
		},
	}
	log := zap.L().With(zap.String("run_id", res.Dataset.RunID))
	log.Info("scraping companies", zap.Int("count", len(refs)))

	for i, ref := range refs {
		if i > 0 {
			if err := sleep(ctx, b.pace); err != nil {
				return nil, eris.Wrap(err, "scraper: batch interrupted")
			}
		}

		res.Attempted++
		log.Info("scraping", zap.Int("n", i+1), zap.Int("of", len(refs)), zap.String("company", ref.Name))

		rec, err := b.extractor.Extract(ctx, ref)
		if err != nil {
			if ctx.Err() != nil {
				return nil, eris.Wrap(ctx.Err(), "scraper: batch interrupted")
			}
			log.Warn("company failed", zap.String("company", ref.Name), zap.Error(err))
			res.Failed = append(res.Failed, ref.Name)
			continue
		}
		res.Dataset.Records = append(res.Dataset.Records, *rec)
		res.Succeeded++
	}

	res.Dataset.FinishedAt = b.now()
	log.Info("scrape finished", zap.Int("succeeded", res.Succeeded), zap.Int("attempted", res.Attempted))

	if res.Succeeded == 0 {
		return res, ErrNoRecords
	}
	return res, nil
}
