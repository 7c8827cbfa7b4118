// Package finance holds the company record model and the goquery parsers that
// turn a rendered company page into a record.
package finance

import (
	"time"
)

// CompanyRef identifies one company found on a watchlist.
type CompanyRef struct {
	Name      string `json:"name"`
	DetailURL string `json:"detailUrl"`
}

// Quarter is one row of the quarterly results table.
type Quarter struct {
	Period string `json:"period"`
	Sales  string `json:"sales"`
	Profit string `json:"profit"`
}

// MaxQuarters is the number of quarterly rows kept per record.
const MaxQuarters = 8

// Record is the financial snapshot extracted for a single company.
// Any field may be absent; a partially filled record is still valid.
type Record struct {
	Name      string `json:"name"`
	SourceURL string `json:"sourceUrl"`

	CurrentPrice Field `json:"currentPrice"`
	MarketCap    Field `json:"marketCap"`
	PERatio      Field `json:"peRatio"`
	Sector       Field `json:"sector"`

	Revenue Series `json:"revenue"`
	Profit  Series `json:"profit"`
	Margin  Series `json:"margin"`

	Quarters []Quarter `json:"quarters"`
}

// NewRecord returns an empty record carrying the identity of ref.
func NewRecord(ref CompanyRef) Record {
	return Record{
		Name:      ref.Name,
		SourceURL: ref.DetailURL,
		Quarters:  []Quarter{},
	}
}

// Row returns the flat six-column view shared by the spreadsheet outputs:
// company, sector, price, market cap, P/E, URL.
func (r Record) Row() []string {
	return []string{
		r.Name,
		r.Sector.String(),
		r.CurrentPrice.String(),
		r.MarketCap.String(),
		r.PERatio.String(),
		r.SourceURL,
	}
}

// series returns the series a classification target writes to.
func (r *Record) series(kind SeriesKind) *Series {
	switch kind {
	case SeriesRevenue:
		return &r.Revenue
	case SeriesProfit:
		return &r.Profit
	case SeriesMargin:
		return &r.Margin
	}
	return nil
}

// Dataset is the ordered output of one run.
type Dataset struct {
	RunID      string    `json:"runId"`
	StartedAt  time.Time `json:"startedAt"`
	FinishedAt time.Time `json:"finishedAt"`
	Records    []Record  `json:"records"`
}

// Names returns the company names in dataset order.
func (d Dataset) Names() []string {
	names := make([]string, 0, len(d.Records))
	for _, r := range d.Records {
		names = append(names, r.Name)
	}
	return names
}

// Find returns the record for name.
func (d Dataset) Find(name string) (Record, bool) {
	for _, r := range d.Records {
		if r.Name == name {
			return r, true
		}
	}
	return Record{}, false
}
