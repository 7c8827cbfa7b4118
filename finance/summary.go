package finance

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"companydash/utils"
)

// Scalar selectors are keyed by position in the top ratios list, so a
// reordering of that list on the page will shift the values.
const (
	PriceSelector     = "#top-ratios li:nth-child(1) .number"
	MarketCapSelector = "#top-ratios li:nth-child(3) .number"
	PERatioSelector   = "#top-ratios li:nth-child(5) .number"
	SectorSelector    = ".sub a"
)

type scalar struct {
	name     string
	selector string
	set      func(*Record, Field)
}

var scalars = []scalar{
	{"current_price", PriceSelector, func(r *Record, f Field) { r.CurrentPrice = f }},
	{"market_cap", MarketCapSelector, func(r *Record, f Field) { r.MarketCap = f }},
	{"pe_ratio", PERatioSelector, func(r *Record, f Field) { r.PERatio = f }},
	{"sector", SectorSelector, func(r *Record, f Field) { r.Sector = f }},
}

// ExtractScalars fills the price, market cap, P/E and sector fields of rec.
// Each field is read on its own; a failure leaves only that field absent.
func ExtractScalars(doc *goquery.Document, rec *Record) []error {
	var issues []error
	for _, s := range scalars {
		f := capture(func() (string, error) {
			return firstText(doc.Selection, s.selector)
		})
		if !f.Present() {
			issues = append(issues, eris.Wrapf(f.Err, "finance: %s", s.name))
		}
		s.set(rec, f)
	}
	return issues
}

func firstText(sel *goquery.Selection, selector string) (string, error) {
	found := sel.Find(selector).First()
	if found.Length() == 0 {
		return "", eris.Wrapf(ErrNotFound, "selector %q", selector)
	}
	return utils.CleanText(found.Text()), nil
}
