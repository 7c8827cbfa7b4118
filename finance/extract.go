package finance

import "github.com/PuerkitoBio/goquery"

// ExtractRecord builds the record for ref from a rendered company page.
// It always returns a record; issues lists the parts that could not be read.
func ExtractRecord(doc *goquery.Document, ref CompanyRef, rules []Rule) (Record, []error) {
	rec := NewRecord(ref)

	var issues []error
	issues = append(issues, ExtractScalars(doc, &rec)...)
	issues = append(issues, ExtractSeries(doc, &rec, rules)...)
	issues = append(issues, ExtractQuarters(doc, &rec)...)

	return rec, issues
}
