package finance

import (
	"github.com/PuerkitoBio/goquery"
	"github.com/rotisserie/eris"

	"companydash/utils"
)

const (
	CardTableSelector = "section.card table"
	QuartersSelector  = "section#quarters"
)

// ExtractSeries walks every table inside the page's card sections and files
// each labelled body row under the series chosen by rules. Rows that match no
// rule are dropped. A table or row that fails to parse is skipped on its own.
func ExtractSeries(doc *goquery.Document, rec *Record, rules []Rule) []error {
	var issues []error
	doc.Find(CardTableSelector).Each(func(ti int, table *goquery.Selection) {
		err := guard(func() {
			table.Find("tbody tr").Each(func(ri int, row *goquery.Selection) {
				if err := guard(func() { fileRow(row, rec, rules) }); err != nil {
					issues = append(issues, eris.Wrapf(err, "finance: table %d row %d", ti, ri))
				}
			})
		})
		if err != nil {
			issues = append(issues, eris.Wrapf(err, "finance: table %d", ti))
		}
	})
	return issues
}

func fileRow(row *goquery.Selection, rec *Record, rules []Rule) {
	cells := cellTexts(row)
	if len(cells) < 2 {
		return
	}
	label := cells[0]
	kind, ok := Classify(label, rules)
	if !ok {
		return
	}
	rec.series(kind).Set(label, cells[1:])
}

// ExtractQuarters reads the first MaxQuarters body rows of the quarterly
// results table. Rows with fewer than three cells are skipped.
func ExtractQuarters(doc *goquery.Document, rec *Record) []error {
	section := doc.Find(QuartersSelector).First()
	if section.Length() == 0 {
		return []error{eris.Wrap(ErrNotFound, "finance: quarterly section")}
	}
	table := section.Find("table").First()
	if table.Length() == 0 {
		return []error{eris.Wrap(ErrNotFound, "finance: quarterly table")}
	}

	rows := table.Find("tbody tr")
	if rows.Length() > MaxQuarters {
		rows = rows.Slice(0, MaxQuarters)
	}

	var issues []error
	rows.Each(func(i int, row *goquery.Selection) {
		err := guard(func() {
			cells := cellTexts(row)
			if len(cells) < 3 {
				return
			}
			rec.Quarters = append(rec.Quarters, Quarter{
				Period: cells[0],
				Sales:  cells[1],
				Profit: cells[2],
			})
		})
		if err != nil {
			issues = append(issues, eris.Wrapf(err, "finance: quarterly row %d", i))
		}
	})
	return issues
}

func cellTexts(row *goquery.Selection) []string {
	cells := row.Find("td")
	out := make([]string, 0, cells.Length())
	cells.Each(func(_ int, c *goquery.Selection) {
		out = append(out, utils.CleanText(c.Text()))
	})
	return out
}
