package finance

import (
	"github.com/PuerkitoBio/goquery"

	"companydash/utils"
)

const (
	WatchlistTableSelector = "table"
	watchlistRowSelector   = "table tbody tr"
	watchlistLinkSelector  = "td a"
)

// ExtractWatchlist returns one ref per listing row that has both a name and a
// link, in page order. Relative links are resolved against pageURL.
func ExtractWatchlist(doc *goquery.Document, pageURL string) []CompanyRef {
	var refs []CompanyRef
	doc.Find(watchlistRowSelector).Each(func(_ int, row *goquery.Selection) {
		link := row.Find(watchlistLinkSelector).First()
		if link.Length() == 0 {
			return
		}
		name := utils.CleanText(link.Text())
		href, ok := link.Attr("href")
		if !ok || name == "" {
			return
		}
		detail := utils.ResolveURL(pageURL, href)
		if detail == "" {
			return
		}
		refs = append(refs, CompanyRef{Name: name, DetailURL: detail})
	})
	return refs
}
