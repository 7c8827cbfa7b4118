package scraper

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"companydash/finance"
)

// --- Session Mock ---

type mockSession struct {
	mock.Mock
}

func (m *mockSession) Navigate(ctx context.Context, url string) error {
	args := m.Called(ctx, url)
	return args.Error(0)
}

func (m *mockSession) WaitFor(ctx context.Context, selector string, timeout time.Duration) bool {
	args := m.Called(ctx, selector, timeout)
	return args.Bool(0)
}

func (m *mockSession) Document(ctx context.Context) (*goquery.Document, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*goquery.Document), args.Error(1)
}

func (m *mockSession) Fill(ctx context.Context, selector, value string) error {
	args := m.Called(ctx, selector, value)
	return args.Error(0)
}

func (m *mockSession) Click(ctx context.Context, selector string) error {
	args := m.Called(ctx, selector)
	return args.Error(0)
}

func (m *mockSession) Location(ctx context.Context) (string, error) {
	args := m.Called(ctx)
	return args.String(0), args.Error(1)
}

// --- Extractor Mock ---

type mockExtractor struct {
	mock.Mock
}

func (m *mockExtractor) Extract(ctx context.Context, ref finance.CompanyRef) (*finance.Record, error) {
	args := m.Called(ctx, ref)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*finance.Record), args.Error(1)
}

func htmlDoc(t *testing.T, html string) *goquery.Document {
	t.Helper()
	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	require.NoError(t, err)
	return doc
}

// watchlistPage renders a listing table with one linked row per name.
func watchlistPage(t *testing.T, names ...string) *goquery.Document {
	t.Helper()
	var b strings.Builder
	b.WriteString("<table><tbody>")
	for _, n := range names {
		b.WriteString(`<tr><td><a href="/company/` + n + `/">` + n + `</a></td></tr>`)
	}
	b.WriteString("</tbody></table>")
	return htmlDoc(t, b.String())
}
