package scraper

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"companydash/finance"
)

var acme = finance.CompanyRef{Name: "Acme", DetailURL: "https://www.screener.in/company/ACME/"}

const detailPage = `<html><body>
<p class="sub"><a href="/market/">Chemicals</a></p>
<ul id="top-ratios">
  <li><span class="number">512</span></li><li></li>
  <li><span class="number">9,800</span></li><li></li>
  <li><span class="number">18.2</span></li>
</ul>
<section class="card"><table><tbody>
  <tr><td>Net Sales</td><td>100</td><td>120</td><td>140</td></tr>
</tbody></table></section>
</body></html>`

func TestExtract_Success(t *testing.T) {
	s := new(mockSession)
	s.On("Navigate", mock.Anything, acme.DetailURL).Return(nil)
	s.On("Document", mock.Anything).Return(htmlDoc(t, detailPage), nil)

	rec, err := NewExtractor(s, 0).Extract(context.Background(), acme)

	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, "Acme", rec.Name)
	assert.Equal(t, "512", rec.CurrentPrice.String())
	assert.Equal(t, "9,800", rec.MarketCap.String())
	assert.Equal(t, "18.2", rec.PERatio.String())
	assert.Equal(t, "Chemicals", rec.Sector.String())
	values, ok := rec.Revenue.Get("Net Sales")
	require.True(t, ok)
	assert.Equal(t, []string{"100", "120", "140"}, values)
	s.AssertExpectations(t)
}

func TestExtract_NavigationFailureYieldsNoRecord(t *testing.T) {
	s := new(mockSession)
	s.On("Navigate", mock.Anything, acme.DetailURL).Return(errors.New("net::ERR_TIMED_OUT"))

	rec, err := NewExtractor(s, 0).Extract(context.Background(), acme)

	assert.Error(t, err)
	assert.Nil(t, rec)
	s.AssertNotCalled(t, "Document", mock.Anything)
}

func TestExtract_UnreadablePageYieldsEmptyRecord(t *testing.T) {
	s := new(mockSession)
	s.On("Navigate", mock.Anything, acme.DetailURL).Return(nil)
	s.On("Document", mock.Anything).Return(nil, errors.New("node not found"))

	rec, err := NewExtractor(s, 0).Extract(context.Background(), acme)

	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, acme.Name, rec.Name)
	assert.Equal(t, acme.DetailURL, rec.SourceURL)
	assert.False(t, rec.CurrentPrice.Present())
	assert.Empty(t, rec.Revenue)
}

func TestExtract_CancelledDuringSettle(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	s := new(mockSession)
	s.On("Navigate", mock.Anything, acme.DetailURL).Return(nil).Run(func(mock.Arguments) { cancel() })

	rec, err := NewExtractor(s, DefaultSettleDelay).Extract(ctx, acme)

	assert.ErrorIs(t, err, context.Canceled)
	assert.Nil(t, rec)
}
