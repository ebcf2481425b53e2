package sources

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volur/types"
)

const screenerCompanyPage = `<html><body>
<h1>Tata Consultancy Services Ltd</h1>
<ul id="top-ratios">
  <li class="flex flex-space-between" data-source="default">
    <span class="name">Market Cap</span>
    <span class="nowrap value">₹ <span class="number">10,000</span> Cr.</span>
  </li>
  <li class="flex flex-space-between" data-source="default">
    <span class="name">Current Price</span>
    <span class="nowrap value">₹ <span class="number">2,500</span></span>
  </li>
  <li class="flex flex-space-between" data-source="default">
    <span class="name">Stock P/E</span>
    <span class="nowrap value"><span class="number">20.0</span></span>
  </li>
  <li class="flex flex-space-between" data-source="default">
    <span class="name">Book Value</span>
    <span class="nowrap value">₹ <span class="number">500</span></span>
  </li>
  <li class="flex flex-space-between" data-source="default">
    <span class="name">ROE</span>
    <span class="nowrap value"><span class="number">40.0</span> %</span>
  </li>
</ul>
<section id="profit-loss"><div data-result-table><table class="data-table">
  <thead><tr><th></th><th>Mar 2023</th><th>Mar 2024</th></tr></thead>
  <tbody>
    <tr><td class="text">Sales +</td><td>1,800</td><td>2,000</td></tr>
    <tr><td class="text">OPM %</td><td>24%</td><td>25%</td></tr>
    <tr><td class="text">Net Profit +</td><td>350</td><td>400</td></tr>
  </tbody>
</table></div></section>
<section id="balance-sheet"><div data-result-table><table class="data-table">
  <thead><tr><th></th><th>Mar 2024</th></tr></thead>
  <tbody>
    <tr><td class="text">Equity Capital</td><td>100</td></tr>
    <tr><td class="text">Reserves</td><td>900</td></tr>
    <tr><td class="text">Borrowings +</td><td>250</td></tr>
    <tr><td class="text">Total Assets</td><td>2,000</td></tr>
  </tbody>
</table></div></section>
<section id="cash-flow"><div data-result-table><table class="data-table">
  <thead><tr><th></th><th>Mar 2024</th></tr></thead>
  <tbody>
    <tr><td class="text">Cash from Operating Activity +</td><td>450</td></tr>
    <tr><td class="text">Free Cash Flow</td><td>300</td></tr>
  </tbody>
</table></div></section>
</body></html>`

func newScreenerServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/company/TCS/consolidated/", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(screenerCompanyPage))
	})
	return httptest.NewServer(mux)
}

func TestScreenerSource_GetQuote(t *testing.T) {
	server := newScreenerServer(t)
	defer server.Close()
	src := NewScreenerSource(server.URL)

	quote := src.GetQuote(context.Background(), "tcs")
	assert.Equal(t, "TCS", quote.Ticker)
	assert.Equal(t, types.Some(2500.0), quote.Price)
	assert.Equal(t, types.Some("INR"), quote.Currency)
	shares, ok := quote.SharesOutstanding.Get()
	require.True(t, ok)
	assert.InDelta(t, 10000*1e7/2500, shares, 1e-3)
}

func TestScreenerSource_GetFundamentals(t *testing.T) {
	server := newScreenerServer(t)
	defer server.Close()
	src := NewScreenerSource(server.URL)

	f := src.GetFundamentals(context.Background(), "TCS")
	assert.Equal(t, types.Some("Tata Consultancy Services Ltd"), f.Name)
	assert.Equal(t, types.Some(20.0), f.TrailingPE)
	assert.Equal(t, types.Some(5.0), f.PriceToBook)
	assert.Equal(t, types.Some(0.4), f.ROE)
	assert.Equal(t, types.Some(0.25), f.OperatingMargin)
	assert.Equal(t, types.Some(0.2), f.ROA)
	assert.Equal(t, types.Some(0.25), f.DebtToEquity)
	assert.Equal(t, types.Some(2000*1e7), f.Revenue)
	assert.Equal(t, types.Some(300*1e7), f.FreeCashFlow)
}

func TestScreenerSource_MissingPage(t *testing.T) {
	server := newScreenerServer(t)
	defer server.Close()
	src := NewScreenerSource(server.URL)

	quote := src.GetQuote(context.Background(), "NOPE")
	assert.Equal(t, types.Quote{Ticker: "NOPE", Currency: types.Some("INR")}, quote)
}
