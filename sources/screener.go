package sources

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"volur/clients/http_client"
	"volur/types"
	"volur/utils/helpers"
)

const (
	screenerBaseURL = "https://www.screener.in"
	// screener.in reports amounts in crores of rupees.
	crore = 1e7
)

// ScreenerSource scrapes company pages of screener.in, which covers Indian listings.
type ScreenerSource struct {
	baseURL string
}

func NewScreenerSource(baseURL string) *ScreenerSource {
	if baseURL == "" {
		baseURL = screenerBaseURL
	}
	return &ScreenerSource{baseURL: baseURL}
}

func (s *ScreenerSource) Name() string { return "screener" }

type screenerPage struct {
	ratios       map[string]string
	profitLoss   map[string][]string
	balanceSheet map[string][]string
	cashFlows    map[string][]string
	name         string
}

func (s *ScreenerSource) fetchPage(ctx context.Context, ticker string) (*screenerPage, error) {
	pageURL := fmt.Sprintf("%s/company/%s/consolidated/", s.baseURL, url.PathEscape(ticker))
	body, err := http_client.GetPage(ctx, pageURL, map[string]string{"User-Agent": userAgent})
	if err != nil {
		return nil, fmt.Errorf("failed to fetch the company page: %w", err)
	}
	defer body.Close()

	doc, err := goquery.NewDocumentFromReader(body)
	if err != nil {
		return nil, fmt.Errorf("failed to parse the HTML content: %w", err)
	}

	page := &screenerPage{
		ratios: helpers.ParseTopRatios(doc),
		name:   strings.TrimSpace(doc.Find("h1").First().Text()),
	}
	if section := doc.Find("section#profit-loss"); section.Length() > 0 {
		page.profitLoss = helpers.ParseTableData(section, "div[data-result-table]")
	}
	if section := doc.Find("section#balance-sheet"); section.Length() > 0 {
		page.balanceSheet = helpers.ParseTableData(section, "div[data-result-table]")
	}
	if section := doc.Find("section#cash-flow"); section.Length() > 0 {
		page.cashFlows = helpers.ParseTableData(section, "div[data-result-table]")
	}
	return page, nil
}

func (s *ScreenerSource) GetQuote(ctx context.Context, ticker string) types.Quote {
	ticker = normalizeTicker(ticker)
	quote := types.Quote{Ticker: ticker, Currency: types.Some("INR")}

	page, err := s.fetchPage(ctx, ticker)
	if err != nil {
		reportFailure(s.Name(), ticker, "company", err)
		return quote
	}

	quote.Price = helpers.ParseNumber(page.ratios["Current Price"])
	marketCap := scale(helpers.ParseNumber(page.ratios["Market Cap"]), crore)
	quote.SharesOutstanding = ratio(marketCap, quote.Price)
	return quote
}

func (s *ScreenerSource) GetFundamentals(ctx context.Context, ticker string) types.Fundamentals {
	ticker = normalizeTicker(ticker)
	fundamentals := types.Fundamentals{Ticker: ticker}

	page, err := s.fetchPage(ctx, ticker)
	if err != nil {
		reportFailure(s.Name(), ticker, "company", err)
		return fundamentals
	}

	price := helpers.ParseNumber(page.ratios["Current Price"])
	fundamentals.TrailingPE = helpers.ParseNumber(page.ratios["Stock P/E"])
	fundamentals.PriceToBook = ratio(price, helpers.ParseNumber(page.ratios["Book Value"]))
	fundamentals.ROE = helpers.ParseNumber(page.ratios["ROE"])
	fundamentals.Name = nonEmpty(page.name)

	fundamentals.Revenue = scale(helpers.LatestValue(page.profitLoss["Sales"]), crore)
	fundamentals.OperatingMargin = helpers.LatestValue(page.profitLoss["OPM %"])
	netProfit := helpers.LatestValue(page.profitLoss["Net Profit"])

	totalAssets := helpers.LatestValue(page.balanceSheet["Total Assets"])
	fundamentals.ROA = ratio(netProfit, totalAssets)
	equityCapital := helpers.LatestValue(page.balanceSheet["Equity Capital"])
	reserves := helpers.LatestValue(page.balanceSheet["Reserves"])
	if eq, ok := equityCapital.Get(); ok {
		equity := types.Some(eq + reserves.OrElse(0))
		fundamentals.DebtToEquity = ratio(helpers.LatestValue(page.balanceSheet["Borrowings"]), equity)
	}

	fundamentals.FreeCashFlow = scale(helpers.LatestValue(page.cashFlows["Free Cash Flow"]), crore)
	return fundamentals
}
