package sources

import (
	"context"
	"net/url"

	"volur/clients/http_client"
	"volur/types"
)

const fmpBaseURL = "https://financialmodelingprep.com/api/v3"

// FMPSource reads Financial Modeling Prep. FMP reports in USD.
type FMPSource struct {
	apiKey  string
	baseURL string
}

func NewFMPSource(apiKey string) *FMPSource {
	return &FMPSource{apiKey: apiKey, baseURL: fmpBaseURL}
}

func (s *FMPSource) Name() string { return "fmp" }

type fmpQuote struct {
	Price             *float64 `json:"price"`
	SharesOutstanding *float64 `json:"sharesOutstanding"`
}

type fmpKeyMetrics struct {
	FreeCashFlow *float64 `json:"freeCashFlow"`
	Revenue      *float64 `json:"revenue"`
}

type fmpRatios struct {
	PriceEarningsRatio *float64 `json:"priceEarningsRatio"`
	PriceToBookRatio   *float64 `json:"priceToBookRatio"`
	ReturnOnEquity     *float64 `json:"returnOnEquity"`
	ReturnOnAssets     *float64 `json:"returnOnAssets"`
	DebtEquityRatio    *float64 `json:"debtEquityRatio"`
	OperatingMargin    *float64 `json:"operatingProfitMargin"`
}

type fmpProfile struct {
	CompanyName string `json:"companyName"`
	Sector      string `json:"sector"`
}

func (s *FMPSource) endpoint(path, ticker string, params url.Values) string {
	if params == nil {
		params = url.Values{}
	}
	params.Set("apikey", s.apiKey)
	return http_client.BuildURL(s.baseURL+"/"+path+"/"+url.PathEscape(ticker), params)
}

func (s *FMPSource) GetQuote(ctx context.Context, ticker string) types.Quote {
	ticker = normalizeTicker(ticker)
	quote := types.Quote{Ticker: ticker, Currency: types.Some("USD")}

	var payload []fmpQuote
	if err := http_client.GetJSON(ctx, s.endpoint("quote", ticker, nil), nil, &payload); err != nil {
		reportFailure(s.Name(), ticker, "quote", err)
		return quote
	}
	if len(payload) == 0 {
		return quote
	}

	quote.Price = types.FromPtr(payload[0].Price)
	quote.SharesOutstanding = types.FromPtr(payload[0].SharesOutstanding)
	return quote
}

// GetFundamentals combines the key-metrics, ratios and profile endpoints. A failing
// endpoint only blanks the fields it provides.
func (s *FMPSource) GetFundamentals(ctx context.Context, ticker string) types.Fundamentals {
	ticker = normalizeTicker(ticker)
	fundamentals := types.Fundamentals{Ticker: ticker}

	var metrics []fmpKeyMetrics
	if err := http_client.GetJSON(ctx, s.endpoint("key-metrics", ticker, url.Values{"limit": {"1"}}), nil, &metrics); err != nil {
		reportFailure(s.Name(), ticker, "key-metrics", err)
	} else if len(metrics) > 0 {
		fundamentals.FreeCashFlow = types.FromPtr(metrics[0].FreeCashFlow)
		fundamentals.Revenue = types.FromPtr(metrics[0].Revenue)
	}

	var ratios []fmpRatios
	if err := http_client.GetJSON(ctx, s.endpoint("ratios", ticker, url.Values{"limit": {"1"}}), nil, &ratios); err != nil {
		reportFailure(s.Name(), ticker, "ratios", err)
	} else if len(ratios) > 0 {
		r := ratios[0]
		fundamentals.TrailingPE = types.FromPtr(r.PriceEarningsRatio)
		fundamentals.PriceToBook = types.FromPtr(r.PriceToBookRatio)
		fundamentals.ROE = types.FromPtr(r.ReturnOnEquity)
		fundamentals.ROA = types.FromPtr(r.ReturnOnAssets)
		fundamentals.DebtToEquity = types.FromPtr(r.DebtEquityRatio)
		fundamentals.OperatingMargin = types.FromPtr(r.OperatingMargin)
	}

	var profile []fmpProfile
	if err := http_client.GetJSON(ctx, s.endpoint("profile", ticker, nil), nil, &profile); err != nil {
		reportFailure(s.Name(), ticker, "profile", err)
	} else if len(profile) > 0 {
		fundamentals.Name = nonEmpty(profile[0].CompanyName)
		fundamentals.Sector = nonEmpty(profile[0].Sector)
	}

	return fundamentals
}
