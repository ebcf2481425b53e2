package sources

import (
	"context"
	"errors"
	"net/url"

	"volur/clients/http_client"
	"volur/types"
)

const alphaVantageBaseURL = "https://www.alphavantage.co/query"

// AlphaVantageSource reads the GLOBAL_QUOTE and OVERVIEW functions. Every number
// arrives as a string and "None" marks a missing value.
type AlphaVantageSource struct {
	apiKey  string
	baseURL string
}

func NewAlphaVantageSource(apiKey string) *AlphaVantageSource {
	return &AlphaVantageSource{apiKey: apiKey, baseURL: alphaVantageBaseURL}
}

func (s *AlphaVantageSource) Name() string { return "alphavantage" }

type alphaVantageGlobalQuote struct {
	GlobalQuote map[string]string `json:"Global Quote"`
	Note        string            `json:"Note"`
}

type alphaVantageOverview struct {
	Name               string `json:"Name"`
	Currency           string `json:"Currency"`
	Sector             string `json:"Sector"`
	PERatio            string `json:"PERatio"`
	PriceToBookRatio   string `json:"PriceToBookRatio"`
	ReturnOnEquityTTM  string `json:"ReturnOnEquityTTM"`
	ReturnOnAssetsTTM  string `json:"ReturnOnAssetsTTM"`
	SharesOutstanding  string `json:"SharesOutstanding"`
	RevenueTTM         string `json:"RevenueTTM"`
	OperatingMarginTTM string `json:"OperatingMarginTTM"`
}

func (s *AlphaVantageSource) query(ctx context.Context, function, ticker string, dst interface{}) error {
	params := url.Values{
		"function": {function},
		"symbol":   {ticker},
		"apikey":   {s.apiKey},
	}
	return http_client.GetJSON(ctx, http_client.BuildURL(s.baseURL, params), nil, dst)
}

func (s *AlphaVantageSource) overview(ctx context.Context, ticker string) (alphaVantageOverview, error) {
	var overview alphaVantageOverview
	err := s.query(ctx, "OVERVIEW", ticker, &overview)
	return overview, err
}

func (s *AlphaVantageSource) GetQuote(ctx context.Context, ticker string) types.Quote {
	ticker = normalizeTicker(ticker)
	quote := types.Quote{Ticker: ticker}

	var payload alphaVantageGlobalQuote
	if err := s.query(ctx, "GLOBAL_QUOTE", ticker, &payload); err != nil {
		reportFailure(s.Name(), ticker, "GLOBAL_QUOTE", err)
	} else if payload.Note != "" {
		// Rate limited responses carry a note instead of data.
		reportFailure(s.Name(), ticker, "GLOBAL_QUOTE", errors.New(payload.Note))
	} else {
		quote.Price = parseNumber(payload.GlobalQuote["05. price"])
	}

	overview, err := s.overview(ctx, ticker)
	if err != nil {
		reportFailure(s.Name(), ticker, "OVERVIEW", err)
		return quote
	}
	quote.Currency = nonEmpty(overview.Currency)
	quote.SharesOutstanding = parseNumber(overview.SharesOutstanding)
	return quote
}

func (s *AlphaVantageSource) GetFundamentals(ctx context.Context, ticker string) types.Fundamentals {
	ticker = normalizeTicker(ticker)
	fundamentals := types.Fundamentals{Ticker: ticker}

	overview, err := s.overview(ctx, ticker)
	if err != nil {
		reportFailure(s.Name(), ticker, "OVERVIEW", err)
		return fundamentals
	}
	fundamentals.TrailingPE = parseNumber(overview.PERatio)
	fundamentals.PriceToBook = parseNumber(overview.PriceToBookRatio)
	fundamentals.ROE = parseNumber(overview.ReturnOnEquityTTM)
	fundamentals.ROA = parseNumber(overview.ReturnOnAssetsTTM)
	fundamentals.Revenue = parseNumber(overview.RevenueTTM)
	fundamentals.OperatingMargin = parseNumber(overview.OperatingMarginTTM)
	fundamentals.Name = nonEmpty(overview.Name)
	fundamentals.Sector = nonEmpty(overview.Sector)
	return fundamentals
}
