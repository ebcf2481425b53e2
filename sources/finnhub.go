package sources

import (
	"context"
	"net/url"

	"volur/clients/http_client"
	"volur/types"
)

const finnhubBaseURL = "https://finnhub.io/api/v1"

// XBRL concepts read from the latest annual financials-reported filing.
const (
	conceptOperatingCashFlow = "NetCashProvidedByUsedInOperatingActivities"
	conceptCapex             = "PaymentsToAcquirePropertyPlantAndEquipment"
	conceptRevenues          = "Revenues"
	conceptContractRevenue   = "RevenueFromContractWithCustomerExcludingAssessedTax"
	conceptOperatingIncome   = "OperatingIncomeLoss"
)

// FinnhubSource reads Finnhub. Finnhub reports share counts in millions and
// returns and margins in percent; both are normalized here.
type FinnhubSource struct {
	apiKey  string
	baseURL string
}

func NewFinnhubSource(apiKey string) *FinnhubSource {
	return &FinnhubSource{apiKey: apiKey, baseURL: finnhubBaseURL}
}

func (s *FinnhubSource) Name() string { return "finnhub" }

type finnhubQuote struct {
	Current *float64 `json:"c"`
}

type finnhubProfile struct {
	Name             string   `json:"name"`
	Currency         string   `json:"currency"`
	Industry         string   `json:"finnhubIndustry"`
	ShareOutstanding *float64 `json:"shareOutstanding"`
}

type finnhubMetrics struct {
	Metric map[string]interface{} `json:"metric"`
}

type finnhubLineItem struct {
	Concept string      `json:"concept"`
	Value   interface{} `json:"value"`
}

type finnhubFinancials struct {
	Data []struct {
		Year   int `json:"year"`
		Report struct {
			BalanceSheet []finnhubLineItem `json:"bs"`
			Income       []finnhubLineItem `json:"ic"`
			CashFlow     []finnhubLineItem `json:"cf"`
		} `json:"report"`
	} `json:"data"`
}

func (s *FinnhubSource) get(ctx context.Context, path string, params url.Values, dst interface{}) error {
	headers := map[string]string{
		"X-Finnhub-Token": s.apiKey,
		"User-Agent":      userAgent,
	}
	return http_client.GetJSON(ctx, http_client.BuildURL(s.baseURL+path, params), headers, dst)
}

func (s *FinnhubSource) profile(ctx context.Context, ticker string) (finnhubProfile, error) {
	var profile finnhubProfile
	err := s.get(ctx, "/stock/profile2", url.Values{"symbol": {ticker}}, &profile)
	return profile, err
}

func (s *FinnhubSource) GetQuote(ctx context.Context, ticker string) types.Quote {
	ticker = normalizeTicker(ticker)
	quote := types.Quote{Ticker: ticker}

	var payload finnhubQuote
	if err := s.get(ctx, "/quote", url.Values{"symbol": {ticker}}, &payload); err != nil {
		reportFailure(s.Name(), ticker, "quote", err)
		return quote
	}
	// Finnhub answers unknown symbols with a zero price.
	if payload.Current != nil && *payload.Current != 0 {
		quote.Price = types.Some(*payload.Current)
	}

	profile, err := s.profile(ctx, ticker)
	if err != nil {
		reportFailure(s.Name(), ticker, "profile2", err)
		return quote
	}
	quote.Currency = nonEmpty(profile.Currency)
	quote.SharesOutstanding = scale(types.FromPtr(profile.ShareOutstanding), 1e6)
	return quote
}

func (s *FinnhubSource) GetFundamentals(ctx context.Context, ticker string) types.Fundamentals {
	ticker = normalizeTicker(ticker)
	fundamentals := types.Fundamentals{Ticker: ticker}

	if profile, err := s.profile(ctx, ticker); err != nil {
		reportFailure(s.Name(), ticker, "profile2", err)
	} else {
		fundamentals.Name = nonEmpty(profile.Name)
		fundamentals.Sector = nonEmpty(profile.Industry)
	}

	var metrics finnhubMetrics
	if err := s.get(ctx, "/stock/metric", url.Values{"symbol": {ticker}, "metric": {"all"}}, &metrics); err != nil {
		reportFailure(s.Name(), ticker, "metric", err)
	} else {
		m := metrics.Metric
		fundamentals.TrailingPE = numberFrom(m["peBasicExclExtraTTM"])
		fundamentals.PriceToBook = numberFrom(m["pbAnnual"])
		fundamentals.ROE = scale(numberFrom(m["roeRfy"]), 0.01)
		fundamentals.ROA = scale(numberFrom(m["roaRfy"]), 0.01)
		fundamentals.DebtToEquity = numberFrom(m["totalDebt/totalEquityAnnual"])
	}

	var financials finnhubFinancials
	if err := s.get(ctx, "/stock/financials-reported", url.Values{"symbol": {ticker}, "freq": {"annual"}}, &financials); err != nil {
		reportFailure(s.Name(), ticker, "financials-reported", err)
	} else if len(financials.Data) > 0 {
		report := financials.Data[0].Report
		fundamentals.FreeCashFlow = freeCashFlow(
			findConcept(report.CashFlow, conceptOperatingCashFlow),
			findConcept(report.CashFlow, conceptCapex),
		)
		revenue := findConcept(report.Income, conceptRevenues)
		if !revenue.IsKnown() {
			revenue = findConcept(report.Income, conceptContractRevenue)
		}
		fundamentals.Revenue = revenue
		fundamentals.OperatingMargin = ratio(findConcept(report.Income, conceptOperatingIncome), revenue)
	}

	return fundamentals
}

// findConcept looks a us-gaap concept up in a reported statement. Finnhub prefixes
// concepts with their taxonomy ("us-gaap_Revenues").
func findConcept(items []finnhubLineItem, concept string) types.Float {
	for _, item := range items {
		if item.Concept == concept || item.Concept == "us-gaap_"+concept {
			return numberFrom(item.Value)
		}
	}
	return types.None[float64]()
}
