package sources

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"volur/clients/http_client"
	"volur/types"
)

const (
	secFactsBaseURL = "https://data.sec.gov/api/xbrl/companyfacts"
	secTickersURL   = "https://www.sec.gov/files/company_tickers.json"
)

// SECSource reads XBRL company facts from SEC EDGAR. EDGAR carries no market data,
// so quotes only ever hold the reported share count and ratios that need a price
// stay unknown.
type SECSource struct {
	userAgent  string
	factsURL   string
	tickersURL string

	mu   sync.Mutex
	ciks map[string]string
}

func NewSECSource(userAgent string) *SECSource {
	if userAgent == "" {
		userAgent = "Volur/0.1.0"
	}
	return &SECSource{userAgent: userAgent, factsURL: secFactsBaseURL, tickersURL: secTickersURL}
}

func (s *SECSource) Name() string { return "sec" }

type secFact struct {
	Units map[string][]struct {
		End  string  `json:"end"`
		Val  float64 `json:"val"`
		Form string  `json:"form"`
	} `json:"units"`
}

type secCompanyFacts struct {
	EntityName string                        `json:"entityName"`
	Facts      map[string]map[string]secFact `json:"facts"`
}

type secTickerEntry struct {
	CIK    int    `json:"cik_str"`
	Ticker string `json:"ticker"`
	Title  string `json:"title"`
}

func (s *SECSource) headers() map[string]string {
	return map[string]string{"User-Agent": s.userAgent, "Accept": "application/json"}
}

// cik resolves ticker to its zero padded central index key. The EDGAR ticker file
// is downloaded once per source.
func (s *SECSource) cik(ctx context.Context, ticker string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.ciks == nil {
		var entries map[string]secTickerEntry
		if err := http_client.GetJSON(ctx, s.tickersURL, s.headers(), &entries); err != nil {
			return "", fmt.Errorf("failed to load ticker mapping: %w", err)
		}
		s.ciks = make(map[string]string, len(entries))
		for _, e := range entries {
			s.ciks[strings.ToUpper(e.Ticker)] = fmt.Sprintf("%010d", e.CIK)
		}
	}

	cik, ok := s.ciks[ticker]
	if !ok {
		return "", fmt.Errorf("no CIK for ticker %s", ticker)
	}
	return cik, nil
}

func (s *SECSource) companyFacts(ctx context.Context, ticker string) (secCompanyFacts, error) {
	var facts secCompanyFacts
	cik, err := s.cik(ctx, ticker)
	if err != nil {
		return facts, err
	}
	err = http_client.GetJSON(ctx, fmt.Sprintf("%s/CIK%s.json", s.factsURL, cik), s.headers(), &facts)
	return facts, err
}

func (s *SECSource) GetQuote(ctx context.Context, ticker string) types.Quote {
	ticker = normalizeTicker(ticker)
	quote := types.Quote{Ticker: ticker, Currency: types.Some("USD")}

	facts, err := s.companyFacts(ctx, ticker)
	if err != nil {
		reportFailure(s.Name(), ticker, "companyfacts", err)
		return quote
	}
	quote.SharesOutstanding = latestFact(facts.Facts["dei"], "EntityCommonStockSharesOutstanding")
	return quote
}

func (s *SECSource) GetFundamentals(ctx context.Context, ticker string) types.Fundamentals {
	ticker = normalizeTicker(ticker)
	fundamentals := types.Fundamentals{Ticker: ticker}

	facts, err := s.companyFacts(ctx, ticker)
	if err != nil {
		reportFailure(s.Name(), ticker, "companyfacts", err)
		return fundamentals
	}

	gaap := facts.Facts["us-gaap"]
	equity := latestFact(gaap, "StockholdersEquity")
	netIncome := latestFact(gaap, "NetIncomeLoss")
	revenue := latestFact(gaap, conceptRevenues)
	if !revenue.IsKnown() {
		revenue = latestFact(gaap, conceptContractRevenue)
	}

	fundamentals.FreeCashFlow = freeCashFlow(latestFact(gaap, conceptOperatingCashFlow), latestFact(gaap, conceptCapex))
	fundamentals.Revenue = revenue
	fundamentals.OperatingMargin = ratio(latestFact(gaap, conceptOperatingIncome), revenue)
	fundamentals.ROE = ratio(netIncome, equity)
	fundamentals.ROA = ratio(netIncome, latestFact(gaap, "Assets"))
	fundamentals.DebtToEquity = ratio(latestFact(gaap, "Liabilities"), equity)
	fundamentals.Name = nonEmpty(facts.EntityName)
	return fundamentals
}

// latestFact returns the value with the most recent period end, preferring USD
// denominated units.
func latestFact(taxonomy map[string]secFact, concept string) types.Float {
	fact, ok := taxonomy[concept]
	if !ok {
		return types.None[float64]()
	}
	for _, unit := range []string{"USD", "USD/shares", "shares"} {
		entries := fact.Units[unit]
		if len(entries) == 0 {
			continue
		}
		latest := entries[0]
		for _, e := range entries[1:] {
			// ISO dates order lexically.
			if e.End > latest.End {
				latest = e
			}
		}
		return types.Some(latest.Val)
	}
	return types.None[float64]()
}
