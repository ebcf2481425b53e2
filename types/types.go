package types

import (
	"errors"
	"fmt"
	"math"
	"time"
)

// ErrInvalidParams is returned for valuation parameters that cannot be evaluated.
var ErrInvalidParams = errors.New("invalid valuation parameters")

// Quote represents the market data of a ticker at one point in time
type Quote struct {
	Ticker            string `json:"ticker" bson:"ticker"`
	Price             Float  `json:"price" bson:"price"`
	Currency          String `json:"currency" bson:"currency"`
	SharesOutstanding Float  `json:"sharesOutstanding" bson:"sharesOutstanding"`
}

// Fundamentals represents the financial-statement metrics of a company
type Fundamentals struct {
	Ticker          string `json:"ticker" bson:"ticker"`
	TrailingPE      Float  `json:"trailingPE" bson:"trailingPE"`
	PriceToBook     Float  `json:"priceToBook" bson:"priceToBook"`
	ROE             Float  `json:"roe" bson:"roe"`
	ROA             Float  `json:"roa" bson:"roa"`
	DebtToEquity    Float  `json:"debtToEquity" bson:"debtToEquity"`
	FreeCashFlow    Float  `json:"freeCashFlow" bson:"freeCashFlow"`
	Revenue         Float  `json:"revenue" bson:"revenue"`
	OperatingMargin Float  `json:"operatingMargin" bson:"operatingMargin"`
	Sector          String `json:"sector" bson:"sector"`
	Name            String `json:"name" bson:"name"`
}

// DCFParams configures a discounted cash flow calculation
type DCFParams struct {
	DiscountRate   float64 `json:"discountRate"`
	LongTermGrowth float64 `json:"longTermGrowth"`
	Years          int     `json:"years"`
	// TerminalGrowth falls back to LongTermGrowth when unknown.
	TerminalGrowth Float `json:"terminalGrowth"`
}

// EffectiveTerminalGrowth resolves the growth rate used for the terminal value.
func (p DCFParams) EffectiveTerminalGrowth() float64 {
	return p.TerminalGrowth.OrElse(p.LongTermGrowth)
}

// Validate rejects parameters the projection cannot be evaluated with. A terminal
// growth at or above the discount rate is not rejected here: the calculation
// reports it as an unknown value instead.
func (p DCFParams) Validate() error {
	if p.Years <= 0 {
		return fmt.Errorf("%w: years must be positive, got %d", ErrInvalidParams, p.Years)
	}
	if !(p.DiscountRate > 0) || math.IsInf(p.DiscountRate, 0) {
		return fmt.Errorf("%w: discount rate must be positive, got %v", ErrInvalidParams, p.DiscountRate)
	}
	if math.IsNaN(p.LongTermGrowth) || math.IsInf(p.LongTermGrowth, 0) {
		return fmt.Errorf("%w: long term growth must be finite", ErrInvalidParams)
	}
	if tg, ok := p.TerminalGrowth.Get(); ok && (math.IsNaN(tg) || math.IsInf(tg, 0)) {
		return fmt.Errorf("%w: terminal growth must be finite", ErrInvalidParams)
	}
	return nil
}

// ScoringWeights are the relative weights of the value score signals
type ScoringWeights struct {
	PE       float64 `json:"pe"`
	PB       float64 `json:"pb"`
	FCFYield float64 `json:"fcfYield"`
	ROE      float64 `json:"roe"`
}

func DefaultScoringWeights() ScoringWeights {
	return ScoringWeights{PE: 0.3, PB: 0.2, FCFYield: 0.3, ROE: 0.2}
}

func (w ScoringWeights) Validate() error {
	if w.PE < 0 || w.PB < 0 || w.FCFYield < 0 || w.ROE < 0 {
		return fmt.Errorf("%w: scoring weights cannot be negative", ErrInvalidParams)
	}
	if w.PE+w.PB+w.FCFYield+w.ROE <= 0 {
		return fmt.Errorf("%w: scoring weights must sum to a positive value", ErrInvalidParams)
	}
	return nil
}

// ScoringScales hold the calibration multipliers that map each signal onto 0-100
type ScoringScales struct {
	PE       float64 `json:"pe"`
	PB       float64 `json:"pb"`
	FCFYield float64 `json:"fcfYield"`
	ROE      float64 `json:"roe"`
}

func DefaultScoringScales() ScoringScales {
	return ScoringScales{PE: 2, PB: 20, FCFYield: 1000, ROE: 100}
}

func (s ScoringScales) Validate() error {
	if s.PE <= 0 || s.PB <= 0 || s.FCFYield <= 0 || s.ROE <= 0 {
		return fmt.Errorf("%w: scoring scales must be positive", ErrInvalidParams)
	}
	return nil
}

// ValuationResult is the outcome of analysing one ticker
type ValuationResult struct {
	Ticker                 string `json:"ticker" bson:"ticker"`
	IntrinsicValuePerShare Float  `json:"intrinsicValuePerShare" bson:"intrinsicValuePerShare"`
	IntrinsicValueTotal    Float  `json:"intrinsicValueTotal" bson:"intrinsicValueTotal"`
	MarginOfSafety         Float  `json:"marginOfSafety" bson:"marginOfSafety"`
	ValueScore             Float  `json:"valueScore" bson:"valueScore"`
	FCFYield               Float  `json:"fcfYield" bson:"fcfYield"`
	PERatio                Float  `json:"peRatio" bson:"peRatio"`
	PBRatio                Float  `json:"pbRatio" bson:"pbRatio"`
	ROE                    Float  `json:"roe" bson:"roe"`
	DebtToEquity           Float  `json:"debtToEquity" bson:"debtToEquity"`

	// Presentation pass-through
	Price          Float  `json:"price" bson:"price"`
	Currency       String `json:"currency" bson:"currency"`
	Interpretation string `json:"interpretation,omitempty" bson:"interpretation"`
}

// AnalyzedValuation is a result as persisted by the valuation store
type AnalyzedValuation struct {
	ValuationResult `bson:",inline"`
	Source          string    `json:"source" bson:"source"`
	Params          DCFParams `json:"params" bson:"params"`
	LastUpdated     time.Time `json:"lastUpdated" bson:"lastUpdated"`
}

// EventType names an event published on the event bus
type EventType string

const (
	EventTickerAnalyzed     EventType = "ticker_analyzed"
	EventAnalysisFailed     EventType = "analysis_failed"
	EventDataFetchRequested EventType = "data_fetch_requested"
	EventCacheCleared       EventType = "cache_cleared"
)

// VolurEvent is the message sent to subscribers and to the Kafka/RabbitMQ sinks
type VolurEvent struct {
	ID        string                 `json:"id"`
	Type      EventType              `json:"type"`
	Ticker    string                 `json:"ticker,omitempty"`
	Source    string                 `json:"source,omitempty"`
	Data      map[string]interface{} `json:"data,omitempty"`
	Timestamp time.Time              `json:"timestamp"`
}
