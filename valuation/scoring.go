package valuation

import (
	"math"

	"volur/types"
)

const (
	ExcellentValue = "Excellent Value"
	GoodValue      = "Good Value"
	FairValue      = "Fair Value"
	PoorValue      = "Poor Value"
	VeryPoorValue  = "Very Poor Value"
)

type weightedSignal struct {
	score  float64
	weight float64
}

// CalculateValueScore combines P/E, P/B, FCF yield and ROE into a 0-100 score using
// the default scaling constants.
func CalculateValueScore(quote types.Quote, fundamentals types.Fundamentals, weights types.ScoringWeights) types.Float {
	return CalculateValueScoreWithScales(quote, fundamentals, weights, types.DefaultScoringScales())
}

// CalculateValueScoreWithScales is CalculateValueScore with explicit calibration.
// Weights are normalized over the signals that are available, so missing data
// lowers the number of inputs instead of failing the score. Unknown when no signal
// is available.
func CalculateValueScoreWithScales(quote types.Quote, fundamentals types.Fundamentals, weights types.ScoringWeights, scales types.ScoringScales) types.Float {
	var signals []weightedSignal

	// lower P/E is better
	if pe, ok := fundamentals.TrailingPE.Get(); ok && pe > 0 {
		signals = append(signals, weightedSignal{clamp(100 - pe*scales.PE), weights.PE})
	}

	// lower P/B is better
	if pb, ok := fundamentals.PriceToBook.Get(); ok && pb > 0 {
		signals = append(signals, weightedSignal{clamp(100 - pb*scales.PB), weights.PB})
	}

	if fcfYield, ok := CalculateFCFYield(quote, fundamentals).Get(); ok {
		signals = append(signals, weightedSignal{clamp(fcfYield * scales.FCFYield), weights.FCFYield})
	}

	if roe, ok := fundamentals.ROE.Get(); ok {
		signals = append(signals, weightedSignal{clamp(roe * scales.ROE), weights.ROE})
	}

	if len(signals) == 0 {
		return types.None[float64]()
	}

	totalWeight := 0.0
	for _, s := range signals {
		totalWeight += s.weight
	}
	if totalWeight <= 0 {
		return types.None[float64]()
	}

	score := 0.0
	for _, s := range signals {
		score += s.score * (s.weight / totalWeight)
	}
	return types.Some(math.Round(score*100) / 100)
}

func clamp(score float64) float64 {
	return math.Min(100, math.Max(0, score))
}

// GetValueScoreInterpretation maps a score onto its label. Lower bounds are inclusive.
func GetValueScoreInterpretation(score float64) string {
	if score >= 80 {
		return ExcellentValue
	} else if score >= 60 {
		return GoodValue
	} else if score >= 40 {
		return FairValue
	} else if score >= 20 {
		return PoorValue
	}
	return VeryPoorValue
}
