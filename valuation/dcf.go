package valuation

import (
	"math"

	"volur/types"
)

// CalculateDCFValue projects free cash flow over params.Years, adds a Gordon growth
// terminal value and discounts both back to today.
//
// It returns the intrinsic value per share and in total. Both are unknown when free
// cash flow is unknown or when the terminal growth rate is not below the discount
// rate; the per share value is also unknown without a positive share count.
func CalculateDCFValue(quote types.Quote, fundamentals types.Fundamentals, params types.DCFParams) (perShare, total types.Float) {
	fcf, ok := fundamentals.FreeCashFlow.Get()
	if !ok {
		return types.None[float64](), types.None[float64]()
	}
	if params.Years <= 0 || params.DiscountRate <= -1 {
		return types.None[float64](), types.None[float64]()
	}

	terminalGrowth := params.EffectiveTerminalGrowth()
	if terminalGrowth >= params.DiscountRate {
		return types.None[float64](), types.None[float64]()
	}

	pvCashFlows := presentValueOfCashFlows(fcf, params.LongTermGrowth, params.DiscountRate, params.Years)
	pvTerminal := presentValueOfTerminal(fcf, params.LongTermGrowth, terminalGrowth, params.DiscountRate, params.Years)

	intrinsicTotal := pvCashFlows + pvTerminal

	perShare = types.None[float64]()
	if shares, ok := quote.SharesOutstanding.Get(); ok && shares > 0 {
		perShare = types.Some(intrinsicTotal / shares)
	}
	return perShare, types.Some(intrinsicTotal)
}

func presentValueOfCashFlows(initialFCF, growthRate, discountRate float64, years int) float64 {
	pvCashFlows := 0.0
	for year := 1; year <= years; year++ {
		projectedFCF := initialFCF * math.Pow(1+growthRate, float64(year))
		pvCashFlows += projectedFCF / math.Pow(1+discountRate, float64(year))
	}
	return pvCashFlows
}

// presentValueOfTerminal applies the Gordon growth model to the final projected year.
func presentValueOfTerminal(initialFCF, growthRate, terminalGrowth, discountRate float64, years int) float64 {
	terminalFCF := initialFCF * math.Pow(1+growthRate, float64(years))
	terminalValue := (terminalFCF * (1 + terminalGrowth)) / (discountRate - terminalGrowth)
	return terminalValue / math.Pow(1+discountRate, float64(years))
}

// CalculateMarginOfSafety returns (intrinsic - price) / intrinsic. Positive values mean
// the stock trades below its intrinsic value.
func CalculateMarginOfSafety(currentPrice, intrinsicValuePerShare types.Float) types.Float {
	price, ok := currentPrice.Get()
	if !ok {
		return types.None[float64]()
	}
	intrinsic, ok := intrinsicValuePerShare.Get()
	if !ok || intrinsic <= 0 {
		return types.None[float64]()
	}
	return types.Some((intrinsic - price) / intrinsic)
}
