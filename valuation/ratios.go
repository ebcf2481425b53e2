package valuation

import (
	"volur/types"
)

// CalculateFCFYield returns free cash flow divided by market capitalization.
// Unknown when price, shares outstanding or free cash flow is missing.
func CalculateFCFYield(quote types.Quote, fundamentals types.Fundamentals) types.Float {
	price, ok := quote.Price.Get()
	if !ok || price <= 0 {
		return types.None[float64]()
	}
	shares, ok := quote.SharesOutstanding.Get()
	if !ok || shares <= 0 {
		return types.None[float64]()
	}
	fcf, ok := fundamentals.FreeCashFlow.Get()
	if !ok {
		return types.None[float64]()
	}

	marketCap := price * shares
	if marketCap <= 0 {
		return types.None[float64]()
	}
	return types.Some(fcf / marketCap)
}

// The remaining ratios are reported by the providers directly and are passed through.

func CalculatePriceToEarnings(_ types.Quote, fundamentals types.Fundamentals) types.Float {
	return fundamentals.TrailingPE
}

func CalculatePriceToBook(_ types.Quote, fundamentals types.Fundamentals) types.Float {
	return fundamentals.PriceToBook
}

func CalculateDebtToEquity(_ types.Quote, fundamentals types.Fundamentals) types.Float {
	return fundamentals.DebtToEquity
}

func CalculateReturnOnEquity(_ types.Quote, fundamentals types.Fundamentals) types.Float {
	return fundamentals.ROE
}

func CalculateReturnOnAssets(_ types.Quote, fundamentals types.Fundamentals) types.Float {
	return fundamentals.ROA
}
