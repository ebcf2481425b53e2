package valuation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"volur/types"
)

func TestCalculateDCFValue_Perpetuity(t *testing.T) {
	// With no growth the projection collapses to fcf / r for any horizon.
	quote := types.Quote{SharesOutstanding: types.Some(10.0)}
	fundamentals := types.Fundamentals{FreeCashFlow: types.Some(100.0)}

	for _, years := range []int{1, 5, 10, 30} {
		params := types.DCFParams{DiscountRate: 0.10, LongTermGrowth: 0, Years: years}
		perShare, total := CalculateDCFValue(quote, fundamentals, params)

		totalValue, ok := total.Get()
		require.True(t, ok)
		assert.InDelta(t, 1000.0, totalValue, 1e-6, "years=%d", years)

		perShareValue, ok := perShare.Get()
		require.True(t, ok)
		assert.InDelta(t, 100.0, perShareValue, 1e-7, "years=%d", years)
	}
}

func TestCalculateDCFValue_SeparateTerminalGrowth(t *testing.T) {
	// Two years growing at the discount rate are each worth 100 today; the
	// terminal cash flow of 121 capitalised at 10% discounts back to 1000.
	fundamentals := types.Fundamentals{FreeCashFlow: types.Some(100.0)}
	params := types.DCFParams{
		DiscountRate:   0.10,
		LongTermGrowth: 0.10,
		Years:          2,
		TerminalGrowth: types.Some(0.0),
	}

	perShare, total := CalculateDCFValue(types.Quote{}, fundamentals, params)

	totalValue, ok := total.Get()
	require.True(t, ok)
	assert.InDelta(t, 1200.0, totalValue, 1e-9)
	assert.False(t, perShare.IsKnown())
}

func TestCalculateDCFValue_TerminalGrowthDefaultsToLongTermGrowth(t *testing.T) {
	fundamentals := types.Fundamentals{FreeCashFlow: types.Some(100.0)}
	implicit := types.DCFParams{DiscountRate: 0.09, LongTermGrowth: 0.03, Years: 7}
	explicit := implicit
	explicit.TerminalGrowth = types.Some(0.03)

	_, implicitTotal := CalculateDCFValue(types.Quote{}, fundamentals, implicit)
	_, explicitTotal := CalculateDCFValue(types.Quote{}, fundamentals, explicit)

	assert.Equal(t, explicitTotal, implicitTotal)
}

func TestCalculateDCFValue_ScalesWithCashFlow(t *testing.T) {
	params := types.DCFParams{DiscountRate: 0.12, LongTermGrowth: 0.05, Years: 10}

	_, base := CalculateDCFValue(types.Quote{}, types.Fundamentals{FreeCashFlow: types.Some(100.0)}, params)
	_, doubled := CalculateDCFValue(types.Quote{}, types.Fundamentals{FreeCashFlow: types.Some(200.0)}, params)
	_, negative := CalculateDCFValue(types.Quote{}, types.Fundamentals{FreeCashFlow: types.Some(-100.0)}, params)

	baseValue, _ := base.Get()
	doubledValue, _ := doubled.Get()
	negativeValue, _ := negative.Get()
	assert.InDelta(t, 2*baseValue, doubledValue, 1e-6)
	assert.InDelta(t, -baseValue, negativeValue, 1e-6)
}

func TestCalculateDCFValue_Unknown(t *testing.T) {
	quote := types.Quote{SharesOutstanding: types.Some(10.0)}
	withFCF := types.Fundamentals{FreeCashFlow: types.Some(100.0)}

	tests := []struct {
		name         string
		fundamentals types.Fundamentals
		params       types.DCFParams
	}{
		{
			name:         "missing free cash flow",
			fundamentals: types.Fundamentals{},
			params:       types.DCFParams{DiscountRate: 0.10, LongTermGrowth: 0.02, Years: 10},
		},
		{
			name:         "terminal growth equals discount rate",
			fundamentals: withFCF,
			params:       types.DCFParams{DiscountRate: 0.10, LongTermGrowth: 0.02, Years: 10, TerminalGrowth: types.Some(0.10)},
		},
		{
			name:         "long term growth above discount rate without terminal override",
			fundamentals: withFCF,
			params:       types.DCFParams{DiscountRate: 0.05, LongTermGrowth: 0.08, Years: 10},
		},
		{
			name:         "no projection years",
			fundamentals: withFCF,
			params:       types.DCFParams{DiscountRate: 0.10, LongTermGrowth: 0.02, Years: 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perShare, total := CalculateDCFValue(quote, tt.fundamentals, tt.params)
			assert.False(t, perShare.IsKnown())
			assert.False(t, total.IsKnown())
		})
	}
}

func TestCalculateDCFValue_HigherDiscountRateLowersValue(t *testing.T) {
	fundamentals := types.Fundamentals{FreeCashFlow: types.Some(100.0)}
	tests := []struct {
		name   string
		lower  float64
		higher float64
	}{
		{"five to eight percent", 0.05, 0.08},
		{"eight to ten percent", 0.08, 0.10},
		{"ten to twelve percent", 0.10, 0.12},
		{"twelve to twenty percent", 0.12, 0.20},
		{"twenty to fifty percent", 0.20, 0.50},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, lowTotal := CalculateDCFValue(types.Quote{}, fundamentals, types.DCFParams{DiscountRate: tt.lower, LongTermGrowth: 0.03, Years: 10})
			_, highTotal := CalculateDCFValue(types.Quote{}, fundamentals, types.DCFParams{DiscountRate: tt.higher, LongTermGrowth: 0.03, Years: 10})

			low, ok := lowTotal.Get()
			require.True(t, ok)
			high, ok := highTotal.Get()
			require.True(t, ok)
			assert.Less(t, high, low)
		})
	}
}

func TestCalculateDCFValue_PerShareIsTotalOverShares(t *testing.T) {
	fundamentals := types.Fundamentals{FreeCashFlow: types.Some(123456.0)}
	params := types.DCFParams{DiscountRate: 0.09, LongTermGrowth: 0.04, Years: 12, TerminalGrowth: types.Some(0.025)}

	tests := []struct {
		name   string
		shares float64
	}{
		{"one share", 1},
		{"odd count", 7},
		{"fractional count", 3.3},
		{"large float", 15.5e9},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			perShare, total := CalculateDCFValue(types.Quote{SharesOutstanding: types.Some(tt.shares)}, fundamentals, params)

			totalValue, ok := total.Get()
			require.True(t, ok)
			perShareValue, ok := perShare.Get()
			require.True(t, ok)
			assert.Equal(t, totalValue/tt.shares, perShareValue)
		})
	}
}

func TestCalculateDCFValue_ZeroShares(t *testing.T) {
	quote := types.Quote{SharesOutstanding: types.Some(0.0)}
	fundamentals := types.Fundamentals{FreeCashFlow: types.Some(100.0)}
	params := types.DCFParams{DiscountRate: 0.10, LongTermGrowth: 0.02, Years: 10}

	perShare, total := CalculateDCFValue(quote, fundamentals, params)
	assert.False(t, perShare.IsKnown())
	assert.True(t, total.IsKnown())
}

func TestCalculateMarginOfSafety(t *testing.T) {
	tests := []struct {
		name      string
		price     types.Float
		intrinsic types.Float
		expected  types.Float
	}{
		{"undervalued", types.Some(50.0), types.Some(100.0), types.Some(0.5)},
		{"overvalued", types.Some(150.0), types.Some(100.0), types.Some(-0.5)},
		{"fairly valued", types.Some(100.0), types.Some(100.0), types.Some(0.0)},
		{"twenty percent below", types.Some(80.0), types.Some(100.0), types.Some(0.20)},
		{"twenty percent above", types.Some(120.0), types.Some(100.0), types.Some(-0.20)},
		{"zero price", types.Some(0.0), types.Some(100.0), types.Some(1.0)},
		{"zero intrinsic value", types.Some(50.0), types.Some(0.0), types.None[float64]()},
		{"negative intrinsic value", types.Some(50.0), types.Some(-10.0), types.None[float64]()},
		{"missing price", types.None[float64](), types.Some(100.0), types.None[float64]()},
		{"missing intrinsic value", types.Some(50.0), types.None[float64](), types.None[float64]()},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, CalculateMarginOfSafety(tt.price, tt.intrinsic))
		})
	}
}
