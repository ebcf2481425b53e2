package sources

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strconv"
	"strings"

	"github.com/getsentry/sentry-go"
	"go.uber.org/zap"

	"volur/types"
)

// DataSource provides market data and fundamentals for a ticker.
//
// Implementations never fail: provider errors, timeouts and missing fields are all
// reported as unknown values on the returned structs.
type DataSource interface {
	Name() string
	GetQuote(ctx context.Context, ticker string) types.Quote
	GetFundamentals(ctx context.Context, ticker string) types.Fundamentals
}

const userAgent = "Volur/0.1.0"

// reportFailure records a provider failure that is being degraded to unknown values.
func reportFailure(source, ticker, endpoint string, err error) {
	if err == nil || errors.Is(err, context.Canceled) {
		return
	}
	zap.L().Warn("Provider request failed",
		zap.String("source", source),
		zap.String("ticker", ticker),
		zap.String("endpoint", endpoint),
		zap.Error(err))
	sentry.WithScope(func(scope *sentry.Scope) {
		scope.SetTag("source", source)
		scope.SetTag("endpoint", endpoint)
		scope.SetExtra("ticker", ticker)
		sentry.CaptureException(err)
	})
}

func normalizeTicker(ticker string) string {
	return strings.ToUpper(strings.TrimSpace(ticker))
}

// numberFrom converts a decoded JSON value into a Float. Anything but a finite
// number, or a string holding one, is unknown.
func numberFrom(v interface{}) types.Float {
	switch n := v.(type) {
	case float64:
		return finite(n)
	case json.Number:
		f, err := n.Float64()
		if err != nil {
			return types.None[float64]()
		}
		return finite(f)
	case string:
		return parseNumber(n)
	}
	return types.None[float64]()
}

// parseNumber parses the string encoded numbers some providers return.
func parseNumber(s string) types.Float {
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "none", "null", "-", "n/a", "nan":
		return types.None[float64]()
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return types.None[float64]()
	}
	return finite(f)
}

func finite(f float64) types.Float {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return types.None[float64]()
	}
	return types.Some(f)
}

func nonEmpty(s string) types.String {
	if strings.TrimSpace(s) == "" {
		return types.None[string]()
	}
	return types.Some(s)
}

// ratio returns num/den, unknown when either side is unknown or den is zero.
func ratio(num, den types.Float) types.Float {
	n, ok := num.Get()
	if !ok {
		return types.None[float64]()
	}
	d, ok := den.Get()
	if !ok || d == 0 {
		return types.None[float64]()
	}
	return finite(n / d)
}

// scale multiplies a known value by factor.
func scale(v types.Float, factor float64) types.Float {
	f, ok := v.Get()
	if !ok {
		return v
	}
	return types.Some(f * factor)
}

// freeCashFlow is operating cash flow less capital expenditure. Both must be reported.
func freeCashFlow(operatingCashFlow, capex types.Float) types.Float {
	ocf, ok := operatingCashFlow.Get()
	if !ok {
		return types.None[float64]()
	}
	c, ok := capex.Get()
	if !ok {
		return types.None[float64]()
	}
	return finite(ocf - c)
}
