package main

import (
	"bytes"
	"context"
	"flag"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/urfave/cli"

	"volur/config"
	"volur/sources"
	"volur/types"
)

type fixedSource struct{}

func (fixedSource) Name() string { return "fixed" }

func (fixedSource) GetQuote(_ context.Context, ticker string) types.Quote {
	return types.Quote{Ticker: ticker, Price: types.Some(50.0), Currency: types.Some("USD"), SharesOutstanding: types.Some(10.0)}
}

func (fixedSource) GetFundamentals(_ context.Context, ticker string) types.Fundamentals {
	return types.Fundamentals{Ticker: ticker, TrailingPE: types.Some(10.0), FreeCashFlow: types.Some(100.0)}
}

func testRegistry() *sources.Registry {
	registry := sources.NewRegistry()
	registry.Register(fixedSource{})
	return registry
}

func testOptions(tickers ...string) options {
	return options{
		source:  "fixed",
		tickers: tickers,
		params:  types.DCFParams{DiscountRate: 0.10, LongTermGrowth: 0.0, Years: 10},
		weights: types.DefaultScoringWeights(),
		scales:  types.DefaultScoringScales(),
	}
}

func TestRun_PrintsReport(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), testRegistry(), 2, testOptions("acme"), &stdout, &stderr)

	assert.Equal(t, 0, code)
	out := stdout.String()
	assert.Contains(t, out, "Analyzing 1 ticker(s) using fixed data source...")
	assert.Contains(t, out, "VALUATION RESULTS - Data Source: FIXED")
	assert.Contains(t, out, "ACME")
	assert.Contains(t, out, "$100.00")
	assert.Contains(t, out, "50.00%")
	assert.Contains(t, out, "N/A")
	assert.Contains(t, out, "Successfully analyzed: 1 ticker(s)")
	assert.Empty(t, stderr.String())
}

func TestRun_UsesConfiguredWeights(t *testing.T) {
	var stdout, stderr bytes.Buffer
	opts := testOptions("ACME")
	opts.weights = types.ScoringWeights{PE: 1}

	code := run(context.Background(), testRegistry(), 2, opts, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "80.0")
	assert.NotContains(t, stdout.String(), "90.0")
}

func TestRun_UsesConfiguredScales(t *testing.T) {
	var stdout, stderr bytes.Buffer
	opts := testOptions("ACME")
	opts.weights = types.ScoringWeights{PE: 1}
	opts.scales.PE = 4

	code := run(context.Background(), testRegistry(), 2, opts, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.Contains(t, stdout.String(), "60.0")
}

func TestRun_UnknownSource(t *testing.T) {
	var stdout, stderr bytes.Buffer
	opts := testOptions("AAPL")
	opts.source = "bloomberg"

	code := run(context.Background(), testRegistry(), 2, opts, &stdout, &stderr)
	assert.Equal(t, 1, code)
	assert.Contains(t, stderr.String(), "unknown source: bloomberg")
	assert.Contains(t, stderr.String(), "available: fixed")
}

func TestRun_FailedTickerSetsExitCode(t *testing.T) {
	var stdout, stderr bytes.Buffer
	code := run(context.Background(), testRegistry(), 2, testOptions("AAPL", " "), &stdout, &stderr)

	assert.Equal(t, 1, code)
	assert.Contains(t, stdout.String(), "Failed to analyze: 1 ticker(s)")
	assert.Contains(t, stderr.String(), "ticker is required")
}

func TestRun_WritesWorkbook(t *testing.T) {
	var stdout, stderr bytes.Buffer
	opts := testOptions("AAPL")
	opts.xlsx = filepath.Join(t.TempDir(), "out.xlsx")

	code := run(context.Background(), testRegistry(), 2, opts, &stdout, &stderr)
	assert.Equal(t, 0, code)
	assert.FileExists(t, opts.xlsx)
}

func newContext(t *testing.T, args ...string) *cli.Context {
	settings := &config.Settings{DefaultSource: "yfinance", DiscountRate: 0.10, LongTermGrowth: 0.02, Years: 10}
	app := newApp(settings)

	set := flag.NewFlagSet("volur", flag.ContinueOnError)
	for _, f := range app.Flags {
		f.Apply(set)
	}
	require.NoError(t, set.Parse(args))
	return cli.NewContext(app, set, nil)
}

func TestOptionsFromContext(t *testing.T) {
	settings := &config.Settings{
		Weights: types.ScoringWeights{PE: 1},
		Scales:  types.ScoringScales{PE: 4, PB: 20, FCFYield: 1000, ROE: 100},
	}

	opts, err := optionsFromContext(newContext(t, "--ticker", "AAPL", "--ticker", "msft,tcs", "--terminal", "0.03"), settings)
	require.NoError(t, err)
	assert.Equal(t, "yfinance", opts.source)
	assert.Equal(t, []string{"AAPL", "msft", "tcs"}, opts.tickers)
	assert.Equal(t, 0.10, opts.params.DiscountRate)
	assert.Equal(t, 0.02, opts.params.LongTermGrowth)
	assert.Equal(t, types.Some(0.03), opts.params.TerminalGrowth)
	assert.Equal(t, types.ScoringWeights{PE: 1}, opts.weights)
	assert.Equal(t, 4.0, opts.scales.PE)

	_, err = optionsFromContext(newContext(t), settings)
	assert.Error(t, err)

	tests := map[string][]string{
		"growth above one":  {"--ticker", "AAPL", "--growth", "1.5"},
		"zero discount":     {"--ticker", "AAPL", "--discount", "0"},
		"negative years":    {"--ticker", "AAPL", "--years", "-1"},
		"terminal too high": {"--ticker", "AAPL", "--terminal", "0.2"},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			_, err := optionsFromContext(newContext(t, args...), settings)
			assert.ErrorIs(t, err, types.ErrInvalidParams)
		})
	}
}
