package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/urfave/cli"
	"go.mongodb.org/mongo-driver/mongo"
	"go.uber.org/zap"

	"volur/cache"
	"volur/clients/http_client"
	mongo_client "volur/clients/mongo"
	"volur/config"
	"volur/services"
	"volur/sources"
	"volur/types"
)

const examples = `Examples:
   volur --source yfinance --ticker AAPL --ticker MSFT
   volur --source fmp --ticker AAPL --growth 0.05 --discount 0.12
   volur --source sec --ticker AAPL --years 15 --terminal 0.03`

type options struct {
	source  string
	tickers []string
	params  types.DCFParams
	weights types.ScoringWeights
	scales  types.ScoringScales
	xlsx    string
}

func main() {
	settings, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
	setupLogger()
	defer zap.L().Sync()
	http_client.SetTimeout(settings.HTTPTimeout)

	app := newApp(settings)
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// setupLogger keeps stdout for the report. Provider failures still reach stderr.
func setupLogger() {
	zapConfig := zap.NewProductionConfig()
	zapConfig.Level = zap.NewAtomicLevelAt(zap.WarnLevel)
	zapConfig.OutputPaths = []string{"stderr"}
	logger, err := zapConfig.Build()
	if err != nil {
		return
	}
	zap.ReplaceGlobals(logger)
}

func newApp(settings *config.Settings) *cli.App {
	app := cli.NewApp()
	app.Name = "volur"
	app.Usage = "A pluggable valuation platform for value investing"
	app.Version = "0.1.0"
	app.Description = examples
	app.Flags = []cli.Flag{
		cli.StringFlag{Name: "source, s", Value: settings.DefaultSource, Usage: "data source to use"},
		cli.StringSliceFlag{Name: "ticker, t", Usage: "stock ticker symbol to analyze, repeatable"},
		cli.Float64Flag{Name: "growth", Value: settings.LongTermGrowth, Usage: "long-term growth rate"},
		cli.Float64Flag{Name: "discount", Value: settings.DiscountRate, Usage: "discount rate"},
		cli.IntFlag{Name: "years", Value: settings.Years, Usage: "number of years for DCF"},
		cli.Float64Flag{Name: "terminal", Usage: "terminal growth rate (defaults to growth rate)"},
		cli.StringFlag{Name: "xlsx", Usage: "also write the results to this XLSX file"},
	}
	app.Action = func(c *cli.Context) error {
		opts, err := optionsFromContext(c, settings)
		if err != nil {
			return cli.NewExitError(fmt.Sprintf("Error: %v", err), 1)
		}

		ctx := context.Background()
		responseCache, closeCache, err := openCache(ctx, settings)
		if err != nil {
			return cli.NewExitError(fmt.Sprintf("Error: %v", err), 1)
		}
		defer closeCache()

		registry := services.NewSourceRegistry(settings, responseCache)
		if code := run(ctx, registry, settings.BatchConcurrency, opts, c.App.Writer, os.Stderr); code != 0 {
			return cli.NewExitError("", code)
		}
		return nil
	}
	return app
}

func optionsFromContext(c *cli.Context, settings *config.Settings) (options, error) {
	opts := options{
		source: c.String("source"),
		xlsx:   c.String("xlsx"),
		params: types.DCFParams{
			DiscountRate:   c.Float64("discount"),
			LongTermGrowth: c.Float64("growth"),
			Years:          c.Int("years"),
			TerminalGrowth: settings.TerminalGrowth,
		},
		weights: settings.ScoringWeights(),
		scales:  settings.ScoringScales(),
	}
	if c.IsSet("terminal") {
		opts.params.TerminalGrowth = types.Some(c.Float64("terminal"))
	}
	for _, t := range c.StringSlice("ticker") {
		for _, ticker := range strings.Split(t, ",") {
			if ticker = strings.TrimSpace(ticker); ticker != "" {
				opts.tickers = append(opts.tickers, ticker)
			}
		}
	}
	if len(opts.tickers) == 0 {
		return opts, fmt.Errorf("at least one --ticker is required")
	}
	return opts, config.ValidateDCFParams(opts.params)
}

// openCache opens the configured response cache for the lifetime of one command.
func openCache(ctx context.Context, settings *config.Settings) (cache.Cache, func(), error) {
	var (
		client *mongo.Client
		db     *mongo.Database
		err    error
	)
	if settings.CacheBackend == config.CacheBackendMongo {
		client, err = mongo_client.Connect(ctx, settings.MongoURI)
		if err != nil {
			return nil, nil, err
		}
		db = client.Database(settings.Database)
	}

	c, err := services.NewCache(ctx, settings, db)
	if err != nil {
		if client != nil {
			_ = client.Disconnect(ctx)
		}
		return nil, nil, err
	}
	return c, func() {
		if c != nil {
			_ = c.Close()
		}
		if client != nil {
			_ = client.Disconnect(context.Background())
		}
	}, nil
}

// run analyzes the tickers and prints the report. It returns the process exit code:
// 1 when the source is unknown or any ticker failed.
func run(ctx context.Context, registry *sources.Registry, concurrency int, opts options, stdout, stderr io.Writer) int {
	service := services.NewValuationService(registry, nil, nil, concurrency)
	service.SetScoringScales(opts.scales)

	fmt.Fprintf(stdout, "Analyzing %d ticker(s) using %s data source...\n", len(opts.tickers), opts.source)
	results, err := service.AnalyzeBatch(ctx, opts.source, opts.tickers, opts.params, opts.weights)
	if err != nil {
		fmt.Fprintf(stderr, "Error: %v (available: %s)\n", err, strings.Join(registry.List(), ", "))
		return 1
	}

	failed := services.FailedTickers(results)
	for _, r := range results {
		if r.Error != "" {
			fmt.Fprintf(stderr, "Error analyzing %s: %s\n", r.Ticker, r.Error)
		}
	}

	valuations := services.Valuations(results)
	if len(valuations) > 0 {
		fmt.Fprintln(stdout, renderTable(valuations, opts.source))
		fmt.Fprintln(stdout, "SUMMARY:")
		fmt.Fprintf(stdout, "  Successfully analyzed: %d ticker(s)\n", len(valuations))
		if len(failed) > 0 {
			fmt.Fprintf(stdout, "  Failed to analyze: %d ticker(s): %s\n", len(failed), strings.Join(failed, ", "))
		}

		if opts.xlsx != "" {
			if err := services.ExportValuationsToFile(opts.xlsx, valuations); err != nil {
				fmt.Fprintf(stderr, "Error: %v\n", err)
				return 1
			}
			fmt.Fprintf(stdout, "  Written to %s\n", opts.xlsx)
		}
	}

	if len(failed) > 0 {
		return 1
	}
	return 0
}
