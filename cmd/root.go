// Package cmd implements the salescast CLI commands.
package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/theirongolddev/salescast/internal/cli"
	"github.com/theirongolddev/salescast/internal/config"
	"github.com/theirongolddev/salescast/internal/forecast"
	"github.com/theirongolddev/salescast/internal/logx"
	"github.com/theirongolddev/salescast/internal/pipeline"

	"github.com/spf13/cobra"
)

var (
	flagDataFile string
	flagSARIMA   string
	flagHW       string
	flagNoCache  bool
	flagQuiet    bool
)

var rootCmd = &cobra.Command{
	Use:               "salescast",
	Short:             "Monthly sales analysis and forecasting",
	Long:              "Summarize a sales transaction file and forecast upcoming months with SARIMA and Holt-Winters models.",
	RunE:              runSummary,
	SilenceUsage:      true,
	PersistentPreRunE: initLogging,
}

// Execute is the main entry point called from main.go.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDataFile, "data", "", "Transaction CSV file (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagSARIMA, "sarima", "", "SARIMA model artifact (default from config)")
	rootCmd.PersistentFlags().StringVar(&flagHW, "holtwinters", "", "Holt-Winters model artifact (default from config)")
	rootCmd.PersistentFlags().BoolVar(&flagNoCache, "no-cache", false, "Skip SQLite cache, reparse the transaction file")
	rootCmd.PersistentFlags().BoolVarP(&flagQuiet, "quiet", "q", false, "Suppress progress output")
}

// initLogging routes the logger to stderr. The TUI re-routes it to a file.
func initLogging(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		// A broken config file should still let `config` and `setup` run.
		fmt.Fprintln(os.Stderr, cli.RenderWarning(err.Error()))
	}
	level := cfg.General.LogLevel
	if flagQuiet {
		level = "ERROR"
	}
	return logx.Init(os.Stderr, level)
}

// loadSettings reads the config file and applies the global flag overrides.
func loadSettings(cmd *cobra.Command) (config.Config, error) {
	cfg, err := config.Load()
	if err != nil {
		return cfg, err
	}

	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.Data.Transactions = flagDataFile
	}
	if flags.Changed("sarima") {
		cfg.Data.SARIMAModel = flagSARIMA
	}
	if flags.Changed("holtwinters") {
		cfg.Data.HoltWintersModel = flagHW
	}
	return cfg, nil
}

func newLoader() *pipeline.Loader {
	if flagNoCache {
		return pipeline.NewLoader("")
	}
	return pipeline.NewLoader(pipeline.CachePath())
}

// loadData is the shared data loading path used by all commands.
// Uses the SQLite cache unless --no-cache is set.
func loadData(cfg config.Config) (*pipeline.CachedLoadResult, error) {
	path := cfg.Data.Transactions
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  Reading %s...\n", path)
	}

	res, err := newLoader().Load(path)
	if err != nil {
		return nil, fmt.Errorf("loading %s: %w", path, err)
	}

	if !flagQuiet {
		if res.CacheHit {
			fmt.Fprintf(os.Stderr, "  Loaded %d days from cache (%s transactions)\n",
				len(res.Daily), cli.FormatNumber(int64(res.Summary.Records)))
		} else {
			fmt.Fprintf(os.Stderr, "  Parsed %s transactions\n", cli.FormatNumber(int64(res.Summary.Records)))
		}
	}
	return res, nil
}

// loadModels loads both model artifacts. Each one fails on its own; the
// failures are printed as warnings and returned joined.
func loadModels(cfg config.Config) ([]forecast.Model, error) {
	reg := forecast.NewRegistry()

	var (
		models []forecast.Model
		errs   []error
	)
	for _, path := range []string{cfg.Data.SARIMAModel, cfg.Data.HoltWintersModel} {
		m, err := reg.Load(path)
		if err != nil {
			fmt.Fprintln(os.Stderr, cli.RenderWarning(err.Error()))
			errs = append(errs, err)
			continue
		}
		models = append(models, m)
	}
	return models, errors.Join(errs...)
}
