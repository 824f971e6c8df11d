package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/theirongolddev/salescast/internal/daemon"
	"github.com/theirongolddev/salescast/internal/forecast"

	"github.com/spf13/cobra"
)

var (
	flagServeAddr         string
	flagServeInterval     time.Duration
	flagServeEventsBuffer int
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve analysis and forecasts over HTTP and watch the input files",
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&flagServeAddr, "addr", "", "HTTP listen address (default from config)")
	serveCmd.Flags().DurationVar(&flagServeInterval, "interval", 0, "Polling interval (default from config)")
	serveCmd.Flags().IntVar(&flagServeEventsBuffer, "events-buffer", 200, "Max in-memory events retained")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	addr := cfg.Server.Addr
	if flagServeAddr != "" {
		addr = flagServeAddr
	}
	interval := time.Duration(cfg.Server.PollIntervalSec) * time.Second
	if flagServeInterval > 0 {
		interval = flagServeInterval
	}

	svc := daemon.New(daemon.Config{
		DataFile:     cfg.Data.Transactions,
		SARIMAModel:  cfg.Data.SARIMAModel,
		HWModel:      cfg.Data.HoltWintersModel,
		Confidence:   cfg.Forecast.Confidence,
		Interval:     interval,
		Addr:         addr,
		EventsBuffer: flagServeEventsBuffer,
	}, newLoader(), forecast.NewRegistry())

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "  salescast serving on http://%s (ctrl+c to stop)\n", addr)
		fmt.Fprintf(os.Stderr, "  Watching %s, %s, %s every %s\n",
			cfg.Data.Transactions, cfg.Data.SARIMAModel, cfg.Data.HoltWintersModel, interval)
	}
	return svc.Run(ctx)
}
