package cmd

import (
	"fmt"

	"github.com/theirongolddev/salescast/internal/config"

	"github.com/spf13/cobra"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show current configuration",
	RunE:  runConfig,
}

var configSetCmd = &cobra.Command{
	Use:   "set KEY VALUE",
	Short: "Set a configuration value, e.g. forecast.default_periods 6",
	Args:  cobra.ExactArgs(2),
	RunE:  runConfigSet,
}

func init() {
	configCmd.AddCommand(configSetCmd)
	rootCmd.AddCommand(configCmd)
}

func runConfig(_ *cobra.Command, _ []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}

	fmt.Printf("  Config file: %s\n", config.ConfigPath())
	if config.Exists() {
		fmt.Println("  Status: loaded")
	} else {
		fmt.Println("  Status: using defaults (no config file)")
	}
	fmt.Println()

	fmt.Println("  [Data]")
	fmt.Printf("    Transactions:      %s\n", cfg.Data.Transactions)
	fmt.Printf("    SARIMA model:      %s\n", cfg.Data.SARIMAModel)
	fmt.Printf("    Holt-Winters:      %s\n", cfg.Data.HoltWintersModel)
	fmt.Println()

	fmt.Println("  [Forecast]")
	fmt.Printf("    Default periods:   %d\n", cfg.Forecast.DefaultPeriods)
	fmt.Printf("    Confidence:        %.2f\n", cfg.Forecast.Confidence)
	fmt.Println()

	fmt.Println("  [General]")
	fmt.Printf("    Log level:         %s\n", cfg.General.LogLevel)
	if cfg.General.NotebookURL != "" {
		fmt.Printf("    Notebook:          %s\n", cfg.General.NotebookURL)
	}
	fmt.Println()

	fmt.Println("  [Appearance]")
	fmt.Printf("    Theme: %s\n", cfg.Appearance.Theme)
	fmt.Println()

	fmt.Println("  [Server]")
	fmt.Printf("    Address:           %s\n", cfg.Server.Addr)
	fmt.Printf("    Poll interval:     %ds\n", cfg.Server.PollIntervalSec)
	fmt.Println()

	fmt.Println("  Run `salescast setup` to reconfigure.")
	return nil
}

func runConfigSet(_ *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	if err := cfg.Set(args[0], args[1]); err != nil {
		return err
	}
	if err := config.Save(cfg); err != nil {
		return fmt.Errorf("saving config: %w", err)
	}
	fmt.Printf("  %s = %s\n", args[0], args[1])
	return nil
}
