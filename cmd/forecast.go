package cmd

import (
	"fmt"
	"os"

	"github.com/theirongolddev/salescast/internal/cli"
	"github.com/theirongolddev/salescast/internal/forecast"

	"github.com/spf13/cobra"
)

var (
	flagPeriods    int
	flagConfidence float64
)

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Forecast the next months with both models",
	RunE:  runForecast,
}

func init() {
	forecastCmd.Flags().IntVarP(&flagPeriods, "periods", "p", 0, "Months to forecast, 1-12 (default from config)")
	forecastCmd.Flags().Float64Var(&flagConfidence, "confidence", 0, "SARIMA interval confidence in (0, 1) (default from config)")
	rootCmd.AddCommand(forecastCmd)
}

func runForecast(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	periods := cfg.Forecast.DefaultPeriods
	if cmd.Flags().Changed("periods") {
		periods = flagPeriods
	}
	if err := forecast.ValidatePeriods(periods); err != nil {
		return err
	}
	confidence := cfg.Forecast.Confidence
	if cmd.Flags().Changed("confidence") {
		if flagConfidence <= 0 || flagConfidence >= 1 {
			return fmt.Errorf("confidence must be between 0 and 1, got %g", flagConfidence)
		}
		confidence = flagConfidence
	}

	models, loadErr := loadModels(cfg)
	if len(models) == 0 {
		return loadErr
	}

	combined := forecast.Merge(forecast.Run(models, periods, confidence))
	for _, err := range combined.Errors {
		fmt.Fprintln(os.Stderr, cli.RenderWarning(err.Error()))
	}
	if combined.Empty() {
		return combined.Err()
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("FORECAST  Next %d months", periods)))
	fmt.Println()
	fmt.Print(cli.RenderTable(forecastTable(combined)))
	if !flagQuiet {
		fmt.Fprintf(os.Stderr, "\n  Values rounded to whole units · %.0f%% interval for SARIMA\n", confidence*100)
	}
	return nil
}

func forecastTable(c *forecast.Combined) cli.Table {
	headers := []string{"Month"}
	for _, col := range c.Columns {
		headers = append(headers, string(col))
	}

	rows := make([][]string, 0, len(c.Rows))
	for _, r := range c.Rows {
		row := []string{r.Month.String()}
		for _, col := range c.Columns {
			if v, ok := r.Values[col]; ok {
				row = append(row, cli.FormatNumber(v))
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}
	return cli.Table{Headers: headers, Rows: rows}
}
