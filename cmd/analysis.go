package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/theirongolddev/salescast/internal/cli"
	"github.com/theirongolddev/salescast/internal/forecast"
	"github.com/theirongolddev/salescast/internal/model"

	"github.com/spf13/cobra"
)

var flagAnalysisMonths int

var analysisCmd = &cobra.Command{
	Use:   "analysis",
	Short: "Model descriptions, fit metrics and fitted values",
	RunE:  runAnalysis,
}

func init() {
	analysisCmd.Flags().IntVarP(&flagAnalysisMonths, "months", "m", 12, "Months of actual vs fitted values to show (0 = all)")
	rootCmd.AddCommand(analysisCmd)
}

func runAnalysis(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}

	result, dataErr := loadData(cfg)
	if dataErr != nil {
		fmt.Fprintln(os.Stderr, cli.RenderWarning(dataErr.Error()))
	}
	models, modelErr := loadModels(cfg)
	if len(models) == 0 {
		return errors.Join(dataErr, modelErr)
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle("MODEL ANALYSIS"))

	for _, m := range models {
		fmt.Println()
		fmt.Println(cli.RenderKeyValue(m.Name(), m.Describe(), 14))
		rows := make([][]string, 0, 3)
		for _, mt := range m.Metrics() {
			rows = append(rows, []string{mt.Label, cli.FormatMetric(mt.Value, mt.Available)})
		}
		fmt.Print(cli.RenderTable(cli.Table{
			Headers: []string{"Metric", "Value"},
			Rows:    rows,
		}))
	}

	if result == nil || len(result.Monthly) == 0 {
		return nil
	}

	fmt.Println()
	fmt.Print(cli.RenderTable(fittedTable(result.Monthly, models, flagAnalysisMonths)))
	return nil
}

// fittedTable lines up the actual monthly series with each model's in-sample
// predictions. Months a model has no prediction for stay blank.
func fittedTable(actual []model.MonthlyQty, models []forecast.Model, last int) cli.Table {
	if last > 0 && len(actual) > last {
		actual = actual[len(actual)-last:]
	}

	headers := []string{"Month", "Actual"}
	fitted := make([]map[model.Month]float64, len(models))
	for i, m := range models {
		headers = append(headers, m.Name()+" Fitted")
		fitted[i] = make(map[model.Month]float64)
		for _, v := range m.Fitted() {
			fitted[i][v.Month] = v.Value
		}
	}

	rows := make([][]string, 0, len(actual))
	for _, a := range actual {
		row := []string{a.Month.String(), cli.FormatQty(a.Qty)}
		for _, f := range fitted {
			if v, ok := f[a.Month]; ok {
				row = append(row, cli.FormatNumber(forecast.Round(v)))
			} else {
				row = append(row, "")
			}
		}
		rows = append(rows, row)
	}

	return cli.Table{
		Title:   "Actual vs Fitted",
		Headers: headers,
		Rows:    rows,
	}
}
