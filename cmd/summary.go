package cmd

import (
	"fmt"

	"github.com/theirongolddev/salescast/internal/cli"
	"github.com/theirongolddev/salescast/internal/pipeline"

	"github.com/spf13/cobra"
)

var summaryCmd = &cobra.Command{
	Use:   "summary",
	Short: "Sales summary of the transaction file",
	RunE:  runSummary,
}

func init() {
	rootCmd.AddCommand(summaryCmd)
}

func runSummary(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	result, err := loadData(cfg)
	if err != nil {
		return err
	}

	if result.Summary.Empty() {
		fmt.Println("\n  No transactions found in " + cfg.Data.Transactions + ".")
		fmt.Println("  Check the Tanggal and Qty columns, or point --data at another file.")
		return nil
	}

	s := result.Summary
	stats := pipeline.Describe(result.Daily, result.Monthly, 0)

	fmt.Println()
	fmt.Println(cli.RenderTitle("SALES SUMMARY  " + cli.FormatPeriod(s.FirstDate, s.LastDate)))
	fmt.Println()

	rows := [][]string{
		{"Transactions", cli.FormatNumber(int64(s.Records))},
		{"Units Sold", cli.FormatQty(s.TotalQty)},
		{"Days", cli.FormatNumber(int64(len(result.Daily)))},
		{"Days Without Sales", cli.FormatNumber(int64(stats.ZeroDays))},
		{cli.SeparatorRow},
		{"Months", cli.FormatNumber(int64(stats.Months))},
		{"Mean / Month", cli.FormatQty(stats.Mean)},
		{"Peak Month", fmt.Sprintf("%s  (%s)", stats.Peak.Month, cli.FormatQty(stats.Peak.Qty))},
		{"Lowest Month", fmt.Sprintf("%s  (%s)", stats.Trough.Month, cli.FormatQty(stats.Trough.Qty))},
	}
	if n := len(result.Monthly); n > 1 {
		last, prev := result.Monthly[n-1], result.Monthly[n-2]
		rows = append(rows, []string{"Last Month", fmt.Sprintf("%s  (%s vs %s)",
			cli.FormatQty(last.Qty), cli.FormatChange(last.Qty, prev.Qty), prev.Month)})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Metric", "Value"},
		Rows:    rows,
	}))

	values := make([]float64, len(result.Monthly))
	for i, m := range result.Monthly {
		values[i] = m.Qty
	}
	fmt.Println()
	fmt.Println("  Monthly  " + cli.RenderSparkline(values))
	return nil
}
