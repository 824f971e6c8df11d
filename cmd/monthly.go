package cmd

import (
	"fmt"

	"github.com/theirongolddev/salescast/internal/cli"

	"github.com/spf13/cobra"
)

var monthlyCmd = &cobra.Command{
	Use:   "monthly",
	Short: "Monthly sales totals",
	RunE:  runMonthly,
}

func init() {
	rootCmd.AddCommand(monthlyCmd)
}

func runMonthly(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	result, err := loadData(cfg)
	if err != nil {
		return err
	}
	if len(result.Monthly) == 0 {
		fmt.Println("\n  No transactions found.")
		return nil
	}

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("MONTHLY SALES  %d months", len(result.Monthly))))
	fmt.Println()

	var peak float64
	rows := make([][]string, 0, len(result.Monthly))
	for i, m := range result.Monthly {
		change := ""
		if i > 0 {
			change = cli.FormatChange(m.Qty, result.Monthly[i-1].Qty)
		}
		rows = append(rows, []string{m.Month.String(), cli.FormatQty(m.Qty), change})
		peak = max(peak, m.Qty)
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Month", "Qty", "Change"},
		Rows:    rows,
	}))

	fmt.Println()
	for _, m := range result.Monthly {
		fmt.Println(cli.RenderHorizontalBar(m.Month.String(), m.Qty, peak, 40))
	}
	return nil
}
