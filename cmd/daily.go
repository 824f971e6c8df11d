package cmd

import (
	"fmt"

	"github.com/theirongolddev/salescast/internal/cli"
	"github.com/theirongolddev/salescast/internal/pipeline"

	"github.com/spf13/cobra"
)

var flagDailyDays int

var dailyCmd = &cobra.Command{
	Use:   "daily",
	Short: "Daily sales table for the most recent days",
	RunE:  runDaily,
}

func init() {
	dailyCmd.Flags().IntVarP(&flagDailyDays, "days", "n", 30, "Number of days, counted back from the last transaction")
	rootCmd.AddCommand(dailyCmd)
}

func runDaily(cmd *cobra.Command, _ []string) error {
	if flagDailyDays < 1 {
		return fmt.Errorf("--days must be at least 1, got %d", flagDailyDays)
	}
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	result, err := loadData(cfg)
	if err != nil {
		return err
	}
	if result.Summary.Empty() {
		fmt.Println("\n  No transactions found.")
		return nil
	}

	// The file is historical, so the window ends at its last date, not today.
	until := result.Summary.LastDate.AddDate(0, 0, 1)
	since := until.AddDate(0, 0, -flagDailyDays)
	days := pipeline.FilterDays(result.Daily, since, until)

	fmt.Println()
	fmt.Println(cli.RenderTitle(fmt.Sprintf("DAILY SALES  Last %dd", flagDailyDays)))
	fmt.Println()

	rows := make([][]string, 0, len(days))
	for _, d := range days {
		rows = append(rows, []string{
			d.Date.Format("2006-01-02"),
			cli.FormatDayOfWeek(d.Date.Weekday()),
			cli.FormatQty(d.Qty),
		})
	}

	fmt.Print(cli.RenderTable(cli.Table{
		Headers: []string{"Date", "Day", "Qty"},
		Rows:    rows,
	}))
	return nil
}
