package cmd

import (
	"fmt"

	"github.com/theirongolddev/salescast/internal/forecast"
	"github.com/theirongolddev/salescast/internal/logx"
	"github.com/theirongolddev/salescast/internal/pipeline"
	"github.com/theirongolddev/salescast/internal/tui"
	"github.com/theirongolddev/salescast/internal/tui/theme"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/spf13/cobra"
)

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Launch interactive TUI dashboard",
	RunE:  runTUI,
}

func init() {
	rootCmd.AddCommand(tuiCmd)
}

func runTUI(cmd *cobra.Command, _ []string) error {
	cfg, err := loadSettings(cmd)
	if err != nil {
		return err
	}
	theme.SetActive(cfg.Appearance.Theme)

	// The terminal belongs to the UI, so logs go to a file.
	logFile, err := logx.InitFile(pipeline.LogPath(), cfg.General.LogLevel)
	if err != nil {
		logx.Discard()
	} else {
		defer func() { _ = logFile.Close() }()
	}

	// Force TrueColor profile so all background styling produces ANSI codes
	// Without this, lipgloss may default to Ascii profile (no colors)
	lipgloss.SetColorProfile(termenv.TrueColor)

	app := tui.NewApp(tui.Options{
		Sources: tui.Sources{
			Data:        cfg.Data.Transactions,
			SARIMA:      cfg.Data.SARIMAModel,
			HoltWinters: cfg.Data.HoltWintersModel,
		},
		Loader:      newLoader(),
		Registry:    forecast.NewRegistry(),
		Periods:     cfg.Forecast.DefaultPeriods,
		Confidence:  cfg.Forecast.Confidence,
		NotebookURL: cfg.General.NotebookURL,
	})
	p := tea.NewProgram(app, tea.WithAltScreen())

	if _, err := p.Run(); err != nil {
		return fmt.Errorf("TUI error: %w", err)
	}
	return nil
}
