package tui

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/theirongolddev/salescast/internal/config"
	"github.com/theirongolddev/salescast/internal/forecast"
	"github.com/theirongolddev/salescast/internal/source"
	"github.com/theirongolddev/salescast/internal/tui/theme"

	"github.com/charmbracelet/huh"
)

// SetupValues holds the answers of the first-run form.
type SetupValues struct {
	DataFile    string
	SARIMAModel string
	HWModel     string
	Theme       string
	Periods     int
}

// SetupValuesFrom seeds the form with the current configuration.
func SetupValuesFrom(cfg config.Config) SetupValues {
	return SetupValues{
		DataFile:    cfg.Data.Transactions,
		SARIMAModel: cfg.Data.SARIMAModel,
		HWModel:     cfg.Data.HoltWintersModel,
		Theme:       cfg.Appearance.Theme,
		Periods:     forecast.ClampPeriods(cfg.Forecast.DefaultPeriods),
	}
}

// Apply writes the answers into cfg. Blank paths keep the existing value.
func (v SetupValues) Apply(cfg *config.Config) {
	if s := strings.TrimSpace(v.DataFile); s != "" {
		cfg.Data.Transactions = s
	}
	if s := strings.TrimSpace(v.SARIMAModel); s != "" {
		cfg.Data.SARIMAModel = s
	}
	if s := strings.TrimSpace(v.HWModel); s != "" {
		cfg.Data.HoltWintersModel = s
	}
	if v.Theme != "" {
		cfg.Appearance.Theme = theme.ByName(v.Theme).Name
	}
	if v.Periods != 0 {
		cfg.Forecast.DefaultPeriods = forecast.ClampPeriods(v.Periods)
	}
}

// Discover replaces paths that do not exist with matching files found in dir.
// It returns the number of input files found.
func (v *SetupValues) Discover(dir string) int {
	files, err := source.ScanDir(dir)
	if err != nil || len(files) == 0 {
		return 0
	}
	pick := func(cur string, k source.FileKind) string {
		if _, err := os.Stat(cur); err == nil {
			return cur
		}
		if found := source.FirstOfKind(files, k); found != "" {
			return found
		}
		return cur
	}
	v.DataFile = pick(v.DataFile, source.KindTransactions)
	v.SARIMAModel = pick(v.SARIMAModel, source.KindSARIMA)
	v.HWModel = pick(v.HWModel, source.KindHoltWinters)
	return len(files)
}

func notBlank(s string) error {
	if strings.TrimSpace(s) == "" {
		return errors.New("a path is required")
	}
	return nil
}

// NewSetupForm builds the first-run form bound to vals. It is used both inside
// the dashboard and by the setup command.
func NewSetupForm(vals *SetupValues) *huh.Form {
	themeOpts := huh.NewOptions(theme.Names()...)

	periodOpts := make([]huh.Option[int], 0, forecast.MaxPeriods)
	for p := forecast.MinPeriods; p <= forecast.MaxPeriods; p++ {
		label := fmt.Sprintf("%d months", p)
		if p == 1 {
			label = "1 month"
		}
		periodOpts = append(periodOpts, huh.NewOption(label, p))
	}

	return huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Welcome to salescast").
				Description("Monthly sales analysis and forecasting with\nSARIMA and Holt-Winters models.\n\nPaths are relative to the working directory."),
			huh.NewInput().
				Title("Transaction file (CSV)").
				Description("Needs Tanggal and Qty columns.").
				Value(&vals.DataFile).
				Validate(notBlank),
			huh.NewInput().
				Title("SARIMA model").
				Value(&vals.SARIMAModel).
				Validate(notBlank),
			huh.NewInput().
				Title("Holt-Winters model").
				Value(&vals.HWModel).
				Validate(notBlank),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Color theme").
				Options(themeOpts...).
				Value(&vals.Theme),
			huh.NewSelect[int]().
				Title("Default forecast horizon").
				Options(periodOpts...).
				Value(&vals.Periods),
		),
	).WithShowHelp(true)
}
