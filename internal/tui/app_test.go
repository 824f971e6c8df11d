package tui

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/theirongolddev/salescast/internal/config"
	"github.com/theirongolddev/salescast/internal/forecast"
	"github.com/theirongolddev/salescast/internal/model"
	"github.com/theirongolddev/salescast/internal/pipeline"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testData   = "../forecast/testdata/sales.csv"
	testSARIMA = "../forecast/testdata/model_sarima.json"
	testHW     = "../forecast/testdata/model_holtwinters.json"
)

func init() {
	lipgloss.SetColorProfile(termenv.TrueColor)
}

// withConfig points the config directory at a temp dir holding a saved
// default config, so the setup form stays closed.
func withConfig(t *testing.T) {
	t.Helper()
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	require.NoError(t, config.Save(config.DefaultConfig()))
}

func newTestApp(t *testing.T, src Sources) App {
	t.Helper()
	withConfig(t)
	a := NewApp(Options{
		Sources:  src,
		Loader:   pipeline.NewLoader(""),
		Registry: forecast.NewRegistry(),
	})
	m, _ := a.Update(tea.WindowSizeMsg{Width: 140, Height: 60})
	return m.(App)
}

func load(t *testing.T, a App) App {
	t.Helper()
	msg := loadDataCmd(a.opts)()
	loaded, ok := msg.(DataLoadedMsg)
	require.True(t, ok, "got %T", msg)
	m, _ := a.Update(loaded)
	return m.(App)
}

func press(a App, key string) (App, tea.Cmd) {
	var msg tea.KeyMsg
	switch key {
	case "left":
		msg = tea.KeyMsg{Type: tea.KeyLeft}
	case "right":
		msg = tea.KeyMsg{Type: tea.KeyRight}
	case "enter":
		msg = tea.KeyMsg{Type: tea.KeyEnter}
	default:
		msg = tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(key)}
	}
	m, cmd := a.Update(msg)
	return m.(App), cmd
}

func fullSources() Sources {
	return Sources{Data: testData, SARIMA: testSARIMA, HoltWinters: testHW}
}

func TestFooterText(t *testing.T) {
	s := model.DataSummary{
		Records:   1234,
		FirstDate: time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC),
		LastDate:  time.Date(2023, 3, 31, 0, 0, 0, 0, time.UTC),
	}
	assert.Equal(t, "1,234 transactions · 2023-01 – 2023-03", footerText(s))
	assert.Empty(t, footerText(model.DataSummary{}))
}

func TestLoadDataCmd_AllSources(t *testing.T) {
	a := load(t, newTestApp(t, fullSources()))

	require.True(t, a.loaded)
	require.NoError(t, a.dataErr)
	require.NoError(t, a.sarimaErr)
	require.NoError(t, a.hwErr)
	assert.NotNil(t, a.data)
	assert.Len(t, a.models(), 2)
	assert.Equal(t, 36, a.stats.Months)
}

func TestLoadDataCmd_MissingSourcesFailIndependently(t *testing.T) {
	dir := t.TempDir()
	a := load(t, newTestApp(t, Sources{
		Data:        dir + "/missing.csv",
		SARIMA:      testSARIMA,
		HoltWinters: dir + "/missing.json",
	}))

	assert.ErrorIs(t, a.dataErr, model.ErrFileNotFound)
	assert.NoError(t, a.sarimaErr)
	assert.ErrorIs(t, a.hwErr, model.ErrFileNotFound)
	assert.Len(t, a.models(), 1)
}

func TestKeysIgnoredUntilLoaded(t *testing.T) {
	a := newTestApp(t, fullSources())
	a, _ = press(a, "f")
	assert.Equal(t, tabOverview, a.activeTab)
}

func TestTabRouting(t *testing.T) {
	a := load(t, newTestApp(t, fullSources()))

	a, _ = press(a, "a")
	assert.Equal(t, tabAnalysis, a.activeTab)
	a, _ = press(a, "f")
	assert.Equal(t, tabForecast, a.activeTab)
	a, _ = press(a, "o")
	assert.Equal(t, tabOverview, a.activeTab)

	a, _ = press(a, "left")
	assert.Equal(t, tabForecast, a.activeTab, "left wraps to the last page")
	a, _ = press(a, "right")
	assert.Equal(t, tabOverview, a.activeTab, "right wraps to the first page")
}

func TestHelpToggle(t *testing.T) {
	a := load(t, newTestApp(t, fullSources()))

	a, _ = press(a, "?")
	assert.True(t, a.showHelp)
	assert.Contains(t, a.View(), "Keyboard Shortcuts")

	// Any key closes help without acting on it.
	a, _ = press(a, "f")
	assert.False(t, a.showHelp)
	assert.Equal(t, tabOverview, a.activeTab)
}

func TestHorizonStaysInBounds(t *testing.T) {
	a := load(t, newTestApp(t, fullSources()))
	a, _ = press(a, "f")
	assert.Equal(t, forecast.DefaultPeriods, a.fc.periods)

	for range 20 {
		a, _ = press(a, "l")
	}
	assert.Equal(t, forecast.MaxPeriods, a.fc.periods)

	for range 20 {
		a, _ = press(a, "-")
	}
	assert.Equal(t, forecast.MinPeriods, a.fc.periods)
}

func TestHorizonKeysOnlyOnForecastPage(t *testing.T) {
	a := load(t, newTestApp(t, fullSources()))
	a, _ = press(a, "l")
	assert.Equal(t, forecast.DefaultPeriods, a.fc.periods)
}

func TestRunForecast(t *testing.T) {
	a := load(t, newTestApp(t, fullSources()))
	a, _ = press(a, "f")
	a, _ = press(a, "l") // 4 months

	a, cmd := press(a, "enter")
	require.NotNil(t, cmd)
	assert.True(t, a.fc.running)

	msg := cmd()
	done, ok := msg.(ForecastDoneMsg)
	require.True(t, ok, "got %T", msg)

	m, _ := a.Update(done)
	a = m.(App)
	require.NotNil(t, a.fc.result)
	assert.False(t, a.fc.running)
	assert.Equal(t, 4, a.fc.result.Periods)
	assert.Len(t, a.fc.result.Combined.Rows, 4)
	assert.Equal(t, []model.Column{
		forecast.ColSARIMAForecast, forecast.ColSARIMALower, forecast.ColSARIMAUpper, forecast.ColHWForecast,
	}, a.fc.result.Combined.Columns)

	view := a.View()
	assert.Contains(t, view, "2025-05")
	assert.Contains(t, view, "History and Forecast")
	assert.Contains(t, view, string(forecast.ColHWForecast))
}

func TestForecastPageBothModelsFail(t *testing.T) {
	a := load(t, newTestApp(t, fullSources()))
	a, _ = press(a, "f")

	outcomes := []forecast.Outcome{
		{Kind: forecast.KindSARIMA, Name: "SARIMA", Err: errors.New("sarima exploded")},
		{Kind: forecast.KindHoltWinters, Name: "Holt-Winters", Err: errors.New("hw exploded")},
	}
	m, _ := a.Update(ForecastDoneMsg{Periods: 3, Outcomes: outcomes, Combined: forecast.Merge(outcomes)})
	view := m.(App).View()

	assert.Contains(t, view, "sarima exploded")
	assert.Contains(t, view, "hw exploded")
	assert.NotContains(t, view, "History and Forecast")
	assert.NotContains(t, view, string(forecast.ColSARIMAForecast))
}

func TestAnalysisPage(t *testing.T) {
	a := load(t, newTestApp(t, fullSources()))
	a, _ = press(a, "a")
	view := a.View()

	assert.Contains(t, view, "Order (1,1,1)x(0,1,1,12)")
	assert.Contains(t, view, "Akaike Info Criterion (AIC)")
	assert.Contains(t, view, "Actual vs Fitted")
}

func TestAnalysisPageWarnsWhenModelMissing(t *testing.T) {
	a := load(t, newTestApp(t, Sources{
		Data:        testData,
		SARIMA:      testSARIMA,
		HoltWinters: t.TempDir() + "/missing.json",
	}))
	a, _ = press(a, "a")
	view := a.View()

	assert.Contains(t, view, "Holt-Winters model")
	assert.NotContains(t, view, "Actual vs Fitted")
}

func TestViewMain_FillsTerminalAndShowsFooter(t *testing.T) {
	a := load(t, newTestApp(t, fullSources()))
	view := a.View()

	assert.Equal(t, 60, lipgloss.Height(view))
	assert.Contains(t, view, "transactions · 2022-05 – 2025-04")
}

func TestViewMain_NoFooterWithoutData(t *testing.T) {
	a := load(t, newTestApp(t, Sources{
		Data:        t.TempDir() + "/missing.csv",
		SARIMA:      testSARIMA,
		HoltWinters: testHW,
	}))
	view := a.View()

	assert.NotContains(t, view, "transactions ·")
	assert.Contains(t, view, "No sales data")
}

func TestViewTooNarrow(t *testing.T) {
	a := load(t, newTestApp(t, fullSources()))
	m, _ := a.Update(tea.WindowSizeMsg{Width: 60, Height: 20})
	assert.True(t, strings.Contains(m.(App).View(), "Terminal too narrow"))
}

func TestSetupValuesApply(t *testing.T) {
	cfg := config.DefaultConfig()
	vals := SetupValues{
		DataFile:    " sales.csv ",
		SARIMAModel: "",
		HWModel:     "hw.json",
		Theme:       "tokyo-night",
		Periods:     40,
	}
	vals.Apply(&cfg)

	assert.Equal(t, "sales.csv", cfg.Data.Transactions)
	assert.Equal(t, config.DefaultSARIMAModel, cfg.Data.SARIMAModel, "blank keeps the current path")
	assert.Equal(t, "hw.json", cfg.Data.HoltWintersModel)
	assert.Equal(t, "tokyo-night", cfg.Appearance.Theme)
	assert.Equal(t, forecast.MaxPeriods, cfg.Forecast.DefaultPeriods)
}

func TestSetupFormOpensOnFirstRun(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	a := NewApp(Options{Sources: fullSources()})
	require.True(t, a.needSetup)

	m, _ := a.Update(loadDataCmd(a.opts)())
	assert.NotNil(t, m.(App).setupForm)
}

func TestSetupFormSavesTypedAnswers(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", t.TempDir())
	a := NewApp(Options{Sources: fullSources()})

	m, _ := a.Update(loadDataCmd(a.opts)())
	app := m.(App)
	require.NotNil(t, app.setupForm)

	// The transaction path input has focus once the form opens.
	for _, k := range []tea.KeyType{tea.KeyCtrlU, tea.KeyCtrlK} {
		m, _ = app.Update(tea.KeyMsg{Type: k})
		app = m.(App)
	}
	m, _ = app.Update(tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune("mine.csv")})
	app = m.(App)
	require.Equal(t, "mine.csv", app.setupVals.DataFile)

	app.setupForm.State = huh.StateCompleted
	m, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	app = m.(App)
	assert.Nil(t, app.setupForm)
	assert.NotNil(t, cmd, "a changed data path reloads")

	cfg, err := config.Load()
	require.NoError(t, err)
	assert.Equal(t, "mine.csv", cfg.Data.Transactions)
	assert.Equal(t, "mine.csv", app.opts.Sources.Data)
}

func TestSetupValuesDiscover(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "penjualan.csv"), []byte("Tanggal,Qty\n"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "m1.json"), []byte(`{"version":1,"kind":"sarima"}`), 0o644))

	vals := SetupValues{
		DataFile:    "missing.csv",
		SARIMAModel: "missing.json",
		HWModel:     testHW,
	}
	assert.Equal(t, 2, vals.Discover(dir))
	assert.Equal(t, filepath.Join(dir, "penjualan.csv"), vals.DataFile)
	assert.Equal(t, filepath.Join(dir, "m1.json"), vals.SARIMAModel)
	assert.Equal(t, testHW, vals.HWModel, "existing paths are kept")

	empty := SetupValues{DataFile: "x.csv"}
	assert.Zero(t, empty.Discover(filepath.Join(dir, "nope")))
	assert.Equal(t, "x.csv", empty.DataFile)
}
