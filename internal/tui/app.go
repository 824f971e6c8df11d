// Package tui provides the interactive Bubble Tea dashboard for salescast.
package tui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/theirongolddev/salescast/internal/cli"
	"github.com/theirongolddev/salescast/internal/config"
	"github.com/theirongolddev/salescast/internal/forecast"
	"github.com/theirongolddev/salescast/internal/logx"
	"github.com/theirongolddev/salescast/internal/model"
	"github.com/theirongolddev/salescast/internal/pipeline"
	"github.com/theirongolddev/salescast/internal/tui/components"
	"github.com/theirongolddev/salescast/internal/tui/theme"

	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"
	"github.com/charmbracelet/lipgloss"
)

// Sources names the files the dashboard reads.
type Sources struct {
	Data        string
	SARIMA      string
	HoltWinters string
}

// Options configures NewApp. Zero fields fall back to defaults.
type Options struct {
	Sources     Sources
	Loader      *pipeline.Loader
	Registry    *forecast.Registry
	Periods     int
	Confidence  float64
	NotebookURL string
}

// DataLoadedMsg is sent when the transaction file and both models have been
// loaded. Each source fails independently.
type DataLoadedMsg struct {
	Data      *pipeline.CachedLoadResult
	DataErr   error
	SARIMA    forecast.Model
	SARIMAErr error
	HW        forecast.Model
	HWErr     error
	LoadTime  time.Duration
}

// ForecastDoneMsg carries the result of a forecast run.
type ForecastDoneMsg struct {
	Periods  int
	Outcomes []forecast.Outcome
	Combined *forecast.Combined
}

const (
	tabOverview = iota
	tabAnalysis
	tabForecast
)

type forecastState struct {
	periods int
	running bool
	result  *ForecastDoneMsg
}

// App is the root Bubble Tea model.
type App struct {
	opts Options

	// Data
	data      *pipeline.CachedLoadResult
	dataErr   error
	sarima    forecast.Model
	sarimaErr error
	hw        forecast.Model
	hwErr     error
	stats     pipeline.SeriesStats
	loaded    bool
	loadTime  time.Duration

	// UI state
	width     int
	height    int
	activeTab int
	showHelp  bool

	fc forecastState

	// First-run setup (huh form)
	setupForm *huh.Form
	setupVals *SetupValues
	needSetup bool

	spinner spinner.Model
}

const (
	minTerminalWidth = 80
	compactWidth     = 120
	maxContentWidth  = 180

	minContentHeight = 5
	busiestDaysShown = 5
)

// NewApp creates a new TUI app model.
func NewApp(opts Options) App {
	if opts.Loader == nil {
		opts.Loader = pipeline.NewLoader("")
	}
	if opts.Registry == nil {
		opts.Registry = forecast.NewRegistry()
	}
	if opts.Periods == 0 {
		opts.Periods = forecast.DefaultPeriods
	}
	if opts.Confidence <= 0 || opts.Confidence >= 1 {
		opts.Confidence = forecast.DefaultConfidence
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(theme.Active.Accent).Background(theme.Active.Surface)

	return App{
		opts:      opts,
		needSetup: !config.Exists(),
		fc:        forecastState{periods: forecast.ClampPeriods(opts.Periods)},
		spinner:   sp,
	}
}

// Init implements tea.Model.
func (a App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnableMouseCellMotion,
		loadDataCmd(a.opts),
		a.spinner.Tick,
	)
}

// Update implements tea.Model.
func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {

	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		if a.setupForm != nil {
			a.setupForm = a.setupForm.WithWidth(msg.Width).WithHeight(msg.Height)
		}
		return a, nil

	case tea.MouseMsg:
		if !a.loaded || a.showHelp || (a.needSetup && a.setupForm != nil) {
			return a, nil
		}
		if msg.Action != tea.MouseActionPress {
			return a, nil
		}

		switch msg.Button {
		case tea.MouseButtonWheelUp:
			if a.activeTab == tabForecast {
				a.fc.periods = forecast.ClampPeriods(a.fc.periods + 1)
			}
		case tea.MouseButtonWheelDown:
			if a.activeTab == tabForecast {
				a.fc.periods = forecast.ClampPeriods(a.fc.periods - 1)
			}
		case tea.MouseButtonLeft:
			if msg.Y == 0 {
				if tab := a.tabAtX(msg.X); tab >= 0 {
					a.activeTab = tab
				}
			}
		}
		return a, nil

	case tea.KeyMsg:
		key := msg.String()

		if key == "ctrl+c" {
			return a, tea.Quit
		}

		if !a.loaded {
			return a, nil
		}

		// First-run setup wizard intercepts all keys
		if a.needSetup && a.setupForm != nil {
			return a.updateSetupForm(msg)
		}

		if key == "?" {
			a.showHelp = !a.showHelp
			return a, nil
		}
		if a.showHelp {
			a.showHelp = false
			return a, nil
		}

		if a.activeTab == tabForecast {
			switch key {
			case "h", "-", "down":
				a.fc.periods = forecast.ClampPeriods(a.fc.periods - 1)
				return a, nil
			case "l", "+", "=", "up":
				a.fc.periods = forecast.ClampPeriods(a.fc.periods + 1)
				return a, nil
			case "enter", "r":
				if a.fc.running {
					return a, nil
				}
				a.fc.running = true
				return a, runForecastCmd(a.models(), a.fc.periods, a.opts.Confidence)
			}
		}

		switch key {
		case "q":
			return a, tea.Quit
		case "left":
			a.activeTab = (a.activeTab - 1 + len(components.Tabs)) % len(components.Tabs)
		case "right", "tab":
			a.activeTab = (a.activeTab + 1) % len(components.Tabs)
		default:
			if idx := components.TabIdxByKey(key); idx >= 0 {
				a.activeTab = idx
			}
		}
		return a, nil

	case DataLoadedMsg:
		a.applyData(msg)

		if a.needSetup && a.setupForm == nil {
			// The form writes through this pointer from later App copies.
			vals := SetupValuesFrom(loadConfigOrDefault())
			vals.Discover(".")
			a.setupVals = &vals
			a.setupForm = NewSetupForm(a.setupVals)
			if a.width > 0 {
				a.setupForm = a.setupForm.WithWidth(a.width).WithHeight(a.height)
			}
			return a, a.setupForm.Init()
		}
		return a, nil

	case ForecastDoneMsg:
		a.fc.running = false
		a.fc.result = &msg
		return a, nil

	case spinner.TickMsg:
		if !a.loaded {
			var cmd tea.Cmd
			a.spinner, cmd = a.spinner.Update(msg)
			return a, cmd
		}
		return a, nil
	}

	// Forward unhandled messages to the setup form (cursor blinks, etc.)
	if a.needSetup && a.setupForm != nil {
		return a.updateSetupForm(msg)
	}

	return a, nil
}

func (a *App) applyData(msg DataLoadedMsg) {
	a.data, a.dataErr = msg.Data, msg.DataErr
	a.sarima, a.sarimaErr = msg.SARIMA, msg.SARIMAErr
	a.hw, a.hwErr = msg.HW, msg.HWErr
	a.loadTime = msg.LoadTime
	a.loaded = true

	a.stats = pipeline.SeriesStats{}
	if a.data != nil {
		a.stats = pipeline.Describe(a.data.Daily, a.data.Monthly, busiestDaysShown)
	}
	// A previous run no longer matches the reloaded models.
	a.fc.result = nil
}

// models returns the loaded models in display order, skipping absent ones.
func (a App) models() []forecast.Model {
	var out []forecast.Model
	if a.sarima != nil {
		out = append(out, a.sarima)
	}
	if a.hw != nil {
		out = append(out, a.hw)
	}
	return out
}

func (a App) updateSetupForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	form, cmd := a.setupForm.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		a.setupForm = f
	}

	switch a.setupForm.State {
	case huh.StateCompleted:
		cfg := loadConfigOrDefault()
		a.setupVals.Apply(&cfg)
		a.setupVals = nil
		if err := config.Save(cfg); err != nil {
			logx.Log.Warningf("saving config: %v", err)
		}
		theme.SetActive(cfg.Appearance.Theme)
		a.fc.periods = forecast.ClampPeriods(cfg.Forecast.DefaultPeriods)
		a.needSetup = false
		a.setupForm = nil

		next := Sources{
			Data:        cfg.Data.Transactions,
			SARIMA:      cfg.Data.SARIMAModel,
			HoltWinters: cfg.Data.HoltWintersModel,
		}
		if next != a.opts.Sources {
			a.opts.Sources = next
			a.loaded = false
			return a, tea.Batch(loadDataCmd(a.opts), a.spinner.Tick)
		}
		return a, nil

	case huh.StateAborted:
		a.needSetup = false
		a.setupForm = nil
		a.setupVals = nil
		return a, nil
	}

	return a, cmd
}

func (a App) contentWidth() int {
	return min(a.width, maxContentWidth)
}

func (a App) isCompactLayout() bool {
	return a.contentWidth() < compactWidth
}

// View implements tea.Model.
func (a App) View() string {
	if a.width == 0 {
		return ""
	}

	if a.width < minTerminalWidth {
		return a.viewTooNarrow()
	}

	if !a.loaded {
		return a.viewLoading()
	}

	if a.needSetup && a.setupForm != nil {
		return a.setupForm.View()
	}

	if a.showHelp {
		return a.viewHelp()
	}

	return a.viewMain()
}

func (a App) viewTooNarrow() string {
	h := max(5, a.height)
	msg := fmt.Sprintf(
		"\n  Terminal too narrow (%d cols)\n\n  salescast needs at least %d columns.\n",
		a.width,
		minTerminalWidth,
	)
	return padHeight(truncateHeight(msg, h), h)
}

func (a App) viewLoading() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(2, 4)
	logoStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	subtitleStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	spinnerStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface)

	var b strings.Builder
	b.WriteString(logoStyle.Render("◈ salescast"))
	b.WriteString(subtitleStyle.Render(" · Sales Forecasting"))
	b.WriteString("\n\n")
	b.WriteString(spinnerStyle.Render(a.spinner.View()))
	b.WriteString(subtitleStyle.Render(" Loading " + a.opts.Sources.Data + " and models..."))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewHelp() string {
	t := theme.Active

	cardStyle := lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(t.BorderAccent).
		Background(t.Surface).
		Padding(1, 3)
	titleStyle := lipgloss.NewStyle().Foreground(t.AccentBright).Background(t.Surface).Bold(true)
	sectionStyle := lipgloss.NewStyle().Foreground(t.Accent).Background(t.Surface).Bold(true)
	keyStyle := lipgloss.NewStyle().Foreground(t.Cyan).Background(t.Surface).Bold(true)
	descStyle := lipgloss.NewStyle().Foreground(t.TextMuted).Background(t.Surface)
	dimStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)

	sections := []struct {
		title    string
		bindings []struct{ key, desc string }
	}{
		{"Navigation", []struct{ key, desc string }{
			{"o a f", "Jump to page"},
			{"← →", "Previous / Next page"},
			{"click", "Select page from the tab bar"},
		}},
		{"Forecast", []struct{ key, desc string }{
			{"h l", "Shorter / Longer horizon"},
			{"- +", "Shorter / Longer horizon"},
			{"Enter r", "Run forecast"},
		}},
		{"General", []struct{ key, desc string }{
			{"?", "Toggle help"},
			{"q", "Quit"},
		}},
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("◈ Keyboard Shortcuts"))
	b.WriteString("\n")
	for _, sec := range sections {
		b.WriteString("\n")
		b.WriteString(sectionStyle.Render(sec.title))
		b.WriteString("\n")
		for _, bind := range sec.bindings {
			fmt.Fprintf(&b, "  %s  %s\n",
				keyStyle.Render(fmt.Sprintf("%-10s", bind.key)),
				descStyle.Render(bind.desc))
		}
	}
	b.WriteString("\n")
	b.WriteString(dimStyle.Render("Press any key to close"))

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, cardStyle.Render(b.String()),
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) viewMain() string {
	t := theme.Active
	w := a.width
	cw := a.contentWidth()
	h := a.height

	// 1. Header: tab bar plus the data file in use
	pathStyle := lipgloss.NewStyle().Foreground(t.TextDim).Background(t.Surface)
	header := components.RenderTabBar(a.activeTab, w) + "\n" +
		lipgloss.NewStyle().Background(t.Surface).Width(w).
			Render(pathStyle.Render(" "+a.opts.Sources.Data))

	// 2. Status bar
	var summary model.DataSummary
	if a.data != nil {
		summary = a.data.Summary
	}
	statusBar := components.RenderStatusBar(w, a.statusHints(), footerText(summary))

	// 3. Content zone height
	contentH := max(minContentHeight, h-lipgloss.Height(header)-lipgloss.Height(statusBar))

	// 4. Active page
	var content string
	switch a.activeTab {
	case tabOverview:
		content = a.renderOverviewTab(cw)
	case tabAnalysis:
		content = a.renderAnalysisTab(cw)
	case tabForecast:
		content = a.renderForecastTab(cw)
	}

	// 5. Truncate + pad to exactly contentH lines, fill, and centre
	content = padHeight(truncateHeight(content, contentH), contentH)
	content = fillLinesWithBackground(content, cw, t.Background)
	content = lipgloss.Place(w, contentH, lipgloss.Center, lipgloss.Top, content,
		lipgloss.WithWhitespaceBackground(t.Background))

	output := lipgloss.JoinVertical(lipgloss.Left, header, content, statusBar)
	return lipgloss.Place(w, h, lipgloss.Left, lipgloss.Top, output,
		lipgloss.WithWhitespaceBackground(t.Background))
}

func (a App) statusHints() string {
	hints := "[o/a/f] pages  [?] help  [q] quit"
	if a.activeTab == tabForecast {
		hints = "[h/l] horizon  [enter] run  " + hints
	}
	return hints
}

// footerText summarises the loaded data as "N transactions · YYYY-MM – YYYY-MM".
// It is empty when nothing was loaded.
func footerText(s model.DataSummary) string {
	if s.Empty() {
		return ""
	}
	return fmt.Sprintf("%s transactions · %s",
		cli.FormatNumber(int64(s.Records)), cli.FormatPeriod(s.FirstDate, s.LastDate))
}

// ─── Commands ───────────────────────────────────────────────────

// loadDataCmd loads the transaction file and both models concurrently.
func loadDataCmd(opts Options) tea.Cmd {
	return func() tea.Msg {
		start := time.Now()
		var (
			msg DataLoadedMsg
			wg  sync.WaitGroup
		)
		wg.Add(3)
		go func() {
			defer wg.Done()
			msg.Data, msg.DataErr = opts.Loader.Load(opts.Sources.Data)
		}()
		go func() {
			defer wg.Done()
			msg.SARIMA, msg.SARIMAErr = opts.Registry.Load(opts.Sources.SARIMA)
		}()
		go func() {
			defer wg.Done()
			msg.HW, msg.HWErr = opts.Registry.Load(opts.Sources.HoltWinters)
		}()
		wg.Wait()

		msg.LoadTime = time.Since(start)
		for _, err := range []error{msg.DataErr, msg.SARIMAErr, msg.HWErr} {
			if err != nil {
				logx.Log.Warning(err)
			}
		}
		return msg
	}
}

// runForecastCmd forecasts periods months with every model and merges the
// results.
func runForecastCmd(models []forecast.Model, periods int, confidence float64) tea.Cmd {
	return func() tea.Msg {
		outcomes := forecast.Run(models, periods, confidence)
		for _, o := range outcomes {
			if o.Err != nil {
				logx.Log.Warning(o.Err)
			}
		}
		return ForecastDoneMsg{
			Periods:  periods,
			Outcomes: outcomes,
			Combined: forecast.Merge(outcomes),
		}
	}
}

// ─── Helpers ────────────────────────────────────────────────────

// loadConfigOrDefault loads config, returning defaults on error.
func loadConfigOrDefault() config.Config {
	cfg, err := config.Load()
	if err != nil {
		logx.Log.Warningf("loading config: %v", err)
		return config.DefaultConfig()
	}
	return cfg
}

func truncStr(s string, limit int) string {
	runes := []rune(s)
	if limit <= 0 {
		return ""
	}
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

func truncateHeight(s string, limit int) string {
	lines := strings.Split(s, "\n")
	if len(lines) <= limit {
		return s
	}
	return strings.Join(lines[:limit], "\n")
}

func padHeight(s string, h int) string {
	lines := strings.Split(s, "\n")
	if len(lines) >= h {
		return s
	}
	return s + strings.Repeat("\n", h-len(lines))
}

// fillLinesWithBackground pads each line to width w with background color.
func fillLinesWithBackground(s string, w int, bg lipgloss.Color) string {
	lines := strings.Split(s, "\n")
	for i, line := range lines {
		lines[i] = lipgloss.PlaceHorizontal(w, lipgloss.Left, line,
			lipgloss.WithWhitespaceBackground(bg))
	}
	return strings.Join(lines, "\n")
}

// ─── Mouse Support ──────────────────────────────────────────────

// tabAtX returns the tab index at the given X coordinate, or -1 if none.
// Hitboxes are derived from the same width rules used by RenderTabBar.
func (a App) tabAtX(x int) int {
	pos := 0
	for i, tab := range components.Tabs {
		tabW := components.TabVisualWidth(tab, i == a.activeTab)
		if x >= pos && x < pos+tabW {
			return i
		}
		pos += tabW

		// Separator is one column between tabs.
		if i < len(components.Tabs)-1 {
			pos++
		}
	}
	return -1
}
