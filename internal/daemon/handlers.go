package daemon

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/theirongolddev/salescast/internal/forecast"
	"github.com/theirongolddev/salescast/internal/model"

	"github.com/gofiber/fiber/v2"
)

func (s *Service) routes() *fiber.App {
	app := fiber.New(fiber.Config{
		AppName:               "salescast",
		DisableStartupMessage: true,
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			code := fiber.StatusInternalServerError
			var fe *fiber.Error
			if errors.As(err, &fe) {
				code = fe.Code
			}
			return c.Status(code).JSON(fiber.Map{"error": err.Error()})
		},
	})

	app.Get("/healthz", s.handleHealth)
	v1 := app.Group("/v1")
	v1.Get("/status", s.handleStatus)
	v1.Get("/events", s.handleEvents)
	v1.Get("/stream", s.handleStream)
	v1.Get("/data", s.handleData)
	v1.Get("/analysis", s.handleAnalysis)
	v1.Get("/forecast", s.handleForecast)
	return app
}

type monthValue struct {
	Month model.Month `json:"month"`
	Value float64     `json:"value"`
}

func toMonthValues(vs []model.MonthlyValue) []monthValue {
	out := make([]monthValue, len(vs))
	for i, v := range vs {
		out[i] = monthValue{Month: v.Month, Value: v.Value}
	}
	return out
}

func monthlyQty(ms []model.MonthlyQty) []monthValue {
	out := make([]monthValue, len(ms))
	for i, m := range ms {
		out[i] = monthValue{Month: m.Month, Value: m.Qty}
	}
	return out
}

type metricJSON struct {
	Key       string   `json:"key"`
	Label     string   `json:"label"`
	Value     *float64 `json:"value"`
	Available bool     `json:"available"`
}

type modelJSON struct {
	Kind        forecast.Kind `json:"kind"`
	Name        string        `json:"name"`
	Description string        `json:"description"`
	Metrics     []metricJSON  `json:"metrics"`
	Fitted      []monthValue  `json:"fitted"`
}

type forecastRowJSON struct {
	Month  model.Month            `json:"month"`
	Values map[model.Column]int64 `json:"values"`
}

func (s *Service) handleHealth(c *fiber.Ctx) error {
	return c.SendString("ok\n")
}

func (s *Service) handleStatus(c *fiber.Ctx) error {
	return c.JSON(s.snapshotStatus())
}

func (s *Service) handleEvents(c *fiber.Ctx) error {
	s.mu.RLock()
	events := make([]Event, len(s.events))
	copy(events, s.events)
	s.mu.RUnlock()

	return c.JSON(events)
}

func (s *Service) handleData(c *fiber.Ctx) error {
	res, err := s.loader.Load(s.cfg.DataFile)
	if err != nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}
	return c.JSON(fiber.Map{
		"path":     s.cfg.DataFile,
		"snapshot": snapshotOf(res, time.Now()),
		"monthly":  monthlyQty(res.Monthly),
	})
}

func (s *Service) handleAnalysis(c *fiber.Ctx) error {
	res, dataErr := s.loader.Load(s.cfg.DataFile)
	models, modelErr := s.models()
	if err := errors.Join(dataErr, modelErr); err != nil {
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	}
	if len(res.Monthly) == 0 {
		return fiber.NewError(fiber.StatusServiceUnavailable, "no monthly sales series")
	}

	out := make([]modelJSON, 0, len(models))
	for _, m := range models {
		mj := modelJSON{
			Kind:        m.Kind(),
			Name:        m.Name(),
			Description: m.Describe(),
			Fitted:      toMonthValues(m.Fitted()),
		}
		for _, mt := range m.Metrics() {
			j := metricJSON{Key: mt.Key, Label: mt.Label, Available: mt.Available}
			if mt.Available {
				v := mt.Value
				j.Value = &v
			}
			mj.Metrics = append(mj.Metrics, j)
		}
		out = append(out, mj)
	}

	return c.JSON(fiber.Map{
		"actual": monthlyQty(res.Monthly),
		"models": out,
	})
}

func (s *Service) handleForecast(c *fiber.Ctx) error {
	periods := forecast.DefaultPeriods
	if raw := c.Query("periods"); raw != "" {
		p, err := strconv.Atoi(raw)
		if err != nil {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("periods must be an integer, got %q", raw))
		}
		periods = p
	}
	if err := forecast.ValidatePeriods(periods); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	confidence := s.cfg.Confidence
	if raw := c.Query("confidence"); raw != "" {
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v <= 0 || v >= 1 {
			return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("confidence must be in (0, 1), got %q", raw))
		}
		confidence = v
	}

	models, loadErr := s.models()
	if len(models) == 0 {
		return fiber.NewError(fiber.StatusServiceUnavailable, loadErr.Error())
	}

	combined := forecast.Merge(forecast.Run(models, periods, confidence))
	rows := make([]forecastRowJSON, len(combined.Rows))
	for i, r := range combined.Rows {
		rows[i] = forecastRowJSON{Month: r.Month, Values: r.Values}
	}
	errs := make([]string, 0, len(combined.Errors)+1)
	if loadErr != nil {
		errs = append(errs, loadErr.Error())
	}
	for _, err := range combined.Errors {
		errs = append(errs, err.Error())
	}

	return c.JSON(fiber.Map{
		"periods":    periods,
		"confidence": confidence,
		"columns":    combined.Columns,
		"rows":       rows,
		"errors":     errs,
	})
}

func (s *Service) handleStream(c *fiber.Ctx) error {
	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")

	ch := make(chan Event, 16)
	id := s.addSubscriber(ch)

	// Send current snapshot immediately.
	current := Event{
		Type:      EventSnapshot,
		Timestamp: time.Now(),
		Snapshot:  s.snapshotStatus().Summary,
	}

	c.Context().SetBodyStreamWriter(func(w *bufio.Writer) {
		defer s.removeSubscriber(id)
		if writeSSE(w, current) != nil {
			return
		}
		streamEvents(w, ch, s.done, sseKeepAlive)
	})
	return nil
}

// sseKeepAlive is how often an idle stream sends a comment line.
const sseKeepAlive = 15 * time.Second

// streamEvents copies events to w until done closes or a write fails. Idle
// streams get a comment every keepAlive, so a departed client is noticed
// without waiting for the next event.
func streamEvents(w *bufio.Writer, ch <-chan Event, done <-chan struct{}, keepAlive time.Duration) {
	ticker := time.NewTicker(keepAlive)
	defer ticker.Stop()

	for {
		select {
		case <-done:
			return
		case <-ticker.C:
			if _, err := w.WriteString(": ping\n\n"); err != nil {
				return
			}
			if w.Flush() != nil {
				return
			}
		case ev := <-ch:
			// A failed flush means the client went away.
			if writeSSE(w, ev) != nil {
				return
			}
		}
	}
}

func writeSSE(w *bufio.Writer, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "event: %s\ndata: %s\n\n", ev.Type, data); err != nil {
		return err
	}
	return w.Flush()
}
