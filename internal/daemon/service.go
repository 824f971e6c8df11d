// Package daemon provides the long-running HTTP service: it serves the
// analysis and forecast data as JSON and watches the input files for changes.
package daemon

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/theirongolddev/salescast/internal/forecast"
	"github.com/theirongolddev/salescast/internal/logx"
	"github.com/theirongolddev/salescast/internal/pipeline"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
)

// Config controls the daemon runtime behavior.
type Config struct {
	DataFile    string
	SARIMAModel string
	HWModel     string
	Confidence  float64

	Interval     time.Duration
	Addr         string
	EventsBuffer int
}

// Snapshot is a compact data state for status/event payloads.
type Snapshot struct {
	At        time.Time `json:"at"`
	Records   int       `json:"records"`
	FirstDate string    `json:"first_date,omitempty"`
	LastDate  string    `json:"last_date,omitempty"`
	Months    int       `json:"months"`
	TotalQty  float64   `json:"total_qty"`
}

// Delta captures snapshot changes between loads.
type Delta struct {
	Records  int     `json:"records"`
	Months   int     `json:"months"`
	TotalQty float64 `json:"total_qty"`
}

func (d Delta) isZero() bool {
	return d.Records == 0 && d.Months == 0 && d.TotalQty == 0
}

// Event types.
const (
	EventSnapshot     = "snapshot"
	EventDataChanged  = "data_changed"
	EventModelChanged = "model_changed"
	EventLoadError    = "load_error"
)

// Event is emitted whenever a watched file changes.
type Event struct {
	ID        int64     `json:"id"`
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path,omitempty"`
	Snapshot  Snapshot  `json:"snapshot"`
	Delta     Delta     `json:"delta"`
	Error     string    `json:"error,omitempty"`
}

// Status is served at /v1/status.
type Status struct {
	InstanceID      string    `json:"instance_id"`
	StartedAt       time.Time `json:"started_at"`
	LastPollAt      time.Time `json:"last_poll_at"`
	PollIntervalSec int       `json:"poll_interval_sec"`
	PollCount       int64     `json:"poll_count"`
	DataFile        string    `json:"data_file"`
	SARIMAModel     string    `json:"sarima_model"`
	HWModel         string    `json:"holtwinters_model"`
	Summary         Snapshot  `json:"summary"`
	DataCached      bool      `json:"data_cached"`
	ModelsLoaded    int       `json:"models_loaded"`
	LastError       string    `json:"last_error,omitempty"`
	EventCount      int       `json:"event_count"`
	SubscriberCount int       `json:"subscriber_count"`
}

// fileStamp identifies one version of a watched file.
type fileStamp struct {
	mtimeNs int64
	size    int64
	missing bool
}

func stampOf(path string) fileStamp {
	info, err := os.Stat(path)
	if err != nil {
		return fileStamp{missing: true}
	}
	return fileStamp{mtimeNs: info.ModTime().UnixNano(), size: info.Size()}
}

// Service provides the daemon runtime and HTTP API.
type Service struct {
	cfg      Config
	loader   *pipeline.Loader
	registry *forecast.Registry
	app      *fiber.App
	done     chan struct{}

	// instanceID changes on every start; event IDs restart with it.
	instanceID string

	mu          sync.RWMutex
	startedAt   time.Time
	lastPollAt  time.Time
	pollCount   int64
	lastError   string
	hasSnapshot bool
	snapshot    Snapshot
	stamps      map[string]fileStamp
	nextEventID int64
	events      []Event

	nextSubID int
	subs      map[int]chan Event
}

// New returns a new daemon service with the provided config. loader and
// registry may be shared with other parts of the process.
func New(cfg Config, loader *pipeline.Loader, registry *forecast.Registry) *Service {
	if cfg.Interval < 2*time.Second {
		cfg.Interval = 10 * time.Second
	}
	if cfg.EventsBuffer < 1 {
		cfg.EventsBuffer = 200
	}
	if cfg.Addr == "" {
		cfg.Addr = "127.0.0.1:8787"
	}
	if cfg.Confidence <= 0 || cfg.Confidence >= 1 {
		cfg.Confidence = forecast.DefaultConfidence
	}
	if loader == nil {
		loader = pipeline.NewLoader("")
	}
	if registry == nil {
		registry = forecast.NewRegistry()
	}

	s := &Service{
		cfg:        cfg,
		instanceID: uuid.NewString(),
		loader:     loader,
		registry:   registry,
		done:       make(chan struct{}),
		startedAt:  time.Now(),
		stamps:     make(map[string]fileStamp),
		subs:       make(map[int]chan Event),
	}
	s.app = s.routes()
	return s
}

// App returns the HTTP handler tree.
func (s *Service) App() *fiber.App {
	return s.app
}

// Run starts HTTP endpoints and polling until ctx is canceled.
func (s *Service) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		if err := s.app.Listen(s.cfg.Addr); err != nil {
			errCh <- err
		}
	}()
	logx.Log.Infof("serving on http://%s", s.cfg.Addr)

	// Seed initial snapshot so status is useful immediately.
	s.pollOnce()

	ticker := time.NewTicker(s.cfg.Interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			close(s.done)
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			return s.app.ShutdownWithContext(shutdownCtx)
		case <-ticker.C:
			s.pollOnce()
		case err := <-errCh:
			return fmt.Errorf("daemon http server: %w", err)
		}
	}
}

// pollOnce checks the watched files and reloads whatever changed.
func (s *Service) pollOnce() {
	now := time.Now()
	var events []Event

	for _, path := range []string{s.cfg.SARIMAModel, s.cfg.HWModel} {
		if s.changed(path) {
			s.registry.Invalidate(path)
			if _, err := s.registry.Load(path); err != nil {
				logx.Log.Warningf("reloading model %s: %v", path, err)
				events = append(events, Event{Type: EventLoadError, Path: path, Error: err.Error()})
				continue
			}
			events = append(events, Event{Type: EventModelChanged, Path: path})
		}
	}

	dataChanged := s.changed(s.cfg.DataFile)
	if dataChanged {
		s.loader.Invalidate(s.cfg.DataFile)
	}
	res, err := s.loader.Load(s.cfg.DataFile)

	s.mu.Lock()
	s.lastPollAt = now
	s.pollCount++
	switch {
	case err != nil:
		if s.lastError != err.Error() {
			events = append(events, Event{Type: EventLoadError, Path: s.cfg.DataFile, Error: err.Error()})
		}
		s.lastError = err.Error()
		s.hasSnapshot = false
		s.snapshot = Snapshot{At: now}
	case !s.hasSnapshot:
		s.lastError = ""
		s.hasSnapshot = true
		s.snapshot = snapshotOf(res, now)
		events = append(events, Event{Type: EventSnapshot, Path: s.cfg.DataFile})
	case dataChanged:
		s.lastError = ""
		prev := s.snapshot
		s.snapshot = snapshotOf(res, now)
		if delta := diffSnapshots(prev, s.snapshot); !delta.isZero() {
			events = append(events, Event{Type: EventDataChanged, Path: s.cfg.DataFile, Delta: delta})
		}
	}
	snap := s.snapshot
	for i := range events {
		s.nextEventID++
		events[i].ID = s.nextEventID
		events[i].Timestamp = now
		events[i].Snapshot = snap
	}
	s.mu.Unlock()

	for _, ev := range events {
		logx.Log.Infof("event %d: %s %s", ev.ID, ev.Type, ev.Path)
		s.publishEvent(ev)
	}
}

// changed records the current stamp of path and reports whether it differs
// from the previous poll. The first observation counts as unchanged.
func (s *Service) changed(path string) bool {
	stamp := stampOf(path)
	s.mu.Lock()
	defer s.mu.Unlock()
	prev, seen := s.stamps[path]
	s.stamps[path] = stamp
	return seen && prev != stamp
}

func snapshotOf(res *pipeline.CachedLoadResult, at time.Time) Snapshot {
	snap := Snapshot{
		At:       at,
		Records:  res.Summary.Records,
		Months:   len(res.Monthly),
		TotalQty: res.Summary.TotalQty,
	}
	if !res.Summary.Empty() {
		snap.FirstDate = res.Summary.FirstDate.Format(time.DateOnly)
		snap.LastDate = res.Summary.LastDate.Format(time.DateOnly)
	}
	return snap
}

func diffSnapshots(prev, curr Snapshot) Delta {
	return Delta{
		Records:  curr.Records - prev.Records,
		Months:   curr.Months - prev.Months,
		TotalQty: curr.TotalQty - prev.TotalQty,
	}
}

func (s *Service) publishEvent(ev Event) {
	s.mu.Lock()
	s.events = append(s.events, ev)
	if len(s.events) > s.cfg.EventsBuffer {
		s.events = s.events[len(s.events)-s.cfg.EventsBuffer:]
	}

	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
	s.mu.Unlock()
}

func (s *Service) snapshotStatus() Status {
	_, cached := s.loader.Cached(s.cfg.DataFile)
	models := s.registry.Len()

	s.mu.RLock()
	defer s.mu.RUnlock()

	return Status{
		InstanceID:      s.instanceID,
		StartedAt:       s.startedAt,
		LastPollAt:      s.lastPollAt,
		PollIntervalSec: int(s.cfg.Interval.Seconds()),
		PollCount:       s.pollCount,
		DataFile:        s.cfg.DataFile,
		SARIMAModel:     s.cfg.SARIMAModel,
		HWModel:         s.cfg.HWModel,
		Summary:         s.snapshot,
		DataCached:      cached,
		ModelsLoaded:    models,
		LastError:       s.lastError,
		EventCount:      len(s.events),
		SubscriberCount: len(s.subs),
	}
}

func (s *Service) addSubscriber(ch chan Event) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSubID++
	id := s.nextSubID
	s.subs[id] = ch
	return id
}

func (s *Service) removeSubscriber(id int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.subs, id)
}

// models loads both models, returning those that loaded and the errors of
// those that did not.
func (s *Service) models() ([]forecast.Model, error) {
	var (
		out  []forecast.Model
		errs []error
	)
	for _, path := range []string{s.cfg.SARIMAModel, s.cfg.HWModel} {
		m, err := s.registry.Load(path)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		out = append(out, m)
	}
	return out, errors.Join(errs...)
}
