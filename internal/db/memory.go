package db

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"stock-signals/internal/prediction"
	"stock-signals/internal/series"
)

var _ Storage = (*MemoryStorage)(nil)

// MemoryStorage is an in-memory Storage. It mirrors the Postgres
// behavior, including write-once outcomes and duplicate prediction
// handling, so tests and dry runs can swap it in unchanged.
type MemoryStorage struct {
	mu sync.RWMutex

	prices      map[string]map[int64]series.Point
	predictions []prediction.Record
	nextID      int64
	triggers    []prediction.Trigger
	snapshots   map[int64]map[string]prediction.StrategyPerformance
	latestAsOf  int64
	events      []Event
	nextEventID int64
}

func NewMemoryStorage() *MemoryStorage {
	return &MemoryStorage{
		prices:      make(map[string]map[int64]series.Point),
		nextID:      1,
		snapshots:   make(map[int64]map[string]prediction.StrategyPerformance),
		nextEventID: 1,
	}
}

func (m *MemoryStorage) SavePricePoints(_ context.Context, symbol string, points []series.Point) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	for i := range points {
		if err := points[i].Validate(); err != nil {
			return fmt.Errorf("invalid point at index %d for %s: %w", i, symbol, err)
		}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	bars, ok := m.prices[symbol]
	if !ok {
		bars = make(map[int64]series.Point)
		m.prices[symbol] = bars
	}
	for _, pt := range points {
		bars[pt.Date.UnixNano()] = pt
	}
	return nil
}

func (m *MemoryStorage) PriceSeries(_ context.Context, symbol string, from, to time.Time) (*series.Series, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var points []series.Point
	for _, pt := range m.prices[symbol] {
		if !pt.Date.Before(from) && !pt.Date.After(to) {
			points = append(points, pt)
		}
	}
	return series.New(symbol, points), nil
}

func (m *MemoryStorage) LatestPriceDate(_ context.Context, symbol string) (time.Time, bool, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var latest time.Time
	found := false
	for _, pt := range m.prices[symbol] {
		if !found || pt.Date.After(latest) {
			latest = pt.Date
			found = true
		}
	}
	return latest, found, nil
}

func (m *MemoryStorage) SavePrediction(_ context.Context, r *prediction.Record) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("invalid prediction for %s: %w", r.Symbol, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.predictions {
		p := &m.predictions[i]
		if p.Symbol == r.Symbol && p.DateIssued.Equal(r.DateIssued) && p.Action == r.Action {
			// Duplicate issue; keep the original row.
			r.ID = p.ID
			return nil
		}
	}
	r.ID = m.nextID
	m.nextID++
	m.predictions = append(m.predictions, copyRecord(*r))
	return nil
}

func (m *MemoryStorage) PendingPredictions(_ context.Context, issuedBefore time.Time) ([]prediction.Record, error) {
	return m.selectPredictions(func(r *prediction.Record) bool {
		return !r.Resolved() && r.DateIssued.Before(issuedBefore)
	}), nil
}

func (m *MemoryStorage) PredictionsSince(_ context.Context, since time.Time) ([]prediction.Record, error) {
	return m.selectPredictions(func(r *prediction.Record) bool {
		return !r.DateIssued.Before(since)
	}), nil
}

func (m *MemoryStorage) ResolvedPredictions(_ context.Context) ([]prediction.Record, error) {
	return m.selectPredictions((*prediction.Record).Resolved), nil
}

func (m *MemoryStorage) selectPredictions(keep func(*prediction.Record) bool) []prediction.Record {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []prediction.Record
	for i := range m.predictions {
		if keep(&m.predictions[i]) {
			out = append(out, copyRecord(m.predictions[i]))
		}
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].DateIssued.Before(out[j].DateIssued)
	})
	return out
}

func (m *MemoryStorage) UpdateOutcome(_ context.Context, r *prediction.Record) error {
	if !r.Resolved() {
		return fmt.Errorf("prediction %d for %s has no outcome to record", r.ID, r.Symbol)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.predictions {
		p := &m.predictions[i]
		if p.ID != r.ID {
			continue
		}
		if p.Resolved() {
			return fmt.Errorf("prediction %d is missing or already resolved", r.ID)
		}
		*p = copyRecord(*r)
		return nil
	}
	return fmt.Errorf("prediction %d is missing or already resolved", r.ID)
}

func (m *MemoryStorage) SaveTriggers(_ context.Context, triggers []prediction.Trigger) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, t := range triggers {
		t.StrategyBacking = append([]string(nil), t.StrategyBacking...)
		m.triggers = append(m.triggers, t)
	}
	return nil
}

func (m *MemoryStorage) DeactivateTriggers(_ context.Context, before time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.triggers {
		if m.triggers[i].Active && m.triggers[i].DateCreated.Before(before) {
			m.triggers[i].Active = false
		}
	}
	return nil
}

func (m *MemoryStorage) ActiveTriggers(_ context.Context) ([]prediction.Trigger, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []prediction.Trigger
	for _, t := range m.triggers {
		if t.Active {
			t.StrategyBacking = append([]string(nil), t.StrategyBacking...)
			out = append(out, t)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].Symbol < out[j].Symbol
	})
	return out, nil
}

func (m *MemoryStorage) SavePerformanceSnapshots(_ context.Context, asOf time.Time, perf map[string]*prediction.StrategyPerformance) error {
	if len(perf) == 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	key := asOf.UnixNano()
	snap, ok := m.snapshots[key]
	if !ok {
		snap = make(map[string]prediction.StrategyPerformance)
		m.snapshots[key] = snap
	}
	for name, sp := range perf {
		snap[name] = *sp
	}
	if key > m.latestAsOf {
		m.latestAsOf = key
	}
	return nil
}

func (m *MemoryStorage) LatestPerformanceSnapshots(_ context.Context) (map[string]*prediction.StrategyPerformance, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	out := make(map[string]*prediction.StrategyPerformance)
	for name, sp := range m.snapshots[m.latestAsOf] {
		cp := sp
		out[name] = &cp
	}
	return out, nil
}

func (m *MemoryStorage) LogEvent(_ context.Context, e Event) error {
	if e.Type == "" {
		return fmt.Errorf("event type cannot be empty")
	}
	if e.Time.IsZero() {
		e.Time = time.Now().UTC()
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	e.ID = m.nextEventID
	m.nextEventID++
	m.events = append(m.events, e)
	return nil
}

func (m *MemoryStorage) Events(_ context.Context, eventType string, start, end time.Time) ([]Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var out []Event
	for _, e := range m.events {
		if eventType != "" && e.Type != eventType {
			continue
		}
		if e.Time.Before(start) || e.Time.After(end) {
			continue
		}
		out = append(out, e)
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].Time.Equal(out[j].Time) {
			return out[i].Time.Before(out[j].Time)
		}
		return out[i].ID < out[j].ID
	})
	return out, nil
}

func copyRecord(r prediction.Record) prediction.Record {
	r.Strategies = append([]string(nil), r.Strategies...)
	if r.ActualExitDate != nil {
		d := *r.ActualExitDate
		r.ActualExitDate = &d
	}
	return r
}
