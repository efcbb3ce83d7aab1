// Package session owns one running factory: its state, the engine that
// drives it and everyone listening to it.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"candyworks/internal/store"
	"candyworks/internal/telemetry"
	"candyworks/internal/tycoon"
)

type Options struct {
	ID        string
	Engine    tycoon.Engine
	Layout    tycoon.Layout
	Repo      store.Repo
	Telemetry telemetry.Repository
	Logger    *log.Logger
	// MaxFrame caps the dt of a single tick so a stalled process does not
	// teleport candies past their stations.
	MaxFrame  time.Duration
}

// Session serialises every mutation of one factory behind a single mutex.
type Session struct {
	mu       sync.Mutex
	id       string
	engine   tycoon.Engine
	state    *tycoon.State
	lastTick time.Time
	maxFrame time.Duration

	repo      store.Repo
	telemetry telemetry.Repository
	logger    *log.Logger

	subMu   sync.Mutex
	subs    map[int]chan tycoon.Event
	nextSub int
}

// New starts a fresh factory from opts.Layout.
func New(opts Options) (*Session, error) {
	s, err := newSession(opts)
	if err != nil {
		return nil, err
	}
	s.state = s.engine.NewState(opts.Layout)
	return s, nil
}

// Open restores the stored snapshot for opts.ID and falls back to a fresh
// factory when none exists. A snapshot from a different layout is discarded.
func Open(ctx context.Context, opts Options) (*Session, error) {
	s, err := newSession(opts)
	if err != nil {
		return nil, err
	}
	if s.repo != nil {
		st, err := s.repo.Load(ctx, s.id)
		switch {
		case err == nil && st.Layout == opts.Layout.Name:
			s.state = st
			s.logEvent("info", "session_restored", map[string]any{"money": st.Money, "rebirths": st.Rebirths})
			s.record(telemetry.EventSessionRestored, telemetry.EventMetadata{"money": st.Money})
			return s, nil
		case err == nil:
			s.logEvent("warn", "session_layout_changed", map[string]any{"stored": st.Layout, "layout": opts.Layout.Name})
		case !errors.Is(err, store.ErrNotFound):
			return nil, fmt.Errorf("restore session %s: %w", s.id, err)
		}
	}
	s.state = s.engine.NewState(opts.Layout)
	return s, nil
}

func newSession(opts Options) (*Session, error) {
	if opts.ID == "" {
		return nil, errors.New("session id is required")
	}
	if opts.Logger == nil {
		opts.Logger = log.Default()
	}
	if opts.Engine.Clock == nil {
		opts.Engine.Clock = tycoon.RealClock{}
	}
	if opts.MaxFrame <= 0 {
		opts.MaxFrame = 100 * time.Millisecond
	}
	s := &Session{
		id:        opts.ID,
		engine:    opts.Engine,
		maxFrame:  opts.MaxFrame,
		repo:      opts.Repo,
		telemetry: opts.Telemetry,
		logger:    opts.Logger,
		subs:      make(map[int]chan tycoon.Event),
	}
	s.engine.Notify = s.publish
	return s, nil
}

func (s *Session) ID() string { return s.id }

// Snapshot returns a deep copy of the current state.
func (s *Session) Snapshot() *tycoon.State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state.Clone()
}

// Tick advances the factory to the engine clock's current time.
func (s *Session) Tick() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.engine.Clock.Now()
	var dt time.Duration
	if !s.lastTick.IsZero() {
		dt = now.Sub(s.lastTick)
	}
	if dt < 0 {
		dt = 0
	}
	if dt > s.maxFrame {
		dt = s.maxFrame
	}
	s.lastTick = now
	s.engine.Tick(s.state, now, dt)
}

// Purchase buys an offer. The refusal is RefusalNone on success.
func (s *Session) Purchase(offerID string) tycoon.Refusal {
	s.mu.Lock()
	defer s.mu.Unlock()

	if r := s.state.PurchaseRefusal(offerID); r != tycoon.RefusalNone {
		return r
	}
	s.engine.Purchase(s.state, offerID)
	return tycoon.RefusalNone
}

func (s *Session) Rebirth() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Rebirth(s.state)
}

func (s *Session) Collect() (int64, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.Collect(s.state, s.engine.Clock.Now())
}

func (s *Session) PassiveIncome() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.engine.PassiveIncome(s.state)
}

// Save persists a snapshot. It is a no-op without a repo.
func (s *Session) Save(ctx context.Context) error {
	if s.repo == nil {
		return nil
	}
	st := s.Snapshot()
	if err := s.repo.Save(ctx, s.id, st); err != nil {
		return fmt.Errorf("save session %s: %w", s.id, err)
	}
	s.record(telemetry.EventSessionSaved, telemetry.EventMetadata{"money": st.Money})
	return nil
}

// Stats aggregates the telemetry recorded since the given time.
func (s *Session) Stats(since time.Time) (telemetry.Stats, error) {
	if s.telemetry == nil {
		return telemetry.CalculateStats(nil, since)
	}
	events, err := s.telemetry.GetEvents(since, nil)
	if err != nil {
		return telemetry.Stats{}, err
	}
	return telemetry.CalculateStats(events, since)
}

// Subscribe registers a listener. Events are dropped for a listener whose
// buffer is full. The returned func unsubscribes and closes the channel.
func (s *Session) Subscribe(buffer int) (<-chan tycoon.Event, func()) {
	if buffer <= 0 {
		buffer = 1
	}
	ch := make(chan tycoon.Event, buffer)

	s.subMu.Lock()
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.subMu.Unlock()

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			s.subMu.Lock()
			delete(s.subs, id)
			s.subMu.Unlock()
			close(ch)
		})
	}
}

// publish runs inside s.mu via Engine.Notify.
func (s *Session) publish(ev tycoon.Event) {
	if typ, md, ok := telemetry.FromEngine(ev); ok {
		if s.telemetry != nil {
			if err := s.telemetry.RecordEvent(ev.At, typ, md); err != nil {
				s.logEvent("error", "telemetry_record_failed", map[string]any{"error": err.Error()})
			}
		}
	}

	s.subMu.Lock()
	defer s.subMu.Unlock()
	for _, ch := range s.subs {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (s *Session) record(typ telemetry.EventType, md telemetry.EventMetadata) {
	if s.telemetry == nil {
		return
	}
	if err := s.telemetry.RecordEvent(s.engine.Clock.Now(), typ, md); err != nil {
		s.logEvent("error", "telemetry_record_failed", map[string]any{"error": err.Error()})
	}
}

func (s *Session) logEvent(level, msg string, fields map[string]any) {
	payload := map[string]any{
		"ts":         time.Now().UTC().Format(time.RFC3339Nano),
		"level":      level,
		"msg":        msg,
		"session_id": s.id,
	}
	for k, v := range fields {
		payload[k] = v
	}
	b, err := json.Marshal(payload)
	if err != nil {
		s.logger.Printf(`{"level":"error","msg":"log_marshal_failed","error":%q}`, err.Error())
		return
	}
	s.logger.Print(string(b))
}
