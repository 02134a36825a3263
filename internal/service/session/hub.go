package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/sourcegraph/conc/pool"
	"go.uber.org/zap"

	"github.com/InduJay123/SmartAgriMarket-sub000/internal/adapter"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/command"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/constants"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/domain"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/service/dialog"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/service/memory"
)

// ErrClosed is returned by Open after Close.
var ErrClosed = errors.New("session hub is closed")

// SnapshotStore persists idle sessions.
type SnapshotStore interface {
	SaveSnapshot(ctx context.Context, snapshot *domain.SessionSnapshot, ttl time.Duration) error
	LoadSnapshot(ctx context.Context, sessionID string) (*domain.SessionSnapshot, error)
	DeleteSnapshot(ctx context.Context, sessionID string) error
}

// TranscriptSink archives processed turns.
type TranscriptSink interface {
	Append(ctx context.Context, entry domain.TranscriptEntry) error
}

// Observer receives session lifecycle and turn events.
type Observer interface {
	ObserveTurn(resp domain.BotResponse, elapsed time.Duration)
	ObserveClarification(action domain.ActionType)
	SessionOpened()
	SessionEvicted()
	SnapshotFailed()
}

type nopObserver struct{}

func (nopObserver) ObserveTurn(domain.BotResponse, time.Duration) {}
func (nopObserver) ObserveClarification(domain.ActionType)        {}
func (nopObserver) SessionOpened()                                {}
func (nopObserver) SessionEvicted()                               {}
func (nopObserver) SnapshotFailed()                               {}

type Option func(*Hub)

func WithLogger(logger *zap.Logger) Option {
	return func(h *Hub) {
		if logger != nil {
			h.logger = logger
		}
	}
}

func WithSnapshotStore(store SnapshotStore) Option {
	return func(h *Hub) { h.store = store }
}

func WithTranscripts(sink TranscriptSink) Option {
	return func(h *Hub) { h.transcripts = sink }
}

func WithDispatcher(dispatcher command.Dispatcher) Option {
	return func(h *Hub) { h.dispatcher = dispatcher }
}

func WithObserver(observer Observer) Option {
	return func(h *Hub) {
		if observer != nil {
			h.observer = observer
		}
	}
}

func WithFormatter(formatter *adapter.ResponseFormatter) Option {
	return func(h *Hub) {
		if formatter != nil {
			h.formatter = formatter
		}
	}
}

func WithExtractor(extractor *memory.Extractor) Option {
	return func(h *Hub) { h.extractor = extractor }
}

func WithIdleTTL(ttl time.Duration) Option {
	return func(h *Hub) {
		if ttl > 0 {
			h.idleTTL = ttl
		}
	}
}

func WithSnapshotTTL(ttl time.Duration) Option {
	return func(h *Hub) {
		if ttl > 0 {
			h.snapshotTTL = ttl
		}
	}
}

func WithMaxClarifications(limit int) Option {
	return func(h *Hub) { h.maxClarifications = limit }
}

func WithFlushConcurrency(n int) Option {
	return func(h *Hub) {
		if n > 0 {
			h.flushConcurrency = n
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(h *Hub) {
		if now != nil {
			h.now = now
		}
	}
}

// Hub owns every live session of the process. Idle sessions are written to
// the snapshot store and dropped from memory; Open brings them back.
type Hub struct {
	mu       sync.Mutex
	sessions map[string]*Session
	closed   bool

	engine            dialog.IntentEngine
	extractor         *memory.Extractor
	formatter         *adapter.ResponseFormatter
	store             SnapshotStore
	transcripts       TranscriptSink
	dispatcher        command.Dispatcher
	observer          Observer
	idleTTL           time.Duration
	snapshotTTL       time.Duration
	maxClarifications int
	flushConcurrency  int
	now               func() time.Time
	logger            *zap.Logger
}

func NewHub(engine dialog.IntentEngine, opts ...Option) *Hub {
	h := &Hub{
		sessions:         make(map[string]*Session),
		engine:           engine,
		formatter:        adapter.NewResponseFormatter("/"),
		observer:         nopObserver{},
		idleTTL:          constants.SessionConfig.IdleTTL,
		snapshotTTL:      constants.SessionConfig.SnapshotTTL,
		flushConcurrency: constants.SessionConfig.FlushConcurrency,
		now:              time.Now,
		logger:           zap.NewNop(),
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Len returns the number of sessions held in memory.
func (h *Hub) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.sessions)
}

func (h *Hub) live() []*Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	out := make([]*Session, 0, len(h.sessions))
	for _, s := range h.sessions {
		out = append(out, s)
	}
	return out
}

// Open returns the live session for id, restores it from the snapshot store,
// or starts a new one. An empty id always starts a new session. The boolean
// reports whether the session was newly created.
func (h *Hub) Open(ctx context.Context, id string) (*Session, bool, error) {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil, false, ErrClosed
	}
	if s, ok := h.sessions[id]; ok && id != "" {
		h.mu.Unlock()
		return s, false, nil
	}
	h.mu.Unlock()

	s, restored, err := h.build(ctx, id)
	if err != nil {
		return nil, false, err
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil, false, ErrClosed
	}
	// Another caller may have opened the same id meanwhile.
	if existing, ok := h.sessions[s.id]; ok {
		return existing, false, nil
	}
	h.sessions[s.id] = s
	h.observer.SessionOpened()

	h.logger.Info("Session opened",
		zap.String("session_id", s.id),
		zap.Bool("restored", restored),
	)
	return s, !restored, nil
}

// Get returns a live or stored session without creating one.
func (h *Hub) Get(ctx context.Context, id string) (*Session, bool, error) {
	if id == "" {
		return nil, false, nil
	}

	h.mu.Lock()
	s, ok := h.sessions[id]
	h.mu.Unlock()
	if ok {
		return s, true, nil
	}

	if h.store == nil {
		return nil, false, nil
	}
	snapshot, err := h.store.LoadSnapshot(ctx, id)
	if err != nil {
		return nil, false, err
	}
	if snapshot == nil {
		return nil, false, nil
	}

	s, _, err = h.Open(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return s, true, nil
}

func (h *Hub) build(ctx context.Context, id string) (*Session, bool, error) {
	var snapshot *domain.SessionSnapshot
	if id != "" && h.store != nil {
		loaded, err := h.store.LoadSnapshot(ctx, id)
		if err != nil {
			h.logger.Warn("Failed to load session snapshot, starting fresh",
				zap.String("session_id", id),
				zap.Error(err),
			)
		}
		snapshot = loaded
	}

	memOpts := []memory.Option{memory.WithLogger(h.logger), memory.WithClock(h.now)}
	if h.extractor != nil {
		memOpts = append(memOpts, memory.WithExtractor(h.extractor))
	}
	mem, err := memory.NewManager(id, memOpts...)
	if err != nil {
		return nil, false, fmt.Errorf("create context manager: %w", err)
	}
	if id == "" {
		id = mem.SessionID()
	}

	dlg := dialog.NewManager(h.engine, mem,
		dialog.WithLogger(h.logger),
		dialog.WithFormatter(h.formatter),
		dialog.WithMaxClarifications(h.maxClarifications),
	)

	restored := false
	if snapshot != nil {
		if err := mem.ImportContext(snapshot.Context); err != nil {
			h.logger.Warn("Discarding unreadable session snapshot",
				zap.String("session_id", id),
				zap.Error(err),
			)
		} else {
			dlg.Restore(snapshot.Dialog)
			restored = true
		}
	}

	s := &Session{
		id:       id,
		memory:   mem,
		dialog:   dlg,
		hub:      h,
		lastSeen: h.now(),
	}
	return s, restored, nil
}

// Reset abandons the session's pending clarification.
func (h *Hub) Reset(ctx context.Context, id string) (bool, error) {
	s, ok, err := h.Get(ctx, id)
	if err != nil || !ok {
		return false, err
	}
	s.ResetDialog()
	return true, nil
}

// Clear forgets the session's context and drops its stored snapshot.
func (h *Hub) Clear(ctx context.Context, id string) (bool, error) {
	s, ok, err := h.Get(ctx, id)
	if err != nil || !ok {
		return false, err
	}
	s.Clear()

	if h.store != nil {
		if err := h.store.DeleteSnapshot(ctx, id); err != nil {
			h.logger.Warn("Failed to delete session snapshot",
				zap.String("session_id", id),
				zap.Error(err),
			)
		}
	}
	return true, nil
}

// Sweep snapshots and evicts sessions idle for longer than the idle TTL.
// It returns the number of evicted sessions.
func (h *Hub) Sweep(ctx context.Context) int {
	cutoff := h.now().Add(-h.idleTTL)

	evicted := 0
	for _, s := range h.live() {
		seen := s.idleSince()
		if !seen.Before(cutoff) {
			continue
		}
		if err := h.persist(ctx, s); err != nil {
			continue
		}

		// A turn that arrived during the snapshot keeps the session alive.
		untouched := s.idleSince().Equal(seen)

		h.mu.Lock()
		if current, ok := h.sessions[s.id]; ok && current == s && untouched {
			delete(h.sessions, s.id)
			evicted++
			h.observer.SessionEvicted()
		}
		h.mu.Unlock()
	}

	if evicted > 0 {
		h.logger.Info("Evicted idle sessions",
			zap.Int("count", evicted),
			zap.Duration("idle_ttl", h.idleTTL),
		)
	}
	return evicted
}

// FlushAll snapshots every live session in parallel.
func (h *Hub) FlushAll(ctx context.Context) error {
	if h.store == nil {
		return nil
	}

	p := pool.New().WithMaxGoroutines(h.flushConcurrency).WithContext(ctx)
	for _, s := range h.live() {
		s := s
		p.Go(func(ctx context.Context) error {
			return h.persist(ctx, s)
		})
	}
	return p.Wait()
}

// Run sweeps idle sessions every interval until ctx is done.
func (h *Hub) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		interval = constants.SessionConfig.SweepInterval
	}
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			h.Sweep(ctx)
		}
	}
}

// Close flushes every session and rejects further Open calls.
func (h *Hub) Close(ctx context.Context) error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.mu.Unlock()

	err := h.FlushAll(ctx)

	h.mu.Lock()
	h.sessions = make(map[string]*Session)
	h.mu.Unlock()
	return err
}

// persist writes one session snapshot. Without a store there is nothing to
// write and eviction simply drops the session.
func (h *Hub) persist(ctx context.Context, s *Session) error {
	if h.store == nil {
		return nil
	}

	snapshot, err := s.snapshot()
	if err == nil {
		err = h.store.SaveSnapshot(ctx, snapshot, h.snapshotTTL)
	}
	if err != nil {
		h.observer.SnapshotFailed()
		h.logger.Warn("Failed to snapshot session",
			zap.String("session_id", s.id),
			zap.Error(err),
		)
		return fmt.Errorf("snapshot session %s: %w", s.id, err)
	}
	return nil
}
