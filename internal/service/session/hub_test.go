package session

import (
	"context"
	stderrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/InduJay123/SmartAgriMarket-sub000/internal/adapter"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/command"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/domain"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/predictapi"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/service/cache"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/service/intent"
)

type fakePredictor struct {
	err error
}

func (f *fakePredictor) Predict(_ context.Context, kind domain.ActionType, req predictapi.PredictRequest) (*domain.PredictionResult, error) {
	if f.err != nil {
		return nil, f.err
	}
	value := 245.5
	return &domain.PredictionResult{
		Kind:       kind,
		Crop:       req.Crop,
		Market:     req.Market,
		Timeframe:  req.Timeframe,
		Value:      &value,
		Unit:       "LKR/kg",
		Confidence: 0.91,
		Factors:    []string{"Rainfall"},
	}, nil
}

type fakeTranscripts struct {
	mu      sync.Mutex
	entries []domain.TranscriptEntry
}

func (f *fakeTranscripts) Append(_ context.Context, entry domain.TranscriptEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries = append(f.entries, entry)
	return nil
}

type failingStore struct{}

func (failingStore) SaveSnapshot(context.Context, *domain.SessionSnapshot, time.Duration) error {
	return stderrors.New("redis down")
}
func (failingStore) LoadSnapshot(context.Context, string) (*domain.SessionSnapshot, error) {
	return nil, nil
}
func (failingStore) DeleteSnapshot(context.Context, string) error { return nil }

type hubFixture struct {
	hub         *Hub
	store       *cache.CacheService
	redis       *miniredis.Miniredis
	transcripts *fakeTranscripts
	now         time.Time
}

func newHubFixture(t *testing.T, opts ...Option) *hubFixture {
	t.Helper()

	mr, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mr.Close)

	store := cache.NewCacheServiceWithClient(redis.NewClient(&redis.Options{Addr: mr.Addr()}), zap.NewNop())
	t.Cleanup(func() { _ = store.Close() })

	formatter := adapter.NewResponseFormatter("/")
	registry := command.NewRegistry()
	command.RegisterDefaults(registry, &command.Dependencies{
		Predictor:    &fakePredictor{},
		Formatter:    formatter,
		DashboardURL: "https://market.example/dashboard",
		Logger:       zap.NewNop(),
	})

	f := &hubFixture{
		store:       store,
		redis:       mr,
		transcripts: &fakeTranscripts{},
		now:         time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC),
	}

	base := []Option{
		WithSnapshotStore(store),
		WithTranscripts(f.transcripts),
		WithDispatcher(command.NewSequentialDispatcher(registry)),
		WithFormatter(formatter),
		WithIdleTTL(10 * time.Minute),
		WithClock(func() time.Time { return f.now }),
	}
	f.hub = NewHub(intent.NewEngine(intent.DefaultCatalog()), append(base, opts...)...)
	return f
}

func (f *hubFixture) open(t *testing.T, id string) *Session {
	t.Helper()
	s, _, err := f.hub.Open(context.Background(), id)
	require.NoError(t, err)
	return s
}

func TestOpenCreatesSession(t *testing.T) {
	f := newHubFixture(t)

	s, created, err := f.hub.Open(context.Background(), "")
	require.NoError(t, err)
	assert.True(t, created)
	assert.NotEmpty(t, s.ID())
	assert.Equal(t, 1, f.hub.Len())

	again, created, err := f.hub.Open(context.Background(), s.ID())
	require.NoError(t, err)
	assert.False(t, created)
	assert.Same(t, s, again)
}

func TestProcessArchivesTurn(t *testing.T) {
	f := newHubFixture(t)
	s := f.open(t, "farmer-1")

	reply := s.Process(context.Background(), "Hello")

	assert.Equal(t, "farmer-1", reply.SessionID)
	assert.Equal(t, domain.IntentGreeting, reply.Response.Intent)
	assert.Empty(t, reply.ActionResults)

	require.Len(t, f.transcripts.entries, 1)
	entry := f.transcripts.entries[0]
	assert.Equal(t, "farmer-1", entry.SessionID)
	assert.Equal(t, "Hello", entry.UserMessage)
	assert.Equal(t, domain.IntentGreeting, entry.Intent)
	assert.Equal(t, f.now, entry.CreatedAt)
}

func TestProcessExecutesPredictionThenExplains(t *testing.T) {
	f := newHubFixture(t)
	s := f.open(t, "farmer-1")

	reply := s.Process(context.Background(), "predict tomato price")
	assert.Equal(t, domain.ActionPredictPrice, reply.Response.ActionType)
	require.Len(t, reply.ActionResults, 1)
	assert.Contains(t, reply.ActionResults[0], "245.50 LKR/kg")

	reply = s.Process(context.Background(), "explain")
	assert.Equal(t, domain.IntentExplanation, reply.Response.Intent)
	require.Len(t, reply.ActionResults, 1)
	assert.Contains(t, reply.ActionResults[0], "1. Rainfall")
}

func TestProcessDegradesWhenPredictionFails(t *testing.T) {
	f := newHubFixture(t)
	registry := command.NewRegistry()
	command.RegisterDefaults(registry, &command.Dependencies{
		Predictor: &fakePredictor{err: stderrors.New("timeout")},
		Formatter: adapter.NewResponseFormatter("/"),
		Logger:    zap.NewNop(),
	})
	f.hub.dispatcher = command.NewSequentialDispatcher(registry)

	reply := f.open(t, "farmer-1").Process(context.Background(), "predict tomato price")

	require.Len(t, reply.ActionResults, 1)
	assert.Contains(t, reply.ActionResults[0], "Predicted price: N/A")
	assert.Empty(t, reply.ActionError)
}

func TestSweepEvictsAndRestores(t *testing.T) {
	f := newHubFixture(t)
	ctx := context.Background()
	s := f.open(t, "farmer-1")

	s.Process(ctx, "tell me the tomato price")
	s.Process(ctx, "predict demand")
	require.True(t, s.DialogState().IsWaiting())

	f.now = f.now.Add(5 * time.Minute)
	assert.Equal(t, 0, f.hub.Sweep(ctx))

	f.now = f.now.Add(11 * time.Minute)
	assert.Equal(t, 1, f.hub.Sweep(ctx))
	assert.Equal(t, 0, f.hub.Len())
	assert.True(t, f.redis.Exists("assistant:session:farmer-1"))

	restored, created, err := f.hub.Open(ctx, "farmer-1")
	require.NoError(t, err)
	assert.False(t, created)
	assert.NotSame(t, s, restored)
	assert.Equal(t, "Tomato", restored.Context().LastCrop())
	assert.Equal(t, domain.EntityCrop, restored.DialogState().WaitingFor)

	reply := restored.Process(ctx, "carrots")
	assert.Equal(t, domain.ActionPredictDemand, reply.Response.ActionType)
	assert.Equal(t, "Carrot", reply.Response.ActionString(domain.ActionKeyCrop))
}

func TestSweepKeepsSessionWhenSnapshotFails(t *testing.T) {
	f := newHubFixture(t, WithSnapshotStore(failingStore{}))
	f.open(t, "farmer-1")

	f.now = f.now.Add(time.Hour)
	assert.Equal(t, 0, f.hub.Sweep(context.Background()))
	assert.Equal(t, 1, f.hub.Len())
}

func TestFlushAllSnapshotsEverySession(t *testing.T) {
	f := newHubFixture(t, WithFlushConcurrency(2))
	for _, id := range []string{"a", "b", "c"} {
		f.open(t, id).Process(context.Background(), "Hello")
	}

	require.NoError(t, f.hub.FlushAll(context.Background()))

	ids, err := f.store.SnapshotIDs(context.Background())
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"a", "b", "c"}, ids)
	assert.Equal(t, 3, f.hub.Len())
}

func TestResetKeepsMemory(t *testing.T) {
	f := newHubFixture(t)
	ctx := context.Background()
	s := f.open(t, "farmer-1")
	s.Process(ctx, "tell me the tomato price")
	s.Process(ctx, "predict demand")

	ok, err := f.hub.Reset(ctx, "farmer-1")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.False(t, s.DialogState().IsWaiting())
	assert.Equal(t, "Tomato", s.Context().LastCrop())
}

func TestClearForgetsContextAndSnapshot(t *testing.T) {
	f := newHubFixture(t)
	ctx := context.Background()
	s := f.open(t, "farmer-1")
	s.Process(ctx, "tell me the tomato price")
	require.NoError(t, f.hub.FlushAll(ctx))

	ok, err := f.hub.Clear(ctx, "farmer-1")
	require.NoError(t, err)
	assert.True(t, ok)

	assert.Empty(t, s.Context().LastCrop())
	assert.Empty(t, s.DialogState().LastAction)
	assert.Equal(t, "farmer-1", s.ID())
	assert.False(t, f.redis.Exists("assistant:session:farmer-1"))
}

func TestUnknownSessionIsNotCreatedByGet(t *testing.T) {
	f := newHubFixture(t)

	ok, err := f.hub.Reset(context.Background(), "nobody")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, 0, f.hub.Len())
}

func TestCloseRejectsOpen(t *testing.T) {
	f := newHubFixture(t)
	f.open(t, "farmer-1")

	require.NoError(t, f.hub.Close(context.Background()))
	assert.True(t, f.redis.Exists("assistant:session:farmer-1"))

	_, _, err := f.hub.Open(context.Background(), "farmer-2")
	assert.ErrorIs(t, err, ErrClosed)
}
