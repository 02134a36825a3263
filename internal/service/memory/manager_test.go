package memory

import (
	"encoding/json"
	stderrors "errors"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/InduJay123/SmartAgriMarket-sub000/internal/domain"
	"github.com/InduJay123/SmartAgriMarket-sub000/pkg/errors"
)

func newTestManager(t *testing.T, opts ...Option) *Manager {
	t.Helper()
	clock := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)
	opts = append([]Option{WithClock(func() time.Time {
		clock = clock.Add(time.Second)
		return clock
	})}, opts...)

	m, err := NewManager("session-1", opts...)
	require.NoError(t, err)
	return m
}

func TestNewManagerGeneratesSessionID(t *testing.T) {
	m, err := NewManager("")
	require.NoError(t, err)
	assert.Len(t, m.SessionID(), 36)
}

func TestUpdateContextIsSticky(t *testing.T) {
	m := newTestManager(t)

	m.UpdateContext("tomato price in kandy next week", domain.IntentPricePrediction, "ok")
	ctx := m.Context()
	assert.Equal(t, "Tomato", ctx.LastCrop())
	assert.Equal(t, "kandy", ctx.LastMarket())
	assert.Equal(t, "next week", ctx.LastTimeframe())

	m.UpdateContext("and carrots?", domain.IntentUnknown, "sure")
	ctx = m.Context()
	assert.Equal(t, "Carrot", ctx.LastCrop())
	assert.Equal(t, "kandy", ctx.LastMarket())
	assert.Equal(t, "next week", ctx.LastTimeframe())
	assert.Equal(t, "Carrot", ctx.Entities["crop"])
}

func TestHistoryIsCappedFIFO(t *testing.T) {
	m := newTestManager(t)

	for i := 0; i < 25; i++ {
		m.UpdateContext(fmt.Sprintf("message %d", i), domain.IntentGreeting, fmt.Sprintf("reply %d", i))
	}

	history := m.History()
	require.Len(t, history, domain.HistoryLimit)
	assert.Equal(t, "message 5", history[0].UserMessage)
	assert.Equal(t, "message 24", history[19].UserMessage)
	for i := 1; i < len(history); i++ {
		assert.True(t, history[i].Timestamp.After(history[i-1].Timestamp))
	}
}

func TestResolveEntitiesFollowUp(t *testing.T) {
	m := newTestManager(t)
	m.UpdateContext("tomato price", domain.IntentPricePrediction, "ok")

	res := m.ResolveEntities("what about next week?")
	assert.Equal(t, "Tomato", res.Crop)
	assert.Equal(t, "next week", res.Timeframe)
	assert.True(t, res.IsFollowUp)
	assert.True(t, res.FromContext)
}

func TestResolveEntitiesExplicitOverridesMemory(t *testing.T) {
	m := newTestManager(t)
	m.UpdateContext("tell me the tomato price", domain.IntentPricePrediction, "ok")

	res := m.ResolveEntities("what about carrots")
	assert.Equal(t, "Carrot", res.Crop)
	assert.True(t, res.IsFollowUp)
	assert.True(t, res.FromContext)
}

func TestResolveEntitiesWithoutFollowUpIgnoresMemory(t *testing.T) {
	m := newTestManager(t)
	m.UpdateContext("tomato price", domain.IntentPricePrediction, "ok")

	res := m.ResolveEntities("predict price")
	assert.Empty(t, res.Crop)
	assert.False(t, res.IsFollowUp)
	assert.False(t, res.FromContext)
}

func TestResolveEntitiesFollowUpWithEmptyMemory(t *testing.T) {
	m := newTestManager(t)

	res := m.ResolveEntities("how about that")
	assert.True(t, res.IsFollowUp)
	assert.False(t, res.FromContext)
	assert.Empty(t, res.Crop)
	assert.Empty(t, res.Timeframe)
	assert.Empty(t, res.Market)
}

func TestCustomFollowUpDetector(t *testing.T) {
	m := newTestManager(t, WithFollowUpDetector(FollowUpFunc(func(msg string) bool {
		return strings.HasSuffix(msg, "?")
	})))
	m.UpdateContext("potato yield", domain.IntentYieldPrediction, "ok")

	assert.Equal(t, "Potato", m.ResolveEntities("next week?").Crop)
	assert.Empty(t, m.ResolveEntities("what about next week").Crop)
}

func TestRemembered(t *testing.T) {
	m := newTestManager(t)
	assert.Empty(t, m.Remembered(domain.EntityMarket))

	m.UpdateContext("predict price for tomorrow in kandy", domain.IntentPricePrediction, "ok")
	assert.Equal(t, "kandy", m.Remembered(domain.EntityMarket))
	assert.Equal(t, "tomorrow", m.Remembered(domain.EntityTimeframe))
	assert.Empty(t, m.Remembered(domain.EntityCrop))
}

func TestMissingEntitiesChecksMemoryOnly(t *testing.T) {
	m := newTestManager(t)
	required := []domain.EntityType{domain.EntityCrop, domain.EntityMarket}

	assert.Equal(t, required, m.MissingEntities(required))

	m.UpdateContext("tomato please", domain.IntentUnknown, "ok")
	assert.Equal(t, []domain.EntityType{domain.EntityMarket}, m.MissingEntities(required))
	assert.Empty(t, m.MissingEntities(nil))
}

func TestClearContext(t *testing.T) {
	m := newTestManager(t)
	m.UpdateContext("tomato price", domain.IntentPricePrediction, "ok")
	m.SetLastPrediction(&domain.PredictionResult{Kind: domain.ActionPredictPrice, Crop: "Tomato"})

	m.ClearContext()

	assert.NotEqual(t, "session-1", m.SessionID())
	assert.Empty(t, m.History())
	assert.Empty(t, m.Context().LastCrop())
	assert.Nil(t, m.LastPrediction())
}

func TestLastPredictionIsCopied(t *testing.T) {
	m := newTestManager(t)
	value := 120.5
	pred := &domain.PredictionResult{Kind: domain.ActionPredictPrice, Crop: "Tomato", Value: &value}
	m.SetLastPrediction(pred)

	value = 1
	got := m.LastPrediction()
	require.NotNil(t, got)
	assert.Equal(t, 120.5, *got.Value)
}

func TestExportImportRoundTrip(t *testing.T) {
	m := newTestManager(t)
	m.UpdateContext("big onion price in dambulla next month", domain.IntentPricePrediction, "Analysing…")
	m.UpdateContext("hello", domain.IntentGreeting, "Hi!")
	value := 245.0
	m.SetLastPrediction(&domain.PredictionResult{
		Kind:       domain.ActionPredictPrice,
		Crop:       "Big Onion",
		Value:      &value,
		Unit:       "LKR/kg",
		Confidence: 0.91,
		Factors:    []string{"Seasonal supply"},
	})

	payload, err := m.ExportContext()
	require.NoError(t, err)

	var raw map[string]any
	require.NoError(t, json.Unmarshal([]byte(payload), &raw))
	assert.Equal(t, []any{
		[]any{"crop", "Big Onion"},
		[]any{"market", "dambulla"},
		[]any{"timeframe", "next month"},
	}, raw["entities"])

	restored := newTestManager(t)
	require.NoError(t, restored.ImportContext(payload))

	assert.Equal(t, m.Context(), restored.Context())
	assert.Equal(t, "Big Onion", restored.Context().LastCrop())
	assert.Equal(t, "dambulla", restored.Context().LastMarket())
	assert.Equal(t, "next month", restored.Context().LastTimeframe())
}

func TestImportRejectsInvalidPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload string
	}{
		{"not json", "{oops"},
		{"missing session", `{"version":1,"entities":[],"history":[]}`},
		{"bad pair", `{"version":1,"sessionId":"x","entities":[["crop"]],"history":[]}`},
		{"bad version", `{"version":2,"sessionId":"x","entities":[],"history":[]}`},
		{"bad timestamp", `{"version":1,"sessionId":"x","entities":[],"history":[{"userMessage":"a","botResponse":"b","intent":"greeting","timestamp":"yesterday"}]}`},
		{"too large", strings.Repeat(" ", 300*1024)},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := newTestManager(t)
			m.UpdateContext("tomato price", domain.IntentPricePrediction, "ok")
			before := m.Context()

			err := m.ImportContext(tt.payload)
			require.Error(t, err)

			var importErr *errors.ImportError
			assert.True(t, stderrors.As(err, &importErr))
			assert.Equal(t, before, m.Context())
		})
	}
}

func TestImportTrimsOversizedHistory(t *testing.T) {
	turns := make([]string, 0, 25)
	for i := 0; i < 25; i++ {
		turns = append(turns, fmt.Sprintf(`{"userMessage":"m%d","botResponse":"r","intent":"greeting","timestamp":"2026-03-01T09:00:%02dZ"}`, i, i))
	}
	payload := `{"version":1,"sessionId":"imported","entities":[["crop","Tomato"]],"history":[` + strings.Join(turns, ",") + `]}`

	m := newTestManager(t)
	require.NoError(t, m.ImportContext(payload))

	assert.Equal(t, "imported", m.SessionID())
	history := m.History()
	require.Len(t, history, domain.HistoryLimit)
	assert.Equal(t, "m5", history[0].UserMessage)
}
