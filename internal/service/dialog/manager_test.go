package dialog

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/InduJay123/SmartAgriMarket-sub000/internal/domain"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/service/intent"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/service/memory"
)

type fixture struct {
	dialog  *Manager
	memory  *memory.Manager
	catalog *intent.Catalog
}

func newFixture(t *testing.T, opts ...Option) *fixture {
	t.Helper()

	catalog := intent.DefaultCatalog()
	mem, err := memory.NewManager("test-session")
	require.NoError(t, err)

	return &fixture{
		dialog:  NewManager(intent.NewEngine(catalog), mem, opts...),
		memory:  mem,
		catalog: catalog,
	}
}

func TestGreeting(t *testing.T) {
	f := newFixture(t)

	resp := f.dialog.ProcessMessage("Hello")

	greeting, _ := f.catalog.Get(domain.IntentGreeting)
	assert.Equal(t, domain.IntentGreeting, resp.Intent)
	assert.Equal(t, domain.TierHigh, resp.Tier)
	assert.GreaterOrEqual(t, resp.Confidence, 0.7)
	assert.Equal(t, greeting.Response, resp.Text)
	assert.False(t, resp.RequiresAction)

	history := f.memory.History()
	require.Len(t, history, 1)
	assert.Equal(t, "Hello", history[0].UserMessage)
	assert.Equal(t, greeting.Response, history[0].BotResponse)
}

func TestPredictionWithCrop(t *testing.T) {
	f := newFixture(t)

	resp := f.dialog.ProcessMessage("predict tomato price")

	assert.True(t, resp.RequiresAction)
	assert.Equal(t, domain.ActionPredictPrice, resp.ActionType)
	assert.Equal(t, "Tomato", resp.ActionString(domain.ActionKeyCrop))
	assert.Equal(t, "next week", resp.ActionString(domain.ActionKeyTimeframe))
	assert.Equal(t, "colombo", resp.ActionString(domain.ActionKeyMarket))
	assert.Equal(t, false, resp.ActionData[domain.ActionKeyFromContext])
	assert.False(t, f.dialog.State().IsWaiting())
	assert.Equal(t, domain.ActionPredictPrice, f.dialog.State().LastAction)
	assert.Equal(t, "Tomato", f.memory.Context().LastCrop())
}

func TestPredictionWithoutCropAsksForIt(t *testing.T) {
	f := newFixture(t)

	resp := f.dialog.ProcessMessage("predict price")

	assert.False(t, resp.RequiresAction)
	assert.Contains(t, resp.Text, "Which crop")
	assert.Contains(t, resp.Suggestions, "Tomato")

	state := f.dialog.State()
	assert.Equal(t, domain.EntityCrop, state.WaitingFor)
	assert.Equal(t, domain.ActionPredictPrice, state.PendingAction)
	assert.Equal(t, domain.IntentPricePrediction, state.PendingIntent)
	assert.Equal(t, 1, state.ClarificationAttempts)
	assert.Len(t, f.memory.History(), 1)
}

func TestPendingClarificationCompletes(t *testing.T) {
	f := newFixture(t)
	f.dialog.ProcessMessage("predict demand")

	resp := f.dialog.ProcessMessage("carrots")

	assert.True(t, resp.RequiresAction)
	assert.Equal(t, domain.ActionPredictDemand, resp.ActionType)
	assert.Equal(t, "Carrot", resp.ActionString(domain.ActionKeyCrop))
	assert.Equal(t, domain.IntentDemandPrediction, resp.Intent)
	assert.False(t, f.dialog.State().IsWaiting())
	assert.Zero(t, f.dialog.State().ClarificationAttempts)
	assert.Equal(t, "next week", resp.ActionString(domain.ActionKeyTimeframe))
	assert.Equal(t, "colombo", resp.ActionString(domain.ActionKeyMarket))
	assert.Equal(t, false, resp.ActionData[domain.ActionKeyFromContext])
}

func TestPendingClarificationKeepsRequestDetails(t *testing.T) {
	f := newFixture(t)

	prompt := f.dialog.ProcessMessage("predict price for tomorrow in kandy")
	require.False(t, prompt.RequiresAction)
	require.Equal(t, domain.EntityCrop, f.dialog.State().WaitingFor)

	resp := f.dialog.ProcessMessage("tomato")

	assert.Equal(t, domain.ActionPredictPrice, resp.ActionType)
	assert.Equal(t, "Tomato", resp.ActionString(domain.ActionKeyCrop))
	assert.Equal(t, "tomorrow", resp.ActionString(domain.ActionKeyTimeframe))
	assert.Equal(t, "kandy", resp.ActionString(domain.ActionKeyMarket))
	assert.Equal(t, true, resp.ActionData[domain.ActionKeyFromContext])
}

func TestContextUpdatedAfterReply(t *testing.T) {
	f := newFixture(t)

	resp := f.dialog.ProcessMessage("what about tomato price")

	// Memory is written once the reply is composed, so the crop named in
	// this very message is not reported as remembered.
	assert.Equal(t, domain.ActionPredictPrice, resp.ActionType)
	assert.Equal(t, "Tomato", resp.ActionString(domain.ActionKeyCrop))
	assert.Equal(t, false, resp.ActionData[domain.ActionKeyFromContext])
	assert.NotContains(t, resp.Text, "earlier in our conversation")

	assert.Equal(t, "Tomato", f.memory.Context().LastCrop())
	history := f.memory.History()
	require.Len(t, history, 1)
	assert.Equal(t, resp.Text, history[0].BotResponse)
}

func TestFollowUpOverridesRememberedCrop(t *testing.T) {
	f := newFixture(t)

	first := f.dialog.ProcessMessage("tell me the tomato price")
	require.Equal(t, "Tomato", first.ActionString(domain.ActionKeyCrop))
	require.Equal(t, "Tomato", f.memory.Context().LastCrop())

	second := f.dialog.ProcessMessage("what about carrots")

	assert.Equal(t, domain.ActionPredictPrice, second.ActionType)
	assert.Equal(t, "Carrot", second.ActionString(domain.ActionKeyCrop))
	assert.Equal(t, true, second.ActionData[domain.ActionKeyFromContext])
	assert.Equal(t, "Carrot", f.memory.Context().LastCrop())
}

func TestFollowUpInheritsCrop(t *testing.T) {
	f := newFixture(t)
	f.dialog.ProcessMessage("predict tomato price")

	resp := f.dialog.ProcessMessage("what about next week?")

	assert.Equal(t, domain.ActionPredictPrice, resp.ActionType)
	assert.Equal(t, "Tomato", resp.ActionString(domain.ActionKeyCrop))
	assert.Equal(t, "next week", resp.ActionString(domain.ActionKeyTimeframe))
	assert.Contains(t, resp.Text, "earlier in our conversation")
}

func TestMediumConfidenceAddsDisclaimer(t *testing.T) {
	f := newFixture(t)

	resp := f.dialog.ProcessMessage("could you tell me the price please")

	assert.Equal(t, domain.TierMedium, resp.Tier)
	assert.Equal(t, domain.IntentPricePrediction, resp.Intent)
	assert.GreaterOrEqual(t, resp.Confidence, 0.4)
	assert.Less(t, resp.Confidence, 0.7)
	assert.Contains(t, resp.Text, "Which crop")
	assert.Contains(t, resp.Text, "not completely sure")
	assert.True(t, f.dialog.State().IsWaiting())
}

func TestMediumConfidenceDisambiguates(t *testing.T) {
	f := newFixture(t)

	resp := f.dialog.ProcessMessage("could you tell me price and demand")

	assert.Equal(t, domain.TierMedium, resp.Tier)
	assert.False(t, resp.RequiresAction)
	assert.Contains(t, resp.Text, "1. Price prediction\n2. Demand prediction")
	assert.Equal(t, []string{"1", "2"}, resp.Suggestions)
	assert.Empty(t, f.memory.History())
	assert.Equal(t, []domain.IntentName{domain.IntentPricePrediction, domain.IntentDemandPrediction}, f.dialog.State().Choices)

	picked := f.dialog.ProcessMessage("2")

	assert.Equal(t, domain.IntentDemandPrediction, picked.Intent)
	assert.Equal(t, domain.TierHigh, picked.Tier)
	assert.Contains(t, picked.Text, "demand forecast")
	assert.Equal(t, domain.ActionPredictDemand, f.dialog.State().PendingAction)
	assert.False(t, f.dialog.State().HasChoices())
}

func TestLowConfidenceShowsCapabilities(t *testing.T) {
	f := newFixture(t)

	resp := f.dialog.ProcessMessage("i am just wondering what the price is right now")

	assert.Equal(t, domain.TierLow, resp.Tier)
	assert.Less(t, resp.Confidence, 0.4)
	assert.Contains(t, resp.Text, "I can help you with")
	assert.False(t, resp.RequiresAction)
	assert.Empty(t, f.memory.History())
	assert.False(t, f.dialog.State().IsWaiting())
}

func TestNoMatch(t *testing.T) {
	f := newFixture(t)

	resp := f.dialog.ProcessMessage("ok")
	assert.Equal(t, domain.TierNone, resp.Tier)
	assert.Contains(t, resp.Text, "Got it")

	resp = f.dialog.ProcessMessage("blorp zzz")
	assert.Equal(t, domain.TierNone, resp.Tier)
	assert.Equal(t, domain.IntentUnknown, resp.Intent)
	assert.Contains(t, resp.Text, "didn't understand")

	resp = f.dialog.ProcessMessage("")
	assert.Contains(t, resp.Text, "didn't understand")
}

func TestExplain(t *testing.T) {
	f := newFixture(t)

	resp := f.dialog.ProcessMessage("explain")
	assert.Equal(t, domain.IntentExplanation, resp.Intent)
	assert.False(t, resp.RequiresAction)
	assert.Contains(t, resp.Text, "nothing to explain")

	value := 180.0
	f.memory.SetLastPrediction(&domain.PredictionResult{Kind: domain.ActionPredictPrice, Crop: "Tomato", Value: &value, Confidence: 0.9})

	resp = f.dialog.ProcessMessage("explain")
	assert.True(t, resp.RequiresAction)
	assert.Equal(t, domain.ActionExplain, resp.ActionType)
	pred, ok := resp.ActionData[domain.ActionKeyPrediction].(*domain.PredictionResult)
	require.True(t, ok)
	assert.Equal(t, "Tomato", pred.Crop)
}

func TestDashboard(t *testing.T) {
	f := newFixture(t)

	resp := f.dialog.ProcessMessage("show dashboard")

	dashboard, _ := f.catalog.Get(domain.IntentShowDashboard)
	assert.Equal(t, dashboard.Response, resp.Text)
	assert.True(t, resp.RequiresAction)
	assert.Equal(t, domain.ActionShowDashboard, resp.ActionType)
	assert.Empty(t, resp.ActionData)
}

func TestClarificationCapDisabledByDefault(t *testing.T) {
	f := newFixture(t)

	for i := 0; i < 5; i++ {
		f.dialog.ProcessMessage("predict price")
	}
	assert.Equal(t, 5, f.dialog.State().ClarificationAttempts)
}

func TestClarificationCap(t *testing.T) {
	f := newFixture(t, WithMaxClarifications(2))

	f.dialog.ProcessMessage("predict price")
	f.dialog.ProcessMessage("predict price")
	resp := f.dialog.ProcessMessage("predict price")

	assert.Contains(t, resp.Text, "Let's try something else")
	assert.False(t, f.dialog.State().IsWaiting())
	assert.Zero(t, f.dialog.State().ClarificationAttempts)
}

func TestResetStateKeepsMemory(t *testing.T) {
	f := newFixture(t)
	f.dialog.ProcessMessage("tomato is nice")
	f.dialog.ProcessMessage("predict price")
	require.True(t, f.dialog.State().IsWaiting())

	f.dialog.ResetState()

	assert.False(t, f.dialog.State().IsWaiting())
	assert.Zero(t, f.dialog.State().ClarificationAttempts)
	assert.Equal(t, domain.ActionNone, f.dialog.State().PendingAction)
	assert.Len(t, f.memory.History(), 1)
}

func TestFormatPredictionWithConfidence(t *testing.T) {
	f := newFixture(t)
	value := 320.0

	text := f.dialog.FormatPredictionWithConfidence(&domain.PredictionResult{Kind: domain.ActionPredictPrice, Value: &value}, 0.8, "Carrot")
	assert.Contains(t, text, "Carrot")
	assert.Contains(t, text, "320.00")
	assert.Contains(t, text, "80%")
	assert.Contains(t, text, "Moderate")
	assert.Contains(t, text, "⚠️")

	assert.Contains(t, f.dialog.FormatPredictionWithConfidence(nil, -1, ""), "N/A")
}
