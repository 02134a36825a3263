package intent

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/InduJay123/SmartAgriMarket-sub000/internal/domain"
)

func TestDefaultCatalogShape(t *testing.T) {
	catalog := DefaultCatalog()
	require.Equal(t, 15, catalog.Len())

	for i := 0; i < catalog.Len(); i++ {
		in := catalog.At(i)
		assert.NotEmpty(t, in.DisplayName, in.Name)
		assert.NotEmpty(t, in.Response, in.Name)
		assert.Greater(t, in.Weight, 0.0, in.Name)
		assert.GreaterOrEqual(t, len(in.Keywords), 5, in.Name)
		assert.LessOrEqual(t, len(in.Keywords), 12, in.Name)
	}

	price, ok := catalog.ForAction(domain.ActionPredictPrice)
	require.True(t, ok)
	assert.Equal(t, domain.IntentPricePrediction, price.Name)
	assert.Equal(t, []domain.EntityType{domain.EntityCrop}, price.RequiredEntities)

	_, ok = catalog.Get(domain.IntentUnknown)
	assert.False(t, ok)
	assert.Equal(t, "Dashboard", catalog.DisplayName(domain.IntentShowDashboard))
	assert.Equal(t, "unknown", catalog.DisplayName(domain.IntentUnknown))
}

func TestTokenize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  []string
	}{
		{"lowercases and splits", "Predict Tomato PRICE", []string{"predict", "tomato", "price"}},
		{"strips punctuation", "hello, world!!", []string{"hello", "world"}},
		{"drops empty tokens", "  \t ... \n ", []string{}},
		{"collapses whitespace", "a   b", []string{"a", "b"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Tokenize(tt.input))
		})
	}
}

func TestEngineIDF(t *testing.T) {
	engine := NewEngine(DefaultCatalog())

	assert.InDelta(t, math.Log(15), engine.IDF("price"), 1e-9)
	assert.InDelta(t, math.Log(5), engine.IDF("predict"), 1e-9)
	assert.InDelta(t, math.Log(7.5), engine.IDF("market"), 1e-9)
	assert.Zero(t, engine.IDF("tomato"))
}

func TestDetectIntentsNoMatch(t *testing.T) {
	engine := NewEngine(DefaultCatalog())

	for _, msg := range []string{"", "   ", "?!...", "the and of a", "is it the same?", "tomato"} {
		assert.Empty(t, engine.DetectIntents(msg, 0), "message %q", msg)
	}
}

func TestGreetingIsHighConfidence(t *testing.T) {
	engine := NewEngine(DefaultCatalog())

	match, ok := engine.BestIntent("Hello")
	require.True(t, ok)
	assert.Equal(t, domain.IntentGreeting, match.Name)
	assert.GreaterOrEqual(t, match.Confidence, 0.7)
	assert.InDelta(t, 0.7676, match.Confidence, 0.001)
	assert.Equal(t, []string{"hello"}, match.MatchedKeywords)
}

func TestPricePredictionScoring(t *testing.T) {
	engine := NewEngine(DefaultCatalog())

	matches := engine.DetectIntents("predict tomato price", 0.15)
	require.Len(t, matches, 1)
	assert.Equal(t, domain.IntentPricePrediction, matches[0].Name)
	assert.Equal(t, 1.0, matches[0].Confidence)
	assert.Contains(t, matches[0].MatchedKeywords, "price")
	assert.Contains(t, matches[0].MatchedKeywords, "predict price")
	assert.NotContains(t, matches[0].MatchedKeywords, "cost")

	// "predict" alone is shared with yield and demand and stays below the bar.
	all := engine.DetectIntents("predict tomato price", 0)
	require.Len(t, all, 3)
	assert.InDelta(t, 0.1423, all[1].Confidence, 0.001)
	assert.Equal(t, domain.IntentYieldPrediction, all[1].Name)
	assert.Equal(t, domain.IntentDemandPrediction, all[2].Name)
}

func TestAllKeywordsOfSpecificIntent(t *testing.T) {
	engine := NewEngine(DefaultCatalog())

	match, ok := engine.BestIntent("accuracy accurate model accuracy reliable reliability precision error rate trust")
	require.True(t, ok)
	assert.Equal(t, domain.IntentModelAccuracy, match.Name)
	assert.GreaterOrEqual(t, match.Confidence, 0.7)

	match, ok = engine.BestIntent("dashboard analytics charts statistics stats insights show dashboard graphs")
	require.True(t, ok)
	assert.Equal(t, domain.IntentShowDashboard, match.Name)
	assert.GreaterOrEqual(t, match.Confidence, 0.7)
}

func TestThresholdFilters(t *testing.T) {
	engine := NewEngine(DefaultCatalog())

	assert.Empty(t, engine.DetectIntents("hello", 0.9))
	assert.Len(t, engine.DetectIntents("hello", 0.5), 1)
}

func TestHasMultipleIntents(t *testing.T) {
	engine := NewEngine(DefaultCatalog())

	assert.True(t, engine.HasMultipleIntents("price and demand"))
	assert.False(t, engine.HasMultipleIntents("predict tomato price"))
	assert.False(t, engine.HasMultipleIntents("what is this"))
}

func TestCustomConfidenceKeepsCatalogOrderOnTies(t *testing.T) {
	engine := NewEngine(DefaultCatalog(), WithConfidenceFunc(func(float64) float64 { return 0.5 }))

	matches := engine.DetectIntents("demand and price", 0)
	require.Len(t, matches, 2)
	assert.Equal(t, domain.IntentPricePrediction, matches[0].Name)
	assert.Equal(t, domain.IntentDemandPrediction, matches[1].Name)
	assert.Equal(t, 0.5, matches[0].Confidence)
}

func TestLinearConfidence(t *testing.T) {
	assert.Equal(t, 0.0, LinearConfidence(0))
	assert.Equal(t, 0.5, LinearConfidence(1))
	assert.Equal(t, 1.0, LinearConfidence(7))
}
