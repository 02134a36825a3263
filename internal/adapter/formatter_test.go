package adapter

import (
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/InduJay123/SmartAgriMarket-sub000/internal/domain"
)

func floatPtr(v float64) *float64 { return &v }

func TestClassifyConfidence(t *testing.T) {
	tests := []struct {
		confidence float64
		want       string
	}{
		{1.0, "High"},
		{0.95, "High"},
		{0.9, "Good"},
		{0.85, "Good"},
		{0.8, "Moderate"},
		{0.70, "Moderate"},
		{0.69, "Lower — treat as estimate"},
		{0, "Lower — treat as estimate"},
		{math.NaN(), "Lower — treat as estimate"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClassifyConfidence(tt.confidence).Label, "confidence %v", tt.confidence)
	}
}

func TestFormatPrediction(t *testing.T) {
	f := NewResponseFormatter("/")
	pred := &domain.PredictionResult{
		Kind:      domain.ActionPredictPrice,
		Crop:      "Tomato",
		Market:    "colombo",
		Timeframe: "next week",
		Value:     floatPtr(245.5),
	}

	text := f.FormatPrediction(pred, 0.96, "Tomato")
	assert.True(t, strings.HasPrefix(text, "📈 Price prediction: Tomato"))
	assert.Contains(t, text, "Predicted price: 245.50 LKR/kg")
	assert.Contains(t, text, "Market: colombo")
	assert.Contains(t, text, "Timeframe: next week")
	assert.Contains(t, text, "Confidence: 96% 🟢 High")
	assert.Contains(t, text, "• Seasonal supply and harvest cycles")
	assert.NotContains(t, text, "⚠️")
	assert.False(t, strings.HasSuffix(text, "\n"))
}

func TestFormatPredictionDisclaimerBelowGood(t *testing.T) {
	f := NewResponseFormatter("/")
	pred := &domain.PredictionResult{Kind: domain.ActionPredictYield, Crop: "Potato", Value: floatPtr(1200), Unit: "kg/ha", Factors: []string{"Rainfall"}}

	text := f.FormatPrediction(pred, 0.72, "")
	assert.Contains(t, text, "Yield forecast: Potato")
	assert.Contains(t, text, "Expected yield: 1200.00 kg/ha")
	assert.Contains(t, text, "72% 🟡 Moderate")
	assert.Contains(t, text, "• Rainfall")
	assert.Contains(t, text, "⚠️ This prediction has lower certainty")

	text = f.FormatPrediction(pred, 0.85, "")
	assert.NotContains(t, text, "⚠️")
}

func TestFormatPredictionDegradesToNA(t *testing.T) {
	f := NewResponseFormatter("/")

	text := f.FormatPrediction(nil, math.NaN(), "")
	assert.Contains(t, text, "Prediction: N/A")
	assert.Contains(t, text, "Predicted value: N/A")
	assert.Contains(t, text, "Confidence: N/A")
	assert.Contains(t, text, "⚠️")

	text = f.FormatPrediction(&domain.PredictionResult{Kind: domain.ActionPredictDemand}, -1, "Carrot")
	assert.Contains(t, text, "Demand forecast: Carrot")
	assert.Contains(t, text, "Expected demand: N/A")
}

func TestFormatDisambiguation(t *testing.T) {
	f := NewResponseFormatter("/")

	text := f.FormatDisambiguation([]string{"Price prediction", "Demand prediction"})
	assert.Equal(t, "🤔 I'm not quite sure what you mean. Did you want:\n"+
		"1. Price prediction\n"+
		"2. Demand prediction\n\n"+
		"Reply with a number or rephrase your question.", text)
}

func TestFormatCapabilitiesUsesPrefix(t *testing.T) {
	f := NewResponseFormatter("!")

	text := f.FormatCapabilities()
	assert.Contains(t, text, "Crop price predictions")
	assert.Contains(t, text, "Type !reset to start over")
	assert.True(t, strings.HasPrefix(f.FormatNotUnderstood(), "🤷 Sorry, I didn't understand that."))
}

func TestFormatExplanation(t *testing.T) {
	f := NewResponseFormatter("/")
	pred := &domain.PredictionResult{
		Kind:       domain.ActionPredictPrice,
		Crop:       "Carrot",
		Confidence: 0.88,
		Factors:    []string{"Low rainfall", "Festival demand"},
	}

	text := f.FormatExplanation(pred)
	assert.Contains(t, text, "How the price prediction for Carrot was made")
	assert.Contains(t, text, "88% 🔵 Good")
	assert.Contains(t, text, "1. Low rainfall\n2. Festival demand")
	assert.Equal(t, f.FormatNothingToExplain(), f.FormatExplanation(nil))
}

func TestFormatPredictionStarted(t *testing.T) {
	f := NewResponseFormatter("/")

	text := f.FormatPredictionStarted(domain.ActionPredictDemand, "Carrot", "next week", "nuwara eliya", true)
	assert.Equal(t, "🔍 Preparing a demand forecast for Carrot in Nuwara Eliya (next week)...\n💭 I used details from earlier in our conversation.", text)
}
