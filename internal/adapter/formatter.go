package adapter

import (
	"fmt"
	"math"
	"strings"

	"github.com/InduJay123/SmartAgriMarket-sub000/internal/constants"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/domain"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/util"
)

const notAvailable = "N/A"

const (
	uncertaintyDisclaimer = "This prediction has lower certainty. Treat it as a rough estimate and check current market conditions before deciding."
	mediumConfidenceNote  = "(I'm not completely sure I understood you. Let me know if you meant something else.)"
)

// DefaultKeyFactors is shown when a prediction carries no factors of its own.
var DefaultKeyFactors = []string{
	"Seasonal supply and harvest cycles",
	"Historical prices at the selected market",
	"Weather and rainfall outlook",
	"Transport and fuel costs",
}

// SuggestedCrops are offered as quick replies when a crop is needed.
var SuggestedCrops = []string{"Tomato", "Carrot", "Big Onion", "Potato"}

// ConfidenceBand is the qualitative bucket of a model confidence.
type ConfidenceBand struct {
	Emoji string
	Label string
}

// ClassifyConfidence buckets a model confidence. Out-of-range values fall
// into the lowest band.
func ClassifyConfidence(confidence float64) ConfidenceBand {
	switch {
	case confidence >= constants.ConfidenceBands.High:
		return ConfidenceBand{Emoji: "🟢", Label: "High"}
	case confidence >= constants.ConfidenceBands.Good:
		return ConfidenceBand{Emoji: "🔵", Label: "Good"}
	case confidence >= constants.ConfidenceBands.Moderate:
		return ConfidenceBand{Emoji: "🟡", Label: "Moderate"}
	default:
		return ConfidenceBand{Emoji: "🟠", Label: "Lower — treat as estimate"}
	}
}

// ResponseFormatter renders assistant replies.
type ResponseFormatter struct {
	prefix string
}

// NewResponseFormatter creates a formatter. prefix is the slash-command
// prefix mentioned in menus.
func NewResponseFormatter(prefix string) *ResponseFormatter {
	if strings.TrimSpace(prefix) == "" {
		prefix = "/"
	}
	return &ResponseFormatter{prefix: prefix}
}

type predictionView struct {
	Title          string
	Kind           string
	Crop           string
	ValueLabel     string
	Value          string
	Market         string
	Timeframe      string
	Confidence     string
	BandEmoji      string
	Band           string
	Factors        []string
	Disclaimer     bool
	DisclaimerText string
}

func validConfidence(c float64) bool {
	return !math.IsNaN(c) && c >= 0 && c <= 1
}

func (f *ResponseFormatter) buildPredictionView(prediction *domain.PredictionResult, modelConfidence float64, crop string) predictionView {
	view := predictionView{
		Title:          "Prediction",
		Kind:           "market",
		ValueLabel:     "Predicted value",
		Value:          notAvailable,
		Confidence:     notAvailable,
		DisclaimerText: uncertaintyDisclaimer,
		Factors:        DefaultKeyFactors,
	}

	var kind domain.ActionType
	if prediction != nil {
		kind = prediction.Kind
		view.Market = prediction.Market
		view.Timeframe = prediction.Timeframe
		if len(prediction.Factors) > 0 {
			view.Factors = prediction.Factors
		}
		if crop == "" {
			crop = prediction.Crop
		}
	}

	unit := ""
	switch kind {
	case domain.ActionPredictPrice:
		view.Title, view.Kind, view.ValueLabel, unit = "Price prediction", "price", "Predicted price", "LKR/kg"
	case domain.ActionPredictDemand:
		view.Title, view.Kind, view.ValueLabel, unit = "Demand forecast", "demand", "Expected demand", "kg"
	case domain.ActionPredictYield:
		view.Title, view.Kind, view.ValueLabel, unit = "Yield forecast", "yield", "Expected yield", "kg/acre"
	}

	if prediction != nil && prediction.Value != nil && !math.IsNaN(*prediction.Value) {
		if prediction.Unit != "" {
			unit = prediction.Unit
		}
		view.Value = strings.TrimSpace(fmt.Sprintf("%.2f %s", *prediction.Value, unit))
	}

	view.Crop = crop
	if view.Crop == "" {
		view.Crop = notAvailable
	}

	band := ClassifyConfidence(modelConfidence)
	if validConfidence(modelConfidence) {
		view.Confidence = fmt.Sprintf("%d%%", util.Percent(modelConfidence))
	} else {
		band = ClassifyConfidence(0)
	}
	view.BandEmoji = band.Emoji
	view.Band = band.Label
	view.Disclaimer = !validConfidence(modelConfidence) || modelConfidence < constants.ConfidenceBands.Disclaimer

	return view
}

// FormatPrediction renders a prediction with its confidence band. Missing
// values render as "N/A"; a negative or NaN confidence counts as missing.
func (f *ResponseFormatter) FormatPrediction(prediction *domain.PredictionResult, modelConfidence float64, crop string) string {
	view := f.buildPredictionView(prediction, modelConfidence, crop)

	text, err := executeFormatterTemplate("prediction", view)
	if err != nil {
		return fmt.Sprintf("📈 %s: %s\n%s: %s\nConfidence: %s", view.Title, view.Crop, view.ValueLabel, view.Value, view.Confidence)
	}
	return text
}

// FormatExplanation summarises the factors behind a stored prediction.
func (f *ResponseFormatter) FormatExplanation(prediction *domain.PredictionResult) string {
	if prediction == nil {
		return f.FormatNothingToExplain()
	}
	view := f.buildPredictionView(prediction, prediction.Confidence, "")

	text, err := executeFormatterTemplate("explanation", view)
	if err != nil {
		return fmt.Sprintf("📋 The %s prediction for %s was based on: %s", view.Kind, view.Crop, strings.Join(view.Factors, ", "))
	}
	return text
}

// FormatDisambiguation renders a numbered list of candidate intents.
func (f *ResponseFormatter) FormatDisambiguation(options []string) string {
	text, err := executeFormatterTemplate("disambiguation", options)
	if err != nil {
		return "🤔 I'm not quite sure what you mean. Could you rephrase your question?"
	}
	return text
}

func (f *ResponseFormatter) FormatCapabilities() string {
	text, err := executeFormatterTemplate("capabilities", map[string]string{"Prefix": f.prefix})
	if err != nil {
		return "I can predict crop prices, demand and yields, explain predictions and show your dashboard."
	}
	return text
}

func (f *ResponseFormatter) FormatNotUnderstood() string {
	return "🤷 Sorry, I didn't understand that.\n\n" + f.FormatCapabilities()
}

func (f *ResponseFormatter) FormatAcknowledgement() string {
	return "👍 Got it. Is there anything else I can help you with?"
}

func actionNoun(action domain.ActionType) string {
	switch action {
	case domain.ActionPredictDemand:
		return "demand forecast"
	case domain.ActionPredictYield:
		return "yield forecast"
	default:
		return "price prediction"
	}
}

func (f *ResponseFormatter) FormatCropPrompt(action domain.ActionType) string {
	return fmt.Sprintf("🌾 Which crop would you like a %s for? For example: %s.",
		actionNoun(action), strings.Join(SuggestedCrops, ", "))
}

// FormatPredictionStarted acknowledges a resolved prediction request.
func (f *ResponseFormatter) FormatPredictionStarted(action domain.ActionType, crop, timeframe, market string, fromContext bool) string {
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("🔍 Preparing a %s for %s in %s (%s)...", actionNoun(action), crop, titleCase(market), timeframe))
	if fromContext {
		sb.WriteString("\n💭 I used details from earlier in our conversation.")
	}
	return sb.String()
}

func (f *ResponseFormatter) FormatNothingToExplain() string {
	return "There's nothing to explain yet. Ask me for a price, demand or yield prediction first."
}

func (f *ResponseFormatter) FormatExplainStarted(prediction *domain.PredictionResult) string {
	return fmt.Sprintf("📋 Let me explain the %s for %s.", actionNoun(prediction.Kind), prediction.Crop)
}

func (f *ResponseFormatter) FormatClarificationLimit() string {
	return "Let's try something else. Pick one of the crops below, or type " + f.prefix + "help to see what I can do."
}

// FormatUncertain appends the medium-confidence note to a reply.
func (f *ResponseFormatter) FormatUncertain(text string) string {
	return text + "\n\n" + mediumConfidenceNote
}

func (f *ResponseFormatter) FormatDashboard(url string) string {
	if url == "" {
		return "📊 Your dashboard is available from the main menu."
	}
	return fmt.Sprintf("📊 Your dashboard is ready: %s", url)
}

func (f *ResponseFormatter) FormatReset() string {
	return "🔄 Okay, let's start over. What would you like to know?"
}

func (f *ResponseFormatter) FormatError(message string) string {
	return fmt.Sprintf("❌ %s", message)
}

func titleCase(s string) string {
	words := strings.Fields(s)
	for i, w := range words {
		words[i] = strings.ToUpper(w[:1]) + w[1:]
	}
	return strings.Join(words, " ")
}
