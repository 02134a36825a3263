package domain

import (
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/util"
)

type IntentName string

const (
	IntentUnknown            IntentName = "unknown"
	IntentPricePrediction    IntentName = "price_prediction"
	IntentYieldPrediction    IntentName = "yield_prediction"
	IntentDemandPrediction   IntentName = "demand_prediction"
	IntentExplanation        IntentName = "explanation"
	IntentGreeting           IntentName = "greeting"
	IntentHelp               IntentName = "help"
	IntentBrowse             IntentName = "browse"
	IntentMarketTrends       IntentName = "market_trends"
	IntentQualityInfo        IntentName = "quality_info"
	IntentOrderInfo          IntentName = "order_info"
	IntentFarmerRegistration IntentName = "farmer_registration"
	IntentGratitude          IntentName = "gratitude"
	IntentFarewell           IntentName = "farewell"
	IntentModelAccuracy      IntentName = "model_accuracy"
	IntentShowDashboard      IntentName = "show_dashboard"
)

func (n IntentName) String() string {
	return string(n)
}

func NormalizeIntentName(raw string) IntentName {
	name := IntentName(util.Normalize(raw))
	switch name {
	case IntentPricePrediction, IntentYieldPrediction, IntentDemandPrediction,
		IntentExplanation, IntentGreeting, IntentHelp, IntentBrowse,
		IntentMarketTrends, IntentQualityInfo, IntentOrderInfo,
		IntentFarmerRegistration, IntentGratitude, IntentFarewell,
		IntentModelAccuracy, IntentShowDashboard:
		return name
	default:
		return IntentUnknown
	}
}

// Intent is one entry of the fixed intent catalog.
type Intent struct {
	Name             IntentName
	DisplayName      string
	Keywords         []string
	Weight           float64
	Response         string
	RequiredEntities []EntityType
	Action           ActionType
}

// IntentMatch is the result of scoring one message against one catalog intent.
type IntentMatch struct {
	Intent          *Intent    `json:"-"`
	Name            IntentName `json:"intent"`
	Confidence      float64    `json:"confidence"`
	MatchedKeywords []string   `json:"matchedKeywords,omitempty"`
}

type ConfidenceTier string

const (
	TierNone   ConfidenceTier = "none"
	TierLow    ConfidenceTier = "low"
	TierMedium ConfidenceTier = "medium"
	TierHigh   ConfidenceTier = "high"
)

func (t ConfidenceTier) String() string {
	return string(t)
}
