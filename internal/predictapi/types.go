package predictapi

import "github.com/InduJay123/SmartAgriMarket-sub000/internal/domain"

// PredictRequest is the body sent to the prediction service.
type PredictRequest struct {
	Crop      string `json:"crop"`
	Market    string `json:"market"`
	Timeframe string `json:"timeframe"`
}

// PredictResponse is the prediction service reply. Prediction is null when
// the model could not produce a value.
type PredictResponse struct {
	Prediction *float64 `json:"prediction"`
	Confidence float64  `json:"confidence"`
	Unit       string   `json:"unit,omitempty"`
	Factors    []string `json:"factors,omitempty"`
}

type HealthResponse struct {
	Status string `json:"status"`
}

func endpointFor(kind domain.ActionType) (string, bool) {
	switch kind {
	case domain.ActionPredictPrice:
		return "/predict/price", true
	case domain.ActionPredictDemand:
		return "/predict/demand", true
	case domain.ActionPredictYield:
		return "/predict/yield", true
	default:
		return "", false
	}
}
