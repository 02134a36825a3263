package domain

// PredictionResult is the payload returned by the remote prediction API.
// Value is nil when the API could not produce a number.
type PredictionResult struct {
	Kind       ActionType `json:"kind"`
	Crop       string     `json:"crop"`
	Market     string     `json:"market,omitempty"`
	Timeframe  string     `json:"timeframe,omitempty"`
	Value      *float64   `json:"value,omitempty"`
	Unit       string     `json:"unit,omitempty"`
	Confidence float64    `json:"confidence"`
	Factors    []string   `json:"factors,omitempty"`
}

func (p *PredictionResult) Clone() *PredictionResult {
	if p == nil {
		return nil
	}
	clone := *p
	if p.Value != nil {
		v := *p.Value
		clone.Value = &v
	}
	if p.Factors != nil {
		clone.Factors = append([]string(nil), p.Factors...)
	}
	return &clone
}
