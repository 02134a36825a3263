package constants

import "time"

var IntentThresholds = struct {
	Best       float64
	Multiple   float64
	Detect     float64
	High       float64
	Medium     float64
	Ambiguous  float64
	MaxChoices int
}{
	Best:       0.15, // getBestIntent cut-off
	Multiple:   0.2,  // hasMultipleIntents cut-off
	Detect:     0.15, // per-turn classification cut-off
	High:       0.7,
	Medium:     0.4,
	Ambiguous:  0.3, // medium-tier disambiguation bar
	MaxChoices: 3,
}

var PredictionDefaults = struct {
	Timeframe string
	Market    string
}{
	Timeframe: "next week",
	Market:    "colombo",
}

var ConfidenceBands = struct {
	High       float64
	Good       float64
	Moderate   float64
	Disclaimer float64
}{
	High:       0.95,
	Good:       0.85,
	Moderate:   0.70,
	Disclaimer: 0.85,
}

var InputLimits = struct {
	MaxMessageLength int
	MaxImportBytes   int
}{
	MaxMessageLength: 500,
	MaxImportBytes:   256 * 1024,
}

var SessionConfig = struct {
	KeyPrefix        string
	IdleTTL          time.Duration
	SweepInterval    time.Duration
	SnapshotTTL      time.Duration
	FlushConcurrency int
}{
	KeyPrefix:        "assistant:session:",
	IdleTTL:          30 * time.Minute,
	SweepInterval:    time.Minute,
	SnapshotTTL:      24 * time.Hour,
	FlushConcurrency: 8,
}

var WebSocketConfig = struct {
	WriteTimeout   time.Duration
	PongTimeout    time.Duration
	PingInterval   time.Duration
	MaxFrameBytes  int64
	ReadBufferSize int
}{
	WriteTimeout:   10 * time.Second,
	PongTimeout:    60 * time.Second,
	PingInterval:   50 * time.Second,
	MaxFrameBytes:  8 * 1024,
	ReadBufferSize: 1024,
}

var CircuitBreakerConfig = struct {
	FailureThreshold int
	ResetTimeout     time.Duration
}{
	FailureThreshold: 3,
	ResetTimeout:     30 * time.Second,
}
