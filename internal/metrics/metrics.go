package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"

	"github.com/InduJay123/SmartAgriMarket-sub000/internal/domain"
)

var (
	TurnsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_turns_total",
			Help: "Conversation turns processed, by intent and confidence tier",
		},
		[]string{"intent", "tier"},
	)

	TurnDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "assistant_turn_duration_seconds",
			Help:    "Time spent classifying and answering one turn",
			Buckets: []float64{.0005, .001, .0025, .005, .01, .025, .05, .1},
		},
	)

	Clarifications = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_clarifications_total",
			Help: "Crop clarification prompts issued, by pending action",
		},
		[]string{"action"},
	)

	PredictionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "assistant_predictions_total",
			Help: "Prediction API calls, by kind and outcome",
		},
		[]string{"kind", "status"},
	)

	PredictionDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name: "assistant_prediction_duration_seconds",
			Help: "Prediction API latency in seconds",
		},
		[]string{"kind"},
	)

	SessionsActive = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "assistant_sessions_active",
			Help: "Sessions currently held in memory",
		},
	)

	SessionsEvicted = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assistant_sessions_evicted_total",
			Help: "Idle sessions snapshotted and evicted",
		},
	)

	SnapshotFailures = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "assistant_snapshot_failures_total",
			Help: "Session snapshots that could not be written",
		},
	)
)

// Recorder adapts the package collectors to the observer interfaces used by
// the session hub and the action commands.
type Recorder struct{}

func NewRecorder() *Recorder {
	return &Recorder{}
}

func (Recorder) ObserveTurn(resp domain.BotResponse, elapsed time.Duration) {
	intent := string(resp.Intent)
	if intent == "" {
		intent = string(domain.IntentUnknown)
	}
	tier := string(resp.Tier)
	if tier == "" {
		tier = string(domain.TierNone)
	}
	TurnsTotal.WithLabelValues(intent, tier).Inc()
	TurnDuration.Observe(elapsed.Seconds())
}

func (Recorder) ObserveClarification(action domain.ActionType) {
	Clarifications.WithLabelValues(action.String()).Inc()
}

func (Recorder) ObservePrediction(kind domain.ActionType, ok bool, elapsed time.Duration) {
	status := "ok"
	if !ok {
		status = "error"
	}
	PredictionsTotal.WithLabelValues(kind.String(), status).Inc()
	PredictionDuration.WithLabelValues(kind.String()).Observe(elapsed.Seconds())
}

func (Recorder) SessionOpened() {
	SessionsActive.Inc()
}

func (Recorder) SessionEvicted() {
	SessionsActive.Dec()
	SessionsEvicted.Inc()
}

func (Recorder) SnapshotFailed() {
	SnapshotFailures.Inc()
}
