package command

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/InduJay123/SmartAgriMarket-sub000/internal/adapter"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/domain"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/predictapi"
)

// Command executes one action type requested by the dialog.
type Command interface {
	Name() string
	Description() string
	Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error
}

// Predictor runs a remote prediction.
type Predictor interface {
	Predict(ctx context.Context, kind domain.ActionType, req predictapi.PredictRequest) (*domain.PredictionResult, error)
}

// PredictionObserver receives the outcome of every prediction call.
type PredictionObserver interface {
	ObservePrediction(kind domain.ActionType, ok bool, elapsed time.Duration)
}

type Dependencies struct {
	Predictor    Predictor
	Formatter    *adapter.ResponseFormatter
	Observer     PredictionObserver
	DashboardURL string
	Logger       *zap.Logger
}

// RegisterDefaults registers every action command.
func RegisterDefaults(registry *Registry, deps *Dependencies) {
	registry.Register(NewPredictCommand(domain.ActionPredictPrice, deps))
	registry.Register(NewPredictCommand(domain.ActionPredictDemand, deps))
	registry.Register(NewPredictCommand(domain.ActionPredictYield, deps))
	registry.Register(NewExplainCommand(deps))
	registry.Register(NewDashboardCommand(deps))
}

func paramString(params map[string]any, key string) string {
	value, _ := params[key].(string)
	return value
}
