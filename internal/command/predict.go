package command

import (
	"context"
	"math"
	"time"

	"go.uber.org/zap"

	"github.com/InduJay123/SmartAgriMarket-sub000/internal/constants"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/domain"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/predictapi"
	"github.com/InduJay123/SmartAgriMarket-sub000/pkg/errors"
)

// PredictCommand calls the prediction service for one prediction kind and
// replies with the confidence-aware rendering.
type PredictCommand struct {
	kind domain.ActionType
	deps *Dependencies
}

func NewPredictCommand(kind domain.ActionType, deps *Dependencies) *PredictCommand {
	return &PredictCommand{kind: kind, deps: deps}
}

func (c *PredictCommand) Name() string {
	return c.kind.String()
}

func (c *PredictCommand) Description() string {
	switch c.kind {
	case domain.ActionPredictDemand:
		return "Forecast market demand for a crop"
	case domain.ActionPredictYield:
		return "Estimate the expected yield of a crop"
	default:
		return "Predict the market price of a crop"
	}
}

func (c *PredictCommand) Execute(ctx context.Context, cmdCtx *domain.CommandContext, params map[string]any) error {
	req := predictapi.PredictRequest{
		Crop:      paramString(params, domain.ActionKeyCrop),
		Timeframe: paramString(params, domain.ActionKeyTimeframe),
		Market:    paramString(params, domain.ActionKeyMarket),
	}
	if req.Crop == "" {
		return errors.NewValidationError("crop is required", domain.ActionKeyCrop, "")
	}
	if req.Timeframe == "" {
		req.Timeframe = constants.PredictionDefaults.Timeframe
	}
	if req.Market == "" {
		req.Market = constants.PredictionDefaults.Market
	}

	start := time.Now()
	result, err := c.deps.Predictor.Predict(ctx, c.kind, req)
	if c.deps.Observer != nil {
		c.deps.Observer.ObservePrediction(c.kind, err == nil, time.Since(start))
	}

	if err != nil {
		c.deps.Logger.Warn("Prediction unavailable, replying with placeholders",
			zap.String("session_id", cmdCtx.SessionID),
			zap.String("kind", c.kind.String()),
			zap.String("crop", req.Crop),
			zap.Error(err),
		)
		placeholder := &domain.PredictionResult{
			Kind:      c.kind,
			Crop:      req.Crop,
			Market:    req.Market,
			Timeframe: req.Timeframe,
		}
		return cmdCtx.Reply(c.deps.Formatter.FormatPrediction(placeholder, math.NaN(), req.Crop))
	}

	if cmdCtx.Memory != nil {
		cmdCtx.Memory.SetLastPrediction(result)
	}

	return cmdCtx.Reply(c.deps.Formatter.FormatPrediction(result, result.Confidence, req.Crop))
}
