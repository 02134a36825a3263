package command

import (
	"context"

	"github.com/InduJay123/SmartAgriMarket-sub000/internal/domain"
)

type ExplainCommand struct {
	deps *Dependencies
}

func NewExplainCommand(deps *Dependencies) *ExplainCommand {
	return &ExplainCommand{deps: deps}
}

func (c *ExplainCommand) Name() string {
	return domain.ActionExplain.String()
}

func (c *ExplainCommand) Description() string {
	return "Explain the factors behind the last prediction"
}

// Execute prefers the prediction carried by the action descriptor and falls
// back to the session's stored one.
func (c *ExplainCommand) Execute(_ context.Context, cmdCtx *domain.CommandContext, params map[string]any) error {
	prediction, _ := params[domain.ActionKeyPrediction].(*domain.PredictionResult)
	if prediction == nil && cmdCtx.Memory != nil {
		prediction = cmdCtx.Memory.LastPrediction()
	}
	return cmdCtx.Reply(c.deps.Formatter.FormatExplanation(prediction))
}
