package command

import (
	"context"

	"github.com/InduJay123/SmartAgriMarket-sub000/internal/domain"
)

type DashboardCommand struct {
	deps *Dependencies
}

func NewDashboardCommand(deps *Dependencies) *DashboardCommand {
	return &DashboardCommand{deps: deps}
}

func (c *DashboardCommand) Name() string {
	return domain.ActionShowDashboard.String()
}

func (c *DashboardCommand) Description() string {
	return "Link to the market dashboard"
}

func (c *DashboardCommand) Execute(_ context.Context, cmdCtx *domain.CommandContext, _ map[string]any) error {
	return cmdCtx.Reply(c.deps.Formatter.FormatDashboard(c.deps.DashboardURL))
}
