package command

import (
	"context"

	"github.com/InduJay123/SmartAgriMarket-sub000/internal/domain"
)

// ActionEvent is an action descriptor taken from a BotResponse.
type ActionEvent struct {
	Type   domain.ActionType
	Params map[string]any
}

// Dispatcher executes action events against the registry.
type Dispatcher interface {
	Publish(ctx context.Context, cmdCtx *domain.CommandContext, events ...ActionEvent) (int, error)
}

// EventFromResponse extracts the action descriptor of a turn, if any.
func EventFromResponse(resp domain.BotResponse) (ActionEvent, bool) {
	if !resp.RequiresAction || !resp.ActionType.IsValid() {
		return ActionEvent{}, false
	}
	return ActionEvent{Type: resp.ActionType, Params: resp.ActionData}, true
}

type sequentialDispatcher struct {
	registry *Registry
}

// NewSequentialDispatcher creates a dispatcher that executes action events in
// the order they are received.
func NewSequentialDispatcher(registry *Registry) Dispatcher {
	return &sequentialDispatcher{registry: registry}
}

func (d *sequentialDispatcher) Publish(ctx context.Context, cmdCtx *domain.CommandContext, events ...ActionEvent) (int, error) {
	if d == nil || d.registry == nil {
		return 0, nil
	}

	executed := 0
	for _, event := range events {
		if event.Type == domain.ActionNone {
			continue
		}

		if err := d.registry.Execute(ctx, cmdCtx, event.Type.String(), cloneParams(event.Params)); err != nil {
			return executed, err
		}
		executed++
	}
	return executed, nil
}

func cloneParams(src map[string]any) map[string]any {
	if len(src) == 0 {
		return map[string]any{}
	}
	clone := make(map[string]any, len(src))
	for k, v := range src {
		clone[k] = v
	}
	return clone
}
