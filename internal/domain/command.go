package domain

// ActionType tags the side-effecting operation a host must perform for a turn.
type ActionType string

const (
	ActionNone          ActionType = ""
	ActionPredictPrice  ActionType = "predict_price"
	ActionPredictYield  ActionType = "predict_yield"
	ActionPredictDemand ActionType = "predict_demand"
	ActionExplain       ActionType = "explain"
	ActionShowDashboard ActionType = "show_dashboard"
)

func (a ActionType) String() string {
	return string(a)
}

func (a ActionType) IsValid() bool {
	switch a {
	case ActionPredictPrice, ActionPredictYield, ActionPredictDemand,
		ActionExplain, ActionShowDashboard:
		return true
	default:
		return false
	}
}

func (a ActionType) IsPrediction() bool {
	switch a {
	case ActionPredictPrice, ActionPredictYield, ActionPredictDemand:
		return true
	default:
		return false
	}
}

// Action data keys shared by the dialog manager and the action commands.
const (
	ActionKeyCrop        = "crop"
	ActionKeyTimeframe   = "timeframe"
	ActionKeyMarket      = "market"
	ActionKeyFromContext = "fromContext"
	ActionKeyPrediction  = "prediction"
)
