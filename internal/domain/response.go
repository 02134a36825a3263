package domain

// BotResponse is the output of one conversational turn.
type BotResponse struct {
	Text           string         `json:"text"`
	Confidence     float64        `json:"confidence"`
	Intent         IntentName     `json:"intent,omitempty"`
	Tier           ConfidenceTier `json:"tier,omitempty"`
	RequiresAction bool           `json:"requiresAction,omitempty"`
	ActionType     ActionType     `json:"actionType,omitempty"`
	ActionData     map[string]any `json:"actionData,omitempty"`
	Suggestions    []string       `json:"suggestions,omitempty"`
}

// ActionString returns a string value stored in ActionData, or "".
func (r *BotResponse) ActionString(key string) string {
	if r == nil || r.ActionData == nil {
		return ""
	}
	value, _ := r.ActionData[key].(string)
	return value
}
