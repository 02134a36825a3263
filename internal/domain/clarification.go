package domain

// DialogState tracks clarification progress across turns of one session.
// LastAction and LastIntent describe the most recent prediction request issued.
type DialogState struct {
	WaitingFor            EntityType   `json:"waitingFor,omitempty"`
	PendingAction         ActionType   `json:"pendingAction,omitempty"`
	PendingIntent         IntentName   `json:"pendingIntent,omitempty"`
	ClarificationAttempts int          `json:"clarificationAttempts"`
	Choices               []IntentName `json:"choices,omitempty"`
	ChoiceMessage         string       `json:"choiceMessage,omitempty"`
	LastAction            ActionType   `json:"lastAction,omitempty"`
	LastIntent            IntentName   `json:"lastIntent,omitempty"`
}

func (s DialogState) IsWaiting() bool {
	return s.WaitingFor != EntityNone
}

// HasChoices reports whether the last reply offered a numbered intent list.
func (s DialogState) HasChoices() bool {
	return len(s.Choices) > 0
}
