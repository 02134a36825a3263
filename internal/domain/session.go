package domain

import "time"

// SessionSnapshot is what the host persists for an idle session: the
// exported conversation context plus the dialog progress.
type SessionSnapshot struct {
	SessionID string      `json:"sessionId"`
	Context   string      `json:"context"`
	Dialog    DialogState `json:"dialog"`
	SavedAt   time.Time   `json:"savedAt"`
}

// TranscriptEntry is one archived turn.
type TranscriptEntry struct {
	ID          int64          `json:"id,omitempty"`
	SessionID   string         `json:"sessionId"`
	UserMessage string         `json:"userMessage"`
	BotResponse string         `json:"botResponse"`
	Intent      IntentName     `json:"intent"`
	Tier        ConfidenceTier `json:"tier"`
	Confidence  float64        `json:"confidence"`
	ActionType  ActionType     `json:"actionType,omitempty"`
	CreatedAt   time.Time      `json:"createdAt"`
}
