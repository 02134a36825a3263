package domain

import "time"

// PredictionMemory is the part of a session's context that action commands
// read and write.
type PredictionMemory interface {
	SetLastPrediction(prediction *PredictionResult)
	LastPrediction() *PredictionResult
}

// CommandContext carries per-action execution data to action commands.
type CommandContext struct {
	SessionID string
	Message   string
	Timestamp time.Time
	Memory    PredictionMemory
	Reply     func(message string) error
}

func NewCommandContext(sessionID, message string, memory PredictionMemory, reply func(string) error) *CommandContext {
	return &CommandContext{
		SessionID: sessionID,
		Message:   message,
		Timestamp: time.Now(),
		Memory:    memory,
		Reply:     reply,
	}
}
