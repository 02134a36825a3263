package domain

import "time"

// HistoryLimit caps the number of turns kept in a conversation context.
const HistoryLimit = 20

type Turn struct {
	UserMessage string     `json:"userMessage"`
	BotResponse string     `json:"botResponse"`
	Intent      IntentName `json:"intent"`
	Timestamp   time.Time  `json:"timestamp"`
}

// ConversationContext is the per-session entity memory and turn history.
// Entities is the single source of truth for remembered entity values;
// the LastX accessors are derived from it.
type ConversationContext struct {
	SessionID      string
	Entities       map[string]string
	LastPrediction *PredictionResult
	History        []Turn
}

func NewConversationContext(sessionID string) *ConversationContext {
	return &ConversationContext{
		SessionID: sessionID,
		Entities:  make(map[string]string),
		History:   make([]Turn, 0, HistoryLimit),
	}
}

func (c *ConversationContext) Entity(key EntityType) string {
	if c == nil || c.Entities == nil {
		return ""
	}
	return c.Entities[string(key)]
}

func (c *ConversationContext) LastCrop() string      { return c.Entity(EntityCrop) }
func (c *ConversationContext) LastMarket() string    { return c.Entity(EntityMarket) }
func (c *ConversationContext) LastTimeframe() string { return c.Entity(EntityTimeframe) }

// Clone returns a deep copy safe to hand to callers.
func (c *ConversationContext) Clone() *ConversationContext {
	if c == nil {
		return nil
	}
	clone := &ConversationContext{
		SessionID: c.SessionID,
		Entities:  make(map[string]string, len(c.Entities)),
		History:   make([]Turn, len(c.History)),
	}
	for k, v := range c.Entities {
		clone.Entities[k] = v
	}
	copy(clone.History, c.History)
	if c.LastPrediction != nil {
		clone.LastPrediction = c.LastPrediction.Clone()
	}
	return clone
}
