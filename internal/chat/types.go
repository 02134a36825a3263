package chat

import "github.com/InduJay123/SmartAgriMarket-sub000/internal/domain"

// Client frame types.
const (
	FrameMessage = "message"
	FrameReset   = "reset"
)

// Server frame types.
const (
	FrameSession      = "session"
	FrameReply        = "reply"
	FrameActionResult = "action_result"
	FrameError        = "error"
)

// ClientFrame is a JSON frame sent by a WebSocket client.
type ClientFrame struct {
	Type string `json:"type"`
	Text string `json:"text,omitempty"`
}

// ServerFrame is a JSON frame sent to a WebSocket client.
type ServerFrame struct {
	Type      string              `json:"type"`
	SessionID string              `json:"sessionId,omitempty"`
	Response  *domain.BotResponse `json:"response,omitempty"`
	Text      string              `json:"text,omitempty"`
}

type MessageRequest struct {
	Text string `json:"text"`
}

type SessionResponse struct {
	SessionID string `json:"sessionId"`
	Created   bool   `json:"created"`
}

// ContextPayload carries an exported conversation context as an opaque
// JSON string.
type ContextPayload struct {
	SessionID string `json:"sessionId,omitempty"`
	Context   string `json:"context"`
}

type StateResponse struct {
	SessionID string             `json:"sessionId"`
	Dialog    domain.DialogState `json:"dialog"`
}

type TranscriptResponse struct {
	SessionID string                   `json:"sessionId"`
	Turns     []domain.TranscriptEntry `json:"turns"`
}

type ErrorResponse struct {
	Error   string   `json:"error"`
	Code    string   `json:"code,omitempty"`
	Reasons []string `json:"reasons,omitempty"`
}

type HealthResponse struct {
	Status   string          `json:"status"`
	Sessions int             `json:"sessions"`
	Checks   map[string]bool `json:"checks,omitempty"`
}

// ConnState is the lifecycle state of one WebSocket connection.
type ConnState string

const (
	ConnStateOpen    ConnState = "OPEN"
	ConnStateClosing ConnState = "CLOSING"
	ConnStateClosed  ConnState = "CLOSED"
)

func (s ConnState) String() string {
	return string(s)
}
