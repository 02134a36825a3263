package session

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/InduJay123/SmartAgriMarket-sub000/internal/command"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/domain"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/service/dialog"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/service/memory"
)

// Reply is the outcome of one processed turn: the dialog response and the
// texts produced by executing its action, if any.
type Reply struct {
	SessionID     string             `json:"sessionId"`
	Response      domain.BotResponse `json:"response"`
	ActionResults []string           `json:"actionResults,omitempty"`
	ActionError   string             `json:"actionError,omitempty"`
}

// Session pairs one context manager with one dialog manager. Turns on a
// session are serialised.
type Session struct {
	mu       sync.Mutex
	id       string
	memory   *memory.Manager
	dialog   *dialog.Manager
	hub      *Hub
	lastSeen time.Time
}

// ID is the hub key of the session. It survives ClearContext, which rotates
// the context's own session id.
func (s *Session) ID() string {
	return s.id
}

func (s *Session) touch(now time.Time) {
	s.lastSeen = now
}

func (s *Session) idleSince() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Process runs one user turn, executes the resulting action and archives the
// exchange.
func (s *Session) Process(ctx context.Context, text string) Reply {
	s.mu.Lock()
	defer s.mu.Unlock()

	h := s.hub
	start := h.now()
	s.touch(start)

	before := s.dialog.State().ClarificationAttempts
	resp := s.dialog.ProcessMessage(text)
	h.observer.ObserveTurn(resp, h.now().Sub(start))

	if state := s.dialog.State(); state.ClarificationAttempts > before {
		h.observer.ObserveClarification(state.PendingAction)
	}

	reply := Reply{SessionID: s.id, Response: resp}

	if event, ok := command.EventFromResponse(resp); ok && h.dispatcher != nil {
		cmdCtx := domain.NewCommandContext(s.id, text, s.memory, func(message string) error {
			reply.ActionResults = append(reply.ActionResults, message)
			return nil
		})
		if _, err := h.dispatcher.Publish(ctx, cmdCtx, event); err != nil {
			h.logger.Warn("Action execution failed",
				zap.String("session_id", s.id),
				zap.String("action", event.Type.String()),
				zap.Error(err),
			)
			reply.ActionError = h.formatter.FormatError("I couldn't complete that request.")
		}
	}

	s.archive(ctx, text, resp)
	return reply
}

func (s *Session) archive(ctx context.Context, text string, resp domain.BotResponse) {
	h := s.hub
	if h.transcripts == nil {
		return
	}

	entry := domain.TranscriptEntry{
		SessionID:   s.id,
		UserMessage: text,
		BotResponse: resp.Text,
		Intent:      resp.Intent,
		Tier:        resp.Tier,
		Confidence:  resp.Confidence,
		ActionType:  resp.ActionType,
		CreatedAt:   h.now(),
	}
	if entry.Intent == "" {
		entry.Intent = domain.IntentUnknown
	}
	if entry.Tier == "" {
		entry.Tier = domain.TierNone
	}

	if err := h.transcripts.Append(ctx, entry); err != nil {
		h.logger.Warn("Failed to archive turn",
			zap.String("session_id", s.id),
			zap.Error(err),
		)
	}
}

// DialogState returns a copy of the session's dialog progress.
func (s *Session) DialogState() domain.DialogState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.dialog.State()
}

// Context returns a copy of the session's conversation context.
func (s *Session) Context() *domain.ConversationContext {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.memory.Context()
}

func (s *Session) Export() (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(s.hub.now())
	return s.memory.ExportContext()
}

// Import replaces the conversation context. On error the previous context is
// kept.
func (s *Session) Import(payload string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(s.hub.now())
	return s.memory.ImportContext(payload)
}

// ResetDialog abandons any pending clarification; entity memory is kept.
func (s *Session) ResetDialog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(s.hub.now())
	s.dialog.ResetState()
}

// Clear forgets everything the session remembers.
func (s *Session) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.touch(s.hub.now())
	s.memory.ClearContext()
	s.dialog.Restore(domain.DialogState{})
}

func (s *Session) snapshot() (*domain.SessionSnapshot, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	payload, err := s.memory.ExportContext()
	if err != nil {
		return nil, err
	}
	return &domain.SessionSnapshot{
		SessionID: s.id,
		Context:   payload,
		Dialog:    s.dialog.State(),
		SavedAt:   s.hub.now(),
	}, nil
}
