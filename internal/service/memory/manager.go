package memory

import (
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/InduJay123/SmartAgriMarket-sub000/internal/domain"
)

type Option func(*Manager)

func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

// WithFollowUpDetector replaces the marker-word heuristic.
func WithFollowUpDetector(detector FollowUpDetector) Option {
	return func(m *Manager) {
		if detector != nil {
			m.followUp = detector
		}
	}
}

func WithExtractor(extractor *Extractor) Option {
	return func(m *Manager) {
		if extractor != nil {
			m.extractor = extractor
		}
	}
}

func WithClock(now func() time.Time) Option {
	return func(m *Manager) {
		if now != nil {
			m.now = now
		}
	}
}

// Manager owns the entity memory and turn history of one session.
// It is not safe for concurrent use; the owning session serialises turns.
type Manager struct {
	ctx       *domain.ConversationContext
	extractor *Extractor
	followUp  FollowUpDetector
	now       func() time.Time
	logger    *zap.Logger
}

// NewManager creates a context manager. An empty sessionID gets a fresh UUID.
func NewManager(sessionID string, opts ...Option) (*Manager, error) {
	m := &Manager{
		now:    time.Now,
		logger: zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}

	if m.extractor == nil {
		extractor, err := DefaultExtractor()
		if err != nil {
			return nil, err
		}
		m.extractor = extractor
	}
	if m.followUp == nil {
		m.followUp = m.extractor
	}

	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	m.ctx = domain.NewConversationContext(sessionID)

	return m, nil
}

func (m *Manager) SessionID() string {
	return m.ctx.SessionID
}

func (m *Manager) Extractor() *Extractor {
	return m.extractor
}

// Context returns a deep copy of the current conversation context.
func (m *Manager) Context() *domain.ConversationContext {
	return m.ctx.Clone()
}

// History returns the retained turns, oldest first.
func (m *Manager) History() []domain.Turn {
	out := make([]domain.Turn, len(m.ctx.History))
	copy(out, m.ctx.History)
	return out
}

// UpdateContext records entities mentioned in message and appends a turn.
// Entities not mentioned keep their previous values.
func (m *Manager) UpdateContext(message string, intent domain.IntentName, botResponse string) {
	for entity, value := range m.extractor.ExtractAll(message) {
		m.ctx.Entities[string(entity)] = value
	}

	m.ctx.History = append(m.ctx.History, domain.Turn{
		UserMessage: message,
		BotResponse: botResponse,
		Intent:      intent,
		Timestamp:   m.now(),
	})
	if overflow := len(m.ctx.History) - domain.HistoryLimit; overflow > 0 {
		m.ctx.History = append(m.ctx.History[:0:0], m.ctx.History[overflow:]...)
	}
}

// ResolveEntities combines explicit mentions in message with remembered
// values. Memory is consulted only when the message reads as a follow-up.
func (m *Manager) ResolveEntities(message string) domain.Resolution {
	explicit := m.extractor.ExtractAll(message)
	isFollowUp := m.followUp.IsFollowUp(message)

	res := domain.Resolution{
		Crop:       explicit[domain.EntityCrop],
		Timeframe:  explicit[domain.EntityTimeframe],
		Market:     explicit[domain.EntityMarket],
		IsFollowUp: isFollowUp,
	}
	for _, entity := range []domain.EntityType{domain.EntityCrop, domain.EntityTimeframe, domain.EntityMarket} {
		if _, ok := explicit[entity]; ok {
			res.Mentioned = append(res.Mentioned, entity)
		}
	}

	if isFollowUp {
		if res.Crop == "" {
			res.Crop = m.ctx.LastCrop()
		}
		if res.Timeframe == "" {
			res.Timeframe = m.ctx.LastTimeframe()
		}
		if res.Market == "" {
			res.Market = m.ctx.LastMarket()
		}
		res.FromContext = m.ctx.LastCrop() != "" || m.ctx.LastTimeframe() != ""
	}

	m.logger.Debug("Entities resolved",
		zap.String("session_id", m.ctx.SessionID),
		zap.String("crop", res.Crop),
		zap.String("timeframe", res.Timeframe),
		zap.String("market", res.Market),
		zap.Bool("follow_up", res.IsFollowUp),
		zap.Bool("from_context", res.FromContext),
	)

	return res
}

// Remembered returns the long-lived value for entity, or "" when none is kept.
func (m *Manager) Remembered(entity domain.EntityType) string {
	return m.ctx.Entity(entity)
}

// MissingEntities reports which required entities have never been
// remembered. Only long-lived memory is checked, not the current message.
func (m *Manager) MissingEntities(required []domain.EntityType) []domain.EntityType {
	var missing []domain.EntityType
	for _, entity := range required {
		if m.Remembered(entity) == "" {
			missing = append(missing, entity)
		}
	}
	return missing
}

// ClearContext starts over with a new session id and empty memory.
func (m *Manager) ClearContext() {
	previous := m.ctx.SessionID
	m.ctx = domain.NewConversationContext(uuid.NewString())

	m.logger.Info("Conversation context cleared",
		zap.String("previous_session_id", previous),
		zap.String("session_id", m.ctx.SessionID),
	)
}

func (m *Manager) SetLastPrediction(prediction *domain.PredictionResult) {
	m.ctx.LastPrediction = prediction.Clone()
}

func (m *Manager) LastPrediction() *domain.PredictionResult {
	return m.ctx.LastPrediction.Clone()
}
