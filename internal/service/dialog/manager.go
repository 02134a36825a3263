package dialog

import (
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/InduJay123/SmartAgriMarket-sub000/internal/adapter"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/constants"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/domain"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/service/intent"
)

// IntentEngine classifies user text against the intent catalog.
type IntentEngine interface {
	DetectIntents(message string, threshold float64) []domain.IntentMatch
	Lookup(name domain.IntentName) (*domain.Intent, bool)
}

// ContextManager is the slice of the session memory the dialog relies on.
type ContextManager interface {
	SessionID() string
	UpdateContext(message string, intent domain.IntentName, botResponse string)
	ResolveEntities(message string) domain.Resolution
	Remembered(entity domain.EntityType) string
	LastPrediction() *domain.PredictionResult
}

var acknowledgements = map[string]struct{}{
	"yes": {}, "no": {}, "ok": {}, "okay": {}, "yep": {}, "nope": {}, "sure": {}, "y": {}, "n": {},
}

type Option func(*Manager)

func WithLogger(logger *zap.Logger) Option {
	return func(m *Manager) {
		if logger != nil {
			m.logger = logger
		}
	}
}

func WithFormatter(formatter *adapter.ResponseFormatter) Option {
	return func(m *Manager) {
		if formatter != nil {
			m.formatter = formatter
		}
	}
}

// WithMaxClarifications caps consecutive crop prompts. Zero disables the cap.
func WithMaxClarifications(limit int) Option {
	return func(m *Manager) {
		if limit > 0 {
			m.maxClarifications = limit
		}
	}
}

// Manager runs one session's conversation: it classifies each message,
// picks a strategy by confidence tier and composes the reply. It never
// performs I/O; side effects are described in BotResponse action fields.
type Manager struct {
	engine            IntentEngine
	memory            ContextManager
	formatter         *adapter.ResponseFormatter
	state             domain.DialogState
	maxClarifications int
	logger            *zap.Logger
}

func NewManager(engine IntentEngine, memory ContextManager, opts ...Option) *Manager {
	m := &Manager{
		engine:    engine,
		memory:    memory,
		formatter: adapter.NewResponseFormatter("/"),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// State returns a copy of the dialog state.
func (m *Manager) State() domain.DialogState {
	s := m.state
	s.Choices = append([]domain.IntentName(nil), m.state.Choices...)
	return s
}

// Restore replaces the dialog state, typically with one read back from a
// session snapshot.
func (m *Manager) Restore(state domain.DialogState) {
	m.state = state
	m.state.Choices = append([]domain.IntentName(nil), state.Choices...)
}

// ResetState abandons any pending clarification. Entity memory is untouched.
func (m *Manager) ResetState() {
	m.state.WaitingFor = domain.EntityNone
	m.state.PendingAction = domain.ActionNone
	m.state.PendingIntent = ""
	m.state.ClarificationAttempts = 0
	m.state.Choices = nil
	m.state.ChoiceMessage = ""
}

// FormatPredictionWithConfidence renders an executed prediction for display.
func (m *Manager) FormatPredictionWithConfidence(prediction *domain.PredictionResult, modelConfidence float64, crop string) string {
	return m.formatter.FormatPrediction(prediction, modelConfidence, crop)
}

// ProcessMessage handles one user turn. It always returns a reply.
func (m *Manager) ProcessMessage(message string) (resp domain.BotResponse) {
	defer func() {
		if r := recover(); r != nil {
			m.logger.Error("Dialog turn panicked",
				zap.String("session_id", m.memory.SessionID()),
				zap.Any("panic", r),
			)
			m.ResetState()
			resp = domain.BotResponse{Text: m.formatter.FormatNotUnderstood(), Intent: domain.IntentUnknown, Tier: domain.TierNone}
		}
	}()

	text := strings.TrimSpace(message)

	if m.state.HasChoices() {
		choices, original := m.state.Choices, m.state.ChoiceMessage
		m.state.Choices, m.state.ChoiceMessage = nil, ""
		if in, ok := m.pickChoice(text, choices); ok {
			resp = m.handleIntent(in, original, 1.0)
			resp.Tier = domain.TierHigh
			return m.finish(original, resp)
		}
	}

	matches := m.engine.DetectIntents(text, constants.IntentThresholds.Detect)

	var top *domain.IntentMatch
	if len(matches) > 0 {
		top = &matches[0]
	}

	if resp, ok := m.completePending(text, top); ok {
		return resp
	}
	if resp, ok := m.carryOver(text, top); ok {
		return resp
	}

	switch {
	case top == nil:
		return m.log(text, m.noMatch(text))

	case top.Confidence >= constants.IntentThresholds.High:
		resp = m.handleIntent(top.Intent, text, top.Confidence)
		resp.Tier = domain.TierHigh
		return m.finish(text, resp)

	case top.Confidence >= constants.IntentThresholds.Medium:
		if options := ambiguous(matches); len(options) >= 2 {
			return m.log(text, m.disambiguate(text, options, top.Confidence))
		}
		resp = m.handleIntent(top.Intent, text, top.Confidence)
		resp.Text = m.formatter.FormatUncertain(resp.Text)
		resp.Tier = domain.TierMedium
		return m.finish(text, resp)

	default:
		return m.log(text, domain.BotResponse{
			Text:       m.formatter.FormatCapabilities(),
			Confidence: top.Confidence,
			Intent:     top.Name,
			Tier:       domain.TierLow,
		})
	}
}

func (m *Manager) noMatch(text string) domain.BotResponse {
	resp := domain.BotResponse{Intent: domain.IntentUnknown, Tier: domain.TierNone}

	tokens := intent.Tokenize(text)
	if len(tokens) == 1 {
		if _, ok := acknowledgements[tokens[0]]; ok {
			resp.Text = m.formatter.FormatAcknowledgement()
			return resp
		}
	}

	resp.Text = m.formatter.FormatNotUnderstood()
	return resp
}

// ambiguous returns the candidates that clear the disambiguation bar, best first.
func ambiguous(matches []domain.IntentMatch) []domain.IntentMatch {
	var out []domain.IntentMatch
	for _, match := range matches {
		if match.Confidence < constants.IntentThresholds.Ambiguous {
			break
		}
		out = append(out, match)
		if len(out) == constants.IntentThresholds.MaxChoices {
			break
		}
	}
	return out
}

func (m *Manager) disambiguate(text string, options []domain.IntentMatch, confidence float64) domain.BotResponse {
	names := make([]string, len(options))
	suggestions := make([]string, len(options))
	m.state.Choices = make([]domain.IntentName, len(options))
	for i, option := range options {
		names[i] = option.Intent.DisplayName
		suggestions[i] = strconv.Itoa(i + 1)
		m.state.Choices[i] = option.Name
	}
	m.state.ChoiceMessage = text

	return domain.BotResponse{
		Text:        m.formatter.FormatDisambiguation(names),
		Confidence:  confidence,
		Intent:      options[0].Name,
		Tier:        domain.TierMedium,
		Suggestions: suggestions,
	}
}

func (m *Manager) pickChoice(text string, choices []domain.IntentName) (*domain.Intent, bool) {
	n, err := strconv.Atoi(strings.TrimRight(text, ".)"))
	if err != nil || n < 1 || n > len(choices) {
		return nil, false
	}
	return m.engine.Lookup(choices[n-1])
}

// completePending finishes a prediction that was waiting for a crop when the
// message names one and does not carry a confident intent of its own.
func (m *Manager) completePending(text string, top *domain.IntentMatch) (domain.BotResponse, bool) {
	if m.state.WaitingFor != domain.EntityCrop || !m.state.PendingAction.IsPrediction() {
		return domain.BotResponse{}, false
	}
	if top != nil && top.Confidence >= constants.IntentThresholds.High {
		return domain.BotResponse{}, false
	}

	res := m.memory.ResolveEntities(text)
	if res.Crop == "" {
		return domain.BotResponse{}, false
	}

	in, ok := m.engine.Lookup(m.state.PendingIntent)
	if !ok {
		m.ResetState()
		return domain.BotResponse{}, false
	}

	// The prompting turn already stored any timeframe or market it named.
	if res.Timeframe == "" {
		if res.Timeframe = m.memory.Remembered(domain.EntityTimeframe); res.Timeframe != "" {
			res.FromContext = true
		}
	}
	if res.Market == "" {
		if res.Market = m.memory.Remembered(domain.EntityMarket); res.Market != "" {
			res.FromContext = true
		}
	}

	resp := m.predictionRequest(in, res)
	resp.Confidence = constants.IntentThresholds.High
	resp.Tier = domain.TierHigh
	return m.finish(text, resp), true
}

// carryOver re-issues the last prediction for a follow-up that only names
// new entities, e.g. "what about carrots".
func (m *Manager) carryOver(text string, top *domain.IntentMatch) (domain.BotResponse, bool) {
	if !m.state.LastAction.IsPrediction() {
		return domain.BotResponse{}, false
	}
	if top != nil && top.Confidence >= constants.IntentThresholds.Medium {
		return domain.BotResponse{}, false
	}

	res := m.memory.ResolveEntities(text)
	if !res.IsFollowUp || !res.HasMention() || res.Crop == "" {
		return domain.BotResponse{}, false
	}

	in, ok := m.engine.Lookup(m.state.LastIntent)
	if !ok {
		return domain.BotResponse{}, false
	}

	resp := m.predictionRequest(in, res)
	resp.Confidence = constants.IntentThresholds.Medium
	resp.Tier = domain.TierMedium
	return m.finish(text, resp), true
}

func (m *Manager) handleIntent(in *domain.Intent, text string, confidence float64) domain.BotResponse {
	var resp domain.BotResponse

	switch {
	case in.Action.IsPrediction():
		resp = m.handlePrediction(in, text)

	case in.Action == domain.ActionExplain:
		prediction := m.memory.LastPrediction()
		if prediction == nil {
			resp = domain.BotResponse{Text: m.formatter.FormatNothingToExplain()}
			break
		}
		resp = domain.BotResponse{
			Text:           m.formatter.FormatExplainStarted(prediction),
			RequiresAction: true,
			ActionType:     domain.ActionExplain,
			ActionData:     map[string]any{domain.ActionKeyPrediction: prediction},
		}

	case in.Action == domain.ActionShowDashboard:
		resp = domain.BotResponse{
			Text:           in.Response,
			RequiresAction: true,
			ActionType:     domain.ActionShowDashboard,
		}

	default:
		resp = domain.BotResponse{Text: in.Response}
	}

	resp.Intent = in.Name
	resp.Confidence = confidence
	return resp
}

func (m *Manager) handlePrediction(in *domain.Intent, text string) domain.BotResponse {
	res := m.memory.ResolveEntities(text)
	if res.Crop != "" {
		return m.predictionRequest(in, res)
	}

	if m.maxClarifications > 0 && m.state.ClarificationAttempts >= m.maxClarifications {
		m.logger.Info("Clarification limit reached",
			zap.String("session_id", m.memory.SessionID()),
			zap.String("intent", in.Name.String()),
			zap.Int("attempts", m.state.ClarificationAttempts),
		)
		m.ResetState()
		return domain.BotResponse{
			Text:        m.formatter.FormatClarificationLimit(),
			Suggestions: append([]string(nil), adapter.SuggestedCrops...),
		}
	}

	m.state.WaitingFor = domain.EntityCrop
	m.state.PendingAction = in.Action
	m.state.PendingIntent = in.Name
	m.state.ClarificationAttempts++

	return domain.BotResponse{
		Text:        m.formatter.FormatCropPrompt(in.Action),
		Suggestions: append([]string(nil), adapter.SuggestedCrops...),
	}
}

// predictionRequest builds the action descriptor for a resolved crop and
// closes any pending clarification.
func (m *Manager) predictionRequest(in *domain.Intent, res domain.Resolution) domain.BotResponse {
	timeframe := res.Timeframe
	if timeframe == "" {
		timeframe = constants.PredictionDefaults.Timeframe
	}
	market := res.Market
	if market == "" {
		market = constants.PredictionDefaults.Market
	}

	m.ResetState()
	m.state.LastAction = in.Action
	m.state.LastIntent = in.Name

	return domain.BotResponse{
		Text:           m.formatter.FormatPredictionStarted(in.Action, res.Crop, timeframe, market, res.FromContext),
		Intent:         in.Name,
		RequiresAction: true,
		ActionType:     in.Action,
		ActionData: map[string]any{
			domain.ActionKeyCrop:        res.Crop,
			domain.ActionKeyTimeframe:   timeframe,
			domain.ActionKeyMarket:      market,
			domain.ActionKeyFromContext: res.FromContext,
		},
	}
}

// finish records a handled-intent turn in memory with the final reply text.
func (m *Manager) finish(text string, resp domain.BotResponse) domain.BotResponse {
	m.memory.UpdateContext(text, resp.Intent, resp.Text)
	return m.log(text, resp)
}

func (m *Manager) log(text string, resp domain.BotResponse) domain.BotResponse {
	m.logger.Debug("Dialog turn",
		zap.String("session_id", m.memory.SessionID()),
		zap.Int("length", len(text)),
		zap.String("intent", resp.Intent.String()),
		zap.String("tier", resp.Tier.String()),
		zap.Float64("confidence", resp.Confidence),
		zap.String("action", resp.ActionType.String()),
		zap.Int("clarifications", m.state.ClarificationAttempts),
	)
	return resp
}
