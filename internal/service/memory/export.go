package memory

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"sort"
	"sync"

	"github.com/xeipuuv/gojsonschema"
	"go.uber.org/zap"

	"github.com/InduJay123/SmartAgriMarket-sub000/internal/constants"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/domain"
	"github.com/InduJay123/SmartAgriMarket-sub000/pkg/errors"
)

const snapshotVersion = 1

//go:embed context.schema.json
var contextSchemaJSON string

var (
	contextSchema     *gojsonschema.Schema
	contextSchemaOnce sync.Once
	contextSchemaErr  error
)

func loadContextSchema() (*gojsonschema.Schema, error) {
	contextSchemaOnce.Do(func() {
		contextSchema, contextSchemaErr = gojsonschema.NewSchema(gojsonschema.NewStringLoader(contextSchemaJSON))
	})
	return contextSchema, contextSchemaErr
}

// snapshot is the portable form of a ConversationContext. The entity map
// travels as key-sorted [key, value] pairs.
type snapshot struct {
	Version        int                      `json:"version"`
	SessionID      string                   `json:"sessionId"`
	Entities       [][2]string              `json:"entities"`
	LastPrediction *domain.PredictionResult `json:"lastPrediction"`
	History        []domain.Turn            `json:"history"`
}

// ExportContext serialises the full context to JSON.
func (m *Manager) ExportContext() (string, error) {
	keys := make([]string, 0, len(m.ctx.Entities))
	for k := range m.ctx.Entities {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	snap := snapshot{
		Version:        snapshotVersion,
		SessionID:      m.ctx.SessionID,
		Entities:       make([][2]string, 0, len(keys)),
		LastPrediction: m.ctx.LastPrediction,
		History:        m.ctx.History,
	}
	for _, k := range keys {
		snap.Entities = append(snap.Entities, [2]string{k, m.ctx.Entities[k]})
	}
	if snap.History == nil {
		snap.History = []domain.Turn{}
	}

	data, err := json.Marshal(snap)
	if err != nil {
		return "", fmt.Errorf("failed to marshal context: %w", err)
	}
	return string(data), nil
}

// ImportContext replaces the context with a previously exported payload.
// Invalid payloads are rejected with an *errors.ImportError and the current
// context is left untouched.
func (m *Manager) ImportContext(payload string) error {
	if len(payload) > constants.InputLimits.MaxImportBytes {
		return m.rejectImport(errors.NewImportError("context payload too large",
			[]string{fmt.Sprintf("payload exceeds %d bytes", constants.InputLimits.MaxImportBytes)}, nil))
	}

	schema, err := loadContextSchema()
	if err != nil {
		return fmt.Errorf("failed to load context schema: %w", err)
	}

	result, err := schema.Validate(gojsonschema.NewStringLoader(payload))
	if err != nil {
		return m.rejectImport(errors.NewImportError("context payload is not valid JSON", nil, err))
	}
	if !result.Valid() {
		reasons := make([]string, len(result.Errors()))
		for i, desc := range result.Errors() {
			reasons[i] = desc.String()
		}
		return m.rejectImport(errors.NewImportError("context payload failed validation", reasons, nil))
	}

	var snap snapshot
	if err := json.Unmarshal([]byte(payload), &snap); err != nil {
		return m.rejectImport(errors.NewImportError("context payload could not be decoded", nil, err))
	}

	next := domain.NewConversationContext(snap.SessionID)
	for _, pair := range snap.Entities {
		next.Entities[pair[0]] = pair[1]
	}
	next.LastPrediction = snap.LastPrediction
	history := snap.History
	if overflow := len(history) - domain.HistoryLimit; overflow > 0 {
		history = history[overflow:]
	}
	next.History = append(next.History, history...)

	m.ctx = next

	m.logger.Debug("Conversation context imported",
		zap.String("session_id", next.SessionID),
		zap.Int("entities", len(next.Entities)),
		zap.Int("history", len(next.History)),
	)

	return nil
}

func (m *Manager) rejectImport(err *errors.ImportError) error {
	m.logger.Warn("Rejected context import",
		zap.String("session_id", m.ctx.SessionID),
		zap.Strings("reasons", err.Reasons),
		zap.Error(err),
	)
	return err
}
