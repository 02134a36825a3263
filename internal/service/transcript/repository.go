package transcript

import (
	"context"
	"database/sql"
	"time"

	"go.uber.org/zap"

	"github.com/InduJay123/SmartAgriMarket-sub000/internal/domain"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/service/database"
	"github.com/InduJay123/SmartAgriMarket-sub000/pkg/errors"
)

const table = "assistant_transcripts"

const schemaDDL = `
	CREATE TABLE IF NOT EXISTS assistant_transcripts (
		id           BIGSERIAL PRIMARY KEY,
		session_id   TEXT NOT NULL,
		user_message TEXT NOT NULL,
		bot_response TEXT NOT NULL,
		intent       TEXT NOT NULL,
		tier         TEXT NOT NULL,
		confidence   DOUBLE PRECISION NOT NULL DEFAULT 0,
		action_type  TEXT,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW()
	);
	CREATE INDEX IF NOT EXISTS idx_assistant_transcripts_session
		ON assistant_transcripts (session_id, created_at DESC);
`

// Repository archives conversation turns in PostgreSQL.
type Repository struct {
	db     *sql.DB
	logger *zap.Logger
}

func NewRepository(postgres *database.PostgresService, logger *zap.Logger) *Repository {
	return NewRepositoryWithDB(postgres.GetDB(), logger)
}

func NewRepositoryWithDB(db *sql.DB, logger *zap.Logger) *Repository {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Repository{db: db, logger: logger}
}

func (r *Repository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schemaDDL); err != nil {
		return errors.NewStorageError("failed to create transcript schema", table, "migrate", err)
	}
	return nil
}

// Append stores one turn. A zero CreatedAt is filled with the current time.
func (r *Repository) Append(ctx context.Context, entry domain.TranscriptEntry) error {
	query := `
		INSERT INTO assistant_transcripts
			(session_id, user_message, bot_response, intent, tier, confidence, action_type, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`

	createdAt := entry.CreatedAt
	if createdAt.IsZero() {
		createdAt = time.Now().UTC()
	}

	var action sql.NullString
	if entry.ActionType != domain.ActionNone {
		action = sql.NullString{String: entry.ActionType.String(), Valid: true}
	}

	_, err := r.db.ExecContext(ctx, query,
		entry.SessionID, entry.UserMessage, entry.BotResponse,
		entry.Intent.String(), entry.Tier.String(), entry.Confidence, action, createdAt,
	)
	if err != nil {
		r.logger.Error("Transcript append failed", zap.String("session_id", entry.SessionID), zap.Error(err))
		return errors.NewStorageError("failed to append transcript", table, "insert", err)
	}

	return nil
}

// ListRecent returns up to limit turns of a session, oldest first.
func (r *Repository) ListRecent(ctx context.Context, sessionID string, limit int) ([]domain.TranscriptEntry, error) {
	if limit <= 0 {
		limit = domain.HistoryLimit
	}

	query := `
		SELECT id, session_id, user_message, bot_response, intent, tier, confidence, action_type, created_at
		FROM (
			SELECT id, session_id, user_message, bot_response, intent, tier, confidence, action_type, created_at
			FROM assistant_transcripts
			WHERE session_id = $1
			ORDER BY created_at DESC, id DESC
			LIMIT $2
		) recent
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.db.QueryContext(ctx, query, sessionID, limit)
	if err != nil {
		return nil, errors.NewStorageError("failed to query transcripts", table, "select", err)
	}
	defer rows.Close()

	entries := make([]domain.TranscriptEntry, 0, limit)
	for rows.Next() {
		var (
			entry  domain.TranscriptEntry
			intent string
			tier   string
			action sql.NullString
		)
		if err := rows.Scan(&entry.ID, &entry.SessionID, &entry.UserMessage, &entry.BotResponse,
			&intent, &tier, &entry.Confidence, &action, &entry.CreatedAt); err != nil {
			return nil, errors.NewStorageError("failed to scan transcript", table, "select", err)
		}
		entry.Intent = domain.IntentName(intent)
		entry.Tier = domain.ConfidenceTier(tier)
		if action.Valid {
			entry.ActionType = domain.ActionType(action.String)
		}
		entries = append(entries, entry)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.NewStorageError("failed to iterate transcripts", table, "select", err)
	}

	return entries, nil
}

// DeleteSession removes every archived turn of a session.
func (r *Repository) DeleteSession(ctx context.Context, sessionID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM assistant_transcripts WHERE session_id = $1`, sessionID)
	if err != nil {
		return 0, errors.NewStorageError("failed to delete transcripts", table, "delete", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, errors.NewStorageError("failed to count deleted transcripts", table, "delete", err)
	}
	return n, nil
}
