package chat

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/InduJay123/SmartAgriMarket-sub000/internal/adapter"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/constants"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/domain"
	"github.com/InduJay123/SmartAgriMarket-sub000/internal/service/session"
	"github.com/InduJay123/SmartAgriMarket-sub000/pkg/errors"
)

// maxBodyBytes leaves room for the JSON envelope around an exported context.
var maxBodyBytes = int64(constants.InputLimits.MaxImportBytes + 4096)

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	resp := HealthResponse{Status: "ok", Sessions: s.hub.Len()}
	if len(s.checks) > 0 {
		resp.Checks = make(map[string]bool, len(s.checks))
		for name, check := range s.checks {
			ok := check(r.Context())
			resp.Checks[name] = ok
			if !ok {
				resp.Status = "degraded"
			}
		}
	}
	writeJSON(w, http.StatusOK, resp)
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	sess, created, err := s.hub.Open(r.Context(), "")
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, SessionResponse{SessionID: sess.ID(), Created: created})
}

func (s *Server) handleMessage(w http.ResponseWriter, r *http.Request) {
	var req MessageRequest
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	reply, err := s.converse(r.Context(), chi.URLParam(r, "id"), req.Text)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, reply)
}

func (s *Server) handleExportContext(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok, err := s.hub.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !ok {
		writeNotFound(w, id)
		return
	}

	payload, err := sess.Export()
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, ContextPayload{SessionID: sess.ID(), Context: payload})
}

// handleImportContext creates the session when it does not exist yet, so a
// client can move a conversation between deployments.
func (s *Server) handleImportContext(w http.ResponseWriter, r *http.Request) {
	var req ContextPayload
	if err := decodeBody(r, &req); err != nil {
		s.writeError(w, err)
		return
	}

	sess, _, err := s.hub.Open(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := sess.Import(req.Context); err != nil {
		s.writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	sess, ok, err := s.hub.Get(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !ok {
		writeNotFound(w, id)
		return
	}
	writeJSON(w, http.StatusOK, StateResponse{SessionID: sess.ID(), Dialog: sess.DialogState()})
}

func (s *Server) handleResetState(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, err := s.hub.Reset(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !ok {
		writeNotFound(w, id)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleClearSession forgets the session context. With ?purge=true the
// archived transcript is deleted as well.
func (s *Server) handleClearSession(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	ok, err := s.hub.Clear(r.Context(), id)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if !ok {
		writeNotFound(w, id)
		return
	}

	if purge, _ := strconv.ParseBool(r.URL.Query().Get("purge")); purge && s.archive != nil {
		n, err := s.archive.DeleteSession(r.Context(), id)
		if err != nil {
			s.writeError(w, err)
			return
		}
		s.logger.Info("Transcript purged",
			zap.String("session_id", id),
			zap.Int64("turns", n),
		)
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleTranscript(w http.ResponseWriter, r *http.Request) {
	if s.archive == nil {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Error: "transcripts are not archived"})
		return
	}

	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			s.writeError(w, errors.NewValidationError("limit must be a non-negative integer", "limit", raw))
			return
		}
		limit = n
	}

	id := chi.URLParam(r, "id")
	entries, err := s.archive.ListRecent(r.Context(), id, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, TranscriptResponse{SessionID: id, Turns: entries})
}

// converse runs one inbound message through the input adapter and the
// session. Slash commands are answered here without reaching the dialog.
func (s *Server) converse(ctx context.Context, sessionID, raw string) (session.Reply, error) {
	in := s.input.ParseMessage(raw)
	if in.Kind == adapter.InputEmpty {
		return session.Reply{}, errors.NewValidationError("message text is empty", "text", raw)
	}

	sess, _, err := s.hub.Open(ctx, sessionID)
	if err != nil {
		return session.Reply{}, err
	}

	switch in.Kind {
	case adapter.InputReset:
		sess.ResetDialog()
		return s.systemReply(sess, s.formatter.FormatReset()), nil
	case adapter.InputClear:
		if _, err := s.hub.Clear(ctx, sess.ID()); err != nil {
			return session.Reply{}, err
		}
		return s.systemReply(sess, s.formatter.FormatReset()), nil
	case adapter.InputHelp:
		reply := s.systemReply(sess, s.formatter.FormatCapabilities())
		reply.Response.Intent = domain.IntentHelp
		return reply, nil
	}

	reply := sess.Process(ctx, in.Text)
	s.logger.Debug("Turn processed",
		zap.String("session_id", sess.ID()),
		zap.String("intent", reply.Response.Intent.String()),
		zap.String("tier", reply.Response.Tier.String()),
		zap.Int("action_results", len(reply.ActionResults)),
	)
	return reply, nil
}

func (s *Server) systemReply(sess *session.Session, text string) session.Reply {
	return session.Reply{
		SessionID: sess.ID(),
		Response: domain.BotResponse{
			Text: text,
			Tier: domain.TierNone,
		},
	}
}

func decodeBody(r *http.Request, dest any) error {
	body := io.LimitReader(r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dest); err != nil {
		return errors.NewValidationError("invalid JSON body", "body", err.Error())
	}
	return nil
}
