package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"server/internal/adgen"
)

type sessionResponse struct {
	SessionID  string `json:"session_id"`
	Index      int    `json:"index"`
	HistoryLen int    `json:"history_len"`
	Live       []byte `json:"live"`
	MIME       string `json:"mime_type"`
}

func (a *App) sessionResponse(id string, sess *adgen.EditSession) sessionResponse {
	live := sess.Live()
	return sessionResponse{
		SessionID:  id,
		Index:      sess.Index(),
		HistoryLen: len(sess.History()),
		Live:       live.Data,
		MIME:       live.MIME,
	}
}

// SessionOpen snapshots one slot into a new edit session.
func (a *App) SessionOpen(w http.ResponseWriter, r *http.Request) {
	index, ok := a.slotIndex(w, r)
	if !ok {
		return
	}
	sess, err := a.Studio.OpenSession(index)
	if err != nil {
		a.writeFailure(w, err)
		return
	}
	id := uuid.NewString()
	a.mu.Lock()
	a.sessions[id] = sess
	a.mu.Unlock()

	a.Logger.Info().Str("session_id", id).Int("slot", index).Msg("edit session opened")
	a.json(w, http.StatusCreated, a.sessionResponse(id, sess))
}

type applyRequest struct {
	Prompt string `json:"prompt"`
}

// SessionApply runs one edit over the session's live value.
func (a *App) SessionApply(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := a.session(w, r)
	if !ok {
		return
	}
	var req applyRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}
	if _, err := sess.Apply(r.Context(), req.Prompt); err != nil {
		a.writeFailure(w, err)
		return
	}
	a.json(w, http.StatusOK, a.sessionResponse(id, sess))
}

// SessionUndo removes the most recent edit.
func (a *App) SessionUndo(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := a.session(w, r)
	if !ok {
		return
	}
	if _, err := sess.Undo(); err != nil {
		a.writeFailure(w, err)
		return
	}
	a.json(w, http.StatusOK, a.sessionResponse(id, sess))
}

// SessionRevert truncates the history back to the original snapshot.
func (a *App) SessionRevert(w http.ResponseWriter, r *http.Request) {
	id, sess, ok := a.session(w, r)
	if !ok {
		return
	}
	if _, err := sess.Revert(); err != nil {
		a.writeFailure(w, err)
		return
	}
	a.json(w, http.StatusOK, a.sessionResponse(id, sess))
}

// SessionClose discards the session. The slot keeps its live value.
func (a *App) SessionClose(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	a.mu.Lock()
	sess, ok := a.sessions[id]
	if ok {
		delete(a.sessions, id)
	}
	a.mu.Unlock()
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "unknown session")
		return
	}
	sess.Close()
	a.Logger.Info().Str("session_id", id).Int("slot", sess.Index()).Msg("edit session closed")
	w.WriteHeader(http.StatusNoContent)
}

func (a *App) session(w http.ResponseWriter, r *http.Request) (string, *adgen.EditSession, bool) {
	id := chi.URLParam(r, "id")
	a.mu.Lock()
	sess, ok := a.sessions[id]
	a.mu.Unlock()
	if !ok {
		a.error(w, http.StatusNotFound, "not_found", "unknown session")
		return "", nil, false
	}
	return id, sess, true
}
