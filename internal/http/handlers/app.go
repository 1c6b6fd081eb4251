package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"sync"

	"server/internal/adgen"
	"server/internal/domain"
	"server/internal/infra"
)

// App is the handler container. It owns the studio plus the transient
// in-memory edit sessions; nothing here survives a restart.
type App struct {
	Logger infra.Logger
	Studio *adgen.Studio

	mu       sync.Mutex
	sessions map[string]*adgen.EditSession
}

func NewApp(studio *adgen.Studio, logger infra.Logger) *App {
	return &App{
		Logger:   logger,
		Studio:   studio,
		sessions: make(map[string]*adgen.EditSession),
	}
}

func (a *App) json(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func (a *App) error(w http.ResponseWriter, status int, code, message string) {
	a.json(w, status, map[string]string{"code": code, "message": message})
}

// writeFailure maps engine errors onto HTTP statuses. Programming errors are
// client mistakes; busy rejections are conflicts; classified provider
// failures carry their single user-facing message.
func (a *App) writeFailure(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrBusy):
		a.error(w, http.StatusConflict, "busy", err.Error())
	case errors.Is(err, domain.ErrSessionClosed):
		a.error(w, http.StatusGone, "session_closed", err.Error())
	case errors.Is(err, domain.ErrInvalidSlot),
		errors.Is(err, domain.ErrEmptyPrompt),
		errors.Is(err, domain.ErrMissingCopy),
		errors.Is(err, domain.ErrMissingAssets),
		errors.Is(err, domain.ErrNoResults):
		a.error(w, http.StatusBadRequest, "bad_request", err.Error())
	default:
		var failure *adgen.Failure
		if errors.As(err, &failure) {
			switch failure.Category {
			case adgen.CategoryQuota:
				a.error(w, http.StatusTooManyRequests, string(failure.Category), failure.Message)
			case adgen.CategoryPolicy:
				a.error(w, http.StatusUnprocessableEntity, string(failure.Category), failure.Message)
			default:
				a.error(w, http.StatusBadGateway, string(failure.Category), failure.Message)
			}
			return
		}
		a.error(w, http.StatusInternalServerError, "internal", "unexpected error")
	}
}
