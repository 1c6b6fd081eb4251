package handlers

import "net/http"

// Health reports liveness plus whether a generated result set exists yet.
func (a *App) Health(w http.ResponseWriter, r *http.Request) {
	a.json(w, http.StatusOK, map[string]any{
		"status":    "ok",
		"ads_ready": a.Studio.Results() != nil,
	})
}
