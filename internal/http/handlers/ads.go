package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"server/internal/adgen"
	"server/internal/domain"
	"server/internal/middleware"
	"server/pkg/zip"
)

type generateRequest struct {
	Assets      []domain.ImageAsset `json:"assets"`
	Copy        domain.AdCopy       `json:"copy"`
	SkipCopy    bool                `json:"skip_copy"`
	AspectRatio string              `json:"aspect_ratio"`
}

type adResponse struct {
	Index     int    `json:"index"`
	Direction string `json:"direction"`
	Label     string `json:"label"`
	Data      []byte `json:"data"`
	MIME      string `json:"mime_type"`
}

func (a *App) adResponses(results []domain.AdResult) []adResponse {
	directions := a.Studio.Directions()
	out := make([]adResponse, len(results))
	for i, res := range results {
		out[i] = adResponse{
			Index:     i,
			Direction: directions[i].ID,
			Label:     directions[i].Label,
			Data:      res.Data,
			MIME:      res.MIME,
		}
	}
	return out
}

// AdsGenerate runs the full batch: one ad per creative direction, all or
// nothing.
func (a *App) AdsGenerate(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "invalid payload")
		return
	}

	results, err := a.Studio.Generate(r.Context(), adgen.Request{
		Assets:      req.Assets,
		Copy:        req.Copy,
		SkipCopy:    req.SkipCopy,
		AspectRatio: req.AspectRatio,
		Locale:      middleware.LocaleFromContext(r.Context()),
	})
	if err != nil {
		a.writeFailure(w, err)
		return
	}

	a.json(w, http.StatusOK, map[string]any{"ads": a.adResponses(results)})
}

// AdsList returns the current result set.
func (a *App) AdsList(w http.ResponseWriter, r *http.Request) {
	results := a.Studio.Results()
	if results == nil {
		a.error(w, http.StatusNotFound, "not_found", "no generated ads yet")
		return
	}
	a.json(w, http.StatusOK, map[string]any{"ads": a.adResponses(results)})
}

// AdRegenerate replaces a single slot in place.
func (a *App) AdRegenerate(w http.ResponseWriter, r *http.Request) {
	index, ok := a.slotIndex(w, r)
	if !ok {
		return
	}
	result, err := a.Studio.Regenerate(r.Context(), index)
	if err != nil {
		a.writeFailure(w, err)
		return
	}
	directions := a.Studio.Directions()
	a.json(w, http.StatusOK, adResponse{
		Index:     index,
		Direction: directions[index].ID,
		Label:     directions[index].Label,
		Data:      result.Data,
		MIME:      result.MIME,
	})
}

// AdDownload streams one slot's image bytes.
func (a *App) AdDownload(w http.ResponseWriter, r *http.Request) {
	index, ok := a.slotIndex(w, r)
	if !ok {
		return
	}
	result, err := a.Studio.Result(index)
	if err != nil {
		a.writeFailure(w, err)
		return
	}
	directions := a.Studio.Directions()
	filename := fmt.Sprintf("ad-%s.%s", directions[index].ID, extensionFor(result.MIME))
	w.Header().Set("Content-Type", result.MIME)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(result.Data)
}

// AdsDownloadAll bundles the whole result set into one zip archive.
func (a *App) AdsDownloadAll(w http.ResponseWriter, r *http.Request) {
	results := a.Studio.Results()
	if results == nil {
		a.error(w, http.StatusNotFound, "not_found", "no generated ads yet")
		return
	}
	directions := a.Studio.Directions()
	assets := make([]zip.Asset, len(results))
	for i, res := range results {
		assets[i] = zip.Asset{
			Filename: fmt.Sprintf("ad-%02d-%s.%s", i+1, directions[i].ID, extensionFor(res.MIME)),
			MIME:     res.MIME,
			Data:     res.Data,
		}
	}
	archive, err := zip.ArchiveAssets(assets)
	if err != nil {
		a.Logger.Error().Err(err).Msg("failed to build ads archive")
		a.error(w, http.StatusInternalServerError, "internal", "failed to build the download archive")
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="ads.zip"`)
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(archive)
}

func (a *App) slotIndex(w http.ResponseWriter, r *http.Request) (int, bool) {
	raw := chi.URLParam(r, "index")
	index, err := strconv.Atoi(raw)
	if err != nil {
		a.error(w, http.StatusBadRequest, "bad_request", "slot index must be an integer")
		return 0, false
	}
	return index, true
}

func extensionFor(mime string) string {
	switch mime {
	case "image/png":
		return "png"
	case "image/jpeg":
		return "jpg"
	case "image/webp":
		return "webp"
	default:
		return "bin"
	}
}
