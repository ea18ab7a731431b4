package httpapp

import (
	"net/http"

	"github.com/cesargomez89/nowplaying/internal/http/dto"
)

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// Albums runs one poll cycle on a fresh updater and returns the result, for
// clients that cannot hold a stream open.
func (h *Handler) Albums(w http.ResponseWriter, r *http.Request) {
	update := h.NewUpdater().CheckForUpdates(r.Context())
	writeJSON(w, http.StatusOK, dto.FromAlbums(update.Albums, h.now()))
}

func (h *Handler) ClearCache(w http.ResponseWriter, r *http.Request) {
	req, errs := dto.ParseClearCache(r)
	if len(errs) > 0 {
		writeValidation(w, errs)
		return
	}

	var (
		cleared int
		err     error
	)
	if len(req.Namespaces) == 0 {
		cleared, err = h.Cache.ClearAll(r.Context())
	} else {
		for _, ns := range req.Namespaces {
			var n int
			n, err = h.Cache.Clear(r.Context(), ns)
			cleared += n
			if err != nil {
				break
			}
		}
	}
	if err != nil {
		h.Logger.Error("Failed to clear cache", "error", err)
		writeError(w, http.StatusInternalServerError, "failed to clear cache")
		return
	}

	writeJSON(w, http.StatusOK, dto.ClearCacheResponse{Namespaces: req.Names(), Cleared: cleared})
}
