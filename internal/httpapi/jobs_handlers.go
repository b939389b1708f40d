package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"relist-engine/internal/bulk"
)

type JobsHandler struct {
	Engine *bulk.Engine
}

// ByPath routes /jobs/{id} and /jobs/{id}/cancel.
func (h JobsHandler) ByPath(w http.ResponseWriter, r *http.Request) {
	rest := strings.Trim(strings.TrimPrefix(r.URL.Path, "/jobs/"), "/")
	if rest == "" {
		WriteError(w, r, http.StatusNotFound, "not_found", "job id required")
		return
	}
	parts := strings.Split(rest, "/")
	switch {
	case len(parts) == 1:
		if r.Method != http.MethodGet {
			w.Header().Set("Allow", http.MethodGet)
			WriteError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
			return
		}
		h.progress(w, r, parts[0])
	case len(parts) == 2 && parts[1] == "cancel":
		if r.Method != http.MethodPost {
			w.Header().Set("Allow", http.MethodPost)
			WriteError(w, r, http.StatusMethodNotAllowed, "method_not_allowed", "Method not allowed")
			return
		}
		h.cancel(w, r, parts[0])
	default:
		WriteError(w, r, http.StatusNotFound, "not_found", "unknown jobs route")
	}
}

func (h JobsHandler) progress(w http.ResponseWriter, r *http.Request, id string) {
	p, err := h.Engine.Progress(id)
	if err != nil {
		if errors.Is(err, bulk.ErrUnknownJob) {
			WriteError(w, r, http.StatusNotFound, "unknown_job", err.Error())
			return
		}
		WriteError(w, r, http.StatusInternalServerError, "progress_failed", err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, p)
}

func (h JobsHandler) cancel(w http.ResponseWriter, r *http.Request, id string) {
	if err := h.Engine.Cancel(id); err != nil {
		if errors.Is(err, bulk.ErrUnknownJob) {
			WriteError(w, r, http.StatusNotFound, "unknown_job", err.Error())
			return
		}
		WriteError(w, r, http.StatusInternalServerError, "cancel_failed", err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, map[string]any{"cancelled": true, "job_id": id})
}
