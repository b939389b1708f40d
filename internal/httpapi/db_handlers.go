package httpapi

import (
	"net"
	"net/http"
	"strconv"

	"relist-engine/internal/store"
)

type DBHandler struct {
	DB *store.DB
}

func (h DBHandler) RecentConversions(w http.ResponseWriter, r *http.Request) {
	limit := queryInt(r, "limit", 50)
	results, err := h.DB.RecentConversions(r.Context(), limit)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, results)
}

func (h DBHandler) PriceHistory(w http.ResponseWriter, r *http.Request) {
	url := r.URL.Query().Get("url")
	if url == "" {
		WriteError(w, r, http.StatusBadRequest, "missing_url", "url query parameter is required")
		return
	}
	limit := queryInt(r, "limit", 100)
	obs, err := h.DB.PriceHistory(r.Context(), url, limit)
	if err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}
	WriteJSON(w, http.StatusOK, obs)
}

// Checkpoint forces a WAL checkpoint. Localhost only.
func (h DBHandler) Checkpoint(w http.ResponseWriter, r *http.Request) {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	if host != "127.0.0.1" && host != "::1" && host != "localhost" {
		WriteError(w, r, http.StatusForbidden, "forbidden", "forbidden")
		return
	}

	if _, err := h.DB.Pool.Exec(`PRAGMA wal_checkpoint(FULL);`); err != nil {
		WriteError(w, r, http.StatusInternalServerError, "db_error", err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func queryInt(r *http.Request, key string, def int) int {
	s := r.URL.Query().Get(key)
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return def
	}
	return n
}
