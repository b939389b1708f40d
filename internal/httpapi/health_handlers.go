package httpapi

import (
	"encoding/json"
	"net/http"

	"relist-engine/internal/events"
	"relist-engine/internal/fetch"
)

type HealthHandler struct {
	Circuits *fetch.CircuitRegistry
	Hub      *events.Hub
}

func (h HealthHandler) Health(w http.ResponseWriter, r *http.Request) {
	_ = json.NewEncoder(w).Encode(map[string]any{
		"ok":          true,
		"subscribers": h.Hub.Subscribers(),
	})
}

// Routes reports per-route circuit breaker state for the fetcher's
// egress routes.
func (h HealthHandler) Routes(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, h.Circuits.Snapshot())
}
