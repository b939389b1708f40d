package httpapi

import "net/http"

// NewMux wires every handler onto a raw mux; main() wraps it in the
// middleware chain.
func NewMux(d Deps) *http.ServeMux {
	mux := http.NewServeMux()

	// Conversions
	cv := ConvertHandler{Runner: d.Runner, Engine: d.Engine, Limiter: d.Limiter, Hub: d.Hub}
	mux.HandleFunc("/convert", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: cv.Single,
	}))
	mux.HandleFunc("/convert/bulk", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: cv.Bulk,
	}))

	// Jobs
	jh := JobsHandler{Engine: d.Engine}
	mux.HandleFunc("/jobs/", jh.ByPath) // /jobs/{id} and /jobs/{id}/cancel

	// Stored results
	dh := DBHandler{DB: d.DB}
	mux.HandleFunc("/conversions", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: dh.RecentConversions,
	}))
	mux.HandleFunc("/prices", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: dh.PriceHistory,
	}))
	mux.HandleFunc("/db/checkpoint", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: dh.Checkpoint,
	}))

	// Config
	ch := ConfigHandler{
		CfgVal:      d.CfgVal,
		UserCfgPath: d.UserCfgPath,
		LoadCfg:     d.LoadCfg,
	}
	mux.HandleFunc("/config", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Get,
		http.MethodPut: ch.Put,
	}))
	mux.HandleFunc("/config/path", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Path,
	}))
	mux.HandleFunc("/config/validate", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: ch.Validate,
	}))

	// Secrets (use cfgVal, NOT a snapshot cfg)
	sh := SecretsHandler{CfgVal: d.CfgVal}
	mux.HandleFunc("/api/secrets/publish", methodMux(map[string]http.HandlerFunc{
		http.MethodPost: sh.SetPublishToken,
	}))

	// SSE events
	eh := EventsHandler{Hub: d.Hub}
	mux.HandleFunc("/events", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: eh.ServeSSE,
	}))

	// Health
	hh := HealthHandler{Circuits: d.Circuits, Hub: d.Hub}
	mux.HandleFunc("/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Health,
	}))
	mux.HandleFunc("/routes/health", methodMux(map[string]http.HandlerFunc{
		http.MethodGet: hh.Routes,
	}))

	return mux
}
