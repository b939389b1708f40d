package httpapi

import (
	"sync/atomic"

	"relist-engine/internal/bulk"
	"relist-engine/internal/config"
	"relist-engine/internal/events"
	"relist-engine/internal/fetch"
	"relist-engine/internal/ratelimit"
	"relist-engine/internal/store"
)

type Deps struct {
	DB *store.DB

	Hub *events.Hub

	// Engine runs bulk jobs; Runner serves single conversions.
	Engine *bulk.Engine
	Runner bulk.Runner

	Circuits *fetch.CircuitRegistry
	Limiter  *ratelimit.PerCaller

	// Atomic store holding config.Config
	CfgVal *atomic.Value

	// Config persistence
	UserCfgPath string
	LoadCfg     func() (config.Config, error)
}
