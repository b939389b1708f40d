package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"sync/atomic"
	"syscall"
	"time"

	"github.com/gofrs/flock"

	"relist-engine/internal/bulk"
	"relist-engine/internal/cache"
	"relist-engine/internal/compliance"
	"relist-engine/internal/config"
	"relist-engine/internal/convert"
	"relist-engine/internal/events"
	"relist-engine/internal/fetch"
	"relist-engine/internal/httpapi"
	"relist-engine/internal/pipeline"
	"relist-engine/internal/pricing"
	"relist-engine/internal/publish"
	"relist-engine/internal/ratelimit"
	"relist-engine/internal/scheduler"
	"relist-engine/internal/secrets"
	"relist-engine/internal/store"
)

func main() {
	// Engine data dir: use env if provided, else local folder.
	dataDir := os.Getenv("RELIST_DATA_DIR")
	if dataDir == "" {
		dataDir = "."
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		log.Fatal(err)
	}

	// One engine per data dir. A second instance would race the
	// sqlite file and double-run bulk jobs.
	lock := flock.New(filepath.Join(dataDir, "engine.lock"))
	locked, err := lock.TryLock()
	if err != nil {
		log.Fatalf("data dir lock failed: %v", err)
	}
	if !locked {
		log.Fatalf("another engine instance holds %s", lock.Path())
	}
	defer lock.Unlock()

	defaultCfgPath := filepath.Join("config", "config.yml")
	userCfgPath, err := config.EnsureUserConfig(dataDir, defaultCfgPath)
	if err != nil {
		log.Fatalf("config bootstrap failed: %v", err)
	}

	// Load config and keep it reloadable
	var cfgVal atomic.Value // stores config.Config
	loadCfg := func() (config.Config, error) {
		cfg, err := config.Load(userCfgPath)
		if err != nil {
			return cfg, err
		}
		cfg, vr := config.NormalizeAndValidate(cfg)
		for _, w := range vr.Warnings {
			log.Printf("level=warn msg=\"config\" warn=%q", w)
		}
		if !vr.OK() {
			return cfg, fmt.Errorf("config invalid: %v", vr.Errors)
		}
		if err := config.OverlayRoutes(&cfg, filepath.Join(dataDir, "routes.yml")); err != nil {
			return cfg, fmt.Errorf("routes overlay: %w", err)
		}
		return cfg, nil
	}
	cfg, err := loadCfg()
	if err != nil {
		log.Fatalf("config load failed (%s): %v", userCfgPath, err)
	}
	cfgVal.Store(cfg)

	dbPath := filepath.Join(dataDir, "relist.db")
	db, err := store.Open(dbPath)
	if err != nil {
		log.Fatal(err)
	}
	defer db.Close()

	if err := store.Migrate(db.Pool); err != nil {
		log.Fatal(err)
	}

	hub := events.NewHub()

	circuits := fetch.NewCircuitRegistry(cfg.Fetch.FailureThreshold, time.Duration(cfg.Fetch.CooldownSeconds)*time.Second)
	hostLimiter := fetch.NewHostLimiter(cfg.Fetch.HostReqPerSec, cfg.Fetch.HostBurst)
	fetcher, err := fetch.New(cfg, circuits, hostLimiter)
	if err != nil {
		log.Fatalf("fetcher init failed: %v", err)
	}

	productCache := cache.New(cfg.Cache.RedisAddr, time.Duration(cfg.Cache.TTLSeconds)*time.Second)
	defer productCache.Close()

	deps := pipeline.Deps{
		Fetcher:   fetcher,
		Checker:   compliance.New(cfg),
		Converter: convert.New(cfg.Pipeline.DescriptionTemplate),
		Pricer:    pricing.New(cfg),
		Cache:     productCache,
		Store:     db,
	}
	if cfg.Publish.Endpoint != "" {
		account := cfg.Publish.KeyringAccount
		deps.Publisher = publish.New(cfg.Publish.Endpoint, func() (string, error) {
			return secrets.GetPublishToken(account)
		})
	}

	executor := pipeline.New(deps,
		time.Duration(cfg.Pipeline.ItemTimeoutSeconds)*time.Second,
		cfg.Pipeline.TargetMarginPct)

	engine := bulk.NewEngine(executor, hub,
		cfg.Bulk.MaxURLs, cfg.Bulk.Concurrency,
		time.Duration(cfg.Bulk.HeartbeatSeconds)*time.Second,
		time.Duration(cfg.Bulk.RetentionSeconds)*time.Second)

	limiter := ratelimit.New(cfg.Limits.ConversionsPerMinute, cfg.Limits.Burst)

	mux := httpapi.NewMux(httpapi.Deps{
		DB:          db,
		Hub:         hub,
		Engine:      engine,
		Runner:      executor,
		Circuits:    circuits,
		Limiter:     limiter,
		CfgVal:      &cfgVal,
		UserCfgPath: userCfgPath,
		LoadCfg:     loadCfg,
	})

	handler := httpapi.Chain(mux,
		httpapi.RequestID,
		httpapi.Recover,
		httpapi.AccessLog,
		httpapi.Cors,
	)

	addr := fmt.Sprintf("127.0.0.1:%d", cfg.App.Port)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		log.Fatal(err)
	}
	log.Printf("engine listening on http://%s (db=%s routes=%d)", addr, dbPath, len(fetcher.Routes()))

	srv := &http.Server{
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	bg, stopBg := context.WithCancel(context.Background())
	defer stopBg()
	go scheduler.Every(bg, 10*time.Minute, "checkpoint", func(ctx context.Context) error {
		_, err := db.Pool.ExecContext(ctx, `PRAGMA wal_checkpoint(PASSIVE);`)
		return err
	})

	errCh := make(chan error, 1)
	go func() { errCh <- srv.Serve(ln) }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	case s := <-sig:
		log.Printf("shutting down on %v", s)
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := srv.Shutdown(ctx); err != nil {
			log.Printf("level=error msg=\"shutdown\" err=%v", err)
		}
	}
}
