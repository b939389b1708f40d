package fetch

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"net/http"
	"net/url"
	"strings"
	"sync/atomic"
	"time"

	"relist-engine/internal/config"
)

// ErrAllRoutesUnavailable is returned without attempting a request when
// every egress route's circuit is open.
var ErrAllRoutesUnavailable = errors.New("all egress routes unavailable (circuits open)")

// ExhaustedError reports that every allowed attempt failed. Last keeps
// the final attempt's error for the caller.
type ExhaustedError struct {
	URL      string
	Attempts int
	Last     error
}

func (e *ExhaustedError) Error() string {
	return fmt.Sprintf("fetch %s exhausted after %d attempts: %v", e.URL, e.Attempts, e.Last)
}

func (e *ExhaustedError) Unwrap() error { return e.Last }

const maxBodyBytes = 4 << 20 // product pages past 4MB are junk

type route struct {
	name   string
	client *http.Client
}

// Fetcher performs one resilient page fetch: round-robin over egress
// routes whose circuit is not open, per-host rate limiting, retry with
// capped exponential backoff and jitter, bot-block detection.
type Fetcher struct {
	routes      []route
	circuits    *CircuitRegistry
	limiter     *HostLimiter
	maxAttempts int
	backoffBase time.Duration
	backoffCap  time.Duration
	userAgent   string
	rr          atomic.Uint64

	// sleep is swapped out by tests
	sleep func(ctx context.Context, d time.Duration) error
}

func New(cfg config.Config, circuits *CircuitRegistry, limiter *HostLimiter) (*Fetcher, error) {
	timeout := time.Duration(cfg.Fetch.RequestTimeoutSeconds) * time.Second

	var routes []route
	for _, rc := range cfg.Fetch.Routes {
		client, err := routeClient(rc, timeout)
		if err != nil {
			return nil, fmt.Errorf("route %q: %w", rc.Name, err)
		}
		routes = append(routes, route{name: rc.Name, client: client})
	}
	if len(routes) == 0 {
		return nil, errors.New("no egress routes configured")
	}

	return &Fetcher{
		routes:      routes,
		circuits:    circuits,
		limiter:     limiter,
		maxAttempts: cfg.Fetch.MaxAttempts,
		backoffBase: time.Duration(cfg.Fetch.BackoffBaseMillis) * time.Millisecond,
		backoffCap:  time.Duration(cfg.Fetch.BackoffCapMillis) * time.Millisecond,
		userAgent:   cfg.Fetch.UserAgent,
		sleep:       sleepCtx,
	}, nil
}

func routeClient(rc config.Route, timeout time.Duration) (*http.Client, error) {
	addr := strings.TrimSpace(rc.Address)
	if addr == "" || strings.EqualFold(addr, "direct") {
		return &http.Client{Timeout: timeout}, nil
	}
	proxyURL, err := url.Parse(addr)
	if err != nil {
		return nil, fmt.Errorf("bad proxy address: %w", err)
	}
	return &http.Client{
		Timeout:   timeout,
		Transport: &http.Transport{Proxy: http.ProxyURL(proxyURL)},
	}, nil
}

// Routes returns the configured route names, for health reporting.
func (f *Fetcher) Routes() []string {
	names := make([]string, len(f.routes))
	for i, r := range f.routes {
		names[i] = r.name
	}
	return names
}

// Fetch retrieves the raw page at rawURL. Each attempt goes out on the
// next non-open route; failures are recorded against that route's
// circuit and retried after backoff. If every circuit is open the call
// fails fast without touching the network.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (string, error) {
	var last error

	for attempt := 0; attempt < f.maxAttempts; attempt++ {
		if attempt > 0 {
			delay := f.backoffDelay(attempt)
			log.Printf("[fetch] retry %d/%d url=%s in %s", attempt+1, f.maxAttempts, rawURL, delay)
			if err := f.sleep(ctx, delay); err != nil {
				return "", err
			}
		}

		rt, ok := f.nextRoute()
		if !ok {
			return "", ErrAllRoutesUnavailable
		}

		if err := f.limiter.WaitURL(ctx, rawURL); err != nil {
			return "", err
		}

		body, err := f.attempt(ctx, rt, rawURL)
		if err == nil {
			f.circuits.RecordSuccess(rt.name)
			return body, nil
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}

		f.circuits.RecordFailure(rt.name)
		log.Printf("[fetch] attempt %d/%d route=%s url=%s err=%v", attempt+1, f.maxAttempts, rt.name, rawURL, err)
		last = err
	}

	return "", &ExhaustedError{URL: rawURL, Attempts: f.maxAttempts, Last: last}
}

// nextRoute round-robins over routes whose circuit admits a request.
func (f *Fetcher) nextRoute() (route, bool) {
	n := len(f.routes)
	start := int(f.rr.Add(1)-1) % n
	for i := 0; i < n; i++ {
		rt := f.routes[(start+i)%n]
		if f.circuits.Allow(rt.name) {
			return rt, true
		}
	}
	return route{}, false
}

func (f *Fetcher) attempt(ctx context.Context, rt route, rawURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return "", err
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml,application/xml;q=0.9,*/*;q=0.8")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")

	res, err := rt.client.Do(req)
	if err != nil {
		return "", err
	}
	defer res.Body.Close()

	if res.StatusCode < 200 || res.StatusCode > 299 {
		return "", fmt.Errorf("status %d", res.StatusCode)
	}

	b, err := io.ReadAll(io.LimitReader(res.Body, maxBodyBytes))
	if err != nil {
		return "", err
	}

	body := string(b)
	if looksBlocked(body) {
		return "", errors.New("bot detection page")
	}
	return body, nil
}

func (f *Fetcher) backoffDelay(attempt int) time.Duration {
	d := f.backoffBase << (attempt - 1)
	if d > f.backoffCap {
		d = f.backoffCap
	}
	// ±25% jitter
	jitter := time.Duration(rand.Int63n(int64(d)/2+1)) - d/4
	return d + jitter
}

// looksBlocked flags anti-bot interstitials. A blocked page is a route
// failure, not a parse failure: another route may get through.
func looksBlocked(body string) bool {
	if len(body) < 2048 {
		// Amazon's "dog page" and most challenge shells are tiny
		if strings.Contains(body, "automated access") || strings.Contains(body, "captcha") {
			return true
		}
	}
	low := strings.ToLower(body[:min(len(body), 8192)])
	for _, marker := range []string{
		"validatecaptcha",
		"robot check",
		"are you a human",
		"access denied",
		"px-captcha",
	} {
		if strings.Contains(low, marker) {
			return true
		}
	}
	return false
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}
