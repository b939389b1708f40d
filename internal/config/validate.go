package config

import (
	"fmt"
	"strings"
)

type Validation struct {
	Errors   []string `json:"errors"`
	Warnings []string `json:"warnings"`
}

func (v *Validation) addErr(format string, args ...any) {
	v.Errors = append(v.Errors, fmt.Sprintf(format, args...))
}
func (v *Validation) addWarn(format string, args ...any) {
	v.Warnings = append(v.Warnings, fmt.Sprintf(format, args...))
}
func (v Validation) OK() bool { return len(v.Errors) == 0 }

// NormalizeAndValidate fills unset values with defaults, trims list
// entries, and reports anything that would make the engine misbehave.
func NormalizeAndValidate(cfg Config) (Config, Validation) {
	var out = cfg
	var res Validation

	trimList := func(xs []string) []string {
		seen := map[string]bool{}
		var ys []string
		for _, x := range xs {
			x = strings.TrimSpace(x)
			if x == "" {
				continue
			}
			key := strings.ToLower(x)
			if seen[key] {
				continue
			}
			seen[key] = true
			ys = append(ys, x)
		}
		return ys
	}

	out.Compliance.BlockedBrands = trimList(out.Compliance.BlockedBrands)
	out.Compliance.AdvisoryBrands = trimList(out.Compliance.AdvisoryBrands)
	out.Compliance.RestrictedKeywords = trimList(out.Compliance.RestrictedKeywords)

	// ---- Defaults ----

	if out.App.Port == 0 {
		out.App.Port = 38512
	}
	if out.Fetch.MaxAttempts <= 0 {
		out.Fetch.MaxAttempts = 3
	}
	if out.Fetch.BackoffBaseMillis <= 0 {
		out.Fetch.BackoffBaseMillis = 500
	}
	if out.Fetch.BackoffCapMillis <= 0 {
		out.Fetch.BackoffCapMillis = 8000
	}
	if out.Fetch.RequestTimeoutSeconds <= 0 {
		out.Fetch.RequestTimeoutSeconds = 30
	}
	if out.Fetch.FailureThreshold <= 0 {
		out.Fetch.FailureThreshold = 5
	}
	if out.Fetch.CooldownSeconds <= 0 {
		out.Fetch.CooldownSeconds = 300
	}
	if out.Fetch.HostReqPerSec <= 0 {
		out.Fetch.HostReqPerSec = 0.5
	}
	if out.Fetch.HostBurst <= 0 {
		out.Fetch.HostBurst = 2
	}
	if out.Fetch.UserAgent == "" {
		out.Fetch.UserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) RelistEngine/1.0"
	}
	if len(out.Fetch.Routes) == 0 {
		out.Fetch.Routes = []Route{{Name: "direct", Address: ""}}
	}
	if out.Pipeline.ItemTimeoutSeconds <= 0 {
		out.Pipeline.ItemTimeoutSeconds = 120
	}
	if out.Pipeline.TargetMarginPct <= 0 {
		out.Pipeline.TargetMarginPct = 20
	}
	if out.Pipeline.DescriptionTemplate == "" {
		out.Pipeline.DescriptionTemplate = "modern"
	}
	if out.Bulk.MaxURLs <= 0 {
		out.Bulk.MaxURLs = 50
	}
	if out.Bulk.Concurrency <= 0 {
		out.Bulk.Concurrency = 5
	}
	if out.Bulk.HeartbeatSeconds <= 0 {
		out.Bulk.HeartbeatSeconds = 15
	}
	if out.Bulk.RetentionSeconds <= 0 {
		out.Bulk.RetentionSeconds = 900
	}
	if out.Pricing.DefaultShipping <= 0 {
		out.Pricing.DefaultShipping = 5.00
	}
	if out.Pricing.PaymentRatePct <= 0 {
		out.Pricing.PaymentRatePct = 2.9
	}
	if out.Pricing.PaymentFixed <= 0 {
		out.Pricing.PaymentFixed = 0.30
	}
	if out.Pricing.DefaultFeePct <= 0 {
		out.Pricing.DefaultFeePct = 13.25
	}
	if out.Cache.TTLSeconds <= 0 {
		out.Cache.TTLSeconds = 300
	}
	if out.Limits.ConversionsPerMinute <= 0 {
		out.Limits.ConversionsPerMinute = 10
	}
	if out.Limits.Burst <= 0 {
		out.Limits.Burst = 5
	}

	// ---- Validation rules ----

	if out.App.Port < 0 || out.App.Port > 65535 {
		res.addErr("app.port must be 1..65535")
	}

	if out.Bulk.MaxURLs > 50 {
		res.addErr("bulk.max_urls cannot exceed 50")
	}
	if out.Bulk.Concurrency > out.Bulk.MaxURLs {
		res.addWarn("bulk.concurrency (%d) exceeds bulk.max_urls (%d); extra workers will idle.",
			out.Bulk.Concurrency, out.Bulk.MaxURLs)
	}

	if out.Fetch.BackoffCapMillis < out.Fetch.BackoffBaseMillis {
		res.addErr("fetch.backoff_cap_millis must be >= fetch.backoff_base_millis")
	}
	if out.Fetch.HostReqPerSec > 2 {
		res.addWarn("fetch.host_req_per_sec is high (%.1f) and may trip marketplace bot detection.",
			out.Fetch.HostReqPerSec)
	}

	seenRoute := map[string]bool{}
	for i, r := range out.Fetch.Routes {
		if strings.TrimSpace(r.Name) == "" {
			res.addErr("fetch.routes[%d].name is required", i)
		}
		key := strings.ToLower(strings.TrimSpace(r.Name))
		if seenRoute[key] {
			res.addErr("fetch.routes has duplicate name %q", r.Name)
		}
		seenRoute[key] = true
	}

	if out.Pipeline.TargetMarginPct >= 80 {
		res.addErr("pipeline.target_margin_pct of %.0f%% is unreachable once fees are applied",
			out.Pipeline.TargetMarginPct)
	}

	if len(out.Compliance.BlockedBrands) == 0 {
		res.addWarn("compliance.blocked_brands is empty; every brand will pass the restriction check.")
	}

	// simple conflict check
	blockSet := map[string]bool{}
	for _, b := range out.Compliance.BlockedBrands {
		blockSet[strings.ToLower(b)] = true
	}
	for _, a := range out.Compliance.AdvisoryBrands {
		if blockSet[strings.ToLower(a)] {
			res.addWarn("brand appears in both blocked and advisory lists: %q", a)
		}
	}

	return out, res
}
