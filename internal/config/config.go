// engine/internal/config/config.go
package config

import (
	"os"

	"gopkg.in/yaml.v3"
)

// Route is one outbound egress path for scraping. An empty or "direct"
// address means no proxy.
type Route struct {
	Name    string `yaml:"name"`
	Address string `yaml:"address"`
}

type Config struct {
	App struct {
		Port    int    `yaml:"port"`
		DataDir string `yaml:"data_dir"`
	} `yaml:"app"`

	Fetch struct {
		Routes                []Route `yaml:"routes"`
		MaxAttempts           int     `yaml:"max_attempts"`
		BackoffBaseMillis     int     `yaml:"backoff_base_millis"`
		BackoffCapMillis      int     `yaml:"backoff_cap_millis"`
		RequestTimeoutSeconds int     `yaml:"request_timeout_seconds"`
		FailureThreshold      int     `yaml:"failure_threshold"`
		CooldownSeconds       int     `yaml:"cooldown_seconds"`
		HostReqPerSec         float64 `yaml:"host_req_per_sec"`
		HostBurst             int     `yaml:"host_burst"`
		UserAgent             string  `yaml:"user_agent"`
	} `yaml:"fetch"`

	Pipeline struct {
		ItemTimeoutSeconds  int     `yaml:"item_timeout_seconds"`
		TargetMarginPct     float64 `yaml:"target_margin_pct"`
		DescriptionTemplate string  `yaml:"description_template"` // modern/classic/minimal
	} `yaml:"pipeline"`

	Bulk struct {
		MaxURLs          int `yaml:"max_urls"`
		Concurrency      int `yaml:"concurrency"`
		HeartbeatSeconds int `yaml:"heartbeat_seconds"`
		RetentionSeconds int `yaml:"retention_seconds"`
	} `yaml:"bulk"`

	Compliance struct {
		BlockedBrands      []string `yaml:"blocked_brands"`
		AdvisoryBrands     []string `yaml:"advisory_brands"`
		RestrictedKeywords []string `yaml:"restricted_keywords"`
	} `yaml:"compliance"`

	Pricing struct {
		DefaultShipping float64            `yaml:"default_shipping"`
		PaymentRatePct  float64            `yaml:"payment_rate_pct"`
		PaymentFixed    float64            `yaml:"payment_fixed"`
		DefaultFeePct   float64            `yaml:"default_fee_pct"`
		CategoryFeesPct map[string]float64 `yaml:"category_fees_pct"`
	} `yaml:"pricing"`

	Cache struct {
		RedisAddr  string `yaml:"redis_addr"`
		TTLSeconds int    `yaml:"ttl_seconds"`
	} `yaml:"cache"`

	Limits struct {
		ConversionsPerMinute float64 `yaml:"conversions_per_minute"`
		Burst                int     `yaml:"burst"`
	} `yaml:"limits"`

	Publish struct {
		Endpoint       string `yaml:"endpoint"`
		KeyringAccount string `yaml:"keyring_account"`
	} `yaml:"publish"`
}

func Load(path string) (Config, error) {
	var cfg Config
	b, err := os.ReadFile(path)
	if err != nil {
		return cfg, err
	}
	err = yaml.Unmarshal(b, &cfg)
	return cfg, err
}
