package config

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/joho/godotenv"
)

type Server struct {
	Port                    string `json:"port"`
	RequestTimeoutSec       int    `json:"request_timeout_sec"`
	DefaultSource           string `json:"default_source"`
	CacheMaxAgeSec          int    `json:"cache_max_age_sec"`
	StaleWhileRevalidateSec int    `json:"stale_while_revalidate_sec"`
}

type Tgju struct {
	Enabled       bool   `json:"enabled"`
	URL           string `json:"url"`
	UserAgent     string `json:"user_agent"`
	IncludeDollar bool   `json:"include_dollar"`
	Unit          string `json:"unit"`
	Pretty        bool   `json:"pretty"`
}

type Navasan struct {
	Enabled               bool   `json:"enabled"`
	APIKey                string `json:"api_key"`
	Endpoint              string `json:"endpoint"`
	Unit                  string `json:"unit"`
	Pretty                bool   `json:"pretty"`
	MaxRequestsPerMinute  int    `json:"max_requests_per_minute"`
	MinRequestIntervalSec int    `json:"min_request_interval_sec"`
	Burst                 int    `json:"burst"`
	// SampleWhenUnconfigured serves the sample source under /api/navasan
	// instead of disabling the route when no API key is set.
	SampleWhenUnconfigured bool `json:"sample_when_unconfigured"`
}

type Sample struct {
	Enabled bool `json:"enabled"`
}

type Config struct {
	Server  Server  `json:"server"`
	Tgju    Tgju    `json:"tgju"`
	Navasan Navasan `json:"navasan"`
	Sample  Sample  `json:"sample"`
}

func Default() Config {
	return Config{
		Server: Server{
			Port:                    "8080",
			RequestTimeoutSec:       10,
			DefaultSource:           "tgju",
			CacheMaxAgeSec:          10,
			StaleWhileRevalidateSec: 20,
		},
		Tgju: Tgju{
			Enabled:   true,
			URL:       "https://www.tgju.org/",
			UserAgent: "Mozilla/5.0 (compatible; RoniaGallery/1.0)",
			Unit:      "تومان",
		},
		Navasan: Navasan{
			Enabled:              true,
			Endpoint:             "https://api.navasan.tech",
			Unit:                 "تومان",
			MaxRequestsPerMinute: 2,
			Burst:                1,
		},
		Sample: Sample{Enabled: false},
	}
}

// Load reads a .env file if present, then JSON config from path. If path is
// empty, ./config.json is used when it exists; otherwise defaults apply.
// Environment variables override select fields.
func Load(path string) (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return Default(), fmt.Errorf("load .env: %w", err)
	}
	cfg := Default()
	if path == "" {
		if _, err := os.Stat("config.json"); err == nil {
			path = "config.json"
		}
	}
	if path != "" {
		b, err := os.ReadFile(path)
		if err != nil {
			return cfg, fmt.Errorf("read config: %w", err)
		}
		if err := json.Unmarshal(b, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}
	applyEnv(&cfg)
	return cfg, cfg.Validate()
}

// Validate checks values the server cannot start without.
func (c Config) Validate() error {
	if strings.TrimSpace(c.Server.Port) == "" {
		return fmt.Errorf("server.port is required")
	}
	if c.Server.RequestTimeoutSec <= 0 {
		return fmt.Errorf("server.request_timeout_sec must be positive")
	}
	switch c.Server.DefaultSource {
	case "tgju", "navasan", "sample":
	default:
		return fmt.Errorf("server.default_source %q is not one of tgju, navasan, sample", c.Server.DefaultSource)
	}
	if c.Tgju.Enabled && c.Tgju.URL == "" {
		return fmt.Errorf("tgju.url is required when tgju is enabled")
	}
	return nil
}

func applyEnv(cfg *Config) {
	if v := os.Getenv("PORT"); v != "" { cfg.Server.Port = v }
	setInt("REQUEST_TIMEOUT_SEC", &cfg.Server.RequestTimeoutSec, 1)
	if v := os.Getenv("DEFAULT_SOURCE"); v != "" { cfg.Server.DefaultSource = strings.ToLower(v) }
	setInt("CACHE_MAX_AGE_SEC", &cfg.Server.CacheMaxAgeSec, 0)
	setInt("STALE_WHILE_REVALIDATE_SEC", &cfg.Server.StaleWhileRevalidateSec, 0)

	setBool("TGJU_ENABLED", &cfg.Tgju.Enabled)
	if v := os.Getenv("TGJU_URL"); v != "" { cfg.Tgju.URL = v }
	if v := os.Getenv("TGJU_USER_AGENT"); v != "" { cfg.Tgju.UserAgent = v }
	setBool("TGJU_INCLUDE_DOLLAR", &cfg.Tgju.IncludeDollar)
	setBool("TGJU_PRETTY", &cfg.Tgju.Pretty)

	setBool("NAVASAN_ENABLED", &cfg.Navasan.Enabled)
	if v := os.Getenv("NAVASAN_API_KEY"); v != "" { cfg.Navasan.APIKey = v }
	if v := os.Getenv("NAVASAN_ENDPOINT"); v != "" { cfg.Navasan.Endpoint = v }
	setBool("NAVASAN_PRETTY", &cfg.Navasan.Pretty)
	setInt("NAVASAN_MAX_RPM", &cfg.Navasan.MaxRequestsPerMinute, 0)
	setInt("NAVASAN_MIN_INTERVAL_SEC", &cfg.Navasan.MinRequestIntervalSec, 0)
	setInt("NAVASAN_BURST", &cfg.Navasan.Burst, 1)
	setBool("NAVASAN_SAMPLE_WHEN_UNCONFIGURED", &cfg.Navasan.SampleWhenUnconfigured)

	setBool("SAMPLE_ENABLED", &cfg.Sample.Enabled)
}

// setInt overwrites *dst when key holds an integer >= floor.
func setInt(key string, dst *int, floor int) {
	v := os.Getenv(key)
	if v == "" { return }
	var x int
	if _, err := fmt.Sscanf(v, "%d", &x); err != nil { return }
	if x >= floor { *dst = x }
}

func setBool(key string, dst *bool) {
	switch strings.ToLower(os.Getenv(key)) {
	case "1", "true", "yes", "y": *dst = true
	case "0", "false", "no", "n": *dst = false
	}
}
