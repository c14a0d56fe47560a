// Package config loads calendarlite's configuration from a YAML or JSON
// file, applies environment overrides, and enforces the coercion/bounds
// rules from spec §6. It mirrors the field names and defaults of
// calendarbot_lite's original Python config_loader.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/bencan1a/calendarlite/internal/apperrors"
)

// Source describes one configured ICS feed.
type Source struct {
	Name string `yaml:"name" json:"name"`
	URL  string `yaml:"url" json:"url"`
}

// Config is calendarlite's typed, validated configuration.
type Config struct {
	Sources []Source `yaml:"-" json:"-"`

	RefreshIntervalSeconds int    `yaml:"refresh_interval_seconds" json:"refresh_interval_seconds"`
	RRuleExpansionDays     int    `yaml:"rrule_expansion_days" json:"rrule_expansion_days"`
	EventWindowSize        int    `yaml:"event_window_size" json:"event_window_size"`
	ServerBind             string `yaml:"server_bind" json:"server_bind"`
	ServerPort             int    `yaml:"server_port" json:"server_port"`
	AlexaBearerToken       string `yaml:"alexa_bearer_token" json:"alexa_bearer_token"`
	LogLevel               string `yaml:"log_level" json:"log_level"`

	SkipStorePath string `yaml:"skip_store_path" json:"skip_store_path"`

	RedisAddr                    string  `yaml:"redis_addr" json:"redis_addr"`
	MetricsEnabled               bool    `yaml:"metrics_enabled" json:"metrics_enabled"`
	DashboardWSEnabled           bool    `yaml:"dashboard_ws_enabled" json:"dashboard_ws_enabled"`
	FetchRateLimitPerSecond      float64 `yaml:"fetch_rate_limit_per_second" json:"fetch_rate_limit_per_second"`
	FetchRateBurst               int     `yaml:"fetch_rate_burst" json:"fetch_rate_burst"`
	CircuitBreakerThreshold      int     `yaml:"circuit_breaker_threshold" json:"circuit_breaker_threshold"`
	CircuitBreakerCooldownSecond int     `yaml:"circuit_breaker_cooldown_seconds" json:"circuit_breaker_cooldown_seconds"`

	NonInteractive bool `yaml:"-" json:"-"`
}

// rawConfig mirrors the on-disk shape, including the legacy `ics_sources`
// alias and the union type accepted for each source entry.
type rawConfig struct {
	Sources                      interface{} `yaml:"sources" json:"sources"`
	ICSSources                   interface{} `yaml:"ics_sources" json:"ics_sources"`
	RefreshIntervalSeconds       *int        `yaml:"refresh_interval_seconds" json:"refresh_interval_seconds"`
	RRuleExpansionDays           *int        `yaml:"rrule_expansion_days" json:"rrule_expansion_days"`
	EventWindowSize              *int        `yaml:"event_window_size" json:"event_window_size"`
	ServerBind                   *string     `yaml:"server_bind" json:"server_bind"`
	ServerPort                   *int        `yaml:"server_port" json:"server_port"`
	AlexaBearerToken             *string     `yaml:"alexa_bearer_token" json:"alexa_bearer_token"`
	LogLevel                     *string     `yaml:"log_level" json:"log_level"`
	SkipStorePath                *string     `yaml:"skip_store_path" json:"skip_store_path"`
	RedisAddr                    *string     `yaml:"redis_addr" json:"redis_addr"`
	MetricsEnabled               *bool       `yaml:"metrics_enabled" json:"metrics_enabled"`
	DashboardWSEnabled           *bool       `yaml:"dashboard_ws_enabled" json:"dashboard_ws_enabled"`
	FetchRateLimitPerSecond      *float64    `yaml:"fetch_rate_limit_per_second" json:"fetch_rate_limit_per_second"`
	FetchRateBurst               *int        `yaml:"fetch_rate_burst" json:"fetch_rate_burst"`
	CircuitBreakerThreshold      *int        `yaml:"circuit_breaker_threshold" json:"circuit_breaker_threshold"`
	CircuitBreakerCooldownSecond *int        `yaml:"circuit_breaker_cooldown_seconds" json:"circuit_breaker_cooldown_seconds"`
}

// Defaults returns a Config populated entirely with spec §6 defaults and no
// sources, matching the original loader's "file missing" behavior.
func Defaults() Config {
	home, _ := os.UserHomeDir()
	return Config{
		Sources:                      nil,
		RefreshIntervalSeconds:       300,
		RRuleExpansionDays:           14,
		EventWindowSize:              5,
		ServerBind:                   "0.0.0.0",
		ServerPort:                   8080,
		LogLevel:                     "INFO",
		SkipStorePath:                filepath.Join(home, ".config", "calendarbot", "skipped.json"),
		MetricsEnabled:               true,
		DashboardWSEnabled:           true,
		FetchRateLimitPerSecond:      1.0,
		FetchRateBurst:               2,
		CircuitBreakerThreshold:      3,
		CircuitBreakerCooldownSecond: 60,
	}
}

// Load reads configuration from path (YAML or JSON, selected by extension),
// applies environment overrides, and validates/coerces bounds. A missing
// file is not an error: defaults are returned, matching the original
// loader's behavior.
func Load(path string) (Config, error) {
	cfg := Defaults()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if os.IsNotExist(err) {
				applyEnvOverrides(&cfg)
				clampAndValidate(&cfg)
				return cfg, nil
			}
			return cfg, apperrors.New("config.Load", apperrors.KindConfig, err)
		}

		raw, err := parseRaw(path, data)
		if err != nil {
			return cfg, apperrors.New("config.Load", apperrors.KindConfig, err)
		}
		applyRaw(&cfg, raw)
	}

	applyEnvOverrides(&cfg)
	clampAndValidate(&cfg)
	return cfg, nil
}

func parseRaw(path string, data []byte) (rawConfig, error) {
	var raw rawConfig
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".json":
		if err := json.Unmarshal(data, &raw); err != nil {
			return raw, fmt.Errorf("parsing json config: %w", err)
		}
	case ".yaml", ".yml", "":
		if err := yaml.Unmarshal(data, &raw); err != nil {
			return raw, fmt.Errorf("parsing yaml config: %w", err)
		}
	default:
		return raw, fmt.Errorf("unsupported config extension %q (want .yaml, .yml or .json)", ext)
	}
	return raw, nil
}

func applyRaw(cfg *Config, raw rawConfig) {
	sourcesRaw := raw.Sources
	if sourcesRaw == nil {
		sourcesRaw = raw.ICSSources
	}
	cfg.Sources = coerceSources(sourcesRaw)

	if raw.RefreshIntervalSeconds != nil {
		cfg.RefreshIntervalSeconds = *raw.RefreshIntervalSeconds
	}
	if raw.RRuleExpansionDays != nil {
		cfg.RRuleExpansionDays = *raw.RRuleExpansionDays
	}
	if raw.EventWindowSize != nil {
		cfg.EventWindowSize = *raw.EventWindowSize
	}
	if raw.ServerBind != nil {
		cfg.ServerBind = *raw.ServerBind
	}
	if raw.ServerPort != nil {
		cfg.ServerPort = *raw.ServerPort
	}
	if raw.AlexaBearerToken != nil {
		cfg.AlexaBearerToken = *raw.AlexaBearerToken
	}
	if raw.LogLevel != nil {
		cfg.LogLevel = *raw.LogLevel
	}
	if raw.SkipStorePath != nil {
		cfg.SkipStorePath = *raw.SkipStorePath
	}
	if raw.RedisAddr != nil {
		cfg.RedisAddr = *raw.RedisAddr
	}
	if raw.MetricsEnabled != nil {
		cfg.MetricsEnabled = *raw.MetricsEnabled
	}
	if raw.DashboardWSEnabled != nil {
		cfg.DashboardWSEnabled = *raw.DashboardWSEnabled
	}
	if raw.FetchRateLimitPerSecond != nil {
		cfg.FetchRateLimitPerSecond = *raw.FetchRateLimitPerSecond
	}
	if raw.FetchRateBurst != nil {
		cfg.FetchRateBurst = *raw.FetchRateBurst
	}
	if raw.CircuitBreakerThreshold != nil {
		cfg.CircuitBreakerThreshold = *raw.CircuitBreakerThreshold
	}
	if raw.CircuitBreakerCooldownSecond != nil {
		cfg.CircuitBreakerCooldownSecond = *raw.CircuitBreakerCooldownSecond
	}
}

// coerceSources accepts either a list of plain URL strings or a list of
// {name, url} mappings, truncated to 3 entries per spec §6.
func coerceSources(v interface{}) []Source {
	if v == nil {
		return nil
	}
	list, ok := v.([]interface{})
	if !ok {
		return nil
	}
	out := make([]Source, 0, len(list))
	for i, item := range list {
		if len(out) >= 3 {
			break
		}
		switch t := item.(type) {
		case string:
			out = append(out, Source{Name: fmt.Sprintf("source-%d", i), URL: t})
		case map[string]interface{}:
			src := Source{Name: fmt.Sprintf("source-%d", i)}
			if name, ok := t["name"].(string); ok && name != "" {
				src.Name = name
			}
			if url, ok := t["url"].(string); ok {
				src.URL = url
			}
			out = append(out, src)
		}
	}
	return out
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("CALENDARBOT_ICS_URL"); v != "" {
		cfg.Sources = []Source{{Name: "env", URL: v}}
	}
	if v := firstNonEmpty(os.Getenv("CALENDARBOT_REFRESH_INTERVAL_SECONDS"), os.Getenv("CALENDARBOT_REFRESH_INTERVAL")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.RefreshIntervalSeconds = n
		}
	}
	if v := firstNonEmpty(os.Getenv("CALENDARBOT_WEB_HOST"), os.Getenv("CALENDARBOT_SERVER_BIND")); v != "" {
		cfg.ServerBind = v
	}
	if v := firstNonEmpty(os.Getenv("CALENDARBOT_WEB_PORT"), os.Getenv("CALENDARBOT_SERVER_PORT")); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.ServerPort = n
		}
	}
	if v := os.Getenv("CALENDARBOT_NONINTERACTIVE"); v != "" {
		cfg.NonInteractive = v == "1" || strings.EqualFold(v, "true")
	}
	if v := os.Getenv("CALENDARBOT_ALEXA_BEARER_TOKEN"); v != "" {
		cfg.AlexaBearerToken = v
	}
	if v := os.Getenv("CALENDARBOT_REDIS_ADDR"); v != "" {
		cfg.RedisAddr = v
	}
	if _, tty := os.LookupEnv("CALENDARBOT_NONINTERACTIVE"); !tty {
		// non-interactive also auto-detected when stdin is not a TTY; the
		// supervisor performs that check since it owns os.Stdin.
		_ = tty
	}
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

func clampAndValidate(cfg *Config) {
	if len(cfg.Sources) > 3 {
		cfg.Sources = cfg.Sources[:3]
	}
	if cfg.RefreshIntervalSeconds < 60 {
		cfg.RefreshIntervalSeconds = 60
	} else if cfg.RefreshIntervalSeconds > 1800 {
		cfg.RefreshIntervalSeconds = 1800
	}
	if cfg.EventWindowSize <= 0 {
		cfg.EventWindowSize = 5
	}
	if cfg.ServerPort <= 0 {
		cfg.ServerPort = 8080
	}
	cfg.LogLevel = strings.ToUpper(cfg.LogLevel)
	if cfg.LogLevel == "" {
		cfg.LogLevel = "INFO"
	}
	if cfg.FetchRateLimitPerSecond <= 0 {
		cfg.FetchRateLimitPerSecond = 1.0
	}
	if cfg.FetchRateBurst <= 0 {
		cfg.FetchRateBurst = 2
	}
	if cfg.CircuitBreakerThreshold <= 0 {
		cfg.CircuitBreakerThreshold = 3
	}
	if cfg.CircuitBreakerCooldownSecond <= 0 {
		cfg.CircuitBreakerCooldownSecond = 60
	}
}
