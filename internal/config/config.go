package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Default values for the server configuration.
const (
	DefaultHTTPPort    = 8080
	DefaultDatasetPath = "telemetry.json"
	DefaultUptimeUnit  = "fraction"
)

// Config holds the configuration parsed from the `server:` section of
// config.yaml.
type Config struct {
	Server ServerConfig `yaml:"server"`
}

// ServerConfig holds all server settings.
type ServerConfig struct {
	// HTTPPort is the port the REST API, metrics exposition, and WebSocket
	// hub listen on (default 8080).
	HTTPPort int `yaml:"http_port"`

	// Dataset controls where telemetry records are loaded from and how
	// region names are matched.
	Dataset DatasetConfig `yaml:"dataset"`

	// Metrics controls the summary computation.
	Metrics MetricsConfig `yaml:"metrics"`

	// Alerts holds rule definitions and webhook delivery targets.
	Alerts AlertsConfig `yaml:"alerts"`
}

// DatasetConfig controls telemetry dataset loading.
type DatasetConfig struct {
	// Path is the JSON dataset file (default "telemetry.json").
	Path string `yaml:"path"`

	// Watch reloads the dataset when the file changes on disk.
	Watch bool `yaml:"watch"`

	// CaseInsensitive folds region names on both sides before matching.
	// Default is exact matching.
	CaseInsensitive bool `yaml:"case_insensitive"`
}

// MetricsConfig controls the summary computation.
type MetricsConfig struct {
	// UptimeUnit is how avg_uptime is expressed: "fraction" (0–1, 4 decimal
	// places, the default) or "percent" (0–100, 2 decimal places).
	UptimeUnit string `yaml:"uptime_unit"`

	// LatencyFields is the ordered fallback chain of record field names
	// checked for a latency value. Default: [latency_ms, latency].
	LatencyFields []string `yaml:"latency_fields"`
}

// AlertsConfig holds alerting rules and webhook delivery targets.
type AlertsConfig struct {
	Rules    []AlertRule     `yaml:"rules"`
	Webhooks []WebhookConfig `yaml:"webhooks"`
}

// AlertRule defines one threshold-based alert condition evaluated against
// each region's computed summary.
type AlertRule struct {
	// Name is the human-readable alert identifier, used as the
	// deduplication key.
	Name string `yaml:"name"`

	// Condition is a simple expression over summary fields:
	// "p95_latency > 500", "avg_uptime < 0.95", "breaches > 0".
	Condition string `yaml:"condition"`

	// Severity is one of: critical | warning | info.
	Severity string `yaml:"severity"`

	// Cooldown suppresses re-fires for this duration after an alert fires.
	// Defaults to 15 minutes if zero.
	Cooldown time.Duration `yaml:"cooldown"`
}

// WebhookConfig defines one webhook delivery target.
type WebhookConfig struct {
	// Type is one of: slack | teams | http.
	Type string `yaml:"type"`

	// URLEnv is the name of the environment variable that holds the
	// webhook URL.
	URLEnv string `yaml:"url_env"`
}

// URL returns the webhook URL resolved from the environment.
func (w WebhookConfig) URL() string {
	if w.URLEnv == "" {
		return ""
	}
	return os.Getenv(w.URLEnv)
}

// Load reads and parses the config file at path.
// Missing fields are filled with defaults before validation.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("server config: read %q: %w", path, err)
	}

	cfg := defaults()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("server config: parse yaml: %w", err)
	}

	if err := validate(cfg); err != nil {
		return nil, fmt.Errorf("server config: %w", err)
	}

	return cfg, nil
}

// Default returns the configuration used when no config file is given.
func Default() *Config { return defaults() }

// defaults returns a Config pre-populated with default values.
func defaults() *Config {
	return &Config{
		Server: ServerConfig{
			HTTPPort: DefaultHTTPPort,
			Dataset: DatasetConfig{
				Path: DefaultDatasetPath,
			},
			Metrics: MetricsConfig{
				UptimeUnit: DefaultUptimeUnit,
			},
		},
	}
}

// validate checks structural constraints on the parsed configuration.
func validate(cfg *Config) error {
	if cfg.Server.HTTPPort <= 0 || cfg.Server.HTTPPort > 65535 {
		return fmt.Errorf("server.http_port %d is out of range [1, 65535]", cfg.Server.HTTPPort)
	}
	if cfg.Server.Dataset.Path == "" {
		return fmt.Errorf("server.dataset.path must not be empty")
	}
	switch cfg.Server.Metrics.UptimeUnit {
	case "fraction", "percent":
	default:
		return fmt.Errorf("server.metrics.uptime_unit %q unknown: want fraction|percent",
			cfg.Server.Metrics.UptimeUnit)
	}
	for i, f := range cfg.Server.Metrics.LatencyFields {
		if f == "" {
			return fmt.Errorf("server.metrics.latency_fields[%d] must not be empty", i)
		}
	}
	for _, r := range cfg.Server.Alerts.Rules {
		if r.Name == "" {
			return fmt.Errorf("server.alerts.rules: rule with empty name")
		}
		if r.Cooldown < 0 {
			return fmt.Errorf("server.alerts.rules[%s].cooldown must not be negative", r.Name)
		}
	}
	return nil
}
