package config

import (
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	defaultListen              = ":8088"
	defaultLocale              = "en-US"
	defaultThrottleWindow      = 10 * time.Second
	defaultTimeoutThreshold    = 3
	defaultClusterAPIThreshold = 15 * time.Minute
	defaultTransientTimeout    = 10 * time.Second
	defaultLoginURL            = "/login/"
	defaultHeartbeatInterval   = 10 * time.Second
	defaultHeartbeatTimeout    = 5 * time.Second
	defaultEventsPerMinute     = 600
	defaultFeedSize            = 100
)

// Default returns a configuration with every default applied
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// LoadConfig loads alertd.yaml (or the given file) and an optional
// notifiers.yaml from the same directory
func LoadConfig(path string) (*Config, error) {
	cfg := &Config{}

	if err := loadYAML(path, cfg); err != nil {
		return nil, fmt.Errorf("loading %s: %w", filepath.Base(path), err)
	}

	// notifiers.yaml (optional) replaces the inline notifiers block
	notifiersPath := filepath.Join(filepath.Dir(path), "notifiers.yaml")
	if _, err := os.Stat(notifiersPath); err == nil {
		var n NotifiersConfig
		if err := loadYAML(notifiersPath, &n); err != nil {
			return nil, fmt.Errorf("loading notifiers.yaml: %w", err)
		}
		cfg.Notifiers = n
	}

	applyDefaults(cfg)

	if err := ValidateConfig(cfg); err != nil {
		return nil, fmt.Errorf("config validation failed: %w", err)
	}

	return cfg, nil
}

// loadYAML loads a YAML file into a struct
func loadYAML(path string, out interface{}) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return yaml.Unmarshal(data, out)
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Listen == "" {
		cfg.Server.Listen = defaultListen
	}
	if cfg.Server.EventsPerMinute == 0 {
		cfg.Server.EventsPerMinute = defaultEventsPerMinute
	}
	if cfg.Server.FeedSize == 0 {
		cfg.Server.FeedSize = defaultFeedSize
	}
	if cfg.Locale == "" {
		cfg.Locale = defaultLocale
	}
	if cfg.Policy.ThrottleWindow == 0 {
		cfg.Policy.ThrottleWindow = defaultThrottleWindow
	}
	if cfg.Policy.TimeoutThreshold == 0 {
		cfg.Policy.TimeoutThreshold = defaultTimeoutThreshold
	}
	if cfg.Policy.ClusterAPIThreshold == 0 {
		cfg.Policy.ClusterAPIThreshold = defaultClusterAPIThreshold
	}
	if cfg.Policy.ClusterAPIWindow == 0 {
		cfg.Policy.ClusterAPIWindow = cfg.Policy.ClusterAPIThreshold
	}
	if cfg.Presentation.TransientTimeout == 0 {
		cfg.Presentation.TransientTimeout = defaultTransientTimeout
	}
	if cfg.Presentation.LoginURL == "" {
		cfg.Presentation.LoginURL = defaultLoginURL
	}
	if cfg.Heartbeat.Interval == 0 {
		cfg.Heartbeat.Interval = defaultHeartbeatInterval
	}
	if cfg.Heartbeat.Timeout == 0 {
		cfg.Heartbeat.Timeout = defaultHeartbeatTimeout
	}
}

// ValidateConfig validates the configuration
func ValidateConfig(cfg *Config) error {
	if cfg.Policy.ThrottleWindow < 0 {
		return fmt.Errorf("policy.throttle_window must not be negative")
	}
	if cfg.Policy.TimeoutThreshold < 1 {
		return fmt.Errorf("policy.timeout_threshold must be >= 1")
	}
	if cfg.Policy.ClusterAPIThreshold < 0 {
		return fmt.Errorf("policy.cluster_api_threshold must not be negative")
	}
	if cfg.Policy.ClusterAPIWindow < 0 {
		return fmt.Errorf("policy.cluster_api_window must not be negative")
	}
	if cfg.Server.EventsPerMinute < 0 {
		return fmt.Errorf("server.events_per_minute must not be negative")
	}
	if cfg.Server.FeedSize < 0 {
		return fmt.Errorf("server.feed_size must not be negative")
	}

	if cfg.Heartbeat.Enabled() {
		u, err := url.Parse(cfg.Heartbeat.URL)
		if err != nil {
			return fmt.Errorf("heartbeat.url: %w", err)
		}
		if u.Scheme != "http" && u.Scheme != "https" {
			return fmt.Errorf("heartbeat.url must use http or https, got %q", u.Scheme)
		}
		if cfg.Heartbeat.Interval < time.Second {
			return fmt.Errorf("heartbeat.interval must be at least 1s")
		}
	}

	seen := make(map[string]bool)
	for i, ch := range cfg.Notifiers.Apprise {
		if ch.Name == "" {
			return fmt.Errorf("notifiers.apprise[%d]: name is required", i)
		}
		if seen[ch.Name] {
			return fmt.Errorf("notifiers.apprise: duplicate channel %s", ch.Name)
		}
		seen[ch.Name] = true
		if ch.URLEnv == "" {
			return fmt.Errorf("channel %s: url_env is required", ch.Name)
		}
		for _, sev := range ch.SeverityFilter {
			switch sev {
			case "info", "success", "warning", "error":
			default:
				return fmt.Errorf("channel %s: unknown severity %q", ch.Name, sev)
			}
		}
		// Note: We don't validate env var exists here as it may be set at runtime
	}

	return nil
}
