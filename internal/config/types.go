package config

import "time"

// Config represents the complete alertd configuration
type Config struct {
	Server       ServerConfig       `yaml:"server"`
	Locale       string             `yaml:"locale"`
	Policy       PolicyConfig       `yaml:"policy"`
	Presentation PresentationConfig `yaml:"presentation"`
	Heartbeat    HeartbeatConfig    `yaml:"heartbeat"`
	Notifiers    NotifiersConfig    `yaml:"notifiers"`
}

// ServerConfig contains listener settings
type ServerConfig struct {
	Listen          string `yaml:"listen"`
	GRPCListen      string `yaml:"grpc_listen,omitempty"`
	EventsPerMinute int    `yaml:"events_per_minute"`
	FeedSize        int    `yaml:"feed_size"`
}

// PolicyConfig holds the suppression parameters. A zero duration or count
// means "use the default"; throttling cannot be switched off.
type PolicyConfig struct {
	ThrottleWindow      time.Duration `yaml:"throttle_window"`
	TimeoutThreshold    int           `yaml:"timeout_threshold"`
	// ClusterAPIThreshold is how old the last cluster update may be before alerting
	ClusterAPIThreshold time.Duration `yaml:"cluster_api_threshold"`
	// ClusterAPIWindow throttles repeated cluster_api_timeout alerts.
	// Defaults to ClusterAPIThreshold.
	ClusterAPIWindow    time.Duration `yaml:"cluster_api_window,omitempty"`
}

// PresentationConfig holds fixed presentation attributes
type PresentationConfig struct {
	TransientTimeout time.Duration `yaml:"transient_timeout"`
	LoginURL         string        `yaml:"login_url"`
	CatalogDir       string        `yaml:"catalog_dir,omitempty"`
}

// HeartbeatConfig defines the cluster heartbeat poller
type HeartbeatConfig struct {
	URL      string        `yaml:"url,omitempty"`
	Interval time.Duration `yaml:"interval"`
	Timeout  time.Duration `yaml:"timeout"`
}

// Enabled reports whether a heartbeat URL is configured
func (h HeartbeatConfig) Enabled() bool {
	return h.URL != ""
}

// NotifiersConfig selects where alerts go
type NotifiersConfig struct {
	Console ConsoleConfig   `yaml:"console"`
	Apprise []AppriseConfig `yaml:"apprise,omitempty"`
}

// ConsoleConfig renders alerts on the terminal
type ConsoleConfig struct {
	Enabled bool `yaml:"enabled"`
	Width   int  `yaml:"width,omitempty"`
}

// AppriseConfig defines one Apprise channel
type AppriseConfig struct {
	Name           string   `yaml:"name"`
	URLEnv         string   `yaml:"url_env"`
	APIURLEnv      string   `yaml:"api_url_env,omitempty"`
	SeverityFilter []string `yaml:"severity_filter,omitempty"`
}
