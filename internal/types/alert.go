package types

import "time"

// Category classifies an alert-worthy event
type Category string

const (
	CategoryTimeout           Category = "timeout"
	CategoryServerError       Category = "server_error"
	CategoryUnexpectedError   Category = "unexpected_error"
	CategoryParserError       Category = "parser_error"
	CategorySessionExpired    Category = "session_expired"
	CategoryServerUnreachable Category = "server_unreachable"
	CategoryClusterAPITimeout Category = "cluster_api_timeout"
	CategoryConfigError       Category = "config_error"
)

// Categories returns every known category in a stable order
func Categories() []Category {
	return []Category{
		CategoryTimeout,
		CategoryServerError,
		CategoryUnexpectedError,
		CategoryParserError,
		CategorySessionExpired,
		CategoryServerUnreachable,
		CategoryClusterAPITimeout,
		CategoryConfigError,
	}
}

// Valid reports whether c is one of the known categories
func (c Category) Valid() bool {
	for _, known := range Categories() {
		if c == known {
			return true
		}
	}
	return false
}

// Severity is the visual weight of a presented alert
type Severity string

const (
	SeverityInfo    Severity = "info"
	SeveritySuccess Severity = "success"
	SeverityWarning Severity = "warning"
	SeverityError   Severity = "error"
)

// Layout names where a toast is placed on the page
const (
	LayoutTop      = "top"
	LayoutTopRight = "topRight"
)

// Action is a button attached to an alert
type Action struct {
	Label           string `json:"label"`
	Class           string `json:"class,omitempty"`
	Href            string `json:"href,omitempty"`
	CloseOnActivate bool   `json:"close_on_activate"`
}

// Message is one user-facing alert handed to notifiers
type Message struct {
	ID          string        `json:"id"`
	Category    Category      `json:"category,omitempty"`
	Text        string        `json:"text"`
	Severity    Severity      `json:"severity"`
	Layout      string        `json:"layout"`
	Timeout     time.Duration `json:"timeout"` // 0 = sticky
	Dismissible bool          `json:"dismissible"`
	Modal       bool          `json:"modal,omitempty"`
	Force       bool          `json:"force,omitempty"`
	Actions     []Action      `json:"actions,omitempty"`
	Retry       int           `json:"retry,omitempty"`
	CreatedAt   time.Time     `json:"created_at"`
}

// Sticky reports whether the alert stays until closed
func (m Message) Sticky() bool {
	return m.Timeout <= 0
}

// NetError is a failed request as reported by the network layer
type NetError struct {
	Source      string `json:"source"`
	Status      int    `json:"status"`
	StatusText  string `json:"statusText"`
	TimestampMs int64  `json:"timestamp_ms,omitempty"`
}

// HeartbeatSample is a periodic cluster health signal
type HeartbeatSample struct {
	ClusterUpdateTimeUnix int64 `json:"cluster_update_time_unix"`
}

// UpdatedAt returns the last successful cluster update time
func (h HeartbeatSample) UpdatedAt() time.Time {
	return time.Unix(h.ClusterUpdateTimeUnix, 0)
}

// ConfigError is a free-text configuration problem
type ConfigError struct {
	Message string `json:"message"`
}

// RequestNotice carries a precomputed headline for a completed request
type RequestNotice struct {
	Headline string `json:"headline"`
}
