package entities

import (
	"time"
)

// ClientConfig controls how the shared client talks to servers.
type ClientConfig struct {
	// LogLevel is the logging verbosity ("debug", "info", "warn", "error").
	LogLevel string `json:"log_level,omitempty" yaml:"log_level" validate:"omitempty,oneof=debug info warn error"`

	// ResponseTimeout bounds the wait for response headers once the request
	// body has been fully written. It does not apply to writing or reading.
	ResponseTimeout time.Duration `json:"response_timeout" yaml:"response_timeout" validate:"gt=0"`

	// TLSHandshakeTimeout bounds the TLS handshake of new connections.
	TLSHandshakeTimeout time.Duration `json:"tls_handshake_timeout" yaml:"tls_handshake_timeout" validate:"gte=0"`

	// IdleConnTimeout is how long an idle pooled connection is kept.
	IdleConnTimeout time.Duration `json:"idle_conn_timeout" yaml:"idle_conn_timeout" validate:"gte=0"`

	// MaxSockets caps connections per host and concurrently driven exchanges.
	MaxSockets int `json:"max_sockets" yaml:"max_sockets" validate:"min=1,max=65535"`

	// KeepAlive enables persistent connection reuse.
	KeepAlive bool `json:"keep_alive" yaml:"keep_alive"`

	// InsecureSkipVerify disables server certificate verification.
	InsecureSkipVerify bool `json:"insecure_skip_verify,omitempty" yaml:"insecure_skip_verify"`
}

// DefaultClientConfig returns the default client configuration: keep-alive
// on, 1024 sockets and a 10 second response timeout.
func DefaultClientConfig() ClientConfig {
	return ClientConfig{
		LogLevel:            "info",
		ResponseTimeout:     10 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		IdleConnTimeout:     90 * time.Second,
		MaxSockets:          1024,
		KeepAlive:           true,
	}
}

// ConfigOption is a functional option for configuring the client.
type ConfigOption func(*ClientConfig)

// WithKeepAlive enables or disables persistent connections.
func WithKeepAlive(enabled bool) ConfigOption {
	return func(c *ClientConfig) {
		c.KeepAlive = enabled
	}
}

// WithMaxSockets sets the connection pool size. Values below 1 are ignored.
func WithMaxSockets(n int) ConfigOption {
	return func(c *ClientConfig) {
		if n > 0 {
			c.MaxSockets = n
		}
	}
}

// WithResponseTimeout sets the awaiting-response timeout.
// A zero or negative duration is ignored (uses default).
func WithResponseTimeout(d time.Duration) ConfigOption {
	return func(c *ClientConfig) {
		if d > 0 {
			c.ResponseTimeout = d
		}
	}
}

// WithTLSHandshakeTimeout sets the TLS handshake timeout.
func WithTLSHandshakeTimeout(d time.Duration) ConfigOption {
	return func(c *ClientConfig) {
		if d >= 0 {
			c.TLSHandshakeTimeout = d
		}
	}
}

// WithInsecureSkipVerify disables certificate verification. Tests only.
func WithInsecureSkipVerify(skip bool) ConfigOption {
	return func(c *ClientConfig) {
		c.InsecureSkipVerify = skip
	}
}

// WithLogLevel sets the log level name.
func WithLogLevel(level string) ConfigOption {
	return func(c *ClientConfig) {
		c.LogLevel = level
	}
}
