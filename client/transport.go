package client

import (
	"crypto/tls"
	"fmt"
	"net"
	"net/http"
	"time"

	"golang.org/x/net/http2"

	"github.com/taheris/bad-write-retry-example/domain/entities"
)

// newTransport builds the pooled transport shared by all exchanges of a
// client. Redirects are never followed: exchanges use RoundTrip directly.
func newTransport(cfg entities.ClientConfig, tlsConfig *tls.Config) (*http.Transport, error) {
	if tlsConfig == nil {
		tlsConfig = &tls.Config{MinVersion: tls.VersionTLS12}
	} else {
		tlsConfig = tlsConfig.Clone()
	}
	if cfg.InsecureSkipVerify {
		tlsConfig.InsecureSkipVerify = true //nolint:gosec // opt-in via config
	}

	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		Proxy:               http.ProxyFromEnvironment,
		DialContext:         dialer.DialContext,
		TLSClientConfig:     tlsConfig,
		TLSHandshakeTimeout: cfg.TLSHandshakeTimeout,
		IdleConnTimeout:     cfg.IdleConnTimeout,
		MaxIdleConns:        cfg.MaxSockets,
		MaxIdleConnsPerHost: cfg.MaxSockets,
		MaxConnsPerHost:     cfg.MaxSockets,
		DisableKeepAlives:   !cfg.KeepAlive,
		// Transparent gzip would hide the declared Content-Length.
		DisableCompression: true,
	}

	if err := http2.ConfigureTransport(transport); err != nil {
		return nil, fmt.Errorf("failed to enable http2: %w", err)
	}
	return transport, nil
}
