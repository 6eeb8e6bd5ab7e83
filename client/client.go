package client

import (
	"context"
	"crypto/tls"
	"errors"
	"log/slog"
	"net/http"
	"sync"
	"sync/atomic"

	"github.com/google/uuid"
	"golang.org/x/sync/semaphore"

	"github.com/taheris/bad-write-retry-example/application/config"
	"github.com/taheris/bad-write-retry-example/domain/entities"
	"github.com/taheris/bad-write-retry-example/domain/ports"
	"github.com/taheris/bad-write-retry-example/log"
)

var (
	// ErrNoResult is returned by Await when the channel closed without
	// delivering a response.
	ErrNoResult = errors.New("result channel closed without a response")

	// ErrClientClosed is delivered for requests submitted after Close.
	ErrClientClosed = errors.New("client is closed")
)

// Option is a functional option for configuring a Client.
type Option func(*clientOptions)

type clientOptions struct {
	tlsConfig  *tls.Config
	logger     *slog.Logger
	transport  http.RoundTripper
	configOpts []entities.ConfigOption
}

// WithConfig applies configuration options on top of the base config.
func WithConfig(opts ...entities.ConfigOption) Option {
	return func(o *clientOptions) {
		o.configOpts = append(o.configOpts, opts...)
	}
}

// WithTLSConfig sets the TLS configuration used for new connections.
// If nil is passed, the system defaults are used.
func WithTLSConfig(cfg *tls.Config) Option {
	return func(o *clientOptions) {
		o.tlsConfig = cfg
	}
}

// WithLogger sets the logger. The default logs to stdout at the configured
// level.
func WithLogger(logger *slog.Logger) Option {
	return func(o *clientOptions) {
		o.logger = logger
	}
}

// WithRoundTripper replaces the pooled transport. Tests use it to inject
// failures below the collector.
func WithRoundTripper(rt http.RoundTripper) Option {
	return func(o *clientOptions) {
		o.transport = rt
	}
}

// Client dispatches requests over a shared, pooled transport. It is safe for
// concurrent use.
type Client struct {
	transport http.RoundTripper
	logger    *slog.Logger
	slots     *semaphore.Weighted
	cfg       entities.ClientConfig
	wg        sync.WaitGroup
	closed    atomic.Bool
}

// New creates a client from the default configuration.
func New(opts ...Option) (*Client, error) {
	cfg := entities.DefaultClientConfig()
	return FromConfig(&cfg, opts...)
}

// FromConfig creates a client from cfg. Config options passed through
// WithConfig are applied on top of a copy of cfg before validation.
func FromConfig(cfg *entities.ClientConfig, opts ...Option) (*Client, error) {
	var o clientOptions
	for _, opt := range opts {
		opt(&o)
	}

	base := entities.DefaultClientConfig()
	if cfg != nil {
		base = *cfg
	}
	for _, opt := range o.configOpts {
		opt(&base)
	}
	if err := config.Validate(&base); err != nil {
		return nil, err
	}

	transport := o.transport
	if transport == nil {
		t, err := newTransport(base, o.tlsConfig)
		if err != nil {
			return nil, err
		}
		transport = t
	}

	logger := o.logger
	if logger == nil {
		logger = log.New(log.WithLevel(log.ParseLevel(base.LogLevel)))
	}

	return &Client{
		transport: transport,
		logger:    logger,
		slots:     semaphore.NewWeighted(int64(base.MaxSockets)),
		cfg:       base,
	}, nil
}

// Config returns the effective configuration.
func (c *Client) Config() entities.ClientConfig { return c.cfg }

// Request submits req and returns immediately. Exactly one response is
// delivered on the returned channel, which is then closed.
func (c *Client) Request(req entities.HTTPRequest) <-chan entities.HTTPResponse {
	logger := c.logger.With("exchange_id", uuid.NewString())
	logger.Info("send_request_to", "url", req.Target())

	collector, results := NewCollector(req, c.cfg.ResponseTimeout, logger)

	switch {
	case c.closed.Load():
		collector.OnError(ErrClientClosed)
		return results
	case req.URL == nil:
		collector.OnError(errors.New("request has no url"))
		return results
	}

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()

		if err := c.slots.Acquire(context.Background(), 1); err != nil {
			collector.OnError(err)
			return
		}
		defer c.slots.Release(1)

		newExchange(collector, c.transport, logger).run(context.Background())
	}()

	return results
}

// Close waits for in-flight exchanges and releases idle connections.
// Requests submitted afterwards fail with ErrClientClosed.
func (c *Client) Close() {
	c.closed.Store(true)
	c.wg.Wait()
	if ci, ok := c.transport.(interface{ CloseIdleConnections() }); ok {
		ci.CloseIdleConnections()
	}
}

// Await blocks until results yields a response. ErrNoResult is returned if
// the channel was closed without one.
func Await(results <-chan entities.HTTPResponse) (entities.HTTPResponse, error) {
	resp, ok := <-results
	if !ok {
		return entities.HTTPResponse{}, ErrNoResult
	}
	return resp, nil
}

var _ ports.Dispatcher = (*Client)(nil)
