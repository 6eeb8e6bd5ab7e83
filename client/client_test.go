package client_test

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net"
	"net/http"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"

	"github.com/taheris/bad-write-retry-example/client"
	"github.com/taheris/bad-write-retry-example/domain/entities"
	"github.com/taheris/bad-write-retry-example/internal/testutil"
	"github.com/taheris/bad-write-retry-example/log"
)

// ExchangeSuite runs exchanges against local TLS servers.
type ExchangeSuite struct {
	suite.Suite
	logs bytes.Buffer
}

func (s *ExchangeSuite) SetupTest() {
	s.logs.Reset()
}

func (s *ExchangeSuite) newClient(srv *testutil.Server, opts ...entities.ConfigOption) *client.Client {
	c, err := client.New(
		client.WithTLSConfig(srv.TLSConfig()),
		client.WithLogger(log.New(log.WithWriter(&s.logs), log.WithoutTime())),
		client.WithConfig(opts...),
	)
	s.Require().NoError(err)
	s.T().Cleanup(c.Close)
	return c
}

func (s *ExchangeSuite) post(srv *testutil.Server, body []byte) entities.HTTPRequest {
	return entities.MustHTTPRequest(http.MethodPost, srv.URL+"/post", body)
}

func (s *ExchangeSuite) TestPostEcho() {
	srv := testutil.NewTLSServer(s.T(), testutil.EchoHandler())
	c := s.newClient(srv)

	resp := testutil.RequireSingleResult(s.T(), c.Request(s.post(srv, []byte("foo"))))

	payload := testutil.RequireEcho(s.T(), resp, "foo")
	s.Equal("POST", payload.Method)
	s.Equal("application/json; charset=utf-8", payload.Headers["Content-Type"])
	s.Equal("3", payload.Headers["Content-Length"])
	s.Contains(s.logs.String(), "send_request_to")
	s.Contains(s.logs.String(), "exchange_id=")
}

func (s *ExchangeSuite) TestLargeBody() {
	srv := testutil.NewTLSServer(s.T(), testutil.EchoHandler())
	c := s.newClient(srv)
	body := bytes.Repeat([]byte{'X'}, 1000000)

	resp := testutil.RequireSingleResult(s.T(), c.Request(s.post(srv, body)))

	testutil.RequireEcho(s.T(), resp, string(body))
	s.Contains(s.logs.String(), "request body written bytes=1000000")
}

func (s *ExchangeSuite) TestEmptyBody() {
	srv := testutil.NewTLSServer(s.T(), testutil.EchoHandler())
	c := s.newClient(srv)

	resp := testutil.RequireSingleResult(s.T(), c.Request(s.post(srv, nil)))

	payload := testutil.RequireEcho(s.T(), resp, "")
	s.Equal("0", payload.Headers["Content-Length"])
}

func (s *ExchangeSuite) TestNonSuccessStatus() {
	srv := testutil.NewTLSServer(s.T(), testutil.StatusHandler(http.StatusNotFound))
	c := s.newClient(srv)

	resp := testutil.RequireSingleResult(s.T(), c.Request(s.post(srv, []byte("foo"))))

	testutil.AssertFailedWith(s.T(), resp, "failed response status: 404 Not Found")
}

func (s *ExchangeSuite) TestNoContent() {
	srv := testutil.NewTLSServer(s.T(), testutil.StatusHandler(http.StatusNoContent))
	c := s.newClient(srv)

	resp := testutil.RequireSingleResult(s.T(), c.Request(s.post(srv, []byte("foo"))))

	s.False(resp.Failed(), resp.Text())
	s.Empty(resp.Body)
}

func (s *ExchangeSuite) TestAwaitingResponseTimeout() {
	release := make(chan struct{})
	srv := testutil.NewTLSServer(s.T(), testutil.StallHandler(release))
	s.T().Cleanup(func() { close(release) })
	c := s.newClient(srv, entities.WithResponseTimeout(200*time.Millisecond))

	start := time.Now()
	resp := testutil.RequireSingleResult(s.T(), c.Request(s.post(srv, []byte("foo"))))

	testutil.AssertFailedWith(s.T(), resp, "awaiting response timeout after 200ms")
	s.Less(time.Since(start), 5*time.Second)
}

func (s *ExchangeSuite) TestAwaitingResponseTimeout_EmptyBody() {
	release := make(chan struct{})
	srv := testutil.NewTLSServer(s.T(), testutil.StallHandler(release))
	s.T().Cleanup(func() { close(release) })
	c := s.newClient(srv, entities.WithResponseTimeout(200*time.Millisecond))

	resp := testutil.RequireSingleResult(s.T(), c.Request(s.post(srv, nil)))

	testutil.AssertFailedWith(s.T(), resp, "awaiting response timeout")
}

func (s *ExchangeSuite) TestTimeoutDoesNotGovernBodyRead() {
	srv := testutil.NewTLSServer(s.T(), testutil.SlowBodyHandler(4096, 1024, 100*time.Millisecond))
	c := s.newClient(srv, entities.WithResponseTimeout(150*time.Millisecond))

	resp := testutil.RequireSingleResult(s.T(), c.Request(s.post(srv, []byte("foo"))))

	s.Require().False(resp.Failed(), resp.Text())
	s.Equal(strings.Repeat("y", 4096), string(resp.Body))
}

func (s *ExchangeSuite) TestUntrustedCertificate() {
	srv := testutil.NewTLSServer(s.T(), testutil.EchoHandler())
	c, err := client.New(client.WithLogger(log.New(log.WithWriter(io.Discard))))
	s.Require().NoError(err)
	s.T().Cleanup(c.Close)

	resp := testutil.RequireSingleResult(s.T(), c.Request(s.post(srv, []byte("foo"))))

	testutil.AssertFailedWith(s.T(), resp, "connection error")
	s.Zero(srv.Hits())
}

func (s *ExchangeSuite) TestConcurrentRequests() {
	srv := testutil.NewTLSServer(s.T(), testutil.EchoHandler())
	c := s.newClient(srv, entities.WithMaxSockets(4))

	const n = 20
	channels := make([]<-chan entities.HTTPResponse, n)
	for i := range channels {
		channels[i] = c.Request(s.post(srv, []byte(strings.Repeat("z", i+1))))
	}

	for i, ch := range channels {
		resp := testutil.RequireSingleResult(s.T(), ch)
		testutil.RequireEcho(s.T(), resp, strings.Repeat("z", i+1))
	}
	s.Equal(int64(n), srv.Hits())
}

func (s *ExchangeSuite) TestKeepAliveReusesConnections() {
	var (
		mu    sync.Mutex
		peers = map[string]struct{}{}
	)
	echo := testutil.EchoHandler()
	srv := testutil.NewTLSServer(s.T(), http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		peers[r.RemoteAddr] = struct{}{}
		mu.Unlock()
		echo.ServeHTTP(w, r)
	}))
	c := s.newClient(srv)

	for i := 0; i < 5; i++ {
		resp := testutil.RequireSingleResult(s.T(), c.Request(s.post(srv, []byte("again"))))
		testutil.RequireEcho(s.T(), resp, "again")
	}

	mu.Lock()
	defer mu.Unlock()
	s.Less(len(peers), 5, "sequential exchanges reuse persistent connections")
}

func TestExchangeSuite(t *testing.T) {
	suite.Run(t, new(ExchangeSuite))
}

func TestRequest_ConnectionRefused(t *testing.T) {
	ln, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := ln.Addr().String()
	require.NoError(t, ln.Close())

	c, err := client.New(client.WithLogger(log.New(log.WithWriter(io.Discard))))
	require.NoError(t, err)
	defer c.Close()

	resp := testutil.RequireSingleResult(t, c.Request(entities.MustHTTPRequest("POST", "https://"+addr+"/post", []byte("foo"))))

	testutil.AssertFailedWith(t, resp, "connection error")
}

type roundTripFunc func(*http.Request) (*http.Response, error)

func (f roundTripFunc) RoundTrip(r *http.Request) (*http.Response, error) { return f(r) }

func TestRequest_TransportError(t *testing.T) {
	rt := roundTripFunc(func(*http.Request) (*http.Response, error) {
		return nil, errors.New("proxy unreachable")
	})
	c, err := client.New(client.WithRoundTripper(rt), client.WithLogger(log.New(log.WithWriter(io.Discard))))
	require.NoError(t, err)
	defer c.Close()

	resp := testutil.RequireSingleResult(t, c.Request(entities.MustHTTPRequest("GET", "https://example.invalid/", nil)))

	testutil.AssertFailedWith(t, resp, "connection error: proxy unreachable")
}

func TestRequest_BodyPulledThroughCollector(t *testing.T) {
	var got []byte
	rt := roundTripFunc(func(r *http.Request) (*http.Response, error) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			return nil, err
		}
		got = body
		return &http.Response{
			StatusCode:    http.StatusOK,
			Status:        "200 OK",
			ContentLength: 2,
			Header:        http.Header{},
			Body:          io.NopCloser(strings.NewReader("ok")),
		}, nil
	})
	c, err := client.New(client.WithRoundTripper(rt), client.WithLogger(log.New(log.WithWriter(io.Discard))))
	require.NoError(t, err)
	defer c.Close()

	resp := testutil.RequireSingleResult(t, c.Request(entities.MustHTTPRequest("PUT", "https://example.invalid/", []byte("payload"))))

	require.False(t, resp.Failed(), resp.Text())
	assert.Equal(t, "ok", string(resp.Body))
	assert.Equal(t, "payload", string(got))
}

func TestRequest_AfterClose(t *testing.T) {
	c, err := client.New(client.WithLogger(log.New(log.WithWriter(io.Discard))))
	require.NoError(t, err)
	c.Close()

	resp := testutil.RequireSingleResult(t, c.Request(entities.MustHTTPRequest("GET", "https://example.com/", nil)))

	testutil.AssertFailedWith(t, resp, client.ErrClientClosed.Error())
}

func TestRequest_MissingURL(t *testing.T) {
	c, err := client.New(client.WithLogger(log.New(log.WithWriter(io.Discard))))
	require.NoError(t, err)
	defer c.Close()

	resp := testutil.RequireSingleResult(t, c.Request(entities.HTTPRequest{Method: "POST"}))

	testutil.AssertFailedWith(t, resp, "request has no url")
}

func TestNew_InvalidConfig(t *testing.T) {
	_, err := client.New(client.WithConfig(func(c *entities.ClientConfig) { c.MaxSockets = 0 }))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "max_sockets")
}

func TestFromConfig(t *testing.T) {
	cfg := entities.DefaultClientConfig()
	cfg.MaxSockets = 7
	cfg.KeepAlive = false

	c, err := client.FromConfig(&cfg, client.WithLogger(log.New(log.WithWriter(io.Discard))))
	require.NoError(t, err)
	defer c.Close()

	assert.Equal(t, 7, c.Config().MaxSockets)
	assert.False(t, c.Config().KeepAlive)
	assert.Equal(t, 7, cfg.MaxSockets, "caller config is not mutated")
}

func TestAwait(t *testing.T) {
	ch := make(chan entities.HTTPResponse, 1)
	ch <- entities.ResponseOK([]byte("x"))
	close(ch)

	resp, err := client.Await(ch)
	require.NoError(t, err)
	assert.Equal(t, "x", string(resp.Body))

	_, err = client.Await(ch)
	assert.ErrorIs(t, err, client.ErrNoResult)
}

// TestHTTPBinPost posts to the public httpbin service.
func TestHTTPBinPost(t *testing.T) {
	if testing.Short() {
		t.Skip("Skipping network test in short mode")
	}

	c, err := client.New(client.WithLogger(log.New(log.WithWriter(io.Discard))))
	require.NoError(t, err)
	defer c.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	results := c.Request(entities.MustHTTPRequest("POST", "https://eu.httpbin.org/post", []byte("foo")))
	select {
	case resp := <-results:
		if resp.Failed() {
			t.Skipf("httpbin unavailable: %s", resp.Text())
		}
		testutil.RequireEcho(t, resp, "foo")
	case <-ctx.Done():
		t.Skip("httpbin did not answer in time")
	}
}
