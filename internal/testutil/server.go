// Package testutil provides test servers and assertions shared by package tests.
package testutil

import (
	"crypto/tls"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"
)

// EchoPayload mirrors the subset of an httpbin /post reply the tests use.
type EchoPayload struct {
	Headers map[string]string `json:"headers"`
	Data    string            `json:"data"`
	Method  string            `json:"method"`
}

// Server is a TLS test server that counts requests.
type Server struct {
	*httptest.Server
	hits atomic.Int64
}

// Hits returns the number of requests served.
func (s *Server) Hits() int64 { return s.hits.Load() }

// TLSConfig returns a client TLS config that trusts the server certificate.
func (s *Server) TLSConfig() *tls.Config {
	return s.Client().Transport.(*http.Transport).TLSClientConfig
}

// NewTLSServer starts a TLS server running h and closes it on cleanup.
func NewTLSServer(t *testing.T, h http.Handler) *Server {
	t.Helper()
	s := &Server{}
	s.Server = httptest.NewTLSServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.hits.Add(1)
		h.ServeHTTP(w, r)
	}))
	t.Cleanup(s.Close)
	return s
}

// EchoHandler answers like httpbin's /post: a JSON object whose "data" is
// the request body. Content-Length is always declared.
func EchoHandler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, err := io.ReadAll(r.Body)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		payload := EchoPayload{
			Data:   string(body),
			Method: r.Method,
			Headers: map[string]string{
				"Content-Type":   r.Header.Get("Content-Type"),
				"Content-Length": strconv.FormatInt(r.ContentLength, 10),
			},
		}
		out, err := json.Marshal(payload)
		if err != nil {
			http.Error(w, err.Error(), http.StatusInternalServerError)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Length", strconv.Itoa(len(out)))
		_, _ = w.Write(out)
	})
}

// StatusHandler drains the body and replies with code.
func StatusHandler(code int) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.WriteHeader(code)
	})
}

// StallHandler drains the body and then withholds the response until the
// client goes away or release is closed.
func StallHandler(release <-chan struct{}) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		select {
		case <-r.Context().Done():
		case <-release:
		}
	})
}

// SlowBodyHandler declares size bytes and writes them in chunks with a pause
// between each, flushing as it goes.
func SlowBodyHandler(size, chunk int, pause time.Duration) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = io.Copy(io.Discard, r.Body)
		w.Header().Set("Content-Length", strconv.Itoa(size))
		w.WriteHeader(http.StatusOK)
		flusher, _ := w.(http.Flusher)
		buf := make([]byte, chunk)
		for i := range buf {
			buf[i] = 'y'
		}
		for sent := 0; sent < size; sent += chunk {
			n := chunk
			if size-sent < n {
				n = size - sent
			}
			if _, err := w.Write(buf[:n]); err != nil {
				return
			}
			if flusher != nil {
				flusher.Flush()
			}
			time.Sleep(pause)
		}
	})
}
