package client

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/taheris/bad-write-retry-example/domain/entities"
	domainerrors "github.com/taheris/bad-write-retry-example/domain/errors"
)

const contentTypeJSON = "application/json; charset=utf-8"

// resultSender delivers at most one response and then closes the channel.
type resultSender struct {
	ch   chan entities.HTTPResponse
	once sync.Once
}

func newResultSender() *resultSender {
	return &resultSender{ch: make(chan entities.HTTPResponse, 1)}
}

func (s *resultSender) send(resp entities.HTTPResponse) bool {
	sent := false
	s.once.Do(func() {
		s.ch <- resp
		close(s.ch)
		sent = true
	})
	return sent
}

// Collector drives one request/response exchange. The driver calls its
// methods one at a time; after the result is delivered the collector is in
// StateDone and every further callback returns NextRemove.
type Collector struct {
	logger   *slog.Logger
	sender   *resultSender
	req      entities.HTTPRequest
	response bytes.Buffer
	written  int
	timeout  time.Duration
	state    State
}

// NewCollector returns a collector for req and the channel its result will
// be delivered on. timeout bounds the wait for response headers after the
// body is written; zero disables it.
func NewCollector(req entities.HTTPRequest, timeout time.Duration, logger *slog.Logger) (*Collector, <-chan entities.HTTPResponse) {
	if logger == nil {
		logger = slog.Default()
	}
	sender := newResultSender()
	return &Collector{
		logger:  logger,
		sender:  sender,
		req:     req,
		timeout: timeout,
	}, sender.ch
}

// State returns the current lifecycle state.
func (c *Collector) State() State { return c.state }

// Written returns the number of body bytes written so far.
func (c *Collector) Written() int { return c.written }

// OnRequest prepares the outgoing request line and headers.
func (c *Collector) OnRequest(r *http.Request) Next {
	if c.state == StateDone {
		return NextRemove()
	}

	r.Method = c.req.Method
	r.Header.Set("Content-Type", contentTypeJSON)
	r.Header.Set("Content-Length", strconv.Itoa(len(c.req.Body)))
	r.ContentLength = int64(len(c.req.Body))

	c.logger.Info("on_request", "method", r.Method, "uri", r.URL)
	return NextWrite()
}

// OnWritable writes as much of the remaining body as enc accepts. The
// driver passes an *Encoder; an ErrWouldBlock from enc re-arms the write.
func (c *Collector) OnWritable(enc io.Writer) Next {
	switch c.state {
	case StateDone:
		return NextRemove()
	case StateAwaitingWriteReady:
		c.state = StateWritingBody
	}

	n, err := enc.Write(c.req.Body[c.written:])
	c.written += n

	switch {
	case err == nil && n == 0:
		c.logger.Info("request body written", "bytes", c.written)
		if c.state != StateWritingBody {
			// The response arrived before the body was finished.
			return NextRead()
		}
		c.state = StateAwaitingResponse
		return NextRead().WithTimeout(c.timeout)

	case err == nil:
		c.logger.Debug("bytes written to request body", "bytes", n)
		return NextWrite()

	case errors.Is(err, ErrWouldBlock):
		return NextWrite()

	default:
		c.logger.Error("unable to write request body", "error", err)
		c.fail(&domainerrors.NetworkError{Operation: "write request body", Err: err})
		return NextRemove()
	}
}

// OnResponse inspects the status line and headers.
func (c *Collector) OnResponse(resp *http.Response) Next {
	if c.state == StateDone {
		return NextRemove()
	}

	c.logger.Info("on_response", "status", resp.Status, "content_length", resp.ContentLength)
	c.logger.Debug("on_response headers", "headers", resp.Header)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.fail(domainerrors.NewStatusError(resp.StatusCode, resp.Status))
		return NextEnd()
	}

	if resp.ContentLength > 0 {
		c.state = StateReadingBody
		return NextRead()
	}

	c.succeed([]byte{})
	return NextEnd()
}

// OnReadable appends whatever dec yields to the response buffer. The driver
// passes a *Decoder; an ErrWouldBlock from dec re-arms the read.
func (c *Collector) OnReadable(dec io.Reader) Next {
	if c.state == StateDone {
		return NextRemove()
	}

	n, err := c.response.ReadFrom(dec)

	switch {
	case err == nil && n == 0:
		c.logger.Info("response body read", "bytes", c.response.Len())
		c.succeed(c.response.Bytes())
		return NextEnd()

	case err == nil:
		c.logger.Debug("more response bytes read", "bytes", n)
		return NextRead()

	case errors.Is(err, ErrWouldBlock):
		if n > 0 {
			c.logger.Debug("more response bytes read", "bytes", n)
		}
		return NextRead()

	default:
		c.fail(&domainerrors.NetworkError{Operation: "read response body", Err: err})
		return NextEnd()
	}
}

// OnError reports a failure raised by the driver or the connection.
func (c *Collector) OnError(err error) Next {
	if c.state == StateDone {
		return NextRemove()
	}
	c.logger.Error("on_error", "error", err)
	c.fail(&domainerrors.ConnectionError{Err: err})
	return NextRemove()
}

func (c *Collector) succeed(body []byte) {
	c.emit(entities.ResponseOK(body))
}

func (c *Collector) fail(err error) {
	c.state = StateErrored
	c.emit(entities.ResponseFailed(err))
}

func (c *Collector) emit(resp entities.HTTPResponse) {
	c.sender.send(resp)
	c.state = StateDone
}
