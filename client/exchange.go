package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptrace"
	"sync"
	"time"

	domainerrors "github.com/taheris/bad-write-retry-example/domain/errors"
)

// errAborted is returned to the transport when the collector gives up
// on writing the body. The result has already been delivered.
var errAborted = errors.New("exchange aborted by collector")

// exchange adapts the transport to collector callbacks. The transport reads
// the request body on its own goroutine, so callbacks are serialized by mu.
type exchange struct {
	collector *Collector
	transport http.RoundTripper
	logger    *slog.Logger
	cancel    context.CancelCauseFunc
	timer     *time.Timer

	mu sync.Mutex
}

func newExchange(collector *Collector, transport http.RoundTripper, logger *slog.Logger) *exchange {
	return &exchange{
		collector: collector,
		transport: transport,
		logger:    logger,
	}
}

// run drives the exchange to completion. It returns once the collector has
// delivered its result or the response body is abandoned.
func (x *exchange) run(ctx context.Context) {
	ctx, cancel := context.WithCancelCause(ctx)
	defer cancel(nil)
	x.cancel = cancel

	req := x.collector.req
	httpReq, err := http.NewRequestWithContext(ctx, req.Method, req.Target(), nil)
	if err != nil {
		x.onError(err)
		return
	}

	if next := x.onRequest(httpReq); next.Terminal() {
		return
	}

	if httpReq.ContentLength > 0 {
		httpReq.Body = &bodySource{x: x}
	} else {
		httpReq.Body = http.NoBody
		// With no body the transport never pulls from us, so deliver
		// the write readiness once the request line and headers are out.
		trace := &httptrace.ClientTrace{
			WroteRequest: func(info httptrace.WroteRequestInfo) {
				if info.Err == nil {
					_, _ = x.writable(nil)
				}
			},
		}
		httpReq = httpReq.WithContext(httptrace.WithClientTrace(ctx, trace))
	}

	resp, err := x.transport.RoundTrip(httpReq)
	timedOut := x.disarm()

	if err != nil {
		if cause := context.Cause(ctx); cause != nil && !errors.Is(cause, context.Canceled) {
			err = cause
		}
		x.onError(err)
		return
	}
	defer func() { _ = resp.Body.Close() }()

	if timedOut {
		x.onError(context.Cause(ctx))
		return
	}

	next := x.onResponse(resp)
	dec := newDecoder(resp.Body)
	for next.Interest() == InterestRead {
		dec.rearm()
		next = x.onReadable(dec)
	}
}

// writable delivers write readiness over buf until the window is full, the
// body is complete, or the collector aborts.
func (x *exchange) writable(buf []byte) (int, error) {
	enc := newEncoder(buf)
	for {
		next := x.onWritable(enc)
		switch next.Interest() {
		case InterestWrite:
			if enc.Available() == 0 {
				return enc.Buffered(), nil
			}
		case InterestRead:
			x.arm(next.Timeout())
			return enc.Buffered(), io.EOF
		default:
			return enc.Buffered(), errAborted
		}
	}
}

// arm starts the awaiting-response timer. A zero duration leaves it off.
func (x *exchange) arm(d time.Duration) {
	if d <= 0 {
		return
	}
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.timer != nil {
		return
	}
	target := x.collector.req.Target()
	x.timer = time.AfterFunc(d, func() {
		x.cancel(&domainerrors.TimeoutError{Operation: "awaiting response", Duration: d, Target: target})
	})
}

// disarm stops the timer and reports whether it had already fired.
func (x *exchange) disarm() bool {
	x.mu.Lock()
	defer x.mu.Unlock()

	if x.timer == nil {
		return false
	}
	fired := !x.timer.Stop()
	x.timer = nil
	return fired
}

func (x *exchange) onRequest(r *http.Request) Next {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.collector.OnRequest(r)
}

func (x *exchange) onWritable(enc *Encoder) Next {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.collector.OnWritable(enc)
}

func (x *exchange) onResponse(resp *http.Response) Next {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.collector.OnResponse(resp)
}

func (x *exchange) onReadable(dec *Decoder) Next {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.collector.OnReadable(dec)
}

func (x *exchange) onError(err error) Next {
	x.mu.Lock()
	defer x.mu.Unlock()
	return x.collector.OnError(err)
}

// bodySource is the request body handed to the transport. Each Read is one
// write-readiness event.
type bodySource struct {
	x *exchange
}

func (b *bodySource) Read(p []byte) (int, error) {
	return b.x.writable(p)
}

func (b *bodySource) Close() error {
	return nil
}
