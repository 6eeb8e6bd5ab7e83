// Package log provides structured logging (slog) for the exchange client.
package log

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"
)

// LineHandler implements slog.Handler, writing one text line per record:
//
//	2006-01-02T15:04:05.000Z07:00 INFO msg key=value ...
type LineHandler struct {
	mu     *sync.Mutex
	opts   handlerConfig
	prefix string // group prefix applied to record attrs
	attrs  []byte // pre-rendered attrs from WithAttrs
}

// HandlerOption configures the LineHandler.
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	w         io.Writer
	level     slog.Leveler
	addSource bool
	noTime    bool
}

// defaultHandlerConfig returns the default configuration.
func defaultHandlerConfig() handlerConfig {
	return handlerConfig{
		w:     os.Stdout,
		level: slog.LevelInfo,
	}
}

// WithLevel sets the minimum log level to report.
func WithLevel(level slog.Leveler) HandlerOption {
	return func(c *handlerConfig) {
		if level != nil {
			c.level = level
		}
	}
}

// WithSource enables reporting of source location (file/line).
func WithSource(enabled bool) HandlerOption {
	return func(c *handlerConfig) {
		c.addSource = enabled
	}
}

// WithWriter sets the destination. Default is os.Stdout.
func WithWriter(w io.Writer) HandlerOption {
	return func(c *handlerConfig) {
		if w != nil {
			c.w = w
		}
	}
}

// WithoutTime omits the timestamp column. Useful for golden output in tests.
func WithoutTime() HandlerOption {
	return func(c *handlerConfig) {
		c.noTime = true
	}
}

// NewHandler creates a new LineHandler with the given options.
func NewHandler(opts ...HandlerOption) *LineHandler {
	cfg := defaultHandlerConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	return &LineHandler{opts: cfg, mu: &sync.Mutex{}}
}

// New returns a logger backed by a LineHandler.
func New(opts ...HandlerOption) *slog.Logger {
	return slog.New(NewHandler(opts...))
}

// ParseLevel maps a level name to a slog.Level. Unknown names map to info.
func ParseLevel(name string) slog.Level {
	switch strings.ToLower(name) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Enabled reports whether the handler handles records at the given level.
func (h *LineHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.opts.level.Level()
}

// Handle formats record and writes it as a single line.
func (h *LineHandler) Handle(_ context.Context, record slog.Record) error {
	var buf bytes.Buffer

	if !h.opts.noTime && !record.Time.IsZero() {
		buf.WriteString(record.Time.Format("2006-01-02T15:04:05.000Z07:00"))
		buf.WriteByte(' ')
	}
	buf.WriteString(record.Level.String())
	buf.WriteByte(' ')
	buf.WriteString(record.Message)

	if h.opts.addSource {
		if src := record.Source(); src != nil {
			appendAttr(&buf, "", slog.String(slog.SourceKey, formatSource(src)))
		}
	}

	buf.Write(h.attrs)
	record.Attrs(func(a slog.Attr) bool {
		appendAttr(&buf, h.prefix, a)
		return true
	})
	buf.WriteByte('\n')

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.opts.w.Write(buf.Bytes())
	return err
}

// WithAttrs returns a new LineHandler that includes the given attributes.
func (h *LineHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return h
	}
	var buf bytes.Buffer
	buf.Write(h.attrs)
	for _, a := range attrs {
		appendAttr(&buf, h.prefix, a)
	}
	newHandler := *h
	newHandler.attrs = buf.Bytes()
	return &newHandler
}

// WithGroup returns a new LineHandler that qualifies later keys with name.
func (h *LineHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	newHandler := *h
	newHandler.prefix = h.prefix + name + "."
	return &newHandler
}

func formatSource(src *slog.Source) string {
	file := src.File
	if i := strings.LastIndexByte(file, '/'); i >= 0 {
		file = file[i+1:]
	}
	return file + ":" + strconv.Itoa(src.Line)
}

var _ slog.Handler = (*LineHandler)(nil)

// timeFormat is used for time-valued attributes.
const timeFormat = time.RFC3339Nano
