package client

import (
	"fmt"
	"time"
)

// Interest is what a collector wants the driver to do next.
type Interest uint8

const (
	// InterestWrite asks to be called again when the body can be written.
	InterestWrite Interest = iota + 1
	// InterestRead asks to be called when response data can be read.
	InterestRead
	// InterestEnd finishes the exchange normally.
	InterestEnd
	// InterestRemove aborts the exchange and discards the connection.
	InterestRemove
)

func (i Interest) String() string {
	switch i {
	case InterestWrite:
		return "write"
	case InterestRead:
		return "read"
	case InterestEnd:
		return "end"
	case InterestRemove:
		return "remove"
	default:
		return fmt.Sprintf("interest(%d)", uint8(i))
	}
}

// Next is the value returned by every collector callback.
type Next struct {
	interest Interest
	timeout  time.Duration
}

// NextWrite re-arms for write readiness.
func NextWrite() Next { return Next{interest: InterestWrite} }

// NextRead waits for read readiness (or response headers).
func NextRead() Next { return Next{interest: InterestRead} }

// NextEnd ends the exchange.
func NextEnd() Next { return Next{interest: InterestEnd} }

// NextRemove aborts the exchange.
func NextRemove() Next { return Next{interest: InterestRemove} }

// WithTimeout bounds the wait for the next readiness event.
func (n Next) WithTimeout(d time.Duration) Next {
	n.timeout = d
	return n
}

// Interest returns the requested interest.
func (n Next) Interest() Interest { return n.interest }

// Timeout returns the wait bound, or 0 for none.
func (n Next) Timeout() time.Duration { return n.timeout }

// Terminal reports whether the exchange is over.
func (n Next) Terminal() bool {
	return n.interest == InterestEnd || n.interest == InterestRemove
}

func (n Next) String() string {
	if n.timeout > 0 {
		return fmt.Sprintf("%s(timeout=%s)", n.interest, n.timeout)
	}
	return n.interest.String()
}
