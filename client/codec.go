package client

import (
	"errors"
	"io"
)

// ErrWouldBlock reports that an I/O operation cannot make progress in the
// current readiness event. The caller should re-arm for the same operation.
var ErrWouldBlock = errors.New("operation would block")

// Encoder is the write side of one write-readiness event: a window onto the
// transport's pending buffer.
type Encoder struct {
	buf []byte
	n   int
}

func newEncoder(buf []byte) *Encoder {
	return &Encoder{buf: buf}
}

// Write copies as much of p as fits in the remaining window. An empty p
// returns (0, nil); a non-empty p with no room left returns ErrWouldBlock.
func (e *Encoder) Write(p []byte) (int, error) {
	if len(p) == 0 {
		return 0, nil
	}
	if e.n == len(e.buf) {
		return 0, ErrWouldBlock
	}
	n := copy(e.buf[e.n:], p)
	e.n += n
	return n, nil
}

// Buffered returns the number of bytes written in this event.
func (e *Encoder) Buffered() int { return e.n }

// Available returns the room left in the window.
func (e *Encoder) Available() int { return len(e.buf) - e.n }

// Decoder is the read side of one read-readiness event. It allows a single
// read of the underlying body per event.
type Decoder struct {
	r      io.Reader
	polled bool
	eof    bool
}

func newDecoder(r io.Reader) *Decoder {
	return &Decoder{r: r}
}

// Read performs at most one underlying read per readiness event. Later
// reads in the same event, and underlying reads that return no data,
// report ErrWouldBlock. End of stream is io.EOF.
func (d *Decoder) Read(p []byte) (int, error) {
	if d.eof {
		return 0, io.EOF
	}
	if d.polled {
		return 0, ErrWouldBlock
	}
	d.polled = true

	n, err := d.r.Read(p)
	switch {
	case err == io.EOF:
		d.eof = true
		if n == 0 {
			return 0, io.EOF
		}
		return n, nil
	case err != nil:
		return n, err
	case n == 0:
		return 0, ErrWouldBlock
	}
	return n, nil
}

// rearm starts a new readiness event.
func (d *Decoder) rearm() {
	d.polled = false
}
