package client

import "fmt"

// State is the lifecycle position of a Collector.
type State uint8

const (
	StateAwaitingWriteReady State = iota
	StateWritingBody
	StateAwaitingResponse
	StateReadingBody
	StateErrored
	StateDone
)

func (s State) String() string {
	switch s {
	case StateAwaitingWriteReady:
		return "awaiting_write_ready"
	case StateWritingBody:
		return "writing_body"
	case StateAwaitingResponse:
		return "awaiting_response"
	case StateReadingBody:
		return "reading_body"
	case StateErrored:
		return "errored"
	case StateDone:
		return "done"
	default:
		return fmt.Sprintf("state(%d)", uint8(s))
	}
}
