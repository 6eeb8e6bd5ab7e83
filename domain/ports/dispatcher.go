package ports

import (
	"github.com/taheris/bad-write-retry-example/domain/entities"
)

// Dispatcher submits requests and hands back a one-shot completion channel.
type Dispatcher interface {
	// Request submits req without blocking. Exactly one response is
	// delivered on the returned channel.
	Request(req entities.HTTPRequest) <-chan entities.HTTPResponse
}
