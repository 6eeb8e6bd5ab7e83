package ports

import "github.com/taheris/bad-write-retry-example/domain/entities"

// ConfigParser decodes client configuration from raw bytes.
// Fields absent from the input keep their defaults.
type ConfigParser interface {
	Parse(data []byte) (*entities.ClientConfig, error)
}
