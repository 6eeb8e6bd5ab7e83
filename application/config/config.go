// Package config loads and validates client configuration.
package config

import (
	stdErrors "errors"
	"fmt"
	"os"
	"reflect"
	"strings"

	"github.com/go-playground/validator/v10"

	"github.com/taheris/bad-write-retry-example/domain/entities"
	"github.com/taheris/bad-write-retry-example/domain/errors"
	"github.com/taheris/bad-write-retry-example/domain/ports"
)

var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	// Report fields by their yaml names so errors match the config file.
	v.RegisterTagNameFunc(func(f reflect.StructField) string {
		name := strings.SplitN(f.Tag.Get("yaml"), ",", 2)[0]
		if name == "-" || name == "" {
			return f.Name
		}
		return name
	})
	return v
}

// Validate checks cfg against its validation tags. The first failing field
// is returned as an *errors.ConfigError.
func Validate(cfg *entities.ClientConfig) error {
	if cfg == nil {
		return &errors.ConfigError{Err: fmt.Errorf("config is nil")}
	}

	err := validate.Struct(cfg)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if stdErrors.As(err, &verrs) && len(verrs) > 0 {
		fe := verrs[0]
		return &errors.ConfigError{
			Field: fe.Field(),
			Err:   fmt.Errorf("failed on the '%s' rule (value: %v)", fe.Tag(), fe.Value()),
		}
	}
	return &errors.ConfigError{Err: err}
}

// Build returns the default configuration with opts applied, validated.
func Build(opts ...entities.ConfigOption) (*entities.ClientConfig, error) {
	cfg := entities.DefaultClientConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if err := Validate(&cfg); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Parse decodes data with parser and validates the result.
func Parse(parser ports.ConfigParser, data []byte) (*entities.ClientConfig, error) {
	cfg, err := parser.Parse(data)
	if err != nil {
		return nil, &errors.ConfigError{Err: fmt.Errorf("failed to parse config: %w", err)}
	}
	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// LoadFile reads path and parses it with parser.
func LoadFile(parser ports.ConfigParser, path string) (*entities.ClientConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return Parse(parser, data)
}
