package entities

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/go-playground/validator/v10"
)

// validate is a package-level singleton; building a validator is expensive.
var validate = newValidator()

func newValidator() *validator.Validate {
	v := validator.New()
	_ = v.RegisterValidation("http_scheme", func(fl validator.FieldLevel) bool {
		u, err := url.Parse(fl.Field().String())
		if err != nil {
			return false
		}
		return u.Scheme == "http" || u.Scheme == "https"
	})
	return v
}

// HTTPRequest is an outgoing request: method, target URL and raw body.
// It is treated as immutable once constructed.
type HTTPRequest struct {
	// URL is the parsed target.
	URL *url.URL

	// Method is the upper-case HTTP method.
	Method string

	// Body is sent as-is with a JSON content type.
	Body []byte
}

type httpRequestInput struct {
	Method string `validate:"required,oneof=GET HEAD POST PUT PATCH DELETE OPTIONS"`
	URL    string `validate:"required,url,http_scheme"`
}

// NewHTTPRequest validates method and URL and returns the request.
// The method is upper-cased before validation.
func NewHTTPRequest(method, rawURL string, body []byte) (HTTPRequest, error) {
	in := httpRequestInput{
		Method: strings.ToUpper(method),
		URL:    rawURL,
	}
	if err := validate.Struct(in); err != nil {
		return HTTPRequest{}, fmt.Errorf("invalid request: %w", err)
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return HTTPRequest{}, fmt.Errorf("invalid request url: %w", err)
	}

	return HTTPRequest{
		Method: in.Method,
		URL:    u,
		Body:   body,
	}, nil
}

// MustHTTPRequest is like NewHTTPRequest but panics on error.
// Intended for fixed requests known to be valid.
func MustHTTPRequest(method, rawURL string, body []byte) HTTPRequest {
	req, err := NewHTTPRequest(method, rawURL, body)
	if err != nil {
		panic(err)
	}
	return req
}

// Target returns the URL as a string, or "" if unset.
func (r HTTPRequest) Target() string {
	if r.URL == nil {
		return ""
	}
	return r.URL.String()
}
