package entities

// HTTPResponse is the single result of an exchange: either the body bytes
// of a successful response or the error describing why it failed.
type HTTPResponse struct {
	// Err is set when the exchange failed. Its Error() text is the
	// human-readable description of the failure.
	Err error

	// Body holds the response body on success. It may be empty.
	Body []byte
}

// ResponseOK returns a successful response carrying body.
func ResponseOK(body []byte) HTTPResponse {
	return HTTPResponse{Body: body}
}

// ResponseFailed returns a failed response carrying err.
func ResponseFailed(err error) HTTPResponse {
	return HTTPResponse{Err: err}
}

// Failed reports whether the exchange failed.
func (r HTTPResponse) Failed() bool {
	return r.Err != nil
}

// Text returns the failure description, or "" on success.
func (r HTTPResponse) Text() string {
	if r.Err == nil {
		return ""
	}
	return r.Err.Error()
}
