package apiclient

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	ErrUnavailable  = errors.New("remote api unavailable")
	ErrNotFound     = errors.New("remote resource not found")
	ErrUnauthorized = errors.New("remote api rejected token")
	ErrMalformed    = errors.New("malformed remote response")
)

// RemoteError is a failure reported by the remote API, either through a non-2xx status or
// an envelope with success=false.
type RemoteError struct {
	StatusCode int
	Message    string
}

func (e *RemoteError) Error() string {
	return fmt.Sprintf("remote api status %d: %s", e.StatusCode, e.Message)
}

func (e *RemoteError) Unwrap() error {
	switch e.StatusCode {
	case http.StatusUnauthorized:
		return ErrUnauthorized
	case http.StatusNotFound:
		return ErrNotFound
	}
	return nil
}

// UserMessage returns the text to show on a form for err.
func UserMessage(err error) string {
	var re *RemoteError
	if errors.As(err, &re) && re.Message != "" {
		return re.Message
	}
	return FallbackMessage
}
