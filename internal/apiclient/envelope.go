package apiclient

import (
	"encoding/json"
	"strings"
)

// FallbackMessage is shown when a failed response carries no usable message.
const FallbackMessage = "An unknown error occurred."

// Envelope is the wrapper every remote API response uses. Data is meaningful only when
// Success is true.
type Envelope[T any] struct {
	Success bool    `json:"success"`
	Message *string `json:"message"`
	Data    T       `json:"data"`
}

func (e Envelope[T]) Text() string {
	if e.Message == nil {
		return ""
	}
	return *e.Message
}

// ErrorEnvelope is read from failure responses.
type ErrorEnvelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

// errorMessage extracts the message of an error envelope, falling back to a generic text
// when the body is empty or not an envelope.
func errorMessage(body []byte) string {
	var env ErrorEnvelope
	if len(body) == 0 || json.Unmarshal(body, &env) != nil {
		return FallbackMessage
	}
	if msg := strings.TrimSpace(env.Message); msg != "" {
		return msg
	}
	return FallbackMessage
}
