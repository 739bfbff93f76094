package client

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
)

// ErrUnavailable wraps transport failures: the API could not be reached or
// its reply could not be read.
var ErrUnavailable = errors.New("server unavailable")

// APIError is a non-2xx reply of the identity API.
type APIError struct {
	StatusCode int
	// Message is the server's human-readable message, empty when it sent none.
	Message string
}

func (e *APIError) Error() string {
	if e.Message != "" {
		return e.Message
	}
	return http.StatusText(e.StatusCode)
}

// ServerMessage returns the message carried by an *APIError in err's chain.
func ServerMessage(err error) (string, bool) {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.Message != "" {
		return apiErr.Message, true
	}
	return "", false
}

// parseError accepts {"message": "..."} and {"error": {"message": "..."}}
// bodies; anything else yields an APIError without a message.
func parseError(statusCode int, body []byte) error {
	var simple struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(body, &simple); err == nil && simple.Message != "" {
		return &APIError{StatusCode: statusCode, Message: simple.Message}
	}

	var nested struct {
		Error struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &nested); err == nil && nested.Error.Message != "" {
		return &APIError{StatusCode: statusCode, Message: nested.Error.Message}
	}

	var plain struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(body, &plain); err == nil && strings.TrimSpace(plain.Error) != "" {
		return &APIError{StatusCode: statusCode, Message: plain.Error}
	}

	return &APIError{StatusCode: statusCode}
}
