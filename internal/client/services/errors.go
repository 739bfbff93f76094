package services

import (
	"errors"

	"github.com/dmitrijs2005/swpa/internal/client/client"
)

const (
	// GenericMessage is shown when the server gave no reason of its own.
	GenericMessage = "Something went wrong. Please try again."

	SessionExpiredMessage = "Session expired. Please login again."
)

var (
	ErrNoSession   = errors.New("no active session")
	ErrNotVerified = errors.New("identity is not verified")
)

// OpError is a failed remote operation. Message is safe to show to the user.
type OpError struct {
	Op      string
	Message string
	Err     error
}

func (e *OpError) Error() string { return e.Message }

func (e *OpError) Unwrap() error { return e.Err }

func newOpError(op string, err error) *OpError {
	msg, ok := client.ServerMessage(err)
	if !ok {
		msg = GenericMessage
	}
	return &OpError{Op: op, Message: msg, Err: err}
}

// UserMessage returns the text to show for err.
func UserMessage(err error) string {
	var opErr *OpError
	if errors.As(err, &opErr) {
		return opErr.Message
	}
	if errors.Is(err, ErrNoSession) {
		return "User not logged in"
	}
	return GenericMessage
}
