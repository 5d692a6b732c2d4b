package client

import (
	"errors"
	"fmt"
	"net/http"
)

var (
	// ErrChatDisabled is returned when the service has the chat model unloaded.
	ErrChatDisabled = errors.New("chat feature is disabled")
	// ErrSessionNotFound is returned when a session id is unknown to the service.
	ErrSessionNotFound = errors.New("session not found")
	// ErrNoResponseBody is returned when the stream endpoint answered 200 without a body.
	ErrNoResponseBody = errors.New("no response body from server")
)

// TransportError is a non-success HTTP response.
type TransportError struct {
	Status int
	Body   string
}

func (e *TransportError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("received non-200 response: %d %s", e.Status, http.StatusText(e.Status))
	}
	return fmt.Sprintf("received non-200 response: %d, error: %s", e.Status, e.Body)
}

// DecodeInterruptedError reports a stream that failed mid-read.
type DecodeInterruptedError struct {
	Err error
}

func (e *DecodeInterruptedError) Error() string {
	return "stream interrupted: " + e.Err.Error()
}

func (e *DecodeInterruptedError) Unwrap() error {
	return e.Err
}

// IsStatus reports whether err is a TransportError with the given status code.
func IsStatus(err error, status int) bool {
	var te *TransportError
	return errors.As(err, &te) && te.Status == status
}
