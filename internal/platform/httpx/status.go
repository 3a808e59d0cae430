package httpx

import (
	"context"
	"errors"
	"net/http"
)

// StatusMapping pairs a sentinel error with the envelope written for it.
type StatusMapping struct {
	Target  error
	Code    string
	Status  int
	Message string
}

// Classify walks mappings in order and returns the first envelope whose
// sentinel matches err. Unmatched errors become a generic 500 so internal
// messages never reach clients.
func Classify(err error, mappings ...StatusMapping) Error {
	if errors.Is(err, context.DeadlineExceeded) {
		return NewError("upstream_timeout", "upstream did not respond in time", http.StatusGatewayTimeout)
	}
	var envelope Error
	if errors.As(err, &envelope) {
		return envelope
	}
	for _, m := range mappings {
		if errors.Is(err, m.Target) {
			msg := m.Message
			if msg == "" {
				msg = err.Error()
			}
			return NewError(m.Code, msg, m.Status)
		}
	}
	return NewError("internal_server_error", "internal server error", http.StatusInternalServerError)
}
