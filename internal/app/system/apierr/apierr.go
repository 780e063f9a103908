// internal/app/system/apierr/apierr.go

// Package apierr defines the machine-readable error taxonomy shared by all
// JSON handlers. Handlers normalize store and collaborator errors to one of
// these kinds; raw collaborator detail is never echoed to clients.
package apierr

import (
	"encoding/json"
	"errors"
	"net/http"
)

// Kind identifies an error class. The string values are part of the API
// surface: clients branch on them (e.g. "session_ended" vs "forbidden" render
// different screens).
type Kind string

const (
	KindUnauthorized      Kind = "unauthorized"
	KindForbidden         Kind = "forbidden"
	KindNotFound          Kind = "not_found"
	KindInvalidInput      Kind = "invalid_input"
	KindIllegalTransition Kind = "illegal_transition"
	KindSessionEnded      Kind = "session_ended"
	KindRateLimited       Kind = "rate_limited"
	KindInternal          Kind = "internal"
)

// Error is a classified API error.
type Error struct {
	Kind    Kind
	Message string
}

func (e *Error) Error() string { return string(e.Kind) + ": " + e.Message }

// New creates a classified error.
func New(kind Kind, message string) *Error {
	return &Error{Kind: kind, Message: message}
}

// Status maps a kind to its HTTP status code.
func (k Kind) Status() int {
	switch k {
	case KindUnauthorized:
		return http.StatusUnauthorized
	case KindForbidden:
		return http.StatusForbidden
	case KindNotFound:
		return http.StatusNotFound
	case KindInvalidInput, KindIllegalTransition:
		return http.StatusBadRequest
	case KindSessionEnded:
		return http.StatusConflict
	case KindRateLimited:
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

// body is the wire shape: {"error": {"kind": "...", "message": "..."}}.
type body struct {
	Error payload `json:"error"`
}

type payload struct {
	Kind    Kind   `json:"kind"`
	Message string `json:"message"`
}

// Write renders err as JSON. Unclassified errors become KindInternal with a
// generic message so collaborator detail cannot leak.
func Write(w http.ResponseWriter, err error) {
	var apiErr *Error
	if !errors.As(err, &apiErr) {
		apiErr = New(KindInternal, "internal error")
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(apiErr.Kind.Status())
	_ = json.NewEncoder(w).Encode(body{Error: payload{Kind: apiErr.Kind, Message: apiErr.Message}})
}

// WriteKind is shorthand for Write(w, New(kind, message)).
func WriteKind(w http.ResponseWriter, kind Kind, message string) {
	Write(w, New(kind, message))
}
