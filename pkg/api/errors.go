package api

import (
	"context"
	"errors"
	"fmt"
	"net"
)

// ServerError is a structured non-2xx rejection from a mutation or
// list endpoint. Message is shown to the user verbatim when present.
type ServerError struct {
	Status  int
	Code    string
	Message string
}

func (e *ServerError) Error() string {
	if e.Message != "" {
		return fmt.Sprintf("server rejected (%s): %s", e.Code, e.Message)
	}
	return fmt.Sprintf("server rejected: status %d", e.Status)
}

// ValidationError is a client-side precondition failure caught before
// any network call. It is surfaced inline next to the offending field.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// NoticeError carries a ready-to-display message for aggregate
// failures that have no single underlying cause, like a partially
// failed batch delete.
type NoticeError struct {
	Msg string
}

func (e *NoticeError) Error() string { return e.Msg }

// FailureKind classifies an engine-visible failure for surfacing.
type FailureKind int

const (
	FailureNone FailureKind = iota
	FailureTimeout
	FailureNetwork
	FailureRejected
	FailureValidation
)

// Classify maps an error onto the failure taxonomy. Timeouts and plain
// connectivity failures share the same handling downstream; they stay
// distinguishable for status messages.
func Classify(err error) FailureKind {
	if err == nil {
		return FailureNone
	}
	var se *ServerError
	if errors.As(err, &se) {
		return FailureRejected
	}
	var ve *ValidationError
	if errors.As(err, &ve) {
		return FailureValidation
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return FailureTimeout
	}
	var ne net.Error
	if errors.As(err, &ne) && ne.Timeout() {
		return FailureTimeout
	}
	return FailureNetwork
}

// UserMessage renders err for a non-blocking notification. Structured
// rejections pass their message through; everything else falls back to
// a generic message keyed by the attempted action ("load", "save",
// "delete").
func UserMessage(action string, err error) string {
	var se *ServerError
	if errors.As(err, &se) && se.Message != "" {
		return se.Message
	}
	var ne *NoticeError
	if errors.As(err, &ne) {
		return ne.Msg
	}
	switch Classify(err) {
	case FailureTimeout:
		return action + " timed out"
	default:
		return action + " failed"
	}
}
