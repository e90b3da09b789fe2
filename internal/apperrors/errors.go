// Package apperrors defines the typed error taxonomy shared by services and
// handlers. Handlers translate these into HTTP statuses; workers use
// Retryable to decide between backoff and terminal failure.
package apperrors

import (
	"errors"
	"fmt"
)

// ValidationError reports bad input. Never retried.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for %s: %s", e.Field, e.Message)
	}
	return "validation failed: " + e.Message
}

func NewValidationError(field, message string) *ValidationError {
	return &ValidationError{Field: field, Message: message}
}

// InvalidChannelError reports a channel that does not resolve to an active
// channel. Referential failure, not retried.
type InvalidChannelError struct {
	ChannelID string
}

func (e *InvalidChannelError) Error() string {
	return "invalid or inactive channel: " + e.ChannelID
}

// InvalidUserError reports an unknown user hash.
type InvalidUserError struct {
	UserHash string
}

func (e *InvalidUserError) Error() string {
	return "invalid user: " + e.UserHash
}

// ClassificationError wraps a classifier gateway failure. Transient; the
// analysis worker retries with backoff up to its bound.
type ClassificationError struct {
	MessageID string
	Err       error
}

func (e *ClassificationError) Error() string {
	return fmt.Sprintf("classification failed for message %s: %v", e.MessageID, e.Err)
}

func (e *ClassificationError) Unwrap() error { return e.Err }

// AggregationError reports that a single bucket's computation failed. The
// batch logs and skips it; only an all-groups failure aborts the run.
type AggregationError struct {
	Bucket string
	Err    error
}

func (e *AggregationError) Error() string {
	return fmt.Sprintf("aggregation failed for bucket %s: %v", e.Bucket, e.Err)
}

func (e *AggregationError) Unwrap() error { return e.Err }

// AuthorizationError propagates unchanged from reporting-layer callers.
type AuthorizationError struct {
	Message string
}

func (e *AuthorizationError) Error() string { return e.Message }

// ErrDuplicateMessage marks an already-ingested (channel, external_ref) pair.
// Ingestion treats it as an idempotent replay, not a failure.
var ErrDuplicateMessage = errors.New("duplicate message submission")

// ErrNotFound is returned by repositories for missing documents.
var ErrNotFound = errors.New("not found")

// Retryable reports whether the error is worth retrying with backoff.
func Retryable(err error) bool {
	var ce *ClassificationError
	return errors.As(err, &ce)
}
