package domain

import (
	"errors"
	"fmt"
)

// ErrUnknownEventType signals a stored or emitted event whose type tag is not
// part of the closed event set. This is data corruption or schema drift, not
// a recoverable business failure.
var ErrUnknownEventType = errors.New("unknown event type")

// ErrInvalidPayload signals a stored payload missing fields required to
// reconstruct its domain event.
var ErrInvalidPayload = errors.New("invalid event payload")

// ErrDocumentNotFound signals that a projected read-model document is missing
// for an event that requires it, which means the creation event was lost or
// the projection ran out of order.
var ErrDocumentNotFound = errors.New("read-model document not found")

// ConflictError is returned by the event store when the expected version does
// not match the stream's current head. Nothing was written; the caller may
// re-read the stream and retry the whole command.
type ConflictError struct {
	Expected int64
	Actual   int64
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("version conflict: expected %d, actual %d", e.Expected, e.Actual)
}
