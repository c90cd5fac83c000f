package mqtt

import "errors"

var (
	// ErrAckTimeout is returned when no acknowledgment is received before the timeout.
	ErrAckTimeout = errors.New("timeout waiting for ack")
	// ErrUnknownMessage is returned when waiting on a message that was never sent.
	ErrUnknownMessage = errors.New("unknown message")
)
