package relay

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidSignature means the presented x-hub-signature-256 did not
	// match the HMAC of the body.
	ErrInvalidSignature = errors.New("invalid signature")

	// ErrMalformedPayload means the body is not valid JSON.
	ErrMalformedPayload = errors.New("malformed payload")

	// ErrUnknownEventType means the headers match no relayed event kind.
	ErrUnknownEventType = errors.New("unknown event type")

	// ErrDownstream means the forwarding call failed, either in transport or
	// with a non-2xx status.
	ErrDownstream = errors.New("downstream relay failed")
)

// DownstreamError is returned when the downstream service answered with a
// non-success status.
type DownstreamError struct {
	StatusCode int
	Body       string
}

func (e *DownstreamError) Error() string {
	return fmt.Sprintf("downstream responded %d", e.StatusCode)
}

func (e *DownstreamError) Unwrap() error {
	return ErrDownstream
}
