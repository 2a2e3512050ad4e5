package bridge

import (
	"errors"
	"fmt"
)

var (
	ErrAlreadyResponded = errors.New("call already responded")
	ErrNotResolved      = errors.New("call not resolved")
	ErrBridgeStopped    = errors.New("bridge stopped")
	ErrBodyTooLarge     = errors.New("request body too large")
)

// TransportError is returned when the inbound request body could not
// be read. The request never reaches the engine.
type TransportError struct {
	Err error
}

func (e *TransportError) Error() string {
	return fmt.Sprintf("transport error: %v", e.Err)
}

func (e *TransportError) Unwrap() error {
	return e.Err
}

// BridgeFault wraps an internal engine failure. Faults are recovered
// at the bridge boundary and turned into 500 envelopes.
type BridgeFault struct {
	Err error

	// Panic holds the recovered value if the engine panicked.
	Panic any
}

func (e *BridgeFault) Error() string {
	if e.Panic != nil {
		return fmt.Sprintf("bridge fault: engine panicked: %v", e.Panic)
	}

	return fmt.Sprintf("bridge fault: %v", e.Err)
}

func (e *BridgeFault) Unwrap() error {
	return e.Err
}

// EnvelopeParseError is returned when a resolved result is not a
// well-formed response envelope.
type EnvelopeParseError struct {
	Err error
}

func (e *EnvelopeParseError) Error() string {
	return fmt.Sprintf("malformed envelope: %v", e.Err)
}

func (e *EnvelopeParseError) Unwrap() error {
	return e.Err
}

func IsTransportError(err error) bool {
	var target *TransportError
	return errors.As(err, &target)
}

func IsBridgeFault(err error) bool {
	var target *BridgeFault
	return errors.As(err, &target)
}

func IsEnvelopeParseError(err error) bool {
	var target *EnvelopeParseError
	return errors.As(err, &target)
}
