package domain

import (
	"errors"
	"fmt"
)

// FailureKind categorizes operation failures for propagation decisions.
type FailureKind string

const (
	// FailureProtocol indicates an unexpected event shape on the stream.
	// Fatal to the current consume loop.
	FailureProtocol FailureKind = "protocol_violation"

	// FailureTransport indicates the agent invocation or a delivery
	// call failed at the network layer.
	FailureTransport FailureKind = "transport_failure"

	// FailureUnknownOperation indicates an unrecognized operation
	// discriminator in the inbound payload.
	FailureUnknownOperation FailureKind = "unknown_operation"
)

// OperationError is the canonical error for adapter operations.
type OperationError struct {
	Kind    FailureKind
	Message string
	Err     error
}

// Error implements the error interface.
func (e *OperationError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Kind, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Kind, e.Message)
}

// Unwrap returns the wrapped cause, if any.
func (e *OperationError) Unwrap() error {
	return e.Err
}

// NewProtocolViolation reports an event that is neither chunk nor trace.
func NewProtocolViolation(message string) *OperationError {
	return &OperationError{Kind: FailureProtocol, Message: message}
}

// NewTransportFailure wraps a network-layer failure.
func NewTransportFailure(message string, err error) *OperationError {
	return &OperationError{Kind: FailureTransport, Message: message, Err: err}
}

// NewUnknownOperation reports an unrecognized operation discriminator.
func NewUnknownOperation(opr string) *OperationError {
	return &OperationError{Kind: FailureUnknownOperation, Message: fmt.Sprintf("unsupported operation %q", opr)}
}

// IsKind reports whether err is an OperationError of the given kind.
func IsKind(err error, kind FailureKind) bool {
	var opErr *OperationError
	if errors.As(err, &opErr) {
		return opErr.Kind == kind
	}
	return false
}
