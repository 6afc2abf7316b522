package graph

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateID          = errors.New("graph: duplicate id")
	ErrUnknownNodeReference = errors.New("graph: edge references unknown node")
	ErrNodeNotFound         = errors.New("graph: node not found")
	ErrEdgeNotFound         = errors.New("graph: edge not found")
	ErrEmptyType            = errors.New("graph: node type is empty")
	ErrInvalidGeometry      = errors.New("graph: invalid position or size")
	ErrReentrantMutation    = errors.New("graph: mutation issued during another mutation")
	ErrValidationRejected   = errors.New("graph: connection rejected")
)

// Reason says why the validator refused a connection.
type Reason string

const (
	ReasonSelfHandle          Reason = "SelfHandle"
	ReasonDuplicateConnection Reason = "DuplicateConnection"
	ReasonIncompatibleHandles Reason = "IncompatibleHandles"
)

// ValidationError is returned for a refused connection. It matches ErrValidationRejected with errors.Is.
type ValidationError struct {
	Reason Reason
	Source HandleRef
	Target HandleRef
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("graph: connection %s -> %s rejected: %s", e.Source, e.Target, e.Reason)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrValidationRejected
}

// RejectionReason extracts the validator reason from err, if any.
func RejectionReason(err error) (Reason, bool) {
	var ve *ValidationError
	if errors.As(err, &ve) {
		return ve.Reason, true
	}
	return "", false
}
