package graph

import "github.com/hyyve/flowcanvas/internal/nodetype"

// RoleResolver tells the validator whether a handle is an input or an output.
type RoleResolver interface {
	HandleRole(nodeType, handleID string) (nodetype.Role, bool)
}

// Reader is the read-only view of a graph the validator needs.
type Reader interface {
	NodeType(id string) (string, bool)
	HasConnection(source, target HandleRef) bool
}

// Validator decides whether a candidate edge may be added. It never mutates
// anything, so the UI can call it on every pointer move to preview a connection.
type Validator struct {
	Roles RoleResolver

	// AllowNodeLoops permits edges between two different handles of the same node.
	// Connecting a handle to itself is always rejected.
	AllowNodeLoops bool
}

// Validate returns nil or a *ValidationError. Checks run in a fixed order:
// self handle, duplicate connection, incompatible handle roles.
func (v Validator) Validate(e Edge, r Reader) error {
	reject := func(reason Reason) error {
		return &ValidationError{Reason: reason, Source: e.Source, Target: e.Target}
	}

	if e.Source == e.Target || (!v.AllowNodeLoops && e.Source.NodeID == e.Target.NodeID) {
		return reject(ReasonSelfHandle)
	}

	if r.HasConnection(e.Source, e.Target) {
		return reject(ReasonDuplicateConnection)
	}

	if v.Roles != nil {
		srcRole, srcOK := v.role(r, e.Source)
		dstRole, dstOK := v.role(r, e.Target)
		// Roles are only compared when both ends are known.
		if srcOK && dstOK && (srcRole != nodetype.RoleOutput || dstRole != nodetype.RoleInput) {
			return reject(ReasonIncompatibleHandles)
		}
	}

	return nil
}

func (v Validator) role(r Reader, h HandleRef) (nodetype.Role, bool) {
	typ, ok := r.NodeType(h.NodeID)
	if !ok {
		return "", false
	}
	return v.Roles.HandleRole(typ, h.HandleID)
}
