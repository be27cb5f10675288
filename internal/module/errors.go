package module

import (
	"errors"
	"fmt"
)

// StructuralInconsistencyError reports scene structure that cannot be
// reconciled with a module's declared configuration, e.g. a parent joint
// whose node no longer exists. It is surfaced to the caller; the only
// auto-repair attempted is the documented reparenting in UpdateParentJoint.
type StructuralInconsistencyError struct {
	// Module is the module that found the inconsistency.
	Module string

	// Joint is the affected owned joint, if any.
	Joint string

	// Reference is the declared reference that could not be honored.
	Reference string

	// Reason describes the mismatch.
	Reason string
}

// Error implements the error interface.
func (e *StructuralInconsistencyError) Error() string {
	if e.Joint != "" {
		return fmt.Sprintf("module %q: joint %q: %s (reference %q)", e.Module, e.Joint, e.Reason, e.Reference)
	}
	return fmt.Sprintf("module %q: %s (reference %q)", e.Module, e.Reason, e.Reference)
}

// IsStructuralInconsistency reports whether err is (or wraps) a
// *StructuralInconsistencyError.
func IsStructuralInconsistency(err error) bool {
	var se *StructuralInconsistencyError
	return errors.As(err, &se)
}

// MissingReferenceError reports a required reference field resolving to
// nothing at build time with no fallback available.
type MissingReferenceError struct {
	// Module is the module whose build failed.
	Module string

	// Field is the reference field that did not resolve.
	Field string

	// Value is the stored reference, empty when the field was never set.
	Value string
}

// Error implements the error interface.
func (e *MissingReferenceError) Error() string {
	if e.Value == "" {
		return fmt.Sprintf("module %q: required reference %q is unset", e.Module, e.Field)
	}
	return fmt.Sprintf("module %q: reference %q -> %q does not resolve", e.Module, e.Field, e.Value)
}

// IsMissingReference reports whether err is (or wraps) a
// *MissingReferenceError.
func IsMissingReference(err error) bool {
	var me *MissingReferenceError
	return errors.As(err, &me)
}
