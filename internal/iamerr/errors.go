// Package iamerr defines the error taxonomy shared by the identity and access
// control packages.
//
// Every business error is a *Error whose Kind is one of the exported sentinel
// kinds. Callers match either the broad kind:
//
//	errors.Is(err, iamerr.ErrNotFound)
//
// or a named variant that also pins the entity and field:
//
//	errors.Is(err, iamerr.ErrDuplicateCode)
//
// Structured context (ids, codes, lock expiry) is available through errors.As.
package iamerr

import (
	"errors"
	"fmt"
	"time"
)

// Error kinds.
var (
	// ErrNotFound is returned when a principal, role, permission or assignment is absent.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned for duplicate names, codes or assignments.
	ErrConflict = errors.New("conflict")
	// ErrForbidden is returned for mutations of system-protected rows.
	ErrForbidden = errors.New("forbidden")
	// ErrInvalidCredentials is returned when a password does not verify.
	ErrInvalidCredentials = errors.New("invalid credentials")
	// ErrAccountDisabled is returned when a disabled principal tries to authenticate.
	ErrAccountDisabled = errors.New("account disabled")
	// ErrAccountLocked is returned while a lockout window is active.
	ErrAccountLocked = errors.New("account locked")
	// ErrValidationFailed is returned for malformed input.
	ErrValidationFailed = errors.New("validation failed")
	// ErrResolutionFailed is returned when the store fails during permission computation.
	// Callers must treat it as a deny.
	ErrResolutionFailed = errors.New("permission resolution failed")
)

// Entity names.
const (
	EntityPrincipal  = "principal"
	EntityRole       = "role"
	EntityPermission = "permission"
	EntityAssignment = "assignment"
	EntityMembership = "membership"
)

// Named variants used with errors.Is.
var (
	ErrPrincipalNotFound   = &Error{Kind: ErrNotFound, Entity: EntityPrincipal}
	ErrRoleNotFound        = &Error{Kind: ErrNotFound, Entity: EntityRole}
	ErrPermissionNotFound  = &Error{Kind: ErrNotFound, Entity: EntityPermission}
	ErrAssignmentNotFound  = &Error{Kind: ErrNotFound, Entity: EntityAssignment}
	ErrDuplicateCode       = &Error{Kind: ErrConflict, Field: "code"}
	ErrDuplicateName       = &Error{Kind: ErrConflict, Field: "name"}
	ErrDuplicateAssignment = &Error{Kind: ErrConflict, Entity: EntityAssignment}
	ErrPrincipalDisabled   = &Error{Kind: ErrAccountDisabled, Entity: EntityPrincipal}
	ErrPrincipalLocked     = &Error{Kind: ErrAccountLocked, Entity: EntityPrincipal}
)

// Error is a typed business error.
type Error struct {
	Kind   error
	Entity string
	Field  string
	Key    any
	Until  time.Time // lock expiry for ErrAccountLocked
	Reason string
}

// Error implements the error interface.
func (e *Error) Error() string {
	msg := e.Kind.Error()

	if e.Entity != "" {
		msg = e.Entity + " " + msg
	}

	if e.Field != "" {
		msg += fmt.Sprintf(": %s", e.Field)
	}

	if e.Key != nil {
		msg += fmt.Sprintf(" (%v)", e.Key)
	}

	if e.Reason != "" {
		msg += ": " + e.Reason
	}

	return msg
}

// Unwrap exposes the kind so errors.Is(err, ErrNotFound) matches.
func (e *Error) Unwrap() error {
	return e.Kind
}

// Is matches a named variant. Empty Entity or Field on the target act as wildcards.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok {
		return false
	}

	if t.Kind != e.Kind {
		return false
	}

	if t.Entity != "" && t.Entity != e.Entity {
		return false
	}

	if t.Field != "" && t.Field != e.Field {
		return false
	}

	return true
}

// NotFound builds an ErrNotFound error.
func NotFound(entity string, key any) error {
	return &Error{Kind: ErrNotFound, Entity: entity, Key: key}
}

// Duplicate builds an ErrConflict error for a unique field.
func Duplicate(entity, field string, value any) error {
	return &Error{Kind: ErrConflict, Entity: entity, Field: field, Key: value}
}

// Forbidden builds an ErrForbidden error.
func Forbidden(entity string, key any, reason string) error {
	return &Error{Kind: ErrForbidden, Entity: entity, Key: key, Reason: reason}
}

// Invalid builds an ErrValidationFailed error.
func Invalid(field, reason string) error {
	return &Error{Kind: ErrValidationFailed, Field: field, Reason: reason}
}

// InvalidCredentials builds an ErrInvalidCredentials error for principal id.
func InvalidCredentials(id uint64) error {
	return &Error{Kind: ErrInvalidCredentials, Entity: EntityPrincipal, Key: id}
}

// Locked builds an ErrAccountLocked error carrying the lock expiry.
func Locked(id uint64, until time.Time) error {
	return &Error{Kind: ErrAccountLocked, Entity: EntityPrincipal, Key: id, Until: until}
}

// Disabled builds an ErrAccountDisabled error.
func Disabled(id uint64) error {
	return &Error{Kind: ErrAccountDisabled, Entity: EntityPrincipal, Key: id}
}

// Resolution wraps a store failure observed while resolving permissions.
func Resolution(err error) error {
	return fmt.Errorf("%w: %w", ErrResolutionFailed, err)
}
