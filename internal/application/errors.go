package application

import "errors"

var (
	// ErrUnauthorized is returned when the acting principal lacks permission for an operation.
	ErrUnauthorized = errors.New("application: unauthorized")
	// ErrNotFound is returned when the requested resource does not exist.
	ErrNotFound = errors.New("application: not found")
	// ErrAlreadyExists is returned when a uniqueness rule rejects a create or update.
	ErrAlreadyExists = errors.New("application: already exists")
	// ErrInvalidCredentials is returned when an email/password pair does not match a user.
	ErrInvalidCredentials = errors.New("application: invalid credentials")

	// ErrInvalidInterval is returned when a reservation window has start >= end.
	ErrInvalidInterval = errors.New("application: invalid interval")
	// ErrConflictingReservation is returned when a reservation window overlaps
	// an existing one on the same place.
	ErrConflictingReservation = errors.New("application: conflicting reservation")

	// ErrNoPendingCode is returned when no verification code is stored for the email.
	ErrNoPendingCode = errors.New("application: no pending code")
	// ErrCodeExpired is returned when the stored verification code has passed its expiry.
	ErrCodeExpired = errors.New("application: code expired")
	// ErrInvalidCode is returned when the supplied verification code does not match.
	ErrInvalidCode = errors.New("application: invalid code")
	// ErrEmailSendFailure is returned when the email collaborator fails to deliver a code.
	ErrEmailSendFailure = errors.New("application: email send failure")
)

// ValidationError captures field level validation issues that callers can surface to users.
type ValidationError struct {
	FieldErrors map[string]string
}

// Error implements the error interface.
func (v *ValidationError) Error() string {
	if v == nil {
		return ""
	}
	return "validation failed"
}

// HasErrors reports whether any field level issues were recorded.
func (v *ValidationError) HasErrors() bool {
	return v != nil && len(v.FieldErrors) > 0
}

// add records a field level validation error.
func (v *ValidationError) add(field, message string) {
	if v.FieldErrors == nil {
		v.FieldErrors = make(map[string]string)
	}
	v.FieldErrors[field] = message
}
