package chaterr

import (
	"errors"
	"fmt"
)

// Taxonomy roots. Handlers translate these into HTTP statuses; everything in
// between matches with errors.Is.
var (
	ErrNotFound        = errors.New("not found")
	ErrConflict        = errors.New("already exists")
	ErrForbidden       = errors.New("operation not allowed")
	ErrValidation      = errors.New("invalid request")
	ErrVersionConflict = errors.New("version conflict")
)

// Domain violations raised by the channel models. Each wraps a taxonomy root
// so callers can match either the specific condition or the whole class.
var (
	ErrNotMember         = fmt.Errorf("%w: not a member", ErrForbidden)
	ErrAlreadyMember     = fmt.Errorf("%w: already a member", ErrForbidden)
	ErrBanned            = fmt.Errorf("%w: is banned", ErrForbidden)
	ErrNotAdministrator  = fmt.Errorf("%w: not an administrator", ErrForbidden)
	ErrActOnSelf         = fmt.Errorf("%w: cannot act on yourself", ErrForbidden)
	ErrCapacityExceeded  = fmt.Errorf("%w: channel member limit reached", ErrForbidden)
	ErrNoInvitation      = fmt.Errorf("%w: no such invitation", ErrForbidden)
	ErrAlreadyInvited    = fmt.Errorf("%w: invitation already pending", ErrConflict)
	ErrLastMember        = fmt.Errorf("%w: cannot remove the last member", ErrForbidden)
	ErrLastAdministrator = fmt.Errorf("%w: cannot remove the last administrator", ErrForbidden)
	ErrAdministrator     = fmt.Errorf("%w: target is an administrator", ErrForbidden)
	ErrNotBanned         = fmt.Errorf("%w: target is not banned", ErrForbidden)
	ErrBlocked           = fmt.Errorf("%w: channel is blocked", ErrForbidden)
)

// IsRetryable reports whether the service layer should retry the operation.
// Only optimistic-concurrency misses qualify.
func IsRetryable(err error) bool {
	return errors.Is(err, ErrVersionConflict)
}

// NotFoundf wraps ErrNotFound with a formatted detail.
func NotFoundf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrNotFound, fmt.Sprintf(format, args...))
}

// Conflictf wraps ErrConflict with a formatted detail.
func Conflictf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrConflict, fmt.Sprintf(format, args...))
}

// Validationf wraps ErrValidation with a formatted detail.
func Validationf(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}
