/*
errors.go - Centralized error types for the engine

PURPOSE:
  All engine error kinds in one place. Domain packages wrap these with
  additional context and unwrap back to them for errors.Is checks.

PROPAGATION POLICY:
  - Payment validation errors are detected before any mutation; a
    rejection leaves the caller's snapshot untouched (all-or-nothing).
  - Date parsing degrades to a safe default (see ParseDateOr) rather than
    aborting a whole report for one malformed date.
  - Unknown catalog codes price at zero; the sentinel exists for logging,
    not for control flow.
*/
package engine

import "errors"

var (
	// ErrInvalidAttendanceRate is returned when an attendance percentage is
	// non-numeric or not in (0, 100].
	ErrInvalidAttendanceRate = errors.New("invalid attendance rate")

	// ErrUnparseableDate is returned (or logged, where the lenient fallback
	// applies) when a calendar date cannot be parsed.
	ErrUnparseableDate = errors.New("unparseable date")

	// ErrOverpaymentRejected is the sentinel under every payment rejection:
	// a unit-quantity cap or the percentage cap would be exceeded.
	ErrOverpaymentRejected = errors.New("overpayment rejected")

	// ErrUnknownCatalogCode marks a unit code absent from the catalog. Such
	// codes price at zero; this is never fatal.
	ErrUnknownCatalogCode = errors.New("unknown catalog code")

	// ErrProviderNotFound is returned when a referenced provider doesn't exist.
	ErrProviderNotFound = errors.New("provider not found")

	// ErrOrderIndexOutOfRange is returned when an operation addresses an
	// order position a provider doesn't have.
	ErrOrderIndexOutOfRange = errors.New("order index out of range")
)

// IsClientError returns true if the error is due to invalid client input.
func IsClientError(err error) bool {
	return errors.Is(err, ErrInvalidAttendanceRate) ||
		errors.Is(err, ErrUnparseableDate) ||
		errors.Is(err, ErrOverpaymentRejected) ||
		errors.Is(err, ErrOrderIndexOutOfRange)
}

// IsNotFound returns true if the error indicates a missing resource.
func IsNotFound(err error) bool {
	return errors.Is(err, ErrProviderNotFound)
}
