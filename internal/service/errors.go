package service

import (
	"errors"
	"fmt"
)

// Error categories. Every service error wraps exactly one of these so the
// HTTP layer can map by category with errors.Is.
var (
	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")

	// ErrForbidden is returned when the caller is authenticated but not entitled to act on the entity
	ErrForbidden = errors.New("forbidden")

	// ErrNotFound is returned when an entity is absent or not owned by the caller
	ErrNotFound = errors.New("resource not found")

	// ErrConflict is returned when the current state disallows the transition
	ErrConflict = errors.New("conflict")

	// ErrExpired is returned when a deadline has elapsed
	ErrExpired = errors.New("expired")

	// ErrUnauthorized is returned when user is not authenticated
	ErrUnauthorized = errors.New("unauthorized")
)

var (
	ErrUserContextRequired = fmt.Errorf("%w: user context required", ErrUnauthorized)

	ErrQuoteRequestNotFound  = fmt.Errorf("%w: quote request not found", ErrNotFound)
	ErrQuoteResponseNotFound = fmt.Errorf("%w: quote response not found", ErrNotFound)
	ErrOrderNotFound         = fmt.Errorf("%w: order not found", ErrNotFound)
	ErrNotificationNotFound  = fmt.Errorf("%w: notification not found", ErrNotFound)

	ErrSupplierNotTargeted  = fmt.Errorf("%w: supplier is not a recipient of this quote request", ErrForbidden)
	ErrCustomerRoleRequired = fmt.Errorf("%w: customer role required", ErrForbidden)
	ErrSupplierRoleRequired = fmt.Errorf("%w: supplier role required", ErrForbidden)

	ErrQuoteRequestClosed          = fmt.Errorf("%w: quote request is no longer accepting responses", ErrConflict)
	ErrQuoteRequestAlreadyAccepted = fmt.Errorf("%w: quote request has already been accepted", ErrConflict)
	ErrAlreadyResponded            = fmt.Errorf("%w: supplier has already responded to this quote request", ErrConflict)
	ErrQuoteResponseNotPending     = fmt.Errorf("%w: quote response is no longer pending", ErrConflict)
	ErrInsufficientStock           = fmt.Errorf("%w: insufficient stock to fulfil the accepted quote", ErrConflict)
	ErrInvalidOrderTransition      = fmt.Errorf("%w: order status transition not allowed", ErrConflict)

	ErrQuoteRequestDeadlinePassed = fmt.Errorf("%w: quote request deadline has passed", ErrExpired)
	ErrQuoteResponseExpired       = fmt.Errorf("%w: quote response validity has elapsed", ErrExpired)
)

// invalidInput builds a validation error naming the offending field
func invalidInput(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}
