package service

import "errors"

// Sentinel errors the HTTP layer maps onto status codes.
var (
	// ErrUnauthorized covers bad credentials and bad/expired tokens. The
	// same error is returned for unknown email and wrong password so the
	// response cannot be used to probe for accounts.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden means the caller is authenticated but not allowed,
	// such as a deactivated account or a non-admin hitting admin surface.
	ErrForbidden = errors.New("forbidden")

	ErrNotFound = errors.New("not found")
	ErrConflict = errors.New("conflict")

	ErrValidation = errors.New("validation failed")
)
