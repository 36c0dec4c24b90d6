package domain

import "errors"

// Sentinel errors shared by services and repositories. Controllers map them to HTTP status codes.
var (
	ErrNotFound             = errors.New("not found")
	ErrForbidden            = errors.New("forbidden")
	ErrInvalidInput         = errors.New("invalid input")
	ErrConfirmationRequired = errors.New("confirmation required")
	ErrUnavailable          = errors.New("service unavailable")
)
