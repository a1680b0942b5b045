package errors

import "errors"

// Sentinels shared across services; handlers map them onto HTTP statuses.
var (
	ErrNotFound        = errors.New("not found")
	ErrUnauthorized    = errors.New("unauthorized")
	ErrInvalidArgument = errors.New("invalid argument")
)
