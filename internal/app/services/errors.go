package services

import "errors"

// Expected, user-facing outcomes of membership operations. Controllers map
// these onto HTTP statuses; anything else is an infrastructure failure.
var (
	ErrNotFound     = errors.New("not found")
	ErrForbidden    = errors.New("forbidden")
	ErrInvalidState = errors.New("request already decided")
	ErrResourceFull = errors.New("resource is full")
	ErrValidation   = errors.New("validation failed")
)
