package apperr

import "errors"

var (
	ErrNotFound        = errors.New("not found")
	ErrMalformed       = errors.New("malformed document")
	ErrInvalidArgument = errors.New("invalid argument")
	ErrConflict        = errors.New("conflict")
	ErrAlreadyExists   = errors.New("already exists")
)
