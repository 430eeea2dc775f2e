package apperrors

import "errors"

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidField = errors.New("invalid field")
	ErrNoSession    = errors.New("no mapping session")
)
