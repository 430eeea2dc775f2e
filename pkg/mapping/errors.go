package mapping

import "errors"

var (
	// ErrDuplicateClaim is returned when a canonical field is already claimed
	// by a different source column.
	ErrDuplicateClaim      = errors.New("duplicate destination claim")
	ErrUnknownSourceColumn = errors.New("unknown source column")
	ErrUnknownField        = errors.New("not a canonical field")
	// ErrStaleMapping is returned when a mapping refers to columns the source
	// table does not have, typically because a new table was uploaded without
	// a reset.
	ErrStaleMapping      = errors.New("mapping does not match source table")
	ErrNoSourceTable     = errors.New("no source table")
	ErrIncompleteMapping = errors.New("mapping is incomplete")
)
