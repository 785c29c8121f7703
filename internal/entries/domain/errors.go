package entries

import "errors"

var (
	// ErrNotFound indicates the requested entry does not exist.
	ErrNotFound = errors.New("entries: not found")
	// ErrEmptyUserID indicates a missing user id.
	ErrEmptyUserID = errors.New("entries: empty user id")
	// ErrUnknownCategory indicates an unrecognized material category.
	ErrUnknownCategory = errors.New("entries: unknown category")
	// ErrInvalidWeight indicates a NaN, infinite or negative weight.
	ErrInvalidWeight = errors.New("entries: invalid weight")
)
