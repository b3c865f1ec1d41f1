package spatial

import "errors"

var (
	// ErrDuplicateEntity is returned by Insert when the entity is
	// already indexed.
	ErrDuplicateEntity = errors.New("spatial: entity already indexed")
	// ErrNotFound is returned when the entity has no record.
	ErrNotFound = errors.New("spatial: entity not found")
	// ErrInvalidQuery is returned for malformed query parameters such
	// as a negative radius.
	ErrInvalidQuery = errors.New("spatial: invalid query")
)
