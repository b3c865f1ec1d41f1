package physics

import "errors"

var (
	// ErrInvalidShape reports degenerate collision geometry.
	ErrInvalidShape = errors.New("physics: invalid shape")
	// ErrCapacityExceeded reports the soft body cap was hit.
	ErrCapacityExceeded = errors.New("physics: body capacity exceeded")
	// ErrDegraded reports the bridge is running without a live engine.
	ErrDegraded = errors.New("physics: bridge degraded")
	// ErrNotFound reports an entity with no registered body.
	ErrNotFound = errors.New("physics: body not found")
	// ErrDuplicateEntity reports an entity that already has a body.
	ErrDuplicateEntity = errors.New("physics: entity already registered")
)
