package store

import "fmt"

// ErrNotFound is returned when an entity is not present in the store.
var ErrNotFound = fmt.Errorf("entity not found")

// ErrDuplicateID is returned by Add when the entity's Id already exists.
var ErrDuplicateID = fmt.Errorf("entity with this id already exists")

// VersionConflictError is returned by Update when the in-store version does
// not match the expected predecessor of the incoming entity's version.
type VersionConflictError struct {
	Expected uint32
	Actual   uint32
}

func (e *VersionConflictError) Error() string {
	return fmt.Sprintf("version conflict: expected version %d, got %d", e.Expected, e.Actual)
}

// IsVersionConflict reports whether err is a *VersionConflictError.
func IsVersionConflict(err error) bool {
	_, ok := err.(*VersionConflictError)
	return ok
}
