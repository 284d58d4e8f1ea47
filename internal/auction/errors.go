package auction

import "fmt"

// Error taxonomy per spec §7. NotFound and InvalidInput and StateViolation
// surface immediately to the caller; VersionConflict is handled by the
// orchestrator's retry loop (internal/store.VersionConflictError).
var (
	ErrNotFound      = fmt.Errorf("not found")
	ErrInvalidInput  = fmt.Errorf("invalid input")
	ErrStateViolation = fmt.Errorf("illegal state transition")
)
