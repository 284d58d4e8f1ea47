package orchestrator

import "fmt"

// Error taxonomy per spec §7. NotFound and StateViolation (surfaced via
// internal/auction's own sentinels, wrapped here) propagate immediately.
// ErrUnrecoverable is returned only once MaxAttempts has been exhausted on
// a VersionConflict.
var (
	ErrVehicleNotFound = fmt.Errorf("vehicle not found")
	ErrAuctionNotFound = fmt.Errorf("auction not found")
	ErrLotNotFound     = fmt.Errorf("lot not found")
	ErrUnrecoverable   = fmt.Errorf("operation failed after exhausting retry attempts")
)
