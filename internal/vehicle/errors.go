package vehicle

import "fmt"

// ErrInvalidInput marks a precondition violation at construction time.
var ErrInvalidInput = fmt.Errorf("invalid input")
