package health

import "errors"

var (
	// ErrCheckFailed marks an unhealthy result with no richer error,
	// like an open circuit.
	ErrCheckFailed = errors.New("health: check failed")

	// ErrCheckTimeout marks a check that ran past its deadline.
	ErrCheckTimeout = errors.New("health: check timeout")

	// ErrCheckerNotFound is returned when no checker is registered
	// under the requested name.
	ErrCheckerNotFound = errors.New("health: checker not found")
)
