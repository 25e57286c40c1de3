// Package fault defines the error categories shared by the simulation core.
//
// Packages wrap these sentinels with %w so callers classify failures with errors.Is:
//
//   - ErrInvalidArgument: malformed input to a pure function. Always returned to the caller.
//   - ErrInvalidOperation: a state machine precondition did not hold. Logged, the call is a no-op.
//   - ErrInvalidState: an enum reached a branch with no handling. A defect; aborts one entity tick.
//   - ErrResourceExhausted: a bounded collection is full. Logged, the add is rejected.
//   - ErrSpawnFailed: the spawn collaborator failed. Logged, the requesting entity is still destroyed.
package fault

import "errors"

var (
	ErrInvalidArgument   = errors.New("invalid argument")
	ErrInvalidOperation  = errors.New("invalid operation")
	ErrInvalidState      = errors.New("invalid state")
	ErrResourceExhausted = errors.New("resource exhausted")
	ErrSpawnFailed       = errors.New("spawn failed")
)

// Expected reports whether err is a contention outcome of a live simulation
// (invalid operation or exhausted resource) rather than a defect.
func Expected(err error) bool {
	return errors.Is(err, ErrInvalidOperation) || errors.Is(err, ErrResourceExhausted)
}
