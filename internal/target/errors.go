package target

import (
	"errors"
	"fmt"
	"time"
)

// Sentinel errors for target construction, propagation and resolution.
var (
	// ErrMissingEpoch indicates proper motion was given without a reference epoch.
	ErrMissingEpoch = errors.New("proper motion requires an epoch")
	// ErrNoPosition indicates the target has no sky coordinates (e.g. dome flats).
	ErrNoPosition = errors.New("target has no sky position")
	// ErrInvalidTarget indicates a field is outside its allowed range.
	ErrInvalidTarget = errors.New("invalid target")
	// ErrNotFound indicates a name resolver has no entry for the name.
	ErrNotFound = errors.New("name not found")
	// ErrStarlist indicates a malformed starlist record.
	ErrStarlist = errors.New("malformed starlist line")
)

// PropagationError reports a failure to compute a target position at a time.
type PropagationError struct {
	Target string
	At     time.Time
	Err    error
}

func (e *PropagationError) Error() string {
	return fmt.Sprintf("propagate %q to %s: %v", e.Target, e.At.UTC().Format(time.RFC3339), e.Err)
}

// Unwrap returns the underlying error for use with errors.Is/As.
func (e *PropagationError) Unwrap() error {
	return e.Err
}

// ResolutionError reports a failed name lookup. Timeouts and network failures
// are reported the same way as unknown names; Err carries the cause.
type ResolutionError struct {
	Name string
	Err  error
}

func (e *ResolutionError) Error() string {
	return fmt.Sprintf("resolve %q: %v", e.Name, e.Err)
}

// Unwrap returns the underlying error for use with errors.Is/As.
func (e *ResolutionError) Unwrap() error {
	return e.Err
}
