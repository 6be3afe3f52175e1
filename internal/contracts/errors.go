package contracts

import (
	"errors"
	"fmt"
)

// Engine error taxonomy. Every failure returned by the engine packages
// wraps exactly one of these, so callers branch with errors.Is.
var (
	// ErrDataUnavailable: an asset has no usable price history or the
	// universe has no aligned observations
	ErrDataUnavailable = errors.New("data unavailable")

	// ErrOptimizationFailed: the solver did not reach a feasible optimum
	ErrOptimizationFailed = errors.New("optimization failed")

	// ErrPreconditionViolated: an operation was called with missing or
	// malformed inputs (e.g. risk estimation without weights)
	ErrPreconditionViolated = errors.New("precondition violated")

	// ErrDegenerateInput: zero-variance return data. Never returned by the
	// calculators; used to tag warnings.
	ErrDegenerateInput = errors.New("degenerate input")
)

// AllAssets is the Asset value used when a failure concerns the whole universe
const AllAssets = "*"

// DataUnavailableError names the asset whose history could not be used
type DataUnavailableError struct {
	Asset  string
	Reason string
	Err    error // underlying provider error, optional
}

func (e *DataUnavailableError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %s: %v", ErrDataUnavailable, e.Asset, e.Reason, e.Err)
	}
	return fmt.Sprintf("%s: %s: %s", ErrDataUnavailable, e.Asset, e.Reason)
}

// Is makes errors.Is(err, ErrDataUnavailable) hold
func (e *DataUnavailableError) Is(target error) bool {
	return target == ErrDataUnavailable
}

func (e *DataUnavailableError) Unwrap() error {
	return e.Err
}

// NewDataUnavailable creates a DataUnavailableError
func NewDataUnavailable(asset, reason string, cause error) *DataUnavailableError {
	return &DataUnavailableError{Asset: asset, Reason: reason, Err: cause}
}

// UnavailableAsset extracts the asset name from err, if any
func UnavailableAsset(err error) (string, bool) {
	var due *DataUnavailableError
	if errors.As(err, &due) {
		return due.Asset, true
	}
	return "", false
}

// Preconditionf formats an ErrPreconditionViolated
func Preconditionf(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrPreconditionViolated, fmt.Sprintf(format, args...))
}
