package axisplot

import (
	"errors"
	"fmt"
)

var (
	ErrInvalidTimeRange = fmt.Errorf("time range must be between 1 and %d days", MaxTimeRangeDays)
	ErrEmptyID          = errors.New("id must not be empty")
	ErrDuplicateID      = errors.New("duplicate id")
	ErrUnknownAxis      = errors.New("series references an axis that does not exist")
	ErrInvalidSide      = errors.New("axis side must be left or right")
	ErrInvalidKind      = errors.New("series kind must be linear, bar or area")

	// Returned by edits, not by Validate.
	ErrNotFound = errors.New("not found")
	ErrNoAxes   = errors.New("add an axis before adding series")
)

// ValidationError is a single invariant violation found in a ChartConfig.
type ValidationError struct {
	Entity string // "axis", "series" or "timeRangeDays"
	ID     string
	Err    error
}

func (e *ValidationError) Error() string {
	if e.ID == "" {
		return fmt.Sprintf("invalid %s: %v", e.Entity, e.Err)
	}
	return fmt.Sprintf("invalid %s %q: %v", e.Entity, e.ID, e.Err)
}

func (e *ValidationError) Unwrap() error {
	return e.Err
}
