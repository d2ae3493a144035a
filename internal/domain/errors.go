// internal/domain/errors.go
package domain

import (
	"fmt"
	"strings"
)

// SchemaError reports required columns that are missing or unparseable in
// the source table. It is surfaced to the caller as a user-facing message.
type SchemaError struct {
	Missing []string
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("source table is missing required column(s): %s", strings.Join(e.Missing, ", "))
}

// InsufficientDataError means an item's history produced fewer than the
// minimum valid consumption points needed to fit a model.
type InsufficientDataError struct {
	ItemID string
	Points int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("item %s: %d valid consumption point(s), need at least 2", e.ItemID, e.Points)
}

// ForecastFitError means a model fit failed outright. Fit failures are
// propagated, never silently defaulted; only degenerate predictions are
// smoothed by the fallback floor.
type ForecastFitError struct {
	ItemID string
	Model  string
	Err    error
}

func (e *ForecastFitError) Error() string {
	return fmt.Sprintf("item %s: %s model fit failed: %v", e.ItemID, e.Model, e.Err)
}

func (e *ForecastFitError) Unwrap() error {
	return e.Err
}
