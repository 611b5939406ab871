package dataset

import (
	"fmt"
	"time"

	"github.com/optifolio/optifolio/pkg/models"
)

// InvalidConfigError indicates the dataset was constructed with unusable
// identity arguments.
type InvalidConfigError struct {
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return fmt.Sprintf("invalid dataset config: %s", e.Reason)
}

// AlignmentError reports an instrument whose date set diverges from the
// dataset's date universe.
type AlignmentError struct {
	Symbol  string
	Missing int // dates in the universe but not in the series
	Extra   int // dates in the series but not in the universe
}

func (e *AlignmentError) Error() string {
	return fmt.Sprintf(
		"dates for %s diverge from the universe (%d missing, %d extra); run ReconcileMissing before verifying",
		e.Symbol, e.Missing, e.Extra,
	)
}

// MissingValueError reports a price cell that is still unset after
// reconciliation, which would otherwise leak a NaN into the price matrix.
type MissingValueError struct {
	Symbol string
	Date   time.Time
	Column models.PriceType
}

func (e *MissingValueError) Error() string {
	return fmt.Sprintf(
		"missing %s value for %s at %s after interpolation",
		e.Column, e.Symbol, e.Date.Format("2006-01-02"),
	)
}
