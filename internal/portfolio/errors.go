package portfolio

import (
	"fmt"
	"strings"
)

// InvalidConfigError reports a portfolio that cannot be constructed from
// the given identity arguments or parameters.
type InvalidConfigError struct {
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return "invalid portfolio config: " + e.Reason
}

// UnoptimizedPortfolioError is returned when a weight-dependent statistic
// is requested before any weight vector exists.
type UnoptimizedPortfolioError struct {
	Operation string
}

func (e *UnoptimizedPortfolioError) Error() string {
	return fmt.Sprintf("no weights available to calculate %s with; optimize the portfolio first", e.Operation)
}

// InvalidWeightsError is returned when the stored weight vector fails the
// sums-to-one tolerance check that guards every weighted computation.
type InvalidWeightsError struct {
	Sum float64
}

func (e *InvalidWeightsError) Error() string {
	return fmt.Sprintf("weights sum to %v, not 1 within tolerance %v", e.Sum, weightTolerance)
}

// DegenerateDivisionError reports a division that is mathematically
// undefined. Zero denominators under non-zero numerators signal corrupted
// inputs and are never silently turned into NaN or Inf.
type DegenerateDivisionError struct {
	Op          string
	Numerator   float64
	Denominator float64
}

func (e *DegenerateDivisionError) Error() string {
	return fmt.Sprintf("%s: division %v/%v is undefined", e.Op, e.Numerator, e.Denominator)
}

// InsufficientSamplesError reports a statistic requested over too few
// observations to be defined.
type InsufficientSamplesError struct {
	Op   string
	Need int
	Got  int
}

func (e *InsufficientSamplesError) Error() string {
	return fmt.Sprintf("%s needs at least %d samples, got %d", e.Op, e.Need, e.Got)
}

// UnsupportedMethodError rejects an unknown optimization method before
// any computation begins.
type UnsupportedMethodError struct {
	Method    string
	Supported []string
}

func (e *UnsupportedMethodError) Error() string {
	return fmt.Sprintf("unsupported optimization method %q (supported: %s)",
		e.Method, strings.Join(e.Supported, ", "))
}
