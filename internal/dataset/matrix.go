package dataset

import (
	"errors"
	"math"

	"gonum.org/v1/gonum/mat"

	"github.com/optifolio/optifolio/pkg/models"
)

// PriceMatrix extracts one price column across all instruments into a
// dense matrix of shape (instruments x dates), rows in insertion order.
// The dataset must be aligned; any NaN left after reconciliation is
// reported as a *MissingValueError so downstream math never sees one.
func (d *Dataset) PriceMatrix(pt models.PriceType) (*mat.Dense, error) {
	if len(d.data) == 0 || len(d.dates) == 0 {
		return nil, errors.New("dataset is empty: run Fetch first")
	}
	if err := d.VerifyAligned(); err != nil {
		return nil, err
	}

	rows, cols := len(d.symbols), len(d.dates)
	m := mat.NewDense(rows, cols, nil)
	for i, symbol := range d.symbols {
		for j, bar := range d.data[symbol] {
			v := pt.Select(bar)
			if math.IsNaN(v) {
				return nil, &MissingValueError{Symbol: symbol, Date: bar.Timestamp, Column: pt}
			}
			m.Set(i, j, v)
		}
	}
	return m, nil
}

// PriceSeries returns one instrument's values for a single price column.
// Unlike PriceMatrix it is permissive: NaN cells pass through, which is
// what charts want for gapped series.
func (d *Dataset) PriceSeries(symbol string, pt models.PriceType) ([]float64, bool) {
	bars, ok := d.data[symbol]
	if !ok {
		return nil, false
	}
	out := make([]float64, len(bars))
	for i, bar := range bars {
		out[i] = pt.Select(bar)
	}
	return out, true
}
