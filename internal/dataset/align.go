package dataset

import (
	"math"
	"sort"
	"time"

	"github.com/optifolio/optifolio/pkg/models"
)

// priceColumns are the bar columns subject to interpolation. Volume and
// AdjClose pass through reconciliation unmodified.
var priceColumns = [...]models.PriceType{
	models.PriceOpen,
	models.PriceHigh,
	models.PriceLow,
	models.PriceClose,
}

// InterpolationWarning records a price column that could not be fully
// interpolated because the series has no finite anchor value for it.
type InterpolationWarning struct {
	Symbol string
	Column models.PriceType
}

// DateUniverse returns the sorted ascending union of bar dates across all
// series, along with each instrument's native date set keyed by Unix time.
func DateUniverse(data map[string][]models.OHLCV) ([]time.Time, map[string]map[int64]bool) {
	union := make(map[int64]time.Time)
	native := make(map[string]map[int64]bool, len(data))

	for symbol, bars := range data {
		set := make(map[int64]bool, len(bars))
		for _, b := range bars {
			key := b.Timestamp.Unix()
			set[key] = true
			if _, ok := union[key]; !ok {
				union[key] = b.Timestamp
			}
		}
		native[symbol] = set
	}

	universe := make([]time.Time, 0, len(union))
	for _, d := range union {
		universe = append(universe, d)
	}
	sort.Slice(universe, func(i, j int) bool { return universe[i].Before(universe[j]) })

	return universe, native
}

// ReconcileSeries aligns one instrument's bars to the date universe.
// Dates in the universe but absent from the series are appended as
// placeholder bars with NaN price columns, the series is re-sorted, and
// each of Open/High/Low/Close is filled by linear interpolation between
// its nearest finite neighbors. Gaps at the head or tail of the series
// carry the single available anchor value. A column with no finite anchor
// at all keeps its NaNs and is reported as a soft warning.
//
// A series that already covers the universe is returned unchanged, so
// reconciliation is idempotent.
func ReconcileSeries(symbol string, bars []models.OHLCV, universe []time.Time) ([]models.OHLCV, []InterpolationWarning) {
	native := make(map[int64]bool, len(bars))
	for _, b := range bars {
		native[b.Timestamp.Unix()] = true
	}

	var missing []time.Time
	for _, d := range universe {
		if !native[d.Unix()] {
			missing = append(missing, d)
		}
	}
	if len(missing) == 0 {
		return bars, nil
	}

	reconciled := make([]models.OHLCV, 0, len(bars)+len(missing))
	reconciled = append(reconciled, bars...)
	for _, d := range missing {
		reconciled = append(reconciled, models.OHLCV{
			Timestamp: d,
			Open:      math.NaN(),
			High:      math.NaN(),
			Low:       math.NaN(),
			Close:     math.NaN(),
		})
	}
	sort.Slice(reconciled, func(i, j int) bool {
		return reconciled[i].Timestamp.Before(reconciled[j].Timestamp)
	})

	var warnings []InterpolationWarning
	col := make([]float64, len(reconciled))
	for _, pt := range priceColumns {
		for i, b := range reconciled {
			col[i] = pt.Select(b)
		}
		if !interpolateColumn(col) {
			warnings = append(warnings, InterpolationWarning{Symbol: symbol, Column: pt})
			continue
		}
		for i := range reconciled {
			setPrice(&reconciled[i], pt, col[i])
		}
	}

	return reconciled, warnings
}

// interpolateColumn fills NaN entries in vals in place. Interior runs are
// linearly interpolated between the nearest finite neighbors; runs touching
// the head or tail carry the single available anchor. Returns false when
// the column holds no finite value at all.
func interpolateColumn(vals []float64) bool {
	first, last := -1, -1
	for i, v := range vals {
		if !math.IsNaN(v) {
			if first < 0 {
				first = i
			}
			last = i
		}
	}
	if first < 0 {
		return false
	}

	for i := 0; i < first; i++ {
		vals[i] = vals[first]
	}
	for i := last + 1; i < len(vals); i++ {
		vals[i] = vals[last]
	}

	for i := first; i <= last; i++ {
		if !math.IsNaN(vals[i]) {
			continue
		}
		// vals[i-1] is finite; find the right anchor.
		j := i
		for math.IsNaN(vals[j]) {
			j++
		}
		left, right := vals[i-1], vals[j]
		steps := float64(j - i + 1)
		for k := i; k < j; k++ {
			vals[k] = left + (right-left)*float64(k-i+1)/steps
		}
		i = j
	}
	return true
}

func setPrice(b *models.OHLCV, pt models.PriceType, v float64) {
	switch pt {
	case models.PriceOpen:
		b.Open = v
	case models.PriceHigh:
		b.High = v
	case models.PriceLow:
		b.Low = v
	default:
		b.Close = v
	}
}
