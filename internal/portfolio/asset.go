package portfolio

import (
	"encoding/binary"
	"hash/fnv"
	"math"

	"github.com/montanaflynn/stats"
	"gonum.org/v1/gonum/stat"

	"github.com/optifolio/optifolio/pkg/models"
)

// Asset is an immutable snapshot of one instrument's aligned price series.
// Identity is value-based: name, market, index, price type and a content
// checksum of the series, all fixed at construction.
type Asset struct {
	name      string
	market    string
	indexName string
	priceType models.PriceType
	series    []float64
	checksum  uint64
}

// AssetOption configures optional Asset metadata.
type AssetOption func(*Asset)

// WithMarket tags the asset with its market identifier (e.g. "XSTO").
func WithMarket(market string) AssetOption {
	return func(a *Asset) { a.market = market }
}

// WithIndexName tags the asset with the index it was drawn from.
func WithIndexName(index string) AssetOption {
	return func(a *Asset) { a.indexName = index }
}

// WithSeriesType records which bar column the series was extracted from
// (default close).
func WithSeriesType(pt models.PriceType) AssetOption {
	return func(a *Asset) { a.priceType = pt }
}

// NewAsset snapshots the series and computes its content checksum.
func NewAsset(name string, series []float64, opts ...AssetOption) *Asset {
	a := &Asset{
		name:      name,
		priceType: models.PriceClose,
		series:    append([]float64(nil), series...),
	}
	for _, opt := range opts {
		opt(a)
	}
	a.checksum = seriesChecksum(a.series)
	return a
}

func (a *Asset) Name() string                { return a.name }
func (a *Asset) Market() string              { return a.market }
func (a *Asset) IndexName() string           { return a.indexName }
func (a *Asset) PriceType() models.PriceType { return a.priceType }
func (a *Asset) Len() int                    { return len(a.series) }
func (a *Asset) Checksum() uint64            { return a.checksum }

// Series returns a copy of the price series.
func (a *Asset) Series() []float64 {
	return append([]float64(nil), a.series...)
}

// Equal reports value equality over the construction-time snapshot.
func (a *Asset) Equal(b *Asset) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.name == b.name &&
		a.market == b.market &&
		a.indexName == b.indexName &&
		a.priceType == b.priceType &&
		a.checksum == b.checksum
}

// PeriodReturns computes (price[t] / price[t-period]) - 1. The first
// period entries have no lookback and are NaN.
func (a *Asset) PeriodReturns(period int) ([]float64, error) {
	if period < 1 {
		return nil, &InvalidConfigError{Reason: "period must be positive"}
	}
	if len(a.series) <= period {
		return nil, &InsufficientSamplesError{Op: "period returns", Need: period + 1, Got: len(a.series)}
	}

	out := make([]float64, len(a.series))
	for i := 0; i < period; i++ {
		out[i] = math.NaN()
	}
	for i := period; i < len(a.series); i++ {
		out[i] = a.series[i]/a.series[i-period] - 1
	}
	return out, nil
}

// PeriodReturnsMean is the arithmetic mean of period returns, ignoring
// the undefined leading entries.
func (a *Asset) PeriodReturnsMean(period int) (float64, error) {
	returns, err := a.PeriodReturns(period)
	if err != nil {
		return 0, err
	}
	return stat.Mean(finite(returns), nil), nil
}

// Volatility is the sample standard deviation of period returns scaled
// by sqrt(tradingDays). The scaling horizon is a parameter so callers can
// annualize, de-annualize or leave returns unscaled with tradingDays=1.
func (a *Asset) Volatility(period int, tradingDays float64) (float64, error) {
	returns, err := a.PeriodReturns(period)
	if err != nil {
		return 0, err
	}
	defined := finite(returns)
	if len(defined) < 2 {
		return 0, &InsufficientSamplesError{Op: "volatility", Need: 2, Got: len(defined)}
	}
	return stat.StdDev(defined, nil) * math.Sqrt(tradingDays), nil
}

// Skewness computes the adjusted Fisher-Pearson coefficient over the
// price series itself.
func (a *Asset) Skewness() (float64, error) {
	return Skewness(a.series)
}

// AssetSummary holds descriptive statistics of a price series.
type AssetSummary struct {
	Count  int
	Min    float64
	Max    float64
	Mean   float64
	Median float64
	P25    float64
	P75    float64
}

// Describe computes a descriptive summary over the defined (non-NaN)
// entries of the series.
func (a *Asset) Describe() (AssetSummary, error) {
	defined := finite(a.series)
	if len(defined) == 0 {
		return AssetSummary{}, &InsufficientSamplesError{Op: "describe", Need: 1, Got: 0}
	}

	var (
		s   = AssetSummary{Count: len(defined)}
		err error
	)
	if s.Min, err = stats.Min(defined); err != nil {
		return AssetSummary{}, err
	}
	if s.Max, err = stats.Max(defined); err != nil {
		return AssetSummary{}, err
	}
	if s.Mean, err = stats.Mean(defined); err != nil {
		return AssetSummary{}, err
	}
	if s.Median, err = stats.Median(defined); err != nil {
		return AssetSummary{}, err
	}
	if s.P25, err = stats.Percentile(defined, 25); err != nil {
		return AssetSummary{}, err
	}
	if s.P75, err = stats.Percentile(defined, 75); err != nil {
		return AssetSummary{}, err
	}
	return s, nil
}

// finite filters out NaN and Inf entries.
func finite(vals []float64) []float64 {
	out := make([]float64, 0, len(vals))
	for _, v := range vals {
		if !math.IsNaN(v) && !math.IsInf(v, 0) {
			out = append(out, v)
		}
	}
	return out
}

// seriesChecksum hashes the raw bit patterns of the series, so equality
// distinguishes NaN payload differences but is stable across copies.
func seriesChecksum(series []float64) uint64 {
	h := fnv.New64a()
	var buf [8]byte
	for _, v := range series {
		binary.LittleEndian.PutUint64(buf[:], math.Float64bits(v))
		h.Write(buf[:])
	}
	return h.Sum64()
}
