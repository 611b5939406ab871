package portfolio

import (
	"fmt"
	"math"

	"github.com/rs/zerolog"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	"github.com/optifolio/optifolio/pkg/models"
)

// Defaults applied when the corresponding option is not set.
const (
	DefaultRiskFreeRate    = 5e-3
	DefaultConfidenceLevel = 0.95
	DefaultTradingDays     = 252

	weightTolerance = 1e-6
)

// PriceSource is anything that can hand over an aligned price matrix with
// its instrument identity lists. *dataset.Dataset satisfies it.
type PriceSource interface {
	Tickers() []string
	InstrumentNames() []string
	PriceMatrix(pt models.PriceType) (*mat.Dense, error)
}

// Portfolio binds an aligned price matrix (instruments x samples) to a
// weight vector and per-portfolio parameters. The weight vector is the
// only mutable field and is replaced atomically by SetWeights or a
// successful Optimize call.
type Portfolio struct {
	names   []string
	symbols []string
	prices  *mat.Dense
	weights []float64

	priceType       models.PriceType
	riskFreeRate    float64
	confidenceLevel float64
	tradingDays     float64
	log             zerolog.Logger

	objective   ObjectiveFunc
	constraints []ConstraintFunc
}

// Option configures a Portfolio at construction.
type Option func(*Portfolio)

// WithRiskFreeRate overrides the default annual risk-free rate (5e-3).
func WithRiskFreeRate(rfr float64) Option {
	return func(p *Portfolio) { p.riskFreeRate = rfr }
}

// WithConfidenceLevel overrides the default confidence level (0.95).
func WithConfidenceLevel(cl float64) Option {
	return func(p *Portfolio) { p.confidenceLevel = cl }
}

// WithTradingDays overrides the volatility scaling horizon (252).
func WithTradingDays(days float64) Option {
	return func(p *Portfolio) { p.tradingDays = days }
}

// WithPriceType selects the bar column extracted from a PriceSource
// (default close). It has no effect on NewPortfolio, whose matrix is
// already extracted.
func WithPriceType(pt models.PriceType) Option {
	return func(p *Portfolio) { p.priceType = pt }
}

// WithWeights seeds an initial weight vector. It is validated lazily by
// the guard in front of every weighted computation.
func WithWeights(weights []float64) Option {
	return func(p *Portfolio) { p.weights = append([]float64(nil), weights...) }
}

// WithLogger attaches a logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(p *Portfolio) { p.log = log }
}

func newDefaults() *Portfolio {
	return &Portfolio{
		priceType:       models.PriceClose,
		riskFreeRate:    DefaultRiskFreeRate,
		confidenceLevel: DefaultConfidenceLevel,
		tradingDays:     DefaultTradingDays,
		log:             zerolog.Nop(),
	}
}

// NewPortfolio builds a portfolio directly over a price matrix of shape
// (instruments x samples). Symbols are required; names default to the
// symbols when absent.
func NewPortfolio(prices *mat.Dense, names, symbols []string, opts ...Option) (*Portfolio, error) {
	if prices == nil {
		return nil, &InvalidConfigError{Reason: "price matrix is nil"}
	}
	rows, cols := prices.Dims()
	if rows == 0 || cols == 0 {
		return nil, &InvalidConfigError{Reason: "price matrix is empty"}
	}
	if len(symbols) == 0 {
		return nil, &InvalidConfigError{Reason: "symbols are required to identify the matrix rows"}
	}
	if len(symbols) != rows {
		return nil, &InvalidConfigError{
			Reason: fmt.Sprintf("number of symbols does not match the matrix rows, %d != %d", len(symbols), rows),
		}
	}
	if len(names) == 0 {
		names = symbols
	}
	if len(names) != len(symbols) {
		return nil, &InvalidConfigError{
			Reason: fmt.Sprintf("number of names does not match the list of symbols, %d != %d", len(names), len(symbols)),
		}
	}

	p := newDefaults()
	p.names = append([]string(nil), names...)
	p.symbols = append([]string(nil), symbols...)
	p.prices = mat.DenseCopyOf(prices)
	for _, opt := range opts {
		opt(p)
	}
	return p, nil
}

// FromSource resolves a PriceSource into the canonical price matrix once,
// at construction; all downstream computation operates on that snapshot.
func FromSource(src PriceSource, opts ...Option) (*Portfolio, error) {
	probe := newDefaults()
	for _, opt := range opts {
		opt(probe)
	}

	prices, err := src.PriceMatrix(probe.priceType)
	if err != nil {
		return nil, fmt.Errorf("extract price matrix: %w", err)
	}
	return NewPortfolio(prices, src.InstrumentNames(), src.Tickers(), opts...)
}

// FromAssets builds a portfolio from asset snapshots. All series must
// have equal length, which aligned datasets guarantee.
func FromAssets(assets []*Asset, opts ...Option) (*Portfolio, error) {
	if len(assets) == 0 {
		return nil, &InvalidConfigError{Reason: "no assets given"}
	}
	cols := assets[0].Len()
	for _, a := range assets {
		if a.Len() != cols {
			return nil, &InvalidConfigError{
				Reason: fmt.Sprintf("asset %s has %d samples, want %d", a.Name(), a.Len(), cols),
			}
		}
	}

	names := make([]string, len(assets))
	data := make([]float64, 0, len(assets)*cols)
	for i, a := range assets {
		names[i] = a.Name()
		data = append(data, a.series...)
	}
	return NewPortfolio(mat.NewDense(len(assets), cols, data), names, names, opts...)
}

// --- Accessors ---

// Tickers returns the instrument symbols in row order.
func (p *Portfolio) Tickers() []string {
	return append([]string(nil), p.symbols...)
}

// InstrumentNames returns the instrument names in row order.
func (p *Portfolio) InstrumentNames() []string {
	return append([]string(nil), p.names...)
}

// Weights returns a copy of the current weight vector, or nil before the
// first optimization.
func (p *Portfolio) Weights() []float64 {
	if p.weights == nil {
		return nil
	}
	return append([]float64(nil), p.weights...)
}

// SetWeights replaces the weight vector. Length must match the number of
// instruments; the sums-to-one check runs lazily at first weighted use.
func (p *Portfolio) SetWeights(weights []float64) error {
	if len(weights) != len(p.symbols) {
		return &InvalidConfigError{
			Reason: fmt.Sprintf("got %d weights for %d instruments", len(weights), len(p.symbols)),
		}
	}
	p.weights = append([]float64(nil), weights...)
	return nil
}

// RiskFreeRate returns the configured risk-free rate.
func (p *Portfolio) RiskFreeRate() float64 { return p.riskFreeRate }

// ConfidenceLevel returns the configured confidence level.
func (p *Portfolio) ConfidenceLevel() float64 { return p.confidenceLevel }

// AsAssets snapshots every matrix row into an Asset, preserving row order.
func (p *Portfolio) AsAssets() []*Asset {
	assets := make([]*Asset, len(p.symbols))
	for i, name := range p.names {
		assets[i] = NewAsset(name, mat.Row(nil, i, p.prices), WithSeriesType(p.priceType))
	}
	return assets
}

// guardWeights enforces the weight preconditions in front of every
// weighted computation.
func (p *Portfolio) guardWeights(op string) error {
	if p.weights == nil {
		return &UnoptimizedPortfolioError{Operation: op}
	}
	if sum := floats.Sum(p.weights); math.Abs(sum-1) > weightTolerance {
		return &InvalidWeightsError{Sum: sum}
	}
	return nil
}

// --- Asset-level statistics (weight-independent) ---

// AssetReturns computes the per-instrument period-return matrix of shape
// (instruments x samples-period).
func (p *Portfolio) AssetReturns(period int) (*mat.Dense, error) {
	return MatrixPeriodReturns(p.prices, period)
}

// MeanAssetReturns computes the per-instrument mean period return.
func (p *Portfolio) MeanAssetReturns(period int) ([]float64, error) {
	returns, err := p.AssetReturns(period)
	if err != nil {
		return nil, err
	}
	return MeanReturns(returns), nil
}

// Covariance computes the sample covariance matrix of instrument returns.
func (p *Portfolio) Covariance(period int) (*mat.SymDense, error) {
	returns, err := p.AssetReturns(period)
	if err != nil {
		return nil, err
	}
	return CovarianceMatrix(returns), nil
}

// AssetVolatilities computes per-instrument volatility scaled by the
// portfolio's trading-days horizon.
func (p *Portfolio) AssetVolatilities(period int) ([]float64, error) {
	returns, err := p.AssetReturns(period)
	if err != nil {
		return nil, err
	}
	return AssetVolatilities(returns, p.tradingDays), nil
}

// --- Portfolio-level statistics (weight-dependent) ---

// ExpectedReturn is the weighted mean period return of the portfolio.
func (p *Portfolio) ExpectedReturn(period int) (float64, error) {
	if err := p.guardWeights("expected return"); err != nil {
		return 0, err
	}
	means, err := p.MeanAssetReturns(period)
	if err != nil {
		return 0, err
	}
	return WeightedReturns(p.weights, means), nil
}

// Variance is the weighted portfolio variance w * C * w'.
func (p *Portfolio) Variance(period int) (float64, error) {
	if err := p.guardWeights("variance"); err != nil {
		return 0, err
	}
	cov, err := p.Covariance(period)
	if err != nil {
		return 0, err
	}
	return WeightedVariance(p.weights, cov), nil
}

// Volatility is the portfolio standard deviation scaled by
// sqrt(tradingDays).
func (p *Portfolio) Volatility(period int) (float64, error) {
	if err := p.guardWeights("volatility"); err != nil {
		return 0, err
	}
	variance, err := p.Variance(period)
	if err != nil {
		return 0, err
	}
	return math.Sqrt(variance) * math.Sqrt(p.tradingDays), nil
}

// SharpeRatio is the portfolio's excess return over its volatility.
func (p *Portfolio) SharpeRatio(period int) (float64, error) {
	if err := p.guardWeights("sharpe ratio"); err != nil {
		return 0, err
	}
	expected, err := p.ExpectedReturn(period)
	if err != nil {
		return 0, err
	}
	volatility, err := p.Volatility(period)
	if err != nil {
		return 0, err
	}
	return SharpeRatio(expected, volatility, p.riskFreeRate)
}
