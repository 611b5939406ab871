package portfolio

import (
	"errors"
	"math"
	"testing"

	"gonum.org/v1/gonum/mat"

	"github.com/optifolio/optifolio/pkg/models"
)

// testPrices has rows with identical return profiles [0.1, -0.1, 0.1],
// giving hand-checkable statistics.
func testPrices() *mat.Dense {
	return mat.NewDense(2, 4, []float64{
		100, 110, 99, 108.9,
		50, 55, 49.5, 54.45,
	})
}

func testPortfolio(t *testing.T, opts ...Option) *Portfolio {
	t.Helper()
	p, err := NewPortfolio(testPrices(), []string{"Aaa", "Bbb"}, []string{"AAA.ST", "BBB.ST"}, opts...)
	if err != nil {
		t.Fatal(err)
	}
	return p
}

// --- Construction ---

func TestNewPortfolioValidation(t *testing.T) {
	if _, err := NewPortfolio(nil, nil, []string{"A"}); err == nil {
		t.Error("nil matrix should be rejected")
	}
	if _, err := NewPortfolio(testPrices(), nil, nil); err == nil {
		t.Error("missing symbols should be rejected")
	}
	if _, err := NewPortfolio(testPrices(), nil, []string{"A"}); err == nil {
		t.Error("symbol/row mismatch should be rejected")
	}

	_, err := NewPortfolio(testPrices(), []string{"only one"}, []string{"A", "B"})
	var cfgErr *InvalidConfigError
	if !errors.As(err, &cfgErr) {
		t.Errorf("error = %v, want *InvalidConfigError", err)
	}
}

func TestNewPortfolioNamesDefaultToSymbols(t *testing.T) {
	p, err := NewPortfolio(testPrices(), nil, []string{"AAA.ST", "BBB.ST"})
	if err != nil {
		t.Fatal(err)
	}
	names := p.InstrumentNames()
	if names[0] != "AAA.ST" || names[1] != "BBB.ST" {
		t.Errorf("names = %v, want symbols", names)
	}
}

type fakeSource struct {
	prices  *mat.Dense
	gotType models.PriceType
	err     error
}

func (f *fakeSource) Tickers() []string         { return []string{"AAA.ST", "BBB.ST"} }
func (f *fakeSource) InstrumentNames() []string { return []string{"Aaa", "Bbb"} }

func (f *fakeSource) PriceMatrix(pt models.PriceType) (*mat.Dense, error) {
	f.gotType = pt
	return f.prices, f.err
}

func TestFromSource(t *testing.T) {
	src := &fakeSource{prices: testPrices()}

	p, err := FromSource(src, WithPriceType(models.PriceOpen))
	if err != nil {
		t.Fatal(err)
	}
	if src.gotType != models.PriceOpen {
		t.Errorf("extracted column = %q, want open", src.gotType)
	}
	if got := p.Tickers(); got[0] != "AAA.ST" || got[1] != "BBB.ST" {
		t.Errorf("tickers = %v", got)
	}
}

func TestFromSourceError(t *testing.T) {
	src := &fakeSource{err: errors.New("not aligned")}
	if _, err := FromSource(src); err == nil {
		t.Error("source error should propagate")
	}
}

func TestFromAssets(t *testing.T) {
	assets := []*Asset{
		NewAsset("Aaa", []float64{1, 2, 3}),
		NewAsset("Bbb", []float64{4, 5, 6}),
	}
	p, err := FromAssets(assets)
	if err != nil {
		t.Fatal(err)
	}
	returns, err := p.AssetReturns(1)
	if err != nil {
		t.Fatal(err)
	}
	if rows, cols := returns.Dims(); rows != 2 || cols != 2 {
		t.Errorf("returns shape = %dx%d, want 2x2", rows, cols)
	}
}

func TestFromAssetsLengthMismatch(t *testing.T) {
	assets := []*Asset{
		NewAsset("Aaa", []float64{1, 2, 3}),
		NewAsset("Bbb", []float64{4, 5}),
	}
	if _, err := FromAssets(assets); err == nil {
		t.Error("ragged series should be rejected")
	}
}

// --- Weight Guards ---

func TestUnoptimizedGuard(t *testing.T) {
	p := testPortfolio(t)

	_, err := p.ExpectedReturn(1)
	var unopt *UnoptimizedPortfolioError
	if !errors.As(err, &unopt) {
		t.Fatalf("error = %v, want *UnoptimizedPortfolioError", err)
	}

	if _, err := p.Volatility(1); !errors.As(err, &unopt) {
		t.Errorf("volatility error = %v, want *UnoptimizedPortfolioError", err)
	}
	if _, err := p.SharpeRatio(1); !errors.As(err, &unopt) {
		t.Errorf("sharpe error = %v, want *UnoptimizedPortfolioError", err)
	}
}

func TestInvalidWeightsGuard(t *testing.T) {
	p := testPortfolio(t)
	if err := p.SetWeights([]float64{0.3, 0.3}); err != nil {
		t.Fatal(err)
	}

	_, err := p.Variance(1)
	var badW *InvalidWeightsError
	if !errors.As(err, &badW) {
		t.Fatalf("error = %v, want *InvalidWeightsError", err)
	}
	if !almostEqual(badW.Sum, 0.6, 1e-12) {
		t.Errorf("sum = %v, want 0.6", badW.Sum)
	}
}

func TestSetWeightsLength(t *testing.T) {
	p := testPortfolio(t)
	if err := p.SetWeights([]float64{1, 0, 0}); err == nil {
		t.Error("three weights for two instruments should be rejected")
	}
}

// --- Weighted Statistics ---

func TestPortfolioStatistics(t *testing.T) {
	p := testPortfolio(t, WithTradingDays(1))
	if err := p.SetWeights([]float64{0.5, 0.5}); err != nil {
		t.Fatal(err)
	}

	expected, err := p.ExpectedReturn(1)
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(expected, 0.1/3, 1e-9) {
		t.Errorf("expected return = %v, want 0.0333", expected)
	}

	variance, err := p.Variance(1)
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(variance, 0.013333333333333334, 1e-9) {
		t.Errorf("variance = %v, want 0.01333", variance)
	}

	vol, err := p.Volatility(1)
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(vol, math.Sqrt(variance), 1e-12) {
		t.Errorf("vol = %v, want sqrt of variance at tradingDays=1", vol)
	}

	sharpe, err := p.SharpeRatio(1)
	if err != nil {
		t.Fatal(err)
	}
	if sharpe <= 0 {
		t.Errorf("sharpe = %v, want positive", sharpe)
	}
	if !almostEqual(sharpe*vol+p.RiskFreeRate(), expected, 1e-12) {
		t.Errorf("sharpe %v, vol %v and expected %v are inconsistent", sharpe, vol, expected)
	}
}

func TestSharpeRatioZeroVolPortfolio(t *testing.T) {
	// Constant returns: every instrument doubles each step.
	prices := mat.NewDense(2, 4, []float64{
		1, 2, 4, 8,
		16, 32, 64, 128,
	})
	p, err := NewPortfolio(prices, nil, []string{"A", "B"}, WithWeights([]float64{0.5, 0.5}))
	if err != nil {
		t.Fatal(err)
	}

	_, err = p.SharpeRatio(1)
	var divErr *DegenerateDivisionError
	if !errors.As(err, &divErr) {
		t.Fatalf("error = %v, want *DegenerateDivisionError", err)
	}
}

func TestVolatilityScaling(t *testing.T) {
	base := testPortfolio(t, WithTradingDays(1), WithWeights([]float64{0.5, 0.5}))
	annual := testPortfolio(t, WithTradingDays(252), WithWeights([]float64{0.5, 0.5}))

	v1, err := base.Volatility(1)
	if err != nil {
		t.Fatal(err)
	}
	v252, err := annual.Volatility(1)
	if err != nil {
		t.Fatal(err)
	}
	if !almostEqual(v252, v1*math.Sqrt(252), 1e-12) {
		t.Errorf("annualized vol = %v, want %v", v252, v1*math.Sqrt(252))
	}
}

// --- Snapshots ---

func TestAsAssets(t *testing.T) {
	p := testPortfolio(t)

	assets := p.AsAssets()
	if len(assets) != 2 {
		t.Fatalf("assets = %d, want 2", len(assets))
	}
	if assets[0].Name() != "Aaa" || assets[1].Name() != "Bbb" {
		t.Errorf("names = %q, %q", assets[0].Name(), assets[1].Name())
	}
	series := assets[1].Series()
	if series[0] != 50 || series[3] != 54.45 {
		t.Errorf("row 1 series = %v", series)
	}
}

func TestPortfolioMatrixIsCopied(t *testing.T) {
	prices := testPrices()
	p, err := NewPortfolio(prices, nil, []string{"A", "B"})
	if err != nil {
		t.Fatal(err)
	}

	prices.Set(0, 0, 12345)
	if got := p.AsAssets()[0].Series()[0]; got != 100 {
		t.Errorf("matrix mutated through caller slice: %v", got)
	}
}
