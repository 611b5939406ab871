package dataset

import (
	"context"
	"errors"
	"math"
	"strings"
	"testing"
	"time"

	"github.com/optifolio/optifolio/internal/provider"
	"github.com/optifolio/optifolio/pkg/models"
)

// --- Test Provider ---

type stubFetcher struct {
	provider.FetcherCore
	fn func(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error)
}

func (f *stubFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	return f.fn(ctx, params)
}

type stubProvider struct {
	provider.ProviderCore
}

func newStubProvider(name string) *stubProvider {
	return &stubProvider{ProviderCore: provider.NewProviderCore(provider.Info{
		Name:        name,
		Description: "canned data for tests",
	})}
}

// newStubRegistry builds a registry whose daily-historical fetcher serves
// the given canned series and whose instrument-info fetcher fabricates a
// profile per symbol. Symbols listed in failInfo get an info error.
func newStubRegistry(t *testing.T, series map[string][]models.OHLCV, failInfo ...string) *provider.Registry {
	t.Helper()

	p := newStubProvider("stub")
	p.AddFetcher(&stubFetcher{
		FetcherCore: provider.NewFetcherCore(provider.FetcherSpec{
			Model:       provider.ModelDailyHistorical,
			Description: "daily bars",
			Required:    []string{provider.ParamSymbol},
		}),
		fn: func(_ context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
			bars, ok := series[params[provider.ParamSymbol]]
			if !ok {
				return nil, errors.New("unknown symbol")
			}
			return &provider.FetchResult{Data: bars}, nil
		},
	})
	p.AddFetcher(&stubFetcher{
		FetcherCore: provider.NewFetcherCore(provider.FetcherSpec{
			Model:       provider.ModelInstrumentInfo,
			Description: "instrument profile",
			Required:    []string{provider.ParamSymbol},
		}),
		fn: func(_ context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
			symbol := params[provider.ParamSymbol]
			for _, s := range failInfo {
				if s == symbol {
					return nil, errors.New("profile unavailable")
				}
			}
			return &provider.FetchResult{
				Data: &models.InstrumentInfo{Symbol: symbol, Name: "Stub " + symbol},
			}, nil
		},
	})

	reg := provider.NewRegistry()
	if err := reg.Register(p); err != nil {
		t.Fatalf("register stub provider: %v", err)
	}
	return reg
}

// --- Construction ---

func TestNewValidation(t *testing.T) {
	if _, err := New(nil, nil); err == nil {
		t.Error("empty dataset should be rejected")
	}

	_, err := New([]string{"A", "B"}, []string{"A.ST", "B.ST", "C.ST"})
	var cfgErr *InvalidConfigError
	if !errors.As(err, &cfgErr) {
		t.Fatalf("error = %v, want *InvalidConfigError", err)
	}
	if !strings.Contains(cfgErr.Error(), "2 != 3") {
		t.Errorf("error message %q should carry both lengths", cfgErr.Error())
	}

	if _, err := New([]string{"A"}, []string{"A.ST"}); err != nil {
		t.Errorf("valid config rejected: %v", err)
	}
}

// --- Fetch ---

func TestFetch(t *testing.T) {
	series := map[string][]models.OHLCV{
		"AAA.ST": {bar(day(1), 10), bar(day(2), 12), bar(day(3), 14)},
		"BBB.ST": {bar(day(1), 50), bar(day(3), 54)},
	}
	reg := newStubRegistry(t, series)

	d, err := New([]string{"Aaa", "Bbb"}, []string{"AAA.ST", "BBB.ST"}, WithRegistry(reg))
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Fetch(context.Background(), "1y"); err != nil {
		t.Fatalf("Fetch: %v", err)
	}

	if len(d.Dates()) != 3 {
		t.Errorf("date universe = %d, want 3", len(d.Dates()))
	}
	bars, ok := d.Bars("BBB.ST")
	if !ok || len(bars) != 2 {
		t.Errorf("BBB.ST bars = %d, want 2 before reconciliation", len(bars))
	}
	info, ok := d.Info("AAA.ST")
	if !ok || info.Name != "Stub AAA.ST" {
		t.Errorf("AAA.ST info = %+v", info)
	}
}

func TestFetchNormalizesDates(t *testing.T) {
	late := time.Date(2023, 10, 2, 21, 30, 0, 0, time.UTC)
	series := map[string][]models.OHLCV{
		"AAA.ST": {{Timestamp: late, Open: 1, High: 1, Low: 1, Close: 1, Volume: 1}},
	}
	d, err := New([]string{"Aaa"}, []string{"AAA.ST"}, WithRegistry(newStubRegistry(t, series)))
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Fetch(context.Background(), "1mo"); err != nil {
		t.Fatal(err)
	}

	bars, _ := d.Bars("AAA.ST")
	want := time.Date(2023, 10, 2, 0, 0, 0, 0, time.UTC)
	if !bars[0].Timestamp.Equal(want) {
		t.Errorf("timestamp = %v, want %v", bars[0].Timestamp, want)
	}
}

func TestFetchUnknownSymbol(t *testing.T) {
	d, err := New([]string{"Zzz"}, []string{"ZZZ.ST"}, WithRegistry(newStubRegistry(t, nil)))
	if err != nil {
		t.Fatal(err)
	}
	err = d.Fetch(context.Background(), "1y")
	if err == nil {
		t.Fatal("expected fetch error")
	}
	if !strings.Contains(err.Error(), "ZZZ.ST") {
		t.Errorf("error %q should name the symbol", err)
	}
}

func TestFetchInvalidPeriod(t *testing.T) {
	d, err := New([]string{"Aaa"}, []string{"AAA.ST"}, WithRegistry(newStubRegistry(t, nil)))
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Fetch(context.Background(), "forever"); err == nil {
		t.Error("invalid period should be rejected before any fetch")
	}
}

func TestFetchInfoFailureIsSoft(t *testing.T) {
	series := map[string][]models.OHLCV{
		"AAA.ST": {bar(day(1), 10)},
	}
	reg := newStubRegistry(t, series, "AAA.ST")

	d, err := New([]string{"Aaa"}, []string{"AAA.ST"}, WithRegistry(reg))
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Fetch(context.Background(), "1y"); err != nil {
		t.Fatalf("info failure must not abort the fetch: %v", err)
	}
	if _, ok := d.Info("AAA.ST"); ok {
		t.Error("profile should be absent after info failure")
	}
	if _, ok := d.Bars("AAA.ST"); !ok {
		t.Error("price data should still be present")
	}
}

// --- Alignment Pipeline ---

func TestVerifyAlignedDetectsDivergence(t *testing.T) {
	series := map[string][]models.OHLCV{
		"AAA.ST": {bar(day(1), 10), bar(day(2), 12), bar(day(3), 14)},
		"BBB.ST": {bar(day(1), 50), bar(day(3), 54)},
	}
	d, err := New([]string{"Aaa", "Bbb"}, []string{"AAA.ST", "BBB.ST"}, WithRegistry(newStubRegistry(t, series)))
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Fetch(context.Background(), "1y"); err != nil {
		t.Fatal(err)
	}

	err = d.VerifyAligned()
	var alignErr *AlignmentError
	if !errors.As(err, &alignErr) {
		t.Fatalf("error = %v, want *AlignmentError", err)
	}
	if alignErr.Symbol != "BBB.ST" || alignErr.Missing != 1 || alignErr.Extra != 0 {
		t.Errorf("alignment error = %+v", alignErr)
	}
}

func TestRunPipeline(t *testing.T) {
	series := map[string][]models.OHLCV{
		"AAA.ST": {bar(day(1), 10), bar(day(2), 12), bar(day(3), 14)},
		"BBB.ST": {bar(day(1), 50), bar(day(3), 54)},
	}
	d, err := New([]string{"Aaa", "Bbb"}, []string{"AAA.ST", "BBB.ST"}, WithRegistry(newStubRegistry(t, series)))
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Run(context.Background(), "1y"); err != nil {
		t.Fatalf("Run: %v", err)
	}

	if err := d.VerifyAligned(); err != nil {
		t.Fatalf("still misaligned after Run: %v", err)
	}
	bars, _ := d.Bars("BBB.ST")
	if len(bars) != 3 {
		t.Fatalf("BBB.ST bars = %d, want 3 after reconciliation", len(bars))
	}
	if bars[1].Close != 52 {
		t.Errorf("interpolated close = %v, want 52", bars[1].Close)
	}
}

func TestReconcileMissingReturnsWarnings(t *testing.T) {
	d, err := New([]string{"Aaa"}, []string{"AAA.ST"})
	if err != nil {
		t.Fatal(err)
	}
	d.data = map[string][]models.OHLCV{"AAA.ST": nil}
	d.dates = []time.Time{day(1), day(2)}

	warnings := d.ReconcileMissing()
	if len(warnings) != len(priceColumns) {
		t.Fatalf("warnings = %d, want %d", len(warnings), len(priceColumns))
	}
}

// --- Matrix Extraction ---

func TestPriceMatrix(t *testing.T) {
	series := map[string][]models.OHLCV{
		"AAA.ST": {bar(day(1), 10), bar(day(2), 12), bar(day(3), 14)},
		"BBB.ST": {bar(day(1), 50), bar(day(3), 54)},
	}
	d, err := New([]string{"Aaa", "Bbb"}, []string{"AAA.ST", "BBB.ST"}, WithRegistry(newStubRegistry(t, series)))
	if err != nil {
		t.Fatal(err)
	}
	if err := d.Run(context.Background(), "1y"); err != nil {
		t.Fatal(err)
	}

	m, err := d.PriceMatrix(models.PriceClose)
	if err != nil {
		t.Fatalf("PriceMatrix: %v", err)
	}
	rows, cols := m.Dims()
	if rows != 2 || cols != 3 {
		t.Fatalf("matrix shape = %dx%d, want 2x3", rows, cols)
	}
	if m.At(0, 1) != 12 {
		t.Errorf("m[0,1] = %v, want 12", m.At(0, 1))
	}
	if m.At(1, 1) != 52 {
		t.Errorf("m[1,1] = %v, want interpolated 52", m.At(1, 1))
	}
}

func TestPriceMatrixEmpty(t *testing.T) {
	d, err := New([]string{"Aaa"}, []string{"AAA.ST"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := d.PriceMatrix(models.PriceClose); err == nil {
		t.Error("empty dataset should be rejected")
	}
}

func TestPriceMatrixRejectsMisaligned(t *testing.T) {
	d, err := New([]string{"Aaa", "Bbb"}, []string{"AAA.ST", "BBB.ST"})
	if err != nil {
		t.Fatal(err)
	}
	d.data = map[string][]models.OHLCV{
		"AAA.ST": {bar(day(1), 10), bar(day(2), 12)},
		"BBB.ST": {bar(day(1), 50)},
	}
	d.dates, _ = DateUniverse(d.data)

	_, err = d.PriceMatrix(models.PriceClose)
	var alignErr *AlignmentError
	if !errors.As(err, &alignErr) {
		t.Errorf("error = %v, want *AlignmentError", err)
	}
}

func TestPriceMatrixRejectsNaN(t *testing.T) {
	d, err := New([]string{"Aaa"}, []string{"AAA.ST"})
	if err != nil {
		t.Fatal(err)
	}
	b := bar(day(1), 10)
	b.Close = math.NaN()
	d.data = map[string][]models.OHLCV{"AAA.ST": {b}}
	d.dates, _ = DateUniverse(d.data)

	_, err = d.PriceMatrix(models.PriceClose)
	var missErr *MissingValueError
	if !errors.As(err, &missErr) {
		t.Fatalf("error = %v, want *MissingValueError", err)
	}
	if missErr.Symbol != "AAA.ST" || missErr.Column != models.PriceClose {
		t.Errorf("missing value error = %+v", missErr)
	}
}

func TestPriceSeries(t *testing.T) {
	d, err := New([]string{"Aaa"}, []string{"AAA.ST"})
	if err != nil {
		t.Fatal(err)
	}
	b := bar(day(2), 10)
	b.Close = math.NaN()
	d.data = map[string][]models.OHLCV{"AAA.ST": {bar(day(1), 5), b}}

	vals, ok := d.PriceSeries("AAA.ST", models.PriceClose)
	if !ok || len(vals) != 2 {
		t.Fatalf("series = %v, ok = %v", vals, ok)
	}
	if vals[0] != 5 || !math.IsNaN(vals[1]) {
		t.Errorf("series = %v, want [5 NaN]", vals)
	}

	if _, ok := d.PriceSeries("ZZZ.ST", models.PriceClose); ok {
		t.Error("unknown symbol should report ok=false")
	}
}

// --- Accessors ---

func TestAccessorsCopy(t *testing.T) {
	d, err := New([]string{"Aaa", "Bbb"}, []string{"AAA.ST", "BBB.ST"})
	if err != nil {
		t.Fatal(err)
	}

	tickers := d.Tickers()
	tickers[0] = "mutated"
	if d.symbols[0] != "AAA.ST" {
		t.Error("Tickers must return a copy")
	}

	names := d.InstrumentNames()
	names[0] = "mutated"
	if d.names[0] != "Aaa" {
		t.Error("InstrumentNames must return a copy")
	}
}
