// Package dataset fetches, aligns and persists historical price series
// for a collection of instruments. Alignment guarantees that every
// instrument's series covers exactly the same sorted date universe, which
// is what the portfolio layer's price matrix requires.
package dataset

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/optifolio/optifolio/internal/provider"
	"github.com/optifolio/optifolio/pkg/models"
	"github.com/optifolio/optifolio/pkg/utils"
)

const defaultConcurrency = 5

// Dataset holds per-instrument price series keyed by symbol, the shared
// date universe, and optional instrument profiles.
type Dataset struct {
	names   []string
	symbols []string

	data  map[string][]models.OHLCV
	info  map[string]*models.InstrumentInfo
	dates []time.Time

	registry    *provider.Registry
	log         zerolog.Logger
	saveDir     string
	separator   rune
	concurrency int
}

// Option configures a Dataset.
type Option func(*Dataset)

// WithRegistry routes fetches through the given provider registry instead
// of the global one.
func WithRegistry(reg *provider.Registry) Option {
	return func(d *Dataset) { d.registry = reg }
}

// WithLogger attaches a logger. The default discards everything.
func WithLogger(log zerolog.Logger) Option {
	return func(d *Dataset) { d.log = log }
}

// WithSaveDir enables persistence under dir: fetched data is written to
// <dir>/data/<symbol>.csv and profiles to <dir>/info/<symbol>.json.
func WithSaveDir(dir string) Option {
	return func(d *Dataset) { d.saveDir = dir }
}

// WithSeparator sets the CSV field separator (default ';').
func WithSeparator(sep rune) Option {
	return func(d *Dataset) { d.separator = sep }
}

// WithConcurrency bounds the number of parallel symbol fetches.
func WithConcurrency(n int) Option {
	return func(d *Dataset) {
		if n > 0 {
			d.concurrency = n
		}
	}
}

func newDefaults() *Dataset {
	return &Dataset{
		registry:    provider.Global(),
		log:         zerolog.Nop(),
		separator:   ';',
		concurrency: defaultConcurrency,
	}
}

// New creates a dataset over the given instruments. Names and symbols are
// positional pairs and must match in length.
func New(names, symbols []string, opts ...Option) (*Dataset, error) {
	if len(names) == 0 && len(symbols) == 0 {
		return nil, &InvalidConfigError{Reason: "names and symbols are both empty"}
	}
	if len(names) != len(symbols) {
		return nil, &InvalidConfigError{
			Reason: fmt.Sprintf("number of names does not match the list of symbols, %d != %d", len(names), len(symbols)),
		}
	}

	d := newDefaults()
	d.names = append([]string(nil), names...)
	d.symbols = append([]string(nil), symbols...)
	d.data = make(map[string][]models.OHLCV, len(symbols))
	d.info = make(map[string]*models.InstrumentInfo, len(symbols))

	for _, opt := range opts {
		opt(d)
	}
	return d, nil
}

// Fetch pulls the daily price history and instrument profile for every
// symbol through the provider registry. Price failures abort the fetch;
// a missing profile only logs a warning. When a save directory is
// configured the fetched data is persisted before returning.
func (d *Dataset) Fetch(ctx context.Context, period string) error {
	now := time.Now()
	start, err := utils.ParsePeriod(period, now)
	if err != nil {
		return err
	}
	startStr := start.Format("2006-01-02")
	endStr := now.Format("2006-01-02")

	data := make(map[string][]models.OHLCV, len(d.symbols))
	info := make(map[string]*models.InstrumentInfo, len(d.symbols))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.concurrency)

	for _, symbol := range d.symbols {
		g.Go(func() error {
			params := provider.QueryParams{
				provider.ParamSymbol:    symbol,
				provider.ParamStartDate: startStr,
				provider.ParamEndDate:   endStr,
				provider.ParamInterval:  string(models.Interval1Day),
			}
			result, err := d.registry.FetchWithFallback(gctx, provider.ModelDailyHistorical, params)
			if err != nil {
				return fmt.Errorf("fetch %s: %w", symbol, err)
			}
			bars, ok := result.Data.([]models.OHLCV)
			if !ok {
				return fmt.Errorf("fetch %s: unexpected data type %T", symbol, result.Data)
			}
			if len(bars) == 0 {
				return fmt.Errorf("fetch %s: no price data returned", symbol)
			}
			bars = normalizeDates(bars)

			var profile *models.InstrumentInfo
			infoResult, err := d.registry.Fetch(gctx, provider.ModelInstrumentInfo, provider.QueryParams{
				provider.ParamSymbol: symbol,
			})
			if err != nil {
				d.log.Warn().Err(err).Str("symbol", symbol).Msg("instrument info unavailable")
			} else if p, ok := infoResult.Data.(*models.InstrumentInfo); ok {
				profile = p
			}

			mu.Lock()
			data[symbol] = bars
			if profile != nil {
				info[symbol] = profile
			}
			mu.Unlock()

			d.log.Debug().Str("symbol", symbol).Int("bars", len(bars)).Msg("fetched price history")
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}

	d.data = data
	d.info = info
	d.dates, _ = DateUniverse(data)

	d.log.Info().
		Int("instruments", len(d.symbols)).
		Int("dates", len(d.dates)).
		Str("period", period).
		Msg("fetch complete")

	if d.saveDir != "" {
		if err := d.Save(); err != nil {
			return fmt.Errorf("save dataset: %w", err)
		}
	}
	return nil
}

// ReconcileMissing aligns every series to the date universe, filling gaps
// by linear interpolation. Columns that could not be filled at all are
// returned (and logged) as soft warnings; the pipeline continues.
func (d *Dataset) ReconcileMissing() []InterpolationWarning {
	if len(d.dates) == 0 {
		d.dates, _ = DateUniverse(d.data)
	}

	var warnings []InterpolationWarning
	var missed []string
	for _, symbol := range d.symbols {
		bars := d.data[symbol]
		reconciled, w := ReconcileSeries(symbol, bars, d.dates)
		if len(reconciled) != len(bars) {
			missed = append(missed, symbol)
		}
		warnings = append(warnings, w...)
		d.data[symbol] = reconciled
	}

	if len(missed) > 0 {
		d.log.Info().Str("symbols", strings.Join(missed, ",")).Msg("filled missing dates")
	}
	for _, w := range warnings {
		d.log.Warn().
			Str("symbol", w.Symbol).
			Str("column", string(w.Column)).
			Msg("interpolation failed: no anchor value in series")
	}
	return warnings
}

// VerifyAligned asserts that every instrument's date set equals the date
// universe. A divergent instrument yields an *AlignmentError; this is a
// hard stop, reconciliation is expected to have run first.
func (d *Dataset) VerifyAligned() error {
	universe := make(map[int64]bool, len(d.dates))
	for _, date := range d.dates {
		universe[date.Unix()] = true
	}

	for _, symbol := range d.symbols {
		native := make(map[int64]bool, len(d.data[symbol]))
		for _, b := range d.data[symbol] {
			native[b.Timestamp.Unix()] = true
		}

		missing, extra := 0, 0
		for key := range universe {
			if !native[key] {
				missing++
			}
		}
		for key := range native {
			if !universe[key] {
				extra++
			}
		}
		if missing > 0 || extra > 0 {
			return &AlignmentError{Symbol: symbol, Missing: missing, Extra: extra}
		}
	}
	return nil
}

// Run is the fetch-reconcile-verify convenience pipeline.
func (d *Dataset) Run(ctx context.Context, period string) error {
	if err := d.Fetch(ctx, period); err != nil {
		return err
	}
	d.ReconcileMissing()
	return d.VerifyAligned()
}

// --- Accessors ---

// Tickers returns the instrument symbols in insertion order.
func (d *Dataset) Tickers() []string {
	return append([]string(nil), d.symbols...)
}

// InstrumentNames returns the instrument names in insertion order.
func (d *Dataset) InstrumentNames() []string {
	return append([]string(nil), d.names...)
}

// Dates returns the date universe, sorted ascending.
func (d *Dataset) Dates() []time.Time {
	return append([]time.Time(nil), d.dates...)
}

// Bars returns the series for one symbol.
func (d *Dataset) Bars(symbol string) ([]models.OHLCV, bool) {
	bars, ok := d.data[symbol]
	return bars, ok
}

// Info returns the fetched profile for one symbol, if any.
func (d *Dataset) Info(symbol string) (*models.InstrumentInfo, bool) {
	info, ok := d.info[symbol]
	return info, ok
}

// normalizeDates truncates bar timestamps to their UTC date so series
// from exchanges in different timezones align on calendar days.
func normalizeDates(bars []models.OHLCV) []models.OHLCV {
	out := make([]models.OHLCV, len(bars))
	for i, b := range bars {
		t := b.Timestamp.UTC()
		b.Timestamp = time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
		out[i] = b
	}
	return out
}
