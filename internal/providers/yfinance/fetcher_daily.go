package yfinance

import (
	"context"
	"fmt"
	"time"

	"github.com/optifolio/optifolio/internal/provider"
	"github.com/optifolio/optifolio/pkg/models"
)

// --- DailyHistorical fetcher ---

type dailyHistoricalFetcher struct {
	provider.FetcherCore
}

func newDailyHistoricalFetcher() *dailyHistoricalFetcher {
	return &dailyHistoricalFetcher{
		FetcherCore: provider.NewFetcherCore(provider.FetcherSpec{
			Model:       provider.ModelDailyHistorical,
			Description: "Historical OHLCV price data from Yahoo Finance",
			Required:    []string{provider.ParamSymbol},
			Optional:    []string{provider.ParamStartDate, provider.ParamEndDate, provider.ParamInterval},
			CacheTTL:    15 * time.Minute,
			RateLimit:   5,
		}),
	}
}

func (f *dailyHistoricalFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	symbol := params[provider.ParamSymbol]
	yfTicker := normalizeTicker(symbol)

	startDate, endDate := defaultDateRange(params)

	interval := params[provider.ParamInterval]
	if interval == "" {
		interval = string(models.Interval1Day)
	}

	cacheKey := f.Key(params)
	if cached, ok := f.Cached(cacheKey); ok {
		return wrap(cached, true), nil
	}

	if err := f.Throttle(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf(
		"https://query1.finance.yahoo.com/v8/finance/chart/%s?period1=%d&period2=%d&interval=%s&events=div%%2Csplits",
		yfTicker, startDate.Unix(), endDate.Unix(), interval,
	)

	var resp chartEnvelope
	if err := fetchJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("yfinance chart %s: %w", yfTicker, err)
	}

	if resp.Chart.Error != nil {
		return nil, fmt.Errorf("yfinance chart error: %s", resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 {
		return nil, fmt.Errorf("no data for %s", symbol)
	}

	bars := parseCandles(resp.Chart.Result[0])
	f.Store(cacheKey, bars)
	return wrap(bars, false), nil
}

// --- Helpers ---

// parseCandles converts YF chart data to OHLCV bars. Yahoo emits fully
// null rows for sessions the instrument did not trade; those are skipped
// rather than reported as zero-price bars.
func parseCandles(result chartResult) []models.OHLCV {
	if len(result.Indicators.Quote) == 0 {
		return nil
	}

	q := result.Indicators.Quote[0]
	var adjCloses []*float64
	if len(result.Indicators.AdjClose) > 0 {
		adjCloses = result.Indicators.AdjClose[0].AdjClose
	}

	col := func(vals []*float64, i int) float64 {
		if i < len(vals) && vals[i] != nil {
			return *vals[i]
		}
		return 0
	}

	bars := make([]models.OHLCV, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		if i >= len(q.Close) || q.Close[i] == nil {
			continue
		}
		b := models.OHLCV{
			Timestamp: time.Unix(ts, 0).UTC(),
			Open:      col(q.Open, i),
			High:      col(q.High, i),
			Low:       col(q.Low, i),
			Close:     *q.Close[i],
			AdjClose:  col(adjCloses, i),
		}
		if i < len(q.Volume) && q.Volume[i] != nil {
			b.Volume = *q.Volume[i]
		}
		bars = append(bars, b)
	}
	return bars
}

// defaultDateRange reads start_date/end_date from params. Absent or
// malformed values fall back to the trailing year ending today.
func defaultDateRange(params provider.QueryParams) (time.Time, time.Time) {
	day := func(s string, fallback time.Time) time.Time {
		if t, err := time.Parse("2006-01-02", s); err == nil {
			return t
		}
		return fallback
	}
	end := day(params[provider.ParamEndDate], time.Now())
	start := day(params[provider.ParamStartDate], end.AddDate(-1, 0, 0))
	return start, end
}
