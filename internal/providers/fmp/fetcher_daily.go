package fmp

import (
	"context"
	"fmt"
	"sort"
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
			Description: "Historical OHLCV price data from Financial Modeling Prep",
			Required:    []string{provider.ParamSymbol},
			Optional:    []string{provider.ParamStartDate, provider.ParamEndDate},
			CacheTTL:    15 * time.Minute,
			RateLimit:   5,
		}),
	}
}

func (f *dailyHistoricalFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	symbol := params[provider.ParamSymbol]
	apiKey := params[paramAPIKey]

	cacheKey := f.Key(params)
	if cached, ok := f.Cached(cacheKey); ok {
		return wrap(cached, true), nil
	}
	if err := f.Throttle(ctx); err != nil {
		return nil, err
	}

	startDate, endDate := defaultDateRange(params)
	path := fmt.Sprintf("/historical-price-full/%s?from=%s&to=%s", symbol, startDate, endDate)

	var resp historicalResponse
	if err := fetchFMPJSON(ctx, path, apiKey, &resp); err != nil {
		return nil, fmt.Errorf("fmp historical %s: %w", symbol, err)
	}
	if len(resp.Historical) == 0 {
		return nil, fmt.Errorf("no data for %s", symbol)
	}

	bars := parseHistorical(resp.Historical)
	f.Store(cacheKey, bars)
	return wrap(bars, false), nil
}

// parseHistorical converts FMP rows to OHLCV bars in chronological order.
// FMP returns newest first.
func parseHistorical(entries []priceBar) []models.OHLCV {
	bars := make([]models.OHLCV, 0, len(entries))
	for _, h := range entries {
		t, err := time.Parse("2006-01-02", h.Date)
		if err != nil {
			continue
		}
		bars = append(bars, models.OHLCV{
			Timestamp: t.UTC(),
			Open:      h.Open,
			High:      h.High,
			Low:       h.Low,
			Close:     h.Close,
			AdjClose:  h.AdjClose,
			Volume:    h.Volume,
		})
	}
	sort.Slice(bars, func(i, j int) bool {
		return bars[i].Timestamp.Before(bars[j].Timestamp)
	})
	return bars
}

// defaultDateRange parses start_date/end_date from params or uses defaults.
func defaultDateRange(params provider.QueryParams) (string, string) {
	now := time.Now()
	startStr := params[provider.ParamStartDate]
	if startStr == "" {
		startStr = now.AddDate(-1, 0, 0).Format("2006-01-02")
	}
	endStr := params[provider.ParamEndDate]
	if endStr == "" {
		endStr = now.Format("2006-01-02")
	}
	return startStr, endStr
}
