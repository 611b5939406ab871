// Package yfinance exposes Yahoo Finance as a data provider. It wraps
// the public v8 chart and v10 quoteSummary endpoints and the per-symbol
// RSS headline feed. No API key is needed, and coverage spans equities,
// ETFs and indices worldwide, including the Nasdaq Nordic exchanges.
package yfinance

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/optifolio/optifolio/internal/infra"
	"github.com/optifolio/optifolio/internal/provider"
)

const providerName = "yfinance"

// Provider is the Yahoo Finance implementation of provider.Provider.
type Provider struct {
	provider.ProviderCore
}

// New creates a new YFinance provider with all fetchers mounted.
func New() *Provider {
	p := &Provider{
		ProviderCore: provider.NewProviderCore(provider.Info{
			Name:        providerName,
			Description: "Yahoo Finance - free global price, profile and news data",
			Website:     "https://finance.yahoo.com",
		}),
	}

	p.AddFetcher(newDailyHistoricalFetcher())
	p.AddFetcher(newInstrumentInfoFetcher())
	p.AddFetcher(newCompanyNewsFetcher())

	return p
}

// Ping hits the chart endpoint for the OMX index with a 1-day range,
// the cheapest request that proves both reachability and API shape.
func (p *Provider) Ping(ctx context.Context) error {
	url := "https://query1.finance.yahoo.com/v8/finance/chart/%5EOMX?range=1d&interval=1d"
	body, _, err := infra.DoGet(ctx, url, acceptJSON)
	if err != nil {
		return fmt.Errorf("yfinance ping: %w", err)
	}
	body.Close()
	return nil
}

var acceptJSON = map[string]string{"Accept": "application/json"}

// fetchJSON GETs url and decodes the JSON body into dest.
func fetchJSON(ctx context.Context, url string, dest any) error {
	body, _, err := infra.DoGet(ctx, url, acceptJSON)
	if err != nil {
		return err
	}
	defer body.Close()

	if err := json.NewDecoder(body).Decode(dest); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

// normalizeTicker canonicalizes a symbol for the Yahoo Finance APIs.
// Nordic symbols like "eric-b.st" and index symbols like "^omx" are
// accepted in any case.
func normalizeTicker(symbol string) string {
	return strings.ToUpper(strings.TrimSpace(symbol))
}

// firstNonEmpty returns the first value that is not blank.
func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) == "" {
			continue
		}
		return v
	}
	return ""
}

// wrap stamps fetched data into a FetchResult.
func wrap(data any, cached bool) *provider.FetchResult {
	return &provider.FetchResult{
		Data:      data,
		FetchedAt: time.Now(),
		Cached:    cached,
	}
}
