package yfinance

import (
	"context"
	"fmt"
	"time"

	"github.com/optifolio/optifolio/internal/provider"
	"github.com/optifolio/optifolio/pkg/models"
)

// --- InstrumentInfo fetcher ---

type instrumentInfoFetcher struct {
	provider.FetcherCore
}

func newInstrumentInfoFetcher() *instrumentInfoFetcher {
	return &instrumentInfoFetcher{
		FetcherCore: provider.NewFetcherCore(provider.FetcherSpec{
			Model:       provider.ModelInstrumentInfo,
			Description: "Company profile and summary info from Yahoo Finance",
			Required:    []string{provider.ParamSymbol},
			CacheTTL:    time.Hour,
			RateLimit:   5,
		}),
	}
}

func (f *instrumentInfoFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	symbol := params[provider.ParamSymbol]
	yfTicker := normalizeTicker(symbol)

	cacheKey := f.Key(params)
	if cached, ok := f.Cached(cacheKey); ok {
		return wrap(cached, true), nil
	}

	if err := f.Throttle(ctx); err != nil {
		return nil, err
	}

	modules := "assetProfile,summaryDetail,price"
	url := fmt.Sprintf(
		"https://query1.finance.yahoo.com/v10/finance/quoteSummary/%s?modules=%s",
		yfTicker, modules,
	)

	var resp summaryEnvelope
	if err := fetchJSON(ctx, url, &resp); err != nil {
		return nil, fmt.Errorf("yfinance info %s: %w", yfTicker, err)
	}

	if resp.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("yfinance API error: %s", resp.QuoteSummary.Error.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("no info for %s", symbol)
	}

	info := buildInstrumentInfo(yfTicker, resp.QuoteSummary.Result[0])

	f.Store(cacheKey, info)
	return wrap(info, false), nil
}

// buildInstrumentInfo assembles an InstrumentInfo from the quoteSummary
// modules. Yahoo omits whole modules for some instrument types (indices
// have no assetProfile), so every section is optional.
func buildInstrumentInfo(yfTicker string, r summaryResult) *models.InstrumentInfo {
	info := &models.InstrumentInfo{
		Symbol:    yfTicker,
		FetchedAt: time.Now(),
	}

	if p := r.Price; p != nil {
		info.Name = firstNonEmpty(p.LongName, p.ShortName)
		info.Exchange = p.ExchangeName
		info.Currency = p.Currency
		info.MarketCap = p.MarketCap.Raw
	}

	if ap := r.AssetProfile; ap != nil {
		info.Sector = ap.Sector
		info.Industry = ap.Industry
		info.Country = ap.Country
		info.Website = ap.Website
		info.Summary = ap.LongBusinessSummary
	}

	if sd := r.SummaryDetail; sd != nil && info.MarketCap == 0 {
		info.MarketCap = sd.MarketCap.Raw
	}

	return info
}
