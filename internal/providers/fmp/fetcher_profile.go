package fmp

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
			Description: "Company profile from Financial Modeling Prep",
			Required:    []string{provider.ParamSymbol},
			CacheTTL:    time.Hour,
			RateLimit:   5,
		}),
	}
}

func (f *instrumentInfoFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	symbol := params[provider.ParamSymbol]
	apiKey := params[paramAPIKey]

	cacheKey := f.Key(params)
	if cached, ok := f.Cached(cacheKey); ok {
		return wrap(cached, true), nil
	}
	if err := f.Throttle(ctx); err != nil {
		return nil, err
	}

	path := fmt.Sprintf("/profile/%s", symbol)
	var results []companyProfile
	if err := fetchFMPJSON(ctx, path, apiKey, &results); err != nil {
		return nil, fmt.Errorf("fmp profile %s: %w", symbol, err)
	}
	if len(results) == 0 {
		return nil, fmt.Errorf("no profile for %s", symbol)
	}

	info := buildInstrumentInfo(results[0])
	f.Store(cacheKey, info)
	return wrap(info, false), nil
}

func buildInstrumentInfo(p companyProfile) *models.InstrumentInfo {
	exchange := p.ExchangeShortName
	if exchange == "" {
		exchange = p.Exchange
	}
	return &models.InstrumentInfo{
		Symbol:    p.Symbol,
		Name:      p.CompanyName,
		Exchange:  exchange,
		Currency:  p.Currency,
		Sector:    p.Sector,
		Industry:  p.Industry,
		Country:   p.Country,
		Website:   p.Website,
		MarketCap: p.MarketCap,
		Summary:   p.Description,
		FetchedAt: time.Now(),
	}
}

// --- CompanyNews fetcher ---

type companyNewsFetcher struct {
	provider.FetcherCore
}

func newCompanyNewsFetcher() *companyNewsFetcher {
	return &companyNewsFetcher{
		FetcherCore: provider.NewFetcherCore(provider.FetcherSpec{
			Model:       provider.ModelCompanyNews,
			Description: "Company news headlines from Financial Modeling Prep",
			Required:    []string{provider.ParamSymbol},
			Optional:    []string{provider.ParamLimit},
			CacheTTL:    15 * time.Minute,
			RateLimit:   5,
		}),
	}
}

func (f *companyNewsFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	symbol := params[provider.ParamSymbol]
	apiKey := params[paramAPIKey]

	cacheKey := f.Key(params)
	if cached, ok := f.Cached(cacheKey); ok {
		return wrap(cached, true), nil
	}
	if err := f.Throttle(ctx); err != nil {
		return nil, err
	}

	limit := params[provider.ParamLimit]
	if limit == "" {
		limit = "20"
	}
	path := fmt.Sprintf("/stock_news?tickers=%s&limit=%s", symbol, limit)

	var results []newsItem
	if err := fetchFMPJSON(ctx, path, apiKey, &results); err != nil {
		return nil, fmt.Errorf("fmp company news %s: %w", symbol, err)
	}

	articles := make([]models.NewsArticle, 0, len(results))
	for _, r := range results {
		pubDate, _ := time.Parse("2006-01-02 15:04:05", r.PublishedDate)
		articles = append(articles, models.NewsArticle{
			Symbol:      r.Symbol,
			Title:       r.Title,
			URL:         r.URL,
			Source:      r.Site,
			Summary:     r.Body,
			PublishedAt: pubDate,
		})
	}

	f.Store(cacheKey, articles)
	return wrap(articles, false), nil
}
