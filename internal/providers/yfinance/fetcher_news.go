package yfinance

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/mmcdole/gofeed"

	"github.com/optifolio/optifolio/internal/provider"
	"github.com/optifolio/optifolio/pkg/models"
)

// --- CompanyNews fetcher ---

const newsFeedURL = "https://feeds.finance.yahoo.com/rss/2.0/headline?s=%s&region=US&lang=en-US"

const defaultNewsLimit = 10

type companyNewsFetcher struct {
	provider.FetcherCore
	parser *gofeed.Parser
}

func newCompanyNewsFetcher() *companyNewsFetcher {
	return &companyNewsFetcher{
		FetcherCore: provider.NewFetcherCore(provider.FetcherSpec{
			Model:       provider.ModelCompanyNews,
			Description: "Company headlines from the Yahoo Finance RSS feed",
			Required:    []string{provider.ParamSymbol},
			Optional:    []string{provider.ParamLimit},
			CacheTTL:    10 * time.Minute,
			RateLimit:   5,
		}),
		parser: gofeed.NewParser(),
	}
}

func (f *companyNewsFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	symbol := params[provider.ParamSymbol]
	yfTicker := normalizeTicker(symbol)

	limit := defaultNewsLimit
	if s := params[provider.ParamLimit]; s != "" {
		if n, err := strconv.Atoi(s); err == nil && n > 0 {
			limit = n
		}
	}

	cacheKey := f.Key(params)
	if cached, ok := f.Cached(cacheKey); ok {
		return wrap(cached, true), nil
	}

	if err := f.Throttle(ctx); err != nil {
		return nil, err
	}

	feedURL := fmt.Sprintf(newsFeedURL, yfTicker)
	feed, err := f.parser.ParseURLWithContext(feedURL, ctx)
	if err != nil {
		return nil, fmt.Errorf("yfinance news %s: %w", yfTicker, err)
	}

	articles := make([]models.NewsArticle, 0, limit)
	for _, item := range feed.Items {
		if len(articles) >= limit {
			break
		}
		a := models.NewsArticle{
			Symbol:  yfTicker,
			Title:   strings.TrimSpace(item.Title),
			URL:     item.Link,
			Source:  "Yahoo Finance",
			Summary: cleanHTML(item.Description),
		}
		if item.PublishedParsed != nil {
			a.PublishedAt = *item.PublishedParsed
		}
		articles = append(articles, a)
	}

	f.Store(cacheKey, articles)
	return wrap(articles, false), nil
}

// cleanHTML strips markup from feed descriptions.
func cleanHTML(s string) string {
	if s == "" {
		return ""
	}
	doc, err := goquery.NewDocumentFromReader(strings.NewReader("<body>" + s + "</body>"))
	if err != nil {
		return strings.TrimSpace(s)
	}
	return strings.TrimSpace(doc.Text())
}
