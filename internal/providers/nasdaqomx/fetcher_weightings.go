package nasdaqomx

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"github.com/optifolio/optifolio/internal/infra"
	"github.com/optifolio/optifolio/internal/provider"
	"github.com/optifolio/optifolio/pkg/models"
)

const weightingBaseURL = "https://indexes.nasdaqomx.com/Index/Weighting/"

// --- IndexConstituents fetcher ---

type indexConstituentsFetcher struct {
	provider.FetcherCore
	cache   *infra.HTTPCache
	baseURL string
}

func newIndexConstituentsFetcher(cache *infra.HTTPCache) *indexConstituentsFetcher {
	return &indexConstituentsFetcher{
		FetcherCore: provider.NewFetcherCore(provider.FetcherSpec{
			Model:       provider.ModelIndexConstituents,
			Description: "Index constituent names, symbols and weights from Nasdaq",
			Required:    []string{provider.ParamIndex},
			Optional:    []string{provider.ParamTradeDate},
			CacheTTL:    time.Hour,
			RateLimit:   2,
		}),
		cache:   cache,
		baseURL: weightingBaseURL,
	}
}

func (f *indexConstituentsFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	index := strings.ToUpper(strings.TrimSpace(params[provider.ParamIndex]))

	tradeDate := lastTradeDate(time.Now())
	if s := params[provider.ParamTradeDate]; s != "" {
		t, err := time.Parse("2006-01-02", s)
		if err != nil {
			return nil, fmt.Errorf("invalid trade_date %q: %w", s, err)
		}
		tradeDate = t
	}

	cacheKey := f.Key(params)
	if cached, ok := f.Cached(cacheKey); ok {
		return &provider.FetchResult{Data: cached, FetchedAt: time.Now(), Cached: true}, nil
	}

	if err := f.Throttle(ctx); err != nil {
		return nil, err
	}

	url := fmt.Sprintf(
		"%s%s?tradeDate=%sT00:00:00.000&timeOfDay=SOD",
		f.baseURL, index, tradeDate.Format("2006-01-02"),
	)

	var page []byte
	var err error
	if f.cache != nil {
		page, err = f.cache.GetOrFetch(ctx, url, nil)
	} else {
		page, err = infra.GetBytes(ctx, url, nil)
	}
	if err != nil {
		return nil, fmt.Errorf("nasdaqomx weightings %s: %w", index, err)
	}

	constituents, err := parseWeightings(page, symbolFilterFor(index))
	if err != nil {
		return nil, fmt.Errorf("nasdaqomx weightings %s: %w", index, err)
	}

	f.Store(cacheKey, constituents)
	return &provider.FetchResult{Data: constituents, FetchedAt: time.Now()}, nil
}

// --- Helpers ---

// lastTradeDate returns the most recent date the portal has committed
// weightings for. Before noon the previous day is used (files are
// published start-of-day), and weekends clamp back to Friday.
func lastTradeDate(now time.Time) time.Time {
	d := now
	if d.Hour() < 12 {
		d = d.AddDate(0, 0, -1)
	}
	iso := int(d.Weekday())
	if iso == 0 {
		iso = 7 // Sunday
	}
	if diff := iso - 5; diff > 0 {
		d = d.AddDate(0, 0, -diff)
	}
	return time.Date(d.Year(), d.Month(), d.Day(), 0, 0, 0, 0, time.UTC)
}

// symbolFilterFor maps a portal security symbol to its Yahoo Finance
// ticker. Stockholm-listed constituents trade under "<SYMBOL>.ST" with
// spaces dashed ("ERIC B" -> "ERIC-B.ST"); US indexes pass through.
func symbolFilterFor(index string) func(string) string {
	if strings.HasPrefix(index, "OMXS") {
		return func(s string) string {
			return strings.ReplaceAll(s, " ", "-") + ".ST"
		}
	}
	return func(s string) string { return s }
}

// parseWeightings extracts constituents from a Weighting page. The table
// lists one row per security with the company name and symbol in the
// leading cells and the index weight in the trailing percentage cell.
func parseWeightings(page []byte, filter func(string) string) ([]models.IndexConstituent, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(page))
	if err != nil {
		return nil, fmt.Errorf("parse weightings page: %w", err)
	}

	var constituents []models.IndexConstituent
	doc.Find("table tbody tr").Each(func(_ int, row *goquery.Selection) {
		cells := row.Find("td")
		if cells.Length() < 2 {
			return
		}
		name := strings.TrimSpace(cells.Eq(0).Text())
		symbol := strings.TrimSpace(cells.Eq(1).Text())
		if name == "" || symbol == "" || strings.EqualFold(name, "Total") {
			return
		}
		c := models.IndexConstituent{
			Name:   name,
			Symbol: filter(symbol),
		}
		if cells.Length() > 2 {
			c.Weight = parsePercent(cells.Eq(cells.Length() - 1).Text())
		}
		constituents = append(constituents, c)
	})

	if len(constituents) == 0 {
		return nil, errors.New("no constituents found in weightings page")
	}
	return constituents, nil
}

// parsePercent parses strings like "3.52%" or "3.52 %". Unparseable
// cells yield 0; weights are informative, not required.
func parsePercent(s string) float64 {
	s = strings.TrimSpace(strings.TrimSuffix(strings.TrimSpace(s), "%"))
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}
