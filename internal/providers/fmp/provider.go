// Package fmp implements the Financial Modeling Prep data provider.
// FMP serves daily price history, company profiles and stock news via a
// REST API gated on an API key, which makes it a useful fallback when the
// keyless providers are throttled or down.
//
// The free tier allows 250 requests per day; see
// https://financialmodelingprep.com/developer/docs for the API docs.
package fmp

import (
	"context"
	"fmt"
	"maps"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"github.com/optifolio/optifolio/internal/infra"
	"github.com/optifolio/optifolio/internal/provider"
)

const (
	providerName = "fmp"
	baseURL      = "https://financialmodelingprep.com/api/v3"

	// CredAPIKey is the credential name FMP requires at Init.
	CredAPIKey = "api_key"

	// EnvAPIKey is the environment variable the key is read from.
	EnvAPIKey = "FMP_API_KEY"
)

// Provider implements provider.Provider for Financial Modeling Prep.
type Provider struct {
	provider.ProviderCore
	apiKey string
}

// New creates a new FMP provider with all fetchers mounted.
func New() *Provider {
	p := &Provider{
		ProviderCore: provider.NewProviderCore(provider.Info{
			Name:        providerName,
			Description: "Financial Modeling Prep - API-key price, profile and news data",
			Website:     "https://financialmodelingprep.com",
			Credentials: []provider.Credential{
				{
					Name:     CredAPIKey,
					EnvVar:   EnvAPIKey,
					Required: true,
					About:    "FMP API key from financialmodelingprep.com",
				},
			},
		}),
	}

	p.AddFetcher(newDailyHistoricalFetcher())
	p.AddFetcher(newInstrumentInfoFetcher())
	p.AddFetcher(newCompanyNewsFetcher())

	return p
}

// Init validates credentials through ProviderCore and keeps the key
// for URL building.
func (p *Provider) Init(credentials map[string]string) error {
	if err := p.ProviderCore.Init(credentials); err != nil {
		return err
	}
	p.apiKey = credentials[CredAPIKey]
	return nil
}

// Ping requests a single quote to verify reachability and that the
// configured key is accepted.
func (p *Provider) Ping(ctx context.Context) error {
	url := fmt.Sprintf("%s/quote/AAPL?apikey=%s", baseURL, p.apiKey)
	body, _, err := infra.DoGet(ctx, url, acceptJSON)
	if err != nil {
		return fmt.Errorf("fmp ping: %w", err)
	}
	body.Close()
	return nil
}

// Fetcher overrides ProviderCore.Fetcher so callers get a decorated
// fetcher that carries the FMP API key in its query params, keeping
// the fetchers themselves free of credential plumbing.
func (p *Provider) Fetcher(model provider.ModelType) provider.Fetcher {
	inner := p.ProviderCore.Fetcher(model)
	if inner == nil {
		return nil
	}
	return &keyedFetcher{Fetcher: inner, key: &p.apiKey}
}

// keyedFetcher delegates to the embedded fetcher with the API key
// added under paramAPIKey.
type keyedFetcher struct {
	provider.Fetcher
	key *string
}

func (k *keyedFetcher) Fetch(ctx context.Context, params provider.QueryParams) (*provider.FetchResult, error) {
	withKey := maps.Clone(params)
	if withKey == nil {
		withKey = provider.QueryParams{}
	}
	withKey[paramAPIKey] = *k.key
	return k.Fetcher.Fetch(ctx, withKey)
}

// paramAPIKey is namespaced with an underscore so it can never collide
// with a real query param.
const paramAPIKey = "_fmp_api_key"

var acceptJSON = map[string]string{"Accept": "application/json"}

// fmpURL joins an API path with the key, picking ? or & depending on
// whether the path already carries a query string.
func fmpURL(path, apiKey string) string {
	sep := "?"
	if strings.Contains(path, "?") {
		sep = "&"
	}
	return baseURL + path + sep + "apikey=" + apiKey
}

// fetchFMPJSON GETs an FMP path and decodes the JSON body into dest.
func fetchFMPJSON(ctx context.Context, path, apiKey string, dest any) error {
	body, _, err := infra.DoGet(ctx, fmpURL(path, apiKey), acceptJSON)
	if err != nil {
		return err
	}
	defer body.Close()

	if err := json.NewDecoder(body).Decode(dest); err != nil {
		return fmt.Errorf("decode FMP response: %w", err)
	}
	return nil
}

// wrap stamps fetched data into a FetchResult.
func wrap(data any, cached bool) *provider.FetchResult {
	return &provider.FetchResult{
		Data:      data,
		FetchedAt: time.Now(),
		Cached:    cached,
	}
}
