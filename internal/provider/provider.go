// Package provider routes market-data requests to pluggable sources.
// A Provider bundles one Fetcher per data model; the Registry indexes
// every registered provider by the models it serves and resolves each
// fetch to a route, with optional fallback across sources when the
// preferred one fails.
package provider

import (
	"context"
	"time"
)

// Credential names a secret a provider needs before it can serve.
type Credential struct {
	Name     string `json:"name"`
	EnvVar   string `json:"env_var"`
	Required bool   `json:"required"`
	About    string `json:"about,omitempty"`
}

// Info describes a provider to the registry and to operators.
type Info struct {
	Name        string       `json:"name"`
	Description string       `json:"description"`
	Website     string       `json:"website,omitempty"`
	Credentials []Credential `json:"credentials,omitempty"`
	Models      []ModelType  `json:"models"`
}

// Provider is one market-data source. Implementations embed
// ProviderCore for the bookkeeping half and mount a Fetcher per model
// they serve.
type Provider interface {
	Info() Info

	// Init validates and stores credentials. It runs once, before the
	// provider is registered.
	Init(credentials map[string]string) error

	// Fetcher returns the fetcher mounted for model, or nil.
	Fetcher(model ModelType) Fetcher

	SupportedModels() []ModelType

	// Ping checks that the upstream service is reachable.
	Ping(ctx context.Context) error
}

// QueryParams carries the string-keyed arguments of one fetch. Which
// keys a fetcher reads is declared in its FetcherSpec.
type QueryParams map[string]string

// Parameter keys understood by the bundled fetchers. Dates are
// YYYY-MM-DD, intervals follow the bar-spacing strings in pkg/models.
const (
	ParamSymbol    = "symbol"
	ParamStartDate = "start_date"
	ParamEndDate   = "end_date"
	ParamInterval  = "interval"
	ParamIndex     = "index"
	ParamTradeDate = "trade_date"
	ParamLimit     = "limit"
	ParamProvider  = "provider"
)

// FetcherSpec declares what a fetcher serves and consumes, plus its
// cache and throttle tuning. Zero tuning fields take the FetcherCore
// defaults.
type FetcherSpec struct {
	Model       ModelType
	Description string
	Required    []string
	Optional    []string

	CacheTTL   time.Duration
	RateLimit  int // requests per RateWindow
	RateWindow time.Duration
}

// Fetcher retrieves one data model from one source. The concrete type
// behind FetchResult.Data follows the model:
//
//	DailyHistorical   → []models.OHLCV
//	InstrumentInfo    → *models.InstrumentInfo
//	IndexConstituents → []models.IndexConstituent
//	CompanyNews       → []models.NewsArticle
type Fetcher interface {
	Spec() FetcherSpec
	Fetch(ctx context.Context, params QueryParams) (*FetchResult, error)
}

// FetchResult is a fetched payload with its routing metadata. Provider
// and Model are stamped by the registry on the way out.
type FetchResult struct {
	Provider  string    `json:"provider"`
	Model     ModelType `json:"model"`
	Data      any       `json:"data"`
	FetchedAt time.Time `json:"fetched_at"`
	Cached    bool      `json:"cached"`
}
