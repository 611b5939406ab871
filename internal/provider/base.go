package provider

import (
	"context"
	"sort"
	"strings"
	"time"

	"github.com/optifolio/optifolio/internal/infra"
)

// Tuning applied when a FetcherSpec leaves the corresponding field zero.
const (
	defaultCacheTTL   = 5 * time.Minute
	defaultRateLimit  = 10
	defaultRateWindow = time.Second
)

// FetcherCore carries the spec, per-fetcher cache and throttle shared
// by every concrete fetcher. Embed it and implement Fetch.
type FetcherCore struct {
	spec    FetcherSpec
	cache   *infra.Cache
	limiter *infra.RateLimiter
}

// NewFetcherCore builds the core for a spec, filling unset tuning
// fields with the package defaults.
func NewFetcherCore(spec FetcherSpec) FetcherCore {
	if spec.CacheTTL <= 0 {
		spec.CacheTTL = defaultCacheTTL
	}
	if spec.RateLimit <= 0 {
		spec.RateLimit = defaultRateLimit
	}
	if spec.RateWindow <= 0 {
		spec.RateWindow = defaultRateWindow
	}
	return FetcherCore{
		spec:    spec,
		cache:   infra.NewCache(spec.CacheTTL),
		limiter: infra.NewRateLimiter(spec.RateLimit, spec.RateWindow),
	}
}

func (c *FetcherCore) Spec() FetcherSpec { return c.spec }

// Key derives the cache key for one query: the model name followed by
// the sorted parameters. The provider override is excluded, the payload
// is the same wherever it came from.
func (c *FetcherCore) Key(params QueryParams) string {
	keys := make([]string, 0, len(params))
	for k := range params {
		if k != ParamProvider {
			keys = append(keys, k)
		}
	}
	sort.Strings(keys)

	var b strings.Builder
	b.WriteString(string(c.spec.Model))
	for _, k := range keys {
		b.WriteByte(':')
		b.WriteString(k)
		b.WriteByte('=')
		b.WriteString(params[k])
	}
	return b.String()
}

// Cached looks up a previously stored payload.
func (c *FetcherCore) Cached(key string) (any, bool) {
	return c.cache.Get(key)
}

// Store keeps a payload for the spec's cache TTL.
func (c *FetcherCore) Store(key string, value any) {
	c.cache.Set(key, value)
}

// Throttle blocks until the fetcher's rate limiter grants a slot, or
// the context is done.
func (c *FetcherCore) Throttle(ctx context.Context) error {
	return c.limiter.Wait(ctx)
}

// ProviderCore implements the bookkeeping half of Provider: identity,
// credential validation and the fetcher table. Embed it and override
// what the concrete source needs.
type ProviderCore struct {
	info     Info
	fetchers map[ModelType]Fetcher
	creds    map[string]string
}

// NewProviderCore builds a core around the provider's static Info. The
// Models field is maintained by AddFetcher and need not be set.
func NewProviderCore(info Info) ProviderCore {
	return ProviderCore{
		info:     info,
		fetchers: make(map[ModelType]Fetcher),
	}
}

func (p *ProviderCore) Info() Info { return p.info }

// Init checks that every required declared credential was supplied and
// keeps the set for later lookup.
func (p *ProviderCore) Init(credentials map[string]string) error {
	for _, c := range p.info.Credentials {
		if c.Required && credentials[c.Name] == "" {
			return &ErrInvalidCredentials{
				Provider: p.info.Name,
				Detail:   "missing required credential: " + c.Name,
			}
		}
	}
	p.creds = credentials
	return nil
}

func (p *ProviderCore) Fetcher(model ModelType) Fetcher {
	return p.fetchers[model]
}

// SupportedModels lists the mounted models in a stable order.
func (p *ProviderCore) SupportedModels() []ModelType {
	out := make([]ModelType, 0, len(p.fetchers))
	for m := range p.fetchers {
		out = append(out, m)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// Ping is a no-op; providers with a cheap health endpoint override it.
func (p *ProviderCore) Ping(context.Context) error { return nil }

// AddFetcher mounts a fetcher under its spec's model, replacing any
// previous one, and refreshes the advertised model list.
func (p *ProviderCore) AddFetcher(f Fetcher) {
	p.fetchers[f.Spec().Model] = f
	p.info.Models = p.SupportedModels()
}

// Credential returns a value stored at Init, or "".
func (p *ProviderCore) Credential(name string) string {
	return p.creds[name]
}
