// Package nasdaqomx implements the Nasdaq Global Index Watch data provider.
// It scrapes index weighting pages from indexes.nasdaqomx.com to resolve
// the current constituents of Nasdaq-operated indexes such as OMXS30,
// OMXSPI and NDX.
//
// The portal is free but slow and has no JSON API, so responses are kept
// in a persistent HTTP cache when one is supplied.
package nasdaqomx

import (
	"context"
	"fmt"

	"github.com/optifolio/optifolio/internal/infra"
	"github.com/optifolio/optifolio/internal/provider"
)

const providerName = "nasdaqomx"

// ImplementedIndexes lists the indexes known to resolve on the portal.
// Other index names are still attempted; Nasdaq serves many more.
func ImplementedIndexes() []string {
	return []string{"NDX", "OMXS30", "OMXSBESGNI", "OMXSPI"}
}

// Provider implements provider.Provider for the Nasdaq index portal.
type Provider struct {
	provider.ProviderCore
}

// New creates a new Nasdaq index provider. The HTTP cache is optional;
// when nil every fetch goes to the network.
func New(cache *infra.HTTPCache) *Provider {
	p := &Provider{
		ProviderCore: provider.NewProviderCore(provider.Info{
			Name:        providerName,
			Description: "Nasdaq Global Index Watch - index constituent weightings",
			Website:     "https://indexes.nasdaqomx.com",
		}),
	}

	p.AddFetcher(newIndexConstituentsFetcher(cache))

	return p
}

// Ping checks connectivity to the index portal.
func (p *Provider) Ping(ctx context.Context) error {
	body, _, err := infra.DoGet(ctx, "https://indexes.nasdaqomx.com/", nil)
	if err != nil {
		return fmt.Errorf("nasdaqomx ping: %w", err)
	}
	body.Close()
	return nil
}
