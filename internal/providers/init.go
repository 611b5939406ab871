// Package providers wires the concrete data sources into the provider
// registry.
package providers

import (
	"os"

	"github.com/optifolio/optifolio/internal/infra"
	"github.com/optifolio/optifolio/internal/provider"
	"github.com/optifolio/optifolio/internal/providers/fmp"
	"github.com/optifolio/optifolio/internal/providers/nasdaqomx"
	"github.com/optifolio/optifolio/internal/providers/yfinance"
)

// Options configures provider construction.
type Options struct {
	// HTTPCache backs the scraping providers. May be nil, in which case
	// every request goes to the network.
	HTTPCache *infra.HTTPCache
}

// RegisterAll mounts every available provider on the global registry.
func RegisterAll(opts Options) error {
	return RegisterAllTo(provider.Global(), opts)
}

// RegisterAllTo mounts every available provider on reg.
// Keyless providers are always registered; FMP joins only when its API
// key is present in the environment, as a fallback source.
func RegisterAllTo(reg *provider.Registry, opts Options) error {
	// --- Yahoo Finance (free, no API key) ---
	yf := yfinance.New()
	if err := yf.Init(nil); err != nil {
		return err
	}
	if err := reg.Register(yf); err != nil {
		return err
	}

	// --- Nasdaq Global Index Watch (free, scraped) ---
	nq := nasdaqomx.New(opts.HTTPCache)
	if err := nq.Init(nil); err != nil {
		return err
	}
	if err := reg.Register(nq); err != nil {
		return err
	}

	// --- Financial Modeling Prep (optional, API key) ---
	if key := os.Getenv(fmp.EnvAPIKey); key != "" {
		fp := fmp.New()
		if err := fp.Init(map[string]string{fmp.CredAPIKey: key}); err != nil {
			return err
		}
		if err := reg.Register(fp); err != nil {
			return err
		}
	}

	return nil
}
