package dataset

import (
	"context"
	"fmt"

	"github.com/optifolio/optifolio/internal/provider"
	"github.com/optifolio/optifolio/pkg/models"
)

// OMXS30 constituents as of late 2023. The index is rebalanced twice a
// year; use FromIndex for the live composition.
var (
	omxs30Names = []string{
		"ABB Ltd",
		"Alfa Laval",
		"Autoliv SDB",
		"ASSA ABLOY B",
		"Atlas Copco A",
		"Atlas Copco B",
		"AstraZeneca",
		"Boliden",
		"Electrolux B",
		"Ericsson B",
		"Essity B",
		"Evolution",
		"Getinge B",
		"Hexagon B",
		"Hennes & Mauritz B",
		"Investor B",
		"Kinnevik B",
		"Nordea Bank Abp",
		"NIBE Industrier B",
		"Sandvik",
		"Samhällsbyggnadbo.i Norden AB",
		"SCA B",
		"SEB A",
		"Sv. Handelsbanken A",
		"Sinch",
		"SKF B",
		"Swedbank A",
		"Tele2 B",
		"Telia Company",
		"Volvo B",
	}
	omxs30Symbols = []string{
		"ABB.ST",
		"ALFA.ST",
		"ALIV-SDB.ST",
		"ASSA-B.ST",
		"ATCO-A.ST",
		"ATCO-B.ST",
		"AZN.ST",
		"BOL.ST",
		"ELUX-B.ST",
		"ERIC-B.ST",
		"ESSITY-B.ST",
		"EVO.ST",
		"GETI-B.ST",
		"HEXA-B.ST",
		"HM-B.ST",
		"INVE-B.ST",
		"KINV-B.ST",
		"NDA-SE.ST",
		"NIBE-B.ST",
		"SAND.ST",
		"SBB-B.ST",
		"SCA-B.ST",
		"SEB-A.ST",
		"SHB-A.ST",
		"SINCH.ST",
		"SKF-B.ST",
		"SWED-A.ST",
		"TEL2-B.ST",
		"TELIA.ST",
		"VOLV-B.ST",
	}
)

// OMXS30 builds a dataset over the bundled constituent snapshot without
// touching the network.
func OMXS30(opts ...Option) (*Dataset, error) {
	return New(omxs30Names, omxs30Symbols, opts...)
}

// FromIndex resolves the current constituents of a Nasdaq index through
// the provider registry and builds a dataset over them.
func FromIndex(ctx context.Context, index string, opts ...Option) (*Dataset, error) {
	probe := newDefaults()
	for _, opt := range opts {
		opt(probe)
	}

	result, err := probe.registry.Fetch(ctx, provider.ModelIndexConstituents, provider.QueryParams{
		provider.ParamIndex: index,
	})
	if err != nil {
		return nil, fmt.Errorf("resolve %s constituents: %w", index, err)
	}
	constituents, ok := result.Data.([]models.IndexConstituent)
	if !ok {
		return nil, fmt.Errorf("resolve %s constituents: unexpected data type %T", index, result.Data)
	}
	if len(constituents) == 0 {
		return nil, fmt.Errorf("resolve %s constituents: empty index", index)
	}

	names := make([]string, len(constituents))
	symbols := make([]string, len(constituents))
	for i, c := range constituents {
		names[i] = c.Name
		symbols[i] = c.Symbol
	}
	return New(names, symbols, opts...)
}

// OMXSPI builds a dataset over the live OMX Stockholm all-share index.
func OMXSPI(ctx context.Context, opts ...Option) (*Dataset, error) {
	return FromIndex(ctx, "OMXSPI", opts...)
}

// NDX builds a dataset over the live Nasdaq-100 index.
func NDX(ctx context.Context, opts ...Option) (*Dataset, error) {
	return FromIndex(ctx, "NDX", opts...)
}
