// Package models defines the core data structures used throughout OptiFolio.
package models

import "time"

// Instrument identifies a single tradeable security.
type Instrument struct {
	Name   string `json:"name"`   // e.g., "Ericsson B"
	Symbol string `json:"symbol"` // e.g., "ERIC-B.ST"
}

// OHLCV represents a single candlestick bar of price data.
type OHLCV struct {
	Timestamp time.Time `json:"timestamp"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    int64     `json:"volume"`
	AdjClose  float64   `json:"adj_close,omitempty"`
}

// PriceType selects which bar column downstream analytics operate on.
type PriceType string

const (
	PriceOpen  PriceType = "open"
	PriceHigh  PriceType = "high"
	PriceLow   PriceType = "low"
	PriceClose PriceType = "close"
)

// Valid reports whether pt names a known bar column.
func (pt PriceType) Valid() bool {
	switch pt {
	case PriceOpen, PriceHigh, PriceLow, PriceClose:
		return true
	}
	return false
}

// Select returns the chosen column from a bar. Unknown price types
// fall back to the close, which is also the package-wide default.
func (pt PriceType) Select(bar OHLCV) float64 {
	switch pt {
	case PriceOpen:
		return bar.Open
	case PriceHigh:
		return bar.High
	case PriceLow:
		return bar.Low
	default:
		return bar.Close
	}
}

// Interval represents the bar spacing of historical price data.
type Interval string

const (
	Interval1Day   Interval = "1d"
	Interval1Week  Interval = "1wk"
	Interval1Month Interval = "1mo"
)

// InstrumentInfo holds descriptive company data for a single symbol.
type InstrumentInfo struct {
	Symbol    string    `json:"symbol"`
	Name      string    `json:"name"`
	Exchange  string    `json:"exchange,omitempty"`
	Currency  string    `json:"currency,omitempty"`
	Sector    string    `json:"sector,omitempty"`
	Industry  string    `json:"industry,omitempty"`
	Country   string    `json:"country,omitempty"`
	Website   string    `json:"website,omitempty"`
	MarketCap float64   `json:"market_cap,omitempty"`
	Summary   string    `json:"summary,omitempty"`
	FetchedAt time.Time `json:"fetched_at"`
}

// NewsArticle represents a single news article.
type NewsArticle struct {
	Symbol      string    `json:"symbol,omitempty"`
	Title       string    `json:"title"`
	URL         string    `json:"url"`
	Source      string    `json:"source"`
	Summary     string    `json:"summary,omitempty"`
	PublishedAt time.Time `json:"published_at"`
}

// IndexConstituent is a single member of a market index weighting list.
type IndexConstituent struct {
	Name   string  `json:"name"`
	Symbol string  `json:"symbol"`
	Weight float64 `json:"weight,omitempty"` // percent of index, 0 when unknown
}
