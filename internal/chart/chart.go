// Package chart renders datasets and portfolio analytics to PNG images:
// price history lines, the sampled mean-variance frontier and allocation
// pies.
package chart

import (
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/vicanso/go-charts/v2"

	"github.com/optifolio/optifolio/internal/portfolio"
	"github.com/optifolio/optifolio/pkg/models"
)

// PriceSource is the slice of a dataset the price-history chart needs.
// *dataset.Dataset satisfies it.
type PriceSource interface {
	Tickers() []string
	Dates() []time.Time
	PriceSeries(symbol string, pt models.PriceType) ([]float64, bool)
}

const frontierBuckets = 48

// RenderPriceHistory draws one line per instrument over the shared date
// axis and returns the encoded PNG.
func RenderPriceHistory(src PriceSource, pt models.PriceType, title string) ([]byte, error) {
	tickers := src.Tickers()
	dates := src.Dates()
	if len(tickers) == 0 || len(dates) < 2 {
		return nil, errors.New("nothing to chart: need at least one instrument and two dates")
	}

	values := make([][]float64, 0, len(tickers))
	names := make([]string, 0, len(tickers))
	yMin, yMax := math.Inf(1), math.Inf(-1)
	for _, symbol := range tickers {
		series, ok := src.PriceSeries(symbol, pt)
		if !ok || len(series) != len(dates) {
			return nil, fmt.Errorf("series for %s does not cover the date axis", symbol)
		}
		series = paveGaps(series)
		for _, v := range series {
			if v < yMin {
				yMin = v
			}
			if v > yMax {
				yMax = v
			}
		}
		values = append(values, series)
		names = append(names, symbol)
	}
	if math.IsInf(yMin, 1) {
		return nil, errors.New("no defined prices to chart")
	}
	yMin, yMax = padRange(yMin, yMax)

	labels := make([]string, len(dates))
	layout := "Jan 02"
	if len(dates) > 60 {
		layout = "Jan '06"
	}
	for i, d := range dates {
		labels[i] = d.Format(layout)
	}

	seriesList := charts.NewSeriesListDataFromValues(values, charts.ChartTypeLine)
	for i := range seriesList {
		seriesList[i].Name = names[i]
	}

	painter, err := charts.Render(charts.ChartOption{SeriesList: seriesList},
		charts.TitleTextOptionFunc(title),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        labels,
			BoundaryGap: charts.FalseFlag(),
			SplitNumber: splitFor(len(labels)),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{Min: &yMin, Max: &yMax, DivideCount: 5}),
		charts.LegendOptionFunc(charts.LegendOption{Data: names}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, err
	}
	return painter.Bytes()
}

// RenderMeanVariance draws the upper edge of the sampled risk-return
// cloud. The renderer has no scatter type, so samples are bucketed by
// volatility and the best expected return per bucket forms the frontier
// line.
func RenderMeanVariance(points []portfolio.PortfolioPoint, title string) ([]byte, error) {
	if len(points) == 0 {
		return nil, errors.New("no sampled portfolios to chart")
	}

	sorted := append([]portfolio.PortfolioPoint(nil), points...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Volatility < sorted[j].Volatility })
	minVol := sorted[0].Volatility
	maxVol := sorted[len(sorted)-1].Volatility
	if maxVol == minVol {
		return nil, errors.New("sampled portfolios collapse to a single volatility")
	}

	width := (maxVol - minVol) / frontierBuckets
	best := make([]float64, frontierBuckets)
	filled := make([]bool, frontierBuckets)
	for _, pt := range sorted {
		b := int((pt.Volatility - minVol) / width)
		if b >= frontierBuckets {
			b = frontierBuckets - 1
		}
		if !filled[b] || pt.ExpectedReturn > best[b] {
			best[b] = pt.ExpectedReturn
			filled[b] = true
		}
	}

	labels := make([]string, 0, frontierBuckets)
	frontier := make([]float64, 0, frontierBuckets)
	for b := 0; b < frontierBuckets; b++ {
		if !filled[b] {
			continue
		}
		center := minVol + (float64(b)+0.5)*width
		labels = append(labels, fmt.Sprintf("%.3f", center))
		frontier = append(frontier, best[b])
	}

	bestSharpe := sorted[0]
	for _, pt := range sorted[1:] {
		if pt.Sharpe > bestSharpe.Sharpe {
			bestSharpe = pt
		}
	}
	subtitle := fmt.Sprintf("%d samples | best sharpe %.3f at vol %.3f",
		len(points), bestSharpe.Sharpe, bestSharpe.Volatility)

	painter, err := charts.LineRender([][]float64{frontier},
		charts.TitleTextOptionFunc(title+"\n"+subtitle),
		charts.XAxisOptionFunc(charts.XAxisOption{
			Data:        labels,
			BoundaryGap: charts.FalseFlag(),
			SplitNumber: splitFor(len(labels)),
		}),
		charts.YAxisOptionFunc(charts.YAxisOption{DivideCount: 5}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, err
	}
	return painter.Bytes()
}

// RenderAllocation draws the weight vector as a pie. Weights within the
// optimizer's tolerance of zero are dropped rather than drawn as slivers.
func RenderAllocation(tickers []string, weights []float64, title string) ([]byte, error) {
	if len(tickers) == 0 || len(tickers) != len(weights) {
		return nil, fmt.Errorf("got %d tickers for %d weights", len(tickers), len(weights))
	}

	names := make([]string, 0, len(tickers))
	values := make([]float64, 0, len(weights))
	for i, w := range weights {
		if w < 1e-6 {
			continue
		}
		names = append(names, tickers[i])
		values = append(values, w)
	}
	if len(values) == 0 {
		return nil, errors.New("no positive weights to chart")
	}

	painter, err := charts.PieRender(values,
		charts.TitleTextOptionFunc(title),
		charts.LegendOptionFunc(charts.LegendOption{Data: names}),
		charts.ThemeOptionFunc(charts.ThemeLight),
	)
	if err != nil {
		return nil, err
	}
	return painter.Bytes()
}

// paveGaps makes a display copy with NaN cells carried over from the
// nearest earlier value, so unreconciled gaps do not tear the line.
func paveGaps(series []float64) []float64 {
	out := append([]float64(nil), series...)
	first := -1
	for i, v := range out {
		if !math.IsNaN(v) {
			first = i
			break
		}
	}
	if first < 0 {
		return out
	}
	for i := 0; i < first; i++ {
		out[i] = out[first]
	}
	for i := first + 1; i < len(out); i++ {
		if math.IsNaN(out[i]) {
			out[i] = out[i-1]
		}
	}
	return out
}

func padRange(min, max float64) (float64, float64) {
	pad := (max - min) * 0.05
	if pad == 0 {
		pad = math.Abs(max) * 0.05
	}
	if pad == 0 {
		pad = 1
	}
	lo := min - pad
	if min >= 0 && lo < 0 {
		lo = 0
	}
	return lo, max + pad
}

func splitFor(n int) int {
	split := n / 6
	if split < 3 {
		split = 3
	}
	if split > 10 {
		split = 10
	}
	return split
}
