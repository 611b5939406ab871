// Package portfolio implements asset and portfolio analytics over aligned
// price matrices: period returns, moment statistics, weighted portfolio
// measures and a numerical weight optimizer.
package portfolio

import (
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/stat"
)

// The formulas below are side-effect-free functions over immutable
// inputs; every call produces a new output.

// divide applies the zero-denominator policy shared by all return
// computations: 0/0 means "no change" and yields 1, while x/0 for x != 0
// signals corrupted price data and fails.
func divide(op string, u, v float64) (float64, error) {
	if v == 0 {
		if u == 0 {
			return 1, nil
		}
		return 0, &DegenerateDivisionError{Op: op, Numerator: u, Denominator: v}
	}
	return u / v, nil
}

// MatrixPeriodReturns computes elementwise period returns over a price
// matrix of shape (instruments x samples), producing shape
// (instruments x samples-period): out[i][t] = m[i][t+period]/m[i][t] - 1.
func MatrixPeriodReturns(prices *mat.Dense, period int) (*mat.Dense, error) {
	if period < 1 {
		return nil, &InvalidConfigError{Reason: fmt.Sprintf("period must be positive, got %d", period)}
	}
	n, t := prices.Dims()
	if t <= period {
		return nil, &InsufficientSamplesError{Op: "period returns", Need: period + 1, Got: t}
	}

	out := mat.NewDense(n, t-period, nil)
	for i := 0; i < n; i++ {
		for j := 0; j < t-period; j++ {
			r, err := divide("period returns", prices.At(i, j+period), prices.At(i, j))
			if err != nil {
				return nil, err
			}
			out.Set(i, j, r-1)
		}
	}
	return out, nil
}

// MeanReturns reduces a returns matrix to the per-instrument mean.
func MeanReturns(returns *mat.Dense) []float64 {
	n, _ := returns.Dims()
	out := make([]float64, n)
	for i := 0; i < n; i++ {
		out[i] = stat.Mean(mat.Row(nil, i, returns), nil)
	}
	return out
}

// CovarianceMatrix computes the sample covariance of the per-instrument
// return rows. Rows are the variables, samples run along columns.
func CovarianceMatrix(returns *mat.Dense) *mat.SymDense {
	n, _ := returns.Dims()
	cov := mat.NewSymDense(n, nil)
	stat.CovarianceMatrix(cov, returns.T(), nil)
	return cov
}

// AssetVolatilities computes the per-instrument sample standard deviation
// of returns, scaled by sqrt(tradingDays).
func AssetVolatilities(returns *mat.Dense, tradingDays float64) []float64 {
	n, _ := returns.Dims()
	out := make([]float64, n)
	scale := math.Sqrt(tradingDays)
	for i := 0; i < n; i++ {
		out[i] = stat.StdDev(mat.Row(nil, i, returns), nil) * scale
	}
	return out
}

// WeightedReturns is the dot product of the weight vector with the mean
// per-instrument returns.
func WeightedReturns(weights, meanReturns []float64) float64 {
	return floats.Dot(weights, meanReturns)
}

// WeightedVariance computes w * C * w' over the covariance matrix.
func WeightedVariance(weights []float64, cov *mat.SymDense) float64 {
	w := mat.NewVecDense(len(weights), weights)
	var cw mat.VecDense
	cw.MulVec(cov, w)
	return mat.Dot(w, &cw)
}

// SharpeRatio computes (expectedReturn - riskFreeRate) / volatility.
// Zero volatility is a boundary condition surfaced as a typed error
// rather than an Inf that propagates invisibly.
func SharpeRatio(expectedReturn, volatility, riskFreeRate float64) (float64, error) {
	if volatility == 0 {
		return 0, &DegenerateDivisionError{
			Op:          "sharpe ratio",
			Numerator:   expectedReturn - riskFreeRate,
			Denominator: 0,
		}
	}
	return (expectedReturn - riskFreeRate) / volatility, nil
}

// kMoment is the k-th central moment with population normalization.
func kMoment(x []float64, mean float64, k float64) float64 {
	var sum float64
	for _, v := range x {
		sum += math.Pow(v-mean, k)
	}
	return sum / float64(len(x))
}

// Skewness computes the adjusted Fisher-Pearson standardized third-moment
// coefficient: sqrt(n*(n-1))/(n-2) * m3/m2^1.5. The coefficient divides
// by n-2, so fewer than three samples is an error, as is a constant
// series whose second moment vanishes.
func Skewness(series []float64) (float64, error) {
	n := len(series)
	if n <= 2 {
		return 0, &InsufficientSamplesError{Op: "skewness", Need: 3, Got: n}
	}

	mean := stat.Mean(series, nil)
	m2 := kMoment(series, mean, 2)
	m3 := kMoment(series, mean, 3)
	if m2 == 0 {
		return 0, &DegenerateDivisionError{Op: "skewness", Numerator: m3, Denominator: 0}
	}

	nf := float64(n)
	coeff := math.Sqrt(nf*(nf-1)) / (nf - 2)
	return coeff * m3 / math.Pow(m2, 1.5), nil
}
