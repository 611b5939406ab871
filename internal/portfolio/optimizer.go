package portfolio

import (
	"fmt"
	"math"
	"strings"
	"time"

	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
	"gonum.org/v1/gonum/optimize"
	"gonum.org/v1/gonum/stat/distuv"
)

// ObjectiveFunc scores a weight vector; the optimizer minimizes it.
type ObjectiveFunc func(weights []float64) float64

// ConstraintFunc evaluates to zero when the constraint is satisfied.
// Violations enter the objective as quadratic penalty terms.
type ConstraintFunc func(weights []float64) float64

// Distribution names an initial-weight distribution. The set is closed;
// unknown names are rejected.
type Distribution string

const (
	DistLogNormal Distribution = "log-normal"
	DistNormal    Distribution = "normal"
	DistUniform   Distribution = "uniform"
)

const defaultPenaltyWeight = 1000.0

// supportedMethods lists the accepted Method names for SolveOptions.
var supportedMethods = []string{
	"nelder-mead", "bfgs", "l-bfgs", "cg", "gradient-descent", "newton",
}

// SolveOptions parameterizes one Optimize call. The zero value selects
// Nelder-Mead over period-1 returns with a log-normal initial draw.
type SolveOptions struct {
	// Method names the minimizer. Custom overrides it with a
	// caller-supplied gonum method.
	Method string
	Custom optimize.Method

	// Period selects the return horizon for the default objective.
	Period int

	// InitDist seeds the weight vector when none exists yet.
	InitDist Distribution
	Seed     uint64

	// MaxIterations bounds the solver's major iterations; zero means no
	// explicit bound.
	MaxIterations int

	// PenaltyWeight scales the quadratic constraint penalties.
	PenaltyWeight float64
}

// Result reports the outcome of an Optimize call. Status carries the
// solver's own diagnostics: non-convergence is not treated as an error
// here, so callers needing guarantees must inspect it.
type Result struct {
	Weights         []float64
	Value           float64
	Status          optimize.Status
	Iterations      int
	FuncEvaluations int
	Runtime         time.Duration
}

// SetObjective registers the objective minimized by Optimize. Passing nil
// restores the default mean-variance objective.
func (p *Portfolio) SetObjective(fn ObjectiveFunc) {
	p.objective = fn
}

// AddConstraint registers an additional constraint function.
func (p *Portfolio) AddConstraint(fn ConstraintFunc) {
	p.constraints = append(p.constraints, fn)
}

// ClearConstraints removes all registered constraints, restoring the
// defaults (sum to one, non-negative) on the next Optimize call.
func (p *Portfolio) ClearConstraints() {
	p.constraints = nil
}

// Optimize finds a weight vector minimizing the registered (or default)
// objective under the registered (or default) constraints and stores it
// renormalized so it sums to exactly one. On solver failure the previous
// weight vector is left untouched.
func (p *Portfolio) Optimize(opts SolveOptions) (*Result, error) {
	method, err := methodFor(opts)
	if err != nil {
		return nil, err
	}
	period := opts.Period
	if period == 0 {
		period = 1
	}

	start := p.weights
	if start == nil {
		src := rand.NewSource(seedOrNow(opts.Seed))
		start, err = drawWeights(len(p.symbols), opts.InitDist, src)
		if err != nil {
			return nil, err
		}
	}

	objective := p.objective
	if objective == nil {
		returns, err := p.AssetReturns(period)
		if err != nil {
			return nil, err
		}
		objective = meanVarianceObjective(CovarianceMatrix(returns), MeanReturns(returns))
	}
	constraints := p.constraints
	if len(constraints) == 0 {
		constraints = []ConstraintFunc{sumToOneConstraint, positivityConstraint}
	}
	penalty := opts.PenaltyWeight
	if penalty == 0 {
		penalty = defaultPenaltyWeight
	}

	problem := optimize.Problem{Func: penalized(objective, constraints, penalty)}
	var settings *optimize.Settings
	if opts.MaxIterations > 0 {
		settings = &optimize.Settings{MajorIterations: opts.MaxIterations}
	}

	solution, err := optimize.Minimize(problem, append([]float64(nil), start...), settings, method)
	if err != nil {
		return nil, fmt.Errorf("solve: %w", err)
	}

	sum := floats.Sum(solution.X)
	if sum == 0 {
		return nil, &DegenerateDivisionError{Op: "weight renormalization", Numerator: 1, Denominator: 0}
	}
	weights := append([]float64(nil), solution.X...)
	floats.Scale(1/sum, weights)
	p.weights = weights

	p.log.Debug().
		Str("method", methodName(opts)).
		Str("status", solution.Status.String()).
		Int("iterations", solution.Stats.MajorIterations).
		Float64("objective", solution.F).
		Msg("optimization complete")

	return &Result{
		Weights:         append([]float64(nil), weights...),
		Value:           solution.F,
		Status:          solution.Status,
		Iterations:      solution.Stats.MajorIterations,
		FuncEvaluations: solution.Stats.FuncEvaluations,
		Runtime:         solution.Stats.Runtime,
	}, nil
}

// PortfolioPoint is one sampled portfolio on the risk-return plane.
type PortfolioPoint struct {
	Weights        []float64
	ExpectedReturn float64
	Volatility     float64
	Sharpe         float64
}

// SamplePortfolios draws n random weight vectors and computes their
// risk-return coordinates, the raw material for a mean-variance frontier
// plot.
func (p *Portfolio) SamplePortfolios(n, period int, dist Distribution, seed uint64) ([]PortfolioPoint, error) {
	if n <= 0 {
		return nil, &InvalidConfigError{Reason: fmt.Sprintf("sample count must be positive, got %d", n)}
	}
	returns, err := p.AssetReturns(period)
	if err != nil {
		return nil, err
	}
	cov := CovarianceMatrix(returns)
	means := MeanReturns(returns)
	src := rand.NewSource(seedOrNow(seed))

	points := make([]PortfolioPoint, 0, n)
	for i := 0; i < n; i++ {
		w, err := drawWeights(len(p.symbols), dist, src)
		if err != nil {
			return nil, err
		}
		expected := WeightedReturns(w, means)
		vol := volFromVariance(WeightedVariance(w, cov), p.tradingDays)
		sharpe, err := SharpeRatio(expected, vol, p.riskFreeRate)
		if err != nil {
			return nil, err
		}
		points = append(points, PortfolioPoint{
			Weights:        w,
			ExpectedReturn: expected,
			Volatility:     vol,
			Sharpe:         sharpe,
		})
	}
	return points, nil
}

// --- Internals ---

func methodFor(opts SolveOptions) (optimize.Method, error) {
	if opts.Custom != nil {
		return opts.Custom, nil
	}
	switch strings.ToLower(opts.Method) {
	case "", "nelder-mead":
		return &optimize.NelderMead{}, nil
	case "bfgs":
		return &optimize.BFGS{}, nil
	case "l-bfgs":
		return &optimize.LBFGS{}, nil
	case "cg":
		return &optimize.CG{}, nil
	case "gradient-descent":
		return &optimize.GradientDescent{}, nil
	case "newton":
		return &optimize.Newton{}, nil
	default:
		return nil, &UnsupportedMethodError{Method: opts.Method, Supported: supportedMethods}
	}
}

func methodName(opts SolveOptions) string {
	if opts.Custom != nil {
		return "custom"
	}
	if opts.Method == "" {
		return "nelder-mead"
	}
	return strings.ToLower(opts.Method)
}

// drawWeights samples an initial weight vector and renormalizes it to
// sum to one. Log-normal is the default: every draw is positive, so the
// renormalized vector starts inside the feasible region.
func drawWeights(n int, dist Distribution, src rand.Source) ([]float64, error) {
	var sample func() float64
	switch dist {
	case "", DistLogNormal:
		d := distuv.LogNormal{Mu: 0, Sigma: 1, Src: src}
		sample = d.Rand
	case DistNormal:
		d := distuv.Normal{Mu: 0, Sigma: 1, Src: src}
		sample = d.Rand
	case DistUniform:
		d := distuv.Uniform{Min: 0, Max: 1, Src: src}
		sample = d.Rand
	default:
		return nil, &InvalidConfigError{Reason: fmt.Sprintf("unknown weight distribution %q", dist)}
	}

	w := make([]float64, n)
	for i := range w {
		w[i] = sample()
	}
	sum := floats.Sum(w)
	if sum == 0 {
		return nil, &DegenerateDivisionError{Op: "weight initialization", Numerator: 1, Denominator: 0}
	}
	floats.Scale(1/sum, w)
	return w, nil
}

func seedOrNow(seed uint64) uint64 {
	if seed != 0 {
		return seed
	}
	return uint64(time.Now().UnixNano())
}

// meanVarianceObjective is the default objective: variance minus expected
// return, closed over the estimates computed at call time.
func meanVarianceObjective(cov *mat.SymDense, means []float64) ObjectiveFunc {
	return func(w []float64) float64 {
		return WeightedVariance(w, cov) - WeightedReturns(w, means)
	}
}

func sumToOneConstraint(w []float64) float64 {
	return floats.Sum(w) - 1
}

func positivityConstraint(w []float64) float64 {
	var violation float64
	for _, v := range w {
		if v < 0 {
			violation -= v
		}
	}
	return violation
}

// penalized folds constraint violations into the objective as quadratic
// penalty terms, the standard reduction to an unconstrained problem.
func penalized(objective ObjectiveFunc, constraints []ConstraintFunc, weight float64) func([]float64) float64 {
	return func(w []float64) float64 {
		v := objective(w)
		for _, c := range constraints {
			cv := c(w)
			v += weight * cv * cv
		}
		return v
	}
}

// volFromVariance guards against the tiny negative variances numerical
// covariance estimates can produce.
func volFromVariance(variance, tradingDays float64) float64 {
	if variance < 0 {
		variance = 0
	}
	return math.Sqrt(variance) * math.Sqrt(tradingDays)
}
