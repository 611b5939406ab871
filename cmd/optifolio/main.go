// OptiFolio — portfolio analytics and mean-variance weight optimization.
//
// Main CLI entrypoint using cobra command framework.
package main

import (
	"fmt"
	"os"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/optifolio/optifolio/internal/chart"
	"github.com/optifolio/optifolio/internal/config"
	"github.com/optifolio/optifolio/internal/dataset"
	"github.com/optifolio/optifolio/internal/infra"
	"github.com/optifolio/optifolio/internal/logging"
	"github.com/optifolio/optifolio/internal/portfolio"
	"github.com/optifolio/optifolio/internal/provider"
	"github.com/optifolio/optifolio/internal/providers"
	"github.com/optifolio/optifolio/internal/providers/fmp"
	"github.com/optifolio/optifolio/pkg/models"
	"github.com/optifolio/optifolio/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

// Global config and logger
var (
	cfg *config.Config
	log zerolog.Logger
)

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:   "optifolio",
	Short: "OptiFolio — portfolio analytics and weight optimization",
	Long: `OptiFolio builds aligned price datasets from market data providers,
computes per-asset and portfolio statistics (returns, volatility, skewness,
Sharpe ratio), and optimizes portfolio weights by mean-variance
minimization with renormalized solver output.`,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		configFile, _ := cmd.Flags().GetString("config")
		if configFile != "" {
			cfg, err = config.LoadFromFile(configFile)
		} else {
			cfg, err = config.Load()
		}
		if err != nil {
			return fmt.Errorf("failed to load config: %w", err)
		}
		if level, _ := cmd.Flags().GetString("log-level"); level != "" {
			cfg.Logging.Level = level
		}
		log = logging.New(cfg.Logging)
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	rootCmd.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(versionCmd)
	rootCmd.AddCommand(fetchCmd)
	rootCmd.AddCommand(statsCmd)
	rootCmd.AddCommand(optimizeCmd)
	rootCmd.AddCommand(chartCmd)
	rootCmd.AddCommand(newsCmd)
	rootCmd.AddCommand(statusCmd)
}

// --- Version Command ---

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print version information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("OptiFolio %s\n", version)
		fmt.Printf("  commit:  %s\n", commit)
		fmt.Printf("  built:   %s\n", date)
	},
}

// --- Fetch Command ---

var fetchCmd = &cobra.Command{
	Use:   "fetch [symbols...]",
	Short: "Fetch and align price history for a set of instruments",
	Long: `Fetch daily price history for the given symbols (or a whole index),
align all series to a common date universe, interpolate gaps, and save
the dataset as CSV under the configured data directory.

Examples:
  optifolio fetch ERIC-B.ST VOLV-B.ST --period 2y
  optifolio fetch --index OMXS30 --period 1y
  optifolio fetch AAPL MSFT --names "Apple,Microsoft" --no-save`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := materializeDataset(cmd, args)
		if err != nil {
			return err
		}

		tickers := d.Tickers()
		names := d.InstrumentNames()
		dates := d.Dates()

		fmt.Printf("📦 Fetched %d instruments, %d trading dates\n", len(tickers), len(dates))
		if len(dates) > 0 {
			fmt.Printf("   Range: %s .. %s\n",
				dates[0].Format("2006-01-02"), dates[len(dates)-1].Format("2006-01-02"))
		}
		for i, symbol := range tickers {
			bars, _ := d.Bars(symbol)
			fmt.Printf("   %-14s %-32s %5d bars\n", symbol, names[i], len(bars))
		}

		noSave, _ := cmd.Flags().GetBool("no-save")
		if !noSave {
			fmt.Printf("✅ Saved to %s\n", cfg.Data.SaveDir)
		}
		return nil
	},
}

func init() {
	fetchCmd.Flags().String("index", "", "fetch all constituents of an index (e.g. OMXS30)")
	fetchCmd.Flags().String("names", "", "comma-separated instrument names matching the symbols")
	fetchCmd.Flags().String("period", "1y", "history period (5d, 2wk, 3mo, 1y, ytd, max)")
	fetchCmd.Flags().Bool("no-save", false, "do not persist the fetched dataset")
	fetchCmd.Flags().Bool("local", false, "load a previously saved dataset instead of fetching")
}

// --- Stats Command ---

var statsCmd = &cobra.Command{
	Use:   "stats [symbols...]",
	Short: "Show per-asset and portfolio statistics",
	Long: `Compute per-asset mean period return, annualized volatility and
skewness. With --weights (or --equal), portfolio-level expected return,
volatility and Sharpe ratio are reported as well.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := materializeDataset(cmd, args)
		if err != nil {
			return err
		}
		p, err := newPortfolio(d)
		if err != nil {
			return err
		}

		horizon, _ := cmd.Flags().GetInt("horizon")
		tradingDays := float64(cfg.Portfolio.TradingDays)

		fmt.Printf("📊 Asset statistics (period %d, %d trading days)\n", horizon, cfg.Portfolio.TradingDays)
		fmt.Printf("   %-14s %-28s %12s %12s %10s\n", "SYMBOL", "NAME", "MEAN RET", "VOLATILITY", "SKEWNESS")

		tickers := p.Tickers()
		names := p.InstrumentNames()
		for i, a := range p.AsAssets() {
			mean, err := a.PeriodReturnsMean(horizon)
			if err != nil {
				return fmt.Errorf("mean returns %s: %w", tickers[i], err)
			}
			vol, err := a.Volatility(horizon, tradingDays)
			if err != nil {
				return fmt.Errorf("volatility %s: %w", tickers[i], err)
			}
			skew, err := a.Skewness()
			if err != nil {
				return fmt.Errorf("skewness %s: %w", tickers[i], err)
			}
			fmt.Printf("   %-14s %-28s %12s %12s %10.3f\n",
				tickers[i], truncate(names[i], 28), utils.FormatPercent(mean), utils.FormatPercent(vol), skew)
		}

		weights, err := portfolioWeights(cmd, len(p.Tickers()))
		if err != nil {
			return err
		}
		if weights == nil {
			return nil
		}
		if err := p.SetWeights(weights); err != nil {
			return err
		}
		return printPortfolioStats(p, horizon)
	},
}

func init() {
	statsCmd.Flags().String("index", "", "use all constituents of an index (e.g. OMXS30)")
	statsCmd.Flags().String("names", "", "comma-separated instrument names matching the symbols")
	statsCmd.Flags().String("period", "1y", "history period (5d, 2wk, 3mo, 1y, ytd, max)")
	statsCmd.Flags().Bool("local", false, "load a previously saved dataset instead of fetching")
	statsCmd.Flags().Int("horizon", 1, "return horizon in trading days")
	statsCmd.Flags().String("weights", "", "comma-separated portfolio weights (must sum to 1)")
	statsCmd.Flags().Bool("equal", false, "use equal weights for the portfolio statistics")
}

// --- Optimize Command ---

var optimizeCmd = &cobra.Command{
	Use:   "optimize [symbols...]",
	Short: "Optimize portfolio weights by mean-variance minimization",
	Long: `Draw initial weights from the configured distribution, minimize the
mean-variance objective subject to sum-to-one and non-negativity
constraints, and report the renormalized weights with the resulting
portfolio statistics.

Examples:
  optifolio optimize --index OMXS30 --period 2y
  optifolio optimize ERIC-B.ST VOLV-B.ST --method bfgs --seed 42
  optifolio optimize --index OMXS30 --samples 10000 --mv-chart frontier.png`,
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := materializeDataset(cmd, args)
		if err != nil {
			return err
		}
		p, err := newPortfolio(d)
		if err != nil {
			return err
		}

		horizon, _ := cmd.Flags().GetInt("horizon")
		method, _ := cmd.Flags().GetString("method")
		if method == "" {
			method = cfg.Optimizer.Method
		}
		seed, _ := cmd.Flags().GetUint64("seed")
		if seed == 0 {
			seed = cfg.Optimizer.Seed
		}

		solve := portfolio.SolveOptions{
			Method:        method,
			Period:        horizon,
			InitDist:      portfolio.Distribution(cfg.Optimizer.Distribution),
			Seed:          seed,
			MaxIterations: cfg.Optimizer.MaxIterations,
			PenaltyWeight: cfg.Optimizer.PenaltyWeight,
		}

		result, err := p.Optimize(solve)
		if err != nil {
			return fmt.Errorf("optimize: %w", err)
		}

		fmt.Printf("⚖️  Optimized weights (%s, %d iterations, %s)\n",
			method, result.Iterations, result.Status)
		names := p.InstrumentNames()
		for i, symbol := range p.Tickers() {
			fmt.Printf("   %-14s %-28s %10s\n",
				symbol, truncate(names[i], 28), utils.FormatPercent(result.Weights[i]))
		}
		if err := printPortfolioStats(p, horizon); err != nil {
			return err
		}

		if path, _ := cmd.Flags().GetString("mv-chart"); path != "" {
			samples, _ := cmd.Flags().GetInt("samples")
			if err := renderFrontier(p, result, horizon, samples, seed, path); err != nil {
				return err
			}
		}
		if path, _ := cmd.Flags().GetString("alloc-chart"); path != "" {
			png, err := chart.RenderAllocation(p.Tickers(), result.Weights, "Portfolio Allocation")
			if err != nil {
				return fmt.Errorf("render allocation: %w", err)
			}
			if err := writePNG(path, png); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	optimizeCmd.Flags().String("index", "", "use all constituents of an index (e.g. OMXS30)")
	optimizeCmd.Flags().String("names", "", "comma-separated instrument names matching the symbols")
	optimizeCmd.Flags().String("period", "1y", "history period (5d, 2wk, 3mo, 1y, ytd, max)")
	optimizeCmd.Flags().Bool("local", false, "load a previously saved dataset instead of fetching")
	optimizeCmd.Flags().Int("horizon", 1, "return horizon in trading days")
	optimizeCmd.Flags().String("method", "", "solver method (nelder-mead, bfgs, l-bfgs, cg, gradient-descent, newton)")
	optimizeCmd.Flags().Uint64("seed", 0, "random seed for the initial weight draw (0 = non-deterministic)")
	optimizeCmd.Flags().Int("samples", 3000, "random portfolios to sample for the mean-variance chart")
	optimizeCmd.Flags().String("mv-chart", "", "write a mean-variance frontier PNG to this path")
	optimizeCmd.Flags().String("alloc-chart", "", "write an allocation pie PNG to this path")
}

// --- Chart Command ---

var chartCmd = &cobra.Command{
	Use:   "chart [symbols...]",
	Short: "Render a price history chart",
	RunE: func(cmd *cobra.Command, args []string) error {
		d, err := materializeDataset(cmd, args)
		if err != nil {
			return err
		}

		pt, err := priceType()
		if err != nil {
			return err
		}
		title, _ := cmd.Flags().GetString("title")
		png, err := chart.RenderPriceHistory(d, pt, title)
		if err != nil {
			return fmt.Errorf("render price history: %w", err)
		}

		out, _ := cmd.Flags().GetString("out")
		return writePNG(out, png)
	},
}

func init() {
	chartCmd.Flags().String("index", "", "use all constituents of an index (e.g. OMXS30)")
	chartCmd.Flags().String("names", "", "comma-separated instrument names matching the symbols")
	chartCmd.Flags().String("period", "1y", "history period (5d, 2wk, 3mo, 1y, ytd, max)")
	chartCmd.Flags().Bool("local", false, "load a previously saved dataset instead of fetching")
	chartCmd.Flags().String("out", "prices.png", "output PNG path")
	chartCmd.Flags().String("title", "Price History", "chart title")
}

// --- News Command ---

var newsCmd = &cobra.Command{
	Use:   "news [symbol]",
	Short: "Show recent headlines for an instrument",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setupProviders(); err != nil {
			return err
		}

		symbol := strings.ToUpper(strings.TrimSpace(args[0]))
		limit, _ := cmd.Flags().GetInt("limit")

		result, err := provider.Global().FetchWithFallback(cmd.Context(), provider.ModelCompanyNews, provider.QueryParams{
			provider.ParamSymbol: symbol,
			provider.ParamLimit:  strconv.Itoa(limit),
		})
		if err != nil {
			return fmt.Errorf("fetch news: %w", err)
		}
		articles, ok := result.Data.([]models.NewsArticle)
		if !ok {
			return fmt.Errorf("unexpected news data type %T", result.Data)
		}
		if len(articles) == 0 {
			fmt.Printf("📰 No recent headlines for %s\n", symbol)
			return nil
		}

		fmt.Printf("📰 %s — %d headlines (via %s)\n", symbol, len(articles), result.Provider)
		for _, a := range articles {
			fmt.Printf("   %s  %-18s %s\n", a.PublishedAt.Format("2006-01-02"), truncate(a.Source, 18), a.Title)
			if a.URL != "" {
				fmt.Printf("   %32s%s\n", "", a.URL)
			}
		}
		return nil
	},
}

func init() {
	newsCmd.Flags().Int("limit", 10, "maximum number of headlines")
}

// --- Status Command ---

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show system status and configuration",
	RunE: func(cmd *cobra.Command, args []string) error {
		if err := setupProviders(); err != nil {
			return err
		}

		fmt.Println("═══════════════════════════════════════")
		fmt.Println("  OptiFolio — System Status")
		fmt.Println("═══════════════════════════════════════")
		fmt.Printf("  Version:       %s (%s)\n", version, commit)
		fmt.Printf("  Data dir:      %s\n", cfg.Data.SaveDir)
		fmt.Printf("  HTTP cache:    %s\n", cfg.Fetch.HTTPCachePath)
		fmt.Printf("  Risk-free:     %s\n", utils.FormatPercent(cfg.Portfolio.RiskFreeRate))
		fmt.Printf("  Trading days:  %d\n", cfg.Portfolio.TradingDays)
		fmt.Printf("  Solver:        %s (%s init)\n", cfg.Optimizer.Method, cfg.Optimizer.Distribution)
		fmt.Println()

		fmt.Println("  Providers:")
		reg := provider.Global()
		var creds []config.CredentialStatus
		for _, info := range reg.List() {
			modelNames := make([]string, len(info.Models))
			for i, m := range info.Models {
				modelNames[i] = string(m)
			}
			sort.Strings(modelNames)
			fmt.Printf("    %-12s %s\n", info.Name, strings.Join(modelNames, ", "))
			for _, c := range info.Credentials {
				creds = append(creds, config.CheckEnvCredential(info.Name, c.Name, c.EnvVar))
			}
		}

		// Keyed providers that are currently absent still list their
		// credentials, so the operator can see what enabling them takes.
		if _, err := reg.Get("fmp"); err != nil {
			creds = append(creds, config.CheckEnvCredential("fmp", fmp.CredAPIKey, fmp.EnvAPIKey))
		}

		fmt.Println()
		fmt.Println("  Credentials:")
		for _, c := range creds {
			status := "❌ not set"
			if c.IsSet {
				status = fmt.Sprintf("✅ set (%s)", c.Masked)
			}
			fmt.Printf("    %-12s %s (%s): %s\n", c.Provider, c.Name, c.EnvVar, status)
		}

		fmt.Println("═══════════════════════════════════════")
		return nil
	},
}

// --- Helpers ---

// setupProviders builds the persistent HTTP cache and registers every
// available provider with the global registry. A cache that fails to
// open only disables caching.
func setupProviders() error {
	var hc *infra.HTTPCache
	if cfg.Fetch.HTTPCachePath != "" {
		ttl, err := time.ParseDuration(cfg.Fetch.HTTPCacheTTL)
		if err != nil {
			ttl = 24 * time.Hour
		}
		hc, err = infra.NewHTTPCache(cfg.Fetch.HTTPCachePath, ttl)
		if err != nil {
			log.Warn().Err(err).Str("path", cfg.Fetch.HTTPCachePath).Msg("http cache unavailable")
			hc = nil
		}
	}

	if err := providers.RegisterAll(providers.Options{HTTPCache: hc}); err != nil {
		return fmt.Errorf("register providers: %w", err)
	}
	provider.Global().SetLogger(logging.Component(log, "registry"))
	return nil
}

// materializeDataset builds a dataset from the command flags and either
// loads it from local CSVs (--local) or fetches it through the registry.
func materializeDataset(cmd *cobra.Command, args []string) (*dataset.Dataset, error) {
	local, _ := cmd.Flags().GetBool("local")
	if !local {
		if err := setupProviders(); err != nil {
			return nil, err
		}
	}

	d, err := buildDataset(cmd, args)
	if err != nil {
		return nil, err
	}

	if local {
		if err := d.LoadLocal(); err != nil {
			return nil, err
		}
		d.ReconcileMissing()
		if err := d.VerifyAligned(); err != nil {
			return nil, err
		}
		return d, nil
	}

	period, _ := cmd.Flags().GetString("period")
	if err := d.Run(cmd.Context(), period); err != nil {
		return nil, err
	}
	return d, nil
}

// buildDataset constructs the dataset from --index or positional symbols.
func buildDataset(cmd *cobra.Command, args []string) (*dataset.Dataset, error) {
	index, _ := cmd.Flags().GetString("index")
	local, _ := cmd.Flags().GetBool("local")
	opts := datasetOptions(cmd)

	if index != "" {
		if strings.EqualFold(index, "OMXS30") && local {
			return dataset.OMXS30(opts...)
		}
		if local {
			return nil, fmt.Errorf("--local needs explicit symbols for index %s", index)
		}
		d, err := dataset.FromIndex(cmd.Context(), index, opts...)
		if err != nil && strings.EqualFold(index, "OMXS30") {
			log.Warn().Err(err).Msg("live constituents unavailable, using static OMXS30 snapshot")
			return dataset.OMXS30(opts...)
		}
		return d, err
	}

	if len(args) == 0 {
		return nil, fmt.Errorf("provide instrument symbols or --index")
	}
	symbols := make([]string, len(args))
	for i, a := range args {
		symbols[i] = strings.ToUpper(strings.TrimSpace(a))
	}

	names := symbols
	if namesFlag, _ := cmd.Flags().GetString("names"); namesFlag != "" {
		names = splitList(namesFlag)
	}
	return dataset.New(names, symbols, opts...)
}

// datasetOptions maps the loaded config onto dataset options.
func datasetOptions(cmd *cobra.Command) []dataset.Option {
	opts := []dataset.Option{
		dataset.WithLogger(logging.Component(log, "dataset")),
		dataset.WithConcurrency(cfg.Fetch.Concurrency),
	}
	if sep := cfg.Data.Separator; sep != "" {
		opts = append(opts, dataset.WithSeparator(rune(sep[0])))
	}
	noSave, _ := cmd.Flags().GetBool("no-save")
	if !noSave && cfg.Data.SaveDir != "" {
		opts = append(opts, dataset.WithSaveDir(cfg.Data.SaveDir))
	}
	return opts
}

// newPortfolio wraps the dataset in a portfolio configured from the
// loaded settings.
func newPortfolio(d *dataset.Dataset) (*portfolio.Portfolio, error) {
	pt, err := priceType()
	if err != nil {
		return nil, err
	}
	return portfolio.FromSource(d,
		portfolio.WithPriceType(pt),
		portfolio.WithRiskFreeRate(cfg.Portfolio.RiskFreeRate),
		portfolio.WithConfidenceLevel(cfg.Portfolio.ConfidenceLevel),
		portfolio.WithTradingDays(float64(cfg.Portfolio.TradingDays)),
		portfolio.WithLogger(logging.Component(log, "portfolio")),
	)
}

func priceType() (models.PriceType, error) {
	pt := models.PriceType(strings.ToLower(cfg.Portfolio.PriceType))
	if !pt.Valid() {
		return "", fmt.Errorf("invalid price type %q in config", cfg.Portfolio.PriceType)
	}
	return pt, nil
}

// portfolioWeights resolves --weights/--equal into a weight vector, or
// nil when neither flag is set.
func portfolioWeights(cmd *cobra.Command, n int) ([]float64, error) {
	if equal, _ := cmd.Flags().GetBool("equal"); equal {
		w := make([]float64, n)
		for i := range w {
			w[i] = 1.0 / float64(n)
		}
		return w, nil
	}

	raw, _ := cmd.Flags().GetString("weights")
	if raw == "" {
		return nil, nil
	}
	parts := splitList(raw)
	w := make([]float64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseFloat(p, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid weight %q: %w", p, err)
		}
		w[i] = v
	}
	return w, nil
}

func printPortfolioStats(p *portfolio.Portfolio, horizon int) error {
	expected, err := p.ExpectedReturn(horizon)
	if err != nil {
		return err
	}
	vol, err := p.Volatility(horizon)
	if err != nil {
		return err
	}
	sharpe, err := p.SharpeRatio(horizon)
	if err != nil {
		return err
	}

	fmt.Println()
	fmt.Printf("   Expected return: %s (per period)\n", utils.FormatPercent(expected))
	fmt.Printf("   Volatility:      %s (annualized)\n", utils.FormatPercent(vol))
	fmt.Printf("   Sharpe ratio:    %.3f\n", sharpe)
	return nil
}

// renderFrontier samples random portfolios, appends the optimized point
// and writes the mean-variance chart.
func renderFrontier(p *portfolio.Portfolio, result *portfolio.Result, horizon, samples int, seed uint64, path string) error {
	points, err := p.SamplePortfolios(samples, horizon, portfolio.Distribution(cfg.Optimizer.Distribution), seed)
	if err != nil {
		return fmt.Errorf("sample portfolios: %w", err)
	}

	expected, err := p.ExpectedReturn(horizon)
	if err != nil {
		return err
	}
	vol, err := p.Volatility(horizon)
	if err != nil {
		return err
	}
	sharpe, err := p.SharpeRatio(horizon)
	if err != nil {
		return err
	}
	points = append(points, portfolio.PortfolioPoint{
		Weights:        result.Weights,
		ExpectedReturn: expected,
		Volatility:     vol,
		Sharpe:         sharpe,
	})

	png, err := chart.RenderMeanVariance(points, "Mean-Variance Frontier")
	if err != nil {
		return fmt.Errorf("render mean-variance: %w", err)
	}
	return writePNG(path, png)
}

func writePNG(path string, data []byte) error {
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	fmt.Printf("✅ Wrote %s\n", path)
	return nil
}

// splitList splits a comma-separated flag value, trimming whitespace.
func splitList(s string) []string {
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			out = append(out, t)
		}
	}
	return out
}

// truncate shortens a string for fixed-width table output.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	if n <= 3 {
		return s[:n]
	}
	return s[:n-3] + "..."
}
