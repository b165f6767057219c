// stockvalue values a stock with a discounted cash flow model and a
// risk-profile recommendation, from the command line or a web page.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/ZachStewart21/ZachStewartProjects/api"
	"github.com/ZachStewart21/ZachStewartProjects/internal/analysis"
	"github.com/ZachStewart21/ZachStewartProjects/internal/analysis/fundamental"
	"github.com/ZachStewart21/ZachStewartProjects/internal/analysis/recommendation"
	"github.com/ZachStewart21/ZachStewartProjects/internal/analysis/sentiment"
	"github.com/ZachStewart21/ZachStewartProjects/internal/config"
	"github.com/ZachStewart21/ZachStewartProjects/internal/datasource"
	"github.com/ZachStewart21/ZachStewartProjects/internal/logger"
	"github.com/ZachStewart21/ZachStewartProjects/internal/report"
	"github.com/ZachStewart21/ZachStewartProjects/pkg/models"
	"github.com/ZachStewart21/ZachStewartProjects/pkg/utils"
)

// Build-time variables (set via -ldflags).
var (
	version = "dev"
	commit  = "unknown"
	date    = "unknown"
)

var (
	cfg *config.Config
	log zerolog.Logger
)

// newFetcher builds the market-data source. Tests swap it for a stub.
var newFetcher = func(cfg *config.Config, log zerolog.Logger) datasource.Fetcher {
	return datasource.NewDefaultAggregator(cfg, log)
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "stockvalue",
		Short: "Stock valuation and buy/hold/sell recommendations",
		Long: `stockvalue fetches fundamentals and price history for a ticker, estimates
a fair value with a discounted cash flow model and classifies the stock as
BUY, HOLD or SELL under a risk-tolerance strategy.`,
		SilenceUsage: true,
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
			if lvl, _ := cmd.Flags().GetString("log-level"); lvl != "" {
				cfg.Logging.Level = lvl
			}
			log, err = logger.New(cfg.Logging, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			return nil
		},
	}

	root.PersistentFlags().String("config", "", "config file path (default: ./config/config.yaml)")
	root.PersistentFlags().String("log-level", "", "log level override (debug, info, warn, error)")

	root.AddCommand(newVersionCmd())
	root.AddCommand(newServeCmd())
	root.AddCommand(newEvaluateCmd())
	root.AddCommand(newStrategiesCmd())
	root.AddCommand(newStatusCmd())
	return root
}

// --- Version Command ---

func newVersionCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "stockvalue %s\n", version)
			fmt.Fprintf(out, "  commit:  %s\n", commit)
			fmt.Fprintf(out, "  built:   %s\n", date)
		},
	}
}

// --- Serve Command ---

func newServeCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the web page and JSON API",
		RunE: func(cmd *cobra.Command, args []string) error {
			if port, _ := cmd.Flags().GetInt("port"); port > 0 {
				cfg.Server.Port = port
			}
			if debug, _ := cmd.Flags().GetBool("debug"); debug {
				log = log.Level(zerolog.DebugLevel)
			}

			srv := api.NewServer(api.Options{
				Config:  cfg,
				Fetcher: newFetcher(cfg, log),
				Logger:  log,
				Version: version,
			})
			return srv.ListenAndServe()
		},
	}
	cmd.Flags().Int("port", 0, "listen port (overrides server.port)")
	cmd.Flags().Bool("debug", false, "enable debug logging")
	return cmd
}

// --- Evaluate Command ---

// evaluation is the machine-readable output of the evaluate command.
type evaluation struct {
	Report    models.ValuationReport   `json:"report"              yaml:"report"`
	Headlines []models.NewsArticle     `json:"headlines"           yaml:"headlines"`
	Sentiment models.HeadlineSentiment `json:"sentiment"           yaml:"sentiment"`
	Warnings  []string                 `json:"warnings,omitempty"  yaml:"warnings,omitempty"`
}

// maxYears matches the API's limit on the DCF projection horizon.
const maxYears = 50

func newEvaluateCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "evaluate [ticker]",
		Short: "Value a stock and print a recommendation",
		Long: `Fetch market data for a ticker, compute its DCF fair value and classify it.

Examples:
  stockvalue evaluate AAPL
  stockvalue evaluate msft --strategy risk_averse --windows 50,200
  stockvalue evaluate NVDA --format json --chart nvda.png`,
		Args: cobra.ExactArgs(1),
		RunE: runEvaluate,
	}
	cmd.Flags().String("strategy", "", "risk strategy: risk_averse, moderate or high_risk")
	cmd.Flags().Float64("discount-rate", 0, "DCF discount rate (default from config)")
	cmd.Flags().Int("years", 0, "DCF projection years (default from config)")
	cmd.Flags().String("windows", "", "comma-separated moving-average windows (default from config)")
	cmd.Flags().String("format", "text", "output format: text, json or yaml")
	cmd.Flags().String("chart", "", "write a price chart to this .png or .svg file")
	cmd.Flags().Duration("timeout", 30*time.Second, "overall fetch timeout")
	return cmd
}

func runEvaluate(cmd *cobra.Command, args []string) error {
	ticker := utils.NormalizeTicker(args[0])
	if !utils.IsValidTicker(ticker) {
		return fmt.Errorf("invalid ticker symbol %q", args[0])
	}

	strategy, _ := cmd.Flags().GetString("strategy")
	if strategy == "" {
		strategy = cfg.Valuation.DefaultStrategy
	}
	if !recommendation.IsKnownStrategy(strategy) {
		log.Warn().Str("strategy", strategy).Msg("unknown strategy, using moderate")
	}
	params := fundamental.DCFParams{DiscountRate: cfg.Valuation.DiscountRate, Years: cfg.Valuation.Years}
	if cmd.Flags().Changed("discount-rate") {
		v, _ := cmd.Flags().GetFloat64("discount-rate")
		if !(v > 0 && v < 1) {
			return fmt.Errorf("--discount-rate must be in (0, 1), got %g", v)
		}
		params.DiscountRate = v
	}
	if cmd.Flags().Changed("years") {
		v, _ := cmd.Flags().GetInt("years")
		if v < 1 || v > maxYears {
			return fmt.Errorf("--years must be between 1 and %d, got %d", maxYears, v)
		}
		params.Years = v
	}
	windows := cfg.Valuation.MAWindows
	if raw, _ := cmd.Flags().GetString("windows"); raw != "" {
		w, err := parseWindows(raw)
		if err != nil {
			return err
		}
		windows = w
	}
	format, _ := cmd.Flags().GetString("format")
	format = strings.ToLower(format)
	if format != "text" && format != "json" && format != "yaml" {
		return fmt.Errorf("unknown format %q (want text, json or yaml)", format)
	}

	timeout, _ := cmd.Flags().GetDuration("timeout")
	ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
	defer cancel()

	snap, err := newFetcher(cfg, log).Fetch(ctx, ticker)
	if err != nil {
		return fmt.Errorf("fetch %s: %w", ticker, err)
	}
	for _, w := range snap.Warnings {
		log.Warn().Str("ticker", ticker).Msg(w)
	}
	if snap.Unavailable() {
		return errors.New(report.UnavailableMessage)
	}

	rep, err := analysis.Run(ticker, snap.Payload, snap.Bars, strategy, analysis.EvaluateOptions{
		DCF:     params,
		Windows: windows,
	})
	if err != nil {
		return err
	}
	tone := sentiment.Summarize(snap.Headlines, time.Now())

	if path, _ := cmd.Flags().GetString("chart"); path != "" {
		if err := writeChart(path, ticker, rep); err != nil {
			return err
		}
		log.Info().Str("path", path).Msg("chart written")
	}

	out := cmd.OutOrStdout()
	switch format {
	case "json":
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(evaluation{Report: rep, Headlines: snap.Headlines, Sentiment: tone, Warnings: snap.Warnings})
	case "yaml":
		enc := yaml.NewEncoder(out)
		defer enc.Close()
		return enc.Encode(evaluation{Report: rep, Headlines: snap.Headlines, Sentiment: tone, Warnings: snap.Warnings})
	default:
		_, err := io.WriteString(out, report.GenerateText(report.Input{
			Report:    rep,
			Headlines: snap.Headlines,
			Sentiment: &tone,
			Warnings:  snap.Warnings,
		}))
		return err
	}
}

// writeChart renders the price chart in the format implied by path's
// extension.
func writeChart(path, ticker string, rep models.ValuationReport) error {
	chartCfg := report.DefaultChartConfig()
	if strings.EqualFold(filepath.Ext(path), ".svg") {
		chartCfg.Format = report.ChartSVG
	}
	img, err := report.RenderChart(ticker, rep.Prices, rep.MovingAverages, chartCfg)
	if err != nil {
		return fmt.Errorf("render chart: %w", err)
	}
	if err := os.WriteFile(path, img, 0o644); err != nil {
		return fmt.Errorf("write chart: %w", err)
	}
	return nil
}

// parseWindows parses "50,200" into moving-average windows.
func parseWindows(raw string) ([]int, error) {
	var out []int
	for _, p := range strings.Split(raw, ",") {
		w, err := strconv.Atoi(strings.TrimSpace(p))
		if err != nil || w < 1 {
			return nil, fmt.Errorf("invalid moving-average window %q", p)
		}
		out = append(out, w)
	}
	return out, nil
}

// --- Strategies Command ---

func newStrategiesCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "strategies",
		Short: "List the risk strategies and their thresholds",
		Run: func(cmd *cobra.Command, args []string) {
			out := cmd.OutOrStdout()
			def := recommendation.ResolveStrategy(cfg.Valuation.DefaultStrategy).Name
			fmt.Fprintf(out, "  %-12s %6s %8s  %s\n", "STRATEGY", "BETA", "SHORT", "DESCRIPTION")
			for _, p := range recommendation.Strategies() {
				marker := " "
				if p.Name == def {
					marker = "*"
				}
				fmt.Fprintf(out, "%s %-12s %6.2f %7.0f%%  %s\n",
					marker, p.Name, p.BetaThreshold, p.ShortInterestThreshold*100, p.Description)
			}
		},
	}
}

// --- Status Command ---

func newStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show market status and effective configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			out := cmd.OutOrStdout()
			fmt.Fprintln(out, "═══════════════════════════════════════")
			fmt.Fprintln(out, "  stockvalue — Status")
			fmt.Fprintln(out, "═══════════════════════════════════════")
			fmt.Fprintf(out, "  Version:       %s (%s)\n", version, commit)
			fmt.Fprintf(out, "  Market Status: %s\n", utils.MarketStatus())
			fmt.Fprintf(out, "  Time (ET):     %s\n", utils.FormatDateTimeET(time.Now()))
			fmt.Fprintln(out)

			fmt.Fprintln(out, "  Settings:")
			for _, s := range config.Settings(cfg) {
				fmt.Fprintf(out, "    %-28s %-24s (%s)\n", s.Key+":", s.Value, s.Source)
			}
			fmt.Fprintln(out, "═══════════════════════════════════════")
			return nil
		},
	}
}
