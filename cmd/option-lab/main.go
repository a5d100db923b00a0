package main

import (
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/contactkeval/option-lab/internal/config"
	"github.com/contactkeval/option-lab/internal/data"
	"github.com/contactkeval/option-lab/internal/logger"
	"github.com/contactkeval/option-lab/internal/pricing"
	"github.com/contactkeval/option-lab/internal/report"
	"github.com/contactkeval/option-lab/internal/server"
	"github.com/contactkeval/option-lab/internal/sweep"
)

var (
	cfg     *config.Config
	cfgPath string

	// shared option parameter flags
	flagSpot   float64
	flagStrike float64
	flagRate   float64
	flagSigma  float64
	flagExpiry float64
	flagType   string
)

func main() {
	root := &cobra.Command{
		Use:   "option-lab",
		Short: "Black-Scholes option pricing, greeks, implied vol and sweep datasets",
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			// .env is optional; real config comes from the YAML file
			// and environment overrides.
			_ = godotenv.Load()

			var err error
			cfg, err = config.Load(cfgPath)
			if err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return err
			}
			logger.SetVerbosity(cfg.Verbosity)
			return nil
		},
		SilenceUsage: true,
	}
	root.PersistentFlags().StringVar(&cfgPath, "config", "config.yaml", "path to YAML config")

	root.AddCommand(newPriceCmd(), newIVCmd(), newSweepCmd(), newServeCmd())

	if err := root.Execute(); err != nil {
		logger.Errorf("%v", err)
		os.Exit(1)
	}
}

func addParamFlags(cmd *cobra.Command) {
	cmd.Flags().Float64VarP(&flagSpot, "spot", "S", 100, "underlying price")
	cmd.Flags().Float64VarP(&flagStrike, "strike", "K", 100, "strike price")
	cmd.Flags().Float64VarP(&flagRate, "rate", "r", 0.05, "risk-free rate")
	cmd.Flags().Float64Var(&flagSigma, "sigma", 0.2, "volatility")
	cmd.Flags().Float64VarP(&flagExpiry, "time", "t", 1, "time to expiry in years")
	cmd.Flags().StringVar(&flagType, "type", "call", "option type: call or put")
}

func paramsFromFlags(cmd *cobra.Command) (pricing.Params, error) {
	// The config supplies the rate default; the flag wins when set.
	if !cmd.Flags().Changed("rate") {
		flagRate = cfg.Defaults.Rate
	}
	typ, err := pricing.ParseOptionType(flagType)
	if err != nil {
		return pricing.Params{}, err
	}
	return pricing.Params{
		S: flagSpot, K: flagStrike, R: flagRate,
		Sigma: flagSigma, T: flagExpiry, Type: typ,
	}, nil
}

// newProvider selects the quote provider the way the config dictates:
// live Massive data when an API key is present, synthetic flat-vol
// quotes otherwise.
func newProvider() data.Provider {
	synth := data.NewSyntheticProvider(cfg.Synthetic.Spot, cfg.Synthetic.FlatVol, cfg.Synthetic.Rate)
	if cfg.DataSource.APIKey != "" {
		logger.Infof("massive provider enabled")
		return data.NewMassiveDataProvider(cfg.DataSource.APIKey, cfg.DataSource.BaseURL, synth)
	}
	logger.Infof("synthetic provider enabled")
	return synth
}

func newPriceCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "price",
		Short: "Evaluate the option value and all greeks",
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := paramsFromFlags(cmd)
			if err != nil {
				return err
			}
			g, err := pricing.EvaluateAll(p)
			if err != nil {
				return err
			}
			fmt.Printf("value: %10.4f\n", g.Value)
			fmt.Printf("delta: %10.4f\n", g.Delta)
			fmt.Printf("gamma: %10.4f\n", g.Gamma)
			fmt.Printf("vega:  %10.4f\n", g.Vega)
			fmt.Printf("theta: %10.4f\n", g.Theta)
			fmt.Printf("rho:   %10.4f\n", g.Rho)
			return nil
		},
	}
	addParamFlags(cmd)
	return cmd
}

func newIVCmd() *cobra.Command {
	var (
		marketPrice float64
		underlying  string
		expiryDate  string
	)

	cmd := &cobra.Command{
		Use:   "iv",
		Short: "Solve for the implied volatility of a market price",
		Long: `Solve for the volatility that reproduces an observed option price.

The price comes from --price, or from the market data provider when
--underlying and --expiry are given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if !cmd.Flags().Changed("rate") {
				flagRate = cfg.Defaults.Rate
			}
			t := flagExpiry
			typ, err := pricing.ParseOptionType(flagType)
			if err != nil {
				return err
			}

			if underlying != "" {
				prov := newProvider()
				expiry, err := time.Parse("2006-01-02", expiryDate)
				if err != nil {
					return fmt.Errorf("invalid --expiry: %w", err)
				}
				if !cmd.Flags().Changed("spot") {
					if flagSpot, err = prov.GetSpotPrice(underlying); err != nil {
						return err
					}
				}
				if marketPrice, err = prov.GetOptionPrice(underlying, flagStrike, expiry, typ); err != nil {
					return err
				}
				t = data.YearsToExpiry(expiry, time.Now())
				logger.Infof("quote %s K=%.2f exp=%s: %.4f (spot %.2f)",
					underlying, flagStrike, expiryDate, marketPrice, flagSpot)
			}

			iv, err := pricing.ImpliedVolatility(flagSpot, flagStrike, flagRate, t, marketPrice, typ)
			if err != nil {
				return err
			}
			fmt.Printf("implied vol: %.6f\n", iv)
			return nil
		},
	}
	addParamFlags(cmd)
	cmd.Flags().Float64Var(&marketPrice, "price", 0, "observed market price of the option")
	cmd.Flags().StringVar(&underlying, "underlying", "", "fetch the market price for this ticker instead of --price")
	cmd.Flags().StringVar(&expiryDate, "expiry", "", "option expiry (YYYY-MM-DD), required with --underlying")
	return cmd
}

func newSweepCmd() *cobra.Command {
	var (
		variable string
		start    float64
		stop     float64
		n        int
		output   string
		expr     string
		name     string
		table    bool
	)

	cmd := &cobra.Command{
		Use:   "sweep",
		Short: "Generate a dataset varying one input over a range",
		Example: `  option-lab sweep --variable sigma --start 0.01 --stop 1 -n 1000 --output value
  option-lab sweep --variable S --start 50 --stop 150 --expr "vega / gamma" --table`,
		RunE: func(cmd *cobra.Command, args []string) error {
			base, err := paramsFromFlags(cmd)
			if err != nil {
				return err
			}
			v, err := sweep.ParseVariable(variable)
			if err != nil {
				return err
			}
			if n == 0 {
				n = cfg.Defaults.Samples
			}

			started := time.Now()
			ds, err := sweep.Run(sweep.Spec{
				Base:       base,
				Variable:   v,
				Start:      start,
				Stop:       stop,
				N:          n,
				Output:     pricing.Greek(output),
				Expression: expr,
			})
			if err != nil {
				return err
			}

			if err := os.MkdirAll(cfg.OutputDir, 0755); err != nil {
				return err
			}
			if err := report.WriteCSV(ds, cfg.OutputDir, name); err != nil {
				return err
			}
			if err := report.WriteJSON(ds, cfg.OutputDir, name); err != nil {
				return err
			}

			if table {
				report.RenderTable(ds, os.Stdout)
			}
			if summary, err := report.Summarize(ds); err == nil {
				fmt.Printf("%s over %s: %d points (%d undefined) min=%.4f max=%.4f mean=%.4f\n",
					ds.YLabel, ds.XLabel, len(ds.Points), summary.Undefined, summary.Min, summary.Max, summary.Mean)
			}
			logger.Infof("finished in %v, wrote %s.{csv,json} to %s", time.Since(started), name, cfg.OutputDir)
			return nil
		},
	}
	addParamFlags(cmd)
	cmd.Flags().StringVar(&variable, "variable", "sigma", "input to vary: S, K, r, sigma or t")
	cmd.Flags().Float64Var(&start, "start", 0.01, "range start (inclusive)")
	cmd.Flags().Float64Var(&stop, "stop", 1.0, "range stop (inclusive)")
	cmd.Flags().IntVarP(&n, "samples", "n", 0, "sample count (default from config)")
	cmd.Flags().StringVar(&output, "output", "value", "dependent quantity: value, delta, gamma, vega, theta or rho")
	cmd.Flags().StringVar(&expr, "expr", "", "derived output expression, e.g. \"vega / gamma\"")
	cmd.Flags().StringVar(&name, "name", "sweep", "output file base name")
	cmd.Flags().BoolVar(&table, "table", false, "print the dataset as a table")
	return cmd
}

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the pricing API over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = cfg.Server.Addr
			}
			return server.New(newProvider()).ListenAndServe(addr)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (default from config)")
	return cmd
}
