package main

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"market-signal-go/config"
	"market-signal-go/infrastructure/logger"
	"market-signal-go/infrastructure/monitor"
	"market-signal-go/market"
	"market-signal-go/sim"
	"market-signal-go/strategy"
)

func newRootCmd(ctx context.Context) *cobra.Command {
	root := &cobra.Command{
		Use:           "signal",
		Short:         "Order-book imbalance and trade volatility decision engine",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	var configPath string
	root.PersistentFlags().StringVar(&configPath, "config", "", "YAML config file")

	root.AddCommand(evalCmd(ctx, &configPath))
	root.AddCommand(runCmd(ctx, &configPath))
	return root
}

func evalCmd(ctx context.Context, configPath *string) *cobra.Command {
	var (
		fixtures  string
		threshold float64
		tieBreak  string
		logLevel  string
	)
	cmd := &cobra.Command{
		Use:   "eval",
		Short: "Evaluate every instrument in a fixture file once",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := config.Default()
			if *configPath != "" {
				loaded, err := config.LoadWithEnvOverrides(*configPath)
				if err != nil {
					return err
				}
				cfg = loaded
			}
			if fixtures != "" {
				cfg.Feed.Fixtures = fixtures
			}
			if cfg.Feed.Fixtures == "" {
				return errors.New("eval requires --fixtures or feed.fixtures in config")
			}
			if cmd.Flags().Changed("volatility-threshold") {
				cfg.Strategy.VolatilityThreshold = threshold
			}
			if cmd.Flags().Changed("tie-break") {
				side, err := strategy.ParseSideBias(tieBreak)
				if err != nil {
					return err
				}
				cfg.Strategy.TieBreak = side
			}
			if cmd.Flags().Changed("log-level") || *configPath == "" {
				cfg.Log.Level = logLevel
			}

			src, err := market.LoadFixtures(cfg.Feed.Fixtures)
			if err != nil {
				return err
			}
			symbols := cfg.Feed.Symbols
			if len(symbols) == 0 {
				symbols = src.Symbols()
			}
			runner, log, err := buildRunner(cfg, src, nil)
			if err != nil {
				return err
			}
			defer log.Close()

			results, cycleErr := runner.RunCycle(ctx, symbols)
			printResults(cmd, results)
			return cycleErr
		},
	}
	cmd.Flags().StringVar(&fixtures, "fixtures", "", "YAML fixture file (symbol -> depth/trades)")
	cmd.Flags().Float64Var(&threshold, "volatility-threshold", strategy.DefaultVolatilityThreshold, "volatility above which to quote the liquid side")
	cmd.Flags().StringVar(&tieBreak, "tie-break", "ask", "side chosen when bid and ask volumes are equal (bid|ask)")
	cmd.Flags().StringVar(&logLevel, "log-level", "warn", "log level")
	return cmd
}

func runCmd(ctx context.Context, configPath *string) *cobra.Command {
	var (
		seed  int64
		base  float64
		watch bool
	)
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Evaluate instruments every feed.intervalMs until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			if *configPath == "" {
				return errors.New("run requires --config")
			}
			cfg, err := config.LoadWithEnvOverrides(*configPath)
			if err != nil {
				return err
			}

			mcfg := monitor.DefaultConfig()
			if cfg.Metrics.Namespace != "" {
				mcfg.Namespace = cfg.Metrics.Namespace
			}
			mon := monitor.New(mcfg)
			var (
				src     market.Source
				symbols = cfg.Feed.Symbols
				walk    *market.RandomWalk
				svc     *market.Service
			)
			if cfg.Feed.Fixtures != "" {
				fx, err := market.LoadFixtures(cfg.Feed.Fixtures)
				if err != nil {
					return err
				}
				if len(symbols) == 0 {
					symbols = fx.Symbols()
				}
				src = fx
			} else {
				pub := market.NewPublisher()
				go sim.NewFeedTracker(pub, mon).Run(ctx)
				svc = market.NewService(pub, cfg.Feed.TapeWindow)
				svc.LimitLevels(cfg.Feed.DepthLevels)
				walk = market.NewRandomWalk(base, seed)
				src = svc
			}

			runner, log, err := buildRunner(cfg, src, mon)
			if err != nil {
				return err
			}
			defer log.Close()
			runner.MaxStaleness = time.Duration(cfg.Feed.MaxStalenessMs) * time.Millisecond
			if walk != nil {
				runner.BeforeCycle = func(ts time.Time) error {
					return walk.Tick(svc, symbols, ts)
				}
			}

			if cfg.Metrics.Addr != "" {
				go func() {
					if err := mon.Serve(ctx, cfg.Metrics.Addr); err != nil {
						log.LogError(err, map[string]interface{}{"stage": "metrics"})
					}
				}()
			}
			if watch {
				if err := startWatcher(ctx, *configPath, cfg, runner, log); err != nil {
					return err
				}
			}

			err = runner.Run(ctx, symbols, time.Duration(cfg.Feed.IntervalMs)*time.Millisecond)
			if errors.Is(err, context.Canceled) {
				return nil
			}
			return err
		},
	}
	cmd.Flags().Int64Var(&seed, "seed", time.Now().UnixNano(), "random walk seed")
	cmd.Flags().Float64Var(&base, "base", 100, "random walk starting mid price")
	cmd.Flags().BoolVar(&watch, "watch", true, "reload strategy parameters when the config file changes (env, log, metrics and feed changes need a restart and are reported as ignored)")
	return cmd
}

func buildRunner(cfg config.AppConfig, src market.Source, mon *monitor.Monitor) (*sim.Runner, *logger.Logger, error) {
	log, err := logger.New(cfg.Log)
	if err != nil {
		return nil, nil, err
	}
	engine, err := strategy.NewEngine(cfg.Strategy.EngineConfig())
	if err != nil {
		return nil, nil, err
	}
	runLog := log.WithFields(map[string]interface{}{"env": cfg.Env})
	runner, err := sim.NewRunner(src, engine, sim.LogExecutor{Log: runLog}, runLog, mon)
	if err != nil {
		return nil, nil, err
	}
	return runner, log, nil
}

// startWatcher 热更新只替换引擎参数；其他配置段的变化记录在 config_reload 的 ignored 字段里。
func startWatcher(ctx context.Context, path string, initial config.AppConfig, runner *sim.Runner, log *logger.Logger) error {
	w, err := config.NewWatcher(path, 0)
	if err != nil {
		return err
	}
	w.OnError = func(err error) {
		log.LogError(err, map[string]interface{}{"stage": "config_reload"})
	}
	go func() {
		_ = w.Run(ctx, func(cfg config.AppConfig) {
			engine, err := strategy.NewEngine(cfg.Strategy.EngineConfig())
			if err != nil {
				log.LogError(err, map[string]interface{}{"stage": "config_reload"})
				return
			}
			runner.SetEngine(engine)
			fields := map[string]interface{}{
				"volatilityThreshold": cfg.Strategy.VolatilityThreshold,
				"tieBreak":            cfg.Strategy.TieBreak.String(),
			}
			if ignored := config.ReloadIgnored(initial, cfg); len(ignored) > 0 {
				fields["ignored"] = ignored
				log.Warn("config_reload_requires_restart", zap.Strings("sections", ignored))
			}
			log.LogReload(fields)
		})
	}()
	return nil
}

func printResults(cmd *cobra.Command, results []sim.Result) {
	sorted := append([]sim.Result(nil), results...)
	sort.SliceStable(sorted, func(i, j int) bool { return sorted[i].Symbol < sorted[j].Symbol })
	out := cmd.OutOrStdout()
	for _, res := range sorted {
		if res.Err != nil {
			fmt.Fprintf(out, "%s error=%v\n", res.Symbol, res.Err)
			continue
		}
		d := res.Decision
		fmt.Fprintf(out, "%s bias=%s bid=%.4f ask=%.4f imbalance=%.4f", res.Symbol, d.Depth.Bias, d.Depth.BidVolume, d.Depth.AskVolume, d.Depth.Imbalance)
		if d.HasPosture {
			fmt.Fprintf(out, " posture=%s mean=%.4f volatility=%.4f askLiquidity=%.4f\n",
				d.Trades.Posture, d.Trades.MeanPrice, d.Trades.Volatility, d.Trades.AskLiquidity)
		} else {
			fmt.Fprintf(out, " posture=skipped (%v)\n", strategy.ErrEmptyTape)
		}
	}
}
