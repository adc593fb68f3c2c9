package main

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"market-signal-go/config"
	"market-signal-go/infrastructure/logger"
	"market-signal-go/market"
	"market-signal-go/sim"
	"market-signal-go/strategy"
)

func runRoot(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd(context.Background())
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func TestEvalFixtures(t *testing.T) {
	out, err := runRoot(t, "eval", "--fixtures", filepath.Join("..", "..", "config", "fixtures.yaml"), "--log-level", "error")
	require.NoError(t, err)
	assert.Contains(t, out, "DEMO bias=bid")
	assert.Contains(t, out, "posture=enter_illiquid_side")
	assert.Contains(t, out, "VOLATILE bias=ask")
	assert.Contains(t, out, "posture=quote_liquid_side")
}

func TestEvalThresholdOverride(t *testing.T) {
	out, err := runRoot(t, "eval",
		"--fixtures", filepath.Join("..", "..", "config", "fixtures.yaml"),
		"--volatility-threshold", "0.1",
		"--log-level", "error")
	require.NoError(t, err)
	assert.NotContains(t, out, "enter_illiquid_side")
}

func TestEvalReportsBadSymbols(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fx.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
GOOD:
  depth:
    bids: [{price: 99, volume: 1}]
    asks: [{price: 100, volume: 1}]
CROSSED:
  depth:
    bids: [{price: 101, volume: 1}]
    asks: [{price: 100, volume: 1}]
`), 0o644))
	out, err := runRoot(t, "eval", "--fixtures", path, "--log-level", "error")
	require.Error(t, err)
	assert.Contains(t, out, "CROSSED error=")
	assert.Contains(t, out, "GOOD bias=ask")
	assert.Contains(t, out, "posture=skipped")
}

func TestEvalRequiresFixtures(t *testing.T) {
	_, err := runRoot(t, "eval")
	assert.Error(t, err)
	_, err = runRoot(t, "eval", "--fixtures", "x.yaml", "--tie-break", "middle")
	assert.Error(t, err)
}

func TestRunRequiresConfig(t *testing.T) {
	_, err := runRoot(t, "run")
	assert.Error(t, err)
}

func TestRunStopsOnCancel(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: test
log:
  level: error
feed:
  symbols: [BTCUSDT]
  intervalMs: 5
`), 0o644))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	cmd := newRootCmd(ctx)
	cmd.SetArgs([]string{"run", "--config", path, "--watch=false", "--seed", "1"})
	assert.NoError(t, cmd.Execute())
}

func TestWatcherReportsSectionsNeedingRestart(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cfg.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
env: test
log:
  level: info
feed:
  symbols: [BTCUSDT]
`), 0o644))
	cfg, err := config.Load(path)
	require.NoError(t, err)

	core, logs := observer.New(zapcore.DebugLevel)
	log := logger.Wrap(zap.New(core))
	engine, err := strategy.NewEngine(cfg.Strategy.EngineConfig())
	require.NoError(t, err)
	runner, err := sim.NewRunner(market.NewFixtureSource(nil), engine, sim.LogExecutor{Log: log}, log, nil)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	require.NoError(t, startWatcher(ctx, path, cfg, runner, log))

	require.NoError(t, os.WriteFile(path, []byte(`
env: test
log:
  level: debug
strategy:
  volatilityThreshold: 3
feed:
  symbols: [BTCUSDT, ETHUSDC]
`), 0o644))

	require.Eventually(t, func() bool {
		return runner.Engine().Config().VolatilityThreshold == 3
	}, 3*time.Second, 10*time.Millisecond)
	require.Eventually(t, func() bool {
		return logs.FilterMessage("config_reload").Len() > 0
	}, time.Second, 10*time.Millisecond)

	reload := logs.FilterMessage("config_reload").All()
	assert.Equal(t, []interface{}{"log", "feed"}, reload[len(reload)-1].ContextMap()["ignored"])
	assert.GreaterOrEqual(t, logs.FilterMessage("config_reload_requires_restart").Len(), 1)
}
