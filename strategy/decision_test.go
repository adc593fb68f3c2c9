package strategy

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestSideBiasString(t *testing.T) {
	assert.Equal(t, "bid", SideBid.String())
	assert.Equal(t, "ask", SideAsk.String())
	assert.Equal(t, "SideBias(9)", SideBias(9).String())
	assert.Equal(t, "quote_liquid_side", PostureQuoteLiquidSide.String())
	assert.Equal(t, "enter_illiquid_side", PostureEnterIlliquidSide.String())
	assert.Equal(t, "LiquidityPosture(5)", LiquidityPosture(5).String())
}

func TestParseSideBias(t *testing.T) {
	v, err := ParseSideBias("bid")
	require.NoError(t, err)
	assert.Equal(t, SideBid, v)
	_, err = ParseSideBias("BID")
	assert.Error(t, err)
}

func TestSideBiasYAML(t *testing.T) {
	var cfg struct {
		TieBreak SideBias `yaml:"tieBreak"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("tieBreak: bid\n"), &cfg))
	assert.Equal(t, SideBid, cfg.TieBreak)
	assert.Error(t, yaml.Unmarshal([]byte("tieBreak: middle\n"), &cfg))

	out, err := yaml.Marshal(cfg)
	require.NoError(t, err)
	assert.Equal(t, "tieBreak: bid\n", string(out))
}
