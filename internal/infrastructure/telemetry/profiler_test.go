package telemetry

import (
	"context"
	"runtime/pprof"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestStartProfiler_Disabled(t *testing.T) {
	p, err := StartProfiler(ProfilerConfig{}, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.False(t, p.Active())
	assert.NoError(t, p.Stop())
	assert.NoError(t, p.Stop())
}

func TestStartProfiler_RequiresApplicationName(t *testing.T) {
	_, err := StartProfiler(ProfilerConfig{ServerAddress: "http://localhost:4040"}, nil)
	assert.Error(t, err)
}

func TestProfileRegion(t *testing.T) {
	var region, strategy string
	ProfileRegion(context.Background(), "fulfillment_plan", func(ctx context.Context) {
		region, _ = pprof.Label(ctx, "region")
		strategy, _ = pprof.Label(ctx, "strategy")
	}, "strategy", "GREEDY")

	assert.Equal(t, "fulfillment_plan", region)
	assert.Equal(t, "GREEDY", strategy)
}
