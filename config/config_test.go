package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load("")
	require.NoError(t, err)

	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "postgres", cfg.Database.Database)
	assert.Equal(t, 5*time.Second, cfg.Scanner.ScanInterval.Duration)
	assert.Equal(t, 100, cfg.Scanner.SignatureBatchLimit)
	require.Len(t, cfg.Scanner.Targets, 2)
	assert.Equal(t, "WH_SWAP", cfg.Scanner.Targets[0].Protocol)
	assert.Equal(t, 10*time.Second, cfg.Follower.FrequencyToMonitorOrders.Duration)
	assert.Equal(t, 60, cfg.Follower.RetryNumber)
	assert.Equal(t, "/metrics", cfg.Metrics.Endpoint)
	require.Len(t, cfg.Etherman.Chains, 1)
	assert.Equal(t, "ethereum", cfg.Etherman.Chains[0].Name)
	assert.NotEmpty(t, cfg.Etherman.Chains[0].MessageTransmitter)
}
