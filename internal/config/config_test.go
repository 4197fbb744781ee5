// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestDefaultMatchesSpecConstants(t *testing.T) {
	cfg := Default()
	require.Equal(t, 6343, cfg.SFlow.Port)
	require.Equal(t, 15*time.Second, cfg.SFlow.FlowIdleTimeout.Duration())
	require.Equal(t, uint64(10_000_000), cfg.SFlow.MiceFlowUnderThreshold)
	require.Equal(t, 2000, cfg.Dispatch.BurstSize)
}

func TestLoadOverridesOnlySetFields(t *testing.T) {
	data := []byte(`
mode: testbed
sflow:
  port: 7000
`)
	cfg, err := Load(data)
	require.NoError(t, err)
	require.Equal(t, "testbed", cfg.Mode)
	require.Equal(t, 7000, cfg.SFlow.Port)
	require.Equal(t, uint64(10_000_000), cfg.SFlow.MiceFlowUnderThreshold)
}

func TestLoadRejectsInvalidDuration(t *testing.T) {
	data := []byte(`
sflow:
  flow_idle_timeout: "not-a-duration"
`)
	_, err := Load(data)
	require.Error(t, err)
}

func TestLoadFileMissingReturnsError(t *testing.T) {
	_, err := LoadFile("/nonexistent/path/to/config.yaml")
	require.Error(t, err)
}
