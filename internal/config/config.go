// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package config loads the process configuration: listen ports, task
// intervals, file paths, and the thresholds that tune the rate estimator
// and idle-purge tasks (spec §6).
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// Config is the top-level process configuration.
type Config struct {
	// Mode selects the device adapter: "simulated" or "testbed".
	Mode string `yaml:"mode"`

	SFlow        SFlowConfig        `yaml:"sflow"`
	Topology     TopologyConfig     `yaml:"topology"`
	Dispatch     DispatchConfig     `yaml:"dispatch"`
	DeviceStatus DeviceStatusConfig `yaml:"device_status"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

// SFlowConfig controls the UDP ingest listener and rate thresholds.
type SFlowConfig struct {
	Port                   int     `yaml:"port"`
	RecvBufferBytes        int     `yaml:"recv_buffer_bytes"`
	FlowIdleTimeout        Duration `yaml:"flow_idle_timeout"`
	MiceFlowUnderThreshold uint64  `yaml:"mice_flow_under_threshold_bps"`
	EmptyLinkThreshold     uint64  `yaml:"empty_link_threshold_bps"`
	PureAckByteThreshold   uint32  `yaml:"pure_ack_byte_threshold"`
}

// TopologyConfig controls the static topology file and its persistence.
type TopologyConfig struct {
	FilePath    string   `yaml:"file_path"`
	EdgeFlowTTL Duration `yaml:"edge_flow_ttl"`
}

// DispatchConfig controls the flow-rule dispatcher.
type DispatchConfig struct {
	BurstSize     int  `yaml:"burst_size"`
	FencePerBurst bool `yaml:"fence_per_burst"`
}

// DeviceStatusConfig controls the health poller and reachability pinger.
type DeviceStatusConfig struct {
	PollInterval  Duration `yaml:"poll_interval"`
	PingInterval  Duration `yaml:"ping_interval"`
	PingRetries   int      `yaml:"ping_retries"`
	PingRetrySpace Duration `yaml:"ping_retry_spacing"`
	PingTimeout   Duration `yaml:"ping_timeout"`
}

// MetricsConfig controls the Prometheus sampling task.
type MetricsConfig struct {
	SampleInterval Duration `yaml:"sample_interval"`
	ListenAddr     string   `yaml:"listen_addr"`
}

// Duration wraps time.Duration to support YAML strings like "15s".
type Duration time.Duration

func (d Duration) Duration() time.Duration { return time.Duration(d) }

func (d *Duration) UnmarshalYAML(unmarshal func(any) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Default returns the process configuration with the spec §6 constants
// it carries as their default values.
func Default() Config {
	return Config{
		Mode: "simulated",
		SFlow: SFlowConfig{
			Port:                   6343,
			RecvBufferBytes:        4 * 1024 * 1024,
			FlowIdleTimeout:        Duration(15 * time.Second),
			MiceFlowUnderThreshold: 10_000_000,
			EmptyLinkThreshold:     700_000_000,
			PureAckByteThreshold:   80,
		},
		Topology: TopologyConfig{
			FilePath:    "topology.json",
			EdgeFlowTTL: Duration(2 * time.Second),
		},
		Dispatch: DispatchConfig{
			BurstSize:     2000,
			FencePerBurst: false,
		},
		DeviceStatus: DeviceStatusConfig{
			PollInterval:   Duration(10 * time.Second),
			PingInterval:   Duration(1 * time.Second),
			PingRetries:    3,
			PingRetrySpace: Duration(1 * time.Second),
			PingTimeout:    Duration(5 * time.Second),
		},
		Metrics: MetricsConfig{
			SampleInterval: Duration(5 * time.Second),
			ListenAddr:     ":9100",
		},
	}
}

// Load parses data as YAML over the defaults, so a partial config file
// only overrides the fields it sets.
func Load(data []byte) (Config, error) {
	cfg := Default()
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}

// LoadFile reads path and parses it as YAML over the defaults.
func LoadFile(path string) (Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config %s: %w", path, err)
	}
	return Load(data)
}
