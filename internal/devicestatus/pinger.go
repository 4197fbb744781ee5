// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package devicestatus

import (
	"fmt"
	"time"

	probing "github.com/prometheus-community/pro-bing"

	"ndtwin.dev/core/internal/clock"
	"ndtwin.dev/core/internal/eventbus"
	"ndtwin.dev/core/internal/graph"
	"ndtwin.dev/core/internal/logging"
)

const (
	pingInterval    = 1 * time.Second
	pingRetries     = 3
	pingRetrySpace  = 1 * time.Second
	pingTimeout     = 5 * time.Second
)

// CheckPingFunc is the swappable reachability check, overridable in tests.
var CheckPingFunc = func(ip string) error {
	pinger, err := probing.NewPinger(ip)
	if err != nil {
		return fmt.Errorf("create pinger: %w", err)
	}
	pinger.Count = 1
	pinger.Timeout = pingTimeout
	pinger.SetPrivileged(false)
	if err := pinger.Run(); err != nil {
		return err
	}
	stats := pinger.Statistics()
	if stats.PacketsRecv == 0 {
		return fmt.Errorf("packet loss")
	}
	return nil
}

// BridgePresenceFunc reports whether the simulated bridge for a switch is
// present, used in place of ICMP reachability in simulated mode.
type BridgePresenceFunc func(bridgeName string) bool

// Pinger probes every switch vertex once per second, retrying on failure
// before flipping the vertex's up/down state and disabling/enabling its
// edges (spec §4.5).
type Pinger struct {
	clock    clock.Clock
	bus      *eventbus.Bus
	store    *graph.Store
	logger   *logging.Logger
	simulated bool
	bridgeUp BridgePresenceFunc
}

// NewPinger constructs a Pinger. When simulated is true, bridgeUp is used
// instead of ICMP to determine reachability.
func NewPinger(c clock.Clock, bus *eventbus.Bus, store *graph.Store, logger *logging.Logger, simulated bool, bridgeUp BridgePresenceFunc) *Pinger {
	if logger == nil {
		logger = logging.Default()
	}
	return &Pinger{
		clock: c, bus: bus, store: store,
		logger: logger.WithComponent("device-pinger"),
		simulated: simulated, bridgeUp: bridgeUp,
	}
}

// Run ticks once per second until stop is closed, probing every switch.
func (p *Pinger) Run(stop <-chan struct{}) {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			p.probeAll()
		}
	}
}

func (p *Pinger) probeAll() {
	snap := p.store.GetGraph()
	for _, v := range snap.Vertices {
		if v.Kind != graph.KindSwitch {
			continue
		}
		p.probeOne(v)
	}
}

func (p *Pinger) probeOne(v *graph.Vertex) {
	up := p.isReachable(v)

	if up == v.IsUp {
		return
	}

	if err := p.store.SetVertexUp(v.Handle, up); err != nil {
		p.logger.Warn("failed to update vertex reachability", "dpid", v.Dpid, "err", err)
		return
	}

	if up {
		if err := p.store.EnableSwitchAndEdges(v.Dpid); err != nil {
			p.logger.Warn("failed to enable switch edges", "dpid", v.Dpid, "err", err)
		}
		p.logger.Info("switch reachable", "dpid", v.Dpid)
		p.bus.Emit(eventbus.SwitchEnteredEvent{Dpid: v.Dpid})
	} else {
		if err := p.store.DisableSwitchAndEdges(v.Dpid); err != nil {
			p.logger.Warn("failed to disable switch edges", "dpid", v.Dpid, "err", err)
		}
		p.logger.Warn("switch unreachable", "dpid", v.Dpid)
		p.bus.Emit(eventbus.SwitchExitedEvent{Dpid: v.Dpid})
	}
}

func (p *Pinger) isReachable(v *graph.Vertex) bool {
	if p.simulated {
		if p.bridgeUp == nil {
			return true
		}
		return p.bridgeUp(v.BridgeName)
	}

	ip := ""
	if len(v.IP) > 0 {
		ip = v.IP[0]
	}
	if ip == "" {
		return v.IsUp
	}

	for attempt := 0; attempt < pingRetries; attempt++ {
		if attempt > 0 {
			p.clock.Sleep(pingRetrySpace)
		}
		if err := CheckPingFunc(ip); err == nil {
			return true
		}
	}
	return false
}
