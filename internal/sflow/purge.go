// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package sflow

import (
	"time"

	"ndtwin.dev/core/internal/eventbus"
)

// RunIdlePurgeTask evicts flows that have had no sample for FlowIdleTimeout,
// emitting an IdleFlowPurged event for each, until stop is closed (spec
// §4.3, §5).
func (c *Collector) RunIdlePurgeTask(stop <-chan struct{}) {
	ticker := time.NewTicker(TimeUnitInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.purgeIdleFlows()
		}
	}
}

func (c *Collector) purgeIdleFlows() {
	now := c.clock.Now()

	c.flowInfoLock.Lock()
	var purged []FlowInfo
	for key, info := range c.flows {
		if now.Sub(info.EndTime) >= FlowIdleTimeout {
			purged = append(purged, *info)
			delete(c.flows, key)
		}
	}
	c.flowInfoLock.Unlock()

	if c.bus == nil {
		return
	}
	for _, info := range purged {
		c.logger.Debug("purged idle flow", "flow", info.Key.String())
		c.bus.Emit(eventbus.IdleFlowPurgedEvent{Key: info.Key})
	}
}
