// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package sflow

import (
	"math/rand"
	"time"
)

// RunPeriodicRateTask recomputes every tracked flow's 1Hz rate estimate
// until stop is closed (spec §4.3: "every flow's periodic rate is
// recomputed once per second from the curr-prev byte/packet delta").
func (c *Collector) RunPeriodicRateTask(stop <-chan struct{}) {
	ticker := time.NewTicker(TimeUnitInterval)
	defer ticker.Stop()
	for {
		select {
		case <-stop:
			return
		case <-ticker.C:
			c.computePeriodicRates()
		}
	}
}

func (c *Collector) computePeriodicRates() {
	c.flowInfoLock.Lock()
	defer c.flowInfoLock.Unlock()

	for _, info := range c.flows {
		var totalByteRate, totalPacketRate float64
		var hopsCounter int
		for _, stats := range info.Agents {
			currBytes, prevBytes := stats.totalBytes(), stats.prevTotalBytes()
			currPackets, prevPackets := stats.totalPackets(), stats.prevTotalPackets()

			if currBytes >= prevBytes {
				stats.AvgByteRateInBps = float64(currBytes-prevBytes) * 8
			}
			if currPackets >= prevPackets {
				stats.AvgPacketRate = float64(currPackets - prevPackets)
			}

			stats.PrevIngressBytes, stats.PrevEgressBytes = stats.IngressBytes, stats.EgressBytes
			stats.PrevIngressPackets, stats.PrevEgressPackets = stats.IngressPackets, stats.EgressPackets

			if stats.AvgByteRateInBps != 0 {
				hopsCounter++
			}
			totalByteRate += stats.AvgByteRateInBps
			totalPacketRate += stats.AvgPacketRate
		}
		divisor := float64(hopsCounter)
		if divisor < 1 {
			divisor = 1
		}
		info.EstimatedFlowSendingRatePeriodically = totalByteRate / divisor
		info.EstimatedPacketRatePeriodically = totalPacketRate / divisor
		info.IsElephantFlowPeriodically = info.EstimatedFlowSendingRatePeriodically >= MiceFlowUnderThreshold
	}
}

// RunImmediateRateTask recomputes every tracked flow's sliding-window rate
// estimate on a jittered 0.5-2.0s cadence, rather than a fixed tick, so
// that many collector instances on the same host do not all wake in
// lockstep (spec §4.3).
func (c *Collector) RunImmediateRateTask(stop <-chan struct{}) {
	for {
		delay := 500*time.Millisecond + time.Duration(rand.Int63n(int64(1500*time.Millisecond)))
		timer := time.NewTimer(delay)
		select {
		case <-stop:
			timer.Stop()
			return
		case <-timer.C:
			c.computeImmediateRates()
		}
	}
}

func (c *Collector) computeImmediateRates() {
	now := c.clock.Now()

	c.flowInfoLock.Lock()
	defer c.flowInfoLock.Unlock()

	for _, info := range c.flows {
		var byteSum, packetSum uint64
		var hopsCounter int
		for _, stats := range info.Agents {
			agentBytes := stats.byteWindow.Sum(now)
			if agentBytes != 0 {
				hopsCounter++
			}
			byteSum += agentBytes
			packetSum += stats.packetWindow.Sum(now)
		}
		divisor := float64(hopsCounter)
		if divisor < 1 {
			divisor = 1
		}
		windowSeconds := TimeUnitInterval.Seconds()
		info.EstimatedFlowSendingRateImmediately = (float64(byteSum) * 8 / windowSeconds) / divisor
		info.EstimatedPacketRateImmediately = (float64(packetSum) / windowSeconds) / divisor
		info.IsElephantFlowImmediately = info.EstimatedFlowSendingRateImmediately >= MiceFlowUnderThreshold
	}
}
