// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

// Package eventbus is a topic-keyed synchronous fan-out, the core's
// replacement for the original's runtime-typed event payload (see §9:
// "Heterogeneous task payloads"). Each topic has its own payload struct;
// Emit dispatches by topic and invokes every registered handler in
// registration order on the caller's goroutine, so handlers must not
// block.
package eventbus

import (
	"sync"

	"ndtwin.dev/core/internal/flowkey"
)

// Topic identifies a class of event.
type Topic int

const (
	TopicFlowAdded Topic = iota
	TopicLinkFailureDetected
	TopicIdleFlowPurged
	TopicLinkRecoveryDetected
	TopicSwitchEntered
	TopicSwitchExited
)

func (t Topic) String() string {
	switch t {
	case TopicFlowAdded:
		return "FlowAdded"
	case TopicLinkFailureDetected:
		return "LinkFailureDetected"
	case TopicIdleFlowPurged:
		return "IdleFlowPurged"
	case TopicLinkRecoveryDetected:
		return "LinkRecoveryDetected"
	case TopicSwitchEntered:
		return "SwitchEntered"
	case TopicSwitchExited:
		return "SwitchExited"
	default:
		return "Unknown"
	}
}

// Event is implemented by every topic's payload struct.
type Event interface {
	Topic() Topic
}

// FlowAddedEvent fires the first time a FlowKey is observed.
type FlowAddedEvent struct {
	Key flowkey.FlowKey
}

func (FlowAddedEvent) Topic() Topic { return TopicFlowAdded }

// LinkFailureDetectedEvent fires when an edge transitions up -> down.
type LinkFailureDetectedEvent struct {
	SrcDpid uint64
	DstDpid uint64
}

func (LinkFailureDetectedEvent) Topic() Topic { return TopicLinkFailureDetected }

// LinkRecoveryDetectedEvent fires when an edge transitions down -> up.
type LinkRecoveryDetectedEvent struct {
	SrcDpid uint64
	DstDpid uint64
}

func (LinkRecoveryDetectedEvent) Topic() Topic { return TopicLinkRecoveryDetected }

// IdleFlowPurgedEvent fires once per FlowKey the idle sweeper removes.
type IdleFlowPurgedEvent struct {
	Key flowkey.FlowKey
}

func (IdleFlowPurgedEvent) Topic() Topic { return TopicIdleFlowPurged }

// SwitchEnteredEvent fires when the reachability pinger marks a switch up.
type SwitchEnteredEvent struct {
	Dpid uint64
}

func (SwitchEnteredEvent) Topic() Topic { return TopicSwitchEntered }

// SwitchExitedEvent fires when the reachability pinger marks a switch down.
type SwitchExitedEvent struct {
	Dpid uint64
}

func (SwitchExitedEvent) Topic() Topic { return TopicSwitchExited }

// Handler receives an Event for topics it was registered against.
type Handler func(Event)

// Bus is a topic-keyed synchronous fan-out. A single registry lock admits
// concurrent Emit calls with exclusive registration, matching §4.7.
type Bus struct {
	mu       sync.RWMutex
	handlers map[Topic][]Handler
}

// New returns an empty Bus.
func New() *Bus {
	return &Bus{handlers: make(map[Topic][]Handler)}
}

// Subscribe registers handler for topic. Handlers are invoked in
// registration order; subscription is expected at startup, not while Emit
// is in steady-state use, but is safe to call concurrently with Emit.
func (b *Bus) Subscribe(topic Topic, handler Handler) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.handlers[topic] = append(b.handlers[topic], handler)
}

// Emit invokes every handler registered for ev's topic, in registration
// order, on the caller's goroutine. Handlers must not block; blocking work
// must be offloaded by the handler itself.
func (b *Bus) Emit(ev Event) {
	b.mu.RLock()
	hs := b.handlers[ev.Topic()]
	// Copy the handlers into a fresh slice under the lock so they run
	// outside it; a concurrent Subscribe cannot change the copy.
	handlers := make([]Handler, len(hs))
	copy(handlers, hs)
	b.mu.RUnlock()

	for _, h := range handlers {
		h(ev)
	}
}
