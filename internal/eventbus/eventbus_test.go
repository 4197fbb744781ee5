// Copyright (C) 2026 Ben Grimm. Licensed under AGPL-3.0 (https://www.gnu.org/licenses/agpl-3.0.txt)

package eventbus

import (
	"testing"

	"github.com/stretchr/testify/require"
	"ndtwin.dev/core/internal/flowkey"
)

func TestEmitInvokesRegistrationOrder(t *testing.T) {
	b := New()
	var order []int
	b.Subscribe(TopicFlowAdded, func(Event) { order = append(order, 1) })
	b.Subscribe(TopicFlowAdded, func(Event) { order = append(order, 2) })
	b.Subscribe(TopicIdleFlowPurged, func(Event) { order = append(order, 99) })

	b.Emit(FlowAddedEvent{Key: flowkey.FlowKey{SrcIP: 1}})

	require.Equal(t, []int{1, 2}, order)
}

func TestEmitWithoutSubscribersIsNoop(t *testing.T) {
	b := New()
	require.NotPanics(t, func() {
		b.Emit(SwitchEnteredEvent{Dpid: 1})
	})
}
