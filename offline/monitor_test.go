// Copyright 2025 FixItMY Authors
// SPDX-License-Identifier: Apache-2.0

package offline

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMonitorStartsUnknown(t *testing.T) {
	m := NewMonitor(nil)
	require.Equal(t, StateUnknown, m.State())
	require.False(t, m.Online())
}

func TestMonitorTransitionFanOut(t *testing.T) {
	m := NewMonitor(nil)

	type transition struct{ prev, next State }
	var seen []transition
	cancel := m.OnTransition(func(prev, next State) {
		seen = append(seen, transition{prev, next})
	})
	defer cancel()

	m.SetState(StateOnline)
	m.SetState(StateOffline)
	m.SetState(StateOnline)

	require.Equal(t, []transition{
		{StateUnknown, StateOnline},
		{StateOnline, StateOffline},
		{StateOffline, StateOnline},
	}, seen)
	require.True(t, m.Online())
}

func TestMonitorRepeatedStateIsNotATransition(t *testing.T) {
	m := NewMonitor(nil)

	calls := 0
	cancel := m.OnTransition(func(prev, next State) { calls++ })
	defer cancel()

	m.SetState(StateOnline)
	m.SetState(StateOnline)
	m.SetState(StateOnline)

	require.Equal(t, 1, calls)
}

func TestMonitorUnsubscribe(t *testing.T) {
	m := NewMonitor(nil)

	calls := 0
	cancel := m.OnTransition(func(prev, next State) { calls++ })

	m.SetState(StateOnline)
	cancel()
	m.SetState(StateOffline)

	require.Equal(t, 1, calls)
}

func TestMonitorMultipleSubscribers(t *testing.T) {
	m := NewMonitor(nil)

	first, second := 0, 0
	cancelFirst := m.OnTransition(func(prev, next State) { first++ })
	defer cancelFirst()
	cancelSecond := m.OnTransition(func(prev, next State) { second++ })
	defer cancelSecond()

	m.SetState(StateOffline)

	require.Equal(t, 1, first)
	require.Equal(t, 1, second)
}
