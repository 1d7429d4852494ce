// Copyright 2025 FixItMY Authors
// SPDX-License-Identifier: Apache-2.0

package offline

import (
	"log/slog"
	"sync"
)

// State is the process-wide connectivity signal. It starts as StateUnknown
// until the first probe result or explicit SetState call.
type State int

const (
	StateUnknown State = iota
	StateOnline
	StateOffline
)

func (s State) String() string {
	switch s {
	case StateOnline:
		return "online"
	case StateOffline:
		return "offline"
	default:
		return "unknown"
	}
}

// Monitor tracks connectivity transitions and fans them out to
// subscribers. It is initialized once at application start and lives for
// the process lifetime. The state is a reachability heuristic, not a
// guarantee that the server will answer.
type Monitor struct {
	mu      sync.Mutex
	state   State
	subs    map[int]func(prev, next State)
	nextSub int
	logger  *slog.Logger
}

// NewMonitor creates a monitor in StateUnknown.
func NewMonitor(logger *slog.Logger) *Monitor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Monitor{
		state:  StateUnknown,
		subs:   make(map[int]func(prev, next State)),
		logger: logger,
	}
}

// State returns the current connectivity state.
func (m *Monitor) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// Online reports whether the last known state is online.
func (m *Monitor) Online() bool {
	return m.State() == StateOnline
}

// SetState records a transition event. Handlers run synchronously on the
// calling goroutine; a repeated state is not a transition and is dropped.
func (m *Monitor) SetState(next State) {
	m.mu.Lock()
	prev := m.state
	if prev == next {
		m.mu.Unlock()
		return
	}
	m.state = next
	handlers := make([]func(prev, next State), 0, len(m.subs))
	for _, h := range m.subs {
		handlers = append(handlers, h)
	}
	m.mu.Unlock()

	m.logger.Info("connectivity transition", "from", prev, "to", next)
	for _, h := range handlers {
		h(prev, next)
	}
}

// OnTransition registers a handler for connectivity transitions and
// returns a function that cancels the subscription.
func (m *Monitor) OnTransition(handler func(prev, next State)) (cancel func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = handler
	m.mu.Unlock()

	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}
