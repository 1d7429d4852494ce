// Copyright 2025 FixItMY Authors
// SPDX-License-Identifier: Apache-2.0

package offline

import "context"

// Status is the snapshot consumed by presentation surfaces (offline
// indicator, pending badge, sync toast).
type Status struct {
	State        State
	PendingCount int
	Syncing      bool
	LastResult   *SyncResult
}

// Status derives the current UI-facing state from the store, monitor and
// engine.
func (e *Engine) Status(ctx context.Context) (Status, error) {
	count, err := e.store.Count(ctx)
	if err != nil {
		return Status{}, err
	}
	return Status{
		State:        e.monitor.State(),
		PendingCount: count,
		Syncing:      e.Syncing(),
		LastResult:   e.LastResult(),
	}, nil
}
