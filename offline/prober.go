// Copyright 2025 FixItMY Authors
// SPDX-License-Identifier: Apache-2.0

package offline

import (
	"context"
	"log/slog"
	"net/http"
	"time"
)

// Prober periodically checks reachability of the report API health
// endpoint and feeds the result into a Monitor. It stands in for the
// browser's online/offline events: best-effort, cheap, and wrong at the
// edges in the same ways.
type Prober struct {
	URL      string
	HTTP     *http.Client
	Interval time.Duration
	monitor  *Monitor
	logger   *slog.Logger
}

// NewProber creates a prober against the given health URL.
func NewProber(healthURL string, monitor *Monitor, logger *slog.Logger) *Prober {
	if logger == nil {
		logger = slog.Default()
	}
	return &Prober{
		URL:      healthURL,
		HTTP:     &http.Client{Timeout: 5 * time.Second},
		Interval: 15 * time.Second,
		monitor:  monitor,
		logger:   logger,
	}
}

// Run probes until ctx is cancelled, pushing every result into the
// monitor. The first probe fires immediately so the monitor leaves
// StateUnknown as soon as possible.
func (p *Prober) Run(ctx context.Context) error {
	for {
		p.monitor.SetState(p.ProbeOnce(ctx))
		if err := sleepWithContext(ctx, p.Interval); err != nil {
			return err
		}
	}
}

// ProbeOnce performs a single reachability check without touching the
// monitor. One-shot callers feed the result in themselves.
func (p *Prober) ProbeOnce(ctx context.Context) State {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.URL, nil)
	if err != nil {
		p.logger.Warn("failed to build probe request", "url", p.URL, "error", err)
		return StateOffline
	}

	resp, err := p.HTTP.Do(req)
	if err != nil {
		return StateOffline
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 200 && resp.StatusCode < 400 {
		return StateOnline
	}
	return StateOffline
}

func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-timer.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
