// Copyright 2025 FixItMY Authors
// SPDX-License-Identifier: Apache-2.0

package offline

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestProberReportsReachability(t *testing.T) {
	var healthy int32 = 1
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.LoadInt32(&healthy) == 1 {
			w.WriteHeader(http.StatusOK)
			return
		}
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer server.Close()

	monitor := NewMonitor(nil)
	prober := NewProber(server.URL+"/healthz", monitor, nil)
	ctx := context.Background()

	monitor.SetState(prober.ProbeOnce(ctx))
	require.Equal(t, StateOnline, monitor.State())

	atomic.StoreInt32(&healthy, 0)
	monitor.SetState(prober.ProbeOnce(ctx))
	require.Equal(t, StateOffline, monitor.State())
}

func TestProberUnreachableHostIsOffline(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	server.Close() // nothing listens anymore

	monitor := NewMonitor(nil)
	prober := NewProber(server.URL+"/healthz", monitor, nil)

	require.Equal(t, StateOffline, prober.ProbeOnce(context.Background()))
}

func TestProberRunStopsOnCancel(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	defer server.Close()

	monitor := NewMonitor(nil)
	prober := NewProber(server.URL+"/healthz", monitor, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- prober.Run(ctx) }()

	require.Eventually(t, monitor.Online, 2*time.Second, time.Millisecond)
	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}
