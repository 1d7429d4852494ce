// Copyright 2025 FixItMY Authors
// SPDX-License-Identifier: Apache-2.0

package offline

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"

	"golang.org/x/sync/errgroup"

	"github.com/Joyanne05/fixit-my/fixitapi"
)

// TokenFunc returns the current session bearer token. An empty token or an
// error means authentication is unavailable: sync passes are skipped and
// direct submissions fall back to the queue.
type TokenFunc func(ctx context.Context) (string, error)

// Uploader is the slice of the report API the engine needs.
type Uploader interface {
	CreateReport(ctx context.Context, token string, req fixitapi.CreateReportRequest) (*fixitapi.Report, error)
}

// SyncResult is the outcome of one sync pass. Held in memory for status
// surfaces only, never persisted.
type SyncResult struct {
	Synced int
	Failed int
}

// Engine replays queued submissions against the report API. State machine
// is Idle -> Syncing -> Idle; a pass starts only when connectivity is
// online, a token is available, at least one record is pending, and no
// pass is already in flight.
type Engine struct {
	store   *Store
	api     Uploader
	monitor *Monitor
	token   TokenFunc
	logger  *slog.Logger

	// syncing is the in-flight latch; hasSynced suppresses re-triggering
	// within a single online period and resets only on the offline
	// transition, so pending-count fluctuation cannot fire a second pass.
	syncing   int32
	hasSynced int32

	mu         sync.Mutex
	lastResult *SyncResult

	trigger   chan struct{}
	cancelSub func()
}

// NewEngine wires an engine to its store, API client, monitor and token
// source. It subscribes to connectivity transitions once at construction;
// Close releases the subscription.
func NewEngine(store *Store, api Uploader, monitor *Monitor, token TokenFunc, logger *slog.Logger) *Engine {
	if logger == nil {
		logger = slog.Default()
	}
	e := &Engine{
		store:   store,
		api:     api,
		monitor: monitor,
		token:   token,
		logger:  logger,
		trigger: make(chan struct{}, 1),
	}
	e.cancelSub = monitor.OnTransition(e.handleTransition)
	return e
}

// Close unsubscribes the engine from connectivity transitions.
func (e *Engine) Close() {
	if e.cancelSub != nil {
		e.cancelSub()
		e.cancelSub = nil
	}
}

func (e *Engine) handleTransition(prev, next State) {
	switch next {
	case StateOffline:
		// Stale success/failure messaging must not outlive connectivity.
		atomic.StoreInt32(&e.hasSynced, 0)
		e.ClearResult()
	case StateOnline:
		e.requestSync()
	}
}

// NotifyPending signals that the pending count may have become non-zero
// while already online (e.g. fresh start with a queue left over from a
// previous session).
func (e *Engine) NotifyPending() {
	e.requestSync()
}

func (e *Engine) requestSync() {
	select {
	case e.trigger <- struct{}{}:
	default:
	}
}

// Run services sync triggers and drives the given prober until ctx is
// cancelled. Transition handlers themselves only flip latches and post
// triggers, so Run is where all replay work happens.
func (e *Engine) Run(ctx context.Context, prober *Prober) error {
	g, ctx := errgroup.WithContext(ctx)

	if prober != nil {
		g.Go(func() error {
			return prober.Run(ctx)
		})
	}

	g.Go(func() error {
		for {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-e.trigger:
				e.maybeSync(ctx)
			}
		}
	})

	return g.Wait()
}

// maybeSync is the auto-trigger entry point: it enforces the full guard
// including the once-per-online-period latch, then runs a pass.
func (e *Engine) maybeSync(ctx context.Context) {
	if e.monitor.State() != StateOnline {
		return
	}
	if atomic.LoadInt32(&e.hasSynced) == 1 {
		return
	}

	token, err := e.token(ctx)
	if err != nil || token == "" {
		e.logger.Debug("skipping sync pass, no session token available")
		return
	}

	count, err := e.store.Count(ctx)
	if err != nil {
		e.logger.Warn("failed to count pending submissions", "error", err)
		return
	}
	if count == 0 {
		return
	}

	if !atomic.CompareAndSwapInt32(&e.hasSynced, 0, 1) {
		return
	}
	e.runPass(ctx, token)
}

// SyncNow runs a single pass regardless of the once-per-online-period
// latch (manual drains). The remaining guard still applies: it returns
// (nil, nil) when offline, when a pass is already in flight, or when the
// queue is empty.
func (e *Engine) SyncNow(ctx context.Context) (*SyncResult, error) {
	if e.monitor.State() != StateOnline {
		return nil, nil
	}
	token, err := e.token(ctx)
	if err != nil || token == "" {
		return nil, fmt.Errorf("cannot sync: %w", errNoToken(err))
	}
	return e.runPass(ctx, token)
}

// runPass snapshots the queue once and replays each record sequentially.
// One record's failure never aborts the pass; a record is deleted only
// after the server acknowledged it. Returns (nil, nil) for an empty
// snapshot: no network calls, no result object.
func (e *Engine) runPass(ctx context.Context, token string) (*SyncResult, error) {
	if !atomic.CompareAndSwapInt32(&e.syncing, 0, 1) {
		return nil, nil
	}
	defer atomic.StoreInt32(&e.syncing, 0)

	pending, err := e.store.GetAll(ctx)
	if err != nil {
		e.logger.Warn("failed to snapshot pending submissions", "error", err)
		return nil, err
	}
	if len(pending) == 0 {
		return nil, nil
	}

	result := SyncResult{}
	for i := range pending {
		rec := &pending[i]
		if ctx.Err() != nil {
			// Interrupted mid-pass: remaining records stay pending and are
			// replayed in full on the next trigger.
			break
		}

		if _, err := e.api.CreateReport(ctx, token, uploadRequest(rec)); err != nil {
			result.Failed++
			e.logger.Warn("failed to sync pending report",
				"id", rec.ID, "title", rec.Title,
				"error", &NetworkError{Op: "report/create", Err: err})
			continue
		}

		if err := e.store.Remove(ctx, rec.ID); err != nil {
			// The server has the report; the idempotency key keeps the
			// inevitable replay from creating a duplicate.
			e.logger.Warn("failed to remove synced report", "id", rec.ID, "error", err)
		}
		result.Synced++
	}

	e.mu.Lock()
	e.lastResult = &result
	e.mu.Unlock()

	e.logger.Info("sync pass complete", "synced", result.Synced, "failed", result.Failed)
	return &result, nil
}

func uploadRequest(rec *PendingSubmission) fixitapi.CreateReportRequest {
	req := fixitapi.CreateReportRequest{
		IdempotencyKey: rec.ID,
		Title:          rec.Title,
		Category:       rec.Category,
		Description:    rec.Description,
		Location:       rec.Location,
		IsAnonymous:    rec.Anonymous,
	}
	if rec.Photo != nil {
		req.Photo = &fixitapi.PhotoUpload{
			Name:        rec.Photo.Name,
			ContentType: rec.Photo.MIME,
			Data:        rec.Photo.Data,
		}
	}
	return req
}

// Syncing reports whether a pass is currently in flight.
func (e *Engine) Syncing() bool {
	return atomic.LoadInt32(&e.syncing) == 1
}

// LastResult returns a copy of the most recent pass outcome, or nil if
// none is displayable.
func (e *Engine) LastResult() *SyncResult {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.lastResult == nil {
		return nil
	}
	result := *e.lastResult
	return &result
}

// ClearResult drops the displayed last-result state.
func (e *Engine) ClearResult() {
	e.mu.Lock()
	e.lastResult = nil
	e.mu.Unlock()
}

func errNoToken(err error) error {
	if err != nil {
		return err
	}
	return errTokenUnavailable
}
