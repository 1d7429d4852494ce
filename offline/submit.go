// Copyright 2025 FixItMY Authors
// SPDX-License-Identifier: Apache-2.0

package offline

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/Joyanne05/fixit-my/fixitapi"
)

// Submission is a validated report-creation request from the form.
type Submission struct {
	Title       string
	Category    string
	Description string
	Location    string
	Anonymous   bool
	Photo       *Photo
}

// Outcome tells the caller what happened to a submission. A queued
// submission is not a confirmed server-side success and must be presented
// differently.
type Outcome int

const (
	// OutcomeSubmitted means the server acknowledged the report.
	OutcomeSubmitted Outcome = iota
	// OutcomeQueued means the report was stored locally and will sync
	// later.
	OutcomeQueued
)

func (o Outcome) String() string {
	if o == OutcomeSubmitted {
		return "submitted"
	}
	return "queued"
}

// Submit is the single capture decision point invoked by the report form.
//
// Online with a token: submit directly; an in-flight network failure falls
// back to enqueueing under the same id, so a submission is never discarded
// because of a transient HTTP failure. Offline, unknown connectivity, or
// no token: enqueue immediately. Validation failures reach neither the
// store nor the network.
func (e *Engine) Submit(ctx context.Context, sub Submission) (Outcome, error) {
	if err := sub.validate(); err != nil {
		return OutcomeQueued, err
	}

	id := uuid.NewString()

	if e.monitor.State() == StateOnline {
		token, err := e.token(ctx)
		if err == nil && token != "" {
			req := uploadRequest(&PendingSubmission{
				ID:          id,
				Title:       sub.Title,
				Category:    sub.Category,
				Description: sub.Description,
				Location:    sub.Location,
				Anonymous:   sub.Anonymous,
				Photo:       sub.Photo,
			})
			if _, err := e.api.CreateReport(ctx, token, req); err == nil {
				return OutcomeSubmitted, nil
			} else {
				e.logger.Warn("direct submission failed, queueing for later sync",
					"id", id, "title", sub.Title,
					"error", &NetworkError{Op: "report/create", Err: err})
			}
		} else {
			e.logger.Debug("no session token for direct submission, queueing", "id", id)
		}
	}

	rec := PendingSubmission{
		ID:          id,
		Title:       sub.Title,
		Category:    sub.Category,
		Description: sub.Description,
		Location:    sub.Location,
		Anonymous:   sub.Anonymous,
		Photo:       sub.Photo,
		CreatedAt:   time.Now(),
	}
	if err := e.store.Add(ctx, rec); err != nil {
		return OutcomeQueued, err
	}

	e.NotifyPending()
	return OutcomeQueued, nil
}

func (sub *Submission) validate() error {
	required := []struct {
		field string
		value string
	}{
		{"title", sub.Title},
		{"category", sub.Category},
		{"description", sub.Description},
		{"location", sub.Location},
	}
	for _, f := range required {
		if strings.TrimSpace(f.value) == "" {
			return &ValidationError{Field: f.field, Reason: "is required"}
		}
	}
	if !fixitapi.ValidCategory(sub.Category) {
		return &ValidationError{Field: "category", Reason: "is not a known category"}
	}
	if sub.Photo != nil && len(sub.Photo.Data) == 0 {
		return &ValidationError{Field: "photo", Reason: "is empty"}
	}
	return nil
}
