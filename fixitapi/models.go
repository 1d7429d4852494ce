// Copyright 2025 FixItMY Authors
// SPDX-License-Identifier: Apache-2.0

package fixitapi

import "time"

// Report categories accepted by the intake endpoint.
const (
	CategoryInfrastructure = "infrastructure"
	CategoryLighting       = "lighting"
	CategorySanitation     = "sanitation"
	CategoryParks          = "parks"
	CategorySafety         = "safety"
)

// Categories lists every accepted report category.
var Categories = []string{
	CategoryInfrastructure,
	CategoryLighting,
	CategorySanitation,
	CategoryParks,
	CategorySafety,
}

// ValidCategory reports whether cat is an accepted report category.
func ValidCategory(cat string) bool {
	for _, c := range Categories {
		if c == cat {
			return true
		}
	}
	return false
}

// CreateReportRequest is the client-side shape of a report/create call.
// IdempotencyKey is the client-generated submission id; the server is
// expected to deduplicate replays on it.
type CreateReportRequest struct {
	IdempotencyKey string
	Title          string
	Category       string
	Description    string
	Location       string
	IsAnonymous    bool
	Photo          *PhotoUpload
}

// PhotoUpload is the optional multipart photo part. Name and ContentType
// are preserved from the originally captured file.
type PhotoUpload struct {
	Name        string
	ContentType string
	Data        []byte
}

// Report is the created-report row returned on success. Only the
// acknowledgement matters to the offline client; the fields are retained
// for display surfaces.
type Report struct {
	ReportID    int64     `json:"report_id"`
	Title       string    `json:"title"`
	Category    string    `json:"category"`
	Description string    `json:"description"`
	Location    string    `json:"location"`
	Status      string    `json:"status"`
	IsAnonymous bool      `json:"is_anonymous"`
	PhotoURL    *string   `json:"photo_url,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
