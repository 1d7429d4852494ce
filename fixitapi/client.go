// Package fixitapi is the HTTP client for the FixItMY report API. It
// covers only the surface the offline client needs: report creation and
// the health endpoint used for reachability probing.
//
// Copyright 2025 FixItMY Authors
// SPDX-License-Identifier: Apache-2.0

package fixitapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"strconv"
	"strings"
	"time"
)

// Client talks to the report API.
type Client struct {
	BaseURL string
	HTTP    *http.Client
	logger  *slog.Logger
}

// NewClient creates a report API client for the given base URL.
func NewClient(baseURL string, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		HTTP:    &http.Client{Timeout: 120 * time.Second}, // photo uploads on slow links
		logger:  logger,
	}
}

// HealthURL returns the endpoint a connectivity prober should poll.
func (c *Client) HealthURL() string {
	return c.BaseURL + "/healthz"
}

// APIError is a non-2xx response from the report API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("server returned status %d: %s", e.StatusCode, e.Body)
}

// CreateReport submits a report as a multipart form with the given bearer
// token. Any transport error or non-2xx status is returned as an error;
// the caller treats all of them uniformly as "this record stays pending".
func (c *Client) CreateReport(ctx context.Context, token string, req CreateReportRequest) (*Report, error) {
	var body bytes.Buffer
	writer := multipart.NewWriter(&body)

	fields := map[string]string{
		"title":        req.Title,
		"category":     req.Category,
		"description":  req.Description,
		"location":     req.Location,
		"is_anonymous": strconv.FormatBool(req.IsAnonymous),
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, fmt.Errorf("failed to write form field %s: %w", name, err)
		}
	}

	if req.Photo != nil {
		part, err := createPhotoPart(writer, req.Photo)
		if err != nil {
			return nil, err
		}
		if _, err := part.Write(req.Photo.Data); err != nil {
			return nil, fmt.Errorf("failed to write photo part: %w", err)
		}
	}

	if err := writer.Close(); err != nil {
		return nil, fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+"/report/create", &body)
	if err != nil {
		return nil, fmt.Errorf("failed to create HTTP request: %w", err)
	}
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())
	httpReq.Header.Set("Authorization", "Bearer "+token)
	if req.IdempotencyKey != "" {
		httpReq.Header.Set("X-Idempotency-Key", req.IdempotencyKey)
	}

	resp, err := c.HTTP.Do(httpReq)
	if err != nil {
		return nil, fmt.Errorf("failed to send HTTP request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, &APIError{StatusCode: resp.StatusCode, Body: string(respBody)}
	}

	// The 2xx status is the acknowledgement; a body that fails to decode
	// must not turn a confirmed write into a retry.
	var report Report
	if err := json.NewDecoder(resp.Body).Decode(&report); err != nil {
		c.logger.Debug("ignoring undecodable create-report body", "error", err)
		return &Report{}, nil
	}
	return &report, nil
}

// createPhotoPart builds a file part that preserves the original filename
// and MIME type instead of the application/octet-stream default.
func createPhotoPart(writer *multipart.Writer, photo *PhotoUpload) (io.Writer, error) {
	header := make(textproto.MIMEHeader)
	header.Set("Content-Disposition",
		fmt.Sprintf(`form-data; name="photo"; filename="%s"`, escapeQuotes(photo.Name)))
	contentType := photo.ContentType
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	header.Set("Content-Type", contentType)

	part, err := writer.CreatePart(header)
	if err != nil {
		return nil, fmt.Errorf("failed to create photo part: %w", err)
	}
	return part, nil
}

var quoteEscaper = strings.NewReplacer("\\", "\\\\", `"`, "\\\"")

func escapeQuotes(s string) string {
	return quoteEscaper.Replace(s)
}
