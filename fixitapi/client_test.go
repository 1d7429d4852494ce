// Copyright 2025 FixItMY Authors
// SPDX-License-Identifier: Apache-2.0

package fixitapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCreateReportMultipartAssembly(t *testing.T) {
	var gotAuth, gotKey string
	var gotFields map[string]string
	var gotPhoto []byte
	var gotPhotoName, gotPhotoType string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/report/create", r.URL.Path)
		gotAuth = r.Header.Get("Authorization")
		gotKey = r.Header.Get("X-Idempotency-Key")

		require.NoError(t, r.ParseMultipartForm(1<<20))
		gotFields = map[string]string{}
		for name, values := range r.MultipartForm.Value {
			gotFields[name] = values[0]
		}

		file, header, err := r.FormFile("photo")
		require.NoError(t, err)
		defer file.Close()
		gotPhoto, err = io.ReadAll(file)
		require.NoError(t, err)
		gotPhotoName = header.Filename
		gotPhotoType = header.Header.Get("Content-Type")

		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(Report{ReportID: 42, Status: "open"})
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	photo := []byte{0x89, 0x50, 0x4E, 0x47}
	report, err := client.CreateReport(context.Background(), "tok-123", CreateReportRequest{
		IdempotencyKey: "sub-1",
		Title:          "Pothole",
		Category:       CategoryInfrastructure,
		Description:    "Deep one",
		Location:       "Elm St",
		IsAnonymous:    true,
		Photo:          &PhotoUpload{Name: "img.png", ContentType: "image/png", Data: photo},
	})
	require.NoError(t, err)
	require.Equal(t, int64(42), report.ReportID)

	require.Equal(t, "Bearer tok-123", gotAuth)
	require.Equal(t, "sub-1", gotKey)
	require.Equal(t, map[string]string{
		"title":        "Pothole",
		"category":     "infrastructure",
		"description":  "Deep one",
		"location":     "Elm St",
		"is_anonymous": "true",
	}, gotFields)
	require.Equal(t, photo, gotPhoto)
	require.Equal(t, "img.png", gotPhotoName)
	require.Equal(t, "image/png", gotPhotoType)
}

func TestCreateReportWithoutPhoto(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseMultipartForm(1<<20))
		_, _, err := r.FormFile("photo")
		require.ErrorIs(t, err, http.ErrMissingFile)
		w.WriteHeader(http.StatusCreated)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	_, err := client.CreateReport(context.Background(), "tok", CreateReportRequest{
		Title:       "Trash pileup",
		Category:    CategorySanitation,
		Description: "Overflowing bins",
		Location:    "Market square",
	})
	require.NoError(t, err)
}

func TestCreateReportNon2xxIsAnError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	_, err := client.CreateReport(context.Background(), "tok", CreateReportRequest{
		Title:       "x",
		Category:    CategoryParks,
		Description: "y",
		Location:    "z",
	})
	require.Error(t, err)

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusBadGateway, apiErr.StatusCode)
}

func TestCreateReportAcknowledgementSurvivesBadBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("not json"))
	}))
	defer server.Close()

	client := NewClient(server.URL, nil)
	report, err := client.CreateReport(context.Background(), "tok", CreateReportRequest{
		Title:       "x",
		Category:    CategorySafety,
		Description: "y",
		Location:    "z",
	})
	require.NoError(t, err)
	require.NotNil(t, report)
}

func TestValidCategory(t *testing.T) {
	for _, c := range Categories {
		require.True(t, ValidCategory(c))
	}
	require.False(t, ValidCategory(""))
	require.False(t, ValidCategory("Infrastructure")) // case-sensitive wire value
}
