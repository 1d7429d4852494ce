// Copyright 2025 FixItMY Authors
// SPDX-License-Identifier: Apache-2.0

package main

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"

	"github.com/Joyanne05/fixit-my/fixitapi"
	"github.com/Joyanne05/fixit-my/internal/auth"
)

// Server is an in-memory report intake service for local development. It
// implements the boundary the offline client depends on: multipart report
// creation behind bearer auth, idempotency-key deduplication, and a health
// endpoint for reachability probes.
type Server struct {
	jwtAuth *auth.JWTAuth
	logger  *slog.Logger

	mu           sync.Mutex
	nextReportID int64
	reports      []storedReport
	byIdemKey    map[string]*storedReport
	photos       map[string][]byte // photo id -> raw bytes
}

type storedReport struct {
	fixitapi.Report
	CreatedBy string `json:"created_by"`
	PhotoID   string `json:"-"`
}

// NewServer creates an intake server that accepts tokens signed with
// secret.
func NewServer(secret string, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		jwtAuth:      auth.NewJWTAuth(secret),
		logger:       logger,
		nextReportID: 1,
		byIdemKey:    make(map[string]*storedReport),
		photos:       make(map[string][]byte),
	}
}

// Handler returns the HTTP routes.
func (s *Server) Handler() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealth)
	r.Post("/auth/token", s.handleMintToken)
	r.Get("/photos/{id}", s.handlePhoto)

	r.Group(func(r chi.Router) {
		r.Use(s.jwtAuth.Middleware)
		r.Post("/report/create", s.handleCreateReport)
		r.Get("/report/list", s.handleListReports)
	})

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	w.Write([]byte("ok"))
}

// handleMintToken issues a development bearer token. The production system
// gets its tokens from the external session provider instead.
func (s *Server) handleMintToken(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("user")
	if userID == "" {
		userID = uuid.NewString()
	}
	token, err := s.jwtAuth.GenerateToken(userID, 24*time.Hour)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"access_token": token, "user_id": userID})
}

func (s *Server) handleCreateReport(w http.ResponseWriter, r *http.Request) {
	userID, _ := auth.GetUserID(r.Context())

	// Replays of an already-processed submission return the original row
	// instead of creating a duplicate.
	idemKey := r.Header.Get("X-Idempotency-Key")
	if idemKey != "" {
		s.mu.Lock()
		existing := s.byIdemKey[idemKey]
		s.mu.Unlock()
		if existing != nil {
			s.logger.Info("deduplicated replayed submission", "idempotency_key", idemKey,
				"report_id", existing.ReportID)
			writeJSON(w, http.StatusOK, existing)
			return
		}
	}

	if err := r.ParseMultipartForm(32 << 20); err != nil {
		http.Error(w, fmt.Sprintf("invalid multipart form: %v", err), http.StatusBadRequest)
		return
	}

	title := r.FormValue("title")
	category := r.FormValue("category")
	description := r.FormValue("description")
	location := r.FormValue("location")
	isAnonymous, _ := strconv.ParseBool(r.FormValue("is_anonymous"))

	for field, value := range map[string]string{
		"title": title, "category": category, "description": description, "location": location,
	} {
		if value == "" {
			http.Error(w, fmt.Sprintf("missing required field: %s", field), http.StatusUnprocessableEntity)
			return
		}
	}
	if !fixitapi.ValidCategory(category) {
		http.Error(w, "unknown category: "+category, http.StatusUnprocessableEntity)
		return
	}

	var photoURL *string
	var photoID string
	if file, header, err := r.FormFile("photo"); err == nil {
		defer file.Close()
		data, err := io.ReadAll(file)
		if err != nil {
			http.Error(w, "failed to read photo", http.StatusInternalServerError)
			return
		}
		photoID = uuid.NewString()
		s.mu.Lock()
		s.photos[photoID] = data
		s.mu.Unlock()
		url := "/photos/" + photoID
		photoURL = &url
		s.logger.Debug("stored report photo", "photo_id", photoID,
			"name", header.Filename, "bytes", len(data))
	}

	s.mu.Lock()
	report := storedReport{
		Report: fixitapi.Report{
			ReportID:    s.nextReportID,
			Title:       title,
			Category:    category,
			Description: description,
			Location:    location,
			Status:      "open",
			IsAnonymous: isAnonymous,
			PhotoURL:    photoURL,
			CreatedAt:   time.Now().UTC(),
		},
		CreatedBy: userID,
		PhotoID:   photoID,
	}
	s.nextReportID++
	s.reports = append(s.reports, report)
	if idemKey != "" {
		s.byIdemKey[idemKey] = &s.reports[len(s.reports)-1]
	}
	s.mu.Unlock()

	s.logger.Info("report created", "report_id", report.ReportID, "title", title, "user", userID)
	writeJSON(w, http.StatusCreated, report)
}

func (s *Server) handleListReports(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	reports := make([]storedReport, len(s.reports))
	copy(reports, s.reports)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, reports)
}

func (s *Server) handlePhoto(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	s.mu.Lock()
	data, ok := s.photos[id]
	s.mu.Unlock()
	if !ok {
		http.NotFound(w, r)
		return
	}
	w.Write(data)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
