// Package offline implements the FixItMY offline submission client:
// a durable SQLite-backed queue for report submissions captured without
// connectivity, a connectivity monitor, and a sync engine that replays
// queued submissions against the report API once connectivity and a
// session token are available.
//
// Copyright 2025 FixItMY Authors
// SPDX-License-Identifier: Apache-2.0

package offline

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/mattn/go-sqlite3"
)

// PendingSubmission is a report captured while offline, awaiting upload.
// Records are append-only: created at capture time, deleted only after the
// server has acknowledged the replay, never mutated in between.
type PendingSubmission struct {
	ID          string
	Title       string
	Category    string
	Description string
	Location    string
	Anonymous   bool
	Photo       *Photo
	CreatedAt   time.Time
}

// Photo is a persistable image payload. Raw bytes plus the original
// filename and MIME type, so the multipart part can be reconstructed
// byte-identical after an app restart.
type Photo struct {
	Name string
	MIME string
	Data []byte
}

// Store is the durable local queue of pending submissions. Every operation
// is transactional at single-record granularity, so the capture path and a
// running sync pass can touch it concurrently.
type Store struct {
	db     *sql.DB
	logger *slog.Logger
}

// OpenStore opens (creating if needed) the queue database at path.
func OpenStore(path string, logger *slog.Logger) (*Store, error) {
	db, err := sql.Open("sqlite3", path)
	if err != nil {
		return nil, &StorageError{Op: "open", Err: err}
	}
	store, err := NewStore(db, logger)
	if err != nil {
		db.Close()
		return nil, err
	}
	return store, nil
}

// NewStore wraps an existing SQLite handle and creates the queue schema.
func NewStore(db *sql.DB, logger *slog.Logger) (*Store, error) {
	if logger == nil {
		logger = slog.Default()
	}
	if err := initializeStore(db); err != nil {
		return nil, &StorageError{Op: "init", Err: err}
	}
	return &Store{db: db, logger: logger}, nil
}

func initializeStore(db *sql.DB) error {
	if _, err := db.Exec(`PRAGMA journal_mode=WAL`); err != nil {
		return fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	_, err := db.Exec(`CREATE TABLE IF NOT EXISTS _pending_reports (
		id           TEXT PRIMARY KEY,         -- client-generated UUID, doubles as idempotency key
		title        TEXT NOT NULL,
		category     TEXT NOT NULL,
		description  TEXT NOT NULL,
		location     TEXT NOT NULL,
		is_anonymous INTEGER NOT NULL DEFAULT 0,
		photo        BLOB,
		photo_name   TEXT,
		photo_type   TEXT,
		created_at   TEXT NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("failed to create pending reports table: %w", err)
	}
	return nil
}

// Close closes the underlying database handle.
func (s *Store) Close() error {
	return s.db.Close()
}

// Add inserts a new pending submission. An id collision surfaces as
// DuplicateKeyError, any other persistence failure as StorageError.
func (s *Store) Add(ctx context.Context, rec PendingSubmission) error {
	var photo, photoName, photoType any
	if rec.Photo != nil {
		photo = rec.Photo.Data
		photoName = rec.Photo.Name
		photoType = rec.Photo.MIME
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO _pending_reports (id, title, category, description, location, is_anonymous, photo, photo_name, photo_type, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`, rec.ID, rec.Title, rec.Category, rec.Description, rec.Location,
		boolToInt(rec.Anonymous), photo, photoName, photoType,
		rec.CreatedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		var sqliteErr sqlite3.Error
		if errors.As(err, &sqliteErr) &&
			(sqliteErr.ExtendedCode == sqlite3.ErrConstraintPrimaryKey ||
				sqliteErr.ExtendedCode == sqlite3.ErrConstraintUnique) {
			return &DuplicateKeyError{ID: rec.ID}
		}
		return &StorageError{Op: "add", Err: err}
	}

	s.logger.Debug("queued pending report", "id", rec.ID, "title", rec.Title)
	return nil
}

// GetAll returns every stored submission in insertion order. An empty
// queue yields an empty slice, not an error.
func (s *Store) GetAll(ctx context.Context) ([]PendingSubmission, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT id, title, category, description, location, is_anonymous, photo, photo_name, photo_type, created_at
		FROM _pending_reports
		ORDER BY rowid
	`)
	if err != nil {
		return nil, &StorageError{Op: "getAll", Err: err}
	}
	defer rows.Close()

	var pending []PendingSubmission
	for rows.Next() {
		var rec PendingSubmission
		var anonymous int
		var photo []byte
		var photoName, photoType sql.NullString
		var createdAt string

		if err := rows.Scan(&rec.ID, &rec.Title, &rec.Category, &rec.Description, &rec.Location,
			&anonymous, &photo, &photoName, &photoType, &createdAt); err != nil {
			return nil, &StorageError{Op: "getAll", Err: err}
		}

		rec.Anonymous = anonymous != 0
		if photo != nil {
			rec.Photo = &Photo{
				Name: photoName.String,
				MIME: photoType.String,
				Data: photo,
			}
		}
		if ts, err := time.Parse(time.RFC3339Nano, createdAt); err == nil {
			rec.CreatedAt = ts
		}
		pending = append(pending, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, &StorageError{Op: "getAll", Err: err}
	}
	return pending, nil
}

// Remove deletes the submission with the given id. Removing an absent id
// succeeds silently; removal races with a concurrent sync pass must not
// throw.
func (s *Store) Remove(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM _pending_reports WHERE id = ?`, id); err != nil {
		return &StorageError{Op: "remove", Err: err}
	}
	return nil
}

// Count returns the number of stored submissions without materializing
// photo payloads.
func (s *Store) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM _pending_reports`).Scan(&count); err != nil {
		return 0, &StorageError{Op: "count", Err: err}
	}
	return count, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
