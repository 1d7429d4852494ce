// Copyright 2025 FixItMY Authors
// SPDX-License-Identifier: Apache-2.0

package offline

import (
	"errors"
	"fmt"
)

var errTokenUnavailable = errors.New("session token unavailable")

// ValidationError reports a submission field that failed validation.
// It is returned before anything reaches the store or the network.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid submission: %s %s", e.Field, e.Reason)
}

// DuplicateKeyError reports an insert with an id already present in the
// store. With UUID ids this should never happen; callers treat it the same
// as a StorageError.
type DuplicateKeyError struct {
	ID string
}

func (e *DuplicateKeyError) Error() string {
	return fmt.Sprintf("pending submission %s already queued", e.ID)
}

// StorageError wraps a failure of the local persistence layer. The
// submission flow must survive it: the caller reports "could not guarantee
// offline save" instead of crashing.
type StorageError struct {
	Op  string
	Err error
}

func (e *StorageError) Error() string {
	return fmt.Sprintf("offline store %s: %v", e.Op, e.Err)
}

func (e *StorageError) Unwrap() error { return e.Err }

// NetworkError wraps a failed remote call (transport error or non-2xx).
// Records affected by it stay pending; it is never a hard failure for the
// user beyond "pending".
type NetworkError struct {
	Op  string
	Err error
}

func (e *NetworkError) Error() string {
	return fmt.Sprintf("remote %s: %v", e.Op, e.Err)
}

func (e *NetworkError) Unwrap() error { return e.Err }
