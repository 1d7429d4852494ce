// Copyright 2025 FixItMY Authors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// Session is the client-side holder of the current bearer token. The
// token itself is issued by the external session provider; the client only
// inspects expiry to decide whether it can still be presented, it never
// verifies the signature (it does not have the secret).
type Session struct {
	mu        sync.RWMutex
	token     string
	expiresAt time.Time
}

// NewSession creates an empty session (no token available).
func NewSession() *Session {
	return &Session{}
}

// SetToken installs a bearer token, recording its exp claim if present.
func (s *Session) SetToken(token string) error {
	var expiresAt time.Time

	parsed, _, err := jwt.NewParser().ParseUnverified(token, &jwt.RegisteredClaims{})
	if err != nil {
		return fmt.Errorf("failed to parse session token: %w", err)
	}
	if claims, ok := parsed.Claims.(*jwt.RegisteredClaims); ok && claims.ExpiresAt != nil {
		expiresAt = claims.ExpiresAt.Time
	}

	s.mu.Lock()
	s.token = token
	s.expiresAt = expiresAt
	s.mu.Unlock()
	return nil
}

// Clear drops the current token (sign-out).
func (s *Session) Clear() {
	s.mu.Lock()
	s.token = ""
	s.expiresAt = time.Time{}
	s.mu.Unlock()
}

// Token implements the offline client's token source: it returns the
// current token, or an error when none is installed or the installed one
// has expired.
func (s *Session) Token(_ context.Context) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.token == "" {
		return "", fmt.Errorf("no session token")
	}
	if !s.expiresAt.IsZero() && time.Now().After(s.expiresAt) {
		return "", fmt.Errorf("session token expired at %s", s.expiresAt.Format(time.RFC3339))
	}
	return s.token, nil
}
