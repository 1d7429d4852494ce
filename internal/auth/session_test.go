// Copyright 2025 FixItMY Authors
// SPDX-License-Identifier: Apache-2.0

package auth

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSessionTokenLifecycle(t *testing.T) {
	jwtAuth := NewJWTAuth("test-secret")
	session := NewSession()
	ctx := context.Background()

	// Empty session yields no token.
	_, err := session.Token(ctx)
	require.Error(t, err)

	token, err := jwtAuth.GenerateToken("user-1", time.Hour)
	require.NoError(t, err)
	require.NoError(t, session.SetToken(token))

	got, err := session.Token(ctx)
	require.NoError(t, err)
	require.Equal(t, token, got)

	session.Clear()
	_, err = session.Token(ctx)
	require.Error(t, err)
}

func TestSessionRejectsExpiredToken(t *testing.T) {
	jwtAuth := NewJWTAuth("test-secret")
	session := NewSession()

	token, err := jwtAuth.GenerateToken("user-1", -time.Minute)
	require.NoError(t, err)
	require.NoError(t, session.SetToken(token))

	_, err = session.Token(context.Background())
	require.Error(t, err)
	require.Contains(t, err.Error(), "expired")
}

func TestSessionRejectsGarbageToken(t *testing.T) {
	session := NewSession()
	require.Error(t, session.SetToken("not-a-jwt"))
}

func TestValidateToken(t *testing.T) {
	jwtAuth := NewJWTAuth("test-secret")

	token, err := jwtAuth.GenerateToken("user-1", time.Hour)
	require.NoError(t, err)

	userID, err := jwtAuth.ValidateToken(token)
	require.NoError(t, err)
	require.Equal(t, "user-1", userID)

	// Wrong secret fails.
	_, err = NewJWTAuth("other-secret").ValidateToken(token)
	require.Error(t, err)

	// Expired token fails verification outright.
	expired, err := jwtAuth.GenerateToken("user-1", -time.Minute)
	require.NoError(t, err)
	_, err = jwtAuth.ValidateToken(expired)
	require.Error(t, err)
}
