package model

import (
	"context"
	"errors"
)

// ErrSessionNotFound is returned by SessionStore.Load for unknown sessions.
var ErrSessionNotFound = errors.New("session not found")

type SessionStore interface {
	// Save replaces the stored snapshot of a session.
	Save(ctx context.Context, sessionID string, state *SessionState) error

	// Load returns the stored snapshot or ErrSessionNotFound.
	Load(ctx context.Context, sessionID string) (*SessionState, error)

	// Delete removes a session snapshot.
	Delete(ctx context.Context, sessionID string) error
}
