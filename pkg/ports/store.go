package ports

import "context"

// SessionStore persists encoded navigation stacks.
// The engine owns the encoding; stores only move bytes.
type SessionStore interface {
	// Save persists the blob for a given session key.
	Save(ctx context.Context, key string, blob []byte) error

	// Load retrieves the blob for a given session key.
	// Returns domain.ErrSessionNotFound if the session does not exist.
	Load(ctx context.Context, key string) ([]byte, error)

	// Delete removes the blob for a given session key.
	Delete(ctx context.Context, key string) error

	// List returns the keys of every persisted session.
	List(ctx context.Context) ([]string, error)
}
