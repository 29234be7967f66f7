package cache

import (
	"context"
	"errors"
	"time"

	"gostore/internal/models"
)

// ErrUnavailable is returned when the backing store cannot be reached.
// Callers on the authentication path treat it as "unauthenticated" rather
// than surfacing an internal error.
var ErrUnavailable = errors.New("session cache unavailable")

// Store holds active sessions as a pair of mappings sharing one TTL:
// token -> user snapshot (password excluded) and user ID -> current token.
// The reverse mapping lets login reuse an existing unexpired token instead
// of minting a new one, and logout invalidate both entries at once. The TTL
// is the sole expiry mechanism; both entries of a session are always written
// and deleted together.
type Store interface {
	// Put stores both mappings with the given TTL, overwriting any prior
	// session for the same token or user.
	Put(ctx context.Context, token string, user *models.User, ttl time.Duration) error

	// GetUser returns the snapshot stored for token, or nil if the token is
	// absent or expired.
	GetUser(ctx context.Context, token string) (*models.User, error)

	// GetToken returns the currently valid token for a user, or "" if none.
	GetToken(ctx context.Context, userID string) (string, error)

	// Delete removes both mappings of a session. Deleting an absent session
	// is not an error.
	Delete(ctx context.Context, token, userID string) error

	// Exists reports whether either mapping of a session is still present.
	// Used to verify that logout fully invalidated a session.
	Exists(ctx context.Context, token, userID string) (bool, error)
}
