// Package profiles stores per-user profile bags: the user's email plus the
// access-token fields cached for them.
package profiles

import (
	"context"
	"errors"
)

// EmailField is the profile field holding the user's email.
const EmailField = "email"

var ErrNotFound = errors.New("profiles: profile not found")

type Store interface {
	// Get returns all fields of the user's profile.
	Get(ctx context.Context, userID string) (map[string]string, error)
	// Set writes all fields in one atomic operation. The profile must exist.
	Set(ctx context.Context, userID string, fields map[string]string) error
}
