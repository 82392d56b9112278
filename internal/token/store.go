// Package token obtains, caches and refreshes per-user learner access tokens.
package token

import (
	"context"
	"crypto/sha512"
	"encoding/hex"
	"strconv"
	"time"

	"go.uber.org/zap"

	"cpwidget/pkg/profiles"
)

// Profile field prefixes; the suffix is Key(refreshToken).
const (
	accessTokenField = "accessToken_"
	expiresInField   = "expiresIn_"
)

// Token is an access token and its buffer-adjusted expiry in epoch millis.
type Token struct {
	AccessToken     string
	ExpiresAtMillis int64
}

// Key derives the storage key from a refresh token. Rotating the refresh
// token orphans tokens cached under the old key.
func Key(refreshToken string) string {
	sum := sha512.Sum512([]byte(refreshToken))
	return hex.EncodeToString(sum[:])
}

// Store keeps tokens in the user's profile.
type Store struct {
	profiles profiles.Store
	log      *zap.SugaredLogger
	now      func() time.Time
}

func NewStore(p profiles.Store, log *zap.SugaredLogger, now func() time.Time) *Store {
	if now == nil {
		now = time.Now
	}
	return &Store{profiles: p, log: log, now: now}
}

// Cached returns the stored token unless it is missing, malformed or expired.
func (s *Store) Cached(ctx context.Context, userID, refreshToken string) (Token, bool) {
	p, err := s.profiles.Get(ctx, userID)
	if err != nil {
		s.log.Debugw("token lookup: profile unavailable", "user", userID, "err", err)
		return Token{}, false
	}
	key := Key(refreshToken)
	access, expiry := p[accessTokenField+key], p[expiresInField+key]
	if access == "" || expiry == "" {
		return Token{}, false
	}
	exp, err := strconv.ParseInt(expiry, 10, 64)
	if err != nil {
		s.log.Warnw("token lookup: bad expiry", "user", userID, "value", expiry)
		return Token{}, false
	}
	if s.now().UnixMilli() > exp {
		return Token{}, false
	}
	return Token{AccessToken: access, ExpiresAtMillis: exp}, true
}

// Save writes token and expiry together. It reports false when the profile
// cannot be resolved or written; any previously cached token is left as is.
func (s *Store) Save(ctx context.Context, userID, refreshToken string, tok Token) bool {
	key := Key(refreshToken)
	err := s.profiles.Set(ctx, userID, map[string]string{
		accessTokenField + key: tok.AccessToken,
		expiresInField + key:   strconv.FormatInt(tok.ExpiresAtMillis, 10),
	})
	if err != nil {
		s.log.Errorw("unable to store access token", "user", userID, "err", err)
		return false
	}
	return true
}
