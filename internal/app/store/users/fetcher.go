package userstore

import (
	"context"

	"github.com/dalemusser/admitportal/internal/app/system/auth"
	"github.com/dalemusser/admitportal/internal/app/system/idgen"
	"github.com/dalemusser/admitportal/internal/app/system/timeouts"
)

// Fetcher implements auth.UserFetcher so every request sees the user's
// current role and active flag rather than what was cached in the cookie.
type Fetcher struct {
	users *Store
}

// NewFetcher creates a UserFetcher backed by s.
func NewFetcher(s *Store) *Fetcher {
	return &Fetcher{users: s}
}

// FetchUser returns nil if the user is unknown, disabled, or cannot be read.
func (f *Fetcher) FetchUser(ctx context.Context, userID string) *auth.SessionUser {
	oid, ok := idgen.ParseHex(userID)
	if !ok {
		return nil
	}

	ctx, cancel := context.WithTimeout(ctx, timeouts.Short())
	defer cancel()

	u, err := f.users.GetByID(ctx, oid)
	if err != nil || !u.IsActive {
		return nil
	}
	return &auth.SessionUser{
		ID:    u.ID.Hex(),
		Name:  u.FullName,
		Email: u.Email,
		Role:  u.Role,
	}
}
