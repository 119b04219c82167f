// ABOUTME: Single-flight coordination of access token refreshes
// ABOUTME: Concurrent callers for the same key share one in-flight refresh call

package services

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"

	"golang.org/x/sync/singleflight"
)

// ErrRefreshRejected is returned when the refresh call completed but did not
// produce a new access token.
var ErrRefreshRejected = errors.New("refresh rejected")

// RefreshFunc performs one refresh network call and returns the new access token.
type RefreshFunc func(ctx context.Context) (string, error)

// RefreshResult is the outcome observed by one caller.
type RefreshResult struct {
	AccessToken string
	Err         error
	// Shared is true when the outcome was delivered to more than one caller.
	Shared bool
}

// OK reports whether the refresh produced a new access token.
func (r RefreshResult) OK() bool {
	return r.Err == nil && r.AccessToken != ""
}

// RefreshCoordinator ensures at most one refresh call is outstanding per key.
// Once a flight resolves it is forgotten, so the next caller starts afresh.
// A single instance is meant to be shared by the whole process.
type RefreshCoordinator struct {
	group singleflight.Group
}

// NewRefreshCoordinator creates a coordinator.
func NewRefreshCoordinator() *RefreshCoordinator {
	return &RefreshCoordinator{}
}

// AcquireOrJoin starts fn for key, or joins the refresh already running for it.
// fn runs detached from the caller's cancellation so that one impatient
// caller cannot fail the flight for everyone else; fn is expected to bound
// itself with its own timeout. A caller whose ctx ends stops waiting.
func (c *RefreshCoordinator) AcquireOrJoin(ctx context.Context, key string, fn RefreshFunc) RefreshResult {
	detached := context.WithoutCancel(ctx)
	ch := c.group.DoChan(key, func() (interface{}, error) {
		token, err := fn(detached)
		if err == nil && token == "" {
			err = ErrRefreshRejected
		}
		return token, err
	})

	select {
	case res := <-ch:
		token, _ := res.Val.(string)
		return RefreshResult{AccessToken: token, Err: res.Err, Shared: res.Shared}
	case <-ctx.Done():
		return RefreshResult{Err: ctx.Err()}
	}
}

// SessionKey derives a coordination key from a refresh token without keeping
// the token itself in memory as a map key.
func SessionKey(refreshToken string) string {
	sum := sha256.Sum256([]byte(refreshToken))
	return hex.EncodeToString(sum[:])
}
