// Package aggregate holds the mutation rules for the Post and Profile
// aggregates: likes, comments, experience and education entries, and the
// profile upsert.
//
// Every function here is a pure transformation. It receives the aggregate
// by value, never modifies the slices it was given, and returns the new
// state or a domain error from internal/apperror. Loading and persisting
// the aggregate is the caller's job (see internal/service), which keeps
// these rules testable without a database.
package aggregate

import (
	"github.com/rs/xid"

	"github.com/sakif/devconnector/internal/apperror"
)

// newID returns a fresh sortable identifier for nested entities.
func newID() string {
	return xid.New().String()
}

// prepend returns a new slice with v at index 0 followed by s.
func prepend[T any](s []T, v T) []T {
	out := make([]T, 0, len(s)+1)
	out = append(out, v)
	return append(out, s...)
}

// without returns a copy of s with every element matching drop removed,
// and whether anything was removed.
func without[T any](s []T, drop func(T) bool) ([]T, bool) {
	out := make([]T, 0, len(s))
	removed := false
	for _, v := range s {
		if drop(v) {
			removed = true
			continue
		}
		out = append(out, v)
	}
	return out, removed
}

// AssertOwner fails with Unauthorized unless the actor owns the resource.
func AssertOwner(resourceOwnerID, actingUserID string) error {
	if resourceOwnerID == "" || resourceOwnerID != actingUserID {
		return apperror.Unauthorized("user not authorized")
	}
	return nil
}
