// Package authz decides whether a caller may act on a target user.
// Checks are fail-closed: every mutating service method runs one of
// them before touching storage.
package authz

import (
	"errors"
)

var (
	ErrLoginRequired = errors.New("login required")
	ErrForbidden     = errors.New("forbidden")
)

// Caller is the authenticated identity performing a request. The zero
// value means "not logged in". It is passed explicitly into every
// service call; there is no ambient current-user lookup.
type Caller struct {
	ID      int64
	IsAdmin bool
}

func (c Caller) IsZero() bool {
	return c.ID == 0
}

// CanActSelfOrAdmin permits an action when the caller is the target
// user or holds admin rights.
func CanActSelfOrAdmin(caller Caller, targetUserID int64) error {
	if caller.IsZero() {
		return ErrLoginRequired
	}
	if !caller.IsAdmin && caller.ID != targetUserID {
		return ErrForbidden
	}
	return nil
}

// RequireAdmin permits an action only for admin callers.
func RequireAdmin(caller Caller) error {
	if caller.IsZero() {
		return ErrLoginRequired
	}
	if !caller.IsAdmin {
		return ErrForbidden
	}
	return nil
}
