package auth

import (
	"context"
	"fmt"
)

// AdminCheckerInterface abstracts the admin membership test for mocking.
type AdminCheckerInterface interface {
	IsAdmin(ctx context.Context, userID int64) (bool, error)
}

// AdminChecker answers whether a user id belongs to the configured
// administrator set. The set is fixed at startup; there is no remote lookup.
type AdminChecker struct {
	admins map[int64]bool
}

// NewAdminChecker creates a new AdminChecker from the configured id list.
// It requires at least one administrator.
func NewAdminChecker(adminIDs []int64) (*AdminChecker, error) {
	if len(adminIDs) == 0 {
		return nil, fmt.Errorf("administrator id list cannot be empty")
	}
	admins := make(map[int64]bool, len(adminIDs))
	for _, id := range adminIDs {
		admins[id] = true
	}
	return &AdminChecker{admins: admins}, nil
}

// IsAdmin reports whether userID is a configured administrator.
// The error return exists only to satisfy the interface shared with
// transport-backed implementations.
func (ac *AdminChecker) IsAdmin(_ context.Context, userID int64) (bool, error) {
	return ac.admins[userID], nil
}
