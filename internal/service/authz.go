// Package service holds the business rules between HTTP handlers and repositories.
package service

import (
	"context"
)

// RoleCheck reports whether the user holds a privileged role. Handlers inject
// checks that re-read roles from the store.
type RoleCheck func(ctx context.Context, userID uint) (bool, error)

// ensureOwnerOr allows the owner through, otherwise defers to check.
func ensureOwnerOr(ctx context.Context, check RoleCheck, ownerID, actorID uint) (bool, error) {
	if ownerID == actorID {
		return true, nil
	}
	if check == nil {
		return false, nil
	}
	return check(ctx, actorID)
}

func pageOffset(page, limit int) int {
	if page < 1 {
		page = 1
	}
	return (page - 1) * limit
}
