// AngelaMos | 2026
// policy.go

// Package access holds the authorization predicates every mutating
// operation evaluates before touching the store.
package access

import (
	"fmt"

	"github.com/carterperez-dev/articles-api/internal/core"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

// Actor is the authenticated caller of an operation.
type Actor struct {
	ID   string
	Role string
}

func (a Actor) IsAuthenticated() bool {
	return a.ID != ""
}

func (a Actor) IsAdmin() bool {
	return a.Role == RoleAdmin
}

// RequireAuthenticated rejects anonymous callers.
func RequireAuthenticated(actor Actor) error {
	if !actor.IsAuthenticated() {
		return core.UnauthorizedError("")
	}
	return nil
}

// CanMutateArticle allows only the article owner. Admins get no override.
func CanMutateArticle(actor Actor, ownerID string) error {
	if err := RequireAuthenticated(actor); err != nil {
		return err
	}
	if actor.ID != ownerID {
		return core.ForbiddenError("only the author can modify this article")
	}
	return nil
}

func CanManageUsers(actor Actor) error {
	if err := RequireAuthenticated(actor); err != nil {
		return err
	}
	if !actor.IsAdmin() {
		return core.ForbiddenError("only administrators can manage users")
	}
	return nil
}

func CanMutateUser(actor Actor, targetID string) error {
	if err := RequireAuthenticated(actor); err != nil {
		return err
	}
	if actor.IsAdmin() || actor.ID == targetID {
		return nil
	}
	return core.ForbiddenError("you cannot modify this user")
}

// CanAssignRole guards role changes, including an actor's own role.
func CanAssignRole(actor Actor, role string) error {
	if err := CanManageUsers(actor); err != nil {
		return core.ForbiddenError("only administrators can change roles")
	}
	if role != RoleUser && role != RoleAdmin {
		return core.ValidationError(
			fmt.Sprintf("unknown role %q", role),
			map[string]string{"role": "must be one of: user admin"},
		)
	}
	return nil
}
