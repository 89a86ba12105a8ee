// Package tenant carries the caller identity every billing operation is scoped to.
package tenant

import (
	"errors"

	"github.com/yukikurage/case-billing-api/internal/models"
)

// ErrNoScope is returned when an operation is invoked without an organization.
var ErrNoScope = errors.New("no organization scope")

// Scope is the authenticated caller as resolved from the session.
// Every read is filtered by OrganizationID and every write is stamped with it.
type Scope struct {
	UserID         uint64
	OrganizationID uint64
	Role           models.OrganizationRole
}

// Validate reports whether the scope identifies both a user and an organization.
func (s Scope) Validate() error {
	if s.UserID == 0 || s.OrganizationID == 0 {
		return ErrNoScope
	}
	return nil
}

// IsOwner reports whether the caller owns the organization.
func (s Scope) IsOwner() bool {
	return s.Role == models.RoleOwner
}
