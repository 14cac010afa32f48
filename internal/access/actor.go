// Package access decides who may do what with a league's charters.
package access

import (
	"slices"

	"muster/internal/models"
)

// Actor is the authenticated user a request acts for. The zero Actor is an
// anonymous visitor.
type Actor struct {
	ID    uint     `json:"id"`
	Email string   `json:"email"`
	Name  string   `json:"name"`
	Roles []string `json:"roles"`
}

// ActorFromUser builds an Actor from a user loaded with its roles.
func ActorFromUser(u *models.User) Actor {
	if u == nil {
		return Actor{}
	}
	return Actor{ID: u.ID, Email: u.Email, Name: u.Name, Roles: u.RoleNames()}
}

// Anonymous reports whether no user is attached.
func (a Actor) Anonymous() bool {
	return a.ID == 0
}

// HasRole reports whether the actor holds role.
func (a Actor) HasRole(role string) bool {
	return slices.Contains(a.Roles, role)
}

// Owns reports whether the actor owns the league.
func (a Actor) Owns(l *models.League) bool {
	return l != nil && l.IsOwnedBy(a.ID)
}
