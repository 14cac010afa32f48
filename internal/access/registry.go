package access

import (
	"sort"
	"strings"

	"muster/internal/models"
)

// Permissions checked by the gate.
const (
	PermApprove = "charters.approve"
	PermView    = "charters.view"
	PermDelete  = "charters.delete"
	PermRoles   = "roles.assign"
	PermLeagues = "leagues.manage"
)

// Registry maps role names to permission patterns.
//
// Supported patterns:
//   - "*" matches every permission
//   - "charters.*" matches every action on charters
//   - "*.view" matches the view action on every resource
//   - "charters.view" matches exactly
type Registry struct {
	roles map[string][]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{roles: make(map[string][]string)}
}

// DefaultRegistry returns the roles the application ships with.
func DefaultRegistry() *Registry {
	return NewRegistry().
		Define(models.RoleRoot, "*").
		Define(models.RoleOperator, PermApprove, PermView).
		Define(models.RoleStaff, PermView)
}

// Define sets the permission patterns of role, replacing earlier ones.
func (r *Registry) Define(role string, patterns ...string) *Registry {
	r.roles[role] = append([]string(nil), patterns...)
	return r
}

// Permissions returns the patterns granted to role.
func (r *Registry) Permissions(role string) []string {
	return r.roles[role]
}

// Roles returns the defined role names in sorted order.
func (r *Registry) Roles() []string {
	names := make([]string, 0, len(r.roles))
	for name := range r.roles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Defined reports whether role is known to the registry.
func (r *Registry) Defined(role string) bool {
	_, ok := r.roles[role]
	return ok
}

// Grants reports whether any of roles carries permission.
func (r *Registry) Grants(roles []string, permission string) bool {
	for _, role := range roles {
		if MatchAny(r.roles[role], permission) {
			return true
		}
	}
	return false
}

// Match reports whether pattern covers permission.
func Match(pattern, permission string) bool {
	if pattern == permission || pattern == "*" {
		return true
	}

	patternParts := strings.Split(pattern, ".")
	permParts := strings.Split(permission, ".")
	if len(patternParts) != len(permParts) {
		return false
	}

	for i, pp := range patternParts {
		if pp == "*" {
			continue
		}
		if pp != permParts[i] {
			return false
		}
	}
	return true
}

// MatchAny reports whether any pattern covers permission.
func MatchAny(patterns []string, permission string) bool {
	for _, pattern := range patterns {
		if Match(pattern, permission) {
			return true
		}
	}
	return false
}
