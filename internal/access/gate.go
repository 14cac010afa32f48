package access

import (
	"github.com/jonboulle/clockwork"

	"muster/internal/charter"
	"muster/internal/models"
)

// Action names a charter operation subject to the gate.
type Action string

const (
	ActionCreate          Action = "create"
	ActionShow            Action = "show"
	ActionEdit            Action = "edit"
	ActionUpdate          Action = "update"
	ActionDelete          Action = "delete"
	ActionRequestApproval Action = "request-approval"
	ActionApprove         Action = "approve"
	ActionReject          Action = "reject"
)

// Gate is a pure allow/deny predicate. Callers turn a denial into a not found
// response so that restricted charters cannot be told apart from missing ones.
type Gate struct {
	registry *Registry
	clock    clockwork.Clock
}

// NewGate creates a gate over registry. A nil registry uses DefaultRegistry,
// a nil clock the wall clock.
func NewGate(registry *Registry, clock clockwork.Clock) *Gate {
	if registry == nil {
		registry = DefaultRegistry()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Gate{registry: registry, clock: clock}
}

// Registry returns the role registry the gate checks permissions against.
func (g *Gate) Registry() *Registry {
	return g.registry
}

// Can reports whether the actor's roles grant permission.
func (g *Gate) Can(a Actor, permission string) bool {
	return g.registry.Grants(a.Roles, permission)
}

// Allow decides whether a may perform action on c within league. c may be nil
// for league-scoped actions such as create. For show, league.Charters must
// hold the league's charters so the current one can be recognised.
func (g *Gate) Allow(a Actor, league *models.League, c *models.Charter, action Action) bool {
	if league == nil {
		return false
	}
	manager := a.Owns(league) || a.HasRole(models.RoleRoot)

	switch action {
	case ActionCreate, ActionEdit, ActionUpdate, ActionRequestApproval:
		return manager
	case ActionDelete:
		if c != nil && charter.Locked(c) {
			return a.HasRole(models.RoleRoot)
		}
		return manager
	case ActionShow:
		if c == nil {
			return false
		}
		if c.IsDeleted() && !g.Can(a, PermDelete) {
			return false
		}
		return g.isCurrent(league, c) || a.Owns(league) || a.HasRole(models.RoleStaff) || a.HasRole(models.RoleRoot) || g.Can(a, PermView)
	case ActionApprove, ActionReject:
		return g.Can(a, PermApprove)
	default:
		return false
	}
}

func (g *Gate) isCurrent(league *models.League, c *models.Charter) bool {
	if c.IsDeleted() {
		return false
	}
	var typeID uint
	if c.CharterTypeID != nil {
		typeID = *c.CharterTypeID
	}
	current := charter.Current(league.Charters, typeID, g.clock.Now())
	return current != nil && current.ID == c.ID
}
