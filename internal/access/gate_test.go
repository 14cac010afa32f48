package access

import (
	"testing"
	"time"

	"muster/internal/models"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"gorm.io/gorm"
)

var gateNow = time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC)

func ptrTime(t time.Time) *time.Time { return &t }
func ptrUint(v uint) *uint          { return &v }

func fixture() (*models.League, *models.Charter, *models.Charter, *models.Charter) {
	ownerID := uint(10)
	current := models.Charter{
		ID: 1, LeagueID: 1, CharterTypeID: ptrUint(1),
		ApprovalRequestedAt: ptrTime(gateNow.Add(-72 * time.Hour)),
		ApprovedAt:          ptrTime(gateNow.Add(-48 * time.Hour)),
		ActiveFrom:          ptrTime(gateNow.Add(-48 * time.Hour)),
	}
	draft := models.Charter{ID: 2, LeagueID: 1, CharterTypeID: ptrUint(1)}
	pending := models.Charter{ID: 3, LeagueID: 1, CharterTypeID: ptrUint(1), ApprovalRequestedAt: ptrTime(gateNow.Add(-time.Hour))}
	league := &models.League{ID: 1, UserID: &ownerID, Charters: []models.Charter{current, draft, pending}}
	return league, &current, &draft, &pending
}

func TestGate_Allow(t *testing.T) {
	t.Parallel()

	gate := NewGate(nil, clockwork.NewFakeClockAt(gateNow))
	league, current, draft, pending := fixture()
	deleted := *draft
	deleted.DeletedAt = gorm.DeletedAt{Time: gateNow, Valid: true}

	owner := Actor{ID: 10}
	stranger := Actor{ID: 11}
	root := Actor{ID: 1, Roles: []string{models.RoleRoot}}
	staff := Actor{ID: 2, Roles: []string{models.RoleStaff}}
	operator := Actor{ID: 3, Roles: []string{models.RoleOperator}}
	guest := Actor{}

	tests := []struct {
		name    string
		actor   Actor
		charter *models.Charter
		action  Action
		want    bool
	}{
		{"owner creates", owner, nil, ActionCreate, true},
		{"root creates", root, nil, ActionCreate, true},
		{"staff cannot create", staff, nil, ActionCreate, false},
		{"stranger cannot update", stranger, draft, ActionUpdate, false},
		{"owner edits", owner, draft, ActionEdit, true},
		{"owner requests approval", owner, draft, ActionRequestApproval, true},
		{"operator cannot request approval", operator, draft, ActionRequestApproval, false},

		{"owner deletes draft", owner, draft, ActionDelete, true},
		{"owner cannot delete pending", owner, pending, ActionDelete, false},
		{"root deletes pending", root, pending, ActionDelete, true},
		{"owner cannot delete deleted", owner, &deleted, ActionDelete, false},
		{"stranger cannot delete draft", stranger, draft, ActionDelete, false},

		{"guest sees current", guest, current, ActionShow, true},
		{"guest cannot see draft", guest, draft, ActionShow, false},
		{"owner sees draft", owner, draft, ActionShow, true},
		{"staff sees pending", staff, pending, ActionShow, true},
		{"operator sees pending", operator, pending, ActionShow, true},
		{"owner cannot see deleted", owner, &deleted, ActionShow, false},
		{"staff cannot see deleted", staff, &deleted, ActionShow, false},
		{"root sees deleted", root, &deleted, ActionShow, true},
		{"show needs a charter", owner, nil, ActionShow, false},

		{"operator approves", operator, pending, ActionApprove, true},
		{"operator rejects", operator, pending, ActionReject, true},
		{"root approves", root, pending, ActionApprove, true},
		{"owner cannot approve", owner, pending, ActionApprove, false},
		{"staff cannot reject", staff, pending, ActionReject, false},

		{"unknown action", root, draft, Action("publish"), false},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, gate.Allow(tt.actor, league, tt.charter, tt.action))
		})
	}
}

func TestGate_NilLeagueDenies(t *testing.T) {
	t.Parallel()

	gate := NewGate(nil, nil)
	assert.False(t, gate.Allow(Actor{ID: 1, Roles: []string{models.RoleRoot}}, nil, nil, ActionCreate))
}

func TestGate_CurrentFollowsClock(t *testing.T) {
	t.Parallel()

	clock := clockwork.NewFakeClockAt(gateNow)
	gate := NewGate(nil, clock)
	league, current, _, _ := fixture()
	next := models.Charter{
		ID: 4, LeagueID: 1, CharterTypeID: ptrUint(1),
		ApprovalRequestedAt: ptrTime(gateNow.Add(-time.Hour)),
		ApprovedAt:          ptrTime(gateNow.Add(-time.Hour)),
		ActiveFrom:          ptrTime(gateNow.Add(time.Hour)),
	}
	league.Charters = append(league.Charters, next)

	assert.True(t, gate.Allow(Actor{}, league, current, ActionShow))
	assert.False(t, gate.Allow(Actor{}, league, &next, ActionShow))

	clock.Advance(2 * time.Hour)
	assert.False(t, gate.Allow(Actor{}, league, current, ActionShow))
	assert.True(t, gate.Allow(Actor{}, league, &next, ActionShow))
}

func TestActorFromUser(t *testing.T) {
	t.Parallel()

	u := &models.User{ID: 7, Name: "Ref", Email: "ref@example.com", Roles: []models.Role{{Name: "staff"}}}
	a := ActorFromUser(u)
	assert.Equal(t, Actor{ID: 7, Name: "Ref", Email: "ref@example.com", Roles: []string{"staff"}}, a)
	assert.True(t, a.HasRole("staff"))
	assert.False(t, a.Anonymous())
	assert.True(t, ActorFromUser(nil).Anonymous())
}
