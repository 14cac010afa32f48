// Package charter holds the charter lifecycle rules and the derivations that
// pick a league's current, upcoming, historical, draft and pending charters.
//
// The lifecycle state of a charter is never stored. It follows from three
// timestamps (approval_requested_at, approved_at, active_from) and the soft
// delete marker, and everything outside this package asks StateOf or one of
// the guards instead of inspecting the timestamps.
package charter

import (
	"fmt"
	"time"

	"muster/internal/models"
)

// State is the derived lifecycle state of a charter.
type State int

const (
	StateDraft State = iota
	StatePending
	StateUpcoming
	StateCurrent
	StateHistorical
	StateDeleted
)

var stateNames = map[State]string{
	StateDraft:      "draft",
	StatePending:    "pending",
	StateUpcoming:   "upcoming",
	StateCurrent:    "current",
	StateHistorical: "historical",
	StateDeleted:    "deleted",
}

func (s State) String() string {
	if name, ok := stateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("state(%d)", int(s))
}

// MarshalText lets State render as its name in JSON payloads.
func (s State) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// StateOf computes the state of c at now. current is the league's current
// charter of the same type, or nil when none is known; an approved and active
// charter that is not current is historical.
func StateOf(c *models.Charter, current *models.Charter, now time.Time) State {
	switch {
	case c.IsDeleted():
		return StateDeleted
	case c.ApprovedAt != nil:
		if c.ActiveFrom == nil || c.ActiveFrom.After(now) {
			return StateUpcoming
		}
		if current == nil || current.ID == c.ID {
			return StateCurrent
		}
		return StateHistorical
	case c.ApprovalRequestedAt != nil:
		return StatePending
	default:
		return StateDraft
	}
}

// Transition is the verdict of a lifecycle guard.
type Transition int

const (
	Allowed Transition = iota
	AlreadyApproved
	AlreadyRequested
	NotSubmitted
)

// Allowed reports whether the guarded transition may proceed.
func (t Transition) Allowed() bool {
	return t == Allowed
}

// Message is the informational text shown when a transition is refused.
func (t Transition) Message(charterName string) string {
	switch t {
	case AlreadyApproved:
		return fmt.Sprintf("Charter %s has already been approved!", charterName)
	case AlreadyRequested:
		return fmt.Sprintf("You have already requested approval for charter %s!", charterName)
	case NotSubmitted:
		return fmt.Sprintf("Charter %s has not been submitted for approval!", charterName)
	default:
		return ""
	}
}

// CanRequestApproval guards Draft -> Pending.
func CanRequestApproval(c *models.Charter) Transition {
	if c.ApprovedAt != nil {
		return AlreadyApproved
	}
	if c.ApprovalRequestedAt != nil {
		return AlreadyRequested
	}
	return Allowed
}

// CanReview guards Pending -> Approved and Pending -> Draft (rejection).
func CanReview(c *models.Charter) Transition {
	if c.ApprovedAt != nil {
		return AlreadyApproved
	}
	if c.ApprovalRequestedAt == nil {
		return NotSubmitted
	}
	return Allowed
}

// Locked reports whether c is past the point where its owner may delete it.
// Only root may delete a locked charter.
func Locked(c *models.Charter) bool {
	return c.IsDeleted() || c.ApprovalRequestedAt != nil
}

// Editable reports whether the roster of c may still be replaced.
func Editable(c *models.Charter) bool {
	return !c.IsDeleted() && c.ApprovedAt == nil
}
