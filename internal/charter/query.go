package charter

import (
	"sort"
	"time"

	"muster/internal/models"
)

// HistoryLimit bounds the number of historical charters returned.
const HistoryLimit = 10

// filter keeps the charters of typeID that match keep. typeID 0 matches all.
func filter(cs []models.Charter, typeID uint, keep func(*models.Charter) bool) []models.Charter {
	out := make([]models.Charter, 0, len(cs))
	for i := range cs {
		c := &cs[i]
		if c.IsDeleted() || !c.HasType(typeID) {
			continue
		}
		if keep(c) {
			out = append(out, *c)
		}
	}
	return out
}

// byActiveFromDesc orders approved charters newest first. Ties fall back to
// the higher id.
func byActiveFromDesc(cs []models.Charter) {
	sort.SliceStable(cs, func(i, j int) bool {
		a, b := cs[i].ActiveFrom, cs[j].ActiveFrom
		if !a.Equal(*b) {
			return a.After(*b)
		}
		return cs[i].ID > cs[j].ID
	})
}

// byCreatedDesc orders unapproved charters newest first.
func byCreatedDesc(cs []models.Charter) {
	sort.SliceStable(cs, func(i, j int) bool {
		if !cs[i].CreatedAt.Equal(cs[j].CreatedAt) {
			return cs[i].CreatedAt.After(cs[j].CreatedAt)
		}
		return cs[i].ID > cs[j].ID
	})
}

func first(cs []models.Charter) *models.Charter {
	if len(cs) == 0 {
		return nil
	}
	c := cs[0]
	return &c
}

// Approved returns every charter with an active_from date, newest first.
func Approved(cs []models.Charter, typeID uint) []models.Charter {
	out := filter(cs, typeID, func(c *models.Charter) bool {
		return c.ActiveFrom != nil
	})
	byActiveFromDesc(out)
	return out
}

// Current returns the newest approved charter already in effect at now.
func Current(cs []models.Charter, typeID uint, now time.Time) *models.Charter {
	return first(active(cs, typeID, now))
}

// Upcoming returns the approved charter with the latest active_from after now.
func Upcoming(cs []models.Charter, typeID uint, now time.Time) *models.Charter {
	out := filter(cs, typeID, func(c *models.Charter) bool {
		return c.ActiveFrom != nil && c.ActiveFrom.After(now)
	})
	byActiveFromDesc(out)
	return first(out)
}

// Historical returns the approved charters in effect at now that have been
// superseded by the current one, newest first and at most HistoryLimit.
func Historical(cs []models.Charter, typeID uint, now time.Time) []models.Charter {
	out := active(cs, typeID, now)
	if len(out) <= 1 {
		return []models.Charter{}
	}
	out = out[1:]
	if len(out) > HistoryLimit {
		out = out[:HistoryLimit]
	}
	return out
}

// Draft returns the newest charter that was neither submitted nor approved.
func Draft(cs []models.Charter, typeID uint) *models.Charter {
	out := filter(cs, typeID, func(c *models.Charter) bool {
		return c.ActiveFrom == nil && c.ApprovalRequestedAt == nil
	})
	byCreatedDesc(out)
	return first(out)
}

// Pending returns the newest charter awaiting review.
func Pending(cs []models.Charter, typeID uint) *models.Charter {
	out := filter(cs, typeID, func(c *models.Charter) bool {
		return c.ActiveFrom == nil && c.ApprovalRequestedAt != nil
	})
	byCreatedDesc(out)
	return first(out)
}

func active(cs []models.Charter, typeID uint, now time.Time) []models.Charter {
	out := filter(cs, typeID, func(c *models.Charter) bool {
		return c.ActiveFrom != nil && !c.ActiveFrom.After(now)
	})
	byActiveFromDesc(out)
	return out
}
