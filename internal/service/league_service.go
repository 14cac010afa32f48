package service

import (
	"context"
	"slices"
	"strings"

	"muster/internal/access"
	"muster/internal/cache"
	"muster/internal/charter"
	"muster/internal/models"
	"muster/internal/repository"
	"muster/internal/validation"

	"github.com/jonboulle/clockwork"
)

// LeagueCharters is the charter overview of one league. Charters the actor
// may not see are left out.
type LeagueCharters struct {
	League        *models.League   `json:"league"`
	CharterTypeID uint             `json:"charter_type_id,omitempty"`
	Current       *models.Charter  `json:"current"`
	Upcoming      *models.Charter  `json:"upcoming"`
	Draft         *models.Charter  `json:"draft"`
	Pending       *models.Charter  `json:"pending"`
	Historical    []models.Charter `json:"historical"`
	Approved      []models.Charter `json:"approved"`
}

// LeagueInput holds the fields of a league create or update. An empty Slug is
// derived from Name on create and kept on update. A nil or zero UserID leaves
// the league without an owner.
type LeagueInput struct {
	Name   string `json:"name"`
	Slug   string `json:"slug"`
	UserID *uint  `json:"user_id"`
}

type LeagueService struct {
	leagues  repository.LeagueRepository
	charters repository.CharterRepository
	users    repository.UserRepository
	gate     *access.Gate
	clock    clockwork.Clock
}

func NewLeagueService(
	leagues repository.LeagueRepository,
	charters repository.CharterRepository,
	users repository.UserRepository,
	gate *access.Gate,
	clock clockwork.Clock,
) *LeagueService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if gate == nil {
		gate = access.NewGate(nil, clock)
	}
	return &LeagueService{leagues: leagues, charters: charters, users: users, gate: gate, clock: clock}
}

// Charters derives the league's charter overview, optionally for one charter
// type. A zero typeID covers every type.
func (s *LeagueService) Charters(ctx context.Context, actor access.Actor, slug string, typeID uint) (*LeagueCharters, error) {
	league, err := s.leagues.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if league.IsDeleted() {
		return nil, models.NewNotFoundError("League", slug)
	}

	league.Charters, err = leagueCharters(ctx, s.charters, league.ID)
	if err != nil {
		return nil, models.NewInternalError(err)
	}

	now := s.clock.Now()
	cs := league.Charters
	visible := func(c *models.Charter) *models.Charter {
		if c == nil || !s.gate.Allow(actor, league, c, access.ActionShow) {
			return nil
		}
		return c
	}
	visibleAll := func(list []models.Charter) []models.Charter {
		return slices.DeleteFunc(list, func(c models.Charter) bool {
			return visible(&c) == nil
		})
	}

	return &LeagueCharters{
		League:        league,
		CharterTypeID: typeID,
		Current:       visible(charter.Current(cs, typeID, now)),
		Upcoming:      visible(charter.Upcoming(cs, typeID, now)),
		Draft:         visible(charter.Draft(cs, typeID)),
		Pending:       visible(charter.Pending(cs, typeID)),
		Historical:    visibleAll(charter.Historical(cs, typeID, now)),
		Approved:      visibleAll(charter.Approved(cs, typeID)),
	}, nil
}

// List returns every live league.
func (s *LeagueService) List(ctx context.Context) ([]models.League, error) {
	return s.leagues.List(ctx)
}

// Create stores a new league and assigns its owner.
func (s *LeagueService) Create(ctx context.Context, actor access.Actor, in LeagueInput) (*models.League, error) {
	if !s.gate.Can(actor, access.PermLeagues) {
		return nil, models.NewUnauthorizedError("Insufficient permissions")
	}
	return s.save(ctx, &models.League{}, in)
}

// Update renames a league or changes its owner.
func (s *LeagueService) Update(ctx context.Context, actor access.Actor, slug string, in LeagueInput) (*models.League, error) {
	if !s.gate.Can(actor, access.PermLeagues) {
		return nil, models.NewUnauthorizedError("Insufficient permissions")
	}
	league, err := s.live(ctx, slug)
	if err != nil {
		return nil, err
	}
	return s.save(ctx, league, in)
}

// OwnerCandidates lists the users a league can be given to: everyone who owns
// no league yet, plus the league's current owner. An empty slug lists the
// candidates for a new league.
func (s *LeagueService) OwnerCandidates(ctx context.Context, actor access.Actor, slug string) ([]models.User, error) {
	if !s.gate.Can(actor, access.PermLeagues) {
		return nil, models.NewUnauthorizedError("Insufficient permissions")
	}
	var keep uint
	if slug != "" {
		league, err := s.live(ctx, slug)
		if err != nil {
			return nil, err
		}
		if league.UserID != nil {
			keep = *league.UserID
		}
	}
	users, err := s.users.ListWithoutLeague(ctx, keep)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	return users, nil
}

func (s *LeagueService) live(ctx context.Context, slug string) (*models.League, error) {
	league, err := s.leagues.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if league.IsDeleted() {
		return nil, models.NewNotFoundError("League", slug)
	}
	return league, nil
}

// save validates in and writes it to league, creating it when it has no id.
// A user owns at most one league.
func (s *LeagueService) save(ctx context.Context, league *models.League, in LeagueInput) (*models.League, error) {
	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = league.Name
	}
	slug := strings.ToLower(strings.TrimSpace(in.Slug))
	if slug == "" {
		slug = league.Slug
	}
	if slug == "" {
		slug = validation.Slugify(name)
	}
	var owner *uint
	if in.UserID != nil && *in.UserID != 0 {
		id := *in.UserID
		owner = &id
	}

	fields := map[string]string{}
	if err := validation.ValidateLeagueName(name); err != nil {
		fields["name"] = err.Error()
	}
	if err := validation.ValidateLeagueSlug(slug); err != nil {
		fields["slug"] = err.Error()
	}
	if len(fields) > 0 {
		return nil, models.NewFieldValidationError(fields)
	}

	err := s.leagues.Transaction(ctx, func(tx repository.LeagueRepository) error {
		if slug != league.Slug {
			_, err := tx.GetBySlug(ctx, slug)
			if err == nil {
				fields["slug"] = "The slug has already been taken."
			} else if !models.IsCode(err, models.CodeNotFound) {
				return err
			}
		}
		if owner != nil {
			if err := tx.LockUser(ctx, *owner); err != nil {
				if !models.IsCode(err, models.CodeNotFound) {
					return models.NewInternalError(err)
				}
				fields["user_id"] = "The selected user id is invalid."
			} else if owned, err := tx.GetByOwner(ctx, *owner); err != nil {
				return err
			} else if owned != nil && owned.ID != league.ID {
				fields["user_id"] = "The selected user already owns " + owned.Name + "."
			}
		}
		if len(fields) > 0 {
			return models.NewFieldValidationError(fields)
		}

		if league.ID == 0 {
			league.Name, league.Slug, league.UserID = name, slug, owner
			if err := tx.Create(ctx, league); err != nil {
				return models.NewInternalError(err)
			}
			return nil
		}
		update := map[string]interface{}{"name": name, "slug": slug, "user_id": nil}
		if owner != nil {
			update["user_id"] = *owner
		}
		if err := tx.Update(ctx, league, update); err != nil {
			return models.NewInternalError(err)
		}
		return nil
	})
	if err != nil {
		return nil, asAppError(err)
	}

	cache.InvalidateLeague(ctx, league.ID)
	return s.leagues.GetByID(ctx, league.ID)
}
