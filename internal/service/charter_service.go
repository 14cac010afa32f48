package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"muster/internal/access"
	"muster/internal/cache"
	"muster/internal/charter"
	"muster/internal/featureflags"
	"muster/internal/models"
	"muster/internal/notifications"
	"muster/internal/observability"
	"muster/internal/repository"
	"muster/internal/roster"
	"muster/internal/validation"

	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"go.opentelemetry.io/otel/attribute"
)

const maxSlugBase = 64

// CharterInput holds the form fields of a charter create, update or review.
type CharterInput struct {
	CharterTypeID *uint
	Name          string
	ActiveFrom    *time.Time
}

// CharterView is a charter prepared for display. When the league has been
// deleted only Message and Redirect are set.
type CharterView struct {
	Message      string               `json:"message,omitempty"`
	Redirect     string               `json:"redirect,omitempty"`
	League       *models.League       `json:"league,omitempty"`
	Charter      *models.Charter      `json:"charter,omitempty"`
	State        *charter.State       `json:"state,omitempty"`
	CharterTypes []models.CharterType `json:"charter_types,omitempty"`
}

type CharterService struct {
	leagues  repository.LeagueRepository
	charters repository.CharterRepository
	types    repository.CharterTypeRepository
	gate     *access.Gate
	parsers  *roster.Factory
	flags    *featureflags.Manager
	notifier LifecycleNotifier
	auditor  *Auditor
	clock    clockwork.Clock
}

func NewCharterService(
	leagues repository.LeagueRepository,
	charters repository.CharterRepository,
	types repository.CharterTypeRepository,
	gate *access.Gate,
	flags *featureflags.Manager,
	notifier LifecycleNotifier,
	auditor *Auditor,
	clock clockwork.Clock,
) *CharterService {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	if gate == nil {
		gate = access.NewGate(nil, clock)
	}
	return &CharterService{
		leagues:  leagues,
		charters: charters,
		types:    types,
		gate:     gate,
		parsers:  roster.NewFactory(),
		flags:    flags,
		notifier: notifier,
		auditor:  auditor,
		clock:    clock,
	}
}

// Types lists the charter types, through the cache.
func (s *CharterService) Types(ctx context.Context) ([]models.CharterType, error) {
	return cache.Remember(ctx, cache.CharterTypesKey, cache.CharterTypesTTL, func() ([]models.CharterType, error) {
		return s.types.List(ctx)
	})
}

// Create stores a new draft charter with the uploaded roster.
func (s *CharterService) Create(ctx context.Context, actor access.Actor, leagueSlug string, in CharterInput, up *Upload) (*Result, error) {
	league, err := s.activeLeague(ctx, leagueSlug)
	if err != nil {
		return nil, err
	}
	if !s.gate.Allow(actor, league, nil, access.ActionCreate) {
		return nil, models.NewNotFoundError("League", leagueSlug)
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = s.clock.Now().Format(time.DateOnly)
	}

	var skaters []models.Skater
	if err = s.validateForm(ctx, in, name, up); err == nil {
		skaters, err = s.parseRoster(actor, up)
	}
	if err != nil {
		s.count(access.ActionCreate, err)
		return nil, err
	}

	c := &models.Charter{
		LeagueID:      league.ID,
		CharterTypeID: in.CharterTypeID,
		Name:          name,
		Slug:          newSlug(name),
	}
	err = s.transaction(ctx, access.ActionCreate, league, func(tx repository.CharterRepository) error {
		if err := tx.LockLeague(ctx, league.ID); err != nil {
			return err
		}
		if err := s.checkConflict(ctx, tx, c, charter.Draft); err != nil {
			return err
		}
		if err := tx.Create(ctx, c); err != nil {
			return models.NewInternalError(err)
		}
		return tx.ReplaceSkaters(ctx, c.ID, skaters)
	})
	if err != nil {
		s.count(access.ActionCreate, err)
		return nil, asAppError(err)
	}

	s.committed(ctx, actor, league, c, access.ActionCreate, AuditStored)
	return &Result{
		Message:  "Charter " + c.Name + " has been created",
		Redirect: charterPath(league, c),
		Changed:  true,
		Charter:  c,
	}, nil
}

// Update changes the name and type of a charter and replaces its roster.
func (s *CharterService) Update(ctx context.Context, actor access.Actor, leagueSlug, charterSlug string, in CharterInput, up *Upload) (*Result, error) {
	league, c, err := s.load(ctx, actor, leagueSlug, charterSlug, access.ActionUpdate)
	if err != nil {
		return nil, err
	}
	if c.ApprovedAt != nil {
		return s.unchanged(access.ActionUpdate, league, c, charter.AlreadyApproved), nil
	}

	name := strings.TrimSpace(in.Name)
	if name == "" {
		name = c.Name
	}
	var skaters []models.Skater
	if err = s.validateForm(ctx, in, name, up); err == nil {
		skaters, err = s.parseRoster(actor, up)
	}
	if err != nil {
		s.count(access.ActionUpdate, err)
		return nil, err
	}

	err = s.transaction(ctx, access.ActionUpdate, league, func(tx repository.CharterRepository) error {
		if err := tx.LockLeague(ctx, league.ID); err != nil {
			return err
		}
		locked, err := tx.GetBySlug(ctx, league.ID, c.Slug, false)
		if err != nil {
			return err
		}
		locked.CharterTypeID = in.CharterTypeID
		if locked.ApprovalRequestedAt != nil {
			err = s.checkConflict(ctx, tx, locked, charter.Pending)
		} else {
			err = s.checkConflict(ctx, tx, locked, charter.Draft)
		}
		if err != nil {
			return err
		}
		if err := tx.Update(ctx, locked, map[string]interface{}{
			"name":            name,
			"charter_type_id": in.CharterTypeID,
		}); err != nil {
			return models.NewInternalError(err)
		}
		c = locked
		return tx.ReplaceSkaters(ctx, c.ID, skaters)
	})
	if err != nil {
		s.count(access.ActionUpdate, err)
		return nil, asAppError(err)
	}

	c.Name = name
	s.committed(ctx, actor, league, c, access.ActionUpdate, AuditUpdated)
	return &Result{
		Message:  "Charter " + c.Name + " has been updated",
		Redirect: charterPath(league, c),
		Changed:  true,
		Charter:  c,
	}, nil
}

// RequestApproval submits a draft charter for review.
func (s *CharterService) RequestApproval(ctx context.Context, actor access.Actor, leagueSlug, charterSlug string) (*Result, error) {
	league, c, err := s.load(ctx, actor, leagueSlug, charterSlug, access.ActionRequestApproval)
	if err != nil {
		return nil, err
	}
	if t := charter.CanRequestApproval(c); !t.Allowed() {
		return s.unchanged(access.ActionRequestApproval, league, c, t), nil
	}

	now := s.clock.Now()
	verdict := charter.Allowed
	err = s.transaction(ctx, access.ActionRequestApproval, league, func(tx repository.CharterRepository) error {
		if err := tx.LockLeague(ctx, league.ID); err != nil {
			return err
		}
		locked, err := tx.GetBySlug(ctx, league.ID, c.Slug, false)
		if err != nil {
			return err
		}
		if verdict = charter.CanRequestApproval(locked); !verdict.Allowed() {
			return nil
		}
		if err := s.checkConflict(ctx, tx, locked, charter.Pending); err != nil {
			return err
		}
		if err := tx.Update(ctx, locked, map[string]interface{}{"approval_requested_at": now}); err != nil {
			return models.NewInternalError(err)
		}
		c = locked
		return nil
	})
	if err != nil {
		s.count(access.ActionRequestApproval, err)
		return nil, asAppError(err)
	}
	if !verdict.Allowed() {
		return s.unchanged(access.ActionRequestApproval, league, c, verdict), nil
	}

	c.ApprovalRequestedAt = &now
	s.committed(ctx, actor, league, c, access.ActionRequestApproval, AuditRequestedApproval)
	if s.notifier != nil {
		s.notifier.CharterSubmitted(ctx, notifications.CharterNotice{League: league, Charter: c, Actor: actor})
	}
	return &Result{
		Message:  "Charter " + c.Name + " has been submitted for approval",
		Redirect: charterPath(league, c),
		Changed:  true,
		Charter:  c,
	}, nil
}

// Approve accepts a pending charter. ActiveFrom defaults to now.
func (s *CharterService) Approve(ctx context.Context, actor access.Actor, leagueSlug, charterSlug string, in CharterInput) (*Result, error) {
	now := s.clock.Now()
	activeFrom := now
	if in.ActiveFrom != nil {
		activeFrom = *in.ActiveFrom
	}
	fields := map[string]interface{}{"approved_at": now, "active_from": activeFrom}

	res, err := s.review(ctx, actor, leagueSlug, charterSlug, access.ActionApprove, in, fields)
	if err != nil || !res.Changed {
		return res, err
	}

	res.Charter.ApprovedAt = &now
	res.Charter.ActiveFrom = &activeFrom
	res.Message = "Charter " + res.Charter.Name + " has been approved"
	return res, nil
}

// Reject returns a pending charter to draft.
func (s *CharterService) Reject(ctx context.Context, actor access.Actor, leagueSlug, charterSlug string, in CharterInput) (*Result, error) {
	fields := map[string]interface{}{"approval_requested_at": nil}

	res, err := s.review(ctx, actor, leagueSlug, charterSlug, access.ActionReject, in, fields)
	if err != nil || !res.Changed {
		return res, err
	}

	res.Charter.ApprovalRequestedAt = nil
	res.Message = "Charter " + res.Charter.Name + " has been rejected!"
	return res, nil
}

func (s *CharterService) review(
	ctx context.Context,
	actor access.Actor,
	leagueSlug, charterSlug string,
	action access.Action,
	in CharterInput,
	fields map[string]interface{},
) (*Result, error) {
	league, c, err := s.load(ctx, actor, leagueSlug, charterSlug, action)
	if err != nil {
		return nil, err
	}
	if t := charter.CanReview(c); !t.Allowed() {
		return s.unchanged(action, league, c, t), nil
	}

	if name := strings.TrimSpace(in.Name); name != "" {
		if err := validation.ValidateCharterName(name); err != nil {
			return nil, models.NewFieldValidationError(map[string]string{"name": err.Error()})
		}
		fields["name"] = name
	}

	verdict := charter.Allowed
	err = s.transaction(ctx, action, league, func(tx repository.CharterRepository) error {
		if err := tx.LockLeague(ctx, league.ID); err != nil {
			return err
		}
		locked, err := tx.GetBySlug(ctx, league.ID, c.Slug, false)
		if err != nil {
			return err
		}
		if verdict = charter.CanReview(locked); !verdict.Allowed() {
			return nil
		}
		// A rejected charter becomes a draft again.
		if action == access.ActionReject {
			if err := s.checkConflict(ctx, tx, locked, charter.Draft); err != nil {
				return err
			}
		}
		if err := tx.Update(ctx, locked, fields); err != nil {
			return models.NewInternalError(err)
		}
		c = locked
		return nil
	})
	if err != nil {
		s.count(action, err)
		return nil, asAppError(err)
	}
	if !verdict.Allowed() {
		return s.unchanged(action, league, c, verdict), nil
	}

	if name, ok := fields["name"].(string); ok {
		c.Name = name
	}
	notice := notifications.CharterNotice{League: league, Charter: c, Actor: actor}
	if action == access.ActionApprove {
		s.committed(ctx, actor, league, c, action, AuditApproved)
		if s.notifier != nil {
			s.notifier.CharterApproved(ctx, notice)
		}
	} else {
		s.committed(ctx, actor, league, c, action, AuditRejected)
		if s.notifier != nil {
			s.notifier.CharterRejected(ctx, notice)
		}
	}
	return &Result{Redirect: charterPath(league, c), Changed: true, Charter: c}, nil
}

// Delete soft-deletes a charter. Requested, approved and deleted charters can
// only be deleted by root.
func (s *CharterService) Delete(ctx context.Context, actor access.Actor, leagueSlug, charterSlug string) (*Result, error) {
	league, err := s.activeLeague(ctx, leagueSlug)
	if err != nil {
		return nil, err
	}
	c, err := s.charters.GetBySlug(ctx, league.ID, charterSlug, true)
	if err != nil {
		return nil, err
	}
	if !s.gate.Allow(actor, league, c, access.ActionDelete) {
		return nil, models.NewNotFoundError("Charter", charterSlug)
	}

	changed := false
	err = s.transaction(ctx, access.ActionDelete, league, func(tx repository.CharterRepository) error {
		if err := tx.LockLeague(ctx, league.ID); err != nil {
			return err
		}
		locked, err := tx.GetBySlug(ctx, league.ID, charterSlug, true)
		if err != nil {
			return err
		}
		// The charter may have been submitted since the first check.
		if !s.gate.Allow(actor, league, locked, access.ActionDelete) {
			return models.NewNotFoundError("Charter", charterSlug)
		}
		c = locked
		if locked.IsDeleted() {
			return nil
		}
		if err := tx.Delete(ctx, locked.ID); err != nil {
			return models.NewInternalError(err)
		}
		changed = true
		return nil
	})
	if err != nil {
		s.count(access.ActionDelete, err)
		return nil, asAppError(err)
	}

	res := &Result{
		Message:  "Charter " + c.Name + " has been deleted",
		Redirect: leaguePath(league),
		Charter:  c,
		Changed:  changed,
	}
	if !changed {
		observability.CharterTransitions.WithLabelValues(string(access.ActionDelete), "unchanged").Inc()
		return res, nil
	}
	s.committed(ctx, actor, league, c, access.ActionDelete, AuditDeleted)
	return res, nil
}

// Show loads a charter with its roster. Soft-deleted charters are included
// for actors allowed to see them.
func (s *CharterService) Show(ctx context.Context, actor access.Actor, leagueSlug, charterSlug string) (*CharterView, error) {
	league, err := s.leagues.GetBySlug(ctx, leagueSlug)
	if err != nil {
		return nil, err
	}
	if league.IsDeleted() {
		return &CharterView{
			Message:  "League has been deleted, charters can no longer be viewed!",
			Redirect: leaguePath(league),
		}, nil
	}

	c, err := s.charters.GetBySlug(ctx, league.ID, charterSlug, true)
	if err != nil {
		return nil, err
	}
	if league.Charters, err = leagueCharters(ctx, s.charters, league.ID); err != nil {
		return nil, models.NewInternalError(err)
	}
	if !s.gate.Allow(actor, league, c, access.ActionShow) {
		return nil, models.NewNotFoundError("Charter", charterSlug)
	}

	return &CharterView{
		League:  league,
		Charter: c,
		State:   s.stateOf(league, c),
	}, nil
}

// Edit loads a charter and the charter types for its edit form.
func (s *CharterService) Edit(ctx context.Context, actor access.Actor, leagueSlug, charterSlug string) (*CharterView, error) {
	league, c, err := s.load(ctx, actor, leagueSlug, charterSlug, access.ActionEdit)
	if err != nil {
		return nil, err
	}
	types, err := s.Types(ctx)
	if err != nil {
		return nil, models.NewInternalError(err)
	}
	if league.Charters, err = leagueCharters(ctx, s.charters, league.ID); err != nil {
		return nil, models.NewInternalError(err)
	}
	return &CharterView{
		League:       league,
		Charter:      c,
		State:        s.stateOf(league, c),
		CharterTypes: types,
	}, nil
}

func (s *CharterService) stateOf(league *models.League, c *models.Charter) *charter.State {
	var typeID uint
	if c.CharterTypeID != nil {
		typeID = *c.CharterTypeID
	}
	now := s.clock.Now()
	state := charter.StateOf(c, charter.Current(league.Charters, typeID, now), now)
	return &state
}

// activeLeague loads a league that has not been deleted.
func (s *CharterService) activeLeague(ctx context.Context, slug string) (*models.League, error) {
	league, err := s.leagues.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if league.IsDeleted() {
		return nil, models.NewNotFoundError("League", slug)
	}
	return league, nil
}

// load resolves a live league and charter and checks the gate for action.
func (s *CharterService) load(ctx context.Context, actor access.Actor, leagueSlug, charterSlug string, action access.Action) (*models.League, *models.Charter, error) {
	league, err := s.activeLeague(ctx, leagueSlug)
	if err != nil {
		return nil, nil, err
	}
	c, err := s.charters.GetBySlug(ctx, league.ID, charterSlug, false)
	if err != nil {
		return nil, nil, err
	}
	if !s.gate.Allow(actor, league, c, action) {
		return nil, nil, models.NewNotFoundError("Charter", charterSlug)
	}
	return league, c, nil
}

func (s *CharterService) validateForm(ctx context.Context, in CharterInput, name string, up *Upload) error {
	fields := map[string]string{}
	if in.CharterTypeID == nil || *in.CharterTypeID == 0 {
		fields["charter_type_id"] = "The charter type id field is required."
	} else if _, err := s.types.GetByID(ctx, *in.CharterTypeID); err != nil {
		if !models.IsCode(err, models.CodeNotFound) {
			return err
		}
		fields["charter_type_id"] = "The selected charter type id is invalid."
	}
	if up == nil || up.Reader == nil || up.Filename == "" {
		fields["csv"] = "The csv field is required."
	}
	if err := validation.ValidateCharterName(name); err != nil {
		fields["name"] = err.Error()
	}
	if len(fields) > 0 {
		return models.NewFieldValidationError(fields)
	}
	return nil
}

// parseRoster reads the whole upload before anything is written, so a bad
// file never leaves a half-saved charter behind.
func (s *CharterService) parseRoster(actor access.Actor, up *Upload) ([]models.Skater, error) {
	format, err := roster.FormatOf(up.Filename)
	if err == nil && format == roster.FormatXLSX && !s.flags.Enabled(featureflags.XLSXRosters, actor.ID) {
		err = roster.ErrUnsupportedFormat
	}
	if err != nil {
		return nil, models.NewFieldValidationError(map[string]string{
			"csv": "The csv must be a file of type: " + strings.Join(s.acceptedTypes(actor), ", ") + ".",
		})
	}

	parser, err := s.parsers.GetParser(up.Filename)
	if err != nil {
		return nil, models.NewRosterParseError(err)
	}
	parsed, err := parser.Parse(up.Reader)
	if err != nil {
		observability.RosterParseFailures.WithLabelValues(string(format)).Inc()
		return nil, models.NewRosterParseError(err)
	}

	skaters := make([]models.Skater, len(parsed))
	for i, p := range parsed {
		skaters[i] = models.Skater{Name: p.Name, Number: p.Number}
	}
	return skaters, nil
}

func (s *CharterService) acceptedTypes(actor access.Actor) []string {
	types := []string{"csv", "txt"}
	if s.flags.Enabled(featureflags.XLSXRosters, actor.ID) {
		types = append(types, "xlsx")
	}
	return types
}

// checkConflict enforces at most one charter per league and type in the
// state selected by pick, other than c itself. It must run under LockLeague.
func (s *CharterService) checkConflict(ctx context.Context, tx repository.CharterRepository, c *models.Charter, pick func([]models.Charter, uint) *models.Charter) error {
	existing, err := tx.ListByLeague(ctx, c.LeagueID)
	if err != nil {
		return models.NewInternalError(err)
	}
	var sameType []models.Charter
	for _, e := range existing {
		if e.ID != c.ID && typeOf(&e) == typeOf(c) {
			sameType = append(sameType, e)
		}
	}
	if other := pick(sameType, 0); other != nil {
		return models.NewValidationError("Charter " + other.Name + " of this type is already in progress for the league")
	}
	return nil
}

func typeOf(c *models.Charter) uint {
	if c.CharterTypeID == nil {
		return 0
	}
	return *c.CharterTypeID
}

func (s *CharterService) unchanged(action access.Action, league *models.League, c *models.Charter, t charter.Transition) *Result {
	observability.CharterTransitions.WithLabelValues(string(action), "unchanged").Inc()
	return &Result{
		Message:  t.Message(c.Name),
		Redirect: charterPath(league, c),
		Charter:  c,
	}
}

// transaction runs fn in a traced database transaction.
func (s *CharterService) transaction(ctx context.Context, action access.Action, league *models.League, fn func(tx repository.CharterRepository) error) error {
	ctx, span := observability.StartSpan(ctx, "charter."+string(action),
		attribute.String("league.slug", league.Slug))
	err := s.charters.Transaction(ctx, fn)
	observability.EndSpan(span, err)
	return err
}

// committed runs the side effects shared by every successful mutation.
func (s *CharterService) committed(ctx context.Context, actor access.Actor, league *models.League, c *models.Charter, action access.Action, audit string) {
	cache.InvalidateLeague(ctx, league.ID)
	s.auditor.Record(ctx, actor, audit, c)
	observability.CharterTransitions.WithLabelValues(string(action), "changed").Inc()
}

func (s *CharterService) count(action access.Action, err error) {
	outcome := "failed"
	if models.IsCode(err, models.CodeValidation) || models.IsCode(err, models.CodeRosterParse) {
		outcome = "rejected"
	}
	observability.CharterTransitions.WithLabelValues(string(action), outcome).Inc()
}

func newSlug(name string) string {
	base := validation.Slugify(name)
	if len(base) > maxSlugBase {
		base = strings.Trim(base[:maxSlugBase], "-")
	}
	return base + "-" + uuid.NewString()[:8]
}

// asAppError leaves AppErrors alone and wraps anything else as internal.
func asAppError(err error) error {
	var appErr *models.AppError
	if errors.As(err, &appErr) {
		return err
	}
	return models.NewInternalError(err)
}
