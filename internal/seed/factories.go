package seed

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"muster/internal/charter"
	"muster/internal/models"
	"muster/internal/repository"
	"muster/internal/validation"

	"github.com/brianvoe/gofakeit/v6"
	"github.com/google/uuid"
	"github.com/jonboulle/clockwork"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// DefaultPassword is the password of every seeded account.
const DefaultPassword = "password123"

var leagueSuffixes = []string{"Rollers", "Roller Derby", "Derby Dames", "Rollergirls", "Roller Derby League"}

// Factory builds domain entities and persists them to the database.
// It is a thin helper used by the seeder and tests.
type Factory struct {
	faker    *gofakeit.Faker
	clock    clockwork.Clock
	opts     Options
	users    repository.UserRepository
	leagues  repository.LeagueRepository
	charters repository.CharterRepository
}

// NewFactory creates a new Factory bound to the provided Gorm DB. A zero
// opts.Seed picks a random seed.
func NewFactory(db *gorm.DB, opts Options, clock clockwork.Clock) *Factory {
	seed := opts.Seed
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &Factory{
		faker:    gofakeit.New(seed),
		clock:    clock,
		opts:     opts,
		users:    repository.NewUserRepository(db),
		leagues:  repository.NewLeagueRepository(db),
		charters: repository.NewCharterRepository(db),
	}
}

func (f *Factory) password() (string, error) {
	if f.opts.SkipBcrypt {
		return DefaultPassword, nil
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(DefaultPassword), bcrypt.DefaultCost)
	if err != nil {
		return "", err
	}
	return string(hash), nil
}

// CreateUser constructs and persists a sample user. Optional override
// functions may modify the generated user before saving.
func (f *Factory) CreateUser(ctx context.Context, overrides ...func(*models.User)) (*models.User, error) {
	password, err := f.password()
	if err != nil {
		return nil, err
	}
	first, last := f.faker.FirstName(), f.faker.LastName()
	user := &models.User{
		Name:     first + " " + last,
		Email:    fmt.Sprintf("%s.%s.%d@example.com", strings.ToLower(first), strings.ToLower(last), f.faker.Number(100, 999)),
		Password: password,
	}
	for _, override := range overrides {
		override(user)
	}
	if err := f.users.Create(ctx, user); err != nil {
		return nil, fmt.Errorf("create user %s: %w", user.Email, err)
	}
	return user, nil
}

// CreateLeague persists a league owned by owner. owner may be nil.
func (f *Factory) CreateLeague(ctx context.Context, owner *models.User, overrides ...func(*models.League)) (*models.League, error) {
	name := f.faker.City() + " " + leagueSuffixes[f.faker.Number(0, len(leagueSuffixes)-1)]
	base := validation.Slugify(name)
	if len(base) > 40 {
		base = strings.TrimRight(base[:40], "-")
	}

	league := &models.League{
		Name: name,
		Slug: fmt.Sprintf("%s-%d", base, f.faker.Number(100, 999)),
	}
	if owner != nil {
		league.UserID = &owner.ID
	}
	for _, override := range overrides {
		override(league)
	}
	if err := validation.ValidateLeagueSlug(league.Slug); err != nil {
		return nil, fmt.Errorf("league %q: %w", league.Slug, err)
	}
	if err := f.leagues.Create(ctx, league); err != nil {
		return nil, fmt.Errorf("create league %s: %w", league.Slug, err)
	}
	return league, nil
}

// Roster generates n skaters with derby style names and jersey numbers.
func (f *Factory) Roster(n int) []models.Skater {
	skaters := make([]models.Skater, n)
	for i := range skaters {
		skaters[i] = models.Skater{
			Name:   f.faker.Color() + " " + f.faker.Animal(),
			Number: strconv.Itoa(f.faker.Number(0, 9999)),
		}
	}
	return skaters
}

// CreateCharter persists a charter of type ct in the given lifecycle state,
// with a generated roster. Timestamps are placed relative to the factory clock.
func (f *Factory) CreateCharter(
	ctx context.Context,
	league *models.League,
	ct *models.CharterType,
	state charter.State,
	overrides ...func(*models.Charter),
) (*models.Charter, error) {
	now := f.clock.Now()
	name := fmt.Sprintf("%s %s", now.AddDate(0, -f.faker.Number(0, 11), 0).Month(), ct.Name)
	c := &models.Charter{
		LeagueID:      league.ID,
		CharterTypeID: &ct.ID,
		Name:          name,
		Slug:          validation.Slugify(name) + "-" + uuid.NewString()[:8],
		CreatedAt:     now.Add(-time.Duration(f.faker.Number(1, 48)) * time.Hour),
	}

	days := func(n int) *time.Time {
		t := now.AddDate(0, 0, n)
		return &t
	}
	switch state {
	case charter.StatePending:
		c.ApprovalRequestedAt = days(-1)
	case charter.StateCurrent:
		c.ApprovalRequestedAt, c.ApprovedAt, c.ActiveFrom = days(-30), days(-29), days(-28)
	case charter.StateUpcoming:
		c.ApprovalRequestedAt, c.ApprovedAt, c.ActiveFrom = days(-3), days(-2), days(14)
	case charter.StateHistorical:
		c.ApprovalRequestedAt, c.ApprovedAt, c.ActiveFrom = days(-210), days(-205), days(-200)
	case charter.StateDraft:
	default:
		return nil, fmt.Errorf("cannot seed a %s charter", state)
	}
	if c.ActiveFrom != nil {
		c.CreatedAt = c.ApprovalRequestedAt.Add(-time.Hour)
	}

	for _, override := range overrides {
		override(c)
	}
	if err := f.charters.Create(ctx, c); err != nil {
		return nil, fmt.Errorf("create charter %s: %w", c.Slug, err)
	}
	c.Skaters = f.Roster(f.faker.Number(8, models.MaxSkaters))
	if err := f.charters.ReplaceSkaters(ctx, c.ID, c.Skaters); err != nil {
		return nil, fmt.Errorf("roster for %s: %w", c.Slug, err)
	}
	return c, nil
}
