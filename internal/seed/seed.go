// Package seed provides helpers to create reference and demo data for the
// application database. The demo data is intended for development only.
package seed

import (
	"context"
	"fmt"
	"log"

	"muster/internal/charter"
	"muster/internal/database"
	"muster/internal/models"
	"muster/internal/repository"

	"github.com/jonboulle/clockwork"
	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumLeagues  int
	ShouldClean bool
	SkipBcrypt  bool
	// Seed makes generated names repeatable. Zero picks a random seed.
	Seed int64
}

// Seeder loads the base fixture and generates demo leagues.
type Seeder struct {
	db      *gorm.DB
	opts    Options
	factory *Factory
	users   repository.UserRepository
}

// NewSeeder creates a seeder with the given options.
func NewSeeder(db *gorm.DB, opts Options, clock clockwork.Clock) *Seeder {
	return &Seeder{
		db:      db,
		opts:    opts,
		factory: NewFactory(db, opts, clock),
		users:   repository.NewUserRepository(db),
	}
}

// Factory exposes the entity factory used by the seeder.
func (s *Seeder) Factory() *Factory {
	return s.factory
}

// ClearAll removes every row from the schema-managed tables.
func (s *Seeder) ClearAll(ctx context.Context) error {
	db := s.db.WithContext(ctx)
	if err := db.Exec("DELETE FROM user_roles").Error; err != nil {
		return fmt.Errorf("clear user_roles: %w", err)
	}

	all := database.PersistentModels()
	for i := len(all) - 1; i >= 0; i-- {
		if err := db.Session(&gorm.Session{AllowGlobalUpdate: true}).Unscoped().Delete(all[i]).Error; err != nil {
			return fmt.Errorf("clear %T: %w", all[i], err)
		}
	}
	log.Println("database cleared")
	return nil
}

// Accounts creates the staff accounts of the fixture and grants their roles.
// Existing accounts are kept and only gain missing roles.
func (s *Seeder) Accounts(ctx context.Context, f *Fixture) ([]*models.User, error) {
	out := make([]*models.User, 0, len(f.Accounts))
	for _, acct := range f.Accounts {
		user, err := s.users.GetByEmail(ctx, acct.Email)
		if err != nil {
			return nil, err
		}
		if user == nil {
			user, err = s.factory.CreateUser(ctx, func(u *models.User) {
				u.Name = acct.Name
				u.Email = acct.Email
			})
			if err != nil {
				return nil, err
			}
		}
		for _, role := range acct.Roles {
			if err := s.users.AssignRole(ctx, user.ID, role); err != nil {
				return nil, fmt.Errorf("grant %s to %s: %w", role, acct.Email, err)
			}
		}
		out = append(out, user)
	}
	return out, nil
}

// Leagues creates NumLeagues demo leagues, each with an owner and one charter
// in every lifecycle state spread over the charter types.
func (s *Seeder) Leagues(ctx context.Context, types []models.CharterType) ([]*models.League, error) {
	if len(types) == 0 {
		return nil, fmt.Errorf("no charter types to seed charters with")
	}
	// typeAt wraps so that fewer types still get every state.
	typeAt := func(i int) *models.CharterType {
		return &types[i%len(types)]
	}

	plan := []struct {
		state charter.State
		typ   int
	}{
		{charter.StateHistorical, 0},
		{charter.StateCurrent, 0},
		{charter.StateUpcoming, 0},
		{charter.StatePending, 1},
		{charter.StateDraft, 2},
	}

	leagues := make([]*models.League, 0, s.opts.NumLeagues)
	for i := 0; i < s.opts.NumLeagues; i++ {
		owner, err := s.factory.CreateUser(ctx)
		if err != nil {
			return nil, err
		}
		league, err := s.factory.CreateLeague(ctx, owner)
		if err != nil {
			return nil, err
		}
		for _, p := range plan {
			if _, err := s.factory.CreateCharter(ctx, league, typeAt(p.typ), p.state); err != nil {
				return nil, err
			}
		}
		leagues = append(leagues, league)
	}
	return leagues, nil
}

// Run seeds the base fixture and the demo leagues.
func (s *Seeder) Run(ctx context.Context) error {
	if s.opts.ShouldClean {
		if err := s.ClearAll(ctx); err != nil {
			return err
		}
	}

	fixture, err := LoadFixture()
	if err != nil {
		return err
	}
	types, err := CharterTypes(ctx, s.db, fixture)
	if err != nil {
		return err
	}
	log.Printf("seeded %d charter types", len(types))

	accounts, err := s.Accounts(ctx, fixture)
	if err != nil {
		return err
	}
	log.Printf("seeded %d staff accounts", len(accounts))

	leagues, err := s.Leagues(ctx, types)
	if err != nil {
		return err
	}
	log.Printf("seeded %d leagues", len(leagues))
	return nil
}
