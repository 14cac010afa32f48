package seed

import (
	"context"
	_ "embed"
	"fmt"

	"muster/internal/models"
	"muster/internal/repository"

	"gopkg.in/yaml.v3"
	"gorm.io/gorm"
)

//go:embed fixtures/base.yml
var baseFixture []byte

// Account is a staff user listed in the base fixture.
type Account struct {
	Name  string   `yaml:"name"`
	Email string   `yaml:"email"`
	Roles []string `yaml:"roles"`
}

// Fixture is the reference data loaded before any demo data.
type Fixture struct {
	CharterTypes []string  `yaml:"charter_types"`
	Accounts     []Account `yaml:"accounts"`
}

// LoadFixture parses the embedded base fixture.
func LoadFixture() (*Fixture, error) {
	return ParseFixture(baseFixture)
}

// ParseFixture parses a fixture document.
func ParseFixture(raw []byte) (*Fixture, error) {
	var f Fixture
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse fixture: %w", err)
	}
	if len(f.CharterTypes) == 0 {
		return nil, fmt.Errorf("parse fixture: no charter types")
	}
	return &f, nil
}

// CharterTypes creates the fixture's charter types. Running it twice is a no-op.
func CharterTypes(ctx context.Context, db *gorm.DB, f *Fixture) ([]models.CharterType, error) {
	repo := repository.NewCharterTypeRepository(db)
	out := make([]models.CharterType, 0, len(f.CharterTypes))
	for _, name := range f.CharterTypes {
		ct, err := repo.FirstOrCreate(ctx, name)
		if err != nil {
			return nil, fmt.Errorf("seed charter type %q: %w", name, err)
		}
		out = append(out, *ct)
	}
	return out, nil
}
