package database

import "muster/internal/models"

// PersistentModels returns the authoritative set of schema-managed GORM models.
// Order matters for databases that check foreign keys at creation time.
func PersistentModels() []interface{} {
	return []interface{}{
		&models.Role{},
		&models.User{},
		&models.League{},
		&models.CharterType{},
		&models.Charter{},
		&models.Skater{},
		&models.Event{},
	}
}
