package database

import (
	"gorm.io/driver/postgres"
	"gorm.io/gorm"

	"authbridge/model"
)

// Connect opens the postgres connection and returns the handle; callers
// own it and pass it down explicitly.
func Connect(dsn string) (*gorm.DB, error) {
	return gorm.Open(postgres.Open(dsn), &gorm.Config{})
}

// Migrate creates the tables owned by the identity subsystem.
func Migrate(db *gorm.DB) error {
	return db.AutoMigrate(&model.User{}, &model.DeviceToken{}, &model.Account{})
}
