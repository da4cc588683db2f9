package model

import "time"

// Account is the newer identity backend's user record. A legacy User is
// considered fully migrated once it both carries a linkage id and a backing
// Account record exists for its email.
type Account struct {
	ID            string `gorm:"primaryKey"`
	Email         string `gorm:"uniqueIndex"`
	Name          string
	PassHash      string
	EmailVerified bool
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
