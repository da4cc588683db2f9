package model

import (
	"time"
)

// DeviceToken tracks the single live refresh-token id for a (user, device)
// pair. Rotation replaces TokenID in place; the unique index guarantees at
// most one record per device per user.
type DeviceToken struct {
	ID          uint   `gorm:"primaryKey"`
	UserID      uint   `gorm:"uniqueIndex:idx_user_device"`
	DeviceID    string `gorm:"uniqueIndex:idx_user_device"`
	TokenID     string
	Description string
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// GraceWindow is the short-lived record kept after a rotation so that a
// concurrent refresh presenting the just-superseded token id still succeeds.
// Stored in redis with TTL equal to the configured grace period.
type GraceWindow struct {
	TokenID   string    `json:"token_id"`
	DeviceID  string    `json:"device_id"`
	CreatedAt time.Time `json:"created_at"`
}
