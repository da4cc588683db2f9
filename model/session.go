package model

import "time"

// Session is the revocable record backing a new-format token. Capability
// endpoints (two-factor, passkey) require one of these, not just a signed
// bearer claim. Stored in redis keyed by ID with TTL.
type Session struct {
	ID        string    `json:"id"`
	AccountID string    `json:"account_id"`
	UserID    uint      `json:"user_id"`
	IPAddress string    `json:"ip_address"`
	UserAgent string    `json:"user_agent"`
	CreatedAt time.Time `json:"created_at"`
	ExpiresAt time.Time `json:"expires_at"`
}
