package model

import (
	"database/sql/driver"
	"encoding/json"
	"errors"

	"gorm.io/gorm"
)

// RoleList is a set of role strings stored as a JSON column.
type RoleList []string

func (r RoleList) Value() (driver.Value, error) {
	if r == nil {
		r = RoleList{}
	}
	return json.Marshal(r)
}

func (r *RoleList) Scan(value interface{}) error {
	if value == nil {
		*r = RoleList{}
		return nil
	}
	switch v := value.(type) {
	case []byte:
		return json.Unmarshal(v, r)
	case string:
		return json.Unmarshal([]byte(v), r)
	}
	return errors.New("unsupported role list source")
}

func (r RoleList) Has(role string) bool {
	for _, got := range r {
		if got == role {
			return true
		}
	}
	return false
}

// User is the canonical identity in the legacy store. AccountID links it
// to the newer identity backend's account record once linking has run.
type User struct {
	gorm.Model
	Email         string   `gorm:"uniqueIndex;default:null" json:"email"`
	Phone         string   `gorm:"uniqueIndex;default:null" json:"phone,omitempty"`
	Name          string   `json:"name,omitempty"`
	PassHash      string   `json:"-"`
	Roles         RoleList `gorm:"type:text" json:"roles"`
	AccountID     string   `gorm:"index;default:null" json:"account_id,omitempty"`
	EmailVerified bool     `json:"email_verified"`
	ConfirmToken  string   `json:"-"`
}
