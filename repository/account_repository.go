package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"authbridge/model"
)

// AccountRepository is the newer identity backend's account store.
type AccountRepository struct {
	DB *gorm.DB
}

func NewAccountRepository(db *gorm.DB) *AccountRepository {
	return &AccountRepository{DB: db}
}

func (r *AccountRepository) Create(account *model.Account) error {
	return r.DB.Create(account).Error
}

func (r *AccountRepository) GetByID(id string) (*model.Account, error) {
	var account model.Account
	err := r.DB.Where("id = ?", id).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) GetByEmail(email string) (*model.Account, error) {
	var account model.Account
	err := r.DB.Where("email = ?", email).First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &account, nil
}

func (r *AccountRepository) Update(account *model.Account) error {
	return r.DB.Save(account).Error
}

// Upsert is the idempotent write used by best-effort sync from the legacy
// path: insert by email, or refresh the hash and verification flag.
func (r *AccountRepository) Upsert(account *model.Account) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "email"}},
		DoUpdates: clause.AssignmentColumns([]string{"pass_hash", "email_verified", "updated_at"}),
	}).Create(account).Error
}

func (r *AccountRepository) CountAll() (int64, error) {
	var n int64
	err := r.DB.Model(&model.Account{}).Count(&n).Error
	return n, err
}
