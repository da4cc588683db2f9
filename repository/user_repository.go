package repository

import (
	"errors"

	"gorm.io/gorm"

	"authbridge/model"
)

type UserRepository struct {
	DB *gorm.DB
}

func NewUserRepository(db *gorm.DB) *UserRepository {
	return &UserRepository{DB: db}
}

func (r *UserRepository) Create(user *model.User) error {
	return r.DB.Create(user).Error
}

func (r *UserRepository) GetByID(id uint) (*model.User, error) {
	var user model.User
	if err := r.DB.First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

func (r *UserRepository) GetByEmail(email string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByIdentifier looks a user up by email or phone, whichever matches.
func (r *UserRepository) GetByIdentifier(identifier string) (*model.User, error) {
	var user model.User
	err := r.DB.Where("email = ? OR phone = ?", identifier, identifier).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &user, nil
}

// GetByEmailOrAccountID is the linker's lookup predicate: email match takes
// priority over an existing linkage id.
func (r *UserRepository) GetByEmailOrAccountID(email, accountID string) (*model.User, error) {
	user, err := r.GetByEmail(email)
	if err != nil || user != nil {
		return user, err
	}
	if accountID == "" {
		return nil, nil
	}
	var linked model.User
	err = r.DB.Where("account_id = ?", accountID).First(&linked).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &linked, nil
}

func (r *UserRepository) FindByConfirmToken(token string) (*model.User, error) {
	var user model.User
	if err := r.DB.Where("confirm_token = ?", token).First(&user).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &user, nil
}

// SetEmailConfirmed flips the verification flag and burns the confirm
// token. Only those two columns are written: a full-row save would turn
// the NULL phone into '' on the unique index and clobber concurrent role
// or linkage updates.
func (r *UserRepository) SetEmailConfirmed(userID uint) error {
	return r.DB.Model(&model.User{}).Where("id = ?", userID).
		Updates(map[string]interface{}{
			"email_verified": true,
			"confirm_token":  "",
		}).Error
}

// UpdateAccountID sets only the linkage column so a concurrent role change
// is never overwritten during linking.
func (r *UserRepository) UpdateAccountID(userID uint, accountID string) error {
	return r.DB.Model(&model.User{}).Where("id = ?", userID).
		Update("account_id", accountID).Error
}

func (r *UserRepository) CountAll() (int64, error) {
	var n int64
	err := r.DB.Model(&model.User{}).Count(&n).Error
	return n, err
}

func (r *UserRepository) CountWithLinkage() (int64, error) {
	var n int64
	err := r.DB.Model(&model.User{}).
		Where("account_id IS NOT NULL AND account_id <> ''").
		Count(&n).Error
	return n, err
}

// CountWithAccount counts users with a confirmed backing account record in
// the newer backend, matched by email.
func (r *UserRepository) CountWithAccount() (int64, error) {
	var n int64
	err := r.DB.Model(&model.User{}).
		Joins("JOIN accounts ON accounts.email = users.email").
		Count(&n).Error
	return n, err
}

func (r *UserRepository) CountFullyMigrated() (int64, error) {
	var n int64
	err := r.DB.Model(&model.User{}).
		Joins("JOIN accounts ON accounts.email = users.email").
		Where("users.account_id IS NOT NULL AND users.account_id <> ''").
		Count(&n).Error
	return n, err
}
