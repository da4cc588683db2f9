package repository

import (
	"errors"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"authbridge/model"
)

type DeviceTokenRepository struct {
	DB *gorm.DB
}

func NewDeviceTokenRepository(db *gorm.DB) *DeviceTokenRepository {
	return &DeviceTokenRepository{DB: db}
}

func (r *DeviceTokenRepository) Get(userID uint, deviceID string) (*model.DeviceToken, error) {
	var rec model.DeviceToken
	err := r.DB.Where("user_id = ? AND device_id = ?", userID, deviceID).First(&rec).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

// Upsert installs the live token id for a device, replacing any prior
// record. One statement per device keeps concurrent issues for different
// devices of the same user from losing updates.
func (r *DeviceTokenRepository) Upsert(userID uint, deviceID, tokenID, description string) error {
	rec := model.DeviceToken{
		UserID:      userID,
		DeviceID:    deviceID,
		TokenID:     tokenID,
		Description: description,
	}
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "user_id"}, {Name: "device_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"token_id", "description", "updated_at"}),
	}).Create(&rec).Error
}

// Rotate swaps the live token id only if oldTokenID is still current.
// A false return means a concurrent rotation won the race; the caller then
// consults the grace window.
func (r *DeviceTokenRepository) Rotate(userID uint, deviceID, oldTokenID, newTokenID string) (bool, error) {
	res := r.DB.Model(&model.DeviceToken{}).
		Where("user_id = ? AND device_id = ? AND token_id = ?", userID, deviceID, oldTokenID).
		Update("token_id", newTokenID)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

func (r *DeviceTokenRepository) Delete(userID uint, deviceID string) error {
	return r.DB.Where("user_id = ? AND device_id = ?", userID, deviceID).
		Delete(&model.DeviceToken{}).Error
}

func (r *DeviceTokenRepository) DeleteAllForUser(userID uint) error {
	return r.DB.Where("user_id = ?", userID).Delete(&model.DeviceToken{}).Error
}
