package repository

import (
	"context"
	"errors"
	"time"

	"gorm.io/gorm"

	"sweetshop-backend/models"
)

type OtpRepository interface {
	// Replace stores a fresh code for the email, discarding any earlier ones.
	Replace(ctx context.Context, email, code string, expiresAt time.Time) error
	FindByEmail(ctx context.Context, email string) (*models.OtpVerification, error)
	DeleteByEmail(ctx context.Context, email string) error
	DeleteExpired(ctx context.Context) (int64, error)
}

type GormOtpRepository struct {
	db *gorm.DB
}

func NewGormOtpRepository(db *gorm.DB) *GormOtpRepository {
	return &GormOtpRepository{db: db}
}

func (r *GormOtpRepository) Replace(ctx context.Context, email, code string, expiresAt time.Time) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("email = ?", email).Delete(&models.OtpVerification{}).Error; err != nil {
			return err
		}
		return tx.Create(&models.OtpVerification{
			Email:     email,
			Code:      code,
			ExpiresAt: expiresAt,
		}).Error
	})
}

func (r *GormOtpRepository) FindByEmail(ctx context.Context, email string) (*models.OtpVerification, error) {
	var otp models.OtpVerification
	err := r.db.WithContext(ctx).
		Where("email = ?", email).
		Order("created_at DESC").
		First(&otp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &otp, nil
}

func (r *GormOtpRepository) DeleteByEmail(ctx context.Context, email string) error {
	return r.db.WithContext(ctx).Where("email = ?", email).Delete(&models.OtpVerification{}).Error
}

func (r *GormOtpRepository) DeleteExpired(ctx context.Context) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", time.Now()).
		Delete(&models.OtpVerification{})
	return res.RowsAffected, res.Error
}
