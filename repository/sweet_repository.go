package repository

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"sweetshop-backend/models"
)

type SweetRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Sweet, error)
	FindAll(ctx context.Context) ([]models.Sweet, error)
	Search(ctx context.Context, q models.SweetSearchQuery) ([]models.Sweet, error)
	Create(ctx context.Context, sweet *models.Sweet) error
	Update(ctx context.Context, sweet *models.Sweet) error
	Delete(ctx context.Context, id uuid.UUID) error
	Restock(ctx context.Context, id uuid.UUID, amount int) (*models.Sweet, error)
	DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (*models.Sweet, error)
}

type GormSweetRepository struct {
	db *gorm.DB
}

func NewGormSweetRepository(db *gorm.DB) *GormSweetRepository {
	return &GormSweetRepository{db: db}
}

func (r *GormSweetRepository) FindByID(ctx context.Context, id uuid.UUID) (*models.Sweet, error) {
	var sweet models.Sweet
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&sweet).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, &SweetNotFoundError{SweetID: id}
		}
		return nil, err
	}
	return &sweet, nil
}

func (r *GormSweetRepository) FindAll(ctx context.Context) ([]models.Sweet, error) {
	var sweets []models.Sweet
	err := r.db.WithContext(ctx).Order("name ASC").Find(&sweets).Error
	return sweets, err
}

func (r *GormSweetRepository) Search(ctx context.Context, q models.SweetSearchQuery) ([]models.Sweet, error) {
	tx := r.db.WithContext(ctx).Model(&models.Sweet{})
	if q.Name != "" {
		tx = tx.Where("name ILIKE ?", "%"+q.Name+"%")
	}
	if q.Category != "" {
		tx = tx.Where("category ILIKE ?", "%"+q.Category+"%")
	}
	if q.MinPrice != nil {
		tx = tx.Where("price >= ?", q.MinPrice)
	}
	if q.MaxPrice != nil {
		tx = tx.Where("price <= ?", q.MaxPrice)
	}

	var sweets []models.Sweet
	err := tx.Order("name ASC").Find(&sweets).Error
	return sweets, err
}

func (r *GormSweetRepository) Create(ctx context.Context, sweet *models.Sweet) error {
	return r.db.WithContext(ctx).Create(sweet).Error
}

func (r *GormSweetRepository) Update(ctx context.Context, sweet *models.Sweet) error {
	return r.db.WithContext(ctx).Save(sweet).Error
}

func (r *GormSweetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	res := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Sweet{})
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return &SweetNotFoundError{SweetID: id}
	}
	return nil
}

func (r *GormSweetRepository) Restock(ctx context.Context, id uuid.UUID, amount int) (*models.Sweet, error) {
	res := r.db.WithContext(ctx).Model(&models.Sweet{}).
		Where("id = ?", id).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", amount))
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, &SweetNotFoundError{SweetID: id}
	}
	return r.FindByID(ctx, id)
}

// DecrementStock takes quantity units of stock if and only if that many are
// on hand. The availability check and the write are a single conditional
// UPDATE, so concurrent purchases serialize on the row and can never drive
// the count negative.
func (r *GormSweetRepository) DecrementStock(ctx context.Context, id uuid.UUID, quantity int) (*models.Sweet, error) {
	if err := decrementStock(r.db.WithContext(ctx), id, quantity); err != nil {
		return nil, err
	}
	return r.FindByID(ctx, id)
}

// decrementStock runs the conditional decrement on the given handle, which
// may be a transaction. RowsAffected == 0 means either the sweet is gone or
// the stock is short; a re-read under the same handle tells the two apart.
func decrementStock(tx *gorm.DB, id uuid.UUID, quantity int) error {
	res := tx.Model(&models.Sweet{}).
		Where("id = ? AND quantity >= ?", id, quantity).
		UpdateColumn("quantity", gorm.Expr("quantity - ?", quantity))
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		var sweet models.Sweet
		if err := tx.Where("id = ?", id).First(&sweet).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return &SweetNotFoundError{SweetID: id}
			}
			return err
		}
		return &InsufficientStockError{
			SweetID:   id,
			Name:      sweet.Name,
			Available: sweet.Quantity,
			Requested: quantity,
		}
	}
	return nil
}
