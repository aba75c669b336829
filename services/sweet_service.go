package services

import (
	"context"
	"errors"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sweetshop-backend/models"
	"sweetshop-backend/repository"
)

type SweetService interface {
	List(ctx context.Context) ([]models.Sweet, *ServiceError)
	Search(ctx context.Context, q models.SweetSearchQuery) ([]models.Sweet, *ServiceError)
	Get(ctx context.Context, id uuid.UUID) (*models.Sweet, *ServiceError)
	Create(ctx context.Context, req *models.CreateSweetRequest) (*models.Sweet, *ServiceError)
	Update(ctx context.Context, id uuid.UUID, req *models.UpdateSweetRequest) (*models.Sweet, *ServiceError)
	Delete(ctx context.Context, id uuid.UUID) *ServiceError
	Restock(ctx context.Context, id uuid.UUID, amount int) (*models.Sweet, *ServiceError)
	// Purchase is the storefront's single-unit quick buy.
	Purchase(ctx context.Context, id uuid.UUID) (*models.Sweet, *ServiceError)
}

type sweetService struct {
	sweets repository.SweetRepository
	logger *zap.Logger
}

func NewSweetService(sweets repository.SweetRepository, logger *zap.Logger) SweetService {
	return &sweetService{sweets: sweets, logger: logger}
}

func (s *sweetService) List(ctx context.Context) ([]models.Sweet, *ServiceError) {
	sweets, err := s.sweets.FindAll(ctx)
	if err != nil {
		s.logger.Error("failed to list sweets", zap.Error(err))
		return nil, newServiceError(http.StatusInternalServerError, "Failed to fetch sweets")
	}
	return sweets, nil
}

func (s *sweetService) Search(ctx context.Context, q models.SweetSearchQuery) ([]models.Sweet, *ServiceError) {
	if q.MinPrice != nil && q.MaxPrice != nil && q.MinPrice.GreaterThan(*q.MaxPrice) {
		return nil, newServiceError(http.StatusBadRequest, "minPrice cannot exceed maxPrice")
	}
	sweets, err := s.sweets.Search(ctx, q)
	if err != nil {
		s.logger.Error("sweet search failed", zap.Error(err))
		return nil, newServiceError(http.StatusInternalServerError, "Failed to search sweets")
	}
	return sweets, nil
}

func (s *sweetService) Get(ctx context.Context, id uuid.UUID) (*models.Sweet, *ServiceError) {
	sweet, err := s.sweets.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newServiceError(http.StatusNotFound, "Sweet not found")
		}
		s.logger.Error("failed to fetch sweet", zap.String("sweet_id", id.String()), zap.Error(err))
		return nil, newServiceError(http.StatusInternalServerError, "Failed to fetch sweet")
	}
	return sweet, nil
}

func (s *sweetService) Create(ctx context.Context, req *models.CreateSweetRequest) (*models.Sweet, *ServiceError) {
	if req.Price.IsNegative() {
		return nil, newServiceError(http.StatusBadRequest, "Price cannot be negative")
	}
	if req.Quantity < 0 {
		return nil, newServiceError(http.StatusBadRequest, "Quantity cannot be negative")
	}

	sweet := &models.Sweet{
		ID:       uuid.New(),
		Name:     req.Name,
		Category: req.Category,
		Price:    req.Price,
		Quantity: req.Quantity,
	}
	if err := s.sweets.Create(ctx, sweet); err != nil {
		s.logger.Error("failed to create sweet", zap.String("name", req.Name), zap.Error(err))
		return nil, newServiceError(http.StatusInternalServerError, "Failed to create sweet")
	}
	s.logger.Info("sweet created", zap.String("sweet_id", sweet.ID.String()), zap.String("name", sweet.Name))
	return sweet, nil
}

func (s *sweetService) Update(ctx context.Context, id uuid.UUID, req *models.UpdateSweetRequest) (*models.Sweet, *ServiceError) {
	sweet, serr := s.Get(ctx, id)
	if serr != nil {
		return nil, serr
	}

	if req.Name != nil {
		if *req.Name == "" {
			return nil, newServiceError(http.StatusBadRequest, "Name cannot be empty")
		}
		sweet.Name = *req.Name
	}
	if req.Category != nil {
		if *req.Category == "" {
			return nil, newServiceError(http.StatusBadRequest, "Category cannot be empty")
		}
		sweet.Category = *req.Category
	}
	if req.Price != nil {
		if req.Price.IsNegative() {
			return nil, newServiceError(http.StatusBadRequest, "Price cannot be negative")
		}
		sweet.Price = *req.Price
	}
	if req.Quantity != nil {
		if *req.Quantity < 0 {
			return nil, newServiceError(http.StatusBadRequest, "Quantity cannot be negative")
		}
		sweet.Quantity = *req.Quantity
	}

	if err := s.sweets.Update(ctx, sweet); err != nil {
		s.logger.Error("failed to update sweet", zap.String("sweet_id", id.String()), zap.Error(err))
		return nil, newServiceError(http.StatusInternalServerError, "Failed to update sweet")
	}
	return sweet, nil
}

func (s *sweetService) Delete(ctx context.Context, id uuid.UUID) *ServiceError {
	if err := s.sweets.Delete(ctx, id); err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return newServiceError(http.StatusNotFound, "Sweet not found")
		}
		s.logger.Error("failed to delete sweet", zap.String("sweet_id", id.String()), zap.Error(err))
		return newServiceError(http.StatusInternalServerError, "Failed to delete sweet")
	}
	s.logger.Info("sweet deleted", zap.String("sweet_id", id.String()))
	return nil
}

func (s *sweetService) Restock(ctx context.Context, id uuid.UUID, amount int) (*models.Sweet, *ServiceError) {
	if amount < 1 {
		return nil, newServiceError(http.StatusBadRequest, "Restock amount must be at least 1")
	}
	sweet, err := s.sweets.Restock(ctx, id, amount)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newServiceError(http.StatusNotFound, "Sweet not found")
		}
		s.logger.Error("failed to restock sweet", zap.String("sweet_id", id.String()), zap.Error(err))
		return nil, newServiceError(http.StatusInternalServerError, "Failed to restock sweet")
	}
	s.logger.Info("sweet restocked",
		zap.String("sweet_id", id.String()), zap.Int("amount", amount), zap.Int("quantity", sweet.Quantity))
	return sweet, nil
}

func (s *sweetService) Purchase(ctx context.Context, id uuid.UUID) (*models.Sweet, *ServiceError) {
	sweet, err := s.sweets.DecrementStock(ctx, id, 1)
	if err != nil {
		if errors.Is(err, repository.ErrInsufficientStock) {
			return nil, newServiceError(http.StatusBadRequest, "Out of stock")
		}
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newServiceError(http.StatusNotFound, "Sweet not found")
		}
		s.logger.Error("purchase failed", zap.String("sweet_id", id.String()), zap.Error(err))
		return nil, newServiceError(http.StatusInternalServerError, "Failed to purchase sweet")
	}
	return sweet, nil
}
