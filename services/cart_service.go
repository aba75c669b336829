package services

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"sweetshop-backend/models"
	"sweetshop-backend/repository"
)

type CartService interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.Cart, *ServiceError)
	// AddItem enforces the storefront stock ceiling: the cart never holds more
	// of a sweet than the catalog currently has. The ceiling is a UX guard;
	// checkout re-validates against live stock.
	AddItem(ctx context.Context, userID uuid.UUID, req *models.AddCartItemRequest) (*models.Cart, *ServiceError)
	UpdateItem(ctx context.Context, userID, sweetID uuid.UUID, quantity int) (*models.Cart, *ServiceError)
	RemoveItem(ctx context.Context, userID, sweetID uuid.UUID) (*models.Cart, *ServiceError)
	Clear(ctx context.Context, userID uuid.UUID) *ServiceError
	// Checkout turns the cart into an order and clears the cart only after
	// the order committed.
	Checkout(ctx context.Context, userID uuid.UUID, address models.Address) (*models.Order, *ServiceError)
}

type cartService struct {
	carts  repository.CartRepository
	sweets repository.SweetRepository
	orders OrderService
	logger *zap.Logger
}

func NewCartService(carts repository.CartRepository, sweets repository.SweetRepository, orders OrderService, logger *zap.Logger) CartService {
	return &cartService{carts: carts, sweets: sweets, orders: orders, logger: logger}
}

func (s *cartService) Get(ctx context.Context, userID uuid.UUID) (*models.Cart, *ServiceError) {
	cart, err := s.carts.Get(ctx, userID)
	if err != nil {
		s.logger.Error("failed to load cart", zap.String("user_id", userID.String()), zap.Error(err))
		return nil, newServiceError(http.StatusInternalServerError, "Failed to load cart")
	}
	return cart, nil
}

func (s *cartService) AddItem(ctx context.Context, userID uuid.UUID, req *models.AddCartItemRequest) (*models.Cart, *ServiceError) {
	sweet, serr := s.lookupSweet(ctx, req.SweetID)
	if serr != nil {
		return nil, serr
	}

	cart, serr := s.Get(ctx, userID)
	if serr != nil {
		return nil, serr
	}

	wanted := req.Quantity
	if existing := cart.FindItem(sweet.ID); existing != nil {
		wanted += existing.Quantity
	}
	if wanted > sweet.Quantity {
		return nil, stockCeilingError(sweet)
	}

	if existing := cart.FindItem(sweet.ID); existing != nil {
		existing.Quantity = wanted
		existing.Price = sweet.Price
		existing.Name = sweet.Name
	} else {
		cart.Items = append(cart.Items, models.CartItem{
			SweetID:  sweet.ID,
			Name:     sweet.Name,
			Price:    sweet.Price,
			Quantity: req.Quantity,
		})
	}

	return s.save(ctx, cart)
}

func (s *cartService) UpdateItem(ctx context.Context, userID, sweetID uuid.UUID, quantity int) (*models.Cart, *ServiceError) {
	if quantity < 1 {
		return nil, newServiceError(http.StatusBadRequest, "Quantity must be at least 1")
	}

	sweet, serr := s.lookupSweet(ctx, sweetID)
	if serr != nil {
		return nil, serr
	}
	if quantity > sweet.Quantity {
		return nil, stockCeilingError(sweet)
	}

	cart, serr := s.Get(ctx, userID)
	if serr != nil {
		return nil, serr
	}
	item := cart.FindItem(sweetID)
	if item == nil {
		return nil, newServiceError(http.StatusNotFound, "Item not in cart")
	}
	item.Quantity = quantity
	item.Price = sweet.Price
	item.Name = sweet.Name

	return s.save(ctx, cart)
}

func (s *cartService) RemoveItem(ctx context.Context, userID, sweetID uuid.UUID) (*models.Cart, *ServiceError) {
	cart, serr := s.Get(ctx, userID)
	if serr != nil {
		return nil, serr
	}
	if !cart.RemoveItem(sweetID) {
		return nil, newServiceError(http.StatusNotFound, "Item not in cart")
	}
	return s.save(ctx, cart)
}

func (s *cartService) Clear(ctx context.Context, userID uuid.UUID) *ServiceError {
	if err := s.carts.Delete(ctx, userID); err != nil {
		s.logger.Error("failed to clear cart", zap.String("user_id", userID.String()), zap.Error(err))
		return newServiceError(http.StatusInternalServerError, "Failed to clear cart")
	}
	return nil
}

func (s *cartService) Checkout(ctx context.Context, userID uuid.UUID, address models.Address) (*models.Order, *ServiceError) {
	cart, serr := s.Get(ctx, userID)
	if serr != nil {
		return nil, serr
	}
	if len(cart.Items) == 0 {
		return nil, newServiceError(http.StatusBadRequest, "Cart is empty")
	}

	req := &models.CreateOrderRequest{DeliveryAddress: address}
	for _, item := range cart.Items {
		req.Items = append(req.Items, models.CreateOrderItem{
			SweetID:  item.SweetID,
			Quantity: item.Quantity,
			Price:    item.Price,
		})
	}

	order, serr := s.orders.PlaceOrder(ctx, userID, req)
	if serr != nil {
		return nil, serr
	}

	// The sale is committed; a stale cart is an annoyance, not a consistency
	// problem, so a failed delete is only logged.
	if err := s.carts.Delete(ctx, userID); err != nil {
		s.logger.Warn("failed to clear cart after checkout",
			zap.String("user_id", userID.String()), zap.Error(err))
	}

	return order, nil
}

func (s *cartService) save(ctx context.Context, cart *models.Cart) (*models.Cart, *ServiceError) {
	if err := s.carts.Save(ctx, cart); err != nil {
		s.logger.Error("failed to save cart", zap.String("user_id", cart.UserID.String()), zap.Error(err))
		return nil, newServiceError(http.StatusInternalServerError, "Failed to save cart")
	}
	return cart, nil
}

func (s *cartService) lookupSweet(ctx context.Context, id uuid.UUID) (*models.Sweet, *ServiceError) {
	sweet, err := s.sweets.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newServiceError(http.StatusNotFound, "Sweet not found")
		}
		s.logger.Error("failed to load sweet for cart", zap.String("sweet_id", id.String()), zap.Error(err))
		return nil, newServiceError(http.StatusInternalServerError, "Failed to load sweet")
	}
	return sweet, nil
}

func stockCeilingError(sweet *models.Sweet) *ServiceError {
	return newServiceError(http.StatusBadRequest,
		fmt.Sprintf("Only %d of %s left in stock", sweet.Quantity, sweet.Name))
}
