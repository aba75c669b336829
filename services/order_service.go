package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"sweetshop-backend/models"
	"sweetshop-backend/repository"
)

// OrderEventPublisher pushes domain events out after a successful commit.
// Implementations must be safe to call concurrently.
type OrderEventPublisher interface {
	PublishOrderCreated(ctx context.Context, event models.OrderCreatedEvent) error
}

type OrderService interface {
	// PlaceOrder validates the requested lines against the catalog, then
	// commits order + items + stock decrements atomically. Stock is re-checked
	// inside the transaction, so a pre-validation pass is advisory only and
	// two concurrent orders can never jointly oversell a sweet.
	PlaceOrder(ctx context.Context, userID uuid.UUID, req *models.CreateOrderRequest) (*models.Order, *ServiceError)
	GetUserOrders(ctx context.Context, userID uuid.UUID, page, limit int) (*models.OrderListResponse, *ServiceError)
	GetOrder(ctx context.Context, id, userID uuid.UUID) (*models.Order, *ServiceError)
}

type orderService struct {
	orders    repository.OrderRepository
	sweets    repository.SweetRepository
	publisher OrderEventPublisher
	logger    *zap.Logger
}

func NewOrderService(orders repository.OrderRepository, sweets repository.SweetRepository, publisher OrderEventPublisher, logger *zap.Logger) OrderService {
	return &orderService{orders: orders, sweets: sweets, publisher: publisher, logger: logger}
}

func (s *orderService) PlaceOrder(ctx context.Context, userID uuid.UUID, req *models.CreateOrderRequest) (*models.Order, *ServiceError) {
	if len(req.Items) == 0 {
		return nil, newServiceError(http.StatusBadRequest, "Order must contain at least one item")
	}
	if !req.DeliveryAddress.Complete() {
		return nil, newServiceError(http.StatusBadRequest, "Delivery address is required")
	}

	seen := make(map[uuid.UUID]bool, len(req.Items))
	items := make([]models.OrderItem, 0, len(req.Items))
	total := decimal.Zero

	for _, line := range req.Items {
		if line.SweetID == uuid.Nil {
			return nil, newServiceError(http.StatusBadRequest, "Each item must reference a sweet")
		}
		if line.Quantity < 1 {
			return nil, newServiceError(http.StatusBadRequest, "Item quantity must be at least 1")
		}
		if seen[line.SweetID] {
			return nil, newServiceError(http.StatusBadRequest, "Duplicate sweet in order")
		}
		seen[line.SweetID] = true

		sweet, err := s.sweets.FindByID(ctx, line.SweetID)
		if err != nil {
			if errors.Is(err, repository.ErrNotFound) {
				return nil, newServiceError(http.StatusBadRequest,
					fmt.Sprintf("Sweet %s not found", line.SweetID))
			}
			s.logger.Error("failed to load sweet for order",
				zap.String("sweet_id", line.SweetID.String()), zap.Error(err))
			return nil, newServiceError(http.StatusInternalServerError, "Failed to place order")
		}
		if sweet.Quantity < line.Quantity {
			return nil, insufficientStockError(sweet.Name, sweet.Quantity, line.Quantity)
		}

		// The committed price comes from the catalog, never the client payload.
		items = append(items, models.OrderItem{
			ID:       uuid.New(),
			SweetID:  sweet.ID,
			Quantity: line.Quantity,
			Price:    sweet.Price,
		})
		total = total.Add(sweet.Price.Mul(decimal.NewFromInt(int64(line.Quantity))))
	}

	order := &models.Order{
		ID:              uuid.New(),
		OrderNumber:     models.NewOrderNumber(),
		UserID:          userID,
		TotalAmount:     total,
		Status:          models.OrderStatusProcessing,
		DeliveryAddress: req.DeliveryAddress,
		Items:           items,
	}

	if err := s.orders.CreateWithStockDecrement(ctx, order); err != nil {
		var short *repository.InsufficientStockError
		if errors.As(err, &short) {
			// Lost a race since pre-validation; the transaction rolled back.
			return nil, insufficientStockError(short.Name, short.Available, short.Requested)
		}
		var missing *repository.SweetNotFoundError
		if errors.As(err, &missing) {
			return nil, newServiceError(http.StatusBadRequest,
				fmt.Sprintf("Sweet %s not found", missing.SweetID))
		}
		s.logger.Error("order commit failed",
			zap.String("user_id", userID.String()), zap.Error(err))
		return nil, newServiceError(http.StatusInternalServerError, "Failed to place order")
	}

	s.logger.Info("order placed",
		zap.String("order_id", order.ID.String()),
		zap.String("order_number", order.OrderNumber),
		zap.String("user_id", userID.String()),
		zap.String("total", total.StringFixed(2)),
		zap.Int("items", len(items)))

	s.publishOrderCreated(ctx, order)

	return order, nil
}

// publishOrderCreated is best-effort: the order is already committed, so a
// broker outage only costs the event, never the sale.
func (s *orderService) publishOrderCreated(ctx context.Context, order *models.Order) {
	if s.publisher == nil {
		return
	}
	event := models.OrderCreatedEvent{
		Event:       "order.created",
		OrderID:     order.ID.String(),
		OrderNumber: order.OrderNumber,
		UserID:      order.UserID.String(),
		TotalAmount: order.TotalAmount.StringFixed(2),
		CreatedAt:   time.Now().UTC(),
	}
	for _, item := range order.Items {
		event.Items = append(event.Items, models.OrderCreatedItem{
			SweetID:  item.SweetID.String(),
			Quantity: item.Quantity,
		})
	}
	if err := s.publisher.PublishOrderCreated(ctx, event); err != nil {
		s.logger.Warn("failed to publish order.created event",
			zap.String("order_id", order.ID.String()), zap.Error(err))
	}
}

func (s *orderService) GetUserOrders(ctx context.Context, userID uuid.UUID, page, limit int) (*models.OrderListResponse, *ServiceError) {
	if page < 1 {
		page = 1
	}
	if limit < 1 || limit > 100 {
		limit = 20
	}

	orders, total, err := s.orders.FindByUserID(ctx, userID, page, limit)
	if err != nil {
		s.logger.Error("failed to list orders",
			zap.String("user_id", userID.String()), zap.Error(err))
		return nil, newServiceError(http.StatusInternalServerError, "Failed to fetch orders")
	}

	totalPages := int(math.Ceil(float64(total) / float64(limit)))
	return &models.OrderListResponse{
		Orders: orders,
		Meta: models.PaginationMeta{
			Page:       page,
			Limit:      limit,
			Total:      total,
			TotalPages: totalPages,
			HasMore:    page < totalPages,
		},
	}, nil
}

func (s *orderService) GetOrder(ctx context.Context, id, userID uuid.UUID) (*models.Order, *ServiceError) {
	order, err := s.orders.FindByIDAndUserID(ctx, id, userID)
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, newServiceError(http.StatusNotFound, "Order not found")
		}
		s.logger.Error("failed to fetch order",
			zap.String("order_id", id.String()), zap.Error(err))
		return nil, newServiceError(http.StatusInternalServerError, "Failed to fetch order")
	}
	return order, nil
}

func insufficientStockError(name string, available, requested int) *ServiceError {
	return newServiceError(http.StatusBadRequest,
		fmt.Sprintf("Insufficient stock for %s. Available: %d, Requested: %d",
			name, available, requested))
}
