package services_test

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"sweetshop-backend/models"
	"sweetshop-backend/services"
)

func price(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func testAddress() models.Address {
	return models.Address{
		Label:  "Home",
		Street: "12 Fudge Lane",
		City:   "Brighton",
		State:  "East Sussex",
		Zip:    "BN1 1AA",
	}
}

func newOrderFixture(sweets ...*models.Sweet) (services.OrderService, *mockSweetRepo, *mockOrderRepo, *mockPublisher) {
	sweetRepo := newMockSweetRepo(sweets...)
	orderRepo := newMockOrderRepo(sweetRepo)
	publisher := &mockPublisher{}
	svc := services.NewOrderService(orderRepo, sweetRepo, publisher, zap.NewNop())
	return svc, sweetRepo, orderRepo, publisher
}

func TestPlaceOrderHappyPath(t *testing.T) {
	sweet := &models.Sweet{ID: uuid.New(), Name: "Salted Caramel Fudge", Category: "fudge", Price: price("60.00"), Quantity: 10}
	svc, sweetRepo, orderRepo, publisher := newOrderFixture(sweet)
	userID := uuid.New()

	order, serr := svc.PlaceOrder(context.Background(), userID, &models.CreateOrderRequest{
		Items:           []models.CreateOrderItem{{SweetID: sweet.ID, Quantity: 2}},
		DeliveryAddress: testAddress(),
	})

	require.Nil(t, serr)
	require.NotNil(t, order)
	assert.Equal(t, models.OrderStatusProcessing, order.Status)
	assert.Equal(t, userID, order.UserID)
	assert.True(t, order.TotalAmount.Equal(price("120.00")), "total was %s", order.TotalAmount)
	require.Len(t, order.Items, 1)
	assert.True(t, order.Items[0].Price.Equal(price("60.00")))
	assert.Equal(t, 2, order.Items[0].Quantity)
	assert.Equal(t, testAddress(), order.DeliveryAddress)
	assert.NotEmpty(t, order.OrderNumber)

	assert.Equal(t, 8, sweetRepo.stockOf(sweet.ID))
	assert.Equal(t, 1, orderRepo.count())
	require.Len(t, publisher.events, 1)
	assert.Equal(t, "order.created", publisher.events[0].Event)
	assert.Equal(t, order.ID.String(), publisher.events[0].OrderID)
}

func TestPlaceOrderInsufficientStock(t *testing.T) {
	sweet := &models.Sweet{ID: uuid.New(), Name: "Rose Turkish Delight", Category: "delight", Price: price("30.00"), Quantity: 1}
	svc, sweetRepo, orderRepo, _ := newOrderFixture(sweet)

	order, serr := svc.PlaceOrder(context.Background(), uuid.New(), &models.CreateOrderRequest{
		Items:           []models.CreateOrderItem{{SweetID: sweet.ID, Quantity: 5}},
		DeliveryAddress: testAddress(),
	})

	require.NotNil(t, serr)
	assert.Nil(t, order)
	assert.Equal(t, 400, serr.StatusCode)
	assert.Contains(t, serr.Message, "Rose Turkish Delight")
	assert.Contains(t, serr.Message, "Available: 1")
	assert.Contains(t, serr.Message, "Requested: 5")

	assert.Equal(t, 1, sweetRepo.stockOf(sweet.ID))
	assert.Equal(t, 0, orderRepo.count())
}

func TestPlaceOrderEmptyCart(t *testing.T) {
	sweet := &models.Sweet{ID: uuid.New(), Name: "Lemon Sherbet", Category: "boiled", Price: price("4.50"), Quantity: 3}
	svc, sweetRepo, orderRepo, _ := newOrderFixture(sweet)

	order, serr := svc.PlaceOrder(context.Background(), uuid.New(), &models.CreateOrderRequest{
		Items:           []models.CreateOrderItem{},
		DeliveryAddress: testAddress(),
	})

	require.NotNil(t, serr)
	assert.Nil(t, order)
	assert.Equal(t, 400, serr.StatusCode)
	assert.Equal(t, 3, sweetRepo.stockOf(sweet.ID))
	assert.Equal(t, 0, orderRepo.count())
}

func TestPlaceOrderMissingAddress(t *testing.T) {
	sweet := &models.Sweet{ID: uuid.New(), Name: "Nougat Bar", Category: "nougat", Price: price("5.00"), Quantity: 3}
	svc, _, orderRepo, _ := newOrderFixture(sweet)

	_, serr := svc.PlaceOrder(context.Background(), uuid.New(), &models.CreateOrderRequest{
		Items:           []models.CreateOrderItem{{SweetID: sweet.ID, Quantity: 1}},
		DeliveryAddress: models.Address{Street: "1 Short St"},
	})

	require.NotNil(t, serr)
	assert.Equal(t, 400, serr.StatusCode)
	assert.Equal(t, 0, orderRepo.count())
}

func TestPlaceOrderUnknownSweet(t *testing.T) {
	svc, _, orderRepo, _ := newOrderFixture()

	missing := uuid.New()
	_, serr := svc.PlaceOrder(context.Background(), uuid.New(), &models.CreateOrderRequest{
		Items:           []models.CreateOrderItem{{SweetID: missing, Quantity: 1}},
		DeliveryAddress: testAddress(),
	})

	require.NotNil(t, serr)
	assert.Equal(t, 400, serr.StatusCode)
	assert.Contains(t, serr.Message, missing.String())
	assert.Equal(t, 0, orderRepo.count())
}

func TestPlaceOrderIgnoresClientPrice(t *testing.T) {
	sweet := &models.Sweet{ID: uuid.New(), Name: "Praline Truffle", Category: "chocolate", Price: price("8.00"), Quantity: 10}
	svc, _, _, _ := newOrderFixture(sweet)

	order, serr := svc.PlaceOrder(context.Background(), uuid.New(), &models.CreateOrderRequest{
		Items:           []models.CreateOrderItem{{SweetID: sweet.ID, Quantity: 3, Price: price("0.01")}},
		DeliveryAddress: testAddress(),
	})

	require.Nil(t, serr)
	assert.True(t, order.Items[0].Price.Equal(price("8.00")))
	assert.True(t, order.TotalAmount.Equal(price("24.00")), "total was %s", order.TotalAmount)
}

// A multi-line order where one line fails at commit time must leave every
// sweet's stock untouched and create no order.
func TestPlaceOrderRollsBackOnCommitFailure(t *testing.T) {
	a := &models.Sweet{ID: uuid.New(), Name: "Toffee Crunch", Category: "toffee", Price: price("6.00"), Quantity: 10}
	b := &models.Sweet{ID: uuid.New(), Name: "Violet Cream", Category: "chocolate", Price: price("7.50"), Quantity: 1}
	svc, sweetRepo, orderRepo, publisher := newOrderFixture(a, b)

	// Pre-validation sees stale, optimistic stock for b; the commit's own
	// re-check sees the truth.
	aSnap, bSnap := *a, *b
	sweetRepo.findByIDHook = func(id uuid.UUID) (*models.Sweet, error) {
		if id == b.ID {
			cp := bSnap
			cp.Quantity = 5
			return &cp, nil
		}
		cp := aSnap
		return &cp, nil
	}

	order, serr := svc.PlaceOrder(context.Background(), uuid.New(), &models.CreateOrderRequest{
		Items: []models.CreateOrderItem{
			{SweetID: a.ID, Quantity: 2},
			{SweetID: b.ID, Quantity: 5},
		},
		DeliveryAddress: testAddress(),
	})

	require.NotNil(t, serr)
	assert.Nil(t, order)
	assert.Equal(t, 400, serr.StatusCode)
	assert.Contains(t, serr.Message, "Violet Cream")

	assert.Equal(t, 10, sweetRepo.stockOf(a.ID), "first line must be rolled back")
	assert.Equal(t, 1, sweetRepo.stockOf(b.ID))
	assert.Equal(t, 0, orderRepo.count())
	assert.Empty(t, publisher.events)
}

// Two orders racing for the last unit: exactly one wins, stock ends at zero.
func TestPlaceOrderConcurrentLastUnit(t *testing.T) {
	sweet := &models.Sweet{ID: uuid.New(), Name: "Golden Bonbon", Category: "bonbon", Price: price("12.00"), Quantity: 1}
	svc, sweetRepo, orderRepo, _ := newOrderFixture(sweet)

	var wg sync.WaitGroup
	results := make([]*services.ServiceError, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, serr := svc.PlaceOrder(context.Background(), uuid.New(), &models.CreateOrderRequest{
				Items:           []models.CreateOrderItem{{SweetID: sweet.ID, Quantity: 1}},
				DeliveryAddress: testAddress(),
			})
			results[i] = serr
		}(i)
	}
	wg.Wait()

	var failures int
	for _, serr := range results {
		if serr != nil {
			failures++
			assert.Equal(t, 400, serr.StatusCode)
		}
	}
	assert.Equal(t, 1, failures, "exactly one of the two orders must fail")
	assert.Equal(t, 0, sweetRepo.stockOf(sweet.ID))
	assert.Equal(t, 1, orderRepo.count())
}

func TestPlaceOrderPublishFailureDoesNotFailOrder(t *testing.T) {
	sweet := &models.Sweet{ID: uuid.New(), Name: "Mint Humbug", Category: "boiled", Price: price("3.00"), Quantity: 5}
	sweetRepo := newMockSweetRepo(sweet)
	orderRepo := newMockOrderRepo(sweetRepo)
	publisher := &mockPublisher{err: assert.AnError}
	svc := services.NewOrderService(orderRepo, sweetRepo, publisher, zap.NewNop())

	order, serr := svc.PlaceOrder(context.Background(), uuid.New(), &models.CreateOrderRequest{
		Items:           []models.CreateOrderItem{{SweetID: sweet.ID, Quantity: 1}},
		DeliveryAddress: testAddress(),
	})

	require.Nil(t, serr)
	require.NotNil(t, order)
	assert.Equal(t, 4, sweetRepo.stockOf(sweet.ID))
}

func TestGetUserOrdersNewestFirst(t *testing.T) {
	sweet := &models.Sweet{ID: uuid.New(), Name: "Cola Cube", Category: "boiled", Price: price("2.00"), Quantity: 100}
	svc, _, _, _ := newOrderFixture(sweet)
	userID := uuid.New()

	var placed []uuid.UUID
	for i := 0; i < 3; i++ {
		order, serr := svc.PlaceOrder(context.Background(), userID, &models.CreateOrderRequest{
			Items:           []models.CreateOrderItem{{SweetID: sweet.ID, Quantity: 1}},
			DeliveryAddress: testAddress(),
		})
		require.Nil(t, serr)
		placed = append(placed, order.ID)
	}

	resp, serr := svc.GetUserOrders(context.Background(), userID, 1, 20)
	require.Nil(t, serr)
	require.Len(t, resp.Orders, 3)
	assert.Equal(t, placed[2], resp.Orders[0].ID)
	assert.Equal(t, placed[1], resp.Orders[1].ID)
	assert.Equal(t, placed[0], resp.Orders[2].ID)
	assert.Equal(t, int64(3), resp.Meta.Total)
	assert.False(t, resp.Meta.HasMore)

	// Reading history must not change it.
	again, serr := svc.GetUserOrders(context.Background(), userID, 1, 20)
	require.Nil(t, serr)
	assert.Equal(t, resp.Orders, again.Orders)
}

func TestGetUserOrdersScopedToPrincipal(t *testing.T) {
	sweet := &models.Sweet{ID: uuid.New(), Name: "Aniseed Twist", Category: "boiled", Price: price("2.50"), Quantity: 10}
	svc, _, _, _ := newOrderFixture(sweet)
	alice, bob := uuid.New(), uuid.New()

	_, serr := svc.PlaceOrder(context.Background(), alice, &models.CreateOrderRequest{
		Items:           []models.CreateOrderItem{{SweetID: sweet.ID, Quantity: 1}},
		DeliveryAddress: testAddress(),
	})
	require.Nil(t, serr)

	resp, serr := svc.GetUserOrders(context.Background(), bob, 1, 20)
	require.Nil(t, serr)
	assert.Empty(t, resp.Orders)
	assert.Equal(t, int64(0), resp.Meta.Total)
}

func TestGetUserOrdersPagination(t *testing.T) {
	sweet := &models.Sweet{ID: uuid.New(), Name: "Pear Drop", Category: "boiled", Price: price("2.00"), Quantity: 100}
	svc, _, _, _ := newOrderFixture(sweet)
	userID := uuid.New()

	for i := 0; i < 5; i++ {
		_, serr := svc.PlaceOrder(context.Background(), userID, &models.CreateOrderRequest{
			Items:           []models.CreateOrderItem{{SweetID: sweet.ID, Quantity: 1}},
			DeliveryAddress: testAddress(),
		})
		require.Nil(t, serr)
	}

	page1, serr := svc.GetUserOrders(context.Background(), userID, 1, 2)
	require.Nil(t, serr)
	assert.Len(t, page1.Orders, 2)
	assert.Equal(t, 3, page1.Meta.TotalPages)
	assert.True(t, page1.Meta.HasMore)

	page3, serr := svc.GetUserOrders(context.Background(), userID, 3, 2)
	require.Nil(t, serr)
	assert.Len(t, page3.Orders, 1)
	assert.False(t, page3.Meta.HasMore)
}

func TestPlaceOrderRejectsDuplicateLines(t *testing.T) {
	sweet := &models.Sweet{ID: uuid.New(), Name: "Marzipan Fruit", Category: "marzipan", Price: price("9.00"), Quantity: 10}
	svc, sweetRepo, _, _ := newOrderFixture(sweet)

	_, serr := svc.PlaceOrder(context.Background(), uuid.New(), &models.CreateOrderRequest{
		Items: []models.CreateOrderItem{
			{SweetID: sweet.ID, Quantity: 1},
			{SweetID: sweet.ID, Quantity: 2},
		},
		DeliveryAddress: testAddress(),
	})

	require.NotNil(t, serr)
	assert.Equal(t, 400, serr.StatusCode)
	assert.Equal(t, 10, sweetRepo.stockOf(sweet.ID))
}
