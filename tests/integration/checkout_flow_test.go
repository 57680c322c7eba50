//go:build integration

package integration

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	cartapp "github.com/storefront/backend/internal/application/cart"
	checkoutapp "github.com/storefront/backend/internal/application/checkout"
	orderapp "github.com/storefront/backend/internal/application/order"
	paymentapp "github.com/storefront/backend/internal/application/payment"
	webhookapp "github.com/storefront/backend/internal/application/webhook"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/cache"
	"github.com/storefront/backend/internal/infrastructure/persistence"
	"github.com/storefront/backend/tests/testutil"
)

// shop wires the order lifecycle services over PostgreSQL with a mocked gateway
type shop struct {
	gateway        *testutil.MockGateway
	checkout       *checkoutapp.CheckoutService
	orders         *orderapp.OrderService
	reconciliation *paymentapp.ReconciliationService
}

func newShop(t *testing.T, tdb *TestDB) *shop {
	t.Helper()
	db := tdb.DB
	log := zap.NewNop()
	gateway := new(testutil.MockGateway)
	events := testutil.NewRecordingPublisher()

	carts := cache.NewInMemoryCartStore()
	idempotency := cache.NewInMemoryIdempotencyStore()
	t.Cleanup(func() {
		_ = carts.Close()
		_ = idempotency.Close()
	})

	txManager := persistence.NewGormTxManager(db)
	productRepo := persistence.NewGormProductRepository(db)
	stockRepo := persistence.NewGormStockRepository(db)
	orderRepo := persistence.NewGormOrderRepository(db)

	orders := orderapp.NewOrderService(orderRepo, stockRepo, gateway, txManager, events, log)
	checkout := checkoutapp.NewCheckoutService(checkoutapp.Deps{
		Orders:          orderRepo,
		Stock:           stockRepo,
		Customers:       persistence.NewGormCustomerRepository(db),
		DeliveryOptions: persistence.NewGormDeliveryOptionRepository(db),
		Carts:           carts,
		Pricer:          cartapp.NewPricer(productRepo),
		Gateway:         gateway,
		Idempotency:     idempotency,
		Canceller:       orders,
		TxManager:       txManager,
		Publisher:       events,
		Logger:          log,
	}, checkoutapp.Config{Currency: "USD", IdempotencyTTL: time.Hour})

	reconciliation := paymentapp.NewReconciliationService(paymentapp.Deps{
		Orders:    orderRepo,
		Orphans:   persistence.NewGormOrphanRepository(db),
		Stock:     stockRepo,
		Gateway:   gateway,
		Webhooks:  webhookapp.NewProcessor(persistence.NewGormWebhookRepository(db), log),
		TxManager: txManager,
		Publisher: events,
		Logger:    log,
	}, paymentapp.Config{
		GracePeriod:       time.Minute,
		MaxRefundAttempts: 3,
		ScanWindow:        24 * time.Hour,
		BatchSize:         50,
	})

	return &shop{gateway: gateway, checkout: checkout, orders: orders, reconciliation: reconciliation}
}

func TestCheckoutFlow_PayThenCancel(t *testing.T) {
	tdb := NewSharedTestDB(t)
	s := newShop(t, tdb)
	ctx := context.Background()
	_, v := seedVariant(t, tdb, 4)

	s.gateway.On("CreateIntent", mock.Anything, mock.AnythingOfType("payment.CreateIntentRequest")).
		Return(&payment.Intent{ID: "pi_flow", ClientSecret: "pi_flow_secret", Status: payment.IntentStatusRequiresPayment}, nil).Once()

	req := checkoutapp.CheckoutRequest{
		Items: []checkoutapp.LineRequest{{VariantID: v.ID, Quantity: 3}},
		Email: "ada@example.com",
		ShippingAddress: shared.Address{
			Name: "Ada", Line1: "1 Main St", City: "London", PostalCode: "N1", Country: "GB",
		},
	}
	key := "flow-" + uuid.NewString()
	placed, err := s.checkout.Checkout(ctx, req, key)
	require.NoError(t, err)
	assert.Equal(t, "PENDING", placed.Order.Status)
	assert.True(t, decimal.RequireFromString("147").Equal(placed.Order.Total))
	assert.Equal(t, 1, currentStock(t, tdb, v.ID), "checkout holds the stock")

	replay, err := s.checkout.Checkout(ctx, req, key)
	require.NoError(t, err)
	assert.True(t, replay.Replayed)
	assert.Equal(t, placed.Order.ID, replay.Order.ID)
	assert.Equal(t, 1, currentStock(t, tdb, v.ID), "a replay does not take stock twice")

	orderID := placed.Order.ID
	s.gateway.On("ParseWebhook", []byte("payload"), "sig").Return(&payment.GatewayEvent{
		ID:       "evt_" + uuid.NewString(),
		Type:     payment.EventIntentSucceeded,
		IntentID: "pi_flow",
		OrderID:  &orderID,
		Amount:   placed.Order.Total,
		Currency: "USD",
	}, nil)

	res, err := s.reconciliation.HandleWebhook(ctx, []byte("payload"), "sig")
	require.NoError(t, err)
	assert.False(t, res.Duplicate)

	paid, err := s.orders.GetByID(ctx, orderID)
	require.NoError(t, err)
	assert.Equal(t, "PAID", paid.Status)
	assert.Equal(t, "PAID", paid.PaymentStatus)

	res, err = s.reconciliation.HandleWebhook(ctx, []byte("payload"), "sig")
	require.NoError(t, err)
	assert.True(t, res.Duplicate, "a redelivered event is acknowledged without processing")

	s.gateway.On("Refund", mock.Anything, mock.MatchedBy(func(r payment.RefundRequest) bool {
		return r.IntentID == "pi_flow" && r.IdempotencyKey == "order-refund:"+orderID.String()
	})).Return(&payment.Refund{ID: "re_flow", Amount: placed.Order.Total, Status: "succeeded"}, nil).Once()

	cancelled, err := s.orders.Cancel(ctx, orderID, orderapp.CancelOrderRequest{Reason: "customer changed their mind"})
	require.NoError(t, err)
	assert.Equal(t, "CANCELLED", cancelled.Status)
	assert.Equal(t, "REFUNDED", cancelled.PaymentStatus)
	assert.Equal(t, 4, currentStock(t, tdb, v.ID), "cancel restores the held stock")

	s.gateway.AssertExpectations(t)
}

func TestCheckoutFlow_InsufficientStockLeavesNothingBehind(t *testing.T) {
	tdb := NewSharedTestDB(t)
	s := newShop(t, tdb)
	ctx := context.Background()
	_, v := seedVariant(t, tdb, 1)

	_, err := s.checkout.Checkout(ctx, checkoutapp.CheckoutRequest{
		Items: []checkoutapp.LineRequest{{VariantID: v.ID, Quantity: 2}},
		Email: "grace@example.com",
		ShippingAddress: shared.Address{
			Name: "Grace", Line1: "2 Side St", City: "Leeds", PostalCode: "LS1", Country: "GB",
		},
	}, "")
	require.ErrorIs(t, err, shared.ErrInsufficientStock)
	assert.Equal(t, 1, currentStock(t, tdb, v.ID))

	var orders int64
	require.NoError(t, tdb.DB.Table("orders").Where("email = ?", "grace@example.com").Count(&orders).Error)
	assert.Zero(t, orders, "the order insert rolls back with the stock decrement")
	s.gateway.AssertNotCalled(t, "CreateIntent", mock.Anything, mock.Anything)
}
