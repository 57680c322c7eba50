package testutil

import (
	"context"
	"io"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/customer"
	"github.com/storefront/backend/internal/domain/notification"
	"github.com/storefront/backend/internal/domain/order"
	"github.com/storefront/backend/internal/domain/payment"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/shipping"
	"github.com/storefront/backend/internal/domain/staff"
	"github.com/storefront/backend/internal/domain/webhook"
)

// =============================================================================
// Catalog
// =============================================================================

// MockCategoryRepository is a mock implementation of catalog.CategoryRepository
type MockCategoryRepository struct {
	mock.Mock
}

func (m *MockCategoryRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Category, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindBySlug(ctx context.Context, slug string) (*catalog.Category, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Category), args.Error(1)
}

func (m *MockCategoryRepository) FindAll(ctx context.Context) ([]catalog.Category, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Category), args.Error(1)
}

func (m *MockCategoryRepository) Save(ctx context.Context, category *catalog.Category) error {
	return m.Called(ctx, category).Error(0)
}

func (m *MockCategoryRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockProductRepository is a mock implementation of catalog.ProductRepository
type MockProductRepository struct {
	mock.Mock
}

func (m *MockProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	args := m.Called(ctx, slug)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) FindBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	args := m.Called(ctx, sku)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Product), args.Error(1)
}

func (m *MockProductRepository) List(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]catalog.Product), args.Get(1).(int64), args.Error(2)
}

func (m *MockProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	return m.Called(ctx, product).Error(0)
}

func (m *MockProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockProductRepository) FindVariant(ctx context.Context, variantID uuid.UUID) (*catalog.Variant, error) {
	args := m.Called(ctx, variantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*catalog.Variant), args.Error(1)
}

func (m *MockProductRepository) FindVariants(ctx context.Context, variantIDs []uuid.UUID) ([]catalog.Variant, error) {
	args := m.Called(ctx, variantIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]catalog.Variant), args.Error(1)
}

func (m *MockProductRepository) FindProductsByVariants(ctx context.Context, variantIDs []uuid.UUID) (map[uuid.UUID]*catalog.Product, error) {
	args := m.Called(ctx, variantIDs)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[uuid.UUID]*catalog.Product), args.Error(1)
}

// MockStockRepository is a mock implementation of catalog.StockRepository
type MockStockRepository struct {
	mock.Mock
}

func (m *MockStockRepository) Decrease(ctx context.Context, variantID uuid.UUID, qty int) error {
	return m.Called(ctx, variantID, qty).Error(0)
}

func (m *MockStockRepository) Restore(ctx context.Context, variantID uuid.UUID, qty int) error {
	return m.Called(ctx, variantID, qty).Error(0)
}

func (m *MockStockRepository) Adjust(ctx context.Context, variantID uuid.UUID, delta int) (int, error) {
	args := m.Called(ctx, variantID, delta)
	return args.Int(0), args.Error(1)
}

// MockImageStore is a mock implementation of catalog.ImageStore
type MockImageStore struct {
	mock.Mock
}

func (m *MockImageStore) Put(ctx context.Context, key string, body io.Reader, size int64, contentType string) (string, error) {
	args := m.Called(ctx, key, body, size, contentType)
	return args.String(0), args.Error(1)
}

func (m *MockImageStore) Delete(ctx context.Context, url string) error {
	return m.Called(ctx, url).Error(0)
}

// =============================================================================
// Customer
// =============================================================================

// MockCustomerRepository is a mock implementation of customer.Repository
type MockCustomerRepository struct {
	mock.Mock
}

func (m *MockCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) FindByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*customer.Customer), args.Error(1)
}

func (m *MockCustomerRepository) List(ctx context.Context, filter shared.Filter) ([]customer.Customer, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]customer.Customer), args.Get(1).(int64), args.Error(2)
}

func (m *MockCustomerRepository) Save(ctx context.Context, c *customer.Customer) error {
	return m.Called(ctx, c).Error(0)
}

func (m *MockCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockWishlistRepository is a mock implementation of customer.WishlistRepository
type MockWishlistRepository struct {
	mock.Mock
}

func (m *MockWishlistRepository) Add(ctx context.Context, item customer.WishlistItem) error {
	return m.Called(ctx, item).Error(0)
}

func (m *MockWishlistRepository) Remove(ctx context.Context, customerID, productID uuid.UUID) error {
	return m.Called(ctx, customerID, productID).Error(0)
}

func (m *MockWishlistRepository) List(ctx context.Context, customerID uuid.UUID) ([]customer.WishlistItem, error) {
	args := m.Called(ctx, customerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]customer.WishlistItem), args.Error(1)
}

// =============================================================================
// Cart
// =============================================================================

// MockCartStore is a mock implementation of cart.Store
type MockCartStore struct {
	mock.Mock
}

func (m *MockCartStore) Get(ctx context.Context, id uuid.UUID) (*cart.Cart, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*cart.Cart), args.Error(1)
}

func (m *MockCartStore) Save(ctx context.Context, c *cart.Cart, ttl time.Duration) error {
	return m.Called(ctx, c, ttl).Error(0)
}

func (m *MockCartStore) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockIdempotencyStore is a mock implementation of shared.IdempotencyStore
type MockIdempotencyStore struct {
	mock.Mock
}

func (m *MockIdempotencyStore) Reserve(ctx context.Context, key, value string, ttl time.Duration) (string, bool, error) {
	args := m.Called(ctx, key, value, ttl)
	return args.String(0), args.Bool(1), args.Error(2)
}

func (m *MockIdempotencyStore) Release(ctx context.Context, key string) error {
	return m.Called(ctx, key).Error(0)
}

func (m *MockIdempotencyStore) Close() error {
	return m.Called().Error(0)
}

// =============================================================================
// Order and payment
// =============================================================================

// MockOrderRepository is a mock implementation of order.Repository
type MockOrderRepository struct {
	mock.Mock
}

func (m *MockOrderRepository) FindByID(ctx context.Context, id uuid.UUID) (*order.Order, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByNumber(ctx context.Context, number string) (*order.Order, error) {
	args := m.Called(ctx, number)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindByPaymentIntent(ctx context.Context, intentID string) (*order.Order, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*order.Order), args.Error(1)
}

func (m *MockOrderRepository) List(ctx context.Context, filter order.Filter) ([]order.Order, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]order.Order), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrderRepository) Save(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepository) SaveWithLock(ctx context.Context, o *order.Order) error {
	return m.Called(ctx, o).Error(0)
}

func (m *MockOrderRepository) FindStalePending(ctx context.Context, cutoff time.Time, limit int) ([]order.Order, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]order.Order), args.Error(1)
}

func (m *MockOrderRepository) FindPaidIntentsSince(ctx context.Context, since time.Time) (map[string]uuid.UUID, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(map[string]uuid.UUID), args.Error(1)
}

// MockOrphanRepository is a mock implementation of payment.OrphanRepository
type MockOrphanRepository struct {
	mock.Mock
}

func (m *MockOrphanRepository) FindByID(ctx context.Context, id uuid.UUID) (*payment.OrphanPayment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.OrphanPayment), args.Error(1)
}

func (m *MockOrphanRepository) FindByIntent(ctx context.Context, intentID string) (*payment.OrphanPayment, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.OrphanPayment), args.Error(1)
}

func (m *MockOrphanRepository) List(ctx context.Context, status *payment.OrphanStatus, filter shared.Filter) ([]payment.OrphanPayment, int64, error) {
	args := m.Called(ctx, status, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]payment.OrphanPayment), args.Get(1).(int64), args.Error(2)
}

func (m *MockOrphanRepository) Upsert(ctx context.Context, orphan *payment.OrphanPayment) (*payment.OrphanPayment, bool, error) {
	args := m.Called(ctx, orphan)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*payment.OrphanPayment), args.Bool(1), args.Error(2)
}

func (m *MockOrphanRepository) Save(ctx context.Context, orphan *payment.OrphanPayment) error {
	return m.Called(ctx, orphan).Error(0)
}

func (m *MockOrphanRepository) FindDue(ctx context.Context, cutoff time.Time, limit int) ([]payment.OrphanPayment, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.OrphanPayment), args.Error(1)
}

// MockGateway is a mock implementation of payment.Gateway
type MockGateway struct {
	mock.Mock
}

func (m *MockGateway) CreateIntent(ctx context.Context, req payment.CreateIntentRequest) (*payment.Intent, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Intent), args.Error(1)
}

func (m *MockGateway) GetIntent(ctx context.Context, intentID string) (*payment.Intent, error) {
	args := m.Called(ctx, intentID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Intent), args.Error(1)
}

func (m *MockGateway) Refund(ctx context.Context, req payment.RefundRequest) (*payment.Refund, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.Refund), args.Error(1)
}

func (m *MockGateway) ListSucceededIntents(ctx context.Context, since time.Time) ([]payment.Intent, error) {
	args := m.Called(ctx, since)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]payment.Intent), args.Error(1)
}

func (m *MockGateway) ParseWebhook(payload []byte, signature string) (*payment.GatewayEvent, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*payment.GatewayEvent), args.Error(1)
}

// MockWebhookRepository is a mock implementation of webhook.Repository
type MockWebhookRepository struct {
	mock.Mock
}

func (m *MockWebhookRepository) Begin(ctx context.Context, event *webhook.Event) (*webhook.Event, bool, error) {
	args := m.Called(ctx, event)
	if args.Get(0) == nil {
		return nil, false, args.Error(2)
	}
	return args.Get(0).(*webhook.Event), args.Bool(1), args.Error(2)
}

func (m *MockWebhookRepository) Save(ctx context.Context, event *webhook.Event) error {
	return m.Called(ctx, event).Error(0)
}

func (m *MockWebhookRepository) FindByEventID(ctx context.Context, provider, eventID string) (*webhook.Event, error) {
	args := m.Called(ctx, provider, eventID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*webhook.Event), args.Error(1)
}

// =============================================================================
// Shipping
// =============================================================================

// MockShipmentRepository is a mock implementation of shipping.Repository
type MockShipmentRepository struct {
	mock.Mock
}

func (m *MockShipmentRepository) FindByID(ctx context.Context, id uuid.UUID) (*shipping.Shipment, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.Shipment), args.Error(1)
}

func (m *MockShipmentRepository) FindByTracking(ctx context.Context, carrier, trackingNumber string) (*shipping.Shipment, error) {
	args := m.Called(ctx, carrier, trackingNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.Shipment), args.Error(1)
}

func (m *MockShipmentRepository) FindByOrder(ctx context.Context, orderID uuid.UUID) ([]shipping.Shipment, error) {
	args := m.Called(ctx, orderID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]shipping.Shipment), args.Error(1)
}

func (m *MockShipmentRepository) Save(ctx context.Context, s *shipping.Shipment) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockShipmentRepository) SaveWithLock(ctx context.Context, s *shipping.Shipment) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockShipmentRepository) FindDueForSync(ctx context.Context, cutoff time.Time, limit int) ([]shipping.Shipment, error) {
	args := m.Called(ctx, cutoff, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]shipping.Shipment), args.Error(1)
}

// MockDeliveryOptionRepository is a mock implementation of shipping.DeliveryOptionRepository
type MockDeliveryOptionRepository struct {
	mock.Mock
}

func (m *MockDeliveryOptionRepository) FindByID(ctx context.Context, id uuid.UUID) (*shipping.DeliveryOption, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.DeliveryOption), args.Error(1)
}

func (m *MockDeliveryOptionRepository) List(ctx context.Context, activeOnly bool) ([]shipping.DeliveryOption, error) {
	args := m.Called(ctx, activeOnly)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]shipping.DeliveryOption), args.Error(1)
}

func (m *MockDeliveryOptionRepository) Save(ctx context.Context, option *shipping.DeliveryOption) error {
	return m.Called(ctx, option).Error(0)
}

func (m *MockDeliveryOptionRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// MockShippingProvider is a mock implementation of shipping.Provider
type MockShippingProvider struct {
	mock.Mock
}

func (m *MockShippingProvider) CreateShipment(ctx context.Context, parcel shipping.Parcel) (*shipping.Label, error) {
	args := m.Called(ctx, parcel)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.Label), args.Error(1)
}

func (m *MockShippingProvider) Track(ctx context.Context, carrier, trackingNumber string) (*shipping.TrackingUpdate, error) {
	args := m.Called(ctx, carrier, trackingNumber)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.TrackingUpdate), args.Error(1)
}

func (m *MockShippingProvider) ParseWebhook(payload []byte, signature string) (*shipping.TrackingUpdate, error) {
	args := m.Called(payload, signature)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*shipping.TrackingUpdate), args.Error(1)
}

// =============================================================================
// Notification
// =============================================================================

// MockEmailRepository is a mock implementation of notification.Repository
type MockEmailRepository struct {
	mock.Mock
}

func (m *MockEmailRepository) FindByID(ctx context.Context, id uuid.UUID) (*notification.Message, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*notification.Message), args.Error(1)
}

func (m *MockEmailRepository) List(ctx context.Context, status *notification.Status, filter shared.Filter) ([]notification.Message, int64, error) {
	args := m.Called(ctx, status, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]notification.Message), args.Get(1).(int64), args.Error(2)
}

func (m *MockEmailRepository) Save(ctx context.Context, msg *notification.Message) error {
	return m.Called(ctx, msg).Error(0)
}

func (m *MockEmailRepository) FindDue(ctx context.Context, now time.Time, limit int) ([]notification.Message, error) {
	args := m.Called(ctx, now, limit)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]notification.Message), args.Error(1)
}

// MockSender is a mock implementation of notification.Sender
type MockSender struct {
	mock.Mock
}

func (m *MockSender) Send(ctx context.Context, msg *notification.Message) error {
	return m.Called(ctx, msg).Error(0)
}

// MockRenderer is a mock implementation of notification.Renderer
type MockRenderer struct {
	mock.Mock
}

func (m *MockRenderer) Render(template string, data any) (notification.Rendered, error) {
	args := m.Called(template, data)
	return args.Get(0).(notification.Rendered), args.Error(1)
}

// =============================================================================
// Staff
// =============================================================================

// MockStaffRepository is a mock implementation of staff.Repository
type MockStaffRepository struct {
	mock.Mock
}

func (m *MockStaffRepository) FindByID(ctx context.Context, id uuid.UUID) (*staff.Staff, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*staff.Staff), args.Error(1)
}

func (m *MockStaffRepository) FindByEmail(ctx context.Context, email string) (*staff.Staff, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*staff.Staff), args.Error(1)
}

func (m *MockStaffRepository) List(ctx context.Context, filter shared.Filter) ([]staff.Staff, int64, error) {
	args := m.Called(ctx, filter)
	if args.Get(0) == nil {
		return nil, 0, args.Error(2)
	}
	return args.Get(0).([]staff.Staff), args.Get(1).(int64), args.Error(2)
}

func (m *MockStaffRepository) Save(ctx context.Context, s *staff.Staff) error {
	return m.Called(ctx, s).Error(0)
}

func (m *MockStaffRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return m.Called(ctx, id).Error(0)
}

// =============================================================================
// Transactions
// =============================================================================

// FakeTxManager runs fn directly and counts how many units of work ran
type FakeTxManager struct {
	Calls int
}

func (f *FakeTxManager) WithinTx(ctx context.Context, fn func(ctx context.Context) error) error {
	f.Calls++
	return fn(ctx)
}

var (
	_ catalog.CategoryRepository        = (*MockCategoryRepository)(nil)
	_ catalog.ProductRepository         = (*MockProductRepository)(nil)
	_ catalog.StockRepository           = (*MockStockRepository)(nil)
	_ catalog.ImageStore                = (*MockImageStore)(nil)
	_ customer.Repository               = (*MockCustomerRepository)(nil)
	_ customer.WishlistRepository       = (*MockWishlistRepository)(nil)
	_ cart.Store                        = (*MockCartStore)(nil)
	_ shared.IdempotencyStore           = (*MockIdempotencyStore)(nil)
	_ order.Repository                  = (*MockOrderRepository)(nil)
	_ payment.OrphanRepository          = (*MockOrphanRepository)(nil)
	_ payment.Gateway                   = (*MockGateway)(nil)
	_ webhook.Repository                = (*MockWebhookRepository)(nil)
	_ shipping.Repository               = (*MockShipmentRepository)(nil)
	_ shipping.DeliveryOptionRepository = (*MockDeliveryOptionRepository)(nil)
	_ shipping.Provider                 = (*MockShippingProvider)(nil)
	_ notification.Repository           = (*MockEmailRepository)(nil)
	_ notification.Sender               = (*MockSender)(nil)
	_ notification.Renderer             = (*MockRenderer)(nil)
	_ staff.Repository                  = (*MockStaffRepository)(nil)
	_ shared.TxManager                  = (*FakeTxManager)(nil)
)
