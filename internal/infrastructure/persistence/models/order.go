package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/order"
)

// OrderModel is the persistence model for the Order aggregate
type OrderModel struct {
	AggregateModel
	Number           string              `gorm:"type:varchar(32);not null;uniqueIndex:idx_orders_number"`
	CustomerID       *uuid.UUID          `gorm:"type:uuid;index"`
	Email            string              `gorm:"type:varchar(254);not null;index"`
	ShippingAddress  AddressModel        `gorm:"embedded;embeddedPrefix:ship_"`
	Items            []OrderItemModel    `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	Subtotal         decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	ShippingFee      decimal.Decimal     `gorm:"type:decimal(18,4);not null;default:0"`
	Total            decimal.Decimal     `gorm:"type:decimal(18,4);not null"`
	Currency         string              `gorm:"type:char(3);not null"`
	Status           order.Status        `gorm:"type:varchar(20);not null;index"`
	PaymentStatus    order.PaymentStatus `gorm:"type:varchar(20);not null"`
	PaymentIntentID  *string             `gorm:"type:varchar(255);uniqueIndex:idx_orders_payment_intent"`
	DeliveryOptionID *uuid.UUID          `gorm:"type:uuid"`
	PaidAt           *time.Time
	ShippedAt        *time.Time
	DeliveredAt      *time.Time
	CancelledAt      *time.Time
	RefundedAt       *time.Time
	CancelReason     string `gorm:"type:varchar(500)"`
	RefundID         string `gorm:"type:varchar(255)"`
}

// TableName returns the table name for GORM
func (OrderModel) TableName() string {
	return "orders"
}

// ToDomain converts the persistence model to a domain Order
func (m *OrderModel) ToDomain() *order.Order {
	o := &order.Order{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Number:            m.Number,
		CustomerID:        m.CustomerID,
		Email:             m.Email,
		ShippingAddress:   m.ShippingAddress.ToDomain(),
		Items:             make([]order.Item, 0, len(m.Items)),
		Subtotal:          m.Subtotal,
		ShippingFee:       m.ShippingFee,
		Total:             m.Total,
		Currency:          m.Currency,
		Status:            m.Status,
		PaymentStatus:     m.PaymentStatus,
		DeliveryOptionID:  m.DeliveryOptionID,
		PaidAt:            m.PaidAt,
		ShippedAt:         m.ShippedAt,
		DeliveredAt:       m.DeliveredAt,
		CancelledAt:       m.CancelledAt,
		RefundedAt:        m.RefundedAt,
		CancelReason:      m.CancelReason,
		RefundID:          m.RefundID,
	}
	if m.PaymentIntentID != nil {
		o.PaymentIntentID = *m.PaymentIntentID
	}
	for i := range m.Items {
		o.Items = append(o.Items, m.Items[i].ToDomain())
	}
	return o
}

// OrderModelFromDomain creates a persistence model from a domain Order.
// An empty intent id is stored as NULL so the unique index only covers real intents.
func OrderModelFromDomain(o *order.Order) *OrderModel {
	m := &OrderModel{
		Number:           o.Number,
		CustomerID:       o.CustomerID,
		Email:            o.Email,
		ShippingAddress:  AddressModelFromDomain(o.ShippingAddress),
		Items:            make([]OrderItemModel, 0, len(o.Items)),
		Subtotal:         o.Subtotal,
		ShippingFee:      o.ShippingFee,
		Total:            o.Total,
		Currency:         o.Currency,
		Status:           o.Status,
		PaymentStatus:    o.PaymentStatus,
		DeliveryOptionID: o.DeliveryOptionID,
		PaidAt:           o.PaidAt,
		ShippedAt:        o.ShippedAt,
		DeliveredAt:      o.DeliveredAt,
		CancelledAt:      o.CancelledAt,
		RefundedAt:       o.RefundedAt,
		CancelReason:     o.CancelReason,
		RefundID:         o.RefundID,
	}
	m.FromDomainAggregateRoot(o.BaseAggregateRoot)
	if o.PaymentIntentID != "" {
		intent := o.PaymentIntentID
		m.PaymentIntentID = &intent
	}
	for _, item := range o.Items {
		m.Items = append(m.Items, OrderItemModelFromDomain(o.ID, item))
	}
	return m
}

// OrderItemModel is the persistence model for an order line
type OrderItemModel struct {
	ID        uuid.UUID       `gorm:"type:uuid;primaryKey"`
	OrderID   uuid.UUID       `gorm:"type:uuid;not null;index"`
	VariantID *uuid.UUID      `gorm:"type:uuid;index"`
	SKU       string          `gorm:"column:sku;type:varchar(64);not null"`
	Name      string          `gorm:"type:varchar(400);not null"`
	UnitPrice decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Quantity  int             `gorm:"not null"`
	LineTotal decimal.Decimal `gorm:"type:decimal(18,4);not null"`
}

// TableName returns the table name for GORM
func (OrderItemModel) TableName() string {
	return "order_items"
}

// ToDomain converts the persistence model to a domain Item
func (m *OrderItemModel) ToDomain() order.Item {
	return order.Item{
		ID:        m.ID,
		OrderID:   m.OrderID,
		VariantID: m.VariantID,
		SKU:       m.SKU,
		Name:      m.Name,
		UnitPrice: m.UnitPrice,
		Quantity:  m.Quantity,
		LineTotal: m.LineTotal,
	}
}

// OrderItemModelFromDomain creates a persistence model from a domain Item
func OrderItemModelFromDomain(orderID uuid.UUID, item order.Item) OrderItemModel {
	return OrderItemModel{
		ID:        item.ID,
		OrderID:   orderID,
		VariantID: item.VariantID,
		SKU:       item.SKU,
		Name:      item.Name,
		UnitPrice: item.UnitPrice,
		Quantity:  item.Quantity,
		LineTotal: item.LineTotal,
	}
}
