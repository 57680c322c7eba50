package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/customer"
	"github.com/storefront/backend/internal/domain/shared"
)

// CustomerModel is the persistence model for the Customer aggregate
type CustomerModel struct {
	AggregateModel
	Email          string          `gorm:"type:varchar(254);not null;uniqueIndex:idx_customers_email"`
	Name           string          `gorm:"type:varchar(200);not null"`
	Phone          string          `gorm:"type:varchar(50)"`
	DefaultAddress *shared.Address `gorm:"type:text;serializer:json"`
}

// TableName returns the table name for GORM
func (CustomerModel) TableName() string {
	return "customers"
}

// ToDomain converts the persistence model to a domain Customer
func (m *CustomerModel) ToDomain() *customer.Customer {
	return &customer.Customer{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Email:             m.Email,
		Name:              m.Name,
		Phone:             m.Phone,
		DefaultAddress:    m.DefaultAddress,
	}
}

// CustomerModelFromDomain creates a persistence model from a domain Customer
func CustomerModelFromDomain(c *customer.Customer) *CustomerModel {
	m := &CustomerModel{
		Email:          c.Email,
		Name:           c.Name,
		Phone:          c.Phone,
		DefaultAddress: c.DefaultAddress,
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}

// WishlistItemModel links a customer to a saved product
type WishlistItemModel struct {
	CustomerID uuid.UUID `gorm:"type:uuid;primaryKey"`
	ProductID  uuid.UUID `gorm:"type:uuid;primaryKey;index"`
	AddedAt    time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (WishlistItemModel) TableName() string {
	return "wishlist_items"
}

// ToDomain converts the persistence model to a domain WishlistItem
func (m *WishlistItemModel) ToDomain() customer.WishlistItem {
	return customer.WishlistItem{
		CustomerID: m.CustomerID,
		ProductID:  m.ProductID,
		AddedAt:    m.AddedAt,
	}
}

// WishlistItemModelFromDomain creates a persistence model from a domain WishlistItem
func WishlistItemModelFromDomain(item customer.WishlistItem) *WishlistItemModel {
	return &WishlistItemModel{
		CustomerID: item.CustomerID,
		ProductID:  item.ProductID,
		AddedAt:    item.AddedAt,
	}
}
