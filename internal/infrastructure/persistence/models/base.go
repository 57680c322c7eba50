package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// BaseModel provides common persistence fields for all models
type BaseModel struct {
	ID        uuid.UUID `gorm:"type:uuid;primaryKey"`
	CreatedAt time.Time `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

// ToDomain converts BaseModel to domain BaseEntity
func (m *BaseModel) ToDomain() shared.BaseEntity {
	return shared.BaseEntity{
		ID:        m.ID,
		CreatedAt: m.CreatedAt,
		UpdatedAt: m.UpdatedAt,
	}
}

// FromDomainBaseEntity populates BaseModel from domain BaseEntity
func (m *BaseModel) FromDomainBaseEntity(e shared.BaseEntity) {
	m.ID = e.ID
	m.CreatedAt = e.CreatedAt
	m.UpdatedAt = e.UpdatedAt
}

// AggregateModel extends BaseModel with a version for optimistic locking
type AggregateModel struct {
	BaseModel
	Version int `gorm:"not null;default:1"`
}

// FromDomainAggregateRoot populates AggregateModel from domain BaseAggregateRoot
func (m *AggregateModel) FromDomainAggregateRoot(a shared.BaseAggregateRoot) {
	m.FromDomainBaseEntity(a.BaseEntity)
	m.Version = a.Version
}

// ToAggregateRoot rebuilds the domain aggregate base
func (m *AggregateModel) ToAggregateRoot() shared.BaseAggregateRoot {
	root := shared.NewBaseAggregateRoot()
	root.BaseEntity = m.BaseModel.ToDomain()
	root.Version = m.Version
	return root
}

// AddressModel is an embedded postal address
type AddressModel struct {
	Name       string `gorm:"type:varchar(200)"`
	Line1      string `gorm:"type:varchar(200)"`
	Line2      string `gorm:"type:varchar(200)"`
	City       string `gorm:"type:varchar(100)"`
	Region     string `gorm:"type:varchar(100)"`
	PostalCode string `gorm:"type:varchar(20)"`
	Country    string `gorm:"type:char(2)"`
	Phone      string `gorm:"type:varchar(50)"`
}

// ToDomain converts the embedded columns to a domain Address
func (m AddressModel) ToDomain() shared.Address {
	return shared.Address{
		Name:       m.Name,
		Line1:      m.Line1,
		Line2:      m.Line2,
		City:       m.City,
		Region:     m.Region,
		PostalCode: m.PostalCode,
		Country:    m.Country,
		Phone:      m.Phone,
	}
}

// AddressModelFromDomain converts a domain Address to embedded columns
func AddressModelFromDomain(a shared.Address) AddressModel {
	return AddressModel{
		Name:       a.Name,
		Line1:      a.Line1,
		Line2:      a.Line2,
		City:       a.City,
		Region:     a.Region,
		PostalCode: a.PostalCode,
		Country:    a.Country,
		Phone:      a.Phone,
	}
}

// All returns every model, in dependency order, for AutoMigrate
func All() []any {
	return []any{
		&CategoryModel{},
		&ProductModel{},
		&VariantModel{},
		&CustomerModel{},
		&WishlistItemModel{},
		&DeliveryOptionModel{},
		&OrderModel{},
		&OrderItemModel{},
		&ShipmentModel{},
		&OrphanPaymentModel{},
		&WebhookEventModel{},
		&EmailMessageModel{},
		&StaffModel{},
	}
}
