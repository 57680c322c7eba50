package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shipping"
)

// ShipmentModel is the persistence model for the Shipment aggregate
type ShipmentModel struct {
	AggregateModel
	OrderID            uuid.UUID       `gorm:"type:uuid;not null;index"`
	Carrier            string          `gorm:"type:varchar(50);not null;uniqueIndex:idx_shipments_tracking,priority:1"`
	Service            string          `gorm:"type:varchar(100)"`
	TrackingNumber     string          `gorm:"type:varchar(100);not null;uniqueIndex:idx_shipments_tracking,priority:2"`
	ProviderShipmentID string          `gorm:"type:varchar(255)"`
	LabelURL           string          `gorm:"type:varchar(1000)"`
	Status             shipping.Status `gorm:"type:varchar(30);not null;index"`
	StatusDetail       string          `gorm:"type:varchar(500)"`
	LastEventAt        *time.Time
	LastSyncedAt       *time.Time `gorm:"index"`
}

// TableName returns the table name for GORM
func (ShipmentModel) TableName() string {
	return "shipments"
}

// ToDomain converts the persistence model to a domain Shipment
func (m *ShipmentModel) ToDomain() *shipping.Shipment {
	return &shipping.Shipment{
		BaseAggregateRoot:  m.ToAggregateRoot(),
		OrderID:            m.OrderID,
		Carrier:            m.Carrier,
		Service:            m.Service,
		TrackingNumber:     m.TrackingNumber,
		ProviderShipmentID: m.ProviderShipmentID,
		LabelURL:           m.LabelURL,
		Status:             m.Status,
		StatusDetail:       m.StatusDetail,
		LastEventAt:        m.LastEventAt,
		LastSyncedAt:       m.LastSyncedAt,
	}
}

// ShipmentModelFromDomain creates a persistence model from a domain Shipment
func ShipmentModelFromDomain(s *shipping.Shipment) *ShipmentModel {
	m := &ShipmentModel{
		OrderID:            s.OrderID,
		Carrier:            s.Carrier,
		Service:            s.Service,
		TrackingNumber:     s.TrackingNumber,
		ProviderShipmentID: s.ProviderShipmentID,
		LabelURL:           s.LabelURL,
		Status:             s.Status,
		StatusDetail:       s.StatusDetail,
		LastEventAt:        s.LastEventAt,
		LastSyncedAt:       s.LastSyncedAt,
	}
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	return m
}

// DeliveryOptionModel is the persistence model for a delivery option
type DeliveryOptionModel struct {
	BaseModel
	Name          string          `gorm:"type:varchar(100);not null"`
	Carrier       string          `gorm:"type:varchar(50);not null"`
	Service       string          `gorm:"type:varchar(100)"`
	Price         decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	EstimatedDays int             `gorm:"not null;default:0"`
	Active        bool            `gorm:"not null"`
	SortOrder     int             `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (DeliveryOptionModel) TableName() string {
	return "delivery_options"
}

// ToDomain converts the persistence model to a domain DeliveryOption
func (m *DeliveryOptionModel) ToDomain() *shipping.DeliveryOption {
	return &shipping.DeliveryOption{
		BaseEntity:    m.BaseModel.ToDomain(),
		Name:          m.Name,
		Carrier:       m.Carrier,
		Service:       m.Service,
		Price:         m.Price,
		EstimatedDays: m.EstimatedDays,
		Active:        m.Active,
		SortOrder:     m.SortOrder,
	}
}

// DeliveryOptionModelFromDomain creates a persistence model from a domain DeliveryOption
func DeliveryOptionModelFromDomain(d *shipping.DeliveryOption) *DeliveryOptionModel {
	m := &DeliveryOptionModel{
		Name:          d.Name,
		Carrier:       d.Carrier,
		Service:       d.Service,
		Price:         d.Price,
		EstimatedDays: d.EstimatedDays,
		Active:        d.Active,
		SortOrder:     d.SortOrder,
	}
	m.FromDomainBaseEntity(d.BaseEntity)
	return m
}
