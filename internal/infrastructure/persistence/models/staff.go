package models

import (
	"time"

	"github.com/storefront/backend/internal/domain/staff"
)

// StaffModel is the persistence model for a back office user
type StaffModel struct {
	AggregateModel
	Email        string     `gorm:"type:varchar(254);not null;uniqueIndex:idx_staff_email"`
	Name         string     `gorm:"type:varchar(200);not null"`
	PasswordHash string     `gorm:"type:varchar(255);not null"`
	Role         staff.Role `gorm:"type:varchar(20);not null"`
	Active       bool       `gorm:"not null"`
	LastLoginAt  *time.Time
}

// TableName returns the table name for GORM
func (StaffModel) TableName() string {
	return "staff"
}

// ToDomain converts the persistence model to a domain Staff
func (m *StaffModel) ToDomain() *staff.Staff {
	return &staff.Staff{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Email:             m.Email,
		Name:              m.Name,
		PasswordHash:      m.PasswordHash,
		Role:              m.Role,
		Active:            m.Active,
		LastLoginAt:       m.LastLoginAt,
	}
}

// StaffModelFromDomain creates a persistence model from a domain Staff
func StaffModelFromDomain(s *staff.Staff) *StaffModel {
	m := &StaffModel{
		Email:        s.Email,
		Name:         s.Name,
		PasswordHash: s.PasswordHash,
		Role:         s.Role,
		Active:       s.Active,
		LastLoginAt:  s.LastLoginAt,
	}
	m.FromDomainAggregateRoot(s.BaseAggregateRoot)
	return m
}
