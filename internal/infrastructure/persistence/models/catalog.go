package models

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/catalog"
)

// CategoryModel is the persistence model for the Category aggregate
type CategoryModel struct {
	AggregateModel
	Name        string     `gorm:"type:varchar(100);not null"`
	Slug        string     `gorm:"type:varchar(120);not null;uniqueIndex:idx_categories_slug"`
	Description string     `gorm:"type:text"`
	ParentID    *uuid.UUID `gorm:"type:uuid;index"`
	SortOrder   int        `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (CategoryModel) TableName() string {
	return "categories"
}

// ToDomain converts the persistence model to a domain Category
func (m *CategoryModel) ToDomain() *catalog.Category {
	return &catalog.Category{
		BaseAggregateRoot: m.ToAggregateRoot(),
		Name:              m.Name,
		Slug:              m.Slug,
		Description:       m.Description,
		ParentID:          m.ParentID,
		SortOrder:         m.SortOrder,
	}
}

// CategoryModelFromDomain creates a persistence model from a domain Category
func CategoryModelFromDomain(c *catalog.Category) *CategoryModel {
	m := &CategoryModel{
		Name:        c.Name,
		Slug:        c.Slug,
		Description: c.Description,
		ParentID:    c.ParentID,
		SortOrder:   c.SortOrder,
	}
	m.FromDomainAggregateRoot(c.BaseAggregateRoot)
	return m
}

// ProductModel is the persistence model for the Product aggregate.
// Image URLs are kept as a JSON array on the row.
type ProductModel struct {
	AggregateModel
	CategoryID  *uuid.UUID            `gorm:"type:uuid;index"`
	Name        string                `gorm:"type:varchar(200);not null"`
	Slug        string                `gorm:"type:varchar(220);not null;uniqueIndex:idx_products_slug"`
	Description string                `gorm:"type:text"`
	Status      catalog.ProductStatus `gorm:"type:varchar(20);not null;default:'DRAFT';index"`
	Images      []string              `gorm:"type:text;serializer:json"`
	Variants    []VariantModel        `gorm:"foreignKey:ProductID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain Product
func (m *ProductModel) ToDomain() *catalog.Product {
	p := &catalog.Product{
		BaseAggregateRoot: m.ToAggregateRoot(),
		CategoryID:        m.CategoryID,
		Name:              m.Name,
		Slug:              m.Slug,
		Description:       m.Description,
		Status:            m.Status,
		Images:            m.Images,
		Variants:          make([]catalog.Variant, 0, len(m.Variants)),
	}
	if p.Images == nil {
		p.Images = []string{}
	}
	for i := range m.Variants {
		p.Variants = append(p.Variants, *m.Variants[i].ToDomain())
	}
	return p
}

// ProductModelFromDomain creates a persistence model from a domain Product.
// Variants are converted separately by the repository.
func ProductModelFromDomain(p *catalog.Product) *ProductModel {
	m := &ProductModel{
		CategoryID:  p.CategoryID,
		Name:        p.Name,
		Slug:        p.Slug,
		Description: p.Description,
		Status:      p.Status,
		Images:      p.Images,
	}
	m.FromDomainAggregateRoot(p.BaseAggregateRoot)
	return m
}

// VariantModel is the persistence model for a product variant
type VariantModel struct {
	BaseModel
	ProductID uuid.UUID       `gorm:"type:uuid;not null;index"`
	SKU       string          `gorm:"column:sku;type:varchar(64);not null;uniqueIndex:idx_variants_sku"`
	Name      string          `gorm:"type:varchar(200);not null"`
	Price     decimal.Decimal `gorm:"type:decimal(18,4);not null"`
	Stock     int             `gorm:"not null;default:0;check:stock >= 0"`
	Active    bool            `gorm:"not null"`
}

// TableName returns the table name for GORM
func (VariantModel) TableName() string {
	return "variants"
}

// ToDomain converts the persistence model to a domain Variant
func (m *VariantModel) ToDomain() *catalog.Variant {
	return &catalog.Variant{
		BaseEntity: m.BaseModel.ToDomain(),
		ProductID:  m.ProductID,
		SKU:        m.SKU,
		Name:       m.Name,
		Price:      m.Price,
		Stock:      m.Stock,
		Active:     m.Active,
	}
}

// VariantModelFromDomain creates a persistence model from a domain Variant
func VariantModelFromDomain(v *catalog.Variant) *VariantModel {
	m := &VariantModel{
		ProductID: v.ProductID,
		SKU:       v.SKU,
		Name:      v.Name,
		Price:     v.Price,
		Stock:     v.Stock,
		Active:    v.Active,
	}
	m.FromDomainBaseEntity(v.BaseEntity)
	return m
}
