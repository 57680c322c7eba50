package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storefront/backend/internal/domain/shared"
)

// ProductStatus represents the lifecycle status of a product
type ProductStatus string

const (
	ProductStatusDraft    ProductStatus = "DRAFT"
	ProductStatusActive   ProductStatus = "ACTIVE"
	ProductStatusArchived ProductStatus = "ARCHIVED"
)

// IsValid reports whether s is a known status
func (s ProductStatus) IsValid() bool {
	switch s {
	case ProductStatusDraft, ProductStatusActive, ProductStatusArchived:
		return true
	}
	return false
}

func (s ProductStatus) String() string {
	return string(s)
}

// Product is the aggregate root of the catalog. Variants are the sellable units.
type Product struct {
	shared.BaseAggregateRoot
	CategoryID  *uuid.UUID
	Name        string
	Slug        string
	Description string
	Status      ProductStatus
	Images      []string
	Variants    []Variant
}

// NewProduct creates a draft product
func NewProduct(name, slug, description string) (*Product, error) {
	p := &Product{
		BaseAggregateRoot: shared.NewBaseAggregateRoot(),
		Status:            ProductStatusDraft,
		Images:            []string{},
		Variants:          []Variant{},
	}
	if err := p.Update(name, slug, description); err != nil {
		return nil, err
	}
	p.AddDomainEvent(NewProductEvent(EventTypeProductCreated, p))
	return p, nil
}

// Update changes the descriptive fields of the product
func (p *Product) Update(name, slug, description string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.ErrInvalidInput.Withf("product name cannot be empty")
	}
	if len(name) > 200 {
		return shared.ErrInvalidInput.Withf("product name cannot exceed 200 characters")
	}
	if slug == "" {
		slug = name
	}
	slug = Slugify(slug)
	if slug == "" {
		return shared.ErrInvalidInput.Withf("product slug cannot be empty")
	}

	p.Name = name
	p.Slug = slug
	p.Description = description
	p.Touch()
	return nil
}

// SetCategory assigns the product to a category, nil removes it
func (p *Product) SetCategory(categoryID *uuid.UUID) {
	p.CategoryID = categoryID
	p.Touch()
}

// Publish makes the product visible on the storefront
func (p *Product) Publish() error {
	if p.Status == ProductStatusActive {
		return nil
	}
	if len(p.Variants) == 0 {
		return shared.ErrInvalidState.Withf("product %s has no variants", p.Slug)
	}
	p.Status = ProductStatusActive
	p.Touch()
	p.AddDomainEvent(NewProductEvent(EventTypeProductPublished, p))
	return nil
}

// Archive hides the product from the storefront
func (p *Product) Archive() {
	if p.Status == ProductStatusArchived {
		return
	}
	p.Status = ProductStatusArchived
	p.Touch()
	p.AddDomainEvent(NewProductEvent(EventTypeProductArchived, p))
}

// IsPurchasable reports whether the product can be added to a cart
func (p *Product) IsPurchasable() bool {
	return p.Status == ProductStatusActive
}

// AddImage appends an image URL
func (p *Product) AddImage(url string) {
	p.Images = append(p.Images, url)
	p.Touch()
}

// RemoveImage drops an image URL. It reports whether the URL was present.
func (p *Product) RemoveImage(url string) bool {
	for i, img := range p.Images {
		if img == url {
			p.Images = append(p.Images[:i], p.Images[i+1:]...)
			p.Touch()
			return true
		}
	}
	return false
}

// AddVariant adds a new variant to the product
func (p *Product) AddVariant(sku, name string, price decimal.Decimal, stock int) (*Variant, error) {
	v, err := NewVariant(p.ID, sku, name, price, stock)
	if err != nil {
		return nil, err
	}
	for _, existing := range p.Variants {
		if existing.SKU == v.SKU {
			return nil, shared.ErrAlreadyExists.Withf("variant with SKU %s already exists", v.SKU)
		}
	}
	p.Variants = append(p.Variants, *v)
	p.Touch()
	return &p.Variants[len(p.Variants)-1], nil
}

// Variant returns the variant with the given ID
func (p *Product) Variant(id uuid.UUID) (*Variant, error) {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			return &p.Variants[i], nil
		}
	}
	return nil, shared.ErrNotFound.Withf("variant %s not found", id)
}

// RemoveVariant drops a variant from the product
func (p *Product) RemoveVariant(id uuid.UUID) error {
	for i := range p.Variants {
		if p.Variants[i].ID == id {
			p.Variants = append(p.Variants[:i], p.Variants[i+1:]...)
			p.Touch()
			return nil
		}
	}
	return shared.ErrNotFound.Withf("variant %s not found", id)
}

// Variant is a sellable unit of a product with its own SKU, price and stock
type Variant struct {
	shared.BaseEntity
	ProductID uuid.UUID
	SKU       string
	Name      string
	Price     decimal.Decimal
	Stock     int
	Active    bool
}

// NewVariant creates an active variant
func NewVariant(productID uuid.UUID, sku, name string, price decimal.Decimal, stock int) (*Variant, error) {
	v := &Variant{
		BaseEntity: shared.NewBaseEntity(),
		ProductID:  productID,
		Active:     true,
	}
	if err := v.Update(sku, name, price); err != nil {
		return nil, err
	}
	if stock < 0 {
		return nil, shared.ErrInvalidInput.Withf("stock cannot be negative")
	}
	v.Stock = stock
	return v, nil
}

// Update changes SKU, name and price
func (v *Variant) Update(sku, name string, price decimal.Decimal) error {
	sku = strings.ToUpper(strings.TrimSpace(sku))
	if sku == "" {
		return shared.ErrInvalidInput.Withf("SKU cannot be empty")
	}
	if len(sku) > 64 {
		return shared.ErrInvalidInput.Withf("SKU cannot exceed 64 characters")
	}
	if price.IsNegative() {
		return shared.ErrInvalidInput.Withf("price cannot be negative")
	}
	v.SKU = sku
	v.Name = strings.TrimSpace(name)
	v.Price = price.Round(2)
	v.Touch()
	return nil
}

// SetActive enables or disables the variant
func (v *Variant) SetActive(active bool) {
	v.Active = active
	v.Touch()
}

// DecreaseStock removes qty units from stock
func (v *Variant) DecreaseStock(qty int) error {
	if qty <= 0 {
		return shared.ErrInvalidInput.Withf("quantity must be positive")
	}
	if v.Stock < qty {
		return shared.ErrInsufficientStock.Withf("insufficient stock for %s: have %d, need %d", v.SKU, v.Stock, qty)
	}
	v.Stock -= qty
	v.Touch()
	return nil
}

// RestoreStock returns qty units to stock
func (v *Variant) RestoreStock(qty int) error {
	if qty <= 0 {
		return shared.ErrInvalidInput.Withf("quantity must be positive")
	}
	v.Stock += qty
	v.Touch()
	return nil
}

// IsAvailable reports whether qty units can be sold right now
func (v *Variant) IsAvailable(qty int) bool {
	return v.Active && v.Stock >= qty
}
