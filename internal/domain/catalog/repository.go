package catalog

import (
	"context"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// CategoryRepository defines the interface for category persistence
type CategoryRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Category, error)
	FindBySlug(ctx context.Context, slug string) (*Category, error)
	FindAll(ctx context.Context) ([]Category, error)
	Save(ctx context.Context, category *Category) error
	// Delete removes the category and detaches its products and children
	Delete(ctx context.Context, id uuid.UUID) error
}

// ProductFilter narrows product listings
type ProductFilter struct {
	shared.Filter
	Status       *ProductStatus
	CategoryID   *uuid.UUID
	CategorySlug string
}

// ProductRepository defines the interface for product persistence.
// Products are always loaded together with their variants.
type ProductRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*Product, error)
	FindBySlug(ctx context.Context, slug string) (*Product, error)
	FindBySKU(ctx context.Context, sku string) (*Product, error)
	List(ctx context.Context, filter ProductFilter) ([]Product, int64, error)

	// Save creates or updates the product and reconciles its variant set
	Save(ctx context.Context, product *Product) error
	Delete(ctx context.Context, id uuid.UUID) error

	FindVariant(ctx context.Context, variantID uuid.UUID) (*Variant, error)
	FindVariants(ctx context.Context, variantIDs []uuid.UUID) ([]Variant, error)
	// FindProductsByVariants returns the owning product of each variant keyed by variant ID
	FindProductsByVariants(ctx context.Context, variantIDs []uuid.UUID) (map[uuid.UUID]*Product, error)
}

// StockRepository performs atomic stock mutations on variants
type StockRepository interface {
	// Decrease removes qty units only if at least qty are in stock.
	// Returns shared.ErrInsufficientStock otherwise.
	Decrease(ctx context.Context, variantID uuid.UUID, qty int) error
	// Restore adds qty units back. Returns shared.ErrNotFound if the variant no longer exists.
	Restore(ctx context.Context, variantID uuid.UUID, qty int) error
	// Adjust applies a signed delta, refusing to go below zero
	Adjust(ctx context.Context, variantID uuid.UUID, delta int) (int, error)
}
