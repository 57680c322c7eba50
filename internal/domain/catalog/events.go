package catalog

import (
	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// AggregateTypeProduct is the aggregate type of product events
const AggregateTypeProduct = "Product"

// Event type constants
const (
	EventTypeProductCreated   = "product.created"
	EventTypeProductPublished = "product.published"
	EventTypeProductArchived  = "product.archived"
)

// ProductEvent is raised on product lifecycle changes
type ProductEvent struct {
	shared.BaseDomainEvent
	ProductID uuid.UUID     `json:"product_id"`
	Slug      string        `json:"slug"`
	Name      string        `json:"name"`
	Status    ProductStatus `json:"status"`
}

// NewProductEvent creates a product event of the given type
func NewProductEvent(eventType string, p *Product) *ProductEvent {
	return &ProductEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(eventType, AggregateTypeProduct, p.ID),
		ProductID:       p.ID,
		Slug:            p.Slug,
		Name:            p.Name,
		Status:          p.Status,
	}
}
