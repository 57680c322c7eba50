package cart

import (
	"context"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/storefront/backend/internal/domain/cart"
	"github.com/storefront/backend/internal/domain/catalog"
)

// Unavailable reasons
const (
	ReasonNotFound      = "NOT_FOUND"
	ReasonNotForSale    = "NOT_FOR_SALE"
	ReasonOutOfStock    = "OUT_OF_STOCK"
	ReasonNotEnoughLeft = "INSUFFICIENT_STOCK"
)

// Pricer prices cart lines against the current catalog. It is shared by the
// cart and checkout so both see the same prices and availability.
type Pricer struct {
	productRepo catalog.ProductRepository
}

// NewPricer creates a new Pricer
func NewPricer(productRepo catalog.ProductRepository) *Pricer {
	return &Pricer{productRepo: productRepo}
}

// PricedLine is the result of pricing one cart item
type PricedLine struct {
	Product *catalog.Product
	Variant *catalog.Variant
	LineResponse
}

// Price loads every variant in items with its product in one query and
// prices each line. Lines keep the order of items.
func (p *Pricer) Price(ctx context.Context, items []cart.Item) ([]PricedLine, decimal.Decimal, error) {
	if len(items) == 0 {
		return []PricedLine{}, decimal.Zero, nil
	}

	ids := make([]uuid.UUID, len(items))
	for i, item := range items {
		ids[i] = item.VariantID
	}
	products, err := p.productRepo.FindProductsByVariants(ctx, ids)
	if err != nil {
		return nil, decimal.Zero, err
	}

	lines := make([]PricedLine, len(items))
	subtotal := decimal.Zero
	for i, item := range items {
		line := PricedLine{LineResponse: LineResponse{
			VariantID: item.VariantID,
			Quantity:  item.Quantity,
			UnitPrice: decimal.Zero,
			LineTotal: decimal.Zero,
		}}

		product, ok := products[item.VariantID]
		if !ok {
			line.Reason = ReasonNotFound
			lines[i] = line
			continue
		}
		variant, err := product.Variant(item.VariantID)
		if err != nil {
			line.Reason = ReasonNotFound
			lines[i] = line
			continue
		}

		line.Product = product
		line.Variant = variant
		line.ProductID = product.ID
		line.ProductName = product.Name
		line.ProductSlug = product.Slug
		line.SKU = variant.SKU
		line.VariantName = variant.Name
		line.UnitPrice = variant.Price
		line.LineTotal = variant.Price.Mul(decimal.NewFromInt(int64(item.Quantity)))

		switch {
		case !product.IsPurchasable() || !variant.Active:
			line.Reason = ReasonNotForSale
		case variant.Stock <= 0:
			line.Reason = ReasonOutOfStock
		case variant.Stock < item.Quantity:
			line.Reason = ReasonNotEnoughLeft
		default:
			line.Available = true
			subtotal = subtotal.Add(line.LineTotal)
		}
		lines[i] = line
	}
	return lines, subtotal, nil
}
