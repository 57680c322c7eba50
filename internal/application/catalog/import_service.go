package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"slices"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/catalogimport"
)

// ImportResult summarizes a catalog import
type ImportResult struct {
	DryRun            bool `json:"dry_run"`
	CategoriesCreated int  `json:"categories_created"`
	CategoriesUpdated int  `json:"categories_updated"`
	ProductsCreated   int  `json:"products_created"`
	ProductsUpdated   int  `json:"products_updated"`
	VariantsCreated   int  `json:"variants_created"`
	VariantsUpdated   int  `json:"variants_updated"`
	StockAdjusted     int  `json:"stock_adjusted"`
}

// ImportService bulk loads a YAML catalog file. Categories and products are
// matched by slug and variants by SKU, so re-running the same file is a no-op.
type ImportService struct {
	productRepo  catalog.ProductRepository
	categoryRepo catalog.CategoryRepository
	stockRepo    catalog.StockRepository
	txManager    shared.TxManager
	publisher    shared.EventPublisher
	logger       *zap.Logger
	maxFileSize  int64
	currency     string
}

// NewImportService creates a new ImportService
func NewImportService(
	productRepo catalog.ProductRepository,
	categoryRepo catalog.CategoryRepository,
	stockRepo catalog.StockRepository,
	txManager shared.TxManager,
	publisher shared.EventPublisher,
	logger *zap.Logger,
) *ImportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ImportService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		stockRepo:    stockRepo,
		txManager:    txManager,
		publisher:    publisher,
		logger:       logger,
		maxFileSize:  catalogimport.DefaultMaxFileSize,
	}
}

// SetCurrency rounds imported prices to the store currency's minor unit
func (s *ImportService) SetCurrency(currency string) {
	s.currency = currency
}

// Import parses r and applies it in a single transaction. With dryRun the
// file is only parsed and validated.
func (s *ImportService) Import(ctx context.Context, r io.Reader, dryRun bool) (*ImportResult, error) {
	doc, err := catalogimport.Parse(r, s.maxFileSize)
	if err != nil {
		return nil, shared.ErrInvalidInput.Wrap(err)
	}

	result := &ImportResult{DryRun: dryRun}
	if dryRun {
		return result, nil
	}

	var touched []*catalog.Product
	err = s.txManager.WithinTx(ctx, func(ctx context.Context) error {
		categories, err := s.importCategories(ctx, doc.Categories, result)
		if err != nil {
			return err
		}
		touched, err = s.importProducts(ctx, doc.Products, categories, result)
		return err
	})
	if err != nil {
		return nil, err
	}

	for _, p := range touched {
		if err := shared.PublishAndClear(ctx, s.publisher, p); err != nil {
			s.logger.Warn("Failed to publish product events after import",
				zap.String("product_id", p.ID.String()),
				zap.Error(err))
		}
	}

	s.logger.Info("Catalog imported",
		zap.Int("categories_created", result.CategoriesCreated),
		zap.Int("categories_updated", result.CategoriesUpdated),
		zap.Int("products_created", result.ProductsCreated),
		zap.Int("products_updated", result.ProductsUpdated),
		zap.Int("variants_created", result.VariantsCreated),
		zap.Int("variants_updated", result.VariantsUpdated),
		zap.Int("stock_adjusted", result.StockAdjusted))
	return result, nil
}

func (s *ImportService) importCategories(ctx context.Context, entries []catalogimport.CategoryEntry, result *ImportResult) (map[string]*catalog.Category, error) {
	bySlug := make(map[string]*catalog.Category, len(entries))

	for _, e := range entries {
		slug := catalogimport.CategorySlug(e)
		c, err := s.categoryRepo.FindBySlug(ctx, slug)
		switch {
		case errors.Is(err, shared.ErrNotFound):
			if c, err = catalog.NewCategory(e.Name, slug); err != nil {
				return nil, err
			}
			result.CategoriesCreated++
		case err != nil:
			return nil, err
		default:
			if err := c.Rename(e.Name, slug); err != nil {
				return nil, err
			}
			result.CategoriesUpdated++
		}
		c.Description = e.Description
		c.SortOrder = e.SortOrder
		if err := s.categoryRepo.Save(ctx, c); err != nil {
			return nil, fmt.Errorf("import category %s: %w", slug, err)
		}
		bySlug[slug] = c
	}

	// Parents are linked once every category in the file exists.
	for _, e := range entries {
		if e.Parent == "" {
			continue
		}
		c := bySlug[catalogimport.CategorySlug(e)]
		parent := bySlug[catalog.Slugify(e.Parent)]
		if err := c.SetParent(&parent.ID); err != nil {
			return nil, err
		}
		if err := s.categoryRepo.Save(ctx, c); err != nil {
			return nil, fmt.Errorf("import category %s: %w", c.Slug, err)
		}
	}
	return bySlug, nil
}

func (s *ImportService) importProducts(ctx context.Context, entries []catalogimport.ProductEntry, categories map[string]*catalog.Category, result *ImportResult) ([]*catalog.Product, error) {
	touched := make([]*catalog.Product, 0, len(entries))

	for i, e := range entries {
		slug := catalogimport.ProductSlug(e)
		p, err := s.productRepo.FindBySlug(ctx, slug)
		switch {
		case errors.Is(err, shared.ErrNotFound):
			if p, err = catalog.NewProduct(e.Name, slug, e.Description); err != nil {
				return nil, err
			}
			result.ProductsCreated++
		case err != nil:
			return nil, err
		default:
			if err := p.Update(e.Name, slug, e.Description); err != nil {
				return nil, err
			}
			result.ProductsUpdated++
		}

		if e.Category != "" {
			categoryID, err := s.resolveCategory(ctx, e.Category, categories)
			if err != nil {
				return nil, shared.ErrInvalidInput.Withf("products[%d]: %v", i, err)
			}
			p.SetCategory(categoryID)
		}
		if len(e.Images) > 0 && !slices.Equal(p.Images, e.Images) {
			p.Images = slices.Clone(e.Images)
		}

		adjustments, err := s.applyVariants(ctx, i, p, e.Variants, result)
		if err != nil {
			return nil, err
		}
		if e.Publish {
			if err := p.Publish(); err != nil {
				return nil, err
			}
		}
		if err := s.productRepo.Save(ctx, p); err != nil {
			return nil, fmt.Errorf("import product %s: %w", slug, err)
		}

		for _, adj := range adjustments {
			if _, err := s.stockRepo.Adjust(ctx, adj.variant.ID, adj.delta); err != nil {
				return nil, fmt.Errorf("import stock %s: %w", adj.variant.SKU, err)
			}
			result.StockAdjusted++
		}
		touched = append(touched, p)
	}
	return touched, nil
}

type stockAdjustment struct {
	variant *catalog.Variant
	delta   int
}

// applyVariants upserts variants on p. Stock of existing variants is set
// through the stock repository after the product is saved.
func (s *ImportService) applyVariants(ctx context.Context, index int, p *catalog.Product, entries []catalogimport.VariantEntry, result *ImportResult) ([]stockAdjustment, error) {
	var adjustments []stockAdjustment

	for j, e := range entries {
		sku := catalogimport.NormalizeSKU(e.SKU)
		v := variantBySKU(p, sku)

		if v == nil {
			owner, err := s.productRepo.FindBySKU(ctx, sku)
			switch {
			case err == nil && owner.ID != p.ID:
				return nil, shared.ErrAlreadyExists.Withf("products[%d].variants[%d]: SKU %s belongs to product %s", index, j, sku, owner.Slug)
			case err != nil && !errors.Is(err, shared.ErrNotFound):
				return nil, err
			}

			stock := 0
			if e.Stock != nil {
				stock = *e.Stock
			}
			if v, err = p.AddVariant(sku, e.Name, shared.RoundToCurrency(e.PriceDecimal(), s.currency), stock); err != nil {
				return nil, err
			}
			result.VariantsCreated++
		} else {
			if err := v.Update(sku, e.Name, shared.RoundToCurrency(e.PriceDecimal(), s.currency)); err != nil {
				return nil, err
			}
			if e.Stock != nil && *e.Stock != v.Stock {
				adjustments = append(adjustments, stockAdjustment{variant: v, delta: *e.Stock - v.Stock})
			}
			result.VariantsUpdated++
		}

		if e.Active != nil && *e.Active != v.Active {
			v.SetActive(*e.Active)
		}
	}
	return adjustments, nil
}

func (s *ImportService) resolveCategory(ctx context.Context, ref string, inFile map[string]*catalog.Category) (*uuid.UUID, error) {
	slug := catalog.Slugify(ref)
	if c, ok := inFile[slug]; ok {
		return &c.ID, nil
	}
	c, err := s.categoryRepo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, fmt.Errorf("category %q not found", ref)
		}
		return nil, err
	}
	return &c.ID, nil
}

func variantBySKU(p *catalog.Product, sku string) *catalog.Variant {
	for i := range p.Variants {
		if p.Variants[i].SKU == sku {
			return &p.Variants[i]
		}
	}
	return nil
}
