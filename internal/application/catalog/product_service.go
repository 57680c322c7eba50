package catalog

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
)

// DefaultMaxImageSize caps product image uploads (5MB)
const DefaultMaxImageSize int64 = 5 << 20

// ProductService handles products, their variants, stock and images
type ProductService struct {
	productRepo  catalog.ProductRepository
	categoryRepo catalog.CategoryRepository
	stockRepo    catalog.StockRepository
	images       catalog.ImageStore
	publisher    shared.EventPublisher
	logger       *zap.Logger
	maxImageSize int64
	currency     string
}

// ProductServiceOption configures a ProductService
type ProductServiceOption func(*ProductService)

// WithImageStore enables image uploads
func WithImageStore(store catalog.ImageStore) ProductServiceOption {
	return func(s *ProductService) {
		s.images = store
	}
}

// WithMaxImageSize overrides DefaultMaxImageSize
func WithMaxImageSize(n int64) ProductServiceOption {
	return func(s *ProductService) {
		if n > 0 {
			s.maxImageSize = n
		}
	}
}

// WithCurrency rounds variant prices to the store currency's minor unit
func WithCurrency(currency string) ProductServiceOption {
	return func(s *ProductService) {
		s.currency = currency
	}
}

// WithProductLogger sets the logger
func WithProductLogger(logger *zap.Logger) ProductServiceOption {
	return func(s *ProductService) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewProductService creates a new ProductService
func NewProductService(
	productRepo catalog.ProductRepository,
	categoryRepo catalog.CategoryRepository,
	stockRepo catalog.StockRepository,
	publisher shared.EventPublisher,
	opts ...ProductServiceOption,
) *ProductService {
	s := &ProductService{
		productRepo:  productRepo,
		categoryRepo: categoryRepo,
		stockRepo:    stockRepo,
		publisher:    publisher,
		logger:       zap.NewNop(),
		maxImageSize: DefaultMaxImageSize,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Create creates a draft product with its initial variants
func (s *ProductService) Create(ctx context.Context, req CreateProductRequest) (*ProductResponse, error) {
	product, err := catalog.NewProduct(req.Name, req.Slug, req.Description)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSlugFree(ctx, product.Slug, uuid.Nil); err != nil {
		return nil, err
	}
	if req.CategoryID != nil {
		if err := s.ensureCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
		product.SetCategory(req.CategoryID)
	}
	for _, v := range req.Variants {
		if err := s.ensureSKUFree(ctx, v.SKU); err != nil {
			return nil, err
		}
		if _, err := product.AddVariant(v.SKU, v.Name, s.price(v.Price), v.Stock); err != nil {
			return nil, err
		}
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, product)

	response := ToProductResponse(product)
	return &response, nil
}

// GetByID retrieves a product with its variants
func (s *ProductService) GetByID(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	response := ToProductResponse(product)
	return &response, nil
}

// GetActiveBySlug returns a product for the storefront. Drafts and archived
// products are reported as not found.
func (s *ProductService) GetActiveBySlug(ctx context.Context, slug string) (*ProductResponse, error) {
	product, err := s.productRepo.FindBySlug(ctx, catalog.Slugify(slug))
	if err != nil {
		return nil, err
	}
	if !product.IsPurchasable() {
		return nil, shared.ErrNotFound.Withf("product %q not found", slug)
	}
	response := ToProductResponse(product)
	return &response, nil
}

// List returns products for the back office, any status unless filtered
func (s *ProductService) List(ctx context.Context, filter ProductListFilter) ([]ProductResponse, int64, error) {
	pf, err := toProductFilter(filter)
	if err != nil {
		return nil, 0, err
	}
	products, total, err := s.productRepo.List(ctx, pf)
	if err != nil {
		return nil, 0, err
	}
	return ToProductResponses(products), total, nil
}

// ListActive returns the storefront listing: only ACTIVE products
func (s *ProductService) ListActive(ctx context.Context, filter ProductListFilter) ([]ProductResponse, int64, error) {
	filter.Status = string(catalog.ProductStatusActive)
	return s.List(ctx, filter)
}

// Update applies a partial update
func (s *ProductService) Update(ctx context.Context, id uuid.UUID, req UpdateProductRequest) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Name != nil || req.Slug != nil || req.Description != nil {
		name, slug, description := product.Name, product.Slug, product.Description
		if req.Name != nil {
			name = *req.Name
		}
		if req.Slug != nil {
			slug = *req.Slug
		}
		if req.Description != nil {
			description = *req.Description
		}
		if err := product.Update(name, slug, description); err != nil {
			return nil, err
		}
		if err := s.ensureSlugFree(ctx, product.Slug, product.ID); err != nil {
			return nil, err
		}
	}
	switch {
	case req.ClearCategory:
		product.SetCategory(nil)
	case req.CategoryID != nil:
		if err := s.ensureCategory(ctx, *req.CategoryID); err != nil {
			return nil, err
		}
		product.SetCategory(req.CategoryID)
	}

	return s.save(ctx, product)
}

// Publish makes a product visible on the storefront
func (s *ProductService) Publish(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := product.Publish(); err != nil {
		return nil, err
	}
	return s.save(ctx, product)
}

// Archive hides a product from the storefront
func (s *ProductService) Archive(ctx context.Context, id uuid.UUID) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	product.Archive()
	return s.save(ctx, product)
}

// Delete removes a product, its variants and its stored images. Order lines
// keep their snapshot and lose the variant reference.
func (s *ProductService) Delete(ctx context.Context, id uuid.UUID) error {
	product, err := s.productRepo.FindByID(ctx, id)
	if err != nil {
		return err
	}
	if err := s.productRepo.Delete(ctx, id); err != nil {
		return err
	}
	for _, url := range product.Images {
		s.deleteImage(ctx, url)
	}
	return nil
}

// AddVariant adds a variant to a product
func (s *ProductService) AddVariant(ctx context.Context, productID uuid.UUID, req VariantRequest) (*VariantResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if err := s.ensureSKUFree(ctx, req.SKU); err != nil {
		return nil, err
	}
	variant, err := product.AddVariant(req.SKU, req.Name, s.price(req.Price), req.Stock)
	if err != nil {
		return nil, err
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	response := ToVariantResponse(variant)
	return &response, nil
}

// UpdateVariant applies a partial update to a variant. Stock is not touched here.
func (s *ProductService) UpdateVariant(ctx context.Context, variantID uuid.UUID, req UpdateVariantRequest) (*VariantResponse, error) {
	product, variant, err := s.findVariant(ctx, variantID)
	if err != nil {
		return nil, err
	}

	sku, name, price := variant.SKU, variant.Name, variant.Price
	if req.SKU != nil {
		sku = *req.SKU
	}
	if req.Name != nil {
		name = *req.Name
	}
	if req.Price != nil {
		price = *req.Price
	}
	if req.SKU != nil && !strings.EqualFold(strings.TrimSpace(sku), variant.SKU) {
		if err := s.ensureSKUFree(ctx, sku); err != nil {
			return nil, err
		}
	}
	if err := variant.Update(sku, name, s.price(price)); err != nil {
		return nil, err
	}
	if req.Active != nil {
		variant.SetActive(*req.Active)
	}

	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	response := ToVariantResponse(variant)
	return &response, nil
}

// DeleteVariant removes a variant from its product
func (s *ProductService) DeleteVariant(ctx context.Context, variantID uuid.UUID) error {
	product, _, err := s.findVariant(ctx, variantID)
	if err != nil {
		return err
	}
	if err := product.RemoveVariant(variantID); err != nil {
		return err
	}
	return s.productRepo.Save(ctx, product)
}

// AdjustStock applies a signed delta to a variant's stock and returns the new level
func (s *ProductService) AdjustStock(ctx context.Context, variantID uuid.UUID, req AdjustStockRequest) (*VariantResponse, error) {
	if req.Delta == 0 {
		return nil, shared.ErrInvalidInput.Withf("stock delta cannot be zero")
	}
	variant, err := s.productRepo.FindVariant(ctx, variantID)
	if err != nil {
		return nil, err
	}
	stock, err := s.stockRepo.Adjust(ctx, variantID, req.Delta)
	if err != nil {
		return nil, err
	}
	variant.Stock = stock

	s.logger.Info("Stock adjusted",
		zap.String("variant_id", variantID.String()),
		zap.String("sku", variant.SKU),
		zap.Int("delta", req.Delta),
		zap.Int("stock", stock),
		zap.String("reason", req.Reason))

	response := ToVariantResponse(variant)
	return &response, nil
}

// UploadImage stores an image in object storage and appends its public URL to the product
func (s *ProductService) UploadImage(ctx context.Context, productID uuid.UUID, body io.Reader, size int64, contentType string) (*ProductResponse, error) {
	if s.images == nil {
		return nil, shared.ErrInvalidState.Withf("image storage is not configured")
	}
	if size <= 0 {
		return nil, shared.ErrInvalidInput.Withf("image is empty")
	}
	if size > s.maxImageSize {
		return nil, shared.ErrInvalidInput.Withf("image exceeds %d bytes", s.maxImageSize)
	}

	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	key, err := catalog.ImageKey(product.ID, contentType)
	if err != nil {
		return nil, err
	}

	url, err := s.images.Put(ctx, key, body, size, contentType)
	if err != nil {
		return nil, err
	}
	product.AddImage(url)
	if err := s.productRepo.Save(ctx, product); err != nil {
		s.deleteImage(ctx, url)
		return nil, err
	}

	response := ToProductResponse(product)
	return &response, nil
}

// RemoveImage detaches an image from the product and deletes the stored object
func (s *ProductService) RemoveImage(ctx context.Context, productID uuid.UUID, url string) (*ProductResponse, error) {
	product, err := s.productRepo.FindByID(ctx, productID)
	if err != nil {
		return nil, err
	}
	if !product.RemoveImage(url) {
		return nil, shared.ErrNotFound.Withf("image not found on product")
	}
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.deleteImage(ctx, url)

	response := ToProductResponse(product)
	return &response, nil
}

func (s *ProductService) save(ctx context.Context, product *catalog.Product) (*ProductResponse, error) {
	if err := s.productRepo.Save(ctx, product); err != nil {
		return nil, err
	}
	s.publish(ctx, product)
	response := ToProductResponse(product)
	return &response, nil
}

func (s *ProductService) publish(ctx context.Context, product *catalog.Product) {
	if err := shared.PublishAndClear(ctx, s.publisher, product); err != nil {
		s.logger.Warn("Failed to publish product events",
			zap.String("product_id", product.ID.String()),
			zap.Error(err))
	}
}

func (s *ProductService) deleteImage(ctx context.Context, url string) {
	if s.images == nil {
		return
	}
	if err := s.images.Delete(ctx, url); err != nil {
		s.logger.Warn("Failed to delete product image", zap.String("url", url), zap.Error(err))
	}
}

func (s *ProductService) findVariant(ctx context.Context, variantID uuid.UUID) (*catalog.Product, *catalog.Variant, error) {
	v, err := s.productRepo.FindVariant(ctx, variantID)
	if err != nil {
		return nil, nil, err
	}
	product, err := s.productRepo.FindByID(ctx, v.ProductID)
	if err != nil {
		return nil, nil, err
	}
	variant, err := product.Variant(variantID)
	if err != nil {
		return nil, nil, err
	}
	return product, variant, nil
}

func (s *ProductService) ensureSlugFree(ctx context.Context, slug string, self uuid.UUID) error {
	existing, err := s.productRepo.FindBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil
		}
		return err
	}
	if existing.ID != self {
		return shared.ErrAlreadyExists.Withf("product with slug %q already exists", slug)
	}
	return nil
}

func (s *ProductService) ensureSKUFree(ctx context.Context, sku string) error {
	_, err := s.productRepo.FindBySKU(ctx, strings.ToUpper(strings.TrimSpace(sku)))
	if err == nil {
		return shared.ErrAlreadyExists.Withf("variant with SKU %s already exists", strings.ToUpper(sku))
	}
	if errors.Is(err, shared.ErrNotFound) {
		return nil
	}
	return err
}

func (s *ProductService) ensureCategory(ctx context.Context, id uuid.UUID) error {
	if _, err := s.categoryRepo.FindByID(ctx, id); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return shared.ErrInvalidInput.Withf("category %s not found", id)
		}
		return err
	}
	return nil
}

func toProductFilter(f ProductListFilter) (catalog.ProductFilter, error) {
	base := shared.DefaultFilter()
	base.Page = f.Page
	base.PageSize = f.PageSize
	base.Search = strings.TrimSpace(f.Search)
	if f.OrderBy != "" {
		base.OrderBy = f.OrderBy
	}
	if f.OrderDir != "" {
		base.OrderDir = f.OrderDir
	}

	pf := catalog.ProductFilter{
		Filter:       base.Normalize(),
		CategorySlug: catalog.Slugify(f.CategorySlug),
	}
	if f.Status != "" {
		status := catalog.ProductStatus(strings.ToUpper(f.Status))
		if !status.IsValid() {
			return pf, shared.ErrInvalidInput.Withf("invalid product status %q", f.Status)
		}
		pf.Status = &status
	}
	return pf, nil
}

func (s *ProductService) price(p decimal.Decimal) decimal.Decimal {
	return shared.RoundToCurrency(p, s.currency)
}
