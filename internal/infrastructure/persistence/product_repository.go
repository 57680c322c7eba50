package persistence

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormProductRepository implements catalog.ProductRepository using GORM
type GormProductRepository struct {
	db *gorm.DB
}

// NewGormProductRepository creates a new GormProductRepository
func NewGormProductRepository(db *gorm.DB) *GormProductRepository {
	return &GormProductRepository{db: db}
}

func preloadVariants(db *gorm.DB) *gorm.DB {
	return db.Preload("Variants", func(db *gorm.DB) *gorm.DB {
		return db.Order("sku ASC")
	})
}

// FindByID finds a product with its variants
func (r *GormProductRepository) FindByID(ctx context.Context, id uuid.UUID) (*catalog.Product, error) {
	var m models.ProductModel
	if err := preloadVariants(conn(ctx, r.db)).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindBySlug finds a product by its slug
func (r *GormProductRepository) FindBySlug(ctx context.Context, slug string) (*catalog.Product, error) {
	var m models.ProductModel
	if err := preloadVariants(conn(ctx, r.db)).First(&m, "slug = ?", slug).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindBySKU finds the product owning the variant with the given SKU
func (r *GormProductRepository) FindBySKU(ctx context.Context, sku string) (*catalog.Product, error) {
	var m models.ProductModel
	sub := conn(ctx, r.db).Model(&models.VariantModel{}).
		Select("product_id").
		Where("sku = ?", strings.ToUpper(strings.TrimSpace(sku)))
	if err := preloadVariants(conn(ctx, r.db)).First(&m, "id IN (?)", sub).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// List returns a page of products and the total number of matches
func (r *GormProductRepository) List(ctx context.Context, filter catalog.ProductFilter) ([]catalog.Product, int64, error) {
	query := conn(ctx, r.db).Model(&models.ProductModel{})
	if filter.Status != nil {
		query = query.Where("status = ?", *filter.Status)
	}
	if filter.CategoryID != nil {
		query = query.Where("category_id = ?", *filter.CategoryID)
	}
	if filter.CategorySlug != "" {
		sub := conn(ctx, r.db).Model(&models.CategoryModel{}).Select("id").Where("slug = ?", filter.CategorySlug)
		query = query.Where("category_id IN (?)", sub)
	}
	if strings.TrimSpace(filter.Search) != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(description) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var rows []models.ProductModel
	if err := preloadVariants(paginate(query, filter.Filter, ProductSortFields, "created_at")).Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	products := make([]catalog.Product, 0, len(rows))
	for i := range rows {
		products = append(products, *rows[i].ToDomain())
	}
	return products, total, nil
}

// Save creates or updates the product and reconciles its variants. Stock of
// existing variants is never written here, it only moves through StockRepository.
// Variants dropped from the product are deleted and detached from order lines.
func (r *GormProductRepository) Save(ctx context.Context, product *catalog.Product) error {
	m := models.ProductModelFromDomain(product)
	err := inTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Omit(clause.Associations).Save(m).Error; err != nil {
			return err
		}

		keep := make([]uuid.UUID, 0, len(product.Variants))
		for i := range product.Variants {
			v := models.VariantModelFromDomain(&product.Variants[i])
			v.ProductID = product.ID
			result := tx.Model(&models.VariantModel{}).
				Where("id = ?", v.ID).
				Updates(map[string]any{
					"sku":        v.SKU,
					"name":       v.Name,
					"price":      v.Price,
					"active":     v.Active,
					"updated_at": time.Now(),
				})
			if result.Error != nil {
				return result.Error
			}
			if result.RowsAffected == 0 {
				if err := tx.Create(v).Error; err != nil {
					return err
				}
			}
			keep = append(keep, v.ID)
		}

		stale := tx.Model(&models.VariantModel{}).Where("product_id = ?", product.ID)
		if len(keep) > 0 {
			stale = stale.Where("id NOT IN ?", keep)
		}
		var staleIDs []uuid.UUID
		if err := stale.Pluck("id", &staleIDs).Error; err != nil {
			return err
		}
		return deleteVariants(tx, staleIDs)
	})
	return translateError(err)
}

// Delete removes a product and its variants. Order lines keep their snapshot
// and lose the variant reference, wishlists drop the product.
func (r *GormProductRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		var variantIDs []uuid.UUID
		if err := tx.Model(&models.VariantModel{}).Where("product_id = ?", id).Pluck("id", &variantIDs).Error; err != nil {
			return err
		}
		if err := deleteVariants(tx, variantIDs); err != nil {
			return err
		}
		if err := tx.Delete(&models.WishlistItemModel{}, "product_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.ProductModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

func deleteVariants(tx *gorm.DB, ids []uuid.UUID) error {
	if len(ids) == 0 {
		return nil
	}
	if err := tx.Model(&models.OrderItemModel{}).
		Where("variant_id IN ?", ids).
		Update("variant_id", nil).Error; err != nil {
		return err
	}
	return tx.Delete(&models.VariantModel{}, "id IN ?", ids).Error
}

// FindVariant finds a single variant
func (r *GormProductRepository) FindVariant(ctx context.Context, variantID uuid.UUID) (*catalog.Variant, error) {
	var m models.VariantModel
	if err := conn(ctx, r.db).First(&m, "id = ?", variantID).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindVariants returns the variants that exist among variantIDs
func (r *GormProductRepository) FindVariants(ctx context.Context, variantIDs []uuid.UUID) ([]catalog.Variant, error) {
	if len(variantIDs) == 0 {
		return []catalog.Variant{}, nil
	}
	var rows []models.VariantModel
	if err := conn(ctx, r.db).Where("id IN ?", variantIDs).Find(&rows).Error; err != nil {
		return nil, err
	}
	variants := make([]catalog.Variant, 0, len(rows))
	for i := range rows {
		variants = append(variants, *rows[i].ToDomain())
	}
	return variants, nil
}

// FindProductsByVariants returns the owning product of each variant keyed by variant ID
func (r *GormProductRepository) FindProductsByVariants(ctx context.Context, variantIDs []uuid.UUID) (map[uuid.UUID]*catalog.Product, error) {
	result := make(map[uuid.UUID]*catalog.Product, len(variantIDs))
	if len(variantIDs) == 0 {
		return result, nil
	}
	sub := conn(ctx, r.db).Model(&models.VariantModel{}).Select("product_id").Where("id IN ?", variantIDs)
	var rows []models.ProductModel
	if err := preloadVariants(conn(ctx, r.db)).Where("id IN (?)", sub).Find(&rows).Error; err != nil {
		return nil, err
	}

	wanted := make(map[uuid.UUID]bool, len(variantIDs))
	for _, id := range variantIDs {
		wanted[id] = true
	}
	for i := range rows {
		p := rows[i].ToDomain()
		for _, v := range p.Variants {
			if wanted[v.ID] {
				result[v.ID] = p
			}
		}
	}
	return result, nil
}

var _ catalog.ProductRepository = (*GormProductRepository)(nil)
