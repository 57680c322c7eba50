package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/customer"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormCustomerRepository implements customer.Repository using GORM
type GormCustomerRepository struct {
	db *gorm.DB
}

// NewGormCustomerRepository creates a new GormCustomerRepository
func NewGormCustomerRepository(db *gorm.DB) *GormCustomerRepository {
	return &GormCustomerRepository{db: db}
}

// FindByID finds a customer by its ID
func (r *GormCustomerRepository) FindByID(ctx context.Context, id uuid.UUID) (*customer.Customer, error) {
	var m models.CustomerModel
	if err := conn(ctx, r.db).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindByEmail finds a customer by normalized email
func (r *GormCustomerRepository) FindByEmail(ctx context.Context, email string) (*customer.Customer, error) {
	var m models.CustomerModel
	if err := conn(ctx, r.db).First(&m, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// List returns a page of customers, optionally matching name or email
func (r *GormCustomerRepository) List(ctx context.Context, filter shared.Filter) ([]customer.Customer, int64, error) {
	query := conn(ctx, r.db).Model(&models.CustomerModel{})
	if strings.TrimSpace(filter.Search) != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.CustomerModel
	if err := paginate(query, filter, CustomerSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	customers := make([]customer.Customer, 0, len(rows))
	for i := range rows {
		customers = append(customers, *rows[i].ToDomain())
	}
	return customers, total, nil
}

// Save creates or updates a customer
func (r *GormCustomerRepository) Save(ctx context.Context, c *customer.Customer) error {
	return translateError(conn(ctx, r.db).Save(models.CustomerModelFromDomain(c)).Error)
}

// Delete removes the customer and its wishlist. Their orders are kept and
// lose the customer reference; the version bump makes any order loaded
// before the delete fail its next locked save.
func (r *GormCustomerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return inTx(ctx, r.db, func(tx *gorm.DB) error {
		if err := tx.Model(&models.OrderModel{}).
			Where("customer_id = ?", id).
			Updates(map[string]any{
				"customer_id": nil,
				"version":     gorm.Expr("version + 1"),
				"updated_at":  shared.Now(),
			}).Error; err != nil {
			return err
		}
		if err := tx.Delete(&models.WishlistItemModel{}, "customer_id = ?", id).Error; err != nil {
			return err
		}
		result := tx.Delete(&models.CustomerModel{}, "id = ?", id)
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}
		return nil
	})
}

// GormWishlistRepository implements customer.WishlistRepository using GORM
type GormWishlistRepository struct {
	db *gorm.DB
}

// NewGormWishlistRepository creates a new GormWishlistRepository
func NewGormWishlistRepository(db *gorm.DB) *GormWishlistRepository {
	return &GormWishlistRepository{db: db}
}

// Add saves the pair, ignoring it when already present
func (r *GormWishlistRepository) Add(ctx context.Context, item customer.WishlistItem) error {
	return conn(ctx, r.db).
		Clauses(clause.OnConflict{DoNothing: true}).
		Create(models.WishlistItemModelFromDomain(item)).Error
}

// Remove deletes the pair. Removing an absent pair is not an error.
func (r *GormWishlistRepository) Remove(ctx context.Context, customerID, productID uuid.UUID) error {
	return conn(ctx, r.db).
		Delete(&models.WishlistItemModel{}, "customer_id = ? AND product_id = ?", customerID, productID).Error
}

// List returns the customer's wishlist, newest first
func (r *GormWishlistRepository) List(ctx context.Context, customerID uuid.UUID) ([]customer.WishlistItem, error) {
	var rows []models.WishlistItemModel
	if err := conn(ctx, r.db).
		Where("customer_id = ?", customerID).
		Order("added_at DESC").
		Find(&rows).Error; err != nil {
		return nil, err
	}
	items := make([]customer.WishlistItem, 0, len(rows))
	for i := range rows {
		items = append(items, rows[i].ToDomain())
	}
	return items, nil
}

var (
	_ customer.Repository         = (*GormCustomerRepository)(nil)
	_ customer.WishlistRepository = (*GormWishlistRepository)(nil)
)
