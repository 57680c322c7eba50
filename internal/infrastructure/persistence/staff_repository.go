package persistence

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/internal/domain/staff"
	"github.com/storefront/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormStaffRepository implements staff.Repository using GORM
type GormStaffRepository struct {
	db *gorm.DB
}

// NewGormStaffRepository creates a new GormStaffRepository
func NewGormStaffRepository(db *gorm.DB) *GormStaffRepository {
	return &GormStaffRepository{db: db}
}

// FindByID finds a staff member by ID
func (r *GormStaffRepository) FindByID(ctx context.Context, id uuid.UUID) (*staff.Staff, error) {
	var m models.StaffModel
	if err := conn(ctx, r.db).First(&m, "id = ?", id).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// FindByEmail finds a staff member by login email
func (r *GormStaffRepository) FindByEmail(ctx context.Context, email string) (*staff.Staff, error) {
	var m models.StaffModel
	if err := conn(ctx, r.db).First(&m, "email = ?", strings.ToLower(strings.TrimSpace(email))).Error; err != nil {
		return nil, translateError(err)
	}
	return m.ToDomain(), nil
}

// List returns a page of staff accounts
func (r *GormStaffRepository) List(ctx context.Context, filter shared.Filter) ([]staff.Staff, int64, error) {
	query := conn(ctx, r.db).Model(&models.StaffModel{})
	if strings.TrimSpace(filter.Search) != "" {
		pattern := likePattern(filter.Search)
		query = query.Where("LOWER(name) LIKE ? OR LOWER(email) LIKE ?", pattern, pattern)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}
	var rows []models.StaffModel
	if err := paginate(query, filter, StaffSortFields, "created_at").Find(&rows).Error; err != nil {
		return nil, 0, err
	}
	members := make([]staff.Staff, 0, len(rows))
	for i := range rows {
		members = append(members, *rows[i].ToDomain())
	}
	return members, total, nil
}

// Save creates or updates a staff member
func (r *GormStaffRepository) Save(ctx context.Context, s *staff.Staff) error {
	return translateError(conn(ctx, r.db).Save(models.StaffModelFromDomain(s)).Error)
}

// Delete removes a staff member
func (r *GormStaffRepository) Delete(ctx context.Context, id uuid.UUID) error {
	result := conn(ctx, r.db).Delete(&models.StaffModel{}, "id = ?", id)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

var _ staff.Repository = (*GormStaffRepository)(nil)
