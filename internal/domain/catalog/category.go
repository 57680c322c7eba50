package catalog

import (
	"strings"

	"github.com/google/uuid"
	"github.com/storefront/backend/internal/domain/shared"
)

// Category groups products on the storefront
type Category struct {
	shared.BaseAggregateRoot
	Name        string
	Slug        string
	Description string
	ParentID    *uuid.UUID
	SortOrder   int
}

// NewCategory creates a new category. An empty slug is derived from the name.
func NewCategory(name, slug string) (*Category, error) {
	c := &Category{BaseAggregateRoot: shared.NewBaseAggregateRoot()}
	if err := c.Rename(name, slug); err != nil {
		return nil, err
	}
	return c, nil
}

// Rename updates name and slug
func (c *Category) Rename(name, slug string) error {
	name = strings.TrimSpace(name)
	if name == "" {
		return shared.ErrInvalidInput.Withf("category name cannot be empty")
	}
	if len(name) > 100 {
		return shared.ErrInvalidInput.Withf("category name cannot exceed 100 characters")
	}
	if slug == "" {
		slug = name
	}
	slug = Slugify(slug)
	if slug == "" {
		return shared.ErrInvalidInput.Withf("category slug cannot be empty")
	}

	c.Name = name
	c.Slug = slug
	c.Touch()
	return nil
}

// SetParent moves the category under parentID. Nil makes it a root category.
func (c *Category) SetParent(parentID *uuid.UUID) error {
	if parentID != nil && *parentID == c.ID {
		return shared.ErrInvalidInput.Withf("category cannot be its own parent")
	}
	c.ParentID = parentID
	c.Touch()
	return nil
}
