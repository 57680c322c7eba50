package catalog

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/storefront/backend/internal/domain/catalog"
	"github.com/storefront/backend/internal/domain/shared"
	"github.com/storefront/backend/tests/testutil"
)

func TestCategoryService_Create(t *testing.T) {
	ctx := context.Background()

	t.Run("derives slug from name", func(t *testing.T) {
		repo := new(testutil.MockCategoryRepository)
		repo.On("FindBySlug", ctx, "summer-sale").Return(nil, shared.ErrNotFound)
		repo.On("Save", ctx, mock.AnythingOfType("*catalog.Category")).Return(nil)

		svc := NewCategoryService(repo)
		resp, err := svc.Create(ctx, CreateCategoryRequest{Name: "Summer Sale!", Description: "Hot deals"})
		require.NoError(t, err)
		assert.Equal(t, "summer-sale", resp.Slug)
		assert.Equal(t, "Hot deals", resp.Description)
		repo.AssertExpectations(t)
	})

	t.Run("duplicate slug", func(t *testing.T) {
		existing, _ := catalog.NewCategory("Shoes", "")
		repo := new(testutil.MockCategoryRepository)
		repo.On("FindBySlug", ctx, "shoes").Return(existing, nil)

		svc := NewCategoryService(repo)
		_, err := svc.Create(ctx, CreateCategoryRequest{Name: "Shoes"})
		assert.ErrorIs(t, err, shared.ErrAlreadyExists)
		repo.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
	})

	t.Run("missing parent", func(t *testing.T) {
		parentID := uuid.New()
		repo := new(testutil.MockCategoryRepository)
		repo.On("FindBySlug", ctx, "boots").Return(nil, shared.ErrNotFound)
		repo.On("FindByID", ctx, parentID).Return(nil, shared.ErrNotFound)

		svc := NewCategoryService(repo)
		_, err := svc.Create(ctx, CreateCategoryRequest{Name: "Boots", ParentID: &parentID})
		assert.ErrorIs(t, err, shared.ErrInvalidInput)
	})
}

func TestCategoryService_Update(t *testing.T) {
	ctx := context.Background()
	category, _ := catalog.NewCategory("Shoes", "")
	parentID := uuid.New()
	parent, _ := catalog.NewCategory("Footwear", "")
	parent.ID = parentID

	repo := new(testutil.MockCategoryRepository)
	repo.On("FindByID", ctx, category.ID).Return(category, nil)
	repo.On("FindByID", ctx, parentID).Return(parent, nil)
	repo.On("FindBySlug", ctx, "sneakers").Return(nil, shared.ErrNotFound)
	repo.On("Save", ctx, category).Return(nil)

	name := "Sneakers"
	svc := NewCategoryService(repo)
	resp, err := svc.Update(ctx, category.ID, UpdateCategoryRequest{Name: &name, ParentID: &parentID})
	require.NoError(t, err)
	assert.Equal(t, "sneakers", resp.Slug)
	assert.Equal(t, &parentID, resp.ParentID)

	resp, err = svc.Update(ctx, category.ID, UpdateCategoryRequest{ClearParent: true})
	require.NoError(t, err)
	assert.Nil(t, resp.ParentID)
}

func TestCategoryService_Delete(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	repo := new(testutil.MockCategoryRepository)
	repo.On("FindByID", ctx, id).Return(nil, shared.ErrNotFound).Once()
	svc := NewCategoryService(repo)
	assert.ErrorIs(t, svc.Delete(ctx, id), shared.ErrNotFound)

	category, _ := catalog.NewCategory("Hats", "")
	repo.On("FindByID", ctx, id).Return(category, nil)
	repo.On("Delete", ctx, id).Return(nil)
	require.NoError(t, svc.Delete(ctx, id))
	repo.AssertExpectations(t)
}
