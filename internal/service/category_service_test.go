package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusdesk/complaint-service/internal/repository"
	apperrors "github.com/campusdesk/complaint-service/pkg/util/errorutil"
)

func TestCategoryLifecycle(t *testing.T) {
	ctx := context.Background()
	store := repository.NewMemoryStore()
	svc := NewCategoryService(store.Categories())

	created, err := svc.Create(ctx, CategoryInput{Name: " Noise ", Department: "Security", ResolutionTimeHours: 8})
	require.NoError(t, err)
	assert.Equal(t, "Noise", created.Name)
	assert.True(t, created.IsActive, "categories default to active")

	inactive := false
	updated, err := svc.Update(ctx, created.ID, CategoryInput{Name: "Noise", Department: "Security", IsActive: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.IsActive)
	assert.Equal(t, 0, updated.ResolutionTimeHours)

	active, err := svc.List(ctx, true)
	require.NoError(t, err)
	assert.Empty(t, active)

	all, err := svc.List(ctx, false)
	require.NoError(t, err)
	assert.Len(t, all, 1)

	require.NoError(t, svc.Delete(ctx, created.ID))
	_, err = svc.Get(ctx, created.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func TestCategoryValidation(t *testing.T) {
	svc := NewCategoryService(repository.NewMemoryStore().Categories())
	cases := map[string]CategoryInput{
		"missing name":       {Department: "Security"},
		"missing department": {Name: "Noise"},
		"negative hours":     {Name: "Noise", Department: "Security", ResolutionTimeHours: -1},
	}
	for name, input := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), input)
			require.Error(t, err)
			assert.Equal(t, apperrors.CodeValidation, apperrors.ToDomainError(err).Code)
		})
	}
}

func TestDeleteCategoryInUseConflicts(t *testing.T) {
	f := newFixture(t)
	f.seed(t, nil)
	svc := NewCategoryService(f.store.Categories())

	err := svc.Delete(context.Background(), f.category.ID)
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	err = svc.Delete(context.Background(), "missing")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.Update(context.Background(), "missing", CategoryInput{Name: "x", Department: "y"})
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
