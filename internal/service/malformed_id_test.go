package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusdesk/complaint-service/internal/domain"
	"github.com/campusdesk/complaint-service/internal/repository"
	apperrors "github.com/campusdesk/complaint-service/pkg/util/errorutil"
)

// The wrappers below reject non-UUID ids the way Postgres does for UUID
// columns, so the service sees the same error it gets from the pgx store.

func invalidUUID(id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return &pgconn.PgError{Code: "22P02", Message: `invalid input syntax for type uuid: "` + id + `"`}
	}
	return nil
}

type uuidComplaints struct{ repository.ComplaintRepository }

func (r uuidComplaints) GetByID(ctx context.Context, id string) (*domain.Complaint, error) {
	if err := invalidUUID(id); err != nil {
		return nil, err
	}
	return r.ComplaintRepository.GetByID(ctx, id)
}

type uuidCategories struct{ repository.CategoryRepository }

func (r uuidCategories) GetByID(ctx context.Context, id string) (*domain.Category, error) {
	if err := invalidUUID(id); err != nil {
		return nil, err
	}
	return r.CategoryRepository.GetByID(ctx, id)
}

type uuidUsers struct{ repository.UserRepository }

func (r uuidUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	if err := invalidUUID(id); err != nil {
		return nil, err
	}
	return r.UserRepository.GetByID(ctx, id)
}

func TestComplaintOperationsTreatMalformedIDAsNotFound(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := NewComplaintService(ComplaintDependencies{
		ComplaintRepo: uuidComplaints{f.store.Complaints()},
		CategoryRepo:  uuidCategories{f.store.Categories()},
		Clock:         f.clock.Now,
	})

	_, err := svc.Get(ctx, "bogus")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.Escalate(ctx, "bogus", "admin-1", "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.TransitionStatus(ctx, "bogus", domain.StatusInProgress, "staff-1", "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.Reopen(ctx, "bogus", "staff-1", "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.UpdatePriority(ctx, "bogus", domain.PriorityHigh)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	escalated, err := svc.EscalateIfOverdue(ctx, "bogus")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
	assert.False(t, escalated)
}

func TestCreateRejectsMalformedCategoryID(t *testing.T) {
	f := newFixture(t)
	svc := NewComplaintService(ComplaintDependencies{
		ComplaintRepo: f.store.Complaints(),
		CategoryRepo:  uuidCategories{f.store.Categories()},
		Clock:         f.clock.Now,
	})

	_, err := svc.Create(context.Background(), "submitter-1", ComplaintCreateInput{CategoryID: "bogus", Title: "Leak"})
	require.Error(t, err)
	assert.ErrorIs(t, err, apperrors.ErrValidation)
	assert.Equal(t, 400, apperrors.ToDomainError(err).HTTPStatus)
}

func TestAssignmentTreatsMalformedIDs(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	staff := f.addUser(t, "wendy", domain.RoleStaff, "Maintenance", 0)
	complaint := f.seed(t, nil)
	orphan := f.seed(t, func(c *domain.Complaint) { c.CategoryID = "bogus" })

	svc := NewAssignmentService(AssignmentDependencies{
		ComplaintRepo: uuidComplaints{f.store.Complaints()},
		CategoryRepo:  uuidCategories{f.store.Categories()},
		UserRepo:      uuidUsers{f.store.Users()},
		Policy:        testPolicy(),
		Clock:         f.clock.Now,
	})

	_, err := svc.ManualAssign(ctx, complaint.ID, "bogus", "admin-1")
	assert.ErrorIs(t, err, apperrors.ErrInvalidAssignee)

	_, err = svc.ManualAssign(ctx, "bogus", staff.ID, "admin-1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.Recommend(ctx, "bogus")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.Recommend(ctx, orphan.ID)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = svc.Unassign(ctx, "bogus", "admin-1", "")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	assert.Nil(t, f.reload(t, complaint.ID).AssigneeID)
}

func TestCategoryLookupTreatsMalformedIDAsNotFound(t *testing.T) {
	f := newFixture(t)
	svc := NewCategoryService(uuidCategories{f.store.Categories()})

	_, err := svc.Get(context.Background(), "bogus")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}
