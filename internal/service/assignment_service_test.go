package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusdesk/complaint-service/internal/domain"
	apperrors "github.com/campusdesk/complaint-service/pkg/util/errorutil"
)

func newAssignmentService(f *fixture, watcher DeadlineWatcher) *AssignmentService {
	return NewAssignmentService(AssignmentDependencies{
		ComplaintRepo: f.store.Complaints(),
		CategoryRepo:  f.store.Categories(),
		UserRepo:      f.store.Users(),
		Policy:        testPolicy(),
		Notifier:      f.notifier,
		Watcher:       watcher,
		Metrics:       f.metrics,
		Clock:         f.clock.Now,
	})
}

func TestAutoAssignPicksLowestScore(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	watcher := &recordingWatcher{}
	svc := newAssignmentService(f, watcher)

	a := f.addUser(t, "alice", domain.RoleStaff, "Maintenance", 0)
	b := f.addUser(t, "bob", domain.RoleStaff, "Maintenance", time.Minute)
	f.seed(t, func(c *domain.Complaint) {
		c.Status = domain.StatusAssigned
		c.AssigneeID = &a.ID
		c.Priority = domain.PriorityHigh
	})
	target := f.seed(t, nil)

	result, err := svc.AutoAssign(ctx, target.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, b.ID, result.Chosen.Staff.ID)
	assert.Equal(t, 0.0, result.Chosen.Score)
	assert.Equal(t, domain.StatusAssigned, result.Complaint.Status)
	require.NotNil(t, result.Complaint.AssigneeID)
	assert.Equal(t, b.ID, *result.Complaint.AssigneeID)
	assert.Equal(t, "Auto-assigned to bob (workload score 0.00)",
		result.Complaint.StatusHistory[len(result.Complaint.StatusHistory)-1].Remarks)

	assert.Equal(t, target.Deadline, watcher.watched[target.ID])
	assert.Contains(t, f.notifier.kinds(), "assigned")
}

func TestAutoAssignTieBreaksOnRegistrationOrder(t *testing.T) {
	f := newFixture(t)
	svc := newAssignmentService(f, nil)
	first := f.addUser(t, "first", domain.RoleStaff, "Maintenance", 0)
	f.addUser(t, "second", domain.RoleStaff, "Maintenance", time.Minute)
	target := f.seed(t, nil)

	result, err := svc.AutoAssign(context.Background(), target.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, first.ID, result.Chosen.Staff.ID)
}

func TestAutoAssignWithoutEligibleStaff(t *testing.T) {
	f := newFixture(t)
	svc := newAssignmentService(f, nil)
	f.addUser(t, "finance", domain.RoleStaff, "Finance", 0)
	target := f.seed(t, nil)

	_, err := svc.AutoAssign(context.Background(), target.ID, "admin-1")
	assert.ErrorIs(t, err, apperrors.ErrNoEligibleStaff)
	assert.Nil(t, f.reload(t, target.ID).AssigneeID)
}

func TestRecommendIncludesGeneralAndAdmins(t *testing.T) {
	f := newFixture(t)
	svc := newAssignmentService(f, nil)
	f.addUser(t, "local", domain.RoleStaff, "Maintenance", 0)
	f.addUser(t, "general", domain.RoleStaff, "General", time.Minute)
	f.addUser(t, "admin", domain.RoleAdmin, "IT", 2*time.Minute)
	f.addUser(t, "finance", domain.RoleStaff, "Finance", 3*time.Minute)
	target := f.seed(t, nil)

	ranked, err := svc.Recommend(context.Background(), target.ID)
	require.NoError(t, err)
	require.Len(t, ranked, 3)
	assert.Equal(t, "admin", ranked[0].Staff.Name)
	assert.Equal(t, "local", ranked[1].Staff.Name)
	assert.Equal(t, "general", ranked[2].Staff.Name)
	assert.False(t, ranked[2].DepartmentMatch)
}

func TestManualAssignValidatesAssignee(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newAssignmentService(f, nil)
	submitter := f.addUser(t, "sam", domain.RoleUser, "Maintenance", 0)
	target := f.seed(t, nil)

	_, err := svc.ManualAssign(ctx, target.ID, submitter.ID, "admin-1")
	assert.ErrorIs(t, err, apperrors.ErrInvalidAssignee)

	_, err = svc.ManualAssign(ctx, target.ID, "ghost", "admin-1")
	assert.ErrorIs(t, err, apperrors.ErrInvalidAssignee)

	closed := f.seed(t, func(c *domain.Complaint) { c.Status = domain.StatusClosed })
	worker := f.addUser(t, "wendy", domain.RoleStaff, "Finance", time.Minute)
	_, err = svc.ManualAssign(ctx, closed.ID, worker.ID, "admin-1")
	assert.ErrorIs(t, err, apperrors.ErrTerminalState)

	assigned, err := svc.ManualAssign(ctx, target.ID, worker.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, worker.ID, *assigned.AssigneeID)
	assert.Equal(t, "Assigned to wendy", assigned.StatusHistory[len(assigned.StatusHistory)-1].Remarks)
}

func TestAssignKeepsEscalatedStatus(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	watcher := &recordingWatcher{}
	svc := newAssignmentService(f, watcher)
	worker := f.addUser(t, "wendy", domain.RoleStaff, "Maintenance", 0)
	escalated := f.seed(t, func(c *domain.Complaint) {
		c.Status = domain.StatusEscalated
		c.Escalation.IsEscalated = true
	})

	assigned, err := svc.ManualAssign(ctx, escalated.ID, worker.ID, "admin-1")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEscalated, assigned.Status)
	assert.Empty(t, watcher.watched, "escalated complaints need no deadline check")

	unassigned, err := svc.Unassign(ctx, escalated.ID, "admin-1", "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusEscalated, unassigned.Status)
	assert.Nil(t, unassigned.AssigneeID)
}

func TestUnassign(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newAssignmentService(f, nil)
	assigned := f.seed(t, func(c *domain.Complaint) {
		c.Status = domain.StatusInProgress
		c.AssigneeID = strPtr("staff-1")
	})
	open := f.seed(t, nil)
	resolved := f.seed(t, func(c *domain.Complaint) {
		c.Status = domain.StatusResolved
		c.AssigneeID = strPtr("staff-1")
	})

	updated, err := svc.Unassign(ctx, assigned.ID, "admin-1", "")
	require.NoError(t, err)
	assert.Equal(t, domain.StatusSubmitted, updated.Status)
	assert.Nil(t, updated.AssigneeID)
	assert.Equal(t, "Assignee removed", updated.StatusHistory[len(updated.StatusHistory)-1].Remarks)

	_, err = svc.Unassign(ctx, open.ID, "admin-1", "")
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.ToDomainError(err).Code)

	_, err = svc.Unassign(ctx, resolved.ID, "admin-1", "")
	assert.ErrorIs(t, err, apperrors.ErrTerminalState)
}

func TestConcurrentReassignmentConflicts(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	svc := newAssignmentService(f, nil)

	a := f.addUser(t, "alice", domain.RoleStaff, "Maintenance", 0)
	b := f.addUser(t, "bob", domain.RoleStaff, "Maintenance", time.Minute)
	c := f.addUser(t, "carol", domain.RoleStaff, "Maintenance", 2*time.Minute)
	complaint := f.seed(t, func(cmp *domain.Complaint) {
		cmp.Status = domain.StatusAssigned
		cmp.AssigneeID = &a.ID
	})
	stale := f.reload(t, complaint.ID)

	_, err := svc.ManualAssign(ctx, complaint.ID, b.ID, "admin-1")
	require.NoError(t, err)

	_, err = svc.assign(ctx, stale, c, "admin-2", "Assigned to carol")
	assert.ErrorIs(t, err, apperrors.ErrConflict)

	stored := f.reload(t, complaint.ID)
	require.NotNil(t, stored.AssigneeID)
	assert.Equal(t, b.ID, *stored.AssigneeID)
	assert.Len(t, stored.StatusHistory, 2)
}
