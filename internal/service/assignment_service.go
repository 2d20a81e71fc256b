package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/campusdesk/complaint-service/internal/domain"
	"github.com/campusdesk/complaint-service/internal/observability"
	"github.com/campusdesk/complaint-service/internal/repository"
	apperrors "github.com/campusdesk/complaint-service/pkg/util/errorutil"
)

// DeadlineWatcher schedules a one-off deadline check for a complaint.
type DeadlineWatcher interface {
	WatchDeadline(complaintID string, at time.Time)
}

// AssignmentService handles complaint assignment operations.
type AssignmentService struct {
	complaints repository.ComplaintRepository
	categories repository.CategoryRepository
	users      repository.UserRepository
	policy     WorkloadPolicy
	notifier   Notifier
	watcher    DeadlineWatcher
	metrics    *observability.Metrics
	logger     *zap.Logger
	now        func() time.Time
}

// AssignmentDependencies bundles repositories.
type AssignmentDependencies struct {
	ComplaintRepo repository.ComplaintRepository
	CategoryRepo  repository.CategoryRepository
	UserRepo      repository.UserRepository
	Policy        WorkloadPolicy
	Notifier      Notifier
	Watcher       DeadlineWatcher
	Metrics       *observability.Metrics
	Logger        *zap.Logger
	Clock         func() time.Time
}

// AssignmentResult reports an automatic assignment.
type AssignmentResult struct {
	Complaint *domain.Complaint
	Chosen    Recommendation
}

// NewAssignmentService creates the service.
func NewAssignmentService(deps AssignmentDependencies) *AssignmentService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	return &AssignmentService{
		complaints: deps.ComplaintRepo,
		categories: deps.CategoryRepo,
		users:      deps.UserRepo,
		policy:     deps.Policy,
		notifier:   deps.Notifier,
		watcher:    deps.Watcher,
		metrics:    deps.Metrics,
		logger:     logger,
		now:        clock,
	}
}

// SetWatcher installs the deadline watcher after construction, for wiring
// where the watcher itself depends on services.
func (s *AssignmentService) SetWatcher(watcher DeadlineWatcher) {
	s.watcher = watcher
}

// Recommend ranks eligible staff for a complaint.
func (s *AssignmentService) Recommend(ctx context.Context, complaintID string) ([]Recommendation, error) {
	complaint, err := loadComplaint(ctx, s.complaints, complaintID)
	if err != nil {
		return nil, err
	}
	department, err := s.departmentFor(ctx, complaint)
	if err != nil {
		return nil, err
	}
	return s.rank(ctx, department)
}

// AutoAssign assigns the complaint to the lowest-scoring eligible staff member.
func (s *AssignmentService) AutoAssign(ctx context.Context, complaintID, actor string) (*AssignmentResult, error) {
	complaint, err := loadComplaint(ctx, s.complaints, complaintID)
	if err != nil {
		return nil, err
	}
	if complaint.Status.IsTerminal() {
		return nil, apperrors.NewTerminalState(complaint.ID, string(complaint.Status))
	}
	department, err := s.departmentFor(ctx, complaint)
	if err != nil {
		return nil, err
	}
	ranked, err := s.rank(ctx, department)
	if err != nil {
		return nil, err
	}
	if len(ranked) == 0 {
		return nil, apperrors.NewNoEligibleStaff(department)
	}

	chosen := ranked[0]
	remarks := fmt.Sprintf("Auto-assigned to %s (workload score %.2f)", staffLabel(chosen.Staff), chosen.Score)
	updated, err := s.assign(ctx, complaint, &chosen.Staff, actor, remarks)
	if err != nil {
		return nil, err
	}
	s.metrics.RecordAssignment("auto")
	s.logger.Info("complaint auto-assigned",
		zap.String("complaint_id", updated.ID),
		zap.String("staff_id", chosen.Staff.ID),
		zap.Float64("score", chosen.Score))
	return &AssignmentResult{Complaint: updated, Chosen: chosen}, nil
}

// ManualAssign assigns the complaint to staffID without scoring.
func (s *AssignmentService) ManualAssign(ctx context.Context, complaintID, staffID, actor string) (*domain.Complaint, error) {
	staff, err := s.users.GetByID(ctx, staffID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NewInvalidAssignee(staffID)
		}
		return nil, apperrors.MapError(err)
	}
	if !staff.CanBeAssigned() {
		return nil, apperrors.NewInvalidAssignee(staffID)
	}

	complaint, err := loadComplaint(ctx, s.complaints, complaintID)
	if err != nil {
		return nil, err
	}
	if complaint.Status.IsTerminal() {
		return nil, apperrors.NewTerminalState(complaint.ID, string(complaint.Status))
	}
	updated, err := s.assign(ctx, complaint, staff, actor, "Assigned to "+staffLabel(*staff))
	if err != nil {
		return nil, err
	}
	s.metrics.RecordAssignment("manual")
	return updated, nil
}

// Unassign clears the assignee and returns the complaint to submitted. An
// escalated complaint keeps its escalated status.
func (s *AssignmentService) Unassign(ctx context.Context, complaintID, actor, remarks string) (*domain.Complaint, error) {
	current, err := loadComplaint(ctx, s.complaints, complaintID)
	if err != nil {
		return nil, err
	}
	if current.Status.IsTerminal() {
		return nil, apperrors.NewTerminalState(current.ID, string(current.Status))
	}
	if current.AssigneeID == nil {
		return nil, apperrors.NewValidationError("complaint is not assigned", map[string]any{"complaint_id": current.ID})
	}

	next := current.Clone()
	next.AssigneeID = nil
	if next.Status != domain.StatusEscalated {
		next.Status = domain.StatusSubmitted
	}
	if strings.TrimSpace(remarks) == "" {
		remarks = "Assignee removed"
	}
	entry := domain.StatusEntry{Status: next.Status, Timestamp: s.now(), Actor: actor, Remarks: remarks}
	if err := applyTransition(ctx, s.complaints, current, next, entry); err != nil {
		return nil, err
	}
	if next.Status != current.Status {
		s.metrics.RecordTransition(string(next.Status))
		if s.notifier != nil {
			s.notifier.NotifyStatusChanged(ctx, next, current.Status, actor, remarks)
		}
	}
	return next, nil
}

// assign sets the assignee and moves the complaint to assigned. Escalated
// complaints keep their status.
func (s *AssignmentService) assign(ctx context.Context, current *domain.Complaint, staff *domain.User, actor, remarks string) (*domain.Complaint, error) {
	next := current.Clone()
	staffID := staff.ID
	next.AssigneeID = &staffID
	if next.Status != domain.StatusEscalated {
		next.Status = domain.StatusAssigned
	}
	entry := domain.StatusEntry{Status: next.Status, Timestamp: s.now(), Actor: actor, Remarks: remarks}
	if err := applyTransition(ctx, s.complaints, current, next, entry); err != nil {
		return nil, err
	}

	if s.notifier != nil {
		s.notifier.NotifyAssigned(ctx, next, staff, actor)
	}
	if s.watcher != nil && next.IsOpen() {
		s.watcher.WatchDeadline(next.ID, next.Deadline)
	}
	return next, nil
}

func (s *AssignmentService) departmentFor(ctx context.Context, complaint *domain.Complaint) (string, error) {
	category, err := s.categories.GetByID(ctx, complaint.CategoryID)
	if err != nil {
		if isNotFound(err) {
			return "", apperrors.NewNotFound("category", map[string]any{"category_id": complaint.CategoryID})
		}
		return "", apperrors.MapError(err)
	}
	return category.Department, nil
}

func (s *AssignmentService) rank(ctx context.Context, department string) ([]Recommendation, error) {
	candidates, err := s.users.FindEligibleStaff(ctx, department, s.policy.GeneralDepartment)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	loads := make([]StaffLoad, 0, len(candidates))
	for _, candidate := range candidates {
		open, err := s.complaints.CountActiveAssignments(ctx, candidate.ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		high, err := s.complaints.CountHighPriorityAssignments(ctx, candidate.ID)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		loads = append(loads, StaffLoad{Staff: candidate, OpenAssignments: open, HighPriorityAssignments: high})
	}
	return s.policy.Rank(department, loads), nil
}

func staffLabel(staff domain.User) string {
	if staff.Name != "" {
		return staff.Name
	}
	return staff.ID
}
