package service

import (
	"context"
	"errors"
	"math"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"go.uber.org/zap"

	"github.com/campusdesk/complaint-service/internal/domain"
	"github.com/campusdesk/complaint-service/internal/observability"
	"github.com/campusdesk/complaint-service/internal/repository"
	apperrors "github.com/campusdesk/complaint-service/pkg/util/errorutil"
)

const (
	triggerSweep    = "sweep"
	triggerManual   = "manual"
	triggerDeferred = "deferred"

	manualEscalationReason = "Escalated manually before deadline"

	// MaxAtRiskBufferHours bounds the at-risk look-ahead to one year.
	MaxAtRiskBufferHours = 24 * 365
)

// ComplaintService owns the complaint lifecycle: creation with a fixed
// deadline, status transitions, escalation and the overdue sweep.
type ComplaintService struct {
	complaints   repository.ComplaintRepository
	categories   repository.CategoryRepository
	notifier     Notifier
	policy       DeadlinePolicy
	atRiskBuffer time.Duration
	metrics      *observability.Metrics
	logger       *zap.Logger
	now          func() time.Time
}

// ComplaintDependencies bundles collaborators for the complaint service.
type ComplaintDependencies struct {
	ComplaintRepo     repository.ComplaintRepository
	CategoryRepo      repository.CategoryRepository
	Notifier          Notifier
	Policy            DeadlinePolicy
	AtRiskBufferHours float64
	Metrics           *observability.Metrics
	Logger            *zap.Logger
	Clock             func() time.Time
}

// ComplaintCreateInput describes complaint creation payload.
type ComplaintCreateInput struct {
	CategoryID  string
	Title       string
	Description string
	Priority    domain.ComplaintPriority
}

// SweepDetail is the per-complaint outcome of a sweep.
type SweepDetail struct {
	ComplaintID  string
	TicketRef    string
	OverdueHours int
	Escalated    bool
	Error        string
}

// SweepResult aggregates one sweep.
type SweepResult struct {
	EscalatedCount int
	ErrorCount     int
	Details        []SweepDetail
	StartedAt      time.Time
	FinishedAt     time.Time
}

// AtRiskComplaint is an open complaint approaching its deadline.
type AtRiskComplaint struct {
	Complaint      domain.Complaint
	RemainingHours float64
	Risk           RiskLevel
}

// PendingEscalation is a complaint the next sweep would escalate.
type PendingEscalation struct {
	Complaint    domain.Complaint
	OverdueHours int
}

// NewComplaintService constructs the service.
func NewComplaintService(deps ComplaintDependencies) *ComplaintService {
	logger := deps.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	clock := deps.Clock
	if clock == nil {
		clock = time.Now
	}
	buffer := deps.AtRiskBufferHours
	if buffer <= 0 {
		buffer = 1
	}
	policy := deps.Policy
	if policy.DefaultHours == nil {
		policy = DeadlinePolicy{DefaultHours: defaultResolutionHours}
	}
	return &ComplaintService{
		complaints:   deps.ComplaintRepo,
		categories:   deps.CategoryRepo,
		notifier:     deps.Notifier,
		policy:       policy,
		atRiskBuffer: hoursToDuration(buffer),
		metrics:      deps.Metrics,
		logger:       logger,
		now:          clock,
	}
}

// Create registers a complaint and fixes its deadline.
func (s *ComplaintService) Create(ctx context.Context, submitterID string, input ComplaintCreateInput) (*domain.Complaint, error) {
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return nil, apperrors.NewValidationError("title is required", nil)
	}
	priority := input.Priority
	if priority == "" {
		priority = domain.PriorityMedium
	}
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": string(priority)})
	}

	category, err := s.categories.GetByID(ctx, input.CategoryID)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NewValidationError("unknown category", map[string]any{"category_id": input.CategoryID})
		}
		return nil, apperrors.MapError(err)
	}
	if !category.IsActive {
		return nil, apperrors.NewValidationError("category inactive", map[string]any{"category_id": category.ID})
	}

	now := s.now()
	complaint := &domain.Complaint{
		TicketRef:   generateTicketRef(),
		Title:       title,
		Description: strings.TrimSpace(input.Description),
		CategoryID:  category.ID,
		SubmitterID: submitterID,
		Priority:    priority,
		Status:      domain.StatusSubmitted,
		Deadline:    s.policy.ComputeDeadline(category, priority, now),
		CreatedAt:   now,
		StatusHistory: []domain.StatusEntry{{
			Status:    domain.StatusSubmitted,
			Timestamp: now,
			Actor:     submitterID,
			Remarks:   "Complaint submitted",
		}},
	}
	if err := s.complaints.Create(ctx, complaint); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.notifyCreated(ctx, complaint)
	return complaint, nil
}

// Get returns a complaint by id.
func (s *ComplaintService) Get(ctx context.Context, id string) (*domain.Complaint, error) {
	return loadComplaint(ctx, s.complaints, id)
}

// GetByTicketRef returns a complaint by its human-readable reference.
func (s *ComplaintService) GetByTicketRef(ctx context.Context, ref string) (*domain.Complaint, error) {
	complaint, err := s.complaints.GetByTicketRef(ctx, ref)
	if err != nil {
		if isNotFound(err) {
			return nil, apperrors.NewNotFound("complaint", map[string]any{"ticket_ref": ref})
		}
		return nil, apperrors.MapError(err)
	}
	return complaint, nil
}

// List returns complaints matching filter.
func (s *ComplaintService) List(ctx context.Context, filter repository.ComplaintFilter) ([]domain.Complaint, error) {
	complaints, err := s.complaints.List(ctx, filter)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return complaints, nil
}

// TransitionStatus moves a complaint to newStatus. Escalation and leaving a
// terminal state go through Escalate and Reopen instead.
func (s *ComplaintService) TransitionStatus(ctx context.Context, id string, newStatus domain.ComplaintStatus, actor, remarks string) (*domain.Complaint, error) {
	current, err := loadComplaint(ctx, s.complaints, id)
	if err != nil {
		return nil, err
	}
	if err := checkTransition(current.Status, newStatus); err != nil {
		return nil, err
	}

	now := s.now()
	next := current.Clone()
	next.Status = newStatus
	if newStatus == domain.StatusResolved {
		next.ResolvedAt = &now
	} else {
		next.ResolvedAt = nil
	}
	entry := domain.StatusEntry{Status: newStatus, Timestamp: now, Actor: actor, Remarks: remarks}
	if err := applyTransition(ctx, s.complaints, current, next, entry); err != nil {
		return nil, err
	}

	s.metrics.RecordTransition(string(newStatus))
	s.notifyStatusChanged(ctx, next, current.Status, actor, remarks)
	return next, nil
}

// Reopen returns a resolved or closed complaint to work: in_progress when it
// has an assignee, submitted otherwise.
func (s *ComplaintService) Reopen(ctx context.Context, id, actor, remarks string) (*domain.Complaint, error) {
	current, err := loadComplaint(ctx, s.complaints, id)
	if err != nil {
		return nil, err
	}
	target := domain.StatusSubmitted
	if current.AssigneeID != nil {
		target = domain.StatusInProgress
	}
	if !current.Status.IsTerminal() {
		return nil, apperrors.NewInvalidTransition(string(current.Status), string(target))
	}

	now := s.now()
	next := current.Clone()
	next.Status = target
	next.ResolvedAt = nil
	if strings.TrimSpace(remarks) == "" {
		remarks = "Complaint reopened"
	}
	entry := domain.StatusEntry{Status: target, Timestamp: now, Actor: actor, Remarks: remarks}
	if err := applyTransition(ctx, s.complaints, current, next, entry); err != nil {
		return nil, err
	}

	s.metrics.RecordTransition(string(target))
	s.notifyStatusChanged(ctx, next, current.Status, actor, remarks)
	return next, nil
}

// UpdatePriority changes priority. The deadline stays as computed at creation.
func (s *ComplaintService) UpdatePriority(ctx context.Context, id string, priority domain.ComplaintPriority) (*domain.Complaint, error) {
	if !priority.Valid() {
		return nil, apperrors.NewValidationError("unknown priority", map[string]any{"priority": string(priority)})
	}
	current, err := loadComplaint(ctx, s.complaints, id)
	if err != nil {
		return nil, err
	}
	if current.Status.IsTerminal() {
		return nil, apperrors.NewTerminalState(current.ID, string(current.Status))
	}
	if err := s.complaints.UpdatePriority(ctx, id, priority); err != nil {
		return nil, mapComplaintErr(err, id)
	}
	current.Priority = priority
	return current, nil
}

// Escalate marks a complaint escalated. An empty reason is derived from how
// far past its deadline the complaint is, or notes a manual escalation when
// the deadline has not passed yet.
func (s *ComplaintService) Escalate(ctx context.Context, id, actor, reason string) (*domain.Complaint, error) {
	current, err := loadComplaint(ctx, s.complaints, id)
	if err != nil {
		return nil, err
	}
	return s.escalate(ctx, current, actor, reason, triggerManual)
}

func (s *ComplaintService) escalate(ctx context.Context, current *domain.Complaint, actor, reason, trigger string) (*domain.Complaint, error) {
	if current.Escalation.IsEscalated {
		return nil, apperrors.NewAlreadyEscalated(current.ID)
	}
	if current.Status.IsTerminal() {
		return nil, apperrors.NewTerminalState(current.ID, string(current.Status))
	}

	now := s.now()
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = manualEscalationReason
		if now.After(current.Deadline) {
			reason = overdueReason(current.Deadline, now)
		}
	}
	if actor == "" {
		actor = domain.SystemActor
	}

	next := current.Clone()
	next.Status = domain.StatusEscalated
	next.ResolvedAt = nil
	next.Escalation = domain.Escalation{
		IsEscalated: true,
		EscalatedAt: &now,
		EscalatedBy: actor,
		Reason:      reason,
	}
	entry := domain.StatusEntry{Status: domain.StatusEscalated, Timestamp: now, Actor: actor, Remarks: reason}
	if err := applyTransition(ctx, s.complaints, current, next, entry); err != nil {
		return nil, err
	}

	s.metrics.RecordEscalation(trigger)
	s.metrics.RecordTransition(string(domain.StatusEscalated))
	if s.notifier != nil {
		s.notifier.NotifyEscalated(ctx, next, reason)
	}
	return next, nil
}

// SweepOverdue escalates every overdue, open, unescalated complaint. A failure
// on one complaint is logged and counted without stopping the batch; only a
// failed lookup is returned as an error.
func (s *ComplaintService) SweepOverdue(ctx context.Context) (*SweepResult, error) {
	started := s.now()
	overdue, err := s.complaints.FindOverdueOpenUnescalated(ctx, started)
	if err != nil {
		return nil, apperrors.MapError(err)
	}

	result := &SweepResult{StartedAt: started, Details: make([]SweepDetail, 0, len(overdue))}
	for i := range overdue {
		complaint := &overdue[i]
		detail := SweepDetail{
			ComplaintID:  complaint.ID,
			TicketRef:    complaint.TicketRef,
			OverdueHours: overdueHours(complaint.Deadline, started),
		}
		if _, err := s.escalate(ctx, complaint, domain.SystemActor, overdueReason(complaint.Deadline, started), triggerSweep); err != nil {
			result.ErrorCount++
			detail.Error = err.Error()
			s.logger.Warn("sweep escalation failed",
				zap.String("complaint_id", complaint.ID),
				zap.String("ticket_ref", complaint.TicketRef),
				zap.Error(err))
		} else {
			result.EscalatedCount++
			detail.Escalated = true
		}
		result.Details = append(result.Details, detail)
	}
	result.FinishedAt = s.now()

	s.logger.Info("escalation sweep finished",
		zap.Int("candidates", len(overdue)),
		zap.Int("escalated", result.EscalatedCount),
		zap.Int("errors", result.ErrorCount),
		zap.Duration("duration", result.FinishedAt.Sub(started)))
	return result, nil
}

// EscalateIfOverdue escalates a single complaint when it is still overdue and
// eligible. It reports whether an escalation happened; an ineligible record
// is not an error.
func (s *ComplaintService) EscalateIfOverdue(ctx context.Context, id string) (bool, error) {
	current, err := loadComplaint(ctx, s.complaints, id)
	if err != nil {
		return false, err
	}
	now := s.now()
	if !current.IsOpen() || !current.Deadline.Before(now) {
		return false, nil
	}
	if _, err := s.escalate(ctx, current, domain.SystemActor, overdueReason(current.Deadline, now), triggerDeferred); err != nil {
		if errors.Is(err, apperrors.ErrConflict) || errors.Is(err, apperrors.ErrAlreadyEscalated) {
			return false, nil
		}
		return false, err
	}
	return true, nil
}

// PendingEscalations previews what the next sweep would escalate.
func (s *ComplaintService) PendingEscalations(ctx context.Context) ([]PendingEscalation, error) {
	now := s.now()
	overdue, err := s.complaints.FindOverdueOpenUnescalated(ctx, now)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	pending := make([]PendingEscalation, 0, len(overdue))
	for _, complaint := range overdue {
		pending = append(pending, PendingEscalation{
			Complaint:    complaint,
			OverdueHours: overdueHours(complaint.Deadline, now),
		})
	}
	return pending, nil
}

// AtRisk lists open, unescalated complaints whose deadline falls within
// bufferHours from now. A non-positive buffer uses the configured default and
// buffers beyond MaxAtRiskBufferHours are capped.
func (s *ComplaintService) AtRisk(ctx context.Context, bufferHours float64) ([]AtRiskComplaint, error) {
	buffer := s.atRiskBuffer
	if bufferHours > 0 {
		buffer = hoursToDuration(math.Min(bufferHours, MaxAtRiskBufferHours))
	}
	now := s.now()
	complaints, err := s.complaints.FindAtRisk(ctx, now, now.Add(buffer))
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	result := make([]AtRiskComplaint, 0, len(complaints))
	for _, complaint := range complaints {
		remaining := complaint.Deadline.Sub(now)
		result = append(result, AtRiskComplaint{
			Complaint:      complaint,
			RemainingHours: remaining.Hours(),
			Risk:           RiskLevelFor(remaining),
		})
	}
	return result, nil
}

func (s *ComplaintService) notifyCreated(ctx context.Context, complaint *domain.Complaint) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyCreated(ctx, complaint)
}

func (s *ComplaintService) notifyStatusChanged(ctx context.Context, complaint *domain.Complaint, old domain.ComplaintStatus, actor, remarks string) {
	if s.notifier == nil {
		return
	}
	s.notifier.NotifyStatusChanged(ctx, complaint, old, actor, remarks)
}

func isNotFound(err error) bool {
	return errors.Is(err, pgx.ErrNoRows) || errors.Is(err, apperrors.ErrNotFound) || apperrors.IsMalformedID(err)
}

func hoursToDuration(hours float64) time.Duration {
	return time.Duration(hours * float64(time.Hour))
}
