package handlers

import (
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"

	"github.com/campusdesk/complaint-service/internal/api/dto"
	"github.com/campusdesk/complaint-service/internal/auth"
	"github.com/campusdesk/complaint-service/internal/domain"
	"github.com/campusdesk/complaint-service/internal/repository"
	"github.com/campusdesk/complaint-service/internal/service"
	apperrors "github.com/campusdesk/complaint-service/pkg/util/errorutil"
)

func principalUser(c *fiber.Ctx) (*domain.User, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal.User, nil
}

func parseBody(c *fiber.Ctx, out interface{}) error {
	if err := c.BodyParser(out); err != nil {
		return apperrors.NewValidationError("invalid payload", map[string]any{"reason": err.Error()})
	}
	return nil
}

func complaintResponse(c *domain.Complaint) dto.ComplaintResponse {
	history := make([]dto.StatusEntryResponse, 0, len(c.StatusHistory))
	for _, entry := range c.StatusHistory {
		history = append(history, dto.StatusEntryResponse{
			Status:    entry.Status,
			Timestamp: entry.Timestamp,
			Actor:     entry.Actor,
			Remarks:   entry.Remarks,
		})
	}
	return dto.ComplaintResponse{
		ID:          c.ID,
		TicketRef:   c.TicketRef,
		Title:       c.Title,
		Description: c.Description,
		CategoryID:  c.CategoryID,
		SubmitterID: c.SubmitterID,
		Priority:    c.Priority,
		Status:      c.Status,
		AssigneeID:  c.AssigneeID,
		Deadline:    c.Deadline,
		ResolvedAt:  c.ResolvedAt,
		Escalation: dto.EscalationResponse{
			IsEscalated: c.Escalation.IsEscalated,
			EscalatedAt: c.Escalation.EscalatedAt,
			EscalatedBy: c.Escalation.EscalatedBy,
			Reason:      c.Escalation.Reason,
		},
		StatusHistory: history,
		CreatedAt:     c.CreatedAt,
		UpdatedAt:     c.UpdatedAt,
	}
}

func complaintSummary(c *domain.Complaint) dto.ComplaintSummary {
	return dto.ComplaintSummary{
		ID:          c.ID,
		TicketRef:   c.TicketRef,
		Title:       c.Title,
		CategoryID:  c.CategoryID,
		Priority:    c.Priority,
		Status:      c.Status,
		AssigneeID:  c.AssigneeID,
		Deadline:    c.Deadline,
		IsEscalated: c.Escalation.IsEscalated,
	}
}

func sweepResultResponse(r *service.SweepResult) *dto.SweepResultResponse {
	if r == nil {
		return nil
	}
	details := make([]dto.SweepDetailResponse, 0, len(r.Details))
	for _, d := range r.Details {
		details = append(details, dto.SweepDetailResponse{
			ComplaintID:  d.ComplaintID,
			TicketRef:    d.TicketRef,
			OverdueHours: d.OverdueHours,
			Escalated:    d.Escalated,
			Error:        d.Error,
		})
	}
	return &dto.SweepResultResponse{
		EscalatedCount: r.EscalatedCount,
		ErrorCount:     r.ErrorCount,
		Details:        details,
		StartedAt:      r.StartedAt,
		FinishedAt:     r.FinishedAt,
	}
}

func recommendationResponse(r service.Recommendation) dto.RecommendationResponse {
	return dto.RecommendationResponse{
		StaffID:                 r.Staff.ID,
		Name:                    r.Staff.Name,
		Role:                    r.Staff.Role,
		Department:              r.Staff.Department,
		OpenAssignments:         r.OpenAssignments,
		HighPriorityAssignments: r.HighPriorityAssignments,
		DepartmentMatch:         r.DepartmentMatch,
		Score:                   r.Score,
		Recommended:             r.Recommended,
	}
}

func categoryResponse(c *domain.Category) dto.CategoryResponse {
	return dto.CategoryResponse{
		ID:                  c.ID,
		Name:                c.Name,
		Description:         c.Description,
		Department:          c.Department,
		ResolutionTimeHours: c.ResolutionTimeHours,
		IsActive:            c.IsActive,
		CreatedAt:           c.CreatedAt,
		UpdatedAt:           c.UpdatedAt,
	}
}

// parseWindow reads from/to as RFC3339 timestamps or YYYY-MM-DD dates. A bare
// "to" date covers the whole day.
func parseWindow(c *fiber.Ctx) (repository.ReportWindow, error) {
	var window repository.ReportWindow
	if raw := strings.TrimSpace(c.Query("from")); raw != "" {
		t, _, err := parseTimeParam(raw)
		if err != nil {
			return window, apperrors.NewValidationError("invalid from", map[string]any{"from": raw})
		}
		window.From = &t
	}
	if raw := strings.TrimSpace(c.Query("to")); raw != "" {
		t, dateOnly, err := parseTimeParam(raw)
		if err != nil {
			return window, apperrors.NewValidationError("invalid to", map[string]any{"to": raw})
		}
		if dateOnly {
			t = t.Add(24*time.Hour - time.Nanosecond)
		}
		window.To = &t
	}
	if window.From != nil && window.To != nil && window.To.Before(*window.From) {
		return window, apperrors.NewValidationError("to must not be before from", nil)
	}
	return window, nil
}

func parseTimeParam(raw string) (time.Time, bool, error) {
	if t, err := time.Parse(time.RFC3339, raw); err == nil {
		return t, false, nil
	}
	t, err := time.Parse("2006-01-02", raw)
	return t, true, err
}

func parseComplaintFilter(c *fiber.Ctx) (repository.ComplaintFilter, error) {
	filter := repository.ComplaintFilter{
		Limit:  c.QueryInt("limit", 50),
		Offset: c.QueryInt("offset", 0),
	}
	if filter.Limit <= 0 || filter.Limit > 200 {
		filter.Limit = 50
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}
	if categoryID := c.Query("category_id"); categoryID != "" {
		if _, err := uuid.Parse(categoryID); err != nil {
			return filter, apperrors.NewValidationError("invalid category_id", map[string]any{"category_id": categoryID})
		}
		filter.CategoryID = &categoryID
	}
	if assignee := c.Query("assignee_id"); assignee != "" {
		if _, err := uuid.Parse(assignee); err != nil {
			return filter, apperrors.NewValidationError("invalid assignee_id", map[string]any{"assignee_id": assignee})
		}
		filter.AssigneeID = &assignee
	}
	if statuses := c.Query("status"); statuses != "" {
		for _, part := range strings.Split(statuses, ",") {
			status := domain.ComplaintStatus(strings.TrimSpace(part))
			if !status.Valid() {
				return filter, apperrors.NewValidationError("unknown status", map[string]any{"status": part})
			}
			filter.Statuses = append(filter.Statuses, status)
		}
	}
	if priorities := c.Query("priority"); priorities != "" {
		for _, part := range strings.Split(priorities, ",") {
			priority := domain.ComplaintPriority(strings.TrimSpace(part))
			if !priority.Valid() {
				return filter, apperrors.NewValidationError("unknown priority", map[string]any{"priority": part})
			}
			filter.Priorities = append(filter.Priorities, priority)
		}
	}
	window, err := parseWindow(c)
	if err != nil {
		return filter, err
	}
	filter.CreatedFrom = window.From
	filter.CreatedTo = window.To
	return filter, nil
}
