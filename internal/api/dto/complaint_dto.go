package dto

import (
	"time"

	"github.com/campusdesk/complaint-service/internal/domain"
)

// CreateComplaintRequest payload.
type CreateComplaintRequest struct {
	CategoryID  string                   `json:"category_id"`
	Title       string                   `json:"title"`
	Description string                   `json:"description"`
	Priority    domain.ComplaintPriority `json:"priority"`
}

// TransitionStatusRequest payload.
type TransitionStatusRequest struct {
	Status  domain.ComplaintStatus `json:"status"`
	Remarks string                 `json:"remarks"`
}

// UpdatePriorityRequest payload.
type UpdatePriorityRequest struct {
	Priority domain.ComplaintPriority `json:"priority"`
}

// RemarksRequest carries optional remarks for reopen/unassign.
type RemarksRequest struct {
	Remarks string `json:"remarks"`
}

// EscalateRequest payload.
type EscalateRequest struct {
	Reason string `json:"reason"`
}

// StatusEntryResponse is one history entry.
type StatusEntryResponse struct {
	Status    domain.ComplaintStatus `json:"status"`
	Timestamp time.Time              `json:"timestamp"`
	Actor     string                 `json:"actor"`
	Remarks   string                 `json:"remarks,omitempty"`
}

// EscalationResponse mirrors the escalation sub-record.
type EscalationResponse struct {
	IsEscalated bool       `json:"is_escalated"`
	EscalatedAt *time.Time `json:"escalated_at,omitempty"`
	EscalatedBy string     `json:"escalated_by,omitempty"`
	Reason      string     `json:"reason,omitempty"`
}

// ComplaintResponse provides full complaint info.
type ComplaintResponse struct {
	ID            string                   `json:"id"`
	TicketRef     string                   `json:"ticket_ref"`
	Title         string                   `json:"title"`
	Description   string                   `json:"description"`
	CategoryID    string                   `json:"category_id"`
	SubmitterID   string                   `json:"submitter_id"`
	Priority      domain.ComplaintPriority `json:"priority"`
	Status        domain.ComplaintStatus   `json:"status"`
	AssigneeID    *string                  `json:"assignee_id"`
	Deadline      time.Time                `json:"deadline"`
	ResolvedAt    *time.Time               `json:"resolved_at"`
	Escalation    EscalationResponse       `json:"escalation"`
	StatusHistory []StatusEntryResponse    `json:"status_history"`
	CreatedAt     time.Time                `json:"created_at"`
	UpdatedAt     time.Time                `json:"updated_at"`
}

// ComplaintSummary is the list representation.
type ComplaintSummary struct {
	ID          string                   `json:"id"`
	TicketRef   string                   `json:"ticket_ref"`
	Title       string                   `json:"title"`
	CategoryID  string                   `json:"category_id"`
	Priority    domain.ComplaintPriority `json:"priority"`
	Status      domain.ComplaintStatus   `json:"status"`
	AssigneeID  *string                  `json:"assignee_id"`
	Deadline    time.Time                `json:"deadline"`
	IsEscalated bool                     `json:"is_escalated"`
}

// AtRiskResponse annotates a complaint with its risk level.
type AtRiskResponse struct {
	ComplaintSummary
	RemainingHours float64 `json:"remaining_hours"`
	RiskLevel      string  `json:"risk_level"`
}

// PendingEscalationResponse annotates an overdue complaint.
type PendingEscalationResponse struct {
	ComplaintSummary
	OverdueHours int `json:"overdue_hours"`
}

// SweepDetailResponse is one sweep outcome.
type SweepDetailResponse struct {
	ComplaintID  string `json:"complaint_id"`
	TicketRef    string `json:"ticket_ref"`
	OverdueHours int    `json:"overdue_hours"`
	Escalated    bool   `json:"escalated"`
	Error        string `json:"error,omitempty"`
}

// SweepResultResponse summarises a sweep.
type SweepResultResponse struct {
	EscalatedCount int                   `json:"escalated_count"`
	ErrorCount     int                   `json:"error_count"`
	Details        []SweepDetailResponse `json:"details"`
	StartedAt      time.Time             `json:"started_at"`
	FinishedAt     time.Time             `json:"finished_at"`
}
