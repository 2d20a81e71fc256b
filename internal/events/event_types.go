package events

import (
	"time"

	"github.com/campusdesk/complaint-service/internal/domain"
)

// EventType enumerates supported event identifiers.
type EventType string

const (
	EventComplaintCreated       EventType = "complaint_created"
	EventComplaintStatusChanged EventType = "complaint_status_changed"
	EventComplaintEscalated     EventType = "complaint_escalated"
	EventComplaintAssigned      EventType = "complaint_assigned"
)

// Actor identifies who caused an event.
type Actor struct {
	ID   string          `json:"id"`
	Role domain.UserRole `json:"role,omitempty"`
}

// Event represents a domain event emitted by services.
type Event struct {
	ID          string      `json:"id"`
	Type        EventType   `json:"type"`
	ComplaintID string      `json:"complaint_id"`
	TicketRef   string      `json:"ticket_ref"`
	Actor       Actor       `json:"actor"`
	Timestamp   time.Time   `json:"timestamp"`
	Payload     interface{} `json:"payload"`
}

// ComplaintCreatedPayload payload.
type ComplaintCreatedPayload struct {
	CategoryID string                   `json:"category_id"`
	Priority   domain.ComplaintPriority `json:"priority"`
	Title      string                   `json:"title"`
	Deadline   time.Time                `json:"deadline"`
}

// ComplaintStatusChangedPayload payload.
type ComplaintStatusChangedPayload struct {
	OldStatus domain.ComplaintStatus `json:"old_status"`
	NewStatus domain.ComplaintStatus `json:"new_status"`
	Remarks   string                 `json:"remarks,omitempty"`
}

// ComplaintEscalatedPayload payload.
type ComplaintEscalatedPayload struct {
	Reason      string    `json:"reason"`
	EscalatedBy string    `json:"escalated_by"`
	Deadline    time.Time `json:"deadline"`
}

// ComplaintAssignedPayload payload.
type ComplaintAssignedPayload struct {
	AssigneeID   string `json:"assignee_id"`
	AssigneeName string `json:"assignee_name,omitempty"`
	AssignedBy   string `json:"assigned_by"`
}
