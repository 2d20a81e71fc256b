package domain

import "time"

// ComplaintStatus enumerates lifecycle states for complaints.
type ComplaintStatus string

const (
	StatusSubmitted  ComplaintStatus = "submitted"
	StatusAssigned   ComplaintStatus = "assigned"
	StatusInProgress ComplaintStatus = "in_progress"
	StatusResolved   ComplaintStatus = "resolved"
	StatusEscalated  ComplaintStatus = "escalated"
	StatusClosed     ComplaintStatus = "closed"
)

// AllStatuses lists statuses in lifecycle order.
var AllStatuses = []ComplaintStatus{
	StatusSubmitted,
	StatusAssigned,
	StatusInProgress,
	StatusResolved,
	StatusEscalated,
	StatusClosed,
}

// Valid reports whether s is a known status.
func (s ComplaintStatus) Valid() bool {
	for _, candidate := range AllStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// IsTerminal reports whether s is resolved or closed.
func (s ComplaintStatus) IsTerminal() bool {
	return s == StatusResolved || s == StatusClosed
}

// ComplaintPriority enumerates complaint urgency.
type ComplaintPriority string

const (
	PriorityLow    ComplaintPriority = "low"
	PriorityMedium ComplaintPriority = "medium"
	PriorityHigh   ComplaintPriority = "high"
	PriorityUrgent ComplaintPriority = "urgent"
)

// AllPriorities lists priorities from least to most urgent.
var AllPriorities = []ComplaintPriority{PriorityLow, PriorityMedium, PriorityHigh, PriorityUrgent}

// Valid reports whether p is a known priority.
func (p ComplaintPriority) Valid() bool {
	for _, candidate := range AllPriorities {
		if candidate == p {
			return true
		}
	}
	return false
}

// IsHigh reports whether p counts toward high-priority workload.
func (p ComplaintPriority) IsHigh() bool {
	return p == PriorityHigh || p == PriorityUrgent
}

// SystemActor identifies transitions performed by the service itself.
const SystemActor = "system"

// StatusEntry is one append-only audit record in a complaint's history.
type StatusEntry struct {
	Status    ComplaintStatus
	Timestamp time.Time
	Actor     string
	Remarks   string
}

// Escalation records the one-time escalation of a complaint.
type Escalation struct {
	IsEscalated bool
	EscalatedAt *time.Time
	EscalatedBy string
	Reason      string
}

// Complaint is the aggregate tracked by the deadline engine.
type Complaint struct {
	ID            string
	TicketRef     string
	Title         string
	Description   string
	CategoryID    string
	SubmitterID   string
	Priority      ComplaintPriority
	Status        ComplaintStatus
	AssigneeID    *string
	Deadline      time.Time
	ResolvedAt    *time.Time
	Escalation    Escalation
	StatusHistory []StatusEntry
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// IsOpen reports whether the complaint can still breach its deadline.
func (c *Complaint) IsOpen() bool {
	return !c.Status.IsTerminal() && c.Status != StatusEscalated && !c.Escalation.IsEscalated
}

// Clone returns a deep copy safe to mutate.
func (c *Complaint) Clone() *Complaint {
	if c == nil {
		return nil
	}
	out := *c
	out.AssigneeID = cloneString(c.AssigneeID)
	out.ResolvedAt = cloneTime(c.ResolvedAt)
	out.Escalation.EscalatedAt = cloneTime(c.Escalation.EscalatedAt)
	out.StatusHistory = append([]StatusEntry(nil), c.StatusHistory...)
	return &out
}

func cloneString(v *string) *string {
	if v == nil {
		return nil
	}
	s := *v
	return &s
}

func cloneTime(v *time.Time) *time.Time {
	if v == nil {
		return nil
	}
	t := *v
	return &t
}
