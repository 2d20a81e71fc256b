package dto

import (
	"time"

	"github.com/campusdesk/complaint-service/internal/domain"
)

// UpdateIntervalRequest payload.
type UpdateIntervalRequest struct {
	Minutes int `json:"minutes"`
}

// SchedulerStatusResponse reports scheduler state.
type SchedulerStatusResponse struct {
	Active          bool                 `json:"active"`
	Running         bool                 `json:"running"`
	IntervalMinutes int                  `json:"interval_minutes"`
	NextRunAt       *time.Time           `json:"next_run_at,omitempty"`
	LastRunAt       *time.Time           `json:"last_run_at,omitempty"`
	LastTrigger     string               `json:"last_trigger,omitempty"`
	LastResult      *SweepResultResponse `json:"last_result,omitempty"`
	LastError       string               `json:"last_error,omitempty"`
	PendingChecks   int                  `json:"pending_checks"`
}

// AssignRequest payload.
type AssignRequest struct {
	StaffID string `json:"staff_id"`
}

// RecommendationResponse is one ranked candidate.
type RecommendationResponse struct {
	StaffID                 string          `json:"staff_id"`
	Name                    string          `json:"name"`
	Role                    domain.UserRole `json:"role"`
	Department              string          `json:"department"`
	OpenAssignments         int             `json:"open_assignments"`
	HighPriorityAssignments int             `json:"high_priority_assignments"`
	DepartmentMatch         bool            `json:"department_match"`
	Score                   float64         `json:"score"`
	Recommended             bool            `json:"recommended"`
}

// AutoAssignResponse reports the chosen candidate and the updated complaint.
type AutoAssignResponse struct {
	Complaint ComplaintResponse      `json:"complaint"`
	Chosen    RecommendationResponse `json:"chosen"`
}
