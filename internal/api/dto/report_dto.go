package dto

import "time"

// CountResponse is one labelled count.
type CountResponse struct {
	Key   string `json:"key"`
	Count int    `json:"count"`
}

// DistributionResponse lists counts with their total.
type DistributionResponse struct {
	Total  int             `json:"total"`
	Counts []CountResponse `json:"counts"`
}

// CategoryReportResponse row.
type CategoryReportResponse struct {
	CategoryID     string  `json:"category_id"`
	Name           string  `json:"name"`
	Department     string  `json:"department"`
	Total          int     `json:"total"`
	Resolved       int     `json:"resolved"`
	Escalated      int     `json:"escalated"`
	ResolutionRate float64 `json:"resolution_rate"`
	EscalationRate float64 `json:"escalation_rate"`
}

// StaffReportResponse row.
type StaffReportResponse struct {
	StaffID            string  `json:"staff_id"`
	Name               string  `json:"name"`
	Department         string  `json:"department"`
	Total              int     `json:"total"`
	Resolved           int     `json:"resolved"`
	Escalated          int     `json:"escalated"`
	ResolutionRate     float64 `json:"resolution_rate"`
	EscalationRate     float64 `json:"escalation_rate"`
	AvgResolutionHours float64 `json:"avg_resolution_hours"`
}

// TrendResponse bucket.
type TrendResponse struct {
	Bucket    time.Time `json:"bucket"`
	Submitted int       `json:"submitted"`
	Resolved  int       `json:"resolved"`
	Escalated int       `json:"escalated"`
}

// SLAResponse row.
type SLAResponse struct {
	Priority       string  `json:"priority"`
	Total          int     `json:"total"`
	Resolved       int     `json:"resolved"`
	ResolvedOnTime int     `json:"resolved_on_time"`
	ComplianceRate float64 `json:"compliance_rate"`
}

// OverviewResponse combines headline rollups.
type OverviewResponse struct {
	Total      int                  `json:"total"`
	ByStatus   DistributionResponse `json:"by_status"`
	ByPriority DistributionResponse `json:"by_priority"`
	SLA        []SLAResponse        `json:"sla"`
}
