package service

import (
	"fmt"
	"math"
	"time"

	"github.com/campusdesk/complaint-service/internal/config"
	"github.com/campusdesk/complaint-service/internal/domain"
)

var priorityMultipliers = map[domain.ComplaintPriority]float64{
	domain.PriorityUrgent: 0.5,
	domain.PriorityHigh:   0.75,
	domain.PriorityMedium: 1.0,
	domain.PriorityLow:    1.5,
}

var defaultResolutionHours = map[domain.ComplaintPriority]int{
	domain.PriorityLow:    72,
	domain.PriorityMedium: 48,
	domain.PriorityHigh:   24,
	domain.PriorityUrgent: 12,
}

// DeadlinePolicy computes resolution deadlines.
type DeadlinePolicy struct {
	DefaultHours map[domain.ComplaintPriority]int
}

// NewDeadlinePolicy builds a policy from configuration, falling back to the
// built-in table for missing or non-positive entries.
func NewDeadlinePolicy(cfg config.EscalationConfig) DeadlinePolicy {
	hours := make(map[domain.ComplaintPriority]int, len(defaultResolutionHours))
	for priority, fallback := range defaultResolutionHours {
		hours[priority] = fallback
		if v, ok := cfg.DefaultResolutionHours[string(priority)]; ok && v > 0 {
			hours[priority] = v
		}
	}
	return DeadlinePolicy{DefaultHours: hours}
}

// BaselineHours returns the category's resolution hours when set, otherwise
// the priority default.
func (p DeadlinePolicy) BaselineHours(category *domain.Category, priority domain.ComplaintPriority) int {
	if category != nil && category.ResolutionTimeHours > 0 {
		return category.ResolutionTimeHours
	}
	if hours, ok := p.DefaultHours[priority]; ok {
		return hours
	}
	return defaultResolutionHours[priority]
}

// ComputeDeadline returns createdAt + baseline × priority multiplier.
func (p DeadlinePolicy) ComputeDeadline(category *domain.Category, priority domain.ComplaintPriority, createdAt time.Time) time.Time {
	multiplier, ok := priorityMultipliers[priority]
	if !ok {
		multiplier = 1.0
	}
	hours := float64(p.BaselineHours(category, priority)) * multiplier
	return createdAt.Add(time.Duration(hours * float64(time.Hour)))
}

// RiskLevel classifies how close an open complaint is to its deadline.
type RiskLevel string

const (
	RiskCritical RiskLevel = "critical"
	RiskHigh     RiskLevel = "high"
	RiskMedium   RiskLevel = "medium"
	RiskLow      RiskLevel = "low"
)

// RiskLevelFor maps remaining time to a risk level.
func RiskLevelFor(remaining time.Duration) RiskLevel {
	switch {
	case remaining <= time.Hour:
		return RiskCritical
	case remaining <= 4*time.Hour:
		return RiskHigh
	case remaining <= 12*time.Hour:
		return RiskMedium
	default:
		return RiskLow
	}
}

// overdueHours floors the time past deadline to whole hours, never negative.
func overdueHours(deadline, now time.Time) int {
	if !now.After(deadline) {
		return 0
	}
	return int(math.Floor(now.Sub(deadline).Hours()))
}

func overdueReason(deadline, now time.Time) string {
	return fmt.Sprintf("Deadline exceeded by %d hours", overdueHours(deadline, now))
}
