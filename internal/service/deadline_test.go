package service

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/campusdesk/complaint-service/internal/config"
	"github.com/campusdesk/complaint-service/internal/domain"
)

func TestComputeDeadlineUsesCategoryBaseline(t *testing.T) {
	policy := NewDeadlinePolicy(config.EscalationConfig{})
	category := &domain.Category{ResolutionTimeHours: 24}

	cases := map[domain.ComplaintPriority]time.Duration{
		domain.PriorityUrgent: 12 * time.Hour,
		domain.PriorityHigh:   18 * time.Hour,
		domain.PriorityMedium: 24 * time.Hour,
		domain.PriorityLow:    36 * time.Hour,
	}
	for priority, want := range cases {
		t.Run(string(priority), func(t *testing.T) {
			got := policy.ComputeDeadline(category, priority, baseTime)
			assert.Equal(t, baseTime.Add(want), got)
		})
	}
}

func TestComputeDeadlineFallsBackToPriorityDefaults(t *testing.T) {
	policy := NewDeadlinePolicy(config.EscalationConfig{
		DefaultResolutionHours: map[string]int{"high": 40, "low": 0},
	})

	assert.Equal(t, 40, policy.BaselineHours(nil, domain.PriorityHigh))
	assert.Equal(t, 72, policy.BaselineHours(&domain.Category{}, domain.PriorityLow), "non-positive override keeps default")
	assert.Equal(t, baseTime.Add(48*time.Hour), policy.ComputeDeadline(&domain.Category{}, domain.PriorityMedium, baseTime))
	assert.Equal(t, baseTime.Add(6*time.Hour), policy.ComputeDeadline(nil, domain.PriorityUrgent, baseTime))
}

func TestRiskLevelFor(t *testing.T) {
	assert.Equal(t, RiskCritical, RiskLevelFor(30*time.Minute))
	assert.Equal(t, RiskCritical, RiskLevelFor(time.Hour))
	assert.Equal(t, RiskHigh, RiskLevelFor(3*time.Hour))
	assert.Equal(t, RiskMedium, RiskLevelFor(12*time.Hour))
	assert.Equal(t, RiskLow, RiskLevelFor(13*time.Hour))
}

func TestOverdueReasonFloorsHours(t *testing.T) {
	deadline := baseTime
	assert.Equal(t, "Deadline exceeded by 3 hours", overdueReason(deadline, deadline.Add(3*time.Hour+59*time.Minute)))
	assert.Equal(t, 0, overdueHours(deadline, deadline.Add(-time.Hour)))
}
