package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/campusdesk/complaint-service/internal/domain"
	"github.com/campusdesk/complaint-service/internal/repository"
	apperrors "github.com/campusdesk/complaint-service/pkg/util/errorutil"
)

func TestRate(t *testing.T) {
	assert.Equal(t, 0.0, Rate(0, 0))
	assert.Equal(t, 0.0, Rate(3, 0))
	assert.Equal(t, 33.33, Rate(1, 3))
	assert.Equal(t, 66.67, Rate(2, 3))
	assert.Equal(t, 100.0, Rate(4, 4))
}

func TestCategoryBreakdownWithEmptyCategory(t *testing.T) {
	f := newFixture(t)
	empty := f.addCategory(t, "Parking", "Security", 0)
	f.seed(t, func(c *domain.Complaint) { c.Status = domain.StatusResolved })
	f.seed(t, func(c *domain.Complaint) {
		c.Status = domain.StatusEscalated
		c.Escalation.IsEscalated = true
	})
	f.seed(t, nil)

	rows, err := NewReportService(f.store.Reports()).CategoryBreakdown(context.Background(), repository.ReportWindow{})
	require.NoError(t, err)
	require.Len(t, rows, 2)

	byID := map[string]CategoryReport{}
	for _, row := range rows {
		byID[row.CategoryID] = row
	}
	assert.Equal(t, 0, byID[empty.ID].Total)
	assert.Equal(t, 0.0, byID[empty.ID].ResolutionRate)
	assert.Equal(t, 0.0, byID[empty.ID].EscalationRate)

	busy := byID[f.category.ID]
	assert.Equal(t, 3, busy.Total)
	assert.Equal(t, 33.33, busy.ResolutionRate)
	assert.Equal(t, 33.33, busy.EscalationRate)
}

func TestDistributionsAreZeroFilled(t *testing.T) {
	f := newFixture(t)
	f.seed(t, func(c *domain.Complaint) { c.Priority = domain.PriorityHigh })
	f.seed(t, func(c *domain.Complaint) { c.Priority = domain.PriorityHigh })
	svc := NewReportService(f.store.Reports())

	statuses, total, err := svc.StatusDistribution(context.Background(), repository.ReportWindow{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, statuses, len(domain.AllStatuses))
	assert.Equal(t, StatusCount{Status: domain.StatusSubmitted, Count: 2}, statuses[0])
	assert.Equal(t, StatusCount{Status: domain.StatusClosed, Count: 0}, statuses[len(statuses)-1])

	priorities, total, err := svc.PriorityDistribution(context.Background(), repository.ReportWindow{})
	require.NoError(t, err)
	assert.Equal(t, 2, total)
	require.Len(t, priorities, len(domain.AllPriorities))
	assert.Equal(t, PriorityCount{Priority: domain.PriorityHigh, Count: 2}, priorities[2])
}

func TestReportWindowExcludesOlderComplaints(t *testing.T) {
	f := newFixture(t)
	f.seed(t, func(c *domain.Complaint) { c.CreatedAt = baseTime.Add(-72 * time.Hour) })
	f.seed(t, nil)

	from := baseTime.Add(-time.Hour)
	_, total, err := NewReportService(f.store.Reports()).StatusDistribution(context.Background(), repository.ReportWindow{From: &from})
	require.NoError(t, err)
	assert.Equal(t, 1, total)
}

func TestSLAComplianceAndOverview(t *testing.T) {
	f := newFixture(t)
	onTime := baseTime.Add(2 * time.Hour)
	late := baseTime.Add(30 * time.Hour)
	f.seed(t, func(c *domain.Complaint) {
		c.Status = domain.StatusResolved
		c.ResolvedAt = &onTime
	})
	f.seed(t, func(c *domain.Complaint) {
		c.Status = domain.StatusResolved
		c.ResolvedAt = &late
	})
	f.seed(t, func(c *domain.Complaint) { c.Priority = domain.PriorityUrgent })

	overview, err := NewReportService(f.store.Reports()).Overview(context.Background(), repository.ReportWindow{})
	require.NoError(t, err)
	assert.Equal(t, 3, overview.Total)
	require.Len(t, overview.SLA, len(domain.AllPriorities))

	medium := overview.SLA[1]
	assert.Equal(t, domain.PriorityMedium, medium.Priority)
	assert.Equal(t, 2, medium.Total)
	assert.Equal(t, 1, medium.ResolvedOnTime)
	assert.Equal(t, 50.0, medium.ComplianceRate)

	urgent := overview.SLA[3]
	assert.Equal(t, 1, urgent.Total)
	assert.Equal(t, 0.0, urgent.ComplianceRate)

	low := overview.SLA[0]
	assert.Equal(t, 0, low.Total)
	assert.Equal(t, 0.0, low.ComplianceRate)
}

func TestTrends(t *testing.T) {
	f := newFixture(t)
	resolved := baseTime.Add(26 * time.Hour)
	f.seed(t, func(c *domain.Complaint) {
		c.Status = domain.StatusResolved
		c.ResolvedAt = &resolved
	})
	f.seed(t, nil)
	svc := NewReportService(f.store.Reports())

	rows, err := svc.Trends(context.Background(), "", repository.ReportWindow{})
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, time.Date(2026, 10, 14, 0, 0, 0, 0, time.UTC), rows[0].Bucket)
	assert.Equal(t, 2, rows[0].Submitted)
	assert.Equal(t, 1, rows[1].Resolved)

	_, err = svc.Trends(context.Background(), "fortnight", repository.ReportWindow{})
	require.Error(t, err)
	assert.Equal(t, apperrors.CodeValidation, apperrors.ToDomainError(err).Code)
}

func TestStaffBreakdown(t *testing.T) {
	f := newFixture(t)
	worker := f.addUser(t, "wendy", domain.RoleStaff, "Maintenance", 0)
	resolved := baseTime.Add(5 * time.Hour)
	f.seed(t, func(c *domain.Complaint) {
		c.AssigneeID = &worker.ID
		c.Status = domain.StatusResolved
		c.ResolvedAt = &resolved
	})
	f.seed(t, func(c *domain.Complaint) {
		c.AssigneeID = &worker.ID
		c.Status = domain.StatusInProgress
	})

	rows, err := NewReportService(f.store.Reports()).StaffBreakdown(context.Background(), repository.ReportWindow{})
	require.NoError(t, err)
	require.Len(t, rows, 1)
	assert.Equal(t, worker.ID, rows[0].StaffID)
	assert.Equal(t, 2, rows[0].Total)
	assert.Equal(t, 50.0, rows[0].ResolutionRate)
	assert.Equal(t, 5.0, rows[0].AvgResolutionHours)
}
