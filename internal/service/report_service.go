package service

import (
	"context"
	"math"

	"golang.org/x/sync/errgroup"

	"github.com/campusdesk/complaint-service/internal/domain"
	"github.com/campusdesk/complaint-service/internal/repository"
	apperrors "github.com/campusdesk/complaint-service/pkg/util/errorutil"
)

// ReportService computes read-only rollups on demand.
type ReportService struct {
	reports repository.ReportRepository
}

// NewReportService creates the service.
func NewReportService(reports repository.ReportRepository) *ReportService {
	return &ReportService{reports: reports}
}

// StatusCount is one bucket of the status distribution.
type StatusCount struct {
	Status domain.ComplaintStatus
	Count  int
}

// PriorityCount is one bucket of the priority distribution.
type PriorityCount struct {
	Priority domain.ComplaintPriority
	Count    int
}

// CategoryReport is the per-category rollup with rates.
type CategoryReport struct {
	repository.CategoryCounts
	ResolutionRate float64
	EscalationRate float64
}

// StaffReport is the per-assignee rollup with rates.
type StaffReport struct {
	repository.StaffCounts
	ResolutionRate float64
	EscalationRate float64
}

// SLAReport is deadline compliance for one priority.
type SLAReport struct {
	repository.PriorityCompliance
	ComplianceRate float64
}

// Overview combines the headline rollups.
type Overview struct {
	Total      int
	ByStatus   []StatusCount
	ByPriority []PriorityCount
	SLA        []SLAReport
}

// Rate returns part/total×100 rounded to two decimals, or 0 when total is 0.
func Rate(part, total int) float64 {
	if total <= 0 {
		return 0
	}
	return math.Round(float64(part)/float64(total)*10000) / 100
}

// StatusDistribution counts complaints per status. Every status is present.
func (s *ReportService) StatusDistribution(ctx context.Context, window repository.ReportWindow) ([]StatusCount, int, error) {
	counts, err := s.reports.CountByStatus(ctx, window)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	result := make([]StatusCount, 0, len(domain.AllStatuses))
	total := 0
	for _, status := range domain.AllStatuses {
		result = append(result, StatusCount{Status: status, Count: counts[status]})
		total += counts[status]
	}
	return result, total, nil
}

// PriorityDistribution counts complaints per priority. Every priority is present.
func (s *ReportService) PriorityDistribution(ctx context.Context, window repository.ReportWindow) ([]PriorityCount, int, error) {
	counts, err := s.reports.CountByPriority(ctx, window)
	if err != nil {
		return nil, 0, apperrors.MapError(err)
	}
	result := make([]PriorityCount, 0, len(domain.AllPriorities))
	total := 0
	for _, priority := range domain.AllPriorities {
		result = append(result, PriorityCount{Priority: priority, Count: counts[priority]})
		total += counts[priority]
	}
	return result, total, nil
}

// CategoryBreakdown returns per-category totals and rates.
func (s *ReportService) CategoryBreakdown(ctx context.Context, window repository.ReportWindow) ([]CategoryReport, error) {
	rows, err := s.reports.CategoryBreakdown(ctx, window)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	result := make([]CategoryReport, 0, len(rows))
	for _, row := range rows {
		result = append(result, CategoryReport{
			CategoryCounts: row,
			ResolutionRate: Rate(row.Resolved, row.Total),
			EscalationRate: Rate(row.Escalated, row.Total),
		})
	}
	return result, nil
}

// StaffBreakdown returns per-assignee totals, rates and average resolution hours.
func (s *ReportService) StaffBreakdown(ctx context.Context, window repository.ReportWindow) ([]StaffReport, error) {
	rows, err := s.reports.StaffBreakdown(ctx, window)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	result := make([]StaffReport, 0, len(rows))
	for _, row := range rows {
		row.AvgResolutionHours = math.Round(row.AvgResolutionHours*100) / 100
		result = append(result, StaffReport{
			StaffCounts:    row,
			ResolutionRate: Rate(row.Resolved, row.Total),
			EscalationRate: Rate(row.Escalated, row.Total),
		})
	}
	return result, nil
}

// Trends returns submission, resolution and escalation counts per bucket.
func (s *ReportService) Trends(ctx context.Context, granularity repository.TrendGranularity, window repository.ReportWindow) ([]repository.TrendCounts, error) {
	if granularity == "" {
		granularity = repository.GranularityDay
	}
	if !granularity.Valid() {
		return nil, apperrors.NewValidationError("unknown granularity", map[string]any{"granularity": string(granularity)})
	}
	rows, err := s.reports.Trend(ctx, granularity, window)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if rows == nil {
		rows = []repository.TrendCounts{}
	}
	return rows, nil
}

// SLACompliance returns the share of complaints resolved on or before their
// deadline, per priority. Every priority is present.
func (s *ReportService) SLACompliance(ctx context.Context, window repository.ReportWindow) ([]SLAReport, error) {
	rows, err := s.reports.SLAByPriority(ctx, window)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	byPriority := make(map[domain.ComplaintPriority]repository.PriorityCompliance, len(rows))
	for _, row := range rows {
		byPriority[row.Priority] = row
	}
	result := make([]SLAReport, 0, len(domain.AllPriorities))
	for _, priority := range domain.AllPriorities {
		row, ok := byPriority[priority]
		if !ok {
			row = repository.PriorityCompliance{Priority: priority}
		}
		result = append(result, SLAReport{
			PriorityCompliance: row,
			ComplianceRate:     Rate(row.ResolvedOnTime, row.Total),
		})
	}
	return result, nil
}

// Overview runs the status, priority and SLA rollups concurrently.
func (s *ReportService) Overview(ctx context.Context, window repository.ReportWindow) (*Overview, error) {
	var overview Overview
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		byStatus, total, err := s.StatusDistribution(gctx, window)
		if err != nil {
			return err
		}
		overview.ByStatus = byStatus
		overview.Total = total
		return nil
	})
	g.Go(func() error {
		byPriority, _, err := s.PriorityDistribution(gctx, window)
		if err != nil {
			return err
		}
		overview.ByPriority = byPriority
		return nil
	})
	g.Go(func() error {
		sla, err := s.SLACompliance(gctx, window)
		if err != nil {
			return err
		}
		overview.SLA = sla
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return &overview, nil
}
