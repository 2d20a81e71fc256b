package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/campusdesk/complaint-service/internal/api/dto"
	"github.com/campusdesk/complaint-service/internal/repository"
	"github.com/campusdesk/complaint-service/internal/service"
)

// ReportsHandler serves reporting rollups.
type ReportsHandler struct {
	reports *service.ReportService
}

// NewReportsHandler constructs handler.
func NewReportsHandler(reports *service.ReportService) *ReportsHandler {
	return &ReportsHandler{reports: reports}
}

// Overview GET /admin/reports/overview.
func (h *ReportsHandler) Overview(c *fiber.Ctx) error {
	window, err := parseWindow(c)
	if err != nil {
		return err
	}
	overview, err := h.reports.Overview(c.UserContext(), window)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.OverviewResponse{
		Total:      overview.Total,
		ByStatus:   statusDistribution(overview.ByStatus, overview.Total),
		ByPriority: priorityDistribution(overview.ByPriority, overview.Total),
		SLA:        slaResponses(overview.SLA),
	}})
}

// Status GET /admin/reports/status.
func (h *ReportsHandler) Status(c *fiber.Ctx) error {
	window, err := parseWindow(c)
	if err != nil {
		return err
	}
	counts, total, err := h.reports.StatusDistribution(c.UserContext(), window)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": statusDistribution(counts, total)})
}

// Priority GET /admin/reports/priority.
func (h *ReportsHandler) Priority(c *fiber.Ctx) error {
	window, err := parseWindow(c)
	if err != nil {
		return err
	}
	counts, total, err := h.reports.PriorityDistribution(c.UserContext(), window)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": priorityDistribution(counts, total)})
}

// Categories GET /admin/reports/categories.
func (h *ReportsHandler) Categories(c *fiber.Ctx) error {
	window, err := parseWindow(c)
	if err != nil {
		return err
	}
	rows, err := h.reports.CategoryBreakdown(c.UserContext(), window)
	if err != nil {
		return err
	}
	items := make([]dto.CategoryReportResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, dto.CategoryReportResponse{
			CategoryID:     row.CategoryID,
			Name:           row.Name,
			Department:     row.Department,
			Total:          row.Total,
			Resolved:       row.Resolved,
			Escalated:      row.Escalated,
			ResolutionRate: row.ResolutionRate,
			EscalationRate: row.EscalationRate,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Staff GET /admin/reports/staff.
func (h *ReportsHandler) Staff(c *fiber.Ctx) error {
	window, err := parseWindow(c)
	if err != nil {
		return err
	}
	rows, err := h.reports.StaffBreakdown(c.UserContext(), window)
	if err != nil {
		return err
	}
	items := make([]dto.StaffReportResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, dto.StaffReportResponse{
			StaffID:            row.StaffID,
			Name:               row.Name,
			Department:         row.Department,
			Total:              row.Total,
			Resolved:           row.Resolved,
			Escalated:          row.Escalated,
			ResolutionRate:     row.ResolutionRate,
			EscalationRate:     row.EscalationRate,
			AvgResolutionHours: row.AvgResolutionHours,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Trends GET /admin/reports/trends?granularity=day.
func (h *ReportsHandler) Trends(c *fiber.Ctx) error {
	window, err := parseWindow(c)
	if err != nil {
		return err
	}
	granularity := repository.TrendGranularity(c.Query("granularity", string(repository.GranularityDay)))
	rows, err := h.reports.Trends(c.UserContext(), granularity, window)
	if err != nil {
		return err
	}
	items := make([]dto.TrendResponse, 0, len(rows))
	for _, row := range rows {
		items = append(items, dto.TrendResponse{
			Bucket:    row.Bucket,
			Submitted: row.Submitted,
			Resolved:  row.Resolved,
			Escalated: row.Escalated,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// SLA GET /admin/reports/sla.
func (h *ReportsHandler) SLA(c *fiber.Ctx) error {
	window, err := parseWindow(c)
	if err != nil {
		return err
	}
	rows, err := h.reports.SLACompliance(c.UserContext(), window)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": slaResponses(rows)})
}

func statusDistribution(counts []service.StatusCount, total int) dto.DistributionResponse {
	out := dto.DistributionResponse{Total: total, Counts: make([]dto.CountResponse, 0, len(counts))}
	for _, c := range counts {
		out.Counts = append(out.Counts, dto.CountResponse{Key: string(c.Status), Count: c.Count})
	}
	return out
}

func priorityDistribution(counts []service.PriorityCount, total int) dto.DistributionResponse {
	out := dto.DistributionResponse{Total: total, Counts: make([]dto.CountResponse, 0, len(counts))}
	for _, c := range counts {
		out.Counts = append(out.Counts, dto.CountResponse{Key: string(c.Priority), Count: c.Count})
	}
	return out
}

func slaResponses(rows []service.SLAReport) []dto.SLAResponse {
	out := make([]dto.SLAResponse, 0, len(rows))
	for _, row := range rows {
		out = append(out, dto.SLAResponse{
			Priority:       string(row.Priority),
			Total:          row.Total,
			Resolved:       row.Resolved,
			ResolvedOnTime: row.ResolvedOnTime,
			ComplianceRate: row.ComplianceRate,
		})
	}
	return out
}
