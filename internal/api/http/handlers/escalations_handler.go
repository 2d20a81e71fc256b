package handlers

import (
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/campusdesk/complaint-service/internal/api/dto"
	"github.com/campusdesk/complaint-service/internal/scheduler"
	"github.com/campusdesk/complaint-service/internal/service"
	apperrors "github.com/campusdesk/complaint-service/pkg/util/errorutil"
)

// EscalationsHandler exposes the administrative escalation surface and the
// sweep scheduler controls.
type EscalationsHandler struct {
	complaints *service.ComplaintService
	scheduler  *scheduler.Scheduler
}

// NewEscalationsHandler constructs handler.
func NewEscalationsHandler(complaints *service.ComplaintService, sched *scheduler.Scheduler) *EscalationsHandler {
	return &EscalationsHandler{complaints: complaints, scheduler: sched}
}

// Pending GET /admin/escalations/pending.
func (h *EscalationsHandler) Pending(c *fiber.Ctx) error {
	pending, err := h.complaints.PendingEscalations(c.UserContext())
	if err != nil {
		return err
	}
	items := make([]dto.PendingEscalationResponse, 0, len(pending))
	for i := range pending {
		items = append(items, dto.PendingEscalationResponse{
			ComplaintSummary: complaintSummary(&pending[i].Complaint),
			OverdueHours:     pending[i].OverdueHours,
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// AtRisk GET /admin/escalations/at-risk?buffer_hours=1.
func (h *EscalationsHandler) AtRisk(c *fiber.Ctx) error {
	var buffer float64
	if raw := c.Query("buffer_hours"); raw != "" {
		parsed, err := strconv.ParseFloat(raw, 64)
		if err != nil || parsed <= 0 {
			return apperrors.NewValidationError("buffer_hours must be a positive number", map[string]any{"buffer_hours": raw})
		}
		if parsed > service.MaxAtRiskBufferHours {
			return apperrors.NewValidationError("buffer_hours is too large",
				map[string]any{"buffer_hours": raw, "max": service.MaxAtRiskBufferHours})
		}
		buffer = parsed
	}
	atRisk, err := h.complaints.AtRisk(c.UserContext(), buffer)
	if err != nil {
		return err
	}
	items := make([]dto.AtRiskResponse, 0, len(atRisk))
	for i := range atRisk {
		items = append(items, dto.AtRiskResponse{
			ComplaintSummary: complaintSummary(&atRisk[i].Complaint),
			RemainingHours:   atRisk[i].RemainingHours,
			RiskLevel:        string(atRisk[i].Risk),
		})
	}
	return c.JSON(fiber.Map{"data": items})
}

// Sweep POST /admin/escalations/sweep.
func (h *EscalationsHandler) Sweep(c *fiber.Ctx) error {
	result, err := h.scheduler.RunManually(c.UserContext())
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": sweepResultResponse(result)})
}

// Escalate POST /admin/complaints/:id/escalate.
func (h *EscalationsHandler) Escalate(c *fiber.Ctx) error {
	user, err := principalUser(c)
	if err != nil {
		return err
	}
	var req dto.EscalateRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}
	complaint, err := h.complaints.Escalate(c.UserContext(), c.Params("id"), user.ID, req.Reason)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": complaintResponse(complaint)})
}

// SchedulerStatus GET /admin/scheduler.
func (h *EscalationsHandler) SchedulerStatus(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"data": schedulerStatusResponse(h.scheduler.Status())})
}

// UpdateInterval PUT /admin/scheduler/interval.
func (h *EscalationsHandler) UpdateInterval(c *fiber.Ctx) error {
	var req dto.UpdateIntervalRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if err := h.scheduler.UpdateInterval(req.Minutes); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": schedulerStatusResponse(h.scheduler.Status())})
}

// StartScheduler POST /admin/scheduler/start.
func (h *EscalationsHandler) StartScheduler(c *fiber.Ctx) error {
	h.scheduler.Start()
	return c.JSON(fiber.Map{"data": schedulerStatusResponse(h.scheduler.Status())})
}

// StopScheduler POST /admin/scheduler/stop.
func (h *EscalationsHandler) StopScheduler(c *fiber.Ctx) error {
	h.scheduler.Stop()
	return c.JSON(fiber.Map{"data": schedulerStatusResponse(h.scheduler.Status())})
}

// RestartScheduler POST /admin/scheduler/restart.
func (h *EscalationsHandler) RestartScheduler(c *fiber.Ctx) error {
	if err := h.scheduler.Restart(c.UserContext()); err != nil {
		return apperrors.NewInternalError(err)
	}
	return c.JSON(fiber.Map{"data": schedulerStatusResponse(h.scheduler.Status())})
}

func schedulerStatusResponse(s scheduler.Status) dto.SchedulerStatusResponse {
	return dto.SchedulerStatusResponse{
		Active:          s.Active,
		Running:         s.Running,
		IntervalMinutes: s.IntervalMinutes,
		NextRunAt:       s.NextRunAt,
		LastRunAt:       s.LastRunAt,
		LastTrigger:     s.LastTrigger,
		LastResult:      sweepResultResponse(s.LastResult),
		LastError:       s.LastError,
		PendingChecks:   s.PendingChecks,
	}
}
