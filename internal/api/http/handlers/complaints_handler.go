package handlers

import (
	"net/http"

	"github.com/gofiber/fiber/v2"

	"github.com/campusdesk/complaint-service/internal/api/dto"
	"github.com/campusdesk/complaint-service/internal/domain"
	"github.com/campusdesk/complaint-service/internal/repository"
	"github.com/campusdesk/complaint-service/internal/service"
	apperrors "github.com/campusdesk/complaint-service/pkg/util/errorutil"
)

// ComplaintsHandler serves submitter and staff complaint endpoints.
type ComplaintsHandler struct {
	complaints *service.ComplaintService
}

// NewComplaintsHandler constructs handler.
func NewComplaintsHandler(complaints *service.ComplaintService) *ComplaintsHandler {
	return &ComplaintsHandler{complaints: complaints}
}

// Create POST /complaints.
func (h *ComplaintsHandler) Create(c *fiber.Ctx) error {
	user, err := principalUser(c)
	if err != nil {
		return err
	}
	var req dto.CreateComplaintRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	complaint, err := h.complaints.Create(c.UserContext(), user.ID, service.ComplaintCreateInput{
		CategoryID:  req.CategoryID,
		Title:       req.Title,
		Description: req.Description,
		Priority:    req.Priority,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": complaintResponse(complaint)})
}

// ListMine GET /complaints.
func (h *ComplaintsHandler) ListMine(c *fiber.Ctx) error {
	user, err := principalUser(c)
	if err != nil {
		return err
	}
	filter, err := parseComplaintFilter(c)
	if err != nil {
		return err
	}
	filter.SubmitterID = &user.ID
	return h.list(c, filter)
}

// Get GET /complaints/:id. Submitters see only their own complaints.
func (h *ComplaintsHandler) Get(c *fiber.Ctx) error {
	user, err := principalUser(c)
	if err != nil {
		return err
	}
	complaint, err := h.complaints.Get(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	if user.Role == domain.RoleUser && complaint.SubmitterID != user.ID {
		return apperrors.NewForbidden("access denied")
	}
	return c.JSON(fiber.Map{"data": complaintResponse(complaint)})
}

// GetByTicketRef GET /complaints/ref/:ref.
func (h *ComplaintsHandler) GetByTicketRef(c *fiber.Ctx) error {
	user, err := principalUser(c)
	if err != nil {
		return err
	}
	complaint, err := h.complaints.GetByTicketRef(c.UserContext(), c.Params("ref"))
	if err != nil {
		return err
	}
	if user.Role == domain.RoleUser && complaint.SubmitterID != user.ID {
		return apperrors.NewForbidden("access denied")
	}
	return c.JSON(fiber.Map{"data": complaintResponse(complaint)})
}

// ListStaff GET /staff/complaints.
func (h *ComplaintsHandler) ListStaff(c *fiber.Ctx) error {
	filter, err := parseComplaintFilter(c)
	if err != nil {
		return err
	}
	return h.list(c, filter)
}

// TransitionStatus POST /staff/complaints/:id/status.
func (h *ComplaintsHandler) TransitionStatus(c *fiber.Ctx) error {
	user, err := principalUser(c)
	if err != nil {
		return err
	}
	var req dto.TransitionStatusRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if req.Status == "" {
		return apperrors.NewValidationError("status is required", nil)
	}
	complaint, err := h.complaints.TransitionStatus(c.UserContext(), c.Params("id"), req.Status, user.ID, req.Remarks)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": complaintResponse(complaint)})
}

// UpdatePriority POST /staff/complaints/:id/priority.
func (h *ComplaintsHandler) UpdatePriority(c *fiber.Ctx) error {
	var req dto.UpdatePriorityRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	complaint, err := h.complaints.UpdatePriority(c.UserContext(), c.Params("id"), req.Priority)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": complaintResponse(complaint)})
}

// Reopen POST /staff/complaints/:id/reopen.
func (h *ComplaintsHandler) Reopen(c *fiber.Ctx) error {
	user, err := principalUser(c)
	if err != nil {
		return err
	}
	var req dto.RemarksRequest
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return err
		}
	}
	complaint, err := h.complaints.Reopen(c.UserContext(), c.Params("id"), user.ID, req.Remarks)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": complaintResponse(complaint)})
}

func (h *ComplaintsHandler) list(c *fiber.Ctx, filter repository.ComplaintFilter) error {
	complaints, err := h.complaints.List(c.UserContext(), filter)
	if err != nil {
		return err
	}
	items := make([]dto.ComplaintSummary, 0, len(complaints))
	for i := range complaints {
		items = append(items, complaintSummary(&complaints[i]))
	}
	return c.JSON(fiber.Map{"data": items})
}
