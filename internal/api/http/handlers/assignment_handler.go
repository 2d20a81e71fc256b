package handlers

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/campusdesk/complaint-service/internal/api/dto"
	"github.com/campusdesk/complaint-service/internal/service"
	apperrors "github.com/campusdesk/complaint-service/pkg/util/errorutil"
)

// AssignmentHandler serves recommendation and assignment endpoints.
type AssignmentHandler struct {
	assignments *service.AssignmentService
}

// NewAssignmentHandler constructs handler.
func NewAssignmentHandler(assignments *service.AssignmentService) *AssignmentHandler {
	return &AssignmentHandler{assignments: assignments}
}

// Recommendations GET /admin/complaints/:id/recommendations.
func (h *AssignmentHandler) Recommendations(c *fiber.Ctx) error {
	ranked, err := h.assignments.Recommend(c.UserContext(), c.Params("id"))
	if err != nil {
		return err
	}
	items := make([]dto.RecommendationResponse, 0, len(ranked))
	for _, r := range ranked {
		items = append(items, recommendationResponse(r))
	}
	return c.JSON(fiber.Map{"data": items})
}

// AutoAssign POST /admin/complaints/:id/auto-assign.
func (h *AssignmentHandler) AutoAssign(c *fiber.Ctx) error {
	user, err := principalUser(c)
	if err != nil {
		return err
	}
	result, err := h.assignments.AutoAssign(c.UserContext(), c.Params("id"), user.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.AutoAssignResponse{
		Complaint: complaintResponse(result.Complaint),
		Chosen:    recommendationResponse(result.Chosen),
	}})
}

// Assign POST /admin/complaints/:id/assign.
func (h *AssignmentHandler) Assign(c *fiber.Ctx) error {
	user, err := principalUser(c)
	if err != nil {
		return err
	}
	var req dto.AssignRequest
	if err := parseBody(c, &req); err != nil {
		return err
	}
	if strings.TrimSpace(req.StaffID) == "" {
		return apperrors.NewValidationError("staff_id is required", nil)
	}
	complaint, err := h.assignments.ManualAssign(c.UserContext(), c.Params("id"), req.StaffID, user.ID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": complaintResponse(complaint)})
}

// Unassign POST /admin/complaints/:id/unassign.
func (h *AssignmentHandler) Unassign(c *fiber.Ctx) error {
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
	complaint, err := h.assignments.Unassign(c.UserContext(), c.Params("id"), user.ID, req.Remarks)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": complaintResponse(complaint)})
}
