package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/civita-labs/civic-report/internal/api/dto"
	"github.com/civita-labs/civic-report/internal/service"
	apperrors "github.com/civita-labs/civic-report/pkg/util/errorutil"
)

// StaffHandler manages staff-facing issue endpoints.
type StaffHandler struct {
	lifecycle *service.LifecycleService
}

// NewStaffHandler constructs handler.
func NewStaffHandler(lifecycleService *service.LifecycleService) *StaffHandler {
	return &StaffHandler{lifecycle: lifecycleService}
}

// ListAssigned GET /staff/issues.
func (h *StaffHandler) ListAssigned(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	limit, offset := parsePagination(c)
	issues, err := h.lifecycle.ListAssigned(c.Context(), principal.User.ID, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueViews(issues)})
}

// UpdateStatus PUT /staff/issues/:id/status.
func (h *StaffHandler) UpdateStatus(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateStatusRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if !req.Status.Valid() {
		return apperrors.NewValidationError("unknown status", map[string]any{"status": req.Status})
	}

	issue, err := h.lifecycle.AdvanceStatus(c.Context(), principal.User, c.Params("id"), req.Status)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.IssueView(issue)})
}
