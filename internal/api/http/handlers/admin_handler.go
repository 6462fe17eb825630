package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/civita-labs/civic-report/internal/api/dto"
	"github.com/civita-labs/civic-report/internal/service"
	apperrors "github.com/civita-labs/civic-report/pkg/util/errorutil"
)

// AdminHandler manages admin endpoints: user administration, assignment and
// rejection.
type AdminHandler struct {
	users     *service.UserService
	lifecycle *service.LifecycleService
	issues    *service.IssueService
	payments  *service.PaymentService
}

// NewAdminHandler constructs handler.
func NewAdminHandler(userService *service.UserService, lifecycleService *service.LifecycleService, issueService *service.IssueService, paymentService *service.PaymentService) *AdminHandler {
	return &AdminHandler{
		users:     userService,
		lifecycle: lifecycleService,
		issues:    issueService,
		payments:  paymentService,
	}
}

// ListUsers GET /admin/users.
func (h *AdminHandler) ListUsers(c *fiber.Ctx) error {
	limit, offset := parsePagination(c)
	users, err := h.users.ListUsers(c.Context(), limit, offset)
	if err != nil {
		return err
	}
	views := make([]dto.UserResponse, 0, len(users))
	for i := range users {
		views = append(views, dto.UserView(&users[i]))
	}
	return c.JSON(fiber.Map{"data": views})
}

// UpdateRole PUT /admin/users/:id/role.
func (h *AdminHandler) UpdateRole(c *fiber.Ctx) error {
	var req dto.UpdateRoleRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.users.SetRole(c.Context(), c.Params("id"), req.Role)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.UserView(user)})
}

// UpdateBlock PUT /admin/users/:id/block.
func (h *AdminHandler) UpdateBlock(c *fiber.Ctx) error {
	var req dto.UpdateBlockRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	user, err := h.users.SetBlocked(c.Context(), c.Params("id"), req.Blocked)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.UserView(user)})
}

// DeleteUser DELETE /admin/users/:id.
func (h *AdminHandler) DeleteUser(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	if err := h.users.DeleteUser(c.Context(), principal.User, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}

// AssignIssue PUT /admin/issues/:id/assign.
func (h *AdminHandler) AssignIssue(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.AssignStaffRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.StaffID == "" {
		return apperrors.NewValidationError("staff_id required", nil)
	}
	issue, err := h.lifecycle.AssignStaff(c.Context(), principal.User, c.Params("id"), req.StaffID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.IssueView(issue)})
}

// RejectIssue PUT /admin/issues/:id/reject.
func (h *AdminHandler) RejectIssue(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	issue, err := h.lifecycle.Reject(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.IssueView(issue)})
}

// DeleteIssue DELETE /admin/issues/:id.
func (h *AdminHandler) DeleteIssue(c *fiber.Ctx) error {
	if err := h.issues.DeleteAsAdmin(c.Context(), c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}

// ListPayments GET /admin/payments.
func (h *AdminHandler) ListPayments(c *fiber.Ctx) error {
	limit, offset := parsePagination(c)
	payments, err := h.payments.ListAll(c.Context(), limit, offset)
	if err != nil {
		return err
	}
	views := make([]dto.PaymentResponse, 0, len(payments))
	for i := range payments {
		views = append(views, dto.PaymentView(&payments[i]))
	}
	return c.JSON(fiber.Map{"data": views})
}
