package handlers

import (
	"github.com/gofiber/fiber/v2"

	"github.com/civita-labs/civic-report/internal/api/dto"
	"github.com/civita-labs/civic-report/internal/service"
	apperrors "github.com/civita-labs/civic-report/pkg/util/errorutil"
)

// PaymentsHandler manages checkout, settlement and invoice endpoints.
type PaymentsHandler struct {
	payments *service.PaymentService
}

// NewPaymentsHandler constructs handler.
func NewPaymentsHandler(paymentService *service.PaymentService) *PaymentsHandler {
	return &PaymentsHandler{payments: paymentService}
}

// Checkout POST /payments/checkout.
func (h *PaymentsHandler) Checkout(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CheckoutRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}

	session, err := h.payments.CreateCheckout(c.Context(), principal.User, req.PaymentType, req.IssueID)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.CheckoutResponse{SessionID: session.ID, URL: session.URL}})
}

// Settle GET /payments/settle.
func (h *PaymentsHandler) Settle(c *fiber.Ctx) error {
	sessionID := c.Query("session_id")
	if sessionID == "" {
		return apperrors.NewValidationError("session_id required", nil)
	}

	result, err := h.payments.Settle(c.Context(), sessionID)
	if err != nil {
		return err
	}

	resp := dto.SettleResponse{Success: result.Success, Message: result.Message}
	if result.Payment != nil {
		view := dto.PaymentView(result.Payment)
		resp.Payment = &view
	}
	return c.JSON(fiber.Map{"data": resp})
}

// ListMine GET /payments/mine.
func (h *PaymentsHandler) ListMine(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	limit, offset := parsePagination(c)
	payments, err := h.payments.ListByCustomer(c.Context(), principal.User.Email, limit, offset)
	if err != nil {
		return err
	}
	views := make([]dto.PaymentResponse, 0, len(payments))
	for i := range payments {
		views = append(views, dto.PaymentView(&payments[i]))
	}
	return c.JSON(fiber.Map{"data": views})
}

// Invoice GET /payments/:id/invoice.
func (h *PaymentsHandler) Invoice(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	doc, err := h.payments.Invoice(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": doc})
}
