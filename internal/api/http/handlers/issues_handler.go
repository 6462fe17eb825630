package handlers

import (
	"net/http"
	"strconv"

	"github.com/gofiber/fiber/v2"

	"github.com/civita-labs/civic-report/internal/api/dto"
	"github.com/civita-labs/civic-report/internal/auth"
	"github.com/civita-labs/civic-report/internal/domain"
	"github.com/civita-labs/civic-report/internal/service"
	apperrors "github.com/civita-labs/civic-report/pkg/util/errorutil"
)

// IssuesHandler manages citizen and public issue endpoints.
type IssuesHandler struct {
	issues *service.IssueService
}

// NewIssuesHandler constructs handler.
func NewIssuesHandler(issueService *service.IssueService) *IssuesHandler {
	return &IssuesHandler{issues: issueService}
}

// Create POST /issues.
func (h *IssuesHandler) Create(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.CreateIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Title == "" || req.Description == "" || req.Location == "" || req.Category == "" {
		return apperrors.NewValidationError("title, description, category, location required", nil)
	}

	issue, err := h.issues.CreateIssue(c.Context(), principal.User, service.IssueCreateInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return err
	}
	return c.Status(http.StatusCreated).JSON(fiber.Map{"data": dto.IssueView(issue)})
}

// List GET /issues (public feed).
func (h *IssuesHandler) List(c *fiber.Ctx) error {
	limit, offset := parsePagination(c)
	issues, err := h.issues.ListPublic(c.Context(), limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueViews(issues)})
}

// ListMine GET /issues/mine.
func (h *IssuesHandler) ListMine(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	limit, offset := parsePagination(c)
	issues, err := h.issues.ListByReporter(c.Context(), principal.User.Email, limit, offset)
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": issueViews(issues)})
}

// Get GET /issues/:id.
func (h *IssuesHandler) Get(c *fiber.Ctx) error {
	issue, err := h.issues.GetIssue(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.IssueView(issue)})
}

// Timeline GET /issues/:id/timeline.
func (h *IssuesHandler) Timeline(c *fiber.Ctx) error {
	entries, err := h.issues.ListTimeline(c.Context(), c.Params("id"))
	if err != nil {
		return err
	}
	views := make([]dto.TimelineEntryResponse, 0, len(entries))
	for i := range entries {
		views = append(views, dto.TimelineView(&entries[i]))
	}
	return c.JSON(fiber.Map{"data": views})
}

// Update PUT /issues/:id.
func (h *IssuesHandler) Update(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	var req dto.UpdateIssueRequest
	if err := c.BodyParser(&req); err != nil {
		return apperrors.NewValidationError("invalid payload", nil)
	}
	if req.Title == "" || req.Description == "" || req.Location == "" || req.Category == "" {
		return apperrors.NewValidationError("title, description, category, location required", nil)
	}

	issue, err := h.issues.EditIssue(c.Context(), principal.User, c.Params("id"), service.IssueEditInput{
		Title:       req.Title,
		Description: req.Description,
		Category:    req.Category,
		Location:    req.Location,
		ImageURL:    req.ImageURL,
	})
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.IssueView(issue)})
}

// Upvote POST /issues/:id/upvote.
func (h *IssuesHandler) Upvote(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	issue, err := h.issues.ToggleUpvote(c.Context(), principal.User, c.Params("id"))
	if err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": dto.IssueView(issue)})
}

// Delete DELETE /issues/:id.
func (h *IssuesHandler) Delete(c *fiber.Ctx) error {
	principal, err := requirePrincipal(c)
	if err != nil {
		return err
	}
	if err := h.issues.DeleteAsReporter(c.Context(), principal.User, c.Params("id")); err != nil {
		return err
	}
	return c.JSON(fiber.Map{"data": fiber.Map{"deleted": true}})
}

func requirePrincipal(c *fiber.Ctx) (*auth.Principal, error) {
	principal, ok := auth.PrincipalFromContext(c)
	if !ok || principal.User == nil {
		return nil, apperrors.NewUnauthorized("authentication required")
	}
	return principal, nil
}

func issueViews(issues []domain.Issue) []dto.IssueResponse {
	views := make([]dto.IssueResponse, 0, len(issues))
	for i := range issues {
		views = append(views, dto.IssueView(&issues[i]))
	}
	return views
}

func parsePagination(c *fiber.Ctx) (limit, offset int) {
	page := parseInt(c.Query("page"), 1)
	pageSize := parseInt(c.Query("page_size"), 20)
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = 20
	}
	return pageSize, (page - 1) * pageSize
}

func parseInt(val string, fallback int) int {
	if val == "" {
		return fallback
	}
	parsed, err := strconv.Atoi(val)
	if err != nil {
		return fallback
	}
	return parsed
}
