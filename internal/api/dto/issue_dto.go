package dto

import (
	"time"

	"github.com/civita-labs/civic-report/internal/domain"
)

// CreateIssueRequest payload.
type CreateIssueRequest struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Category    domain.IssueCategory `json:"category"`
	Location    string               `json:"location"`
	ImageURL    *string              `json:"image_url"`
}

// UpdateIssueRequest payload for reporter edits.
type UpdateIssueRequest struct {
	Title       string               `json:"title"`
	Description string               `json:"description"`
	Category    domain.IssueCategory `json:"category"`
	Location    string               `json:"location"`
	ImageURL    *string              `json:"image_url"`
}

// UpdateStatusRequest payload for staff lifecycle advances.
type UpdateStatusRequest struct {
	Status domain.IssueStatus `json:"status"`
}

// AssignStaffRequest payload.
type AssignStaffRequest struct {
	StaffID string `json:"staff_id"`
}

// AssignedStaffView is the assignment block on an issue.
type AssignedStaffView struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	Email    string `json:"email,omitempty"`
	PhotoURL string `json:"photo_url,omitempty"`
}

// IssueResponse is the issue view returned by the API.
type IssueResponse struct {
	ID            string               `json:"id"`
	Title         string               `json:"title"`
	Description   string               `json:"description"`
	Category      domain.IssueCategory `json:"category"`
	Location      string               `json:"location"`
	ImageURL      *string              `json:"image_url,omitempty"`
	ReporterName  string               `json:"reporter_name"`
	ReporterEmail string               `json:"reporter_email"`
	Status        domain.IssueStatus   `json:"status"`
	Priority      domain.IssuePriority `json:"priority"`
	Boosted       bool                 `json:"boosted"`
	Upvotes       []string             `json:"upvotes"`
	UpvoteCount   int                  `json:"upvote_count"`
	Assigned      AssignedStaffView    `json:"assigned_staff"`
	CreatedAt     time.Time            `json:"created_at"`
	UpdatedAt     time.Time            `json:"updated_at"`
}

// TimelineEntryResponse is one audit-log record.
type TimelineEntryResponse struct {
	ID         string             `json:"id"`
	IssueID    string             `json:"issue_id"`
	Status     domain.IssueStatus `json:"status"`
	Message    string             `json:"message"`
	ActorName  string             `json:"actor_name"`
	ActorRole  domain.Role        `json:"actor_role"`
	ActorEmail string             `json:"actor_email"`
	CreatedAt  time.Time          `json:"created_at"`
}

// IssueView maps a domain issue to its API shape.
func IssueView(issue *domain.Issue) IssueResponse {
	return IssueResponse{
		ID:            issue.ID,
		Title:         issue.Title,
		Description:   issue.Description,
		Category:      issue.Category,
		Location:      issue.Location,
		ImageURL:      issue.ImageURL,
		ReporterName:  issue.ReporterName,
		ReporterEmail: issue.ReporterEmail,
		Status:        issue.Status,
		Priority:      issue.Priority,
		Boosted:       issue.Boosted,
		Upvotes:       issue.Upvotes,
		UpvoteCount:   len(issue.Upvotes),
		Assigned: AssignedStaffView{
			ID:       issue.Assigned.ID,
			Name:     issue.Assigned.Name,
			Email:    issue.Assigned.Email,
			PhotoURL: issue.Assigned.PhotoURL,
		},
		CreatedAt: issue.CreatedAt,
		UpdatedAt: issue.UpdatedAt,
	}
}

// TimelineView maps a timeline entry to its API shape.
func TimelineView(entry *domain.TimelineEntry) TimelineEntryResponse {
	return TimelineEntryResponse{
		ID:         entry.ID,
		IssueID:    entry.IssueID,
		Status:     entry.Status,
		Message:    entry.Message,
		ActorName:  entry.ActorName,
		ActorRole:  entry.ActorRole,
		ActorEmail: entry.ActorEmail,
		CreatedAt:  entry.CreatedAt,
	}
}
