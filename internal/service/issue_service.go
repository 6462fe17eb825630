package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/civita-labs/civic-report/internal/domain"
	"github.com/civita-labs/civic-report/internal/events"
	"github.com/civita-labs/civic-report/internal/persistence"
	"github.com/civita-labs/civic-report/internal/repository"
	apperrors "github.com/civita-labs/civic-report/pkg/util/errorutil"
)

// IssueService coordinates citizen-facing issue workflows: creation under the
// free-tier quota, edits while pending, upvotes and cascading deletion.
type IssueService struct {
	issues     repository.IssueRepository
	timelines  repository.TimelineRepository
	dispatcher events.Dispatcher
	cache      *issueListCache
	quotaLimit int
}

// IssueDependencies bundles collaborators for the issue service.
type IssueDependencies struct {
	IssueRepo    repository.IssueRepository
	TimelineRepo repository.TimelineRepository
	Dispatcher   events.Dispatcher
	Redis        *persistence.Redis
	QuotaLimit   int
}

// IssueCreateInput describes issue creation payload.
type IssueCreateInput struct {
	Title       string
	Description string
	Category    domain.IssueCategory
	Location    string
	ImageURL    *string
}

// IssueEditInput describes a reporter's edit. ImageURL replaces the stored
// image only when supplied.
type IssueEditInput struct {
	Title       string
	Description string
	Category    domain.IssueCategory
	Location    string
	ImageURL    *string
}

// NewIssueService constructs the service.
func NewIssueService(deps IssueDependencies) *IssueService {
	limit := deps.QuotaLimit
	if limit <= 0 {
		limit = 3
	}
	return &IssueService{
		issues:     deps.IssueRepo,
		timelines:  deps.TimelineRepo,
		dispatcher: deps.Dispatcher,
		cache:      &issueListCache{redis: deps.Redis},
		quotaLimit: limit,
	}
}

// CreateIssue files a new complaint. Non-premium citizens are capped by the
// free-tier quota; the cap and the insert are a single atomic statement.
func (s *IssueService) CreateIssue(ctx context.Context, reporter *domain.User, input IssueCreateInput) (*domain.Issue, error) {
	if !input.Category.Valid() {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": input.Category})
	}

	issue := &domain.Issue{
		Title:         strings.TrimSpace(input.Title),
		Description:   strings.TrimSpace(input.Description),
		Category:      input.Category,
		Location:      strings.TrimSpace(input.Location),
		ImageURL:      input.ImageURL,
		ReporterID:    reporter.ID,
		ReporterName:  reporter.Name,
		ReporterEmail: reporter.Email,
		Status:        domain.IssueStatusPending,
		Priority:      domain.IssuePriorityNormal,
	}

	if reporter.Premium {
		if err := s.issues.Create(ctx, issue); err != nil {
			return nil, apperrors.MapError(err)
		}
	} else {
		created, err := s.issues.CreateWithQuota(ctx, issue, s.quotaLimit)
		if err != nil {
			return nil, apperrors.MapError(err)
		}
		if !created {
			return nil, apperrors.NewQuotaExceeded(s.quotaLimit)
		}
	}

	if err := s.appendTimeline(ctx, issue, reporter, "Issue reported"); err != nil {
		return nil, err
	}
	s.cache.invalidate(ctx)
	s.publish(ctx, events.Event{
		Type:    events.EventIssueCreated,
		IssueID: issue.ID,
		Actor:   actorFor(reporter),
		Payload: events.IssueCreatedPayload{
			Category: issue.Category,
			Location: issue.Location,
			Title:    issue.Title,
		},
	})
	return issue, nil
}

// ListPublic returns the public issue feed, served from Redis when warm.
func (s *IssueService) ListPublic(ctx context.Context, limit, offset int) ([]domain.Issue, error) {
	cacheable := offset == 0 && (limit <= 0 || limit == 20)
	if cacheable {
		if issues, ok := s.cache.get(ctx); ok {
			return issues, nil
		}
	}
	issues, err := s.issues.ListWithFilter(ctx, repository.IssueFilter{Limit: limit, Offset: offset})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	if cacheable {
		s.cache.set(ctx, issues)
	}
	return issues, nil
}

// ListByReporter returns the caller's own issues.
func (s *IssueService) ListByReporter(ctx context.Context, reporterEmail string, limit, offset int) ([]domain.Issue, error) {
	issues, err := s.issues.ListWithFilter(ctx, repository.IssueFilter{
		ReporterEmail: &reporterEmail,
		Limit:         limit,
		Offset:        offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return issues, nil
}

// GetIssue fetches one issue.
func (s *IssueService) GetIssue(ctx context.Context, issueID string) (*domain.Issue, error) {
	return s.loadIssue(ctx, issueID)
}

// ListTimeline returns the audit log for an issue, oldest first.
func (s *IssueService) ListTimeline(ctx context.Context, issueID string) ([]domain.TimelineEntry, error) {
	if _, err := s.loadIssue(ctx, issueID); err != nil {
		return nil, err
	}
	entries, err := s.timelines.ListByIssue(ctx, issueID)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return entries, nil
}

// EditIssue lets the original reporter amend an issue while it is still
// pending. Status is preserved.
func (s *IssueService) EditIssue(ctx context.Context, actor *domain.User, issueID string, input IssueEditInput) (*domain.Issue, error) {
	issue, err := s.loadIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if issue.ReporterEmail != actor.Email {
		return nil, apperrors.NewForbidden("only the reporter may edit this issue")
	}
	if issue.Status != domain.IssueStatusPending {
		return nil, apperrors.NewInvalidState("issue can only be edited while pending",
			map[string]any{"status": issue.Status})
	}
	if !input.Category.Valid() {
		return nil, apperrors.NewValidationError("unknown category", map[string]any{"category": input.Category})
	}

	issue.Title = strings.TrimSpace(input.Title)
	issue.Description = strings.TrimSpace(input.Description)
	issue.Category = input.Category
	issue.Location = strings.TrimSpace(input.Location)
	if input.ImageURL != nil {
		issue.ImageURL = input.ImageURL
	}
	if err := s.issues.Update(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.appendTimeline(ctx, issue, actor, "Issue details updated by reporter"); err != nil {
		return nil, err
	}
	s.cache.invalidate(ctx)
	return issue, nil
}

// ToggleUpvote adds or removes the caller's upvote.
func (s *IssueService) ToggleUpvote(ctx context.Context, actor *domain.User, issueID string) (*domain.Issue, error) {
	issue, err := s.loadIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}

	found := false
	kept := issue.Upvotes[:0]
	for _, email := range issue.Upvotes {
		if email == actor.Email {
			found = true
			continue
		}
		kept = append(kept, email)
	}
	if found {
		issue.Upvotes = kept
	} else {
		issue.Upvotes = append(issue.Upvotes, actor.Email)
	}

	if err := s.issues.Update(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}
	s.cache.invalidate(ctx)
	return issue, nil
}

// DeleteAsReporter removes the caller's own issue and its audit log.
func (s *IssueService) DeleteAsReporter(ctx context.Context, actor *domain.User, issueID string) error {
	issue, err := s.loadIssue(ctx, issueID)
	if err != nil {
		return err
	}
	if issue.ReporterEmail != actor.Email {
		return apperrors.NewForbidden("only the reporter may delete this issue")
	}
	return s.cascadeDelete(ctx, issue.ID)
}

// DeleteAsAdmin removes any issue and its audit log.
func (s *IssueService) DeleteAsAdmin(ctx context.Context, issueID string) error {
	issue, err := s.loadIssue(ctx, issueID)
	if err != nil {
		return err
	}
	return s.cascadeDelete(ctx, issue.ID)
}

// cascadeDelete removes timeline entries first, then the issue itself.
func (s *IssueService) cascadeDelete(ctx context.Context, issueID string) error {
	if err := s.timelines.DeleteByIssue(ctx, issueID); err != nil {
		return apperrors.MapError(err)
	}
	if err := s.issues.Delete(ctx, issueID); err != nil {
		return apperrors.MapError(err)
	}
	s.cache.invalidate(ctx)
	return nil
}

func (s *IssueService) loadIssue(ctx context.Context, issueID string) (*domain.Issue, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("issue", map[string]any{"issue_id": issueID})
		}
		return nil, apperrors.MapError(err)
	}
	return issue, nil
}

func (s *IssueService) appendTimeline(ctx context.Context, issue *domain.Issue, actor *domain.User, message string) error {
	entry := &domain.TimelineEntry{
		IssueID:    issue.ID,
		Status:     issue.Status,
		Message:    message,
		ActorName:  actor.Name,
		ActorRole:  actor.Role,
		ActorEmail: actor.Email,
	}
	if err := s.timelines.Create(ctx, entry); err != nil {
		return apperrors.MapError(err)
	}
	return nil
}

func (s *IssueService) publish(ctx context.Context, event events.Event) {
	publishEvent(ctx, s.dispatcher, event)
}

func publishEvent(ctx context.Context, dispatcher events.Dispatcher, event events.Event) {
	if dispatcher == nil {
		return
	}
	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	if event.Timestamp.IsZero() {
		event.Timestamp = time.Now()
	}
	_ = dispatcher.Publish(ctx, event)
}

func actorFor(user *domain.User) events.Actor {
	return events.Actor{Role: user.Role, Email: user.Email, Name: user.Name}
}

func statusChangeMessage(from, to domain.IssueStatus) string {
	return fmt.Sprintf("Status changed from %s to %s", from, to)
}
