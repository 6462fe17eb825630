package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/civita-labs/civic-report/internal/domain"
	"github.com/civita-labs/civic-report/internal/events"
	"github.com/civita-labs/civic-report/internal/persistence"
	"github.com/civita-labs/civic-report/internal/repository"
	apperrors "github.com/civita-labs/civic-report/pkg/util/errorutil"
)

// allowedTransitions is the single authority on lifecycle edges. The chain is
// strictly forward with no skips; rejection is reachable only from pending and
// handled separately because only admins may take it.
var allowedTransitions = map[domain.IssueStatus][]domain.IssueStatus{
	domain.IssueStatusPending:    {domain.IssueStatusInProgress},
	domain.IssueStatusInProgress: {domain.IssueStatusWorking},
	domain.IssueStatusWorking:    {domain.IssueStatusResolved},
	domain.IssueStatusResolved:   {domain.IssueStatusClosed},
	domain.IssueStatusClosed:     {},
	domain.IssueStatusRejected:   {},
}

func isAllowedTransition(current, next domain.IssueStatus) bool {
	for _, candidate := range allowedTransitions[current] {
		if candidate == next {
			return true
		}
	}
	return false
}

// LifecycleService owns the issue status state machine: staff advances,
// admin rejection and staff assignment. Every mutation appends a timeline
// entry.
type LifecycleService struct {
	issues     repository.IssueRepository
	users      repository.UserRepository
	timelines  repository.TimelineRepository
	dispatcher events.Dispatcher
	cache      *issueListCache
}

// LifecycleDependencies bundles collaborators for the lifecycle service.
type LifecycleDependencies struct {
	IssueRepo    repository.IssueRepository
	UserRepo     repository.UserRepository
	TimelineRepo repository.TimelineRepository
	Dispatcher   events.Dispatcher
	Redis        *persistence.Redis
}

// NewLifecycleService constructs the service.
func NewLifecycleService(deps LifecycleDependencies) *LifecycleService {
	return &LifecycleService{
		issues:     deps.IssueRepo,
		users:      deps.UserRepo,
		timelines:  deps.TimelineRepo,
		dispatcher: deps.Dispatcher,
		cache:      &issueListCache{redis: deps.Redis},
	}
}

// AdvanceStatus moves an issue one step along the lifecycle. Only the staff
// member currently assigned to the issue may advance it, and only along an
// edge the transition table allows.
func (s *LifecycleService) AdvanceStatus(ctx context.Context, staff *domain.User, issueID string, requested domain.IssueStatus) (*domain.Issue, error) {
	issue, err := s.loadIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if issue.Assigned.Empty() || issue.Assigned.ID != staff.ID {
		return nil, apperrors.NewForbidden("only the assigned staff member may change this issue's status")
	}
	if !isAllowedTransition(issue.Status, requested) {
		return nil, apperrors.NewInvalidTransition(string(issue.Status), string(requested))
	}

	oldStatus := issue.Status
	issue.Status = requested
	if err := s.issues.Update(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.appendTimeline(ctx, issue, staff, statusChangeMessage(oldStatus, requested)); err != nil {
		return nil, err
	}
	s.cache.invalidate(ctx)
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventIssueStatusChanged,
		IssueID: issue.ID,
		Actor:   actorFor(staff),
		Payload: events.IssueStatusChangedPayload{OldStatus: oldStatus, NewStatus: requested},
	})
	return issue, nil
}

// Reject moves a pending issue to the terminal rejected state. Admin only.
func (s *LifecycleService) Reject(ctx context.Context, admin *domain.User, issueID string) (*domain.Issue, error) {
	issue, err := s.loadIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if issue.Status != domain.IssueStatusPending {
		return nil, apperrors.NewInvalidState("only pending issues can be rejected",
			map[string]any{"status": issue.Status})
	}

	oldStatus := issue.Status
	issue.Status = domain.IssueStatusRejected
	if err := s.issues.Update(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.appendTimeline(ctx, issue, admin, "Issue rejected"); err != nil {
		return nil, err
	}
	s.cache.invalidate(ctx)
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventIssueRejected,
		IssueID: issue.ID,
		Actor:   actorFor(admin),
		Payload: events.IssueStatusChangedPayload{OldStatus: oldStatus, NewStatus: issue.Status},
	})
	return issue, nil
}

// AssignStaff attaches a staff member to an unassigned issue. All four
// assignment fields populate together; status is deliberately unchanged.
func (s *LifecycleService) AssignStaff(ctx context.Context, admin *domain.User, issueID, staffID string) (*domain.Issue, error) {
	issue, err := s.loadIssue(ctx, issueID)
	if err != nil {
		return nil, err
	}
	if !issue.Assigned.Empty() {
		return nil, apperrors.NewAlreadyAssigned(issue.ID)
	}

	staff, err := s.users.GetByID(ctx, staffID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("staff", map[string]any{"staff_id": staffID})
		}
		return nil, apperrors.MapError(err)
	}
	if staff.Role != domain.RoleStaff {
		return nil, apperrors.NewValidationError("assignee is not a staff member",
			map[string]any{"staff_id": staffID, "role": staff.Role})
	}

	issue.Assigned = domain.AssignedStaff{
		ID:       staff.ID,
		Name:     staff.Name,
		Email:    staff.Email,
		PhotoURL: staff.PhotoURL,
	}
	if err := s.issues.Update(ctx, issue); err != nil {
		return nil, apperrors.MapError(err)
	}
	if err := s.appendTimeline(ctx, issue, admin, "Assigned to "+staff.Name); err != nil {
		return nil, err
	}
	publishEvent(ctx, s.dispatcher, events.Event{
		Type:    events.EventIssueAssigned,
		IssueID: issue.ID,
		Actor:   actorFor(admin),
		Payload: events.IssueAssignedPayload{StaffID: staff.ID, StaffEmail: staff.Email},
	})
	return issue, nil
}

// ListAssigned returns issues assigned to a staff member.
func (s *LifecycleService) ListAssigned(ctx context.Context, staffID string, limit, offset int) ([]domain.Issue, error) {
	issues, err := s.issues.ListWithFilter(ctx, repository.IssueFilter{
		AssignedStaffID: &staffID,
		Limit:           limit,
		Offset:          offset,
	})
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return issues, nil
}

func (s *LifecycleService) loadIssue(ctx context.Context, issueID string) (*domain.Issue, error) {
	issue, err := s.issues.GetByID(ctx, issueID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("issue", map[string]any{"issue_id": issueID})
		}
		return nil, apperrors.MapError(err)
	}
	return issue, nil
}

func (s *LifecycleService) appendTimeline(ctx context.Context, issue *domain.Issue, actor *domain.User, message string) error {
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
