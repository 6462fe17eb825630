package service

import (
	"context"
	"errors"
	"testing"

	"github.com/jackc/pgx/v5"

	"github.com/civita-labs/civic-report/internal/domain"
	"github.com/civita-labs/civic-report/internal/repository"
	apperrors "github.com/civita-labs/civic-report/pkg/util/errorutil"
)

func domainCode(t *testing.T, err error) string {
	t.Helper()
	var de *apperrors.DomainError
	if !errors.As(err, &de) {
		t.Fatalf("expected DomainError, got %T: %v", err, err)
	}
	return de.Code
}

func staffUser() *domain.User {
	return &domain.User{ID: "staff-1", Name: "Sam Field", Email: "sam@city.gov", Role: domain.RoleStaff}
}

func adminUser() *domain.User {
	return &domain.User{ID: "admin-1", Name: "Ada Root", Email: "ada@city.gov", Role: domain.RoleAdmin}
}

func assignedIssue(status domain.IssueStatus) *domain.Issue {
	return &domain.Issue{
		ID:            "issue-1",
		Title:         "Broken streetlight",
		Status:        status,
		Priority:      domain.IssuePriorityNormal,
		ReporterEmail: "jo@example.com",
		Assigned: domain.AssignedStaff{
			ID:    "staff-1",
			Name:  "Sam Field",
			Email: "sam@city.gov",
		},
	}
}

func newLifecycleFixture(issue *domain.Issue) (*LifecycleService, *mockIssueRepo, *mockTimelineRepo, *recordingDispatcher) {
	issues := &mockIssueRepo{
		GetByIDFn: func(ctx context.Context, id string) (*domain.Issue, error) {
			if issue == nil || id != issue.ID {
				return nil, pgx.ErrNoRows
			}
			copied := *issue
			return &copied, nil
		},
		UpdateFn: func(ctx context.Context, updated *domain.Issue) error {
			*issue = *updated
			return nil
		},
	}
	timelines := &mockTimelineRepo{
		CreateFn: func(ctx context.Context, entry *domain.TimelineEntry) error { return nil },
	}
	dispatcher := &recordingDispatcher{}
	svc := NewLifecycleService(LifecycleDependencies{
		IssueRepo:    issues,
		UserRepo:     &mockUserRepo{},
		TimelineRepo: timelines,
		Dispatcher:   dispatcher,
	})
	return svc, issues, timelines, dispatcher
}

func TestAdvanceStatusTransitions(t *testing.T) {
	cases := []struct {
		name      string
		from      domain.IssueStatus
		to        domain.IssueStatus
		wantError bool
	}{
		{"pending to in_progress", domain.IssueStatusPending, domain.IssueStatusInProgress, false},
		{"in_progress to working", domain.IssueStatusInProgress, domain.IssueStatusWorking, false},
		{"working to resolved", domain.IssueStatusWorking, domain.IssueStatusResolved, false},
		{"resolved to closed", domain.IssueStatusResolved, domain.IssueStatusClosed, false},
		{"no skipping pending to working", domain.IssueStatusPending, domain.IssueStatusWorking, true},
		{"no skipping pending to resolved", domain.IssueStatusPending, domain.IssueStatusResolved, true},
		{"no skipping in_progress to resolved", domain.IssueStatusInProgress, domain.IssueStatusResolved, true},
		{"no skipping working to closed", domain.IssueStatusWorking, domain.IssueStatusClosed, true},
		{"no moving backwards", domain.IssueStatusWorking, domain.IssueStatusInProgress, true},
		{"closed is terminal", domain.IssueStatusClosed, domain.IssueStatusPending, true},
		{"rejected is terminal", domain.IssueStatusRejected, domain.IssueStatusInProgress, true},
		{"staff cannot reject", domain.IssueStatusPending, domain.IssueStatusRejected, true},
		{"no self transition", domain.IssueStatusWorking, domain.IssueStatusWorking, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			issue := assignedIssue(tc.from)
			svc, _, _, dispatcher := newLifecycleFixture(issue)

			updated, err := svc.AdvanceStatus(context.Background(), staffUser(), issue.ID, tc.to)
			if tc.wantError {
				if err == nil {
					t.Fatalf("expected transition %s -> %s to fail", tc.from, tc.to)
				}
				if code := domainCode(t, err); code != "INVALID_TRANSITION" {
					t.Fatalf("expected INVALID_TRANSITION, got %s", code)
				}
				return
			}
			if err != nil {
				t.Fatalf("transition %s -> %s: %v", tc.from, tc.to, err)
			}
			if updated.Status != tc.to {
				t.Fatalf("expected status %s, got %s", tc.to, updated.Status)
			}
			if len(dispatcher.published()) != 1 {
				t.Fatalf("expected one status change event, got %d", len(dispatcher.published()))
			}
		})
	}
}

func TestAdvanceStatusOwnership(t *testing.T) {
	t.Run("rejects staff not assigned to the issue", func(t *testing.T) {
		issue := assignedIssue(domain.IssueStatusPending)
		svc, _, _, _ := newLifecycleFixture(issue)

		other := &domain.User{ID: "staff-2", Name: "Kim Grid", Email: "kim@city.gov", Role: domain.RoleStaff}
		_, err := svc.AdvanceStatus(context.Background(), other, issue.ID, domain.IssueStatusInProgress)
		if code := domainCode(t, err); code != "FORBIDDEN" {
			t.Fatalf("expected FORBIDDEN, got %s", code)
		}
	})

	t.Run("rejects unassigned issue", func(t *testing.T) {
		issue := assignedIssue(domain.IssueStatusPending)
		issue.Assigned = domain.AssignedStaff{}
		svc, _, _, _ := newLifecycleFixture(issue)

		_, err := svc.AdvanceStatus(context.Background(), staffUser(), issue.ID, domain.IssueStatusInProgress)
		if code := domainCode(t, err); code != "FORBIDDEN" {
			t.Fatalf("expected FORBIDDEN, got %s", code)
		}
	})

	t.Run("unknown issue is not found", func(t *testing.T) {
		svc, _, _, _ := newLifecycleFixture(nil)

		_, err := svc.AdvanceStatus(context.Background(), staffUser(), "missing", domain.IssueStatusInProgress)
		if code := domainCode(t, err); code != "NOT_FOUND" {
			t.Fatalf("expected NOT_FOUND, got %s", code)
		}
	})
}

func TestAdvanceStatusAppendsTimeline(t *testing.T) {
	issue := assignedIssue(domain.IssueStatusInProgress)
	svc, _, timelines, _ := newLifecycleFixture(issue)

	var entries []domain.TimelineEntry
	timelines.CreateFn = func(ctx context.Context, entry *domain.TimelineEntry) error {
		entries = append(entries, *entry)
		return nil
	}

	if _, err := svc.AdvanceStatus(context.Background(), staffUser(), issue.ID, domain.IssueStatusWorking); err != nil {
		t.Fatalf("advance: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected one timeline entry, got %d", len(entries))
	}
	entry := entries[0]
	if entry.Status != domain.IssueStatusWorking {
		t.Errorf("entry status = %s, want working", entry.Status)
	}
	if entry.Message != "Status changed from in_progress to working" {
		t.Errorf("unexpected message %q", entry.Message)
	}
	if entry.ActorEmail != "sam@city.gov" || entry.ActorRole != domain.RoleStaff {
		t.Errorf("entry actor = %s/%s, want sam@city.gov/staff", entry.ActorEmail, entry.ActorRole)
	}
}

func TestReject(t *testing.T) {
	t.Run("pending issue moves to rejected", func(t *testing.T) {
		issue := assignedIssue(domain.IssueStatusPending)
		svc, _, timelines, dispatcher := newLifecycleFixture(issue)

		var entries []domain.TimelineEntry
		timelines.CreateFn = func(ctx context.Context, entry *domain.TimelineEntry) error {
			entries = append(entries, *entry)
			return nil
		}

		updated, err := svc.Reject(context.Background(), adminUser(), issue.ID)
		if err != nil {
			t.Fatalf("reject: %v", err)
		}
		if updated.Status != domain.IssueStatusRejected {
			t.Fatalf("expected rejected, got %s", updated.Status)
		}
		if len(entries) != 1 || entries[0].Message != "Issue rejected" {
			t.Fatalf("expected one 'Issue rejected' entry, got %+v", entries)
		}
		if len(dispatcher.published()) != 1 {
			t.Fatalf("expected one event, got %d", len(dispatcher.published()))
		}
	})

	for _, status := range []domain.IssueStatus{
		domain.IssueStatusInProgress,
		domain.IssueStatusWorking,
		domain.IssueStatusResolved,
		domain.IssueStatusClosed,
		domain.IssueStatusRejected,
	} {
		t.Run("cannot reject "+string(status), func(t *testing.T) {
			issue := assignedIssue(status)
			svc, _, _, _ := newLifecycleFixture(issue)

			_, err := svc.Reject(context.Background(), adminUser(), issue.ID)
			if code := domainCode(t, err); code != "INVALID_STATE" {
				t.Fatalf("expected INVALID_STATE, got %s", code)
			}
		})
	}
}

func TestAssignStaff(t *testing.T) {
	newFixture := func(issue *domain.Issue, roster map[string]*domain.User) (*LifecycleService, *mockTimelineRepo, *recordingDispatcher) {
		issues := &mockIssueRepo{
			GetByIDFn: func(ctx context.Context, id string) (*domain.Issue, error) {
				if issue == nil || id != issue.ID {
					return nil, pgx.ErrNoRows
				}
				copied := *issue
				return &copied, nil
			},
			UpdateFn: func(ctx context.Context, updated *domain.Issue) error {
				*issue = *updated
				return nil
			},
		}
		users := &mockUserRepo{
			GetByIDFn: func(ctx context.Context, id string) (*domain.User, error) {
				if user, ok := roster[id]; ok {
					return user, nil
				}
				return nil, pgx.ErrNoRows
			},
		}
		timelines := &mockTimelineRepo{
			CreateFn: func(ctx context.Context, entry *domain.TimelineEntry) error { return nil },
		}
		dispatcher := &recordingDispatcher{}
		svc := NewLifecycleService(LifecycleDependencies{
			IssueRepo:    issues,
			UserRepo:     users,
			TimelineRepo: timelines,
			Dispatcher:   dispatcher,
		})
		return svc, timelines, dispatcher
	}

	staff := &domain.User{
		ID:       "staff-1",
		Name:     "Sam Field",
		Email:    "sam@city.gov",
		PhotoURL: "https://cdn.example.com/sam.png",
		Role:     domain.RoleStaff,
	}

	t.Run("populates all assignment fields and keeps status", func(t *testing.T) {
		issue := assignedIssue(domain.IssueStatusPending)
		issue.Assigned = domain.AssignedStaff{}
		svc, timelines, dispatcher := newFixture(issue, map[string]*domain.User{staff.ID: staff})

		var entries []domain.TimelineEntry
		timelines.CreateFn = func(ctx context.Context, entry *domain.TimelineEntry) error {
			entries = append(entries, *entry)
			return nil
		}

		updated, err := svc.AssignStaff(context.Background(), adminUser(), issue.ID, staff.ID)
		if err != nil {
			t.Fatalf("assign: %v", err)
		}
		if updated.Assigned.ID != staff.ID || updated.Assigned.Name != staff.Name ||
			updated.Assigned.Email != staff.Email || updated.Assigned.PhotoURL != staff.PhotoURL {
			t.Fatalf("assignment fields incomplete: %+v", updated.Assigned)
		}
		if updated.Status != domain.IssueStatusPending {
			t.Fatalf("assignment must not change status, got %s", updated.Status)
		}
		if len(entries) != 1 || entries[0].Message != "Assigned to Sam Field" {
			t.Fatalf("expected one assignment entry, got %+v", entries)
		}
		if len(dispatcher.published()) != 1 {
			t.Fatalf("expected one event, got %d", len(dispatcher.published()))
		}
	})

	t.Run("rejects already assigned issue", func(t *testing.T) {
		issue := assignedIssue(domain.IssueStatusPending)
		svc, _, _ := newFixture(issue, map[string]*domain.User{staff.ID: staff})

		_, err := svc.AssignStaff(context.Background(), adminUser(), issue.ID, staff.ID)
		if code := domainCode(t, err); code != "ALREADY_ASSIGNED" {
			t.Fatalf("expected ALREADY_ASSIGNED, got %s", code)
		}
	})

	t.Run("unknown staff is not found", func(t *testing.T) {
		issue := assignedIssue(domain.IssueStatusPending)
		issue.Assigned = domain.AssignedStaff{}
		svc, _, _ := newFixture(issue, nil)

		_, err := svc.AssignStaff(context.Background(), adminUser(), issue.ID, "ghost")
		if code := domainCode(t, err); code != "NOT_FOUND" {
			t.Fatalf("expected NOT_FOUND, got %s", code)
		}
	})

	t.Run("rejects assignee without staff role", func(t *testing.T) {
		issue := assignedIssue(domain.IssueStatusPending)
		issue.Assigned = domain.AssignedStaff{}
		citizen := &domain.User{ID: "cit-1", Name: "Jo", Email: "jo@example.com", Role: domain.RoleCitizen}
		svc, _, _ := newFixture(issue, map[string]*domain.User{citizen.ID: citizen})

		_, err := svc.AssignStaff(context.Background(), adminUser(), issue.ID, citizen.ID)
		if code := domainCode(t, err); code != "VALIDATION_FAILED" {
			t.Fatalf("expected VALIDATION_FAILED, got %s", code)
		}
	})

	t.Run("admins cannot be assigned either", func(t *testing.T) {
		issue := assignedIssue(domain.IssueStatusPending)
		issue.Assigned = domain.AssignedStaff{}
		admin := adminUser()
		svc, _, _ := newFixture(issue, map[string]*domain.User{admin.ID: admin})

		_, err := svc.AssignStaff(context.Background(), admin, issue.ID, admin.ID)
		if code := domainCode(t, err); code != "VALIDATION_FAILED" {
			t.Fatalf("expected VALIDATION_FAILED, got %s", code)
		}
	})
}

func TestListAssigned(t *testing.T) {
	var captured repository.IssueFilter
	issues := &mockIssueRepo{
		ListWithFilterFn: func(ctx context.Context, filter repository.IssueFilter) ([]domain.Issue, error) {
			captured = filter
			return []domain.Issue{{ID: "issue-1"}}, nil
		},
	}
	svc := NewLifecycleService(LifecycleDependencies{IssueRepo: issues})

	got, err := svc.ListAssigned(context.Background(), "staff-1", 10, 0)
	if err != nil {
		t.Fatalf("list assigned: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("expected one issue, got %d", len(got))
	}
	if captured.AssignedStaffID == nil || *captured.AssignedStaffID != "staff-1" {
		t.Fatalf("expected filter on staff-1, got %+v", captured.AssignedStaffID)
	}
	if captured.Limit != 10 {
		t.Fatalf("expected limit 10, got %d", captured.Limit)
	}
}
