package service

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"

	"github.com/civita-labs/civic-report/internal/domain"
	"github.com/civita-labs/civic-report/internal/persistence"
	"github.com/civita-labs/civic-report/internal/repository"
	apperrors "github.com/civita-labs/civic-report/pkg/util/errorutil"
)

// UserService covers admin account management: role changes, blocking and
// cascading deletion.
type UserService struct {
	users     repository.UserRepository
	issues    repository.IssueRepository
	timelines repository.TimelineRepository
	cache     *issueListCache
}

// UserDependencies bundles collaborators for the user service.
type UserDependencies struct {
	UserRepo     repository.UserRepository
	IssueRepo    repository.IssueRepository
	TimelineRepo repository.TimelineRepository
	Redis        *persistence.Redis
}

// NewUserService constructs the service.
func NewUserService(deps UserDependencies) *UserService {
	return &UserService{
		users:     deps.UserRepo,
		issues:    deps.IssueRepo,
		timelines: deps.TimelineRepo,
		cache:     &issueListCache{redis: deps.Redis},
	}
}

// ListUsers returns accounts for the admin console.
func (s *UserService) ListUsers(ctx context.Context, limit, offset int) ([]domain.User, error) {
	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		return nil, apperrors.MapError(err)
	}
	return users, nil
}

// SetRole changes a user's role. Admin-only at the boundary.
func (s *UserService) SetRole(ctx context.Context, userID string, role domain.Role) (*domain.User, error) {
	if !role.Valid() {
		return nil, apperrors.NewValidationError("unknown role", map[string]any{"role": role})
	}
	if err := s.users.SetRole(ctx, userID, role); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	return s.load(ctx, userID)
}

// SetBlocked flips a user's block flag. Admin-only at the boundary.
func (s *UserService) SetBlocked(ctx context.Context, userID string, blocked bool) (*domain.User, error) {
	if err := s.users.SetBlocked(ctx, userID, blocked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	return s.load(ctx, userID)
}

// DeleteUser removes an account and everything it produced: timeline entries
// it authored, issues it reported along with their audit logs, then the user
// row. Admins cannot delete their own account through this path.
func (s *UserService) DeleteUser(ctx context.Context, actor *domain.User, userID string) error {
	if actor.ID == userID {
		return apperrors.NewInvalidOperation("cannot delete your own account")
	}
	target, err := s.load(ctx, userID)
	if err != nil {
		return err
	}

	reported, err := s.issues.ListWithFilter(ctx, repository.IssueFilter{
		ReporterEmail: &target.Email,
		Limit:         10000,
	})
	if err != nil {
		return apperrors.MapError(err)
	}
	for i := range reported {
		if err := s.timelines.DeleteByIssue(ctx, reported[i].ID); err != nil {
			return apperrors.MapError(err)
		}
	}
	if err := s.timelines.DeleteByActorEmail(ctx, target.Email); err != nil {
		return apperrors.MapError(err)
	}
	if err := s.issues.DeleteByReporterEmail(ctx, target.Email); err != nil {
		return apperrors.MapError(err)
	}
	if err := s.users.Delete(ctx, target.ID); err != nil {
		return apperrors.MapError(err)
	}
	s.cache.invalidate(ctx)
	return nil
}

func (s *UserService) load(ctx context.Context, userID string) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NewNotFound("user", map[string]any{"user_id": userID})
		}
		return nil, apperrors.MapError(err)
	}
	return user, nil
}
