package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civita-labs/civic-report/internal/domain"
)

// TimelineRepository persists the append-only audit log. Entries are never
// updated; deletes happen only in bulk alongside their parent issue or
// authoring user.
type TimelineRepository interface {
	Create(ctx context.Context, entry *domain.TimelineEntry) error
	ListByIssue(ctx context.Context, issueID string) ([]domain.TimelineEntry, error)
	DeleteByIssue(ctx context.Context, issueID string) error
	DeleteByActorEmail(ctx context.Context, email string) error
}

type timelineRepository struct {
	pool *pgxpool.Pool
}

// NewTimelineRepository instantiates repository.
func NewTimelineRepository(pool *pgxpool.Pool) TimelineRepository {
	return &timelineRepository{pool: pool}
}

func (r *timelineRepository) Create(ctx context.Context, entry *domain.TimelineEntry) error {
	const query = `
        INSERT INTO timeline_entries (issue_id, status, message, actor_name, actor_role, actor_email)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		entry.IssueID,
		entry.Status,
		entry.Message,
		entry.ActorName,
		entry.ActorRole,
		entry.ActorEmail,
	).Scan(&entry.ID, &entry.CreatedAt)
}

func (r *timelineRepository) ListByIssue(ctx context.Context, issueID string) ([]domain.TimelineEntry, error) {
	const query = `
        SELECT id, issue_id, status, message, actor_name, actor_role, actor_email, created_at
        FROM timeline_entries WHERE issue_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, issueID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.TimelineEntry
	for rows.Next() {
		var entry domain.TimelineEntry
		if err := rows.Scan(
			&entry.ID,
			&entry.IssueID,
			&entry.Status,
			&entry.Message,
			&entry.ActorName,
			&entry.ActorRole,
			&entry.ActorEmail,
			&entry.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, entry)
	}
	return result, rows.Err()
}

func (r *timelineRepository) DeleteByIssue(ctx context.Context, issueID string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM timeline_entries WHERE issue_id=$1`, issueID)
	return err
}

func (r *timelineRepository) DeleteByActorEmail(ctx context.Context, email string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM timeline_entries WHERE actor_email=$1`, email)
	return err
}
