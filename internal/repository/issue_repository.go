package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civita-labs/civic-report/internal/domain"
)

// IssueFilter captures issue listing parameters.
type IssueFilter struct {
	ReporterEmail   *string
	AssignedStaffID *string
	Statuses        []domain.IssueStatus
	Priorities      []domain.IssuePriority
	Category        *domain.IssueCategory
	Limit           int
	Offset          int
}

// IssueRepository encapsulates issue persistence.
type IssueRepository interface {
	Create(ctx context.Context, issue *domain.Issue) error
	// CreateWithQuota inserts the issue only while the reporter stays under
	// the free-tier limit. The count check and the insert are one SQL
	// statement, so concurrent creates cannot slip past the limit. It
	// reports whether the insert happened.
	CreateWithQuota(ctx context.Context, issue *domain.Issue, limit int) (bool, error)
	Update(ctx context.Context, issue *domain.Issue) error
	GetByID(ctx context.Context, id string) (*domain.Issue, error)
	ListWithFilter(ctx context.Context, filter IssueFilter) ([]domain.Issue, error)
	CountByReporter(ctx context.Context, reporterEmail string) (int, error)
	Delete(ctx context.Context, id string) error
	DeleteByReporterEmail(ctx context.Context, reporterEmail string) error
}

type issueRepository struct {
	pool *pgxpool.Pool
}

// NewIssueRepository instantiates repository.
func NewIssueRepository(pool *pgxpool.Pool) IssueRepository {
	return &issueRepository{pool: pool}
}

const issueColumns = `id, title, description, category, location, image_url,
               reporter_id, reporter_name, reporter_email, status, priority, boosted, upvotes,
               assigned_staff_id, assigned_staff_name, assigned_staff_email, assigned_staff_photo,
               created_at, updated_at`

func (r *issueRepository) Create(ctx context.Context, issue *domain.Issue) error {
	const query = `
        INSERT INTO issues (title, description, category, location, image_url,
            reporter_id, reporter_name, reporter_email, status, priority)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		issue.Title,
		issue.Description,
		issue.Category,
		issue.Location,
		issue.ImageURL,
		issue.ReporterID,
		issue.ReporterName,
		issue.ReporterEmail,
		issue.Status,
		issue.Priority,
	).Scan(&issue.ID, &issue.CreatedAt, &issue.UpdatedAt)
}

func (r *issueRepository) CreateWithQuota(ctx context.Context, issue *domain.Issue, limit int) (bool, error) {
	const query = `
        INSERT INTO issues (title, description, category, location, image_url,
            reporter_id, reporter_name, reporter_email, status, priority)
        SELECT $1,$2,$3,$4,$5,$6,$7,$8,$9,$10
        WHERE (SELECT COUNT(*) FROM issues WHERE reporter_email=$8) < $11
        RETURNING id, created_at, updated_at`
	err := r.pool.QueryRow(ctx, query,
		issue.Title,
		issue.Description,
		issue.Category,
		issue.Location,
		issue.ImageURL,
		issue.ReporterID,
		issue.ReporterName,
		issue.ReporterEmail,
		issue.Status,
		issue.Priority,
		limit,
	).Scan(&issue.ID, &issue.CreatedAt, &issue.UpdatedAt)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *issueRepository) Update(ctx context.Context, issue *domain.Issue) error {
	const query = `
        UPDATE issues SET title=$1, description=$2, category=$3, location=$4, image_url=$5,
            status=$6, priority=$7, boosted=$8, upvotes=$9,
            assigned_staff_id=$10, assigned_staff_name=$11, assigned_staff_email=$12, assigned_staff_photo=$13,
            updated_at=NOW()
        WHERE id=$14`
	cmd, err := r.pool.Exec(ctx, query,
		issue.Title,
		issue.Description,
		issue.Category,
		issue.Location,
		issue.ImageURL,
		issue.Status,
		issue.Priority,
		issue.Boosted,
		issue.Upvotes,
		issue.Assigned.ID,
		issue.Assigned.Name,
		issue.Assigned.Email,
		issue.Assigned.PhotoURL,
		issue.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *issueRepository) GetByID(ctx context.Context, id string) (*domain.Issue, error) {
	query := `SELECT ` + issueColumns + ` FROM issues WHERE id=$1`
	var issue domain.Issue
	if err := r.pool.QueryRow(ctx, query, id).Scan(scanTargets(&issue)...); err != nil {
		return nil, err
	}
	return &issue, nil
}

func (r *issueRepository) ListWithFilter(ctx context.Context, filter IssueFilter) ([]domain.Issue, error) {
	base := `SELECT ` + issueColumns + ` FROM issues`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.ReporterEmail != nil {
		args = append(args, *filter.ReporterEmail)
		clauses = append(clauses, fmt.Sprintf("reporter_email=$%d", len(args)))
	}
	if filter.AssignedStaffID != nil {
		args = append(args, *filter.AssignedStaffID)
		clauses = append(clauses, fmt.Sprintf("assigned_staff_id=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}
	if len(filter.Priorities) > 0 {
		placeholders := make([]string, len(filter.Priorities))
		for i, pr := range filter.Priorities {
			args = append(args, pr)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("priority IN (%s)", strings.Join(placeholders, ",")))
	}
	if filter.Category != nil {
		args = append(args, *filter.Category)
		clauses = append(clauses, fmt.Sprintf("category=$%d", len(args)))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	// Boosted issues surface first, then the freshest.
	query := fmt.Sprintf(`%s WHERE %s ORDER BY boosted DESC, created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanIssues(rows)
}

func (r *issueRepository) CountByReporter(ctx context.Context, reporterEmail string) (int, error) {
	var count int
	err := r.pool.QueryRow(ctx, `SELECT COUNT(*) FROM issues WHERE reporter_email=$1`, reporterEmail).Scan(&count)
	return count, err
}

func (r *issueRepository) Delete(ctx context.Context, id string) error {
	cmd, err := r.pool.Exec(ctx, `DELETE FROM issues WHERE id=$1`, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *issueRepository) DeleteByReporterEmail(ctx context.Context, reporterEmail string) error {
	_, err := r.pool.Exec(ctx, `DELETE FROM issues WHERE reporter_email=$1`, reporterEmail)
	return err
}

func scanTargets(issue *domain.Issue) []any {
	return []any{
		&issue.ID,
		&issue.Title,
		&issue.Description,
		&issue.Category,
		&issue.Location,
		&issue.ImageURL,
		&issue.ReporterID,
		&issue.ReporterName,
		&issue.ReporterEmail,
		&issue.Status,
		&issue.Priority,
		&issue.Boosted,
		&issue.Upvotes,
		&issue.Assigned.ID,
		&issue.Assigned.Name,
		&issue.Assigned.Email,
		&issue.Assigned.PhotoURL,
		&issue.CreatedAt,
		&issue.UpdatedAt,
	}
}

func scanIssues(rows pgx.Rows) ([]domain.Issue, error) {
	var result []domain.Issue
	for rows.Next() {
		var issue domain.Issue
		if err := rows.Scan(scanTargets(&issue)...); err != nil {
			return nil, err
		}
		result = append(result, issue)
	}
	return result, rows.Err()
}
