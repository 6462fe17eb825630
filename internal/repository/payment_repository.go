package repository

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/civita-labs/civic-report/internal/domain"
)

// PaymentRepository persists settled payments. The processor transaction id is
// the idempotency key: CreateIfAbsent is the only write path, so duplicate or
// concurrent settlement calls for the same transaction produce exactly one row.
type PaymentRepository interface {
	// CreateIfAbsent inserts the payment unless a row with the same
	// transaction id exists. It reports whether a row was freshly inserted;
	// that signal is what gates settlement side effects.
	CreateIfAbsent(ctx context.Context, payment *domain.Payment) (bool, error)
	GetByID(ctx context.Context, id string) (*domain.Payment, error)
	GetByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error)
	ListByCustomer(ctx context.Context, email string, limit, offset int) ([]domain.Payment, error)
	List(ctx context.Context, limit, offset int) ([]domain.Payment, error)
}

type paymentRepository struct {
	pool *pgxpool.Pool
}

// NewPaymentRepository instantiates repository.
func NewPaymentRepository(pool *pgxpool.Pool) PaymentRepository {
	return &paymentRepository{pool: pool}
}

const paymentColumns = `id, transaction_id, amount, currency, customer_email, customer_name,
               payment_type, payment_status, issue_id, issue_title, paid_at`

func (r *paymentRepository) CreateIfAbsent(ctx context.Context, payment *domain.Payment) (bool, error) {
	const query = `
        INSERT INTO payments (transaction_id, amount, currency, customer_email, customer_name,
            payment_type, payment_status, issue_id, issue_title, paid_at)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        ON CONFLICT (transaction_id) DO NOTHING
        RETURNING id`
	err := r.pool.QueryRow(ctx, query,
		payment.TransactionID,
		payment.Amount,
		payment.Currency,
		payment.CustomerEmail,
		payment.CustomerName,
		payment.PaymentType,
		payment.PaymentStatus,
		payment.IssueID,
		payment.IssueTitle,
		payment.PaidAt,
	).Scan(&payment.ID)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (r *paymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	return r.fetchSingle(ctx, `SELECT `+paymentColumns+` FROM payments WHERE id=$1`, id)
}

func (r *paymentRepository) GetByTransactionID(ctx context.Context, transactionID string) (*domain.Payment, error) {
	return r.fetchSingle(ctx, `SELECT `+paymentColumns+` FROM payments WHERE transaction_id=$1`, transactionID)
}

func (r *paymentRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Payment, error) {
	var payment domain.Payment
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&payment.ID,
		&payment.TransactionID,
		&payment.Amount,
		&payment.Currency,
		&payment.CustomerEmail,
		&payment.CustomerName,
		&payment.PaymentType,
		&payment.PaymentStatus,
		&payment.IssueID,
		&payment.IssueTitle,
		&payment.PaidAt,
	); err != nil {
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) ListByCustomer(ctx context.Context, email string, limit, offset int) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments WHERE customer_email=$1 ORDER BY paid_at DESC LIMIT $2 OFFSET $3`
	return r.list(ctx, query, email, normalizeLimit(limit), normalizeOffset(offset))
}

func (r *paymentRepository) List(ctx context.Context, limit, offset int) ([]domain.Payment, error) {
	query := `SELECT ` + paymentColumns + ` FROM payments ORDER BY paid_at DESC LIMIT $1 OFFSET $2`
	return r.list(ctx, query, normalizeLimit(limit), normalizeOffset(offset))
}

func (r *paymentRepository) list(ctx context.Context, query string, args ...any) ([]domain.Payment, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Payment
	for rows.Next() {
		var payment domain.Payment
		if err := rows.Scan(
			&payment.ID,
			&payment.TransactionID,
			&payment.Amount,
			&payment.Currency,
			&payment.CustomerEmail,
			&payment.CustomerName,
			&payment.PaymentType,
			&payment.PaymentStatus,
			&payment.IssueID,
			&payment.IssueTitle,
			&payment.PaidAt,
		); err != nil {
			return nil, err
		}
		result = append(result, payment)
	}
	return result, rows.Err()
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return 20
	}
	return limit
}

func normalizeOffset(offset int) int {
	if offset < 0 {
		return 0
	}
	return offset
}
