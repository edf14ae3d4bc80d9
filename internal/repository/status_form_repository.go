package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixflow/repair-service/internal/domain"
)

// StatusFormRepository stores the append-only audit trail for on-hold and
// cancellation transitions.
type StatusFormRepository interface {
	Create(ctx context.Context, form *domain.StatusForm) error
	ListByRequest(ctx context.Context, requestID string) ([]domain.StatusForm, error)
}

type statusFormRepository struct {
	pool *pgxpool.Pool
}

// NewStatusFormRepository builds repository.
func NewStatusFormRepository(pool *pgxpool.Pool) StatusFormRepository {
	return &statusFormRepository{pool: pool}
}

func (r *statusFormRepository) Create(ctx context.Context, form *domain.StatusForm) error {
	const query = `
        INSERT INTO status_forms (request_id, author_type, author_id, form_type, title, details)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at`
	return r.pool.QueryRow(ctx, query,
		form.RequestID,
		form.AuthorType,
		form.AuthorID,
		form.FormType,
		form.Title,
		form.Details,
	).Scan(&form.ID, &form.CreatedAt)
}

func (r *statusFormRepository) ListByRequest(ctx context.Context, requestID string) ([]domain.StatusForm, error) {
	const query = `
        SELECT id, request_id, author_type, author_id, form_type, title, details, created_at
        FROM status_forms WHERE request_id=$1 ORDER BY created_at ASC`
	rows, err := r.pool.Query(ctx, query, requestID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.StatusForm
	for rows.Next() {
		var form domain.StatusForm
		if err := rows.Scan(
			&form.ID,
			&form.RequestID,
			&form.AuthorType,
			&form.AuthorID,
			&form.FormType,
			&form.Title,
			&form.Details,
			&form.CreatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, form)
	}
	return result, rows.Err()
}
