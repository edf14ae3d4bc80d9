package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixflow/repair-service/internal/domain"
)

// RequestFilter captures listing parameters.
type RequestFilter struct {
	CustomerID *string
	AssignedTo *string
	Statuses   []domain.RequestStatus
	Limit      int
	Offset     int
}

// RequestRepository encapsulates repair request persistence.
type RequestRepository interface {
	Create(ctx context.Context, request *domain.Request) error
	Update(ctx context.Context, request *domain.Request) error
	GetByID(ctx context.Context, id string) (*domain.Request, error)
	ListWithFilter(ctx context.Context, filter RequestFilter) ([]domain.Request, error)
}

type requestRepository struct {
	pool *pgxpool.Pool
}

// NewRequestRepository instantiates repository.
func NewRequestRepository(pool *pgxpool.Pool) RequestRepository {
	return &requestRepository{pool: pool}
}

func (r *requestRepository) Create(ctx context.Context, request *domain.Request) error {
	const query = `
        INSERT INTO requests (external_key, customer_id, customer_name, customer_phone, customer_email,
            category, brand, model, description, status, assigned_to)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		request.ExternalKey,
		request.CustomerID,
		request.CustomerName,
		request.CustomerPhone,
		request.CustomerEmail,
		request.Category,
		request.Brand,
		request.Model,
		request.Description,
		request.Status,
		request.AssignedTo,
	).Scan(&request.ID, &request.CreatedAt, &request.UpdatedAt)
}

func (r *requestRepository) Update(ctx context.Context, request *domain.Request) error {
	const query = `
        UPDATE requests SET category=$1, brand=$2, model=$3, description=$4,
            status=$5, assigned_to=$6, updated_at=NOW()
        WHERE id=$7`
	cmd, err := r.pool.Exec(ctx, query,
		request.Category,
		request.Brand,
		request.Model,
		request.Description,
		request.Status,
		request.AssignedTo,
		request.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *requestRepository) GetByID(ctx context.Context, id string) (*domain.Request, error) {
	const query = `
        SELECT id, external_key, customer_id, customer_name, customer_phone, customer_email,
               category, brand, model, description, status, assigned_to, created_at, updated_at
        FROM requests WHERE id=$1`
	var request domain.Request
	if err := r.pool.QueryRow(ctx, query, id).Scan(
		&request.ID,
		&request.ExternalKey,
		&request.CustomerID,
		&request.CustomerName,
		&request.CustomerPhone,
		&request.CustomerEmail,
		&request.Category,
		&request.Brand,
		&request.Model,
		&request.Description,
		&request.Status,
		&request.AssignedTo,
		&request.CreatedAt,
		&request.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *requestRepository) ListWithFilter(ctx context.Context, filter RequestFilter) ([]domain.Request, error) {
	base := `SELECT id, external_key, customer_id, customer_name, customer_phone, customer_email,
                    category, brand, model, description, status, assigned_to, created_at, updated_at
             FROM requests`
	clauses := []string{"1=1"}
	args := []any{}

	if filter.CustomerID != nil {
		args = append(args, *filter.CustomerID)
		clauses = append(clauses, fmt.Sprintf("customer_id=$%d", len(args)))
	}
	if filter.AssignedTo != nil {
		args = append(args, *filter.AssignedTo)
		clauses = append(clauses, fmt.Sprintf("assigned_to=$%d", len(args)))
	}
	if len(filter.Statuses) > 0 {
		placeholders := make([]string, len(filter.Statuses))
		for i, status := range filter.Statuses {
			args = append(args, status)
			placeholders[i] = fmt.Sprintf("$%d", len(args))
		}
		clauses = append(clauses, fmt.Sprintf("status IN (%s)", strings.Join(placeholders, ",")))
	}

	limit := filter.Limit
	if limit <= 0 {
		limit = 20
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}

	query := fmt.Sprintf(`%s WHERE %s ORDER BY created_at DESC LIMIT %d OFFSET %d`,
		base, strings.Join(clauses, " AND "), limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Request
	for rows.Next() {
		var request domain.Request
		if err := rows.Scan(
			&request.ID,
			&request.ExternalKey,
			&request.CustomerID,
			&request.CustomerName,
			&request.CustomerPhone,
			&request.CustomerEmail,
			&request.Category,
			&request.Brand,
			&request.Model,
			&request.Description,
			&request.Status,
			&request.AssignedTo,
			&request.CreatedAt,
			&request.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, request)
	}
	return result, rows.Err()
}
