package repository

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixflow/repair-service/internal/domain"
)

// AssignmentRepository persists the assignment ledger.
type AssignmentRepository interface {
	Create(ctx context.Context, assignment *domain.Assignment) error
	Update(ctx context.Context, assignment *domain.Assignment) error
	GetByID(ctx context.Context, id string) (*domain.Assignment, error)
	// GetActiveByRequest returns the single non-cancelled, non-completed
	// entry for a request, or pgx.ErrNoRows.
	GetActiveByRequest(ctx context.Context, requestID string) (*domain.Assignment, error)
	GetActiveByRequestEmployee(ctx context.Context, requestID, employeeID string) (*domain.Assignment, error)
	// DeleteActiveByRequest removes active entries for a request, returning
	// the number removed. Cancelled/completed audit rows are untouched.
	DeleteActiveByRequest(ctx context.Context, requestID string) (int64, error)
	DeleteByID(ctx context.Context, id string) error
	ListExpired(ctx context.Context, asOf time.Time) ([]domain.Assignment, error)
	CountActiveByEmployee(ctx context.Context, employeeID string) (int64, error)
}

type assignmentRepository struct {
	pool *pgxpool.Pool
}

// NewAssignmentRepository instantiates the repository.
func NewAssignmentRepository(pool *pgxpool.Pool) AssignmentRepository {
	return &assignmentRepository{pool: pool}
}

const assignmentColumns = `id, request_id, employee_id, status, assigned_at, expires_at, started_at, completed_at`

func (r *assignmentRepository) Create(ctx context.Context, assignment *domain.Assignment) error {
	const query = `
        INSERT INTO assignments (request_id, employee_id, status, expires_at, started_at, completed_at)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, assigned_at`
	return r.pool.QueryRow(ctx, query,
		assignment.RequestID,
		assignment.EmployeeID,
		assignment.Status,
		assignment.ExpiresAt,
		assignment.StartedAt,
		assignment.CompletedAt,
	).Scan(&assignment.ID, &assignment.AssignedAt)
}

func (r *assignmentRepository) Update(ctx context.Context, assignment *domain.Assignment) error {
	const query = `
        UPDATE assignments SET status=$1, expires_at=$2, started_at=$3, completed_at=$4
        WHERE id=$5`
	cmd, err := r.pool.Exec(ctx, query,
		assignment.Status,
		assignment.ExpiresAt,
		assignment.StartedAt,
		assignment.CompletedAt,
		assignment.ID,
	)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *assignmentRepository) GetByID(ctx context.Context, id string) (*domain.Assignment, error) {
	const query = `SELECT ` + assignmentColumns + ` FROM assignments WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *assignmentRepository) GetActiveByRequest(ctx context.Context, requestID string) (*domain.Assignment, error) {
	const query = `
        SELECT ` + assignmentColumns + `
        FROM assignments
        WHERE request_id=$1 AND status NOT IN ('cancelled','completed')
        ORDER BY assigned_at DESC LIMIT 1`
	return r.fetchSingle(ctx, query, requestID)
}

func (r *assignmentRepository) GetActiveByRequestEmployee(ctx context.Context, requestID, employeeID string) (*domain.Assignment, error) {
	const query = `
        SELECT ` + assignmentColumns + `
        FROM assignments
        WHERE request_id=$1 AND employee_id=$2 AND status NOT IN ('cancelled','completed')
        ORDER BY assigned_at DESC LIMIT 1`
	var assignment domain.Assignment
	if err := r.pool.QueryRow(ctx, query, requestID, employeeID).Scan(
		&assignment.ID,
		&assignment.RequestID,
		&assignment.EmployeeID,
		&assignment.Status,
		&assignment.AssignedAt,
		&assignment.ExpiresAt,
		&assignment.StartedAt,
		&assignment.CompletedAt,
	); err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Assignment, error) {
	var assignment domain.Assignment
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&assignment.ID,
		&assignment.RequestID,
		&assignment.EmployeeID,
		&assignment.Status,
		&assignment.AssignedAt,
		&assignment.ExpiresAt,
		&assignment.StartedAt,
		&assignment.CompletedAt,
	); err != nil {
		return nil, err
	}
	return &assignment, nil
}

func (r *assignmentRepository) DeleteActiveByRequest(ctx context.Context, requestID string) (int64, error) {
	const query = `DELETE FROM assignments WHERE request_id=$1 AND status NOT IN ('cancelled','completed')`
	cmd, err := r.pool.Exec(ctx, query, requestID)
	if err != nil {
		return 0, err
	}
	return cmd.RowsAffected(), nil
}

func (r *assignmentRepository) DeleteByID(ctx context.Context, id string) error {
	const query = `DELETE FROM assignments WHERE id=$1`
	cmd, err := r.pool.Exec(ctx, query, id)
	if err != nil {
		return err
	}
	if cmd.RowsAffected() == 0 {
		return pgx.ErrNoRows
	}
	return nil
}

func (r *assignmentRepository) ListExpired(ctx context.Context, asOf time.Time) ([]domain.Assignment, error) {
	const query = `
        SELECT ` + assignmentColumns + `
        FROM assignments
        WHERE status='pending-confirmation' AND expires_at IS NOT NULL AND expires_at < $1
        ORDER BY expires_at ASC`
	rows, err := r.pool.Query(ctx, query, asOf)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Assignment
	for rows.Next() {
		var assignment domain.Assignment
		if err := rows.Scan(
			&assignment.ID,
			&assignment.RequestID,
			&assignment.EmployeeID,
			&assignment.Status,
			&assignment.AssignedAt,
			&assignment.ExpiresAt,
			&assignment.StartedAt,
			&assignment.CompletedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, assignment)
	}
	return result, rows.Err()
}

func (r *assignmentRepository) CountActiveByEmployee(ctx context.Context, employeeID string) (int64, error) {
	const query = `
        SELECT COUNT(*) FROM assignments
        WHERE employee_id=$1 AND status NOT IN ('cancelled','completed')`
	var count int64
	if err := r.pool.QueryRow(ctx, query, employeeID).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
