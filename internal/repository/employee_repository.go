package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixflow/repair-service/internal/domain"
)

// EmployeeFilter defines query params for employee listing.
type EmployeeFilter struct {
	Active    *bool
	Specialty *string
	Limit     int
	Offset    int
}

// EmployeeRepository handles persistence for field employees.
type EmployeeRepository interface {
	Create(ctx context.Context, employee *domain.Employee) error
	GetByID(ctx context.Context, id string) (*domain.Employee, error)
	GetByEmail(ctx context.Context, email string) (*domain.Employee, error)
	List(ctx context.Context, filter EmployeeFilter) ([]domain.Employee, error)
}

type employeeRepository struct {
	pool *pgxpool.Pool
}

// NewEmployeeRepository instantiates the repository.
func NewEmployeeRepository(pool *pgxpool.Pool) EmployeeRepository {
	return &employeeRepository{pool: pool}
}

const employeeColumns = `id, name, email, phone, password_hash, specialty, active_flag, created_at, updated_at`

func (r *employeeRepository) Create(ctx context.Context, employee *domain.Employee) error {
	const query = `
        INSERT INTO employees (name, email, phone, password_hash, specialty, active_flag)
        VALUES ($1,$2,$3,$4,$5,$6)
        RETURNING id, created_at, updated_at`
	return r.pool.QueryRow(ctx, query,
		employee.Name,
		employee.Email,
		employee.Phone,
		employee.PasswordHash,
		employee.Specialty,
		employee.Active,
	).Scan(&employee.ID, &employee.CreatedAt, &employee.UpdatedAt)
}

func (r *employeeRepository) GetByID(ctx context.Context, id string) (*domain.Employee, error) {
	const query = `SELECT ` + employeeColumns + ` FROM employees WHERE id=$1`
	return r.fetchSingle(ctx, query, id)
}

func (r *employeeRepository) GetByEmail(ctx context.Context, email string) (*domain.Employee, error) {
	const query = `SELECT ` + employeeColumns + ` FROM employees WHERE email=$1`
	return r.fetchSingle(ctx, query, email)
}

func (r *employeeRepository) fetchSingle(ctx context.Context, query string, arg any) (*domain.Employee, error) {
	var employee domain.Employee
	if err := r.pool.QueryRow(ctx, query, arg).Scan(
		&employee.ID,
		&employee.Name,
		&employee.Email,
		&employee.Phone,
		&employee.PasswordHash,
		&employee.Specialty,
		&employee.Active,
		&employee.CreatedAt,
		&employee.UpdatedAt,
	); err != nil {
		return nil, err
	}
	return &employee, nil
}

func (r *employeeRepository) List(ctx context.Context, filter EmployeeFilter) ([]domain.Employee, error) {
	query := `SELECT ` + employeeColumns + ` FROM employees`
	args := []any{}
	clauses := []string{}

	if filter.Active != nil {
		args = append(args, *filter.Active)
		clauses = append(clauses, fmt.Sprintf("active_flag=$%d", len(args)))
	}
	if filter.Specialty != nil {
		args = append(args, *filter.Specialty)
		clauses = append(clauses, fmt.Sprintf("specialty=$%d", len(args)))
	}
	if len(clauses) > 0 {
		query += " WHERE " + strings.Join(clauses, " AND ")
	}

	query += " ORDER BY created_at ASC"
	limit := filter.Limit
	if limit <= 0 {
		limit = 100
	}
	offset := filter.Offset
	if offset < 0 {
		offset = 0
	}
	query += fmt.Sprintf(" LIMIT %d OFFSET %d", limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []domain.Employee
	for rows.Next() {
		var employee domain.Employee
		if err := rows.Scan(
			&employee.ID,
			&employee.Name,
			&employee.Email,
			&employee.Phone,
			&employee.PasswordHash,
			&employee.Specialty,
			&employee.Active,
			&employee.CreatedAt,
			&employee.UpdatedAt,
		); err != nil {
			return nil, err
		}
		result = append(result, employee)
	}
	return result, rows.Err()
}
