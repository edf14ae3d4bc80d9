package repository

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fixflow/repair-service/internal/domain"
)

// CompletionPaymentRepository stores the financial closing record.
type CompletionPaymentRepository interface {
	Create(ctx context.Context, payment *domain.CompletionPayment) error
	GetByRequest(ctx context.Context, requestID string) (*domain.CompletionPayment, error)
}

type completionPaymentRepository struct {
	pool *pgxpool.Pool
}

// NewCompletionPaymentRepository instantiates the repository.
func NewCompletionPaymentRepository(pool *pgxpool.Pool) CompletionPaymentRepository {
	return &completionPaymentRepository{pool: pool}
}

func (r *completionPaymentRepository) Create(ctx context.Context, payment *domain.CompletionPayment) error {
	const query = `
        INSERT INTO completion_payments (request_id, employee_id, total_amount, employee_income,
            company_revenue, payment_method, work_title, work_details, customer_name, customer_phone)
        VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
        RETURNING id, completed_at`
	return r.pool.QueryRow(ctx, query,
		payment.RequestID,
		payment.EmployeeID,
		payment.TotalAmount,
		payment.EmployeeIncome,
		payment.CompanyRevenue,
		payment.PaymentMethod,
		payment.WorkTitle,
		payment.WorkDetails,
		payment.CustomerName,
		payment.CustomerPhone,
	).Scan(&payment.ID, &payment.CompletedAt)
}

func (r *completionPaymentRepository) GetByRequest(ctx context.Context, requestID string) (*domain.CompletionPayment, error) {
	const query = `
        SELECT id, request_id, employee_id, total_amount, employee_income, company_revenue,
               payment_method, work_title, work_details, customer_name, customer_phone, completed_at
        FROM completion_payments WHERE request_id=$1`
	var payment domain.CompletionPayment
	if err := r.pool.QueryRow(ctx, query, requestID).Scan(
		&payment.ID,
		&payment.RequestID,
		&payment.EmployeeID,
		&payment.TotalAmount,
		&payment.EmployeeIncome,
		&payment.CompanyRevenue,
		&payment.PaymentMethod,
		&payment.WorkTitle,
		&payment.WorkDetails,
		&payment.CustomerName,
		&payment.CustomerPhone,
		&payment.CompletedAt,
	); err != nil {
		return nil, err
	}
	return &payment, nil
}
