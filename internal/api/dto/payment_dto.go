package dto

import "time"

// RecordCompletionRequest payload for the financial close.
type RecordCompletionRequest struct {
	WorkTitle     string  `json:"work_title"`
	WorkDetails   string  `json:"work_details,omitempty"`
	PaymentMethod string  `json:"payment_method"`
	TotalAmount   float64 `json:"total_amount"`
}

// CompletionPaymentResponse is the stored payment record.
type CompletionPaymentResponse struct {
	ID             string    `json:"id"`
	RequestID      string    `json:"request_id"`
	EmployeeID     string    `json:"employee_id"`
	TotalAmount    float64   `json:"total_amount"`
	EmployeeIncome float64   `json:"employee_income"`
	CompanyRevenue float64   `json:"company_revenue"`
	PaymentMethod  string    `json:"payment_method"`
	WorkTitle      string    `json:"work_title"`
	WorkDetails    string    `json:"work_details,omitempty"`
	CompletedAt    time.Time `json:"completed_at"`
}
