package domain

import "time"

// CompletionPayment is the financial record closing a request. It is created
// exactly once per request and never mutated afterwards.
type CompletionPayment struct {
	ID             string
	RequestID      string
	EmployeeID     string
	TotalAmount    float64
	EmployeeIncome float64
	CompanyRevenue float64
	PaymentMethod  string
	WorkTitle      string
	WorkDetails    string
	CustomerName   string
	CustomerPhone  string
	CompletedAt    time.Time
}
