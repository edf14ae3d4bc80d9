package domain

import "time"

// SubjectType distinguishes the three authenticated roles.
type SubjectType string

const (
	SubjectTypeCustomer SubjectType = "CUSTOMER"
	SubjectTypeEmployee SubjectType = "EMPLOYEE"
	SubjectTypeAdmin    SubjectType = "ADMIN"
)

// Customer submits repair requests.
type Customer struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Employee performs field repair work. Busy-ness is derived from active
// assignment ledger entries, not stored here.
type Employee struct {
	ID           string
	Name         string
	Email        string
	Phone        string
	PasswordHash string
	Specialty    string
	Active       bool
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

// Admin coordinates assignments and receives operational notifications.
type Admin struct {
	ID           string
	Name         string
	Email        string
	PasswordHash string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}
