package domain

import "time"

// StatusFormType captures why a non-completion status change happened.
type StatusFormType string

const (
	StatusFormCancelled      StatusFormType = "cancelled"
	StatusFormOnHold         StatusFormType = "on_hold"
	StatusFormAdminCancelled StatusFormType = "admin_cancelled"
)

// StatusForm is an append-only note accompanying an on-hold or cancellation
// transition.
type StatusForm struct {
	ID         string
	RequestID  string
	AuthorType SubjectType
	AuthorID   string
	FormType   StatusFormType
	Title      string
	Details    string
	CreatedAt  time.Time
}
