package service

import (
	"context"
	"strings"
	"time"

	"github.com/fixflow/repair-service/internal/auth"
	"github.com/fixflow/repair-service/internal/config"
	"github.com/fixflow/repair-service/internal/domain"
	"github.com/fixflow/repair-service/internal/repository"
	apperrors "github.com/fixflow/repair-service/pkg/util/errorutil"
)

// AuthService issues signed tokens for the three roles. Password reset and
// OTP flows live outside this service.
type AuthService struct {
	customers repository.CustomerRepository
	employees repository.EmployeeRepository
	admins    repository.AdminRepository
	tokens    *auth.TokenManager
	cfg       config.AuthConfig
}

// AuthDependencies bundles repositories.
type AuthDependencies struct {
	CustomerRepo repository.CustomerRepository
	EmployeeRepo repository.EmployeeRepository
	AdminRepo    repository.AdminRepository
}

// NewAuthService creates the service.
func NewAuthService(cfg config.AuthConfig, deps AuthDependencies) *AuthService {
	return &AuthService{
		customers: deps.CustomerRepo,
		employees: deps.EmployeeRepo,
		admins:    deps.AdminRepo,
		tokens:    auth.NewTokenManager(cfg.JWTSecret, cfg.AccessTokenTTLMinutes),
		cfg:       cfg,
	}
}

// TokenManager exposes the token manager for middleware wiring.
func (s *AuthService) TokenManager() *auth.TokenManager {
	return s.tokens
}

// LoginResult carries the signed token.
type LoginResult struct {
	Token     string
	ExpiresAt time.Time
	Subject   domain.SubjectType
	SubjectID string
}

// Login verifies credentials for the given role and issues a token whose
// claims carry identity; identity is never derived from token text.
func (s *AuthService) Login(ctx context.Context, subject domain.SubjectType, email, password string) (*LoginResult, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, apperrors.NewValidationError("email and password required", nil)
	}

	var (
		subjectID    string
		passwordHash string
	)
	switch subject {
	case domain.SubjectTypeCustomer:
		customer, err := s.customers.GetByEmail(ctx, email)
		if err != nil {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		subjectID, passwordHash = customer.ID, customer.PasswordHash
	case domain.SubjectTypeEmployee:
		employee, err := s.employees.GetByEmail(ctx, email)
		if err != nil {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		if !employee.Active {
			return nil, apperrors.NewForbidden("employee deactivated")
		}
		subjectID, passwordHash = employee.ID, employee.PasswordHash
	case domain.SubjectTypeAdmin:
		admin, err := s.admins.GetByEmail(ctx, email)
		if err != nil {
			return nil, apperrors.NewUnauthorized("invalid credentials")
		}
		subjectID, passwordHash = admin.ID, admin.PasswordHash
	default:
		return nil, apperrors.NewValidationError("unknown subject type", map[string]any{"subject": subject})
	}

	if err := auth.ComparePassword(passwordHash, password); err != nil {
		return nil, apperrors.NewUnauthorized("invalid credentials")
	}

	token, expiresAt, err := s.tokens.GenerateToken(subjectID, subject)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	return &LoginResult{Token: token, ExpiresAt: expiresAt, Subject: subject, SubjectID: subjectID}, nil
}

// RegisterCustomer creates a customer account.
func (s *AuthService) RegisterCustomer(ctx context.Context, name, email, phone, password string) (*domain.Customer, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	if name == "" || email == "" || len(password) < 8 {
		return nil, apperrors.NewValidationError("name, email and a password of at least 8 characters required", nil)
	}
	if _, err := s.customers.GetByEmail(ctx, email); err == nil {
		return nil, apperrors.NewConflict("email already registered", map[string]any{"email": email})
	}

	hash, err := auth.HashPassword(password, s.cfg.BcryptCost)
	if err != nil {
		return nil, apperrors.NewInternalError(err)
	}
	customer := &domain.Customer{
		Name:         name,
		Email:        email,
		Phone:        strings.TrimSpace(phone),
		PasswordHash: hash,
	}
	if err := s.customers.Create(ctx, customer); err != nil {
		return nil, apperrors.MapError(err)
	}
	return customer, nil
}
