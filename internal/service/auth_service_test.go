package service

import (
	"context"
	"strconv"
	"sync"
	"testing"

	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"

	"github.com/fixflow/repair-service/internal/auth"
	"github.com/fixflow/repair-service/internal/config"
	"github.com/fixflow/repair-service/internal/domain"
)

type fakeCustomerRepo struct {
	mu    sync.Mutex
	seq   int
	items []domain.Customer
}

func (f *fakeCustomerRepo) Create(_ context.Context, customer *domain.Customer) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	customer.ID = "cus-" + strconv.Itoa(f.seq)
	f.items = append(f.items, *customer)
	return nil
}

func (f *fakeCustomerRepo) GetByID(_ context.Context, id string) (*domain.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].ID == id {
			out := f.items[i]
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func (f *fakeCustomerRepo) GetByEmail(_ context.Context, email string) (*domain.Customer, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.items {
		if f.items[i].Email == email {
			out := f.items[i]
			return &out, nil
		}
	}
	return nil, pgx.ErrNoRows
}

func testAuthConfig() config.AuthConfig {
	return config.AuthConfig{JWTSecret: "test-secret", AccessTokenTTLMinutes: 30, BcryptCost: 4}
}

func newAuthEnv(t *testing.T) (*AuthService, *fakeCustomerRepo, *fakeEmployeeRepo) {
	t.Helper()
	customers := &fakeCustomerRepo{}
	hash, err := auth.HashPassword("correct-horse", 4)
	require.NoError(t, err)
	employees := newFakeEmployeeRepo(
		domain.Employee{ID: "emp-1", Name: "Dana", Email: "dana@example.com", PasswordHash: hash, Active: true},
		domain.Employee{ID: "emp-2", Name: "Rami", Email: "rami@example.com", PasswordHash: hash, Active: false},
	)
	svc := NewAuthService(testAuthConfig(), AuthDependencies{
		CustomerRepo: customers,
		EmployeeRepo: employees,
		AdminRepo:    newFakeAdminRepo(testAdmins()...),
	})
	return svc, customers, employees
}

func TestLoginIssuesTokenWithIdentityClaims(t *testing.T) {
	svc, _, _ := newAuthEnv(t)

	result, err := svc.Login(context.Background(), domain.SubjectTypeEmployee, "dana@example.com", "correct-horse")
	require.NoError(t, err)
	require.Equal(t, "emp-1", result.SubjectID)
	require.Equal(t, domain.SubjectTypeEmployee, result.Subject)

	claims, err := svc.TokenManager().ParseToken(result.Token)
	require.NoError(t, err)
	require.Equal(t, "emp-1", claims.SubjectID)
	require.Equal(t, domain.SubjectTypeEmployee, claims.Subject)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc, _, _ := newAuthEnv(t)

	_, err := svc.Login(context.Background(), domain.SubjectTypeEmployee, "dana@example.com", "wrong")
	require.Equal(t, "UNAUTHORIZED", domainCode(t, err))

	_, err = svc.Login(context.Background(), domain.SubjectTypeEmployee, "nobody@example.com", "correct-horse")
	require.Equal(t, "UNAUTHORIZED", domainCode(t, err))
}

func TestLoginRejectsDeactivatedEmployee(t *testing.T) {
	svc, _, _ := newAuthEnv(t)

	_, err := svc.Login(context.Background(), domain.SubjectTypeEmployee, "rami@example.com", "correct-horse")
	require.Equal(t, "FORBIDDEN", domainCode(t, err))
}

func TestRegisterCustomer(t *testing.T) {
	svc, customers, _ := newAuthEnv(t)

	customer, err := svc.RegisterCustomer(context.Background(), "Lea", "Lea@Example.com", "555-0101", "long-enough-pw")
	require.NoError(t, err)
	require.Equal(t, "lea@example.com", customer.Email)
	require.NotEqual(t, "long-enough-pw", customer.PasswordHash)

	stored, err := customers.GetByEmail(context.Background(), "lea@example.com")
	require.NoError(t, err)
	require.NoError(t, auth.ComparePassword(stored.PasswordHash, "long-enough-pw"))

	_, err = svc.RegisterCustomer(context.Background(), "Lea", "lea@example.com", "", "long-enough-pw")
	require.Equal(t, "CONFLICT", domainCode(t, err))

	_, err = svc.RegisterCustomer(context.Background(), "Lea", "lea2@example.com", "", "short")
	require.Equal(t, "VALIDATION_FAILED", domainCode(t, err))
}
