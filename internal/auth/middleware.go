package auth

import (
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/fixflow/repair-service/internal/domain"
	"github.com/fixflow/repair-service/internal/repository"
	apperrors "github.com/fixflow/repair-service/pkg/util/errorutil"
)

const principalKey = "auth_principal"

// Principal represents the authenticated caller.
type Principal struct {
	SubjectType domain.SubjectType
	Customer    *domain.Customer
	Employee    *domain.Employee
	Admin       *domain.Admin
}

// AuthMiddleware validates bearer tokens and loads principals.
type AuthMiddleware struct {
	tokens    *TokenManager
	customers repository.CustomerRepository
	employees repository.EmployeeRepository
	admins    repository.AdminRepository
}

// NewAuthMiddleware constructs middleware.
func NewAuthMiddleware(tokens *TokenManager, customers repository.CustomerRepository, employees repository.EmployeeRepository, admins repository.AdminRepository) *AuthMiddleware {
	return &AuthMiddleware{tokens: tokens, customers: customers, employees: employees, admins: admins}
}

// Handle enforces authentication for protected routes.
func (m *AuthMiddleware) Handle(c *fiber.Ctx) error {
	authHeader := c.Get("Authorization")
	if authHeader == "" {
		return apperrors.NewUnauthorized("missing authorization header")
	}

	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return apperrors.NewUnauthorized("invalid authorization header")
	}

	claims, err := m.tokens.ParseToken(parts[1])
	if err != nil {
		return apperrors.NewUnauthorized("invalid token")
	}

	principal := &Principal{SubjectType: claims.Subject}

	switch claims.Subject {
	case domain.SubjectTypeCustomer:
		customer, err := m.customers.GetByID(c.Context(), claims.SubjectID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return apperrors.NewUnauthorized("customer not found")
			}
			return apperrors.MapError(err)
		}
		principal.Customer = customer
	case domain.SubjectTypeEmployee:
		employee, err := m.employees.GetByID(c.Context(), claims.SubjectID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return apperrors.NewUnauthorized("employee not found")
			}
			return apperrors.MapError(err)
		}
		if !employee.Active {
			return apperrors.NewForbidden("employee deactivated")
		}
		principal.Employee = employee
	case domain.SubjectTypeAdmin:
		admin, err := m.admins.GetByID(c.Context(), claims.SubjectID)
		if err != nil {
			if apperrors.IsNotFound(err) {
				return apperrors.NewUnauthorized("admin not found")
			}
			return apperrors.MapError(err)
		}
		principal.Admin = admin
	default:
		return apperrors.NewUnauthorized("unknown subject")
	}

	c.Locals(principalKey, principal)
	return c.Next()
}

// PrincipalFromContext retrieves the authenticated entity.
func PrincipalFromContext(c *fiber.Ctx) (*Principal, bool) {
	val := c.Locals(principalKey)
	if val == nil {
		return nil, false
	}
	principal, ok := val.(*Principal)
	return principal, ok
}
