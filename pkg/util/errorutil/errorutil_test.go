package errorutil

import (
	"errors"
	"net/http"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/jackc/pgx/v5"
	"github.com/stretchr/testify/require"
)

func TestToDomainErrorPassesThroughDomainError(t *testing.T) {
	original := NewForbidden("employees only")

	mapped := ToDomainError(original)

	require.Equal(t, "FORBIDDEN", mapped.Code)
	require.Equal(t, http.StatusForbidden, mapped.HTTPStatus)
	require.Equal(t, "employees only", mapped.Message)
}

func TestToDomainErrorMapsFiberError(t *testing.T) {
	mapped := ToDomainError(fiber.NewError(http.StatusForbidden, "employee role required"))

	require.Equal(t, "FORBIDDEN", mapped.Code)
	require.Equal(t, http.StatusForbidden, mapped.HTTPStatus)
	require.Equal(t, "employee role required", mapped.Message)

	mapped = ToDomainError(fiber.NewError(http.StatusUnauthorized, "authentication required"))
	require.Equal(t, "UNAUTHORIZED", mapped.Code)
	require.Equal(t, http.StatusUnauthorized, mapped.HTTPStatus)

	mapped = ToDomainError(fiber.ErrMethodNotAllowed)
	require.Equal(t, "REQUEST_FAILED", mapped.Code)
	require.Equal(t, http.StatusMethodNotAllowed, mapped.HTTPStatus)

	mapped = ToDomainError(fiber.ErrBadGateway)
	require.Equal(t, "INTERNAL_ERROR", mapped.Code)
	require.Equal(t, http.StatusBadGateway, mapped.HTTPStatus)
}

func TestToDomainErrorMapsMissingRow(t *testing.T) {
	mapped := ToDomainError(pgx.ErrNoRows)

	require.Equal(t, "NOT_FOUND", mapped.Code)
	require.Equal(t, http.StatusNotFound, mapped.HTTPStatus)
}

func TestToDomainErrorWrapsUnknownError(t *testing.T) {
	cause := errors.New("boom")

	mapped := ToDomainError(cause)

	require.Equal(t, "INTERNAL_ERROR", mapped.Code)
	require.Equal(t, http.StatusInternalServerError, mapped.HTTPStatus)
	require.ErrorIs(t, mapped, cause)
}

func TestIsNotFound(t *testing.T) {
	require.True(t, IsNotFound(NewNotFound("request", nil)))
	require.True(t, IsNotFound(pgx.ErrNoRows))
	require.False(t, IsNotFound(errors.New("boom")))
	require.False(t, IsNotFound(NewForbidden("nope")))
}
