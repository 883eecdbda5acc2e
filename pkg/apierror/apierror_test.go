package apierror

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAPIErrorMatchesByCode(t *testing.T) {
	t.Parallel()

	err := fmt.Errorf("load chatroom: %w", NotFound("chatroom not found", "42"))

	require.ErrorIs(t, err, ErrNotFound)
	require.False(t, errors.Is(err, ErrUnauthenticated))

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	require.Equal(t, http.StatusNotFound, apiErr.HTTPStatus)
	require.Equal(t, "NOT_FOUND: chatroom not found (42)", apiErr.Error())
}

func TestKindConstructors(t *testing.T) {
	t.Parallel()

	require.Equal(t, http.StatusUnauthorized, Unauthenticated("x").HTTPStatus)
	require.Equal(t, http.StatusBadRequest, InvalidInput("x", "").HTTPStatus)
	require.Equal(t, http.StatusConflict, Conflict("x", "").HTTPStatus)
	require.Equal(t, "UNAUTHENTICATED: x", Unauthenticated("x").Error())
}
