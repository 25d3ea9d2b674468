package apperror

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestAppError(t *testing.T) {
	t.Run("StatusCodes", func(t *testing.T) {
		cases := map[ErrorType]int{
			StorageError:    http.StatusInternalServerError,
			AuthError:       http.StatusUnauthorized,
			NotFoundError:   http.StatusNotFound,
			ValidationError: http.StatusBadRequest,
			BadRequestError: http.StatusBadRequest,
			UpstreamError:   http.StatusBadGateway,
			MigrationError:  http.StatusInternalServerError,
			UnknownError:    http.StatusInternalServerError,
		}
		for errType, status := range cases {
			require.Equal(t, status, NewAppError(errType, "x", nil).StatusCode(), errType.String())
		}
	})

	t.Run("WrapsUnderlyingError", func(t *testing.T) {
		cause := errors.New("connection refused")
		err := fmt.Errorf("loading products: %w", NewStorageError("failed to read products", cause))

		require.True(t, IsStorageError(err))
		require.False(t, IsUpstreamError(err))
		require.ErrorIs(t, err, cause)
		require.Contains(t, err.Error(), "connection refused")

		appErr, ok := FromError(err)
		require.True(t, ok)
		require.Equal(t, "failed to read products", appErr.ToResponse().Error)
	})

	t.Run("FromErrorRejectsPlainErrors", func(t *testing.T) {
		_, ok := FromError(errors.New("plain"))
		require.False(t, ok)
		_, ok = FromError(nil)
		require.False(t, ok)
	})
}

func TestWriteError(t *testing.T) {
	t.Run("ValidationFields", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, NewValidationError("validation failed", map[string]string{"email": "email is invalid"}))

		require.Equal(t, http.StatusBadRequest, rec.Code)
		require.Equal(t, "application/json", rec.Header().Get("Content-Type"))

		var body ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "validation failed", body.Error)
		require.Equal(t, "email is invalid", body.Errors["email"])
	})

	t.Run("PlainErrorIsHidden", func(t *testing.T) {
		rec := httptest.NewRecorder()
		WriteError(rec, errors.New("pq: password authentication failed"))

		require.Equal(t, http.StatusInternalServerError, rec.Code)
		require.NotContains(t, rec.Body.String(), "password authentication")
	})
}
