package users

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/user/cariin-go/apperror"
	"github.com/user/cariin-go/auth"
	"github.com/user/cariin-go/config"
)

type stubRepository struct {
	users map[int64]*auth.User
	err   error
}

func (r *stubRepository) Create(ctx context.Context, user *auth.User) (*auth.User, error) {
	return nil, errors.New("not used")
}

func (r *stubRepository) FindByEmail(ctx context.Context, email string) (*auth.User, error) {
	return nil, errors.New("not used")
}

func (r *stubRepository) FindByID(ctx context.Context, id int64) (*auth.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	return r.users[id], nil
}

func (r *stubRepository) UpdateProfile(ctx context.Context, id int64, name, phone *string) (*auth.User, error) {
	if r.err != nil {
		return nil, r.err
	}
	u, ok := r.users[id]
	if !ok {
		return nil, nil
	}
	if name != nil {
		u.Name = *name
	}
	if phone != nil {
		u.Phone = *phone
	}
	return u, nil
}

func newStubRepository() *stubRepository {
	return &stubRepository{users: map[int64]*auth.User{
		3: {ID: 3, Name: "Alice", Email: "alice@example.com", Phone: "081234567890", PasswordHash: "hash",
			CreatedAt: time.Date(2026, 10, 1, 0, 0, 0, 0, time.UTC)},
	}}
}

func strPtr(s string) *string { return &s }

func TestUserService(t *testing.T) {
	ctx := context.Background()

	t.Run("GetProfile", func(t *testing.T) {
		profile, err := NewUserService(newStubRepository(), nil).GetUserProfile(ctx, 3)
		require.NoError(t, err)
		require.Equal(t, "Alice", profile.Name)
		require.Equal(t, "081234567890", profile.Phone)
	})

	t.Run("GetProfileNotFound", func(t *testing.T) {
		_, err := NewUserService(newStubRepository(), nil).GetUserProfile(ctx, 99)
		require.True(t, apperror.IsNotFound(err))
	})

	t.Run("GetProfileStorageError", func(t *testing.T) {
		_, err := NewUserService(&stubRepository{err: errors.New("down")}, nil).GetUserProfile(ctx, 3)
		require.True(t, apperror.IsStorageError(err))
	})

	t.Run("UpdatePartial", func(t *testing.T) {
		profile, err := NewUserService(newStubRepository(), nil).UpdateUserProfile(ctx, 3,
			&UpdateUserProfileRequest{Phone: strPtr(" 089999999999 ")})
		require.NoError(t, err)
		require.Equal(t, "Alice", profile.Name)
		require.Equal(t, "089999999999", profile.Phone)
	})

	t.Run("UpdateNothing", func(t *testing.T) {
		_, err := NewUserService(newStubRepository(), nil).UpdateUserProfile(ctx, 3, &UpdateUserProfileRequest{})
		appErr, ok := apperror.FromError(err)
		require.True(t, ok)
		require.Equal(t, apperror.BadRequestError, appErr.Type)
	})

	t.Run("UpdateValidation", func(t *testing.T) {
		_, err := NewUserService(newStubRepository(), nil).UpdateUserProfile(ctx, 3,
			&UpdateUserProfileRequest{Name: strPtr("Al"), Phone: strPtr("   ")})
		appErr, ok := apperror.FromError(err)
		require.True(t, ok)
		require.Equal(t, apperror.ValidationError, appErr.Type)
		require.Contains(t, appErr.Fields, "phone")

		_, err = NewUserService(newStubRepository(), nil).UpdateUserProfile(ctx, 3,
			&UpdateUserProfileRequest{Name: strPtr("Al")})
		appErr, _ = apperror.FromError(err)
		require.Contains(t, appErr.Fields["name"], "minimum length")
	})
}

func TestUserHandlers(t *testing.T) {
	authSvc := auth.NewService(nil, config.AuthConfig{JWTSecret: "secret", TokenDuration: time.Hour}, nil)
	token, _, err := authSvc.IssueToken(&auth.User{ID: 3, Email: "alice@example.com"})
	require.NoError(t, err)

	h := NewUserHandlers(NewUserService(newStubRepository(), nil))
	router := chi.NewRouter()
	router.Route("/api/users", func(r chi.Router) {
		r.Use(auth.RequireAuth(authSvc))
		r.Get("/me", h.HandleGetUserProfile())
		r.Put("/me", h.HandleUpdateUserProfile())
	})

	serve := func(method, body string, withToken bool) *httptest.ResponseRecorder {
		req := httptest.NewRequest(method, "/api/users/me", strings.NewReader(body))
		if withToken {
			req.AddCookie(&http.Cookie{Name: auth.TokenCookieName, Value: token})
		}
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, req)
		return rec
	}

	t.Run("GetRequiresToken", func(t *testing.T) {
		require.Equal(t, http.StatusUnauthorized, serve(http.MethodGet, "", false).Code)
	})

	t.Run("Get", func(t *testing.T) {
		rec := serve(http.MethodGet, "", true)
		require.Equal(t, http.StatusOK, rec.Code)

		var profile UserProfileResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
		require.Equal(t, int64(3), profile.ID)
		require.Equal(t, "alice@example.com", profile.Email)
		require.NotContains(t, rec.Body.String(), "hash")
	})

	t.Run("Update", func(t *testing.T) {
		rec := serve(http.MethodPut, `{"name":"Alice Smith"}`, true)
		require.Equal(t, http.StatusOK, rec.Code)

		var profile UserProfileResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &profile))
		require.Equal(t, "Alice Smith", profile.Name)
	})

	t.Run("UpdateBadBody", func(t *testing.T) {
		require.Equal(t, http.StatusBadRequest, serve(http.MethodPut, `{"name":`, true).Code)
	})
}
