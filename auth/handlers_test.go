package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/require"

	"github.com/user/cariin-go/apperror"
)

func newAuthRouter(svc *Service) http.Handler {
	r := chi.NewRouter()
	r.Route("/api/users", NewHandlers(svc).RegisterRoutes)
	return r
}

func postJSON(t *testing.T, h http.Handler, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestHandleRegister(t *testing.T) {
	t.Run("Created", func(t *testing.T) {
		router := newAuthRouter(newTestService(newFakeUserRepository()))
		rec := postJSON(t, router, "/api/users/register",
			`{"name":"Alice","email":"alice@example.com","phone":"081234567890","password":"secret1"}`)

		require.Equal(t, http.StatusCreated, rec.Code)
		var body map[string]map[string]interface{}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, "alice@example.com", body["user"]["email"])
		require.Equal(t, "Alice", body["user"]["name"])
		require.NotContains(t, body["user"], "password")
		require.NotContains(t, body["user"], "PasswordHash")
	})

	t.Run("ValidationErrors", func(t *testing.T) {
		router := newAuthRouter(newTestService(newFakeUserRepository()))
		rec := postJSON(t, router, "/api/users/register",
			`{"name":"Al","email":"bad","phone":"12345678","password":"secret1"}`)

		require.Equal(t, http.StatusBadRequest, rec.Code)
		var body apperror.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Contains(t, body.Errors["name"], "minimum length")
		require.Contains(t, body.Errors["email"], "invalid")
		require.NotContains(t, body.Errors, "phone")
		require.NotContains(t, body.Errors, "password")
	})

	t.Run("DuplicateEmail", func(t *testing.T) {
		svc := newTestService(newFakeUserRepository())
		_, err := svc.Register(context.Background(), validRegistration)
		require.NoError(t, err)

		rec := postJSON(t, newAuthRouter(svc), "/api/users/register",
			`{"name":"Alice Two","email":"alice@example.com","phone":"081234567891","password":"secret2"}`)
		require.Equal(t, http.StatusBadRequest, rec.Code)

		var body apperror.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, msgEmailTaken, body.Errors["email"])
	})

	t.Run("MalformedBody", func(t *testing.T) {
		rec := postJSON(t, newAuthRouter(newTestService(newFakeUserRepository())), "/api/users/register", `{"name":`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestHandleLogin(t *testing.T) {
	svc := newTestService(newFakeUserRepository())
	_, err := svc.Register(context.Background(), validRegistration)
	require.NoError(t, err)
	router := newAuthRouter(svc)

	t.Run("SetsCookieAndReturnsToken", func(t *testing.T) {
		rec := postJSON(t, router, "/api/users/login", `{"email":"alice@example.com","password":"secret1"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var body LoginResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, msgLoginSuccessful, body.Message)
		require.Equal(t, LoginUser{ID: 1, Email: "alice@example.com", Name: "Alice"}, body.User)
		require.NotEmpty(t, body.Token)

		cookies := rec.Result().Cookies()
		require.Len(t, cookies, 1)
		cookie := cookies[0]
		require.Equal(t, TokenCookieName, cookie.Name)
		require.Equal(t, body.Token, cookie.Value)
		require.True(t, cookie.HttpOnly)
		require.False(t, cookie.Secure)
		require.Equal(t, http.SameSiteStrictMode, cookie.SameSite)
		require.Equal(t, 24*60*60, cookie.MaxAge)
	})

	t.Run("SecureCookieInProduction", func(t *testing.T) {
		cfg := testAuthConfig
		cfg.SecureCookie = true
		prodSvc := NewService(svc.repo, cfg, nil)

		rec := postJSON(t, newAuthRouter(prodSvc), "/api/users/login", `{"email":"alice@example.com","password":"secret1"}`)
		require.Equal(t, http.StatusOK, rec.Code)
		require.True(t, rec.Result().Cookies()[0].Secure)
	})

	t.Run("WrongPasswordSetsNoCookie", func(t *testing.T) {
		rec := postJSON(t, router, "/api/users/login", `{"email":"alice@example.com","password":"not-it"}`)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
		require.Empty(t, rec.Result().Cookies())
		require.Empty(t, rec.Header().Get("Set-Cookie"))

		var body apperror.ErrorResponse
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Equal(t, msgInvalidCredentials, body.Error)
	})

	t.Run("UnknownEmail", func(t *testing.T) {
		rec := postJSON(t, router, "/api/users/login", `{"email":"nobody@example.com","password":"secret1"}`)
		require.Equal(t, http.StatusUnauthorized, rec.Code)
	})

	t.Run("MalformedBody", func(t *testing.T) {
		rec := postJSON(t, router, "/api/users/login", `not json`)
		require.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
