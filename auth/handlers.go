package auth

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/user/cariin-go/apperror"
)

const msgLoginSuccessful = "Login successful"

// Handlers exposes the account endpoints.
type Handlers struct {
	service *Service
}

// NewHandlers creates the account HTTP handlers.
func NewHandlers(service *Service) *Handlers {
	return &Handlers{service: service}
}

// RegisterRoutes mounts register and login on r.
func (h *Handlers) RegisterRoutes(r chi.Router) {
	r.Post("/register", h.HandleRegister())
	r.Post("/login", h.HandleLogin())
}

// HandleRegister godoc
// @Summary Register a user
// @Description Creates an account. Field problems are reported under `errors`, keyed by field name.
// @Tags users
// @Accept json
// @Produce json
// @Param registerBody body auth.RegisterRequest true "Account details"
// @Success 201 {object} auth.RegisterResponse "User created"
// @Failure 400 {object} apperror.ErrorResponse "Validation failed or email already registered"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /api/users/register [post]
func (h *Handlers) HandleRegister() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		var req RegisterRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperror.WriteError(w, apperror.NewBadRequestError("invalid request body", err))
			return
		}

		user, err := h.service.Register(r.Context(), req)
		if err != nil {
			apperror.WriteError(w, err)
			return
		}
		apperror.WriteJSON(w, http.StatusCreated, RegisterResponse{User: user})
	}
}

// HandleLogin godoc
// @Summary Log in
// @Description Checks credentials and returns a session token, also set as an HTTP-only `token` cookie.
// @Tags users
// @Accept json
// @Produce json
// @Param loginBody body auth.LoginRequest true "Credentials"
// @Success 200 {object} auth.LoginResponse "Login successful"
// @Failure 400 {object} apperror.ErrorResponse "Bad Request"
// @Failure 401 {object} apperror.ErrorResponse "Invalid email or password"
// @Failure 500 {object} apperror.ErrorResponse "Internal Server Error"
// @Router /api/users/login [post]
func (h *Handlers) HandleLogin() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		defer r.Body.Close()

		var req LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			apperror.WriteError(w, apperror.NewBadRequestError("invalid request body", err))
			return
		}

		result, err := h.service.Login(r.Context(), req)
		if err != nil {
			apperror.WriteError(w, err)
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     TokenCookieName,
			Value:    result.Token,
			Path:     "/",
			Expires:  result.ExpiresAt,
			MaxAge:   int(h.service.cfg.TokenDuration.Seconds()),
			HttpOnly: true,
			Secure:   h.service.cfg.SecureCookie,
			SameSite: http.SameSiteStrictMode,
		})
		apperror.WriteJSON(w, http.StatusOK, LoginResponse{
			Message: msgLoginSuccessful,
			User: LoginUser{
				ID:    result.User.ID,
				Email: result.User.Email,
				Name:  result.User.Name,
			},
			Token: result.Token,
		})
	}
}
