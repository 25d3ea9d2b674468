package auth

import (
	"net/http"
	"strings"

	"github.com/user/cariin-go/apperror"
)

// TokenCookieName is the cookie the session token is delivered in.
const TokenCookieName = "token"

// RequireAuth rejects requests without a valid session token. The token is read
// from the `token` cookie first, then from an `Authorization: Bearer` header.
// On success the claims are placed in the request context.
func RequireAuth(service *Service) func(next http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			tokenString, err := tokenFromRequest(r)
			if err != nil {
				apperror.WriteError(w, err)
				return
			}

			claims, err := service.ParseToken(tokenString)
			if err != nil {
				apperror.WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(NewContextWithClaims(r.Context(), claims)))
		})
	}
}

func tokenFromRequest(r *http.Request) (string, error) {
	if cookie, err := r.Cookie(TokenCookieName); err == nil && cookie.Value != "" {
		return cookie.Value, nil
	}

	header := r.Header.Get("Authorization")
	if header == "" {
		return "", apperror.NewAuthError("authentication required", nil)
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
		return "", apperror.NewAuthError("Authorization header format must be Bearer {token}", nil)
	}
	return strings.TrimSpace(parts[1]), nil
}
