// Package auth handles accounts: registration, login, session tokens (JWT) and the
// middleware that authenticates requests from those tokens.
package auth

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/user/cariin-go/apperror"
	"github.com/user/cariin-go/config"
)

const (
	tokenIssuer = "cariin"

	msgInvalidCredentials = "invalid email or password"
	msgEmailTaken         = "email is already registered"
)

// Claims is the payload of a session token.
type Claims struct {
	UserID int64  `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}

// Service implements registration, login and token handling.
type Service struct {
	repo     UserRepository
	cfg      config.AuthConfig
	logger   *zap.Logger
	validate *Validator

	now      func() time.Time
	hashCost int
}

// NewService creates an auth Service.
func NewService(repo UserRepository, cfg config.AuthConfig, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{
		repo:     repo,
		cfg:      cfg,
		logger:   logger.Named("auth"),
		validate: NewValidator(),
		now:      time.Now,
		hashCost: bcrypt.DefaultCost,
	}
}

// Register validates req, hashes the password and stores a new account.
// A taken email is reported as a validation error on the email field.
func (s *Service) Register(ctx context.Context, req RegisterRequest) (*User, error) {
	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Phone = strings.TrimSpace(req.Phone)
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	existing, err := s.repo.FindByEmail(ctx, req.Email)
	if err != nil {
		return nil, apperror.NewStorageError("failed to check existing user", err)
	}
	if existing != nil {
		return nil, emailTakenError()
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(req.Password), s.hashCost)
	if err != nil {
		return nil, apperror.NewInternalError("failed to hash password", err)
	}

	user, err := s.repo.Create(ctx, &User{
		Name:         req.Name,
		Email:        req.Email,
		Phone:        req.Phone,
		PasswordHash: string(hash),
	})
	if err != nil {
		// Another registration may have taken the email since the lookup above.
		if errors.Is(err, ErrEmailTaken) {
			return nil, emailTakenError()
		}
		return nil, apperror.NewStorageError("failed to create user", err)
	}

	s.logger.Info("user registered", zap.Int64("user_id", user.ID))
	return user, nil
}

func emailTakenError() error {
	return apperror.NewValidationError("validation failed", map[string]string{"email": msgEmailTaken})
}

// Login checks credentials and issues a session token. Unknown emails and wrong
// passwords produce the same AuthError.
func (s *Service) Login(ctx context.Context, req LoginRequest) (*LoginResult, error) {
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.repo.FindByEmail(ctx, strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return nil, apperror.NewStorageError("failed to get user", err)
	}
	if user == nil {
		return nil, apperror.NewAuthError(msgInvalidCredentials, nil)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		return nil, apperror.NewAuthError(msgInvalidCredentials, nil)
	}

	token, expiresAt, err := s.IssueToken(user)
	if err != nil {
		return nil, apperror.NewInternalError("failed to issue token", err)
	}
	return &LoginResult{User: user, Token: token, ExpiresAt: expiresAt}, nil
}

// IssueToken signs an HS256 session token for user.
func (s *Service) IssueToken(user *User) (string, time.Time, error) {
	now := s.now()
	expiresAt := now.Add(s.cfg.TokenDuration)
	claims := &Claims{
		UserID: user.ID,
		Email:  user.Email,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			Issuer:    tokenIssuer,
			Subject:   strconv.FormatInt(user.ID, 10),
			ID:        uuid.NewString(),
		},
	}

	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return "", time.Time{}, fmt.Errorf("sign token: %w", err)
	}
	return signed, expiresAt, nil
}

// ParseToken verifies a session token and returns its claims.
func (s *Service) ParseToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenString, claims,
		func(token *jwt.Token) (interface{}, error) {
			return []byte(s.cfg.JWTSecret), nil
		},
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithIssuer(tokenIssuer),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, apperror.NewAuthError("token has expired", err)
		}
		return nil, apperror.NewAuthError("invalid token", err)
	}
	if claims.UserID == 0 {
		return nil, apperror.NewAuthError("invalid token: user_id claim is missing", nil)
	}
	return claims, nil
}
