// Package users serves the authenticated caller's own profile.
package users

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/user/cariin-go/apperror"
	"github.com/user/cariin-go/auth"
)

// UserService reads and updates profiles through the account repository.
type UserService struct {
	repo     auth.UserRepository
	validate *auth.Validator
	logger   *zap.Logger
}

// NewUserService creates a UserService.
func NewUserService(repo auth.UserRepository, logger *zap.Logger) *UserService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &UserService{repo: repo, validate: auth.NewValidator(), logger: logger.Named("users")}
}

// GetUserProfile returns the profile of userID.
func (s *UserService) GetUserProfile(ctx context.Context, userID int64) (*UserProfileResponse, error) {
	user, err := s.repo.FindByID(ctx, userID)
	if err != nil {
		return nil, apperror.NewStorageError("failed to get user profile", err)
	}
	if user == nil {
		return nil, apperror.NewNotFoundError(fmt.Sprintf("user with ID %d not found", userID), nil)
	}
	return toProfile(user), nil
}

// UpdateUserProfile applies the non-nil fields of req.
func (s *UserService) UpdateUserProfile(ctx context.Context, userID int64, req *UpdateUserProfileRequest) (*UserProfileResponse, error) {
	if req.Name == nil && req.Phone == nil {
		return nil, apperror.NewBadRequestError("no fields provided for update", nil)
	}
	trim(req.Name)
	trim(req.Phone)
	fields := map[string]string{}
	if req.Name != nil && *req.Name == "" {
		fields["name"] = "name is required"
	}
	if req.Phone != nil && *req.Phone == "" {
		fields["phone"] = "phone is required"
	}
	if len(fields) > 0 {
		return nil, apperror.NewValidationError("validation failed", fields)
	}
	if err := s.validate.Struct(req); err != nil {
		return nil, err
	}

	user, err := s.repo.UpdateProfile(ctx, userID, req.Name, req.Phone)
	if err != nil {
		return nil, apperror.NewStorageError("failed to update user profile", err)
	}
	if user == nil {
		return nil, apperror.NewNotFoundError(fmt.Sprintf("user with ID %d not found", userID), nil)
	}

	s.logger.Info("profile updated", zap.Int64("user_id", userID))
	return toProfile(user), nil
}

func trim(s *string) {
	if s != nil {
		*s = strings.TrimSpace(*s)
	}
}

func toProfile(u *auth.User) *UserProfileResponse {
	return &UserProfileResponse{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		Phone:     u.Phone,
		CreatedAt: u.CreatedAt,
	}
}
