package users

import "time"

// UserProfileResponse is the caller's own account as returned by /api/users/me.
type UserProfileResponse struct {
	ID        int64     `json:"id" example:"1"`
	Name      string    `json:"name" example:"Alice"`
	Email     string    `json:"email" example:"alice@example.com"`
	Phone     string    `json:"phone" example:"081234567890"`
	CreatedAt time.Time `json:"created_at"`
}

// UpdateUserProfileRequest changes name and/or phone.
// A nil field is left unchanged; email and password are not editable here.
type UpdateUserProfileRequest struct {
	Name  *string `json:"name,omitempty" validate:"omitempty,min=3" example:"Alice Smith"`
	Phone *string `json:"phone,omitempty" validate:"omitempty,min=8" example:"081298765432"`
}
