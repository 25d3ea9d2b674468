package auth

import "time"

// RegisterRequest is the registration payload.
// The validate tags are enforced by Validator; messages are keyed by the JSON name.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=3" example:"Alice"`
	Email    string `json:"email" validate:"required,email" example:"alice@example.com"`
	Phone    string `json:"phone" validate:"required,min=8" example:"081234567890"`
	Password string `json:"password" validate:"required,min=6,max=72" example:"secret1"`
}

// RegisterResponse wraps the created account.
type RegisterResponse struct {
	User *User `json:"user"`
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Email    string `json:"email" validate:"required" example:"alice@example.com"`
	Password string `json:"password" validate:"required" example:"secret1"`
}

// LoginUser is the subset of the account returned on login.
type LoginUser struct {
	ID    int64  `json:"id" example:"1"`
	Email string `json:"email" example:"alice@example.com"`
	Name  string `json:"name" example:"Alice"`
}

// LoginResponse is the login body. The same token is also set as the `token` cookie.
type LoginResponse struct {
	Message string    `json:"message" example:"Login successful"`
	User    LoginUser `json:"user"`
	Token   string    `json:"token" example:"eyJhbGciOiJIUzI1NiIsInR5cCI6IkpXVCJ9..."`
}

// LoginResult is what Service.Login hands back to the HTTP layer.
type LoginResult struct {
	User      *User
	Token     string
	ExpiresAt time.Time
}
