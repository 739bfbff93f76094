package client

import (
	"context"
	"time"

	"github.com/dmitrijs2005/swpa/internal/client/models"
)

// Client is the contract of the remote SWPA identity API.
type Client interface {
	Close() error
	Login(ctx context.Context, email, password string) (*LoginResponse, error)
	Signup(ctx context.Context, req SignupRequest) (*SignupResponse, error)
	VerifyOTP(ctx context.Context, email, code string) (models.Identity, error)
	ResendOTP(ctx context.Context, email string) (*AttemptsResponse, error)
	ForgotPassword(ctx context.Context, email string) (*AttemptsResponse, error)
	ChangePassword(ctx context.Context, req ChangePasswordRequest) (time.Time, error)
	UpdateProfile(ctx context.Context, req UpdateProfileRequest) (models.Identity, error)
}

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type LoginResponse struct {
	User            models.Identity `json:"user"`
	IsEmailVerified bool            `json:"isEmailVerified"`
}

type SignupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Phone    string `json:"phone"`
	Password string `json:"password"`
}

type SignupResponse struct {
	Email   string `json:"email"`
	Message string `json:"message,omitempty"`
}

type VerifyOTPRequest struct {
	Email string `json:"email"`
	Code  string `json:"emailOtp"`
}

type emailRequest struct {
	Email string `json:"email"`
}

// AttemptsResponse is returned by the OTP resend and password recovery
// endpoints. AttemptsLeft is nil when the server did not report a budget.
type AttemptsResponse struct {
	AttemptsLeft *int   `json:"attemptleft"`
	Message      string `json:"message,omitempty"`
}

type ChangePasswordRequest struct {
	Email       string `json:"email"`
	OldPassword string `json:"oldPassword"`
	NewPassword string `json:"newPassword"`
}

type changePasswordResponse struct {
	LastPasswordChangedAt time.Time `json:"lastPasswordChangedAt"`
}

// UpdateProfileRequest carries only the fields being changed.
type UpdateProfileRequest struct {
	Email  string  `json:"email"`
	Name   *string `json:"name,omitempty"`
	Phone  *string `json:"phone,omitempty"`
	Avatar *string `json:"avatar,omitempty"`
}

type userResponse struct {
	User models.Identity `json:"user"`
}
