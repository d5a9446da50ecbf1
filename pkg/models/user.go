package models

import (
	"context"
	"time"

	"github.com/google/uuid"
)

type User struct {
	UUID      uuid.UUID  `json:"uuid"`
	ID        int64      `json:"id"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
	DeletedAt *time.Time `json:"deleted_at"`
	Email     string     `json:"email"`
	FirstName string     `json:"first_name,omitempty"`
	LastName  string     `json:"last_name,omitempty"`
	Verified  bool       `json:"verified"`
	Admin     bool       `json:"admin"`
	// PasswordHash is never serialized.
	PasswordHash string     `json:"-"`
	LastLoginAt  *time.Time `json:"last_login_at,omitempty"`
}

type UserListResponse struct {
	Users      []*User `json:"users"`
	TotalCount int     `json:"total_count"`
	RowCount   int     `json:"row_count"`
}

type CreateUserRequest struct {
	Email        string `json:"email" validate:"required,email"`
	Password     string `json:"password" validate:"required,min=8"`
	FirstName    string `json:"first_name"`
	LastName     string `json:"last_name"`
	PasswordHash string `json:"-"`
}

type UpdateUserRequest struct {
	UUID      uuid.UUID `json:"uuid"`
	FirstName string    `json:"first_name"`
	LastName  string    `json:"last_name"`
}

type LoginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type TokenResponse struct {
	Token string `json:"token"`
	User  *User  `json:"user"`
}

type RequestOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
}

type VerifyOTPRequest struct {
	Email string `json:"email" validate:"required,email"`
	Code  string `json:"code" validate:"required,len=6"`
}

type ResetPasswordRequest struct {
	Email       string `json:"email" validate:"required,email"`
	Code        string `json:"code" validate:"required,len=6"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

type ChangePasswordRequest struct {
	OldPassword string `json:"old_password" validate:"required"`
	NewPassword string `json:"new_password" validate:"required,min=8"`
}

// OTPPurpose distinguishes account verification codes from password reset
// codes. A code for one purpose never satisfies the other.
type OTPPurpose string

const (
	OTPPurposeVerify OTPPurpose = "verify"
	OTPPurposeReset  OTPPurpose = "reset"
)

// OTPRateWindow is the sliding window over which code issuance is counted
// for rate limiting. Retired codes are kept at least this long.
const OTPRateWindow = time.Hour

type OTP struct {
	UUID      uuid.UUID  `json:"uuid"`
	CreatedAt time.Time  `json:"created_at"`
	UserUUID  uuid.UUID  `json:"user_uuid"`
	Purpose   OTPPurpose `json:"purpose"`
	Code      string     `json:"-"`
	ExpiresAt time.Time  `json:"expires_at"`
}

type UserStore interface {
	Create(ctx context.Context, user *CreateUserRequest) (*User, error)
	GetByUUID(ctx context.Context, userUUID uuid.UUID) (*User, error)
	GetByEmail(ctx context.Context, email string) (*User, error)
	Update(ctx context.Context, user *UpdateUserRequest) (*User, error)
	UpdatePassword(ctx context.Context, userUUID uuid.UUID, passwordHash string) error
	MarkVerified(ctx context.Context, userUUID uuid.UUID) error
	RecordLogin(ctx context.Context, userUUID uuid.UUID) error
	Delete(ctx context.Context, userUUID uuid.UUID) error
	ListAll(ctx context.Context, cursor int64, limit int) ([]*User, error)
	// ListNew returns users who signed up after the given time.
	ListNew(ctx context.Context, since time.Time) ([]*User, error)
	// ListActive returns verified users ordered by most recent login.
	ListActive(ctx context.Context, limit int) ([]*User, error)
	// SaveOTP replaces any live code for the same user and purpose.
	SaveOTP(ctx context.Context, otp *OTP) error
	GetOTP(ctx context.Context, userUUID uuid.UUID, purpose OTPPurpose) (*OTP, error)
	DeleteOTP(ctx context.Context, otpUUID uuid.UUID) error
	// CountOTPsSince supports per-user request rate limiting.
	CountOTPsSince(ctx context.Context, userUUID uuid.UUID, purpose OTPPurpose, since time.Time) (int, error)
}
