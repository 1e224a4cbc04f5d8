package domain

import "time"

// User types as stored on the profile. Moderators are regular users with
// is_moderator set; they are distinct from admins.
const (
	UserTypeJobSeeker = "Job Seeker"
	UserTypeEmployer  = "Employer"
)

// Auth providers.
const (
	ProviderLocal  = "local"
	ProviderGoogle = "google"
)

type User struct {
	UserID       string `json:"id" dynamodbav:"user_id"`
	Username     string `json:"username" dynamodbav:"username"`
	Name         string `json:"name" dynamodbav:"name"`
	Email        string `json:"email" dynamodbav:"email"`
	PasswordHash string `json:"-" dynamodbav:"password_hash"`
	UserType     string `json:"user_type" dynamodbav:"user_type"`
	IsModerator  bool   `json:"is_moderator" dynamodbav:"is_moderator"`

	// Verification state. A user is either fully unverified (no session is
	// issued for business actions) or verified. OTPSecret is empty until the
	// first challenge is ever started; afterwards the currently valid
	// passcode is derived from it, never stored.
	IsVerified           bool       `json:"is_verified" dynamodbav:"is_verified"`
	LastVerifiedIdentity *time.Time `json:"last_verified_identity,omitempty" dynamodbav:"last_verified_identity"`
	OTPSecret            string     `json:"-" dynamodbav:"otp_secret"`

	AuthProvider string     `json:"auth_provider,omitempty" dynamodbav:"auth_provider"` // "local" | "google"
	Enable       bool       `json:"enable" dynamodbav:"enable"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty" dynamodbav:"deleted_at"`
	CreatedAt    time.Time  `json:"created" dynamodbav:"created_at"`
	UpdatedAt    time.Time  `json:"updated" dynamodbav:"updated_at"`
}

type RegisterUserRequest struct {
	Username string `json:"username" validate:"required"`
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=72"`
	UserType string `json:"user_type" validate:"required,oneof='Job Seeker' 'Employer'"`
}
