package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User represents an account record (PostgreSQL). Accounts are keyed by
// their unique user name; every edge, event, and notification references
// that handle rather than the numeric row ID.
type User struct {
	ID           uint      `json:"-" gorm:"primaryKey"`
	UserName     string    `json:"user_name" gorm:"size:64;uniqueIndex"`
	Email        string    `json:"email" gorm:"uniqueIndex"`
	FirstName    string    `json:"first_name"`
	LastName     string    `json:"last_name"`
	Bio          string    `json:"bio"`
	ProfileImage string    `json:"profile_image"`
	IsPrivate    bool      `json:"is_private" gorm:"default:false"`
	PasswordHash string    `json:"-"`
	FirebaseUID  string    `json:"firebase_uid,omitempty" gorm:"index"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

// SignupRequest defines the request body for local registration
type SignupRequest struct {
	UserName string `json:"user_name" validate:"required,min=6,max=32"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=32"`
}

// SignInRequest defines the request body for local authentication
type SignInRequest struct {
	UserName string `json:"user_name" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// UpdateProfileRequest defines the request body for profile edits.
// IsPrivate is a pointer so "leave unchanged" is distinguishable from false.
type UpdateProfileRequest struct {
	FirstName    string `json:"first_name,omitempty" validate:"omitempty,max=50"`
	LastName     string `json:"last_name,omitempty" validate:"omitempty,max=50"`
	Bio          string `json:"bio,omitempty" validate:"omitempty,max=300"`
	ProfileImage string `json:"profile_image,omitempty" validate:"omitempty,url"`
	IsPrivate    *bool  `json:"is_private,omitempty"`
}

// ProfileResponse is another user's profile as seen by the requester,
// including the relationship between the two accounts. A requester blocked
// by the target never gets this far: the profile read answers 404, so the
// block is indistinguishable from a missing account.
type ProfileResponse struct {
	UserName       string             `json:"user_name"`
	FirstName      string             `json:"first_name"`
	LastName       string             `json:"last_name"`
	Bio            string             `json:"bio"`
	ProfileImage   string             `json:"profile_image"`
	IsPrivate      bool               `json:"is_private"`
	RequestState   FollowRequestState `json:"request_state"`
	IsBlocked      bool               `json:"is_blocked"`
	IsCloseFriend  bool               `json:"is_close_friend"`
	FollowerCount  int64              `json:"follower_count"`
	FollowingCount int64              `json:"following_count"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserName string `json:"user_name"`
	Email    string `json:"email"`
	jwt.RegisteredClaims
}
