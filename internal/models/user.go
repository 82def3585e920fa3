package models

import (
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// User is a registered account (PostgreSQL)
type User struct {
	ID           uint      `json:"id" gorm:"primaryKey"`
	Name         string    `json:"name"`
	Username     string    `json:"username" gorm:"index"`
	Email        string    `json:"email" gorm:"uniqueIndex"`
	ProfilePhoto string    `json:"profilePhoto"`
	Password     string    `json:"-"`                                               // bcrypt hash
	FirebaseUID  *string   `json:"firebase_uid,omitempty" gorm:"uniqueIndex"` // nil for local accounts
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

// UserProfile is the public identity attached to realtime events
type UserProfile struct {
	ID     uint   `json:"id"`
	Name   string `json:"name"`
	Avatar string `json:"avatar"`
}

// Profile returns the public identity of the user
func (u *User) Profile() UserProfile {
	return UserProfile{ID: u.ID, Name: u.Name, Avatar: u.ProfilePhoto}
}

type CreateLocalUserRequest struct {
	Name         string `json:"name" validate:"required,min=2,max=50"`
	Username     string `json:"username" validate:"omitempty,min=2,max=30"`
	Email        string `json:"email" validate:"required,email"`
	ProfilePhoto string `json:"profilePhoto" validate:"omitempty,url"`
	Password     string `json:"password" validate:"required,min=8"`
}

type SignInRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type UpdateUserRequest struct {
	Name         string `json:"name,omitempty" validate:"omitempty,min=2,max=50"`
	Username     string `json:"username,omitempty" validate:"omitempty,min=2,max=30"`
	Email        string `json:"email,omitempty" validate:"omitempty,email"`
	ProfilePhoto string `json:"profilePhoto,omitempty" validate:"omitempty,url"`
}

// JwtCustomClaims are custom claims extending standard jwt.RegisteredClaims
type JwtCustomClaims struct {
	UserID uint   `json:"user_id"`
	Email  string `json:"email"`
	jwt.RegisteredClaims
}
