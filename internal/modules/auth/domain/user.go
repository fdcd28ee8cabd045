package domain

import "time"

type Role string

const (
	RoleAdmin  Role = "admin"
	RoleViewer Role = "viewer"
)

type User struct {
	ID       int    `json:"id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	Role     Role   `json:"role"`
}

func (u User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Session is created on login or restore and destroyed on logout or auth failure.
// User stays nil until /me has been resolved for this token.
type Session struct {
	Token     string
	User      *User
	CreatedAt time.Time
}

// TokenClaims are read from the bearer token without verifying its signature; they are only
// displayed, never trusted for authorization decisions.
type TokenClaims struct {
	Subject   string
	ExpiresAt time.Time
	IssuedAt  time.Time
}
