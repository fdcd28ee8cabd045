package dto

import "time"

type LoginInput struct {
	Email    string
	Password string
}

type UserOutput struct {
	ID       int
	Email    string
	FullName string
	Role     string
	IsAdmin  bool
}

type SessionOutput struct {
	User     UserOutput
	HasUser  bool
	Restored bool
}

type StatusOutput struct {
	SignedIn  bool
	HasUser   bool
	User      UserOutput
	Subject   string
	ExpiresAt time.Time
	Expired   bool
}
