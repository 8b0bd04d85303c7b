package models

import (
	"strconv"
	"time"
)

// Role is the platform role carried in the role claim.
type Role string

const (
	RolePlayer Role = "JOUEUR"
	RoleAdmin  Role = "ADMINISTRATEUR"
)

func (r Role) Valid() bool {
	return r == RolePlayer || r == RoleAdmin
}

// User is an account row. PasswordHash never leaves the service layer.
type User struct {
	ID                 int64
	Email              string
	PasswordHash       string
	Role               Role
	IsActive           bool
	MustChangePassword bool
	CreatedAt          time.Time
}

// Subject is the value stored in the sub claim for this user.
func (u *User) Subject() string {
	return strconv.FormatInt(u.ID, 10)
}
