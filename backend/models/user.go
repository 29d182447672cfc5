package models

import (
	"time"
)

const (
	RoleStudent  = "student"
	RoleLecturer = "lecturer"
	RoleAdmin    = "admin"
)

// ValidRole reports whether role is one of the known roles.
func ValidRole(role string) bool {
	switch role {
	case RoleStudent, RoleLecturer, RoleAdmin:
		return true
	}
	return false
}

type User struct {
	ID                   uint       `gorm:"primaryKey" json:"id"`
	Username             string     `gorm:"size:64;unique;not null" json:"username"`
	Email                string     `gorm:"size:255;unique;not null" json:"email"`
	PasswordHash         string     `gorm:"not null" json:"-"`
	Role                 string     `gorm:"size:16;not null;default:student" json:"role"`
	ResetPasswordToken   string     `gorm:"index" json:"-"`
	ResetPasswordExpires *time.Time `json:"-"`
	CreatedAt            time.Time  `json:"createdAt"`
	UpdatedAt            time.Time  `json:"updatedAt"`
}

// PublicUser is the user shape returned next to tokens.
type PublicUser struct {
	ID       uint   `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	Role     string `json:"role"`
}

func (u *User) Public() PublicUser {
	return PublicUser{ID: u.ID, Username: u.Username, Email: u.Email, Role: u.Role}
}
