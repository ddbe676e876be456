package models

import (
	"errors"
	"strings"
	"time"
)

const (
	RoleSponsor = "sponsor"
	RoleMaid    = "maid"
	RoleAdmin   = "admin"
)

type User struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"-"`
	Role         string    `json:"role"`
	CreatedAt    time.Time `json:"created_at"`
	UpdatedAt    time.Time `json:"updated_at"`
}

func (u *User) Validate() error {
	if !strings.Contains(u.Email, "@") {
		return errors.New("invalid email")
	}
	switch u.Role {
	case "":
		u.Role = RoleSponsor
	case RoleSponsor, RoleMaid, RoleAdmin:
	default:
		return errors.New("unknown role")
	}
	return nil
}
