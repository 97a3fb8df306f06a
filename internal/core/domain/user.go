package domain

import (
	"strings"
	"time"
)

// Role is a coarse permission tag.
type Role string

const (
	RoleAdmin   Role = "ADMIN"
	RoleManager Role = "MANAGER"
	RoleUser    Role = "USER"
)

// ParseRole normalises s into a known Role.
func ParseRole(s string) (Role, bool) {
	switch r := Role(strings.ToUpper(strings.TrimSpace(s))); r {
	case RoleAdmin, RoleManager, RoleUser:
		return r, true
	}
	return "", false
}

// User models an authenticated actor in the system.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	FullName  string    `json:"full_name" gorm:"size:120"`
	Email     string    `json:"email" gorm:"size:191;not null;uniqueIndex"`
	Password  string    `json:"-" gorm:"size:191;not null"`
	Role      Role      `json:"role" gorm:"size:16;not null;index"`
	IsActive  bool      `json:"is_active" gorm:"not null"`
	CreatedAt time.Time `json:"created_at" gorm:"<-:create"`
	UpdatedAt time.Time `json:"updated_at"`
}
