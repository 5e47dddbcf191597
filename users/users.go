// Package users defines the account record and the storage collaborator
// contract the session core depends on. The store is keyed by email and owns
// the single refresh-token slot per account.
package users

import (
	"golang.org/x/crypto/bcrypt"
)

// Role is a flat, closed set of privilege levels.
type Role string

const (
	RoleUser   Role = "user"
	RoleAdmin  Role = "admin"
	RoleEditor Role = "editor"
)

// DefaultRole is the lowest-privilege role, assigned to new accounts and
// assumed for any identity that carries no role.
const DefaultRole = RoleUser

// ValidRole reports whether r is a member of the closed role set.
func ValidRole(r Role) bool {
	switch r {
	case RoleUser, RoleAdmin, RoleEditor:
		return true
	}
	return false
}

type User struct {
	Email        string `json:"email"`          // Unique key
	Name         string `json:"name"`           // Display name
	Age          int    `json:"age,omitempty"`  // Optional, zero default
	PasswordHash string `json:"-"`              // Hashed password - never serialize
	Role         Role   `json:"role,omitempty"` // Defaults to RoleUser
	GoogleID     string `json:"-"`              // Set when the account was linked from Google
	RefreshToken string `json:"-"`              // The single active refresh token; empty when logged out
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}
