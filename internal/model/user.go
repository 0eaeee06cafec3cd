package model

import (
	"errors"
	"time"
)

// User represents an authentication user. A block manager's username doubles
// as the owner identifier of their inventory; the store manager's inventory
// is keyed by StoreOwner.
type User struct {
	ID           int64      `json:"id"`
	Username     string     `json:"username"`
	DisplayName  string     `json:"display_name"`
	PasswordHash string     `json:"-"`
	Role         string     `json:"role"`
	CreatedAt    time.Time  `json:"created_at"`
	DeletedAt    *time.Time `json:"deleted_at,omitempty"`
}

// Roles.
const (
	RoleStoreManager = "storeManager"
	RoleBlockManager = "blockManager"
)

// ValidRole reports whether role is a known role.
func ValidRole(role string) bool {
	return role == RoleStoreManager || role == RoleBlockManager
}

// MinPasswordLength is the minimum accepted password length.
const MinPasswordLength = 8

// ValidatePassword checks a plaintext password against the policy.
func ValidatePassword(password string) error {
	if len(password) < MinPasswordLength {
		return errors.New("password must be at least 8 characters")
	}
	return nil
}
