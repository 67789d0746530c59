package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// User represents a local principal synchronized from the external identity
// provider. The provider owns authentication; this record carries everything
// the platform needs to know about the principal between requests.
type User struct {
	ID          bson.ObjectID `bson:"_id,omitempty"`
	ExternalID  string        `bson:"external_id"`
	Email       string        `bson:"email"`
	DisplayName string        `bson:"display_name"`
	Active      bool          `bson:"active"`
	Deleted     bool          `bson:"deleted"`
	DeletedAt   *time.Time    `bson:"deleted_at,omitempty"`
	DeletedBy   *string       `bson:"deleted_by,omitempty"`
	LastLoginAt *time.Time    `bson:"last_login_at,omitempty"`
	CreatedAt   time.Time     `bson:"created_at"`
	UpdatedAt   time.Time     `bson:"updated_at"`

	// Roles holds the resolved role names for the current request.
	// Populated by the sync usecase, never persisted on the user document.
	Roles []string `bson:"-"`
}

// HasRole reports whether the user holds the given role.
func (u *User) HasRole(roleName string) bool {
	for _, r := range u.Roles {
		if r == roleName {
			return true
		}
	}
	return false
}

// HasAnyRole reports whether the user holds at least one of the given roles.
func (u *User) HasAnyRole(roleNames ...string) bool {
	for _, name := range roleNames {
		if u.HasRole(name) {
			return true
		}
	}
	return false
}
