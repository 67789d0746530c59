package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Role names form a fixed, closed set. Roles are reference data: seeded once
// from DefaultRoleConfigs, never created ad hoc by callers.
const (
	RoleGuest      = "guest"
	RoleStudent    = "student"
	RoleInstructor = "instructor"
	RoleAdmin      = "admin"
)

// DefaultRole is assigned to every newly synced user.
const DefaultRole = RoleStudent

// RoleNames lists the closed set of valid role names.
var RoleNames = []string{RoleGuest, RoleStudent, RoleInstructor, RoleAdmin}

// ValidRoleName reports whether name belongs to the closed role set.
func ValidRoleName(name string) bool {
	for _, n := range RoleNames {
		if n == name {
			return true
		}
	}
	return false
}

// Role is a named capability bundle with a declarative permission map.
type Role struct {
	ID          bson.ObjectID   `bson:"_id,omitempty"`
	Name        string          `bson:"name"`
	Description string          `bson:"description"`
	Permissions map[string]bool `bson:"permissions"`
	CreatedAt   time.Time       `bson:"created_at"`
	UpdatedAt   time.Time       `bson:"updated_at"`
}

// RoleAssignment grants one role to one user and records who granted it.
// The (user, role) pair is unique; assignments are hard-deleted on
// revocation, unlike users which are only ever soft-deleted.
type RoleAssignment struct {
	ID         bson.ObjectID `bson:"_id,omitempty"`
	UserID     string        `bson:"user_id"`
	RoleID     string        `bson:"role_id"`
	RoleName   string        `bson:"role_name"`
	AssignedBy *string       `bson:"assigned_by,omitempty"`
	CreatedAt  time.Time     `bson:"created_at"`
	UpdatedAt  time.Time     `bson:"updated_at"`
}

// RoleConfig describes one entry of the canonical role table.
type RoleConfig struct {
	Name        string
	Description string
	Permissions map[string]bool
}

// DefaultRoleConfigs is the single source of truth for the role set and the
// permission flags each role carries. Seeding from this table is idempotent.
var DefaultRoleConfigs = map[string]RoleConfig{
	RoleGuest: {
		Name:        RoleGuest,
		Description: "Guest user with read-only access to public content",
		Permissions: map[string]bool{
			"can_view_public_content": true,
			"can_view_courses":        true,
			"can_view_resources":      false,
			"can_submit_questions":    false,
			"can_comment":             false,
			"can_bookmark":            false,
			"can_rate":                false,
		},
	},
	RoleStudent: {
		Name:        RoleStudent,
		Description: "Student user with access to courses, resources, and Q&A",
		Permissions: map[string]bool{
			"can_view_public_content": true,
			"can_view_courses":        true,
			"can_view_resources":      true,
			"can_submit_questions":    true,
			"can_answer_questions":    true,
			"can_comment":             true,
			"can_bookmark":            true,
			"can_rate":                true,
			"can_vote":                true,
		},
	},
	RoleInstructor: {
		Name:        RoleInstructor,
		Description: "Instructor user who can create and manage course content",
		Permissions: map[string]bool{
			"can_view_public_content": true,
			"can_view_courses":        true,
			"can_view_resources":      true,
			"can_create_courses":      true,
			"can_create_resources":    true,
			"can_edit_own_content":    true,
			"can_publish_content":     true,
			"can_submit_questions":    true,
			"can_answer_questions":    true,
			"can_moderate_qna":        true,
			"can_comment":             true,
			"can_bookmark":            true,
			"can_rate":                true,
			"can_review_submissions":  true,
			"can_vote":                true,
		},
	},
	RoleAdmin: {
		Name:        RoleAdmin,
		Description: "Administrator with full access to all platform features",
		Permissions: map[string]bool{
			"can_view_public_content": true,
			"can_view_courses":        true,
			"can_view_resources":      true,
			"can_create_courses":      true,
			"can_create_resources":    true,
			"can_edit_own_content":    true,
			"can_edit_any_content":    true,
			"can_delete_content":      true,
			"can_publish_content":     true,
			"can_unpublish_content":   true,
			"can_submit_questions":    true,
			"can_answer_questions":    true,
			"can_moderate_qna":        true,
			"can_comment":             true,
			"can_bookmark":            true,
			"can_rate":                true,
			"can_manage_users":        true,
			"can_assign_roles":        true,
			"can_review_submissions":  true,
			"can_view_analytics":      true,
			"can_manage_settings":     true,
			"can_vote":                true,
		},
	},
}
