// Package permission provides the stateless predicates the resource layer
// composes for access checks. Predicates only read the already-resolved
// user and its role set; they never touch persistence.
package permission

import (
	"net/http"

	"github.com/learnhub/learnhub-api/internal/model"
)

// Owned is the capability a resource type declares to participate in
// ownership checks. OwnerID returns the hex id of the owning user, or the
// empty string when the resource has no owner.
type Owned interface {
	OwnerID() string
}

// Authenticated reports whether the user is non-anonymous.
func Authenticated(user *model.User) bool {
	return user != nil
}

// HasAnyRole reports whether the user holds at least one of the given roles.
// Anonymous users hold none.
func HasAnyRole(user *model.User, roleNames ...string) bool {
	if user == nil {
		return false
	}

	return user.HasAnyRole(roleNames...)
}

// IsStudent reports student-level access: student, instructor, or admin.
func IsStudent(user *model.User) bool {
	return HasAnyRole(user, model.RoleStudent, model.RoleInstructor, model.RoleAdmin)
}

// IsInstructor reports instructor-level access: instructor or admin.
func IsInstructor(user *model.User) bool {
	return HasAnyRole(user, model.RoleInstructor, model.RoleAdmin)
}

// IsAdmin reports admin access.
func IsAdmin(user *model.User) bool {
	return HasAnyRole(user, model.RoleAdmin)
}

// OwnerOrAdmin reports whether the user is an admin or owns the target.
// Targets that do not declare ownership fail closed.
func OwnerOrAdmin(user *model.User, target any) bool {
	if user == nil {
		return false
	}
	if user.HasRole(model.RoleAdmin) {
		return true
	}

	owned, ok := target.(Owned)
	if !ok {
		return false
	}
	ownerID := owned.OwnerID()

	return ownerID != "" && ownerID == user.ID.Hex()
}

// ReadOnlyOrOwner passes every read request and requires OwnerOrAdmin for
// writes.
func ReadOnlyOrOwner(user *model.User, method string, target any) bool {
	if ReadOnly(method) {
		return true
	}

	return OwnerOrAdmin(user, target)
}

// ReadOnly reports whether the HTTP method is a safe, non-mutating one.
func ReadOnly(method string) bool {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return true
	default:
		return false
	}
}
