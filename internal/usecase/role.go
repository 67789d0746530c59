package usecase

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/learnhub/learnhub-api/internal/audit"
	"github.com/learnhub/learnhub-api/internal/model"
	"github.com/learnhub/learnhub-api/internal/repository"
)

// RoleUsecase defines the interface for role management. All role mutations
// go through it so the uniqueness and audit invariants hold everywhere.
type RoleUsecase interface {
	AssignRole(ctx context.Context, user *model.User, roleName string, actor *model.User) (*model.RoleAssignment, error)
	RevokeRole(ctx context.Context, user *model.User, roleName string, actor *model.User) (bool, error)
	CanAssignRole(actor *model.User, roleName string) bool
	CanRevokeRole(actor *model.User, roleName string) bool
	PromoteToInstructor(ctx context.Context, user *model.User, admin *model.User) error
	PromoteToAdmin(ctx context.Context, user *model.User, admin *model.User) error
	UsersByRole(ctx context.Context, roleName string) ([]*model.User, error)
}

var (
	ErrInvalidRole      = errors.New("invalid role")
	ErrPermissionDenied = errors.New("permission denied")
)

type roleUsecase struct {
	roleRepo       repository.RoleRepository
	assignmentRepo repository.RoleAssignmentRepository
	userRepo       repository.UserRepository
	transactor     repository.Transactor
	auditSink      audit.Sink
}

func NewRoleUsecase(
	roleRepo repository.RoleRepository,
	assignmentRepo repository.RoleAssignmentRepository,
	userRepo repository.UserRepository,
	transactor repository.Transactor,
	auditSink audit.Sink,
) RoleUsecase {
	return &roleUsecase{
		roleRepo:       roleRepo,
		assignmentRepo: assignmentRepo,
		userRepo:       userRepo,
		transactor:     transactor,
		auditSink:      auditSink,
	}
}

// AssignRole grants a role to a user. A nil actor marks a system-originated
// assignment and bypasses the permission check; that path is only ever taken
// internally, never on behalf of an unauthenticated caller. Re-assigning an
// already-held role returns the existing assignment without a second audit
// event.
func (u *roleUsecase) AssignRole(
	ctx context.Context,
	user *model.User,
	roleName string,
	actor *model.User,
) (*model.RoleAssignment, error) {
	if !model.ValidRoleName(roleName) {
		return nil, ErrInvalidRole
	}

	if actor != nil && !u.CanAssignRole(actor, roleName) {
		return nil, ErrPermissionDenied
	}

	var assignment *model.RoleAssignment
	err := u.transactor.InTransaction(ctx, func(ctx context.Context) error {
		role, err := u.roleRepo.GetOrCreateRole(ctx, model.DefaultRoleConfigs[roleName])
		if err != nil {
			return err
		}

		existing, err := u.assignmentRepo.GetAssignment(ctx, user.ID.Hex(), roleName)
		if err == nil {
			assignment = existing
			return nil
		}
		if !errors.Is(err, mongo.ErrNoDocuments) {
			return err
		}

		newAssignment := &model.RoleAssignment{
			UserID:   user.ID.Hex(),
			RoleID:   role.ID.Hex(),
			RoleName: roleName,
		}
		if actor != nil {
			id := actor.ID.Hex()
			newAssignment.AssignedBy = &id
		}

		created, err := u.assignmentRepo.CreateAssignment(ctx, newAssignment)
		if err != nil {
			// Concurrent grant of the same role; the winner's row stands.
			if mongo.IsDuplicateKeyError(err) {
				assignment, err = u.assignmentRepo.GetAssignment(ctx, user.ID.Hex(), roleName)
				return err
			}

			return err
		}

		assignment = created

		return u.auditSink.Record(ctx, audit.RoleAssigned(user, roleName, actor))
	})
	if err != nil {
		return nil, err
	}

	return assignment, nil
}

// RevokeRole removes a role from a user. Returns false without error when
// the user never held the role; the audit event is emitted only on an actual
// deletion.
func (u *roleUsecase) RevokeRole(
	ctx context.Context,
	user *model.User,
	roleName string,
	actor *model.User,
) (bool, error) {
	if actor != nil && !u.CanRevokeRole(actor, roleName) {
		return false, ErrPermissionDenied
	}

	var revoked bool
	err := u.transactor.InTransaction(ctx, func(ctx context.Context) error {
		deleted, err := u.assignmentRepo.DeleteAssignment(ctx, user.ID.Hex(), roleName)
		if err != nil {
			return err
		}

		revoked = deleted
		if !deleted {
			return nil
		}

		return u.auditSink.Record(ctx, audit.RoleRevoked(user, roleName, actor))
	})
	if err != nil {
		return false, err
	}

	return revoked, nil
}

// CanAssignRole reports whether the actor may grant roles. Only admins may,
// regardless of which role is being granted. A nil actor may not.
func (u *roleUsecase) CanAssignRole(actor *model.User, _ string) bool {
	return actor != nil && actor.HasRole(model.RoleAdmin)
}

// CanRevokeRole reports whether the actor may revoke roles. Only admins may,
// regardless of which role is being revoked. A nil actor may not.
func (u *roleUsecase) CanRevokeRole(actor *model.User, _ string) bool {
	return actor != nil && actor.HasRole(model.RoleAdmin)
}

// PromoteToInstructor grants the instructor role on behalf of an admin.
func (u *roleUsecase) PromoteToInstructor(ctx context.Context, user *model.User, admin *model.User) error {
	_, err := u.AssignRole(ctx, user, model.RoleInstructor, admin)
	return err
}

// PromoteToAdmin grants the admin role on behalf of an existing admin.
func (u *roleUsecase) PromoteToAdmin(ctx context.Context, user *model.User, admin *model.User) error {
	_, err := u.AssignRole(ctx, user, model.RoleAdmin, admin)
	return err
}

// UsersByRole returns every non-deleted user currently holding the role.
func (u *roleUsecase) UsersByRole(ctx context.Context, roleName string) ([]*model.User, error) {
	if !model.ValidRoleName(roleName) {
		return nil, ErrInvalidRole
	}

	userIDs, err := u.assignmentRepo.ListUserIDsByRole(ctx, roleName)
	if err != nil {
		return nil, err
	}
	if len(userIDs) == 0 {
		return nil, nil
	}

	return u.userRepo.ListUsers(ctx, repository.FilterUsersParams{
		IDs:   userIDs,
		Limit: uint64(len(userIDs)),
	})
}
