package usecase

import (
	"context"
	"errors"
	"strings"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/learnhub/learnhub-api/internal/model"
	"github.com/learnhub/learnhub-api/internal/repository"
)

// SyncUsecase reconciles validated provider claims into local user state.
type SyncUsecase interface {
	SyncFromClaims(ctx context.Context, params SyncParams) (*model.User, error)
}

// SyncParams carries the claim fields relevant to a sync. ExternalID and
// Email are mandatory; the rest are optional provider metadata.
type SyncParams struct {
	ExternalID  string
	Email       string
	DisplayName string
	AvatarURL   string
}

type syncUsecase struct {
	userRepo       repository.UserRepository
	profileRepo    repository.ProfileRepository
	assignmentRepo repository.RoleAssignmentRepository
	roleUsecase    RoleUsecase
	transactor     repository.Transactor
}

func NewSyncUsecase(
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	assignmentRepo repository.RoleAssignmentRepository,
	roleUsecase RoleUsecase,
	transactor repository.Transactor,
) SyncUsecase {
	return &syncUsecase{
		userRepo:       userRepo,
		profileRepo:    profileRepo,
		assignmentRepo: assignmentRepo,
		roleUsecase:    roleUsecase,
		transactor:     transactor,
	}
}

// SyncFromClaims creates the user on first sight of an external id and
// updates only the drifted fields afterwards. The user, their profile, and
// the default role grant commit as one unit; a lost insert race against a
// concurrent sync for the same external id degrades into the update path.
// The returned user carries its resolved role set.
func (u *syncUsecase) SyncFromClaims(ctx context.Context, params SyncParams) (*model.User, error) {
	var synced *model.User
	err := u.transactor.InTransaction(ctx, func(ctx context.Context) error {
		user, created, err := u.getOrCreateUser(ctx, params)
		if err != nil {
			return err
		}

		if !created {
			user, err = u.updateDriftedFields(ctx, user, params)
			if err != nil {
				return err
			}
		}

		profile, err := u.profileRepo.EnsureProfile(ctx, user.ID.Hex())
		if err != nil {
			return err
		}

		if params.AvatarURL != "" && profile.AvatarURL != params.AvatarURL {
			avatarURL := params.AvatarURL
			if _, err := u.profileRepo.UpdateProfile(ctx, user.ID.Hex(), repository.UpdateProfileParams{
				AvatarURL: &avatarURL,
			}); err != nil {
				return err
			}
		}

		if created {
			// System-originated default role grant, audited by the role usecase.
			if _, err := u.roleUsecase.AssignRole(ctx, user, model.DefaultRole, nil); err != nil {
				return err
			}
		}

		synced = user

		return nil
	})
	if err != nil {
		return nil, err
	}

	roles, err := u.assignmentRepo.ListRoleNames(ctx, synced.ID.Hex())
	if err != nil {
		return nil, err
	}
	synced.Roles = roles

	return synced, nil
}

func (u *syncUsecase) getOrCreateUser(ctx context.Context, params SyncParams) (*model.User, bool, error) {
	user, err := u.userRepo.GetUserByExternalID(ctx, params.ExternalID)
	if err == nil {
		return user, false, nil
	}
	if !errors.Is(err, mongo.ErrNoDocuments) {
		return nil, false, err
	}

	created, err := u.userRepo.CreateUser(ctx, &model.User{
		ExternalID:  params.ExternalID,
		Email:       params.Email,
		DisplayName: defaultDisplayName(params.DisplayName, params.Email),
		Active:      true,
	})
	if err != nil {
		// Lost the insert race; the winner's row is authoritative.
		if mongo.IsDuplicateKeyError(err) {
			user, err = u.userRepo.GetUserByExternalID(ctx, params.ExternalID)
			return user, false, err
		}

		return nil, false, err
	}

	return created, true, nil
}

func (u *syncUsecase) updateDriftedFields(
	ctx context.Context,
	user *model.User,
	params SyncParams,
) (*model.User, error) {
	updateParams := repository.UpdateUserParams{}
	changed := false

	if user.Email != params.Email {
		email := params.Email
		updateParams.Email = &email
		changed = true
	}
	if params.DisplayName != "" && user.DisplayName != params.DisplayName {
		displayName := params.DisplayName
		updateParams.DisplayName = &displayName
		changed = true
	}

	if !changed {
		return user, nil
	}

	return u.userRepo.UpdateUser(ctx, user.ID.Hex(), updateParams)
}

func defaultDisplayName(displayName, email string) string {
	if displayName != "" {
		return displayName
	}

	local, _, _ := strings.Cut(email, "@")

	return local
}
