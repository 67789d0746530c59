package usecase

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/learnhub/learnhub-api/internal/audit"
	"github.com/learnhub/learnhub-api/internal/model"
	"github.com/learnhub/learnhub-api/internal/repository"
)

// UserUsecase defines the interface for administrative and profile-facing
// user operations.
type UserUsecase interface {
	UpdateProfile(ctx context.Context, user *model.User, params repository.UpdateProfileParams) (*model.Profile, error)
	Deactivate(ctx context.Context, user *model.User, actor *model.User) (*model.User, error)
	Activate(ctx context.Context, user *model.User, actor *model.User) (*model.User, error)
	SoftDelete(ctx context.Context, user *model.User, actor *model.User) (*model.User, error)
	Restore(ctx context.Context, userID string, actor *model.User) (*model.User, error)
	Statistics(ctx context.Context, user *model.User) (*model.Statistics, error)
	IncrementStatistic(ctx context.Context, user *model.User, statName string, delta int64) error
}

// ErrSelfDeactivation is returned when a user tries to deactivate themselves.
var ErrSelfDeactivation = errors.New("users cannot deactivate themselves")

type userUsecase struct {
	userRepo    repository.UserRepository
	profileRepo repository.ProfileRepository
	transactor  repository.Transactor
	auditSink   audit.Sink
}

func NewUserUsecase(
	userRepo repository.UserRepository,
	profileRepo repository.ProfileRepository,
	transactor repository.Transactor,
	auditSink audit.Sink,
) UserUsecase {
	return &userUsecase{
		userRepo:    userRepo,
		profileRepo: profileRepo,
		transactor:  transactor,
		auditSink:   auditSink,
	}
}

// UpdateProfile applies the caller-editable profile fields, creating the
// profile on first update.
func (u *userUsecase) UpdateProfile(
	ctx context.Context,
	user *model.User,
	params repository.UpdateProfileParams,
) (*model.Profile, error) {
	return u.profileRepo.UpdateProfile(ctx, user.ID.Hex(), params)
}

// Deactivate disables a user account. Self-deactivation is rejected.
func (u *userUsecase) Deactivate(ctx context.Context, user *model.User, actor *model.User) (*model.User, error) {
	if actor != nil && user.ID == actor.ID {
		return nil, ErrSelfDeactivation
	}

	return u.setActive(ctx, user, actor, false)
}

// Activate re-enables a user account.
func (u *userUsecase) Activate(ctx context.Context, user *model.User, actor *model.User) (*model.User, error) {
	return u.setActive(ctx, user, actor, true)
}

func (u *userUsecase) setActive(
	ctx context.Context,
	user *model.User,
	actor *model.User,
	active bool,
) (*model.User, error) {
	var updated *model.User
	err := u.transactor.InTransaction(ctx, func(ctx context.Context) error {
		var err error
		updated, err = u.userRepo.UpdateUser(ctx, user.ID.Hex(), repository.UpdateUserParams{
			Active: &active,
		})
		if err != nil {
			return err
		}

		event := audit.UserDeactivated(updated, actor)
		if active {
			event = audit.UserActivated(updated, actor)
		}

		return u.auditSink.Record(ctx, event)
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

// SoftDelete marks a user deleted without removing the row; role assignments
// and profile stay in place for a later restore.
func (u *userUsecase) SoftDelete(ctx context.Context, user *model.User, actor *model.User) (*model.User, error) {
	var deletedBy *string
	if actor != nil {
		id := actor.ID.Hex()
		deletedBy = &id
	}

	var deleted *model.User
	err := u.transactor.InTransaction(ctx, func(ctx context.Context) error {
		var err error
		deleted, err = u.userRepo.SoftDeleteUser(ctx, user.ID.Hex(), deletedBy)
		if err != nil {
			return err
		}

		return u.auditSink.Record(ctx, audit.UserDeleted(deleted, actor))
	})
	if err != nil {
		return nil, err
	}

	return deleted, nil
}

// Restore brings back a soft-deleted user.
func (u *userUsecase) Restore(ctx context.Context, userID string, actor *model.User) (*model.User, error) {
	var restored *model.User
	err := u.transactor.InTransaction(ctx, func(ctx context.Context) error {
		var err error
		restored, err = u.userRepo.RestoreUser(ctx, userID)
		if err != nil {
			return err
		}

		return u.auditSink.Record(ctx, audit.UserRestored(restored, actor))
	})
	if err != nil {
		return nil, err
	}

	return restored, nil
}

// Statistics returns the denormalized counters for a user. A user without a
// profile yet reads as all zeros.
func (u *userUsecase) Statistics(ctx context.Context, user *model.User) (*model.Statistics, error) {
	profile, err := u.profileRepo.GetProfileByUserID(ctx, user.ID.Hex())
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return &model.Statistics{}, nil
		}

		return nil, err
	}

	return &model.Statistics{
		TotalBookmarks:     profile.TotalBookmarks,
		TotalContributions: profile.TotalContributions,
		TotalQuestions:     profile.TotalQuestions,
		TotalAnswers:       profile.TotalAnswers,
		ReputationScore:    profile.ReputationScore,
	}, nil
}

// IncrementStatistic adjusts one usage counter for the user.
func (u *userUsecase) IncrementStatistic(
	ctx context.Context,
	user *model.User,
	statName string,
	delta int64,
) error {
	return u.profileRepo.IncrementStatistic(ctx, user.ID.Hex(), statName, delta)
}
