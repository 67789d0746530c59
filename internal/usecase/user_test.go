package usecase

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/learnhub/learnhub-api/internal/audit"
	"github.com/learnhub/learnhub-api/internal/model"
	"github.com/learnhub/learnhub-api/internal/repository"
)

func TestDeactivateAndActivate(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	admin := env.seedUser(ctx, "sb-admin", "admin@x.com", model.RoleAdmin)
	user := env.seedUser(ctx, "sb-1", "a@x.com", model.RoleStudent)

	deactivated, err := env.userUsecase.Deactivate(ctx, user, admin)
	require.NoError(t, err)
	assert.False(t, deactivated.Active)
	require.Len(t, env.sink.byAction(audit.ActionUserDeactivated), 1)

	activated, err := env.userUsecase.Activate(ctx, deactivated, admin)
	require.NoError(t, err)
	assert.True(t, activated.Active)
	require.Len(t, env.sink.byAction(audit.ActionUserActivated), 1)
}

func TestDeactivateSelfRejected(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	admin := env.seedUser(ctx, "sb-admin", "admin@x.com", model.RoleAdmin)

	_, err := env.userUsecase.Deactivate(ctx, admin, admin)
	require.ErrorIs(t, err, ErrSelfDeactivation)
	assert.Empty(t, env.sink.events)
}

func TestSoftDeleteAndRestore(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	admin := env.seedUser(ctx, "sb-admin", "admin@x.com", model.RoleAdmin)
	user := env.seedUser(ctx, "sb-1", "a@x.com", model.RoleStudent)

	deleted, err := env.userUsecase.SoftDelete(ctx, user, admin)
	require.NoError(t, err)
	assert.True(t, deleted.Deleted)
	require.NotNil(t, deleted.DeletedAt)
	require.NotNil(t, deleted.DeletedBy)
	assert.Equal(t, admin.ID.Hex(), *deleted.DeletedBy)
	require.Len(t, env.sink.byAction(audit.ActionUserDeleted), 1)

	// Soft-deleted users vanish from lookups but their row survives.
	_, err = env.userRepo.GetUser(ctx, user.ID.Hex())
	require.Error(t, err)

	restored, err := env.userUsecase.Restore(ctx, user.ID.Hex(), admin)
	require.NoError(t, err)
	assert.False(t, restored.Deleted)
	assert.Nil(t, restored.DeletedAt)
	require.Len(t, env.sink.byAction(audit.ActionUserRestored), 1)

	// Role assignments survive the delete/restore round trip.
	names, err := env.assignmentRepo.ListRoleNames(ctx, user.ID.Hex())
	require.NoError(t, err)
	assert.Equal(t, []string{model.RoleStudent}, names)
}

func TestStatisticsWithoutProfile(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user := env.seedUser(ctx, "sb-1", "a@x.com")

	stats, err := env.userUsecase.Statistics(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, &model.Statistics{}, stats)
}

func TestIncrementStatistic(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user := env.seedUser(ctx, "sb-1", "a@x.com")

	require.NoError(t, env.userUsecase.IncrementStatistic(ctx, user, repository.StatQuestions, 1))
	require.NoError(t, env.userUsecase.IncrementStatistic(ctx, user, repository.StatQuestions, 1))
	require.NoError(t, env.userUsecase.IncrementStatistic(ctx, user, repository.StatReputation, -5))

	stats, err := env.userUsecase.Statistics(ctx, user)
	require.NoError(t, err)
	assert.Equal(t, int64(2), stats.TotalQuestions)
	assert.Equal(t, int64(-5), stats.ReputationScore)
}

func TestIncrementStatisticRejectsUnknownField(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user := env.seedUser(ctx, "sb-1", "a@x.com")

	err := env.userUsecase.IncrementStatistic(ctx, user, "total_logins", 1)
	require.ErrorIs(t, err, repository.ErrUnknownStatistic)
}

func TestUpdateProfileCreatesLazily(t *testing.T) {
	env := newTestEnv()
	ctx := context.Background()
	user := env.seedUser(ctx, "sb-1", "a@x.com")

	bio := "hello"
	location := "Cairo"
	profile, err := env.userUsecase.UpdateProfile(ctx, user, repository.UpdateProfileParams{
		Bio:      &bio,
		Location: &location,
	})
	require.NoError(t, err)
	assert.Equal(t, "hello", profile.Bio)
	assert.Equal(t, "Cairo", profile.Location)
}
