package usecase

import (
	"context"
	"sync"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"

	"github.com/learnhub/learnhub-api/internal/audit"
	"github.com/learnhub/learnhub-api/internal/model"
	"github.com/learnhub/learnhub-api/internal/repository"
)

// In-memory repository fakes backing the usecase tests. They reproduce the
// two behaviors the usecases depend on: mongo.ErrNoDocuments on misses and
// duplicate-key errors on uniqueness violations.

var errDuplicateKey = mongo.CommandError{Code: 11000, Message: "duplicate key error"}

type fakeTransactor struct{}

func (fakeTransactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	return fn(ctx)
}

type recordingSink struct {
	mu     sync.Mutex
	events []audit.Event
}

func (s *recordingSink) Record(_ context.Context, event audit.Event) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, event)
	return nil
}

func (s *recordingSink) byAction(action string) []audit.Event {
	s.mu.Lock()
	defer s.mu.Unlock()

	var matched []audit.Event
	for _, event := range s.events {
		if event.Action == action {
			matched = append(matched, event)
		}
	}

	return matched
}

type fakeUserRepo struct {
	mu    sync.Mutex
	users map[string]*model.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: map[string]*model.User{}}
}

func (r *fakeUserRepo) CreateUser(_ context.Context, user *model.User) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, existing := range r.users {
		if existing.Deleted {
			continue
		}
		if existing.ExternalID == user.ExternalID || existing.Email == user.Email {
			return nil, errDuplicateKey
		}
	}

	stored := *user
	stored.ID = bson.NewObjectID()
	now := time.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.users[stored.ID.Hex()] = &stored

	copied := stored
	return &copied, nil
}

func (r *fakeUserRepo) GetUser(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok || user.Deleted {
		return nil, mongo.ErrNoDocuments
	}

	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) GetUserByExternalID(_ context.Context, externalID string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.ExternalID == externalID && !user.Deleted {
			copied := *user
			return &copied, nil
		}
	}

	return nil, mongo.ErrNoDocuments
}

func (r *fakeUserRepo) GetUserByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, user := range r.users {
		if user.Email == email && !user.Deleted {
			copied := *user
			return &copied, nil
		}
	}

	return nil, mongo.ErrNoDocuments
}

func (r *fakeUserRepo) UpdateUser(
	_ context.Context,
	id string,
	params repository.UpdateUserParams,
) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok || user.Deleted {
		return nil, mongo.ErrNoDocuments
	}

	if params.Email != nil {
		user.Email = *params.Email
	}
	if params.DisplayName != nil {
		user.DisplayName = *params.DisplayName
	}
	if params.Active != nil {
		user.Active = *params.Active
	}
	if params.LastLoginAt != nil {
		lastLogin := *params.LastLoginAt
		user.LastLoginAt = &lastLogin
	}
	user.UpdatedAt = time.Now()

	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) SoftDeleteUser(_ context.Context, id string, deletedBy *string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok || user.Deleted {
		return nil, mongo.ErrNoDocuments
	}

	now := time.Now()
	user.Deleted = true
	user.DeletedAt = &now
	user.DeletedBy = deletedBy
	user.UpdatedAt = now

	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) RestoreUser(_ context.Context, id string) (*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	user, ok := r.users[id]
	if !ok || !user.Deleted {
		return nil, mongo.ErrNoDocuments
	}

	user.Deleted = false
	user.DeletedAt = nil
	user.DeletedBy = nil
	user.UpdatedAt = time.Now()

	copied := *user
	return &copied, nil
}

func (r *fakeUserRepo) ListUsers(_ context.Context, params repository.FilterUsersParams) ([]*model.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	wanted := map[string]bool{}
	for _, id := range params.IDs {
		wanted[id] = true
	}

	var users []*model.User
	for id, user := range r.users {
		if user.Deleted {
			continue
		}
		if len(wanted) > 0 && !wanted[id] {
			continue
		}
		if params.Active != nil && user.Active != *params.Active {
			continue
		}
		copied := *user
		users = append(users, &copied)
	}

	return users, nil
}

type fakeProfileRepo struct {
	mu       sync.Mutex
	profiles map[string]*model.Profile
}

func newFakeProfileRepo() *fakeProfileRepo {
	return &fakeProfileRepo{profiles: map[string]*model.Profile{}}
}

func (r *fakeProfileRepo) EnsureProfile(_ context.Context, userID string) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	profile, ok := r.profiles[userID]
	if !ok {
		now := time.Now()
		profile = &model.Profile{
			ID:        bson.NewObjectID(),
			UserID:    userID,
			CreatedAt: now,
			UpdatedAt: now,
		}
		r.profiles[userID] = profile
	}

	copied := *profile
	return &copied, nil
}

func (r *fakeProfileRepo) GetProfileByUserID(_ context.Context, userID string) (*model.Profile, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	profile, ok := r.profiles[userID]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	copied := *profile
	return &copied, nil
}

func (r *fakeProfileRepo) UpdateProfile(
	ctx context.Context,
	userID string,
	params repository.UpdateProfileParams,
) (*model.Profile, error) {
	if _, err := r.EnsureProfile(ctx, userID); err != nil {
		return nil, err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	profile := r.profiles[userID]
	if params.Bio != nil {
		profile.Bio = *params.Bio
	}
	if params.AvatarURL != nil {
		profile.AvatarURL = *params.AvatarURL
	}
	if params.Location != nil {
		profile.Location = *params.Location
	}
	if params.Website != nil {
		profile.Website = *params.Website
	}
	if params.GithubUsername != nil {
		profile.GithubUsername = *params.GithubUsername
	}
	if params.LinkedinURL != nil {
		profile.LinkedinURL = *params.LinkedinURL
	}
	profile.UpdatedAt = time.Now()

	copied := *profile
	return &copied, nil
}

func (r *fakeProfileRepo) IncrementStatistic(
	ctx context.Context,
	userID, statName string,
	delta int64,
) error {
	if _, err := r.EnsureProfile(ctx, userID); err != nil {
		return err
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	profile := r.profiles[userID]
	switch statName {
	case repository.StatBookmarks:
		profile.TotalBookmarks += delta
	case repository.StatContributions:
		profile.TotalContributions += delta
	case repository.StatQuestions:
		profile.TotalQuestions += delta
	case repository.StatAnswers:
		profile.TotalAnswers += delta
	case repository.StatReputation:
		profile.ReputationScore += delta
	default:
		return repository.ErrUnknownStatistic
	}

	return nil
}

type fakeRoleRepo struct {
	mu    sync.Mutex
	roles map[string]*model.Role
}

func newFakeRoleRepo() *fakeRoleRepo {
	return &fakeRoleRepo{roles: map[string]*model.Role{}}
}

func (r *fakeRoleRepo) GetRoleByName(_ context.Context, name string) (*model.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	role, ok := r.roles[name]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	copied := *role
	return &copied, nil
}

func (r *fakeRoleRepo) GetOrCreateRole(_ context.Context, config model.RoleConfig) (*model.Role, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	role, ok := r.roles[config.Name]
	if !ok {
		now := time.Now()
		role = &model.Role{
			ID:          bson.NewObjectID(),
			Name:        config.Name,
			Description: config.Description,
			Permissions: config.Permissions,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		r.roles[config.Name] = role
	}

	copied := *role
	return &copied, nil
}

func (r *fakeRoleRepo) EnsureDefaultRoles(ctx context.Context) error {
	for _, name := range model.RoleNames {
		if _, err := r.GetOrCreateRole(ctx, model.DefaultRoleConfigs[name]); err != nil {
			return err
		}
	}

	return nil
}

type fakeAssignmentRepo struct {
	mu          sync.Mutex
	assignments map[string]*model.RoleAssignment
}

func newFakeAssignmentRepo() *fakeAssignmentRepo {
	return &fakeAssignmentRepo{assignments: map[string]*model.RoleAssignment{}}
}

func assignmentKey(userID, roleName string) string {
	return userID + "/" + roleName
}

func (r *fakeAssignmentRepo) CreateAssignment(
	_ context.Context,
	assignment *model.RoleAssignment,
) (*model.RoleAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := assignmentKey(assignment.UserID, assignment.RoleName)
	if _, ok := r.assignments[key]; ok {
		return nil, errDuplicateKey
	}

	stored := *assignment
	stored.ID = bson.NewObjectID()
	now := time.Now()
	stored.CreatedAt = now
	stored.UpdatedAt = now
	r.assignments[key] = &stored

	copied := stored
	return &copied, nil
}

func (r *fakeAssignmentRepo) GetAssignment(
	_ context.Context,
	userID, roleName string,
) (*model.RoleAssignment, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	assignment, ok := r.assignments[assignmentKey(userID, roleName)]
	if !ok {
		return nil, mongo.ErrNoDocuments
	}

	copied := *assignment
	return &copied, nil
}

func (r *fakeAssignmentRepo) DeleteAssignment(_ context.Context, userID, roleName string) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	key := assignmentKey(userID, roleName)
	if _, ok := r.assignments[key]; !ok {
		return false, nil
	}
	delete(r.assignments, key)

	return true, nil
}

func (r *fakeAssignmentRepo) ListRoleNames(_ context.Context, userID string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var names []string
	for _, assignment := range r.assignments {
		if assignment.UserID == userID {
			names = append(names, assignment.RoleName)
		}
	}

	return names, nil
}

func (r *fakeAssignmentRepo) ListUserIDsByRole(_ context.Context, roleName string) ([]string, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	var userIDs []string
	for _, assignment := range r.assignments {
		if assignment.RoleName == roleName {
			userIDs = append(userIDs, assignment.UserID)
		}
	}

	return userIDs, nil
}

// testEnv wires the usecases over shared in-memory fakes.
type testEnv struct {
	userRepo       *fakeUserRepo
	profileRepo    *fakeProfileRepo
	roleRepo       *fakeRoleRepo
	assignmentRepo *fakeAssignmentRepo
	sink           *recordingSink

	roleUsecase RoleUsecase
	syncUsecase SyncUsecase
	userUsecase UserUsecase
}

func newTestEnv() *testEnv {
	env := &testEnv{
		userRepo:       newFakeUserRepo(),
		profileRepo:    newFakeProfileRepo(),
		roleRepo:       newFakeRoleRepo(),
		assignmentRepo: newFakeAssignmentRepo(),
		sink:           &recordingSink{},
	}

	transactor := fakeTransactor{}
	env.roleUsecase = NewRoleUsecase(env.roleRepo, env.assignmentRepo, env.userRepo, transactor, env.sink)
	env.syncUsecase = NewSyncUsecase(env.userRepo, env.profileRepo, env.assignmentRepo, env.roleUsecase, transactor)
	env.userUsecase = NewUserUsecase(env.userRepo, env.profileRepo, transactor, env.sink)

	return env
}

// seedUser creates a user directly with the given roles, bypassing sync.
func (env *testEnv) seedUser(ctx context.Context, externalID, email string, roles ...string) *model.User {
	user, err := env.userRepo.CreateUser(ctx, &model.User{
		ExternalID:  externalID,
		Email:       email,
		DisplayName: email,
		Active:      true,
	})
	if err != nil {
		panic(err)
	}

	for _, roleName := range roles {
		role, err := env.roleRepo.GetOrCreateRole(ctx, model.DefaultRoleConfigs[roleName])
		if err != nil {
			panic(err)
		}
		if _, err := env.assignmentRepo.CreateAssignment(ctx, &model.RoleAssignment{
			UserID:   user.ID.Hex(),
			RoleID:   role.ID.Hex(),
			RoleName: roleName,
		}); err != nil {
			panic(err)
		}
	}

	user.Roles = roles
	return user
}
