package repository

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/learnhub/learnhub-api/internal/model"
)

// RoleRepository defines the interface for role reference data. Roles are
// only ever written through idempotent seeding from the canonical config.
type RoleRepository interface {
	GetRoleByName(ctx context.Context, name string) (*model.Role, error)
	GetOrCreateRole(ctx context.Context, config model.RoleConfig) (*model.Role, error)
	EnsureDefaultRoles(ctx context.Context) error
}

const roleCollection = "roles"

type roleMongoRepository struct {
	db *mongo.Database
}

// NewRoleMongoRepository creates the mongo-backed role repository and ensures
// the role-name unique index.
func NewRoleMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) RoleRepository {
	collection := db.Collection(roleCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create role indexes")
	}

	return &roleMongoRepository{db: db}
}

func (r *roleMongoRepository) GetRoleByName(ctx context.Context, name string) (*model.Role, error) {
	result := r.db.Collection(roleCollection).FindOne(ctx, bson.M{"name": name})
	if result.Err() != nil {
		return nil, result.Err()
	}

	var role model.Role
	if err := result.Decode(&role); err != nil {
		return nil, err
	}

	return &role, nil
}

// GetOrCreateRole returns the role with the config's name, inserting it with
// the config's description and permissions only when absent.
func (r *roleMongoRepository) GetOrCreateRole(ctx context.Context, config model.RoleConfig) (*model.Role, error) {
	now := time.Now()
	result := r.db.Collection(roleCollection).FindOneAndUpdate(
		ctx,
		bson.M{"name": config.Name},
		bson.M{"$setOnInsert": bson.M{
			"name":        config.Name,
			"description": config.Description,
			"permissions": config.Permissions,
			"created_at":  now,
			"updated_at":  now,
		}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var role model.Role
	if err := result.Decode(&role); err != nil {
		return nil, err
	}

	return &role, nil
}

// EnsureDefaultRoles seeds the closed role set. Safe to call on every startup.
func (r *roleMongoRepository) EnsureDefaultRoles(ctx context.Context) error {
	for _, name := range model.RoleNames {
		if _, err := r.GetOrCreateRole(ctx, model.DefaultRoleConfigs[name]); err != nil {
			return err
		}
	}

	return nil
}
