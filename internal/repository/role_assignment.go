package repository

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"github.com/learnhub/learnhub-api/internal/model"
)

// RoleAssignmentRepository defines the interface for role assignment
// database operations. The (user_id, role_name) pair is unique; callers use
// mongo.IsDuplicateKeyError on CreateAssignment to detect races.
type RoleAssignmentRepository interface {
	CreateAssignment(ctx context.Context, assignment *model.RoleAssignment) (*model.RoleAssignment, error)
	GetAssignment(ctx context.Context, userID, roleName string) (*model.RoleAssignment, error)
	DeleteAssignment(ctx context.Context, userID, roleName string) (bool, error)
	ListRoleNames(ctx context.Context, userID string) ([]string, error)
	ListUserIDsByRole(ctx context.Context, roleName string) ([]string, error)
}

const roleAssignmentCollection = "user_roles"

type roleAssignmentMongoRepository struct {
	db *mongo.Database
}

// NewRoleAssignmentMongoRepository creates the mongo-backed role assignment
// repository and ensures the uniqueness index on (user_id, role_name).
func NewRoleAssignmentMongoRepository(
	ctx context.Context,
	logger *zerolog.Logger,
	db *mongo.Database,
) RoleAssignmentRepository {
	collection := db.Collection(roleAssignmentCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}, {Key: "role_name", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys: bson.D{{Key: "role_name", Value: 1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create role assignment indexes")
	}

	return &roleAssignmentMongoRepository{db: db}
}

func (r *roleAssignmentMongoRepository) CreateAssignment(
	ctx context.Context,
	assignment *model.RoleAssignment,
) (*model.RoleAssignment, error) {
	now := time.Now()
	assignment.CreatedAt = now
	assignment.UpdatedAt = now

	result, err := r.db.Collection(roleAssignmentCollection).InsertOne(ctx, assignment)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		assignment.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return assignment, nil
}

func (r *roleAssignmentMongoRepository) GetAssignment(
	ctx context.Context,
	userID, roleName string,
) (*model.RoleAssignment, error) {
	result := r.db.Collection(roleAssignmentCollection).FindOne(ctx, bson.M{
		"user_id":   userID,
		"role_name": roleName,
	})
	if result.Err() != nil {
		return nil, result.Err()
	}

	var assignment model.RoleAssignment
	if err := result.Decode(&assignment); err != nil {
		return nil, err
	}

	return &assignment, nil
}

// DeleteAssignment removes the assignment if present and reports whether a
// row was actually deleted.
func (r *roleAssignmentMongoRepository) DeleteAssignment(
	ctx context.Context,
	userID, roleName string,
) (bool, error) {
	result, err := r.db.Collection(roleAssignmentCollection).DeleteOne(ctx, bson.M{
		"user_id":   userID,
		"role_name": roleName,
	})
	if err != nil {
		return false, err
	}

	return result.DeletedCount > 0, nil
}

func (r *roleAssignmentMongoRepository) ListRoleNames(ctx context.Context, userID string) ([]string, error) {
	cursor, err := r.db.Collection(roleAssignmentCollection).Find(ctx, bson.M{"user_id": userID})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var names []string
	for cursor.Next(ctx) {
		var assignment model.RoleAssignment
		if err := cursor.Decode(&assignment); err != nil {
			return nil, err
		}
		names = append(names, assignment.RoleName)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return names, nil
}

func (r *roleAssignmentMongoRepository) ListUserIDsByRole(ctx context.Context, roleName string) ([]string, error) {
	cursor, err := r.db.Collection(roleAssignmentCollection).Find(ctx, bson.M{"role_name": roleName})
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var userIDs []string
	for cursor.Next(ctx) {
		var assignment model.RoleAssignment
		if err := cursor.Decode(&assignment); err != nil {
			return nil, err
		}
		userIDs = append(userIDs, assignment.UserID)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return userIDs, nil
}
