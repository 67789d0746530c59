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

// UserRepository defines the interface for user-related database operations.
// Lookups exclude soft-deleted users unless stated otherwise.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) (*model.User, error)
	GetUser(ctx context.Context, id string) (*model.User, error)
	GetUserByExternalID(ctx context.Context, externalID string) (*model.User, error)
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	UpdateUser(ctx context.Context, id string, params UpdateUserParams) (*model.User, error)
	SoftDeleteUser(ctx context.Context, id string, deletedBy *string) (*model.User, error)
	RestoreUser(ctx context.Context, id string) (*model.User, error)
	ListUsers(ctx context.Context, params FilterUsersParams) ([]*model.User, error)
}

// UpdateUserParams defines the optional parameters for updating a user.
// Only the fields that are not nil will be updated.
type UpdateUserParams struct {
	Email       *string
	DisplayName *string
	Active      *bool
	LastLoginAt *time.Time
}

// FilterUsersParams defines the parameters for filtering and paginating users.
type FilterUsersParams struct {
	Active   *bool
	IDs      []string
	Limit    uint64
	Offset   uint64
	SortBy   *string
	SortDesc bool
}

const userCollection = "users"

type userMongoRepository struct {
	db *mongo.Database
}

// NewUserMongoRepository creates the mongo-backed user repository and ensures
// its indexes. external_id and email are each unique among non-deleted users,
// which is what lets concurrent syncs race safely on insert.
func NewUserMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) UserRepository {
	collection := db.Collection(userCollection)

	notDeleted := bson.M{"deleted": false}
	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "external_id", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(notDeleted),
		},
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true).SetPartialFilterExpression(notDeleted),
		},
		{
			Keys: bson.D{{Key: "active", Value: 1}, {Key: "created_at", Value: -1}},
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create user indexes")
	}

	return &userMongoRepository{db: db}
}

func (r *userMongoRepository) CreateUser(ctx context.Context, user *model.User) (*model.User, error) {
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	result, err := r.db.Collection(userCollection).InsertOne(ctx, user)
	if err != nil {
		return nil, err
	}

	if objectID, ok := result.InsertedID.(bson.ObjectID); ok {
		user.ID = objectID
	} else {
		return nil, errors.New("failed to convert inserted ID to ObjectID")
	}

	return user, nil
}

func (r *userMongoRepository) GetUser(ctx context.Context, id string) (*model.User, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	return r.findOne(ctx, bson.M{"_id": objectID, "deleted": false})
}

func (r *userMongoRepository) GetUserByExternalID(ctx context.Context, externalID string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"external_id": externalID, "deleted": false})
}

func (r *userMongoRepository) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return r.findOne(ctx, bson.M{"email": email, "deleted": false})
}

func (r *userMongoRepository) findOne(ctx context.Context, filter bson.M) (*model.User, error) {
	result := r.db.Collection(userCollection).FindOne(ctx, filter)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var user model.User
	if err := result.Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userMongoRepository) UpdateUser(
	ctx context.Context,
	id string,
	params UpdateUserParams,
) (*model.User, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	// Build update query
	updateMap := bson.M{}
	if params.Email != nil {
		updateMap["email"] = *params.Email
	}
	if params.DisplayName != nil {
		updateMap["display_name"] = *params.DisplayName
	}
	if params.Active != nil {
		updateMap["active"] = *params.Active
	}
	if params.LastLoginAt != nil {
		updateMap["last_login_at"] = *params.LastLoginAt
	}

	if len(updateMap) == 0 {
		return nil, errors.New("no user fields to update")
	}

	updateMap["updated_at"] = time.Now()

	return r.findOneAndUpdate(ctx, bson.M{"_id": objectID, "deleted": false}, bson.M{"$set": updateMap})
}

func (r *userMongoRepository) SoftDeleteUser(
	ctx context.Context,
	id string,
	deletedBy *string,
) (*model.User, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	update := bson.M{"$set": bson.M{
		"deleted":    true,
		"deleted_at": now,
		"deleted_by": deletedBy,
		"updated_at": now,
	}}

	return r.findOneAndUpdate(ctx, bson.M{"_id": objectID, "deleted": false}, update)
}

func (r *userMongoRepository) RestoreUser(ctx context.Context, id string) (*model.User, error) {
	objectID, err := bson.ObjectIDFromHex(id)
	if err != nil {
		return nil, err
	}

	update := bson.M{
		"$set":   bson.M{"deleted": false, "updated_at": time.Now()},
		"$unset": bson.M{"deleted_at": "", "deleted_by": ""},
	}

	return r.findOneAndUpdate(ctx, bson.M{"_id": objectID, "deleted": true}, update)
}

func (r *userMongoRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (*model.User, error) {
	result := r.db.Collection(userCollection).FindOneAndUpdate(
		ctx,
		filter,
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var user model.User
	if err := result.Decode(&user); err != nil {
		return nil, err
	}

	return &user, nil
}

func (r *userMongoRepository) ListUsers(ctx context.Context, params FilterUsersParams) ([]*model.User, error) {
	findOptions := options.Find()

	limit := params.Limit
	if limit == 0 {
		limit = 10
	}
	findOptions.SetLimit(int64(limit))

	if params.Offset > 0 {
		findOptions.SetSkip(int64(params.Offset))
	}

	sortBy := "created_at"
	if params.SortBy != nil {
		sortBy = *params.SortBy
	}

	sortOrder := -1
	if !params.SortDesc {
		sortOrder = 1
	}
	findOptions.SetSort(bson.D{{Key: sortBy, Value: sortOrder}})

	// Build filter query
	filter := bson.M{"deleted": false}
	if params.Active != nil {
		filter["active"] = *params.Active
	}
	if len(params.IDs) > 0 {
		objectIDs := make([]bson.ObjectID, 0, len(params.IDs))
		for _, id := range params.IDs {
			objectID, err := bson.ObjectIDFromHex(id)
			if err != nil {
				return nil, err
			}
			objectIDs = append(objectIDs, objectID)
		}
		filter["_id"] = bson.M{"$in": objectIDs}
	}

	cursor, err := r.db.Collection(userCollection).Find(ctx, filter, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var users []*model.User
	for cursor.Next(ctx) {
		var user model.User
		if err := cursor.Decode(&user); err != nil {
			return nil, err
		}
		users = append(users, &user)
	}

	if err := cursor.Err(); err != nil {
		return nil, err
	}

	return users, nil
}
