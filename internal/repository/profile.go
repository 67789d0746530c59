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

// Statistic field names accepted by IncrementStatistic.
const (
	StatBookmarks     = "total_bookmarks"
	StatContributions = "total_contributions"
	StatQuestions     = "total_questions"
	StatAnswers       = "total_answers"
	StatReputation    = "reputation_score"
)

// ErrUnknownStatistic is returned for statistic names outside the allowed set.
var ErrUnknownStatistic = errors.New("unknown statistic field")

var allowedStatistics = map[string]bool{
	StatBookmarks:     true,
	StatContributions: true,
	StatQuestions:     true,
	StatAnswers:       true,
	StatReputation:    true,
}

// ProfileRepository defines the interface for profile-related database
// operations. Profiles are one-to-one with users and created lazily.
type ProfileRepository interface {
	EnsureProfile(ctx context.Context, userID string) (*model.Profile, error)
	GetProfileByUserID(ctx context.Context, userID string) (*model.Profile, error)
	UpdateProfile(ctx context.Context, userID string, params UpdateProfileParams) (*model.Profile, error)
	IncrementStatistic(ctx context.Context, userID, statName string, delta int64) error
}

// UpdateProfileParams defines the optional parameters for updating a profile.
// Only the fields that are not nil will be updated.
type UpdateProfileParams struct {
	Bio            *string
	AvatarURL      *string
	Location       *string
	Website        *string
	GithubUsername *string
	LinkedinURL    *string
}

const profileCollection = "user_profiles"

type profileMongoRepository struct {
	db *mongo.Database
}

// NewProfileMongoRepository creates the mongo-backed profile repository and
// ensures the one-profile-per-user unique index.
func NewProfileMongoRepository(ctx context.Context, logger *zerolog.Logger, db *mongo.Database) ProfileRepository {
	collection := db.Collection(profileCollection)

	indexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "user_id", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	_, err := collection.Indexes().CreateMany(ctx, indexes)
	if err != nil {
		logger.Fatal().Err(err).Msg("failed to create profile indexes")
	}

	return &profileMongoRepository{db: db}
}

// EnsureProfile returns the user's profile, creating an empty one if absent.
// The upsert keeps concurrent callers from creating two profiles.
func (r *profileMongoRepository) EnsureProfile(ctx context.Context, userID string) (*model.Profile, error) {
	now := time.Now()
	result := r.db.Collection(profileCollection).FindOneAndUpdate(
		ctx,
		bson.M{"user_id": userID},
		bson.M{"$setOnInsert": bson.M{
			"user_id":    userID,
			"created_at": now,
			"updated_at": now,
		}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var profile model.Profile
	if err := result.Decode(&profile); err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *profileMongoRepository) GetProfileByUserID(ctx context.Context, userID string) (*model.Profile, error) {
	result := r.db.Collection(profileCollection).FindOne(ctx, bson.M{"user_id": userID})
	if result.Err() != nil {
		return nil, result.Err()
	}

	var profile model.Profile
	if err := result.Decode(&profile); err != nil {
		return nil, err
	}

	return &profile, nil
}

func (r *profileMongoRepository) UpdateProfile(
	ctx context.Context,
	userID string,
	params UpdateProfileParams,
) (*model.Profile, error) {
	// Build update query
	updateMap := bson.M{}
	if params.Bio != nil {
		updateMap["bio"] = *params.Bio
	}
	if params.AvatarURL != nil {
		updateMap["avatar_url"] = *params.AvatarURL
	}
	if params.Location != nil {
		updateMap["location"] = *params.Location
	}
	if params.Website != nil {
		updateMap["website"] = *params.Website
	}
	if params.GithubUsername != nil {
		updateMap["github_username"] = *params.GithubUsername
	}
	if params.LinkedinURL != nil {
		updateMap["linkedin_url"] = *params.LinkedinURL
	}

	if len(updateMap) == 0 {
		return nil, errors.New("no profile fields to update")
	}

	now := time.Now()
	updateMap["updated_at"] = now

	result := r.db.Collection(profileCollection).FindOneAndUpdate(
		ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$set":         updateMap,
			"$setOnInsert": bson.M{"user_id": userID, "created_at": now},
		},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	)
	if result.Err() != nil {
		return nil, result.Err()
	}

	var profile model.Profile
	if err := result.Decode(&profile); err != nil {
		return nil, err
	}

	return &profile, nil
}

// IncrementStatistic adjusts one counter atomically, creating the profile on
// first use.
func (r *profileMongoRepository) IncrementStatistic(
	ctx context.Context,
	userID, statName string,
	delta int64,
) error {
	if !allowedStatistics[statName] {
		return ErrUnknownStatistic
	}

	now := time.Now()
	_, err := r.db.Collection(profileCollection).UpdateOne(
		ctx,
		bson.M{"user_id": userID},
		bson.M{
			"$inc":         bson.M{statName: delta},
			"$set":         bson.M{"updated_at": now},
			"$setOnInsert": bson.M{"user_id": userID, "created_at": now},
		},
		options.UpdateOne().SetUpsert(true),
	)

	return err
}
