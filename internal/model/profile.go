package model

import (
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// Profile holds the mutable, denormalized extension of a user: public-facing
// fields plus usage counters that are cheap to read back. Exactly one profile
// exists per user; it is created lazily on first need.
type Profile struct {
	ID             bson.ObjectID `bson:"_id,omitempty"`
	UserID         string        `bson:"user_id"`
	Bio            string        `bson:"bio"`
	AvatarURL      string        `bson:"avatar_url"`
	Location       string        `bson:"location"`
	Website        string        `bson:"website"`
	GithubUsername string        `bson:"github_username"`
	LinkedinURL    string        `bson:"linkedin_url"`

	// Denormalized statistics, adjusted with atomic increments.
	TotalBookmarks     int64 `bson:"total_bookmarks"`
	TotalContributions int64 `bson:"total_contributions"`
	TotalQuestions     int64 `bson:"total_questions"`
	TotalAnswers       int64 `bson:"total_answers"`
	ReputationScore    int64 `bson:"reputation_score"`

	CreatedAt time.Time `bson:"created_at"`
	UpdatedAt time.Time `bson:"updated_at"`
}

// Statistics is the read model for a profile's counters.
type Statistics struct {
	TotalBookmarks     int64 `json:"total_bookmarks"`
	TotalContributions int64 `json:"total_contributions"`
	TotalQuestions     int64 `json:"total_questions"`
	TotalAnswers       int64 `json:"total_answers"`
	ReputationScore    int64 `json:"reputation_score"`
}
