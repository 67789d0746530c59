package audit

import (
	"context"
	"time"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

const auditCollection = "audit_log"

// Filter narrows an audit trail query. Zero values are ignored.
type Filter struct {
	EntityID string
	ActorID  string
	Action   string
	Since    time.Time
	Until    time.Time
	Limit    int64
}

// MongoSink persists audit events to an audit_log collection.
type MongoSink struct {
	db *mongo.Database
}

// NewMongoSink creates a Sink writing to the given database.
func NewMongoSink(db *mongo.Database) *MongoSink {
	return &MongoSink{db: db}
}

func (s *MongoSink) Record(ctx context.Context, event Event) error {
	_, err := s.db.Collection(auditCollection).InsertOne(ctx, event)
	return err
}

// Query returns audit events matching the filter, newest first.
func (s *MongoSink) Query(ctx context.Context, filter Filter) ([]Event, error) {
	query := bson.M{}
	if filter.EntityID != "" {
		query["entity_id"] = filter.EntityID
	}
	if filter.ActorID != "" {
		query["actor_id"] = filter.ActorID
	}
	if filter.Action != "" {
		query["action"] = filter.Action
	}

	timeRange := bson.M{}
	if !filter.Since.IsZero() {
		timeRange["$gte"] = filter.Since
	}
	if !filter.Until.IsZero() {
		timeRange["$lte"] = filter.Until
	}
	if len(timeRange) > 0 {
		query["timestamp"] = timeRange
	}

	limit := filter.Limit
	if limit == 0 {
		limit = 100
	}

	findOptions := options.Find().
		SetSort(bson.D{{Key: "timestamp", Value: -1}}).
		SetLimit(limit)

	cursor, err := s.db.Collection(auditCollection).Find(ctx, query, findOptions)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var events []Event
	if err := cursor.All(ctx, &events); err != nil {
		return nil, err
	}

	return events, nil
}
