package repository

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/mongo"
)

// Transactor runs a function inside one all-or-nothing unit. Usecases wrap
// multi-document mutations in it so partial state is never visible to other
// readers.
type Transactor interface {
	InTransaction(ctx context.Context, fn func(ctx context.Context) error) error
}

type mongoTransactor struct {
	client *mongo.Client
}

// NewMongoTransactor creates a Transactor backed by mongo client sessions.
// Multi-document transactions require a replica set or mongos deployment.
func NewMongoTransactor(client *mongo.Client) Transactor {
	return &mongoTransactor{client: client}
}

func (t *mongoTransactor) InTransaction(ctx context.Context, fn func(ctx context.Context) error) error {
	// Join the ambient transaction when one is already open on this context.
	if mongo.SessionFromContext(ctx) != nil {
		return fn(ctx)
	}

	session, err := t.client.StartSession()
	if err != nil {
		return err
	}
	defer session.EndSession(ctx)

	_, err = session.WithTransaction(ctx, func(ctx context.Context) (any, error) {
		return nil, fn(ctx)
	})

	return err
}
