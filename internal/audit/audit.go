// Package audit emits structured audit events for significant identity
// mutations. The core only emits; retention and rotation of the trail belong
// to whichever sink is wired in.
package audit

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/learnhub/learnhub-api/internal/model"
)

// Action kinds recorded on audit events.
const (
	ActionRoleAssigned    = "role_assigned"
	ActionRoleRevoked     = "role_revoked"
	ActionUserActivated   = "user_activated"
	ActionUserDeactivated = "user_deactivated"
	ActionUserDeleted     = "user_deleted"
	ActionUserRestored    = "user_restored"
)

// Event is one audit trail entry: what happened, to which entity, by whom,
// with before/after snapshot fragments for mutations.
type Event struct {
	ID         string         `bson:"_id"`
	EntityType string         `bson:"entity_type"`
	EntityID   string         `bson:"entity_id"`
	Action     string         `bson:"action"`
	ActorID    *string        `bson:"actor_id,omitempty"`
	OldData    map[string]any `bson:"old_data,omitempty"`
	NewData    map[string]any `bson:"new_data,omitempty"`
	Metadata   map[string]any `bson:"metadata,omitempty"`
	Timestamp  time.Time      `bson:"timestamp"`
}

// Sink receives audit events. Implementations must tolerate concurrent calls.
type Sink interface {
	Record(ctx context.Context, event Event) error
}

// NewEvent builds an event with a fresh id and timestamp. A nil actor marks
// a system-originated action.
func NewEvent(entityType, entityID, action string, actor *model.User) Event {
	e := Event{
		ID:         uuid.NewString(),
		EntityType: entityType,
		EntityID:   entityID,
		Action:     action,
		Timestamp:  time.Now(),
	}
	if actor != nil {
		id := actor.ID.Hex()
		e.ActorID = &id
	}

	return e
}

// RoleAssigned builds the audit event for a role grant.
func RoleAssigned(user *model.User, roleName string, actor *model.User) Event {
	e := NewEvent("user", user.ID.Hex(), ActionRoleAssigned, actor)
	e.NewData = map[string]any{"role_added": roleName}
	return e
}

// RoleRevoked builds the audit event for a role revocation.
func RoleRevoked(user *model.User, roleName string, actor *model.User) Event {
	e := NewEvent("user", user.ID.Hex(), ActionRoleRevoked, actor)
	e.OldData = map[string]any{"role_removed": roleName}
	return e
}

// UserActivated builds the audit event for an account activation.
func UserActivated(user *model.User, actor *model.User) Event {
	e := NewEvent("user", user.ID.Hex(), ActionUserActivated, actor)
	e.OldData = map[string]any{"active": false}
	e.NewData = map[string]any{"active": true}
	return e
}

// UserDeactivated builds the audit event for an account deactivation.
func UserDeactivated(user *model.User, actor *model.User) Event {
	e := NewEvent("user", user.ID.Hex(), ActionUserDeactivated, actor)
	e.OldData = map[string]any{"active": true}
	e.NewData = map[string]any{"active": false}
	return e
}

// UserDeleted builds the audit event for a soft deletion.
func UserDeleted(user *model.User, actor *model.User) Event {
	e := NewEvent("user", user.ID.Hex(), ActionUserDeleted, actor)
	e.NewData = map[string]any{"deleted": true}
	return e
}

// UserRestored builds the audit event for restoring a soft-deleted user.
func UserRestored(user *model.User, actor *model.User) Event {
	e := NewEvent("user", user.ID.Hex(), ActionUserRestored, actor)
	e.NewData = map[string]any{"deleted": false}
	return e
}

// Fanout returns a Sink that records each event to every given sink. The
// first failure aborts the fan-out so the caller's transaction rolls back.
func Fanout(sinks ...Sink) Sink {
	return fanoutSink(sinks)
}

type fanoutSink []Sink

func (s fanoutSink) Record(ctx context.Context, event Event) error {
	for _, sink := range s {
		if err := sink.Record(ctx, event); err != nil {
			return err
		}
	}

	return nil
}

// LogSink writes audit events to a structured logger.
type LogSink struct {
	logger *zerolog.Logger
}

// NewLogSink creates a Sink backed by the given logger.
func NewLogSink(logger *zerolog.Logger) *LogSink {
	return &LogSink{logger: logger}
}

func (s *LogSink) Record(_ context.Context, event Event) error {
	entry := s.logger.Info().
		Str("audit_id", event.ID).
		Str("entity_type", event.EntityType).
		Str("entity_id", event.EntityID).
		Str("action", event.Action).
		Time("timestamp", event.Timestamp)

	if event.ActorID != nil {
		entry = entry.Str("actor_id", *event.ActorID)
	}
	if event.OldData != nil {
		entry = entry.Interface("old_data", event.OldData)
	}
	if event.NewData != nil {
		entry = entry.Interface("new_data", event.NewData)
	}
	if event.Metadata != nil {
		entry = entry.Interface("metadata", event.Metadata)
	}

	entry.Msg("audit event")

	return nil
}
