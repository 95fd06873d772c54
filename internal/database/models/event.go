package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// Lifecycle event kinds recorded in the events collection. These feed the
// uptime report only and are never replayed.
const (
	EventStart   = "start"
	EventRestart = "restart"
	EventError   = "error"
)

// Event is one coarse-grained process lifecycle record.
type Event struct {
	ID         primitive.ObjectID `bson:"_id,omitempty"`
	Kind       string             `bson:"kind"`
	Details    string             `bson:"details,omitempty"`
	RecordedAt time.Time          `bson:"recorded_at"`
}
