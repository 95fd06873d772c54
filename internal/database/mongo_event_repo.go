package database

import (
	"context"
	"fmt"
	"time"

	"modrelay-bot/internal/database/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
)

const eventCollectionName = "events"

// MongoEventLogger implements EventLogger on top of the events collection.
type MongoEventLogger struct {
	collection *mongo.Collection
}

// NewMongoEventLogger creates a new MongoDB event logger.
func NewMongoEventLogger(db *mongo.Database) *MongoEventLogger {
	return &MongoEventLogger{collection: db.Collection(eventCollectionName)}
}

// LogEvent appends one lifecycle event record.
func (l *MongoEventLogger) LogEvent(ctx context.Context, kind, details string) error {
	event := models.Event{
		Kind:       kind,
		Details:    details,
		RecordedAt: time.Now(),
	}
	if _, err := l.collection.InsertOne(ctx, event); err != nil {
		return fmt.Errorf("failed to log %s event: %w", kind, err)
	}
	return nil
}

// LogStartup records a process boot, distinguishing the very first start of
// this deployment from a restart.
func (l *MongoEventLogger) LogStartup(ctx context.Context, details string) error {
	prior, err := l.collection.CountDocuments(ctx, bson.M{})
	if err != nil {
		return fmt.Errorf("failed to count prior events: %w", err)
	}
	return l.LogEvent(ctx, startupEventKind(prior), details)
}

// startupEventKind classifies a boot by the number of events already recorded.
func startupEventKind(priorEvents int64) string {
	if priorEvents > 0 {
		return models.EventRestart
	}
	return models.EventStart
}
