package database

import (
	"context"
	"fmt"
	"time"

	"modrelay-bot/internal/database/models"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	submissionCollectionName = "submissions"
	counterCollectionName    = "counters"
	submissionCounterID      = "submissions"
)

// MongoSubmissionRepository implements SubmissionRepository for MongoDB.
type MongoSubmissionRepository struct {
	collection *mongo.Collection
	counters   *mongo.Collection
}

// NewMongoSubmissionRepository creates a new MongoDB submission repository.
func NewMongoSubmissionRepository(db *mongo.Database) *MongoSubmissionRepository {
	return &MongoSubmissionRepository{
		collection: db.Collection(submissionCollectionName),
		counters:   db.Collection(counterCollectionName),
	}
}

// nextSeqID allocates the next monotonically increasing submission id from the
// counters collection.
func (r *MongoSubmissionRepository) nextSeqID(ctx context.Context) (int64, error) {
	var counter struct {
		Seq int64 `bson:"seq"`
	}
	err := r.counters.FindOneAndUpdate(ctx,
		bson.M{"_id": submissionCounterID},
		bson.M{"$inc": bson.M{"seq": 1}},
		options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After),
	).Decode(&counter)
	if err != nil {
		return 0, fmt.Errorf("failed to allocate submission id: %w", err)
	}
	return counter.Seq, nil
}

// CreateSubmission persists a new pending submission and assigns its sequence id.
func (r *MongoSubmissionRepository) CreateSubmission(ctx context.Context, submission *models.Submission) error {
	seq, err := r.nextSeqID(ctx)
	if err != nil {
		return err
	}
	submission.ID = primitive.NewObjectID()
	submission.SeqID = seq
	submission.Status = models.StatusPending
	submission.PublishMode = models.ModeUnset
	submission.SubmittedAt = time.Now()

	if _, err := r.collection.InsertOne(ctx, submission); err != nil {
		return fmt.Errorf("failed to insert submission %d: %w", seq, err)
	}
	return nil
}

// GetBySeqID retrieves a single submission by its sequence id.
func (r *MongoSubmissionRepository) GetBySeqID(ctx context.Context, seqID int64) (*models.Submission, error) {
	var submission models.Submission
	err := r.collection.FindOne(ctx, bson.M{"seq_id": seqID}).Decode(&submission)
	if err != nil {
		if err == mongo.ErrNoDocuments {
			return nil, ErrSubmissionNotFound
		}
		return nil, fmt.Errorf("failed to find submission %d: %w", seqID, err)
	}
	return &submission, nil
}

// ClaimDecision flips a pending submission into a terminal status in a single
// atomic operation. The filter on status makes the first caller win; later
// callers get *AlreadyDecidedError with the status the winner set.
func (r *MongoSubmissionRepository) ClaimDecision(ctx context.Context, seqID int64, status models.SubmissionStatus, mode models.PublishMode, adminID int64, adminName string) (*models.Submission, error) {
	update := bson.M{"$set": bson.M{
		"status":          status,
		"publish_mode":    mode,
		"decided_by":      adminID,
		"decided_by_name": adminName,
		"decided_at":      time.Now(),
	}}

	var claimed models.Submission
	err := r.collection.FindOneAndUpdate(ctx,
		bson.M{"seq_id": seqID, "status": models.StatusPending},
		update,
		options.FindOneAndUpdate().SetReturnDocument(options.After),
	).Decode(&claimed)
	if err == nil {
		return &claimed, nil
	}
	if err != mongo.ErrNoDocuments {
		return nil, fmt.Errorf("failed to claim decision for submission %d: %w", seqID, err)
	}

	// Either the id is unknown or someone already decided. Look it up to tell.
	current, getErr := r.GetBySeqID(ctx, seqID)
	if getErr != nil {
		return nil, getErr
	}
	return nil, &AlreadyDecidedError{Status: current.Status}
}

// SetStatus overwrites a submission's status.
func (r *MongoSubmissionRepository) SetStatus(ctx context.Context, seqID int64, status models.SubmissionStatus) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"seq_id": seqID},
		bson.M{"$set": bson.M{"status": status}},
	)
	if err != nil {
		return fmt.Errorf("failed to set status for submission %d: %w", seqID, err)
	}
	if result.MatchedCount == 0 {
		return ErrSubmissionNotFound
	}
	return nil
}

// SetAdminReply records an admin reply and whether it reached the submitter.
func (r *MongoSubmissionRepository) SetAdminReply(ctx context.Context, seqID int64, reply string, delivered bool) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"seq_id": seqID},
		bson.M{"$set": bson.M{"admin_reply": reply, "admin_reply_delivered": delivered}},
	)
	if err != nil {
		return fmt.Errorf("failed to set admin reply for submission %d: %w", seqID, err)
	}
	if result.MatchedCount == 0 {
		return ErrSubmissionNotFound
	}
	return nil
}

// AddAdminMessage appends one admin notification message reference.
func (r *MongoSubmissionRepository) AddAdminMessage(ctx context.Context, seqID int64, ref models.AdminMessageRef) error {
	result, err := r.collection.UpdateOne(ctx,
		bson.M{"seq_id": seqID},
		bson.M{"$push": bson.M{"admin_messages": ref}},
	)
	if err != nil {
		return fmt.Errorf("failed to add admin message ref for submission %d: %w", seqID, err)
	}
	if result.MatchedCount == 0 {
		return ErrSubmissionNotFound
	}
	return nil
}

// ListPending retrieves up to limit pending submissions plus the total pending count.
func (r *MongoSubmissionRepository) ListPending(ctx context.Context, limit int, newestFirst bool) ([]models.Submission, int64, error) {
	filter := bson.M{"status": models.StatusPending}

	totalCount, err := r.collection.CountDocuments(ctx, filter)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to count pending submissions: %w", err)
	}
	if totalCount == 0 {
		return []models.Submission{}, 0, nil
	}

	order := 1
	if newestFirst {
		order = -1
	}
	findOptions := options.Find().
		SetLimit(int64(limit)).
		SetSort(bson.D{{Key: "seq_id", Value: order}})

	cursor, err := r.collection.Find(ctx, filter, findOptions)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to find pending submissions: %w", err)
	}
	defer cursor.Close(ctx)

	var submissions []models.Submission
	if err = cursor.All(ctx, &submissions); err != nil {
		return nil, 0, fmt.Errorf("failed to decode pending submissions: %w", err)
	}
	return submissions, totalCount, nil
}

// CountByStatus aggregates submission counts per status.
func (r *MongoSubmissionRepository) CountByStatus(ctx context.Context) (map[models.SubmissionStatus]int64, error) {
	cursor, err := r.collection.Aggregate(ctx, mongo.Pipeline{
		{{Key: "$group", Value: bson.M{"_id": "$status", "count": bson.M{"$sum": 1}}}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate submission statuses: %w", err)
	}
	defer cursor.Close(ctx)

	var rows []struct {
		Status models.SubmissionStatus `bson:"_id"`
		Count  int64                   `bson:"count"`
	}
	if err := cursor.All(ctx, &rows); err != nil {
		return nil, fmt.Errorf("failed to decode status counts: %w", err)
	}

	counts := make(map[models.SubmissionStatus]int64, len(rows))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

// CountDistinctSubmitters returns the number of unique submitter ids seen.
func (r *MongoSubmissionRepository) CountDistinctSubmitters(ctx context.Context) (int64, error) {
	values, err := r.collection.Distinct(ctx, "submitter_id", bson.M{})
	if err != nil {
		return 0, fmt.Errorf("failed to count distinct submitters: %w", err)
	}
	return int64(len(values)), nil
}
