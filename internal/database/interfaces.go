package database

import (
	"context"
	"errors"
	"fmt"

	"modrelay-bot/internal/database/models"
)

// ErrSubmissionNotFound indicates the requested submission id does not exist.
var ErrSubmissionNotFound = errors.New("submission not found")

// AlreadyDecidedError signals that a decision targeted a submission whose
// status is no longer pending. Status carries the current terminal status.
type AlreadyDecidedError struct {
	Status models.SubmissionStatus
}

func (e *AlreadyDecidedError) Error() string {
	return fmt.Sprintf("submission already decided: %s", e.Status)
}

// SubmissionRepository is the durable store for submissions.
// All mutations are keyed by the sequence id and atomic per record.
type SubmissionRepository interface {
	// CreateSubmission persists a new submission, assigning its sequence id and
	// submission time, and defaulting status to pending and publish mode to unset.
	CreateSubmission(ctx context.Context, submission *models.Submission) error

	// GetBySeqID returns the submission or ErrSubmissionNotFound.
	GetBySeqID(ctx context.Context, seqID int64) (*models.Submission, error)

	// ClaimDecision atomically transitions a pending submission to the given
	// terminal status, recording the publish mode and the deciding admin.
	// It returns the updated submission, or *AlreadyDecidedError if the
	// submission was no longer pending, or ErrSubmissionNotFound.
	ClaimDecision(ctx context.Context, seqID int64, status models.SubmissionStatus, mode models.PublishMode, adminID int64, adminName string) (*models.Submission, error)

	// SetStatus overwrites the status of a submission. Used only to downgrade a
	// claimed approval to error after a publish failure.
	SetStatus(ctx context.Context, seqID int64, status models.SubmissionStatus) error

	// SetAdminReply records the admin-composed reply text and its delivery outcome.
	SetAdminReply(ctx context.Context, seqID int64, reply string, delivered bool) error

	// AddAdminMessage appends a notification message reference for later edits.
	AddAdminMessage(ctx context.Context, seqID int64, ref models.AdminMessageRef) error

	// ListPending returns up to limit pending submissions, newest or oldest
	// first, along with the total pending count.
	ListPending(ctx context.Context, limit int, newestFirst bool) ([]models.Submission, int64, error)

	// CountByStatus returns the number of submissions per status.
	CountByStatus(ctx context.Context) (map[models.SubmissionStatus]int64, error)

	// CountDistinctSubmitters returns the number of unique submitter ids.
	CountDistinctSubmitters(ctx context.Context) (int64, error)
}

// EventLogger records coarse process lifecycle events for the uptime report.
type EventLogger interface {
	LogEvent(ctx context.Context, kind, details string) error
}
