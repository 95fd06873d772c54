package models

import (
	"time"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ContentKind is the media/category tag of a submission's payload.
type ContentKind string

const (
	KindText     ContentKind = "text"
	KindPhotoSet ContentKind = "photo_set"
	KindVideo    ContentKind = "video"
	KindVoice    ContentKind = "voice"
	KindDocument ContentKind = "document"
	KindSticker  ContentKind = "sticker"
)

// Valid reports whether k is one of the known content kinds.
func (k ContentKind) Valid() bool {
	switch k {
	case KindText, KindPhotoSet, KindVideo, KindVoice, KindDocument, KindSticker:
		return true
	}
	return false
}

// SubmissionStatus defines the lifecycle states of a submission.
// Pending is the only non-terminal state.
type SubmissionStatus string

const (
	StatusPending  SubmissionStatus = "pending"
	StatusApproved SubmissionStatus = "approved"
	StatusRejected SubmissionStatus = "rejected"
	StatusError    SubmissionStatus = "error"
)

// PublishMode records which delivery mode was chosen at decision time.
type PublishMode string

const (
	ModeUnset   PublishMode = ""
	ModeNormal  PublishMode = "normal"
	ModeForward PublishMode = "forward"
)

// AdminMessageRef points at one admin-facing notification message, so the
// notification can be edited after a decision.
type AdminMessageRef struct {
	AdminID   int64 `bson:"admin_id"`
	ChatID    int64 `bson:"chat_id"`
	MessageID int   `bson:"message_id"`
}

// Submission is the unit of moderation: one user-originated item (or batched
// media group) awaiting or having received a decision.
type Submission struct {
	ID    primitive.ObjectID `bson:"_id,omitempty"`
	SeqID int64              `bson:"seq_id"` // monotonically increasing, assigned at creation

	SubmitterID   int64  `bson:"submitter_id"`
	SubmitterName string `bson:"submitter_name"`
	Username      string `bson:"username,omitempty"`
	ChatID        int64  `bson:"chat_id"` // chat to acknowledge and deliver admin replies to

	Kind    ContentKind `bson:"kind"`
	Caption string      `bson:"caption,omitempty"`
	FileIDs []string    `bson:"file_ids"` // ordered; >1 only for photo_set, empty only for text

	Status      SubmissionStatus `bson:"status"`
	PublishMode PublishMode      `bson:"publish_mode,omitempty"`
	SubmittedAt time.Time        `bson:"submitted_at"`

	DecidedBy     int64     `bson:"decided_by,omitempty"`
	DecidedByName string    `bson:"decided_by_name,omitempty"`
	DecidedAt     time.Time `bson:"decided_at,omitempty"`

	AdminReply          string `bson:"admin_reply,omitempty"`
	AdminReplyDelivered bool   `bson:"admin_reply_delivered,omitempty"`

	AdminMessages []AdminMessageRef `bson:"admin_messages,omitempty"`
}

// ItemCount returns the number of content references, counting text as one item.
func (s *Submission) ItemCount() int {
	if s.Kind == KindText {
		return 1
	}
	return len(s.FileIDs)
}
