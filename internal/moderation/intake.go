package moderation

import (
	"context"
	"fmt"
	"log"

	"modrelay-bot/internal/database/models"
	"modrelay-bot/internal/locales"

	"github.com/getsentry/sentry-go"
	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// HandleIncomingContent processes a non-command message from a submitter and
// turns it into a pending submission. Returns processed=false when the message
// carries no content this system accepts.
func (m *Manager) HandleIncomingContent(ctx context.Context, message telego.Message) (processed bool, err error) {
	if message.From == nil {
		return false, nil
	}
	userID := message.From.ID
	chatID := message.Chat.ID
	localizer := locales.NewLocalizer(locales.GetDefaultLanguageTag().String())

	// Multi-item albums are buffered and flushed as one photo-set submission.
	if message.MediaGroupID != "" {
		if len(message.Photo) == 0 {
			log.Printf("[Intake User:%d] Non-photo part of media group %s ignored", userID, message.MediaGroupID)
			return true, nil
		}
		if err := m.mediaGroupMgr.Ingest(message, m.processPhotoGroup); err != nil {
			log.Printf("[Intake User:%d] Error buffering media group %s: %v", userID, message.MediaGroupID, err)
			return true, err
		}
		return true, nil
	}

	submission, ok := submissionFromMessage(&message)
	if !ok {
		msg := locales.GetMessage(localizer, "MsgUnsupportedContent", nil, nil)
		_, sendErr := m.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), msg))
		return true, sendErr
	}

	if err := m.repo.CreateSubmission(ctx, submission); err != nil {
		log.Printf("[Intake User:%d] Error saving submission: %v", userID, err)
		sentry.CaptureException(fmt.Errorf("failed to save submission from user %d: %w", userID, err))
		errorMsg := locales.GetMessage(localizer, "MsgErrorGeneral", nil, nil)
		_, _ = m.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), errorMsg))
		return true, err
	}
	m.metrics.IncSubmissions()
	log.Printf("[Intake User:%d] Created submission #%d (%s)", userID, submission.SeqID, submission.Kind)

	ackMsg := locales.GetMessage(localizer, "MsgSubmissionReceived", map[string]interface{}{
		"ID": submission.SeqID,
	}, nil)
	if _, err := m.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), ackMsg)); err != nil {
		log.Printf("[Intake User:%d] Error sending acknowledgment for #%d: %v", userID, submission.SeqID, err)
	}

	m.notifyAdmins(ctx, submission)
	return true, nil
}

// processPhotoGroup is the media group flush handler: it collapses the buffered
// album into a single photo-set submission.
func (m *Manager) processPhotoGroup(ctx context.Context, groupID string, msgs []telego.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	first := msgs[0]
	userID := first.From.ID
	chatID := first.Chat.ID
	localizer := locales.NewLocalizer(locales.GetDefaultLanguageTag().String())

	fileIDs := make([]string, 0, len(msgs))
	// Telegram attaches an album caption to one arbitrary part, not
	// necessarily the first.
	var caption string
	for _, msg := range msgs {
		if len(msg.Photo) > 0 {
			fileIDs = append(fileIDs, msg.Photo[len(msg.Photo)-1].FileID)
		}
		if msg.Caption != "" {
			caption = msg.Caption
		}
	}
	if len(fileIDs) == 0 {
		return fmt.Errorf("no valid photos in media group %s", groupID)
	}

	submission := &models.Submission{
		SubmitterID:   userID,
		SubmitterName: first.From.FirstName,
		Username:      first.From.Username,
		ChatID:        chatID,
		Kind:          models.KindPhotoSet,
		Caption:       caption,
		FileIDs:       fileIDs,
	}

	if err := m.repo.CreateSubmission(ctx, submission); err != nil {
		log.Printf("[Intake Group:%s User:%d] Error saving submission: %v", groupID, userID, err)
		sentry.CaptureException(fmt.Errorf("failed to save media group submission for group %s: %w", groupID, err))
		errorMsg := locales.GetMessage(localizer, "MsgErrorGeneral", nil, nil)
		_, _ = m.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), errorMsg))
		return err
	}
	m.metrics.IncSubmissions()
	log.Printf("[Intake Group:%s User:%d] Created submission #%d with %d photos", groupID, userID, submission.SeqID, len(fileIDs))

	ackMsg := locales.GetMessage(localizer, "MsgMediaGroupReceived", map[string]interface{}{
		"ID":    submission.SeqID,
		"Count": len(fileIDs),
	}, nil)
	if _, err := m.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), ackMsg)); err != nil {
		log.Printf("[Intake Group:%s User:%d] Error sending acknowledgment: %v", groupID, userID, err)
	}

	m.notifyAdmins(ctx, submission)
	return nil
}

// submissionFromMessage classifies a single message into a submission.
// ok is false for content kinds this system does not accept.
func submissionFromMessage(message *telego.Message) (*models.Submission, bool) {
	submission := &models.Submission{
		SubmitterID:   message.From.ID,
		SubmitterName: message.From.FirstName,
		Username:      message.From.Username,
		ChatID:        message.Chat.ID,
		Caption:       message.Caption,
	}

	switch {
	case message.Text != "":
		submission.Kind = models.KindText
		submission.Caption = message.Text
		submission.FileIDs = nil
	case len(message.Photo) > 0:
		submission.Kind = models.KindPhotoSet
		submission.FileIDs = []string{message.Photo[len(message.Photo)-1].FileID}
	case message.Video != nil:
		submission.Kind = models.KindVideo
		submission.FileIDs = []string{message.Video.FileID}
	case message.Voice != nil:
		submission.Kind = models.KindVoice
		submission.FileIDs = []string{message.Voice.FileID}
	case message.Document != nil:
		submission.Kind = models.KindDocument
		submission.FileIDs = []string{message.Document.FileID}
	case message.Sticker != nil:
		submission.Kind = models.KindSticker
		submission.FileIDs = []string{message.Sticker.FileID}
	default:
		return nil, false
	}
	return submission, true
}
