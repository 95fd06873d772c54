package moderation

import (
	"context"
	"fmt"
	"log"

	"modrelay-bot/internal/database/models"
	"modrelay-bot/internal/locales"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/nicksnyder/go-i18n/v2/i18n"
)

const timeLayout = "02.01.2006 15:04"

// notifyAdmins fans a new submission out to every configured administrator.
// A send failure to one admin is logged and does not block the others, and it
// never affects the submission status.
func (m *Manager) notifyAdmins(ctx context.Context, sub *models.Submission) {
	localizer := locales.NewLocalizer(locales.GetDefaultLanguageTag().String())
	text := buildSubmissionSummary(localizer, sub, "MsgNewSubmissionTitle")
	keyboard := decisionKeyboard(localizer, sub.SeqID, false)

	for _, adminID := range m.adminIDs {
		msg, err := m.bot.SendMessage(ctx, tu.Message(tu.ID(adminID), text).WithReplyMarkup(keyboard))
		if err != nil {
			log.Printf("[Notify Sub:%d] Failed to notify admin %d: %v", sub.SeqID, adminID, err)
			continue
		}
		ref := models.AdminMessageRef{AdminID: adminID, ChatID: adminID, MessageID: msg.MessageID}
		if err := m.repo.AddAdminMessage(ctx, sub.SeqID, ref); err != nil {
			log.Printf("[Notify Sub:%d] Failed to store notification ref for admin %d: %v", sub.SeqID, adminID, err)
		}
	}
}

// SendPendingList sends up to limit pending submissions to one admin, newest
// first, each with the full action keyboard.
func (m *Manager) SendPendingList(ctx context.Context, adminID, chatID int64, limit int) error {
	localizer := locales.NewLocalizer(locales.GetDefaultLanguageTag().String())

	pending, _, err := m.repo.ListPending(ctx, limit, true)
	if err != nil {
		return fmt.Errorf("failed to list pending submissions: %w", err)
	}
	if len(pending) == 0 {
		msg := locales.GetMessage(localizer, "MsgQueueEmpty", nil, nil)
		_, err := m.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), msg))
		return err
	}

	for i := range pending {
		sub := &pending[i]
		text := buildSubmissionSummary(localizer, sub, "MsgPendingSubmissionTitle")
		keyboard := decisionKeyboard(localizer, sub.SeqID, false)
		msg, err := m.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text).WithReplyMarkup(keyboard))
		if err != nil {
			log.Printf("[PendingList Admin:%d] Failed to send submission #%d: %v", adminID, sub.SeqID, err)
			continue
		}
		ref := models.AdminMessageRef{AdminID: adminID, ChatID: chatID, MessageID: msg.MessageID}
		if err := m.repo.AddAdminMessage(ctx, sub.SeqID, ref); err != nil {
			log.Printf("[PendingList Admin:%d] Failed to store notification ref for #%d: %v", adminID, sub.SeqID, err)
		}
	}
	return nil
}

// SendModeratePrompt sends the single oldest pending submission with decision
// controls plus a next button for stepping through the backlog in place.
func (m *Manager) SendModeratePrompt(ctx context.Context, adminID, chatID int64) error {
	localizer := locales.NewLocalizer(locales.GetDefaultLanguageTag().String())

	sub, err := m.oldestPending(ctx)
	if err != nil {
		return err
	}
	if sub == nil {
		msg := locales.GetMessage(localizer, "MsgQueueEmpty", nil, nil)
		_, err := m.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), msg))
		return err
	}

	text := buildSubmissionSummary(localizer, sub, "MsgPendingSubmissionTitle")
	keyboard := decisionKeyboard(localizer, sub.SeqID, true)
	msg, err := m.bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text).WithReplyMarkup(keyboard))
	if err != nil {
		return err
	}
	ref := models.AdminMessageRef{AdminID: adminID, ChatID: chatID, MessageID: msg.MessageID}
	if err := m.repo.AddAdminMessage(ctx, sub.SeqID, ref); err != nil {
		log.Printf("[Moderate Admin:%d] Failed to store notification ref for #%d: %v", adminID, sub.SeqID, err)
	}
	return nil
}

// editModeratePrompt replaces an existing moderation prompt with the oldest
// pending submission, or the empty-queue notice.
func (m *Manager) editModeratePrompt(ctx context.Context, adminID, chatID int64, messageID int) error {
	localizer := locales.NewLocalizer(locales.GetDefaultLanguageTag().String())

	sub, err := m.oldestPending(ctx)
	if err != nil {
		return err
	}
	if sub == nil {
		_, err := m.bot.EditMessageText(ctx, &telego.EditMessageTextParams{
			ChatID:    tu.ID(chatID),
			MessageID: messageID,
			Text:      locales.GetMessage(localizer, "MsgQueueEmpty", nil, nil),
		})
		return err
	}

	text := buildSubmissionSummary(localizer, sub, "MsgPendingSubmissionTitle")
	_, err = m.bot.EditMessageText(ctx, &telego.EditMessageTextParams{
		ChatID:      tu.ID(chatID),
		MessageID:   messageID,
		Text:        text,
		ReplyMarkup: decisionKeyboard(localizer, sub.SeqID, true),
	})
	if err != nil {
		return err
	}
	ref := models.AdminMessageRef{AdminID: adminID, ChatID: chatID, MessageID: messageID}
	if err := m.repo.AddAdminMessage(ctx, sub.SeqID, ref); err != nil {
		log.Printf("[Moderate Admin:%d] Failed to store notification ref for #%d: %v", adminID, sub.SeqID, err)
	}
	return nil
}

func (m *Manager) oldestPending(ctx context.Context) (*models.Submission, error) {
	pending, _, err := m.repo.ListPending(ctx, 1, false)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch oldest pending submission: %w", err)
	}
	if len(pending) == 0 {
		return nil, nil
	}
	return &pending[0], nil
}

// updateAdminNotifications rewrites every stored notification message for the
// submission with its final status and the acting admin. Best effort: edit
// failures are logged and skipped. Last writer wins on the shared surface.
func (m *Manager) updateAdminNotifications(ctx context.Context, sub *models.Submission, statusKey, actingAdmin string) {
	localizer := locales.NewLocalizer(locales.GetDefaultLanguageTag().String())
	statusLine := locales.GetMessage(localizer, "MsgStatusLine", map[string]interface{}{
		"Status": locales.GetMessage(localizer, statusKey, nil, nil),
		"Admin":  actingAdmin,
	}, nil)
	text := statusLine + "\n\n" + buildSubmissionSummary(localizer, sub, "MsgPendingSubmissionTitle")

	for _, ref := range sub.AdminMessages {
		_, err := m.bot.EditMessageText(ctx, &telego.EditMessageTextParams{
			ChatID:    tu.ID(ref.ChatID),
			MessageID: ref.MessageID,
			Text:      text,
		})
		if err != nil {
			log.Printf("[Notify Sub:%d] Failed to update notification for admin %d: %v", sub.SeqID, ref.AdminID, err)
		}
	}
}

// buildSubmissionSummary renders the admin-facing description of a submission.
func buildSubmissionSummary(localizer *i18n.Localizer, sub *models.Submission, titleKey string) string {
	caption := sub.Caption
	if caption == "" {
		caption = locales.GetMessage(localizer, "MsgNoCaptionPlaceholder", nil, nil)
	}
	username := sub.Username
	if username == "" {
		username = locales.GetMessage(localizer, "MsgNoUsernamePlaceholder", nil, nil)
	}

	title := locales.GetMessage(localizer, titleKey, nil, nil)
	body := locales.GetMessage(localizer, "MsgSubmissionSummary", map[string]interface{}{
		"ID":       sub.SeqID,
		"Name":     sub.SubmitterName,
		"Username": username,
		"UserID":   sub.SubmitterID,
		"Kind":     string(sub.Kind),
		"Items":    sub.ItemCount(),
		"Caption":  caption,
		"Time":     sub.SubmittedAt.Format(timeLayout),
	}, nil)
	return title + "\n\n" + body
}

// decisionKeyboard builds the action control set for one submission.
func decisionKeyboard(localizer *i18n.Localizer, seqID int64, withNext bool) *telego.InlineKeyboardMarkup {
	rows := [][]telego.InlineKeyboardButton{
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(locales.GetMessage(localizer, "BtnApproveNormal", nil, nil)).
				WithCallbackData(actionData(ActionApproveNormal, seqID)),
			tu.InlineKeyboardButton(locales.GetMessage(localizer, "BtnApproveForward", nil, nil)).
				WithCallbackData(actionData(ActionApproveForward, seqID)),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(locales.GetMessage(localizer, "BtnReply", nil, nil)).
				WithCallbackData(actionData(ActionReply, seqID)),
			tu.InlineKeyboardButton(locales.GetMessage(localizer, "BtnReject", nil, nil)).
				WithCallbackData(actionData(ActionReject, seqID)),
		),
		tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(locales.GetMessage(localizer, "BtnView", nil, nil)).
				WithCallbackData(actionData(ActionView, seqID)),
		),
	}
	if withNext {
		rows = append(rows, tu.InlineKeyboardRow(
			tu.InlineKeyboardButton(locales.GetMessage(localizer, "BtnNext", nil, nil)).
				WithCallbackData(actionData(ActionNext, seqID)),
		))
	}
	return &telego.InlineKeyboardMarkup{InlineKeyboard: rows}
}
