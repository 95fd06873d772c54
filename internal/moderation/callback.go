package moderation

import (
	"context"
	"log"

	"modrelay-bot/internal/locales"

	"github.com/mymmrac/telego"
)

// HandleCallbackQuery handles admin action button presses. Returns true if the
// callback data belongs to the moderation action namespace, whether or not the
// action succeeded.
func (m *Manager) HandleCallbackQuery(ctx context.Context, query telego.CallbackQuery) (processed bool, err error) {
	action, seqID, ok, parseErr := parseAction(query.Data)
	if !ok {
		return false, nil
	}

	adminID := query.From.ID
	localizer := locales.NewLocalizer(locales.GetDefaultLanguageTag().String())

	// Permission gate first: any actor outside the admin set is rejected with
	// no state change, regardless of the action.
	isAdmin, err := m.adminChecker.IsAdmin(ctx, adminID)
	if err != nil {
		log.Printf("[Callback User:%d] Error checking admin status: %v", adminID, err)
		_ = m.answerCallbackQuery(ctx, query.ID, locales.GetMessage(localizer, "MsgErrorGeneral", nil, nil), true)
		return true, err
	}
	if !isAdmin {
		log.Printf("[Callback User:%d] Permission denied for action %q", adminID, query.Data)
		_ = m.answerCallbackQuery(ctx, query.ID, locales.GetMessage(localizer, "MsgPermissionDenied", nil, nil), true)
		return true, nil
	}

	if parseErr != nil {
		log.Printf("[Callback Admin:%d] %v", adminID, parseErr)
		_ = m.answerCallbackQuery(ctx, query.ID, locales.GetMessage(localizer, "MsgErrorGeneral", nil, nil), true)
		return true, parseErr
	}

	log.Printf("[Callback Admin:%d] Action=%s Sub=%d", adminID, action, seqID)

	switch action {
	case ActionApproveNormal:
		return true, m.handleApprove(ctx, query, seqID, false)
	case ActionApproveForward:
		return true, m.handleApprove(ctx, query, seqID, true)
	case ActionReject:
		return true, m.handleReject(ctx, query, seqID)
	case ActionView:
		return true, m.handleView(ctx, query, seqID)
	case ActionReply:
		return true, m.handleEnterReplyMode(ctx, query, seqID)
	case ActionNext:
		return true, m.handleNext(ctx, query)
	default:
		// parseAction only admits known actions; keep the guard anyway.
		_ = m.answerCallbackQuery(ctx, query.ID, locales.GetMessage(localizer, "MsgCallbackNotHandled", nil, nil), true)
		return true, nil
	}
}

// answerCallbackQuery is a helper to answer callback queries.
func (m *Manager) answerCallbackQuery(ctx context.Context, queryID, text string, showAlert bool) error {
	err := m.bot.AnswerCallbackQuery(ctx, &telego.AnswerCallbackQueryParams{
		CallbackQueryID: queryID,
		Text:            text,
		ShowAlert:       showAlert,
	})
	if err != nil {
		log.Printf("Error answering callback query %s: %v", queryID, err)
	}
	return err
}

// callbackMessageRef extracts the chat and message id the callback buttons
// were attached to, when the message is still accessible.
func callbackMessageRef(query telego.CallbackQuery) (chatID int64, messageID int, ok bool) {
	if query.Message == nil {
		return 0, 0, false
	}
	msg, isMsg := query.Message.(*telego.Message)
	if !isMsg || msg == nil {
		return 0, 0, false
	}
	return msg.Chat.ID, msg.MessageID, true
}
