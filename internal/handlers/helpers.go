package handlers

import (
	"context"
	"log"

	"modrelay-bot/internal/locales"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"github.com/nicksnyder/go-i18n/v2/i18n"

	telegoapi "modrelay-bot/pkg/telegoapi"
)

// sendSuccess sends a plain text message to the user.
func (h *MessageHandler) sendSuccess(ctx context.Context, bot telegoapi.BotAPI, chatID int64, text string) error {
	_, err := bot.SendMessage(ctx, tu.Message(tu.ID(chatID), text))
	if err != nil {
		log.Printf("Error sending message to chat %d: %v", chatID, err)
	}
	return nil
}

// sendError logs the original error and sends a generic localized error
// message to the user. The original error is returned for the update loop.
func (h *MessageHandler) sendError(ctx context.Context, bot telegoapi.BotAPI, chatID int64, originalErr error) error {
	log.Printf("Error for user in chat %d: %v", chatID, originalErr)

	localizer := locales.NewLocalizer(locales.GetDefaultLanguageTag().String())
	errMsg := locales.GetMessage(localizer, "MsgErrorGeneral", nil, nil)

	_, sendErr := bot.SendMessage(ctx, tu.Message(tu.ID(chatID), errMsg))
	if sendErr != nil {
		log.Printf("Error sending generic error message to chat %d: %v", chatID, sendErr)
	}

	return originalErr
}

// getLocalizer picks a localizer for the user, falling back to the default
// language when the user's language code is empty or unsupported.
func (h *MessageHandler) getLocalizer(user *telego.User) *i18n.Localizer {
	lang := locales.GetDefaultLanguageTag().String()
	if user != nil && user.LanguageCode != "" {
		lang = user.LanguageCode
	}
	return locales.NewLocalizer(lang)
}

// isAdmin resolves the admin status of a user, treating checker errors as
// non-admin.
func (h *MessageHandler) isAdmin(ctx context.Context, userID int64) bool {
	isAdmin, err := h.adminChecker.IsAdmin(ctx, userID)
	if err != nil {
		log.Printf("[User:%d] Admin check failed: %v. Assuming non-admin.", userID, err)
		return false
	}
	return isAdmin
}
