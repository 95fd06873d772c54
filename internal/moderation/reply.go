package moderation

import (
	"context"
	"log"

	"modrelay-bot/internal/locales"

	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// HandleAdminReply consumes a pending reply marker for the message author, if
// one is set, and relays the text to the submitter. Returns true when the
// message was consumed as a reply. The marker is cleared before the delivery
// attempt, so a failed send does not re-trigger on the admin's next message.
func (m *Manager) HandleAdminReply(ctx context.Context, message telego.Message) (bool, error) {
	if message.From == nil || message.Text == "" {
		return false, nil
	}
	adminID := message.From.ID

	seqID, ok := m.takeReplyMarker(adminID)
	if !ok {
		return false, nil
	}

	localizer := locales.NewLocalizer(locales.GetDefaultLanguageTag().String())

	sub, err := m.repo.GetBySeqID(ctx, seqID)
	if err != nil {
		log.Printf("[Reply Sub:%d Admin:%d] Lookup failed: %v", seqID, adminID, err)
		_, _ = m.bot.SendMessage(ctx, tu.Message(tu.ID(adminID),
			locales.GetMessage(localizer, "MsgErrorGeneral", nil, nil)))
		return true, err
	}

	banner := locales.GetMessage(localizer, "MsgAdminReplyBanner", nil, nil)
	_, sendErr := m.bot.SendMessage(ctx, tu.Message(tu.ID(sub.ChatID), banner+"\n\n"+message.Text))
	delivered := sendErr == nil
	if sendErr != nil {
		log.Printf("[Reply Sub:%d Admin:%d] Delivery to user %d failed: %v", seqID, adminID, sub.SubmitterID, sendErr)
	}

	if err := m.repo.SetAdminReply(ctx, seqID, message.Text, delivered); err != nil {
		log.Printf("[Reply Sub:%d Admin:%d] Failed to record reply: %v", seqID, adminID, err)
	}

	confirmKey := "MsgReplyDelivered"
	if !delivered {
		confirmKey = "MsgReplyDeliveryFailed"
	}
	confirm := locales.GetMessage(localizer, confirmKey, map[string]interface{}{"ID": seqID}, nil)
	if _, err := m.bot.SendMessage(ctx, tu.Message(tu.ID(adminID), confirm)); err != nil {
		log.Printf("[Reply Sub:%d Admin:%d] Failed to send confirmation: %v", seqID, adminID, err)
	}

	return true, sendErr
}
