package moderation

import (
	"context"
	"errors"
	"fmt"
	"log"

	"modrelay-bot/internal/database"
	"modrelay-bot/internal/database/models"
	"modrelay-bot/internal/locales"

	"github.com/getsentry/sentry-go"
	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
)

// handleApprove processes an approval in either delivery mode. The atomic
// claim happens before any send: the first admin to flip the status wins, a
// loser observes already-decided and causes no side effect.
func (m *Manager) handleApprove(ctx context.Context, query telego.CallbackQuery, seqID int64, forward bool) error {
	adminID := query.From.ID
	adminName := adminDisplayName(&query.From)
	localizer := locales.NewLocalizer(locales.GetDefaultLanguageTag().String())

	mode := models.ModeNormal
	if forward {
		mode = models.ModeForward
	}

	claimed, err := m.repo.ClaimDecision(ctx, seqID, models.StatusApproved, mode, adminID, adminName)
	if err != nil {
		return m.reportClaimFailure(ctx, query.ID, seqID, err)
	}
	m.metrics.IncDecisions()

	if err := m.publishSubmission(ctx, claimed, mode, adminID); err != nil {
		log.Printf("[Approve Sub:%d Admin:%d] Publish failed: %v", seqID, adminID, err)
		sentry.CaptureException(fmt.Errorf("publish failed for submission %d: %w", seqID, err))
		m.metrics.IncPublishErrors()

		if setErr := m.repo.SetStatus(ctx, seqID, models.StatusError); setErr != nil {
			log.Printf("[Approve Sub:%d] Failed to record error status: %v", seqID, setErr)
		}
		claimed.Status = models.StatusError

		failedMsg := locales.GetMessage(localizer, "MsgDecisionPublishFailed", map[string]interface{}{"Admin": adminName}, nil)
		_ = m.answerCallbackQuery(ctx, query.ID, failedMsg, true)
		m.updateAdminNotifications(ctx, claimed, "MsgStatusError", adminName)
		return err
	}

	outcomeKey := "MsgDecisionPublished"
	if forward {
		outcomeKey = "MsgDecisionForwarded"
	}
	outcomeMsg := locales.GetMessage(localizer, outcomeKey, map[string]interface{}{"Admin": adminName}, nil)
	_ = m.answerCallbackQuery(ctx, query.ID, outcomeMsg, false)
	m.updateAdminNotifications(ctx, claimed, "MsgStatusApproved", adminName)

	log.Printf("[Approve Sub:%d Admin:%d] Approved (mode=%s)", seqID, adminID, mode)
	return nil
}

// handleReject rejects a pending submission. No publisher call.
func (m *Manager) handleReject(ctx context.Context, query telego.CallbackQuery, seqID int64) error {
	adminID := query.From.ID
	adminName := adminDisplayName(&query.From)
	localizer := locales.NewLocalizer(locales.GetDefaultLanguageTag().String())

	claimed, err := m.repo.ClaimDecision(ctx, seqID, models.StatusRejected, models.ModeUnset, adminID, adminName)
	if err != nil {
		return m.reportClaimFailure(ctx, query.ID, seqID, err)
	}
	m.metrics.IncDecisions()

	rejectedMsg := locales.GetMessage(localizer, "MsgDecisionRejected", map[string]interface{}{"Admin": adminName}, nil)
	_ = m.answerCallbackQuery(ctx, query.ID, rejectedMsg, false)
	m.updateAdminNotifications(ctx, claimed, "MsgStatusRejected", adminName)

	log.Printf("[Reject Sub:%d Admin:%d] Rejected", seqID, adminID)
	return nil
}

// handleView sends the full submission detail, content included, to the
// requesting admin. Non-transitioning; safe in any status.
func (m *Manager) handleView(ctx context.Context, query telego.CallbackQuery, seqID int64) error {
	adminID := query.From.ID
	localizer := locales.NewLocalizer(locales.GetDefaultLanguageTag().String())

	sub, err := m.repo.GetBySeqID(ctx, seqID)
	if err != nil {
		_ = m.answerCallbackQuery(ctx, query.ID, locales.GetMessage(localizer, "MsgErrorGeneral", nil, nil), true)
		return err
	}

	header := locales.GetMessage(localizer, "MsgViewHeader", map[string]interface{}{
		"ID":     sub.SeqID,
		"Status": string(sub.Status),
	}, nil)
	detail := header + "\n\n" + buildSubmissionSummary(localizer, sub, "MsgPendingSubmissionTitle")
	if _, err := m.bot.SendMessage(ctx, tu.Message(tu.ID(adminID), detail)); err != nil {
		_ = m.answerCallbackQuery(ctx, query.ID, locales.GetMessage(localizer, "MsgErrorGeneral", nil, nil), true)
		return err
	}

	// Text content is already in the summary; media kinds get the payload too.
	if sub.Kind != models.KindText {
		if err := m.sendSubmissionContent(ctx, adminID, sub, ""); err != nil {
			log.Printf("[View Sub:%d Admin:%d] Failed to send content: %v", seqID, adminID, err)
			_ = m.answerCallbackQuery(ctx, query.ID, locales.GetMessage(localizer, "MsgErrorGeneral", nil, nil), true)
			return err
		}
	}

	return m.answerCallbackQuery(ctx, query.ID, "", false)
}

// handleEnterReplyMode marks the admin's next free-text message as a reply to
// this submission. Non-transitioning.
func (m *Manager) handleEnterReplyMode(ctx context.Context, query telego.CallbackQuery, seqID int64) error {
	adminID := query.From.ID
	localizer := locales.NewLocalizer(locales.GetDefaultLanguageTag().String())

	if _, err := m.repo.GetBySeqID(ctx, seqID); err != nil {
		_ = m.answerCallbackQuery(ctx, query.ID, locales.GetMessage(localizer, "MsgErrorGeneral", nil, nil), true)
		return err
	}

	m.SetReplyMarker(adminID, seqID)
	_ = m.answerCallbackQuery(ctx, query.ID, "", false)

	prompt := locales.GetMessage(localizer, "MsgReplyModePrompt", map[string]interface{}{"ID": seqID}, nil)
	_, err := m.bot.SendMessage(ctx, tu.Message(tu.ID(adminID), prompt))
	return err
}

// handleNext advances an in-place moderation prompt to the oldest pending
// submission. Non-transitioning.
func (m *Manager) handleNext(ctx context.Context, query telego.CallbackQuery) error {
	adminID := query.From.ID
	_ = m.answerCallbackQuery(ctx, query.ID, "", false)

	chatID, messageID, ok := callbackMessageRef(query)
	if !ok {
		// Prompt message no longer accessible; send a fresh one instead.
		return m.SendModeratePrompt(ctx, adminID, adminID)
	}
	return m.editModeratePrompt(ctx, adminID, chatID, messageID)
}

// reportClaimFailure answers the callback for a failed decision claim:
// already-decided names the current status, everything else is a general error.
func (m *Manager) reportClaimFailure(ctx context.Context, queryID string, seqID int64, err error) error {
	localizer := locales.NewLocalizer(locales.GetDefaultLanguageTag().String())

	var decided *database.AlreadyDecidedError
	if errors.As(err, &decided) {
		log.Printf("[Decision Sub:%d] Already decided: %s", seqID, decided.Status)
		msg := locales.GetMessage(localizer, "MsgAlreadyDecided", map[string]interface{}{
			"Status": string(decided.Status),
		}, nil)
		_ = m.answerCallbackQuery(ctx, queryID, msg, true)
		return nil
	}

	log.Printf("[Decision Sub:%d] Claim failed: %v", seqID, err)
	_ = m.answerCallbackQuery(ctx, queryID, locales.GetMessage(localizer, "MsgErrorGeneral", nil, nil), true)
	return err
}

// adminDisplayName names an acting admin for outcome messages.
func adminDisplayName(user *telego.User) string {
	if user.Username != "" {
		return "@" + user.Username
	}
	if user.FirstName != "" {
		return user.FirstName
	}
	return fmt.Sprintf("id %d", user.ID)
}
