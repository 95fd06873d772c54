package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"modrelay-bot/internal/database/models"
	"modrelay-bot/internal/locales"

	"github.com/mymmrac/telego"

	telegoapi "modrelay-bot/pkg/telegoapi"
)

// HandleStart handles the /start command. Admins get the moderation cheat
// sheet, everyone else gets the submission invitation.
func (h *MessageHandler) HandleStart(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	localizer := h.getLocalizer(message.From)

	if h.isAdmin(ctx, message.From.ID) {
		startMsg := locales.GetMessage(localizer, "MsgStartAdmin", nil, nil)
		return h.sendSuccess(ctx, bot, message.Chat.ID, startMsg)
	}

	startMsg := locales.GetMessage(localizer, "MsgStartUser", map[string]interface{}{
		"FirstName": message.From.FirstName,
	}, nil)
	return h.sendSuccess(ctx, bot, message.Chat.ID, startMsg)
}

// HandleHelp handles the /help command, listing the commands available to the
// caller's role.
func (h *MessageHandler) HandleHelp(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	localizer := h.getLocalizer(message.From)
	isAdmin := h.isAdmin(ctx, message.From.ID)

	var helpText strings.Builder
	helpText.WriteString(locales.GetMessage(localizer, "MsgHelpHeader", nil, nil) + "\n")
	for _, cmd := range h.commands {
		if cmd.AdminOnly && !isAdmin {
			continue
		}
		localizedDesc := locales.GetMessage(localizer, cmd.Description, nil, nil)
		helpText.WriteString(fmt.Sprintf("/%s - %s\n", cmd.Command, localizedDesc))
	}

	return h.sendSuccess(ctx, bot, message.Chat.ID, helpText.String())
}

// HandleStats handles the admin-only /stats command.
func (h *MessageHandler) HandleStats(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	localizer := h.getLocalizer(message.From)

	if !h.isAdmin(ctx, message.From.ID) {
		msg := locales.GetMessage(localizer, "MsgErrorRequiresAdmin", nil, nil)
		return h.sendError(ctx, bot, message.Chat.ID, errors.New(msg))
	}

	counts, err := h.subRepo.CountByStatus(ctx)
	if err != nil {
		return h.sendError(ctx, bot, message.Chat.ID, fmt.Errorf("failed to count submissions: %w", err))
	}
	submitters, err := h.subRepo.CountDistinctSubmitters(ctx)
	if err != nil {
		return h.sendError(ctx, bot, message.Chat.ID, fmt.Errorf("failed to count submitters: %w", err))
	}

	var total int64
	for _, n := range counts {
		total += n
	}
	snap := h.metrics.Snapshot()

	statsText := locales.GetMessage(localizer, "MsgStats", map[string]interface{}{
		"Total":         total,
		"Users":         submitters,
		"Pending":       counts[models.StatusPending],
		"Approved":      counts[models.StatusApproved],
		"Rejected":      counts[models.StatusRejected],
		"Errors":        counts[models.StatusError],
		"Uptime":        snap.Uptime.String(),
		"Updates":       snap.Updates,
		"PublishErrors": snap.PublishErrors,
	}, nil)

	return h.sendSuccess(ctx, bot, message.Chat.ID, statsText)
}

// HandlePending handles the admin-only /pending command, listing the newest
// pending submissions.
func (h *MessageHandler) HandlePending(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	localizer := h.getLocalizer(message.From)

	if !h.isAdmin(ctx, message.From.ID) {
		msg := locales.GetMessage(localizer, "MsgErrorRequiresAdmin", nil, nil)
		return h.sendError(ctx, bot, message.Chat.ID, errors.New(msg))
	}

	if err := h.moderationManager.SendPendingList(ctx, message.From.ID, message.Chat.ID, pendingListLimit); err != nil {
		return h.sendError(ctx, bot, message.Chat.ID, fmt.Errorf("failed to send pending list: %w", err))
	}
	return nil
}

// HandleModerate handles the admin-only /moderate command, presenting the
// oldest pending submission with decision buttons.
func (h *MessageHandler) HandleModerate(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	localizer := h.getLocalizer(message.From)

	if !h.isAdmin(ctx, message.From.ID) {
		msg := locales.GetMessage(localizer, "MsgErrorRequiresAdmin", nil, nil)
		return h.sendError(ctx, bot, message.Chat.ID, errors.New(msg))
	}

	if err := h.moderationManager.SendModeratePrompt(ctx, message.From.ID, message.Chat.ID); err != nil {
		return h.sendError(ctx, bot, message.Chat.ID, fmt.Errorf("failed to send moderation prompt: %w", err))
	}
	return nil
}

// HandleVersion handles the /version command.
func (h *MessageHandler) HandleVersion(ctx context.Context, bot telegoapi.BotAPI, message telego.Message) error {
	localizer := h.getLocalizer(message.From)

	versionText := locales.GetMessage(localizer, "MsgVersion", map[string]interface{}{
		"Version": h.version,
	}, nil)
	return h.sendSuccess(ctx, bot, message.Chat.ID, versionText)
}

// SetupCommands registers the bot's command list with Telegram, localizing
// descriptions in the default language.
func (h *MessageHandler) SetupCommands(ctx context.Context, bot telegoapi.BotAPI) error {
	if len(h.commands) == 0 {
		log.Println("No commands defined in handler, skipping SetMyCommands.")
		return nil
	}

	localizer := locales.NewLocalizer(locales.GetDefaultLanguageTag().String())

	commands := make([]telego.BotCommand, 0, len(h.commands))
	for _, cmd := range h.commands {
		commands = append(commands, telego.BotCommand{
			Command:     cmd.Command,
			Description: locales.GetMessage(localizer, cmd.Description, nil, nil),
		})
	}

	err := bot.SetMyCommands(ctx, &telego.SetMyCommandsParams{Commands: commands})
	if err != nil {
		return fmt.Errorf("failed to set bot commands: %w", err)
	}
	log.Printf("Successfully set %d bot commands.", len(commands))
	return nil
}
