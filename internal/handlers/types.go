package handlers

import (
	"context"
	"log"

	"modrelay-bot/internal/auth"
	"modrelay-bot/internal/database"
	"modrelay-bot/internal/metrics"
	"modrelay-bot/internal/moderation"

	"github.com/mymmrac/telego"

	telegoapi "modrelay-bot/pkg/telegoapi"
)

// pendingListLimit caps how many submissions /pending shows at once.
const pendingListLimit = 10

// Command maps a command string to its localized description key and handler.
type Command struct {
	Command     string
	Description string // locale key, resolved on demand
	AdminOnly   bool
	Handler     func(context.Context, telegoapi.BotAPI, telego.Message) error
}

// MessageHandler routes bot commands and exposes the command table for
// registration with Telegram.
type MessageHandler struct {
	channelID int64
	version   string

	commands []Command

	subRepo           database.SubmissionRepository
	moderationManager *moderation.Manager
	adminChecker      auth.AdminCheckerInterface
	metrics           *metrics.Metrics
}

// NewMessageHandler creates and initializes a new MessageHandler instance.
func NewMessageHandler(
	channelID int64,
	version string,
	subRepo database.SubmissionRepository,
	moderationManager *moderation.Manager,
	adminChecker auth.AdminCheckerInterface,
	m *metrics.Metrics,
) *MessageHandler {
	if subRepo == nil {
		log.Fatal("MessageHandler: Submission repository dependency is nil")
	}
	if moderationManager == nil {
		log.Fatal("MessageHandler: Moderation manager dependency is nil")
	}
	if adminChecker == nil {
		log.Fatal("MessageHandler: Admin checker dependency is nil")
	}
	if m == nil {
		log.Fatal("MessageHandler: Metrics dependency is nil")
	}

	h := &MessageHandler{
		channelID:         channelID,
		version:           version,
		subRepo:           subRepo,
		moderationManager: moderationManager,
		adminChecker:      adminChecker,
		metrics:           m,
	}
	h.commands = []Command{
		{Command: "start", Description: "CmdStartDesc", Handler: h.HandleStart},
		{Command: "help", Description: "CmdHelpDesc", Handler: h.HandleHelp},
		{Command: "stats", Description: "CmdStatsDesc", AdminOnly: true, Handler: h.HandleStats},
		{Command: "pending", Description: "CmdPendingDesc", AdminOnly: true, Handler: h.HandlePending},
		{Command: "moderate", Description: "CmdModerateDesc", AdminOnly: true, Handler: h.HandleModerate},
		{Command: "version", Description: "CmdVersionDesc", Handler: h.HandleVersion},
	}
	return h
}

// GetCommandHandler retrieves the handler function for a command string
// (e.g., "start"). It returns nil if the command is not found.
func (h *MessageHandler) GetCommandHandler(command string) func(context.Context, telegoapi.BotAPI, telego.Message) error {
	for _, cmd := range h.commands {
		if cmd.Command == command {
			return cmd.Handler
		}
	}
	return nil
}

// Commands returns the command table.
func (h *MessageHandler) Commands() []Command {
	return h.commands
}
