package bot

import (
	"context"
	"fmt"
	"log"
	"runtime/debug"
	"strings"
	"sync"
	"time"

	dbi "modrelay-bot/internal/database"
	"modrelay-bot/internal/database/models"
	"modrelay-bot/internal/handlers"
	"modrelay-bot/internal/locales"
	"modrelay-bot/internal/mediagroups"
	"modrelay-bot/internal/metrics"
	"modrelay-bot/internal/moderation"
	telegoapi "modrelay-bot/pkg/telegoapi"

	"github.com/getsentry/sentry-go"
	"github.com/mymmrac/telego"
	tu "github.com/mymmrac/telego/telegoutil"
	"go.uber.org/ratelimit"
)

// Bot wraps the telego update stream, routes updates to the moderation
// manager and command handlers, and owns the per-update worker goroutines.
type Bot struct {
	bot           telegoapi.BotAPI
	updatesChan   <-chan telego.Update
	debug         bool
	moderationMgr *moderation.Manager
	handler       *handlers.MessageHandler
	mediaGroupMgr *mediagroups.Manager
	eventLogger   dbi.EventLogger
	metrics       *metrics.Metrics
	ratelimiter   ratelimit.Limiter
}

// BotDeps holds the dependencies required by the Bot.
type BotDeps struct {
	Bot           telegoapi.BotAPI
	UpdatesChan   <-chan telego.Update
	Debug         bool
	ModerationMgr *moderation.Manager
	Handler       *handlers.MessageHandler
	MediaGroupMgr *mediagroups.Manager
	EventLogger   dbi.EventLogger
	Metrics       *metrics.Metrics
}

// New creates a new Bot instance from its dependencies.
func New(deps BotDeps) (*Bot, error) {
	if deps.Bot == nil {
		return nil, fmt.Errorf("telego bot (BotAPI) instance cannot be nil")
	}
	if deps.UpdatesChan == nil {
		return nil, fmt.Errorf("updates channel cannot be nil")
	}
	if deps.ModerationMgr == nil {
		return nil, fmt.Errorf("moderation manager cannot be nil")
	}
	if deps.Handler == nil {
		return nil, fmt.Errorf("message handler cannot be nil")
	}
	if deps.MediaGroupMgr == nil {
		return nil, fmt.Errorf("media group manager cannot be nil")
	}
	if deps.EventLogger == nil {
		return nil, fmt.Errorf("event logger cannot be nil")
	}
	if deps.Metrics == nil {
		return nil, fmt.Errorf("metrics cannot be nil")
	}

	return &Bot{
		bot:           deps.Bot,
		updatesChan:   deps.UpdatesChan,
		debug:         deps.Debug,
		moderationMgr: deps.ModerationMgr,
		handler:       deps.Handler,
		mediaGroupMgr: deps.MediaGroupMgr,
		eventLogger:   deps.EventLogger,
		metrics:       deps.Metrics,
		ratelimiter:   ratelimit.New(20),
	}, nil
}

// handleCommandUpdate processes a message identified as a command.
func (b *Bot) handleCommandUpdate(ctx context.Context, message telego.Message) {
	command := "unknown"
	if len(message.Text) > 1 && strings.HasPrefix(message.Text, "/") {
		command = strings.Split(message.Text, " ")[0][1:]
		// Strip the bot mention form /cmd@botname.
		if at := strings.Index(command, "@"); at > 0 {
			command = command[:at]
		}
	}
	logPrefix := fmt.Sprintf("[Cmd:%s User:%d]", command, message.From.ID)

	handlerFunc := b.handler.GetCommandHandler(command)
	if handlerFunc == nil {
		log.Printf("%s No handler found", logPrefix)
		localizer := locales.NewLocalizer(locales.GetDefaultLanguageTag().String())
		unknownCmdMsg := locales.GetMessage(localizer, "MsgErrorUnknownCommand", nil, nil)
		_, err := b.bot.SendMessage(ctx, tu.Message(tu.ID(message.Chat.ID), unknownCmdMsg))
		if err != nil {
			log.Printf("%s Failed to send unknown command message: %v", logPrefix, err)
		}
		return
	}

	if b.debug {
		log.Printf("%s Executing handler", logPrefix)
	}
	if err := handlerFunc(ctx, b.bot, message); err != nil {
		log.Printf("%s Handler error: %v", logPrefix, err)
		sentry.CaptureException(fmt.Errorf("%s handler error: %w", logPrefix, err))
	}
}

// handleCallbackQuery processes an incoming callback query via the moderation
// manager.
func (b *Bot) handleCallbackQuery(ctx context.Context, query telego.CallbackQuery) {
	logPrefix := fmt.Sprintf("[Callback User:%d QueryID:%s]", query.From.ID, query.ID)
	if b.debug {
		log.Printf("%s Received callback query with data: %q", logPrefix, query.Data)
	}
	localizer := locales.NewLocalizer(locales.GetDefaultLanguageTag().String())

	processed, err := b.moderationMgr.HandleCallbackQuery(ctx, query)
	if err != nil {
		log.Printf("%s Moderation callback handler error: %v", logPrefix, err)
		sentry.CaptureException(fmt.Errorf("%s moderation callback handler error: %w", logPrefix, err))
		return
	}
	if processed {
		return
	}

	log.Printf("%s Callback query not handled", logPrefix)
	defaultAnswer := locales.GetMessage(localizer, "MsgCallbackNotHandled", nil, nil)
	_ = b.bot.AnswerCallbackQuery(ctx, &telego.AnswerCallbackQueryParams{
		CallbackQueryID: query.ID,
		Text:            defaultAnswer,
		ShowAlert:       true,
	})
}

// handleMessage routes a non-callback message: commands first, then the admin
// reply bridge, then submission intake.
func (b *Bot) handleMessage(ctx context.Context, message telego.Message) {
	if strings.HasPrefix(message.Text, "/") {
		b.handleCommandUpdate(ctx, message)
		return
	}

	// An admin with an outstanding reply marker consumes free text as a reply.
	consumed, err := b.moderationMgr.HandleAdminReply(ctx, message)
	if err != nil {
		log.Printf("Error processing admin reply for message %d: %v", message.MessageID, err)
		sentry.CaptureException(fmt.Errorf("admin reply handler error: %w", err))
	}
	if consumed {
		return
	}

	processed, err := b.moderationMgr.HandleIncomingContent(ctx, message)
	if err != nil {
		log.Printf("Error processing submission message %d: %v", message.MessageID, err)
		sentry.CaptureException(fmt.Errorf("submission intake error: %w", err))
		b.logErrorEvent(ctx, fmt.Sprintf("intake failed for message %d: %v", message.MessageID, err))
		return
	}
	if !processed && b.debug {
		log.Printf("Ignoring unhandled message type (ID: %d)", message.MessageID)
	}
}

// processUpdate routes incoming updates to the appropriate handlers.
func (b *Bot) processUpdate(ctx context.Context, update telego.Update) {
	// Global rate limit across all outgoing work.
	b.ratelimiter.Take()
	b.metrics.IncUpdates()

	defer func() {
		if r := recover(); r != nil {
			log.Printf("PANIC recovered in processUpdate: %v\n%s", r, debug.Stack())
			sentry.CurrentHub().Recover(r)
			sentry.Flush(time.Second * 2)
			b.logErrorEvent(context.Background(), fmt.Sprintf("panic in update processing: %v", r))
		}
	}()

	processingCtx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	switch {
	case update.Message != nil:
		message := *update.Message
		if message.From == nil {
			log.Printf("Ignoring message %d from chat %d without sender", message.MessageID, message.Chat.ID)
			return
		}
		b.handleMessage(processingCtx, message)

	case update.CallbackQuery != nil:
		b.handleCallbackQuery(processingCtx, *update.CallbackQuery)

	default:
		if b.debug {
			log.Printf("Ignoring unhandled update type: %+v", update)
		}
	}
}

// Start begins the bot's update processing loop and blocks until the context
// is cancelled and in-flight updates finish.
func (b *Bot) Start(ctx context.Context) {
	if err := b.handler.SetupCommands(ctx, b.bot); err != nil {
		log.Printf("Failed to register bot commands: %v", err)
		sentry.CaptureException(fmt.Errorf("failed to register bot commands: %w", err))
	}

	log.Println("Listening for updates...")

	var wg sync.WaitGroup
	for {
		select {
		case <-ctx.Done():
			log.Println("Context done, stopping update processing...")
			wg.Wait()
			log.Println("All update processing finished.")
			return
		case update, ok := <-b.updatesChan:
			if !ok {
				log.Println("Updates channel closed.")
				wg.Wait()
				return
			}
			wg.Add(1)
			go func(up telego.Update) {
				defer wg.Done()
				b.processUpdate(ctx, up)
			}(update)
		}
	}
}

// Stop releases bot-owned resources. The update loop itself stops via context
// cancellation.
func (b *Bot) Stop() {
	b.mediaGroupMgr.Shutdown()
	log.Println("Bot stopped.")
}

func (b *Bot) logErrorEvent(ctx context.Context, details string) {
	if err := b.eventLogger.LogEvent(ctx, models.EventError, details); err != nil {
		log.Printf("Failed to write error event: %v", err)
	}
}
