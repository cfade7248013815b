package bot

import (
	"context"
	"fmt"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// pollTimeout is the long-polling timeout in seconds
const pollTimeout = 60

// menu is the command list shown by Telegram clients next to the input field
var menu = []tgbotapi.BotCommand{
	{Command: "list", Description: "Show the catalog"},
	{Command: "add", Description: "Add a book"},
	{Command: "filter", Description: "Show only books by an author"},
	{Command: "clear", Description: "Clear the author filter"},
	{Command: "remove", Description: "Remove a book by id"},
	{Command: "help", Description: "Show available commands"},
}

// registerCommands publishes the command menu. Failure only costs the menu.
func (b *Bot) registerCommands() {
	if _, err := b.api.Request(tgbotapi.NewSetMyCommands(menu...)); err != nil {
		b.logger.Warn("Failed to register bot commands", zap.Error(err))
	}
}

// Start polls Telegram for updates until ctx is done or Stop is called
func (b *Bot) Start(ctx context.Context) error {
	b.logger.Info("Starting bot in polling mode")

	// A webhook left over from webhook mode blocks getUpdates
	if _, err := b.api.Request(tgbotapi.DeleteWebhookConfig{}); err != nil {
		b.logger.Warn("Failed to delete webhook", zap.Error(err))
	}
	b.registerCommands()

	u := tgbotapi.NewUpdate(0)
	u.Timeout = pollTimeout
	updates := b.api.GetUpdatesChan(u)

	b.logger.Info("Waiting for updates")
	for {
		select {
		case <-ctx.Done():
			b.logger.Info("Polling stopped", zap.Error(ctx.Err()))
			return nil
		case update, ok := <-updates:
			if !ok {
				b.logger.Info("Update channel closed")
				return nil
			}
			b.HandleWebhookUpdate(update)
		}
	}
}

// Stop stops polling for updates
func (b *Bot) Stop() {
	b.api.StopReceivingUpdates()
}

// StartWebhook points Telegram at baseURL/telegram-webhook
func (b *Bot) StartWebhook(baseURL string) error {
	hookURL := baseURL + "/telegram-webhook"
	b.logger.Info("Setting up webhook", zap.String("webhook_url", hookURL))

	webhookConfig, err := tgbotapi.NewWebhook(hookURL)
	if err != nil {
		return fmt.Errorf("invalid webhook URL %q: %w", hookURL, err)
	}
	webhookConfig.MaxConnections = 40

	if _, err := b.api.Request(webhookConfig); err != nil {
		b.logger.Error("Failed to set webhook", zap.Error(err), zap.String("webhook_url", hookURL))
		return fmt.Errorf("failed to set webhook: %w", err)
	}
	b.registerCommands()

	info, err := b.api.GetWebhookInfo()
	if err != nil {
		b.logger.Warn("Failed to get webhook info", zap.Error(err))
		return nil
	}
	b.logger.Info("Webhook set",
		zap.String("url", info.URL),
		zap.Int("pending_updates", info.PendingUpdateCount),
		zap.String("last_error", info.LastErrorMessage),
	)
	return nil
}

// HandleWebhookUpdate dispatches a single update to the message or callback handler
func (b *Bot) HandleWebhookUpdate(update tgbotapi.Update) {
	switch {
	case update.Message != nil && update.Message.From != nil:
		b.handleMessage(update.Message)
	case update.CallbackQuery != nil && update.CallbackQuery.Message != nil:
		b.handleCallbackQuery(update.CallbackQuery)
	default:
		b.logger.Debug("Ignoring update", zap.Int("update_id", update.UpdateID))
	}
}
