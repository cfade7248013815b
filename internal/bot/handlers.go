package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// handleMessage processes a single message
func (b *Bot) handleMessage(message *tgbotapi.Message) {
	// Recover from panics to prevent bot crashes
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleMessage", zap.Any("panic", r))
			b.reply(message.Chat.ID, "An error occurred while processing your request. Please try again.")
		}
	}()

	userID := message.From.ID
	defer b.lockUser(userID)()
	ctx := context.Background()

	// Check if user is in a conversation
	if state, ok := b.getState(userID); ok {
		if state.Step == stepDone || message.IsCommand() {
			// Any command interrupts an ongoing conversation
			b.clearState(userID)
		} else {
			b.handleConversation(ctx, message, state)
			return
		}
	}

	if !message.IsCommand() {
		b.reply(message.Chat.ID, "Use /add to add a book or /list to see the catalog. /help shows all commands.")
		return
	}

	args := strings.TrimSpace(message.CommandArguments())
	switch message.Command() {
	case "start", "help":
		b.handleStart(message)
	case "add":
		b.handleAddStart(ctx, message, args)
	case "list":
		b.handleList(message)
	case "filter":
		b.handleFilterStart(message, args)
	case "clear":
		b.handleClear(message)
	case "remove":
		b.handleRemoveCommand(ctx, message, args)
	default:
		b.reply(message.Chat.ID, "Unknown command. Use /help to see available commands.")
	}
}

// handleCallbackQuery processes inline keyboard button clicks
func (b *Bot) handleCallbackQuery(query *tgbotapi.CallbackQuery) {
	// Recover from panics
	defer func() {
		if r := recover(); r != nil {
			b.logger.Error("Recovered from panic in handleCallbackQuery", zap.Any("panic", r))
		}
	}()

	if query.From != nil {
		defer b.lockUser(query.From.ID)()
	}
	ctx := context.Background()

	// Answer the callback query to remove loading state
	if b.api != nil {
		if _, err := b.api.Request(tgbotapi.NewCallback(query.ID, "")); err != nil {
			b.logger.Warn("Failed to answer callback query", zap.Error(err))
		}
	}

	// Handle callback based on prefix
	data := query.Data
	switch {
	case strings.HasPrefix(data, "remove:"):
		b.handleRemoveCallback(ctx, query)
	case strings.HasPrefix(data, "confirm:"):
		b.handleConfirmCallback(ctx, query)
	case data == "cancel":
		b.reply(query.Message.Chat.ID, "Okay, nothing was removed.")
	default:
		b.logger.Debug("Ignoring unknown callback", zap.String("callback_data", data))
	}
}
