package bot

import (
	"context"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// handleRemoveCallback processes a remove button click, asking for
// confirmation first when the bot is configured to
func (b *Bot) handleRemoveCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	id := strings.TrimPrefix(query.Data, "remove:")
	chatID := query.Message.Chat.ID

	if !b.confirmDelete {
		b.removeBook(ctx, chatID, query.From.ID, id)
		return
	}

	book, ok := b.catalog.Get(id)
	if !ok {
		b.reply(chatID, "That book is no longer in the catalog.")
		return
	}

	msg := tgbotapi.NewMessage(chatID, fmt.Sprintf("Remove %q by %s?", book.Title, book.Author))
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Yes, remove", "confirm:"+id),
			tgbotapi.NewInlineKeyboardButtonData("↩️ Keep it", "cancel"),
		),
	)
	b.sendMessage(msg)
}

// handleConfirmCallback removes a book after the user confirmed
func (b *Bot) handleConfirmCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	id := strings.TrimPrefix(query.Data, "confirm:")
	b.removeBook(ctx, query.Message.Chat.ID, query.From.ID, id)
}

// removeBook removes the book with id, reports the outcome and re-renders the catalog
func (b *Bot) removeBook(ctx context.Context, chatID, userID int64, id string) {
	book, known := b.catalog.Get(id)

	removed, err := b.catalog.Remove(ctx, id)
	if err != nil {
		b.logger.Error("Failed to remove book",
			zap.Error(err),
			zap.String("id", id),
			zap.Int64("user_id", userID),
		)
		b.reply(chatID, fmt.Sprintf("Error removing book: %v", err))
		return
	}

	if !removed || !known {
		b.reply(chatID, "That book is no longer in the catalog.")
		return
	}

	b.reply(chatID, fmt.Sprintf("🗑 Removed %q by %s.", book.Title, book.Author))
	b.sendView(chatID, userID)
}
