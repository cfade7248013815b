package bot

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"bookcatalog/internal/catalog"
)

// handleStart shows welcome message and available commands
func (b *Bot) handleStart(message *tgbotapi.Message) {
	text := `Welcome to the Book Catalog! 📚

Available commands:
/add - Add a book (or /add Title | Author)
/list - Show the catalog
/filter - Show only books by an author
/clear - Clear the author filter
/remove <id> - Remove a book by id`

	b.reply(message.Chat.ID, text)
}

// handleAddStart adds a book directly from "/add Title | Author" or starts the add conversation
func (b *Bot) handleAddStart(ctx context.Context, message *tgbotapi.Message, args string) {
	if args != "" {
		title, author, _ := strings.Cut(args, "|")
		if !b.addBook(ctx, message, title, author) {
			b.reply(message.Chat.ID, "Usage: /add Title | Author")
		}
		return
	}

	b.setState(message.From.ID, &ConversationState{
		Command: cmdAdd,
		Step:    1,
		Data:    make(map[string]string),
	})
	b.reply(message.Chat.ID, "Please enter the book title:")
}

// addBook calls the catalog and reports the outcome. It returns false when
// the input was rejected so a conversation can ask again.
func (b *Bot) addBook(ctx context.Context, message *tgbotapi.Message, title, author string) bool {
	book, err := b.catalog.Add(ctx, title, author)
	if err != nil {
		var verr *catalog.ValidationError
		if errors.As(err, &verr) {
			b.reply(message.Chat.ID, fmt.Sprintf("❌ Book not added: %s.", verr.Error()))
			return false
		}
		b.logger.Error("Failed to add book",
			zap.Error(err),
			zap.Int64("user_id", message.From.ID),
		)
		b.reply(message.Chat.ID, fmt.Sprintf("Error adding book: %v", err))
		return true
	}

	b.reply(message.Chat.ID, fmt.Sprintf("✅ Book added!\n\n%s by %s\nid: %s", book.Title, book.Author, book.ID))
	return true
}

// handleList renders the catalog with the user's current filter
func (b *Bot) handleList(message *tgbotapi.Message) {
	b.sendView(message.Chat.ID, message.From.ID)
}

// handleFilterStart sets the author filter from the arguments or asks for it
func (b *Bot) handleFilterStart(message *tgbotapi.Message, args string) {
	if args != "" {
		b.setFilter(message.From.ID, args)
		b.sendView(message.Chat.ID, message.From.ID)
		return
	}

	b.setState(message.From.ID, &ConversationState{
		Command: cmdFilter,
		Step:    1,
		Data:    make(map[string]string),
	})
	b.reply(message.Chat.ID, "Which author are you looking for?")
}

// handleClear resets the author filter and shows the full catalog
func (b *Bot) handleClear(message *tgbotapi.Message) {
	b.setFilter(message.From.ID, "")
	b.sendView(message.Chat.ID, message.From.ID)
}

// handleRemoveCommand removes a book by the id given as argument
func (b *Bot) handleRemoveCommand(ctx context.Context, message *tgbotapi.Message, args string) {
	if args == "" {
		b.reply(message.Chat.ID, "Usage: /remove <id>\n\nTip: /list shows a remove button next to each book.")
		return
	}

	b.removeBook(ctx, message.Chat.ID, message.From.ID, args)
}
