package bot

import (
	"context"
	"strings"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// handleConversation processes multi-step conversations
func (b *Bot) handleConversation(ctx context.Context, message *tgbotapi.Message, state *ConversationState) {
	userID := message.From.ID

	switch state.Command {
	case cmdAdd:
		b.handleAddConversation(ctx, message, state)
	case cmdFilter:
		b.handleFilterConversation(message, state)
	default:
		state.Step = stepDone
	}

	// Clean up completed conversations
	if state.Step == stepDone {
		b.clearState(userID)
	}
}

// handleAddConversation handles the add book multi-step process
func (b *Bot) handleAddConversation(ctx context.Context, message *tgbotapi.Message, state *ConversationState) {
	switch state.Step {
	case 1: // Waiting for title
		title := strings.TrimSpace(message.Text)
		if title == "" {
			b.reply(message.Chat.ID, "The title can't be empty. Please enter the book title:")
			return
		}

		state.Data["title"] = title
		state.Step = 2
		b.reply(message.Chat.ID, "Who is the author?")

	case 2: // Waiting for author
		if !b.addBook(ctx, message, state.Data["title"], message.Text) {
			b.reply(message.Chat.ID, "Please enter the author:")
			return
		}
		state.Step = stepDone
	}
}

// handleFilterConversation applies the author filter typed after a bare /filter
func (b *Bot) handleFilterConversation(message *tgbotapi.Message, state *ConversationState) {
	b.setFilter(message.From.ID, message.Text)
	b.sendView(message.Chat.ID, message.From.ID)
	state.Step = stepDone
}
