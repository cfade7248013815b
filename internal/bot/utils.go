package bot

import (
	"fmt"
	"strings"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"bookcatalog/internal/catalog"
)

const (
	// buttonTitleLimit keeps inline button labels readable on phones
	buttonTitleLimit = 32
	// listFieldLimit caps a title or author in the catalog listing
	listFieldLimit = 120

	// Telegram rejects messages above messageLimit characters and large
	// inline keyboards; a listing stops at whichever limit comes first
	messageLimit   = 4096
	footerReserve  = 128
	maxListedBooks = 50
)

// sendMessage sends a message, logging delivery failures
func (b *Bot) sendMessage(msg tgbotapi.MessageConfig) {
	if b.api == nil {
		return // For testing
	}

	if _, err := b.api.Send(msg); err != nil {
		b.logger.Warn("Failed to send message", zap.Error(err), zap.Int64("chat_id", msg.ChatID))
	}
}

// reply sends a plain text message to chatID
func (b *Bot) reply(chatID int64, text string) {
	b.sendMessage(tgbotapi.NewMessage(chatID, text))
}

// renderView formats a catalog view as a chat message with one remove button
// per listed book. Books beyond the message or keyboard limits are counted in
// a footer instead of being listed.
func renderView(view catalog.View) tgbotapi.MessageConfig {
	var text strings.Builder
	fmt.Fprintf(&text, "📚 Books %s\n", view.Summary())
	if view.Filtered() {
		fmt.Fprintf(&text, "Author filter: %q (use /clear to show all)\n", truncate(view.Query, listFieldLimit))
	}
	text.WriteString("\n")

	if msg := view.EmptyMessage(); msg != "" {
		text.WriteString(msg)
		return tgbotapi.MessageConfig{Text: text.String()}
	}

	rows := make([][]tgbotapi.InlineKeyboardButton, 0, min(len(view.Books), maxListedBooks))
	for i, book := range view.Books {
		line := fmt.Sprintf("%d. %s by %s\n", i+1,
			truncate(book.Title, listFieldLimit), truncate(book.Author, listFieldLimit))
		// Byte length bounds Telegram's UTF-16 count from above
		if len(rows) == maxListedBooks || text.Len()+len(line) > messageLimit-footerReserve {
			break
		}
		text.WriteString(line)
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("🗑 Remove: "+truncate(book.Title, buttonTitleLimit), "remove:"+book.ID),
		))
	}
	if hidden := len(view.Books) - len(rows); hidden > 0 {
		fmt.Fprintf(&text, "\n…and %d more. Use /filter to narrow the list or /remove <id>.", hidden)
	}

	msg := tgbotapi.MessageConfig{Text: text.String()}
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(rows...)
	return msg
}

// sendView renders the catalog for chatID using the user's current filter
func (b *Bot) sendView(chatID, userID int64) {
	msg := renderView(b.catalog.View(b.filterFor(userID)))
	msg.ChatID = chatID
	b.sendMessage(msg)
}

func truncate(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	return string(runes[:limit-1]) + "…"
}

// lockUser serializes update handling for one user. Webhook updates arrive
// on separate goroutines and share that user's conversation state.
func (b *Bot) lockUser(userID int64) (unlock func()) {
	b.mu.Lock()
	l, ok := b.userLocks[userID]
	if !ok {
		l = &sync.Mutex{}
		b.userLocks[userID] = l
	}
	b.mu.Unlock()

	l.Lock()
	return l.Unlock
}

func (b *Bot) getState(userID int64) (*ConversationState, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	state, ok := b.states[userID]
	return state, ok
}

func (b *Bot) setState(userID int64, state *ConversationState) {
	b.mu.Lock()
	defer b.mu.Unlock()

	b.states[userID] = state
}

func (b *Bot) clearState(userID int64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	delete(b.states, userID)
}

func (b *Bot) filterFor(userID int64) string {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.filters[userID]
}

func (b *Bot) setFilter(userID int64, query string) {
	b.mu.Lock()
	defer b.mu.Unlock()

	query = strings.TrimSpace(query)
	if query == "" {
		delete(b.filters, userID)
		return
	}
	b.filters[userID] = query
}
