package bot

import (
	"fmt"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"bookcatalog/internal/catalog"
)

// NewBot creates a new Telegram bot
func NewBot(token string, store *catalog.Store, confirmDelete bool, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(token)
	if err != nil {
		logger.Error("Failed to create bot API", zap.Error(err))
		return nil, fmt.Errorf("failed to create bot: %w", err)
	}

	logger.Info("Bot created", zap.String("bot_username", api.Self.UserName))

	return newBot(api, store, confirmDelete, logger), nil
}

func newBot(api botAPI, store *catalog.Store, confirmDelete bool, logger *zap.Logger) *Bot {
	return &Bot{
		api:           api,
		catalog:       store,
		confirmDelete: confirmDelete,
		logger:        logger,
		states:        make(map[int64]*ConversationState),
		filters:       make(map[int64]string),
		userLocks:     make(map[int64]*sync.Mutex),
	}
}
