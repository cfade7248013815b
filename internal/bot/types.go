package bot

import (
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"

	"bookcatalog/internal/catalog"
)

// botAPI is the subset of *tgbotapi.BotAPI the bot uses
type botAPI interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
	GetUpdatesChan(config tgbotapi.UpdateConfig) tgbotapi.UpdatesChannel
	StopReceivingUpdates()
	GetWebhookInfo() (tgbotapi.WebhookInfo, error)
}

// Bot represents the Telegram bot wrapper
type Bot struct {
	api           botAPI
	catalog       *catalog.Store
	confirmDelete bool
	logger        *zap.Logger

	mu        sync.Mutex
	states    map[int64]*ConversationState
	filters   map[int64]string // current author filter per user, never persisted
	userLocks map[int64]*sync.Mutex
}

// ConversationState tracks the state of multi-step commands
type ConversationState struct {
	Command string
	Step    int
	Data    map[string]string
}

const (
	cmdAdd    = "add"
	cmdFilter = "filter"

	stepDone = -1
)
