package app

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"bookcatalog/internal/api"
	"bookcatalog/internal/bot"
	"bookcatalog/internal/catalog"
	"bookcatalog/internal/config"
	"bookcatalog/internal/storage"
)

// App represents the application
type App struct {
	config  *config.Config
	logger  *zap.Logger
	db      storage.KV
	catalog *catalog.Store
	bot     *bot.Bot
	server  *http.Server
}

// New creates and initializes a new application instance from the environment
func New() (*App, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	// Load configuration from environment variables
	cfg, err := config.LoadFromEnv()
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := NewLogger(cfg)
	if err != nil {
		return nil, err
	}

	return NewWithConfig(cfg, logger)
}

// NewWithConfig creates an application instance from an explicit configuration
func NewWithConfig(cfg *config.Config, logger *zap.Logger) (*App, error) {
	app := &App{config: cfg, logger: logger}

	logger.Info("Starting Book Catalog...")

	// Initialize storage and load the catalog
	if err := app.initCatalog(); err != nil {
		return nil, err
	}

	// Initialize bot
	if err := app.initBot(); err != nil {
		app.db.Close()
		return nil, err
	}

	// Initialize HTTP server
	app.initHTTPServer()

	return app, nil
}

// initCatalog connects to the storage backend and loads the persisted catalog
func (a *App) initCatalog() error {
	ctx := context.Background()

	db, err := OpenStorage(ctx, a.config, a.logger)
	if err != nil {
		return err
	}

	store := catalog.New(db,
		catalog.WithKey(a.config.CatalogKey),
		catalog.WithLogger(a.logger.Named("catalog")),
	)
	if err := store.Load(ctx); err != nil {
		db.Close()
		return fmt.Errorf("failed to load catalog: %w", err)
	}
	a.logger.Info("Catalog ready",
		zap.String("backend", a.config.StorageBackend),
		zap.String("key", store.Key()),
		zap.Int("books", store.Len()),
	)

	a.db = db
	a.catalog = store
	return nil
}

// initBot initializes the Telegram bot when a token is configured
func (a *App) initBot() error {
	if !a.config.BotEnabled() {
		a.logger.Info("TELEGRAM_BOT_TOKEN not set, Telegram bot disabled")
		return nil
	}

	telegramBot, err := bot.NewBot(a.config.TelegramToken, a.catalog, a.config.ConfirmDelete, a.logger.Named("bot"))
	if err != nil {
		return fmt.Errorf("failed to create Telegram bot: %w", err)
	}

	a.bot = telegramBot
	return nil
}

// initHTTPServer initializes the HTTP server for the API, health checks and webhook
func (a *App) initHTTPServer() {
	mux := http.NewServeMux()

	// Health check endpoint
	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "OK")
	})

	// Root endpoint
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.WriteHeader(http.StatusOK)
		fmt.Fprintf(w, "Book Catalog is running (%s)", a.botMode())
	})

	// Webhook endpoint (only used in webhook mode)
	if a.bot != nil && a.config.WebhookMode {
		mux.HandleFunc("/telegram-webhook", func(w http.ResponseWriter, r *http.Request) {
			if r.Method != http.MethodPost {
				w.WriteHeader(http.StatusMethodNotAllowed)
				return
			}

			var update tgbotapi.Update
			if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
				a.logger.Warn("Error decoding webhook update", zap.Error(err))
				w.WriteHeader(http.StatusBadRequest)
				return
			}

			// Process update in background to respond quickly to Telegram
			go a.bot.HandleWebhookUpdate(update)

			w.WriteHeader(http.StatusOK)
		})
	}

	api.NewHTTPServer(a.catalog, a.logger.Named("api")).RegisterRoutes(mux)

	a.server = &http.Server{
		Addr:         ":" + a.config.Port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

func (a *App) botMode() string {
	switch {
	case a.bot == nil:
		return "bot disabled"
	case a.config.WebhookMode:
		return "bot: webhook"
	default:
		return "bot: polling"
	}
}

// Handler returns the HTTP handler serving the API
func (a *App) Handler() http.Handler {
	return a.server.Handler
}

// Catalog returns the catalog store
func (a *App) Catalog() *catalog.Store {
	return a.catalog
}

// Run starts the application and blocks until shutdown
func (a *App) Run() error {
	// Handle graceful shutdown
	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	defer signal.Stop(sigChan)

	// Start HTTP server in background
	serverErr := make(chan error, 1)
	go func() {
		a.logger.Info("Starting HTTP server", zap.String("addr", a.server.Addr))
		if err := a.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			serverErr <- err
		}
	}()

	// Start bot in appropriate mode
	if a.bot != nil {
		if a.config.WebhookMode {
			// Webhook mode: configure webhook and wait for HTTP requests
			if err := a.bot.StartWebhook(a.config.WebhookURL); err != nil {
				a.Shutdown()
				return fmt.Errorf("failed to setup webhook: %w", err)
			}
		} else {
			// Polling mode: actively poll Telegram servers
			botCtx, cancelBot := context.WithCancel(context.Background())
			defer cancelBot()
			go func() {
				if err := a.bot.Start(botCtx); err != nil {
					a.logger.Error("Bot stopped with error", zap.Error(err))
				}
			}()
		}
	}

	// Wait for interrupt signal or a server failure
	var runErr error
	select {
	case sig := <-sigChan:
		a.logger.Info("Received shutdown signal", zap.String("signal", sig.String()))
	case err := <-serverErr:
		runErr = fmt.Errorf("HTTP server error: %w", err)
	}

	a.logger.Info("Shutting down...")
	if err := a.Shutdown(); err != nil && runErr == nil {
		runErr = err
	}
	return runErr
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown() error {
	// Shutdown HTTP server gracefully
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := a.server.Shutdown(shutdownCtx); err != nil {
		a.logger.Warn("HTTP server shutdown error", zap.Error(err))
	}

	// Stop polling for bot updates
	if a.bot != nil && !a.config.WebhookMode {
		a.bot.Stop()
	}

	// Close database
	if err := a.db.Close(); err != nil {
		a.logger.Error("Error closing database", zap.Error(err))
		return err
	}

	a.logger.Info("Shutdown complete")
	_ = a.logger.Sync()
	return nil
}
