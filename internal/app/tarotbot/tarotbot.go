// Package tarotbot собирает основное приложение: хранилище, кэш сессий,
// клиент генерации, диалоговую логику бота и административный HTTP-сервер.
package tarotbot

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi"
	"github.com/streadway/amqp"

	"github.com/DoRRet/TarotBot/internal/bot"
	"github.com/DoRRet/TarotBot/internal/cache"
	"github.com/DoRRet/TarotBot/internal/config"
	"github.com/DoRRet/TarotBot/internal/gigachat"
	"github.com/DoRRet/TarotBot/internal/lib/jwt"
	"github.com/DoRRet/TarotBot/internal/migrations"
	"github.com/DoRRet/TarotBot/internal/rabbitmq"
	entitlementservice "github.com/DoRRet/TarotBot/internal/services/entitlement"
	"github.com/DoRRet/TarotBot/internal/session"
	"github.com/DoRRet/TarotBot/internal/storage/repository"
	"github.com/DoRRet/TarotBot/internal/tarot"
	"github.com/DoRRet/TarotBot/internal/telegram"
)

// App объединяет долгоживущие компоненты основного приложения.
type App struct {
	server   *http.Server
	bot      *bot.Bot
	updates  *telegram.Client
	logger   *slog.Logger
	db       *repository.Storage
	amqpConn *amqp.Connection
	amqpCh   *amqp.Channel
}

// New инициализирует все зависимости приложения из конфигурации.
func New(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
	if err != nil {
		return nil, err
	}
	if err = migrations.Run(db.DB, cfg.MigrationsPath); err != nil {
		return nil, err
	}

	cacheRedis, err := cache.InitServer(ctx, cfg.RedisConnection)
	if err != nil {
		return nil, err
	}
	sessions := session.NewRedisStore(cacheRedis)

	meanings := tarot.NewMeanings(cfg.MeaningsPath, logger)
	meanings.EnsureLoaded()

	interpreter, err := gigachat.NewClient(cfg.GigaChat, logger)
	if err != nil {
		return nil, err
	}

	conn, err := rabbitmq.Connect(cfg.RabbitMQURL, cfg.RabbitMQMaxRetries, cfg.RabbitMQRetryDelay)
	if err != nil {
		return nil, err
	}
	ch, err := rabbitmq.SetupChannel(conn, rabbitmq.GetBroadcastQueues())
	if err != nil {
		conn.Close()
		return nil, err
	}
	broadcasts := rabbitmq.NewBroadcastPublisher(ch)

	entitlements := entitlementservice.New(db, logger)
	transport := telegram.New(cfg.Telegram, logger)

	chatBot := bot.New(transport, entitlements, interpreter, meanings, sessions, broadcasts, bot.Options{
		AdminChatID:     cfg.Telegram.AdminChatID,
		AdminUsername:   cfg.Telegram.AdminUsername,
		BotName:         cfg.Telegram.BotName,
		GenerateTimeout: cfg.GigaChat.GenerateTimeout,
	}, logger)

	jwtMaker := jwt.NewJWTMaker(cfg.JWTToken.JWTSecretKey, cfg.JWTToken.TokenTTL)

	router := chi.NewRouter()
	RegisterRoutes(router, logger, entitlements, jwtMaker, cfg.Admin, db)

	srv := &http.Server{
		Addr:         cfg.AddressHTTP,
		Handler:      router,
		ReadTimeout:  cfg.TimeoutHTTP,
		WriteTimeout: cfg.TimeoutHTTP,
		IdleTimeout:  cfg.IdleTimeout,
	}

	return &App{
		server:   srv,
		bot:      chatBot,
		updates:  transport,
		logger:   logger,
		db:       db,
		amqpConn: conn,
		amqpCh:   ch,
	}, nil
}

// Run запускает административный HTTP-сервер и цикл обработки
// входящих событий бота. Блокируется до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	errCh := make(chan error, 1)
	go func() {
		a.logger.Info("HTTP server starting on", slog.String("address", a.server.Addr))
		err := a.server.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			errCh <- nil
		} else {
			errCh <- err
		}
	}()

	go a.bot.Run(ctx, a.updates.Updates(ctx))

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		timeoutCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()
		a.logger.Info("shutting down gracefully")
		err := a.server.Shutdown(timeoutCtx)
		if cerr := a.amqpCh.Close(); cerr != nil {
			a.logger.Error("failed to close channel", slog.Any("err", cerr))
		}
		if cerr := a.amqpConn.Close(); cerr != nil {
			a.logger.Error("failed to close connection", slog.Any("err", cerr))
		}
		a.db.DB.Close()
		return err
	}
}
