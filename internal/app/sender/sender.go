// Package sender собирает воркер рассылок: подключение к очереди,
// хранилище получателей и сервис доставки сообщений.
package sender

import (
	"context"
	"log/slog"

	"github.com/streadway/amqp"

	"github.com/DoRRet/TarotBot/internal/config"
	"github.com/DoRRet/TarotBot/internal/rabbitmq"
	senderservice "github.com/DoRRet/TarotBot/internal/services/sender"
	"github.com/DoRRet/TarotBot/internal/storage/repository"
	"github.com/DoRRet/TarotBot/internal/telegram"
)

// App объединяет долгоживущие компоненты воркера рассылок.
type App struct {
	conn          *amqp.Connection
	ch            *amqp.Channel
	senderService *senderservice.Service
	logger        *slog.Logger
}

// New инициализирует зависимости воркера из конфигурации.
func New(_ context.Context, cfg *config.Config, logger *slog.Logger) (*App, error) {
	db, err := repository.New(cfg.StorageConnectionString)
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

	transport := telegram.New(cfg.Telegram, logger)
	senderService := senderservice.New(transport, db, cfg.Telegram.AdminChatID, logger)

	return &App{
		conn:          conn,
		ch:            ch,
		senderService: senderService,
		logger:        logger,
	}, nil
}

// Run запускает потребление очереди рассылок. Блокируется до отмены контекста.
func (a *App) Run(ctx context.Context) error {
	err := rabbitmq.ConsumerMessage(ctx, a.ch, rabbitmq.BroadcastQueue, func(body []byte) error {
		return a.senderService.HandleTask(ctx, body)
	})
	if err != nil {
		a.logger.Error("failed to start broadcast consumer", slog.Any("err", err))
		return err
	}

	<-ctx.Done()
	a.logger.Info("broadcast sender shutting down gracefully")

	if err := a.ch.Close(); err != nil {
		a.logger.Error("failed to close channel", slog.Any("err", err))
	}
	if err := a.conn.Close(); err != nil {
		a.logger.Error("failed to close connection", slog.Any("err", err))
	}

	return nil
}
