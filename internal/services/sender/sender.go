// Package sender доставляет задания рассылки всем известным пользователям.
// Темп отправки ограничен, отказ доставки одному получателю не прерывает
// рассылку, а ограничение скорости транспорта выдерживается паузой.
package sender

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/time/rate"

	"github.com/DoRRet/TarotBot/internal/bot"
	"github.com/DoRRet/TarotBot/internal/lib/sl"
	"github.com/DoRRet/TarotBot/internal/metrics"
	"github.com/DoRRet/TarotBot/internal/models"
)

// UserDirectory выдает список получателей рассылки.
type UserDirectory interface {
	ListUserIDs(ctx context.Context) ([]int64, error)
}

// Service выполняет рассылку заданий из очереди.
type Service struct {
	transport   bot.Transport
	users       UserDirectory
	limiter     *rate.Limiter
	adminChatID int64
	log         *slog.Logger
}

// New создает сервис рассылки. Темп отправки — примерно одно
// сообщение в 1.2 секунды.
func New(transport bot.Transport, users UserDirectory, adminChatID int64, log *slog.Logger) *Service {
	return &Service{
		transport:   transport,
		users:       users,
		limiter:     rate.NewLimiter(rate.Every(1200*time.Millisecond), 1),
		adminChatID: adminChatID,
		log:         log,
	}
}

// HandleTask обрабатывает одно задание рассылки из очереди.
func (s *Service) HandleTask(ctx context.Context, body []byte) error {
	const op = "sender.HandleTask"

	var task models.BroadcastTask
	if err := json.Unmarshal(body, &task); err != nil {
		s.log.Error("failed to unmarshal broadcast task", sl.Err(err))
		return fmt.Errorf("%s: %w", op, err)
	}
	return s.Broadcast(ctx, task)
}

// Broadcast рассылает текст всем пользователям и отчитывается
// администратору об итогах.
func (s *Service) Broadcast(ctx context.Context, task models.BroadcastTask) error {
	const op = "sender.Broadcast"

	ids, err := s.users.ListUserIDs(ctx)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	s.log.Info("broadcast started", slog.Int("recipients", len(ids)))

	var sent, failed int
	for _, id := range ids {
		if err := s.limiter.Wait(ctx); err != nil {
			return fmt.Errorf("%s: %w", op, err)
		}
		if err := s.deliver(ctx, id, task.Text); err != nil {
			failed++
			metrics.BroadcastFailed.Inc()
			s.log.Warn("failed to deliver broadcast",
				slog.Int64("user_id", id), sl.Err(err))
			continue
		}
		sent++
		metrics.BroadcastSent.Inc()
	}

	s.log.Info("broadcast finished",
		slog.Int("sent", sent), slog.Int("failed", failed))

	report := fmt.Sprintf("✅ Рассылка завершена!\n\nУспешно: %d\nОшибок: %d", sent, failed)
	if err := s.transport.Send(ctx, bot.Outgoing{ChatID: s.adminChatID, Text: report}); err != nil {
		s.log.Warn("failed to send broadcast report", sl.Err(err))
	}
	return nil
}

// deliver отправляет сообщение одному получателю, один раз пережидая
// ограничение скорости транспорта.
func (s *Service) deliver(ctx context.Context, chatID int64, text string) error {
	err := s.transport.Send(ctx, bot.Outgoing{ChatID: chatID, Text: text})
	var retryErr *bot.RetryAfterError
	if errors.As(err, &retryErr) {
		s.log.Warn("transport rate limited",
			slog.Duration("retry_after", retryErr.After))
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(retryErr.After):
		}
		return s.transport.Send(ctx, bot.Outgoing{ChatID: chatID, Text: text})
	}
	return err
}
