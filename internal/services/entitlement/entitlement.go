// Package entitlement содержит бизнес-логику доступа к раскладам:
// регистрацию с реферальным бонусом, учет попыток, подписки и историю.
package entitlement

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/DoRRet/TarotBot/internal/models"
	"github.com/DoRRet/TarotBot/internal/storage/repository"
)

// Repository определяет методы хранилища пользователей, попыток,
// подписок и истории раскладов.
type Repository interface {
	// RegisterUser регистрирует пользователя и начисляет реферальный бонус.
	RegisterUser(ctx context.Context, telegramID int64, username string, referrerID *int64) (repository.RegistrationResult, error)
	// GetUser возвращает пользователя по Telegram ID.
	GetUser(ctx context.Context, telegramID int64) (*models.User, error)
	// CountReferrals возвращает число приглашенных пользователем.
	CountReferrals(ctx context.Context, telegramID int64) (int, error)
	// ListUserIDs возвращает Telegram ID всех пользователей.
	ListUserIDs(ctx context.Context) ([]int64, error)
	// ListUsers возвращает сводку по пользователям.
	ListUsers(ctx context.Context, limit int) ([]models.UserSummary, error)
	// GetAttempts возвращает остаток бесплатных попыток.
	GetAttempts(ctx context.Context, telegramID int64) (int, error)
	// AdjustAttempts изменяет остаток попыток на delta.
	AdjustAttempts(ctx context.Context, telegramID int64, delta int) error
	// HasActiveSubscription сообщает, есть ли действующая подписка.
	HasActiveSubscription(ctx context.Context, telegramID int64) (bool, error)
	// GrantSubscription выдает подписку на заданное число дней.
	GrantSubscription(ctx context.Context, telegramID int64, subType string, durationDays int) error
	// CancelActiveSubscriptions завершает действующие подписки.
	CancelActiveSubscriptions(ctx context.Context, telegramID int64) (int, error)
	// SaveReading сохраняет выполненный расклад.
	SaveReading(ctx context.Context, telegramID int64, question, situation string, cards []string, interpretation string) error
	// CountReadings возвращает число раскладов пользователя.
	CountReadings(ctx context.Context, telegramID int64) (int, error)
	// Stats возвращает сводную статистику сервиса.
	Stats(ctx context.Context) (*models.Stats, error)
}

// Service реализует правила доступа поверх хранилища.
type Service struct {
	repo Repository
	log  *slog.Logger
}

// New создает новый экземпляр Service.
func New(repo Repository, log *slog.Logger) *Service {
	return &Service{
		repo: repo,
		log:  log,
	}
}

// Register регистрирует пользователя. Повторный вызов безопасен:
// бонус рефереру начисляется только при первой регистрации.
func (s *Service) Register(ctx context.Context, telegramID int64, username string, referrerID *int64) error {
	res, err := s.repo.RegisterUser(ctx, telegramID, username, referrerID)
	if err != nil {
		return fmt.Errorf("entitlement.Register: %w", err)
	}
	if res.Created {
		s.log.Info("registered new user",
			slog.Int64("user_id", telegramID),
			slog.Bool("referral_bonus", res.BonusGranted))
	}
	return nil
}

// HasAccess сообщает, может ли пользователь запросить расклад:
// действующая подписка дает доступ без расхода попыток, иначе
// требуется положительный остаток.
func (s *Service) HasAccess(ctx context.Context, telegramID int64) (bool, error) {
	active, err := s.repo.HasActiveSubscription(ctx, telegramID)
	if err != nil {
		return false, fmt.Errorf("entitlement.HasAccess: %w", err)
	}
	if active {
		return true, nil
	}
	attempts, err := s.repo.GetAttempts(ctx, telegramID)
	if err != nil {
		return false, fmt.Errorf("entitlement.HasAccess: %w", err)
	}
	return attempts > 0, nil
}

// ConsumeAttempt списывает одну попытку за выполненный расклад.
// У подписчика остаток не уходит ниже нуля.
func (s *Service) ConsumeAttempt(ctx context.Context, telegramID int64) error {
	if err := s.repo.AdjustAttempts(ctx, telegramID, -1); err != nil {
		return fmt.Errorf("entitlement.ConsumeAttempt: %w", err)
	}
	return nil
}

// Adjust изменяет остаток попыток пользователя на delta.
func (s *Service) Adjust(ctx context.Context, telegramID int64, delta int) error {
	if err := s.repo.AdjustAttempts(ctx, telegramID, delta); err != nil {
		return fmt.Errorf("entitlement.Adjust: %w", err)
	}
	s.log.Info("adjusted attempts",
		slog.Int64("user_id", telegramID), slog.Int("delta", delta))
	return nil
}

// Attempts возвращает остаток попыток пользователя.
func (s *Service) Attempts(ctx context.Context, telegramID int64) (int, error) {
	attempts, err := s.repo.GetAttempts(ctx, telegramID)
	if err != nil {
		return 0, fmt.Errorf("entitlement.Attempts: %w", err)
	}
	return attempts, nil
}

// HasSubscription сообщает, действует ли подписка пользователя.
func (s *Service) HasSubscription(ctx context.Context, telegramID int64) (bool, error) {
	active, err := s.repo.HasActiveSubscription(ctx, telegramID)
	if err != nil {
		return false, fmt.Errorf("entitlement.HasSubscription: %w", err)
	}
	return active, nil
}

// Grant выдает пользователю подписку заданного типа.
func (s *Service) Grant(ctx context.Context, telegramID int64, subType string, durationDays int) error {
	if err := s.repo.GrantSubscription(ctx, telegramID, subType, durationDays); err != nil {
		return fmt.Errorf("entitlement.Grant: %w", err)
	}
	s.log.Info("granted subscription",
		slog.Int64("user_id", telegramID),
		slog.String("type", subType),
		slog.Int("days", durationDays))
	return nil
}

// Cancel завершает действующие подписки пользователя и возвращает их число.
func (s *Service) Cancel(ctx context.Context, telegramID int64) (int, error) {
	count, err := s.repo.CancelActiveSubscriptions(ctx, telegramID)
	if err != nil {
		return 0, fmt.Errorf("entitlement.Cancel: %w", err)
	}
	if count > 0 {
		s.log.Info("cancelled subscriptions",
			slog.Int64("user_id", telegramID), slog.Int("count", count))
	}
	return count, nil
}

// RecordReading сохраняет выполненный расклад и списывает попытку.
// Запись выполняется до списания: сбой сохранения не расходует попытку.
func (s *Service) RecordReading(ctx context.Context, telegramID int64, question, situation string, cards []string, interpretation string) error {
	if err := s.repo.SaveReading(ctx, telegramID, question, situation, cards, interpretation); err != nil {
		return fmt.Errorf("entitlement.RecordReading: %w", err)
	}
	if err := s.repo.AdjustAttempts(ctx, telegramID, -1); err != nil {
		return fmt.Errorf("entitlement.RecordReading: %w", err)
	}
	return nil
}

// Referrals возвращает число приглашенных пользователем.
func (s *Service) Referrals(ctx context.Context, telegramID int64) (int, error) {
	count, err := s.repo.CountReferrals(ctx, telegramID)
	if err != nil {
		return 0, fmt.Errorf("entitlement.Referrals: %w", err)
	}
	return count, nil
}

// Readings возвращает число раскладов пользователя.
func (s *Service) Readings(ctx context.Context, telegramID int64) (int, error) {
	count, err := s.repo.CountReadings(ctx, telegramID)
	if err != nil {
		return 0, fmt.Errorf("entitlement.Readings: %w", err)
	}
	return count, nil
}

// Stats возвращает сводную статистику сервиса.
func (s *Service) Stats(ctx context.Context) (*models.Stats, error) {
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, fmt.Errorf("entitlement.Stats: %w", err)
	}
	return stats, nil
}

// ListUsers возвращает сводку по пользователям для консоли администратора.
func (s *Service) ListUsers(ctx context.Context, limit int) ([]models.UserSummary, error) {
	users, err := s.repo.ListUsers(ctx, limit)
	if err != nil {
		return nil, fmt.Errorf("entitlement.ListUsers: %w", err)
	}
	return users, nil
}

// ListUserIDs возвращает Telegram ID всех пользователей для рассылки.
func (s *Service) ListUserIDs(ctx context.Context) ([]int64, error) {
	ids, err := s.repo.ListUserIDs(ctx)
	if err != nil {
		return nil, fmt.Errorf("entitlement.ListUserIDs: %w", err)
	}
	return ids, nil
}
