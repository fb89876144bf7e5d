package repository

import (
	"context"
	"fmt"
	"time"
)

// HasActiveSubscription сообщает, есть ли у пользователя подписка,
// срок которой еще не истек.
func (s *Storage) HasActiveSubscription(ctx context.Context, telegramID int64) (bool, error) {
	const op = "storage.HasActiveSubscription"
	select {
	case <-ctx.Done():
		return false, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var active bool
	err := s.DB.QueryRowContext(ctx,
		`SELECT EXISTS (SELECT 1 FROM subscriptions
		                WHERE user_id = $1 AND end_date > now())`,
		telegramID).Scan(&active)
	if err != nil {
		return false, fmt.Errorf("%s: %w", op, err)
	}
	return active, nil
}

// GrantSubscription создает пользователю подписку на durationDays дней
// начиная с текущего момента.
func (s *Storage) GrantSubscription(ctx context.Context, telegramID int64, subType string, durationDays int) error {
	const op = "storage.GrantSubscription"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	start := time.Now().UTC()
	end := start.AddDate(0, 0, durationDays)
	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO subscriptions (user_id, type, start_date, end_date)
		 VALUES ($1, $2, $3, $4)`,
		telegramID, subType, start, end)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CancelActiveSubscriptions завершает все активные подписки пользователя,
// устанавливая дату окончания в текущий момент, и возвращает число отмененных.
func (s *Storage) CancelActiveSubscriptions(ctx context.Context, telegramID int64) (int, error) {
	const op = "storage.CancelActiveSubscriptions"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	res, err := s.DB.ExecContext(ctx,
		`UPDATE subscriptions SET end_date = now()
		 WHERE user_id = $1 AND end_date > now()`,
		telegramID)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	count, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return int(count), nil
}
