package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
)

// GetAttempts возвращает число оставшихся попыток пользователя.
// Отсутствие счетчика трактуется как ноль.
func (s *Storage) GetAttempts(ctx context.Context, telegramID int64) (int, error) {
	const op = "storage.GetAttempts"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var remaining int
	err := s.DB.QueryRowContext(ctx,
		`SELECT remaining FROM attempts WHERE user_id = $1`, telegramID).Scan(&remaining)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return remaining, nil
}

// AdjustAttempts изменяет счетчик попыток на delta одним запросом.
// Списание у пользователя с активной подпиской прижимается к нулю, чтобы
// счетчик не уходил в минус, пока доступ и так безлимитный. Остальные
// изменения применяются без ограничения: административные начисления и
// ручные списания могут уводить счетчик в минус намеренно.
func (s *Storage) AdjustAttempts(ctx context.Context, telegramID int64, delta int) error {
	const op = "storage.AdjustAttempts"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	_, err := s.DB.ExecContext(ctx,
		`UPDATE attempts
		 SET remaining = CASE
		         WHEN $2 < 0 AND EXISTS (SELECT 1 FROM subscriptions
		                                 WHERE user_id = $1 AND end_date > now())
		             THEN GREATEST(remaining + $2, 0)
		         ELSE remaining + $2
		     END,
		     last_update = now()
		 WHERE user_id = $1`,
		telegramID, delta)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}
