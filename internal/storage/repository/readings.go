package repository

import (
	"context"
	"fmt"
	"strings"
)

// SaveReading сохраняет завершенный расклад. Таблица readings только
// пополняется, записи не изменяются и не удаляются.
func (s *Storage) SaveReading(ctx context.Context, telegramID int64, question, situation string, cards []string, interpretation string) error {
	const op = "storage.SaveReading"
	select {
	case <-ctx.Done():
		return fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	_, err := s.DB.ExecContext(ctx,
		`INSERT INTO readings (user_id, question, situation, cards, interpretation)
		 VALUES ($1, $2, $3, $4, $5)`,
		telegramID, question, situation, strings.Join(cards, ","), interpretation)
	if err != nil {
		return fmt.Errorf("%s: %w", op, err)
	}
	return nil
}

// CountReadings возвращает общее число сохраненных раскладов пользователя.
func (s *Storage) CountReadings(ctx context.Context, telegramID int64) (int, error) {
	const op = "storage.CountReadings"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var count int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM readings WHERE user_id = $1`, telegramID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}
