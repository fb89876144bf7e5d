package repository

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/DoRRet/TarotBot/internal/models"
)

// Stats собирает сводную аналитику по пользователям, раскладам и подпискам.
func (s *Storage) Stats(ctx context.Context) (*models.Stats, error) {
	const op = "storage.Stats"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var stats models.Stats
	var remaining sql.NullInt64
	err := s.DB.QueryRowContext(ctx,
		`SELECT
		     (SELECT COUNT(*) FROM users),
		     (SELECT COUNT(*) FROM readings),
		     (SELECT COUNT(*) FROM subscriptions WHERE end_date > now()),
		     (SELECT SUM(remaining) FROM attempts),
		     (SELECT COUNT(*) FROM readings WHERE created_at >= now() - INTERVAL '1 day'),
		     (SELECT COUNT(*) FROM readings WHERE created_at >= now() - INTERVAL '7 day')`,
	).Scan(&stats.TotalUsers, &stats.TotalReadings, &stats.ActiveSubscriptions,
		&remaining, &stats.ReadingsLastDay, &stats.ReadingsLastWeek)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if remaining.Valid {
		stats.RemainingAttempts = int(remaining.Int64)
	}
	return &stats, nil
}
