package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/DoRRet/TarotBot/internal/models"
)

// RegistrationResult итог первого контакта пользователя с ботом.
type RegistrationResult struct {
	Created      bool // Пользователь создан впервые
	BonusGranted bool // Реферальный бонус начислен обоим участникам
}

// RegisterUser создает пользователя при первом контакте: заводит счетчик
// с пятью попытками и, если указан существующий реферер (не сам пользователь),
// атомарно начисляет по одной попытке обоим. Повторный вызов для уже
// известного пользователя только обновляет username и бонус не начисляет.
func (s *Storage) RegisterUser(ctx context.Context, telegramID int64, username string, referrerID *int64) (RegistrationResult, error) {
	const op = "storage.RegisterUser"
	select {
	case <-ctx.Done():
		return RegistrationResult{}, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	tx, err := s.DB.BeginTx(ctx, nil)
	if err != nil {
		return RegistrationResult{}, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if referrerID != nil && *referrerID == telegramID {
		referrerID = nil
	}

	res, err := tx.ExecContext(ctx,
		`INSERT INTO users (telegram_id, username, referrer_id)
		 VALUES ($1, NULLIF($2, ''), $3)
		 ON CONFLICT (telegram_id) DO NOTHING`,
		telegramID, username, referrerID)
	if err != nil {
		return RegistrationResult{}, fmt.Errorf("%s: %w", op, err)
	}
	inserted, err := res.RowsAffected()
	if err != nil {
		return RegistrationResult{}, fmt.Errorf("%s: %w", op, err)
	}

	if inserted == 0 {
		if _, err = tx.ExecContext(ctx,
			`UPDATE users SET username = NULLIF($1, '') WHERE telegram_id = $2`,
			username, telegramID); err != nil {
			return RegistrationResult{}, fmt.Errorf("%s: %w", op, err)
		}
		if err = tx.Commit(); err != nil {
			return RegistrationResult{}, fmt.Errorf("%s: %w", op, err)
		}
		return RegistrationResult{}, nil
	}

	if _, err = tx.ExecContext(ctx,
		`INSERT INTO attempts (user_id, remaining) VALUES ($1, 5)
		 ON CONFLICT (user_id) DO NOTHING`,
		telegramID); err != nil {
		return RegistrationResult{}, fmt.Errorf("%s: %w", op, err)
	}

	result := RegistrationResult{Created: true}

	if referrerID != nil {
		var referrerExists bool
		if err = tx.QueryRowContext(ctx,
			`SELECT EXISTS (SELECT 1 FROM users WHERE telegram_id = $1)`,
			*referrerID).Scan(&referrerExists); err != nil {
			return RegistrationResult{}, fmt.Errorf("%s: %w", op, err)
		}
		if referrerExists {
			if _, err = tx.ExecContext(ctx,
				`UPDATE attempts
				 SET remaining = remaining + 1, last_update = now()
				 WHERE user_id IN ($1, $2)`,
				telegramID, *referrerID); err != nil {
				return RegistrationResult{}, fmt.Errorf("%s: %w", op, err)
			}
			result.BonusGranted = true
		}
	}

	if err = tx.Commit(); err != nil {
		return RegistrationResult{}, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}

// GetUser возвращает пользователя по telegram id.
func (s *Storage) GetUser(ctx context.Context, telegramID int64) (*models.User, error) {
	const op = "storage.GetUser"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	u := &models.User{}
	var username sql.NullString
	var referrerID sql.NullInt64
	err := s.DB.QueryRowContext(ctx,
		`SELECT telegram_id, username, created_at, referrer_id
		 FROM users WHERE telegram_id = $1`,
		telegramID).Scan(&u.TelegramID, &username, &u.CreatedAt, &referrerID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%s: %w", op, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	if username.Valid {
		u.Username = username.String
	}
	if referrerID.Valid {
		u.ReferrerID = &referrerID.Int64
	}
	return u, nil
}

// CountReferrals возвращает число пользователей, пришедших по ссылке telegramID.
func (s *Storage) CountReferrals(ctx context.Context, telegramID int64) (int, error) {
	const op = "storage.CountReferrals"
	select {
	case <-ctx.Done():
		return 0, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	var count int
	err := s.DB.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM users WHERE referrer_id = $1`, telegramID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("%s: %w", op, err)
	}
	return count, nil
}

// ListUserIDs возвращает идентификаторы всех известных пользователей,
// используется рассылкой.
func (s *Storage) ListUserIDs(ctx context.Context) ([]int64, error) {
	const op = "storage.ListUserIDs"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx, `SELECT telegram_id FROM users ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var ids []int64
	for rows.Next() {
		var id int64
		if err = rows.Scan(&id); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		ids = append(ids, id)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return ids, nil
}

// ListUsers возвращает последних пользователей с числом попыток и статусом
// подписки для административной панели.
func (s *Storage) ListUsers(ctx context.Context, limit int) ([]models.UserSummary, error) {
	const op = "storage.ListUsers"
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("%s: %w", op, ctx.Err())
	default:
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT u.telegram_id,
		        COALESCE(u.username, ''),
		        COALESCE(a.remaining, 0),
		        EXISTS (SELECT 1 FROM subscriptions s
		                WHERE s.user_id = u.telegram_id AND s.end_date > now())
		 FROM users u
		 LEFT JOIN attempts a ON a.user_id = u.telegram_id
		 ORDER BY u.created_at DESC
		 LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = rows.Close()
	}()

	var result []models.UserSummary
	for rows.Next() {
		var u models.UserSummary
		if err = rows.Scan(&u.TelegramID, &u.Username, &u.RemainingAttempts, &u.HasSubscription); err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		result = append(result, u)
	}
	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return result, nil
}
