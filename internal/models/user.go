// Package models содержит доменные структуры бота: пользователей,
// подписки, расклады и справочные данные карт.
package models

import "time"

// User представляет пользователя бота, созданного при первом контакте.
// ReferrerID заполняется не более одного раза и никогда не указывает
// на самого пользователя.
type User struct {
	TelegramID int64     // Стабильный числовой идентификатор аккаунта
	Username   string    // Отображаемое имя, может быть пустым
	CreatedAt  time.Time // Дата первого контакта
	ReferrerID *int64    // Кто пригласил, nil если пришел сам
}

// UserSummary строка списка пользователей для административных операций.
type UserSummary struct {
	TelegramID        int64
	Username          string
	RemainingAttempts int
	HasSubscription   bool
}
