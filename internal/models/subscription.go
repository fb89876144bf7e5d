package models

import "time"

// Subscription ограниченный по времени доступ пользователя к раскладам.
// Активность не хранится, а выводится из условия EndDate > now.
type Subscription struct {
	ID        int64
	UserID    int64
	Type      string    // premium и т.п.
	StartDate time.Time
	EndDate   time.Time // Исключающая граница: активна, пока now < EndDate
}

// SubscriptionOffer вариант подписки или пакета попыток из меню бота.
// Оплата происходит вне системы, бот только уведомляет администратора.
type SubscriptionOffer struct {
	Key   string // Ключ варианта в callback-данных
	Name  string // Название для пользователя и администратора
	Price int    // Стоимость в рублях
	Days  int    // Срок в днях, 0 для разовых пакетов
}
