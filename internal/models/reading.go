package models

import "time"

// Reading завершенный расклад: вопрос, карты и сгенерированная
// интерпретация. Запись неизменяемая, создается ровно один раз.
type Reading struct {
	ID             int64
	UserID         int64
	Question       string
	Situation      string // Может быть пустой
	Cards          []string
	Interpretation string
	CreatedAt      time.Time
}

// CardMeaning справочные данные одной карты из каталога значений.
type CardMeaning struct {
	Category string `json:"category"`
	Meaning  string `json:"meaning"`
	Upright  string `json:"upright"`
	Reversed string `json:"reversed"`
}

// Stats сводная аналитика для административной панели.
type Stats struct {
	TotalUsers          int `json:"total_users"`
	TotalReadings       int `json:"total_readings"`
	ActiveSubscriptions int `json:"active_subscriptions"`
	RemainingAttempts   int `json:"remaining_attempts"`
	ReadingsLastDay     int `json:"readings_last_day"`
	ReadingsLastWeek    int `json:"readings_last_week"`
}

// BroadcastTask сообщение рассылки, публикуемое в очередь и доставляемое
// отдельным воркером всем известным пользователям.
type BroadcastTask struct {
	Text string `json:"text"`
}
