// Package bot реализует диалоговую логику: многошаговый сценарий расклада,
// меню, справочник значений карт и консоль администратора. Транспорт
// сообщений абстрагирован: пакет потребляет входящие события Update и
// отправляет Outgoing, не зная, как они доставляются.
package bot

import (
	"context"
	"fmt"
	"time"
)

// Update входящее событие от пользователя: свободный текст
// или нажатие кнопки.
type Update struct {
	UserID   int64
	Username string

	// Text свободный текст сообщения, пустой для нажатий кнопок.
	Text string

	// Command команда вида "/start", пустая для обычного текста.
	Command string
	// StartPayload аргумент команды /start, используется для рефералов.
	StartPayload string

	// Callback данные нажатой кнопки, пустые для текстовых сообщений.
	Callback   string
	CallbackID string
}

// Button кнопка с подписью и данными, возвращаемыми при нажатии.
type Button struct {
	Label string
	Data  string
	// URL внешняя ссылка; кнопка-ссылка не несет callback-данных.
	URL string
}

// Outgoing исходящее сообщение: текст и опциональная клавиатура.
type Outgoing struct {
	ChatID   int64
	Text     string
	Keyboard [][]Button
}

// Transport доставляет исходящие сообщения пользователю.
type Transport interface {
	// Send отправляет сообщение. Превышение лимитов транспорта
	// возвращается как *RetryAfterError.
	Send(ctx context.Context, msg Outgoing) error
	// AnswerCallback подтверждает нажатие кнопки; при непустом text
	// пользователю показывается всплывающее уведомление.
	AnswerCallback(ctx context.Context, callbackID, text string) error
}

// UpdateSource поставляет входящие события. Канал закрывается
// при отмене контекста.
type UpdateSource interface {
	Updates(ctx context.Context) <-chan Update
}

// RetryAfterError сигнал ограничения скорости от транспорта:
// повторить отправку можно после указанной паузы.
type RetryAfterError struct {
	After time.Duration
}

func (e *RetryAfterError) Error() string {
	return fmt.Sprintf("transport rate limited, retry after %s", e.After)
}

// rows раскладывает кнопки по строкам заданной ширины.
func rows(columns int, buttons ...Button) [][]Button {
	var keyboard [][]Button
	for len(buttons) > 0 {
		n := columns
		if n > len(buttons) {
			n = len(buttons)
		}
		keyboard = append(keyboard, buttons[:n])
		buttons = buttons[n:]
	}
	return keyboard
}
