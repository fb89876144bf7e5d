package bot

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/DoRRet/TarotBot/internal/gigachat"
	"github.com/DoRRet/TarotBot/internal/metrics"
	"github.com/DoRRet/TarotBot/internal/session"
	"github.com/DoRRet/TarotBot/internal/tarot"
)

// pickPoolSize размер пула карт для выбора по рубашкам.
const pickPoolSize = 6

const (
	questionPrompt = "🔮 Сформулируй свой вопрос — чётко и по делу\n\n" +
		"Пример: «Какие реальные шаги помогут мне улучшить отношения?»\n" +
		"Чем конкретнее вопрос, тем полезнее ответ."
	situationPrompt = "📖 Опишите ситуацию подробнее\n\n" +
		"Это необязательно, но поможет сделать интерпретацию точнее.\n" +
		"Пример: «Мы в ссоре уже 2 недели, не знаю как помириться»"
	cardCountPrompt = "🃏 Сколько карт вы хотите вытянуть?\n\n" +
		"Введите число от 1 до 5:"
	manualCardsPrompt = "✍️ Введите названия карт через запятую:\n" +
		"Пример: Шут, Императрица, Повешенный"
)

func homeKeyboard() [][]Button {
	return rows(1, Button{Label: "🏠 На главную", Data: "start_over"})
}

func backKeyboard() [][]Button {
	return rows(1, Button{Label: "🔙 На главную", Data: "back"})
}

func methodKeyboard() [][]Button {
	return rows(2,
		Button{Label: "🎲 Автоматически", Data: "random_cards"},
		Button{Label: "🃏 Написать вручную", Data: "manual_cards"},
		Button{Label: "👁️ Выбрать карты", Data: "pick_cards"},
		Button{Label: "🔙 На главную", Data: "start_over"},
	)
}

func upsellKeyboard() [][]Button {
	return rows(2,
		Button{Label: "💎 Подписка", Data: "subscription"},
		Button{Label: "🔙 На главную", Data: "start_over"},
	)
}

// beginReading стартует сценарий расклада. Вход закрыт для пользователей
// без подписки и попыток: им показывается предложение подписки, сессия
// не создается.
func (b *Bot) beginReading(ctx context.Context, upd Update) error {
	ok, err := b.ents.HasAccess(ctx, upd.UserID)
	if err != nil {
		return err
	}
	if !ok {
		b.send(ctx, upd.UserID,
			"❌ У вас закончились бесплатные попытки.\nПриобретите подписку или попытки.",
			upsellKeyboard())
		return nil
	}

	state := &session.State{Step: session.StepQuestion}
	if err := b.sessions.Put(ctx, upd.UserID, state); err != nil {
		return err
	}
	b.send(ctx, upd.UserID, questionPrompt, nil)
	return nil
}

// handleQuestion принимает текст вопроса. Событие без текста (например,
// присланное фото) не продвигает диалог, а повторяет приглашение.
func (b *Bot) handleQuestion(ctx context.Context, upd Update, state *session.State) error {
	if strings.TrimSpace(upd.Text) == "" {
		b.send(ctx, upd.UserID, questionPrompt, nil)
		return nil
	}

	state.Question = upd.Text
	state.Advance(session.StepSituation)
	if err := b.sessions.Put(ctx, upd.UserID, state); err != nil {
		return err
	}
	b.send(ctx, upd.UserID, situationPrompt, backKeyboard())
	return nil
}

func (b *Bot) handleSituation(ctx context.Context, upd Update, state *session.State) error {
	state.Situation = upd.Text
	state.Advance(session.StepCardCount)
	if err := b.sessions.Put(ctx, upd.UserID, state); err != nil {
		return err
	}
	b.send(ctx, upd.UserID, cardCountPrompt, backKeyboard())
	return nil
}

// handleCardCount принимает число карт. Невалидный ввод повторяет
// приглашение на том же шаге, без ограничения числа повторов.
func (b *Bot) handleCardCount(ctx context.Context, upd Update, state *session.State) error {
	num, err := strconv.Atoi(strings.TrimSpace(upd.Text))
	if err != nil || num < 1 || num > 5 {
		b.send(ctx, upd.UserID, "❌ Введите число от 1 до 5", nil)
		return nil
	}

	state.NumCards = num
	state.Advance(session.StepMethod)
	if err := b.sessions.Put(ctx, upd.UserID, state); err != nil {
		return err
	}
	b.send(ctx, upd.UserID, "🃏 Как выбрать карты?", methodKeyboard())
	return nil
}

// chooseMethod ветвит сценарий по способу выбора карт. Случайный выбор
// сразу уводит в финализацию, остальные два требуют дополнительного шага.
func (b *Bot) chooseMethod(ctx context.Context, upd Update, kind ActionKind) error {
	state, found, err := b.sessions.Get(ctx, upd.UserID)
	if err != nil {
		return err
	}
	if !found || state.Step != session.StepMethod {
		return b.mainMenu(ctx, upd.UserID)
	}

	switch kind {
	case ActionRandomCards:
		state.Method = "random"
		state.Cards = tarot.Sample(state.NumCards)
		b.send(ctx, upd.UserID, "✨ Выпали карты: "+strings.Join(state.Cards, ", "), nil)
		return b.finalize(ctx, upd.UserID, state)
	case ActionManualCards:
		state.Method = "manual"
		state.Advance(session.StepManualCards)
		if err := b.sessions.Put(ctx, upd.UserID, state); err != nil {
			return err
		}
		b.send(ctx, upd.UserID, manualCardsPrompt, nil)
		return nil
	case ActionPickCards:
		return b.startPick(ctx, upd.UserID, state)
	}
	return nil
}

// handleManualCards разбирает введенные через запятую названия.
// Принимается только точное совпадение с запрошенным числом карт при
// нуле нераспознанных: иначе весь ввод отклоняется с перечислением
// принятых и неизвестных имен.
func (b *Bot) handleManualCards(ctx context.Context, upd Update, state *session.State) error {
	res := tarot.MatchAll(upd.Text, tarot.Deck())

	if len(res.Resolved) != state.NumCards || len(res.Unresolved) > 0 {
		var lines []string
		lines = append(lines, fmt.Sprintf("❗️ Вы ввели %d карт, а нужно %d.",
			len(res.Resolved), state.NumCards))
		if len(res.Resolved) > 0 {
			lines = append(lines, "✅ Принятые карты: "+strings.Join(res.Resolved, ", "))
		}
		if len(res.Unresolved) > 0 {
			lines = append(lines, "❌ Неизвестные карты: "+strings.Join(res.Unresolved, ", "))
		}
		lines = append(lines, fmt.Sprintf("Пожалуйста, введите ровно %d карты через запятую.", state.NumCards))
		b.send(ctx, upd.UserID, strings.Join(lines, "\n"), nil)
		return nil
	}

	state.Cards = res.Resolved
	return b.finalize(ctx, upd.UserID, state)
}

// startPick раскладывает пул из шести карт рубашками вверх.
func (b *Bot) startPick(ctx context.Context, userID int64, state *session.State) error {
	state.Method = "pick"
	state.PickDeck = tarot.Sample(pickPoolSize)
	state.Picked = nil
	state.Advance(session.StepSpreadPicks)
	if err := b.sessions.Put(ctx, userID, state); err != nil {
		return err
	}

	b.send(ctx, userID,
		fmt.Sprintf("Выберите карту №1 из %d", state.NumCards),
		pickKeyboard(state))
	return nil
}

// pickKeyboard клавиатура пула: выбранные позиции помечены и инертны.
func pickKeyboard(state *session.State) [][]Button {
	keyboard := make([][]Button, 0, len(state.PickDeck))
	for i, card := range state.PickDeck {
		if state.HasPicked(card) {
			keyboard = append(keyboard, []Button{{
				Label: fmt.Sprintf("✅ %d", i+1),
				Data:  "picked_ignore",
			}})
		} else {
			keyboard = append(keyboard, []Button{{
				Label: fmt.Sprintf("🃏 %d", i+1),
				Data:  fmt.Sprintf("pick_card_%d", i),
			}})
		}
	}
	return keyboard
}

// handlePick обрабатывает выбор одной позиции из пула. Повторный выбор
// занятой позиции ничего не меняет и отвечает всплывающим уведомлением.
func (b *Bot) handlePick(ctx context.Context, upd Update, idx int) error {
	state, found, err := b.sessions.Get(ctx, upd.UserID)
	if err != nil {
		return err
	}
	if !found || state.Step != session.StepSpreadPicks {
		if upd.CallbackID != "" {
			_ = b.transport.AnswerCallback(ctx, upd.CallbackID, "")
		}
		return b.mainMenu(ctx, upd.UserID)
	}
	if idx < 0 || idx >= len(state.PickDeck) {
		if upd.CallbackID != "" {
			_ = b.transport.AnswerCallback(ctx, upd.CallbackID, "")
		}
		return nil
	}

	card := state.PickDeck[idx]
	if state.HasPicked(card) {
		if upd.CallbackID != "" {
			_ = b.transport.AnswerCallback(ctx, upd.CallbackID, "Эту карту вы уже выбрали!")
		}
		return nil
	}
	if upd.CallbackID != "" {
		_ = b.transport.AnswerCallback(ctx, upd.CallbackID, "")
	}

	state.Picked = append(state.Picked, card)
	if len(state.Picked) < state.NumCards {
		if err := b.sessions.Put(ctx, upd.UserID, state); err != nil {
			return err
		}
		b.send(ctx, upd.UserID,
			fmt.Sprintf("Выберите карту №%d из %d", len(state.Picked)+1, state.NumCards),
			pickKeyboard(state))
		return nil
	}

	state.Cards = state.Picked
	b.send(ctx, upd.UserID, "✨ Вы выбрали: "+strings.Join(state.Cards, ", "), nil)
	return b.finalize(ctx, upd.UserID, state)
}

// finalize генерирует интерпретацию под жестким таймаутом. Успех
// сохраняет расклад и лишь затем списывает попытку; таймаут или отказ
// генерации не расходуют попытку и не оставляют записи. В любом исходе
// сессия завершается.
func (b *Bot) finalize(ctx context.Context, userID int64, state *session.State) error {
	if err := b.sessions.Clear(ctx, userID); err != nil {
		return err
	}

	b.send(ctx, userID, "🔮 Интерпретирую карты...", nil)

	genCtx, cancel := context.WithTimeout(ctx, b.opts.GenerateTimeout)
	defer cancel()

	started := time.Now()
	interpretation, err := b.interp.Generate(genCtx, state.Question, state.Situation, state.Cards)
	metrics.GenerationDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		return b.reportGenerationFailure(ctx, userID, err)
	}

	if err := b.ents.RecordReading(ctx, userID, state.Question, state.Situation, state.Cards, interpretation); err != nil {
		return err
	}
	metrics.ReadingsTotal.WithLabelValues(state.Method).Inc()

	result := fmt.Sprintf(
		"✨ Ваш расклад\n\n❓ Вопрос: %s\n🃏 Карты: %s\n\n📖 Интерпретация:\n%s\n\n"+
			"💎 Хотите более подробный разбор? Закажите консультацию!",
		state.Question, strings.Join(state.Cards, ", "), interpretation)
	b.send(ctx, userID, result, rows(2,
		Button{Label: "📞 Консультация", Data: "consultation"},
		Button{Label: "🔄 Новый расклад", Data: "request_reading"},
		Button{Label: "🏠 На главную", Data: "start_over"},
	))
	return nil
}

func (b *Bot) reportGenerationFailure(ctx context.Context, userID int64, err error) error {
	switch {
	case errors.Is(err, gigachat.ErrTimeout):
		metrics.GenerationFailures.WithLabelValues("timeout").Inc()
		b.send(ctx, userID, "⏳ Время генерации истекло. Попробуйте позже.", homeKeyboard())
	case errors.Is(err, gigachat.ErrGenerationFailed):
		metrics.GenerationFailures.WithLabelValues("failed").Inc()
		b.send(ctx, userID, "❌ Произошла ошибка при генерации интерпретации. Попробуйте позже.", homeKeyboard())
	default:
		return err
	}
	return nil
}

// quickReading расклад одной кнопкой с фиксированным вопросом и без карт.
// Попытка списывается только после успешной генерации.
func (b *Bot) quickReading(ctx context.Context, upd Update, method, question, header string) error {
	ok, err := b.ents.HasAccess(ctx, upd.UserID)
	if err != nil {
		return err
	}
	if !ok {
		b.send(ctx, upd.UserID,
			"❌ У вас закончились бесплатные попытки.\nПриобретите подписку или попытки.",
			upsellKeyboard())
		return nil
	}

	genCtx, cancel := context.WithTimeout(ctx, b.opts.GenerateTimeout)
	defer cancel()

	started := time.Now()
	interpretation, err := b.interp.Generate(genCtx, question, "", nil)
	metrics.GenerationDuration.Observe(time.Since(started).Seconds())
	if err != nil {
		return b.reportGenerationFailure(ctx, upd.UserID, err)
	}

	if err := b.ents.ConsumeAttempt(ctx, upd.UserID); err != nil {
		return err
	}
	metrics.ReadingsTotal.WithLabelValues(method).Inc()

	b.send(ctx, upd.UserID, header+"\n\n"+interpretation, homeKeyboard())
	return nil
}
