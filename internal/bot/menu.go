package bot

import (
	"context"
	"fmt"

	"github.com/DoRRet/TarotBot/internal/models"
	"github.com/DoRRet/TarotBot/internal/session"
)

// offers фиксированные варианты подписки и пакетов попыток.
// Оплата вне системы: выбор только уведомляет администратора.
var offers = map[string]models.SubscriptionOffer{
	"monthly": {Key: "monthly", Name: "💎 Месячная подписка", Price: 349, Days: 30},
	"5":       {Key: "5", Name: "🛒 5 попыток", Price: 99},
	"10":      {Key: "10", Name: "🛒 10 попыток", Price: 149},
	"15":      {Key: "15", Name: "🛒 15 попыток", Price: 229},
}

func (b *Bot) mainMenu(ctx context.Context, userID int64) error {
	text := "🌟 Без лишней магии — только ясность!\n\n" +
		"Здесь можно быстро навести порядок в мыслях и получить честный совет — " +
		"карты не льстят и не пугают, а помогают увидеть суть.\n\n" +
		"Выбери, что тебе нужно прямо сейчас:"
	b.send(ctx, userID, text, rows(2,
		Button{Label: "🃏 Дневной расклад", Data: "daily_reading"},
		Button{Label: "🃏 Недельный расклад", Data: "weekly_reading"},
		Button{Label: "🃏 Запросить расклад", Data: "request_reading"},
		Button{Label: "💎 Подписка", Data: "subscription"},
		Button{Label: "📜 Значения карт", Data: "card_meanings"},
		Button{Label: "📞 Консультация", Data: "consultation"},
		Button{Label: "👫 Пригласить друга", Data: "referral"},
		Button{Label: "ℹ️ Помощь", Data: "help"},
	))
	return nil
}

func (b *Bot) showHelp(ctx context.Context, userID int64) error {
	text := "📚 Навести порядок в мыслях — просто!\n\n" +
		"🔮 Что умеет бот:\n" +
		"1. 🃏 Расклад — получи честный разбор твоей ситуации по картам\n" +
		"2. 💎 Подписка — неограниченный доступ к раскладам, когда захочешь\n" +
		"3. 📜 Значения карт — полная база по каждой карте, без лишних слов\n" +
		"4. 📞 Консультация — персональный разбор от опытного таролога\n" +
		"5. 👥 Пригласить друга — получай бонусы за рекомендации\n\n" +
		"❓ Как использовать:\n" +
		"- Выбери нужную функцию в меню\n" +
		"- Следуй подсказкам — всё чётко и просто\n" +
		"- Для отмены любого действия — /cancel\n\n" +
		fmt.Sprintf("📩 Связаться с поддержкой: @%s\n", b.opts.AdminUsername) +
		"🕒 Доступен всегда — хоть ночью, хоть днём"
	b.send(ctx, userID, text, rows(2,
		Button{Label: "🃏 Попробовать расклад", Data: "request_reading"},
		Button{Label: "💎 Подписка", Data: "subscription"},
		Button{Label: "📞 Консультация", Data: "consultation"},
		Button{Label: "🏠 На главную", Data: "start_over"},
	))
	return nil
}

// showSubscriptions показывает статус пользователя и список вариантов.
func (b *Bot) showSubscriptions(ctx context.Context, userID int64) error {
	attempts, err := b.ents.Attempts(ctx, userID)
	if err != nil {
		return err
	}
	hasSub, err := b.ents.HasSubscription(ctx, userID)
	if err != nil {
		return err
	}

	status := "неактивна ❌"
	if hasSub {
		status = "активна ✅"
	}
	text := fmt.Sprintf(
		"💎 Статус подписки: %s\n🃏 Осталось попыток: %d\n\n"+
			"Доступные варианты:\n"+
			"1. 💎 Месяц полной ясности — все расклады без ограничений за 349₽\n"+
			"2. 🛒 Разовые пакеты — бери столько попыток, сколько нужно\n\n"+
			"Решай сам — глубоко и по делу или по чуть-чуть, но всегда по фактам.",
		status, attempts)
	b.send(ctx, userID, text, rows(2,
		Button{Label: "💎 Месячная (349₽)", Data: "sub_monthly"},
		Button{Label: "🛒 5 попыток (99₽)", Data: "sub_5"},
		Button{Label: "🛒 10 попыток (149₽)", Data: "sub_10"},
		Button{Label: "🛒 15 попыток (229₽)", Data: "sub_15"},
		Button{Label: "🔙 На главную", Data: "start_over"},
	))
	return nil
}

// chooseOffer сообщает пользователю условия выбранного варианта
// и уведомляет администратора о намерении оплаты.
func (b *Bot) chooseOffer(ctx context.Context, upd Update, key string) error {
	offer, ok := offers[key]
	if !ok {
		return b.showSubscriptions(ctx, upd.UserID)
	}

	b.send(ctx, upd.UserID, fmt.Sprintf(
		"📝 Вы выбрали: %s\n\n💳 Стоимость: %d₽\n\n"+
			"Для оформления подписки свяжитесь с @%s и укажите выбранный вариант.",
		offer.Name, offer.Price, b.opts.AdminUsername),
		rows(1, Button{Label: "🔙 Назад", Data: "subscription"}))

	term := "разовые"
	if offer.Days > 0 {
		term = fmt.Sprintf("%d дней", offer.Days)
	}
	b.notifyAdmin(ctx, fmt.Sprintf(
		"🛒 Новый запрос подписки\n\n👤 Пользователь: @%s (ID: %d)\n"+
			"📝 Тип подписки: %s\n💳 Стоимость: %d₽\n⏳ Срок: %s\n\n"+
			"Свяжитесь с пользователем для оформления.",
		displayName(upd.Username), upd.UserID, offer.Name, offer.Price, term))
	return nil
}

func (b *Bot) showConsultation(ctx context.Context, userID int64) error {
	text := "🃏 Разберём твою ситуацию по картам? 🤔\n\n" +
		"Это не эзотерика, а инструмент для ясности. Как совет умного друга, " +
		"только карты не врут и не льстят.\n\n" +
		"🔥 Что будет:\n" +
		"• Разберём 3-4 вопроса, которые тебя гложут\n" +
		"• На каждый — в среднем 25 минут чёткого анализа (без воды)\n" +
		"• Никакой «судьбы» — только факты и варианты решений\n\n" +
		"⏱ Время: 60-80 минут\n" +
		"💸 Цена: 600₽\n\n" +
		"📲 Если хочешь разложить всё по полочкам — жми «Заказать»!"
	b.send(ctx, userID, text, rows(1,
		Button{Label: "📞 Заказать консультацию", Data: "confirm_consultation"},
		Button{Label: "🔙 Назад", Data: "start_over"},
	))
	return nil
}

func (b *Bot) beginConsultation(ctx context.Context, userID int64) error {
	state := &session.State{Step: session.StepConsultation}
	if err := b.sessions.Put(ctx, userID, state); err != nil {
		return err
	}
	b.send(ctx, userID,
		"✍️ Опишите ваш вопрос или ситуацию\n\n"+
			"Напишите подробно, что вас беспокоит и на какой вопрос вы хотели бы получить ответ.\n\n"+
			"После отправки сообщения с вами свяжется наш таролог.",
		rows(1, Button{Label: "🔙 Отмена", Data: "start_over"}))
	return nil
}

// handleConsultationDetails пересылает запрос консультации администратору.
func (b *Bot) handleConsultationDetails(ctx context.Context, upd Update) error {
	if err := b.sessions.Clear(ctx, upd.UserID); err != nil {
		return err
	}

	b.notifyAdmin(ctx, fmt.Sprintf(
		"📞 Новый запрос консультации\n\n👤 Пользователь: @%s (ID: %d)\n❓ Вопрос:\n%s\n\n"+
			"Свяжитесь с пользователем для оформления.",
		displayName(upd.Username), upd.UserID, upd.Text))

	b.send(ctx, upd.UserID,
		"✅ Ваш запрос на консультацию отправлен!\n\n"+
			"Наш таролог свяжется с вами в ближайшее время для уточнения деталей.",
		homeKeyboard())
	return nil
}

// showReferral показывает реферальную ссылку и число приглашенных.
func (b *Bot) showReferral(ctx context.Context, upd Update) error {
	count, err := b.ents.Referrals(ctx, upd.UserID)
	if err != nil {
		return err
	}

	link := fmt.Sprintf("https://t.me/%s?start=%d", b.opts.BotName, upd.UserID)
	text := fmt.Sprintf(
		"👫 Твоя реферальная ссылка:\n%s\n\n🎁 Бонусов на счету: %d\n\n"+
			"За каждого друга — +1 попытка к твоим раскладам! Просто поделись ссылкой: "+
			"быстро, удобно, по-дружески. Чем больше друзей — тем больше шансов разобрать важное.",
		link, count)
	b.send(ctx, upd.UserID, text, [][]Button{
		{{Label: "📲 Поделиться", URL: fmt.Sprintf(
			"https://t.me/share/url?url=%s&text=Присоединяйся к боту Таро — получи бесплатную попытку!", link)}},
		{{Label: "🏠 На главную", Data: "start_over"}},
	})
	return nil
}

func (b *Bot) beginAdminQuestion(ctx context.Context, userID int64) error {
	state := &session.State{Step: session.StepAdminQuestion}
	if err := b.sessions.Put(ctx, userID, state); err != nil {
		return err
	}
	b.send(ctx, userID, "✍️ Напишите ваш вопрос администратору:",
		rows(1, Button{Label: "🔙 Назад", Data: "start_over"}))
	return nil
}

// handleAdminQuestion пересылает свободный вопрос администратору.
func (b *Bot) handleAdminQuestion(ctx context.Context, upd Update) error {
	if err := b.sessions.Clear(ctx, upd.UserID); err != nil {
		return err
	}

	b.notifyAdmin(ctx, fmt.Sprintf("📨 Вопрос от @%s (ID: %d):\n\n%s",
		displayName(upd.Username), upd.UserID, upd.Text))

	b.send(ctx, upd.UserID,
		"✅ Ваш вопрос отправлен! Администратор ответит в ближайшее время.",
		homeKeyboard())
	return nil
}

func displayName(username string) string {
	if username == "" {
		return "нет username"
	}
	return username
}
