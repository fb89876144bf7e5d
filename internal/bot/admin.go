package bot

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/DoRRet/TarotBot/internal/models"
	"github.com/DoRRet/TarotBot/internal/session"
)

// Ключи административных операций, хранимые в состоянии диалога.
const (
	adminAddAttempts    = "add_attempts"
	adminRemoveAttempts = "remove_attempts"
	adminAddSub         = "add_sub"
	adminCancelSub      = "cancel_sub"
)

func (b *Bot) adminMenu(ctx context.Context, upd Update) error {
	if !b.isAdmin(upd.UserID) {
		b.send(ctx, upd.UserID, "❌ Доступ запрещен", nil)
		return nil
	}
	b.send(ctx, upd.UserID, "⚙️ Админ-панель", rows(2,
		Button{Label: "👤 Управление пользователями", Data: "admin_users"},
		Button{Label: "📊 Аналитика", Data: "admin_analytics"},
		Button{Label: "📢 Рассылка", Data: "admin_broadcast"},
		Button{Label: "🔙 На главную", Data: "start_over"},
	))
	return nil
}

func (b *Bot) adminUsersMenu(ctx context.Context, upd Update) error {
	if !b.isAdmin(upd.UserID) {
		return b.mainMenu(ctx, upd.UserID)
	}
	b.send(ctx, upd.UserID, "👥 Управление пользователями", rows(2,
		Button{Label: "➕ Добавить попытки", Data: "admin_add_attempts"},
		Button{Label: "➖ Удалить попытки", Data: "admin_remove_attempts"},
		Button{Label: "💎 Добавить подписку", Data: "admin_add_sub"},
		Button{Label: "🚫 Отменить подписку", Data: "admin_cancel_sub"},
		Button{Label: "📋 Список пользователей", Data: "admin_list_users"},
		Button{Label: "🔙 Назад", Data: "admin_menu"},
	))
	return nil
}

// adminRequestUserID начинает операцию над пользователем: сначала
// запрашивается его ID, действие запоминается в состоянии диалога.
func (b *Bot) adminRequestUserID(ctx context.Context, upd Update, kind ActionKind) error {
	if !b.isAdmin(upd.UserID) {
		return b.mainMenu(ctx, upd.UserID)
	}

	var action string
	switch kind {
	case ActionAdminAddAttempts:
		action = adminAddAttempts
	case ActionAdminRemoveAttempts:
		action = adminRemoveAttempts
	case ActionAdminAddSub:
		action = adminAddSub
	case ActionAdminCancelSub:
		action = adminCancelSub
	}

	state := &session.State{Step: session.StepAdminUserID, AdminAction: action}
	if err := b.sessions.Put(ctx, upd.UserID, state); err != nil {
		return err
	}
	b.send(ctx, upd.UserID, "📝 Введите ID пользователя:",
		rows(1, Button{Label: "🔙 Назад", Data: "admin_users"}))
	return nil
}

func (b *Bot) handleAdminUserID(ctx context.Context, upd Update, state *session.State) error {
	if !b.isAdmin(upd.UserID) {
		return b.mainMenu(ctx, upd.UserID)
	}

	targetID, err := strconv.ParseInt(strings.TrimSpace(upd.Text), 10, 64)
	if err != nil {
		b.send(ctx, upd.UserID, "❌ Неверный ID пользователя. Введите число:", nil)
		return nil
	}
	state.AdminUserID = targetID

	switch state.AdminAction {
	case adminAddAttempts, adminRemoveAttempts:
		state.Advance(session.StepAdminAttempts)
		if err := b.sessions.Put(ctx, upd.UserID, state); err != nil {
			return err
		}
		b.send(ctx, upd.UserID, "🔢 Введите количество попыток:",
			rows(1, Button{Label: "🔙 Назад", Data: "admin_users"}))
		return nil
	case adminAddSub:
		state.Advance(session.StepAdminSubType)
		if err := b.sessions.Put(ctx, upd.UserID, state); err != nil {
			return err
		}
		b.send(ctx, upd.UserID, "📅 Выберите тип подписки:", rows(1,
			Button{Label: "💎 Месячная (30 дней)", Data: "admin_sub_monthly"},
			Button{Label: "🔙 Назад", Data: "admin_users"},
		))
		return nil
	case adminCancelSub:
		if err := b.sessions.Clear(ctx, upd.UserID); err != nil {
			return err
		}
		count, err := b.ents.Cancel(ctx, targetID)
		if err != nil {
			return err
		}
		b.send(ctx, upd.UserID,
			fmt.Sprintf("✅ Отменено подписок у пользователя %d: %d", targetID, count),
			rows(1, Button{Label: "🔙 В меню", Data: "admin_users"}))
		return nil
	default:
		if err := b.sessions.Clear(ctx, upd.UserID); err != nil {
			return err
		}
		return b.adminUsersMenu(ctx, upd)
	}
}

func (b *Bot) handleAdminAttempts(ctx context.Context, upd Update, state *session.State) error {
	if !b.isAdmin(upd.UserID) {
		return b.mainMenu(ctx, upd.UserID)
	}

	attempts, err := strconv.Atoi(strings.TrimSpace(upd.Text))
	if err != nil || attempts <= 0 {
		b.send(ctx, upd.UserID, "❌ Введите число:", nil)
		return nil
	}
	if err := b.sessions.Clear(ctx, upd.UserID); err != nil {
		return err
	}

	var msg string
	if state.AdminAction == adminAddAttempts {
		if err := b.ents.Adjust(ctx, state.AdminUserID, attempts); err != nil {
			return err
		}
		msg = fmt.Sprintf("✅ Пользователю %d добавлено %d попыток", state.AdminUserID, attempts)
	} else {
		if err := b.ents.Adjust(ctx, state.AdminUserID, -attempts); err != nil {
			return err
		}
		msg = fmt.Sprintf("✅ У пользователя %d списано %d попыток", state.AdminUserID, attempts)
	}
	b.send(ctx, upd.UserID, msg, rows(1, Button{Label: "🔙 В меню", Data: "admin_users"}))
	return nil
}

func (b *Bot) adminGrantMonthly(ctx context.Context, upd Update) error {
	if !b.isAdmin(upd.UserID) {
		return b.mainMenu(ctx, upd.UserID)
	}

	state, found, err := b.sessions.Get(ctx, upd.UserID)
	if err != nil {
		return err
	}
	if !found || state.Step != session.StepAdminSubType || state.AdminUserID == 0 {
		return b.adminUsersMenu(ctx, upd)
	}
	if err := b.sessions.Clear(ctx, upd.UserID); err != nil {
		return err
	}

	if err := b.ents.Grant(ctx, state.AdminUserID, "premium", 30); err != nil {
		return err
	}
	b.send(ctx, upd.UserID,
		fmt.Sprintf("✅ Пользователю %d добавлена месячная подписка", state.AdminUserID),
		rows(1, Button{Label: "🔙 В меню", Data: "admin_users"}))
	return nil
}

func (b *Bot) adminAnalytics(ctx context.Context, upd Update) error {
	if !b.isAdmin(upd.UserID) {
		return b.mainMenu(ctx, upd.UserID)
	}

	stats, err := b.ents.Stats(ctx)
	if err != nil {
		return err
	}
	text := fmt.Sprintf(
		"📊 Аналитика бота\n\n"+
			"👥 Пользователей: %d\n"+
			"🃏 Всего раскладов: %d\n"+
			"📅 За 24ч: %d\n"+
			"📆 За неделю: %d\n"+
			"💎 Активных подписок: %d\n"+
			"🧮 Оставшихся попыток: %d",
		stats.TotalUsers, stats.TotalReadings, stats.ReadingsLastDay,
		stats.ReadingsLastWeek, stats.ActiveSubscriptions, stats.RemainingAttempts)
	b.send(ctx, upd.UserID, text, rows(1, Button{Label: "🔙 Назад", Data: "admin_menu"}))
	return nil
}

func (b *Bot) adminListUsers(ctx context.Context, upd Update) error {
	if !b.isAdmin(upd.UserID) {
		return b.mainMenu(ctx, upd.UserID)
	}

	users, err := b.ents.ListUsers(ctx, 50)
	if err != nil {
		return err
	}
	if len(users) == 0 {
		b.send(ctx, upd.UserID, "📂 База данных пользователей пуста",
			rows(1, Button{Label: "🔙 Назад", Data: "admin_users"}))
		return nil
	}

	var sb strings.Builder
	sb.WriteString("👥 Последние 50 пользователей:\n\n")
	for _, u := range users {
		subStatus := "❌"
		if u.HasSubscription {
			subStatus = "✅"
		}
		fmt.Fprintf(&sb, "🆔 %d | 👤 @%s\n🃏 Попыток: %d | Подписка: %s\n————————————————\n",
			u.TelegramID, displayName(u.Username), u.RemainingAttempts, subStatus)
	}
	b.send(ctx, upd.UserID, sb.String(), rows(1, Button{Label: "🔙 Назад", Data: "admin_users"}))
	return nil
}

func (b *Bot) adminBeginBroadcast(ctx context.Context, upd Update) error {
	if !b.isAdmin(upd.UserID) {
		return b.mainMenu(ctx, upd.UserID)
	}

	state := &session.State{Step: session.StepAdminBroadcast}
	if err := b.sessions.Put(ctx, upd.UserID, state); err != nil {
		return err
	}
	b.send(ctx, upd.UserID, "📢 Отправьте текст рассылки:",
		rows(1, Button{Label: "🔙 Назад", Data: "admin_menu"}))
	return nil
}

// handleAdminBroadcastText публикует рассылку в очередь: доставкой
// занимается отдельный воркер с собственным темпом отправки.
func (b *Bot) handleAdminBroadcastText(ctx context.Context, upd Update) error {
	if !b.isAdmin(upd.UserID) {
		return b.mainMenu(ctx, upd.UserID)
	}
	if err := b.sessions.Clear(ctx, upd.UserID); err != nil {
		return err
	}

	if err := b.broadcasts.Publish(ctx, models.BroadcastTask{Text: upd.Text}); err != nil {
		return err
	}
	b.send(ctx, upd.UserID,
		"✅ Рассылка поставлена в очередь. Отчет придет после завершения.",
		rows(1, Button{Label: "🔙 В меню", Data: "admin_menu"}))
	return nil
}
