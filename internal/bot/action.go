package bot

import (
	"strconv"
	"strings"
)

// ActionKind вид действия, закодированного в callback-данных кнопки.
type ActionKind int

const (
	ActionUnknown ActionKind = iota
	ActionStartOver
	ActionRequestReading
	ActionDailyReading
	ActionWeeklyReading
	ActionSubscription
	ActionChooseOffer // Arg: ключ варианта подписки
	ActionCardMeanings
	ActionCategory // Arg: ключ категории
	ActionMeaning  // Arg: название карты, Reversed: показать перевернутое значение
	ActionSearchCard
	ActionConsultation
	ActionConfirmConsultation
	ActionReferral
	ActionHelp
	ActionRandomCards
	ActionManualCards
	ActionPickCards
	ActionPickCard // Index: позиция в пуле
	ActionPickedIgnore
	ActionBack
	ActionAskAdmin
	ActionAdminMenu
	ActionAdminUsers
	ActionAdminAnalytics
	ActionAdminBroadcast
	ActionAdminAddAttempts
	ActionAdminRemoveAttempts
	ActionAdminAddSub
	ActionAdminCancelSub
	ActionAdminListUsers
	ActionAdminSubMonthly
)

// Action разобранное действие кнопки. Данные callback разбираются
// ровно один раз на границе транспорта, дальше по коду ходит только
// структурированное значение.
type Action struct {
	Kind     ActionKind
	Arg      string
	Index    int
	Reversed bool
}

var simpleActions = map[string]ActionKind{
	"start_over":            ActionStartOver,
	"request_reading":       ActionRequestReading,
	"daily_reading":         ActionDailyReading,
	"weekly_reading":        ActionWeeklyReading,
	"subscription":          ActionSubscription,
	"card_meanings":         ActionCardMeanings,
	"search_card":           ActionSearchCard,
	"consultation":          ActionConsultation,
	"confirm_consultation":  ActionConfirmConsultation,
	"referral":              ActionReferral,
	"help":                  ActionHelp,
	"random_cards":          ActionRandomCards,
	"manual_cards":          ActionManualCards,
	"pick_cards":            ActionPickCards,
	"picked_ignore":         ActionPickedIgnore,
	"back":                  ActionBack,
	"ask_admin":             ActionAskAdmin,
	"admin_menu":            ActionAdminMenu,
	"admin_users":           ActionAdminUsers,
	"admin_analytics":       ActionAdminAnalytics,
	"admin_broadcast":       ActionAdminBroadcast,
	"admin_add_attempts":    ActionAdminAddAttempts,
	"admin_remove_attempts": ActionAdminRemoveAttempts,
	"admin_add_sub":         ActionAdminAddSub,
	"admin_cancel_sub":      ActionAdminCancelSub,
	"admin_list_users":      ActionAdminListUsers,
	"admin_sub_monthly":     ActionAdminSubMonthly,
}

// ParseCallback разбирает callback-данные кнопки в Action.
// Неизвестные данные дают ActionUnknown, их обрабатывает
// общий fallback с главным меню.
func ParseCallback(data string) Action {
	if kind, ok := simpleActions[data]; ok {
		return Action{Kind: kind}
	}

	switch {
	case strings.HasPrefix(data, "sub_"):
		return Action{Kind: ActionChooseOffer, Arg: strings.TrimPrefix(data, "sub_")}
	case strings.HasPrefix(data, "category_"):
		return Action{Kind: ActionCategory, Arg: strings.TrimPrefix(data, "category_")}
	case strings.HasPrefix(data, "pick_card_"):
		idx, err := strconv.Atoi(strings.TrimPrefix(data, "pick_card_"))
		if err != nil {
			return Action{Kind: ActionUnknown}
		}
		return Action{Kind: ActionPickCard, Index: idx}
	case strings.HasPrefix(data, "meaning_"):
		// Формат: meaning_<название карты>_<0|1>, название может
		// содержать пробелы, но не подчеркивания.
		rest := strings.TrimPrefix(data, "meaning_")
		sep := strings.LastIndex(rest, "_")
		if sep <= 0 || sep == len(rest)-1 {
			return Action{Kind: ActionUnknown}
		}
		return Action{
			Kind:     ActionMeaning,
			Arg:      rest[:sep],
			Reversed: rest[sep+1:] == "1",
		}
	}
	return Action{Kind: ActionUnknown}
}

// meaningData кодирует кнопку значения карты. reversed выбирает,
// какую сторону показать при нажатии.
func meaningData(card string, reversed bool) string {
	flag := "0"
	if reversed {
		flag = "1"
	}
	return "meaning_" + card + "_" + flag
}
