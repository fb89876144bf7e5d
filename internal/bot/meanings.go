package bot

import (
	"context"
	"fmt"

	"github.com/DoRRet/TarotBot/internal/session"
	"github.com/DoRRet/TarotBot/internal/tarot"
)

// categoryKeys ключи callback-данных для категорий каталога.
var categoryKeys = map[string]string{
	"major_arcana": tarot.CategoryMajor,
	"wands":        tarot.CategoryWands,
	"cups":         tarot.CategoryCups,
	"swords":       tarot.CategorySwords,
	"pentacles":    tarot.CategoryPentacles,
}

func (b *Bot) showCategories(ctx context.Context, userID int64) error {
	b.send(ctx, userID, "📜 Значения карт Таро\n\nВыберите категорию или найдите карту по названию:",
		rows(2,
			Button{Label: "🌟 Старшие Арканы", Data: "category_major_arcana"},
			Button{Label: "🪄 Жезлы", Data: "category_wands"},
			Button{Label: "🏆 Кубки", Data: "category_cups"},
			Button{Label: "⚔️ Мечи", Data: "category_swords"},
			Button{Label: "🪙 Пентакли", Data: "category_pentacles"},
			Button{Label: "🔍 Поиск карты", Data: "search_card"},
			Button{Label: "🏠 На главную", Data: "start_over"},
		))
	return nil
}

// showCategory выводит карты категории в фиксированном порядке отображения.
func (b *Bot) showCategory(ctx context.Context, userID int64, key string) error {
	category, ok := categoryKeys[key]
	if !ok {
		return b.showCategories(ctx, userID)
	}

	cards := tarot.ByCategory(category)
	keyboard := make([][]Button, 0, len(cards)+1)
	for _, card := range cards {
		keyboard = append(keyboard, []Button{{Label: card, Data: meaningData(card, false)}})
	}
	keyboard = append(keyboard, []Button{{Label: "🔙 Назад", Data: "card_meanings"}})

	b.send(ctx, userID, fmt.Sprintf("📜 %s\n\nВыберите карту:", category), keyboard)
	return nil
}

// showMeaning показывает значение карты с переключателем
// прямого и перевернутого положения.
func (b *Bot) showMeaning(ctx context.Context, userID int64, card string, reversed bool) error {
	if !tarot.Contains(card) {
		return b.showCategories(ctx, userID)
	}

	toggle := "🔄 Перевернутое значение"
	if reversed {
		toggle = "🔄 Прямое значение"
	}
	b.send(ctx, userID, b.meanings.Describe(card, reversed), rows(1,
		Button{Label: toggle, Data: meaningData(card, !reversed)},
		Button{Label: "🔙 Назад к категориям", Data: "card_meanings"},
		Button{Label: "🏠 На главную", Data: "start_over"},
	))
	return nil
}

func (b *Bot) beginSearch(ctx context.Context, userID int64) error {
	state := &session.State{Step: session.StepSearchCard}
	if err := b.sessions.Put(ctx, userID, state); err != nil {
		return err
	}
	b.send(ctx, userID, "🔍 Введите название карты или его часть:",
		rows(1, Button{Label: "🔙 Назад", Data: "card_meanings"}))
	return nil
}

// handleSearch ищет карты по запросу. Единственное совпадение
// раскрывается сразу, несколько — выводятся списком.
func (b *Bot) handleSearch(ctx context.Context, upd Update) error {
	results := tarot.Search(upd.Text)
	if len(results) == 0 {
		b.send(ctx, upd.UserID, "🔍 Карты не найдены. Попробуйте другой запрос.",
			rows(1, Button{Label: "🔙 Назад", Data: "card_meanings"}))
		return nil
	}

	if err := b.sessions.Clear(ctx, upd.UserID); err != nil {
		return err
	}

	if len(results) == 1 {
		return b.showMeaning(ctx, upd.UserID, results[0], false)
	}

	keyboard := make([][]Button, 0, len(results)+1)
	for _, card := range results {
		label := card
		if meaning, ok := b.meanings.Meaning(card); ok && meaning.Category != "" {
			label = fmt.Sprintf("%s (%s)", card, meaning.Category)
		}
		keyboard = append(keyboard, []Button{{Label: label, Data: meaningData(card, false)}})
	}
	keyboard = append(keyboard, []Button{{Label: "🔙 Назад", Data: "card_meanings"}})

	b.send(ctx, upd.UserID, fmt.Sprintf("🔍 Результаты поиска по запросу «%s»:", upd.Text), keyboard)
	return nil
}
