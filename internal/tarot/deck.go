// Package tarot содержит каталог из 78 карт Таро, загрузчик справочника
// значений и нечеткое сопоставление пользовательского ввода с каноническими
// названиями карт.
package tarot

import (
	"math/rand/v2"
	"slices"
	"strings"
)

// Категории карт. Колода состоит из Старших Арканов и четырех мастей.
const (
	CategoryMajor     = "Старшие Арканы"
	CategoryWands     = "Жезлы"
	CategoryCups      = "Кубки"
	CategorySwords    = "Мечи"
	CategoryPentacles = "Пентакли"
)

// Categories возвращает категории в порядке отображения.
func Categories() []string {
	return []string{CategoryMajor, CategoryWands, CategoryCups, CategorySwords, CategoryPentacles}
}

var deck = []string{
	// Старшие Арканы (22 карты)
	"Шут", "Маг", "Верховная Жрица", "Императрица", "Император",
	"Иерофант", "Влюбленные", "Колесница", "Сила", "Отшельник",
	"Колесо Фортуны", "Справедливость", "Повешенный", "Смерть",
	"Умеренность", "Дьявол", "Башня", "Звезда", "Луна", "Солнце",
	"Суд", "Мир",

	// Младшие Арканы: Жезлы (14 карт)
	"Туз Жезлов", "Двойка Жезлов", "Тройка Жезлов", "Четверка Жезлов",
	"Пятерка Жезлов", "Шестерка Жезлов", "Семерка Жезлов", "Восьмерка Жезлов",
	"Девятка Жезлов", "Десятка Жезлов", "Паж Жезлов", "Рыцарь Жезлов",
	"Королева Жезлов", "Король Жезлов",

	// Младшие Арканы: Кубки (14 карт)
	"Туз Кубков", "Двойка Кубков", "Тройка Кубков", "Четверка Кубков",
	"Пятерка Кубков", "Шестерка Кубков", "Семерка Кубков", "Восьмерка Кубков",
	"Девятка Кубков", "Десятка Кубков", "Паж Кубков", "Рыцарь Кубков",
	"Королева Кубков", "Король Кубков",

	// Младшие Арканы: Мечи (14 карт)
	"Туз Мечей", "Двойка Мечей", "Тройка Мечей", "Четверка Мечей",
	"Пятерка Мечей", "Шестерка Мечей", "Семерка Мечей", "Восьмерка Мечей",
	"Девятка Мечей", "Десятка Мечей", "Паж Мечей", "Рыцарь Мечей",
	"Королева Мечей", "Король Мечей",

	// Младшие Арканы: Пентакли (14 карт)
	"Туз Пентаклей", "Двойка Пентаклей", "Тройка Пентаклей", "Четверка Пентаклей",
	"Пятерка Пентаклей", "Шестерка Пентаклей", "Семерка Пентаклей", "Восьмерка Пентаклей",
	"Девятка Пентаклей", "Десятка Пентаклей", "Паж Пентаклей", "Рыцарь Пентаклей",
	"Королева Пентаклей", "Король Пентаклей",
}

// ранг внутри масти: Туз первый, затем числовые, затем придворные
var suitRank = map[string]int{
	"Туз": 1, "Двойка": 2, "Тройка": 3, "Четверка": 4, "Пятерка": 5,
	"Шестерка": 6, "Семерка": 7, "Восьмерка": 8, "Девятка": 9, "Десятка": 10,
	"Паж": 11, "Рыцарь": 12, "Королева": 13, "Король": 14,
}

var suitByCategory = map[string]string{
	CategoryWands:     "Жезлов",
	CategoryCups:      "Кубков",
	CategorySwords:    "Мечей",
	CategoryPentacles: "Пентаклей",
}

// Deck возвращает копию упорядоченной колоды из 78 карт.
func Deck() []string {
	return slices.Clone(deck)
}

// Contains сообщает, есть ли каноническое название в колоде.
func Contains(name string) bool {
	return slices.Contains(deck, name)
}

// ByCategory возвращает карты категории в фиксированном порядке показа:
// Старшие Арканы в порядке колоды, масти — Туз, числовые по возрастанию,
// затем Паж, Рыцарь, Королева, Король.
func ByCategory(category string) []string {
	if category == CategoryMajor {
		return slices.Clone(deck[:22])
	}
	suit, ok := suitByCategory[category]
	if !ok {
		return nil
	}
	var cards []string
	for _, card := range deck {
		if strings.HasSuffix(card, " "+suit) {
			cards = append(cards, card)
		}
	}
	slices.SortFunc(cards, func(a, b string) int {
		return suitRank[firstWord(a)] - suitRank[firstWord(b)]
	})
	return cards
}

// Sample вытягивает n различных карт равномерно и без возвращения.
func Sample(n int) []string {
	if n > len(deck) {
		n = len(deck)
	}
	idx := rand.Perm(len(deck))
	cards := make([]string, 0, n)
	for _, i := range idx[:n] {
		cards = append(cards, deck[i])
	}
	return cards
}

func firstWord(s string) string {
	if i := strings.IndexByte(s, ' '); i > 0 {
		return s[:i]
	}
	return s
}
