package tarot

import (
	"strings"
	"unicode"

	"github.com/agnivade/levenshtein"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MinMatchRatio порог схожести, ниже которого ввод считается нераспознанным.
const MinMatchRatio = 0.7

var stripDiacritics = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Normalize приводит название карты к сравнимой форме: обрезает пробелы,
// переводит в нижний регистр, сводит ё к е и убирает диакритику.
func Normalize(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	name = strings.ReplaceAll(name, "ё", "е")
	if folded, _, err := transform.String(stripDiacritics, name); err == nil {
		name = folded
	}
	return name
}

// Match сопоставляет произвольный ввод с каноническим названием из candidates.
// Сначала точное совпадение нормализованных форм, затем ближайший кандидат
// по схожести; если лучшая схожесть ниже minRatio, ввод возвращается как есть
// с признаком found=false.
func Match(input string, candidates []string, minRatio float64) (string, bool) {
	inputNorm := Normalize(input)

	best := ""
	bestRatio := 0.0
	for _, c := range candidates {
		cNorm := Normalize(c)
		if cNorm == inputNorm {
			return c, true
		}
		if r := similarity(inputNorm, cNorm); r > bestRatio {
			best, bestRatio = c, r
		}
	}
	if bestRatio >= minRatio {
		return best, true
	}
	return input, false
}

// MatchResult результат разбора ввода с несколькими картами через запятую.
type MatchResult struct {
	Resolved   []string // Распознанные канонические названия без дублей
	Unresolved []string // Токены, не сопоставленные ни с одной картой
}

// MatchAll разбирает ввод вида "Шут, Маг, Смерть": каждый токен
// сопоставляется независимо, нераспознанные собираются вместе, а не
// сообщаются по одному. Повторно распознанное название учитывается один раз.
func MatchAll(input string, candidates []string) MatchResult {
	var res MatchResult
	seen := make(map[string]struct{})
	for _, token := range strings.Split(input, ",") {
		token = strings.TrimSpace(token)
		if token == "" {
			continue
		}
		card, found := Match(token, candidates, MinMatchRatio)
		if !found {
			res.Unresolved = append(res.Unresolved, token)
			continue
		}
		if _, dup := seen[card]; dup {
			continue
		}
		seen[card] = struct{}{}
		res.Resolved = append(res.Resolved, card)
	}
	return res
}

// Search ищет карты по запросу: сначала нечеткое сопоставление с каждой
// картой, затем поиск подстроки в нормализованных названиях.
func Search(query string) []string {
	var results []string
	for _, card := range deck {
		if _, found := Match(query, []string{card}, MinMatchRatio); found {
			results = append(results, card)
		}
	}
	if len(results) > 0 {
		return results
	}
	queryNorm := Normalize(query)
	for _, card := range deck {
		if strings.Contains(Normalize(card), queryNorm) {
			results = append(results, card)
		}
	}
	return results
}

// similarity считает схожесть как 1 - dist/maxLen по расстоянию Левенштейна.
func similarity(a, b string) float64 {
	if a == "" && b == "" {
		return 1
	}
	la, lb := len([]rune(a)), len([]rune(b))
	longest := max(la, lb)
	if longest == 0 {
		return 0
	}
	dist := levenshtein.ComputeDistance(a, b)
	return 1 - float64(dist)/float64(longest)
}
