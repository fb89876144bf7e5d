package tarot

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalize(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{name: "trim and lowercase", input: "  Шут  ", want: "шут"},
		{name: "fold yo", input: "Пятёрка Жезлов", want: "пятерка жезлов"},
		{name: "already normal", input: "маг", want: "маг"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Normalize(tt.input))
		})
	}
}

func TestMatch(t *testing.T) {
	tests := []struct {
		name      string
		input     string
		want      string
		wantFound bool
	}{
		{name: "exact", input: "Шут", want: "Шут", wantFound: true},
		{name: "case insensitive", input: "шут", want: "Шут", wantFound: true},
		{name: "yo folded", input: "пятёрка жезлов", want: "Пятерка Жезлов", wantFound: true},
		{name: "single typo long name", input: "Имперотрица", want: "Императрица", wantFound: true},
		{name: "typo in two words", input: "Верховная Жрицо", want: "Верховная Жрица", wantFound: true},
		{name: "unrelated string", input: "абракадабра", want: "абракадабра", wantFound: false},
		{name: "empty-ish", input: "xyz", want: "xyz", wantFound: false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, found := Match(tt.input, Deck(), MinMatchRatio)
			assert.Equal(t, tt.wantFound, found)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestMatchAll(t *testing.T) {
	tests := []struct {
		name           string
		input          string
		wantResolved   []string
		wantUnresolved []string
	}{
		{
			name:         "all resolved",
			input:        "Шут, Маг, Смерть",
			wantResolved: []string{"Шут", "Маг", "Смерть"},
		},
		{
			name:           "mixed",
			input:          "Шут, чепуха, Башня",
			wantResolved:   []string{"Шут", "Башня"},
			wantUnresolved: []string{"чепуха"},
		},
		{
			name:         "duplicates collapse",
			input:        "Шут, шут, ШУТ",
			wantResolved: []string{"Шут"},
		},
		{
			name:         "empty tokens skipped",
			input:        "Шут, , Маг,",
			wantResolved: []string{"Шут", "Маг"},
		},
		{
			name:           "all unresolved reported together",
			input:          "foo, bar",
			wantUnresolved: []string{"foo", "bar"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			res := MatchAll(tt.input, Deck())
			assert.Equal(t, tt.wantResolved, res.Resolved)
			assert.Equal(t, tt.wantUnresolved, res.Unresolved)
		})
	}
}

func TestSearch(t *testing.T) {
	assert.Contains(t, Search("жрица"), "Верховная Жрица")

	// подстрока по нормализованной форме
	results := Search("жезл")
	assert.NotEmpty(t, results)
	for _, card := range results {
		assert.Contains(t, card, "Жезлов")
	}

	assert.Empty(t, Search("квазар"))
}
