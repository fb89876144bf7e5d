package tarot

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newNoopLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{}))
}

func TestMeanings_Load(t *testing.T) {
	content := `{
		"Шут": {
			"category": "Старшие Арканы",
			"meaning": "Начало пути",
			"upright": "Спонтанность",
			"reversed": "Безрассудство"
		}
	}`
	path := filepath.Join(t.TempDir(), "card_meanings.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	m := NewMeanings(path, newNoopLogger())

	meaning, ok := m.Meaning("Шут")
	require.True(t, ok)
	assert.Equal(t, CategoryMajor, meaning.Category)
	assert.Equal(t, "Начало пути", meaning.Meaning)

	_, ok = m.Meaning("Маг")
	assert.False(t, ok)
}

func TestMeanings_MissingFileDoesNotFail(t *testing.T) {
	m := NewMeanings(filepath.Join(t.TempDir(), "absent.json"), newNoopLogger())
	m.EnsureLoaded()

	_, ok := m.Meaning("Шут")
	assert.False(t, ok)
	assert.Contains(t, m.Describe("Шут", false), "не найдена")
}

func TestMeanings_Describe(t *testing.T) {
	content := `{
		"Башня": {
			"category": "Старшие Арканы",
			"meaning": "Внезапные перемены",
			"upright": "Разрушение старого",
			"reversed": "Отложенный кризис"
		}
	}`
	path := filepath.Join(t.TempDir(), "card_meanings.json")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	m := NewMeanings(path, newNoopLogger())

	upright := m.Describe("Башня", false)
	assert.Contains(t, upright, "Прямое положение")
	assert.Contains(t, upright, "Разрушение старого")

	reversed := m.Describe("Башня", true)
	assert.Contains(t, reversed, "Перевернутое положение")
	assert.Contains(t, reversed, "Отложенный кризис")
}
