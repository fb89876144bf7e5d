package tarot

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"sync"

	"github.com/DoRRet/TarotBot/internal/lib/sl"
	"github.com/DoRRet/TarotBot/internal/models"
)

// Meanings справочник значений карт, загружаемый из JSON-файла.
// Загрузка ленивая и явная: EnsureLoaded перед первым чтением, Reload для
// обновления на лету. Если файл недоступен, справочник остается пустым —
// названия карт продолжают работать, а тексты значений сообщают "не найдено".
type Meanings struct {
	path string
	log  *slog.Logger

	mu     sync.RWMutex
	loaded bool
	data   map[string]models.CardMeaning
}

// NewMeanings создает справочник значений с указанным путем к файлу.
func NewMeanings(path string, log *slog.Logger) *Meanings {
	return &Meanings{
		path: path,
		log:  log,
		data: map[string]models.CardMeaning{},
	}
}

// EnsureLoaded загружает справочник, если он еще не загружен.
// Ошибка чтения файла не фатальна и не возвращается наружу.
func (m *Meanings) EnsureLoaded() {
	m.mu.RLock()
	loaded := m.loaded
	m.mu.RUnlock()
	if loaded {
		return
	}
	m.Reload()
}

// Reload перечитывает файл значений. При ошибке прежние данные сохраняются,
// а при первой загрузке справочник остается пустым.
func (m *Meanings) Reload() {
	const op = "tarot.Meanings.Reload"

	raw, err := os.ReadFile(m.path)
	if err != nil {
		m.log.Error("failed to read card meanings", slog.String("op", op),
			slog.String("path", m.path), sl.Err(err))
		m.markLoaded(nil)
		return
	}
	var data map[string]models.CardMeaning
	if err := json.Unmarshal(raw, &data); err != nil {
		m.log.Error("failed to parse card meanings", slog.String("op", op), sl.Err(err))
		m.markLoaded(nil)
		return
	}
	m.markLoaded(data)
	m.log.Info("card meanings loaded", slog.String("path", m.path), slog.Int("cards", len(data)))
}

func (m *Meanings) markLoaded(data map[string]models.CardMeaning) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.loaded = true
	if data != nil {
		m.data = data
	}
}

// Meaning возвращает справочные данные карты по каноническому названию.
func (m *Meanings) Meaning(name string) (models.CardMeaning, bool) {
	m.EnsureLoaded()
	m.mu.RLock()
	defer m.mu.RUnlock()
	meaning, ok := m.data[name]
	return meaning, ok
}

// Describe формирует текст значения карты с учетом положения.
func (m *Meanings) Describe(name string, reversed bool) string {
	meaning, ok := m.Meaning(name)
	if !ok {
		return fmt.Sprintf("🔮 Карта «%s» не найдена в справочнике.", name)
	}
	position := "Прямое"
	positionText := meaning.Upright
	if reversed {
		position = "Перевернутое"
		positionText = meaning.Reversed
	}
	return fmt.Sprintf(
		"✨ %s (%s положение)\n🏷 Категория: %s\n\n📖 Значение:\n%s\n\n🔮 %s положение:\n%s",
		name, position, meaning.Category, meaning.Meaning, position, positionText,
	)
}
