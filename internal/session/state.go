// Package session хранит временное состояние диалога пользователя:
// текущий шаг сценария расклада, накопленные ответы и контекст
// административных операций. Состояние живет в хранилище с TTL,
// его отсутствие означает, что пользователь в главном меню.
package session

// Step шаг многошагового диалога.
type Step string

const (
	// Шаги сценария расклада.
	StepQuestion    Step = "question"
	StepSituation   Step = "situation"
	StepCardCount   Step = "card_count"
	StepMethod      Step = "method"
	StepManualCards Step = "manual_cards"
	StepSpreadPicks Step = "spread_picks"

	// Побочные сценарии.
	StepAdminQuestion Step = "admin_question"
	StepConsultation  Step = "consultation"
	StepSearchCard    Step = "search_card"

	// Шаги административной консоли.
	StepAdminUserID    Step = "admin_user_id"
	StepAdminAttempts  Step = "admin_attempts"
	StepAdminSubType   Step = "admin_sub_type"
	StepAdminBroadcast Step = "admin_broadcast"
)

// State состояние одного диалога. Значение создается при входе в сценарий,
// передается явно в каждую функцию перехода и удаляется при завершении,
// отмене или истечении TTL.
type State struct {
	Step     Step `json:"step"`
	PrevStep Step `json:"prev_step,omitempty"` // Для кнопки "назад"

	// Сценарий расклада.
	Question  string   `json:"question,omitempty"`
	Situation string   `json:"situation,omitempty"`
	NumCards  int      `json:"num_cards,omitempty"`
	Method    string   `json:"method,omitempty"`
	Cards     []string `json:"cards,omitempty"`

	// Выбор карт по рубашкам: фиксированный пул из шести карт и уже
	// выбранные позиции.
	PickDeck []string `json:"pick_deck,omitempty"`
	Picked   []string `json:"picked,omitempty"`

	// Административная консоль.
	AdminAction string `json:"admin_action,omitempty"`
	AdminUserID int64  `json:"admin_user_id,omitempty"`
}

// Advance переводит диалог на следующий шаг, запоминая предыдущий.
func (s *State) Advance(next Step) {
	s.PrevStep = s.Step
	s.Step = next
}

// HasPicked сообщает, выбрана ли уже карта card в пуле по рубашкам.
func (s *State) HasPicked(card string) bool {
	for _, p := range s.Picked {
		if p == card {
			return true
		}
	}
	return false
}
