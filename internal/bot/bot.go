package bot

import (
	"context"
	"log/slog"
	"strconv"
	"time"

	"github.com/DoRRet/TarotBot/internal/lib/sl"
	"github.com/DoRRet/TarotBot/internal/models"
	"github.com/DoRRet/TarotBot/internal/session"
	"github.com/DoRRet/TarotBot/internal/tarot"
)

// Entitlements определяет операции доступа и учета, нужные диалогам.
type Entitlements interface {
	Register(ctx context.Context, telegramID int64, username string, referrerID *int64) error
	HasAccess(ctx context.Context, telegramID int64) (bool, error)
	HasSubscription(ctx context.Context, telegramID int64) (bool, error)
	Attempts(ctx context.Context, telegramID int64) (int, error)
	ConsumeAttempt(ctx context.Context, telegramID int64) error
	Adjust(ctx context.Context, telegramID int64, delta int) error
	Grant(ctx context.Context, telegramID int64, subType string, durationDays int) error
	Cancel(ctx context.Context, telegramID int64) (int, error)
	RecordReading(ctx context.Context, telegramID int64, question, situation string, cards []string, interpretation string) error
	Referrals(ctx context.Context, telegramID int64) (int, error)
	Stats(ctx context.Context) (*models.Stats, error)
	ListUsers(ctx context.Context, limit int) ([]models.UserSummary, error)
}

// Interpreter генерирует интерпретацию расклада.
type Interpreter interface {
	Generate(ctx context.Context, question, situation string, cards []string) (string, error)
}

// BroadcastPublisher публикует задание рассылки в очередь.
type BroadcastPublisher interface {
	Publish(ctx context.Context, task models.BroadcastTask) error
}

// Options настройки диалоговой логики.
type Options struct {
	AdminChatID     int64
	AdminUsername   string
	BotName         string
	GenerateTimeout time.Duration
}

// Bot связывает транспорт, сервисы и состояние диалогов.
type Bot struct {
	transport  Transport
	ents       Entitlements
	interp     Interpreter
	meanings   *tarot.Meanings
	sessions   session.Store
	locks      *session.Locks
	broadcasts BroadcastPublisher
	opts       Options
	log        *slog.Logger
}

// New создает диалоговую логику бота.
func New(transport Transport, ents Entitlements, interp Interpreter,
	meanings *tarot.Meanings, sessions session.Store,
	broadcasts BroadcastPublisher, opts Options, log *slog.Logger) *Bot {
	if opts.GenerateTimeout <= 0 {
		opts.GenerateTimeout = 30 * time.Second
	}
	return &Bot{
		transport:  transport,
		ents:       ents,
		interp:     interp,
		meanings:   meanings,
		sessions:   sessions,
		locks:      session.NewLocks(),
		broadcasts: broadcasts,
		opts:       opts,
		log:        log,
	}
}

// HandleUpdate обрабатывает одно входящее событие. События одного
// пользователя сериализуются, разные пользователи идут параллельно.
// Любая не обработанная ниже ошибка превращается в общий ответ
// "попробуйте позже" и сброс диалога.
func (b *Bot) HandleUpdate(ctx context.Context, upd Update) {
	unlock := b.locks.Lock(upd.UserID)
	defer unlock()

	if err := b.dispatch(ctx, upd); err != nil {
		b.log.Error("failed to handle update",
			slog.Int64("user_id", upd.UserID), sl.Err(err))
		_ = b.sessions.Clear(ctx, upd.UserID)
		b.send(ctx, upd.UserID, "⚠️ Произошла ошибка. Попробуйте позже.", homeKeyboard())
	}
}

func (b *Bot) dispatch(ctx context.Context, upd Update) error {
	switch upd.Command {
	case "/start":
		return b.handleStart(ctx, upd)
	case "/help":
		return b.showHelp(ctx, upd.UserID)
	case "/cancel":
		return b.cancel(ctx, upd.UserID)
	case "/admin":
		return b.adminMenu(ctx, upd)
	}

	if upd.Callback != "" {
		return b.handleAction(ctx, upd, ParseCallback(upd.Callback))
	}
	return b.handleText(ctx, upd)
}

// handleText маршрутизирует свободный текст по текущему шагу диалога.
// Без активного диалога любой текст возвращает главное меню.
func (b *Bot) handleText(ctx context.Context, upd Update) error {
	state, found, err := b.sessions.Get(ctx, upd.UserID)
	if err != nil {
		return err
	}
	if !found {
		return b.mainMenu(ctx, upd.UserID)
	}

	// Литеральное "назад" в любом текстовом шаге сбрасывает диалог.
	if isBackWord(upd.Text) {
		if err := b.sessions.Clear(ctx, upd.UserID); err != nil {
			return err
		}
		return b.mainMenu(ctx, upd.UserID)
	}

	switch state.Step {
	case session.StepQuestion:
		return b.handleQuestion(ctx, upd, state)
	case session.StepSituation:
		return b.handleSituation(ctx, upd, state)
	case session.StepCardCount:
		return b.handleCardCount(ctx, upd, state)
	case session.StepManualCards:
		return b.handleManualCards(ctx, upd, state)
	case session.StepSpreadPicks:
		// Выбор идет кнопками, текст просто напоминает об этом.
		b.send(ctx, upd.UserID, "🃏 Выберите карты кнопками выше.", nil)
		return nil
	case session.StepConsultation:
		return b.handleConsultationDetails(ctx, upd)
	case session.StepAdminQuestion:
		return b.handleAdminQuestion(ctx, upd)
	case session.StepSearchCard:
		return b.handleSearch(ctx, upd)
	case session.StepAdminUserID:
		return b.handleAdminUserID(ctx, upd, state)
	case session.StepAdminAttempts:
		return b.handleAdminAttempts(ctx, upd, state)
	case session.StepAdminBroadcast:
		return b.handleAdminBroadcastText(ctx, upd)
	default:
		if err := b.sessions.Clear(ctx, upd.UserID); err != nil {
			return err
		}
		return b.mainMenu(ctx, upd.UserID)
	}
}

func (b *Bot) handleAction(ctx context.Context, upd Update, action Action) error {
	// Нажатие подтверждается сразу, кроме случаев, где нужен
	// содержательный всплывающий ответ.
	if upd.CallbackID != "" && action.Kind != ActionPickCard && action.Kind != ActionPickedIgnore {
		_ = b.transport.AnswerCallback(ctx, upd.CallbackID, "")
	}

	switch action.Kind {
	case ActionStartOver:
		if err := b.sessions.Clear(ctx, upd.UserID); err != nil {
			return err
		}
		return b.mainMenu(ctx, upd.UserID)
	case ActionRequestReading:
		return b.beginReading(ctx, upd)
	case ActionDailyReading:
		return b.quickReading(ctx, upd, "daily", "Что меня ждет сегодня?", "✨ Ваш дневной расклад:")
	case ActionWeeklyReading:
		return b.quickReading(ctx, upd, "weekly", "Что меня ждет на этой неделе?", "✨ Ваш недельный расклад:")
	case ActionSubscription:
		return b.showSubscriptions(ctx, upd.UserID)
	case ActionChooseOffer:
		return b.chooseOffer(ctx, upd, action.Arg)
	case ActionCardMeanings:
		return b.showCategories(ctx, upd.UserID)
	case ActionCategory:
		return b.showCategory(ctx, upd.UserID, action.Arg)
	case ActionMeaning:
		return b.showMeaning(ctx, upd.UserID, action.Arg, action.Reversed)
	case ActionSearchCard:
		return b.beginSearch(ctx, upd.UserID)
	case ActionConsultation:
		return b.showConsultation(ctx, upd.UserID)
	case ActionConfirmConsultation:
		return b.beginConsultation(ctx, upd.UserID)
	case ActionReferral:
		return b.showReferral(ctx, upd)
	case ActionHelp:
		return b.showHelp(ctx, upd.UserID)
	case ActionAskAdmin:
		return b.beginAdminQuestion(ctx, upd.UserID)
	case ActionRandomCards, ActionManualCards, ActionPickCards:
		return b.chooseMethod(ctx, upd, action.Kind)
	case ActionPickCard:
		return b.handlePick(ctx, upd, action.Index)
	case ActionPickedIgnore:
		if upd.CallbackID != "" {
			_ = b.transport.AnswerCallback(ctx, upd.CallbackID, "Эту карту вы уже выбрали!")
		}
		return nil
	case ActionBack:
		return b.goBack(ctx, upd)
	case ActionAdminMenu:
		return b.adminMenu(ctx, upd)
	case ActionAdminUsers:
		return b.adminUsersMenu(ctx, upd)
	case ActionAdminAnalytics:
		return b.adminAnalytics(ctx, upd)
	case ActionAdminBroadcast:
		return b.adminBeginBroadcast(ctx, upd)
	case ActionAdminAddAttempts, ActionAdminRemoveAttempts, ActionAdminAddSub, ActionAdminCancelSub:
		return b.adminRequestUserID(ctx, upd, action.Kind)
	case ActionAdminListUsers:
		return b.adminListUsers(ctx, upd)
	case ActionAdminSubMonthly:
		return b.adminGrantMonthly(ctx, upd)
	default:
		if err := b.sessions.Clear(ctx, upd.UserID); err != nil {
			return err
		}
		return b.mainMenu(ctx, upd.UserID)
	}
}

// handleStart регистрирует пользователя и показывает главное меню.
// Аргумент deep-link становится реферером, самореферал отбрасывается.
func (b *Bot) handleStart(ctx context.Context, upd Update) error {
	var referrerID *int64
	if upd.StartPayload != "" {
		if id, err := strconv.ParseInt(upd.StartPayload, 10, 64); err == nil && id != upd.UserID {
			referrerID = &id
		}
	}
	if err := b.ents.Register(ctx, upd.UserID, upd.Username, referrerID); err != nil {
		return err
	}
	if err := b.sessions.Clear(ctx, upd.UserID); err != nil {
		return err
	}
	return b.mainMenu(ctx, upd.UserID)
}

func (b *Bot) cancel(ctx context.Context, userID int64) error {
	if err := b.sessions.Clear(ctx, userID); err != nil {
		return err
	}
	b.send(ctx, userID, "❌ Действие отменено.", homeKeyboard())
	return nil
}

// goBack возвращает на предыдущий записанный шаг диалога;
// без записанного шага — на выбор способа, без диалога — в меню.
func (b *Bot) goBack(ctx context.Context, upd Update) error {
	state, found, err := b.sessions.Get(ctx, upd.UserID)
	if err != nil {
		return err
	}
	if !found {
		return b.mainMenu(ctx, upd.UserID)
	}

	prev := state.PrevStep
	if prev == "" {
		prev = session.StepMethod
	}
	state.Step = prev
	state.PrevStep = ""
	if err := b.sessions.Put(ctx, upd.UserID, state); err != nil {
		return err
	}
	return b.promptStep(ctx, upd.UserID, state)
}

// promptStep повторяет приглашение текущего шага диалога.
func (b *Bot) promptStep(ctx context.Context, userID int64, state *session.State) error {
	switch state.Step {
	case session.StepQuestion:
		b.send(ctx, userID, questionPrompt, nil)
	case session.StepSituation:
		b.send(ctx, userID, situationPrompt, backKeyboard())
	case session.StepCardCount:
		b.send(ctx, userID, cardCountPrompt, backKeyboard())
	case session.StepMethod:
		b.send(ctx, userID, "🃏 Как выбрать карты?", methodKeyboard())
	case session.StepManualCards:
		b.send(ctx, userID, manualCardsPrompt, nil)
	default:
		return b.mainMenu(ctx, userID)
	}
	return nil
}

// send отправляет сообщение, проглатывая транспортную ошибку: диалог
// важнее, чем одна потерянная реплика.
func (b *Bot) send(ctx context.Context, chatID int64, text string, keyboard [][]Button) {
	err := b.transport.Send(ctx, Outgoing{ChatID: chatID, Text: text, Keyboard: keyboard})
	if err != nil {
		b.log.Warn("failed to send message", slog.Int64("chat_id", chatID), sl.Err(err))
	}
}

// notifyAdmin отправляет служебное сообщение администратору.
func (b *Bot) notifyAdmin(ctx context.Context, text string) {
	b.send(ctx, b.opts.AdminChatID, text, nil)
}

func (b *Bot) isAdmin(userID int64) bool {
	return userID == b.opts.AdminChatID
}

func isBackWord(text string) bool {
	return len(text) > 0 && tarot.Normalize(text) == "назад"
}
