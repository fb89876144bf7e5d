package sender

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoRRet/TarotBot/internal/bot"
	"github.com/DoRRet/TarotBot/internal/models"
)

type transportFake struct {
	mu   sync.Mutex
	sent []bot.Outgoing
	// fail возвращает ошибку для указанных получателей.
	fail map[int64]error
	// failOnce ошибки, отдаваемые только при первой отправке получателю.
	failOnce map[int64]error
}

func (t *transportFake) Send(_ context.Context, msg bot.Outgoing) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err, ok := t.failOnce[msg.ChatID]; ok {
		delete(t.failOnce, msg.ChatID)
		return err
	}
	if err, ok := t.fail[msg.ChatID]; ok {
		return err
	}
	t.sent = append(t.sent, msg)
	return nil
}

func (t *transportFake) AnswerCallback(context.Context, string, string) error { return nil }

func (t *transportFake) sentTo() []int64 {
	t.mu.Lock()
	defer t.mu.Unlock()
	ids := make([]int64, 0, len(t.sent))
	for _, msg := range t.sent {
		ids = append(ids, msg.ChatID)
	}
	return ids
}

type directoryFake struct{ ids []int64 }

func (d *directoryFake) ListUserIDs(context.Context) ([]int64, error) {
	return d.ids, nil
}

func newTestService(transport *transportFake, ids []int64) *Service {
	svc := New(transport, &directoryFake{ids: ids}, 999,
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	// В тестах темп отправки не ограничиваем.
	svc.limiter.SetLimit(1e6)
	return svc
}

func TestBroadcast_DeliversToAll(t *testing.T) {
	transport := &transportFake{}
	svc := newTestService(transport, []int64{1, 2, 3})

	err := svc.Broadcast(context.Background(), models.BroadcastTask{Text: "привет"})
	require.NoError(t, err)

	// Три получателя плюс отчет администратору.
	assert.Equal(t, []int64{1, 2, 3, 999}, transport.sentTo())
}

func TestBroadcast_FailureDoesNotAbortBatch(t *testing.T) {
	transport := &transportFake{fail: map[int64]error{2: errors.New("blocked")}}
	svc := newTestService(transport, []int64{1, 2, 3})

	err := svc.Broadcast(context.Background(), models.BroadcastTask{Text: "привет"})
	require.NoError(t, err)

	assert.Equal(t, []int64{1, 3, 999}, transport.sentTo())

	last := transport.sent[len(transport.sent)-1]
	assert.Contains(t, last.Text, "Успешно: 2")
	assert.Contains(t, last.Text, "Ошибок: 1")
}

func TestBroadcast_RetryAfterIsHonored(t *testing.T) {
	transport := &transportFake{failOnce: map[int64]error{
		2: &bot.RetryAfterError{After: 10 * time.Millisecond},
	}}
	svc := newTestService(transport, []int64{1, 2})

	err := svc.Broadcast(context.Background(), models.BroadcastTask{Text: "привет"})
	require.NoError(t, err)

	// Повторная отправка после паузы доставляет сообщение.
	assert.Equal(t, []int64{1, 2, 999}, transport.sentTo())
}

func TestHandleTask_BadPayload(t *testing.T) {
	transport := &transportFake{}
	svc := newTestService(transport, nil)

	err := svc.HandleTask(context.Background(), []byte("не json"))
	require.Error(t, err)
	assert.Empty(t, transport.sentTo())
}
