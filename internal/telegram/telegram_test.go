package telegram

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoRRet/TarotBot/internal/bot"
)

func newTestClient(apiURL string) *Client {
	return &Client{
		apiURL:      apiURL,
		pollTimeout: time.Second,
		httpClient:  &http.Client{},
		log:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestSend_BuildsKeyboard(t *testing.T) {
	var got map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/sendMessage", r.URL.Path)
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		_, _ = w.Write([]byte(`{"ok":true,"result":{}}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	err := client.Send(context.Background(), bot.Outgoing{
		ChatID: 42,
		Text:   "привет",
		Keyboard: [][]bot.Button{
			{{Label: "🏠 На главную", Data: "start_over"}},
		},
	})
	require.NoError(t, err)

	assert.Equal(t, float64(42), got["chat_id"])
	assert.Equal(t, "привет", got["text"])
	markup := got["reply_markup"].(map[string]any)
	keyboard := markup["inline_keyboard"].([]any)
	require.Len(t, keyboard, 1)
}

func TestSend_RetryAfter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusTooManyRequests)
		_, _ = w.Write([]byte(`{"ok":false,"description":"Too Many Requests","parameters":{"retry_after":7}}`))
	}))
	defer srv.Close()

	client := newTestClient(srv.URL)
	err := client.Send(context.Background(), bot.Outgoing{ChatID: 42, Text: "x"})
	require.Error(t, err)

	var retryErr *bot.RetryAfterError
	require.ErrorAs(t, err, &retryErr)
	assert.Equal(t, 7*time.Second, retryErr.After)
}

func TestConvert(t *testing.T) {
	raw := `{"update_id":1,"message":{"from":{"id":10,"username":"alice"},"text":"/start 777"}}`
	var upd apiUpdate
	require.NoError(t, json.Unmarshal([]byte(raw), &upd))

	converted, ok := convert(upd)
	require.True(t, ok)
	assert.Equal(t, int64(10), converted.UserID)
	assert.Equal(t, "/start", converted.Command)
	assert.Equal(t, "777", converted.StartPayload)
	assert.Empty(t, converted.Text)

	raw = `{"update_id":2,"callback_query":{"id":"cb1","from":{"id":11,"username":"bob"},"data":"pick_card_2"}}`
	require.NoError(t, json.Unmarshal([]byte(raw), &upd))
	upd.Message = nil
	converted, ok = convert(upd)
	require.True(t, ok)
	assert.Equal(t, "pick_card_2", converted.Callback)
	assert.Equal(t, "cb1", converted.CallbackID)
}

func TestUpdates_DeliversAndAdvancesOffset(t *testing.T) {
	var mu sync.Mutex
	var offsets []float64
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		mu.Lock()
		offsets = append(offsets, req["offset"].(float64))
		first := len(offsets) == 1
		mu.Unlock()

		if first {
			_, _ = w.Write([]byte(`{"ok":true,"result":[{"update_id":5,"message":{"from":{"id":10,"username":"alice"},"text":"привет"}}]}`))
			return
		}
		_, _ = w.Write([]byte(`{"ok":true,"result":[]}`))
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	client := newTestClient(srv.URL)
	updates := client.Updates(ctx)

	upd := <-updates
	assert.Equal(t, int64(10), upd.UserID)
	assert.Equal(t, "привет", upd.Text)

	// Дожидаемся следующего опроса с продвинутым offset.
	assert.Eventually(t, func() bool {
		mu.Lock()
		defer mu.Unlock()
		return len(offsets) >= 2
	}, 2*time.Second, 10*time.Millisecond)
	cancel()

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, float64(6), offsets[1])
}
