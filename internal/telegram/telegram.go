// Package telegram реализует транспорт бота поверх Telegram Bot API:
// long-poll получение апдейтов и отправку сообщений с inline-клавиатурами.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/DoRRet/TarotBot/internal/bot"
	"github.com/DoRRet/TarotBot/internal/config"
	"github.com/DoRRet/TarotBot/internal/lib/sl"
)

// Client клиент Telegram Bot API, реализует bot.Transport и bot.UpdateSource.
type Client struct {
	apiURL      string
	pollTimeout time.Duration
	httpClient  *http.Client
	log         *slog.Logger
}

// New создает транспорт Telegram.
func New(cfg config.Telegram, log *slog.Logger) *Client {
	poll := cfg.PollTimeout
	if poll <= 0 {
		poll = 30 * time.Second
	}
	return &Client{
		apiURL:      "https://api.telegram.org/bot" + cfg.Token,
		pollTimeout: poll,
		// Таймаут клиента должен переживать long-poll запрос.
		httpClient: &http.Client{Timeout: poll + 10*time.Second},
		log:        log,
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	Result      json.RawMessage `json:"result"`
	Description string          `json:"description"`
	Parameters  *struct {
		RetryAfter int `json:"retry_after"`
	} `json:"parameters"`
}

type apiUpdate struct {
	UpdateID int64 `json:"update_id"`
	Message  *struct {
		From *struct {
			ID       int64  `json:"id"`
			Username string `json:"username"`
		} `json:"from"`
		Text string `json:"text"`
	} `json:"message"`
	CallbackQuery *struct {
		ID   string `json:"id"`
		From struct {
			ID       int64  `json:"id"`
			Username string `json:"username"`
		} `json:"from"`
		Data string `json:"data"`
	} `json:"callback_query"`
}

type inlineButton struct {
	Text         string `json:"text"`
	CallbackData string `json:"callback_data,omitempty"`
	URL          string `json:"url,omitempty"`
}

type inlineMarkup struct {
	InlineKeyboard [][]inlineButton `json:"inline_keyboard"`
}

// call выполняет один метод Bot API. Ограничение скорости возвращается
// как *bot.RetryAfterError.
func (c *Client) call(ctx context.Context, method string, payload any) (json.RawMessage, error) {
	const op = "telegram.call"

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apiURL+"/"+method, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	var apiResp apiResponse
	if err := json.Unmarshal(raw, &apiResp); err != nil {
		return nil, fmt.Errorf("%s: %s: %w", op, method, err)
	}
	if !apiResp.OK {
		if resp.StatusCode == http.StatusTooManyRequests && apiResp.Parameters != nil {
			return nil, &bot.RetryAfterError{
				After: time.Duration(apiResp.Parameters.RetryAfter) * time.Second,
			}
		}
		return nil, fmt.Errorf("%s: %s: %s", op, method, apiResp.Description)
	}
	return apiResp.Result, nil
}

// Send отправляет сообщение с опциональной inline-клавиатурой.
func (c *Client) Send(ctx context.Context, msg bot.Outgoing) error {
	payload := map[string]any{
		"chat_id": msg.ChatID,
		"text":    msg.Text,
	}
	if len(msg.Keyboard) > 0 {
		markup := inlineMarkup{}
		for _, row := range msg.Keyboard {
			var line []inlineButton
			for _, btn := range row {
				line = append(line, inlineButton{
					Text:         btn.Label,
					CallbackData: btn.Data,
					URL:          btn.URL,
				})
			}
			markup.InlineKeyboard = append(markup.InlineKeyboard, line)
		}
		payload["reply_markup"] = markup
	}
	_, err := c.call(ctx, "sendMessage", payload)
	return err
}

// AnswerCallback подтверждает нажатие кнопки.
func (c *Client) AnswerCallback(ctx context.Context, callbackID, text string) error {
	payload := map[string]any{"callback_query_id": callbackID}
	if text != "" {
		payload["text"] = text
		payload["show_alert"] = true
	}
	_, err := c.call(ctx, "answerCallbackQuery", payload)
	return err
}

// Updates запускает long-poll цикл getUpdates. Канал закрывается
// при отмене контекста; ошибки опроса логируются, цикл продолжается
// с короткой паузой.
func (c *Client) Updates(ctx context.Context) <-chan bot.Update {
	out := make(chan bot.Update)
	go func() {
		defer close(out)
		var offset int64
		for {
			select {
			case <-ctx.Done():
				return
			default:
			}

			raw, err := c.call(ctx, "getUpdates", map[string]any{
				"offset":          offset,
				"timeout":         int(c.pollTimeout.Seconds()),
				"allowed_updates": []string{"message", "callback_query"},
			})
			if err != nil {
				if ctx.Err() != nil {
					return
				}
				c.log.Error("failed to poll updates", sl.Err(err))
				select {
				case <-ctx.Done():
					return
				case <-time.After(3 * time.Second):
				}
				continue
			}

			var updates []apiUpdate
			if err := json.Unmarshal(raw, &updates); err != nil {
				c.log.Error("failed to decode updates", sl.Err(err))
				continue
			}
			for _, upd := range updates {
				if upd.UpdateID >= offset {
					offset = upd.UpdateID + 1
				}
				converted, ok := convert(upd)
				if !ok {
					continue
				}
				select {
				case <-ctx.Done():
					return
				case out <- converted:
				}
			}
		}
	}()
	return out
}

// convert переводит апдейт Bot API во внутреннее событие бота.
func convert(upd apiUpdate) (bot.Update, bool) {
	if upd.CallbackQuery != nil {
		return bot.Update{
			UserID:     upd.CallbackQuery.From.ID,
			Username:   upd.CallbackQuery.From.Username,
			Callback:   upd.CallbackQuery.Data,
			CallbackID: upd.CallbackQuery.ID,
		}, true
	}
	if upd.Message == nil || upd.Message.From == nil {
		return bot.Update{}, false
	}

	out := bot.Update{
		UserID:   upd.Message.From.ID,
		Username: upd.Message.From.Username,
		Text:     upd.Message.Text,
	}
	if strings.HasPrefix(out.Text, "/") {
		parts := strings.Fields(out.Text)
		out.Command = parts[0]
		if len(parts) > 1 {
			out.StartPayload = parts[1]
		}
		out.Text = ""
	}
	return out, true
}
