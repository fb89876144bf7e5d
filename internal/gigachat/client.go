// Package gigachat реализует клиент внешнего сервиса генерации текста.
// Вызов состоит из двух шагов: обмен статического ключа на короткоживущий
// bearer-токен и запрос генерации по фиксированному шаблону. Все отказы
// сводятся к двум типизированным исходам — ErrTimeout и ErrGenerationFailed.
package gigachat

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/google/uuid"

	"github.com/DoRRet/TarotBot/internal/config"
	"github.com/DoRRet/TarotBot/internal/lib/sl"
)

// Типизированные исходы вызова генерации.
var (
	// ErrTimeout превышен общий таймаут вызова.
	ErrTimeout = errors.New("generation timed out")
	// ErrGenerationFailed отказ обмена токена, не-2xx ответ или пустое тело.
	ErrGenerationFailed = errors.New("generation failed")
)

// Client клиент GigaChat API.
type Client struct {
	authKey    string
	scope      string
	oauthURL   string
	apiURL     string
	httpClient *http.Client
	log        *slog.Logger
}

// NewClient создает клиент генерации. Если указан путь к корневому
// сертификату, он добавляется к системному пулу доверенных.
func NewClient(cfg config.GigaChat, log *slog.Logger) (*Client, error) {
	const op = "gigachat.NewClient"

	httpClient := &http.Client{}
	if cfg.CACertPath != "" {
		pem, err := os.ReadFile(cfg.CACertPath)
		if err != nil {
			return nil, fmt.Errorf("%s: %w", op, err)
		}
		pool, err := x509.SystemCertPool()
		if err != nil {
			pool = x509.NewCertPool()
		}
		if !pool.AppendCertsFromPEM(pem) {
			return nil, fmt.Errorf("%s: failed to parse CA certificate %s", op, cfg.CACertPath)
		}
		httpClient.Transport = &http.Transport{
			TLSClientConfig: &tls.Config{RootCAs: pool},
		}
	}

	return &Client{
		authKey:    cfg.AuthKey,
		scope:      cfg.Scope,
		oauthURL:   cfg.OAuthURL,
		apiURL:     cfg.APIURL,
		httpClient: httpClient,
		log:        log,
	}, nil
}

// accessToken обменивает статический ключ на bearer-токен.
// Каждый запрос несет свежий RqUID.
func (c *Client) accessToken(ctx context.Context) (string, error) {
	const op = "gigachat.accessToken"

	form := url.Values{"scope": {c.scope}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.oauthURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", uuid.NewString())
	req.Header.Set("Authorization", "Basic "+c.authKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classify(op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		c.log.Error("gigachat auth failed", slog.Int("status", resp.StatusCode))
		return "", fmt.Errorf("%s: status %d: %w", op, resp.StatusCode, ErrGenerationFailed)
	}

	var token tokenResponse
	if err = json.NewDecoder(resp.Body).Decode(&token); err != nil {
		return "", fmt.Errorf("%s: %w: %w", op, ErrGenerationFailed, err)
	}
	if token.AccessToken == "" {
		return "", fmt.Errorf("%s: empty access token: %w", op, ErrGenerationFailed)
	}
	return token.AccessToken, nil
}

// Generate запрашивает интерпретацию расклада. Общий таймаут задает
// вызывающая сторона через контекст; по его истечении запрос бросается,
// сигналов отмены внешнему сервису не посылается.
func (c *Client) Generate(ctx context.Context, question, situation string, cards []string) (string, error) {
	const op = "gigachat.Generate"

	token, err := c.accessToken(ctx)
	if err != nil {
		return "", err
	}

	payload := chatRequest{
		Model:       "GigaChat",
		Messages:    []chatMessage{{Role: "user", Content: buildPrompt(question, situation, cards)}},
		Temperature: 0.7,
		MaxTokens:   1024,
	}
	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost,
		c.apiURL+"/chat/completions", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("%s: %w", op, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", classify(op, err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode != http.StatusOK {
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, 1024))
		c.log.Error("gigachat api error", slog.Int("status", resp.StatusCode),
			slog.String("body", string(raw)))
		return "", fmt.Errorf("%s: status %d: %w", op, resp.StatusCode, ErrGenerationFailed)
	}

	var chatResp chatResponse
	if err = json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		// Дедлайн может истечь уже во время чтения тела, тогда
		// ошибка приходит из декодера и тоже считается таймаутом.
		c.log.Error("gigachat malformed response", sl.Err(err))
		return "", classify(op, err)
	}
	if len(chatResp.Choices) == 0 || chatResp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%s: empty interpretation: %w", op, ErrGenerationFailed)
	}
	return chatResp.Choices[0].Message.Content, nil
}

// buildPrompt собирает фиксированный шаблон запроса: по тематическому блоку
// на карту, разбор ситуации и совет вопрошающему.
func buildPrompt(question, situation string, cards []string) string {
	var b strings.Builder
	b.WriteString("Ты опытный таролог (Таро Уэйта). Вопрошающий задал вопрос: «")
	b.WriteString(question)
	b.WriteString("».\n")
	if situation != "" {
		b.WriteString("Предыстория ситуации: «")
		b.WriteString(situation)
		b.WriteString("».\n")
	}
	if len(cards) > 0 {
		b.WriteString("Выпали карты: ")
		b.WriteString(strings.Join(cards, ", "))
		b.WriteString(".\n")
	}
	b.WriteString("Дай краткий ответ объемом 120–180 слов в таком оформлении: ")
	b.WriteString("пронумерованный блок «✨Название карты✨» с двумя-тремя пунктами «⭐️» на каждую карту, ")
	b.WriteString("затем раздел «✨Разбор ситуации:✨» со связкой карт с вопросом и предысторией, ")
	b.WriteString("затем раздел «✨Совет для вопрошающего:✨» с конкретными действиями.")
	return b.String()
}

// classify сводит транспортные отказы к типизированным исходам:
// истекший дедлайн — таймаут, все остальное — отказ генерации.
func classify(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, ErrTimeout)
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return fmt.Errorf("%s: %w", op, ErrTimeout)
	}
	return fmt.Errorf("%s: %w: %w", op, ErrGenerationFailed, err)
}
