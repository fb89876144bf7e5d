package gigachat

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoRRet/TarotBot/internal/config"
)

func newTestClient(oauthURL, apiURL string) *Client {
	return &Client{
		authKey:    "dGVzdDp0ZXN0",
		scope:      "GIGACHAT_API_PERS",
		oauthURL:   oauthURL,
		apiURL:     apiURL,
		httpClient: &http.Client{},
		log:        slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func newOAuthServer(t *testing.T) *httptest.Server {
	t.Helper()

	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "Basic dGVzdDp0ZXN0", r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("RqUID"))

		body, err := io.ReadAll(r.Body)
		require.NoError(t, err)
		form, err := url.ParseQuery(string(body))
		require.NoError(t, err)
		assert.Equal(t, "GIGACHAT_API_PERS", form.Get("scope"))

		_ = json.NewEncoder(w).Encode(map[string]any{
			"access_token": "token-123",
			"expires_at":   time.Now().Add(30 * time.Minute).UnixMilli(),
		})
	}))
}

func TestGenerate_Success(t *testing.T) {
	oauth := newOAuthServer(t)
	defer oauth.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/chat/completions", r.URL.Path)
		assert.Equal(t, "Bearer token-123", r.Header.Get("Authorization"))

		var req chatRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "GigaChat", req.Model)
		require.Len(t, req.Messages, 1)
		assert.Contains(t, req.Messages[0].Content, "Будет ли успех?")
		assert.Contains(t, req.Messages[0].Content, "Шут, Маг")

		_ = json.NewEncoder(w).Encode(chatResponse{
			Choices: []chatChoice{{Message: chatMessage{Role: "assistant", Content: "интерпретация"}}},
		})
	}))
	defer api.Close()

	client := newTestClient(oauth.URL, api.URL)

	text, err := client.Generate(context.Background(), "Будет ли успех?", "новая работа", []string{"Шут", "Маг"})
	require.NoError(t, err)
	assert.Equal(t, "интерпретация", text)
}

func TestGenerate_Timeout(t *testing.T) {
	oauth := newOAuthServer(t)
	defer oauth.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer api.Close()

	client := newTestClient(oauth.URL, api.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := client.Generate(ctx, "вопрос", "", []string{"Шут"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestGenerate_TimeoutWhileReadingBody(t *testing.T) {
	oauth := newOAuthServer(t)
	defer oauth.Close()

	// Сервер отдает заголовки и обрывок тела, затем молчит: дедлайн
	// истекает уже на чтении ответа, а не на установке соединения.
	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = io.WriteString(w, `{"choices":[{"message":{"role":"assistant","con`)
		w.(http.Flusher).Flush()
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer api.Close()

	client := newTestClient(oauth.URL, api.URL)

	ctx, cancel := context.WithTimeout(context.Background(), 200*time.Millisecond)
	defer cancel()

	_, err := client.Generate(ctx, "вопрос", "", []string{"Шут"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrTimeout)
}

func TestGenerate_MalformedBody(t *testing.T) {
	oauth := newOAuthServer(t)
	defer oauth.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, "{not json")
	}))
	defer api.Close()

	client := newTestClient(oauth.URL, api.URL)

	_, err := client.Generate(context.Background(), "вопрос", "", []string{"Шут"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestGenerate_APIError(t *testing.T) {
	oauth := newOAuthServer(t)
	defer oauth.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "internal error", http.StatusInternalServerError)
	}))
	defer api.Close()

	client := newTestClient(oauth.URL, api.URL)

	_, err := client.Generate(context.Background(), "вопрос", "", []string{"Шут"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestGenerate_EmptyChoices(t *testing.T) {
	oauth := newOAuthServer(t)
	defer oauth.Close()

	api := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_ = json.NewEncoder(w).Encode(chatResponse{})
	}))
	defer api.Close()

	client := newTestClient(oauth.URL, api.URL)

	_, err := client.Generate(context.Background(), "вопрос", "", []string{"Шут"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestGenerate_AuthFailure(t *testing.T) {
	oauth := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	}))
	defer oauth.Close()

	client := newTestClient(oauth.URL, "http://unused.invalid")

	_, err := client.Generate(context.Background(), "вопрос", "", []string{"Шут"})
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrGenerationFailed)
}

func TestNewClient_BadCAPath(t *testing.T) {
	_, err := NewClient(config.GigaChat{CACertPath: "/no/such/file.pem"},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.Error(t, err)
}

func TestBuildPrompt(t *testing.T) {
	prompt := buildPrompt("Вопрос?", "", nil)
	assert.Contains(t, prompt, "Вопрос?")
	assert.False(t, strings.Contains(prompt, "Предыстория"))

	prompt = buildPrompt("Вопрос?", "ситуация", []string{"Шут", "Мир"})
	assert.Contains(t, prompt, "ситуация")
	assert.Contains(t, prompt, "Шут, Мир")
}
