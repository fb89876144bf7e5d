package login

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoRRet/TarotBot/internal/config"
	"github.com/DoRRet/TarotBot/internal/lib/jwt"
	"github.com/DoRRet/TarotBot/internal/lib/password"
)

func TestLoginHandler(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	hash, err := password.GetHash("correct-horse")
	require.NoError(t, err)

	admin := config.Admin{
		APIUser:         "admin",
		APIPasswordHash: hash,
	}
	maker := jwt.NewJWTMaker("test_secret_key_1234567890", time.Hour)

	tests := []struct {
		name           string
		body           string
		expectedStatus int
		expectedBody   string
	}{
		{
			name:           "успешный вход",
			body:           `{"username":"admin","password":"correct-horse"}`,
			expectedStatus: http.StatusOK,
			expectedBody:   `"token":`,
		},
		{
			name:           "неверный пароль",
			body:           `{"username":"admin","password":"wrong"}`,
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `incorrect user or password`,
		},
		{
			name:           "неизвестный пользователь",
			body:           `{"username":"intruder","password":"correct-horse"}`,
			expectedStatus: http.StatusUnauthorized,
			expectedBody:   `incorrect user or password`,
		},
		{
			name:           "пустой пароль",
			body:           `{"username":"admin"}`,
			expectedStatus: http.StatusUnprocessableEntity,
			expectedBody:   `field Password is a required field`,
		},
		{
			name:           "некорректный json",
			body:           `{not json`,
			expectedStatus: http.StatusBadRequest,
			expectedBody:   `invalid request body`,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			handler := New(logger, admin, maker)

			req := httptest.NewRequest(http.MethodPost, "/login", strings.NewReader(tt.body))
			w := httptest.NewRecorder()

			handler.ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Contains(t, w.Body.String(), tt.expectedBody)
		})
	}
}

func TestLoginHandler_TokenCarriesAdminRole(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))

	hash, err := password.GetHash("correct-horse")
	require.NoError(t, err)

	maker := jwt.NewJWTMaker("test_secret_key_1234567890", time.Hour)
	handler := New(logger, config.Admin{APIUser: "admin", APIPasswordHash: hash}, maker)

	req := httptest.NewRequest(http.MethodPost, "/login",
		strings.NewReader(`{"username":"admin","password":"correct-horse"}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)

	body := w.Body.String()
	start := strings.Index(body, `"token":"`)
	require.Greater(t, start, 0)
	token := body[start+len(`"token":"`):]
	token = token[:strings.Index(token, `"`)]

	claims, err := maker.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "admin", claims.Username)
	assert.Equal(t, "admin", claims.Role)
}
