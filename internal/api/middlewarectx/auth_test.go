package middlewarectx

import (
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/DoRRet/TarotBot/internal/lib/jwt"
)

func TestJWTMiddleware(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelDebug}))
	maker := jwt.NewJWTMaker("test_secret_key_1234567890", time.Hour)

	adminToken, err := maker.GenerateToken("admin", "admin")
	require.NoError(t, err)
	userToken, err := maker.GenerateToken("someone", "user")
	require.NoError(t, err)

	otherMaker := jwt.NewJWTMaker("another_secret_key", time.Hour)
	foreignToken, err := otherMaker.GenerateToken("admin", "admin")
	require.NoError(t, err)

	tests := []struct {
		name           string
		authHeader     string
		expectedStatus int
		expectNext     bool
	}{
		{
			name:           "валидный токен администратора",
			authHeader:     "Bearer " + adminToken,
			expectedStatus: http.StatusOK,
			expectNext:     true,
		},
		{
			name:           "без заголовка",
			authHeader:     "",
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "без префикса Bearer",
			authHeader:     adminToken,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "токен с чужой подписью",
			authHeader:     "Bearer " + foreignToken,
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "роль без прав администратора",
			authHeader:     "Bearer " + userToken,
			expectedStatus: http.StatusForbidden,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			nextCalled := false
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				nextCalled = true
				assert.Equal(t, "admin", r.Context().Value(User))
				assert.Equal(t, "admin", r.Context().Value(Role))
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/stats", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			w := httptest.NewRecorder()

			JWTMiddleware(maker, logger)(next).ServeHTTP(w, req)

			assert.Equal(t, tt.expectedStatus, w.Code)
			assert.Equal(t, tt.expectNext, nextCalled)
		})
	}
}
