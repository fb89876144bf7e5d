package repository

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterUser_NewUserGetsFiveAttempts(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	res, err := storage.RegisterUser(ctx, 100, "newuser", nil)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.False(t, res.BonusGranted)

	attempts, err := storage.GetAttempts(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, 5, attempts)
}

func TestRegisterUser_ReferralBonusGrantedExactlyOnce(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	_, err := storage.RegisterUser(ctx, 1, "referrer", nil)
	require.NoError(t, err)

	referrer := int64(1)
	res, err := storage.RegisterUser(ctx, 2, "invited", &referrer)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.True(t, res.BonusGranted)

	// по одной попытке обоим
	attempts, err := storage.GetAttempts(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 6, attempts)
	attempts, err = storage.GetAttempts(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 6, attempts)

	// повторная регистрация бонус не начисляет
	res, err = storage.RegisterUser(ctx, 2, "invited2", &referrer)
	require.NoError(t, err)
	assert.False(t, res.Created)
	assert.False(t, res.BonusGranted)

	attempts, err = storage.GetAttempts(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 6, attempts)
	attempts, err = storage.GetAttempts(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, 6, attempts)

	user, err := storage.GetUser(ctx, 2)
	require.NoError(t, err)
	assert.Equal(t, "invited2", user.Username)

	count, err := storage.CountReferrals(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, count)
}

func TestRegisterUser_SelfReferralIgnored(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	self := int64(7)
	res, err := storage.RegisterUser(ctx, 7, "selfie", &self)
	require.NoError(t, err)
	assert.True(t, res.Created)
	assert.False(t, res.BonusGranted)

	attempts, err := storage.GetAttempts(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, 5, attempts)
}

func TestAdjustAttempts_FloorWithSubscription(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	_, err := storage.RegisterUser(ctx, 10, "subscriber", nil)
	require.NoError(t, err)
	require.NoError(t, storage.GrantSubscription(ctx, 10, "premium", 30))

	// при активной подписке списания прижимаются к нулю
	for range 10 {
		require.NoError(t, storage.AdjustAttempts(ctx, 10, -1))
	}
	attempts, err := storage.GetAttempts(ctx, 10)
	require.NoError(t, err)
	assert.Equal(t, 0, attempts)

	// без подписки административное списание уходит в минус
	_, err = storage.RegisterUser(ctx, 11, "plain", nil)
	require.NoError(t, err)
	require.NoError(t, storage.AdjustAttempts(ctx, 11, -7))
	attempts, err = storage.GetAttempts(ctx, 11)
	require.NoError(t, err)
	assert.Equal(t, -2, attempts)
}

func TestSubscriptions_GrantAndCancel(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	_, err := storage.RegisterUser(ctx, 20, "user", nil)
	require.NoError(t, err)

	active, err := storage.HasActiveSubscription(ctx, 20)
	require.NoError(t, err)
	assert.False(t, active)

	require.NoError(t, storage.GrantSubscription(ctx, 20, "premium", 30))
	active, err = storage.HasActiveSubscription(ctx, 20)
	require.NoError(t, err)
	assert.True(t, active)

	cancelled, err := storage.CancelActiveSubscriptions(ctx, 20)
	require.NoError(t, err)
	assert.Equal(t, 1, cancelled)

	active, err = storage.HasActiveSubscription(ctx, 20)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestSaveReading_AppendOnly(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	_, err := storage.RegisterUser(ctx, 30, "reader", nil)
	require.NoError(t, err)

	err = storage.SaveReading(ctx, 30, "Что меня ждет?", "", []string{"Шут", "Маг"}, "текст интерпретации")
	require.NoError(t, err)

	count, err := storage.CountReadings(ctx, 30)
	require.NoError(t, err)
	assert.Equal(t, 1, count)

	var cards string
	require.NoError(t, storage.DB.QueryRow(
		`SELECT cards FROM readings WHERE user_id = 30`).Scan(&cards))
	assert.Equal(t, "Шут,Маг", cards)
}

func TestStats(t *testing.T) {
	if testing.Short() {
		t.Skip("integration test")
	}
	storage, cleanup := setupTestDatabase(t)
	defer cleanup()
	ctx := context.Background()

	_, err := storage.RegisterUser(ctx, 40, "a", nil)
	require.NoError(t, err)
	_, err = storage.RegisterUser(ctx, 41, "b", nil)
	require.NoError(t, err)
	require.NoError(t, storage.GrantSubscription(ctx, 40, "premium", 30))
	require.NoError(t, storage.SaveReading(ctx, 40, "q", "s", []string{"Шут"}, "i"))

	stats, err := storage.Stats(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, stats.TotalUsers)
	assert.Equal(t, 1, stats.TotalReadings)
	assert.Equal(t, 1, stats.ActiveSubscriptions)
	assert.Equal(t, 10, stats.RemainingAttempts)
	assert.Equal(t, 1, stats.ReadingsLastDay)
	assert.Equal(t, 1, stats.ReadingsLastWeek)

	users, err := storage.ListUsers(ctx, 10)
	require.NoError(t, err)
	require.Len(t, users, 2)
}
