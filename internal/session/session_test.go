package session

import (
	"context"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	_, found, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, found)

	state := &State{Step: StepQuestion, Question: "Что дальше?"}
	require.NoError(t, store.Put(ctx, 1, state))

	got, found, err := store.Get(ctx, 1)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, StepQuestion, got.Step)
	assert.Equal(t, "Что дальше?", got.Question)

	// возвращается копия, мутация не затрагивает хранилище
	got.Question = "другой"
	again, _, err := store.Get(ctx, 1)
	require.NoError(t, err)
	assert.Equal(t, "Что дальше?", again.Question)

	require.NoError(t, store.Clear(ctx, 1))
	_, found, err = store.Get(ctx, 1)
	require.NoError(t, err)
	assert.False(t, found)
}

func TestState_Advance(t *testing.T) {
	s := &State{Step: StepQuestion}
	s.Advance(StepSituation)
	assert.Equal(t, StepSituation, s.Step)
	assert.Equal(t, StepQuestion, s.PrevStep)
}

func TestState_HasPicked(t *testing.T) {
	s := &State{Picked: []string{"Шут", "Маг"}}
	assert.True(t, s.HasPicked("Шут"))
	assert.False(t, s.HasPicked("Башня"))
}

func TestLocks_SerializePerUser(t *testing.T) {
	locks := NewLocks()
	counter := 0

	var wg sync.WaitGroup
	for range 100 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			unlock := locks.Lock(42)
			defer unlock()
			counter++
		}()
	}
	wg.Wait()

	assert.Equal(t, 100, counter)
}

func TestLocks_IndependentUsers(t *testing.T) {
	locks := NewLocks()

	unlockA := locks.Lock(1)
	// замок другого пользователя не блокируется
	unlockB := locks.Lock(2)
	unlockB()
	unlockA()
}
