package receiver

import (
	"context"
	"sync"
	"testing"
	"time"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type orderRecorder struct {
	mu   sync.Mutex
	seen map[int64][]int
}

func (r *orderRecorder) Handle(_ context.Context, u tgbotapi.Update) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id := UserID(u)
	r.seen[id] = append(r.seen[id], u.UpdateID)
}

func TestDispatcher_KeepsPerUserOrder(t *testing.T) {
	rec := &orderRecorder{seen: make(map[int64][]int)}
	d := NewDispatcher(4, rec, zerolog.Nop())

	updates := make(chan tgbotapi.Update)
	done := make(chan struct{})
	go func() {
		d.Run(context.Background(), updates)
		close(done)
	}()

	const perUser = 50
	for i := 0; i < perUser; i++ {
		for user := int64(1); user <= 6; user++ {
			updates <- tgbotapi.Update{
				UpdateID: i,
				CallbackQuery: &tgbotapi.CallbackQuery{
					From: &tgbotapi.User{ID: user},
				},
			}
		}
	}
	close(updates)

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("dispatcher did not stop")
	}

	require.Len(t, rec.seen, 6)
	for user, ids := range rec.seen {
		require.Len(t, ids, perUser, "user %d", user)
		for i, id := range ids {
			assert.Equal(t, i, id, "user %d", user)
		}
	}
}

func TestDispatcher_StopsOnCancel(t *testing.T) {
	rec := &orderRecorder{seen: make(map[int64][]int)}
	d := NewDispatcher(0, rec, zerolog.Nop())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		d.Run(ctx, make(chan tgbotapi.Update))
		close(done)
	}()
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("dispatcher ignored cancellation")
	}
}

func TestUserID(t *testing.T) {
	assert.Equal(t, int64(5), UserID(tgbotapi.Update{Message: &tgbotapi.Message{From: &tgbotapi.User{ID: 5}}}))
	assert.Equal(t, int64(6), UserID(tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{From: &tgbotapi.User{ID: 6}}}))
	assert.Zero(t, UserID(tgbotapi.Update{}))
}
