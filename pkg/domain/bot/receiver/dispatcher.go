package receiver

import (
	"context"
	"sync"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"github.com/rs/zerolog"
)

const shardBuffer = 16

type UpdateHandler interface {
	Handle(ctx context.Context, update tgbotapi.Update)
}

// Dispatcher fans updates out to a fixed set of workers. Updates of one user
// always land on the same worker, so they are handled in arrival order.
type Dispatcher struct {
	workers int
	handler UpdateHandler
	logger  zerolog.Logger
}

func NewDispatcher(workers int, handler UpdateHandler, logger zerolog.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	return &Dispatcher{
		workers: workers,
		handler: handler,
		logger:  logger.With().Str("component", "dispatcher").Logger(),
	}
}

// Run blocks until updates is closed or ctx is done, then waits for the
// workers to drain what they already received.
func (d *Dispatcher) Run(ctx context.Context, updates <-chan tgbotapi.Update) {
	shards := make([]chan tgbotapi.Update, d.workers)
	var wg sync.WaitGroup
	for i := range shards {
		shards[i] = make(chan tgbotapi.Update, shardBuffer)
		wg.Add(1)
		go func(in <-chan tgbotapi.Update) {
			defer wg.Done()
			for u := range in {
				d.handler.Handle(ctx, u)
			}
		}(shards[i])
	}
	d.logger.Info().Int("workers", d.workers).Msg("dispatcher started")

	defer func() {
		for _, ch := range shards {
			close(ch)
		}
		wg.Wait()
		d.logger.Info().Msg("dispatcher stopped")
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case u, ok := <-updates:
			if !ok {
				return
			}
			select {
			case shards[d.shard(u)] <- u:
			case <-ctx.Done():
				return
			}
		}
	}
}

func (d *Dispatcher) shard(u tgbotapi.Update) int {
	id := UserID(u)
	if id < 0 {
		id = -id
	}
	return int(id % int64(d.workers))
}

// UserID returns the sender of a message or button press, 0 otherwise.
func UserID(u tgbotapi.Update) int64 {
	switch {
	case u.Message != nil && u.Message.From != nil:
		return u.Message.From.ID
	case u.CallbackQuery != nil && u.CallbackQuery.From != nil:
		return u.CallbackQuery.From.ID
	}
	return 0
}
