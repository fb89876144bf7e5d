package bot

import (
	"context"
	"log/slog"
	"sync"
)

// userQueueSize глубина очереди событий одного пользователя.
const userQueueSize = 64

// Run читает события из канала и раскладывает их по пользовательским
// очередям: события одного пользователя обрабатываются строго в порядке
// поступления, разные пользователи идут параллельно. Возвращается после
// закрытия канала или отмены контекста, дообработав уже принятые события.
func (b *Bot) Run(ctx context.Context, updates <-chan Update) {
	var wg sync.WaitGroup
	queues := make(map[int64]chan Update)

	defer func() {
		for _, queue := range queues {
			close(queue)
		}
		wg.Wait()
	}()

	for {
		select {
		case <-ctx.Done():
			return
		case upd, ok := <-updates:
			if !ok {
				return
			}
			queue, found := queues[upd.UserID]
			if !found {
				queue = make(chan Update, userQueueSize)
				queues[upd.UserID] = queue
				wg.Add(1)
				go func() {
					defer wg.Done()
					for u := range queue {
						b.HandleUpdate(ctx, u)
					}
				}()
			}
			select {
			case queue <- upd:
			default:
				// Переполнение бывает только при зависшем пользователе,
				// терять событие лучше, чем тормозить остальных.
				b.log.Warn("user queue overflow, update dropped",
					slog.Int64("user_id", upd.UserID))
			}
		}
	}
}
