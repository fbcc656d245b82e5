package workers

import (
	"context"
	"errors"
	"log"
	"time"

	"matchmaking-service/services"

	"github.com/redis/go-redis/v9"
)

// MatchWorker is the bounded pool of arrival consumers. Each worker blocks
// on the Redis arrival queue and runs one matching attempt per arrival.
// The claim coordinator makes concurrent workers safe; a worker that loses
// a claim simply moves on.
type MatchWorker struct {
	Queue       *services.RedisArrivalQueue
	Matchmaking *services.MatchmakingService
	Workers     int
	PopTimeout  time.Duration
}

func NewMatchWorker(queue *services.RedisArrivalQueue, matchmaking *services.MatchmakingService, workers int) *MatchWorker {
	if workers < 1 {
		workers = 1
	}
	return &MatchWorker{
		Queue:       queue,
		Matchmaking: matchmaking,
		Workers:     workers,
		PopTimeout:  5 * time.Second,
	}
}

func (w *MatchWorker) Start(ctx context.Context) {
	log.Printf("🔁 Starting %d match worker(s)…", w.Workers)
	for i := 0; i < w.Workers; i++ {
		go w.run(ctx, i)
	}
}

func (w *MatchWorker) run(ctx context.Context, id int) {
	for {
		select {
		case <-ctx.Done():
			log.Printf("⏹️ Match worker %d stopped", id)
			return
		default:
		}

		userID, err := w.Queue.Dequeue(ctx, w.PopTimeout)
		if err != nil {
			if errors.Is(err, redis.Nil) || errors.Is(err, context.Canceled) {
				continue
			}
			log.Printf("❌ [WORKER %d] Failed to pop arrival: %v", id, err)
			time.Sleep(time.Second)
			continue
		}

		if err := w.Matchmaking.ProcessUser(ctx, userID); err != nil {
			log.Printf("❌ [WORKER %d] Error processing user %s: %v", id, userID, err)
		}
	}
}
