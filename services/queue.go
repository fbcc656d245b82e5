package services

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// ArrivalQueueKey is the Redis list the match workers consume.
const ArrivalQueueKey = "matchmaking:arrivals"

// ArrivalQueue hands freshly joined users to the match workers.
type ArrivalQueue interface {
	Enqueue(ctx context.Context, userID string) error
}

// RedisArrivalQueue is a Redis list used as the arrival queue. Joins LPUSH
// the user id; workers BRPOP it, so arrivals are served oldest first.
type RedisArrivalQueue struct {
	Client *redis.Client
	Key    string
}

func NewRedisArrivalQueue(client *redis.Client) *RedisArrivalQueue {
	return &RedisArrivalQueue{Client: client, Key: ArrivalQueueKey}
}

func (q *RedisArrivalQueue) Enqueue(ctx context.Context, userID string) error {
	return q.Client.LPush(ctx, q.Key, userID).Err()
}

// Dequeue blocks up to timeout for the next arrival. Returns redis.Nil
// when the wait times out with nothing queued.
func (q *RedisArrivalQueue) Dequeue(ctx context.Context, timeout time.Duration) (string, error) {
	res, err := q.Client.BRPop(ctx, timeout, q.Key).Result()
	if err != nil {
		return "", err
	}
	// BRPOP returns [key, value]
	return res[1], nil
}
