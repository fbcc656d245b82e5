package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"matchmaking-service/models"

	"github.com/redis/go-redis/v9"
)

// Notifier publishes match outcome events to a user's room channel.
// Delivery is at-least-once and fire-and-forget: failures are logged and
// never block or reverse a committed match.
type Notifier interface {
	PublishRoomEvent(ctx context.Context, userID string, event models.RoomEvent)
}

// RedisNotifier publishes room events over Redis pub/sub.
type RedisNotifier struct {
	Client *redis.Client
}

func NewRedisNotifier(client *redis.Client) *RedisNotifier {
	return &RedisNotifier{Client: client}
}

// RoomChannel derives the per-user channel name.
func RoomChannel(userID string) string {
	return fmt.Sprintf("user-%s-room", userID)
}

func (n *RedisNotifier) PublishRoomEvent(ctx context.Context, userID string, event models.RoomEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		log.Printf("❌ [NOTIFY] Failed to marshal %s event for user %s: %v", event.Type, userID, err)
		return
	}

	if err := n.Client.Publish(ctx, RoomChannel(userID), payload).Err(); err != nil {
		log.Printf("❌ [NOTIFY] Failed to publish %s event to %s: %v", event.Type, RoomChannel(userID), err)
	}
}
