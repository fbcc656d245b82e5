package services

import (
	"context"
	"testing"
	"time"

	"matchmaking-service/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestJoinRoomCreatesWaitingRoomAndCandidate(t *testing.T) {
	env := newTestEnv(t)
	env.addProfile(t, "user-a", "Alice", 120, strPtr("python"))

	room, err := env.rooms.JoinRoom(context.Background(), "user-a")
	require.NoError(t, err)
	assert.Equal(t, models.RoomWaiting, room.Status)
	assert.Equal(t, "user-a", room.UserID)

	var entry models.CandidateEntry
	require.NoError(t, env.db.Where("user_id = ?", "user-a").First(&entry).Error)
	assert.Equal(t, room.ID, entry.RoomID)
	assert.EqualValues(t, 120, entry.TierProgress)
	require.NotNil(t, entry.PreferredLanguage)
	assert.Equal(t, "python", *entry.PreferredLanguage)

	assert.Equal(t, []string{"user-a"}, env.queue.userIDs)
}

func TestJoinRoomUnknownUser(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.rooms.JoinRoom(context.Background(), "ghost")
	assert.ErrorIs(t, err, ErrNotFound)

	_, err = env.rooms.JoinRoom(context.Background(), "")
	assert.ErrorIs(t, err, ErrValidation)
}

func TestDoubleJoinLeavesExactlyOneWaitingRoom(t *testing.T) {
	env := newTestEnv(t)
	env.addProfile(t, "user-a", "Alice", 120, nil)

	first, err := env.rooms.JoinRoom(context.Background(), "user-a")
	require.NoError(t, err)
	second, err := env.rooms.JoinRoom(context.Background(), "user-a")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	var waiting int64
	env.db.Model(&models.Room{}).
		Where("user_id = ? AND status = ?", "user-a", models.RoomWaiting).
		Count(&waiting)
	assert.EqualValues(t, 1, waiting)

	// The candidate entry is replaced, not duplicated, and follows the
	// newest room.
	var entries []models.CandidateEntry
	require.NoError(t, env.db.Where("user_id = ?", "user-a").Find(&entries).Error)
	require.Len(t, entries, 1)
	assert.Equal(t, second.ID, entries[0].RoomID)
}

func TestPing(t *testing.T) {
	env := newTestEnv(t)
	env.addProfile(t, "user-a", "Alice", 120, nil)

	room, err := env.rooms.JoinRoom(context.Background(), "user-a")
	require.NoError(t, err)

	before := room.LastPing
	time.Sleep(10 * time.Millisecond)
	require.NoError(t, env.rooms.Ping(room.ID, "user-a"))

	var updated models.Room
	require.NoError(t, env.db.First(&updated, "id = ?", room.ID).Error)
	assert.True(t, updated.LastPing.After(before))
	assert.Equal(t, models.RoomWaiting, updated.Status)

	// A ping against someone else's room is NotFound.
	assert.ErrorIs(t, env.rooms.Ping(room.ID, "user-b"), ErrNotFound)
	assert.ErrorIs(t, env.rooms.Ping(uuid.NewString(), "user-a"), ErrNotFound)
}

func TestGetRoom(t *testing.T) {
	env := newTestEnv(t)
	env.addProfile(t, "user-a", "Alice", 120, nil)

	_, err := env.rooms.GetRoom("user-a")
	assert.ErrorIs(t, err, ErrNotFound)

	created, err := env.rooms.JoinRoom(context.Background(), "user-a")
	require.NoError(t, err)

	got, err := env.rooms.GetRoom("user-a")
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)
}

func TestLeaveRoom(t *testing.T) {
	env := newTestEnv(t)
	env.addProfile(t, "user-a", "Alice", 120, nil)

	_, err := env.rooms.JoinRoom(context.Background(), "user-a")
	require.NoError(t, err)
	require.NoError(t, env.rooms.LeaveRoom("user-a"))

	var rooms, entries int64
	env.db.Model(&models.Room{}).Where("user_id = ?", "user-a").Count(&rooms)
	env.db.Model(&models.CandidateEntry{}).Where("user_id = ?", "user-a").Count(&entries)
	assert.Zero(t, rooms)
	assert.Zero(t, entries)

	// Leaving again is a no-op, not an error.
	assert.NoError(t, env.rooms.LeaveRoom("user-a"))
}

func TestEstimatedQueueTime(t *testing.T) {
	env := newTestEnv(t)
	env.addProfile(t, "user-a", "Alice", 120, nil)
	env.addProfile(t, "user-b", "Bob", 130, nil)

	// No historical sample yet.
	estimate, err := env.rooms.EstimatedQueueTime("user-a")
	require.NoError(t, err)
	assert.Nil(t, estimate)

	// Two matched rooms in the same tier, waited 10s and 30s.
	base := time.Now().Add(-time.Hour)
	for i, wait := range []time.Duration{10 * time.Second, 30 * time.Second} {
		matchedAt := base.Add(wait)
		userID := []string{"user-a", "user-b"}[i]
		require.NoError(t, env.db.Create(&models.Room{
			ID:        uuid.NewString(),
			UserID:    userID,
			Status:    models.RoomMatched,
			CreatedAt: base,
			LastPing:  base,
			MatchedAt: &matchedAt,
		}).Error)
	}

	estimate, err = env.rooms.EstimatedQueueTime("user-a")
	require.NoError(t, err)
	require.NotNil(t, estimate)
	assert.InDelta(t, 20.0, estimate.Seconds, 0.5)
	assert.Equal(t, 2, estimate.SampleSize)
}
