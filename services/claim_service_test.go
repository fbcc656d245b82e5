package services

import (
	"sync"
	"testing"
	"time"

	"matchmaking-service/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func waitingRoom(t *testing.T, env *testEnv, userID string, createdAt time.Time) models.Room {
	t.Helper()
	room := models.Room{
		ID:        uuid.NewString(),
		UserID:    userID,
		Status:    models.RoomWaiting,
		CreatedAt: createdAt,
		LastPing:  time.Now(),
	}
	require.NoError(t, env.db.Create(&room).Error)
	return room
}

func TestClaimRoomExactlyOnce(t *testing.T) {
	env := newTestEnv(t)
	room := waitingRoom(t, env, "user-a", time.Now())

	ok, err := env.claims.ClaimRoom(room.ID)
	require.NoError(t, err)
	assert.True(t, ok)

	// Second claim loses silently.
	ok, err = env.claims.ClaimRoom(room.ID)
	require.NoError(t, err)
	assert.False(t, ok)

	var got models.Room
	require.NoError(t, env.db.First(&got, "id = ?", room.ID).Error)
	assert.Equal(t, models.RoomProcessing, got.Status)
}

func TestConcurrentClaimsOneWinner(t *testing.T) {
	env := newTestEnv(t)
	room := waitingRoom(t, env, "user-a", time.Now())

	var wg sync.WaitGroup
	results := make([]bool, 2)
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i], errs[i] = env.claims.ClaimRoom(room.ID)
		}(i)
	}
	wg.Wait()

	require.NoError(t, errs[0])
	require.NoError(t, errs[1])
	assert.True(t, results[0] != results[1], "exactly one claim must win, got %v", results)
}

func TestClaimBatchOldestFirstWithinLimit(t *testing.T) {
	env := newTestEnv(t)
	now := time.Now()
	oldest := waitingRoom(t, env, "user-1", now.Add(-3*time.Minute))
	middle := waitingRoom(t, env, "user-2", now.Add(-2*time.Minute))
	waitingRoom(t, env, "user-3", now.Add(-1*time.Minute))

	claimed, err := env.claims.ClaimBatch(2, 30*time.Second)
	require.NoError(t, err)
	require.Len(t, claimed, 2)
	assert.Equal(t, oldest.ID, claimed[0].ID)
	assert.Equal(t, middle.ID, claimed[1].ID)

	for _, room := range claimed {
		assert.Equal(t, models.RoomProcessing, room.Status)
	}
}

func TestClaimBatchSkipsStaleAndClaimedRooms(t *testing.T) {
	env := newTestEnv(t)

	stale := models.Room{
		ID:       uuid.NewString(),
		UserID:   "user-stale",
		Status:   models.RoomWaiting,
		LastPing: time.Now().Add(-time.Minute),
	}
	require.NoError(t, env.db.Create(&stale).Error)

	held := waitingRoom(t, env, "user-held", time.Now())
	ok, err := env.claims.ClaimRoom(held.ID)
	require.NoError(t, err)
	require.True(t, ok)

	fresh := waitingRoom(t, env, "user-fresh", time.Now())

	claimed, err := env.claims.ClaimBatch(10, 30*time.Second)
	require.NoError(t, err)
	require.Len(t, claimed, 1)
	assert.Equal(t, fresh.ID, claimed[0].ID)
}

func TestReleaseMakesRoomClaimableAgain(t *testing.T) {
	env := newTestEnv(t)
	room := waitingRoom(t, env, "user-a", time.Now())

	ok, err := env.claims.ClaimRoom(room.ID)
	require.NoError(t, err)
	require.True(t, ok)

	require.NoError(t, env.claims.Release(room.ID))

	ok, err = env.claims.ClaimRoom(room.ID)
	require.NoError(t, err)
	assert.True(t, ok)
}
