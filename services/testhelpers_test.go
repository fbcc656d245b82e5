package services

import (
	"context"
	"sync"
	"testing"

	"matchmaking-service/models"

	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// A pooled :memory: connection is a separate empty database; pin the
	// pool to one connection so every query sees the same schema.
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(
		&models.Room{},
		&models.CandidateEntry{},
		&models.Competition{},
		&models.CompetitionParticipant{},
		&models.Tier{},
		&models.PlayerProfile{},
	))
	require.NoError(t, db.Create(&models.DefaultTiers).Error)

	return db
}

type fakeQueue struct {
	mu      sync.Mutex
	userIDs []string
}

func (f *fakeQueue) Enqueue(_ context.Context, userID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.userIDs = append(f.userIDs, userID)
	return nil
}

type fakeNotifier struct {
	mu     sync.Mutex
	events map[string][]models.RoomEvent
}

func newFakeNotifier() *fakeNotifier {
	return &fakeNotifier{events: make(map[string][]models.RoomEvent)}
}

func (f *fakeNotifier) PublishRoomEvent(_ context.Context, userID string, event models.RoomEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events[userID] = append(f.events[userID], event)
}

func (f *fakeNotifier) eventsFor(userID string) []models.RoomEvent {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.events[userID]
}

type fakeGenerator struct {
	response   string
	err        error
	lastPrompt string
	lastSystem string
}

func (f *fakeGenerator) Generate(_ context.Context, prompt, system string) (string, error) {
	f.lastPrompt = prompt
	f.lastSystem = system
	if f.err != nil {
		return "", f.err
	}
	return f.response, nil
}

const generatedCompetition = `Here you go:
$$$$
{"question": "Given a string of X and O, find the minimum swaps to group all X together.", "endDateTime": "2031-01-01T10:00:00Z"}
$$$$`

type testEnv struct {
	db          *gorm.DB
	queue       *fakeQueue
	notifier    *fakeNotifier
	generator   *fakeGenerator
	profiles    *ProfileService
	rooms       *RoomService
	claims      *ClaimService
	matchmaking *MatchmakingService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	queue := &fakeQueue{}
	notifier := newFakeNotifier()
	generator := &fakeGenerator{response: generatedCompetition}

	profiles := NewProfileService(db)
	rooms := NewRoomService(db, profiles, queue)
	claims := NewClaimService(db)
	generate := NewGenerateService(db, profiles)
	competitions := NewCompetitionService(db, generate, generator)
	matchmaking := NewMatchmakingService(db, claims, profiles, competitions, notifier, DefaultMatchConfig())

	return &testEnv{
		db:          db,
		queue:       queue,
		notifier:    notifier,
		generator:   generator,
		profiles:    profiles,
		rooms:       rooms,
		claims:      claims,
		matchmaking: matchmaking,
	}
}

func (e *testEnv) addProfile(t *testing.T, userID, name string, tierProgress int64, language *string) {
	t.Helper()
	require.NoError(t, e.db.Create(&models.PlayerProfile{
		ID:                uuid.NewString(),
		ExternalUserID:    userID,
		Name:              name,
		TierID:            "tier-2",
		TierProgress:      tierProgress,
		PreferredLanguage: language,
	}).Error)
}

func strPtr(s string) *string {
	return &s
}
