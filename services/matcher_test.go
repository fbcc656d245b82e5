package services

import (
	"testing"

	"matchmaking-service/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func entry(userID string, tierProgress int64, language *string) models.CandidateEntry {
	return models.CandidateEntry{
		UserID:            userID,
		RoomID:            "room-" + userID,
		TierProgress:      tierProgress,
		PreferredLanguage: language,
	}
}

func TestFindOpponentEmptyPool(t *testing.T) {
	assert.Nil(t, FindOpponent(entry("a", 100, nil), nil, false))
}

func TestFindOpponentNeverPicksSelf(t *testing.T) {
	current := entry("a", 100, nil)
	pool := []models.CandidateEntry{entry("a", 100, nil)}
	assert.Nil(t, FindOpponent(current, pool, false))
}

func TestFindOpponentSmallestTierDiff(t *testing.T) {
	current := entry("me", 100, nil)
	pool := []models.CandidateEntry{
		entry("far", 500, nil),
		entry("close", 110, nil),
		entry("mid", 200, nil),
	}

	got := FindOpponent(current, pool, false)
	require.NotNil(t, got)
	assert.Equal(t, "close", got.UserID)
}

func TestFindOpponentTieGoesToFirstScanned(t *testing.T) {
	// Current user at 51, candidates at 10, 50 and 52: both 50 and 52 are
	// at difference 1. The scan updates only on strict improvement, so the
	// first-scanned of the tied pair wins regardless of numeric order.
	current := entry("me", 51, nil)

	got := FindOpponent(current, []models.CandidateEntry{
		entry("u10", 10, nil),
		entry("u50", 50, nil),
		entry("u52", 52, nil),
	}, false)
	require.NotNil(t, got)
	assert.Equal(t, "u50", got.UserID)

	got = FindOpponent(current, []models.CandidateEntry{
		entry("u10", 10, nil),
		entry("u52", 52, nil),
		entry("u50", 50, nil),
	}, false)
	require.NotNil(t, got)
	assert.Equal(t, "u52", got.UserID)
}

func TestFindOpponentLanguageAffinity(t *testing.T) {
	current := entry("me", 100, strPtr("python"))
	pool := []models.CandidateEntry{
		entry("closer-go", 101, strPtr("go")),
		entry("farther-python", 150, strPtr("python")),
	}

	// A same-language candidate beats a closer one in another language.
	got := FindOpponent(current, pool, false)
	require.NotNil(t, got)
	assert.Equal(t, "farther-python", got.UserID)
}

func TestFindOpponentLanguageFallback(t *testing.T) {
	current := entry("me", 100, strPtr("python"))
	pool := []models.CandidateEntry{entry("go-only", 101, strPtr("go"))}

	// Without fallback an empty language-filtered pool means no match.
	assert.Nil(t, FindOpponent(current, pool, false))

	got := FindOpponent(current, pool, true)
	require.NotNil(t, got)
	assert.Equal(t, "go-only", got.UserID)
}

func TestFindOpponentNoPreferredLanguageSkipsFilter(t *testing.T) {
	current := entry("me", 100, nil)
	pool := []models.CandidateEntry{entry("python-user", 105, strPtr("python"))}

	got := FindOpponent(current, pool, false)
	require.NotNil(t, got)
	assert.Equal(t, "python-user", got.UserID)
}
