package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"matchmaking-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RoomService owns the room lifecycle: join, heartbeat, lookup, leave and
// the queue-time analytics. Matching itself lives in MatchmakingService.
type RoomService struct {
	DB       *gorm.DB
	Profiles *ProfileService
	Queue    ArrivalQueue
}

func NewRoomService(db *gorm.DB, profiles *ProfileService, queue ArrivalQueue) *RoomService {
	return &RoomService{DB: db, Profiles: profiles, Queue: queue}
}

// JoinRoom creates a fresh WAITING room for the user and enqueues them for
// matching. Prior waiting rooms are deleted first, so repeated joins always
// leave exactly one waiting room. The candidate entry is snapshotted from
// the profile mirror and upserted on the user id.
func (s *RoomService) JoinRoom(ctx context.Context, userID string) (*models.Room, error) {
	if userID == "" {
		return nil, fmt.Errorf("userId is required: %w", ErrValidation)
	}

	profile, err := s.Profiles.GetProfile(userID)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	room := models.Room{
		ID:       uuid.NewString(),
		UserID:   userID,
		Status:   models.RoomWaiting,
		LastPing: now,
	}

	err = s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ? AND status = ?", userID, models.RoomWaiting).
			Delete(&models.Room{}).Error; err != nil {
			return err
		}

		if err := tx.Create(&room).Error; err != nil {
			return err
		}

		entry := models.CandidateEntry{
			ID:                uuid.NewString(),
			UserID:            userID,
			RoomID:            room.ID,
			TierProgress:      profile.TierProgress,
			PreferredLanguage: profile.PreferredLanguage,
			EnqueuedAt:        now,
		}
		return tx.Clauses(clause.OnConflict{
			Columns: []clause.Column{{Name: "user_id"}},
			DoUpdates: clause.AssignmentColumns([]string{
				"room_id",
				"tier_progress",
				"preferred_language",
				"enqueued_at",
			}),
		}).Create(&entry).Error
	})
	if err != nil {
		return nil, err
	}

	// Arrival push is best-effort: a lost push only delays matching until
	// another arrival's pool scan or the sweep picks this entry up.
	if err := s.Queue.Enqueue(ctx, userID); err != nil {
		log.Printf("⚠️ [ROOM] Failed to enqueue arrival for user %s: %v", userID, err)
	}

	log.Printf("✅ [ROOM] User %s joined room %s", userID, room.ID)
	return &room, nil
}

// Ping refreshes the heartbeat on the user's room. Side effect only, no
// state transition. NotFound when the room does not belong to the user.
func (s *RoomService) Ping(roomID, userID string) error {
	if roomID == "" || userID == "" {
		return fmt.Errorf("roomId and userId are required: %w", ErrValidation)
	}

	res := s.DB.Model(&models.Room{}).
		Where("id = ? AND user_id = ?", roomID, userID).
		Update("last_ping", time.Now())
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return fmt.Errorf("room %s for user %s: %w", roomID, userID, ErrNotFound)
	}
	return nil
}

// GetRoom returns the user's current WAITING room.
func (s *RoomService) GetRoom(userID string) (*models.Room, error) {
	if userID == "" {
		return nil, fmt.Errorf("userId is required: %w", ErrValidation)
	}

	var room models.Room
	err := s.DB.Where("user_id = ? AND status = ?", userID, models.RoomWaiting).
		Order("created_at DESC").
		First(&room).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("no waiting room for user %s: %w", userID, ErrNotFound)
		}
		return nil, err
	}
	return &room, nil
}

// LeaveRoom removes the user from the candidate pool and deletes their
// waiting room. Idempotent: leaving with nothing queued is not an error.
// An in-flight match attempt detects the missing candidate entry and
// aborts before committing.
func (s *RoomService) LeaveRoom(userID string) error {
	if userID == "" {
		return fmt.Errorf("userId is required: %w", ErrValidation)
	}

	return s.DB.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("user_id = ?", userID).Delete(&models.CandidateEntry{}).Error; err != nil {
			return err
		}
		return tx.Where("user_id = ? AND status = ?", userID, models.RoomWaiting).
			Delete(&models.Room{}).Error
	})
}

// QueueEstimate is the historical wait-time sample for a tier.
type QueueEstimate struct {
	Seconds    float64 `json:"seconds"`
	SampleSize int     `json:"sample_size"`
}

// EstimatedQueueTime averages matchedAt-createdAt over MATCHED rooms whose
// owners share the caller's tier. Descriptive analytics only; matching
// decisions never read it. Returns nil when no historical sample exists.
func (s *RoomService) EstimatedQueueTime(userID string) (*QueueEstimate, error) {
	profile, err := s.Profiles.GetProfile(userID)
	if err != nil {
		return nil, err
	}

	var rooms []models.Room
	err = s.DB.Model(&models.Room{}).
		Select("rooms.*").
		Joins("JOIN player_profiles ON player_profiles.external_user_id = rooms.user_id").
		Where("rooms.status = ? AND rooms.matched_at IS NOT NULL AND player_profiles.tier_id = ?",
			models.RoomMatched, profile.TierID).
		Find(&rooms).Error
	if err != nil {
		return nil, err
	}
	if len(rooms) == 0 {
		return nil, nil
	}

	var total float64
	for _, r := range rooms {
		total += r.MatchedAt.Sub(r.CreatedAt).Seconds()
	}
	return &QueueEstimate{
		Seconds:    total / float64(len(rooms)),
		SampleSize: len(rooms),
	}, nil
}
