package services

import (
	"time"

	"matchmaking-service/models"

	"gorm.io/gorm"
)

// ClaimService is the claim coordinator: it guarantees no two workers act
// on the same waiting room at once. Claims are update-where transitions
// (WAITING → PROCESSING) decided by RowsAffected, so any engine with
// transactional update semantics enforces the single-claim invariant.
type ClaimService struct {
	DB *gorm.DB
}

func NewClaimService(db *gorm.DB) *ClaimService {
	return &ClaimService{DB: db}
}

// ClaimRoom reserves a single waiting room. Returns false when a
// concurrent worker already holds it; that is a silent skip, not an error.
func (s *ClaimService) ClaimRoom(roomID string) (bool, error) {
	res := s.DB.Model(&models.Room{}).
		Where("id = ? AND status = ?", roomID, models.RoomWaiting).
		Update("status", models.RoomProcessing)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// ClaimBatch reserves up to limit waiting rooms with a fresh heartbeat,
// oldest first. Rooms lost to concurrent claimants between the read and
// the update are skipped.
func (s *ClaimService) ClaimBatch(limit int, pingTTL time.Duration) ([]models.Room, error) {
	var waiting []models.Room
	err := s.DB.Where("status = ? AND last_ping > ?", models.RoomWaiting, time.Now().Add(-pingTTL)).
		Order("created_at ASC").
		Limit(limit).
		Find(&waiting).Error
	if err != nil {
		return nil, err
	}

	claimed := make([]models.Room, 0, len(waiting))
	for _, room := range waiting {
		ok, err := s.ClaimRoom(room.ID)
		if err != nil {
			return claimed, err
		}
		if ok {
			room.Status = models.RoomProcessing
			claimed = append(claimed, room)
		}
	}
	return claimed, nil
}

// Release puts a claimed room back into the waiting pool so it becomes
// eligible for matching again.
func (s *ClaimService) Release(roomID string) error {
	return s.DB.Model(&models.Room{}).
		Where("id = ? AND status = ?", roomID, models.RoomProcessing).
		Update("status", models.RoomWaiting).Error
}
