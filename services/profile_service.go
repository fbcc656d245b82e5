package services

import (
	"errors"
	"fmt"

	"matchmaking-service/models"

	"gorm.io/gorm"
)

// ProfileService reads the local player_profiles mirror maintained by the
// profile sync worker. This service never writes profile data.
type ProfileService struct {
	DB *gorm.DB
}

func NewProfileService(db *gorm.DB) *ProfileService {
	return &ProfileService{DB: db}
}

func (s *ProfileService) GetProfile(userID string) (*models.PlayerProfile, error) {
	var profile models.PlayerProfile
	if err := s.DB.Where("external_user_id = ?", userID).First(&profile).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, fmt.Errorf("user %s: %w", userID, ErrNotFound)
		}
		return nil, err
	}
	return &profile, nil
}

// TierName resolves a tier id to its display name; empty when unknown.
func (s *ProfileService) TierName(tierID string) string {
	if tierID == "" {
		return ""
	}
	var tier models.Tier
	if err := s.DB.First(&tier, "id = ?", tierID).Error; err != nil {
		return ""
	}
	return tier.Name
}

// EventUser builds the opponent payload carried by match-found events.
func (s *ProfileService) EventUser(profile *models.PlayerProfile) *models.RoomEventUser {
	return &models.RoomEventUser{
		Name:        profile.Name,
		Language:    profile.PreferredLanguage,
		ProfileRank: profile.TierProgress,
		TierLevel:   s.TierName(profile.TierID),
		Avatar:      profile.Avatar,
	}
}
