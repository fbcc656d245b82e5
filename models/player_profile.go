package models

import (
	"time"

	"gorm.io/gorm"
)

// PlayerProfile is a local snapshot of user data needed for matchmaking.
// Owned solely by this service; populated via the profile sync worker from
// the profile service's user table.
type PlayerProfile struct {
	ID             string `json:"id" gorm:"primaryKey"`
	ExternalUserID string `gorm:"uniqueIndex;not null" json:"external_user_id"`

	Name              string  `json:"name" gorm:"not null"`
	TierID            string  `gorm:"index" json:"tier_id"`
	TierProgress      int64   `json:"tier_progress" gorm:"default:0"`
	PreferredLanguage *string `json:"preferred_language,omitempty"`
	Avatar            string  `json:"avatar,omitempty"`

	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`

	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}
