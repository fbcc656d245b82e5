package models

import "time"

// CandidateEntry is one waiting user's matchable attributes, snapshotted
// from the profile mirror at join time. The unique index on UserID is the
// dedup key: re-joining upserts the row rather than adding a second one.
type CandidateEntry struct {
	ID     string `json:"id" gorm:"primaryKey"`
	UserID string `gorm:"uniqueIndex;not null" json:"user_id"`
	RoomID string `gorm:"index;not null" json:"room_id"`

	TierProgress      int64   `json:"tier_progress"`
	PreferredLanguage *string `json:"preferred_language,omitempty"`

	EnqueuedAt time.Time `json:"enqueued_at" gorm:"index"`
}
