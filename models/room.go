package models

import "time"

// Room statuses. A room only ever moves WAITING → PROCESSING before
// reaching MATCHED, EXPIRED, or being put back to WAITING.
const (
	RoomWaiting    = "WAITING"
	RoomProcessing = "PROCESSING"
	RoomMatched    = "MATCHED"
	RoomExpired    = "EXPIRED"
)

// Room records a single matchmaking attempt for one user.
// At most one WAITING room exists per user: prior waiting rooms are
// deleted on every new join.
type Room struct {
	ID     string `json:"id" gorm:"primaryKey"`
	UserID string `gorm:"index;not null" json:"user_id"`

	Status    string     `json:"status" gorm:"type:varchar(16);default:'WAITING';index"`
	CreatedAt time.Time  `json:"created_at" gorm:"autoCreateTime"`
	LastPing  time.Time  `json:"last_ping" gorm:"index"`
	MatchedAt *time.Time `json:"matched_at,omitempty"`
}
