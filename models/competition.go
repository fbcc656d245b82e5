package models

import "time"

// Competition is the paired coding challenge created once two users match.
// It is always inserted together with exactly two participants.
type Competition struct {
	ID          string    `json:"id" gorm:"primaryKey"`
	Question    string    `json:"question" gorm:"type:text;not null"`
	EndDateTime time.Time `json:"end_date_time"`

	Participants []CompetitionParticipant `json:"participants" gorm:"foreignKey:CompetitionID"`

	Timestamps
}

type CompetitionParticipant struct {
	ID            string `json:"id" gorm:"primaryKey"`
	CompetitionID string `gorm:"index;not null" json:"competition_id"`
	UserID        string `gorm:"index;not null" json:"user_id"`
}
