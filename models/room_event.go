package models

// RoomEvent types published to a user's room channel.
const (
	EventMatchFound    = "match-found"
	EventMatchNotFound = "match-not-found"
)

// RoomEventUser describes the *opponent* in a match-found payload.
type RoomEventUser struct {
	Name        string  `json:"name"`
	Language    *string `json:"language"`
	ProfileRank int64   `json:"profileRank"`
	TierLevel   string  `json:"tierLevel"`
	Avatar      string  `json:"avatar"`
}

// RoomEvent is the ephemeral match outcome event. It is never persisted;
// it only travels over the notification bus.
type RoomEvent struct {
	Type          string         `json:"type"`
	User          *RoomEventUser `json:"user,omitempty"`
	CompetitionID string         `json:"competitionId,omitempty"`
}
