package models

// Tier is one level of the skill catalogue. The full catalogue is sent to
// the content generator so it can pitch the question at both players.
type Tier struct {
	ID          string `json:"id" gorm:"primaryKey"`
	Name        string `json:"name" gorm:"uniqueIndex;not null"`
	Description string `json:"description"`
	TierRange   string `json:"tier_range"` // e.g. "100-500"
}

// DefaultTiers seeds the catalogue on first migration.
var DefaultTiers = []Tier{
	{ID: "tier-3", Name: "Tier III", Description: "Basic problems for beginners.", TierRange: "1-100"},
	{ID: "tier-2", Name: "Tier II", Description: "Intermediate problems with increased complexity.", TierRange: "100-500"},
	{ID: "tier-1", Name: "Tier I", Description: "Advanced problems for highly skilled coders.", TierRange: "500-2000"},
}
