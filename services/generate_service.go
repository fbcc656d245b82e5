package services

import (
	"matchmaking-service/models"

	"gorm.io/gorm"
)

// CompetitionQuestionPrompt steers the content generator. The response
// contract is a JSON object {question, endDateTime} wrapped in $$$$
// delimiters so it can be cut out of surrounding prose.
const CompetitionQuestionPrompt = `
You are a skilled problem setter specializing in designing competitive programming challenges. Your role is to generate a logic-based coding problem for two competing users.

The question must:
- Be purely logic-based, requiring analytical thinking and problem-solving.
- Be fair and suitable for both users based on their skill level.
- Be solvable within the allocated time (5, 10, or 15 minutes) based on difficulty.
- Be clearly explained with example inputs and expected outputs.
- Support both users' preferred languages (if different, choose a language-neutral question).

Input Details:
- tiers: Array of tiers and their ranges.
- userOne / userTwo: Details of both users (name, language, profileRank, tierLevel).

Additional Instructions:
- Generate a unique logic-based question suitable for both users' skill levels.
- Provide at least two example inputs and their corresponding outputs.
- The response must be a JSON object {"question": string, "endDateTime": RFC3339 timestamp} wrapped between $$$$ markers.
`

// UserDescriptor is one user's slice of the generation payload.
type UserDescriptor struct {
	Name        string  `json:"name"`
	Language    *string `json:"language"`
	ProfileRank int64   `json:"profileRank"`
	TierLevel   string  `json:"tierLevel"`
}

// CodingMinigamePayload parameterizes content generation for one user:
// the shared tier catalogue plus the user's descriptor.
type CodingMinigamePayload struct {
	Tiers []models.Tier  `json:"tiers"`
	User  UserDescriptor `json:"user"`
}

// GenerateService assembles generation payloads from the tier catalogue
// and the profile mirror.
type GenerateService struct {
	DB       *gorm.DB
	Profiles *ProfileService
}

func NewGenerateService(db *gorm.DB, profiles *ProfileService) *GenerateService {
	return &GenerateService{DB: db, Profiles: profiles}
}

func (s *GenerateService) CodingMinigamePayload(userID string) (*CodingMinigamePayload, error) {
	tiers, err := s.Tiers()
	if err != nil {
		return nil, err
	}

	profile, err := s.Profiles.GetProfile(userID)
	if err != nil {
		return nil, err
	}

	return &CodingMinigamePayload{
		Tiers: tiers,
		User: UserDescriptor{
			Name:        profile.Name,
			Language:    profile.PreferredLanguage,
			ProfileRank: profile.TierProgress,
			TierLevel:   s.Profiles.TierName(profile.TierID),
		},
	}, nil
}

func (s *GenerateService) Tiers() ([]models.Tier, error) {
	var tiers []models.Tier
	if err := s.DB.Order("name").Find(&tiers).Error; err != nil {
		return nil, err
	}
	return tiers, nil
}
