package services

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"matchmaking-service/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ContentGenerator produces raw text from a prompt. Satisfied by
// utils.GeminiClient in production and by fakes in tests.
type ContentGenerator interface {
	Generate(ctx context.Context, prompt, systemContext string) (string, error)
}

// CompetitionService is the competition factory: it turns a matched pair
// into one persisted Competition with exactly two participants.
type CompetitionService struct {
	DB        *gorm.DB
	Generate  *GenerateService
	Generator ContentGenerator
}

func NewCompetitionService(db *gorm.DB, generate *GenerateService, generator ContentGenerator) *CompetitionService {
	return &CompetitionService{DB: db, Generate: generate, Generator: generator}
}

// mergedGenerationRequest combines both users' payloads into one generator
// call: the shared tier catalogue plus two user descriptors.
type mergedGenerationRequest struct {
	Tiers   []models.Tier `json:"tiers"`
	UserOne string        `json:"userOne"`
	UserTwo string        `json:"userTwo"`
}

// codingGenerationResult is the structure the generator must return
// between $$$$ markers.
type codingGenerationResult struct {
	Question    string    `json:"question"`
	EndDateTime time.Time `json:"endDateTime"`
}

var delimitedJSON = regexp.MustCompile(`(?s)\$\$\$\$(.*?)\$\$\$\$`)

// ExtractDelimitedJSON cuts the $$$$-wrapped JSON object out of a raw
// generator response.
func ExtractDelimitedJSON(response string, out any) error {
	match := delimitedJSON.FindStringSubmatch(response)
	if match == nil {
		return fmt.Errorf("no $$$$-delimited payload in generator response: %w", ErrGeneration)
	}
	if err := json.Unmarshal([]byte(strings.TrimSpace(match[1])), out); err != nil {
		return fmt.Errorf("invalid JSON in generator response: %v: %w", err, ErrGeneration)
	}
	return nil
}

// CreateForPair builds both users' generation payloads, invokes the
// generator once for the pair, and persists the competition with both
// participants in one transaction. Any profile lookup, generation or parse
// failure fails the whole attempt; a competition is never created with a
// single participant.
func (s *CompetitionService) CreateForPair(ctx context.Context, userAID, userBID string) (*models.Competition, error) {
	payloadA, err := s.Generate.CodingMinigamePayload(userAID)
	if err != nil {
		return nil, err
	}
	payloadB, err := s.Generate.CodingMinigamePayload(userBID)
	if err != nil {
		return nil, err
	}

	userOne, err := json.Marshal(payloadA.User)
	if err != nil {
		return nil, err
	}
	userTwo, err := json.Marshal(payloadB.User)
	if err != nil {
		return nil, err
	}

	merged, err := json.Marshal(mergedGenerationRequest{
		Tiers:   payloadA.Tiers,
		UserOne: string(userOne),
		UserTwo: string(userTwo),
	})
	if err != nil {
		return nil, err
	}

	raw, err := s.Generator.Generate(ctx, string(merged), CompetitionQuestionPrompt)
	if err != nil {
		return nil, fmt.Errorf("%v: %w", err, ErrGeneration)
	}

	var result codingGenerationResult
	if err := ExtractDelimitedJSON(raw, &result); err != nil {
		return nil, err
	}
	if result.Question == "" {
		return nil, fmt.Errorf("generator returned an empty question: %w", ErrGeneration)
	}

	competition := models.Competition{
		ID:          uuid.NewString(),
		Question:    result.Question,
		EndDateTime: result.EndDateTime,
		Participants: []models.CompetitionParticipant{
			{ID: uuid.NewString(), UserID: userAID},
			{ID: uuid.NewString(), UserID: userBID},
		},
	}
	if err := s.DB.Create(&competition).Error; err != nil {
		return nil, err
	}

	return &competition, nil
}
