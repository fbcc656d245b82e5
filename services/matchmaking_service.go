package services

import (
	"context"
	"errors"
	"fmt"
	"log"
	"time"

	"matchmaking-service/models"

	"github.com/go-co-op/gocron/v2"
	"gorm.io/gorm"
)

// MatchConfig holds the matchmaking tunables. Values come from the
// environment in main; defaults follow the service's operating profile.
type MatchConfig struct {
	// RetryWindow bounds how long an entry is requeued after failed
	// attempts before it is expired and the user is told no match exists.
	RetryWindow time.Duration
	// BatchSize caps how many waiting rooms one sweep claims.
	BatchSize int
	// PingTTL is the heartbeat freshness both the matcher pool and the
	// reaper require of a waiting room.
	PingTTL time.Duration
	// SweepInterval drives the periodic sweep; ReapInterval the reaper.
	SweepInterval time.Duration
	ReapInterval  time.Duration
	// LanguageFallback lets the matcher fall back to the unfiltered pool
	// when no candidate shares the user's preferred language.
	LanguageFallback bool
}

func DefaultMatchConfig() MatchConfig {
	return MatchConfig{
		RetryWindow:      5 * time.Minute,
		BatchSize:        10,
		PingTTL:          30 * time.Second,
		SweepInterval:    10 * time.Second,
		ReapInterval:     60 * time.Second,
		LanguageFallback: false,
	}
}

// MatchmakingService drives one matching attempt end to end:
// claim → match → competition creation → notify → cleanup.
//
// Arrivals are matched event-driven by the worker pool (ProcessUser); the
// periodic sweep finalizes entries whose retry window elapsed and recovers
// arrivals lost from the queue. Both paths go through the claim
// coordinator, so they are safe to run concurrently.
type MatchmakingService struct {
	DB           *gorm.DB
	Claims       *ClaimService
	Profiles     *ProfileService
	Competitions *CompetitionService
	Notifier     Notifier
	Config       MatchConfig
}

func NewMatchmakingService(
	db *gorm.DB,
	claims *ClaimService,
	profiles *ProfileService,
	competitions *CompetitionService,
	notifier Notifier,
	config MatchConfig,
) *MatchmakingService {
	return &MatchmakingService{
		DB:           db,
		Claims:       claims,
		Profiles:     profiles,
		Competitions: competitions,
		Notifier:     notifier,
		Config:       config,
	}
}

// matchCycle tracks which rooms the current invocation holds claims on and
// which it already matched, so one sweep never double-matches its batch.
type matchCycle struct {
	claimed  map[string]bool
	consumed map[string]bool
}

func newMatchCycle() *matchCycle {
	return &matchCycle{
		claimed:  make(map[string]bool),
		consumed: make(map[string]bool),
	}
}

// ProcessUser runs one matching attempt for a freshly arrived user. A lost
// claim means a concurrent worker holds the room; that is a silent skip.
func (s *MatchmakingService) ProcessUser(ctx context.Context, userID string) error {
	var room models.Room
	err := s.DB.Where("user_id = ? AND status = ?", userID, models.RoomWaiting).
		Order("created_at DESC").
		First(&room).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// Already matched, expired or left since enqueueing.
		return nil
	}
	if err != nil {
		return err
	}

	ok, err := s.Claims.ClaimRoom(room.ID)
	if err != nil {
		return err
	}
	if !ok {
		return nil
	}

	cycle := newMatchCycle()
	cycle.claimed[room.ID] = true
	return s.attemptMatch(ctx, room, cycle)
}

// Sweep claims a batch of waiting rooms, oldest first, and runs a match
// attempt for each. This is the path that expires entries past the retry
// window, since a lone waiting user generates no further arrival events.
func (s *MatchmakingService) Sweep(ctx context.Context) {
	claimed, err := s.Claims.ClaimBatch(s.Config.BatchSize, s.Config.PingTTL)
	if err != nil {
		log.Printf("❌ [SWEEP] Failed to claim batch: %v", err)
		return
	}
	if len(claimed) == 0 {
		return
	}

	cycle := newMatchCycle()
	for _, room := range claimed {
		cycle.claimed[room.ID] = true
	}
	for _, room := range claimed {
		if err := s.attemptMatch(ctx, room, cycle); err != nil {
			log.Printf("❌ [SWEEP] Error processing room %s: %v", room.ID, err)
		}
	}
}

// attemptMatch handles one claimed room through to a terminal state,
// a committed match, or a release back to WAITING.
func (s *MatchmakingService) attemptMatch(ctx context.Context, room models.Room, cycle *matchCycle) error {
	if cycle.consumed[room.ID] {
		return nil
	}

	var entry models.CandidateEntry
	err := s.DB.Where("user_id = ?", room.UserID).First(&entry).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		// User left between claim and here. The claim makes this room ours
		// to clean up.
		s.dropClaimedRoom(room.ID)
		return nil
	}
	if err != nil {
		s.release(room.ID)
		return err
	}
	if entry.RoomID != room.ID {
		// Entry belongs to a newer room (re-join); this one is orphaned.
		s.dropClaimedRoom(room.ID)
		return nil
	}

	pool, err := s.poolFor(entry, cycle)
	if err != nil {
		s.release(room.ID)
		return err
	}

	opponent := FindOpponent(entry, pool, s.Config.LanguageFallback)
	if opponent == nil {
		if time.Since(entry.EnqueuedAt) < s.Config.RetryWindow {
			return s.Claims.Release(room.ID)
		}
		return s.expireUnmatched(ctx, room, entry)
	}

	if !cycle.claimed[opponent.RoomID] {
		ok, err := s.Claims.ClaimRoom(opponent.RoomID)
		if err != nil {
			s.release(room.ID)
			return err
		}
		if !ok {
			// A concurrent worker holds the opponent; it will see this
			// user in its own pool scan.
			return s.Claims.Release(room.ID)
		}
		cycle.claimed[opponent.RoomID] = true
	}

	if err := s.commitPair(room.ID, opponent.RoomID, room.UserID, opponent.UserID); err != nil {
		log.Printf("⚠️ [MATCH] Pair commit aborted for rooms %s/%s: %v", room.ID, opponent.RoomID, err)
		s.abortPair(room.ID, room.UserID, opponent.RoomID, opponent.UserID)
		return nil
	}
	cycle.consumed[room.ID] = true
	cycle.consumed[opponent.RoomID] = true

	competition, err := s.Competitions.CreateForPair(ctx, room.UserID, opponent.UserID)
	if err != nil {
		// The match is not rolled back: rooms stay MATCHED without a
		// competition. Reported for follow-up, notification skipped.
		log.Printf("🚨 [MATCH] OPERATIONAL: competition creation failed for users %s and %s (rooms %s/%s remain MATCHED): %v",
			room.UserID, opponent.UserID, room.ID, opponent.RoomID, err)
		return err
	}

	s.notifyMatch(ctx, room.UserID, opponent.UserID, competition.ID)
	log.Printf("✅ [MATCH] Users %s and %s matched → competition %s", room.UserID, opponent.UserID, competition.ID)
	return nil
}

// poolFor returns the candidate entries this attempt may pair with: every
// other user whose room is WAITING with a fresh heartbeat, plus rooms this
// cycle already claimed but has not yet matched. Ordered by enqueue time
// so selection and tie-breaking are deterministic.
func (s *MatchmakingService) poolFor(current models.CandidateEntry, cycle *matchCycle) ([]models.CandidateEntry, error) {
	heldIDs := []string{""}
	for id := range cycle.claimed {
		if !cycle.consumed[id] {
			heldIDs = append(heldIDs, id)
		}
	}

	var pool []models.CandidateEntry
	err := s.DB.Model(&models.CandidateEntry{}).
		Select("candidate_entries.*").
		Joins("JOIN rooms ON rooms.id = candidate_entries.room_id").
		Where("candidate_entries.user_id <> ?", current.UserID).
		Where("(rooms.status = ? AND rooms.last_ping > ?) OR rooms.id IN ?",
			models.RoomWaiting, time.Now().Add(-s.Config.PingTTL), heldIDs).
		Order("candidate_entries.enqueued_at ASC").
		Find(&pool).Error
	return pool, err
}

// commitPair transitions both rooms to MATCHED with a shared timestamp and
// removes both candidate entries, all in one transaction. Both rooms must
// still be PROCESSING and both entries must still exist (cancellation
// check); otherwise the transaction rolls back.
func (s *MatchmakingService) commitPair(roomAID, roomBID, userAID, userBID string) error {
	matchedAt := time.Now()
	return s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Room{}).
			Where("id IN ? AND status = ?", []string{roomAID, roomBID}, models.RoomProcessing).
			Updates(map[string]interface{}{
				"status":     models.RoomMatched,
				"matched_at": matchedAt,
			})
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected != 2 {
			return fmt.Errorf("expected 2 room transitions, got %d", res.RowsAffected)
		}

		del := tx.Where("user_id IN ?", []string{userAID, userBID}).
			Delete(&models.CandidateEntry{})
		if del.Error != nil {
			return del.Error
		}
		if del.RowsAffected != 2 {
			return fmt.Errorf("candidate entry withdrawn before commit (%d of 2 present)", del.RowsAffected)
		}
		return nil
	})
}

// abortPair untangles a failed commit: rooms whose candidate entry is
// still present go back to WAITING; rooms whose user cancelled are
// dropped.
func (s *MatchmakingService) abortPair(roomAID, userAID, roomBID, userBID string) {
	rooms := []struct{ roomID, userID string }{
		{roomAID, userAID},
		{roomBID, userBID},
	}
	for _, r := range rooms {
		var count int64
		s.DB.Model(&models.CandidateEntry{}).
			Where("user_id = ? AND room_id = ?", r.userID, r.roomID).
			Count(&count)
		if count > 0 {
			s.release(r.roomID)
		} else {
			s.dropClaimedRoom(r.roomID)
		}
	}
}

// expireUnmatched terminates an attempt past the retry window: the room is
// marked EXPIRED (kept for queue-time analytics), the candidate entry is
// removed, and the user gets exactly one match-not-found event. The CAS on
// the PROCESSING status gates the publish.
func (s *MatchmakingService) expireUnmatched(ctx context.Context, room models.Room, entry models.CandidateEntry) error {
	expired := false
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		res := tx.Model(&models.Room{}).
			Where("id = ? AND status = ?", room.ID, models.RoomProcessing).
			Update("status", models.RoomExpired)
		if res.Error != nil {
			return res.Error
		}
		if res.RowsAffected == 0 {
			return nil
		}
		expired = true
		return tx.Where("id = ?", entry.ID).Delete(&models.CandidateEntry{}).Error
	})
	if err != nil {
		return err
	}
	if expired {
		s.Notifier.PublishRoomEvent(ctx, room.UserID, models.RoomEvent{Type: models.EventMatchNotFound})
		log.Printf("⏱️ [MATCH] User %s unmatched after retry window, room %s expired", room.UserID, room.ID)
	}
	return nil
}

// notifyMatch publishes one match-found event per participant, each
// describing the other participant.
func (s *MatchmakingService) notifyMatch(ctx context.Context, userAID, userBID, competitionID string) {
	profileA, errA := s.Profiles.GetProfile(userAID)
	profileB, errB := s.Profiles.GetProfile(userBID)
	if errA != nil || errB != nil {
		log.Printf("❌ [NOTIFY] Failed to load profiles for match notification (%s, %s): %v %v",
			userAID, userBID, errA, errB)
		return
	}

	s.Notifier.PublishRoomEvent(ctx, userAID, models.RoomEvent{
		Type:          models.EventMatchFound,
		User:          s.Profiles.EventUser(profileB),
		CompetitionID: competitionID,
	})
	s.Notifier.PublishRoomEvent(ctx, userBID, models.RoomEvent{
		Type:          models.EventMatchFound,
		User:          s.Profiles.EventUser(profileA),
		CompetitionID: competitionID,
	})
}

// ReapStaleRooms bulk-expires waiting rooms whose heartbeat went stale and
// deletes their candidate entries, keeping pool and room store consistent.
func (s *MatchmakingService) ReapStaleRooms() {
	cutoff := time.Now().Add(-s.Config.PingTTL)

	var stale []models.Room
	if err := s.DB.Where("status = ? AND last_ping < ?", models.RoomWaiting, cutoff).
		Find(&stale).Error; err != nil {
		log.Printf("❌ [REAPER] Failed to list stale rooms: %v", err)
		return
	}
	if len(stale) == 0 {
		return
	}

	roomIDs := make([]string, len(stale))
	for i, r := range stale {
		roomIDs[i] = r.ID
	}

	expired, err := s.reapRooms(roomIDs, cutoff)
	if err != nil {
		log.Printf("❌ [REAPER] Failed to expire stale rooms: %v", err)
		return
	}

	log.Printf("🧹 [REAPER] Marked %d room(s) as EXPIRED", expired)
}

// reapRooms expires the listed rooms and removes their candidate entries.
func (s *MatchmakingService) reapRooms(roomIDs []string, cutoff time.Time) (int64, error) {
	var expired int64
	err := s.DB.Transaction(func(tx *gorm.DB) error {
		// Rooms claimed or re-pinged since they were listed must keep
		// their candidate entries, so the predicate is rechecked here.
		res := tx.Model(&models.Room{}).
			Where("id IN ? AND status = ? AND last_ping < ?", roomIDs, models.RoomWaiting, cutoff).
			Update("status", models.RoomExpired)
		if res.Error != nil {
			return res.Error
		}
		expired = res.RowsAffected
		if expired == 0 {
			return nil
		}

		var expiredIDs []string
		if err := tx.Model(&models.Room{}).
			Where("id IN ? AND status = ?", roomIDs, models.RoomExpired).
			Pluck("id", &expiredIDs).Error; err != nil {
			return err
		}
		return tx.Where("room_id IN ?", expiredIDs).Delete(&models.CandidateEntry{}).Error
	})
	return expired, err
}

func (s *MatchmakingService) release(roomID string) {
	if err := s.Claims.Release(roomID); err != nil {
		log.Printf("❌ [MATCH] Failed to release claim on room %s: %v", roomID, err)
	}
}

func (s *MatchmakingService) dropClaimedRoom(roomID string) {
	if err := s.DB.Where("id = ? AND status = ?", roomID, models.RoomProcessing).
		Delete(&models.Room{}).Error; err != nil {
		log.Printf("❌ [MATCH] Failed to drop cancelled room %s: %v", roomID, err)
	}
}

// StartScheduler launches the periodic sweep and the stale-room reaper.
// The two jobs run on independent timers and race benignly with the
// event-driven workers; the claim coordinator keeps them safe.
func (s *MatchmakingService) StartScheduler(ctx context.Context) {
	sched, _ := gocron.NewScheduler()
	sched.Start()

	_, _ = sched.NewJob(
		gocron.DurationJob(s.Config.SweepInterval),
		gocron.NewTask(func() {
			s.Sweep(ctx)
		}),
	)

	_, _ = sched.NewJob(
		gocron.DurationJob(s.Config.ReapInterval),
		gocron.NewTask(func() {
			s.ReapStaleRooms()
		}),
	)
}
