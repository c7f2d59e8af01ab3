package participant

import (
	"errors"
	"path/filepath"
	"sync"
	"testing"

	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"thr-trivia/internal/models"
)

type fakeLeaderboardCache struct {
	mu      sync.Mutex
	entries map[string][]models.LeaderboardEntry
	sets    int
}

func newFakeLeaderboardCache() *fakeLeaderboardCache {
	return &fakeLeaderboardCache{entries: make(map[string][]models.LeaderboardEntry)}
}

func (f *fakeLeaderboardCache) GetLeaderboard(code string) ([]models.LeaderboardEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	entries, ok := f.entries[code]
	if !ok {
		return nil, errors.New("cache miss")
	}
	return entries, nil
}

func (f *fakeLeaderboardCache) SetLeaderboard(code string, entries []models.LeaderboardEntry) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.entries[code] = entries
	f.sets++
	return nil
}

type recordingNotifier struct {
	mu     sync.Mutex
	events []string
}

func (n *recordingNotifier) Broadcast(accessCode, eventType string, data interface{}) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.events = append(n.events, accessCode+":"+eventType)
}

func (n *recordingNotifier) has(event string) bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	for _, e := range n.events {
		if e == event {
			return true
		}
	}
	return false
}

func newTestService(t *testing.T) (*Service, *gorm.DB, *fakeLeaderboardCache, *recordingNotifier) {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "test.db")
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	err = db.AutoMigrate(
		&models.Room{},
		&models.Participant{},
		&models.Reward{},
		&models.RewardClaim{},
	)
	if err != nil {
		t.Fatalf("migrate: %v", err)
	}

	cache := newFakeLeaderboardCache()
	notifier := &recordingNotifier{}
	return NewService(NewRepository(db), cache, notifier), db, cache, notifier
}

func seedRoom(t *testing.T, db *gorm.DB, code string, active bool) *models.Room {
	t.Helper()
	room := &models.Room{
		Name:       "Takbir Trivia",
		AccessCode: code,
		IsActive:   active,
		CreatedBy:  1,
	}
	if err := db.Create(room).Error; err != nil {
		t.Fatalf("seed room: %v", err)
	}
	return room
}

func countParticipants(t *testing.T, db *gorm.DB, roomID uint) int64 {
	t.Helper()
	var n int64
	if err := db.Model(&models.Participant{}).Where("room_id = ?", roomID).Count(&n).Error; err != nil {
		t.Fatalf("count participants: %v", err)
	}
	return n
}

func TestJoin_CreatesParticipantWithZeroTotals(t *testing.T) {
	s, db, _, notifier := newTestService(t)
	room := seedRoom(t, db, "ABC123", true)

	result, err := s.Join("ABC123", "Amir")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}
	if result.RoomID != room.ID || result.RoomName != "Takbir Trivia" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if len(result.AccessCode) != models.AccessCodeLength {
		t.Fatalf("expected personal %d-char code, got %q", models.AccessCodeLength, result.AccessCode)
	}
	if result.AccessCode == "ABC123" {
		t.Fatalf("personal code should differ from the room code")
	}

	var stored models.Participant
	if err := db.Where("id = ?", result.ParticipantID).First(&stored).Error; err != nil {
		t.Fatalf("load participant: %v", err)
	}
	if stored.TotalPoints != 0 || stored.TotalRupiah != 0 {
		t.Fatalf("totals should start at zero: %+v", stored)
	}
	if stored.CurrentStatus != models.StatusActive {
		t.Fatalf("expected active status, got %q", stored.CurrentStatus)
	}
	if got := countParticipants(t, db, room.ID); got != 1 {
		t.Fatalf("expected exactly 1 participant, got %d", got)
	}
	if !notifier.has("ABC123:participant_joined") {
		t.Fatalf("expected participant_joined broadcast, got %v", notifier.events)
	}
}

func TestJoin_MissingFields(t *testing.T) {
	s, _, _, _ := newTestService(t)

	if _, err := s.Join("", "Amir"); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields for empty code, got: %v", err)
	}
	if _, err := s.Join("ABC123", ""); !errors.Is(err, ErrMissingFields) {
		t.Fatalf("expected ErrMissingFields for empty name, got: %v", err)
	}
}

func TestJoin_UnknownCode(t *testing.T) {
	s, _, _, _ := newTestService(t)

	if _, err := s.Join("ZZZZZZ", "Amir"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got: %v", err)
	}
}

func TestJoin_InactiveRoomStillJoinable(t *testing.T) {
	s, db, _, _ := newTestService(t)
	seedRoom(t, db, "OFF000", false)

	// The join path has never checked room activity.
	if _, err := s.Join("OFF000", "Siti"); err != nil {
		t.Fatalf("Join into inactive room: %v", err)
	}
}

func TestJoin_PersonalCodeReactivates(t *testing.T) {
	s, db, _, _ := newTestService(t)
	room := seedRoom(t, db, "ABC123", true)

	first, err := s.Join("ABC123", "Amir")
	if err != nil {
		t.Fatalf("first Join: %v", err)
	}
	if _, err := s.Logout(first.ParticipantID); err != nil {
		t.Fatalf("Logout: %v", err)
	}

	second, err := s.Join(first.AccessCode, "Amir")
	if err != nil {
		t.Fatalf("rejoin: %v", err)
	}
	if second.ParticipantID != first.ParticipantID {
		t.Fatalf("rejoin should reuse participant %s, got %s", first.ParticipantID, second.ParticipantID)
	}
	if got := countParticipants(t, db, room.ID); got != 1 {
		t.Fatalf("rejoin must not create a second row, got %d", got)
	}

	var stored models.Participant
	if err := db.Where("id = ?", first.ParticipantID).First(&stored).Error; err != nil {
		t.Fatalf("load participant: %v", err)
	}
	if stored.CurrentStatus != models.StatusActive {
		t.Fatalf("rejoin should reactivate, got %q", stored.CurrentStatus)
	}
}

func TestJoin_RoomCodeAlwaysCreatesNewParticipant(t *testing.T) {
	s, db, _, _ := newTestService(t)
	room := seedRoom(t, db, "ABC123", true)

	first, err := s.Join("ABC123", "Amir")
	if err != nil {
		t.Fatalf("Join Amir: %v", err)
	}
	second, err := s.Join("ABC123", "Siti")
	if err != nil {
		t.Fatalf("Join Siti: %v", err)
	}

	if first.ParticipantID == second.ParticipantID {
		t.Fatalf("distinct players must get distinct participants")
	}
	if first.AccessCode == second.AccessCode {
		t.Fatalf("personal codes must be unique")
	}
	if got := countParticipants(t, db, room.ID); got != 2 {
		t.Fatalf("expected 2 participants, got %d", got)
	}
}

func TestPersonalCodeGeneration_AvoidsRoomCodes(t *testing.T) {
	s, db, _, _ := newTestService(t)
	room := seedRoom(t, db, "ABC123", true)

	// Join resolves codes participant-first, so a personal code equal
	// to a room code would shadow that room for every future joiner.
	taken, err := s.repo.RoomCodeExists(room.AccessCode)
	if err != nil {
		t.Fatalf("RoomCodeExists: %v", err)
	}
	if !taken {
		t.Fatalf("room code must count as taken for personal codes")
	}

	taken, err = s.repo.RoomCodeExists("FREE00")
	if err != nil {
		t.Fatalf("RoomCodeExists: %v", err)
	}
	if taken {
		t.Fatalf("unused code reported as taken")
	}

	// New joiners keep resolving the room code to the room itself.
	for _, name := range []string{"Amir", "Siti", "Budi"} {
		result, err := s.Join("ABC123", name)
		if err != nil {
			t.Fatalf("Join %s: %v", name, err)
		}
		if result.AccessCode == "ABC123" {
			t.Fatalf("personal code collided with the room code")
		}
	}
	if got := countParticipants(t, db, room.ID); got != 3 {
		t.Fatalf("expected 3 participants, got %d", got)
	}
}

func TestLogout_Idempotent(t *testing.T) {
	s, db, _, _ := newTestService(t)
	seedRoom(t, db, "ABC123", true)

	joined, err := s.Join("ABC123", "Amir")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}

	first, err := s.Logout(joined.ParticipantID)
	if err != nil {
		t.Fatalf("first Logout: %v", err)
	}
	if first.AccessCode != joined.AccessCode {
		t.Fatalf("logout should echo the personal code: %+v", first)
	}

	second, err := s.Logout(joined.ParticipantID)
	if err != nil {
		t.Fatalf("second Logout should not error: %v", err)
	}
	if second.ParticipantID != joined.ParticipantID {
		t.Fatalf("unexpected result: %+v", second)
	}

	var stored models.Participant
	if err := db.Where("id = ?", joined.ParticipantID).First(&stored).Error; err != nil {
		t.Fatalf("load participant: %v", err)
	}
	if stored.CurrentStatus != models.StatusInactive {
		t.Fatalf("expected inactive, got %q", stored.CurrentStatus)
	}
}

func TestLogout_BadInput(t *testing.T) {
	s, _, _, _ := newTestService(t)

	if _, err := s.Logout(""); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID for empty id, got: %v", err)
	}
	if _, err := s.Logout("not-a-uuid"); !errors.Is(err, ErrInvalidID) {
		t.Fatalf("expected ErrInvalidID for malformed id, got: %v", err)
	}
	if _, err := s.Logout("4dcee1d5-0000-4000-8000-000000000000"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound for unknown id, got: %v", err)
	}
}

func TestAward_MovesStockAndTotalsTogether(t *testing.T) {
	s, db, cache, notifier := newTestService(t)
	room := seedRoom(t, db, "ABC123", true)

	reward := &models.Reward{
		RoomID:       room.ID,
		Difficulty:   models.DifficultyGold,
		AmountRupiah: 50000,
		Quantity:     1,
	}
	if err := db.Create(reward).Error; err != nil {
		t.Fatalf("seed reward: %v", err)
	}

	joined, err := s.Join("ABC123", "Amir")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}

	awarded, err := s.Award(joined.ParticipantID, reward.ID)
	if err != nil {
		t.Fatalf("Award: %v", err)
	}
	if awarded.TotalRupiah != 50000 || awarded.TotalPoints != 30 {
		t.Fatalf("unexpected totals: %+v", awarded)
	}

	var claims int64
	if err := db.Model(&models.RewardClaim{}).Where("participant_id = ?", joined.ParticipantID).Count(&claims).Error; err != nil {
		t.Fatalf("count claims: %v", err)
	}
	if claims != 1 {
		t.Fatalf("expected 1 claim row, got %d", claims)
	}

	var storedReward models.Reward
	if err := db.First(&storedReward, reward.ID).Error; err != nil {
		t.Fatalf("load reward: %v", err)
	}
	if storedReward.ClaimedCount != 1 {
		t.Fatalf("expected claimed count 1, got %d", storedReward.ClaimedCount)
	}

	// Stock of 1 is gone.
	if _, err := s.Award(joined.ParticipantID, reward.ID); !errors.Is(err, ErrRewardExhausted) {
		t.Fatalf("expected ErrRewardExhausted, got: %v", err)
	}

	if cache.sets == 0 {
		t.Fatalf("award should refresh the cached leaderboard")
	}
	if !notifier.has("ABC123:leaderboard_update") {
		t.Fatalf("expected leaderboard_update broadcast, got %v", notifier.events)
	}
}

func TestAward_RewardFromAnotherRoom(t *testing.T) {
	s, db, _, _ := newTestService(t)
	seedRoom(t, db, "ABC123", true)
	other := seedRoomWithName(t, db, "DEF456", "Other room")

	reward := &models.Reward{
		RoomID:       other.ID,
		Difficulty:   models.DifficultyBronze,
		AmountRupiah: 5000,
		Quantity:     5,
	}
	if err := db.Create(reward).Error; err != nil {
		t.Fatalf("seed reward: %v", err)
	}

	joined, err := s.Join("ABC123", "Amir")
	if err != nil {
		t.Fatalf("Join: %v", err)
	}

	if _, err := s.Award(joined.ParticipantID, reward.ID); !errors.Is(err, ErrRewardWrongRoom) {
		t.Fatalf("expected ErrRewardWrongRoom, got: %v", err)
	}
}

func seedRoomWithName(t *testing.T, db *gorm.DB, code, name string) *models.Room {
	t.Helper()
	room := &models.Room{Name: name, AccessCode: code, IsActive: true, CreatedBy: 1}
	if err := db.Create(room).Error; err != nil {
		t.Fatalf("seed room: %v", err)
	}
	return room
}

func TestLeaderboard_FallsBackToDatabase(t *testing.T) {
	s, db, cache, _ := newTestService(t)
	room := seedRoom(t, db, "ABC123", true)

	participants := []models.Participant{
		{ID: "11111111-1111-4111-8111-111111111111", RoomID: room.ID, Name: "Amir", AccessCode: "AAA111", TotalPoints: 30, TotalRupiah: 50000, CurrentStatus: models.StatusActive},
		{ID: "22222222-2222-4222-8222-222222222222", RoomID: room.ID, Name: "Siti", AccessCode: "BBB222", TotalPoints: 50, TotalRupiah: 70000, CurrentStatus: models.StatusActive},
	}
	for i := range participants {
		if err := db.Create(&participants[i]).Error; err != nil {
			t.Fatalf("seed participant: %v", err)
		}
	}

	entries, err := s.Leaderboard("ABC123")
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected 2 entries, got %d", len(entries))
	}
	if entries[0].Name != "Siti" || entries[0].TotalPoints != 50 {
		t.Fatalf("expected Siti first, got: %+v", entries)
	}
	if cache.sets != 1 {
		t.Fatalf("miss should repopulate the cache, sets=%d", cache.sets)
	}

	// Second read comes from the cache without touching sets again.
	if _, err := s.Leaderboard("ABC123"); err != nil {
		t.Fatalf("cached Leaderboard: %v", err)
	}
	if cache.sets != 1 {
		t.Fatalf("cached read should not rewrite the cache, sets=%d", cache.sets)
	}
}

func TestLeaderboard_SameNameParticipantsStayDistinct(t *testing.T) {
	s, db, _, _ := newTestService(t)
	room := seedRoom(t, db, "ABC123", true)

	// Display names are not unique; entries are keyed by participant id.
	participants := []models.Participant{
		{ID: "11111111-1111-4111-8111-111111111111", RoomID: room.ID, Name: "Amir", AccessCode: "AAA111", TotalPoints: 30, TotalRupiah: 50000, CurrentStatus: models.StatusActive},
		{ID: "22222222-2222-4222-8222-222222222222", RoomID: room.ID, Name: "Amir", AccessCode: "BBB222", TotalPoints: 10, TotalRupiah: 10000, CurrentStatus: models.StatusActive},
	}
	for i := range participants {
		if err := db.Create(&participants[i]).Error; err != nil {
			t.Fatalf("seed participant: %v", err)
		}
	}

	entries, err := s.Leaderboard("ABC123")
	if err != nil {
		t.Fatalf("Leaderboard: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("expected both same-named participants, got: %+v", entries)
	}
	if entries[0].ParticipantID == entries[1].ParticipantID || entries[0].ParticipantID == "" {
		t.Fatalf("entries must carry distinct participant ids: %+v", entries)
	}
	if entries[0].TotalPoints != 30 || entries[1].TotalPoints != 10 {
		t.Fatalf("unexpected ordering: %+v", entries)
	}
}

func TestLeaderboard_UnknownRoom(t *testing.T) {
	s, _, _, _ := newTestService(t)

	if _, err := s.Leaderboard("NOPE00"); !errors.Is(err, ErrRoomNotFound) {
		t.Fatalf("expected ErrRoomNotFound, got: %v", err)
	}
}
