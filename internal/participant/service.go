package participant

import (
	"errors"
	"log"
	"time"

	"github.com/google/uuid"

	"thr-trivia/internal/models"
)

var (
	ErrMissingFields   = errors.New("access code and name are required")
	ErrRoomNotFound    = errors.New("room not found")
	ErrNotFound        = errors.New("participant not found")
	ErrInvalidID       = errors.New("invalid participant id")
	ErrRewardExhausted = errors.New("reward quantity exhausted")
	ErrRewardWrongRoom = errors.New("reward does not belong to the participant's room")
)

// Notifier pushes room events to connected clients. Satisfied by the
// websocket hub; tests plug in a recorder.
type Notifier interface {
	Broadcast(accessCode string, eventType string, data interface{})
}

// LeaderboardCache is the slice of the redis cache the participant
// service uses.
type LeaderboardCache interface {
	GetLeaderboard(accessCode string) ([]models.LeaderboardEntry, error)
	SetLeaderboard(accessCode string, entries []models.LeaderboardEntry) error
}

type Service struct {
	repo     *Repository
	cache    LeaderboardCache
	notifier Notifier
}

func NewService(repo *Repository, cache LeaderboardCache, notifier Notifier) *Service {
	return &Service{repo: repo, cache: cache, notifier: notifier}
}

type JoinResult struct {
	RoomID        uint   `json:"roomId"`
	ParticipantID string `json:"participantId"`
	RoomName      string `json:"roomName"`
	AccessCode    string `json:"accessCode"`
}

type LogoutResult struct {
	ParticipantID string `json:"participantId"`
	AccessCode    string `json:"accessCode"`
}

// Join enters a player into a room. The code is either a returning
// participant's personal code, which reactivates the existing record,
// or a room's join code, which creates a new participant with a fresh
// personal code. The unique index on participant access codes is what
// keeps concurrent rejoins from racing into duplicates.
func (s *Service) Join(accessCode, name string) (*JoinResult, error) {
	if accessCode == "" || name == "" {
		return nil, ErrMissingFields
	}

	existing, err := s.repo.GetParticipantByAccessCode(accessCode)
	if err == nil {
		room, err := s.repo.GetRoomByID(existing.RoomID)
		if err != nil {
			return nil, err
		}
		if existing.CurrentStatus != models.StatusActive {
			existing.CurrentStatus = models.StatusActive
			if err := s.repo.SaveParticipant(existing); err != nil {
				return nil, err
			}
		}
		s.broadcastJoin(room, existing)
		return &JoinResult{
			RoomID:        room.ID,
			ParticipantID: existing.ID,
			RoomName:      room.Name,
			AccessCode:    existing.AccessCode,
		}, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}

	room, err := s.repo.GetRoomByCode(accessCode)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	code, err := s.generatePersonalCode()
	if err != nil {
		return nil, err
	}

	participant := &models.Participant{
		ID:            uuid.NewString(),
		RoomID:        room.ID,
		Name:          name,
		AccessCode:    code,
		JoinedAt:      time.Now(),
		TotalPoints:   0,
		TotalRupiah:   0,
		CurrentStatus: models.StatusActive,
	}
	if err := s.repo.CreateParticipant(participant); err != nil {
		return nil, err
	}

	s.broadcastJoin(room, participant)
	return &JoinResult{
		RoomID:        room.ID,
		ParticipantID: participant.ID,
		RoomName:      room.Name,
		AccessCode:    participant.AccessCode,
	}, nil
}

// generatePersonalCode draws codes until one is free in both tables.
// Room join codes and personal codes share one namespace, resolved
// participant-first in Join, so a personal code that matched a room
// code would shadow that room.
func (s *Service) generatePersonalCode() (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		code := models.GenerateAccessCode()
		taken, err := s.repo.ParticipantCodeExists(code)
		if err != nil {
			return "", err
		}
		if !taken {
			taken, err = s.repo.RoomCodeExists(code)
			if err != nil {
				return "", err
			}
		}
		if !taken {
			return code, nil
		}
	}
	return "", errors.New("could not generate a unique access code")
}

func (s *Service) broadcastJoin(room *models.Room, p *models.Participant) {
	if s.notifier == nil {
		return
	}
	s.notifier.Broadcast(room.AccessCode, "participant_joined", map[string]any{
		"participantId": p.ID,
		"name":          p.Name,
	})
}

// Logout marks the participant inactive. Calling it again on an
// already-inactive participant is a no-op success.
func (s *Service) Logout(participantID string) (*LogoutResult, error) {
	if participantID == "" {
		return nil, ErrInvalidID
	}
	if _, err := uuid.Parse(participantID); err != nil {
		return nil, ErrInvalidID
	}

	participant, err := s.repo.GetParticipantByID(participantID)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if participant.CurrentStatus != models.StatusInactive {
		participant.CurrentStatus = models.StatusInactive
		if err := s.repo.SaveParticipant(participant); err != nil {
			return nil, err
		}

		if s.notifier != nil {
			if room, err := s.repo.GetRoomByID(participant.RoomID); err == nil {
				s.notifier.Broadcast(room.AccessCode, "participant_left", map[string]any{
					"participantId": participant.ID,
				})
			}
		}
	}

	return &LogoutResult{ParticipantID: participant.ID, AccessCode: participant.AccessCode}, nil
}

// Award hands a reward to a participant: claim row, totals and stock
// move in one transaction, then the cached leaderboard is refreshed.
func (s *Service) Award(participantID string, rewardID uint) (*models.Participant, error) {
	if _, err := uuid.Parse(participantID); err != nil {
		return nil, ErrInvalidID
	}

	participant, err := s.repo.AwardClaim(participantID, rewardID)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	s.refreshLeaderboard(participant.RoomID)
	return participant, nil
}

func (s *Service) refreshLeaderboard(roomID uint) {
	entries, err := s.repo.LeaderboardByRoom(roomID)
	if err != nil {
		log.Printf("Error loading leaderboard for room %d: %v", roomID, err)
		return
	}

	room, err := s.repo.GetRoomByID(roomID)
	if err != nil {
		log.Printf("Error loading room %d: %v", roomID, err)
		return
	}

	if s.cache != nil {
		if err := s.cache.SetLeaderboard(room.AccessCode, entries); err != nil {
			log.Printf("Error caching leaderboard for room %s: %v", room.AccessCode, err)
		}
	}
	if s.notifier != nil {
		s.notifier.Broadcast(room.AccessCode, "leaderboard_update", entries)
	}
}

// Leaderboard reads from redis first and repopulates it from the
// database on a miss.
func (s *Service) Leaderboard(accessCode string) ([]models.LeaderboardEntry, error) {
	if s.cache != nil {
		if entries, err := s.cache.GetLeaderboard(accessCode); err == nil {
			return entries, nil
		}
	}

	room, err := s.repo.GetRoomByCode(accessCode)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrRoomNotFound
		}
		return nil, err
	}

	entries, err := s.repo.LeaderboardByRoom(room.ID)
	if err != nil {
		return nil, err
	}

	if s.cache != nil {
		if err := s.cache.SetLeaderboard(accessCode, entries); err != nil {
			log.Printf("Error caching leaderboard for room %s: %v", accessCode, err)
		}
	}
	return entries, nil
}
