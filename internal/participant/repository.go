package participant

import (
	"errors"

	"gorm.io/gorm"

	"thr-trivia/internal/models"
)

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// GetRoomByCode does not filter on is_active: joining a deactivated
// room is allowed, matching the join path's historical behavior.
func (r *Repository) GetRoomByCode(code string) (*models.Room, error) {
	var room models.Room
	err := r.db.Where("access_code = ?", code).First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *Repository) GetRoomByID(id uint) (*models.Room, error) {
	var room models.Room
	if err := r.db.First(&room, id).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *Repository) GetParticipantByAccessCode(code string) (*models.Participant, error) {
	var participant models.Participant
	err := r.db.Where("access_code = ?", code).First(&participant).Error
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *Repository) ParticipantCodeExists(code string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Participant{}).Where("access_code = ?", code).Count(&count).Error
	return count > 0, err
}

func (r *Repository) RoomCodeExists(code string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Room{}).Where("access_code = ?", code).Count(&count).Error
	return count > 0, err
}

func (r *Repository) GetParticipantByID(id string) (*models.Participant, error) {
	var participant models.Participant
	err := r.db.Where("id = ?", id).First(&participant).Error
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

func (r *Repository) CreateParticipant(participant *models.Participant) error {
	return r.db.Create(participant).Error
}

func (r *Repository) SaveParticipant(participant *models.Participant) error {
	return r.db.Save(participant).Error
}

// AwardClaim applies one reward claim atomically: stock check, claim
// row, participant totals and reward claimed count move together.
func (r *Repository) AwardClaim(participantID string, rewardID uint) (*models.Participant, error) {
	var updated models.Participant

	err := r.db.Transaction(func(tx *gorm.DB) error {
		var reward models.Reward
		if err := tx.First(&reward, rewardID).Error; err != nil {
			return err
		}
		if reward.ClaimedCount >= reward.Quantity {
			return ErrRewardExhausted
		}

		var participant models.Participant
		if err := tx.Where("id = ?", participantID).First(&participant).Error; err != nil {
			return err
		}
		if participant.RoomID != reward.RoomID {
			return ErrRewardWrongRoom
		}

		points := pointsForDifficulty(reward.Difficulty)
		claim := models.RewardClaim{
			ParticipantID: participant.ID,
			RewardID:      reward.ID,
			AmountRupiah:  reward.AmountRupiah,
			PointsEarned:  points,
		}
		if err := tx.Create(&claim).Error; err != nil {
			return err
		}

		participant.TotalPoints += points
		participant.TotalRupiah += reward.AmountRupiah
		if err := tx.Save(&participant).Error; err != nil {
			return err
		}

		reward.ClaimedCount++
		if err := tx.Save(&reward).Error; err != nil {
			return err
		}

		updated = participant
		return nil
	})
	if err != nil {
		return nil, err
	}
	return &updated, nil
}

func (r *Repository) LeaderboardByRoom(roomID uint) ([]models.LeaderboardEntry, error) {
	var entries []models.LeaderboardEntry
	err := r.db.Model(&models.Participant{}).
		Select("id as participant_id, name, total_points, total_rupiah").
		Where("room_id = ?", roomID).
		Order("total_points desc, joined_at asc").
		Scan(&entries).Error
	return entries, err
}

func pointsForDifficulty(difficulty string) int {
	switch difficulty {
	case models.DifficultyGold:
		return 30
	case models.DifficultySilver:
		return 20
	default:
		return 10
	}
}

// IsNotFound reports whether err is the store's record-missing error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
