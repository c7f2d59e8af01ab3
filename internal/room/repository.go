package room

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

func (r *Repository) CreateRoom(room *models.Room) error {
	return r.db.Create(room).Error
}

// GetRoomByIDAndOwner backs every admin mutation. A room owned by a
// different admin comes back as gorm.ErrRecordNotFound, same as a room
// that does not exist.
func (r *Repository) GetRoomByIDAndOwner(id, ownerID uint) (*models.Room, error) {
	var room models.Room
	err := r.db.Where("id = ? AND created_by = ?", id, ownerID).First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *Repository) GetRoomsByOwner(ownerID uint) ([]models.Room, error) {
	var rooms []models.Room
	err := r.db.Where("created_by = ?", ownerID).Order("created_at desc").Find(&rooms).Error
	return rooms, err
}

func (r *Repository) GetRoomByCode(code string) (*models.Room, error) {
	var room models.Room
	if err := r.db.Where("access_code = ?", code).First(&room).Error; err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *Repository) GetActiveRoomByID(id uint) (*models.Room, error) {
	var room models.Room
	err := r.db.Where("id = ? AND is_active = ?", id, true).First(&room).Error
	if err != nil {
		return nil, err
	}
	return &room, nil
}

func (r *Repository) UpdateRoom(room *models.Room) error {
	return r.db.Save(room).Error
}

// CodeExists reports whether the code is taken by any room or any
// participant. The two live in one lookup namespace on the join path,
// so a new room code must be free in both tables.
func (r *Repository) CodeExists(code string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Room{}).Where("access_code = ?", code).Count(&count).Error
	if err != nil || count > 0 {
		return count > 0, err
	}
	err = r.db.Model(&models.Participant{}).Where("access_code = ?", code).Count(&count).Error
	return count > 0, err
}

func (r *Repository) CreateQuestion(question *models.Question) error {
	return r.db.Create(question).Error
}

func (r *Repository) GetQuestionsByRoom(roomID uint) ([]models.Question, error) {
	var questions []models.Question
	err := r.db.Where("room_id = ?", roomID).
		Preload("Options", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc")
		}).
		Order("created_at asc").
		Find(&questions).Error
	return questions, err
}

func (r *Repository) GetQuestionByID(id uint) (*models.Question, error) {
	var question models.Question
	err := r.db.Preload("Options", func(db *gorm.DB) *gorm.DB {
		return db.Order("position asc")
	}).First(&question, id).Error
	if err != nil {
		return nil, err
	}
	return &question, nil
}

func (r *Repository) SaveQuestion(question *models.Question) error {
	return r.db.Save(question).Error
}

func (r *Repository) ReplaceOptions(questionID uint, options []models.Option) error {
	return r.db.Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("question_id = ?", questionID).Delete(&models.Option{}).Error; err != nil {
			return err
		}
		for i := range options {
			options[i].QuestionID = questionID
		}
		return tx.Create(&options).Error
	})
}

func (r *Repository) CreateReward(reward *models.Reward) error {
	return r.db.Create(reward).Error
}

func (r *Repository) GetRewardsByRoom(roomID uint) ([]models.Reward, error) {
	var rewards []models.Reward
	err := r.db.Where("room_id = ?", roomID).Order("difficulty asc").Find(&rewards).Error
	return rewards, err
}

// GetParticipantByAccessCode looks across all rooms; the access
// validation path needs to tell "code belongs to another room" apart
// from "code unknown".
func (r *Repository) GetParticipantByAccessCode(code string) (*models.Participant, error) {
	var participant models.Participant
	err := r.db.Where("access_code = ?", code).First(&participant).Error
	if err != nil {
		return nil, err
	}
	return &participant, nil
}

// IsNotFound reports whether err is the store's record-missing error.
func IsNotFound(err error) bool {
	return errors.Is(err, gorm.ErrRecordNotFound)
}
