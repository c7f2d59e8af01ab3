package room

import (
	"errors"
	"log"

	"thr-trivia/internal/models"
)

var (
	ErrNotFound       = errors.New("room not found")
	ErrCodeWrongRoom  = errors.New("access code is not valid for this room")
	ErrInvalidFormat  = errors.New("access code must be 6 characters")
	ErrInvalidInput   = errors.New("invalid input")
	ErrCodeGeneration = errors.New("could not generate a unique access code")
)

// RoomCache is the slice of the redis cache the room service uses.
type RoomCache interface {
	GetRoom(code string) (*models.Room, error)
	SetRoom(room *models.Room) error
	InvalidateRoom(code string) error
}

type Service struct {
	repo  *Repository
	cache RoomCache
}

func NewService(repo *Repository, cache RoomCache) *Service {
	return &Service{repo: repo, cache: cache}
}

// AccessResult is the outcome of a successful join-validation: either a
// returning participant or a well-formed code nobody has used yet.
type AccessResult struct {
	IsExisting  bool                       `json:"isExisting"`
	Participant *models.ParticipantSummary `json:"participant,omitempty"`
}

type RoomInput struct {
	Name               string `json:"name"`
	Description        string `json:"description"`
	TimePerQuestion    int    `json:"timePerQuestion"`
	ShowLeaderboard    *bool  `json:"showLeaderboard"`
	AllowRetries       bool   `json:"allowRetries"`
	ShowCorrectAnswers bool   `json:"showCorrectAnswers"`
}

type QuestionInput struct {
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	CorrectOptionIndex int      `json:"correctOptionIndex"`
	Points             int      `json:"points"`
	Difficulty         string   `json:"difficulty"`
	Category           string   `json:"category"`
	Explanation        string   `json:"explanation"`
	ImageURL           string   `json:"imageUrl"`
}

type RewardInput struct {
	Difficulty   string `json:"difficulty"`
	AmountRupiah int64  `json:"amountRupiah"`
	Quantity     int    `json:"quantity"`
}

func (s *Service) CreateRoom(input RoomInput, ownerID uint) (*models.Room, error) {
	if input.Name == "" {
		return nil, ErrInvalidInput
	}

	code, err := s.generateUniqueCode()
	if err != nil {
		return nil, err
	}

	showLeaderboard := true
	if input.ShowLeaderboard != nil {
		showLeaderboard = *input.ShowLeaderboard
	}
	timePerQuestion := input.TimePerQuestion
	if timePerQuestion <= 0 {
		timePerQuestion = 30
	}

	room := &models.Room{
		Name:               input.Name,
		Description:        input.Description,
		AccessCode:         code,
		IsActive:           true,
		TimePerQuestion:    timePerQuestion,
		ShowLeaderboard:    showLeaderboard,
		AllowRetries:       input.AllowRetries,
		ShowCorrectAnswers: input.ShowCorrectAnswers,
		CreatedBy:          ownerID,
	}

	if err := s.repo.CreateRoom(room); err != nil {
		return nil, err
	}

	if err := s.cache.SetRoom(room); err != nil {
		log.Printf("Error caching room %s: %v", room.AccessCode, err)
	}
	return room, nil
}

func (s *Service) generateUniqueCode() (string, error) {
	for attempt := 0; attempt < 10; attempt++ {
		code := models.GenerateAccessCode()
		exists, err := s.repo.CodeExists(code)
		if err != nil {
			return "", err
		}
		if !exists {
			return code, nil
		}
	}
	return "", ErrCodeGeneration
}

func (s *Service) ListRooms(ownerID uint) ([]models.Room, error) {
	return s.repo.GetRoomsByOwner(ownerID)
}

func (s *Service) GetRoom(id, ownerID uint) (*models.Room, error) {
	room, err := s.repo.GetRoomByIDAndOwner(id, ownerID)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return room, nil
}

func (s *Service) UpdateRoom(id, ownerID uint, input RoomInput) (*models.Room, error) {
	room, err := s.GetRoom(id, ownerID)
	if err != nil {
		return nil, err
	}

	if input.Name != "" {
		room.Name = input.Name
	}
	room.Description = input.Description
	if input.TimePerQuestion > 0 {
		room.TimePerQuestion = input.TimePerQuestion
	}
	if input.ShowLeaderboard != nil {
		room.ShowLeaderboard = *input.ShowLeaderboard
	}
	room.AllowRetries = input.AllowRetries
	room.ShowCorrectAnswers = input.ShowCorrectAnswers

	if err := s.repo.UpdateRoom(room); err != nil {
		return nil, err
	}
	if err := s.cache.SetRoom(room); err != nil {
		log.Printf("Error caching room %s: %v", room.AccessCode, err)
	}
	return room, nil
}

// DeactivateRoom is the delete operation: rooms are never hard-deleted.
func (s *Service) DeactivateRoom(id, ownerID uint) error {
	room, err := s.GetRoom(id, ownerID)
	if err != nil {
		return err
	}

	room.IsActive = false
	if err := s.repo.UpdateRoom(room); err != nil {
		return err
	}
	if err := s.cache.InvalidateRoom(room.AccessCode); err != nil {
		log.Printf("Error invalidating room cache %s: %v", room.AccessCode, err)
	}
	return nil
}

// LookupByCode finds a room by access code alone. The public
// /rooms/validate endpoint passes requireActive=false on purpose: it
// answers "does this code exist" even for deactivated rooms, while the
// join-validation path requires an active room. Both paths share this
// method so the divergence stays in one place.
func (s *Service) LookupByCode(code string, requireActive bool) (*models.Room, error) {
	if room, err := s.cache.GetRoom(code); err == nil {
		if requireActive && !room.IsActive {
			return nil, ErrNotFound
		}
		return room, nil
	}

	room, err := s.repo.GetRoomByCode(code)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	if err := s.cache.SetRoom(room); err != nil {
		log.Printf("Error caching room %s: %v", room.AccessCode, err)
	}
	if requireActive && !room.IsActive {
		return nil, ErrNotFound
	}
	return room, nil
}

// ValidateAccess checks a (room, access code) pair before a player
// enters. The code may identify a returning participant; a code that
// belongs to a participant of another room is rejected outright.
func (s *Service) ValidateAccess(roomID uint, accessCode string) (*AccessResult, error) {
	if _, err := s.repo.GetActiveRoomByID(roomID); err != nil {
		if IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}

	participant, err := s.repo.GetParticipantByAccessCode(accessCode)
	if err == nil {
		if participant.RoomID != roomID {
			return nil, ErrCodeWrongRoom
		}
		summary := participant.Summary()
		return &AccessResult{IsExisting: true, Participant: &summary}, nil
	}
	if !IsNotFound(err) {
		return nil, err
	}

	if len(accessCode) != models.AccessCodeLength {
		return nil, ErrInvalidFormat
	}
	return &AccessResult{IsExisting: false}, nil
}

func (s *Service) AddQuestion(roomID, ownerID uint, input QuestionInput) (*models.Question, error) {
	if _, err := s.GetRoom(roomID, ownerID); err != nil {
		return nil, err
	}
	if err := validateQuestionInput(input); err != nil {
		return nil, err
	}

	points := input.Points
	if points <= 0 {
		points = defaultPoints(input.Difficulty)
	}

	question := &models.Question{
		RoomID:             roomID,
		Text:               input.Text,
		CorrectOptionIndex: input.CorrectOptionIndex,
		Points:             points,
		Difficulty:         input.Difficulty,
		Category:           input.Category,
		Explanation:        input.Explanation,
		ImageURL:           input.ImageURL,
	}
	for i, text := range input.Options {
		question.Options = append(question.Options, models.Option{Position: i, Text: text})
	}

	if err := s.repo.CreateQuestion(question); err != nil {
		return nil, err
	}
	return question, nil
}

func (s *Service) ListQuestions(roomID, ownerID uint) ([]models.Question, error) {
	if _, err := s.GetRoom(roomID, ownerID); err != nil {
		return nil, err
	}
	return s.repo.GetQuestionsByRoom(roomID)
}

func (s *Service) UpdateQuestion(questionID, ownerID uint, input QuestionInput) (*models.Question, error) {
	question, err := s.getOwnedQuestion(questionID, ownerID)
	if err != nil {
		return nil, err
	}
	if err := validateQuestionInput(input); err != nil {
		return nil, err
	}

	question.Text = input.Text
	question.CorrectOptionIndex = input.CorrectOptionIndex
	question.Difficulty = input.Difficulty
	question.Category = input.Category
	question.Explanation = input.Explanation
	question.ImageURL = input.ImageURL
	if input.Points > 0 {
		question.Points = input.Points
	}

	options := make([]models.Option, len(input.Options))
	for i, text := range input.Options {
		options[i] = models.Option{Position: i, Text: text}
	}
	if err := s.repo.ReplaceOptions(question.ID, options); err != nil {
		return nil, err
	}
	question.Options = nil

	if err := s.repo.SaveQuestion(question); err != nil {
		return nil, err
	}
	return s.repo.GetQuestionByID(question.ID)
}

// DisableQuestion is the delete operation for questions.
func (s *Service) DisableQuestion(questionID, ownerID uint) error {
	question, err := s.getOwnedQuestion(questionID, ownerID)
	if err != nil {
		return err
	}
	question.IsDisabled = true
	return s.repo.SaveQuestion(question)
}

func (s *Service) getOwnedQuestion(questionID, ownerID uint) (*models.Question, error) {
	question, err := s.repo.GetQuestionByID(questionID)
	if err != nil {
		if IsNotFound(err) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	// Ownership is checked through the room; a miss looks identical to
	// the question not existing.
	if _, err := s.GetRoom(question.RoomID, ownerID); err != nil {
		return nil, err
	}
	return question, nil
}

func (s *Service) AddReward(roomID, ownerID uint, input RewardInput) (*models.Reward, error) {
	if _, err := s.GetRoom(roomID, ownerID); err != nil {
		return nil, err
	}
	if !validDifficulty(input.Difficulty) || input.Quantity <= 0 || input.AmountRupiah <= 0 {
		return nil, ErrInvalidInput
	}

	reward := &models.Reward{
		RoomID:       roomID,
		Difficulty:   input.Difficulty,
		AmountRupiah: input.AmountRupiah,
		Quantity:     input.Quantity,
	}
	if err := s.repo.CreateReward(reward); err != nil {
		return nil, err
	}
	return reward, nil
}

func (s *Service) ListRewards(roomID, ownerID uint) ([]models.Reward, error) {
	if _, err := s.GetRoom(roomID, ownerID); err != nil {
		return nil, err
	}
	return s.repo.GetRewardsByRoom(roomID)
}

func validateQuestionInput(input QuestionInput) error {
	if input.Text == "" || len(input.Options) < 2 {
		return ErrInvalidInput
	}
	if input.CorrectOptionIndex < 0 || input.CorrectOptionIndex >= len(input.Options) {
		return ErrInvalidInput
	}
	if !validDifficulty(input.Difficulty) {
		return ErrInvalidInput
	}
	return nil
}

func validDifficulty(d string) bool {
	switch d {
	case models.DifficultyBronze, models.DifficultySilver, models.DifficultyGold:
		return true
	}
	return false
}

func defaultPoints(difficulty string) int {
	switch difficulty {
	case models.DifficultyGold:
		return 30
	case models.DifficultySilver:
		return 20
	default:
		return 10
	}
}
