package models

import (
	"math/rand"
	"time"

	"gorm.io/gorm"
)

const (
	RoleAdmin  = "admin"
	RolePlayer = "player"
)

const (
	DifficultyBronze = "bronze"
	DifficultySilver = "silver"
	DifficultyGold   = "gold"
)

const (
	StatusActive   = "active"
	StatusInactive = "inactive"
)

// AccessCodeLength is the fixed length of access codes, both the room
// join code and each participant's personal returning code.
const AccessCodeLength = 6

const accessCodeCharset = "ABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// GenerateAccessCode returns a random 6-character code. Uniqueness is
// the caller's problem.
func GenerateAccessCode() string {
	code := make([]byte, AccessCodeLength)
	for i := range code {
		code[i] = accessCodeCharset[rand.Intn(len(accessCodeCharset))]
	}
	return string(code)
}

type User struct {
	ID        uint           `json:"id" gorm:"primaryKey"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `json:"-" gorm:"index"`
	Username  string         `json:"username" gorm:"unique;not null"`
	Email     string         `json:"email" gorm:"unique;not null"`
	Password  string         `json:"-" gorm:"not null"`
	Role      string         `json:"role" gorm:"default:admin"`
}

type Room struct {
	ID                 uint           `json:"id" gorm:"primaryKey"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `json:"-" gorm:"index"`
	Name               string         `json:"name" gorm:"not null"`
	Description        string         `json:"description"`
	AccessCode         string         `json:"access_code" gorm:"unique;size:6"`
	IsActive           bool           `json:"is_active" gorm:"default:true"`
	StartTime          *time.Time     `json:"start_time"`
	EndTime            *time.Time     `json:"end_time"`
	TimePerQuestion    int            `json:"time_per_question" gorm:"default:30"`
	ShowLeaderboard    bool           `json:"show_leaderboard" gorm:"default:true"`
	AllowRetries       bool           `json:"allow_retries"`
	ShowCorrectAnswers bool           `json:"show_correct_answers"`
	CreatedBy          uint           `json:"created_by" gorm:"index"`
	Questions          []Question     `json:"questions,omitempty" gorm:"foreignKey:RoomID"`
}

type Question struct {
	ID                 uint           `json:"id" gorm:"primaryKey"`
	CreatedAt          time.Time      `json:"created_at"`
	UpdatedAt          time.Time      `json:"updated_at"`
	DeletedAt          gorm.DeletedAt `json:"-" gorm:"index"`
	RoomID             uint           `json:"room_id" gorm:"index;not null"`
	Text               string         `json:"text" gorm:"not null"`
	Options            []Option       `json:"options,omitempty" gorm:"foreignKey:QuestionID"`
	CorrectOptionIndex int            `json:"correct_option_index"`
	Points             int            `json:"points" gorm:"default:10"`
	Difficulty         string         `json:"difficulty" gorm:"default:bronze"`
	Category           string         `json:"category"`
	Explanation        string         `json:"explanation"`
	IsDisabled         bool           `json:"is_disabled"`
	ImageURL           string         `json:"image_url"`
}

type Option struct {
	ID         uint           `json:"id" gorm:"primaryKey"`
	CreatedAt  time.Time      `json:"created_at"`
	UpdatedAt  time.Time      `json:"updated_at"`
	DeletedAt  gorm.DeletedAt `json:"-" gorm:"index"`
	QuestionID uint           `json:"question_id" gorm:"index"`
	Position   int            `json:"position" gorm:"not null"`
	Text       string         `json:"text" gorm:"not null"`
}

// Participant keys on a uuid so join responses never expose row ids.
// AccessCode is the participant's personal returning code, generated at
// join; the unique index is what makes rejoin a reactivation instead of
// a duplicate insert.
type Participant struct {
	ID            string    `json:"id" gorm:"primaryKey;size:36"`
	RoomID        uint      `json:"room_id" gorm:"index;not null"`
	Name          string    `json:"name" gorm:"not null"`
	AccessCode    string    `json:"access_code" gorm:"uniqueIndex;size:6;not null"`
	JoinedAt      time.Time `json:"joined_at"`
	TotalPoints   int       `json:"total_points"`
	TotalRupiah   int64     `json:"total_rupiah"`
	CurrentStatus string    `json:"current_status" gorm:"default:active"`
}

type Reward struct {
	ID           uint           `json:"id" gorm:"primaryKey"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
	DeletedAt    gorm.DeletedAt `json:"-" gorm:"index"`
	RoomID       uint           `json:"room_id" gorm:"index;not null"`
	Difficulty   string         `json:"difficulty" gorm:"default:bronze"`
	AmountRupiah int64          `json:"amount_rupiah"`
	Quantity     int            `json:"quantity"`
	ClaimedCount int            `json:"claimed_count"`
}

// RewardClaim is the append-only history a participant's totals are
// reconciled against by the admin audit.
type RewardClaim struct {
	ID            uint      `json:"id" gorm:"primaryKey"`
	CreatedAt     time.Time `json:"created_at"`
	ParticipantID string    `json:"participant_id" gorm:"index;size:36;not null"`
	RewardID      uint      `json:"reward_id" gorm:"index;not null"`
	AmountRupiah  int64     `json:"amount_rupiah"`
	PointsEarned  int       `json:"points_earned"`
}

type LeaderboardEntry struct {
	ParticipantID string `json:"participantId"`
	Name          string `json:"name"`
	TotalPoints   int    `json:"total_points"`
	TotalRupiah   int64  `json:"total_rupiah"`
}
