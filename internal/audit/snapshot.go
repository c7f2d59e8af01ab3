package audit

import (
	"fmt"

	"gorm.io/gorm"

	"thr-trivia/internal/models"
)

// Snapshot is an immutable view of the collections the audit checks
// read. Checks never touch the database directly.
type Snapshot struct {
	Rooms        []models.Room
	Questions    []models.Question
	Participants []models.Participant
	Rewards      []models.Reward
	Claims       []models.RewardClaim

	failed map[string]bool
}

// Loaded reports whether every named collection loaded cleanly. Checks
// consult it so a failed load skips the check instead of flagging every
// row as dangling.
func (s *Snapshot) Loaded(names ...string) bool {
	for _, name := range names {
		if s.failed[name] {
			return false
		}
	}
	return true
}

type Repository struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// LoadSnapshot reads every collection. A failed collection is reported
// and left empty so the remaining checks still run on what loaded.
func (r *Repository) LoadSnapshot() (*Snapshot, []string) {
	snap := Snapshot{failed: make(map[string]bool)}
	var errs []string

	load := func(name string, dest interface{}) {
		if err := r.db.Find(dest).Error; err != nil {
			errs = append(errs, fmt.Sprintf("loading %s: %v", name, err))
			snap.failed[name] = true
		}
	}

	load("rooms", &snap.Rooms)
	load("questions", &snap.Questions)
	load("participants", &snap.Participants)
	load("rewards", &snap.Rewards)
	load("reward claims", &snap.Claims)

	return &snap, errs
}
