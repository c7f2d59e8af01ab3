package audit

import (
	"sync"
	"time"
)

// Report is the merged result of all consistency checks.
type Report struct {
	RelationshipValidation []RelationshipIssue `json:"relationshipValidation"`
	DuplicateAnswers       []DuplicateAnswer   `json:"duplicateAnswers"`
	InconsistentRewards    []RewardIssue       `json:"inconsistentRewards"`
	InconsistentRupiah     []RupiahIssue       `json:"inconsistentRupiah"`
	Errors                 []string            `json:"errors,omitempty"`
	GeneratedAt            time.Time           `json:"generatedAt"`
}

type Service struct {
	repo *Repository
}

func NewService(repo *Repository) *Service {
	return &Service{repo: repo}
}

// Run loads one snapshot and fans the four checks out concurrently.
// The checks are pure and share nothing, so no ordering between them.
// A check whose input collections failed to load is skipped, otherwise
// an empty collection would read as every row dangling.
func (s *Service) Run() *Report {
	snap, loadErrs := s.repo.LoadSnapshot()

	report := &Report{
		RelationshipValidation: []RelationshipIssue{},
		DuplicateAnswers:       []DuplicateAnswer{},
		InconsistentRewards:    []RewardIssue{},
		InconsistentRupiah:     []RupiahIssue{},
		Errors:                 loadErrs,
		GeneratedAt:            time.Now(),
	}

	var wg sync.WaitGroup
	runCheck := func(name string, inputs []string, check func()) {
		if !snap.Loaded(inputs...) {
			report.Errors = append(report.Errors, name+" skipped: input failed to load")
			return
		}
		wg.Add(1)
		go func() {
			defer wg.Done()
			check()
		}()
	}

	runCheck("relationship validation",
		[]string{"rooms", "questions", "participants", "rewards", "reward claims"},
		func() { report.RelationshipValidation = CheckRelationships(snap) })
	runCheck("duplicate answers",
		[]string{"questions"},
		func() { report.DuplicateAnswers = CheckDuplicateAnswers(snap) })
	runCheck("reward quantities",
		[]string{"rewards", "reward claims"},
		func() { report.InconsistentRewards = CheckRewardQuantities(snap) })
	runCheck("participant rupiah",
		[]string{"participants", "reward claims"},
		func() { report.InconsistentRupiah = CheckParticipantRupiah(snap) })
	wg.Wait()

	return report
}
