package audit

import (
	"sort"
	"strconv"
	"strings"
)

type RelationshipIssue struct {
	Entity string `json:"entity"`
	ID     string `json:"id"`
	Field  string `json:"field"`
	Detail string `json:"detail"`
}

type DuplicateAnswer struct {
	RoomID      uint   `json:"roomId"`
	Text        string `json:"text"`
	QuestionIDs []uint `json:"questionIds"`
}

type RewardIssue struct {
	RewardID     uint   `json:"rewardId"`
	RoomID       uint   `json:"roomId"`
	Quantity     int    `json:"quantity"`
	ClaimedCount int    `json:"claimedCount"`
	ActualClaims int    `json:"actualClaims"`
	Detail       string `json:"detail"`
}

type RupiahIssue struct {
	ParticipantID  string `json:"participantId"`
	Name           string `json:"name"`
	RecordedRupiah int64  `json:"recordedRupiah"`
	ClaimedRupiah  int64  `json:"claimedRupiah"`
	RecordedPoints int    `json:"recordedPoints"`
	ClaimedPoints  int    `json:"claimedPoints"`
}

// CheckRelationships finds dangling references between collections.
func CheckRelationships(snap *Snapshot) []RelationshipIssue {
	rooms := make(map[uint]bool, len(snap.Rooms))
	for _, r := range snap.Rooms {
		rooms[r.ID] = true
	}
	participants := make(map[string]bool, len(snap.Participants))
	for _, p := range snap.Participants {
		participants[p.ID] = true
	}
	rewards := make(map[uint]bool, len(snap.Rewards))
	for _, r := range snap.Rewards {
		rewards[r.ID] = true
	}

	issues := []RelationshipIssue{}
	for _, q := range snap.Questions {
		if !rooms[q.RoomID] {
			issues = append(issues, RelationshipIssue{
				Entity: "question",
				ID:     itoa(q.ID),
				Field:  "roomId",
				Detail: "references a room that does not exist",
			})
		}
	}
	for _, p := range snap.Participants {
		if !rooms[p.RoomID] {
			issues = append(issues, RelationshipIssue{
				Entity: "participant",
				ID:     p.ID,
				Field:  "roomId",
				Detail: "references a room that does not exist",
			})
		}
	}
	for _, r := range snap.Rewards {
		if !rooms[r.RoomID] {
			issues = append(issues, RelationshipIssue{
				Entity: "reward",
				ID:     itoa(r.ID),
				Field:  "roomId",
				Detail: "references a room that does not exist",
			})
		}
	}
	for _, c := range snap.Claims {
		if !participants[c.ParticipantID] {
			issues = append(issues, RelationshipIssue{
				Entity: "rewardClaim",
				ID:     itoa(c.ID),
				Field:  "participantId",
				Detail: "references a participant that does not exist",
			})
		}
		if !rewards[c.RewardID] {
			issues = append(issues, RelationshipIssue{
				Entity: "rewardClaim",
				ID:     itoa(c.ID),
				Field:  "rewardId",
				Detail: "references a reward that does not exist",
			})
		}
	}
	return issues
}

// CheckDuplicateAnswers finds questions within one room whose text
// collides after normalization.
func CheckDuplicateAnswers(snap *Snapshot) []DuplicateAnswer {
	type key struct {
		roomID uint
		text   string
	}
	groups := make(map[key][]uint)
	for _, q := range snap.Questions {
		k := key{roomID: q.RoomID, text: normalizeText(q.Text)}
		groups[k] = append(groups[k], q.ID)
	}

	duplicates := []DuplicateAnswer{}
	for k, ids := range groups {
		if len(ids) < 2 {
			continue
		}
		sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
		duplicates = append(duplicates, DuplicateAnswer{
			RoomID:      k.roomID,
			Text:        k.text,
			QuestionIDs: ids,
		})
	}
	sort.Slice(duplicates, func(i, j int) bool {
		if duplicates[i].RoomID != duplicates[j].RoomID {
			return duplicates[i].RoomID < duplicates[j].RoomID
		}
		return duplicates[i].Text < duplicates[j].Text
	})
	return duplicates
}

// CheckRewardQuantities finds rewards whose claimed count exceeds the
// defined stock, or whose counter disagrees with the claim rows.
func CheckRewardQuantities(snap *Snapshot) []RewardIssue {
	actual := make(map[uint]int)
	for _, c := range snap.Claims {
		actual[c.RewardID]++
	}

	issues := []RewardIssue{}
	for _, r := range snap.Rewards {
		switch {
		case r.ClaimedCount > r.Quantity:
			issues = append(issues, RewardIssue{
				RewardID:     r.ID,
				RoomID:       r.RoomID,
				Quantity:     r.Quantity,
				ClaimedCount: r.ClaimedCount,
				ActualClaims: actual[r.ID],
				Detail:       "claimed count exceeds defined quantity",
			})
		case r.ClaimedCount != actual[r.ID]:
			issues = append(issues, RewardIssue{
				RewardID:     r.ID,
				RoomID:       r.RoomID,
				Quantity:     r.Quantity,
				ClaimedCount: r.ClaimedCount,
				ActualClaims: actual[r.ID],
				Detail:       "claimed count disagrees with claim rows",
			})
		}
	}
	return issues
}

// CheckParticipantRupiah reconciles each participant's recorded totals
// against the sum of their claim history.
func CheckParticipantRupiah(snap *Snapshot) []RupiahIssue {
	type totals struct {
		rupiah int64
		points int
	}
	claimed := make(map[string]totals)
	for _, c := range snap.Claims {
		t := claimed[c.ParticipantID]
		t.rupiah += c.AmountRupiah
		t.points += c.PointsEarned
		claimed[c.ParticipantID] = t
	}

	issues := []RupiahIssue{}
	for _, p := range snap.Participants {
		t := claimed[p.ID]
		if p.TotalRupiah != t.rupiah || p.TotalPoints != t.points {
			issues = append(issues, RupiahIssue{
				ParticipantID:  p.ID,
				Name:           p.Name,
				RecordedRupiah: p.TotalRupiah,
				ClaimedRupiah:  t.rupiah,
				RecordedPoints: p.TotalPoints,
				ClaimedPoints:  t.points,
			})
		}
	}
	return issues
}

func normalizeText(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

func itoa(n uint) string {
	return strconv.FormatUint(uint64(n), 10)
}
