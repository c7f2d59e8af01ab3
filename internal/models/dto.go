package models

// RoomSummary is the public shape returned by the code-lookup endpoint.
type RoomSummary struct {
	ID         uint   `json:"id"`
	Name       string `json:"name"`
	AccessCode string `json:"accessCode"`
}

// ParticipantSummary is what the validate endpoint returns for a
// returning player.
type ParticipantSummary struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	TotalRupiah   int64  `json:"totalRupiah"`
	CurrentStatus string `json:"currentStatus"`
}

type QuestionDTO struct {
	ID                 uint     `json:"id"`
	Text               string   `json:"text"`
	Options            []string `json:"options"`
	Points             int      `json:"points"`
	Difficulty         string   `json:"difficulty"`
	Category           string   `json:"category"`
	ImageURL           string   `json:"image_url,omitempty"`
	TimeLimit          int      `json:"time_limit"`
	CorrectOptionIndex int      `json:"correct_option_index"`
	Explanation        string   `json:"explanation,omitempty"`
}

func (r Room) Summary() RoomSummary {
	return RoomSummary{ID: r.ID, Name: r.Name, AccessCode: r.AccessCode}
}

func (p Participant) Summary() ParticipantSummary {
	return ParticipantSummary{
		ID:            p.ID,
		Name:          p.Name,
		TotalRupiah:   p.TotalRupiah,
		CurrentStatus: p.CurrentStatus,
	}
}

// ToDTO flattens a question for the player UI. The correct index and
// explanation only go out when the room reveals answers (or the caller
// is the host); players otherwise get -1.
func (q Question) ToDTO(revealAnswer bool, timeLimit int) QuestionDTO {
	options := make([]string, len(q.Options))
	for i, opt := range q.Options {
		options[i] = opt.Text
	}

	if timeLimit <= 0 {
		timeLimit = 30
	}

	dto := QuestionDTO{
		ID:                 q.ID,
		Text:               q.Text,
		Options:            options,
		Points:             q.Points,
		Difficulty:         q.Difficulty,
		Category:           q.Category,
		ImageURL:           q.ImageURL,
		TimeLimit:          timeLimit,
		CorrectOptionIndex: -1,
	}
	if revealAnswer {
		dto.CorrectOptionIndex = q.CorrectOptionIndex
		dto.Explanation = q.Explanation
	}
	return dto
}
