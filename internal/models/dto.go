package models

// QuestionDTO is what a player sees while the quiz is running.
type QuestionDTO struct {
	Text          string   `json:"question"`
	Options       []string `json:"options"`
	Subject       string   `json:"subject,omitempty"`
	Chapter       string   `json:"chapter,omitempty"`
	CorrectAnswer string   `json:"answer,omitempty"` // only once the quiz is complete
}

func (q Question) ToDTO(revealAnswer bool) QuestionDTO {
	options := make([]string, len(q.Options))
	copy(options, q.Options)

	dto := QuestionDTO{
		Text:    q.Text,
		Options: options,
		Subject: q.Subject,
		Chapter: q.Chapter,
	}
	if revealAnswer {
		dto.CorrectAnswer = q.CorrectOption
	}
	return dto
}
