package models

import (
	"time"

	"gorm.io/datatypes"
)

type QuizType string

const (
	QuizTypeLesson       QuizType = "lesson"
	QuizTypeSubject      QuizType = "subject"
	QuizTypeFullSyllabus QuizType = "full-syllabus"
)

func (t QuizType) Valid() bool {
	switch t {
	case QuizTypeLesson, QuizTypeSubject, QuizTypeFullSyllabus:
		return true
	}
	return false
}

// PassThreshold applies to every quiz type.
const PassThreshold = 60

// Question is immutable once loaded from the question bank.
type Question struct {
	Text          string   `json:"question"`
	Options       []string `json:"options"`
	CorrectOption string   `json:"answer"`
	Subject       string   `json:"subject,omitempty"`
	Chapter       string   `json:"chapter,omitempty"`
}

// HasOption reports whether option is one of the question's choices.
func (q Question) HasOption(option string) bool {
	for _, o := range q.Options {
		if o == option {
			return true
		}
	}
	return false
}

// AnsweredQuestion is the report snapshot of one question.
type AnsweredQuestion struct {
	Question   string   `json:"question"`
	Options    []string `json:"options"`
	Answer     string   `json:"answer"`
	UserAnswer *string  `json:"userAnswer"`
	Subject    string   `json:"subject,omitempty"`
	Chapter    string   `json:"chapter,omitempty"`
}

func (a AnsweredQuestion) Correct() bool {
	return a.UserAnswer != nil && *a.UserAnswer == a.Answer
}

// QuizResult is written once and never updated.
type QuizResult struct {
	ID               string                                `json:"id" gorm:"primaryKey;size:36"`
	UserID           string                                `json:"userId" gorm:"index;not null;size:36"`
	SubjectID        string                                `json:"subjectId" gorm:"not null"`
	LessonTitle      string                                `json:"lessonTitle" gorm:"not null"`
	ScorePercent     int                                   `json:"score" gorm:"column:score;not null"`
	TotalQuestions   int                                   `json:"totalQuestions" gorm:"not null"`
	TimeSpentSeconds int                                   `json:"timeSpent" gorm:"column:time_spent;not null"`
	Answers          datatypes.JSONType[map[int]string]    `json:"selectedAnswers" gorm:"column:selected_answers;not null"`
	Questions        datatypes.JSONSlice[AnsweredQuestion] `json:"questions" gorm:"column:questions;not null"`
	Passed           bool                                  `json:"passed" gorm:"not null"`
	QuizType         QuizType                              `json:"quizType" gorm:"not null"`
	CompletedAt      time.Time                             `json:"completedAt" gorm:"index;not null"`
}

func (QuizResult) TableName() string {
	return "quiz_results"
}

// Passed reports the pass/fail verdict for a percentage.
func Passed(scorePercent int) bool {
	return scorePercent >= PassThreshold
}
