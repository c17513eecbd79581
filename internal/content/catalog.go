package content

import (
	"fmt"

	apperrors "quizzle/internal/pkg/errors"
)

const (
	SubjectDataAnalytics       = "data-analytics"
	SubjectOperatingSystems    = "operating-systems"
	SubjectSoftwareEngineering = "software-engineering"
	SubjectEntrepreneurship    = "entrepreneurship"

	// FullSyllabusID is the subject id recorded for full-syllabus results.
	FullSyllabusID = "full-syllabus"
)

const (
	DifficultyEasy = "easy"
	DifficultyHard = "hard"

	DefaultDifficulty = DifficultyHard
)

type Lesson struct {
	ID               string `json:"id"`
	Title            string `json:"title"`
	Order            int    `json:"order"`
	EstimatedMinutes int    `json:"estimatedTime"`
	Chapter          string `json:"chapter,omitempty"`
}

type Subject struct {
	ID       string   `json:"id"`
	Name     string   `json:"name"`
	Dir      string   `json:"-"`
	Chapters []string `json:"chapters"`
	Lessons  []Lesson `json:"lessons"`
}

// Catalog is the static table of subjects, lessons and chapters.
type Catalog struct {
	subjects []Subject
	byID     map[string]int
}

func NewCatalog(subjects []Subject) *Catalog {
	c := &Catalog{
		subjects: subjects,
		byID:     make(map[string]int, len(subjects)),
	}
	for i, s := range subjects {
		c.byID[s.ID] = i
	}
	return c
}

// DefaultCatalog returns the four subjects served by the question bank.
func DefaultCatalog() *Catalog {
	return NewCatalog([]Subject{
		{
			ID:       SubjectDataAnalytics,
			Name:     "Data Analytics",
			Dir:      "DATA_ANALYTICS",
			Chapters: []string{"ch1", "ch2", "ch3", "ch4", "ch5"},
			Lessons: []Lesson{
				{ID: "da-1", Title: "Introduction to Data Analytics", Order: 1, EstimatedMinutes: 25, Chapter: "ch1"},
				{ID: "da-2", Title: "Data Collection Methods", Order: 2, EstimatedMinutes: 30, Chapter: "ch2"},
				{ID: "da-3", Title: "Data Cleaning and Preprocessing", Order: 3, EstimatedMinutes: 35, Chapter: "ch3"},
				{ID: "da-4", Title: "Statistical Analysis", Order: 4, EstimatedMinutes: 40, Chapter: "ch4"},
				{ID: "da-5", Title: "Data Visualization", Order: 5, EstimatedMinutes: 30, Chapter: "ch5"},
			},
		},
		{
			ID:       SubjectOperatingSystems,
			Name:     "Operating Systems",
			Dir:      "OS",
			Chapters: []string{"ch1", "ch2", "ch3", "ch4", "ch5"},
			Lessons: []Lesson{
				{ID: "os-1", Title: "Introduction to Operating Systems", Order: 1, EstimatedMinutes: 30, Chapter: "ch1"},
				{ID: "os-2", Title: "Process Management", Order: 2, EstimatedMinutes: 35, Chapter: "ch2"},
				{ID: "os-3", Title: "Memory Management", Order: 3, EstimatedMinutes: 40, Chapter: "ch4"},
				{ID: "os-4", Title: "File Systems", Order: 4, EstimatedMinutes: 30, Chapter: "ch5"},
				// ch3 holds scheduling and deadlocks, closest to security
				{ID: "os-5", Title: "System Security", Order: 5, EstimatedMinutes: 35, Chapter: "ch3"},
			},
		},
		{
			ID:       SubjectEntrepreneurship,
			Name:     "Entrepreneurship",
			Dir:      "ENTREPRENEURSHIP",
			Chapters: []string{"ch1", "ch2", "ch3", "ch4"},
			Lessons: []Lesson{
				{ID: "ent-1", Title: "Introduction to Entrepreneurship", Order: 1, EstimatedMinutes: 25, Chapter: "ch1"},
				{ID: "ent-2", Title: "Business Planning", Order: 2, EstimatedMinutes: 35, Chapter: "ch2"},
				{ID: "ent-3", Title: "Market Research and Analysis", Order: 3, EstimatedMinutes: 30, Chapter: "ch3"},
				{ID: "ent-4", Title: "Finance and Funding", Order: 4, EstimatedMinutes: 40, Chapter: "ch4"},
				{ID: "ent-5", Title: "Marketing and Sales", Order: 5, EstimatedMinutes: 30},
			},
		},
		{
			ID:       SubjectSoftwareEngineering,
			Name:     "Software Engineering",
			Dir:      "software en",
			Chapters: []string{"ch1", "ch2", "ch3", "ch4", "ch5", "ch6"},
			Lessons: []Lesson{
				{ID: "se-1", Title: "Introduction to Software Engineering", Order: 1, EstimatedMinutes: 25, Chapter: "ch1"},
				{ID: "se-2", Title: "Software Development Lifecycle", Order: 2, EstimatedMinutes: 35, Chapter: "ch2"},
				{ID: "se-3", Title: "Requirements Engineering", Order: 3, EstimatedMinutes: 30, Chapter: "ch3"},
				{ID: "se-4", Title: "Software Design and Architecture", Order: 4, EstimatedMinutes: 40, Chapter: "ch4"},
				{ID: "se-5", Title: "Testing and Quality Assurance", Order: 5, EstimatedMinutes: 35, Chapter: "ch5"},
			},
		},
	})
}

func (c *Catalog) Subjects() []Subject {
	out := make([]Subject, len(c.subjects))
	copy(out, c.subjects)
	return out
}

func (c *Catalog) Subject(id string) (Subject, error) {
	i, ok := c.byID[id]
	if !ok {
		return Subject{}, fmt.Errorf("subject %q: %w", id, apperrors.ErrNotFound)
	}
	return c.subjects[i], nil
}

// Lesson finds a lesson by title or id within a subject.
func (c *Catalog) Lesson(subjectID, lesson string) (Lesson, error) {
	s, err := c.Subject(subjectID)
	if err != nil {
		return Lesson{}, err
	}
	for _, l := range s.Lessons {
		if l.Title == lesson || l.ID == lesson {
			return l, nil
		}
	}
	return Lesson{}, fmt.Errorf("lesson %q in %s: %w", lesson, subjectID, apperrors.ErrNotFound)
}

// LessonCount is the number of lessons in a subject, 0 when unknown.
func (c *Catalog) LessonCount(subjectID string) int {
	s, err := c.Subject(subjectID)
	if err != nil {
		return 0
	}
	return len(s.Lessons)
}

func (c *Catalog) LessonCounts() map[string]int {
	counts := make(map[string]int, len(c.subjects))
	for _, s := range c.subjects {
		counts[s.ID] = len(s.Lessons)
	}
	return counts
}

func (c *Catalog) SubjectName(id string) string {
	s, err := c.Subject(id)
	if err != nil {
		return id
	}
	return s.Name
}

// ValidateDifficulty returns the normalised difficulty, defaulting to hard.
func ValidateDifficulty(difficulty string) (string, error) {
	switch difficulty {
	case "":
		return DefaultDifficulty, nil
	case DifficultyEasy, DifficultyHard:
		return difficulty, nil
	}
	return "", fmt.Errorf("difficulty %q: %w", difficulty, apperrors.ErrValidation)
}
