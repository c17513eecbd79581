package quiz

import (
	"math/rand"
	"sync"
	"time"

	"quizzle/internal/models"
)

type Mode int

const (
	ModeLesson Mode = iota
	ModeBalanced
	ModeFullSyllabus
)

const (
	LessonQuestionCount       = 5
	SubjectQuestionCount      = 30
	FullSyllabusQuestionCount = 100
	FullSyllabusSubjectCount  = 4
)

// Selector draws and orders the questions of one quiz. It is safe for
// concurrent use.
type Selector struct {
	mu  sync.Mutex
	rnd *rand.Rand
}

// NewSelector uses src for randomness; a nil src is seeded from the clock.
func NewSelector(src rand.Source) *Selector {
	if src == nil {
		src = rand.NewSource(time.Now().UnixNano())
	}
	return &Selector{rnd: rand.New(src)}
}

// Shuffle returns a uniformly permuted copy of questions (Fisher-Yates).
func (s *Selector) Shuffle(questions []models.Question) []models.Question {
	shuffled := make([]models.Question, len(questions))
	copy(shuffled, questions)

	s.mu.Lock()
	defer s.mu.Unlock()
	for i := len(shuffled) - 1; i > 0; i-- {
		j := s.rnd.Intn(i + 1)
		shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
	}
	return shuffled
}

// Select picks at most count questions from pool according to mode. A
// non-positive count falls back to the mode's default. The result may be
// shorter than asked when the pool is thin; callers handle the empty case.
func (s *Selector) Select(pool []models.Question, count int, mode Mode) []models.Question {
	switch mode {
	case ModeBalanced:
		if count <= 0 {
			count = SubjectQuestionCount
		}
		return s.balanced(pool, count)
	case ModeFullSyllabus:
		if count <= 0 {
			count = FullSyllabusQuestionCount
		}
		return s.fullSyllabus(pool, count)
	default:
		if count <= 0 {
			count = LessonQuestionCount
		}
		shuffled := s.Shuffle(pool)
		if len(shuffled) <= count {
			return shuffled
		}
		return shuffled[:count]
	}
}

// balanced takes ceil(target/chapters) questions from each chapter.
func (s *Selector) balanced(pool []models.Question, target int) []models.Question {
	chapters := partition(pool, func(q models.Question) string { return q.Chapter })
	if len(chapters) == 0 {
		return []models.Question{}
	}
	quota := ceilDiv(target, len(chapters))

	selected := make([]models.Question, 0, quota*len(chapters))
	for _, chapter := range chapters {
		shuffled := s.Shuffle(chapter)
		if len(shuffled) > quota {
			shuffled = shuffled[:quota]
		}
		selected = append(selected, shuffled...)
	}
	return s.Shuffle(selected)
}

// fullSyllabus runs a balanced subject selection per subject and keeps a
// fixed share of each, tagged with its subject.
func (s *Selector) fullSyllabus(pool []models.Question, target int) []models.Question {
	perSubject := ceilDiv(target, FullSyllabusSubjectCount)
	subjects := partition(pool, func(q models.Question) string { return q.Subject })

	selected := make([]models.Question, 0, target)
	for _, subjectPool := range subjects {
		subjectID := subjectPool[0].Subject
		picked := s.balanced(subjectPool, SubjectQuestionCount)
		if len(picked) > perSubject {
			picked = picked[:perSubject]
		}
		for _, q := range picked {
			q.Subject = subjectID
			selected = append(selected, q)
		}
	}
	return s.Shuffle(selected)
}

// partition groups questions by key, keeping first-appearance order.
func partition(pool []models.Question, key func(models.Question) string) [][]models.Question {
	index := make(map[string]int)
	var groups [][]models.Question
	for _, q := range pool {
		k := key(q)
		i, ok := index[k]
		if !ok {
			i = len(groups)
			index[k] = i
			groups = append(groups, nil)
		}
		groups[i] = append(groups[i], q)
	}
	return groups
}

func ceilDiv(a, b int) int {
	if b <= 0 {
		return 0
	}
	return (a + b - 1) / b
}
