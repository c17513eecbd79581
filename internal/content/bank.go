package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log"
	"path"
	"time"

	"quizzle/internal/models"
	apperrors "quizzle/internal/pkg/errors"
)

// ChapterCache keeps decoded chapters so the bank does not re-read files.
type ChapterCache interface {
	GetChapter(ctx context.Context, key string) ([]models.Question, error)
	SetChapter(ctx context.Context, key string, questions []models.Question, ttl time.Duration) error
}

// Bank reads question files laid out as <dir>/<difficulty>/<chapter>.json.
type Bank struct {
	files   fs.FS
	catalog *Catalog
	cache   ChapterCache
	ttl     time.Duration
}

func NewBank(files fs.FS, catalog *Catalog, cache ChapterCache, ttl time.Duration) *Bank {
	return &Bank{
		files:   files,
		catalog: catalog,
		cache:   cache,
		ttl:     ttl,
	}
}

type rawQuestion struct {
	Question string   `json:"question"`
	Options  []string `json:"options"`
	Answer   string   `json:"answer"`
}

// LoadQuestions returns the valid questions of one chapter, tagged with
// subject and chapter. An empty chapter is reported as ErrContentUnavailable.
func (b *Bank) LoadQuestions(ctx context.Context, subjectID, difficulty, chapter string) ([]models.Question, error) {
	subject, err := b.catalog.Subject(subjectID)
	if err != nil {
		return nil, err
	}
	difficulty, err = ValidateDifficulty(difficulty)
	if err != nil {
		return nil, err
	}

	key := cacheKey(subjectID, difficulty, chapter)
	if b.cache != nil {
		questions, err := b.cache.GetChapter(ctx, key)
		if err == nil && len(questions) > 0 {
			return questions, nil
		}
	}

	name := path.Join(subject.Dir, difficulty, chapter+".json")
	data, err := fs.ReadFile(b.files, name)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			log.Printf("Question file not found: %s", name)
			return nil, fmt.Errorf("%s/%s/%s: %w", subjectID, difficulty, chapter, apperrors.ErrContentUnavailable)
		}
		return nil, fmt.Errorf("read %s: %w", name, err)
	}

	var raw []rawQuestion
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decode %s: %w", name, err)
	}

	questions := make([]models.Question, 0, len(raw))
	for i, r := range raw {
		if err := validate(r); err != nil {
			log.Printf("Skipping question %d in %s: %v", i, name, err)
			continue
		}
		questions = append(questions, models.Question{
			Text:          r.Question,
			Options:       r.Options,
			CorrectOption: r.Answer,
			Subject:       subjectID,
			Chapter:       chapter,
		})
	}
	if len(questions) == 0 {
		return nil, fmt.Errorf("%s/%s/%s has no valid questions: %w", subjectID, difficulty, chapter, apperrors.ErrContentUnavailable)
	}

	if b.cache != nil {
		if err := b.cache.SetChapter(ctx, key, questions, b.ttl); err != nil {
			log.Printf("Error caching chapter %s: %v", key, err)
		}
	}
	return questions, nil
}

// LoadLesson loads the chapter a lesson maps to.
func (b *Bank) LoadLesson(ctx context.Context, subjectID, lessonTitle, difficulty string) ([]models.Question, error) {
	lesson, err := b.catalog.Lesson(subjectID, lessonTitle)
	if err != nil {
		return nil, err
	}
	if lesson.Chapter == "" {
		log.Printf("No chapter mapping found for lesson: %s", lessonTitle)
		return nil, fmt.Errorf("lesson %q: %w", lessonTitle, apperrors.ErrContentUnavailable)
	}
	return b.LoadQuestions(ctx, subjectID, difficulty, lesson.Chapter)
}

// LoadSubject loads every chapter of a subject. Missing chapters contribute
// nothing; only a subject with no questions at all is an error.
func (b *Bank) LoadSubject(ctx context.Context, subjectID, difficulty string) ([]models.Question, error) {
	subject, err := b.catalog.Subject(subjectID)
	if err != nil {
		return nil, err
	}

	var pool []models.Question
	for _, chapter := range subject.Chapters {
		questions, err := b.LoadQuestions(ctx, subjectID, difficulty, chapter)
		if err != nil {
			if errors.Is(err, apperrors.ErrContentUnavailable) {
				continue
			}
			return nil, err
		}
		pool = append(pool, questions...)
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("subject %s: %w", subjectID, apperrors.ErrContentUnavailable)
	}
	return pool, nil
}

// LoadAll loads every subject in catalog order, skipping empty ones.
func (b *Bank) LoadAll(ctx context.Context, difficulty string) ([]models.Question, error) {
	var pool []models.Question
	for _, s := range b.catalog.Subjects() {
		questions, err := b.LoadSubject(ctx, s.ID, difficulty)
		if err != nil {
			if errors.Is(err, apperrors.ErrContentUnavailable) {
				continue
			}
			return nil, err
		}
		pool = append(pool, questions...)
	}
	if len(pool) == 0 {
		return nil, fmt.Errorf("full syllabus: %w", apperrors.ErrContentUnavailable)
	}
	return pool, nil
}

func validate(r rawQuestion) error {
	if r.Question == "" {
		return errors.New("empty question text")
	}
	if len(r.Options) < 2 || len(r.Options) > 4 {
		return fmt.Errorf("expected 2-4 options, got %d", len(r.Options))
	}
	seen := make(map[string]bool, len(r.Options))
	for _, o := range r.Options {
		if seen[o] {
			return fmt.Errorf("duplicate option %q", o)
		}
		seen[o] = true
	}
	if !seen[r.Answer] {
		return fmt.Errorf("answer %q is not an option", r.Answer)
	}
	return nil
}

func cacheKey(subjectID, difficulty, chapter string) string {
	return "questions:" + subjectID + ":" + difficulty + ":" + chapter
}
