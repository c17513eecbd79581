package progress

import (
	"context"
	"time"

	"quizzle/internal/content"
	"quizzle/internal/models"
)

type ResultLister interface {
	ListResultsByUser(ctx context.Context, userID string) ([]models.QuizResult, error)
}

type UserFinder interface {
	GetUserByEmail(ctx context.Context, email string) (*models.User, error)
}

type Service struct {
	results ResultLister
	users   UserFinder
	catalog *content.Catalog
	now     func() time.Time
}

func NewService(results ResultLister, users UserFinder, catalog *content.Catalog) *Service {
	return &Service{
		results: results,
		users:   users,
		catalog: catalog,
		now:     time.Now,
	}
}

func (s *Service) Stats(ctx context.Context, userID string) (Stats, error) {
	results, err := s.results.ListResultsByUser(ctx, userID)
	if err != nil {
		return Stats{}, err
	}
	return ProfileStats(results, s.now()), nil
}

func (s *Service) Progress(ctx context.Context, userID string) (UserProgress, error) {
	results, err := s.results.ListResultsByUser(ctx, userID)
	if err != nil {
		return UserProgress{}, err
	}
	return Aggregate(results, s.catalog.LessonCounts(), s.now()), nil
}

func (s *Service) LessonProgress(ctx context.Context, userID, subjectID string) (map[string]LessonProgress, error) {
	if _, err := s.catalog.Subject(subjectID); err != nil {
		return nil, err
	}
	results, err := s.results.ListResultsByUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return Lessons(results, subjectID), nil
}

type UserReport struct {
	User        *models.User        `json:"user"`
	QuizResults []models.QuizResult `json:"quizResults"`
	Stats       Stats               `json:"stats"`
}

// UserReport collects everything stored about the profile with email.
func (s *Service) UserReport(ctx context.Context, email string) (*UserReport, error) {
	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		return nil, err
	}
	results, err := s.results.ListResultsByUser(ctx, user.ID)
	if err != nil {
		return nil, err
	}
	return &UserReport{
		User:        user,
		QuizResults: results,
		Stats:       ProfileStats(results, s.now()),
	}, nil
}
