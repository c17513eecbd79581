package quiz

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"quizzle/internal/content"
	"quizzle/internal/metrics"
	"quizzle/internal/models"
	apperrors "quizzle/internal/pkg/errors"
	"quizzle/pkg/events"
)

const (
	DefaultRetention   = 10 * time.Minute
	DefaultIdleTimeout = 30 * time.Minute
	persistTimeout   = 10 * time.Second
)

type ResultStore interface {
	SaveResult(ctx context.Context, result *models.QuizResult) error
	ListResultsByUser(ctx context.Context, userID string) ([]models.QuizResult, error)
}

type QuestionSource interface {
	LoadLesson(ctx context.Context, subjectID, lessonTitle, difficulty string) ([]models.Question, error)
	LoadSubject(ctx context.Context, subjectID, difficulty string) ([]models.Question, error)
	LoadAll(ctx context.Context, difficulty string) ([]models.Question, error)
}

// Notifier pushes live attempt messages to websocket subscribers.
type Notifier interface {
	BroadcastMessage(room string, messageType string, data interface{})
}

type EventPublisher interface {
	Publish(eventType string, payload interface{}) error
}

// CompletedEvent is the payload of events.QuizCompleted.
type CompletedEvent struct {
	ResultID     string          `json:"resultId"`
	UserID       string          `json:"userId"`
	SubjectID    string          `json:"subjectId"`
	LessonTitle  string          `json:"lessonTitle"`
	QuizType     models.QuizType `json:"quizType"`
	ScorePercent int             `json:"score"`
	Passed       bool            `json:"passed"`
	CompletedAt  time.Time       `json:"completedAt"`
}

type Option func(*Service)

// WithRetention sets how long completed attempts stay readable.
func WithRetention(d time.Duration) Option {
	return func(s *Service) { s.retention = d }
}

// WithIdleTimeout sets how long a running attempt may go without a user
// action before it is abandoned.
func WithIdleTimeout(d time.Duration) Option {
	return func(s *Service) { s.idleTimeout = d }
}

// WithTicker replaces the 1 Hz wall clock driving attempts.
func WithTicker(newTicker func() (<-chan time.Time, func())) Option {
	return func(s *Service) { s.newTicker = newTicker }
}

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithRandSource(src rand.Source) Option {
	return func(s *Service) { s.selector = NewSelector(src) }
}

type Service struct {
	repo      ResultStore
	questions QuestionSource
	catalog   *content.Catalog
	selector  *Selector
	wsHub     Notifier
	events    EventPublisher

	mu       sync.RWMutex
	attempts map[string]*Attempt

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	retention   time.Duration
	idleTimeout time.Duration
	newTicker func() (<-chan time.Time, func())
	now       func() time.Time
}

// NewService wires the attempt host. wsHub and publisher may be nil.
func NewService(repo ResultStore, questions QuestionSource, catalog *content.Catalog, wsHub Notifier, publisher EventPublisher, opts ...Option) *Service {
	ctx, cancel := context.WithCancel(context.Background())
	s := &Service{
		repo:      repo,
		questions: questions,
		catalog:   catalog,
		selector:  NewSelector(nil),
		wsHub:     wsHub,
		events:    publisher,
		attempts:  make(map[string]*Attempt),
		ctx:       ctx,
		cancel:    cancel,
		retention:   DefaultRetention,
		idleTimeout: DefaultIdleTimeout,
		newTicker: func() (<-chan time.Time, func()) {
			t := time.NewTicker(time.Second)
			return t.C, t.Stop
		},
		now: time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func AttemptRoom(attemptID string) string {
	return "attempt:" + attemptID
}

func (s *Service) StartLesson(ctx context.Context, userID, subjectID, lessonTitle, difficulty string) (*AttemptView, error) {
	difficulty, err := content.ValidateDifficulty(difficulty)
	if err != nil {
		return nil, err
	}
	lesson, err := s.catalog.Lesson(subjectID, lessonTitle)
	if err != nil {
		return nil, err
	}

	pool, err := s.questions.LoadLesson(ctx, subjectID, lesson.Title, difficulty)
	if err != nil {
		return nil, err
	}
	selected := s.selector.Select(pool, LessonQuestionCount, ModeLesson)
	return s.start(ctx, userID, subjectID, lesson.Title, models.QuizTypeLesson, selected)
}

func (s *Service) StartSubject(ctx context.Context, userID, subjectID, difficulty string) (*AttemptView, error) {
	difficulty, err := content.ValidateDifficulty(difficulty)
	if err != nil {
		return nil, err
	}
	subject, err := s.catalog.Subject(subjectID)
	if err != nil {
		return nil, err
	}

	pool, err := s.questions.LoadSubject(ctx, subjectID, difficulty)
	if err != nil {
		return nil, err
	}
	selected := s.selector.Select(pool, SubjectQuestionCount, ModeBalanced)
	return s.start(ctx, userID, subjectID, subject.Name+" Subject Quiz", models.QuizTypeSubject, selected)
}

func (s *Service) StartFullSyllabus(ctx context.Context, userID, difficulty string) (*AttemptView, error) {
	difficulty, err := content.ValidateDifficulty(difficulty)
	if err != nil {
		return nil, err
	}

	pool, err := s.questions.LoadAll(ctx, difficulty)
	if err != nil {
		return nil, err
	}
	selected := s.selector.Select(pool, FullSyllabusQuestionCount, ModeFullSyllabus)
	return s.start(ctx, userID, content.FullSyllabusID, "Full Syllabus Quiz", models.QuizTypeFullSyllabus, selected)
}

func (s *Service) start(ctx context.Context, userID, subjectID, lessonTitle string, quizType models.QuizType, questions []models.Question) (*AttemptView, error) {
	session, err := NewSession(questions, ConfigFor(quizType))
	if err != nil {
		log.Printf("No questions available for %s quiz %q in %s", quizType, lessonTitle, subjectID)
		return nil, err
	}

	ticks, stop := s.newTicker()
	a := &Attempt{
		ID:          uuid.New().String(),
		UserID:      userID,
		SubjectID:   subjectID,
		LessonTitle: lessonTitle,
		session:     session,
		cmds:        make(chan command),
		done:        make(chan struct{}),
		quit:        make(chan struct{}),
		saved:       make(chan struct{}),
		ticks:       ticks,
		stopTicks:   stop,
		now:         s.now,
		names:       s.catalog.SubjectName,
		hooks: attemptHooks{
			onTick:     s.onTick,
			onComplete: s.onComplete,
			onExit:     s.onExit,
		},
	}

	// One live attempt per user: starting a new quiz abandons the previous one.
	s.mu.Lock()
	for _, prev := range s.attempts {
		if prev.UserID == userID {
			log.Printf("Attempt %s superseded by %s for user %s", prev.ID, a.ID, userID)
			prev.abandon()
		}
	}
	s.attempts[a.ID] = a
	s.mu.Unlock()

	metrics.SessionsStarted.WithLabelValues(string(quizType)).Inc()
	metrics.ActiveSessions.Inc()
	log.Printf("Started %s quiz attempt %s for user %s with %d questions", quizType, a.ID, userID, len(questions))

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		a.run(s.ctx, s.retention, s.idleTimeout)
	}()

	return a.do(ctx, func(*Attempt) error { return nil })
}

// GetAttempt returns the current view of one of the user's attempts.
func (s *Service) GetAttempt(ctx context.Context, userID, attemptID string) (*AttemptView, error) {
	a, err := s.lookup(userID, attemptID)
	if err != nil {
		return nil, err
	}
	return a.do(ctx, func(*Attempt) error { return nil })
}

// Act applies one user action. A rejected action leaves the session
// unchanged and returns the error together with the current view.
func (s *Service) Act(ctx context.Context, userID, attemptID string, action Action) (*AttemptView, error) {
	a, err := s.lookup(userID, attemptID)
	if err != nil {
		return nil, err
	}
	return a.do(ctx, func(a *Attempt) error {
		return action.apply(a.session)
	})
}

// OwnsAttempt reports whether attemptID is live and belongs to userID.
func (s *Service) OwnsAttempt(userID, attemptID string) bool {
	_, err := s.lookup(userID, attemptID)
	return err == nil
}

func (s *Service) lookup(userID, attemptID string) (*Attempt, error) {
	s.mu.RLock()
	a, ok := s.attempts[attemptID]
	s.mu.RUnlock()
	if !ok || a.UserID != userID {
		return nil, fmt.Errorf("attempt %s: %w", attemptID, apperrors.ErrNotFound)
	}
	return a, nil
}

func (s *Service) onTick(a *Attempt, res TickResult) {
	if s.wsHub == nil {
		return
	}
	room := AttemptRoom(a.ID)
	s.wsHub.BroadcastMessage(room, "tick", map[string]interface{}{
		"elapsedSeconds":   a.session.ElapsedSeconds(),
		"remainingSeconds": a.session.RemainingSeconds(),
	})
	if res.TimeWarning {
		s.wsHub.BroadcastMessage(room, "time_warning", map[string]interface{}{
			"remainingSeconds": a.session.RemainingSeconds(),
		})
	}
}

func (s *Service) onComplete(a *Attempt) {
	reason := a.session.Outcome().Reason
	metrics.SessionsCompleted.WithLabelValues(string(a.Type()), string(reason)).Inc()
	log.Printf("Quiz attempt %s completed (%s) with score %d%%", a.ID, reason, a.result.ScorePercent)

	if s.wsHub != nil {
		s.wsHub.BroadcastMessage(AttemptRoom(a.ID), "quiz_complete", map[string]interface{}{
			"result": a.result,
			"report": a.report,
		})
	}

	s.persist(*a.result, a.saved)
}

func (s *Service) onExit(a *Attempt) {
	s.mu.Lock()
	if s.attempts[a.ID] == a {
		delete(s.attempts, a.ID)
	}
	s.mu.Unlock()
	metrics.ActiveSessions.Dec()
	if !a.session.IsComplete() {
		metrics.SessionsCompleted.WithLabelValues(string(a.Type()), "abandoned").Inc()
		log.Printf("Quiz attempt %s for user %s abandoned without a result", a.ID, a.UserID)
	}
}

// AbandonUserAttempts ends every attempt of userID. Running attempts are
// dropped without a result; it returns once all of them have exited and
// any result write already under way has finished.
func (s *Service) AbandonUserAttempts(ctx context.Context, userID string) error {
	s.mu.RLock()
	var owned []*Attempt
	for _, a := range s.attempts {
		if a.UserID == userID {
			owned = append(owned, a)
		}
	}
	s.mu.RUnlock()

	for _, a := range owned {
		a.abandon()
		if err := a.wait(ctx); err != nil {
			return fmt.Errorf("abandon attempt %s: %w", a.ID, err)
		}
	}
	return nil
}

// persist stores a finished result in the background. Failures are only
// logged and counted; the player already has the report.
func (s *Service) persist(result models.QuizResult, saved chan struct{}) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer close(saved)
		ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
		defer cancel()

		if err := s.repo.SaveResult(ctx, &result); err != nil {
			metrics.ResultPersistFailures.Inc()
			log.Printf("Error saving quiz result %s for user %s: %v", result.ID, result.UserID, err)
			return
		}
		s.publishCompleted(&result)
	}()
}

func (s *Service) publishCompleted(result *models.QuizResult) {
	if s.events == nil {
		return
	}
	err := s.events.Publish(events.QuizCompleted, CompletedEvent{
		ResultID:     result.ID,
		UserID:       result.UserID,
		SubjectID:    result.SubjectID,
		LessonTitle:  result.LessonTitle,
		QuizType:     result.QuizType,
		ScorePercent: result.ScorePercent,
		Passed:       result.Passed,
		CompletedAt:  result.CompletedAt,
	})
	if err != nil {
		log.Printf("Error publishing %s for result %s: %v", events.QuizCompleted, result.ID, err)
	}
}

// SaveResult stores a result scored by the client. passed is always
// recomputed from the percentage.
func (s *Service) SaveResult(ctx context.Context, userID string, result *models.QuizResult) error {
	if err := validateResult(result); err != nil {
		return err
	}
	result.ID = uuid.New().String()
	result.UserID = userID
	result.Passed = models.Passed(result.ScorePercent)
	if result.CompletedAt.IsZero() {
		result.CompletedAt = s.now()
	}

	if err := s.repo.SaveResult(ctx, result); err != nil {
		return err
	}
	s.publishCompleted(result)
	return nil
}

func validateResult(r *models.QuizResult) error {
	switch {
	case r == nil:
		return fmt.Errorf("missing result: %w", apperrors.ErrValidation)
	case !r.QuizType.Valid():
		return fmt.Errorf("unknown quiz type %q: %w", r.QuizType, apperrors.ErrValidation)
	case r.SubjectID == "" || r.LessonTitle == "":
		return fmt.Errorf("subjectId and lessonTitle are required: %w", apperrors.ErrValidation)
	case r.ScorePercent < 0 || r.ScorePercent > 100:
		return fmt.Errorf("score %d out of range: %w", r.ScorePercent, apperrors.ErrValidation)
	case r.TotalQuestions < 0 || r.TimeSpentSeconds < 0:
		return fmt.Errorf("negative counters: %w", apperrors.ErrValidation)
	}
	return nil
}

// ListResults returns the user's results newest first.
func (s *Service) ListResults(ctx context.Context, userID string) ([]models.QuizResult, error) {
	return s.repo.ListResultsByUser(ctx, userID)
}

// Shutdown stops every attempt and waits for pending result writes.
func (s *Service) Shutdown(ctx context.Context) error {
	s.cancel()
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return errors.New("quiz service shutdown timed out")
	}
}
