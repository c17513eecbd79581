package quiz

import (
	"fmt"

	"quizzle/internal/models"
	apperrors "quizzle/internal/pkg/errors"
)

type Status int

const (
	NotVisited Status = iota
	Visited
	Answered
)

func (s Status) String() string {
	switch s {
	case Visited:
		return "visited"
	case Answered:
		return "answered"
	default:
		return "not_visited"
	}
}

func (s Status) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// QuestionState is the navigation status of one question. MarkedForReview
// is a flag on top of Visited or Answered.
type QuestionState struct {
	Status          Status `json:"status"`
	MarkedForReview bool   `json:"markedForReview"`
}

// Label is the single status shown in the question palette.
func (q QuestionState) Label() string {
	if q.MarkedForReview {
		return "marked_for_review"
	}
	return q.Status.String()
}

type Config struct {
	Type             models.QuizType
	TimeLimitSeconds int // 0 means tracked but not enforced
	WarningSeconds   int // 0 means no warning
}

// ConfigFor returns the time budget of a quiz type.
func ConfigFor(t models.QuizType) Config {
	switch t {
	case models.QuizTypeSubject:
		return Config{Type: t, TimeLimitSeconds: 1200, WarningSeconds: 300}
	case models.QuizTypeFullSyllabus:
		return Config{Type: t, TimeLimitSeconds: 3600, WarningSeconds: 600}
	default:
		return Config{Type: models.QuizTypeLesson}
	}
}

type CompletionReason string

const (
	ReasonSubmitted   CompletionReason = "submitted"
	ReasonTimeExpired CompletionReason = "time_expired"
)

// Outcome is the finalized state of a completed session.
type Outcome struct {
	Score          Score
	Answers        map[int]string
	Snapshot       []models.AnsweredQuestion
	ElapsedSeconds int
	Reason         CompletionReason
}

type TickResult struct {
	TimeWarning bool
	Expired     bool
}

var (
	ErrSessionComplete = fmt.Errorf("session is complete: %w", apperrors.ErrInvalidTransition)
	ErrNoSelection     = fmt.Errorf("no answer selected: %w", apperrors.ErrInvalidTransition)
	ErrIndexOutOfRange = fmt.Errorf("question index out of range: %w", apperrors.ErrInvalidTransition)
	ErrUnknownOption   = fmt.Errorf("option is not one of the question's choices: %w", apperrors.ErrValidation)
)

// Session is the state machine of one quiz attempt. It is a synchronous
// reducer: it never blocks and must be driven by a single goroutine.
type Session struct {
	questions []models.Question
	config    Config

	current int
	pending *string
	answers map[int]string
	states  []QuestionState

	elapsed  int
	complete bool
	warned   bool
	outcome  *Outcome
}

// NewSession starts an Active session on the first question.
func NewSession(questions []models.Question, config Config) (*Session, error) {
	if len(questions) == 0 {
		return nil, fmt.Errorf("no questions: %w", apperrors.ErrContentUnavailable)
	}
	qs := make([]models.Question, len(questions))
	copy(qs, questions)

	s := &Session{
		questions: qs,
		config:    config,
		answers:   make(map[int]string),
		states:    make([]QuestionState, len(qs)),
	}
	s.states[0].Status = Visited
	return s, nil
}

// SelectAnswer records a tentative answer for the current question.
func (s *Session) SelectAnswer(option string) error {
	if s.complete {
		return ErrSessionComplete
	}
	if !s.questions[s.current].HasOption(option) {
		return ErrUnknownOption
	}
	s.pending = &option
	return nil
}

// SaveAndNext commits the selection and moves on, completing the session
// after the last question.
func (s *Session) SaveAndNext() error {
	if s.complete {
		return ErrSessionComplete
	}
	if s.pending == nil {
		return ErrNoSelection
	}
	s.commit()
	s.states[s.current].MarkedForReview = false
	s.advance()
	return nil
}

// MarkForReview commits any selection, flags the question and moves on
// exactly like SaveAndNext.
func (s *Session) MarkForReview() error {
	if s.complete {
		return ErrSessionComplete
	}
	s.commit()
	s.states[s.current].MarkedForReview = true
	s.advance()
	return nil
}

// ClearSelection drops the answer of the current question.
func (s *Session) ClearSelection() error {
	if s.complete {
		return ErrSessionComplete
	}
	s.pending = nil
	delete(s.answers, s.current)
	s.states[s.current] = QuestionState{Status: Visited}
	return nil
}

// NavigateTo commits any pending selection and jumps to index.
func (s *Session) NavigateTo(index int) error {
	if s.complete {
		return ErrSessionComplete
	}
	if index < 0 || index >= len(s.questions) {
		return ErrIndexOutOfRange
	}
	s.commit()
	s.moveTo(index)
	return nil
}

// Previous is NavigateTo(current-1); a no-op on the first question.
func (s *Session) Previous() error {
	if s.complete {
		return ErrSessionComplete
	}
	if s.current == 0 {
		return nil
	}
	return s.NavigateTo(s.current - 1)
}

// Next is NavigateTo(current+1); a no-op on the last question.
func (s *Session) Next() error {
	if s.complete {
		return ErrSessionComplete
	}
	if s.current == len(s.questions)-1 {
		return nil
	}
	return s.NavigateTo(s.current + 1)
}

// Tick advances the clock by one second. The warning fires once; reaching
// the limit submits the session.
func (s *Session) Tick() TickResult {
	var res TickResult
	if s.complete {
		return res
	}
	s.elapsed++

	limit := s.config.TimeLimitSeconds
	if limit > 0 && s.config.WarningSeconds > 0 && !s.warned && s.elapsed == limit-s.config.WarningSeconds {
		s.warned = true
		res.TimeWarning = true
	}
	if limit > 0 && s.elapsed >= limit {
		s.finish(ReasonTimeExpired)
		res.Expired = true
	}
	return res
}

// Submit finalizes the session. The second and later calls return false
// and leave the first outcome in place.
func (s *Session) Submit() (*Outcome, bool) {
	if s.complete {
		return s.outcome, false
	}
	s.finish(ReasonSubmitted)
	return s.outcome, true
}

func (s *Session) commit() {
	if s.pending == nil {
		return
	}
	s.answers[s.current] = *s.pending
	s.states[s.current].Status = Answered
}

func (s *Session) advance() {
	if s.current == len(s.questions)-1 {
		s.finish(ReasonSubmitted)
		return
	}
	s.moveTo(s.current + 1)
}

func (s *Session) moveTo(index int) {
	s.current = index
	s.pending = nil
	if a, ok := s.answers[index]; ok {
		s.pending = &a
	}
	if s.states[index].Status == NotVisited {
		s.states[index].Status = Visited
	}
}

func (s *Session) finish(reason CompletionReason) {
	s.commit()
	s.pending = nil
	s.complete = true

	var score Score
	if s.config.Type == models.QuizTypeFullSyllabus {
		score = ScoreBySubject(s.questions, s.answers)
	} else {
		score = ScoreAnswers(s.questions, s.answers)
	}

	s.outcome = &Outcome{
		Score:          score,
		Answers:        s.Answers(),
		Snapshot:       s.snapshot(),
		ElapsedSeconds: s.elapsed,
		Reason:         reason,
	}
}

func (s *Session) snapshot() []models.AnsweredQuestion {
	out := make([]models.AnsweredQuestion, len(s.questions))
	for i, q := range s.questions {
		out[i] = models.AnsweredQuestion{
			Question: q.Text,
			Options:  q.Options,
			Answer:   q.CorrectOption,
			Subject:  q.Subject,
			Chapter:  q.Chapter,
		}
		if a, ok := s.answers[i]; ok {
			out[i].UserAnswer = &a
		}
	}
	return out
}

func (s *Session) Questions() []models.Question { return s.questions }
func (s *Session) Config() Config { return s.config }
func (s *Session) CurrentIndex() int { return s.current }
func (s *Session) ElapsedSeconds() int { return s.elapsed }
func (s *Session) IsComplete() bool { return s.complete }
func (s *Session) Outcome() *Outcome { return s.outcome }

// Selected is the tentative answer of the current question, if any.
func (s *Session) Selected() (string, bool) {
	if s.pending == nil {
		return "", false
	}
	return *s.pending, true
}

// Answers returns a copy of the committed answers.
func (s *Session) Answers() map[int]string {
	out := make(map[int]string, len(s.answers))
	for k, v := range s.answers {
		out[k] = v
	}
	return out
}

// States returns a copy of the per-question states.
func (s *Session) States() []QuestionState {
	out := make([]QuestionState, len(s.states))
	copy(out, s.states)
	return out
}

// RemainingSeconds is 0 for quizzes without a limit.
func (s *Session) RemainingSeconds() int {
	if s.config.TimeLimitSeconds <= 0 {
		return 0
	}
	if r := s.config.TimeLimitSeconds - s.elapsed; r > 0 {
		return r
	}
	return 0
}
