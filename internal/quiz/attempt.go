package quiz

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/datatypes"

	"quizzle/internal/models"
	apperrors "quizzle/internal/pkg/errors"
)

const (
	ActionSelect     = "select"
	ActionSaveNext   = "save-next"
	ActionMarkReview = "mark-review"
	ActionClear      = "clear"
	ActionNavigate   = "navigate"
	ActionPrevious   = "previous"
	ActionNext       = "next"
	ActionSubmit     = "submit"
)

// Action is one user input to a running attempt.
type Action struct {
	Kind   string `json:"-"`
	Option string `json:"option"`
	Index  int    `json:"index"`
}

func (a Action) apply(s *Session) error {
	switch a.Kind {
	case ActionSelect:
		return s.SelectAnswer(a.Option)
	case ActionSaveNext:
		return s.SaveAndNext()
	case ActionMarkReview:
		return s.MarkForReview()
	case ActionClear:
		return s.ClearSelection()
	case ActionNavigate:
		return s.NavigateTo(a.Index)
	case ActionPrevious:
		return s.Previous()
	case ActionNext:
		return s.Next()
	case ActionSubmit:
		s.Submit()
		return nil
	}
	return fmt.Errorf("unknown action %q: %w", a.Kind, apperrors.ErrValidation)
}

type AttemptView struct {
	ID               string               `json:"id"`
	QuizType         models.QuizType      `json:"quizType"`
	SubjectID        string               `json:"subjectId"`
	LessonTitle      string               `json:"lessonTitle"`
	Questions        []models.QuestionDTO `json:"questions"`
	Statuses         []QuestionState      `json:"statuses"`
	CurrentIndex     int                  `json:"currentIndex"`
	Selected         *string              `json:"selectedAnswer"`
	Answers          map[int]string       `json:"answers"`
	ElapsedSeconds   int                  `json:"elapsedSeconds"`
	TimeLimitSeconds int                  `json:"timeLimitSeconds"`
	RemainingSeconds int                  `json:"remainingSeconds"`
	Complete         bool                 `json:"complete"`
	Result           *models.QuizResult   `json:"result,omitempty"`
	Report           *Report              `json:"report,omitempty"`
}

type attemptHooks struct {
	onTick     func(a *Attempt, res TickResult)
	onComplete func(a *Attempt)
	onExit     func(a *Attempt)
}

type command struct {
	fn    func(a *Attempt) error
	reply chan commandReply
}

type commandReply struct {
	view *AttemptView
	err  error
}

// Attempt hosts one Session in its own goroutine. User commands and clock
// ticks are the only two event sources and both are consumed by run, so the
// session is never touched concurrently.
type Attempt struct {
	ID          string
	UserID      string
	SubjectID   string
	LessonTitle string

	session *Session
	result  *models.QuizResult
	report  *Report

	cmds      chan command
	done      chan struct{}
	quit      chan struct{}
	quitOnce  sync.Once
	saved     chan struct{}
	ticks     <-chan time.Time
	stopTicks func()
	now       func() time.Time
	names     func(string) string
	hooks     attemptHooks
}

func (a *Attempt) Type() models.QuizType { return a.session.Config().Type }

// Result is set once the session completes. Only safe to read from hooks.
func (a *Attempt) Result() *models.QuizResult { return a.result }

// run serves the attempt until ctx ends, it is abandoned, it sits idle for
// idleTimeout before completing, or retention passes after completion.
func (a *Attempt) run(ctx context.Context, retention, idleTimeout time.Duration) {
	defer func() {
		a.stopTicks()
		if a.hooks.onExit != nil {
			a.hooks.onExit(a)
		}
		close(a.done)
	}()

	idle := time.NewTimer(idleTimeout)
	defer idle.Stop()
	idleC := idle.C

	var expire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			return
		case <-a.quit:
			return
		case <-idleC:
			log.Printf("Quiz attempt %s idle for %s; abandoning", a.ID, idleTimeout)
			return
		case <-expire:
			return
		case cmd := <-a.cmds:
			err := cmd.fn(a)
			a.settle()
			cmd.reply <- commandReply{view: a.view(), err: err}
			if idleC != nil {
				idle.Reset(idleTimeout)
			}
		case <-a.ticks:
			res := a.session.Tick()
			if a.hooks.onTick != nil {
				a.hooks.onTick(a, res)
			}
			a.settle()
		}

		if a.session.IsComplete() && expire == nil {
			a.stopTicks()
			a.ticks = nil
			idle.Stop()
			idleC = nil
			expire = time.After(retention)
		}
	}
}

// abandon ends the attempt without recording a result if it is still running.
func (a *Attempt) abandon() {
	a.quitOnce.Do(func() { close(a.quit) })
}

// wait blocks until the attempt goroutine has exited and, when it completed,
// until its result write has finished.
func (a *Attempt) wait(ctx context.Context) error {
	select {
	case <-a.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	if a.result == nil {
		return nil
	}
	select {
	case <-a.saved:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// settle finalizes a freshly completed session exactly once.
func (a *Attempt) settle() {
	if !a.session.IsComplete() || a.result != nil {
		return
	}
	a.result = a.buildResult(a.session.Outcome())
	report := BuildReport(a.result, a.names)
	a.report = &report
	if a.hooks.onComplete != nil {
		a.hooks.onComplete(a)
	}
}

func (a *Attempt) buildResult(o *Outcome) *models.QuizResult {
	return &models.QuizResult{
		ID:               uuid.New().String(),
		UserID:           a.UserID,
		SubjectID:        a.SubjectID,
		LessonTitle:      a.LessonTitle,
		ScorePercent:     o.Score.Percentage,
		TotalQuestions:   o.Score.Total,
		TimeSpentSeconds: o.ElapsedSeconds,
		Answers:          datatypes.NewJSONType(o.Answers),
		Questions:        o.Snapshot,
		Passed:           o.Score.Passed,
		QuizType:         a.session.Config().Type,
		CompletedAt:      a.now(),
	}
}

func (a *Attempt) view() *AttemptView {
	s := a.session
	complete := s.IsComplete()

	questions := make([]models.QuestionDTO, len(s.Questions()))
	for i, q := range s.Questions() {
		questions[i] = q.ToDTO(complete)
	}

	v := &AttemptView{
		ID:               a.ID,
		QuizType:         s.Config().Type,
		SubjectID:        a.SubjectID,
		LessonTitle:      a.LessonTitle,
		Questions:        questions,
		Statuses:         s.States(),
		CurrentIndex:     s.CurrentIndex(),
		Answers:          s.Answers(),
		ElapsedSeconds:   s.ElapsedSeconds(),
		TimeLimitSeconds: s.Config().TimeLimitSeconds,
		RemainingSeconds: s.RemainingSeconds(),
		Complete:         complete,
		Result:           a.result,
		Report:           a.report,
	}
	if sel, ok := s.Selected(); ok {
		v.Selected = &sel
	}
	return v
}

// do runs fn on the attempt goroutine and returns the resulting view.
func (a *Attempt) do(ctx context.Context, fn func(a *Attempt) error) (*AttemptView, error) {
	reply := make(chan commandReply, 1)
	select {
	case a.cmds <- command{fn: fn, reply: reply}:
	case <-a.done:
		return nil, fmt.Errorf("attempt %s: %w", a.ID, apperrors.ErrNotFound)
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case r := <-reply:
		return r.view, r.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}
