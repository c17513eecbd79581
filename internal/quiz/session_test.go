package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"quizzle/internal/models"
	apperrors "quizzle/internal/pkg/errors"
)

func newTestSession(t *testing.T, n int, cfg Config) *Session {
	t.Helper()
	questions := make([]models.Question, n)
	for i := range questions {
		questions[i] = ab("A")
	}
	s, err := NewSession(questions, cfg)
	require.NoError(t, err)
	return s
}

// requireAnsweredInvariant checks status Answered iff an answer is stored.
func requireAnsweredInvariant(t *testing.T, s *Session) {
	t.Helper()
	answers := s.Answers()
	for i, st := range s.States() {
		_, has := answers[i]
		require.Equal(t, has, st.Status == Answered, "question %d: status %s, answered %v", i, st.Status, has)
	}
}

func TestNewSession_RequiresQuestions(t *testing.T) {
	_, err := NewSession(nil, ConfigFor(models.QuizTypeLesson))

	assert.ErrorIs(t, err, apperrors.ErrContentUnavailable)
}

func TestSession_StartsOnFirstQuestionVisited(t *testing.T) {
	s := newTestSession(t, 3, ConfigFor(models.QuizTypeLesson))

	assert.Equal(t, 0, s.CurrentIndex())
	assert.Equal(t, []QuestionState{{Status: Visited}, {Status: NotVisited}, {Status: NotVisited}}, s.States())
}

func TestSession_AnsweredInvariantHoldsAcrossOperations(t *testing.T) {
	s := newTestSession(t, 5, ConfigFor(models.QuizTypeSubject))
	steps := []func() error{
		func() error { return s.SelectAnswer("A") },
		s.SaveAndNext,
		func() error { return s.SelectAnswer("B") },
		s.MarkForReview,
		s.MarkForReview,
		func() error { return s.NavigateTo(0) },
		s.ClearSelection,
		s.Next,
		func() error { return s.SelectAnswer("A") },
		s.Previous,
		s.Previous,
		func() error { return s.NavigateTo(4) },
		s.SaveAndNext,
		func() error { return s.SelectAnswer("B") },
		s.Next,
	}

	requireAnsweredInvariant(t, s)
	for i, step := range steps {
		_ = step()
		requireAnsweredInvariant(t, s)
		require.False(t, s.IsComplete(), "step %d", i)
	}
}

func TestSession_SelectAnswerRejectsUnknownOption(t *testing.T) {
	s := newTestSession(t, 2, ConfigFor(models.QuizTypeLesson))

	err := s.SelectAnswer("Z")

	assert.ErrorIs(t, err, apperrors.ErrValidation)
	_, ok := s.Selected()
	assert.False(t, ok)
}

func TestSession_SaveAndNextWithoutSelectionIsRejected(t *testing.T) {
	s := newTestSession(t, 2, ConfigFor(models.QuizTypeLesson))

	err := s.SaveAndNext()

	assert.ErrorIs(t, err, apperrors.ErrInvalidTransition)
	assert.Equal(t, 0, s.CurrentIndex())
	assert.Empty(t, s.Answers())
}

func TestSession_SaveAndNextClearsReviewMark(t *testing.T) {
	s := newTestSession(t, 3, ConfigFor(models.QuizTypeLesson))
	require.NoError(t, s.SelectAnswer("A"))
	require.NoError(t, s.MarkForReview())
	require.NoError(t, s.Previous())

	require.NoError(t, s.SaveAndNext())

	assert.Equal(t, QuestionState{Status: Answered}, s.States()[0])
	assert.Equal(t, 1, s.CurrentIndex())
}

func TestSession_MarkForReviewWithoutAnswer(t *testing.T) {
	s := newTestSession(t, 3, ConfigFor(models.QuizTypeLesson))

	require.NoError(t, s.MarkForReview())

	st := s.States()[0]
	assert.Equal(t, Visited, st.Status)
	assert.True(t, st.MarkedForReview)
	assert.Equal(t, "marked_for_review", st.Label())
	assert.Equal(t, 1, s.CurrentIndex())
}

func TestSession_MarkForReviewKeepsAnswer(t *testing.T) {
	s := newTestSession(t, 3, ConfigFor(models.QuizTypeLesson))
	require.NoError(t, s.SelectAnswer("B"))

	require.NoError(t, s.MarkForReview())

	assert.Equal(t, QuestionState{Status: Answered, MarkedForReview: true}, s.States()[0])
	assert.Equal(t, map[int]string{0: "B"}, s.Answers())
}

func TestSession_ClearSelection(t *testing.T) {
	s := newTestSession(t, 3, ConfigFor(models.QuizTypeLesson))
	require.NoError(t, s.SelectAnswer("A"))
	require.NoError(t, s.MarkForReview())
	require.NoError(t, s.NavigateTo(0))

	require.NoError(t, s.ClearSelection())

	assert.Equal(t, 0, s.CurrentIndex())
	assert.Equal(t, QuestionState{Status: Visited}, s.States()[0])
	assert.Empty(t, s.Answers())
	_, ok := s.Selected()
	assert.False(t, ok)
}

func TestSession_NavigateCommitsPendingAndVisits(t *testing.T) {
	s := newTestSession(t, 4, ConfigFor(models.QuizTypeLesson))
	require.NoError(t, s.SelectAnswer("B"))

	require.NoError(t, s.NavigateTo(3))

	assert.Equal(t, map[int]string{0: "B"}, s.Answers())
	assert.Equal(t, Answered, s.States()[0].Status)
	assert.Equal(t, NotVisited, s.States()[1].Status)
	assert.Equal(t, Visited, s.States()[3].Status)

	require.NoError(t, s.NavigateTo(0))
	sel, ok := s.Selected()
	require.True(t, ok, "returning to an answered question restores its selection")
	assert.Equal(t, "B", sel)
}

func TestSession_NavigationClampsAtBounds(t *testing.T) {
	s := newTestSession(t, 2, ConfigFor(models.QuizTypeLesson))

	require.NoError(t, s.Previous())
	assert.Equal(t, 0, s.CurrentIndex())

	require.NoError(t, s.Next())
	require.NoError(t, s.Next())
	assert.Equal(t, 1, s.CurrentIndex())
	assert.False(t, s.IsComplete())

	assert.ErrorIs(t, s.NavigateTo(2), apperrors.ErrInvalidTransition)
	assert.ErrorIs(t, s.NavigateTo(-1), apperrors.ErrInvalidTransition)
}

func TestSession_SaveAndNextOnLastQuestionCompletes(t *testing.T) {
	s := newTestSession(t, 2, ConfigFor(models.QuizTypeLesson))
	require.NoError(t, s.SelectAnswer("A"))
	require.NoError(t, s.SaveAndNext())
	require.NoError(t, s.SelectAnswer("B"))

	require.NoError(t, s.SaveAndNext())

	require.True(t, s.IsComplete())
	o := s.Outcome()
	assert.Equal(t, ReasonSubmitted, o.Reason)
	assert.Equal(t, 1, o.Score.Correct)
	assert.Equal(t, 50, o.Score.Percentage)
	require.Len(t, o.Snapshot, 2)
	assert.True(t, o.Snapshot[0].Correct())
	assert.False(t, o.Snapshot[1].Correct())
}

func TestSession_SubmitIsIdempotent(t *testing.T) {
	s := newTestSession(t, 3, ConfigFor(models.QuizTypeLesson))
	require.NoError(t, s.SelectAnswer("A"))

	first, finalized := s.Submit()
	require.True(t, finalized)
	second, again := s.Submit()

	assert.False(t, again)
	assert.Same(t, first, second)
	assert.Equal(t, 1, first.Score.Correct, "pending selection is committed on submit")
}

func TestSession_MutationsAfterCompleteAreRejected(t *testing.T) {
	s := newTestSession(t, 2, ConfigFor(models.QuizTypeLesson))
	s.Submit()

	for name, op := range map[string]func() error{
		"select":   func() error { return s.SelectAnswer("A") },
		"save":     s.SaveAndNext,
		"mark":     s.MarkForReview,
		"clear":    s.ClearSelection,
		"navigate": func() error { return s.NavigateTo(1) },
		"previous": s.Previous,
		"next":     s.Next,
	} {
		assert.ErrorIs(t, op(), ErrSessionComplete, name)
	}
	assert.Equal(t, TickResult{}, s.Tick())
	assert.Equal(t, 0, s.ElapsedSeconds())
}

func TestSession_TimeForcedSubmission(t *testing.T) {
	// Arrange
	s := newTestSession(t, 30, ConfigFor(models.QuizTypeSubject))
	require.NoError(t, s.SelectAnswer("A"))
	require.NoError(t, s.SaveAndNext())
	require.NoError(t, s.SelectAnswer("A"))

	// Act
	var warnings, expiries int
	for i := 0; i < 1200; i++ {
		res := s.Tick()
		if res.TimeWarning {
			warnings++
			assert.Equal(t, 900, s.ElapsedSeconds())
		}
		if res.Expired {
			expiries++
		}
	}
	extra := s.Tick()

	// Assert
	require.True(t, s.IsComplete())
	assert.Equal(t, 1, warnings)
	assert.Equal(t, 1, expiries)
	assert.Equal(t, TickResult{}, extra)
	o := s.Outcome()
	assert.Equal(t, ReasonTimeExpired, o.Reason)
	assert.Equal(t, 1200, o.ElapsedSeconds)
	assert.Equal(t, 2, o.Score.Correct, "the pending selection is committed at expiry")
	assert.Equal(t, 7, o.Score.Percentage)
}

func TestSession_AutoSubmitWithZeroAnswers(t *testing.T) {
	s := newTestSession(t, 100, ConfigFor(models.QuizTypeFullSyllabus))

	for !s.IsComplete() {
		s.Tick()
	}

	o := s.Outcome()
	assert.Equal(t, 3600, o.ElapsedSeconds)
	assert.Equal(t, 0, o.Score.Correct)
	assert.Equal(t, 0, o.Score.Percentage)
	assert.False(t, o.Score.Passed)
}

func TestSession_LessonClockIsNotEnforced(t *testing.T) {
	s := newTestSession(t, 5, ConfigFor(models.QuizTypeLesson))

	for i := 0; i < 5000; i++ {
		assert.Equal(t, TickResult{}, s.Tick())
	}

	assert.False(t, s.IsComplete())
	assert.Equal(t, 5000, s.ElapsedSeconds())
	assert.Equal(t, 0, s.RemainingSeconds())
}

func TestSession_FullSyllabusScoresBySubject(t *testing.T) {
	questions := []models.Question{
		{Options: []string{"A", "B"}, CorrectOption: "A", Subject: "operating-systems"},
		{Options: []string{"A", "B"}, CorrectOption: "A", Subject: "entrepreneurship"},
	}
	s, err := NewSession(questions, ConfigFor(models.QuizTypeFullSyllabus))
	require.NoError(t, err)
	require.NoError(t, s.SelectAnswer("A"))

	o, _ := s.Submit()

	require.Len(t, o.Score.Breakdown, 2)
	assert.Equal(t, "entrepreneurship", o.Score.Breakdown[0].Group)
	assert.Equal(t, 0, o.Score.Breakdown[0].Correct)
	assert.Equal(t, 1, o.Score.Breakdown[1].Correct)
}
