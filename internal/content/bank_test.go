package content

import (
	"context"
	"testing"
	"testing/fstest"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"quizzle/internal/models"
	apperrors "quizzle/internal/pkg/errors"
)

type MockChapterCache struct {
	mock.Mock
}

func (m *MockChapterCache) GetChapter(ctx context.Context, key string) ([]models.Question, error) {
	args := m.Called(ctx, key)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]models.Question), args.Error(1)
}

func (m *MockChapterCache) SetChapter(ctx context.Context, key string, questions []models.Question, ttl time.Duration) error {
	args := m.Called(ctx, key, questions, ttl)
	return args.Error(0)
}

const osChapter1 = `[
  {"question": "What is a kernel?", "options": ["Core of the OS", "A shell", "A file"], "answer": "Core of the OS"},
  {"question": "Duplicate options", "options": ["A", "A"], "answer": "A"},
  {"question": "Answer missing", "options": ["A", "B"], "answer": "C"},
  {"question": "Too many", "options": ["A", "B", "C", "D", "E"], "answer": "A"},
  {"question": "What does a scheduler do?", "options": ["Picks processes", "Formats disks"], "answer": "Picks processes"}
]`

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"OS/hard/ch1.json":    {Data: []byte(osChapter1)},
		"OS/hard/ch2.json":    {Data: []byte(`[{"question": "Q", "options": ["A", "B"], "answer": "B"}]`)},
		"OS/hard/ch3.json":    {Data: []byte(`[]`)},
		"OS/easy/ch1.json":    {Data: []byte(`[{"question": "Easy", "options": ["Yes", "No"], "answer": "Yes"}]`)},
		"OS/hard/broken.json": {Data: []byte(`{not json`)},
	}
}

func TestBank_LoadQuestions_FiltersInvalidAndTags(t *testing.T) {
	bank := NewBank(testFS(), DefaultCatalog(), nil, 0)

	questions, err := bank.LoadQuestions(context.Background(), SubjectOperatingSystems, "hard", "ch1")

	require.NoError(t, err)
	require.Len(t, questions, 2)
	assert.Equal(t, "What is a kernel?", questions[0].Text)
	assert.Equal(t, "Core of the OS", questions[0].CorrectOption)
	for _, q := range questions {
		assert.Equal(t, SubjectOperatingSystems, q.Subject)
		assert.Equal(t, "ch1", q.Chapter)
	}
}

func TestBank_LoadQuestions_DefaultsToHard(t *testing.T) {
	bank := NewBank(testFS(), DefaultCatalog(), nil, 0)

	questions, err := bank.LoadQuestions(context.Background(), SubjectOperatingSystems, "", "ch2")

	require.NoError(t, err)
	assert.Len(t, questions, 1)
}

func TestBank_LoadQuestions_MissingOrEmptyIsContentUnavailable(t *testing.T) {
	bank := NewBank(testFS(), DefaultCatalog(), nil, 0)

	_, err := bank.LoadQuestions(context.Background(), SubjectOperatingSystems, "hard", "ch9")
	assert.ErrorIs(t, err, apperrors.ErrContentUnavailable)

	_, err = bank.LoadQuestions(context.Background(), SubjectOperatingSystems, "hard", "ch3")
	assert.ErrorIs(t, err, apperrors.ErrContentUnavailable)
}

func TestBank_LoadQuestions_RejectsUnknownInput(t *testing.T) {
	bank := NewBank(testFS(), DefaultCatalog(), nil, 0)

	_, err := bank.LoadQuestions(context.Background(), "astrology", "hard", "ch1")
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, err = bank.LoadQuestions(context.Background(), SubjectOperatingSystems, "medium", "ch1")
	assert.ErrorIs(t, err, apperrors.ErrValidation)
}

func TestBank_LoadQuestions_UsesCache(t *testing.T) {
	cache := new(MockChapterCache)
	cached := []models.Question{{Text: "cached", Options: []string{"A", "B"}, CorrectOption: "A"}}
	cache.On("GetChapter", mock.Anything, "questions:operating-systems:hard:ch1").Return(cached, nil)

	bank := NewBank(testFS(), DefaultCatalog(), cache, time.Minute)
	questions, err := bank.LoadQuestions(context.Background(), SubjectOperatingSystems, "hard", "ch1")

	require.NoError(t, err)
	assert.Equal(t, cached, questions)
	cache.AssertNotCalled(t, "SetChapter", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestBank_LoadQuestions_FillsCacheOnMiss(t *testing.T) {
	cache := new(MockChapterCache)
	cache.On("GetChapter", mock.Anything, "questions:operating-systems:hard:ch2").Return(nil, apperrors.ErrNotFound)
	cache.On("SetChapter", mock.Anything, "questions:operating-systems:hard:ch2", mock.Anything, time.Minute).Return(nil)

	bank := NewBank(testFS(), DefaultCatalog(), cache, time.Minute)
	questions, err := bank.LoadQuestions(context.Background(), SubjectOperatingSystems, "hard", "ch2")

	require.NoError(t, err)
	assert.Len(t, questions, 1)
	cache.AssertExpectations(t)
}

func TestBank_LoadLesson(t *testing.T) {
	bank := NewBank(testFS(), DefaultCatalog(), nil, 0)

	questions, err := bank.LoadLesson(context.Background(), SubjectOperatingSystems, "Introduction to Operating Systems", "hard")
	require.NoError(t, err)
	assert.Len(t, questions, 2)

	_, err = bank.LoadLesson(context.Background(), SubjectEntrepreneurship, "Marketing and Sales", "hard")
	assert.ErrorIs(t, err, apperrors.ErrContentUnavailable)
}

func TestBank_LoadSubject_SkipsMissingChapters(t *testing.T) {
	bank := NewBank(testFS(), DefaultCatalog(), nil, 0)

	pool, err := bank.LoadSubject(context.Background(), SubjectOperatingSystems, "hard")
	require.NoError(t, err)
	assert.Len(t, pool, 3)

	_, err = bank.LoadSubject(context.Background(), SubjectDataAnalytics, "hard")
	assert.ErrorIs(t, err, apperrors.ErrContentUnavailable)
}

func TestCatalog_Lookups(t *testing.T) {
	catalog := DefaultCatalog()

	assert.Len(t, catalog.Subjects(), 4)
	assert.Equal(t, 5, catalog.LessonCount(SubjectSoftwareEngineering))
	assert.Equal(t, 0, catalog.LessonCount("unknown"))
	assert.Equal(t, "Operating Systems", catalog.SubjectName(SubjectOperatingSystems))

	lesson, err := catalog.Lesson(SubjectOperatingSystems, "os-3")
	require.NoError(t, err)
	assert.Equal(t, "ch4", lesson.Chapter)
}
