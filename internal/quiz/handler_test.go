package quiz

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gorilla/mux"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"quizzle/internal/auth"
	"quizzle/internal/content"
	"quizzle/internal/models"
)

func newTestRouter(svc *Service, user *models.User) *mux.Router {
	h := NewHandler(svc)
	router := mux.NewRouter()
	router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if user != nil {
				r = r.WithContext(auth.WithUser(r.Context(), user, "token"))
			}
			next.ServeHTTP(w, r)
		})
	})
	router.HandleFunc("/api/quizzes/lesson", h.StartLesson).Methods("POST")
	router.HandleFunc("/api/attempts/{attemptId}", h.GetAttempt).Methods("GET")
	router.HandleFunc("/api/attempts/{attemptId}/{action}", h.Act).Methods("POST")
	router.HandleFunc("/api/quiz-results", h.SaveResult).Methods("POST")
	return router
}

func serve(router http.Handler, method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, target, nil)
	} else {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	return rec
}

func TestHandler_LessonAttemptFlow(t *testing.T) {
	env := newTestEnv(t)
	env.source.On("LoadLesson", mock.Anything, content.SubjectOperatingSystems, "Introduction to Operating Systems", "hard").
		Return(questionsFor(content.SubjectOperatingSystems, 3), nil)
	env.store.On("SaveResult", mock.Anything, mock.Anything).Return(nil)
	env.events.On("Publish", mock.Anything, mock.Anything).Return(nil)
	router := newTestRouter(env.svc, &models.User{ID: "u1", Role: models.RoleStudent})

	rec := serve(router, http.MethodPost, "/api/quizzes/lesson",
		`{"subjectId":"operating-systems","lessonTitle":"Introduction to Operating Systems"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	var started map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &started))
	id := started["id"].(string)
	assert.Equal(t, "lesson", started["quizType"])
	assert.Len(t, started["questions"], 3)

	rec = serve(router, http.MethodPost, "/api/attempts/"+id+"/select", `{"option":"A"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"selectedAnswer":"A"`)

	rec = serve(router, http.MethodPost, "/api/attempts/"+id+"/save-next", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"currentIndex":1`)
	assert.Contains(t, rec.Body.String(), `"status":"answered"`)

	rec = serve(router, http.MethodPost, "/api/attempts/"+id+"/submit", "")
	require.Equal(t, http.StatusOK, rec.Code)
	var finished map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &finished))
	assert.Equal(t, true, finished["complete"])
	result := finished["result"].(map[string]interface{})
	assert.Equal(t, float64(33), result["score"])
	assert.Equal(t, false, result["passed"])

	rec = serve(router, http.MethodPost, "/api/attempts/"+id+"/select", `{"option":"B"}`)
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Contains(t, rec.Body.String(), `"attempt"`)
}

func TestHandler_AttemptErrors(t *testing.T) {
	env := newTestEnv(t)
	env.source.On("LoadLesson", mock.Anything, content.SubjectOperatingSystems, mock.Anything, "hard").
		Return(questionsFor(content.SubjectOperatingSystems, 2), nil)
	owner := newTestRouter(env.svc, &models.User{ID: "u1"})
	stranger := newTestRouter(env.svc, &models.User{ID: "u2"})

	view, err := env.svc.StartLesson(context.Background(), "u1", content.SubjectOperatingSystems, "os-1", "")
	require.NoError(t, err)

	rec := serve(stranger, http.MethodGet, "/api/attempts/"+view.ID, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(owner, http.MethodPost, "/api/attempts/"+view.ID+"/teleport", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(owner, http.MethodPost, "/api/attempts/"+view.ID+"/select", `{"option":"Z"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = serve(owner, http.MethodPost, "/api/attempts/"+view.ID+"/save-next", "")
	assert.Equal(t, http.StatusConflict, rec.Code)

	rec = serve(owner, http.MethodPost, "/api/quizzes/lesson", `{"subjectId":"astrology","lessonTitle":"x"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(newTestRouter(env.svc, nil), http.MethodGet, "/api/attempts/"+view.ID, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestHandler_NavigateRequiresIndex(t *testing.T) {
	env := newTestEnv(t)
	env.source.On("LoadLesson", mock.Anything, content.SubjectOperatingSystems, mock.Anything, "hard").
		Return(questionsFor(content.SubjectOperatingSystems, 5), nil)
	router := newTestRouter(env.svc, &models.User{ID: "u1"})
	view, err := env.svc.StartLesson(context.Background(), "u1", content.SubjectOperatingSystems, "os-1", "")
	require.NoError(t, err)
	_, err = env.svc.Act(context.Background(), "u1", view.ID, Action{Kind: ActionNavigate, Index: 3})
	require.NoError(t, err)

	rec := serve(router, http.MethodPost, "/api/attempts/"+view.ID+"/navigate", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	rec = serve(router, http.MethodPost, "/api/attempts/"+view.ID+"/navigate", `{"option":"A"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	current, err := env.svc.GetAttempt(context.Background(), "u1", view.ID)
	require.NoError(t, err)
	assert.Equal(t, 3, current.CurrentIndex)

	rec = serve(router, http.MethodPost, "/api/attempts/"+view.ID+"/navigate", `{"index":0}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"currentIndex":0`)
}

func TestHandler_SaveResult(t *testing.T) {
	env := newTestEnv(t)
	env.store.On("SaveResult", mock.Anything, mock.AnythingOfType("*models.QuizResult")).Return(nil)
	env.events.On("Publish", mock.Anything, mock.Anything).Return(nil)
	router := newTestRouter(env.svc, &models.User{ID: "u1"})

	rec := serve(router, http.MethodPost, "/api/quiz-results",
		`{"subjectId":"data-analytics","lessonTitle":"Statistical Analysis","score":80,"totalQuestions":5,"timeSpent":90,"quizType":"lesson","passed":false}`)

	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "resultId")
	saved := env.store.Calls[0].Arguments.Get(1).(*models.QuizResult)
	assert.True(t, saved.Passed)
	assert.Equal(t, "u1", saved.UserID)

	rec = serve(router, http.MethodPost, "/api/quiz-results", `{"quizType":"lesson"`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
