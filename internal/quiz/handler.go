package quiz

import (
	"log"
	"net/http"

	"github.com/gorilla/mux"

	"quizzle/internal/auth"
	"quizzle/internal/models"
	"quizzle/internal/pkg/respond"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

type StartLessonRequest struct {
	SubjectID   string `json:"subjectId"`
	LessonTitle string `json:"lessonTitle"`
	Difficulty  string `json:"difficulty"`
}

type StartSubjectRequest struct {
	SubjectID  string `json:"subjectId"`
	Difficulty string `json:"difficulty"`
}

type StartFullSyllabusRequest struct {
	Difficulty string `json:"difficulty"`
}

type ActionRequest struct {
	Option string `json:"option"`
	Index  *int   `json:"index"`
}

func (h *Handler) StartLesson(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req StartLessonRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request")
		return
	}

	view, err := h.service.StartLesson(r.Context(), user.ID, req.SubjectID, req.LessonTitle, req.Difficulty)
	if err != nil {
		log.Printf("Error starting lesson quiz %q for user %s: %v", req.LessonTitle, user.ID, err)
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, view)
}

func (h *Handler) StartSubject(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req StartSubjectRequest
	if err := respond.Decode(r, &req); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request")
		return
	}

	view, err := h.service.StartSubject(r.Context(), user.ID, req.SubjectID, req.Difficulty)
	if err != nil {
		log.Printf("Error starting subject quiz %s for user %s: %v", req.SubjectID, user.ID, err)
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, view)
}

func (h *Handler) StartFullSyllabus(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var req StartFullSyllabusRequest
	if r.ContentLength != 0 {
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, http.StatusBadRequest, "Invalid request")
			return
		}
	}

	view, err := h.service.StartFullSyllabus(r.Context(), user.ID, req.Difficulty)
	if err != nil {
		log.Printf("Error starting full syllabus quiz for user %s: %v", user.ID, err)
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, view)
}

func (h *Handler) GetAttempt(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	view, err := h.service.GetAttempt(r.Context(), user.ID, mux.Vars(r)["attemptId"])
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, view)
}

// Act handles POST /attempts/{attemptId}/{action}. The body is optional
// and only read by select ({option}) and navigate ({index}).
func (h *Handler) Act(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	vars := mux.Vars(r)

	var req ActionRequest
	if r.ContentLength != 0 {
		if err := respond.Decode(r, &req); err != nil {
			respond.Error(w, http.StatusBadRequest, "Invalid request")
			return
		}
	}
	action := Action{Kind: vars["action"], Option: req.Option}
	if action.Kind == ActionNavigate {
		if req.Index == nil {
			respond.Error(w, http.StatusBadRequest, "index is required")
			return
		}
		action.Index = *req.Index
	}

	view, err := h.service.Act(r.Context(), user.ID, vars["attemptId"], action)
	if err != nil {
		if view == nil {
			respond.Err(w, err)
			return
		}
		respond.JSON(w, respond.Status(err), map[string]interface{}{
			"error":   err.Error(),
			"attempt": view,
		})
		return
	}
	respond.JSON(w, http.StatusOK, view)
}

func (h *Handler) SaveResult(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	var result models.QuizResult
	if err := respond.Decode(r, &result); err != nil {
		respond.Error(w, http.StatusBadRequest, "Invalid request")
		return
	}

	if err := h.service.SaveResult(r.Context(), user.ID, &result); err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusCreated, map[string]interface{}{
		"message":  "Quiz result saved successfully",
		"resultId": result.ID,
	})
}

func (h *Handler) ListResults(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}

	results, err := h.service.ListResults(r.Context(), user.ID)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, results)
}
