package progress

import (
	"net/http"

	"github.com/gorilla/mux"

	"quizzle/internal/auth"
	"quizzle/internal/pkg/respond"
)

type Handler struct {
	service *Service
}

func NewHandler(service *Service) *Handler {
	return &Handler{service: service}
}

func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	stats, err := h.service.Stats(r.Context(), user.ID)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, stats)
}

func (h *Handler) Progress(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	progress, err := h.service.Progress(r.Context(), user.ID)
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, progress)
}

func (h *Handler) LessonProgress(w http.ResponseWriter, r *http.Request) {
	user, ok := auth.UserFromContext(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "Unauthorized")
		return
	}
	lessons, err := h.service.LessonProgress(r.Context(), user.ID, mux.Vars(r)["subjectId"])
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, lessons)
}

func (h *Handler) AdminUser(w http.ResponseWriter, r *http.Request) {
	report, err := h.service.UserReport(r.Context(), mux.Vars(r)["email"])
	if err != nil {
		respond.Err(w, err)
		return
	}
	respond.JSON(w, http.StatusOK, report)
}
