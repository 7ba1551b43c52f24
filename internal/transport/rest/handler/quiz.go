package handler

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/pinkknives/skolapp-realtime/internal/model"
	"github.com/pinkknives/skolapp-realtime/internal/service"
	"github.com/pinkknives/skolapp-realtime/internal/transport/rest/middleware"
)

// QuizHandler handles quiz endpoints
type QuizHandler struct {
	quizSvc *service.QuizService
}

// NewQuizHandler creates a new quiz handler
func NewQuizHandler(quizSvc *service.QuizService) *QuizHandler {
	return &QuizHandler{quizSvc: quizSvc}
}

// CreateQuizRequest is the request body for creating a quiz
type CreateQuizRequest struct {
	Title     string           `json:"title"`
	Questions []model.Question `json:"questions"`
}

// Create handles POST /v1/quizzes
func (h *QuizHandler) Create(w http.ResponseWriter, r *http.Request) {
	teacherID := middleware.GetTeacherID(r.Context())
	if teacherID == "" {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req CreateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	quiz, err := h.quizSvc.CreateQuiz(r.Context(), teacherID, req.Title, req.Questions)
	if err != nil {
		if errors.Is(err, model.ErrValidation) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, quiz)
}

// List handles GET /v1/quizzes
func (h *QuizHandler) List(w http.ResponseWriter, r *http.Request) {
	teacherID := middleware.GetTeacherID(r.Context())

	quizzes, err := h.quizSvc.ListQuizzes(r.Context(), teacherID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if quizzes == nil {
		quizzes = []*model.Quiz{}
	}

	writeJSON(w, http.StatusOK, quizzes)
}

// Get handles GET /v1/quizzes/{quizId}
func (h *QuizHandler) Get(w http.ResponseWriter, r *http.Request) {
	teacherID := middleware.GetTeacherID(r.Context())
	quizID := mux.Vars(r)["quizId"]

	quiz, err := h.quizSvc.GetQuiz(r.Context(), quizID, teacherID)
	if err != nil {
		if errors.Is(err, service.ErrQuizNotFound) {
			writeError(w, http.StatusNotFound, "quiz not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, quiz)
}

// Update handles PUT /v1/quizzes/{quizId}
func (h *QuizHandler) Update(w http.ResponseWriter, r *http.Request) {
	teacherID := middleware.GetTeacherID(r.Context())
	quizID := mux.Vars(r)["quizId"]

	var req CreateQuizRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}

	quiz, err := h.quizSvc.UpdateQuiz(r.Context(), quizID, teacherID, req.Title, req.Questions)
	if err != nil {
		switch {
		case errors.Is(err, model.ErrValidation):
			writeError(w, http.StatusBadRequest, err.Error())
		case errors.Is(err, service.ErrQuizNotFound):
			writeError(w, http.StatusNotFound, "quiz not found")
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, quiz)
}

// Delete handles DELETE /v1/quizzes/{quizId}
func (h *QuizHandler) Delete(w http.ResponseWriter, r *http.Request) {
	teacherID := middleware.GetTeacherID(r.Context())
	quizID := mux.Vars(r)["quizId"]

	if err := h.quizSvc.DeleteQuiz(r.Context(), quizID, teacherID); err != nil {
		if errors.Is(err, service.ErrQuizNotFound) {
			writeError(w, http.StatusNotFound, "quiz not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	w.WriteHeader(http.StatusNoContent)
}
