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

// SessionHandler handles live session endpoints
type SessionHandler struct {
	sessionSvc *service.SessionService
	answerSvc  *service.AnswerService
}

// NewSessionHandler creates a new session handler
func NewSessionHandler(sessionSvc *service.SessionService, answerSvc *service.AnswerService) *SessionHandler {
	return &SessionHandler{
		sessionSvc: sessionSvc,
		answerSvc:  answerSvc,
	}
}

// StartSessionRequest is the request body for starting a live run
type StartSessionRequest struct {
	QuizID string `json:"quizId"`
}

// Start handles POST /v1/sessions
func (h *SessionHandler) Start(w http.ResponseWriter, r *http.Request) {
	teacherID := middleware.GetTeacherID(r.Context())
	plan := middleware.GetPlan(r.Context())

	var req StartSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.QuizID == "" {
		writeError(w, http.StatusBadRequest, "quizId is required")
		return
	}

	session, err := h.sessionSvc.Start(r.Context(), req.QuizID, teacherID, plan)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrQuizNotFound):
			writeError(w, http.StatusNotFound, "quiz not found")
		case errors.Is(err, service.ErrSessionQuota):
			writeError(w, http.StatusForbidden, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusCreated, session)
}

// List handles GET /v1/sessions
func (h *SessionHandler) List(w http.ResponseWriter, r *http.Request) {
	teacherID := middleware.GetTeacherID(r.Context())

	sessions, err := h.sessionSvc.List(r.Context(), teacherID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if sessions == nil {
		sessions = []*model.Session{}
	}

	writeJSON(w, http.StatusOK, sessions)
}

// Get handles GET /v1/sessions/{id}
func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	teacherID := middleware.GetTeacherID(r.Context())
	id := mux.Vars(r)["id"]

	session, err := h.sessionSvc.Get(r.Context(), id, teacherID)
	if err != nil {
		if errors.Is(err, service.ErrSessionNotFound) {
			writeError(w, http.StatusNotFound, "session not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	resp := map[string]interface{}{"session": session}
	if phase, questionID, err := h.sessionSvc.State(r.Context(), id); err == nil {
		resp["phase"] = phase
		if questionID != "" {
			resp["currentQuestionId"] = questionID
		}
	}

	writeJSON(w, http.StatusOK, resp)
}

// End handles POST /v1/sessions/{id}/end
func (h *SessionHandler) End(w http.ResponseWriter, r *http.Request) {
	teacherID := middleware.GetTeacherID(r.Context())
	id := mux.Vars(r)["id"]

	session, err := h.sessionSvc.End(r.Context(), id, teacherID)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSessionNotFound):
			writeError(w, http.StatusNotFound, "session not found")
		case errors.Is(err, service.ErrNotSessionOwner):
			writeError(w, http.StatusForbidden, err.Error())
		default:
			writeError(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	writeJSON(w, http.StatusOK, session)
}

// Answers handles GET /v1/sessions/{id}/answers?questionId=...
func (h *SessionHandler) Answers(w http.ResponseWriter, r *http.Request) {
	teacherID := middleware.GetTeacherID(r.Context())
	id := mux.Vars(r)["id"]
	questionID := r.URL.Query().Get("questionId")

	if questionID == "" {
		writeError(w, http.StatusBadRequest, "questionId is required")
		return
	}
	if _, err := h.sessionSvc.Get(r.Context(), id, teacherID); err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	answers, err := h.answerSvc.Answers(r.Context(), id, questionID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	count, _ := h.answerSvc.Count(r.Context(), id, questionID)
	writeJSON(w, http.StatusOK, map[string]interface{}{
		"questionId": questionID,
		"count":      count,
		"answers":    answers,
	})
}

// Summary handles GET /v1/sessions/{id}/summary
func (h *SessionHandler) Summary(w http.ResponseWriter, r *http.Request) {
	teacherID := middleware.GetTeacherID(r.Context())
	id := mux.Vars(r)["id"]

	if _, err := h.sessionSvc.Get(r.Context(), id, teacherID); err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	counts, err := h.answerSvc.Counts(r.Context(), id)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"counts": counts})
}

// ClearAnswers handles POST /v1/sessions/{id}/answers/clear. Resets the live
// aggregation for a fresh run without touching the session record.
func (h *SessionHandler) ClearAnswers(w http.ResponseWriter, r *http.Request) {
	teacherID := middleware.GetTeacherID(r.Context())
	id := mux.Vars(r)["id"]

	if _, err := h.sessionSvc.Get(r.Context(), id, teacherID); err != nil {
		writeError(w, http.StatusNotFound, "session not found")
		return
	}

	if err := h.answerSvc.Clear(r.Context(), id); err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "cleared"})
}
