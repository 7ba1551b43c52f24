package rest

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/gorilla/mux"

	"github.com/pinkknives/skolapp-realtime/internal/model"
	"github.com/pinkknives/skolapp-realtime/internal/service"
	"github.com/pinkknives/skolapp-realtime/internal/transport/rest/handler"
	"github.com/pinkknives/skolapp-realtime/internal/transport/rest/middleware"
	"github.com/pinkknives/skolapp-realtime/internal/transport/ws"
)

// Container holds all dependencies for the router
type Container struct {
	AuthService    *service.AuthService
	TokenService   *service.TokenService
	QuizService    *service.QuizService
	SessionService *service.SessionService
	AnswerService  *service.AnswerService
	WSHub          *ws.Hub
}

// NewRouter creates the API router with all endpoints
func NewRouter(c *Container) http.Handler {
	r := mux.NewRouter()

	// Initialize handlers
	authHandler := handler.NewAuthHandler(c.AuthService)
	tokenHandler := handler.NewTokenHandler(c.TokenService)
	quizHandler := handler.NewQuizHandler(c.QuizService)
	sessionHandler := handler.NewSessionHandler(c.SessionService, c.AnswerService)
	wsHandler := ws.NewHandler(c.WSHub, c.TokenService, c.SessionService, c.AnswerService)

	// Initialize middleware
	authMW := middleware.NewAuthMiddleware(c.AuthService)
	rateMW := middleware.NewRateLimitMiddleware(60, time.Minute)

	// CORS middleware (apply first)
	r.Use(corsMiddleware)
	r.Use(rateMW.Limit)

	// API v1 routes
	v1 := r.PathPrefix("/v1").Subrouter()

	// Public routes
	v1.HandleFunc("/auth/login", authHandler.Login).Methods("POST", "OPTIONS")
	v1.HandleFunc("/realtime/token", tokenHandler.Issue).Methods("GET", "OPTIONS")

	// WebSocket route (public with capability token in query param)
	v1.HandleFunc("/ws/sessions/{id}", wsHandler.SessionWS).Methods("GET")

	// Health check
	r.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`))
	}).Methods("GET")

	// Teacher routes (require teacher auth)
	teacherRoutes := v1.NewRoute().Subrouter()
	teacherRoutes.Use(authMW.RequireTeacher)

	teacherRoutes.HandleFunc("/quizzes", quizHandler.Create).Methods("POST", "OPTIONS")
	teacherRoutes.HandleFunc("/quizzes", quizHandler.List).Methods("GET", "OPTIONS")
	teacherRoutes.HandleFunc("/quizzes/{quizId}", quizHandler.Get).Methods("GET", "OPTIONS")
	teacherRoutes.HandleFunc("/quizzes/{quizId}", quizHandler.Update).Methods("PUT", "OPTIONS")
	teacherRoutes.HandleFunc("/quizzes/{quizId}", quizHandler.Delete).Methods("DELETE", "OPTIONS")
	teacherRoutes.HandleFunc("/sessions", sessionHandler.Start).Methods("POST", "OPTIONS")
	teacherRoutes.HandleFunc("/sessions", sessionHandler.List).Methods("GET", "OPTIONS")
	teacherRoutes.HandleFunc("/sessions/{id}", sessionHandler.Get).Methods("GET", "OPTIONS")
	teacherRoutes.HandleFunc("/sessions/{id}/end", sessionHandler.End).Methods("POST", "OPTIONS")
	teacherRoutes.HandleFunc("/sessions/{id}/answers", sessionHandler.Answers).Methods("GET", "OPTIONS")
	teacherRoutes.HandleFunc("/sessions/{id}/answers/clear", sessionHandler.ClearAnswers).Methods("POST", "OPTIONS")
	teacherRoutes.HandleFunc("/sessions/{id}/summary", sessionHandler.Summary).Methods("GET", "OPTIONS")

	teacherRoutes.HandleFunc("/realtime/limits", func(w http.ResponseWriter, r *http.Request) {
		limits := model.LimitsForPlan(middleware.GetPlan(r.Context()))
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		json.NewEncoder(w).Encode(limits)
	}).Methods("GET", "OPTIONS")

	return r
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		allowedOrigins := os.Getenv("CORS_ALLOWED_ORIGINS")
		if allowedOrigins == "" {
			allowedOrigins = "*"
		}

		allowedMethods := os.Getenv("CORS_ALLOWED_METHODS")
		if allowedMethods == "" {
			allowedMethods = "GET, POST, PUT, DELETE, OPTIONS"
		}

		allowedHeaders := os.Getenv("CORS_ALLOWED_HEADERS")
		if allowedHeaders == "" {
			allowedHeaders = "Content-Type, Authorization, " + handler.RoleHeader
		}

		w.Header().Set("Access-Control-Allow-Origin", allowedOrigins)
		w.Header().Set("Access-Control-Allow-Methods", allowedMethods)
		w.Header().Set("Access-Control-Allow-Headers", allowedHeaders)

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}
