// Package api serves the question bank over HTTP.
package api

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"
	"github.com/rs/cors"

	"github.com/p-n-ai/trivia/internal/auth"
	"github.com/p-n-ai/trivia/internal/trivia"
)

const defaultQuizMaxQuestions = 5

// HealthChecker is implemented by dependencies that can report liveness.
type HealthChecker interface {
	HealthCheck(ctx context.Context) error
}

// Config holds dependencies for the HTTP handler.
type Config struct {
	Service          *trivia.Service
	Auth             *auth.Authenticator // nil disables admin auth
	AllowedOrigins   []string            // default ["*"]
	QuizMaxQuestions int                 // questions per play session (default 5)
	HealthChecks     map[string]HealthChecker
}

type server struct {
	svc              *trivia.Service
	auth             *auth.Authenticator
	allowedOrigins   []string
	quizMaxQuestions int
	checks           map[string]HealthChecker
}

// NewHandler builds the full HTTP handler: routes plus CORS, panic recovery,
// request IDs and access logging.
func NewHandler(cfg Config) http.Handler {
	s := &server{
		svc:              cfg.Service,
		auth:             cfg.Auth,
		allowedOrigins:   cfg.AllowedOrigins,
		quizMaxQuestions: cfg.QuizMaxQuestions,
		checks:           cfg.HealthChecks,
	}
	if s.svc == nil {
		s.svc = trivia.NewService(trivia.ServiceConfig{})
	}
	if len(s.allowedOrigins) == 0 {
		s.allowedOrigins = []string{"*"}
	}
	if s.quizMaxQuestions <= 0 {
		s.quizMaxQuestions = defaultQuizMaxQuestions
	}

	c := cors.New(cors.Options{
		AllowedOrigins: s.allowedOrigins,
		AllowedMethods: []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders: []string{"Content-Type", "Authorization"},
		ExposedHeaders: []string{requestIDHeader},
	})

	recovery := handlers.RecoveryHandler(
		handlers.RecoveryLogger(recoveryLogger{}),
		handlers.PrintRecoveryStack(true),
	)

	return withRequestLogging(recovery(c.Handler(s.routes())))
}

func (s *server) routes() *mux.Router {
	r := mux.NewRouter()
	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusNotFound)
	})
	r.MethodNotAllowedHandler = http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		writeError(w, http.StatusMethodNotAllowed)
	})

	r.HandleFunc("/healthz", s.handleHealthz).Methods(http.MethodGet)
	r.HandleFunc("/readyz", s.handleReadyz).Methods(http.MethodGet)

	r.HandleFunc("/categories", s.handleCategories).Methods(http.MethodGet)
	r.HandleFunc("/categories/{id:[0-9]+}/questions", s.handleCategoryQuestions).Methods(http.MethodGet)

	r.HandleFunc("/questions", s.handleListQuestions).Methods(http.MethodGet)
	r.HandleFunc("/questions", s.requireAdmin(s.handleCreateQuestion)).Methods(http.MethodPost)
	r.HandleFunc("/questions/search", s.handleSearchQuestions).Methods(http.MethodPost)
	r.HandleFunc("/questions/export", s.handleExport).Methods(http.MethodGet)
	r.HandleFunc("/questions/{id:[0-9]+}", s.requireAdmin(s.handleDeleteQuestion)).Methods(http.MethodDelete)

	r.HandleFunc("/quizzes", s.handleQuiz).Methods(http.MethodPost)
	r.HandleFunc("/quizzes/play", s.handlePlay).Methods(http.MethodGet)

	r.HandleFunc("/auth/token", s.handleToken).Methods(http.MethodPost)

	slog.Debug("routes registered")
	return r
}
