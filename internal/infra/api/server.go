package api

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"ai-coach-chat/internal/infra/logging"
	"ai-coach-chat/internal/usecase"
)

const chatbotPrefix = "/api/ai/chatbot"

// Server exposes the chat use cases over HTTP.
type Server struct {
	jobs  usecase.ChatJobUseCase
	query usecase.ChatQueryUseCase
	log   *zerolog.Logger
}

func NewServer(jobs usecase.ChatJobUseCase, query usecase.ChatQueryUseCase, logger *zerolog.Logger) *Server {
	return &Server{jobs: jobs, query: query, log: logger}
}

type RouterOptions struct {
	Auth           *Authenticator
	RequestTimeout time.Duration
	Metrics        http.Handler                    // nil disables /metrics
	Ready          func(ctx context.Context) error // nil disables /ready
}

// NewRouter builds the full handler: ops endpoints plus the authenticated
// chatbot routes.
func NewRouter(s *Server, opts RouterOptions) http.Handler {
	r := chi.NewRouter()
	r.Use(TraceID(), RequestLog(s.log), Recover(s.log))

	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("OK"))
	})
	if opts.Ready != nil {
		r.Get("/ready", func(w http.ResponseWriter, r *http.Request) {
			if err := opts.Ready(r.Context()); err != nil {
				logging.With(r.Context(), s.log).Warn().Err(err).Msg("not ready")
				http.Error(w, "NOT READY", http.StatusServiceUnavailable)
				return
			}
			_, _ = w.Write([]byte("READY"))
		})
	}
	if opts.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", opts.Metrics)
	}

	r.Route(chatbotPrefix, func(r chi.Router) {
		r.Use(Timeout(opts.RequestTimeout))
		if opts.Auth != nil {
			r.Use(opts.Auth.Middleware)
		}
		RegisterChatRoutes(r, s)
	})

	r.NotFound(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusNotFound, ErrorResponse{Status: http.StatusNotFound, Code: "NOT_FOUND", Message: "요청한 경로를 찾을 수 없습니다."})
	})
	return r
}

func RegisterChatRoutes(r chi.Router, s *Server) {
	r.Post("/conversations/greetings", s.handle(s.createGreeting))
	r.Post("/questions", s.handle(s.createQuestion))
	r.Get("/jobs/{jobId}", s.handle(s.getJob))
	r.Get("/conversations/{conversationId}/messages", s.handle(s.getConversationMessages))
}
