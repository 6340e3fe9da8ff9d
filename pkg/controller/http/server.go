package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/secmon-lab/warden/pkg/usecase"
	"github.com/secmon-lab/warden/pkg/utils/logging"
)

type Server struct {
	router             *chi.Mux
	uc                 *usecase.UseCases
	slackSigningSecret string
}

type Options func(*Server)

// WithSlackInteraction enables the Slack interaction webhook, verified
// against the given signing secret.
func WithSlackInteraction(signingSecret string) Options {
	return func(s *Server) {
		s.slackSigningSecret = signingSecret
	}
}

func New(uc *usecase.UseCases, opts ...Options) *Server {
	r := chi.NewRouter()

	s := &Server{
		router: r,
		uc:     uc,
	}
	for _, opt := range opts {
		opt(s)
	}

	// Middleware
	r.Use(middleware.RequestID)
	r.Use(accessLogger)
	r.Use(middleware.Recoverer)

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		respondJSON(w, r, http.StatusOK, map[string]string{"status": "ok"})
	})

	r.Route("/api/v1", func(r chi.Router) {
		// Action type catalog
		r.Get("/action-types", s.handleListActionTypes)

		// Authority resolution and settings
		r.Route("/users/{userID}/authority", func(r chi.Router) {
			r.Get("/", s.handleListEffectiveAuthority)
			r.Post("/initialize", s.handleInitializeAuthority)
			r.Post("/level", s.handleSetAllLevels)
			r.Post("/bulk", s.handleBulkUpdateAuthority)
			r.Delete("/", s.handleRemoveUserAuthority)
			r.Get("/{actionTypeID}", s.handleGetEffectiveAuthority)
			r.Put("/{actionTypeID}", s.handleUpsertAuthority)
		})

		// Per-user ledger views
		r.Route("/users/{userID}/actions", func(r chi.Router) {
			r.Get("/pending", s.handleListPendingApprovals)
			r.Get("/pending/count", s.handlePendingApprovalCount)
			r.Get("/similar", s.handleFindSimilarActions)
			r.Get("/feedback", s.handleListActionsWithFeedback)
			r.Get("/stats", s.handleActionLogStats)
		})

		// Ledger entries and transitions
		r.Route("/actions", func(r chi.Router) {
			r.Post("/", s.handleProposeAction)
			r.Post("/batch/approve", s.handleBatchApprove)
			r.Post("/batch/reject", s.handleBatchReject)

			r.Route("/{actionLogID}", func(r chi.Router) {
				r.Get("/", s.handleGetAction)
				r.Post("/approve", s.handleApproveAction)
				r.Post("/reject", s.handleRejectAction)
				r.Post("/executed", s.handleMarkExecuted)
				r.Post("/failed", s.handleMarkFailed)
				r.Post("/reversed", s.handleMarkReversed)
				r.Post("/feedback", s.handleAddFeedback)
			})
		})
	})

	// Slack webhook - no auth, uses signature verification
	if s.slackSigningSecret != "" {
		r.Route("/hooks/slack", func(r chi.Router) {
			r.Use(SlackSignatureMiddleware(s.slackSigningSecret))
			r.Post("/interaction", s.handleSlackInteraction)
		})
	}

	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// accessLogger is a middleware that logs HTTP requests
func accessLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		defer func() {
			logging.Default().Info("access",
				"method", r.Method,
				"path", r.URL.Path,
				"status", ww.Status(),
				"bytes", ww.BytesWritten(),
				"duration", time.Since(start),
				"remote", r.RemoteAddr,
				"user_agent", r.UserAgent(),
			)
		}()

		next.ServeHTTP(ww, r)
	})
}
