// Package web serves the editor page, the LinkedIn sign-in and share flow,
// newsletter generation, and a small JSON API over the same features.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"golang.org/x/oauth2"

	"github.com/dgallion1/linkpost/internal/config"
	"github.com/dgallion1/linkpost/internal/linkedin"
	"github.com/dgallion1/linkpost/internal/newsletter"
	"github.com/dgallion1/linkpost/internal/pipeline"
	"github.com/dgallion1/linkpost/internal/session"
)

// Authenticator runs the authorization code grant. *oauth2.Config satisfies it.
type Authenticator interface {
	AuthCodeURL(state string, opts ...oauth2.AuthCodeOption) string
	Exchange(ctx context.Context, code string, opts ...oauth2.AuthCodeOption) (*oauth2.Token, error)
}

// LinkedIn is the member API used on behalf of a session.
type LinkedIn interface {
	UserInfo(ctx context.Context, accessToken string) (*linkedin.UserInfo, error)
	CreateUGCPost(ctx context.Context, accessToken string, post linkedin.UGCPost) (string, error)
}

// Sessions persists signed-in members and pending OAuth states.
type Sessions interface {
	Create(ctx context.Context, sess *session.Session) error
	Get(ctx context.Context, id string) (*session.Session, error)
	Delete(ctx context.Context, id string) error
	SaveState(ctx context.Context, state string, ttl time.Duration) error
	ConsumeState(ctx context.Context, state string) (bool, error)
}

// Newsletters generates newsletters inline or as background jobs.
type Newsletters interface {
	Generate(ctx context.Context, instruction string) (*newsletter.Newsletter, error)
	Submit(job *pipeline.Job) error
	GetJob(id string) *pipeline.Job
	QueueDepth() int
}

// Deps are the collaborators a Server calls. Newsletters and Stats may be
// nil when no Gemini key is configured.
type Deps struct {
	Sessions    Sessions
	LinkedIn    LinkedIn
	OAuth       Authenticator
	Newsletters Newsletters
	Stats       *newsletter.LLMStats
}

// Server is the HTTP surface of linkpost.
type Server struct {
	router chi.Router
	deps   Deps
	log    *slog.Logger
	cfg    config.Config
	now    func() time.Time
}

// NewServer creates and configures the HTTP server.
func NewServer(cfg config.Config, deps Deps, log *slog.Logger) *Server {
	s := &Server{
		deps: deps,
		log:  log,
		cfg:  cfg,
		now:  time.Now,
	}
	s.setupRoutes()
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) setupRoutes() {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.RequestID)
	r.Use(RequestLogger(s.log))

	r.Get("/", s.handleIndex)
	r.Get("/health", s.handleHealth)

	r.Get("/linkedin_access", s.handleLinkedInAccess)
	r.Get("/oauth", s.handleOAuthCallback)
	r.Post("/logout", s.handleLogout)
	r.Post("/linkedin_post", s.handlePost)
	r.Post("/newsletter", s.handleNewsletterPage)

	r.Route("/api", func(r chi.Router) {
		r.Use(s.apiAuth)

		r.Post("/preview", s.handlePreview)
		r.Post("/draft/import", s.handleDraftImport)
		r.Post("/newsletter", s.handleNewsletterSubmit)
		r.Get("/newsletter/{jobID}", s.handleNewsletterStatus)
		r.Get("/stats/llm", s.handleLLMStats)
	})

	s.router = r
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.Write([]byte(`{"status":"ok"}`))
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.render(w, http.StatusOK, s.page())
}
