package httpapi

import (
	"context"
	"log"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/pluslatte/gt6-vein-manager/internal/veins/service"
)

type Dependencies struct {
	Logger          *log.Logger
	Addr            string
	QueryService    *service.QueryService
	MutationService *service.MutationService
	AuthService     *service.AuthService

	// PublicBaseURL prefixes invitation links.
	PublicBaseURL string
	// CookieSecure marks the session cookie Secure (HTTPS deployments).
	CookieSecure bool
	// Ping reports backing-store health for /healthz.  Optional.
	Ping func(ctx context.Context) error
}

type Server struct {
	httpServer    *http.Server
	logger        *log.Logger
	query         *service.QueryService
	mutation      *service.MutationService
	auth          *service.AuthService
	publicBaseURL string
	cookieSecure  bool
	ping          func(ctx context.Context) error
}

func NewServer(d Dependencies) *Server {
	s := &Server{
		logger:        d.Logger,
		query:         d.QueryService,
		mutation:      d.MutationService,
		auth:          d.AuthService,
		publicBaseURL: d.PublicBaseURL,
		cookieSecure:  d.CookieSecure,
		ping:          d.Ping,
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", s.handleHealthz)

	r.Route("/auth", func(r chi.Router) {
		r.Post("/login", s.handleLogin)
		r.Post("/logout", s.handleLogout)
		r.Post("/register", s.handleRegister)
		r.With(s.requireAuth, requireAdmin).Post("/issue-invitation", s.handleIssueInvitation)
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.requireAuth)

		r.Get("/auth/me", s.handleMe)

		r.Route("/veins", func(r chi.Router) {
			r.Get("/", s.handleSearch)
			r.Post("/add", s.handleAddVein)

			r.Route("/{vein_id}", func(r chi.Router) {
				r.Get("/", s.handleGetVein)
				r.Get("/history", s.handleHistory)
				r.Post("/notes", s.handleAddNote)
				r.Post("/{dimension}/set", s.handleSetStatus(true))
				r.Post("/{dimension}/revoke", s.handleSetStatus(false))
			})
		})
	})

	handler := loggingMiddleware(d.Logger, r)

	s.httpServer = &http.Server{
		Addr:              d.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
	}

	return s
}

func (s *Server) Handler() http.Handler { return s.httpServer.Handler }

func (s *Server) Start() error {
	return s.httpServer.ListenAndServe()
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
