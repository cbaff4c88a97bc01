// Route registration and go-chi router setup.
// Public routes (/, /health, /auth/*) and optionally JWT-protected routes (/api/v1/*).
package api

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/matiasleandrokruk/boatsearch/internal/api/handlers"
	apmiddleware "github.com/matiasleandrokruk/boatsearch/internal/api/middleware"
	"github.com/matiasleandrokruk/boatsearch/internal/domain/search"
	"github.com/matiasleandrokruk/boatsearch/internal/infra/logging"
	pkgauth "github.com/matiasleandrokruk/boatsearch/pkg/auth"
)

// WelcomeMessage is the body of GET /.
const WelcomeMessage = "Welcome to the AI Search Bot API"

// Deps are the services the router exposes.
type Deps struct {
	Search  handlers.Searcher
	Dataset handlers.DatasetInfoer

	// Tokens enables bearer auth on /api/v1 and the /auth/token exchange.
	// Nil leaves the API open.
	Tokens      *pkgauth.TokenIssuer
	Credentials pkgauth.Credentials

	Logger *slog.Logger
}

// NewRouter creates and configures a chi router with all routes.
func NewRouter(d Deps) *chi.Mux {
	logger := d.Logger
	if logger == nil {
		logger = logging.Discard()
	}
	logger = logger.With("component", "http")

	r := chi.NewRouter()

	// Global middleware (runs on all routes)
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(apmiddleware.RequestLogger(logger))
	r.Use(middleware.Recoverer)

	// ===== PUBLIC ROUTES (no auth required) =====

	r.Get("/", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"message":"` + WelcomeMessage + `"}`)) //nolint:errcheck
	})

	// Health check, used by load balancers and probes
	r.Get("/health", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		w.Write([]byte(`{"status":"ok"}`)) //nolint:errcheck
	})

	if d.Tokens != nil {
		authHandler := handlers.NewAuthHandler(d.Credentials, d.Tokens, logger)
		r.Route("/auth", func(r chi.Router) {
			r.Post("/token", authHandler.Token) // POST /auth/token
		})
	}

	// ===== API ROUTES (JWT required when configured) =====

	searchHandler := handlers.NewSearchHandler(d.Search, logger)
	datasetHandler := handlers.NewDatasetHandler(d.Dataset, logger)
	r.Route("/api/v1", func(r chi.Router) {
		if d.Tokens != nil {
			r.Use(apmiddleware.Auth(d.Tokens))
		}
		r.Post("/search", searchHandler.Search) // POST /api/v1/search
		r.Get("/dataset", datasetHandler.Info)  // GET /api/v1/dataset
	})

	return r
}

var _ handlers.Searcher = (*search.Service)(nil)
