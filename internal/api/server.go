package api

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/pagesift/pagesift/internal/config"
	"github.com/pagesift/pagesift/internal/observability"
	"github.com/pagesift/pagesift/internal/social"
	"github.com/pagesift/pagesift/internal/storage"
	"github.com/pagesift/pagesift/internal/types"
)

// Crawler runs one crawl request end to end.
type Crawler interface {
	Crawl(ctx context.Context, req *types.CrawlRequest) (*types.CrawlResult, error)
}

// Publisher pushes crawl results onto the queue.
type Publisher interface {
	Publish(v any) error
}

// Deps bundles the server's collaborators. Nil fields switch the
// corresponding surface off: no Users disables the user endpoints, no
// Results skips persistence, no Publisher skips queue publishing.
type Deps struct {
	Crawler   Crawler
	Users     storage.UserStore
	Results   storage.ResultStore
	Publisher Publisher
	Social    *social.Client
	Metrics   *observability.Metrics
}

// Server exposes the crawl, user and social proxy endpoints.
type Server struct {
	cfg       *config.Config
	logger    *slog.Logger
	metrics   *observability.Metrics
	crawler   Crawler
	users     storage.UserStore
	results   storage.ResultStore
	publisher Publisher
	social    *social.Client
	mux       *http.ServeMux
}

// NewServer wires the API surface.
func NewServer(cfg *config.Config, deps Deps, logger *slog.Logger) *Server {
	if deps.Metrics == nil {
		deps.Metrics = observability.NewMetrics(logger)
	}
	s := &Server{
		cfg:       cfg,
		logger:    logger.With("component", "api"),
		metrics:   deps.Metrics,
		crawler:   deps.Crawler,
		users:     deps.Users,
		results:   deps.Results,
		publisher: deps.Publisher,
		social:    deps.Social,
		mux:       http.NewServeMux(),
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.mux.HandleFunc("GET /health", s.handleHealth)

	s.mux.HandleFunc("POST /crawl", s.handleCrawl)

	s.mux.HandleFunc("GET /users", s.handleListUsers)
	s.mux.HandleFunc("POST /users", s.handleCreateUser)
	s.mux.HandleFunc("GET /users/{id}", s.handleGetUser)
	s.mux.HandleFunc("PUT /users/{id}", s.handleUpdateUser)
	s.mux.HandleFunc("DELETE /users/{id}", s.handleDeleteUser)

	s.mux.HandleFunc("POST /social/tikhub/generic", s.handleTikHubGeneric)
	s.mux.HandleFunc("POST /social/tikhub/twitter", s.handleTikHubTwitter)
	s.mux.HandleFunc("POST /social/tikhub/tiktok", s.handleTikHubTikTok)
	s.mux.HandleFunc("POST /social/rapidapi/instagram", s.handleRapidAPIInstagram)
	s.mux.HandleFunc("POST /social/rapidapi/twitter-v24", s.handleRapidAPITwitterV24)
	s.mux.HandleFunc("POST /social/rapidapi/generic", s.handleRapidAPIGeneric)
}

// Handler returns the fully wrapped root handler.
func (s *Server) Handler() http.Handler {
	return Chain(s.mux,
		Recover(s.logger),
		RequestLogger(s.logger),
		s.observeRequests,
		CORS(),
	)
}

// observeRequests records request metrics labeled by the mux pattern that
// served them, keeping label cardinality bounded.
func (s *Server) observeRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, pattern := s.mux.Handler(r)
		if pattern == "" {
			pattern = "unmatched"
		}
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		next.ServeHTTP(rec, r)
		s.metrics.ObserveHTTP(r.Method, pattern, rec.status, time.Since(start))
	})
}

func jsonResponse(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		_ = json.NewEncoder(w).Encode(data)
	}
}

func jsonError(w http.ResponseWriter, status int, msg string) {
	jsonResponse(w, status, map[string]string{"error": msg})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
