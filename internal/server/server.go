package server

import (
	"embed"
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/dukerupert/lovetoday/internal/handler"
	"github.com/dukerupert/lovetoday/internal/middleware"
	"github.com/dukerupert/lovetoday/internal/push"
	ws "github.com/dukerupert/lovetoday/internal/websocket"
)

//go:embed static/sw.js
var staticFS embed.FS

// Push endpoints are public, so they are rate limited per client IP.
const (
	pushRateLimit  = 30
	pushRatePeriod = time.Minute
)

// Deps are the components the HTTP surface is built from.
type Deps struct {
	App        handler.AppDeps
	Directory  *push.Directory
	Dispatcher *push.Dispatcher
	PublicKey  string
	// Registry backs /metrics. Nil serves an empty registry.
	Registry *prometheus.Registry
	// OriginPatterns are extra origins allowed to open /ws.
	OriginPatterns []string
}

type Server struct {
	hub         *ws.Hub
	appH        *handler.AppHandler
	pushH       *handler.PushHandler
	registry    *prometheus.Registry
	origins     []string
	rateLimiter *middleware.RateLimiter
	logger      *slog.Logger
}

func New(d Deps, logger *slog.Logger) *Server {
	hub := d.App.Hub
	if hub == nil {
		hub = ws.NewHub(logger.With("component", "websocket"))
		d.App.Hub = hub
	}
	reg := d.Registry
	if reg == nil {
		reg = prometheus.NewRegistry()
	}

	return &Server{
		hub:         hub,
		appH:        handler.NewAppHandler(d.App, logger.With("component", "app")),
		pushH:       handler.NewPushHandler(d.Directory, d.Dispatcher, d.PublicKey, hub, logger.With("component", "push_handler")),
		registry:    reg,
		origins:     d.OriginPatterns,
		rateLimiter: middleware.NewRateLimiter(pushRateLimit, pushRatePeriod),
		logger:      logger,
	}
}

// Hub returns the live event hub.
func (s *Server) Hub() *ws.Hub {
	return s.hub
}

// RateLimiter returns the rate limiter for cleanup tasks.
func (s *Server) RateLimiter() *middleware.RateLimiter {
	return s.rateLimiter
}

func (s *Server) Router() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("GET /health", s.healthHandler)
	mux.Handle("GET /metrics", promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{}))
	mux.HandleFunc("GET /sw.js", s.serviceWorker)

	// Push directory
	mux.HandleFunc("POST /api/push/subscribe", s.rateLimited(s.pushH.Subscribe))
	mux.HandleFunc("GET /api/push/public-key", s.pushH.PublicKey)
	mux.HandleFunc("GET /api/push/send", s.rateLimited(s.pushH.Send))

	// App API
	mux.HandleFunc("GET /api/idea", s.appH.GetIdea)
	mux.HandleFunc("POST /api/idea/done", s.appH.MarkDone)
	mux.HandleFunc("GET /api/streak", s.appH.GetStreak)
	mux.HandleFunc("GET /api/prefs", s.appH.GetPrefs)
	mux.HandleFunc("PUT /api/prefs", s.appH.PutPrefs)
	mux.HandleFunc("POST /api/device/push", s.appH.RegisterDevice)
	mux.HandleFunc("GET /api/reminders", s.appH.ListReminders)
	mux.HandleFunc("POST /api/actions", s.appH.RecordAction)
	mux.HandleFunc("POST /api/actions/consume", s.appH.ConsumeAction)

	// WebSocket
	mux.HandleFunc("GET /ws", ws.Handler(s.hub, s.origins, s.logger.With("component", "websocket")))

	return middleware.RequestLogger(s.logger.With("component", "http"))(mux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

func (s *Server) serviceWorker(w http.ResponseWriter, r *http.Request) {
	data, err := staticFS.ReadFile("static/sw.js")
	if err != nil {
		http.Error(w, "not found", http.StatusNotFound)
		return
	}
	w.Header().Set("Content-Type", "application/javascript")
	w.Header().Set("Cache-Control", "no-cache")
	w.Write(data)
}

func (s *Server) rateLimited(h http.HandlerFunc) http.HandlerFunc {
	return middleware.RateLimit(s.rateLimiter)(h).ServeHTTP
}
