// Package web exposes the broker over HTTP: the websocket endpoint and the
// read-only REST routes around it.
package web

import (
	"context"
	"log/slog"
	"net/http"
	"sync"
	"time"

	"roomchat/contract"
	"roomchat/observability"
	"roomchat/search"
	"roomchat/services"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/samber/lo"
)

// Occupancy is the part of the registry the REST routes read.
type Occupancy interface {
	Len() int
	Rooms() map[string]int
}

type Searcher interface {
	Search(ctx context.Context, room, text string, limit int) ([]search.Hit, error)
}

type Options struct {
	ConnectionBufferSize int
	MaxPayloadBytes      int64
	RateLimitPerSecond   float64
	RateLimitBurst       int
	AllowedOrigins       []string
	AuthEnabled          bool
}

type Server struct {
	log       *slog.Logger
	gateway   *services.SessionGateway
	occupancy Occupancy
	store     contract.IMessageStore
	relay     contract.IMediaRelay
	health    *observability.Health
	gatherer  prometheus.Gatherer
	resolver  contract.IdentityResolver
	searcher  Searcher
	opts      Options
	upgrader  websocket.Upgrader

	closing   chan struct{}
	closeOnce sync.Once
}

func NewServer(
	log *slog.Logger,
	gateway *services.SessionGateway,
	occupancy Occupancy,
	store contract.IMessageStore,
	relay contract.IMediaRelay,
	health *observability.Health,
	gatherer prometheus.Gatherer,
	resolver contract.IdentityResolver,
	opts Options,
) *Server {
	s := &Server{
		log:       log,
		gateway:   gateway,
		occupancy: occupancy,
		store:     store,
		relay:     relay,
		health:    health,
		gatherer:  gatherer,
		resolver:  resolver,
		opts:      opts,
		closing:   make(chan struct{}),
	}
	s.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     s.checkOrigin,
	}
	return s
}

// WithSearch enables GET /rooms/{room}/search.
func (s *Server) WithSearch(searcher Searcher) *Server {
	s.searcher = searcher
	return s
}

func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.requestLogger)
	r.Use(middleware.Recoverer)

	r.Get("/ws", s.ServeWS)
	r.Get("/uploads/{id}", s.getUpload)
	r.Route("/rooms", func(r chi.Router) {
		r.Get("/", s.listRooms)
		r.Get("/{room}/history", s.getHistory)
		r.Get("/{room}/search", s.searchRoom)
	})
	r.Get("/healthz", s.healthz)
	if s.gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(s.gatherer, promhttp.HandlerOpts{}))
	}
	return r
}

// Shutdown asks every open websocket to close with a going-away frame.
// http.Server.Shutdown doesn't track hijacked connections.
func (s *Server) Shutdown() {
	s.closeOnce.Do(func() { close(s.closing) })
}

// checkOrigin accepts any origin when the allow-list is empty or holds "*".
// Requests without an Origin header don't come from a browser and are accepted.
func (s *Server) checkOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" || len(s.opts.AllowedOrigins) == 0 {
		return true
	}
	return lo.Contains(s.opts.AllowedOrigins, "*") || lo.Contains(s.opts.AllowedOrigins, origin)
}

func (s *Server) requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Debug("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"duration", time.Since(start),
			"request_id", middleware.GetReqID(r.Context()))
	})
}
