// Package outcomehttp serves spin outcomes over the same HTTP contract the
// client consumes, so the game can run without an external backend.
package outcomehttp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/MJE43/reelspin/internal/outcome"
	"github.com/MJE43/reelspin/internal/reel"
)

// Options configures a Server.
type Options struct {
	// Addr is the listen address. Defaults to 127.0.0.1:8000.
	Addr string

	// Token, when set, must be presented as a bearer token.
	Token string

	// Reels is the number of columns per outcome. Defaults to 5.
	Reels int

	// Delay holds each response back, to exercise the client's waiting paths.
	Delay time.Duration

	Logger *zap.Logger
}

// Server runs a local HTTP outcome API.
type Server struct {
	opts       Options
	log        *zap.Logger
	httpServer *http.Server
	listener   net.Listener
	startTime  time.Time
	served     atomic.Int64

	mu  sync.Mutex // guards gen
	gen *reel.Generator
}

// New creates a server drawing outcomes from gen. It does not listen until
// Start.
func New(gen *reel.Generator, opts Options) (*Server, error) {
	if gen == nil {
		return nil, errors.New("outcomehttp: generator is required")
	}
	if opts.Addr == "" {
		opts.Addr = "127.0.0.1:8000"
	}
	if opts.Reels <= 0 {
		opts.Reels = 5
	}
	if opts.Delay < 0 {
		return nil, fmt.Errorf("outcomehttp: delay must not be negative, got %s", opts.Delay)
	}
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Server{
		opts:      opts,
		log:       logger.Named("outcomehttp"),
		gen:       gen,
		startTime: time.Now(),
	}, nil
}

// Routes sets up the HTTP routes with middleware.
func (s *Server) Routes() http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(s.logRequest)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(30 * time.Second))

	r.Get("/health", s.handleHealth)
	r.Get(outcome.DefaultPath, s.handleOutcome)

	return r
}

// Start begins listening in a goroutine. It returns when the socket is bound.
func (s *Server) Start() error {
	ln, err := net.Listen("tcp", s.opts.Addr)
	if err != nil {
		return fmt.Errorf("outcomehttp: listen %s: %w", s.opts.Addr, err)
	}
	s.listener = ln
	s.httpServer = &http.Server{
		Handler:      s.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10*time.Second + s.opts.Delay,
	}
	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("serve failed", zap.Error(err))
		}
	}()
	s.log.Info("outcome server listening", zap.String("url", s.URL()), zap.Bool("token_enabled", s.opts.Token != ""))
	return nil
}

// URL returns the base URL clients should use. Valid after Start.
func (s *Server) URL() string {
	if s.listener == nil {
		return "http://" + s.opts.Addr
	}
	return "http://" + s.listener.Addr().String()
}

// Shutdown gracefully stops the HTTP server.
func (s *Server) Shutdown(ctx context.Context) error {
	if s.httpServer == nil {
		return nil
	}
	return s.httpServer.Shutdown(ctx)
}

// Served returns the number of outcomes handed out.
func (s *Server) Served() int64 { return s.served.Load() }

// GET /api/get-reels-slot
func (s *Server) handleOutcome(w http.ResponseWriter, r *http.Request) {
	if !s.authorized(r) {
		writeJSON(w, http.StatusUnauthorized, outcome.Response{Status: "error", Message: "missing or invalid bearer token"})
		return
	}

	if s.opts.Delay > 0 {
		select {
		case <-time.After(s.opts.Delay):
		case <-r.Context().Done():
			return
		}
	}

	s.mu.Lock()
	o := s.gen.GenerateOutcome(s.opts.Reels)
	s.mu.Unlock()

	spinID := uuid.NewString()
	s.served.Add(1)
	s.log.Debug("outcome served",
		zap.String("spin_id", spinID),
		zap.String("request_id", middleware.GetReqID(r.Context())),
	)
	writeJSON(w, http.StatusOK, outcome.Response{
		Status: outcome.StatusSuccess,
		Data:   o.Strings(),
		SpinID: spinID,
	})
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
	Uptime string `json:"uptime"`
	Served int64  `json:"served"`
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, HealthResponse{
		Status: "healthy",
		Uptime: time.Since(s.startTime).Round(time.Second).String(),
		Served: s.Served(),
	})
}

func (s *Server) authorized(r *http.Request) bool {
	if s.opts.Token == "" {
		return true
	}
	got, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
	return ok && got == s.opts.Token
}

func (s *Server) logRequest(next http.Handler) http.Handler {
	fn := func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)
		s.log.Info("request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Int("status", ww.Status()),
			zap.Duration("duration", time.Since(start)),
		)
	}
	return http.HandlerFunc(fn)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
