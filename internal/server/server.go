package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/agleyzer/svtrec/internal/parser"
	"github.com/agleyzer/svtrec/internal/playlist"
	"github.com/agleyzer/svtrec/internal/recorder"
	"github.com/agleyzer/svtrec/internal/report"
	"github.com/agleyzer/svtrec/internal/variant"
)

// Server exposes stream listings over HTTP
type Server struct {
	recorder   *recorder.Recorder
	port       int
	logger     *slog.Logger
	httpServer *http.Server
}

// New creates a new HTTP server
func New(rec *recorder.Recorder, port int, logger *slog.Logger) *Server {
	return &Server{
		recorder: rec,
		port:     port,
		logger:   logger,
	}
}

// Handler returns the routes wrapped in request logging.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/streams", s.handleStreams)
	mux.HandleFunc("/playlist.m3u8", s.handlePlaylist)
	mux.HandleFunc("/health", s.handleHealth)

	return s.loggingMiddleware(mux)
}

// Start starts the HTTP server and blocks until ctx is cancelled
func (s *Server) Start(ctx context.Context) error {
	s.httpServer = &http.Server{
		Addr:    fmt.Sprintf(":%d", s.port),
		Handler: s.Handler(),
	}

	go func() {
		s.logger.Info("starting HTTP server", "port", s.port)
		if err := s.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			s.logger.Error("HTTP server error", "error", err)
		}
	}()

	<-ctx.Done()

	s.logger.Info("shutting down HTTP server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	return s.httpServer.Shutdown(shutdownCtx)
}

// plan runs the pipeline for the url and bitrate query parameters.
func (s *Server) plan(w http.ResponseWriter, r *http.Request) (*recorder.Plan, bool) {
	q := r.URL.Query()

	pageURL := q.Get("url")
	if pageURL == "" {
		http.Error(w, "missing url parameter", http.StatusBadRequest)
		return nil, false
	}

	rec := s.recorder
	if b := q.Get("bitrate"); b != "" {
		bitrate, err := variant.ParseBitrate(b)
		if err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return nil, false
		}
		rec = rec.WithMinBitrate(bitrate)
	}

	plan, err := rec.Plan(r.Context(), pageURL)
	if err != nil {
		s.logger.Error("failed to plan", "url", pageURL, "error", err)
		http.Error(w, err.Error(), statusFor(err))
		return nil, false
	}

	return plan, true
}

// handleStreams serves the stream listing for a show page
func (s *Server) handleStreams(w http.ResponseWriter, r *http.Request) {
	format := r.URL.Query().Get("format")
	if format == "" {
		format = "json"
	}

	formatter, err := report.New(format)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	plan, ok := s.plan(w, r)
	if !ok {
		return
	}

	body, err := formatter.Format(plan)
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", contentType(format))
	w.WriteHeader(http.StatusOK)
	w.Write(body)
}

// handlePlaylist serves a master playlist with absolute URIs for the show
func (s *Server) handlePlaylist(w http.ResponseWriter, r *http.Request) {
	plan, ok := s.plan(w, r)
	if !ok {
		return
	}

	if plan.Kind == parser.KindMedia {
		http.Error(w, "manifest is a media playlist, play "+plan.BaseURL+" directly", http.StatusUnprocessableEntity)
		return
	}

	onlyAuto := r.URL.Query().Get("bitrate") != ""
	content, err := playlist.BuildMaster(plan.Selection, onlyAuto)
	if err != nil {
		http.Error(w, err.Error(), http.StatusNotFound)
		return
	}

	// Set HLS-specific headers
	w.Header().Set("Content-Type", "application/vnd.apple.mpegurl")
	w.Header().Set("Cache-Control", "no-cache, no-store, must-revalidate")
	w.Header().Set("Access-Control-Allow-Origin", "*")

	w.WriteHeader(http.StatusOK)
	w.Write([]byte(content))
}

// handleHealth serves health check information
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// statusFor maps pipeline failures to a status code. Fetch, parse and
// resolution failures are all problems upstream of us.
func statusFor(err error) int {
	if errors.Is(err, context.Canceled) {
		return http.StatusServiceUnavailable
	}
	return http.StatusBadGateway
}

func contentType(format string) string {
	switch format {
	case "yaml":
		return "application/yaml"
	case "text":
		return "text/plain; charset=utf-8"
	default:
		return "application/json"
	}
}

// loggingMiddleware logs HTTP requests
func (s *Server) loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Wrap the response writer to capture status code
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		s.logger.Info("HTTP request",
			"method", r.Method,
			"path", r.URL.Path,
			"remote", r.RemoteAddr,
			"status", wrapped.statusCode,
			"duration", time.Since(start),
		)
	})
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}
