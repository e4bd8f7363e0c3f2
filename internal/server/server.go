// Package server provides the HTTP server for signspeak.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/charmbracelet/log"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"

	"github.com/ayusman/signspeak/internal/app"
	"github.com/ayusman/signspeak/internal/gesture"
	"github.com/ayusman/signspeak/internal/server/api"
	"github.com/ayusman/signspeak/internal/speech"
)

var logger = log.WithPrefix("http")

const shutdownTimeout = 5 * time.Second

// Config holds the server configuration.
type Config struct {
	StaticDir  string
	Translator *gesture.Translator
	// Announcer backs /api/speech and announced classifications. Optional.
	Announcer *speech.Announcer
	// App backs /api/camera and /api/stream. Optional.
	App *app.App
	// Transcriber backs /api/transcribe. Optional.
	Transcriber speech.Transcriber
	// Lang is the default transcription language.
	Lang string
	// RateLimit is the per-IP request budget per minute on /api. Zero disables it.
	RateLimit      int
	AllowedOrigins []string
}

// Server represents the HTTP server for the signspeak application.
type Server struct {
	config Config
	router chi.Router
	hub    *Hub
	start  time.Time
}

// New creates a new Server with the given configuration. A nil Translator
// uses the default classifier and lexicon.
func New(config Config) *Server {
	if config.Translator == nil {
		config.Translator = gesture.DefaultTranslator()
	}
	if len(config.AllowedOrigins) == 0 {
		config.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		config: config,
		router: chi.NewRouter(),
		hub:    NewHub(config.Translator, config.Announcer),
		start:  time.Now(),
	}
	s.setupRoutes()
	s.wireBroadcasts()
	return s
}

// setupRoutes configures all HTTP routes for the server.
func (s *Server) setupRoutes() {
	r := s.router
	r.Use(middleware.RequestID)
	r.Use(requestLogger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: s.config.AllowedOrigins,
		AllowedMethods: []string{"GET", "POST", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type", "X-Request-Id"},
	}))

	r.Route("/api", func(r chi.Router) {
		if s.config.RateLimit > 0 {
			r.Use(httprate.LimitByIP(s.config.RateLimit, time.Minute))
		}

		r.Get("/health", s.handleHealth)
		r.Handle("/classify", api.NewClassifyHandler(s.config.Translator, s.config.Announcer))
		r.Handle("/lexicon", api.NewLexiconHandler(s.config.Translator))
		r.Handle("/ws", s.hub)

		if s.config.Announcer != nil {
			speechHandler := api.NewSpeechHandler(s.config.Announcer)
			r.Handle("/speech", speechHandler)
			r.Handle("/speech/*", speechHandler)
		}

		if s.config.Transcriber != nil {
			r.Handle("/transcribe", api.NewTranscribeHandler(s.config.Transcriber, s.config.Lang))
		}

		var camera api.CameraController
		if s.config.App != nil {
			camera = s.config.App
			r.Handle("/stream", NewStreamHandler(s.config.App, s.config.App.FPS()))
		}
		r.Handle("/camera", api.NewCameraHandler(camera))
	})

	if s.config.StaticDir != "" {
		r.Handle("/*", http.FileServer(http.Dir(s.config.StaticDir)))
	}
}

// wireBroadcasts forwards pipeline results and announcer changes to
// WebSocket clients.
func (s *Server) wireBroadcasts() {
	if s.config.App != nil {
		s.config.App.OnResult(func(res gesture.Result) {
			s.hub.Broadcast(Message{Type: MessageCamera, Result: &res})
		})
	}
	if s.config.Announcer != nil {
		s.config.Announcer.OnChange(func(st speech.State) {
			s.hub.Broadcast(Message{Type: MessageSpeech, State: &st})
		})
	}
}

// ServeHTTP implements the http.Handler interface.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

// Hub returns the WebSocket hub.
func (s *Server) Hub() *Hub {
	return s.hub
}

// handleHealth handles GET requests to /api/health.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	uptime := time.Since(s.start)

	response := map[string]interface{}{
		"status": "ok",
		"uptime": uptime.String(),
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(response); err != nil {
		http.Error(w, "Failed to encode response", http.StatusInternalServerError)
		return
	}
}

// ListenAndServe starts the HTTP server on the given address.
func (s *Server) ListenAndServe(addr string) error {
	return s.Run(context.Background(), addr)
}

// Run serves on addr until ctx is cancelled, then shuts down gracefully and
// disconnects WebSocket clients.
func (s *Server) Run(ctx context.Context, addr string) error {
	srv := &http.Server{
		Addr:              addr,
		Handler:           s,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("listening", "url", "http://"+addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.hub.Close()
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	if err := <-errCh; !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// requestLogger logs each request through charmbracelet/log.
func requestLogger(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()
		next.ServeHTTP(ww, r)

		logger.Debug("request",
			"method", r.Method,
			"path", r.URL.Path,
			"status", ww.Status(),
			"bytes", ww.BytesWritten(),
			"dur", time.Since(start),
			"id", middleware.GetReqID(r.Context()),
		)
	})
}
