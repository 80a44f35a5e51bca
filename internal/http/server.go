// Package http is the presentation surface: a thin htmx-driven web UI
// over the application controller. It renders the entry form, the
// expense table and the category breakdown as server-side partials.
package http

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"html/template"
	"io/fs"
	"log/slog"
	"net/http"
	"time"

	"expenses/assets"
	"expenses/internal/app"
	"expenses/internal/cache"
	applog "expenses/internal/log"
)

type Server struct {
	http.Server
	templates *template.Template
	ctrl      *app.Controller

	// Rendered partials are cached until a mutation invalidates them.
	tableCache *cache.LRUCache[string]
	chartCache *cache.LRUCache[string]
}

// NewServer configures routes and templates, returning a
// ready-to-run server.
func NewServer(addr string, ctrl *app.Controller, cacheSize int, cacheTTL time.Duration) (*Server, error) {
	mux := http.NewServeMux()

	s := &Server{
		Server: http.Server{
			Addr:    addr,
			Handler: mux,
		},
		ctrl:       ctrl,
		tableCache: cache.NewLRUCache[string](cacheSize, cacheTTL),
		chartCache: cache.NewLRUCache[string](cacheSize, cacheTTL),
	}

	t, err := template.ParseFS(assets.TemplatesFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parse templates: %w", err)
	}
	s.templates = t

	// Static assets (served from embedded FS)
	sub, err := fs.Sub(assets.StaticFS, "static")
	if err != nil {
		return nil, fmt.Errorf("mount embedded static FS: %w", err)
	}
	static := http.StripPrefix("/static/", http.FileServer(http.FS(sub)))
	mux.Handle("/static/", http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Cache-Control", "public, max-age=3600, immutable")
		static.ServeHTTP(w, r)
	}))

	mux.HandleFunc("/", s.withRequestLog(s.handleIndex))
	mux.HandleFunc("/healthz", handleHealth)
	mux.HandleFunc("/expenses", s.withRequestLog(s.handleCreateExpense))
	mux.HandleFunc("/expenses/delete", s.withRequestLog(s.handleDeleteSelected))
	mux.HandleFunc("/select", s.withRequestLog(s.handleSelectRow))
	mux.HandleFunc("/theme", s.withRequestLog(s.handleToggleTheme))
	// UI partials
	mux.HandleFunc("/ui/expenses", s.withRequestLog(s.handleExpenseTable))
	mux.HandleFunc("/ui/breakdown", s.withRequestLog(s.handleBreakdown))

	return s, nil
}

// withRequestLog adds security headers and request logging to responses
func (s *Server) withRequestLog(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		clientIP := r.Header.Get("X-Forwarded-For")
		if clientIP == "" {
			clientIP = r.RemoteAddr
		}

		requestID := generateRequestID()
		ctx := context.WithValue(r.Context(), requestIDKey{}, requestID)
		r = r.WithContext(ctx)

		slog.InfoContext(ctx, "Request started",
			applog.FieldComponent, applog.ComponentHTTP,
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldClientIP, clientIP)

		w.Header().Set("X-Content-Type-Options", "nosniff")
		w.Header().Set("X-Frame-Options", "DENY")
		w.Header().Set("Content-Security-Policy", "default-src 'self'; script-src 'self' https://unpkg.com 'unsafe-eval'; style-src 'self' 'unsafe-inline'; img-src 'self' data:; connect-src 'self'")
		w.Header().Set("Referrer-Policy", "strict-origin-when-cross-origin")

		rw := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}
		next(rw, r)

		slog.InfoContext(ctx, "Request completed",
			applog.FieldComponent, applog.ComponentHTTP,
			applog.FieldRequestID, requestID,
			applog.FieldMethod, r.Method,
			applog.FieldPath, r.URL.Path,
			applog.FieldStatusCode, rw.statusCode,
			applog.FieldDuration, time.Since(start).Milliseconds())
	}
}

type requestIDKey struct{}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// generateRequestID creates a unique request ID for tracing
func generateRequestID() string {
	bytes := make([]byte, 8)
	if _, err := rand.Read(bytes); err != nil {
		// Fallback to timestamp if random fails
		return fmt.Sprintf("req_%d", time.Now().UnixNano())
	}
	return "req_" + hex.EncodeToString(bytes)
}

func handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) invalidatePartials() {
	s.tableCache.Delete(partialCacheKey)
	s.chartCache.Delete(partialCacheKey)
}
