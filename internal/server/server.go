// Package server assembles the HTTP surface: middleware stack, health and
// metrics endpoints, and the versioned API routes for every game service.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/brainphreak/GPKdex-discord-bot/internal/catalog"
	"github.com/brainphreak/GPKdex-discord-bot/internal/crafting"
	"github.com/brainphreak/GPKdex-discord-bot/internal/database"
	"github.com/brainphreak/GPKdex-discord-bot/internal/handler"
	"github.com/brainphreak/GPKdex-discord-bot/internal/ledger"
	"github.com/brainphreak/GPKdex-discord-bot/internal/logger"
	"github.com/brainphreak/GPKdex-discord-bot/internal/metrics"
	"github.com/brainphreak/GPKdex-discord-bot/internal/pack"
	"github.com/brainphreak/GPKdex-discord-bot/internal/puzzle"
	"github.com/brainphreak/GPKdex-discord-bot/internal/reward"
	"github.com/brainphreak/GPKdex-discord-bot/internal/spawn"
	"github.com/brainphreak/GPKdex-discord-bot/internal/trade"
)

// Services groups every game service the router exposes.
type Services struct {
	Catalog  catalog.Service
	Ledger   ledger.Service
	Reward   reward.Service
	Spawn    spawn.Service
	Trade    trade.Service
	Crafting crafting.Service
	Pack     pack.Service
	Puzzle   puzzle.Service
}

type Server struct {
	httpServer *http.Server
	dbPool     database.Pool
}

// NewServer creates a new Server instance
func NewServer(port int, apiKey string, trustedProxies []string, dbPool database.Pool, svcs Services) *Server {
	r := chi.NewRouter()

	// Middleware stack
	// Chi middleware executes in order defined (outermost to innermost)
	detector := NewSuspiciousActivityDetector()

	r.Use(SecurityHeadersMiddleware())
	r.Use(AuthMiddleware(apiKey, trustedProxies, detector))
	r.Use(SecurityLoggingMiddleware(trustedProxies, detector))
	r.Use(RequestSizeLimitMiddleware(1 << 20)) // 1MB limit
	r.Use(metrics.Middleware)
	r.Use(loggingMiddleware)

	// Health check routes (unversioned)
	r.Get("/healthz", handler.HandleHealthz())
	r.Get("/readyz", handler.HandleReadyz(dbPool))

	// Version endpoint (public, for deployment verification)
	r.Get("/version", handler.HandleVersion())

	// Metrics endpoint (public, for Prometheus scraping)
	r.Handle("/metrics", promhttp.Handler())

	// API v1 routes
	r.Route("/api/v1", func(r chi.Router) {
		userHandler := handler.NewUserHandler(svcs.Ledger, svcs.Reward)
		r.Route("/user", func(r chi.Router) {
			r.Get("/profile", userHandler.Profile)
			r.Get("/inventory", userHandler.Inventory)
			r.Post("/daily", userHandler.Daily)
			r.Post("/claim", userHandler.Claim)
			r.Post("/leveled-claim", userHandler.LeveledClaim)
			r.Post("/item/give", userHandler.GiveItem)
		})

		packHandler := handler.NewPackHandler(svcs.Pack)
		r.Post("/pack/open", packHandler.Open)

		craftingHandler := handler.NewCraftingHandler(svcs.Crafting)
		r.Post("/craft", craftingHandler.Craft)

		puzzleHandler := handler.NewPuzzleHandler(svcs.Puzzle)
		r.Route("/puzzle", func(r chi.Router) {
			r.Get("/progress", puzzleHandler.Progress)
			r.Post("/complete", puzzleHandler.Complete)
		})

		spawnHandler := handler.NewSpawnHandler(svcs.Spawn)
		r.Route("/spawn", func(r chi.Router) {
			r.Post("/activity", spawnHandler.Activity)
			r.Post("/create", spawnHandler.Create)
			r.Post("/claim", spawnHandler.Claim)
			r.Post("/channel", spawnHandler.SetChannel)
			r.Get("/pending", spawnHandler.Pending)
		})

		tradeHandler := handler.NewTradeHandler(svcs.Trade)
		r.Route("/trade", func(r chi.Router) {
			r.Post("/", tradeHandler.Create)
			r.Get("/", tradeHandler.Get)
			r.Post("/line", tradeHandler.AddLine)
			r.Delete("/line", tradeHandler.RemoveLine)
			r.Post("/lock", tradeHandler.Lock)
			r.Post("/confirm", tradeHandler.Confirm)
			r.Post("/cancel", tradeHandler.Cancel)
		})

		catalogHandler := handler.NewCatalogHandler(svcs.Catalog)
		r.Get("/card", catalogHandler.Card)
		r.Get("/puzzles", catalogHandler.Puzzles)
		r.Get("/leaderboard", catalogHandler.Leaderboard)
		r.Get("/collection/stats", catalogHandler.Stats)
	})

	return &Server{
		httpServer: &http.Server{
			Addr:              fmt.Sprintf(":%d", port),
			Handler:           r,
			ReadHeaderTimeout: 5 * time.Second,
		},
		dbPool: dbPool,
	}
}

// responseWriter wraps http.ResponseWriter to capture the status code
type responseWriter struct {
	http.ResponseWriter
	statusCode int
	written    bool
}

func newResponseWriter(w http.ResponseWriter) *responseWriter {
	return &responseWriter{
		ResponseWriter: w,
		statusCode:     http.StatusOK, // default status
	}
}

func (rw *responseWriter) WriteHeader(statusCode int) {
	if !rw.written {
		rw.statusCode = statusCode
		rw.written = true
		rw.ResponseWriter.WriteHeader(statusCode)
	}
}

func (rw *responseWriter) Write(b []byte) (int, error) {
	if !rw.written {
		rw.WriteHeader(http.StatusOK)
	}
	return rw.ResponseWriter.Write(b)
}

func loggingMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()

		// Skip logging for health check endpoints and metrics
		if strings.HasPrefix(r.URL.Path, "/healthz") ||
			strings.HasPrefix(r.URL.Path, "/readyz") ||
			strings.HasPrefix(r.URL.Path, "/metrics") {
			next.ServeHTTP(w, r)
			return
		}

		// Generate unique request ID
		requestID := logger.GenerateRequestID()
		ctx := logger.WithRequestID(r.Context(), requestID)
		r = r.WithContext(ctx)

		log := logger.FromContext(ctx)
		log.Info(LogMsgRequestStarted,
			"method", r.Method,
			"path", r.URL.Path,
			"remote_addr", r.RemoteAddr,
			"content_length", r.ContentLength,
			"user_agent", r.UserAgent())

		// Sanitize headers for logging
		sanitizedHeaders := make(http.Header)
		for k, v := range r.Header {
			if strings.EqualFold(k, HeaderAPIKey) || strings.EqualFold(k, "Authorization") {
				sanitizedHeaders[k] = []string{RedactedValue}
			} else {
				sanitizedHeaders[k] = v
			}
		}
		log.Debug(LogMsgRequestHeaders, "headers", sanitizedHeaders)

		// Wrap response writer to capture status code
		rw := newResponseWriter(w)
		next.ServeHTTP(rw, r)

		duration := time.Since(start)
		log.Info(LogMsgRequestCompleted,
			"method", r.Method,
			"path", r.URL.Path,
			"status", rw.statusCode,
			"duration_ms", duration.Milliseconds(),
			"duration", duration)
	})
}

// Start starts the server
func (s *Server) Start() error {
	slog.Default().Info(LogMsgServerStarting, "addr", s.httpServer.Addr)
	return s.httpServer.ListenAndServe()
}

// Stop stops the server gracefully
func (s *Server) Stop(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}
