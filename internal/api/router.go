package api

import (
	"encoding/json"
	"net/http"
	"runtime"
	"sync/atomic"
	"time"

	"github.com/credence-ai/credence/internal/api/handlers"
	mw "github.com/credence-ai/credence/internal/api/middleware"
	"github.com/credence-ai/credence/internal/assessor"
	"github.com/credence-ai/credence/internal/config"
	"github.com/credence-ai/credence/internal/domain"
	"github.com/credence-ai/credence/internal/embedding"
	"github.com/credence-ai/credence/internal/service"
	"github.com/credence-ai/credence/internal/store"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"
)

// App holds the router and background services for lifecycle management.
type App struct {
	Router       *chi.Mux
	Retention    *service.RetentionService
	startTime    time.Time
	requestCount atomic.Int64
	errorCount   atomic.Int64
}

func NewApp(db *pgxpool.Pool, logger *zap.Logger) *App {
	// Stores
	tenantStore := store.NewTenantStore(db)
	runStore := store.NewRunStore(db)
	traceStore := store.NewTraceStore(db)
	evidenceStore := store.NewEvidenceStore(db)

	// External clients via provider factory
	assessorClient, err := assessor.NewClient(config.AssessorProvider(), config.AssessorAPIKey())
	if err != nil {
		logger.Warn("assessor client initialization failed",
			zap.String("provider", config.AssessorProvider()), zap.Error(err))
		assessorClient = assessor.NewMockClient()
	} else {
		logger.Info("assessor client initialized", zap.String("provider", config.AssessorProvider()))
	}

	embeddingClient, err := embedding.NewClient(config.EmbeddingProvider(), config.EmbeddingAPIKey())
	if err != nil {
		logger.Warn("embedding client initialization failed",
			zap.String("provider", config.EmbeddingProvider()), zap.Error(err))
	} else {
		logger.Info("embedding client initialized", zap.String("provider", config.EmbeddingProvider()))
	}

	// Services
	runSvc := service.NewRunService(assessorClient, runStore, traceStore, logger)
	runSvc.Controller().AssessTimeout = config.AssessTimeout()
	runSvc.Controller().MaxConcurrency = config.MaxConcurrency()
	if embeddingClient != nil {
		runSvc.SetEmbeddingClient(embeddingClient)
	}
	evidenceSvc := service.NewEvidenceService(evidenceStore, embeddingClient, logger)
	retentionSvc := service.NewRetentionService(runStore, config.RunRetentionDays(), logger)

	// Handlers
	tenantHandler := handlers.NewTenantHandler(tenantStore)
	runHandler := handlers.NewRunHandler(runSvc)
	evidenceHandler := handlers.NewEvidenceHandler(evidenceSvc)

	r := chi.NewRouter()

	app := &App{
		Router:    r,
		Retention: retentionSvc,
		startTime: time.Now(),
	}

	// Metrics collector for middleware
	metricsCollector := mw.NewMetricsCollector(&app.requestCount, &app.errorCount)

	// Global middleware (order matters)
	r.Use(mw.RequestID)
	r.Use(middleware.RealIP)
	r.Use(metricsCollector.Middleware)
	r.Use(mw.Logging(logger))
	r.Use(middleware.Recoverer)
	r.Use(mw.RateLimit(config.RateLimitRPS(), config.RateLimitBurst()))

	// Health (no auth)
	r.Get("/health", healthHandler(db))

	// Metrics (no auth)
	r.Get("/metrics", app.metricsHandler())

	// Tenant creation (no auth, bootstrap endpoint)
	r.Post("/v1/tenants", tenantHandler.Create)

	// Authenticated routes
	r.Route("/v1", func(r chi.Router) {
		r.Use(mw.APIKeyAuth(tenantStore))

		// Aggregation runs
		r.Route("/runs", func(r chi.Router) {
			r.Post("/", runHandler.Create)
			r.Get("/", runHandler.List)
			r.Route("/{id}", func(r chi.Router) {
				r.Get("/", runHandler.GetByID)
				r.Get("/trace", runHandler.GetTrace)
			})
		})

		// Evidence corpus
		r.Route("/evidence", func(r chi.Router) {
			r.Post("/", evidenceHandler.Create)
			r.Post("/similar", evidenceHandler.FindSimilar)
			r.Get("/{id}", evidenceHandler.GetByID)
		})
	})

	return app
}

// NewRouter returns just the chi.Mux for callers that manage lifecycle
// themselves.
func NewRouter(db *pgxpool.Pool, logger *zap.Logger) *chi.Mux {
	return NewApp(db, logger).Router
}

func healthHandler(db *pgxpool.Pool) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := db.Ping(r.Context()); err != nil {
			w.Header().Set("Content-Type", "application/json")
			w.WriteHeader(http.StatusServiceUnavailable)
			_ = json.NewEncoder(w).Encode(map[string]string{"status": "error", "error": err.Error()})
			return
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
	}
}

func (app *App) metricsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var memStats runtime.MemStats
		runtime.ReadMemStats(&memStats)

		uptime := time.Since(app.startTime)

		response := map[string]any{
			"uptime_seconds": uptime.Seconds(),
			"uptime_human":   uptime.Round(time.Second).String(),
			"request_count":  app.requestCount.Load(),
			"error_count":    app.errorCount.Load(),
			"goroutines":     runtime.NumGoroutine(),
			"memory": map[string]any{
				"alloc_mb":       float64(memStats.Alloc) / 1024 / 1024,
				"total_alloc_mb": float64(memStats.TotalAlloc) / 1024 / 1024,
				"sys_mb":         float64(memStats.Sys) / 1024 / 1024,
				"num_gc":         memStats.NumGC,
			},
			"go_version": runtime.Version(),
		}

		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_ = json.NewEncoder(w).Encode(response)
	}
}

// Ensure stores and clients satisfy interfaces at compile time.
var (
	_ domain.TenantStore     = (*store.TenantStore)(nil)
	_ domain.RunStore        = (*store.RunStore)(nil)
	_ domain.TraceStore      = (*store.TraceStore)(nil)
	_ domain.EvidenceStore   = (*store.EvidenceStore)(nil)
	_ domain.EmbeddingClient = (*embedding.OpenAIClient)(nil)
	_ domain.EmbeddingClient = (*embedding.MockClient)(nil)
	_ domain.AssessorClient  = (*assessor.OpenAIClient)(nil)
	_ domain.AssessorClient  = (*assessor.AnthropicClient)(nil)
	_ domain.AssessorClient  = (*assessor.MockClient)(nil)
)
