package api

import (
	"github.com/Conceptual-Machines/stagehand/internal/api/handlers"
	apimiddleware "github.com/Conceptual-Machines/stagehand/internal/api/middleware"
	"github.com/Conceptual-Machines/stagehand/internal/bridge"
	"github.com/Conceptual-Machines/stagehand/internal/config"
	"github.com/Conceptual-Machines/stagehand/internal/dispatch"
	"github.com/Conceptual-Machines/stagehand/internal/metrics"
	"github.com/Conceptual-Machines/stagehand/internal/remote"
	"github.com/gin-gonic/gin"
)

// Deps are the running components the HTTP surface exposes
type Deps struct {
	Engine     *dispatch.Engine
	Access     *remote.Access
	Generation handlers.HealthProber
	Recorder   *metrics.Recorder

	// Graph, when set, is served with the bridge protocol under /bridge so
	// external tools can drive the in-memory session directly.
	Graph remote.Graph
}

func SetupRouter(cfg *config.Config, deps Deps, version string) *gin.Engine {
	router := gin.New()

	// Recovery middleware (must be first)
	router.Use(apimiddleware.RecoverWithSentry())

	// Sentry middleware for error tracking
	router.Use(apimiddleware.SentryMiddleware())

	// Request tracking and structured logging
	router.Use(apimiddleware.RequestTracking(deps.Recorder))

	// CORS middleware
	router.Use(apimiddleware.CORS(cfg.CORSOrigins...))

	// Health check
	healthHandler := handlers.NewHealthHandler(deps.Access, deps.Generation, cfg.CatalogURL != "", nlpProvider(cfg))
	router.GET("/health", healthHandler.HealthCheck)

	// Metrics endpoint
	metricsHandler := handlers.NewMetricsHandler(version, deps.Recorder, deps.Access, deps.Engine.Status())
	router.GET("/api/metrics", metricsHandler.GetMetrics)

	// Command surface v1
	v1 := router.Group("/api/v1")
	if cfg.IsGatewayMode() {
		v1.Use(apimiddleware.GatewayAuth())
	} else {
		v1.Use(apimiddleware.NoAuth())
	}
	{
		commandHandler := handlers.NewCommandHandler(deps.Engine)
		v1.POST("/commands", commandHandler.Execute)
		v1.GET("/commands", handlers.ListCommands)
		v1.GET("/defaults", commandHandler.Defaults)

		eventsHandler := handlers.NewEventsHandler(deps.Engine.Status())
		v1.GET("/events", eventsHandler.Stream)
		v1.GET("/events/recent", eventsHandler.Recent)
	}

	if deps.Graph != nil {
		bridge.NewHandler(deps.Graph).Register(router.Group("/bridge"))
	}

	return router
}

func nlpProvider(cfg *config.Config) string {
	switch cfg.NLPProvider {
	case "openai":
		if cfg.OpenAIAPIKey == "" {
			return ""
		}
	case "gemini":
		if cfg.GeminiAPIKey == "" {
			return ""
		}
	default:
		if cfg.NLPURL == "" {
			return ""
		}
	}
	return cfg.NLPProvider
}
