package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/Conceptual-Machines/stagehand/internal/api"
	"github.com/Conceptual-Machines/stagehand/internal/bridge"
	"github.com/Conceptual-Machines/stagehand/internal/config"
	"github.com/Conceptual-Machines/stagehand/internal/dispatch"
	"github.com/Conceptual-Machines/stagehand/internal/host"
	"github.com/Conceptual-Machines/stagehand/internal/llm"
	"github.com/Conceptual-Machines/stagehand/internal/logger"
	"github.com/Conceptual-Machines/stagehand/internal/metrics"
	"github.com/Conceptual-Machines/stagehand/internal/observability"
	"github.com/Conceptual-Machines/stagehand/internal/prompt"
	"github.com/Conceptual-Machines/stagehand/internal/remote"
	"github.com/Conceptual-Machines/stagehand/internal/search"
	"github.com/Conceptual-Machines/stagehand/internal/services"
	"github.com/Conceptual-Machines/stagehand/internal/session"
	"github.com/Conceptual-Machines/stagehand/internal/status"
	"github.com/getsentry/sentry-go"
	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
)

const (
	sentryFlushTimeout    = 2 * time.Second
	shutdownTimeout       = 10 * time.Second
	environmentProduction = "production"
)

// releaseVersion is set via ldflags during build
var releaseVersion = "dev"

// GetVersion returns the current release version
func GetVersion() string {
	return releaseVersion
}

func main() {
	// Load environment variables
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using environment variables")
	}

	// Load configuration
	cfg := config.Load()

	// Initialize Sentry
	if cfg.SentryDSN != "" {
		if err := sentry.Init(sentry.ClientOptions{
			Dsn:              cfg.SentryDSN,
			Environment:      cfg.Environment,
			Release:          "stagehand@" + releaseVersion,
			EnableTracing:    true,
			TracesSampleRate: 1.0,
			EnableLogs:       true,
			Debug:            cfg.Environment != environmentProduction,
			BeforeSend: func(event *sentry.Event, _ *sentry.EventHint) *sentry.Event {
				// Filter out sensitive data
				if event.Request != nil {
					event.Request.Headers = filterSensitiveHeaders(event.Request.Headers)
				}
				return event
			},
		}); err != nil {
			log.Printf("Failed to initialize Sentry: %v", err)
		} else {
			log.Printf("✅ Sentry initialized (environment: %s, release: %s)", cfg.Environment, releaseVersion)
			defer sentry.Flush(sentryFlushTimeout)
		}
	} else {
		log.Println("⚠️  Sentry not configured (SENTRY_DSN not set)")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Metrics
	cloud, err := metrics.NewClient(ctx, cfg.Environment)
	if err != nil {
		log.Printf("⚠️  CloudWatch metrics unavailable: %v", err)
	}
	recorder := metrics.NewRecorder(metrics.NewSentryMetrics(cfg.SentryDSN != ""), cloud)

	// Host session
	var graph remote.Graph
	var local *host.Session
	if cfg.HostBridgeURL != "" {
		graph = bridge.NewClient(cfg.HostBridgeURL, nil)
		log.Printf("🎛️  Host bridge: %s", cfg.HostBridgeURL)
	} else {
		local = host.NewDemoSession()
		graph = local
		log.Println("🎛️  Host bridge not configured, using in-memory session")
	}

	retry := remote.DefaultRetryPolicy()
	retry.Attempts = cfg.RetryAttempts
	retry.BaseDelay = cfg.RetryBaseDelay
	retry.OnRetry = func(err error, wait time.Duration) {
		logger.Warn("Retrying host call", logger.Fields{"error": err.Error(), "wait_ms": wait.Milliseconds()})
	}
	access := remote.NewAccess(graph, remote.NewStateCache(cfg.CacheTTL), retry)

	// Collaborators
	opts := []services.Option{services.WithRecorder(recorder)}
	generation := services.NewGenerationClient(cfg.GenerationURL, cfg.CollaboratorTimeout, opts...)

	var catalog search.Catalog
	if cfg.CatalogURL != "" {
		catalog = services.NewCatalogClient(cfg.CatalogURL, cfg.CollaboratorTimeout, opts...)
	}

	tracer := observability.NewTracer(ctx, cfg)
	defer tracer.Flush()

	deps := dispatch.Deps{
		Access:              access,
		Generator:           generation,
		Searcher:            search.NewSearcher(access, catalog, cfg.SearchDedupe),
		Status:              status.NewChannel(status.DefaultHistory),
		Recorder:            recorder,
		ExportDir:           cfg.ExportDir,
		CollaboratorTimeout: cfg.CollaboratorTimeout,
	}
	if cfg.NLPProvider != "http" || cfg.NLPURL != "" {
		interpreter, err := llm.NewInterpreter(ctx, cfg, tracer, nlpInstructions(), opts...)
		if err != nil {
			log.Printf("⚠️  NLP fallback disabled: %v", err)
		} else {
			deps.Interpreter = interpreter
		}
	}

	engine := dispatch.New(deps)
	go engine.Run(ctx)

	// Probe once so the engine starts connected when the generation service is up
	go func() {
		if _, err := engine.Submit(ctx, dispatch.Request{Command: string(dispatch.CmdHealthCheck)}); err != nil {
			logger.Warn("Startup health check not run", logger.Fields{"error": err.Error()})
		}
	}()

	// Set Gin mode
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}

	routerDeps := api.Deps{
		Engine:     engine,
		Access:     access,
		Generation: generation,
		Recorder:   recorder,
	}
	if local != nil {
		routerDeps.Graph = local
	}
	router := api.SetupRouter(cfg, routerDeps, GetVersion())

	srv := &http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Printf("🚀 Starting server on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			sentry.CaptureException(err)
			log.Fatal("Failed to start server:", err)
		}
	}()

	<-ctx.Done()
	log.Println("Shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("Server shutdown: %v", err)
	}
	engine.Wait()
}

// nlpInstructions is the fallback system prompt: startup defaults plus the
// command reference, so the model can point at a real command
func nlpInstructions() string {
	commands := dispatch.Commands()
	refs := make([]prompt.Command, 0, len(commands))
	for _, c := range commands {
		refs = append(refs, prompt.Command{Name: c.Name, Usage: c.Usage})
	}
	text, err := prompt.NewPromptBuilder().
		WithCommands(refs...).
		WithDefaults(session.Startup().Map()).
		BuildPrompt()
	if err != nil {
		log.Printf("⚠️  Using default NLP prompt: %v", err)
		return ""
	}
	return text
}

func filterSensitiveHeaders(headers map[string]string) map[string]string {
	filtered := make(map[string]string)
	sensitiveKeys := map[string]bool{
		"authorization": true,
		"cookie":        true,
		"x-api-key":     true,
	}

	for k, v := range headers {
		if sensitiveKeys[k] {
			filtered[k] = "[REDACTED]"
		} else {
			filtered[k] = v
		}
	}
	return filtered
}
