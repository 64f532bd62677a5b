package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"
)

// Config holds the application configuration
// Note: the bridge is stateless apart from the live session; no database or
// user secrets are needed. Auth is delegated to the gateway.
type Config struct {
	// Environment
	Environment string
	Port        string

	// Host and collaborators
	HostBridgeURL       string // HTTP bridge of the host; empty means in-memory session
	GenerationURL       string
	CatalogURL          string // empty disables catalog search
	NLPURL              string
	NLPProvider         string // "http", "openai" or "gemini"
	NLPModel            string
	NLPReasoning        string // reasoning effort for reasoning models: minimal, low, medium, high
	CollaboratorTimeout time.Duration

	// LLM API Keys
	OpenAIAPIKey string
	GeminiAPIKey string

	// Remote access tuning
	CacheTTL       time.Duration
	RetryAttempts  uint
	RetryBaseDelay time.Duration

	// Commands
	ExportDir    string // where export_midi writes .mid files
	SearchDedupe bool   // drop catalog results whose path already came from the host

	// Observability
	SentryDSN         string
	LangfusePublicKey string
	LangfuseSecretKey string
	LangfuseHost      string
	LangfuseEnabled   bool

	// Browser origins allowed to call the API; empty allows any
	CORSOrigins []string

	// Auth mode
	// - "none": No auth (self-hosted, local dev)
	// - "gateway": Trust X-User-* headers from the gateway
	AuthMode string
}

func Load() *Config {
	return &Config{
		Environment:         getEnv("ENVIRONMENT", "development"),
		Port:                getEnv("PORT", "8080"),
		HostBridgeURL:       getEnv("HOST_BRIDGE_URL", ""),
		GenerationURL:       getEnv("GENERATION_URL", "http://localhost:5000"),
		CatalogURL:          getEnv("CATALOG_URL", ""),
		NLPURL:              getEnv("NLP_URL", ""),
		NLPProvider:         getEnv("NLP_PROVIDER", "http"),
		NLPModel:            getEnv("NLP_MODEL", "gpt-5-mini"),
		NLPReasoning:        getEnv("NLP_REASONING", "low"),
		CollaboratorTimeout: getDuration("COLLABORATOR_TIMEOUT", 10*time.Second),
		OpenAIAPIKey:        getEnv("OPENAI_API_KEY", ""),
		GeminiAPIKey:        getEnv("GEMINI_API_KEY", ""),
		CacheTTL:            getDuration("CACHE_TTL", time.Second),
		RetryAttempts:       getUint("RETRY_ATTEMPTS", 3),
		RetryBaseDelay:      getDuration("RETRY_BASE_DELAY", time.Second),
		ExportDir:           getEnv("EXPORT_DIR", "./exports"),
		SearchDedupe:        getEnv("SEARCH_DEDUPE", "false") == "true",
		SentryDSN:           getEnv("SENTRY_DSN", ""),
		LangfusePublicKey:   getEnv("LANGFUSE_PUBLIC_KEY", ""),
		LangfuseSecretKey:   getEnv("LANGFUSE_SECRET_KEY", ""),
		LangfuseHost:        getEnv("LANGFUSE_HOST", "https://cloud.langfuse.com"),
		LangfuseEnabled:     getEnv("LANGFUSE_ENABLED", "false") == "true",
		CORSOrigins:         getList("CORS_ORIGINS"),
		AuthMode:            getEnv("AUTH_MODE", "none"), // Default to no auth for self-hosted
	}
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getList(key string) []string {
	var out []string
	for _, v := range strings.Split(os.Getenv(key), ",") {
		if v = strings.TrimSpace(v); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		log.Printf("⚠️  Invalid %s=%q, using %v", key, raw, defaultValue)
		return defaultValue
	}
	return d
}

func getUint(key string, defaultValue uint) uint {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue
	}
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || n == 0 {
		log.Printf("⚠️  Invalid %s=%q, using %d", key, raw, defaultValue)
		return defaultValue
	}
	return uint(n)
}

// IsGatewayMode returns true if running behind the gateway
func (c *Config) IsGatewayMode() bool {
	return c.AuthMode == "gateway"
}

// IsProduction reports whether production-only integrations should run
func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}
