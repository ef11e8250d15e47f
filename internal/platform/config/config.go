package config

import (
	"log"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// ProviderConfig describes one upstream provider endpoint.
type ProviderConfig struct {
	Name   string
	URL    string
	APIKey string
	// Rate is the credit cost per usage unit as a decimal string (e.g. "0.0025").
	Rate string
}

// Config holds application configuration.
type Config struct {
	DatabaseURL    string
	MigrationsPath string
	Port           string
	IsProduction   bool
	EnableDBCheck  bool

	JWTSecret     string
	JWTIssuer     string
	WebhookSecret string

	// Provider execution
	ProviderTimeout    time.Duration
	RequestTimeout     time.Duration
	SegmentConcurrency int
	TranslateChain     []string
	TranscribeChain    []string
	SpeechChain        []string
	Providers          map[string]ProviderConfig

	// Async jobs
	RelayURL         string
	RelayAPIKey      string
	RelayRate        string
	PublicBaseURL    string
	UploadBaseURL    string
	UploadAPIKey     string
	JobUploadTTL     time.Duration
	JobSweepInterval time.Duration

	// Edge
	RateLimit          string
	CORSAllowedOrigins []string
	PosthogAPIKey      string
}

// LoadConfig loads configuration from environment variables and .env file if present.
func LoadConfig() (*Config, error) {
	// Attempt to load .env file, ignore error if it doesn't exist
	_ = godotenv.Load()

	viper.SetDefault("PGSQL_URL", "")
	viper.SetDefault("MIGRATIONS_PATH", "file://migrations")
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("IS_PRODUCTION", false)
	viper.SetDefault("ENABLE_DB_CHECK", false)
	viper.SetDefault("JWT_SECRET", "a-very-secret-key-should-be-longer-and-random")
	viper.SetDefault("JWT_ISSUER", "usage-billing-app")
	viper.SetDefault("WEBHOOK_SECRET", "")
	viper.SetDefault("PROVIDER_TIMEOUT", "30s")
	viper.SetDefault("REQUEST_TIMEOUT", "120s")
	viper.SetDefault("SEGMENT_CONCURRENCY", 3)
	viper.SetDefault("TRANSLATE_CHAIN", "")
	viper.SetDefault("TRANSCRIBE_CHAIN", "")
	viper.SetDefault("SPEECH_CHAIN", "")
	viper.SetDefault("RELAY_URL", "")
	viper.SetDefault("RELAY_API_KEY", "")
	viper.SetDefault("RELAY_RATE", "")
	viper.SetDefault("PUBLIC_BASE_URL", "http://localhost:8080")
	viper.SetDefault("UPLOAD_BASE_URL", "")
	viper.SetDefault("UPLOAD_API_KEY", "")
	viper.SetDefault("JOB_UPLOAD_TTL", "1h")
	viper.SetDefault("JOB_SWEEP_INTERVAL", "5m")
	viper.SetDefault("RATE_LIMIT", "")
	viper.SetDefault("CORS_ALLOWED_ORIGINS", "")
	viper.SetDefault("POSTHOG_API_KEY", "")

	viper.AutomaticEnv()

	cfg := &Config{}

	cfg.DatabaseURL = viper.GetString("PGSQL_URL")
	if cfg.DatabaseURL == "" {
		log.Println("Warning: PGSQL_URL environment variable not set.")
	}
	cfg.MigrationsPath = viper.GetString("MIGRATIONS_PATH")

	cfg.Port = viper.GetString("PORT")
	if cfg.Port == "" {
		cfg.Port = "8080"
		log.Printf("Warning: PORT environment variable not set. Defaulting to %s\n", cfg.Port)
	}
	cfg.IsProduction = viper.GetBool("IS_PRODUCTION")
	cfg.EnableDBCheck = viper.GetBool("ENABLE_DB_CHECK")

	cfg.JWTSecret = viper.GetString("JWT_SECRET")
	if cfg.JWTSecret == "" {
		cfg.JWTSecret = "a-very-secret-key-should-be-longer-and-random" // !! CHANGE IN PRODUCTION !!
		log.Println("Warning: JWT_SECRET environment variable not set. Using default insecure key.")
	}
	cfg.JWTIssuer = viper.GetString("JWT_ISSUER")

	cfg.WebhookSecret = viper.GetString("WEBHOOK_SECRET")
	if cfg.WebhookSecret == "" {
		log.Println("Warning: WEBHOOK_SECRET not set. Callback signatures will be rejected.")
	}

	cfg.ProviderTimeout = durationOrDefault("PROVIDER_TIMEOUT", 30*time.Second)
	cfg.RequestTimeout = durationOrDefault("REQUEST_TIMEOUT", 2*time.Minute)
	cfg.SegmentConcurrency = viper.GetInt("SEGMENT_CONCURRENCY")
	if cfg.SegmentConcurrency <= 0 {
		log.Printf("Warning: Invalid SEGMENT_CONCURRENCY (%d). Defaulting to 3.\n", cfg.SegmentConcurrency)
		cfg.SegmentConcurrency = 3
	}

	cfg.TranslateChain = splitList(viper.GetString("TRANSLATE_CHAIN"))
	cfg.TranscribeChain = splitList(viper.GetString("TRANSCRIBE_CHAIN"))
	cfg.SpeechChain = splitList(viper.GetString("SPEECH_CHAIN"))
	cfg.Providers = loadProviders(cfg.TranslateChain, cfg.TranscribeChain, cfg.SpeechChain)

	cfg.RelayURL = viper.GetString("RELAY_URL")
	cfg.RelayAPIKey = viper.GetString("RELAY_API_KEY")
	cfg.RelayRate = viper.GetString("RELAY_RATE")
	if cfg.RelayURL == "" {
		log.Println("Warning: RELAY_URL not set. Async transcription jobs cannot be dispatched.")
	}
	cfg.PublicBaseURL = strings.TrimRight(viper.GetString("PUBLIC_BASE_URL"), "/")
	cfg.UploadBaseURL = strings.TrimRight(viper.GetString("UPLOAD_BASE_URL"), "/")
	cfg.UploadAPIKey = viper.GetString("UPLOAD_API_KEY")
	cfg.JobUploadTTL = durationOrDefault("JOB_UPLOAD_TTL", time.Hour)
	cfg.JobSweepInterval = durationOrDefault("JOB_SWEEP_INTERVAL", 5*time.Minute)

	cfg.RateLimit = viper.GetString("RATE_LIMIT")
	cfg.CORSAllowedOrigins = splitList(viper.GetString("CORS_ALLOWED_ORIGINS"))
	cfg.PosthogAPIKey = viper.GetString("POSTHOG_API_KEY")

	return cfg, nil
}

// loadProviders reads PROVIDER_<NAME>_URL, _KEY and _RATE for every provider named in a chain.
func loadProviders(chains ...[]string) map[string]ProviderConfig {
	providers := make(map[string]ProviderConfig)
	for _, chain := range chains {
		for _, name := range chain {
			if _, ok := providers[name]; ok {
				continue
			}
			prefix := "PROVIDER_" + strings.ToUpper(strings.ReplaceAll(name, "-", "_"))
			pc := ProviderConfig{
				Name:   name,
				URL:    viper.GetString(prefix + "_URL"),
				APIKey: viper.GetString(prefix + "_KEY"),
				Rate:   viper.GetString(prefix + "_RATE"),
			}
			if pc.URL == "" {
				log.Printf("Warning: %s_URL not set. Provider %s will fail every call.\n", prefix, name)
			}
			if pc.Rate == "" {
				log.Printf("Warning: %s_RATE not set. Usage from %s cannot be priced.\n", prefix, name)
			}
			providers[name] = pc
		}
	}
	return providers
}

func durationOrDefault(key string, def time.Duration) time.Duration {
	raw := viper.GetString(key)
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		if raw != "" {
			log.Printf("Warning: Invalid value for %s ('%s'). Defaulting to %s.\n", key, raw, def.String())
		}
		return def
	}
	return d
}

func splitList(raw string) []string {
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
