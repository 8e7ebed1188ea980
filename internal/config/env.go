package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// Config is built once at startup and treated as read-only afterwards.
// Components receive it (or the individual fields they need) through
// their constructors; nothing reads the environment after LoadConfig
// returns.
type Config struct {
	Port        string
	DatabaseURL string
	JWTSecret   string

	AwsAccessKey string
	AwsSecretKey string
	AwsRegion    string
	BucketName   string

	OpenAIAPIKey string
	OpenAIModel  string
	GeminiAPIKey string
	GeminiModel  string

	// Upload ceiling in bytes, enforced before a document is created.
	MaxFileSize int64

	// Defaults for the per-document processing strategy.
	ChunkSize    int
	ChunkOverlap int
	// The baseline splitter ignores ChunkOverlap unless this is set.
	HonorChunkOverlap bool

	// Stale-document sweeper.
	SweepInterval time.Duration
	SweepAfter    time.Duration

	// Behavioral tracking collector; empty disables tracking.
	TrackingEndpoint string
	TrackingAPIKey   string
}

// LoadConfig loads the environment variables and returns the config.
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		Port:        getEnv("PORT", "8080"),
		DatabaseURL: getEnv("DATABASE_URL", ""),
		JWTSecret:   getEnv("JWT_SECRET", ""),

		AwsAccessKey: getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey: getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:    getEnv("AWS_REGION", "us-east-2"),
		BucketName:   getEnv("BUCKET_NAME", "notebookbobu-documents"),

		OpenAIAPIKey: getEnv("OPENAI_API_KEY", ""),
		OpenAIModel:  getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GeminiAPIKey: getEnv("GEMINI_API_KEY", ""),
		GeminiModel:  getEnv("GEMINI_MODEL", "gemini-1.5-flash"),

		MaxFileSize: int64(getEnvInt("MAX_FILE_SIZE", 50<<20)),

		ChunkSize:         getEnvInt("CHUNK_SIZE", 1000),
		ChunkOverlap:      getEnvInt("CHUNK_OVERLAP", 200),
		HonorChunkOverlap: getEnvBool("HONOR_CHUNK_OVERLAP", false),

		SweepInterval: getEnvDuration("SWEEP_INTERVAL", 5*time.Minute),
		SweepAfter:    getEnvDuration("SWEEP_AFTER", 15*time.Minute),

		TrackingEndpoint: getEnv("TRACKING_ENDPOINT", ""),
		TrackingAPIKey:   getEnv("TRACKING_API_KEY", ""),
	}

	if cfg.JWTSecret == "" {
		log.Println("WARN: JWT_SECRET not set; tokens will be signed with an empty key")
	}

	return cfg
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a bool, using default %t", key, v, def)
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a duration, using default %s", key, v, def)
		return def
	}
	return d
}
