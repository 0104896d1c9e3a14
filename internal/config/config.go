package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Supported LLM providers.
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
)

// Config holds all configuration for the application.
type Config struct {
	LLMProvider  string
	LLMBaseURL   string
	LLMModelName string
	LLMAPIKey    string
	LLMTimeout   time.Duration
	LLMRateLimit float64 // requests per second, 0 means unlimited

	EmbeddingBaseURL   string
	EmbeddingModelName string

	TranscriptionBaseURL string
	TranscriptionModel   string
	OCRBaseURL           string
	OCRModel             string

	DBPath           string
	QdrantURL        string
	QdrantCollection string
	QdrantVectorSize int

	UploadDir string
	APIPort   string

	ProbeURL             string
	ProbeTimeout         time.Duration
	// MediaRequiresNetwork rejects audio and image imports while the probe reports offline.
	MediaRequiresNetwork bool

	IngestWorkers  int
	CleanMaxTokens int

	LogLevel  slog.Level
	LogFormat string
	LogFile   string
}

// Load reads configuration from environment variables and returns a Config struct.
// It applies defaults for optional fields and validates the rest.
// If a .env file exists in the current directory or one of its parents, it will be loaded automatically.
// Environment variables already set take precedence over .env file values.
func Load() (*Config, error) {
	loadDotEnv()

	llmBaseURL := getEnv("LLM_BASE_URL", "http://localhost:11434/v1")

	cfg := &Config{
		LLMProvider:          strings.ToLower(getEnv("LLM_PROVIDER", ProviderOpenAI)),
		LLMBaseURL:           llmBaseURL,
		LLMModelName:         getEnv("LLM_MODEL", "mistral"),
		LLMAPIKey:            getEnv("LLM_API_KEY", "dummy-key"),
		EmbeddingBaseURL:     getEnv("EMBEDDING_BASE_URL", llmBaseURL),
		EmbeddingModelName:   getEnv("EMBEDDING_MODEL_NAME", "all-minilm"),
		TranscriptionBaseURL: getEnv("TRANSCRIPTION_BASE_URL", llmBaseURL),
		TranscriptionModel:   getEnv("TRANSCRIPTION_MODEL", "whisper-1"),
		OCRBaseURL:           getEnv("OCR_BASE_URL", llmBaseURL),
		OCRModel:             getEnv("OCR_MODEL", "llava"),
		DBPath:               getEnv("DB_PATH", "./data/journal.db"),
		QdrantURL:            getEnv("QDRANT_URL", "http://localhost:6333"),
		QdrantCollection:     getEnv("QDRANT_COLLECTION", "journal_entries"),
		UploadDir:            getEnv("UPLOAD_DIR", "./uploads"),
		APIPort:              getEnv("API_PORT", "9000"),
		ProbeURL:             getEnv("PROBE_URL", "https://stablehorde.net/api/v2/status"),
		LogFormat:            strings.ToLower(getEnv("LOG_FORMAT", "text")),
		LogFile:              getEnv("LOG_FILE", ""),
	}

	if cfg.LLMProvider != ProviderOpenAI && cfg.LLMProvider != ProviderOllama {
		return nil, fmt.Errorf("LLM_PROVIDER must be %q or %q, got %q", ProviderOpenAI, ProviderOllama, cfg.LLMProvider)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}

	var err error
	if cfg.LLMTimeout, err = getDuration("LLM_TIMEOUT", 120*time.Second); err != nil {
		return nil, err
	}
	if cfg.ProbeTimeout, err = getDuration("PROBE_TIMEOUT", 2*time.Second); err != nil {
		return nil, err
	}

	rateStr := getEnv("LLM_RATE_LIMIT", "0")
	cfg.LLMRateLimit, err = strconv.ParseFloat(rateStr, 64)
	if err != nil || cfg.LLMRateLimit < 0 {
		return nil, fmt.Errorf("LLM_RATE_LIMIT must be a non-negative number, got %q", rateStr)
	}

	// Must match the output size of the embeddings model. Changing it requires a reset.
	if cfg.QdrantVectorSize, err = getPositiveInt("QDRANT_VECTOR_SIZE", 384); err != nil {
		return nil, err
	}
	if cfg.IngestWorkers, err = getPositiveInt("INGEST_WORKERS", 1); err != nil {
		return nil, err
	}
	if cfg.CleanMaxTokens, err = getPositiveInt("CLEAN_MAX_TOKENS", 1024); err != nil {
		return nil, err
	}

	mediaStr := getEnv("MEDIA_REQUIRES_NETWORK", "false")
	cfg.MediaRequiresNetwork, err = strconv.ParseBool(mediaStr)
	if err != nil {
		return nil, fmt.Errorf("MEDIA_REQUIRES_NETWORK must be a boolean, got %q", mediaStr)
	}

	levelStr := getEnv("LOG_LEVEL", "info")
	if err := cfg.LogLevel.UnmarshalText([]byte(levelStr)); err != nil {
		return nil, fmt.Errorf("LOG_LEVEL must be debug, info, warn or error, got %q", levelStr)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0755); err != nil {
		return nil, fmt.Errorf("failed to create data directory: %w", err)
	}
	if err := os.MkdirAll(cfg.UploadDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create upload directory: %w", err)
	}

	return cfg, nil
}

// loadDotEnv loads the nearest .env file, searching the working directory and up to four parents.
func loadDotEnv() {
	wd, err := os.Getwd()
	if err != nil {
		return
	}
	dir := wd
	for i := 0; i < 5; i++ {
		envPath := filepath.Join(dir, ".env")
		if _, err := os.Stat(envPath); err == nil {
			_ = godotenv.Load(envPath)
			return
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return
		}
		dir = parent
	}
}

// getEnv gets an environment variable or returns a default value.
func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getDuration(key string, defaultValue time.Duration) (time.Duration, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	d, err := time.ParseDuration(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a duration such as 30s: %w", key, err)
	}
	if d <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return d, nil
}

func getPositiveInt(key string, defaultValue int) (int, error) {
	raw := os.Getenv(key)
	if raw == "" {
		return defaultValue, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be a valid integer: %w", key, err)
	}
	if n <= 0 {
		return 0, fmt.Errorf("%s must be greater than 0", key)
	}
	return n, nil
}
