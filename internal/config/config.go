package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App       AppConfig
	Keys      APIKeys
	Ai        AIConfig
	Assistant AssistantConfig
	Knowledge KnowledgeConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
}

type APIKeys struct {
	GoogleGemini string
	GitHub       string
}

type AIConfig struct {
	LLMProvider       string // "gemini" or "ollama"
	LLMModel          string
	Temperature       float64
	OllamaBaseURL     string
	OllamaModel       string
	EmbeddingProvider string // "gemini" or "ollama"
	OllamaEmbedModel  string
}

// AssistantConfig carries the conversational pipeline thresholds. The
// defaults are the canonical values; none of them is load-bearing.
type AssistantConfig struct {
	TokenBudget       int
	TokenWarnFraction float64
	SearchK           int
	HistoryWindow     int
	MaxRetries        int
	RetryDelay        time.Duration
	LLMTimeout        time.Duration
	RoleThreshold     float64
	CVDownloadURL     string
}

type KnowledgeConfig struct {
	ProfilePath     string
	GitHubUsername  string
	RefreshInterval time.Duration
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, using system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
		},
		Keys: APIKeys{
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			GitHub:       getEnv("GITHUB_TOKEN", ""),
		},
		Ai: AIConfig{
			LLMProvider:       getEnv("LLM_PROVIDER", "gemini"),
			LLMModel:          getEnv("LLM_MODEL", "gemini-2.5-flash"),
			Temperature:       getEnvAsFloat("LLM_TEMPERATURE", 0.6),
			OllamaBaseURL:     getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:       getEnv("OLLAMA_MODEL", "llama3"),
			EmbeddingProvider: getEnv("EMBEDDING_PROVIDER", "gemini"),
			OllamaEmbedModel:  getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
		},
		Assistant: AssistantConfig{
			TokenBudget:       getEnvAsInt("SESSION_TOKEN_BUDGET", 2000),
			TokenWarnFraction: getEnvAsFloat("SESSION_TOKEN_WARN_FRACTION", 0.8),
			SearchK:           getEnvAsInt("SEARCH_K", 3),
			HistoryWindow:     getEnvAsInt("HISTORY_WINDOW", 5),
			MaxRetries:        getEnvAsInt("LLM_MAX_RETRIES", 3),
			RetryDelay:        getEnvAsDuration("LLM_RETRY_DELAY", 2*time.Second),
			LLMTimeout:        getEnvAsDuration("LLM_TIMEOUT", 30*time.Second),
			RoleThreshold:     getEnvAsFloat("ROLE_IDENTIFY_THRESHOLD", 0.9),
			CVDownloadURL:     getEnv("CV_DOWNLOAD_URL", ""),
		},
		Knowledge: KnowledgeConfig{
			ProfilePath:     getEnv("PROFILE_PATH", "data/profile.json"),
			GitHubUsername:  getEnv("GITHUB_USERNAME", ""),
			RefreshInterval: getEnvAsDuration("KNOWLEDGE_REFRESH_INTERVAL", 24*time.Hour),
		},
	}
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvAsInt(key string, fallback int) int {
	strValue := getEnv(key, "")
	if value, err := strconv.Atoi(strValue); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseFloat(strValue, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
