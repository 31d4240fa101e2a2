package config

import (
	"os"
	"strconv"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	LLM      LLMConfig
	Weaviate WeaviateConfig
	Redis    RedisConfig
	Worker   WorkerConfig
	App      AppConfig
}

type ServerConfig struct {
	Port         string
	Host         string
	ReadTimeout  int
	WriteTimeout int
	IdleTimeout  int
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// LLMConfig holds settings for the OpenAI-compatible endpoint used by
// classification, reranking, answer generation and embeddings.
type LLMConfig struct {
	BaseURL        string
	APIKey         string
	ChatModel      string
	EmbeddingModel string
	Timeout        int // seconds, applied per call
}

type WeaviateConfig struct {
	Host   string
	Port   string
	Scheme string
	Class  string
}

type RedisConfig struct {
	URL      string
	Username string
	Password string
}

type WorkerConfig struct {
	Count        int
	PollInterval int // seconds between claim attempts per worker
}

type AppConfig struct {
	Environment string
	LogLevel    string
}

func Load() *Config {
	return &Config{
		Server: ServerConfig{
			Port:         getEnv("SERVER_PORT", "8080"),
			Host:         getEnv("SERVER_HOST", "0.0.0.0"),
			ReadTimeout:  getEnvAsInt("SERVER_READ_TIMEOUT", 15),
			WriteTimeout: getEnvAsInt("SERVER_WRITE_TIMEOUT", 30),
			IdleTimeout:  getEnvAsInt("SERVER_IDLE_TIMEOUT", 60),
		},
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnv("DB_PORT", "5432"),
			User:     getEnv("DB_USER", "postgres"),
			Password: getEnv("DB_PASSWORD", ""),
			DBName:   getEnv("DB_NAME", "masslaw"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		LLM: LLMConfig{
			BaseURL:        getEnv("LLM_BASE_URL", "https://api.openai.com/v1"),
			APIKey:         getEnv("LLM_API_KEY", ""),
			ChatModel:      getEnv("LLM_CHAT_MODEL", "gpt-4o-mini"),
			EmbeddingModel: getEnv("LLM_EMBEDDING_MODEL", "text-embedding-3-small"),
			Timeout:        getEnvAsInt("LLM_TIMEOUT", 30),
		},
		Weaviate: WeaviateConfig{
			Host:   getEnv("WEAVIATE_HOST", "localhost"),
			Port:   getEnv("WEAVIATE_PORT", "7080"),
			Scheme: getEnv("WEAVIATE_SCHEME", "http"),
			Class:  getEnv("WEAVIATE_CLASS", "LegalChunk"),
		},
		Redis: RedisConfig{
			URL:      getEnv("REDIS_URL", ""),
			Username: getEnv("REDIS_USERNAME", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
		},
		Worker: WorkerConfig{
			Count:        getEnvAsInt("WORKER_COUNT", 3),
			PollInterval: getEnvAsInt("WORKER_POLL_INTERVAL", 5),
		},
		App: AppConfig{
			Environment: getEnv("APP_ENV", "development"),
			LogLevel:    getEnv("LOG_LEVEL", "info"),
		},
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}
