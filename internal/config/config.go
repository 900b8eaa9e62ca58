package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	App      AppConfig
	Database DatabaseConfig
	SMTP     SMTPConfig
	Auth     AuthConfig
	Ai       AIConfig
	Routing  RoutingFileConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
}

type DatabaseConfig struct {
	Connection string
}

type SMTPConfig struct {
	Host       string
	Port       int
	Email      string
	Password   string
	SenderName string
	AlertEmail string
}

type AuthConfig struct {
	JwtSecret     string
	AdminEmail    string
	AdminPassword string
}

type AIConfig struct {
	EmbeddingProvider   string // "gemini", "ollama", "openai" or "jina"
	EmbeddingDimensions int
	OllamaBaseURL       string
	OllamaEmbedModel    string
	LLMProvider         string // "ollama", "openai", "huggingface"
	LLMModel            string // e.g. "llama3", "qwen2.5", "gpt-4o-mini"
	LLMBaseURL          string
	GeminiApiKey        string
	OpenAIApiKey        string
	JinaApiKey          string
	HuggingFaceApiKey   string
}

type RoutingFileConfig struct {
	PolicyPath string
	HotReload  bool
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "app.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", "redis://localhost:6379"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		SMTP: SMTPConfig{
			Host:       getEnv("SMTP_HOST", ""),
			Port:       getEnvAsInt("SMTP_PORT", 587),
			Email:      getEnv("SMTP_EMAIL", ""),
			Password:   getEnv("SMTP_PASSWORD", ""),
			SenderName: getEnv("SMTP_SENDER_NAME", "DeskMate"),
			AlertEmail: getEnv("OPS_ALERT_EMAIL", ""),
		},
		Auth: AuthConfig{
			JwtSecret:     getEnv("JWT_SECRET", ""),
			AdminEmail:    getEnv("ADMIN_EMAIL", "admin@deskmate.local"),
			AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		},
		Ai: AIConfig{
			EmbeddingProvider:   getEnv("EMBEDDING_PROVIDER", "ollama"),
			EmbeddingDimensions: getEnvAsInt("EMBEDDING_DIMENSIONS", 768),
			OllamaBaseURL:       getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaEmbedModel:    getEnv("OLLAMA_EMBEDDING_MODEL", "nomic-embed-text"),
			LLMProvider:         getEnv("LLM_PROVIDER", "ollama"),
			LLMModel:            getEnv("LLM_MODEL", "llama3"),
			LLMBaseURL:          getEnv("LLM_BASE_URL", ""),
			GeminiApiKey:        getEnv("GOOGLE_GEMINI_API_KEY", ""),
			OpenAIApiKey:        getEnv("OPENAI_API_KEY", ""),
			JinaApiKey:          getEnv("JINA_API_KEY", ""),
			HuggingFaceApiKey:   getEnv("HUGGINGFACE_API_KEY", ""),
		},
		Routing: RoutingFileConfig{
			PolicyPath: getEnv("ROUTING_POLICY_PATH", "routing.yaml"),
			HotReload:  getEnvAsBool("ROUTING_POLICY_HOT_RELOAD", true),
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

func getEnvAsBool(key string, fallback bool) bool {
	strValue := getEnv(key, "")
	if value, err := strconv.ParseBool(strValue); err == nil {
		return value
	}
	return fallback
}
