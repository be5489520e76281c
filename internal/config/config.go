package config

import (
	"log"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	Keys       APIKeys
	Ai         AIConfig
	Extraction ExtractionConfig
	Retrieval  RetrievalConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	Environment        string
	LogFilePath        string
	ProviderLogPath    string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JwtSecret          string
	UploadSessionTTL   time.Duration
	UploadMaxBytes     int
	OtelEnabled        bool
}

type DatabaseConfig struct {
	Connection    string // Primary backend (PostgreSQL DSN)
	SecondaryPath string // Secondary backend (SQLite file path)
}

type APIKeys struct {
	Anthropic    string
	OpenAI       string
	GoogleGemini string
	HuggingFace  string
}

type AIConfig struct {
	LLMProvider         string // default provider: "anthropic", "openai", "gemini", "ollama", "huggingface"
	AnthropicModel      string
	OpenAIModel         string
	GeminiModel         string
	OllamaBaseURL       string
	OllamaModel         string
	HuggingFaceBaseURL  string
	HuggingFaceModel    string
	MaxOutputTokens     int
	MaxOutputTokensCap  int
	ProviderTimeout     time.Duration
	PromptContextBudget int
	PromptMinInputChars int
}

type ExtractionConfig struct {
	DocumentAICredentialsPath string
	DocumentAIProcessor       string // projects/{p}/locations/{l}/processors/{id}
	DocumentAILocation        string // "us" or "eu"
	GeminiOCRModel            string
}

type RetrievalConfig struct {
	CorpusDir string
	TopK      int
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
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			ProviderLogPath:    getEnv("PROVIDER_LOG_FILE_PATH", "logs/provider_calls.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", ""),
			RedisURL:           getEnv("REDIS_URL", ""),
			JwtSecret:          getEnv("JWT_SECRET", ""),
			UploadSessionTTL:   getEnvAsDuration("UPLOAD_SESSION_TTL", time.Hour),
			UploadMaxBytes:     getEnvAsInt("UPLOAD_MAX_BYTES", 10*1024*1024),
			OtelEnabled:        getEnv("OTEL_ENABLED", "false") == "true",
		},
		Database: DatabaseConfig{
			Connection:    getEnv("DB_CONNECTION_STRING", ""),
			SecondaryPath: getEnv("SECONDARY_DB_PATH", "data/guides.db"),
		},
		Keys: APIKeys{
			Anthropic:    getEnv("ANTHROPIC_API_KEY", ""),
			OpenAI:       getEnv("OPENAI_API_KEY", ""),
			GoogleGemini: getEnv("GOOGLE_GEMINI_API_KEY", ""),
			HuggingFace:  getEnv("HUGGINGFACE_API_KEY", ""),
		},
		Ai: AIConfig{
			LLMProvider:         getEnv("LLM_PROVIDER", "anthropic"),
			AnthropicModel:      getEnv("LLM_MODEL_ANTHROPIC", "claude-sonnet-4-5"),
			OpenAIModel:         getEnv("LLM_MODEL_OPENAI", "gpt-4o"),
			GeminiModel:         getEnv("LLM_MODEL_GEMINI", "gemini-2.5-flash"),
			OllamaBaseURL:       getEnv("OLLAMA_BASE_URL", ""),
			OllamaModel:         getEnv("LLM_MODEL_OLLAMA", "llama3"),
			HuggingFaceBaseURL:  getEnv("HUGGINGFACE_BASE_URL", ""),
			HuggingFaceModel:    getEnv("LLM_MODEL_HUGGINGFACE", "meta-llama/Llama-3.1-8B-Instruct"),
			MaxOutputTokens:     getEnvAsInt("GENERATION_MAX_OUTPUT_TOKENS", 8000),
			MaxOutputTokensCap:  getEnvAsInt("GENERATION_MAX_OUTPUT_TOKENS_CAP", 16000),
			ProviderTimeout:     getEnvAsDuration("GENERATION_PROVIDER_TIMEOUT", 90*time.Second),
			PromptContextBudget: getEnvAsInt("PROMPT_CONTEXT_BUDGET", 12000),
			PromptMinInputChars: getEnvAsInt("PROMPT_MIN_INPUT_CHARS", 20),
		},
		Extraction: ExtractionConfig{
			DocumentAICredentialsPath: getEnv("DOCUMENT_AI_CREDENTIALS_PATH", ""),
			DocumentAIProcessor:       getEnv("DOCUMENT_AI_PROCESSOR", ""),
			DocumentAILocation:        getEnv("DOCUMENT_AI_LOCATION", "us"),
			GeminiOCRModel:            getEnv("GEMINI_OCR_MODEL", "gemini-2.5-flash"),
		},
		Retrieval: RetrievalConfig{
			CorpusDir: getEnv("METHODOLOGY_CORPUS_DIR", ""),
			TopK:      getEnvAsInt("RETRIEVAL_TOP_K", 6),
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

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
