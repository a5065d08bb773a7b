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
	Ai         AIConfig
	Generation GenerationConfig
	Payment    PaymentConfig
}

type AppConfig struct {
	Port               string
	BaseURL            string
	ClientURL          string
	Environment        string
	LogFilePath        string
	RealtimeLogPath    string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JwtSecret          string
	UploadDir          string
}

type DatabaseConfig struct {
	Connection string
}

type AIConfig struct {
	AnalysisProvider   string // "ollama", "gemini" or "none"
	OllamaBaseURL      string
	OllamaModel        string
	GeminiAPIKey       string
	GeminiModel        string
	OpenAIAPIKey       string
	OpenAIBaseURL      string
	StableDiffusionURL string
	AnalysisTimeout    time.Duration
	SynthesisTimeout   time.Duration
}

type GenerationConfig struct {
	QueueTopic        string
	WorkerConcurrency int
	RefundOnFailure   bool
	RefundOnCancel    bool
	WelcomeCredits    int
}

type PaymentConfig struct {
	MidtransServerKey string
	IsProduction      bool
	FinishURL         string
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			BaseURL:            getEnv("APP_BASE_URL", "http://localhost:3000"),
			ClientURL:          getEnv("CLIENT_URL", "http://localhost:5173"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			RealtimeLogPath:    getEnv("REALTIME_LOG_FILE_PATH", "logs/realtime.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", ""),
			JwtSecret:          getEnv("JWT_SECRET", ""),
			UploadDir:          getEnv("UPLOAD_DIR", "uploads"),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
		},
		Ai: AIConfig{
			AnalysisProvider:   getEnv("ANALYSIS_PROVIDER", "ollama"),
			OllamaBaseURL:      getEnv("OLLAMA_BASE_URL", "http://localhost:11434"),
			OllamaModel:        getEnv("OLLAMA_MODEL", "llama3"),
			GeminiAPIKey:       getEnv("GOOGLE_GEMINI_API_KEY", ""),
			GeminiModel:        getEnv("GEMINI_MODEL", "gemini-1.5-flash"),
			OpenAIAPIKey:       getEnv("OPENAI_API_KEY", ""),
			OpenAIBaseURL:      getEnv("OPENAI_BASE_URL", "https://api.openai.com/v1"),
			StableDiffusionURL: getEnv("STABLE_DIFFUSION_URL", ""),
			AnalysisTimeout:    getEnvAsDuration("ANALYSIS_TIMEOUT", 20*time.Second),
			SynthesisTimeout:   getEnvAsDuration("SYNTHESIS_TIMEOUT", 2*time.Minute),
		},
		Generation: GenerationConfig{
			QueueTopic:        getEnv("GENERATION_QUEUE_TOPIC", "GENERATION_REQUESTED"),
			WorkerConcurrency: getEnvAsInt("GENERATION_WORKERS", 8),
			RefundOnFailure:   getEnvAsBool("REFUND_ON_FAILURE", true),
			RefundOnCancel:    getEnvAsBool("REFUND_ON_CANCEL", false),
			WelcomeCredits:    getEnvAsInt("WELCOME_CREDITS", 10),
		},
		Payment: PaymentConfig{
			MidtransServerKey: getEnv("MIDTRANS_SERVER_KEY", ""),
			IsProduction:      getEnvAsBool("MIDTRANS_IS_PRODUCTION", false),
			FinishURL:         getEnv("PAYMENT_FINISH_URL", "http://localhost:5173/credits"),
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

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	strValue := getEnv(key, "")
	if value, err := time.ParseDuration(strValue); err == nil {
		return value
	}
	return fallback
}
