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
	VoiceAgent VoiceAgentConfig
	Ai         AIConfig
	Jobs       JobsConfig
	Sessions   SessionsConfig
}

type AppConfig struct {
	Port               string
	Environment        string
	LogFilePath        string
	JobLogFilePath     string
	CorsAllowedOrigins string
	NatsURL            string
	RedisURL           string
	JwtSecret          string
}

type DatabaseConfig struct {
	Connection string
	Debug      bool
}

type VoiceAgentConfig struct {
	BaseURL        string
	ApiKey         string
	RequestTimeout time.Duration
	Language       string
	// LockLease bounds how long a cross-instance provisioning lock may be held.
	LockLease time.Duration
}

type AIConfig struct {
	LLMProvider    string // "openai", "gemini" or "ollama"
	LLMModel       string
	BaseURL        string
	ApiKey         string
	Temperature    float64
	MaxTokens      int
	RequestTimeout time.Duration
}

type JobsConfig struct {
	FeedbackTopic string
	MaxRetries    int
	RetryInterval time.Duration
	Timeout       time.Duration
}

type SessionsConfig struct {
	InitialAllowance int
	BriefCacheTTL    time.Duration
}

func (c *Config) IsProduction() bool {
	return c.App.Environment == "production"
}

func Load() *Config {
	if err := godotenv.Load(); err != nil {
		log.Println("Note: .env file not found, usage system environment")
	}

	return &Config{
		App: AppConfig{
			Port:               getEnv("APP_PORT", "3000"),
			Environment:        getEnv("GO_ENV", "development"),
			LogFilePath:        getEnv("LOG_FILE_PATH", "logs/app.log"),
			JobLogFilePath:     getEnv("JOB_LOG_FILE_PATH", "logs/feedback_job.log"),
			CorsAllowedOrigins: getEnv("CORS_ALLOWED_ORIGINS", "http://localhost:5173"),
			NatsURL:            getEnv("NATS_URL", "nats://localhost:4222"),
			RedisURL:           getEnv("REDIS_URL", ""),
			JwtSecret:          getEnv("JWT_SECRET", ""),
		},
		Database: DatabaseConfig{
			Connection: getEnv("DB_CONNECTION_STRING", ""),
			Debug:      getEnvAsBool("DB_DEBUG", false),
		},
		VoiceAgent: VoiceAgentConfig{
			BaseURL:        getEnv("ELEVENLABS_BASE_URL", "https://api.elevenlabs.io/v1"),
			ApiKey:         getEnv("ELEVENLABS_API_KEY", ""),
			RequestTimeout: getEnvAsDuration("ELEVENLABS_TIMEOUT", 15*time.Second),
			Language:       getEnv("ELEVENLABS_LANGUAGE", "en"),
			LockLease:      getEnvAsDuration("AGENT_LOCK_LEASE", 30*time.Second),
		},
		Ai: AIConfig{
			LLMProvider:    getEnv("LLM_PROVIDER", "openai"),
			LLMModel:       getEnv("LLM_MODEL", "gpt-4o-mini"),
			BaseURL:        getEnv("LLM_BASE_URL", ""),
			ApiKey:         getEnv("LLM_API_KEY", ""),
			Temperature:    getEnvAsFloat("LLM_TEMPERATURE", 0.7),
			MaxTokens:      getEnvAsInt("LLM_MAX_TOKENS", 2000),
			RequestTimeout: getEnvAsDuration("LLM_TIMEOUT", 60*time.Second),
		},
		Jobs: JobsConfig{
			FeedbackTopic: getEnv("FEEDBACK_TOPIC", "feedback_jobs"),
			MaxRetries:    getEnvAsInt("FEEDBACK_MAX_RETRIES", 3),
			RetryInterval: getEnvAsDuration("FEEDBACK_RETRY_INTERVAL", 2*time.Second),
			Timeout:       getEnvAsDuration("FEEDBACK_JOB_TIMEOUT", 2*time.Minute),
		},
		Sessions: SessionsConfig{
			InitialAllowance: getEnvAsInt("SESSIONS_INITIAL_ALLOWANCE", 5),
			BriefCacheTTL:    getEnvAsDuration("PARCEL_BRIEF_CACHE_TTL", time.Hour),
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
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return fallback
}

func getEnvAsFloat(key string, fallback float64) float64 {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseFloat(valueStr, 64); err == nil {
		return value
	}
	return fallback
}

func getEnvAsBool(key string, fallback bool) bool {
	valueStr := getEnv(key, "")
	if value, err := strconv.ParseBool(valueStr); err == nil {
		return value
	}
	return fallback
}

// getEnvAsDuration accepts Go durations ("90s") or plain seconds ("90").
func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if valueStr == "" {
		return fallback
	}
	if d, err := time.ParseDuration(valueStr); err == nil {
		return d
	}
	if secs, err := strconv.Atoi(valueStr); err == nil {
		return time.Duration(secs) * time.Second
	}
	return fallback
}
