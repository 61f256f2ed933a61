package config

import (
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/viper"
)

type Config struct {
	Server   Server
	Database Database
	Scoring  Scoring
	Notify   Notify
}

type Server struct {
	Port string
}

type Database struct {
	Host     string
	Port     string
	User     string
	Password string
	Name     string
}

// Scoring holds the enrichment pipeline knobs: the Gemini backend
// credentials plus retry, timeout and concurrency policy.
type Scoring struct {
	GeminiApiKey        string
	GeminiModel         string
	MaxRetries          int
	RetryBaseDelay      time.Duration
	CallTimeout         time.Duration
	RunBudget           time.Duration
	CategoryConcurrency int
	WorkerCount         int
	QueueSize           int
}

type Notify struct {
	WebhookURL string
}

func NewConfig() (*Config, error) {
	viper.SetConfigName(".env")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")

	viper.AutomaticEnv()

	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("GEMINI_MODEL", "gemini-1.5-flash")
	viper.SetDefault("SCORING_MAX_RETRIES", 3)
	viper.SetDefault("SCORING_RETRY_BASE_DELAY", "600ms")
	viper.SetDefault("SCORING_CALL_TIMEOUT", "20s")
	viper.SetDefault("SCORING_RUN_BUDGET", "90s")
	viper.SetDefault("SCORING_CATEGORY_CONCURRENCY", 4)
	viper.SetDefault("SCORING_WORKER_COUNT", 2)
	viper.SetDefault("SCORING_QUEUE_SIZE", 64)

	if err := viper.ReadInConfig(); err != nil {
		log.Warn().Err(err).Msg("Error reading config file")
	}

	var config Config

	config.Server.Port = viper.GetString("SERVER_PORT")
	config.Database.Host = viper.GetString("DATABASE_HOST")
	config.Database.Port = viper.GetString("DATABASE_PORT")
	config.Database.User = viper.GetString("DATABASE_USER")
	config.Database.Password = viper.GetString("DATABASE_PASSWORD")
	config.Database.Name = viper.GetString("DATABASE_NAME")

	config.Scoring.GeminiApiKey = viper.GetString("GEMINI_API_KEY")
	config.Scoring.GeminiModel = viper.GetString("GEMINI_MODEL")
	config.Scoring.MaxRetries = viper.GetInt("SCORING_MAX_RETRIES")
	config.Scoring.RetryBaseDelay = viper.GetDuration("SCORING_RETRY_BASE_DELAY")
	config.Scoring.CallTimeout = viper.GetDuration("SCORING_CALL_TIMEOUT")
	config.Scoring.RunBudget = viper.GetDuration("SCORING_RUN_BUDGET")
	config.Scoring.CategoryConcurrency = viper.GetInt("SCORING_CATEGORY_CONCURRENCY")
	config.Scoring.WorkerCount = viper.GetInt("SCORING_WORKER_COUNT")
	config.Scoring.QueueSize = viper.GetInt("SCORING_QUEUE_SIZE")

	config.Notify.WebhookURL = viper.GetString("NOTIFY_WEBHOOK_URL")

	log.Info().Str("port", config.Server.Port).Str("model", config.Scoring.GeminiModel).Msg("Config loaded")
	return &config, nil
}
