package config

import (
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
)

type Config struct {
	Port        string
	FrontendURL string

	MongoDBURI      string
	MongoDBDatabase string

	ClassifierBaseURL        string
	ClassifierAPIKey         string
	ClassifierSentimentModel string
	ClassifierEmotionModel   string
	ClassifierStressModel    string
	ClassifierTimeout        time.Duration
	ClassifierMaxRetries     int
	ClassifierRetryBase      time.Duration

	AnalysisWorkers   int
	AnalysisQueueSize int

	AggregationInterval   time.Duration
	AggregationPeriodType string

	MessageRetentionDays   int
	AggregateRetentionDays int
}

func Load() *Config {
	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Info().Msg("No .env file found, using environment variables")
	}

	classifierTimeout, _ := time.ParseDuration(getEnv("CLASSIFIER_TIMEOUT", "15s"))
	retryBase, _ := time.ParseDuration(getEnv("CLASSIFIER_RETRY_BASE", "2s"))
	aggInterval, _ := time.ParseDuration(getEnv("AGGREGATION_INTERVAL", "30m"))

	return &Config{
		Port:        getEnv("PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),

		MongoDBURI:      getEnv("MONGODB_URI", ""),
		MongoDBDatabase: getEnv("MONGODB_DATABASE", "mindpulse"),

		ClassifierBaseURL:        getEnv("CLASSIFIER_BASE_URL", "http://localhost:8501"),
		ClassifierAPIKey:         getEnv("CLASSIFIER_API_KEY", ""),
		ClassifierSentimentModel: getEnv("CLASSIFIER_SENTIMENT_MODEL", "full_sentiment_model"),
		ClassifierEmotionModel:   getEnv("CLASSIFIER_EMOTION_MODEL", "full_emotion_model"),
		ClassifierStressModel:    getEnv("CLASSIFIER_STRESS_MODEL", "full_stress_analysis_model"),
		ClassifierTimeout:        classifierTimeout,
		ClassifierMaxRetries:     getEnvInt("CLASSIFIER_MAX_RETRIES", 3),
		ClassifierRetryBase:      retryBase,

		AnalysisWorkers:   getEnvInt("ANALYSIS_WORKERS", 4),
		AnalysisQueueSize: getEnvInt("ANALYSIS_QUEUE_SIZE", 1024),

		AggregationInterval:   aggInterval,
		AggregationPeriodType: getEnv("AGGREGATION_PERIOD_TYPE", "daily"),

		MessageRetentionDays:   getEnvInt("MESSAGE_RETENTION_DAYS", 90),
		AggregateRetentionDays: getEnvInt("AGGREGATE_RETENTION_DAYS", 365),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return defaultValue
}
