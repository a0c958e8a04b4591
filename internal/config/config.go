package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all application configuration
type Config struct {
	// Server configuration
	Port       int
	LogHeaders bool

	// Batch orchestration configuration
	WindowSize        int
	WindowYield       time.Duration
	ExtractionTimeout time.Duration

	// AI extraction configuration
	OpenRouterAPIKey  string
	OpenRouterModelID string
	OpenRouterTimeout time.Duration

	// Validation bands
	MinCostPerLitre float64
	MaxCostPerLitre float64
	MinLitres       float64
	MaxLitres       float64
	MinTotalCost    float64
	MaxTotalCost    float64

	// Database configuration
	PostgresURL string

	// Document archive configuration
	S3Endpoint        string
	S3AccessKeyID     string
	S3AccessKeySecret string
	S3Bucket          string
	S3Region          string
}

// LoadConfig loads the application configuration from environment variables
func LoadConfig() (*Config, error) {
	// Load .env file if it exists
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found or error loading .env file. Using environment variables.")
	}

	config := &Config{
		// Server configuration
		Port:       getEnvInt("PORT", 8080),
		LogHeaders: getEnvBool("LOG_HEADERS", false),

		// Batch orchestration configuration
		WindowSize:        getEnvInt("INGEST_WINDOW_SIZE", 2),
		WindowYield:       time.Duration(getEnvInt("INGEST_WINDOW_YIELD_MS", 100)) * time.Millisecond,
		ExtractionTimeout: time.Duration(getEnvInt("EXTRACTION_TIMEOUT", 90)) * time.Second,

		// AI extraction configuration
		OpenRouterAPIKey:  os.Getenv("OPENROUTER_API_KEY"),
		OpenRouterModelID: getEnvString("OPENROUTER_MODEL_ID", "meta-llama/llama-3.2-11b-vision-instruct:free"),
		OpenRouterTimeout: time.Duration(getEnvInt("OPENROUTER_TIMEOUT", 120)) * time.Second,

		// Validation bands
		MinCostPerLitre: getEnvFloat("MIN_COST_PER_LITRE", 0.80),
		MaxCostPerLitre: getEnvFloat("MAX_COST_PER_LITRE", 5.00),
		MinLitres:       getEnvFloat("MIN_LITRES", 5),
		MaxLitres:       getEnvFloat("MAX_LITRES", 600),
		MinTotalCost:    getEnvFloat("MIN_TOTAL_COST", 5),
		MaxTotalCost:    getEnvFloat("MAX_TOTAL_COST", 1500),

		// Database configuration
		PostgresURL: os.Getenv("POSTGRES_DB_URL"),

		// Document archive configuration
		S3Endpoint:        os.Getenv("S3_ENDPOINT"),
		S3AccessKeyID:     os.Getenv("S3_ACCESS_KEY_ID"),
		S3AccessKeySecret: os.Getenv("S3_ACCESS_KEY_SECRET"),
		S3Bucket:          getEnvString("S3_BUCKET", "fuel-invoices"),
		S3Region:          getEnvString("S3_REGION", "us-east-1"),
	}

	validateConfig(config)

	return config, nil
}

// validateConfig checks critical configuration values and logs warnings when they're missing
func validateConfig(config *Config) {
	if config.OpenRouterAPIKey == "" {
		log.Println("Warning: No OpenRouter API key provided. Extraction calls will fail.")
	}

	if config.PostgresURL == "" {
		log.Println("Warning: No Postgres URL provided. Roster and record lookups will fail.")
	}

	if config.S3Endpoint == "" {
		log.Println("Warning: No S3 endpoint provided. Raw documents will not be archived.")
	}
}

// getEnvInt gets an integer from an environment variable with a default value
func getEnvInt(key string, defaultValue int) int {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.Atoi(valueStr)
	if err != nil {
		log.Printf("Invalid value for %s: %s, using default: %d", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

// getEnvFloat gets a float from an environment variable with a default value
func getEnvFloat(key string, defaultValue float64) float64 {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	value, err := strconv.ParseFloat(valueStr, 64)
	if err != nil {
		log.Printf("Invalid value for %s: %s, using default: %g", key, valueStr, defaultValue)
		return defaultValue
	}

	return value
}

// getEnvBool gets a boolean from an environment variable with a default value
func getEnvBool(key string, defaultValue bool) bool {
	valueStr := os.Getenv(key)
	if valueStr == "" {
		return defaultValue
	}

	valueStr = strings.ToLower(valueStr)
	return valueStr == "true" || valueStr == "1" || valueStr == "yes"
}

// getEnvString gets a string from an environment variable with a default value
func getEnvString(key string, defaultValue string) string {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	return value
}
