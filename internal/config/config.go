package config

import (
	"os"
	"strconv"
	"strings"
)

type ClaimsServiceConfig struct {
	Port          string
	PolicyPath    string
	PostgresCfg   PostgresConfig
	RedisCfg      RedisConfig
	MinioCfg      MinioConfig
	RabbitMQCfg   RabbitMQConfig
	GeminiAPICfg  GeminiAPIConfig
	OCRCfg        OCRConfig
	ExtractionCfg ExtractionConfig
	UploadCfg     UploadConfig
}

type PostgresConfig struct {
	DBname   string
	Username string
	Password string
	Host     string
	Port     string
}

type RedisConfig struct {
	Host     string
	Port     string
	Password string
	DB       int
}

type MinioConfig struct {
	MinioURL       string
	MinioAccessKey string
	MinioSecretKey string
	MinioLocation  string
	MinioSecure    string
}

type RabbitMQConfig struct {
	Username string
	Password string
	Host     string
	Port     string
}

type GeminiAPIConfig struct {
	APIKeys   []string
	FlashName string
}

type OCRConfig struct {
	Endpoint       string
	TimeoutSeconds int
}

type ExtractionConfig struct {
	LLMConfidenceThreshold float64
	TimeoutSeconds         int
}

type UploadConfig struct {
	MaxFileSizeMB int
}

func New() *ClaimsServiceConfig {
	return &ClaimsServiceConfig{
		Port:       getEnvOrDefault("PORT", "8084"),
		PolicyPath: getEnvOrDefault("POLICY_CONFIG_PATH", ""),
		PostgresCfg: PostgresConfig{
			DBname:   getEnvOrDefault("POSTGRES_DB", "claims_service"),
			Username: getEnvOrDefault("POSTGRES_USER", "postgres"),
			Password: getEnvOrDefault("POSTGRES_PASSWORD", "postgres"),
			Host:     getEnvOrDefault("POSTGRES_HOST", "localhost"),
			Port:     getEnvOrDefault("POSTGRES_PORT", "5432"),
		},
		RedisCfg: RedisConfig{
			Host:     getEnvOrDefault("REDIS_HOST", "localhost"),
			Port:     getEnvOrDefault("REDIS_PORT", "6379"),
			Password: getEnvOrDefault("REDIS_PASSWORD", ""),
			DB:       getEnvIntOrDefault("REDIS_DB", 0),
		},
		MinioCfg: MinioConfig{
			MinioURL:       getEnvOrDefault("MINIO_ENDPOINT", "http://localhost:9000"),
			MinioAccessKey: getEnvOrDefault("MINIO_ACCESS_KEY", "minio"),
			MinioSecretKey: getEnvOrDefault("MINIO_SECRET_KEY", "minio123"),
			MinioLocation:  getEnvOrDefault("MINIO_LOCATION", "us-east-1"),
			MinioSecure:    getEnvOrDefault("MINIO_SECURE", "false"),
		},
		RabbitMQCfg: RabbitMQConfig{
			Username: getEnvOrDefault("RABBITMQ_USER", ""),
			Password: getEnvOrDefault("RABBITMQ_PWD", ""),
			Host:     getEnvOrDefault("RABBITMQ_HOST", "localhost"),
			Port:     getEnvOrDefault("RABBITMQ_PORT", "5672"),
		},
		GeminiAPICfg: GeminiAPIConfig{
			APIKeys:   splitKeys(getEnvOrDefault("GEMINI_KEYS", "")),
			FlashName: getEnvOrDefault("GEMINI_FLASH_MODEL", "gemini-2.5-flash"),
		},
		OCRCfg: OCRConfig{
			Endpoint:       getEnvOrDefault("OCR_ENDPOINT", ""),
			TimeoutSeconds: getEnvIntOrDefault("OCR_TIMEOUT_SECONDS", 30),
		},
		ExtractionCfg: ExtractionConfig{
			LLMConfidenceThreshold: getEnvFloatOrDefault("LLM_CONFIDENCE_THRESHOLD", 0.5),
			TimeoutSeconds:         getEnvIntOrDefault("EXTRACTION_TIMEOUT_SECONDS", 60),
		},
		UploadCfg: UploadConfig{
			MaxFileSizeMB: getEnvIntOrDefault("MAX_FILE_SIZE_MB", 10),
		},
	}
}

// splitKeys parses a comma-separated list of API keys, skipping blanks.
func splitKeys(raw string) []string {
	var keys []string
	for _, part := range strings.Split(raw, ",") {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			keys = append(keys, trimmed)
		}
	}
	return keys
}

func getEnvOrDefault(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvIntOrDefault(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.Atoi(value); err == nil {
			return parsed
		}
	}
	return defaultValue
}

func getEnvFloatOrDefault(key string, defaultValue float64) float64 {
	if value := os.Getenv(key); value != "" {
		if parsed, err := strconv.ParseFloat(value, 64); err == nil {
			return parsed
		}
	}
	return defaultValue
}
