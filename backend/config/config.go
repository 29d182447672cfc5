package config

import (
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DBDriver   string // postgres or sqlite
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	DBPath     string // sqlite file, ":memory:" allowed

	JWTSecret  string
	JWTTTL     time.Duration
	ServerPort string

	CORSOrigins string
	ClientURL   string
	AdminEmail  string

	LogFormat string
	LogLevel  string

	ProgressMaxRetries int
}

func LoadConfig() (*Config, error) {
	err := godotenv.Load()
	if err != nil {
		log.Println("Error loading .env file, using environment variables")
	}

	return &Config{
		DBDriver:           strings.ToLower(getEnv("DB_DRIVER", "postgres")),
		DBHost:             getEnv("DB_HOST", "localhost"),
		DBPort:             getEnv("DB_PORT", "5432"),
		DBUser:             getEnv("DB_USER", "postgres"),
		DBPassword:         getEnv("DB_PASSWORD", "postgres"),
		DBName:             getEnv("DB_NAME", "git_training"),
		DBPath:             getEnv("DB_PATH", "git_training.db"),
		JWTSecret:          getEnv("JWT_SECRET", "secret"),
		JWTTTL:             getDuration("JWT_TTL", 24*time.Hour),
		ServerPort:         getEnv("SERVER_PORT", "5001"),
		CORSOrigins:        getEnv("CORS_ORIGINS", "*"),
		ClientURL:          getEnv("CLIENT_URL", "http://localhost:3000"),
		AdminEmail:         strings.ToLower(getEnv("ADMIN_EMAIL", "")),
		LogFormat:          getEnv("LOG_FORMAT", "text"),
		LogLevel:           getEnv("LOG_LEVEL", "info"),
		ProgressMaxRetries: getInt("PROGRESS_MAX_RETRIES", 5),
	}, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getInt(key string, defaultValue int) int {
	v := strings.TrimSpace(getEnv(key, ""))
	if v == "" {
		return defaultValue
	}
	i, err := strconv.Atoi(v)
	if err != nil || i <= 0 {
		return defaultValue
	}
	return i
}

func getDuration(key string, defaultValue time.Duration) time.Duration {
	v := strings.TrimSpace(getEnv(key, ""))
	if v == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return defaultValue
	}
	return d
}
