package config

import (
	"log"
	"os"
	"strconv"
	"strings"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	JWTSecret   string
	MongoURI    string
	DBName      string
	SkipAuth    bool
	Environment string
	AppId       string

	// Dashboard runtime
	DefaultRefreshSeconds int // used when a dashboard enables auto refresh without an interval
	MaxConcurrentSections int // 0 means no limit
	QueryTimeoutSeconds   int
	CORSOrigins           []string
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	} else {
		log.Println("Loaded .env file successfully")
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		JWTSecret:   getEnv("JWT_SECRET", "secret"),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:      getEnv("DB_NAME", "go-dashboards"),
		SkipAuth:    getEnv("SKIP_AUTH", "false") == "true",
		Environment: getEnv("ENVIRONMENT", "development"),
		AppId:       getEnv("APP_ID", "go-dashboards"),

		DefaultRefreshSeconds: getEnvInt("DEFAULT_REFRESH_SECONDS", 60),
		MaxConcurrentSections: getEnvInt("MAX_CONCURRENT_SECTIONS", 0),
		QueryTimeoutSeconds:   getEnvInt("QUERY_TIMEOUT_SECONDS", 30),
		CORSOrigins:           splitList(getEnv("CORS_ORIGINS", "http://localhost:3000,http://localhost:8000")),
	}, nil
}

func (c *Config) IsProduction() bool {
	return c.Environment == "production"
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	raw, exists := os.LookupEnv(key)
	if !exists {
		return fallback
	}
	v, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		log.Printf("Invalid integer for %s=%q, using %d", key, raw, fallback)
		return fallback
	}
	return v
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
