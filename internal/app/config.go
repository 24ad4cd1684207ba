package app

import (
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/parastudy/parastudy-backend/internal/db"
	"github.com/parastudy/parastudy-backend/internal/logger"
	"github.com/parastudy/parastudy-backend/internal/utils"
)

type Config struct {
	Environment string
	Version     string
	Port        string

	DBDriver   string
	DBHost     string
	DBPort     string
	DBUser     string
	DBPassword string
	DBName     string
	SQLitePath string

	JWTSecretKey    string
	AccessTokenTTL  time.Duration
	RefreshTokenTTL time.Duration
	AdminEmails     []string

	GeminiAPIKey     string
	GeminiModel      string
	GeminiBaseURL    string
	GeminiMaxRetries int

	RedisAddr    string
	RedisChannel string

	Neo4jURI      string
	Neo4jUser     string
	Neo4jPassword string
	Neo4jDatabase string

	AllowedOrigins []string
}

// configFile mirrors the optional YAML config. Environment variables
// win over file values so deployments can override a checked-in file.
type configFile struct {
	AdminEmails    []string `yaml:"admin_emails"`
	AllowedOrigins []string `yaml:"allowed_origins"`
	GeminiModel    string   `yaml:"gemini_model"`
	RedisChannel   string   `yaml:"redis_channel"`
}

func LoadConfig(log *logger.Logger) Config {
	var file configFile
	if path := strings.TrimSpace(os.Getenv("CONFIG_FILE")); path != "" {
		raw, err := os.ReadFile(path)
		if err != nil {
			log.Warn("Could not read config file; using env only", "path", path, "error", err)
		} else if err := yaml.Unmarshal(raw, &file); err != nil {
			log.Warn("Could not parse config file; using env only", "path", path, "error", err)
		}
	}

	accessTokenTTLSeconds := utils.GetEnvAsInt("ACCESS_TOKEN_TTL", 3600, log)
	refreshTokenTTLSeconds := utils.GetEnvAsInt("REFRESH_TOKEN_TTL", 7*86400, log)

	cfg := Config{
		Environment: utils.GetEnv("APP_ENV", "development", log),
		Version:     utils.GetEnv("APP_VERSION", "dev", log),
		Port:        utils.GetEnv("PORT", "8080", log),

		DBDriver:   utils.GetEnv("DB_DRIVER", "postgres", log),
		DBHost:     utils.GetEnv("DB_HOST", "localhost", log),
		DBPort:     utils.GetEnv("DB_PORT", "5432", log),
		DBUser:     utils.GetEnv("DB_USER", "postgres", log),
		DBPassword: utils.GetEnv("DB_PASSWORD", "postgres", log),
		DBName:     utils.GetEnv("DB_NAME", "parastudy", log),
		SQLitePath: utils.GetEnv("SQLITE_PATH", "parastudy.db", log),

		JWTSecretKey:    utils.GetEnv("JWT_SECRET_KEY", "defaultsecret", log),
		AccessTokenTTL:  time.Duration(accessTokenTTLSeconds) * time.Second,
		RefreshTokenTTL: time.Duration(refreshTokenTTLSeconds) * time.Second,

		GeminiAPIKey:     utils.GetEnv("GEMINI_API_KEY", "", log),
		GeminiModel:      utils.GetEnv("GEMINI_MODEL", file.GeminiModel, log),
		GeminiBaseURL:    utils.GetEnv("GEMINI_BASE_URL", "", log),
		GeminiMaxRetries: utils.GetEnvAsInt("GEMINI_MAX_RETRIES", 4, log),

		RedisAddr:    utils.GetEnv("REDIS_ADDR", "", log),
		RedisChannel: utils.GetEnv("REDIS_CHANNEL", file.RedisChannel, log),

		Neo4jURI:      utils.GetEnv("NEO4J_URI", "", log),
		Neo4jUser:     utils.GetEnv("NEO4J_USER", "neo4j", log),
		Neo4jPassword: utils.GetEnv("NEO4J_PASSWORD", "", log),
		Neo4jDatabase: utils.GetEnv("NEO4J_DATABASE", "", log),
	}

	cfg.AdminEmails = splitOrDefault(os.Getenv("ADMIN_EMAILS"), file.AdminEmails)
	cfg.AllowedOrigins = splitOrDefault(os.Getenv("ALLOWED_ORIGINS"), file.AllowedOrigins)

	if cfg.JWTSecretKey == "defaultsecret" && cfg.Environment != "development" {
		log.Warn("JWT_SECRET_KEY is the default value outside development")
	}
	return cfg
}

func (c Config) DSN() string {
	if strings.EqualFold(c.DBDriver, "sqlite") {
		return c.SQLitePath
	}
	return db.PostgresDSN(c.DBHost, c.DBPort, c.DBUser, c.DBPassword, c.DBName)
}

func splitOrDefault(raw string, fallback []string) []string {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return fallback
	}
	var out []string
	for _, part := range strings.Split(raw, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
