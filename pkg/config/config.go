package config

import (
	"errors"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string

	Database      DatabaseConfig
	Redis         RedisConfig
	JWT           JWTConfig
	CORS          CORSConfig
	Log           LogConfig
	Dashboard     DashboardConfig
	Notifications NotificationsConfig
	Chatbot       ChatbotConfig
	Games         GamesConfig
	Materials     MaterialsConfig
}

type DatabaseConfig struct {
	Host         string
	Port         int
	User         string
	Password     string
	Name         string
	SSLMode      string
	MaxOpenConns int
	MaxIdleConns int
}

type RedisConfig struct {
	Host     string
	Port     int
	Password string
	DB       int
}

type JWTConfig struct {
	Secret            string
	Expiration        time.Duration
	RefreshExpiration time.Duration
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// DashboardConfig governs dashboard cache tuning.
type DashboardConfig struct {
	CacheTTL time.Duration
}

// NotificationsConfig wires the outbound delivery providers.
type NotificationsConfig struct {
	FromEmail         string
	FromName          string
	SendgridKey       string
	TwilioAccountSID  string
	TwilioAuthToken   string
	TwilioFromNumber  string
	WorkerConcurrency int
	WorkerRetries     int
}

// ChatbotConfig configures the external chat-completion assistant.
type ChatbotConfig struct {
	APIKey      string
	Model       string
	MaxTokens   int
	Temperature float64
	SessionTTL  time.Duration
}

// GamesConfig tunes the mini-game engine.
type GamesConfig struct {
	BadgeThreshold int
	SessionTTL     time.Duration
}

// MaterialsConfig controls course material storage and signed downloads.
type MaterialsConfig struct {
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigFile(".env")
	v.SetConfigType("env")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")

	cfg.Database = DatabaseConfig{
		Host:         v.GetString("DB_HOST"),
		Port:         v.GetInt("DB_PORT"),
		User:         v.GetString("DB_USER"),
		Password:     v.GetString("DB_PASSWORD"),
		Name:         v.GetString("DB_NAME"),
		SSLMode:      v.GetString("DB_SSL_MODE"),
		MaxOpenConns: v.GetInt("DB_MAX_OPEN_CONNS"),
		MaxIdleConns: v.GetInt("DB_MAX_IDLE_CONNS"),
	}

	cfg.Redis = RedisConfig{
		Host:     v.GetString("REDIS_HOST"),
		Port:     v.GetInt("REDIS_PORT"),
		Password: v.GetString("REDIS_PASSWORD"),
		DB:       v.GetInt("REDIS_DB"),
	}

	cfg.JWT = JWTConfig{
		Secret:            v.GetString("JWT_SECRET"),
		Expiration:        parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		RefreshExpiration: parseDuration(v.GetString("REFRESH_TOKEN_EXPIRATION"), 7*24*time.Hour),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Dashboard = DashboardConfig{
		CacheTTL: parseDuration(v.GetString("DASHBOARD_CACHE_TTL"), 5*time.Minute),
	}

	cfg.Notifications = NotificationsConfig{
		FromEmail:         v.GetString("NOTIFY_FROM_EMAIL"),
		FromName:          v.GetString("NOTIFY_FROM_NAME"),
		SendgridKey:       v.GetString("SENDGRID_API_KEY"),
		TwilioAccountSID:  v.GetString("TWILIO_ACCOUNT_SID"),
		TwilioAuthToken:   v.GetString("TWILIO_AUTH_TOKEN"),
		TwilioFromNumber:  v.GetString("TWILIO_FROM_NUMBER"),
		WorkerConcurrency: v.GetInt("NOTIFY_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("NOTIFY_WORKER_RETRIES"),
	}

	cfg.Chatbot = ChatbotConfig{
		APIKey:      v.GetString("OPENAI_API_KEY"),
		Model:       v.GetString("CHATBOT_MODEL"),
		MaxTokens:   v.GetInt("CHATBOT_MAX_TOKENS"),
		Temperature: v.GetFloat64("CHATBOT_TEMPERATURE"),
		SessionTTL:  parseDuration(v.GetString("CHATBOT_SESSION_TTL"), 2*time.Hour),
	}

	cfg.Games = GamesConfig{
		BadgeThreshold: v.GetInt("GAMES_BADGE_THRESHOLD"),
		SessionTTL:     parseDuration(v.GetString("GAMES_SESSION_TTL"), time.Hour),
	}

	cfg.Materials = MaterialsConfig{
		StorageDir:      v.GetString("MATERIALS_STORAGE_DIR"),
		SignedURLSecret: v.GetString("MATERIALS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("MATERIALS_SIGNED_URL_TTL"), 30*time.Minute),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "ecole_plus")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("REFRESH_TOKEN_EXPIRATION", "168h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("DASHBOARD_CACHE_TTL", "5m")

	v.SetDefault("NOTIFY_FROM_EMAIL", "no-reply@ecole-plus.local")
	v.SetDefault("NOTIFY_FROM_NAME", "École+")
	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("TWILIO_ACCOUNT_SID", "")
	v.SetDefault("TWILIO_AUTH_TOKEN", "")
	v.SetDefault("TWILIO_FROM_NUMBER", "")
	v.SetDefault("NOTIFY_WORKER_CONCURRENCY", 2)
	v.SetDefault("NOTIFY_WORKER_RETRIES", 3)

	v.SetDefault("OPENAI_API_KEY", "")
	v.SetDefault("CHATBOT_MODEL", "gpt-3.5-turbo")
	v.SetDefault("CHATBOT_MAX_TOKENS", 400)
	v.SetDefault("CHATBOT_TEMPERATURE", 0.5)
	v.SetDefault("CHATBOT_SESSION_TTL", "2h")

	v.SetDefault("GAMES_BADGE_THRESHOLD", 5)
	v.SetDefault("GAMES_SESSION_TTL", "1h")

	v.SetDefault("MATERIALS_STORAGE_DIR", "./materials")
	v.SetDefault("MATERIALS_SIGNED_URL_SECRET", "dev_materials_secret")
	v.SetDefault("MATERIALS_SIGNED_URL_TTL", "30m")
}

func parseDuration(raw string, fallback time.Duration) time.Duration {
	if raw == "" {
		return fallback
	}

	d, err := time.ParseDuration(raw)
	if err != nil {
		return fallback
	}

	return d
}

func splitAndTrim(raw string) []string {
	if raw == "" {
		return nil
	}

	parts := strings.Split(raw, ",")
	result := make([]string, 0, len(parts))
	for _, part := range parts {
		trimmed := strings.TrimSpace(part)
		if trimmed != "" {
			result = append(result, trimmed)
		}
	}

	return result
}
