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

	Database DatabaseConfig
	Redis    RedisConfig
	JWT      JWTConfig
	CORS     CORSConfig
	Log      LogConfig
	Uploads  UploadsConfig
	CheckIn  CheckInConfig
	Notifier NotifierConfig
	Settings SettingsConfig
	Portal   PortalConfig
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
	Secret     string
	Expiration time.Duration
	Issuer     string
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// UploadsConfig controls proof-of-payment storage and validation.
type UploadsConfig struct {
	StorageDir        string
	MaxFileSizeBytes  int64
	AllowedExtensions []string
}

// CheckInConfig governs signed QR check-in tokens.
type CheckInConfig struct {
	TokenSecret string
	TokenTTL    time.Duration
	QRSize      int
}

// NotifierConfig configures the outbound email/SMS channels.
type NotifierConfig struct {
	SendgridKey   string
	FromName      string
	FromEmail     string
	SMSGatewayURL string
	SMSGatewayKey string
	Workers       int
	MaxRetries    int
}

// SettingsConfig tunes the settings cache.
type SettingsConfig struct {
	CacheTTL time.Duration
}

// PortalConfig carries the public links embedded in notifications and
// status pages.
type PortalConfig struct {
	BaseURL     string
	LoginURL    string
	GroupInvite string
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
		Secret:     v.GetString("JWT_SECRET"),
		Expiration: parseDuration(v.GetString("JWT_EXPIRATION"), 24*time.Hour),
		Issuer:     v.GetString("JWT_ISSUER"),
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	maxUploadSize := v.GetInt64("UPLOADS_MAX_FILE_SIZE")
	if maxUploadSize <= 0 {
		maxUploadSize = 10 * 1024 * 1024
	}
	cfg.Uploads = UploadsConfig{
		StorageDir:        v.GetString("UPLOADS_STORAGE_DIR"),
		MaxFileSizeBytes:  maxUploadSize,
		AllowedExtensions: splitAndTrim(v.GetString("UPLOADS_ALLOWED_EXTENSIONS")),
	}

	cfg.CheckIn = CheckInConfig{
		TokenSecret: v.GetString("CHECKIN_TOKEN_SECRET"),
		TokenTTL:    parseDuration(v.GetString("CHECKIN_TOKEN_TTL"), 24*time.Hour),
		QRSize:      v.GetInt("CHECKIN_QR_SIZE"),
	}

	cfg.Notifier = NotifierConfig{
		SendgridKey:   v.GetString("SENDGRID_API_KEY"),
		FromName:      v.GetString("NOTIFY_FROM_NAME"),
		FromEmail:     v.GetString("NOTIFY_FROM_EMAIL"),
		SMSGatewayURL: v.GetString("SMS_GATEWAY_URL"),
		SMSGatewayKey: v.GetString("SMS_GATEWAY_KEY"),
		Workers:       v.GetInt("NOTIFY_WORKERS"),
		MaxRetries:    v.GetInt("NOTIFY_MAX_RETRIES"),
	}

	cfg.Settings = SettingsConfig{
		CacheTTL: parseDuration(v.GetString("SETTINGS_CACHE_TTL"), time.Minute),
	}

	cfg.Portal = PortalConfig{
		BaseURL:     v.GetString("PORTAL_BASE_URL"),
		LoginURL:    v.GetString("PORTAL_LOGIN_URL"),
		GroupInvite: v.GetString("PORTAL_GROUP_INVITE_URL"),
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
	v.SetDefault("DB_NAME", "ebta_enrollment")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "ebta-enrollment-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("UPLOADS_STORAGE_DIR", "./uploads")
	v.SetDefault("UPLOADS_MAX_FILE_SIZE", 10*1024*1024)
	v.SetDefault("UPLOADS_ALLOWED_EXTENSIONS", ".pdf,.png,.jpg,.jpeg,.gif,.webp")

	v.SetDefault("CHECKIN_TOKEN_SECRET", "dev_checkin_secret")
	v.SetDefault("CHECKIN_TOKEN_TTL", "24h")
	v.SetDefault("CHECKIN_QR_SIZE", 256)

	v.SetDefault("SENDGRID_API_KEY", "")
	v.SetDefault("NOTIFY_FROM_NAME", "EBTA")
	v.SetDefault("NOTIFY_FROM_EMAIL", "no-reply@ebta.example")
	v.SetDefault("SMS_GATEWAY_URL", "")
	v.SetDefault("SMS_GATEWAY_KEY", "")
	v.SetDefault("NOTIFY_WORKERS", 2)
	v.SetDefault("NOTIFY_MAX_RETRIES", 3)

	v.SetDefault("SETTINGS_CACHE_TTL", "1m")

	v.SetDefault("PORTAL_BASE_URL", "http://localhost:8080")
	v.SetDefault("PORTAL_LOGIN_URL", "http://localhost:8080/student/login")
	v.SetDefault("PORTAL_GROUP_INVITE_URL", "")
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
