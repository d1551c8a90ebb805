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
	Realtime RealtimeConfig
	Rotation RotationConfig
	Invites  InvitesConfig
	Mail     MailConfig
	Metadata MetadataConfig
	Cache    CacheConfig
	Storage  StorageConfig
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

// RealtimeConfig tunes the per-film fan-out channels.
type RealtimeConfig struct {
	SendBuffer       int
	WriteTimeout     time.Duration
	PingInterval     time.Duration
	PongTimeout      time.Duration
	SubscribeTimeout time.Duration
	MaxMessageSize   int64
}

// RotationConfig controls the weekly film rotation trigger.
type RotationConfig struct {
	Enabled  bool
	CronSpec string
}

// InvitesConfig governs invite code issuance.
type InvitesConfig struct {
	TTL         time.Duration
	RedeemURL   string
	MailWorkers int
}

// MailConfig configures the best-effort invite mailer.
type MailConfig struct {
	Enabled bool
	Host    string
	Port    int
	From    string
	User    string
	Pass    string
}

// MetadataConfig points at the external film metadata service.
type MetadataConfig struct {
	BaseURL string
	APIKey  string
	Timeout time.Duration
}

// CacheConfig governs read-through caching of film listings.
type CacheConfig struct {
	Enabled bool
	TTL     time.Duration
}

// StorageConfig governs the on-disk recap archive and its shared
// download links.
type StorageConfig struct {
	Dir       string
	LinkTTL   time.Duration
	Retention time.Duration
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

	cfg.Realtime = RealtimeConfig{
		SendBuffer:       v.GetInt("REALTIME_SEND_BUFFER"),
		WriteTimeout:     parseDuration(v.GetString("REALTIME_WRITE_TIMEOUT"), 10*time.Second),
		PingInterval:     parseDuration(v.GetString("REALTIME_PING_INTERVAL"), 30*time.Second),
		PongTimeout:      parseDuration(v.GetString("REALTIME_PONG_TIMEOUT"), 75*time.Second),
		SubscribeTimeout: parseDuration(v.GetString("REALTIME_SUBSCRIBE_TIMEOUT"), 5*time.Second),
		MaxMessageSize:   v.GetInt64("REALTIME_MAX_MESSAGE_SIZE"),
	}

	cfg.Rotation = RotationConfig{
		Enabled:  v.GetBool("ROTATION_ENABLED"),
		CronSpec: v.GetString("ROTATION_CRON"),
	}

	cfg.Invites = InvitesConfig{
		TTL:         parseDuration(v.GetString("INVITE_TTL"), 7*24*time.Hour),
		RedeemURL:   v.GetString("INVITE_REDEEM_URL"),
		MailWorkers: v.GetInt("INVITE_MAIL_WORKERS"),
	}

	cfg.Mail = MailConfig{
		Enabled: v.GetBool("MAIL_ENABLED"),
		Host:    v.GetString("MAIL_HOST"),
		Port:    v.GetInt("MAIL_PORT"),
		From:    v.GetString("MAIL_FROM"),
		User:    v.GetString("MAIL_USER"),
		Pass:    v.GetString("MAIL_PASS"),
	}

	cfg.Metadata = MetadataConfig{
		BaseURL: v.GetString("METADATA_BASE_URL"),
		APIKey:  v.GetString("METADATA_API_KEY"),
		Timeout: parseDuration(v.GetString("METADATA_TIMEOUT"), 3*time.Second),
	}

	cfg.Cache = CacheConfig{
		Enabled: v.GetBool("CACHE_ENABLED"),
		TTL:     parseDuration(v.GetString("CACHE_TTL"), 5*time.Minute),
	}

	cfg.Storage = StorageConfig{
		Dir:       v.GetString("RECAP_DIR"),
		LinkTTL:   parseDuration(v.GetString("RECAP_LINK_TTL"), 24*time.Hour),
		Retention: parseDuration(v.GetString("RECAP_RETENTION"), 30*24*time.Hour),
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
	v.SetDefault("DB_NAME", "cineclub")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")
	v.SetDefault("JWT_ISSUER", "cineclub-api")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("REALTIME_SEND_BUFFER", 32)
	v.SetDefault("REALTIME_WRITE_TIMEOUT", "10s")
	v.SetDefault("REALTIME_PING_INTERVAL", "30s")
	v.SetDefault("REALTIME_PONG_TIMEOUT", "75s")
	v.SetDefault("REALTIME_SUBSCRIBE_TIMEOUT", "5s")
	v.SetDefault("REALTIME_MAX_MESSAGE_SIZE", 4096)

	v.SetDefault("ROTATION_ENABLED", true)
	// Monday 00:05 so the outgoing week is fully over before it is archived.
	v.SetDefault("ROTATION_CRON", "5 0 * * 1")

	v.SetDefault("INVITE_TTL", "168h")
	v.SetDefault("INVITE_REDEEM_URL", "http://localhost:3000/join")
	v.SetDefault("INVITE_MAIL_WORKERS", 1)

	v.SetDefault("MAIL_ENABLED", false)
	v.SetDefault("MAIL_HOST", "localhost")
	v.SetDefault("MAIL_PORT", 25)
	v.SetDefault("MAIL_FROM", "club@cineclub.local")
	v.SetDefault("MAIL_USER", "")
	v.SetDefault("MAIL_PASS", "")

	v.SetDefault("METADATA_BASE_URL", "https://api.themoviedb.org/3")
	v.SetDefault("METADATA_API_KEY", "")
	v.SetDefault("METADATA_TIMEOUT", "3s")

	v.SetDefault("CACHE_ENABLED", false)
	v.SetDefault("CACHE_TTL", "5m")

	v.SetDefault("RECAP_DIR", "./recaps")
	v.SetDefault("RECAP_LINK_TTL", "24h")
	v.SetDefault("RECAP_RETENTION", "720h")
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
