package config

import (
	"errors"
	"io/fs"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
)

// Mirror backends.
const (
	MirrorBackendFile     = "file"
	MirrorBackendRedis    = "redis"
	MirrorBackendPostgres = "postgres"
)

type Config struct {
	Env       string
	Port      int
	APIPrefix string
	Metrics   bool

	Database DatabaseConfig
	Redis    RedisConfig
	CORS     CORSConfig
	Log      LogConfig
	OAuth    OAuthConfig
	Drive    DriveConfig
	Sync     SyncConfig
	Mirror   MirrorConfig
	Billing  BillingConfig
	Exports  ExportsConfig
	Backups  BackupsConfig
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

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level      string
	Format     string
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// OAuthConfig describes the Google OAuth client used for Drive access.
type OAuthConfig struct {
	ClientID             string
	ClientSecret         string
	RedirectURL          string
	AuthURL              string
	TokenURL             string
	StateSecret          string
	StateTTL             time.Duration
	ExpiryMargin         time.Duration
	DefaultLifetime      time.Duration
	SilentRefreshTimeout time.Duration
}

// DriveConfig locates the hidden bundle file and the visible backup folder.
type DriveConfig struct {
	Endpoint     string
	FileName     string
	BackupFolder string
	Timeout      time.Duration
}

// SyncConfig tunes the save pipeline.
type SyncConfig struct {
	Debounce        time.Duration
	ConflictTimeout time.Duration
}

// MirrorConfig selects the local mirror backend.
type MirrorConfig struct {
	Backend   string
	Dir       string
	Watch     bool
	KeyPrefix string
}

// BillingConfig holds charge constants.
type BillingConfig struct {
	ViolationPenalty float64
}

// ExportsConfig configures rendered bill storage and download links.
type ExportsConfig struct {
	Dir             string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	CleanupInterval time.Duration
}

// BackupsConfig controls periodic visible backups.
type BackupsConfig struct {
	Interval   time.Duration
	Retries    int
	RetryDelay time.Duration
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
		if !errors.As(err, &notFound) && !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}

	cfg := &Config{}

	cfg.Env = v.GetString("ENV")
	cfg.Port = v.GetInt("PORT")
	cfg.APIPrefix = v.GetString("API_PREFIX")
	cfg.Metrics = v.GetBool("ENABLE_METRICS")

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

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:      v.GetString("LOG_LEVEL"),
		Format:     v.GetString("LOG_FORMAT"),
		File:       v.GetString("LOG_FILE"),
		MaxSizeMB:  v.GetInt("LOG_MAX_SIZE_MB"),
		MaxBackups: v.GetInt("LOG_MAX_BACKUPS"),
		MaxAgeDays: v.GetInt("LOG_MAX_AGE_DAYS"),
	}

	cfg.OAuth = OAuthConfig{
		ClientID:             v.GetString("GOOGLE_CLIENT_ID"),
		ClientSecret:         v.GetString("GOOGLE_CLIENT_SECRET"),
		RedirectURL:          v.GetString("GOOGLE_REDIRECT_URL"),
		AuthURL:              v.GetString("GOOGLE_AUTH_URL"),
		TokenURL:             v.GetString("GOOGLE_TOKEN_URL"),
		StateSecret:          v.GetString("OAUTH_STATE_SECRET"),
		StateTTL:             parseDuration(v.GetString("OAUTH_STATE_TTL"), 10*time.Minute),
		ExpiryMargin:         parseDuration(v.GetString("TOKEN_EXPIRY_MARGIN"), 5*time.Minute),
		DefaultLifetime:      parseDuration(v.GetString("TOKEN_DEFAULT_LIFETIME"), 55*time.Minute),
		SilentRefreshTimeout: parseDuration(v.GetString("SILENT_REFRESH_TIMEOUT"), 5*time.Second),
	}

	cfg.Drive = DriveConfig{
		Endpoint:     v.GetString("DRIVE_ENDPOINT"),
		FileName:     v.GetString("DRIVE_DB_FILE_NAME"),
		BackupFolder: v.GetString("DRIVE_BACKUP_FOLDER"),
		Timeout:      parseDuration(v.GetString("DRIVE_TIMEOUT"), 15*time.Second),
	}

	cfg.Sync = SyncConfig{
		Debounce:        parseDuration(v.GetString("SYNC_DEBOUNCE"), 1500*time.Millisecond),
		ConflictTimeout: parseDuration(v.GetString("SYNC_CONFLICT_TIMEOUT"), 10*time.Minute),
	}

	cfg.Mirror = MirrorConfig{
		Backend:   strings.ToLower(v.GetString("MIRROR_BACKEND")),
		Dir:       v.GetString("MIRROR_DIR"),
		Watch:     v.GetBool("MIRROR_WATCH"),
		KeyPrefix: v.GetString("MIRROR_KEY_PREFIX"),
	}

	cfg.Billing = BillingConfig{
		ViolationPenalty: v.GetFloat64("BILLING_VIOLATION_PENALTY"),
	}

	cfg.Exports = ExportsConfig{
		Dir:             v.GetString("EXPORTS_DIR"),
		SignedURLSecret: v.GetString("EXPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("EXPORTS_SIGNED_URL_TTL"), time.Hour),
		CleanupInterval: parseDuration(v.GetString("EXPORTS_CLEANUP_INTERVAL"), time.Hour),
	}

	cfg.Backups = BackupsConfig{
		Interval:   parseDuration(v.GetString("BACKUP_INTERVAL"), 0),
		Retries:    v.GetInt("BACKUP_RETRIES"),
		RetryDelay: parseDuration(v.GetString("BACKUP_RETRY_DELAY"), 30*time.Second),
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("ENV", EnvDevelopment)
	v.SetDefault("PORT", 8080)
	v.SetDefault("API_PREFIX", "/api/v1")
	v.SetDefault("ENABLE_METRICS", true)

	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_PASSWORD", "postgres")
	v.SetDefault("DB_NAME", "tutor_billing")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 4)
	v.SetDefault("DB_MAX_IDLE_CONNS", 2)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")
	v.SetDefault("LOG_FILE", "")
	v.SetDefault("LOG_MAX_SIZE_MB", 20)
	v.SetDefault("LOG_MAX_BACKUPS", 5)
	v.SetDefault("LOG_MAX_AGE_DAYS", 28)

	v.SetDefault("GOOGLE_CLIENT_ID", "")
	v.SetDefault("GOOGLE_CLIENT_SECRET", "")
	v.SetDefault("GOOGLE_REDIRECT_URL", "http://localhost:8080/api/v1/auth/callback")
	v.SetDefault("GOOGLE_AUTH_URL", "https://accounts.google.com/o/oauth2/auth")
	v.SetDefault("GOOGLE_TOKEN_URL", "https://oauth2.googleapis.com/token")
	v.SetDefault("OAUTH_STATE_SECRET", "dev_state_secret")
	v.SetDefault("OAUTH_STATE_TTL", "10m")
	v.SetDefault("TOKEN_EXPIRY_MARGIN", "5m")
	v.SetDefault("TOKEN_DEFAULT_LIFETIME", "55m")
	v.SetDefault("SILENT_REFRESH_TIMEOUT", "5s")

	v.SetDefault("DRIVE_ENDPOINT", "")
	v.SetDefault("DRIVE_DB_FILE_NAME", "tutor_billing.json")
	v.SetDefault("DRIVE_BACKUP_FOLDER", "Tutor Billing System")
	v.SetDefault("DRIVE_TIMEOUT", "15s")

	v.SetDefault("SYNC_DEBOUNCE", "1500ms")
	v.SetDefault("SYNC_CONFLICT_TIMEOUT", "10m")

	v.SetDefault("MIRROR_BACKEND", MirrorBackendFile)
	v.SetDefault("MIRROR_DIR", "./mirror")
	v.SetDefault("MIRROR_WATCH", true)
	v.SetDefault("MIRROR_KEY_PREFIX", "tutorbill:")

	v.SetDefault("BILLING_VIOLATION_PENALTY", 500)

	v.SetDefault("EXPORTS_DIR", "./exports")
	v.SetDefault("EXPORTS_SIGNED_URL_SECRET", "dev_exports_secret")
	v.SetDefault("EXPORTS_SIGNED_URL_TTL", "1h")
	v.SetDefault("EXPORTS_CLEANUP_INTERVAL", "1h")

	v.SetDefault("BACKUP_INTERVAL", "0")
	v.SetDefault("BACKUP_RETRIES", 3)
	v.SetDefault("BACKUP_RETRY_DELAY", "30s")
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
