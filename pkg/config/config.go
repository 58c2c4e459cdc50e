package config

import (
	"errors"
	"os"
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

	Database   DatabaseConfig
	Redis      RedisConfig
	CORS       CORSConfig
	Log        LogConfig
	Substitute SubstituteConfig
	Reports    ReportsConfig
	Jobs       JobsConfig
	Roster     RosterConfig
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
	Level  string
	Format string
}

// SubstituteConfig holds the assignment engine's cap and scoring weights.
type SubstituteConfig struct {
	DailyCap             int
	SubjectBonus         float64
	LevelMatchBonus      float64
	LevelMismatchPenalty float64
	DailyLoadWeight      float64
	HistoryWeight        float64
	TermLoadWeight       float64
	LastResortPenalty    float64
	LastResortTeachers   []string
	RandomSeed           int64
	TermID               string
	CacheEnabled         bool
	CacheTTL             time.Duration
}

// ReportsConfig configures substitute report exports.
type ReportsConfig struct {
	StorageDir      string
	SignedURLSecret string
	SignedURLTTL    time.Duration
	CleanupInterval time.Duration
	RetentionTTL    time.Duration
	PDFFontPath     string
}

// JobsConfig sizes the background run queue.
type JobsConfig struct {
	WorkerConcurrency int
	WorkerRetries     int
	RetryDelay        time.Duration
}

// RosterConfig points at the data files used by the offline runner.
type RosterConfig struct {
	Dir string
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
		if !errors.As(err, &notFound) && !errors.Is(err, os.ErrNotExist) {
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

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Substitute = SubstituteConfig{
		DailyCap:             v.GetInt("SUBSTITUTE_DAILY_CAP"),
		SubjectBonus:         v.GetFloat64("SUBSTITUTE_WEIGHT_SUBJECT"),
		LevelMatchBonus:      v.GetFloat64("SUBSTITUTE_WEIGHT_LEVEL_MATCH"),
		LevelMismatchPenalty: v.GetFloat64("SUBSTITUTE_WEIGHT_LEVEL_MISMATCH"),
		DailyLoadWeight:      v.GetFloat64("SUBSTITUTE_WEIGHT_DAILY_LOAD"),
		HistoryWeight:        v.GetFloat64("SUBSTITUTE_WEIGHT_HISTORY"),
		TermLoadWeight:       v.GetFloat64("SUBSTITUTE_WEIGHT_TERM_LOAD"),
		LastResortPenalty:    v.GetFloat64("SUBSTITUTE_WEIGHT_LAST_RESORT"),
		LastResortTeachers:   splitAndTrim(v.GetString("SUBSTITUTE_LAST_RESORT_TEACHERS")),
		RandomSeed:           v.GetInt64("SUBSTITUTE_RANDOM_SEED"),
		TermID:               v.GetString("SUBSTITUTE_TERM_ID"),
		CacheEnabled:         v.GetBool("ENABLE_SUBSTITUTE_CACHE"),
		CacheTTL:             parseDuration(v.GetString("SUBSTITUTE_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Reports = ReportsConfig{
		StorageDir:      v.GetString("REPORTS_STORAGE_DIR"),
		SignedURLSecret: v.GetString("REPORTS_SIGNED_URL_SECRET"),
		SignedURLTTL:    parseDuration(v.GetString("REPORTS_SIGNED_URL_TTL"), 24*time.Hour),
		CleanupInterval: parseDuration(v.GetString("REPORTS_CLEANUP_INTERVAL"), time.Hour),
		RetentionTTL:    parseDuration(v.GetString("REPORTS_RETENTION_TTL"), 72*time.Hour),
		PDFFontPath:     v.GetString("REPORTS_PDF_FONT"),
	}

	cfg.Jobs = JobsConfig{
		WorkerConcurrency: v.GetInt("JOBS_WORKER_CONCURRENCY"),
		WorkerRetries:     v.GetInt("JOBS_WORKER_RETRIES"),
		RetryDelay:        parseDuration(v.GetString("JOBS_RETRY_DELAY"), 2*time.Second),
	}

	cfg.Roster = RosterConfig{Dir: v.GetString("ROSTER_DIR")}

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
	v.SetDefault("DB_NAME", "substitute_teachers")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("SUBSTITUTE_DAILY_CAP", 4)
	v.SetDefault("SUBSTITUTE_WEIGHT_SUBJECT", 2.0)
	v.SetDefault("SUBSTITUTE_WEIGHT_LEVEL_MATCH", 5.0)
	v.SetDefault("SUBSTITUTE_WEIGHT_LEVEL_MISMATCH", 2.0)
	v.SetDefault("SUBSTITUTE_WEIGHT_DAILY_LOAD", 2.0)
	v.SetDefault("SUBSTITUTE_WEIGHT_HISTORY", 1.0)
	v.SetDefault("SUBSTITUTE_WEIGHT_TERM_LOAD", 0.5)
	v.SetDefault("SUBSTITUTE_WEIGHT_LAST_RESORT", 50.0)
	v.SetDefault("SUBSTITUTE_LAST_RESORT_TEACHERS", "")
	v.SetDefault("SUBSTITUTE_RANDOM_SEED", 0)
	v.SetDefault("SUBSTITUTE_TERM_ID", "")
	v.SetDefault("ENABLE_SUBSTITUTE_CACHE", false)
	v.SetDefault("SUBSTITUTE_CACHE_TTL", "10m")

	v.SetDefault("REPORTS_STORAGE_DIR", "./exports")
	v.SetDefault("REPORTS_SIGNED_URL_SECRET", "dev_reports_secret")
	v.SetDefault("REPORTS_SIGNED_URL_TTL", "24h")
	v.SetDefault("REPORTS_CLEANUP_INTERVAL", "1h")
	v.SetDefault("REPORTS_RETENTION_TTL", "72h")
	v.SetDefault("REPORTS_PDF_FONT", "")

	v.SetDefault("JOBS_WORKER_CONCURRENCY", 1)
	v.SetDefault("JOBS_WORKER_RETRIES", 3)
	v.SetDefault("JOBS_RETRY_DELAY", "2s")

	v.SetDefault("ROSTER_DIR", "./data")
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
