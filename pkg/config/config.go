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
	Catalog  CatalogConfig
	Planner  PlannerConfig
	Export   ExportConfig
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
}

type CORSConfig struct {
	AllowedOrigins []string
}

type LogConfig struct {
	Level  string
	Format string
}

// CatalogConfig tunes section-catalog access.
type CatalogConfig struct {
	CacheEnabled bool
	CacheTTL     time.Duration
}

// PlannerConfig is the scoring and search configuration surface. Values are
// raw here; the scorer parses and validates them at startup and refuses to
// start on malformed weights or tables.
type PlannerConfig struct {
	WeightModality       float64
	WeightDays           float64
	WeightGaps           float64
	DayWeights           string
	MandatoryBreakStart  string
	MandatoryBreakEnd    string
	MaxAllowedGapMinutes int
	MaxRequestedCourses  int
	TopNResults          int
	MaxCombinations      int
}

// ExportConfig gates the plan export endpoints.
type ExportConfig struct {
	Enabled bool
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
	}

	cfg.CORS = CORSConfig{AllowedOrigins: splitAndTrim(v.GetString("ALLOWED_ORIGINS"))}

	cfg.Log = LogConfig{
		Level:  v.GetString("LOG_LEVEL"),
		Format: v.GetString("LOG_FORMAT"),
	}

	cfg.Catalog = CatalogConfig{
		CacheEnabled: v.GetBool("CATALOG_CACHE_ENABLED"),
		CacheTTL:     parseDuration(v.GetString("CATALOG_CACHE_TTL"), 10*time.Minute),
	}

	cfg.Planner = PlannerConfig{
		WeightModality:       v.GetFloat64("PLANNER_WEIGHT_MODALITY"),
		WeightDays:           v.GetFloat64("PLANNER_WEIGHT_DAYS"),
		WeightGaps:           v.GetFloat64("PLANNER_WEIGHT_GAPS"),
		DayWeights:           v.GetString("PLANNER_DAY_WEIGHTS"),
		MandatoryBreakStart:  v.GetString("PLANNER_BREAK_START"),
		MandatoryBreakEnd:    v.GetString("PLANNER_BREAK_END"),
		MaxAllowedGapMinutes: v.GetInt("PLANNER_MAX_GAP_MINUTES"),
		MaxRequestedCourses:  v.GetInt("PLANNER_MAX_COURSES"),
		TopNResults:          v.GetInt("PLANNER_TOP_N"),
		MaxCombinations:      v.GetInt("PLANNER_MAX_COMBINATIONS"),
	}

	cfg.Export = ExportConfig{
		Enabled: v.GetBool("ENABLE_EXPORT"),
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
	v.SetDefault("DB_NAME", "course_catalog")
	v.SetDefault("DB_SSL_MODE", "disable")
	v.SetDefault("DB_MAX_OPEN_CONNS", 10)
	v.SetDefault("DB_MAX_IDLE_CONNS", 5)

	v.SetDefault("REDIS_HOST", "localhost")
	v.SetDefault("REDIS_PORT", 6379)
	v.SetDefault("REDIS_PASSWORD", "")
	v.SetDefault("REDIS_DB", 0)

	v.SetDefault("JWT_SECRET", "dev_secret")
	v.SetDefault("JWT_EXPIRATION", "24h")

	v.SetDefault("ALLOWED_ORIGINS", "")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("LOG_FORMAT", "json")

	v.SetDefault("CATALOG_CACHE_ENABLED", false)
	v.SetDefault("CATALOG_CACHE_TTL", "10m")

	v.SetDefault("PLANNER_WEIGHT_MODALITY", 3.0)
	v.SetDefault("PLANNER_WEIGHT_DAYS", 1.0)
	v.SetDefault("PLANNER_WEIGHT_GAPS", 1.0)
	v.SetDefault("PLANNER_DAY_WEIGHTS", "1:0,2:1,3:2,4:3,5:4")
	v.SetDefault("PLANNER_BREAK_START", "12:15 PM")
	v.SetDefault("PLANNER_BREAK_END", "01:15 PM")
	v.SetDefault("PLANNER_MAX_GAP_MINUTES", 20)
	v.SetDefault("PLANNER_MAX_COURSES", 8)
	v.SetDefault("PLANNER_TOP_N", 50)
	v.SetDefault("PLANNER_MAX_COMBINATIONS", 250000)

	v.SetDefault("ENABLE_EXPORT", false)
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
