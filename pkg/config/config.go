package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Placeholder values used when the identity service is not configured.
// Requests against them fail, but the process still starts.
const (
	PlaceholderIdentityURL     = "https://placeholder.supabase.co"
	PlaceholderIdentityAnonKey = "placeholder-anon-key"
)

// Config groups the application configuration (env vars, optional .env / config.yaml).
type Config struct {
	App      AppConfig
	HTTP     HTTPConfig
	DB       DBConfig
	Identity IdentityConfig
	API      APIConfig
	Log      LogConfig
	Cache    CacheConfig
	Seed     SeedConfig
}

type AppConfig struct {
	Env  string // development, production
	Name string
}

type HTTPConfig struct {
	Host string
	Port int
}

// Addr returns the listen address (host:port).
func (c HTTPConfig) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// DBConfig holds the PostgreSQL settings. DatabaseURL wins when set.
type DBConfig struct {
	DatabaseURL string
	Host        string
	Port        int
	User        string
	Password    string
	Name        string
	SSLMode     string
	// AutoMigrate uses gorm's AutoMigrate instead of the goose migrations.
	AutoMigrate bool
}

// ConnectionString returns DATABASE_URL if present, otherwise a key/value DSN.
func (c DBConfig) ConnectionString() string {
	if c.DatabaseURL != "" {
		return c.DatabaseURL
	}
	return fmt.Sprintf("host=%s user=%s password=%s dbname=%s port=%d sslmode=%s",
		c.Host, c.User, c.Password, c.Name, c.Port, c.SSLMode)
}

// IdentityConfig points at the hosted identity provider.
type IdentityConfig struct {
	URL       string
	AnonKey   string
	JWTSecret string // used by the API to verify provider access tokens
}

// APIConfig is what the client side (opsctl) needs to reach the application API.
type APIConfig struct {
	BaseURL     string
	SessionFile string
}

// SeedConfig names the platform operator registered at API startup.
type SeedConfig struct {
	SuperAdminEmail      string
	SuperAdminAuthUserID string
	SuperAdminName       string
}

type LogConfig struct {
	Level string
}

// CacheConfig mirrors querycache.Config.
type CacheConfig struct {
	StaleTime            time.Duration
	GCTime               time.Duration
	RefetchOnWindowFocus bool
}

// Load reads configuration from the environment, a .env file and an optional config file.
// Environment variables take precedence.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("read config file: %w", err)
		}
	}

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	cfg := &Config{
		App: AppConfig{
			Env:  v.GetString("APP_ENV"),
			Name: v.GetString("APP_NAME"),
		},
		HTTP: HTTPConfig{
			Host: v.GetString("HTTP_HOST"),
			Port: v.GetInt("HTTP_PORT"),
		},
		DB: DBConfig{
			DatabaseURL: v.GetString("DATABASE_URL"),
			Host:        v.GetString("DB_HOST"),
			Port:        v.GetInt("DB_PORT"),
			User:        v.GetString("DB_USER"),
			Password:    v.GetString("DB_PASSWORD"),
			Name:        v.GetString("DB_NAME"),
			SSLMode:     v.GetString("DB_SSLMODE"),
			AutoMigrate: v.GetBool("DB_AUTO_MIGRATE"),
		},
		Identity: IdentityConfig{
			URL:       v.GetString("IDENTITY_URL"),
			AnonKey:   v.GetString("IDENTITY_ANON_KEY"),
			JWTSecret: v.GetString("IDENTITY_JWT_SECRET"),
		},
		API: APIConfig{
			BaseURL:     v.GetString("API_BASE_URL"),
			SessionFile: v.GetString("SESSION_FILE"),
		},
		Log: LogConfig{
			Level: v.GetString("LOG_LEVEL"),
		},
		Cache: CacheConfig{
			StaleTime:            v.GetDuration("CACHE_STALE_TIME"),
			GCTime:               v.GetDuration("CACHE_GC_TIME"),
			RefetchOnWindowFocus: v.GetBool("CACHE_REFETCH_ON_FOCUS"),
		},
		Seed: SeedConfig{
			SuperAdminEmail:      v.GetString("SUPERADMIN_EMAIL"),
			SuperAdminAuthUserID: v.GetString("SUPERADMIN_AUTH_USER_ID"),
			SuperAdminName:       v.GetString("SUPERADMIN_NAME"),
		},
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "development")
	v.SetDefault("APP_NAME", "inventory-checklist")
	v.SetDefault("HTTP_HOST", "0.0.0.0")
	v.SetDefault("HTTP_PORT", 3000)
	v.SetDefault("DB_HOST", "localhost")
	v.SetDefault("DB_PORT", 5432)
	v.SetDefault("DB_USER", "postgres")
	v.SetDefault("DB_NAME", "inventory_checklist")
	v.SetDefault("DB_SSLMODE", "disable")
	v.SetDefault("DB_AUTO_MIGRATE", false)
	v.SetDefault("IDENTITY_URL", PlaceholderIdentityURL)
	v.SetDefault("IDENTITY_ANON_KEY", PlaceholderIdentityAnonKey)
	v.SetDefault("API_BASE_URL", "http://localhost:3000")
	v.SetDefault("SESSION_FILE", ".opsctl-session.json")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("CACHE_STALE_TIME", 30*time.Second)
	v.SetDefault("CACHE_GC_TIME", time.Minute)
	v.SetDefault("CACHE_REFETCH_ON_FOCUS", true)
}
