// internal/config/config.go
package config

import (
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Auth     AuthConfig
	Tenant   TenantConfig
	Report   ReportConfig
	Cache    CacheConfig
	Archive  ArchiveConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

// DatabaseConfig points at the application Postgres database that stores
// connection registrations. Tenant databases are configured per user at
// runtime, not here.
type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

// AuthConfig verifies bearer tokens issued by the external identity
// provider. Token issuance never happens here.
type AuthConfig struct {
	JWTSecret string
}

type TenantConfig struct {
	ConnectTimeoutSeconds int
	RequestTimeoutSeconds int
	MaxOpenConns          int
	MaxConcurrentQueries  int
}

type ReportConfig struct {
	WindowDays     int
	PackUnitLabels []string
}

type CacheConfig struct {
	Enabled          bool
	RedisURL         string
	RedisHost        string
	RedisPort        string
	RedisPassword    string
	RedisDB          int
	ReportTTLSeconds int
}

// ArchiveConfig configures the optional S3-compatible bucket where
// exported report workbooks are archived.
type ArchiveConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

var (
	once     sync.Once
	instance *Config
)

func Load() *Config {
	once.Do(func() {
		// Load .env file if it exists
		_ = godotenv.Load()

		// Set default values
		viper.SetDefault("SERVER_PORT", "8080")
		viper.SetDefault("SERVER_MODE", "debug")
		viper.SetDefault("SERVER_READ_TIMEOUT", 30)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 90)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "reports")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("AUTH_JWT_SECRET", "")
		viper.SetDefault("TENANT_CONNECT_TIMEOUT_SECONDS", 30)
		viper.SetDefault("TENANT_REQUEST_TIMEOUT_SECONDS", 60)
		viper.SetDefault("TENANT_MAX_OPEN_CONNS", 10)
		viper.SetDefault("TENANT_MAX_CONCURRENT_QUERIES", 10)
		viper.SetDefault("REPORT_WINDOW_DAYS", 60)
		viper.SetDefault("REPORT_PACK_UNIT_LABELS", []string{})
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_REPORT_TTL_SECONDS", 60)
		viper.SetDefault("ARCHIVE_ENABLED", false)
		viper.SetDefault("ARCHIVE_ENDPOINT", "")
		viper.SetDefault("ARCHIVE_ACCESS_KEY", "")
		viper.SetDefault("ARCHIVE_SECRET_KEY", "")
		viper.SetDefault("ARCHIVE_BUCKET", "report-exports")
		viper.SetDefault("ARCHIVE_USE_SSL", true)

		// Read from environment variables
		viper.AutomaticEnv()

		instance = &Config{
			Server: ServerConfig{
				Port:           viper.GetString("SERVER_PORT"),
				Mode:           viper.GetString("SERVER_MODE"),
				ReadTimeout:    viper.GetInt("SERVER_READ_TIMEOUT"),
				WriteTimeout:   viper.GetInt("SERVER_WRITE_TIMEOUT"),
				AllowedOrigins: viper.GetStringSlice("SERVER_ALLOWED_ORIGINS"),
			},
			Database: DatabaseConfig{
				Host:     viper.GetString("DB_HOST"),
				Port:     viper.GetString("DB_PORT"),
				User:     viper.GetString("DB_USER"),
				Password: viper.GetString("DB_PASSWORD"),
				DBName:   viper.GetString("DB_NAME"),
				SSLMode:  viper.GetString("DB_SSLMODE"),
			},
			Auth: AuthConfig{
				JWTSecret: viper.GetString("AUTH_JWT_SECRET"),
			},
			Tenant: TenantConfig{
				ConnectTimeoutSeconds: viper.GetInt("TENANT_CONNECT_TIMEOUT_SECONDS"),
				RequestTimeoutSeconds: viper.GetInt("TENANT_REQUEST_TIMEOUT_SECONDS"),
				MaxOpenConns:          viper.GetInt("TENANT_MAX_OPEN_CONNS"),
				MaxConcurrentQueries:  viper.GetInt("TENANT_MAX_CONCURRENT_QUERIES"),
			},
			Report: ReportConfig{
				WindowDays:     viper.GetInt("REPORT_WINDOW_DAYS"),
				PackUnitLabels: viper.GetStringSlice("REPORT_PACK_UNIT_LABELS"),
			},
			Cache: CacheConfig{
				Enabled:          viper.GetBool("CACHE_ENABLED"),
				RedisURL:         viper.GetString("REDIS_URL"),
				RedisHost:        viper.GetString("REDIS_HOST"),
				RedisPort:        viper.GetString("REDIS_PORT"),
				RedisPassword:    viper.GetString("REDIS_PASSWORD"),
				RedisDB:          viper.GetInt("REDIS_DB"),
				ReportTTLSeconds: viper.GetInt("CACHE_REPORT_TTL_SECONDS"),
			},
			Archive: ArchiveConfig{
				Enabled:   viper.GetBool("ARCHIVE_ENABLED"),
				Endpoint:  viper.GetString("ARCHIVE_ENDPOINT"),
				AccessKey: viper.GetString("ARCHIVE_ACCESS_KEY"),
				SecretKey: viper.GetString("ARCHIVE_SECRET_KEY"),
				Bucket:    viper.GetString("ARCHIVE_BUCKET"),
				UseSSL:    viper.GetBool("ARCHIVE_USE_SSL"),
			},
		}
	})

	return instance
}
