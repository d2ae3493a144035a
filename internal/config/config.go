// internal/config/config.go
package config

import (
	"os"
	"sync"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig
	Database DatabaseConfig
	Cache    CacheConfig
	Sheet    SheetConfig
	Archive  ArchiveConfig
	Forecast ForecastConfig
}

type ServerConfig struct {
	Port           string
	Mode           string
	ReadTimeout    int
	WriteTimeout   int
	AllowedOrigins []string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	User     string
	Password string
	DBName   string
	SSLMode  string
}

type CacheConfig struct {
	Enabled            bool
	RedisURL           string
	RedisHost          string
	RedisPort          string
	RedisPassword      string
	RedisDB            int
	DecisionTTLSeconds int
}

// SheetConfig points at the published Google Sheet that holds the stock log.
// CSVURL is the anonymous published-CSV export; CredentialsJSON enables the
// authenticated Sheets API path for private spreadsheets.
type SheetConfig struct {
	CSVURL          string
	SpreadsheetID   string
	ReadRange       string
	CredentialsJSON string
}

// ArchiveConfig configures the S3-compatible bucket where raw snapshot
// uploads are kept for audit/replay.
type ArchiveConfig struct {
	Enabled   bool
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

type ForecastConfig struct {
	HorizonDays       int
	ReactiveWindow    int
	ReactiveFlex      float64
	SeasonalFlex      float64
	FitTimeoutSeconds int
	BatchWorkers      int
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
		viper.SetDefault("SERVER_READ_TIMEOUT", 15)
		viper.SetDefault("SERVER_WRITE_TIMEOUT", 30)
		viper.SetDefault("SERVER_ALLOWED_ORIGINS", []string{"*"})
		viper.SetDefault("DB_HOST", "localhost")
		viper.SetDefault("DB_PORT", "5432")
		viper.SetDefault("DB_USER", "postgres")
		viper.SetDefault("DB_PASSWORD", "postgres")
		viper.SetDefault("DB_NAME", "restock")
		viper.SetDefault("DB_SSLMODE", "disable")
		viper.SetDefault("CACHE_ENABLED", false)
		viper.SetDefault("REDIS_URL", "")
		viper.SetDefault("REDIS_HOST", "127.0.0.1")
		viper.SetDefault("REDIS_PORT", "6379")
		viper.SetDefault("REDIS_PASSWORD", "")
		viper.SetDefault("REDIS_DB", 0)
		viper.SetDefault("CACHE_DECISION_TTL_SECONDS", 300)
		viper.SetDefault("SHEET_CSV_URL", "")
		viper.SetDefault("SHEET_SPREADSHEET_ID", "")
		viper.SetDefault("SHEET_READ_RANGE", "A:C")
		viper.SetDefault("ARCHIVE_ENABLED", false)
		viper.SetDefault("ARCHIVE_ENDPOINT", "")
		viper.SetDefault("ARCHIVE_BUCKET", "restock-snapshots")
		viper.SetDefault("ARCHIVE_USE_SSL", true)
		viper.SetDefault("FORECAST_HORIZON_DAYS", 30)
		viper.SetDefault("FORECAST_REACTIVE_WINDOW", 30)
		viper.SetDefault("FORECAST_REACTIVE_FLEX", 0.5)
		viper.SetDefault("FORECAST_SEASONAL_FLEX", 0.05)
		viper.SetDefault("FORECAST_FIT_TIMEOUT_SECONDS", 30)
		viper.SetDefault("FORECAST_BATCH_WORKERS", 4)

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
			Cache: CacheConfig{
				Enabled:            viper.GetBool("CACHE_ENABLED"),
				RedisURL:           viper.GetString("REDIS_URL"),
				RedisHost:          viper.GetString("REDIS_HOST"),
				RedisPort:          viper.GetString("REDIS_PORT"),
				RedisPassword:      viper.GetString("REDIS_PASSWORD"),
				RedisDB:            viper.GetInt("REDIS_DB"),
				DecisionTTLSeconds: viper.GetInt("CACHE_DECISION_TTL_SECONDS"),
			},
			Sheet: SheetConfig{
				CSVURL:          viper.GetString("SHEET_CSV_URL"),
				SpreadsheetID:   viper.GetString("SHEET_SPREADSHEET_ID"),
				ReadRange:       viper.GetString("SHEET_READ_RANGE"),
				CredentialsJSON: os.Getenv("GOOGLE_SHEETS_CREDENTIALS_JSON"),
			},
			Archive: ArchiveConfig{
				Enabled:   viper.GetBool("ARCHIVE_ENABLED"),
				Endpoint:  viper.GetString("ARCHIVE_ENDPOINT"),
				AccessKey: viper.GetString("ARCHIVE_ACCESS_KEY"),
				SecretKey: viper.GetString("ARCHIVE_SECRET_KEY"),
				Bucket:    viper.GetString("ARCHIVE_BUCKET"),
				UseSSL:    viper.GetBool("ARCHIVE_USE_SSL"),
			},
			Forecast: ForecastConfig{
				HorizonDays:       viper.GetInt("FORECAST_HORIZON_DAYS"),
				ReactiveWindow:    viper.GetInt("FORECAST_REACTIVE_WINDOW"),
				ReactiveFlex:      viper.GetFloat64("FORECAST_REACTIVE_FLEX"),
				SeasonalFlex:      viper.GetFloat64("FORECAST_SEASONAL_FLEX"),
				FitTimeoutSeconds: viper.GetInt("FORECAST_FIT_TIMEOUT_SECONDS"),
				BatchWorkers:      viper.GetInt("FORECAST_BATCH_WORKERS"),
			},
		}
	})

	return instance
}
