package utils

import (
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig
	Database   DatabaseConfig
	BookingAPI BookingAPIConfig
	Scanner    ScannerConfig
	Operator   OperatorConfig
}

type AppConfig struct {
	Name    string
	Port    string
	Debug   bool
	LogPath string
}

type DatabaseConfig struct {
	Host     string
	Port     string
	Name     string
	User     string
	Password string
	MaxConns int32
}

// BookingAPIConfig points at the marketplace backend used for live status
// enrichment.
type BookingAPIConfig struct {
	BaseURL string
	Timeout time.Duration
}

// ScannerConfig tunes the scan core. ReadyTimeout and PixelInterval are
// heuristics carried over from field testing, not contracts.
type ScannerConfig struct {
	ReadyTimeout   time.Duration
	PixelInterval  time.Duration
	SessionTimeout time.Duration
	StillDir       string
	StillInterval  time.Duration
}

// OperatorConfig guards the back-office history routes. KeyHash is a bcrypt
// hash of the operator key; empty disables the check.
type OperatorConfig struct {
	KeyHash string
}

func LoadConfig() (*Config, error) {
	viper.SetConfigFile(".env")
	viper.SetConfigType("env")

	// Set defaults
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("DEBUG", false)
	viper.SetDefault("LOG_PATH", "logs/")
	viper.SetDefault("DB_MAX_CONNS", 10)
	viper.SetDefault("BOOKING_API_TIMEOUT_MS", 5000)
	viper.SetDefault("SCANNER_READY_TIMEOUT_MS", 2000)
	viper.SetDefault("SCANNER_PIXEL_INTERVAL_MS", 40)
	viper.SetDefault("SCANNER_SESSION_TIMEOUT_MS", 30000)
	viper.SetDefault("SCANNER_STILL_DIR", "frames/")
	viper.SetDefault("SCANNER_STILL_INTERVAL_MS", 200)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	viper.AutomaticEnv()

	config := &Config{
		App: AppConfig{
			Name:    viper.GetString("APP_NAME"),
			Port:    viper.GetString("PORT"),
			Debug:   viper.GetBool("DEBUG"),
			LogPath: viper.GetString("LOG_PATH"),
		},
		Database: DatabaseConfig{
			Host:     viper.GetString("DB_HOST"),
			Port:     viper.GetString("DB_PORT"),
			Name:     viper.GetString("DB_NAME"),
			User:     viper.GetString("DB_USER"),
			Password: viper.GetString("DB_PASS"),
			MaxConns: viper.GetInt32("DB_MAX_CONNS"),
		},
		BookingAPI: BookingAPIConfig{
			BaseURL: viper.GetString("BOOKING_API_URL"),
			Timeout: time.Duration(viper.GetInt("BOOKING_API_TIMEOUT_MS")) * time.Millisecond,
		},
		Scanner: ScannerConfig{
			ReadyTimeout:   time.Duration(viper.GetInt("SCANNER_READY_TIMEOUT_MS")) * time.Millisecond,
			PixelInterval:  time.Duration(viper.GetInt("SCANNER_PIXEL_INTERVAL_MS")) * time.Millisecond,
			SessionTimeout: time.Duration(viper.GetInt("SCANNER_SESSION_TIMEOUT_MS")) * time.Millisecond,
			StillDir:       viper.GetString("SCANNER_STILL_DIR"),
			StillInterval:  time.Duration(viper.GetInt("SCANNER_STILL_INTERVAL_MS")) * time.Millisecond,
		},
		Operator: OperatorConfig{
			KeyHash: viper.GetString("OPERATOR_KEY_HASH"),
		},
	}

	return config, nil
}
