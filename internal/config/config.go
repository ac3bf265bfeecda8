package config

import (
	"errors"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config holds all configuration for the application.
type Config struct {
	Port                             string `mapstructure:"PORT"`
	GinMode                          string `mapstructure:"GIN_MODE"`
	FirebaseProjectID                string `mapstructure:"FIREBASE_PROJECT_ID"`
	GoogleApplicationCredentials     string `mapstructure:"GOOGLE_APPLICATION_CREDENTIALS"`
	FirebaseServiceAccountJSONBase64 string `mapstructure:"FIREBASE_SERVICE_ACCOUNT_JSON_BASE64"`
	MasterEncryptionKey              string `mapstructure:"MASTER_ENCRYPTION_KEY"` // Base64 encoded, 32 bytes decoded
	ClientURL                        string `mapstructure:"CLIENT_URL"`

	// Roster cache backend. When RedisAddress is empty the in-memory cache
	// is used instead.
	RedisAddress  string `mapstructure:"REDIS_ADDRESS"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	RedisDB       int    `mapstructure:"REDIS_DB"`

	// Report tuning knobs. Correctness does not depend on the exact values;
	// they bound batch sizes and concurrency.
	HealthBatchSize       int    `mapstructure:"HEALTH_BATCH_SIZE"`
	AccessBatchSize       int    `mapstructure:"ACCESS_BATCH_SIZE"`
	OracleConcurrency     int    `mapstructure:"ORACLE_CONCURRENCY"`
	RosterCacheTTLSeconds int    `mapstructure:"ROSTER_CACHE_TTL_SECONDS"`
	WeakScoreThreshold    int    `mapstructure:"WEAK_SCORE_THRESHOLD"`
	BreachOracleBaseURL   string `mapstructure:"BREACH_ORACLE_BASE_URL"`
}

// RosterCacheTTL returns the roster cache TTL as a duration.
func (c *Config) RosterCacheTTL() time.Duration {
	return time.Duration(c.RosterCacheTTLSeconds) * time.Second
}

var appConfig *Config

// LoadConfig loads configuration from environment variables using Viper.
func LoadConfig() (*Config, error) {
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("PORT", "8080")
	viper.SetDefault("GIN_MODE", "debug")
	viper.SetDefault("HEALTH_BATCH_SIZE", 500)
	viper.SetDefault("ACCESS_BATCH_SIZE", 500)
	viper.SetDefault("ORACLE_CONCURRENCY", 100)
	viper.SetDefault("ROSTER_CACHE_TTL_SECONDS", 60)
	viper.SetDefault("WEAK_SCORE_THRESHOLD", 2)
	viper.SetDefault("BREACH_ORACLE_BASE_URL", "https://api.pwnedpasswords.com")
	viper.SetDefault("REDIS_DB", 0)

	// Bind environment variables
	viper.BindEnv("PORT")
	viper.BindEnv("GIN_MODE")
	viper.BindEnv("FIREBASE_PROJECT_ID")
	viper.BindEnv("GOOGLE_APPLICATION_CREDENTIALS")
	viper.BindEnv("FIREBASE_SERVICE_ACCOUNT_JSON_BASE64")
	viper.BindEnv("MASTER_ENCRYPTION_KEY")
	viper.BindEnv("CLIENT_URL")
	viper.BindEnv("REDIS_ADDRESS")
	viper.BindEnv("REDIS_PASSWORD")
	viper.BindEnv("REDIS_DB")
	viper.BindEnv("HEALTH_BATCH_SIZE")
	viper.BindEnv("ACCESS_BATCH_SIZE")
	viper.BindEnv("ORACLE_CONCURRENCY")
	viper.BindEnv("ROSTER_CACHE_TTL_SECONDS")
	viper.BindEnv("WEAK_SCORE_THRESHOLD")
	viper.BindEnv("BREACH_ORACLE_BASE_URL")

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, errors.New("failed to unmarshal config: " + err.Error())
	}

	// Validate required fields
	if cfg.FirebaseProjectID == "" {
		return nil, errors.New("FIREBASE_PROJECT_ID is required")
	}
	if cfg.GoogleApplicationCredentials == "" && cfg.FirebaseServiceAccountJSONBase64 == "" {
		return nil, errors.New("either GOOGLE_APPLICATION_CREDENTIALS or FIREBASE_SERVICE_ACCOUNT_JSON_BASE64 is required")
	}
	if cfg.MasterEncryptionKey == "" {
		return nil, errors.New("MASTER_ENCRYPTION_KEY is required")
	}
	if cfg.ClientURL == "" {
		return nil, errors.New("CLIENT_URL is required")
	}
	if cfg.HealthBatchSize <= 0 || cfg.AccessBatchSize <= 0 {
		return nil, errors.New("batch sizes must be positive")
	}
	if cfg.OracleConcurrency <= 0 {
		return nil, errors.New("ORACLE_CONCURRENCY must be positive")
	}

	appConfig = &cfg
	return appConfig, nil
}

// GetConfig returns the loaded application configuration.
// It will panic if LoadConfig has not been called successfully.
func GetConfig() *Config {
	if appConfig == nil {
		panic("config not loaded; call LoadConfig first")
	}
	return appConfig
}
