/**
 * @description
 * This package handles the configuration management for the service. It uses the
 * Viper library to read configuration from environment variables, providing a
 * centralized and straightforward way to manage application settings.
 *
 * @dependencies
 * - github.com/spf13/viper: A popular library for Go application configuration.
 */

package config

import (
	"log"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/viper"
)

// Config holds all the configuration variables for the savings service.
// These values are loaded from environment variables.
type Config struct {
	ServerPort           string `mapstructure:"SERVER_PORT"`
	DatabaseURL          string `mapstructure:"DATABASE_URL"`
	RedisURL             string `mapstructure:"REDIS_URL"`
	RedisRateLimitPrefix string `mapstructure:"REDIS_RATE_LIMIT_PREFIX"`
	RabbitMQURL          string `mapstructure:"RABBITMQ_URL"`
	GatewayBaseURL       string `mapstructure:"GATEWAY_BASE_URL"`
	GatewayAPIKey        string `mapstructure:"GATEWAY_API_KEY"`
	InternalAPIKey       string `mapstructure:"INTERNAL_API_KEY"`
	DailyAmountCents     int64  `mapstructure:"DAILY_AMOUNT_CENTS"`
	AllocationSchedule   string `mapstructure:"ALLOCATION_JOB_SCHEDULE"`
	FundingSchedule      string `mapstructure:"FUNDING_JOB_SCHEDULE"`
}

// LoadConfig reads configuration from environment variables from the given path.
// It uses Viper to automatically bind environment variables to the Config struct.
func LoadConfig(path string) (config Config, err error) {
	// Tell viper the path to look for the optional .env file.
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	// Enable automatic binding of environment variables.
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	// Set default values
	viper.SetDefault("SERVER_PORT", "8080")
	viper.SetDefault("DAILY_AMOUNT_CENTS", 2740)
	viper.SetDefault("ALLOCATION_JOB_SCHEDULE", "0 6 * * *")
	viper.SetDefault("FUNDING_JOB_SCHEDULE", "30 6 * * *")
	viper.SetDefault("REDIS_RATE_LIMIT_PREFIX", "save2740:rate_limit")

	// Bind environment variables explicitly to ensure they appear in Unmarshal
	_ = viper.BindEnv("SERVER_PORT")
	_ = viper.BindEnv("PORT")
	_ = viper.BindEnv("DATABASE_URL")
	_ = viper.BindEnv("REDIS_URL")
	_ = viper.BindEnv("REDIS_RATE_LIMIT_PREFIX")
	_ = viper.BindEnv("RABBITMQ_URL")
	_ = viper.BindEnv("GATEWAY_BASE_URL")
	_ = viper.BindEnv("GATEWAY_API_KEY")
	_ = viper.BindEnv("INTERNAL_API_KEY", "INTERNAL_API_KEY", "SAVINGS_SERVICE_INTERNAL_API_KEY")
	_ = viper.BindEnv("DAILY_AMOUNT_CENTS")
	_ = viper.BindEnv("DAILY_AMOUNT")
	_ = viper.BindEnv("ALLOCATION_JOB_SCHEDULE")
	_ = viper.BindEnv("FUNDING_JOB_SCHEDULE")

	// Attempt to read the config file. It's okay if it doesn't exist.
	if err = viper.ReadInConfig(); err != nil {
		// If the config file is not found, we can ignore the error.
		// For other errors, we should return them.
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			log.Printf("level=warn component=config msg=\"failed to read config file; using environment values\" err=%v", err)
		}
	}

	// Unmarshal the configuration into the Config struct.
	err = viper.Unmarshal(&config)
	if err != nil {
		return
	}

	if port := strings.TrimSpace(os.Getenv("PORT")); port != "" {
		config.ServerPort = port
	}
	if strings.TrimSpace(config.InternalAPIKey) == "" {
		config.InternalAPIKey = strings.TrimSpace(os.Getenv("SAVINGS_SERVICE_INTERNAL_API_KEY"))
	}
	config.RedisURL = strings.TrimSpace(config.RedisURL)
	config.RedisRateLimitPrefix = strings.TrimSpace(config.RedisRateLimitPrefix)
	if config.RedisRateLimitPrefix == "" {
		config.RedisRateLimitPrefix = "save2740:rate_limit"
	}

	// Allow specifying the daily amount in whole currency units via DAILY_AMOUNT.
	if viper.IsSet("DAILY_AMOUNT") {
		amountStr := strings.TrimSpace(viper.GetString("DAILY_AMOUNT"))
		if amountStr != "" {
			amountValue, parseErr := strconv.ParseFloat(amountStr, 64)
			if parseErr != nil {
				log.Printf("level=warn component=config msg=\"invalid DAILY_AMOUNT\" value=%q err=%v", amountStr, parseErr)
			} else {
				config.DailyAmountCents = int64(math.Round(amountValue * 100))
			}
		}
	}

	if config.DailyAmountCents <= 0 {
		log.Printf("level=warn component=config msg=\"non-positive daily amount configured; using default\" amount_cents=%d", config.DailyAmountCents)
		config.DailyAmountCents = 2740
	}

	if strings.TrimSpace(config.AllocationSchedule) == "" {
		config.AllocationSchedule = "0 6 * * *"
	}
	if strings.TrimSpace(config.FundingSchedule) == "" {
		config.FundingSchedule = "30 6 * * *"
	}

	return
}
