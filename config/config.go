package config

import (
	"roomledger/internal/logger"

	"github.com/spf13/viper"
)

type Config struct {
	GeneralVersion     string `mapstructure:"GENERAL_VERSION"`
	Environment        string `mapstructure:"ENVIRONMENT"`
	ServerPort         int    `mapstructure:"SERVER_PORT"`
	DatabaseHost       string `mapstructure:"DB_HOST"`
	DatabasePort       int    `mapstructure:"DB_PORT"`
	DatabaseName       string `mapstructure:"DB_NAME"`
	DatabaseUser       string `mapstructure:"DB_USER"`
	DatabasePassword   string `mapstructure:"DB_PASSWORD"`
	CacheAddress       string `mapstructure:"CACHE_ADDRESS"`
	CachePort          int    `mapstructure:"CACHE_PORT"`
	CorsAllowOrigins   string `mapstructure:"CORS_ALLOW_ORIGINS"`
	SchedulerEnabled   bool   `mapstructure:"SCHEDULER_ENABLED"`
	PaymentGatewayURL  string `mapstructure:"PAYMENT_GATEWAY_URL"`
	PaymentPartnerCode string `mapstructure:"PAYMENT_PARTNER_CODE"`
	PaymentSecretKey   string `mapstructure:"PAYMENT_SECRET_KEY"`
	PaymentRedirectURL string `mapstructure:"PAYMENT_REDIRECT_URL"`
	NotificationSender string `mapstructure:"NOTIFICATION_SENDER"`
}

var ConfigInstance Config

func InitConfig() (Config, error) {
	log := logger.New("config").Function("InitConfig")
	log.Info("Initializing config")

	viper.AutomaticEnv()

	envVars := []string{
		"GENERAL_VERSION", "ENVIRONMENT", "SERVER_PORT",
		"DB_HOST", "DB_PORT", "DB_NAME", "DB_USER", "DB_PASSWORD",
		"CACHE_ADDRESS", "CACHE_PORT",
		"CORS_ALLOW_ORIGINS", "SCHEDULER_ENABLED",
		"PAYMENT_GATEWAY_URL", "PAYMENT_PARTNER_CODE", "PAYMENT_SECRET_KEY", "PAYMENT_REDIRECT_URL",
		"NOTIFICATION_SENDER",
	}

	for _, env := range envVars {
		if err := viper.BindEnv(env); err != nil {
			log.Warn("Failed to bind environment variable", "env", env, "error", err)
		}
	}

	envVarsSet := viper.IsSet("SERVER_PORT") && viper.IsSet("DB_HOST")

	if envVarsSet {
		log.Info("Environment variables detected, skipping file loading")
	} else {
		log.Info("Environment variables not found, attempting to load from files")

		viper.SetConfigFile(".env")
		viper.SetConfigType("env")

		if err := viper.ReadInConfig(); err != nil {
			log.Warn("Could not find .env file", "error", err)
		} else {
			log.Info("Loaded .env file")
		}

		viper.SetConfigFile(".env.local")
		if err := viper.MergeInConfig(); err != nil {
			log.Debug("No .env.local file found", "error", err)
		} else {
			log.Info("Loaded .env.local overrides")
		}
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return Config{}, log.Err("Fatal error: could not unmarshal config", err)
	}

	if err := validateConfig(config, log); err != nil {
		return Config{}, err
	}

	log.Info("Successfully initialized config", "environment", config.Environment, "port", config.ServerPort)
	return ConfigInstance, nil
}

func GetConfig() Config {
	return ConfigInstance
}

func validateConfig(config Config, log logger.Logger) error {
	if config.ServerPort <= 0 {
		return log.Error(
			"Fatal error: invalid server port",
			"port", config.ServerPort,
		)
	}

	if config.PaymentGatewayURL != "" {
		if config.PaymentPartnerCode == "" {
			return log.Err(
				"Fatal error: PAYMENT_PARTNER_CODE required when PAYMENT_GATEWAY_URL is set",
				nil,
			)
		}
		if config.PaymentSecretKey == "" {
			return log.Err(
				"Fatal error: PAYMENT_SECRET_KEY required when PAYMENT_GATEWAY_URL is set",
				nil,
			)
		}
	}

	ConfigInstance = config
	return nil
}
