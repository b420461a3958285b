package config

import (
	"errors"

	"github.com/spf13/viper"
)

type Config struct {
	Port             int    `mapstructure:"PORT"`
	MongoURI         string `mapstructure:"MONGO_URI"`
	MongoDatabase    string `mapstructure:"MONGO_DB"`
	MailerDriver     string `mapstructure:"MAILER_DRIVER"` // "mailersend" or "smtp"
	MailerSendAPIKey string `mapstructure:"MAILERSEND_API_KEY"`
	EmailFrom        string `mapstructure:"EMAIL_FROM"`
	EmailFromName    string `mapstructure:"EMAIL_FROM_NAME"`
	SMTPHost         string `mapstructure:"SMTP_HOST"`
	SMTPPort         int    `mapstructure:"SMTP_PORT"`
	SMTPUsername     string `mapstructure:"SMTP_USERNAME"`
	SMTPPassword     string `mapstructure:"SMTP_PASSWORD"`
}

func LoadConfig() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("env")
	viper.AddConfigPath(".")
	viper.AutomaticEnv()

	// Set default values. MONGO_URI deliberately has no default: a missing
	// connection string is a fatal startup condition.
	viper.SetDefault("PORT", 8080)
	viper.SetDefault("MONGO_URI", "")
	viper.SetDefault("MONGO_DB", "echo-quest-db")
	viper.SetDefault("MAILER_DRIVER", "mailersend")
	viper.SetDefault("MAILERSEND_API_KEY", "")
	viper.SetDefault("EMAIL_FROM", "onboarding@echo-quest.app")
	viper.SetDefault("EMAIL_FROM_NAME", "Echo Quest")
	viper.SetDefault("SMTP_HOST", "")
	viper.SetDefault("SMTP_PORT", 587)
	viper.SetDefault("SMTP_USERNAME", "")
	viper.SetDefault("SMTP_PASSWORD", "")

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.MongoURI == "" {
		return nil, errors.New("MONGO_URI is not defined in the environment")
	}

	return &cfg, nil
}
