package config

import (
	"bytes"
	_ "embed"
	"fmt"
	"time"

	"github.com/spf13/viper"
)

//go:embed config.yml
var embeddedConfig []byte

type Config struct {
	Mode     string `mapstructure:"mode"`
	Handlers struct {
		Prometheus struct {
			Port      string `mapstructure:"port"`
			EnableTLS bool   `mapstructure:"enableTLS"`
		} `mapstructure:"prometheus"`
	} `mapstructure:"handlers"`
	Repositories struct {
		Postgres struct {
			Host     string `mapstructure:"host"`
			Password string `mapstructure:"password"`
			Port     string `mapstructure:"port"`
			Username string `mapstructure:"username"`
			DB       string `mapstructure:"db"`
			SSLMode  string `mapstructure:"sslmode"`
		} `mapstructure:"postgres"`
	} `mapstructure:"repositories"`
	Server struct {
		HTTPPort string        `mapstructure:"HTTPPort"`
		Timeout  time.Duration `mapstructure:"HTTPTimeout"`
	} `mapstructure:"server"`
	Collector struct {
		// DefaultIntervalMinutes is the fallback collection interval when the
		// stored collector config is missing or invalid.
		DefaultIntervalMinutes int `mapstructure:"defaultIntervalMinutes"`
		// TickSeconds is how often the scheduler re-evaluates whether a
		// collection cycle is due.
		TickSeconds int `mapstructure:"tickSeconds"`
	} `mapstructure:"collector"`
	AI struct {
		Model string `mapstructure:"model"`
	} `mapstructure:"ai"`
}

func InitConfig() (Config, error) {
	var config Config
	v := viper.New()

	// Add file-based config paths
	v.AddConfigPath(".")
	v.AddConfigPath("config")
	v.AddConfigPath("/app/config")

	v.SetConfigName("config")
	v.SetConfigType("yml")

	// Secrets come from the environment, never from the yml file.
	v.SetEnvPrefix("WEATHERVANE")
	v.AutomaticEnv()
	_ = v.BindEnv("repositories.postgres.password", "POSTGRES_PASSWORD")

	// Try to load file-based config
	err := v.ReadInConfig()
	if err != nil {
		fmt.Printf("Warning: Failed to find file-based config: %s. Falling back to embedded config.\n", err)
		if err = v.ReadConfig(bytes.NewReader(embeddedConfig)); err != nil {
			return Config{}, fmt.Errorf("failed to read embedded config: %s", err)
		}
	}

	// Unmarshal the config into the Config struct
	if err = v.Unmarshal(&config); err != nil {
		return Config{}, fmt.Errorf("failed to unmarshal config: %s", err)
	}

	if config.Collector.DefaultIntervalMinutes <= 0 {
		config.Collector.DefaultIntervalMinutes = 60
	}
	if config.Collector.TickSeconds <= 0 {
		config.Collector.TickSeconds = 60
	}
	if config.AI.Model == "" {
		config.AI.Model = "gemini-2.0-flash"
	}

	return config, nil
}
