package config

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Mode             string        `mapstructure:"mode"`
	APIURL           string        `mapstructure:"api_url"`
	APIKey           string        `mapstructure:"api_key"`
	AgentID          string        `mapstructure:"agent_id"`
	ControlPort      int           `mapstructure:"control_port"`
	LocalName        string        `mapstructure:"local_name"`
	PublishOnConnect bool          `mapstructure:"publish_on_connect"`
	CameraDevice     string        `mapstructure:"camera_device"`
	MicrophoneDevice string        `mapstructure:"microphone_device"`
	DialTimeout      time.Duration `mapstructure:"dial_timeout"`
	PingPeriod       time.Duration `mapstructure:"ping_period"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigType("yaml")

	env := os.Getenv("CONFIG_ENV")
	if env == "" {
		env = "dev"
	}
	fileName := fmt.Sprintf("config/config.%s.yaml", env)

	v.SetConfigFile(fileName)
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetDefault("mode", "release")
	v.SetDefault("api_key", "")
	v.SetDefault("agent_id", "")
	v.SetDefault("api_url", "https://api.bey.dev/v1/calls")
	v.SetDefault("control_port", 8080)
	v.SetDefault("local_name", "You")
	v.SetDefault("publish_on_connect", true)
	v.SetDefault("dial_timeout", "10s")
	v.SetDefault("ping_period", "25s")

	// Secrets come from the environment: VISAGE_API_KEY, VISAGE_AGENT_ID.
	v.SetEnvPrefix("VISAGE")
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		fmt.Printf("config file not found (%s), using defaults\n", fileName)
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config: %w", err)
	}
	return &cfg, nil
}
