package config

import (
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server    ServerConfig    `mapstructure:"server"`
	Database  DatabaseConfig  `mapstructure:"database"`
	JWT       JWTConfig       `mapstructure:"jwt"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Email     EmailConfig     `mapstructure:"email"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
	Logging   LoggingConfig   `mapstructure:"logging"`
	Worker    WorkerConfig    `mapstructure:"worker"`
}

type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

type DatabaseConfig struct {
	Path           string `mapstructure:"path"`
	MaxConnections int    `mapstructure:"max_connections"`
}

type JWTConfig struct {
	Secret          string        `mapstructure:"secret"`
	AccessTokenTTL  time.Duration `mapstructure:"access_token_ttl"`
	RefreshTokenTTL time.Duration `mapstructure:"refresh_token_ttl"`
}

// AuthConfig carries the URLs the confirmation and invitation emails link to.
// AppBaseURL is the browser-facing frontend, APIBaseURL is this service.
type AuthConfig struct {
	AppBaseURL          string        `mapstructure:"app_base_url"`
	APIBaseURL          string        `mapstructure:"api_base_url"`
	ConfirmationCodeTTL time.Duration `mapstructure:"confirmation_code_ttl"`
	InvitationTTL       time.Duration `mapstructure:"invitation_ttl"`
}

type EmailConfig struct {
	Provider    string `mapstructure:"provider"`
	APIKey      string `mapstructure:"api_key"`
	FromAddress string `mapstructure:"from_address"`
	FromName    string `mapstructure:"from_name"`
}

type RateLimitConfig struct {
	AuthPerMinute     int `mapstructure:"auth_per_minute"`
	APIWritePerMinute int `mapstructure:"api_write_per_minute"`
}

type LoggingConfig struct {
	Level    string `mapstructure:"level"`
	Format   string `mapstructure:"format"`
	Output   string `mapstructure:"output"`
	FilePath string `mapstructure:"file_path"`
}

type WorkerConfig struct {
	InvitationRetryInterval time.Duration `mapstructure:"invitation_retry_interval"`
	ReminderInterval        time.Duration `mapstructure:"reminder_interval"`
	ReminderWindow          time.Duration `mapstructure:"reminder_window"`
}

func Load(path string) (*Config, error) {
	viper.SetConfigFile(path)
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	viper.SetDefault("auth.confirmation_code_ttl", 24*time.Hour)
	viper.SetDefault("auth.invitation_ttl", 7*24*time.Hour)
	viper.SetDefault("worker.invitation_retry_interval", 5*time.Minute)
	viper.SetDefault("worker.reminder_interval", time.Hour)
	viper.SetDefault("worker.reminder_window", 24*time.Hour)

	if err := viper.ReadInConfig(); err != nil {
		return nil, err
	}

	var config Config
	if err := viper.Unmarshal(&config); err != nil {
		return nil, err
	}

	return &config, nil
}
