package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
	"go.uber.org/zap"
)

// Config holds all configuration values.
type Config struct {
	Port string `mapstructure:"PORT"`
	Env  string `mapstructure:"ENV"`

	DatabaseURL       string        `mapstructure:"DATABASE_URL"`
	DBMaxOpenConns    int           `mapstructure:"DB_MAX_OPEN_CONNS"`
	DBMaxIdleConns    int           `mapstructure:"DB_MAX_IDLE_CONNS"`
	DBConnMaxLifetime time.Duration `mapstructure:"DB_CONN_MAX_LIFETIME"`
	DBQueryTimeout    time.Duration `mapstructure:"DB_QUERY_TIMEOUT"`

	JWTSecret      string `mapstructure:"JWT_SECRET"`
	JWTExpiryHours int    `mapstructure:"JWT_EXPIRY_HOURS"`

	// Twilio. Verification falls back to the master code when unset.
	TwilioAccountSID       string `mapstructure:"TWILIO_ACCOUNT_SID"`
	TwilioAuthToken        string `mapstructure:"TWILIO_AUTH_TOKEN"`
	TwilioVerifyServiceSID string `mapstructure:"TWILIO_VERIFY_SERVICE_SID"`
	TwilioPhoneNumber      string `mapstructure:"TWILIO_PHONE_NUMBER"`
	TwilioDemoPhone        string `mapstructure:"TWILIO_DEMO_PHONE"`

	MasterOTP          string `mapstructure:"MASTER_OTP"`
	OTPSMSEnabled      bool   `mapstructure:"OTP_SMS_ENABLED"`
	DefaultCountryCode string `mapstructure:"DEFAULT_COUNTRY_CODE"`

	ReminderCron     string `mapstructure:"REMINDER_CRON"`
	RemindersEnabled bool   `mapstructure:"REMINDERS_ENABLED"`

	CORSOrigins     string `mapstructure:"CORS_ORIGINS"`
	RateLimitPerMin int    `mapstructure:"RATE_LIMIT_PER_MIN"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("PORT", "8080")
	v.SetDefault("ENV", "development")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("DB_MAX_OPEN_CONNS", 25)
	v.SetDefault("DB_MAX_IDLE_CONNS", 10)
	v.SetDefault("DB_CONN_MAX_LIFETIME", 5*time.Minute)
	v.SetDefault("DB_QUERY_TIMEOUT", 5*time.Second)
	v.SetDefault("JWT_SECRET", "")
	v.SetDefault("JWT_EXPIRY_HOURS", 24)
	v.SetDefault("TWILIO_ACCOUNT_SID", "")
	v.SetDefault("TWILIO_AUTH_TOKEN", "")
	v.SetDefault("TWILIO_VERIFY_SERVICE_SID", "")
	v.SetDefault("TWILIO_PHONE_NUMBER", "")
	v.SetDefault("TWILIO_DEMO_PHONE", "")
	v.SetDefault("MASTER_OTP", devMasterOTP)
	v.SetDefault("OTP_SMS_ENABLED", false)
	v.SetDefault("DEFAULT_COUNTRY_CODE", "+91")
	v.SetDefault("REMINDER_CRON", "0 9 * * *")
	v.SetDefault("REMINDERS_ENABLED", true)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000,http://localhost:5173")
	v.SetDefault("RATE_LIMIT_PER_MIN", 30)
}

// devMasterOTP is the development bypass code. Production must replace it
// or switch it off.
const devMasterOTP = "1234"

// Load reads configuration from the environment, optionally overlaid on a
// config.yaml in the working or config directory.
func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AutomaticEnv()
	setDefaults(v)

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("read config file: %w", err)
		}
		zap.L().Debug("No config file found, using environment variables only")
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}
	if strings.EqualFold(cfg.MasterOTP, "off") {
		cfg.MasterOTP = ""
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate rejects settings the server cannot start with.
func (c *Config) Validate() error {
	if c.DatabaseURL == "" {
		return errors.New("DATABASE_URL is required")
	}
	if len(c.AllowedOrigins()) == 0 {
		return errors.New("CORS_ORIGINS must list at least one origin")
	}
	if c.RateLimitPerMin <= 0 {
		return errors.New("RATE_LIMIT_PER_MIN must be positive")
	}
	if c.IsProduction() && c.MasterOTP == devMasterOTP {
		return errors.New(`MASTER_OTP must be changed or set to "off" in production`)
	}
	return nil
}

func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// TwilioConfigured reports whether Twilio credentials are present.
func (c *Config) TwilioConfigured() bool {
	return c.TwilioAccountSID != "" && c.TwilioAuthToken != ""
}

func (c *Config) JWTExpiry() time.Duration {
	return time.Duration(c.JWTExpiryHours) * time.Hour
}

// AllowedOrigins splits CORS_ORIGINS on commas.
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
