package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type HTTPConfig struct {
	Address string
}

type PostgresConfig struct {
	Conn              string
	MigrationsEnabled bool
}

type RedisConfig struct {
	Addr        string
	Password    string
	DB          int
	DialTimeout time.Duration
	ReadTimeout time.Duration
}

type AMQPConfig struct {
	URL            string
	ProposalsQueue string
	ShortlistQueue string
}

type OTPConfig struct {
	TTL       time.Duration
	Mode      string
	FixedCode string
}

// ProposalsConfig bounds how long in-progress proposals are kept in memory.
type ProposalsConfig struct {
	IdleTTL       time.Duration
	SweepInterval time.Duration
}

type PricingConfig struct {
	CGSTRate     float64
	SGSTRate     float64
	DiscountRate float64
}

type Config struct {
	Environment string
	LogLevel    string
	HTTP        HTTPConfig
	Postgres    PostgresConfig
	Redis       RedisConfig
	AMQP        AMQPConfig
	OTP         OTPConfig
	Proposals   ProposalsConfig
	Pricing     PricingConfig
}

const (
	OTPModeFixed  = "fixed"
	OTPModeRandom = "random"
)

func (c *Config) Development() bool {
	return c.Environment == "development"
}

// Load reads .env, then an optional app.env, then the environment.
func Load() (*Config, error) {
	_ = godotenv.Load()

	v := viper.New()
	v.SetConfigName("app")
	v.SetConfigType("env")
	v.AddConfigPath(".")
	v.AddConfigPath("./config")
	v.AddConfigPath("./deploy")
	v.AutomaticEnv()
	setDefaults(v)

	_ = v.ReadInConfig()

	cfg := fromViper(v)
	if err := validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("APP_ENV", "production")
	v.SetDefault("SERVER_ADDRESS", "0.0.0.0:8080")
	v.SetDefault("MIGRATIONS_ENABLED", true)
	v.SetDefault("REDIS_DB", 0)
	v.SetDefault("AMQP_PROPOSALS_QUEUE", "proposals.submitted")
	v.SetDefault("AMQP_SHORTLIST_QUEUE", "bids.shortlisted")
	v.SetDefault("OTP_TTL", "300s")
	v.SetDefault("OTP_MODE", OTPModeFixed)
	v.SetDefault("OTP_FIXED_CODE", "123456")
	v.SetDefault("PROPOSAL_IDLE_TTL", "24h")
	v.SetDefault("SWEEP_INTERVAL", "1m")
	v.SetDefault("PRICING_CGST_RATE", 9)
	v.SetDefault("PRICING_SGST_RATE", 9)
	v.SetDefault("PRICING_DISCOUNT_RATE", 0)
}

func fromViper(v *viper.Viper) *Config {
	cfg := &Config{
		Environment: strings.ToLower(v.GetString("APP_ENV")),
		LogLevel:    strings.ToLower(v.GetString("LOG_LEVEL")),
		HTTP: HTTPConfig{
			Address: v.GetString("SERVER_ADDRESS"),
		},
		Postgres: PostgresConfig{
			Conn:              v.GetString("POSTGRES_CONN"),
			MigrationsEnabled: v.GetBool("MIGRATIONS_ENABLED"),
		},
		Redis: RedisConfig{
			Addr:        v.GetString("REDIS_ADDR"),
			Password:    v.GetString("REDIS_PASSWORD"),
			DB:          v.GetInt("REDIS_DB"),
			DialTimeout: 10 * time.Second,
			ReadTimeout: 10 * time.Second,
		},
		AMQP: AMQPConfig{
			URL:            v.GetString("AMQP_URL"),
			ProposalsQueue: v.GetString("AMQP_PROPOSALS_QUEUE"),
			ShortlistQueue: v.GetString("AMQP_SHORTLIST_QUEUE"),
		},
		OTP: OTPConfig{
			TTL:       v.GetDuration("OTP_TTL"),
			Mode:      strings.ToLower(v.GetString("OTP_MODE")),
			FixedCode: v.GetString("OTP_FIXED_CODE"),
		},
		Proposals: ProposalsConfig{
			IdleTTL:       v.GetDuration("PROPOSAL_IDLE_TTL"),
			SweepInterval: v.GetDuration("SWEEP_INTERVAL"),
		},
		Pricing: PricingConfig{
			CGSTRate:     v.GetFloat64("PRICING_CGST_RATE"),
			SGSTRate:     v.GetFloat64("PRICING_SGST_RATE"),
			DiscountRate: v.GetFloat64("PRICING_DISCOUNT_RATE"),
		},
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
		if cfg.Development() {
			cfg.LogLevel = "debug"
		}
	}
	return cfg
}

func validate(cfg *Config) error {
	if cfg.HTTP.Address == "" {
		return fmt.Errorf("SERVER_ADDRESS is required")
	}
	if cfg.OTP.TTL <= 0 {
		return fmt.Errorf("OTP_TTL must be positive")
	}
	if cfg.Proposals.IdleTTL <= 0 || cfg.Proposals.SweepInterval <= 0 {
		return fmt.Errorf("PROPOSAL_IDLE_TTL and SWEEP_INTERVAL must be positive")
	}
	switch cfg.OTP.Mode {
	case OTPModeFixed:
		if !sixDigits(cfg.OTP.FixedCode) {
			return fmt.Errorf("OTP_FIXED_CODE must be exactly 6 digits")
		}
	case OTPModeRandom:
	default:
		return fmt.Errorf("OTP_MODE must be %q or %q", OTPModeFixed, OTPModeRandom)
	}
	if cfg.Pricing.CGSTRate < 0 || cfg.Pricing.SGSTRate < 0 || cfg.Pricing.DiscountRate < 0 {
		return fmt.Errorf("pricing rates must not be negative")
	}
	if cfg.AMQP.URL != "" && (cfg.AMQP.ProposalsQueue == "" || cfg.AMQP.ShortlistQueue == "") {
		return fmt.Errorf("AMQP queues are required when AMQP_URL is set")
	}
	return nil
}

func sixDigits(s string) bool {
	if len(s) != 6 {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}
