package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"time"

	"github.com/AlenaMolokova/bazario/internal/constants"
	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

// Config is filled from flags first; environment variables override them.
type Config struct {
	RunAddr        string        `env:"RUN_ADDRESS"`
	DatabaseURI    string        `env:"DATABASE_URI"`
	JWTSecret      string        `env:"JWT_SECRET"`
	TokenTTL       time.Duration `env:"ACCESS_TOKEN_TTL"`
	UploadDir      string        `env:"UPLOAD_DIR"`
	MaxUploadBytes int64         `env:"MAX_UPLOAD_BYTES"`
	MigrationsPath string        `env:"MIGRATIONS_PATH"`
	AdminLogin     string        `env:"ADMIN_LOGIN"`
	AdminPassword  string        `env:"ADMIN_PASSWORD"`
	OperatorLogin  string        `env:"OPERATOR_LOGIN"`
	LogLevel       string        `env:"LOG_LEVEL"`
	LogFormat      string        `env:"LOG_FORMAT"`
	RateLimitRPS   float64       `env:"RATE_LIMIT_RPS"`
	RateLimitBurst int           `env:"RATE_LIMIT_BURST"`
	SweepInterval  time.Duration `env:"SWEEP_INTERVAL"`
}

func NewConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to read .env: %w", err)
	}
	return Load(os.Args[1:])
}

func Load(args []string) (*Config, error) {
	cfg := &Config{
		RunAddr:        constants.DefaultRunAddr,
		JWTSecret:      constants.DefaultJWTSecret,
		TokenTTL:       constants.DefaultTokenTTL,
		UploadDir:      constants.DefaultUploadDir,
		MaxUploadBytes: constants.DefaultMaxUploadBytes,
		MigrationsPath: constants.DefaultMigrationsPath,
		AdminLogin:     constants.DefaultAdminLogin,
		LogLevel:       "info",
		LogFormat:      "text",
		RateLimitRPS:   constants.DefaultRateLimitRPS,
		RateLimitBurst: constants.DefaultRateLimitBurst,
		SweepInterval:  constants.DefaultSweepInterval,
	}

	fset := flag.NewFlagSet("bazario", flag.ContinueOnError)
	fset.StringVar(&cfg.RunAddr, "a", cfg.RunAddr, "server address")
	fset.StringVar(&cfg.DatabaseURI, "d", cfg.DatabaseURI, "database URI")
	fset.StringVar(&cfg.JWTSecret, "j", cfg.JWTSecret, "JWT secret")
	fset.DurationVar(&cfg.TokenTTL, "t", cfg.TokenTTL, "access token lifetime")
	fset.StringVar(&cfg.UploadDir, "u", cfg.UploadDir, "upload directory")
	fset.StringVar(&cfg.MigrationsPath, "m", cfg.MigrationsPath, "migrations directory")
	fset.StringVar(&cfg.AdminLogin, "admin", cfg.AdminLogin, "bootstrap admin username")
	fset.StringVar(&cfg.OperatorLogin, "operator", cfg.OperatorLogin, "account credited by finished orders")
	fset.StringVar(&cfg.LogLevel, "l", cfg.LogLevel, "log level")
	fset.DurationVar(&cfg.SweepInterval, "s", cfg.SweepInterval, "orphaned upload sweep interval, 0 disables")
	if err := fset.Parse(args); err != nil {
		return nil, err
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("failed to parse environment: %w", err)
	}

	cfg.DatabaseURI = strings.TrimSpace(cfg.DatabaseURI)
	if cfg.DatabaseURI == "" {
		return nil, errors.New("DATABASE_URI is required")
	}
	if cfg.TokenTTL <= 0 {
		return nil, fmt.Errorf("ACCESS_TOKEN_TTL must be positive, got %s", cfg.TokenTTL)
	}
	if cfg.MaxUploadBytes <= 0 {
		return nil, fmt.Errorf("MAX_UPLOAD_BYTES must be positive, got %d", cfg.MaxUploadBytes)
	}
	if cfg.SweepInterval < 0 {
		return nil, fmt.Errorf("SWEEP_INTERVAL must not be negative, got %s", cfg.SweepInterval)
	}
	if cfg.LogFormat != "text" && cfg.LogFormat != "json" {
		return nil, fmt.Errorf("LOG_FORMAT must be text or json, got %q", cfg.LogFormat)
	}
	if cfg.OperatorLogin == "" {
		cfg.OperatorLogin = cfg.AdminLogin
	}
	if cfg.JWTSecret == constants.DefaultJWTSecret {
		logrus.Warn("JWT_SECRET is not set, using the built-in development secret")
	}

	logrus.WithFields(logrus.Fields{
		"run_addr":   cfg.RunAddr,
		"upload_dir": cfg.UploadDir,
		"migrations": cfg.MigrationsPath,
		"admin":      cfg.AdminLogin,
		"operator":   cfg.OperatorLogin,
		"token_ttl":  cfg.TokenTTL.String(),
	}).Info("Config loaded")
	return cfg, nil
}
