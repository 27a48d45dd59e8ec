package server

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"

	"github.com/elskow/gatekeep/internal/config"
)

const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTesting     = "testing"
)

const envPrefix = "GATEKEEP"

// ConfigPaths lists the directories searched for config.toml.
var ConfigPaths = []string{"./config/server", "."}

func LoadConfig() (*config.AppConfig, error) {
	// .env files are optional; real environment variables take precedence.
	_ = godotenv.Load(".env.local", ".env")

	env := os.Getenv("APP_ENV")
	if env == "" {
		env = EnvDevelopment
	}

	v := viper.New()
	v.SetConfigName("config")
	v.SetConfigType("toml")
	for _, p := range ConfigPaths {
		v.AddConfigPath(p)
	}

	setDefaults(v)

	v.SetEnvPrefix(envPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Variable names accepted from earlier deployments. Only the names carry
	// over: accounts are read from the "accounts" collection with string ids,
	// so documents written by the old service are not picked up.
	if err := v.BindEnv("auth.jwt_secret", envPrefix+"_AUTH_JWT_SECRET", "SECRET_KEY"); err != nil {
		return nil, fmt.Errorf("error binding env: %w", err)
	}
	if err := v.BindEnv("database.dsn", envPrefix+"_DATABASE_DSN", "MONGO_URI"); err != nil {
		return nil, fmt.Errorf("error binding env: %w", err)
	}

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if !errors.As(err, &notFound) {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
	}

	var cfg config.AppConfig
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("error unmarshaling config: %w", err)
	}
	cfg.Env = env

	// Environment-specific server overrides, e.g. [server.production].
	if envSettings := v.GetStringMap(fmt.Sprintf("server.%s", env)); len(envSettings) > 0 {
		if err := v.UnmarshalKey(fmt.Sprintf("server.%s", env), &cfg.Server); err != nil {
			return nil, fmt.Errorf("error unmarshaling env config: %w", err)
		}
	}

	if err := Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "release")
	v.SetDefault("server.read_timeout", 10*time.Second)
	v.SetDefault("server.write_timeout", 10*time.Second)
	v.SetDefault("server.shutdown_timeout", 10*time.Second)
	v.SetDefault("server.allowed_origins", []string{})
	v.SetDefault("server.trusted_proxies", []string{})

	v.SetDefault("auth.jwt_secret", "")
	v.SetDefault("auth.token_expiration", time.Hour)
	v.SetDefault("auth.max_login_attempts", 5)
	v.SetDefault("auth.lock_duration", 5*time.Minute)
	v.SetDefault("auth.bcrypt_cost", 10)

	v.SetDefault("database.driver", config.DriverMongoDB)
	v.SetDefault("database.dsn", "")
	v.SetDefault("database.name", "gatekeep")
	v.SetDefault("database.connect_timeout", 10*time.Second)
	v.SetDefault("database.auto_migrate", false)

	v.SetDefault("rate_limit.requests_per_second", 0)
	v.SetDefault("rate_limit.burst", 10)
}

// Validate rejects configurations the server must not start with. There are
// no fallbacks for the signing secret or the connection string.
func Validate(cfg *config.AppConfig) error {
	var errs []error

	if cfg.Auth.JWTSecret == "" {
		errs = append(errs, errors.New("auth.jwt_secret is required"))
	}
	if cfg.Auth.TokenExpiration <= 0 {
		errs = append(errs, errors.New("auth.token_expiration must be positive"))
	}
	if cfg.Auth.MaxLoginAttempts <= 0 {
		errs = append(errs, errors.New("auth.max_login_attempts must be positive"))
	}
	if cfg.Auth.LockDuration <= 0 {
		errs = append(errs, errors.New("auth.lock_duration must be positive"))
	}

	switch cfg.Database.Driver {
	case config.DriverPostgres, config.DriverMongoDB, config.DriverRedis:
		if cfg.Database.DSN == "" {
			errs = append(errs, fmt.Errorf("database.dsn is required for driver %q", cfg.Database.Driver))
		}
	case config.DriverMemory:
		if cfg.Env == EnvProduction {
			errs = append(errs, errors.New("database.driver \"memory\" is not allowed in production"))
		}
	default:
		errs = append(errs, fmt.Errorf("unknown database.driver %q", cfg.Database.Driver))
	}

	if len(errs) > 0 {
		return fmt.Errorf("invalid configuration: %w", errors.Join(errs...))
	}
	return nil
}
