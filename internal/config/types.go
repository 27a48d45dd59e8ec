package config

import "time"

type ServerConfig struct {
	Host            string        `mapstructure:"host"`
	Port            string        `mapstructure:"port"`
	Mode            string        `mapstructure:"mode"`
	ReadTimeout     time.Duration `mapstructure:"read_timeout"`
	WriteTimeout    time.Duration `mapstructure:"write_timeout"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
	AllowedOrigins  []string      `mapstructure:"allowed_origins"`
	// TrustedProxies lists the proxies whose X-Forwarded-For is believed.
	// Empty means the socket peer is the client.
	TrustedProxies []string `mapstructure:"trusted_proxies"`
}

type AuthConfig struct {
	JWTSecret        string        `mapstructure:"jwt_secret"`
	TokenExpiration  time.Duration `mapstructure:"token_expiration"`
	MaxLoginAttempts int           `mapstructure:"max_login_attempts"`
	LockDuration     time.Duration `mapstructure:"lock_duration"`
	BcryptCost       int           `mapstructure:"bcrypt_cost"`
}

// DatabaseConfig selects the account store backend. DSN is interpreted by the
// chosen driver: a postgres connection string, a mongodb:// URI or a redis:// URL.
type DatabaseConfig struct {
	Driver         string        `mapstructure:"driver"`
	DSN            string        `mapstructure:"dsn"`
	Name           string        `mapstructure:"name"`
	ConnectTimeout time.Duration `mapstructure:"connect_timeout"`
	AutoMigrate    bool          `mapstructure:"auto_migrate"`
}

type RateLimitConfig struct {
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
	Burst             int     `mapstructure:"burst"`
}

type AppConfig struct {
	Env       string          `mapstructure:"-"`
	Server    ServerConfig    `mapstructure:"server"`
	Auth      AuthConfig      `mapstructure:"auth"`
	Database  DatabaseConfig  `mapstructure:"database"`
	RateLimit RateLimitConfig `mapstructure:"rate_limit"`
}

const (
	DriverPostgres = "postgres"
	DriverMongoDB  = "mongodb"
	DriverRedis    = "redis"
	DriverMemory   = "memory"
)
