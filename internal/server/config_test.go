package server

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/elskow/gatekeep/internal/config"
)

var configEnvVars = []string{
	"APP_ENV",
	"SECRET_KEY",
	"MONGO_URI",
	"GATEKEEP_AUTH_JWT_SECRET",
	"GATEKEEP_AUTH_TOKEN_EXPIRATION",
	"GATEKEEP_DATABASE_DRIVER",
	"GATEKEEP_DATABASE_DSN",
	"GATEKEEP_SERVER_PORT",
}

// isolateConfig points LoadConfig at dir and clears inherited variables.
func isolateConfig(t *testing.T, dir string) {
	t.Helper()
	for _, name := range configEnvVars {
		t.Setenv(name, "")
	}
	prev := ConfigPaths
	ConfigPaths = []string{dir}
	t.Cleanup(func() { ConfigPaths = prev })
}

func TestLoadConfig_Defaults(t *testing.T) {
	isolateConfig(t, t.TempDir())
	t.Setenv("GATEKEEP_AUTH_JWT_SECRET", "s3cret")
	t.Setenv("GATEKEEP_DATABASE_DRIVER", "memory")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, EnvDevelopment, cfg.Env)
	assert.Equal(t, "s3cret", cfg.Auth.JWTSecret)
	assert.Equal(t, time.Hour, cfg.Auth.TokenExpiration)
	assert.Equal(t, 5, cfg.Auth.MaxLoginAttempts)
	assert.Equal(t, 5*time.Minute, cfg.Auth.LockDuration)
	assert.Equal(t, "8080", cfg.Server.Port)
	assert.Equal(t, config.DriverMemory, cfg.Database.Driver)
}

func TestLoadConfig_LegacyVariableNames(t *testing.T) {
	isolateConfig(t, t.TempDir())
	t.Setenv("SECRET_KEY", "legacy-secret")
	t.Setenv("MONGO_URI", "mongodb://localhost:27017")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, "legacy-secret", cfg.Auth.JWTSecret)
	assert.Equal(t, config.DriverMongoDB, cfg.Database.Driver)
	assert.Equal(t, "mongodb://localhost:27017", cfg.Database.DSN)
}

func TestLoadConfig_RequiresSecretAndDSN(t *testing.T) {
	isolateConfig(t, t.TempDir())

	_, err := LoadConfig()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "auth.jwt_secret is required")
	assert.Contains(t, err.Error(), "database.dsn is required")
}

func TestLoadConfig_FileWithEnvironmentOverrides(t *testing.T) {
	dir := t.TempDir()
	isolateConfig(t, dir)

	content := `
[server]
host = "127.0.0.1"
port = "9000"
mode = "debug"

[server.production]
port = "80"
mode = "release"

[auth]
jwt_secret = "from-file"
token_expiration = "30m"

[database]
driver = "redis"
dsn = "redis://localhost:6379/0"
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.toml"), []byte(content), 0o600))
	t.Setenv("APP_ENV", EnvProduction)
	t.Setenv("GATEKEEP_AUTH_JWT_SECRET", "from-env")

	cfg, err := LoadConfig()
	require.NoError(t, err)

	assert.Equal(t, EnvProduction, cfg.Env)
	assert.Equal(t, "127.0.0.1", cfg.Server.Host)
	assert.Equal(t, "80", cfg.Server.Port)
	assert.Equal(t, "release", cfg.Server.Mode)
	assert.Equal(t, "from-env", cfg.Auth.JWTSecret)
	assert.Equal(t, 30*time.Minute, cfg.Auth.TokenExpiration)
	assert.Equal(t, config.DriverRedis, cfg.Database.Driver)
}

func TestValidate(t *testing.T) {
	valid := func() *config.AppConfig {
		return &config.AppConfig{
			Env: EnvDevelopment,
			Auth: config.AuthConfig{
				JWTSecret:        "secret",
				TokenExpiration:  time.Hour,
				MaxLoginAttempts: 5,
				LockDuration:     5 * time.Minute,
			},
			Database: config.DatabaseConfig{Driver: config.DriverPostgres, DSN: "postgres://localhost/gatekeep"},
		}
	}

	tests := []struct {
		name    string
		mutate  func(*config.AppConfig)
		wantErr string
	}{
		{name: "valid", mutate: func(*config.AppConfig) {}},
		{name: "memory outside production", mutate: func(c *config.AppConfig) {
			c.Database = config.DatabaseConfig{Driver: config.DriverMemory}
		}},
		{name: "missing secret", mutate: func(c *config.AppConfig) { c.Auth.JWTSecret = "" }, wantErr: "auth.jwt_secret is required"},
		{name: "zero expiration", mutate: func(c *config.AppConfig) { c.Auth.TokenExpiration = 0 }, wantErr: "auth.token_expiration must be positive"},
		{name: "zero attempts", mutate: func(c *config.AppConfig) { c.Auth.MaxLoginAttempts = 0 }, wantErr: "auth.max_login_attempts must be positive"},
		{name: "negative lock", mutate: func(c *config.AppConfig) { c.Auth.LockDuration = -time.Second }, wantErr: "auth.lock_duration must be positive"},
		{name: "missing dsn", mutate: func(c *config.AppConfig) { c.Database.DSN = "" }, wantErr: "database.dsn is required"},
		{name: "memory in production", mutate: func(c *config.AppConfig) {
			c.Env = EnvProduction
			c.Database = config.DatabaseConfig{Driver: config.DriverMemory}
		}, wantErr: "not allowed in production"},
		{name: "unknown driver", mutate: func(c *config.AppConfig) { c.Database.Driver = "sqlite" }, wantErr: "unknown database.driver"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := valid()
			tt.mutate(cfg)

			err := Validate(cfg)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestNewLogger(t *testing.T) {
	for _, env := range []string{EnvDevelopment, EnvProduction, EnvTesting, ""} {
		logger, err := NewLogger(env)
		require.NoError(t, err, env)
		assert.NotNil(t, logger)
	}
}
