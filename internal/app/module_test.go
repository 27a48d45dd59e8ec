package app

import (
	"context"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/fx"
	"go.uber.org/fx/fxtest"

	"github.com/elskow/gatekeep/internal/server"
)

func setTestEnv(t *testing.T) {
	t.Setenv("APP_ENV", server.EnvTesting)
	t.Setenv("GATEKEEP_AUTH_JWT_SECRET", "test-secret-key")
	t.Setenv("GATEKEEP_DATABASE_DRIVER", "memory")
	t.Setenv("GATEKEEP_DATABASE_DSN", "")
	t.Setenv("SECRET_KEY", "")
	t.Setenv("MONGO_URI", "")
	t.Setenv("GATEKEEP_SERVER_HOST", "127.0.0.1")
	t.Setenv("GATEKEEP_SERVER_PORT", "0")
	t.Setenv("GATEKEEP_SERVER_MODE", "test")
}

func TestModule_Validate(t *testing.T) {
	setTestEnv(t)
	assert.NoError(t, fx.ValidateApp(Module()))
}

func TestModule_StartStop(t *testing.T) {
	setTestEnv(t)

	var srv *server.Server
	app := fxtest.New(t, Module(), fx.Populate(&srv), fx.NopLogger)

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	require.NoError(t, app.Start(ctx))

	resp, err := http.Get("http://" + srv.Addr() + "/health")
	require.NoError(t, err)
	_ = resp.Body.Close()
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	require.NoError(t, app.Stop(ctx))
}

func TestModule_FailsWithoutSecret(t *testing.T) {
	setTestEnv(t)
	t.Setenv("GATEKEEP_AUTH_JWT_SECRET", "")

	app := fx.New(Module(), fx.NopLogger)
	assert.Error(t, app.Err())
}
